package routes

import (
	"recipe-share/internal/api/handlers"
	"recipe-share/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Config struct {
	App               *fiber.App
	AuthHandler       handlers.AuthHandler
	UserHandler       handlers.UserHandler
	RecipeHandler     handlers.RecipeHandler
	IngredientHandler handlers.IngredientHandler
	SearchHandler     handlers.SearchHandler
	HealthHandler     handlers.HealthHandler
	Middleware        middleware.Middleware
}

func (c *Config) Setup() {
	c.GuestRoute()
	c.Auth()
	c.User()
	c.Recipe()
	c.Ingredient()
	c.Search()
}

// Operational registers health and metrics endpoints. Call it before the
// session middleware is installed so these hits stay sessionless.
func (c *Config) Operational() {
	c.App.Get("/api/ping", c.HealthHandler.Ping)
	c.App.Get("/api/health", c.HealthHandler.Health)
	c.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}

func (c *Config) GuestRoute() {
	c.App.Get("/r/:name", c.RecipeHandler.GetRecipeByName)
}

func (c *Config) Auth() {
	auth := c.App.Group("/api/v1/auth")
	{
		auth.Post("/register", c.AuthHandler.Register)
		auth.Post("/login", c.AuthHandler.Login)
		auth.Post("/logout", c.AuthHandler.Logout)
		auth.Get("/oauth/:provider", c.AuthHandler.OAuthRedirect)
		auth.Get("/oauth/:provider/callback", c.AuthHandler.OAuthCallback)
		auth.Post("/send-verify", c.AuthHandler.SendVerificationEmail)
		auth.Get("/verify", c.AuthHandler.VerifyEmail)
		auth.Post("/forget", c.AuthHandler.ForgotPassword)
		auth.Post("/reset", c.AuthHandler.ResetPassword)
	}
}

func (c *Config) User() {
	user := c.App.Group("/api/v1/users")
	{
		user.Get("/me", c.Middleware.AuthMiddleware(), c.UserHandler.Me)
		user.Patch("/me", c.Middleware.AuthMiddleware(), c.UserHandler.UpdateMe)
		user.Post("/me/avatar", c.Middleware.AuthMiddleware(), c.UserHandler.UploadAvatar)
		user.Get("/me/bookmarks", c.Middleware.AuthMiddleware(), c.UserHandler.GetBookmarks)
		user.Get("/me/history", c.Middleware.AuthMiddleware(), c.UserHandler.GetHistory)
		user.Get("/:username", c.UserHandler.GetProfile)
		user.Get("/:username/recipes", c.UserHandler.GetUserRecipes)
	}
}

func (c *Config) Recipe() {
	recipes := c.App.Group("/api/v1/recipes")
	recipes.Get("", c.RecipeHandler.GetRecipes)
	recipes.Get("/:id", c.RecipeHandler.GetRecipeDetail)

	recipes.Post("", c.Middleware.AuthMiddleware(), c.RecipeHandler.CreateRecipe)
	recipes.Put("/:id", c.Middleware.AuthMiddleware(), c.RecipeHandler.UpdateRecipe)
	recipes.Delete("/:id", c.Middleware.AuthMiddleware(), c.RecipeHandler.DeleteRecipe)
	recipes.Post("/:id/image", c.Middleware.AuthMiddleware(), c.RecipeHandler.UploadImage)

	recipes.Post("/:id/bookmark", c.Middleware.AuthMiddleware(), c.RecipeHandler.BookmarkRecipe)
	recipes.Delete("/:id/bookmark", c.Middleware.AuthMiddleware(), c.RecipeHandler.RemoveBookmark)
	recipes.Post("/:id/cooked", c.Middleware.AuthMiddleware(), c.RecipeHandler.MarkAsCooked)
}

func (c *Config) Ingredient() {
	ingredients := c.App.Group("/api/v1/ingredients")
	ingredients.Get("", c.IngredientHandler.SearchIngredients)
	ingredients.Get("/:id", c.IngredientHandler.GetIngredient)
	ingredients.Post("", c.Middleware.AuthMiddleware(), c.IngredientHandler.CreateIngredient)
}

func (c *Config) Search() {
	search := c.App.Group("/api/v1/search")
	search.Get("/ingredients", c.SearchHandler.SearchIngredients)
	search.Get("/recipes", c.SearchHandler.SearchRecipes)
}
