package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"recipe-share/domain"
	"recipe-share/internal/api/handlers"
	"recipe-share/internal/api/presenters"
	"recipe-share/internal/api/routes"
	"recipe-share/internal/middleware"
	"recipe-share/internal/session"
	"recipe-share/internal/utils"
	"recipe-share/internal/utils/mailing"
	"recipe-share/internal/utils/storage"
	"recipe-share/pkg/ingredient"
	"recipe-share/pkg/jwt"
	"recipe-share/pkg/oauth"
	"recipe-share/pkg/recipe"
	"recipe-share/pkg/search"
	"recipe-share/pkg/user"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// bodyLimit leaves room for a full-size image plus multipart framing.
const bodyLimit = domain.MaxImageSize + 1<<20

// Dependencies are the external services the application talks to.
type Dependencies struct {
	DB             *gorm.DB
	SessionStore   session.Store
	Search         search.Client
	S3             storage.AwsS3
	Mailer         mailing.Mailer
	OAuthProviders []oauth.Provider
	HealthChecks   map[string]handlers.HealthCheck
	Logger         *zap.Logger
}

type Options struct {
	AppURL        string
	CORSOrigins   string
	JWTSecret     string
	SessionSecret string
	Session       session.Config
	// RateLimit is requests per second per client; zero disables the limiter.
	RateLimit int
	// AccessLog receives the request log; nil opens ./logs/app.log.
	AccessLog io.Writer
}

// OptionsFromConfig reads Options from the loaded configuration.
func OptionsFromConfig() Options {
	sessionCfg := session.DefaultConfig()
	sessionCfg.CookieName = utils.GetConfig("SESSION_COOKIE_NAME")
	sessionCfg.TTL = time.Duration(utils.GetConfigInt("SESSION_TTL_HOURS", 24)) * time.Hour
	if raw := utils.GetConfig("SESSION_SECURE"); raw != "" {
		secure := utils.GetConfigBool("SESSION_SECURE")
		sessionCfg.Secure = &secure
	}

	return Options{
		AppURL:        utils.GetConfig("APP_URL"),
		CORSOrigins:   utils.GetConfig("CORS_ORIGINS"),
		JWTSecret:     utils.GetConfig("JWT_SECRET"),
		SessionSecret: utils.GetConfig("SESSION_SECRET"),
		Session:       sessionCfg,
		RateLimit:     utils.GetConfigInt("RATE_LIMIT", 50),
	}
}

func NewApp(deps Dependencies, opts Options) (*fiber.App, error) {
	if deps.DB == nil || deps.SessionStore == nil {
		return nil, errors.New("database and session store are required")
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	utils.InitValidator()
	validator := utils.Validate

	app := fiber.New(fiber.Config{
		AppName:      "recipe-share",
		ErrorHandler: errorHandler(log),
		BodyLimit:    bodyLimit,
	})
	middlewares := middleware.NewMiddleware(opts.CORSOrigins, log)

	sessions, err := session.NewManager(deps.SessionStore, []byte(opts.SessionSecret), opts.Session, log)
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}

	// setting up logging and limiter
	accessLog := opts.AccessLog
	if accessLog == nil {
		if err := os.MkdirAll("./logs", os.ModePerm); err != nil {
			return nil, fmt.Errorf("create logs directory: %w", err)
		}
		file, err := os.OpenFile("./logs/app.log", os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("open access log: %w", err)
		}
		accessLog = file
	}

	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Output:     accessLog,
	}))
	if opts.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        opts.RateLimit,
			Expiration: 1 * time.Second,
		}))
	}
	app.Use(middlewares.CORSMiddleware())
	app.Use(middlewares.Metrics())
	app.Use(middlewares.ErrorReporting())

	// Repository
	userRepository := user.NewUserRepository(deps.DB)
	recipeRepository := recipe.NewRecipeRepository(deps.DB)
	ingredientRepository := ingredient.NewIngredientRepository(deps.DB)

	// Service
	jwtService := jwt.NewJWTService(opts.JWTSecret)
	userService := user.NewUserService(userRepository, jwtService, deps.Mailer, deps.S3, opts.AppURL, log)
	var recipeIndex recipe.RecipeIndex
	if deps.Search != nil {
		recipeIndex = deps.Search
	}
	recipeService := recipe.NewRecipeService(recipeRepository, ingredientRepository, deps.S3, recipeIndex, log)
	ingredientService := ingredient.NewIngredientService(ingredientRepository)
	searchService := search.NewSearchService(deps.Search, log)

	// Handler
	authHandler := handlers.NewAuthHandler(userService, deps.OAuthProviders, validator, opts.AppURL, log)
	userHandler := handlers.NewUserHandler(userService, recipeService, validator)
	recipeHandler := handlers.NewRecipeHandler(recipeService, validator)
	ingredientHandler := handlers.NewIngredientHandler(ingredientService, validator)
	searchHandler := handlers.NewSearchHandler(searchService)
	healthHandler := handlers.NewHealthHandler(deps.HealthChecks)

	// routes
	routesConfig := routes.Config{
		App:               app,
		AuthHandler:       authHandler,
		UserHandler:       userHandler,
		RecipeHandler:     recipeHandler,
		IngredientHandler: ingredientHandler,
		SearchHandler:     searchHandler,
		HealthHandler:     healthHandler,
		Middleware:        middlewares,
	}
	// health checks and scrapes never touch the session store
	routesConfig.Operational()
	app.Use(sessions.Middleware())
	routesConfig.Setup()
	return app, nil
}

// errorHandler answers errors no handler turned into a response, including
// recovered panics and unknown routes.
func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
			return presenters.ErrorResponse(c, fe.Code, strings.ToLower(fe.Message), err)
		}

		log.Error("unhandled error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		sentry.CaptureException(err)
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageInternalServerError, err)
	}
}
