package handlers

import (
	"recipe-share/domain"
	"recipe-share/internal/api/presenters"
	"recipe-share/pkg/recipe"
	"recipe-share/pkg/user"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	UserHandler interface {
		Me(c *fiber.Ctx) error
		UpdateMe(c *fiber.Ctx) error
		UploadAvatar(c *fiber.Ctx) error
		GetBookmarks(c *fiber.Ctx) error
		GetHistory(c *fiber.Ctx) error
		GetProfile(c *fiber.Ctx) error
		GetUserRecipes(c *fiber.Ctx) error
	}

	userHandler struct {
		userService   user.UserService
		recipeService recipe.RecipeService
		validator     *validator.Validate
	}
)

func NewUserHandler(userService user.UserService, recipeService recipe.RecipeService, validator *validator.Validate) UserHandler {
	return &userHandler{
		userService:   userService,
		recipeService: recipeService,
		validator:     validator,
	}
}

func (h *userHandler) Me(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	res, err := h.userService.Me(c.UserContext(), userID)
	if err != nil {
		return presenters.Failure(c, domain.MessageFailedGetUser, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetUser)
}

func (h *userHandler) UpdateMe(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	req := new(domain.UpdateUserRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateUser, err)
	}

	res, err := h.userService.UpdateUser(c.UserContext(), *req, userID)
	if err != nil {
		return presenters.Failure(c, domain.MessageFailedUpdateUser, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateUser)
}

func (h *userHandler) UploadAvatar(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	image, err := c.FormFile("image")
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	req := domain.UploadAvatarRequest{Image: image}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUploadAvatar, err)
	}

	res, err := h.userService.UploadAvatar(c.UserContext(), req, userID)
	if err != nil {
		return presenters.Failure(c, domain.MessageFailedUploadAvatar, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUploadAvatar)
}

func (h *userHandler) GetBookmarks(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	page, limit := pageQuery(c)

	res, err := h.recipeService.GetBookmarkedRecipes(c.UserContext(), userID, page, limit)
	if err != nil {
		return presenters.Failure(c, domain.MessageFailedGetRecipes, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetRecipes)
}

func (h *userHandler) GetHistory(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	page, limit := pageQuery(c)

	res, err := h.recipeService.GetRecipeHistory(c.UserContext(), userID, page, limit)
	if err != nil {
		return presenters.Failure(c, domain.MessageFailedGetHistory, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetHistory)
}

func (h *userHandler) GetProfile(c *fiber.Ctx) error {
	res, err := h.userService.GetPublicProfile(c.UserContext(), c.Params("username"))
	if err != nil {
		return presenters.Failure(c, domain.MessageFailedGetUser, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetUser)
}

func (h *userHandler) GetUserRecipes(c *fiber.Ctx) error {
	username := c.Params("username")
	if _, err := h.userService.GetPublicProfile(c.UserContext(), username); err != nil {
		return presenters.Failure(c, domain.MessageFailedGetRecipes, err)
	}

	page, limit := pageQuery(c)
	res, err := h.recipeService.GetRecipesByUsername(c.UserContext(), username, page, limit)
	if err != nil {
		return presenters.Failure(c, domain.MessageFailedGetRecipes, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetRecipes)
}

func pageQuery(c *fiber.Ctx) (int, int) {
	return domain.NormalizePage(
		c.QueryInt("page", domain.DefaultPage),
		c.QueryInt("limit", domain.DefaultLimit),
	)
}

// viewerID is the signed-in user on routes that do not require one.
func viewerID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}
