package handlers

import (
	"net/url"

	"recipe-share/domain"
	"recipe-share/internal/api/presenters"
	"recipe-share/pkg/recipe"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	RecipeHandler interface {
		GetRecipes(c *fiber.Ctx) error
		GetRecipeDetail(c *fiber.Ctx) error
		GetRecipeByName(c *fiber.Ctx) error
		CreateRecipe(c *fiber.Ctx) error
		UpdateRecipe(c *fiber.Ctx) error
		DeleteRecipe(c *fiber.Ctx) error
		UploadImage(c *fiber.Ctx) error
		BookmarkRecipe(c *fiber.Ctx) error
		RemoveBookmark(c *fiber.Ctx) error
		MarkAsCooked(c *fiber.Ctx) error
	}

	recipeHandler struct {
		recipeService recipe.RecipeService
		validator     *validator.Validate
	}
)

func NewRecipeHandler(recipeService recipe.RecipeService, validator *validator.Validate) RecipeHandler {
	return &recipeHandler{
		recipeService: recipeService,
		validator:     validator,
	}
}

func (h *recipeHandler) GetRecipes(c *fiber.Ctx) error {
	page, limit := pageQuery(c)
	filter := domain.RecipeFilter{
		Cuisine:    c.Query("cuisine"),
		MealType:   c.Query("meal_type"),
		Difficulty: c.Query("difficulty"),
		MaxTime:    c.QueryInt("max_time", 0),
	}

	res, err := h.recipeService.GetRecipes(c.UserContext(), filter, page, limit)
	if err != nil {
		return presenters.Failure(c, domain.MessageFailedGetRecipes, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetRecipes)
}

func (h *recipeHandler) GetRecipeDetail(c *fiber.Ctx) error {
	res, err := h.recipeService.GetRecipeDetail(c.UserContext(), c.Params("id"), viewerID(c))
	if err != nil {
		return presenters.Failure(c, domain.MessageFailedGetRecipeDetail, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetRecipeDetail)
}

func (h *recipeHandler) GetRecipeByName(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		name = c.Params("name")
	}

	res, err := h.recipeService.GetRecipeByName(c.UserContext(), name, viewerID(c))
	if err != nil {
		return presenters.Failure(c, domain.MessageFailedGetRecipeDetail, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetRecipeDetail)
}

func (h *recipeHandler) CreateRecipe(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	req := new(domain.CreateRecipeRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateRecipe, err)
	}

	res, err := h.recipeService.CreateRecipe(c.UserContext(), *req, userID)
	if err != nil {
		return presenters.Failure(c, domain.MessageFailedCreateRecipe, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCreateRecipe)
}

func (h *recipeHandler) UpdateRecipe(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)
	req := new(domain.UpdateRecipeRequest)

	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUpdateRecipe, err)
	}

	res, err := h.recipeService.UpdateRecipe(c.UserContext(), c.Params("id"), *req, userID)
	if err != nil {
		return presenters.Failure(c, domain.MessageFailedUpdateRecipe, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUpdateRecipe)
}

func (h *recipeHandler) DeleteRecipe(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	if err := h.recipeService.DeleteRecipe(c.UserContext(), c.Params("id"), userID); err != nil {
		return presenters.Failure(c, domain.MessageFailedDeleteRecipe, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessDeleteRecipe)
}

func (h *recipeHandler) UploadImage(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	image, err := c.FormFile("image")
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	req := domain.UploadRecipeImageRequest{
		RecipeID: c.Params("id"),
		Image:    image,
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUploadImage, err)
	}

	res, err := h.recipeService.UploadImage(c.UserContext(), req, userID)
	if err != nil {
		return presenters.Failure(c, domain.MessageFailedUploadImage, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessUploadImage)
}

func (h *recipeHandler) BookmarkRecipe(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	if err := h.recipeService.BookmarkRecipe(c.UserContext(), c.Params("id"), userID); err != nil {
		return presenters.Failure(c, domain.MessageFailedSaveBookmark, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessSaveBookmark)
}

func (h *recipeHandler) RemoveBookmark(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	if err := h.recipeService.RemoveBookmark(c.UserContext(), c.Params("id"), userID); err != nil {
		return presenters.Failure(c, domain.MessageFailedRemoveBookmark, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessRemoveBookmark)
}

func (h *recipeHandler) MarkAsCooked(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(string)

	if err := h.recipeService.MarkAsCooked(c.UserContext(), c.Params("id"), userID); err != nil {
		return presenters.Failure(c, domain.MessageFailedMarkAsCooked, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessMarkAsCooked)
}
