package handlers

import (
	"recipe-share/domain"
	"recipe-share/internal/api/presenters"
	"recipe-share/pkg/ingredient"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	IngredientHandler interface {
		SearchIngredients(c *fiber.Ctx) error
		GetIngredient(c *fiber.Ctx) error
		CreateIngredient(c *fiber.Ctx) error
	}

	ingredientHandler struct {
		ingredientService ingredient.IngredientService
		validator         *validator.Validate
	}
)

func NewIngredientHandler(ingredientService ingredient.IngredientService, validator *validator.Validate) IngredientHandler {
	return &ingredientHandler{
		ingredientService: ingredientService,
		validator:         validator,
	}
}

func (h *ingredientHandler) SearchIngredients(c *fiber.Ctx) error {
	page, limit := pageQuery(c)

	res, count, err := h.ingredientService.SearchIngredients(c.UserContext(), c.Query("q"), page, limit)
	if err != nil {
		return presenters.Failure(c, domain.MessageFailedGetIngredients, err)
	}

	return presenters.SuccessResponse(c, fiber.Map{
		"ingredients": res,
		"pagination":  domain.NewPagination(page, limit, count),
	}, fiber.StatusOK, domain.MessageSuccessGetIngredients)
}

func (h *ingredientHandler) GetIngredient(c *fiber.Ctx) error {
	res, err := h.ingredientService.GetIngredient(c.UserContext(), c.Params("id"))
	if err != nil {
		return presenters.Failure(c, domain.MessageFailedGetIngredient, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetIngredient)
}

func (h *ingredientHandler) CreateIngredient(c *fiber.Ctx) error {
	req := new(domain.CreateIngredientRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedCreateIngredient, err)
	}

	res, err := h.ingredientService.CreateIngredient(c.UserContext(), *req)
	if err != nil {
		return presenters.Failure(c, domain.MessageFailedCreateIngredient, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCreateIngredient)
}
