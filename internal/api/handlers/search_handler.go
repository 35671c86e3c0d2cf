package handlers

import (
	"recipe-share/domain"
	"recipe-share/internal/api/presenters"
	"recipe-share/pkg/search"

	"github.com/gofiber/fiber/v2"
)

type (
	SearchHandler interface {
		SearchIngredients(c *fiber.Ctx) error
		SearchRecipes(c *fiber.Ctx) error
	}

	searchHandler struct {
		searchService search.SearchService
	}
)

func NewSearchHandler(searchService search.SearchService) SearchHandler {
	return &searchHandler{searchService: searchService}
}

func (h *searchHandler) SearchIngredients(c *fiber.Ctx) error {
	res, err := h.searchService.SearchIngredients(c.UserContext(), c.Query("q"), c.QueryInt("limit", domain.DefaultSearchLimit))
	if err != nil {
		return presenters.Failure(c, domain.MessageFailedSearch, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessSearch)
}

func (h *searchHandler) SearchRecipes(c *fiber.Ctx) error {
	filter := domain.RecipeSearchFilter{
		Cuisine:  c.Query("cuisine"),
		MealType: c.Query("meal_type"),
	}

	res, err := h.searchService.SearchRecipes(c.UserContext(), c.Query("q"), filter, c.QueryInt("limit", domain.DefaultSearchLimit))
	if err != nil {
		return presenters.Failure(c, domain.MessageFailedSearch, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessSearch)
}
