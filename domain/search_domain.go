package domain

import (
	"errors"
)

var (
	MessageSuccessSearch = "success search"
	MessageFailedSearch  = "failed to search"

	ErrSearchQueryRequired = errors.New("search query is required")
	ErrSearchUnavailable   = errors.New("search service unavailable")
)

const (
	IngredientsIndex = "ingredients"
	RecipesIndex     = "recipes"

	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

type (
	IngredientDocument struct {
		ID              string   `json:"id"`
		Name            string   `json:"name"`
		CaloriesPer100g float32  `json:"calories_per_100g"`
		Category        []string `json:"category"`
		GPerPiece       *float32 `json:"g_per_piece,omitempty"`
	}

	RecipeDocument struct {
		ID          string `json:"id"`
		Slug        string `json:"slug"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Cuisine     string `json:"cuisine"`
		MealType    string `json:"meal_type"`
		Difficulty  string `json:"difficulty"`
		TotalTime   int    `json:"total_time"`
		Username    string `json:"username"`
		ImageURL    string `json:"image_url,omitempty"`
	}

	RecipeSearchFilter struct {
		Cuisine  string
		MealType string
	}

	SearchResponse[T any] struct {
		Query string `json:"query"`
		Hits  []T    `json:"hits"`
		Total int64  `json:"estimated_total"`
	}
)
