package domain

import (
	"errors"
	"mime/multipart"
	"time"
)

var (
	MessageSuccessGetRecipes      = "success get recipes"
	MessageSuccessGetRecipeDetail = "success get recipe detail"
	MessageSuccessCreateRecipe    = "recipe created successfully"
	MessageSuccessUpdateRecipe    = "recipe updated successfully"
	MessageSuccessDeleteRecipe    = "recipe deleted successfully"
	MessageSuccessUploadImage     = "recipe image uploaded successfully"
	MessageSuccessSaveBookmark    = "recipe bookmarked successfully"
	MessageSuccessRemoveBookmark  = "bookmark removed successfully"
	MessageSuccessGetHistory      = "success get recipe history"
	MessageSuccessMarkAsCooked    = "recipe marked as cooked successfully"

	MessageFailedGetRecipes      = "failed to get recipes"
	MessageFailedGetRecipeDetail = "failed to get recipe detail"
	MessageFailedCreateRecipe    = "failed to create recipe"
	MessageFailedUpdateRecipe    = "failed to update recipe"
	MessageFailedDeleteRecipe    = "failed to delete recipe"
	MessageFailedUploadImage     = "failed to upload recipe image"
	MessageFailedSaveBookmark    = "failed to bookmark recipe"
	MessageFailedRemoveBookmark  = "failed to remove bookmark"
	MessageFailedGetHistory      = "failed to get recipe history"
	MessageFailedMarkAsCooked    = "failed to mark recipe as cooked"

	ErrRecipeNotFound           = errors.New("recipe not found")
	ErrRecipeNameTaken          = errors.New("a recipe with this name already exists")
	ErrRecipeNameInvalid        = errors.New("recipe name must contain letters or digits")
	ErrUnauthorizedRecipeAccess = errors.New("unauthorized access to recipe")
	ErrDuplicateIngredient      = errors.New("ingredient listed more than once")
	ErrUnknownIngredient        = errors.New("unknown ingredient")
	ErrInvalidImageFormat       = errors.New("invalid image format")
	ErrImageTooLarge            = errors.New("image exceeds maximum size")
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"

	MaxImageSize = 5 << 20
)

type (
	RecipeIngredientRequest struct {
		IngredientID string  `json:"ingredient_id" validate:"required,uuid"`
		Quantity     float64 `json:"quantity" validate:"required,gt=0"`
		Unit         string  `json:"unit" validate:"required,oneof=g ml piece tbsp tsp cup"`
	}

	CreateRecipeRequest struct {
		Name            string                    `json:"name" validate:"required,min=3,max=100"`
		Description     string                    `json:"description" validate:"max=2000"`
		PrepTimeMinutes int                       `json:"prep_time_minutes" validate:"gte=0,lte=1440"`
		CookTimeMinutes int                       `json:"cook_time_minutes" validate:"gte=0,lte=1440"`
		Servings        int                       `json:"servings" validate:"required,gte=1,lte=100"`
		Difficulty      string                    `json:"difficulty" validate:"required,oneof=easy medium hard"`
		Cuisine         string                    `json:"cuisine" validate:"omitempty,max=50"`
		MealType        string                    `json:"meal_type" validate:"required,oneof=breakfast lunch dinner snack dessert"`
		Steps           []string                  `json:"steps" validate:"required,min=1,dive,required,max=2000"`
		Ingredients     []RecipeIngredientRequest `json:"ingredients" validate:"required,min=1,dive"`
	}

	UpdateRecipeRequest = CreateRecipeRequest

	UploadRecipeImageRequest struct {
		RecipeID string                `validate:"required,uuid"`
		Image    *multipart.FileHeader `form:"image" validate:"required"`
	}

	RecipeFilter struct {
		Cuisine    string
		MealType   string
		Difficulty string
		MaxTime    int
	}

	Recipe struct {
		ID              string    `json:"id"`
		Name            string    `json:"name"`
		Slug            string    `json:"slug"`
		Description     string    `json:"description"`
		ImageURL        string    `json:"image_url,omitempty"`
		PrepTimeMinutes int       `json:"prep_time_minutes"`
		CookTimeMinutes int       `json:"cook_time_minutes"`
		Servings        int       `json:"servings"`
		Difficulty      string    `json:"difficulty"`
		Cuisine         string    `json:"cuisine"`
		MealType        string    `json:"meal_type"`
		Owner           string    `json:"owner,omitempty"`
		CreatedAt       time.Time `json:"created_at"`
		UpdatedAt       time.Time `json:"updated_at"`
		IsBookmarked    bool      `json:"is_bookmarked"`
		IsCooked        bool      `json:"is_cooked,omitempty"`
		CookedAt        time.Time `json:"cooked_at,omitempty"`
	}

	RecipeDetail struct {
		Recipe
		Ingredients    []Ingredient   `json:"ingredients"`
		Steps          []string       `json:"steps"`
		NutritionFacts NutritionFacts `json:"nutrition_facts"`
	}

	Ingredient struct {
		IngredientID string  `json:"ingredient_id"`
		Name         string  `json:"name"`
		Quantity     float64 `json:"quantity"`
		Unit         string  `json:"unit"`
		Calories     float64 `json:"calories"`
	}

	NutritionFacts struct {
		TotalCalories      float64 `json:"total_calories"`
		CaloriesPerServing float64 `json:"calories_per_serving"`
	}

	RecipeListResponse struct {
		Recipes    []Recipe   `json:"recipes"`
		Pagination Pagination `json:"pagination"`
	}
)
