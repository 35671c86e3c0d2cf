package domain

import (
	"errors"
)

var (
	MessageSuccessGetIngredients   = "success get ingredients"
	MessageSuccessGetIngredient    = "success get ingredient"
	MessageSuccessCreateIngredient = "ingredient created successfully"
	MessageFailedGetIngredients    = "failed to get ingredients"
	MessageFailedGetIngredient     = "failed to get ingredient"
	MessageFailedCreateIngredient  = "failed to create ingredient"

	ErrIngredientNotFound      = errors.New("ingredient not found")
	ErrIngredientAlreadyExists = errors.New("ingredient already exists")
)

type (
	CreateIngredientRequest struct {
		Name            string   `json:"name" validate:"required,min=2,max=100"`
		CaloriesPer100g float32  `json:"calories_per_100g" validate:"gte=0,lte=900"`
		Category        []string `json:"category" validate:"required,min=1,dive,foodcategory"`
		GPerPiece       *float32 `json:"g_per_piece" validate:"omitempty,gt=0"`
	}

	IngredientResponse struct {
		ID              string   `json:"id"`
		Name            string   `json:"name"`
		CaloriesPer100g float32  `json:"calories_per_100g"`
		Category        []string `json:"category"`
		GPerPiece       *float32 `json:"g_per_piece,omitempty"`
	}
)
