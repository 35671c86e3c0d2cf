package recipe

import (
	"math"

	"recipe-share/domain"
	"recipe-share/entities"
)

// grams per one unit of quantity for volume measures
var unitGrams = map[string]float64{
	"tbsp": 15,
	"tsp":  5,
	"cup":  240,
}

// Grams converts a quantity in unit into grams. Pieces need the ingredient's
// piece weight and count as zero without it.
func Grams(quantity float64, unit string, gPerPiece *float32) float64 {
	switch unit {
	case "g", "ml":
		return quantity
	case "piece":
		if gPerPiece == nil {
			return 0
		}
		return quantity * float64(*gPerPiece)
	default:
		return quantity * unitGrams[unit]
	}
}

func lineCalories(line *entities.RecipeIngredient) float64 {
	if line.Ingredient == nil {
		return 0
	}
	grams := Grams(line.Quantity, line.Unit, line.Ingredient.GPerPiece)
	return grams * float64(line.Ingredient.CaloriesPer100g) / 100
}

func ComputeNutrition(lines []*entities.RecipeIngredient, servings int) domain.NutritionFacts {
	var total float64
	for _, line := range lines {
		total += lineCalories(line)
	}

	facts := domain.NutritionFacts{TotalCalories: round1(total)}
	if servings > 0 {
		facts.CaloriesPerServing = round1(total / float64(servings))
	}
	return facts
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
