package ingredient

import (
	"context"
	"errors"
	"strings"

	"recipe-share/domain"
	"recipe-share/entities"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	IngredientService interface {
		CreateIngredient(ctx context.Context, req domain.CreateIngredientRequest) (domain.IngredientResponse, error)
		GetIngredient(ctx context.Context, id string) (domain.IngredientResponse, error)
		SearchIngredients(ctx context.Context, query string, page, limit int) ([]domain.IngredientResponse, int64, error)
	}

	ingredientService struct {
		ingredientRepository IngredientRepository
	}
)

func NewIngredientService(ingredientRepository IngredientRepository) IngredientService {
	return &ingredientService{ingredientRepository: ingredientRepository}
}

func (s *ingredientService) CreateIngredient(ctx context.Context, req domain.CreateIngredientRequest) (domain.IngredientResponse, error) {
	name := strings.ToLower(strings.TrimSpace(req.Name))

	exists, err := s.ingredientRepository.NameExists(ctx, name)
	if err != nil {
		return domain.IngredientResponse{}, err
	}
	if exists {
		return domain.IngredientResponse{}, domain.ErrIngredientAlreadyExists
	}

	ingredient := &entities.Ingredient{
		ID:              uuid.New(),
		Name:            name,
		CaloriesPer100g: req.CaloriesPer100g,
		Category:        entities.StringSlice(req.Category),
		GPerPiece:       req.GPerPiece,
	}
	if err := s.ingredientRepository.CreateIngredient(ctx, ingredient); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.IngredientResponse{}, domain.ErrIngredientAlreadyExists
		}
		return domain.IngredientResponse{}, err
	}
	return ToIngredientResponse(ingredient), nil
}

func (s *ingredientService) GetIngredient(ctx context.Context, id string) (domain.IngredientResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.IngredientResponse{}, domain.ErrIngredientNotFound
	}
	ingredient, err := s.ingredientRepository.GetIngredientByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.IngredientResponse{}, domain.ErrIngredientNotFound
		}
		return domain.IngredientResponse{}, err
	}
	return ToIngredientResponse(ingredient), nil
}

func (s *ingredientService) SearchIngredients(ctx context.Context, query string, page, limit int) ([]domain.IngredientResponse, int64, error) {
	page, limit = domain.NormalizePage(page, limit)
	ingredients, count, err := s.ingredientRepository.SearchIngredients(ctx, query, page, limit)
	if err != nil {
		return nil, 0, err
	}

	response := make([]domain.IngredientResponse, 0, len(ingredients))
	for _, ingredient := range ingredients {
		response = append(response, ToIngredientResponse(ingredient))
	}
	return response, count, nil
}

func ToIngredientResponse(ingredient *entities.Ingredient) domain.IngredientResponse {
	category := []string(ingredient.Category)
	if category == nil {
		category = []string{}
	}
	return domain.IngredientResponse{
		ID:              ingredient.ID.String(),
		Name:            ingredient.Name,
		CaloriesPer100g: ingredient.CaloriesPer100g,
		Category:        category,
		GPerPiece:       ingredient.GPerPiece,
	}
}

// ToDocument converts an ingredient into its search-index document.
func ToDocument(ingredient *entities.Ingredient) domain.IngredientDocument {
	res := ToIngredientResponse(ingredient)
	return domain.IngredientDocument{
		ID:              res.ID,
		Name:            res.Name,
		CaloriesPer100g: res.CaloriesPer100g,
		Category:        res.Category,
		GPerPiece:       res.GPerPiece,
	}
}
