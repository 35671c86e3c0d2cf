package ingredient

import (
	"context"
	"strings"

	"recipe-share/entities"

	"gorm.io/gorm"
)

type (
	IngredientRepository interface {
		CreateIngredient(ctx context.Context, ingredient *entities.Ingredient) error
		GetIngredientByID(ctx context.Context, id string) (*entities.Ingredient, error)
		GetIngredientsByIDs(ctx context.Context, ids []string) ([]*entities.Ingredient, error)
		NameExists(ctx context.Context, name string) (bool, error)
		SearchIngredients(ctx context.Context, query string, page, limit int) ([]*entities.Ingredient, int64, error)
		GetAllIngredients(ctx context.Context) ([]*entities.Ingredient, error)
	}

	ingredientRepository struct {
		db *gorm.DB
	}
)

func NewIngredientRepository(db *gorm.DB) IngredientRepository {
	return &ingredientRepository{db: db}
}

func (r *ingredientRepository) CreateIngredient(ctx context.Context, ingredient *entities.Ingredient) error {
	return r.db.WithContext(ctx).Create(ingredient).Error
}

func (r *ingredientRepository) GetIngredientByID(ctx context.Context, id string) (*entities.Ingredient, error) {
	var ingredient entities.Ingredient
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&ingredient).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}

func (r *ingredientRepository) GetIngredientsByIDs(ctx context.Context, ids []string) ([]*entities.Ingredient, error) {
	var ingredients []*entities.Ingredient
	if len(ids) == 0 {
		return ingredients, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&ingredients).Error; err != nil {
		return nil, err
	}
	return ingredients, nil
}

func (r *ingredientRepository) NameExists(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Ingredient{}).
		Where("LOWER(name) = ?", strings.ToLower(name)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ingredientRepository) SearchIngredients(ctx context.Context, query string, page, limit int) ([]*entities.Ingredient, int64, error) {
	var ingredients []*entities.Ingredient
	var count int64
	offset := (page - 1) * limit

	q := r.db.WithContext(ctx).Model(&entities.Ingredient{})
	if query = strings.TrimSpace(query); query != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(query))+"%")
	}
	q = q.Session(&gorm.Session{})

	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := q.Offset(offset).Limit(limit).Order("name asc").Find(&ingredients).Error; err != nil {
		return nil, 0, err
	}

	return ingredients, count, nil
}

func (r *ingredientRepository) GetAllIngredients(ctx context.Context) ([]*entities.Ingredient, error) {
	var ingredients []*entities.Ingredient
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Order("name asc").Find(&ingredients).Error
	})
	if err != nil {
		return nil, err
	}
	return ingredients, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`%`, `\%`, `_`, `\_`).Replace(s)
}
