package recipe

import (
	"context"
	"time"

	"recipe-share/domain"
	"recipe-share/entities"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type (
	RecipeRepository interface {
		CreateRecipe(ctx context.Context, recipe *entities.Recipe) error
		GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error)
		GetRecipeBySlug(ctx context.Context, slug string) (*entities.Recipe, error)
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int) ([]*entities.Recipe, int64, error)
		GetRecipesByUsername(ctx context.Context, username string, page, limit int) ([]*entities.Recipe, int64, error)
		UpdateRecipe(ctx context.Context, recipe *entities.Recipe) error
		UpdateImage(ctx context.Context, id, imageURL string) error
		DeleteRecipe(ctx context.Context, id string) error
		SlugExists(ctx context.Context, slug, excludeID string) (bool, error)

		GetRecipeBookmarks(ctx context.Context, userID string, page, limit int) ([]*entities.RecipeBookmark, int64, error)
		BookmarkRecipe(ctx context.Context, userID, recipeID string) error
		RemoveBookmark(ctx context.Context, userID, recipeID string) error
		IsRecipeBookmarked(ctx context.Context, userID, recipeID string) (bool, error)
		AddRecipeHistory(ctx context.Context, userID, recipeID string) error
		GetRecipeHistory(ctx context.Context, userID string, page, limit int) ([]*entities.RecipeHistory, int64, error)
	}

	recipeRepository struct {
		db *gorm.DB
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func withDetail(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		Preload("Ingredients.Ingredient")
}

func (r *recipeRepository) CreateRecipe(ctx context.Context, recipe *entities.Recipe) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return err
		}
		return createLines(tx, recipe)
	})
}

func createLines(tx *gorm.DB, recipe *entities.Recipe) error {
	if len(recipe.Ingredients) == 0 {
		return nil
	}
	for i, line := range recipe.Ingredients {
		line.RecipeID = recipe.ID
		line.Position = i
	}
	return tx.Omit(clause.Associations).Create(&recipe.Ingredients).Error
}

func (r *recipeRepository) GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := withDetail(r.db.WithContext(ctx)).Where("id = ?", id).First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) GetRecipeBySlug(ctx context.Context, slug string) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := withDetail(r.db.WithContext(ctx)).Where("slug = ?", slug).First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int) ([]*entities.Recipe, int64, error) {
	var recipes []*entities.Recipe
	var count int64
	offset := (page - 1) * limit

	q := r.db.WithContext(ctx).Model(&entities.Recipe{})
	if filter.Cuisine != "" {
		q = q.Where("LOWER(cuisine) = LOWER(?)", filter.Cuisine)
	}
	if filter.MealType != "" {
		q = q.Where("meal_type = ?", filter.MealType)
	}
	if filter.Difficulty != "" {
		q = q.Where("difficulty = ?", filter.Difficulty)
	}
	if filter.MaxTime > 0 {
		q = q.Where("prep_time_minutes + cook_time_minutes <= ?", filter.MaxTime)
	}
	q = q.Session(&gorm.Session{})

	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := q.Preload("User").
		Offset(offset).
		Limit(limit).
		Order("created_at desc").
		Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	return recipes, count, nil
}

func (r *recipeRepository) GetRecipesByUsername(ctx context.Context, username string, page, limit int) ([]*entities.Recipe, int64, error) {
	var recipes []*entities.Recipe
	var count int64
	offset := (page - 1) * limit

	q := r.db.WithContext(ctx).
		Model(&entities.Recipe{}).
		Joins("JOIN users ON users.id = recipes.user_id").
		Where("users.username = ?", username).
		Session(&gorm.Session{})

	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := q.Preload("User").
		Offset(offset).
		Limit(limit).
		Order("recipes.created_at desc").
		Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	return recipes, count, nil
}

// UpdateRecipe saves the recipe columns and replaces its ingredient lines.
func (r *recipeRepository) UpdateRecipe(ctx context.Context, recipe *entities.Recipe) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(recipe).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&entities.RecipeIngredient{}).Error; err != nil {
			return err
		}
		return createLines(tx, recipe)
	})
}

func (r *recipeRepository) UpdateImage(ctx context.Context, id, imageURL string) error {
	res := r.db.WithContext(ctx).
		Model(&entities.Recipe{}).
		Where("id = ?", id).
		Update("image_url", imageURL)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *recipeRepository) DeleteRecipe(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&entities.RecipeIngredient{},
			&entities.RecipeBookmark{},
			&entities.RecipeHistory{},
		} {
			if err := tx.Where("recipe_id = ?", id).Delete(model).Error; err != nil {
				return err
			}
		}

		res := tx.Where("id = ?", id).Delete(&entities.Recipe{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *recipeRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&entities.Recipe{}).Where("slug = ?", slug)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeRepository) GetRecipeBookmarks(ctx context.Context, userID string, page, limit int) ([]*entities.RecipeBookmark, int64, error) {
	var bookmarks []*entities.RecipeBookmark
	var count int64
	offset := (page - 1) * limit

	if err := r.db.WithContext(ctx).
		Model(&entities.RecipeBookmark{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Preload("Recipe.User").
		Where("user_id = ?", userID).
		Offset(offset).
		Limit(limit).
		Order("created_at desc").
		Find(&bookmarks).Error; err != nil {
		return nil, 0, err
	}

	return bookmarks, count, nil
}

func (r *recipeRepository) BookmarkRecipe(ctx context.Context, userID, recipeID string) error {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ErrParseUUID
	}

	recipeUUID, err := uuid.Parse(recipeID)
	if err != nil {
		return domain.ErrParseUUID
	}

	bookmark := entities.RecipeBookmark{
		ID:        uuid.New(),
		UserID:    userUUID,
		RecipeID:  recipeUUID,
		CreatedAt: time.Now(),
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "recipe_id"}},
			DoNothing: true,
		}).
		Create(&bookmark).Error
}

func (r *recipeRepository) RemoveBookmark(ctx context.Context, userID, recipeID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.RecipeBookmark{}).Error
}

func (r *recipeRepository) IsRecipeBookmarked(ctx context.Context, userID, recipeID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.RecipeBookmark{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddRecipeHistory records that the user cooked the recipe; cooking it again
// moves cooked_at forward.
func (r *recipeRepository) AddRecipeHistory(ctx context.Context, userID, recipeID string) error {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.ErrParseUUID
	}

	recipeUUID, err := uuid.Parse(recipeID)
	if err != nil {
		return domain.ErrParseUUID
	}

	history := entities.RecipeHistory{
		ID:       uuid.New(),
		UserID:   userUUID,
		RecipeID: recipeUUID,
		CookedAt: time.Now(),
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "recipe_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"cooked_at"}),
		}).
		Create(&history).Error
}

func (r *recipeRepository) GetRecipeHistory(ctx context.Context, userID string, page, limit int) ([]*entities.RecipeHistory, int64, error) {
	var history []*entities.RecipeHistory
	var count int64
	offset := (page - 1) * limit

	if err := r.db.WithContext(ctx).
		Model(&entities.RecipeHistory{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Preload("Recipe.User").
		Where("user_id = ?", userID).
		Offset(offset).
		Limit(limit).
		Order("cooked_at desc").
		Find(&history).Error; err != nil {
		return nil, 0, err
	}

	return history, count, nil
}
