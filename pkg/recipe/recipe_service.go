package recipe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"recipe-share/domain"
	"recipe-share/entities"
	"recipe-share/internal/utils"
	"recipe-share/internal/utils/storage"
	"recipe-share/pkg/ingredient"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type (
	RecipeService interface {
		CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID string) (domain.RecipeDetail, error)
		GetRecipeDetail(ctx context.Context, recipeID, viewerID string) (domain.RecipeDetail, error)
		GetRecipeByName(ctx context.Context, name, viewerID string) (domain.RecipeDetail, error)
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int) (domain.RecipeListResponse, error)
		GetRecipesByUsername(ctx context.Context, username string, page, limit int) (domain.RecipeListResponse, error)
		UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string) (domain.RecipeDetail, error)
		DeleteRecipe(ctx context.Context, recipeID, userID string) error
		UploadImage(ctx context.Context, req domain.UploadRecipeImageRequest, userID string) (domain.RecipeDetail, error)
		BookmarkRecipe(ctx context.Context, recipeID, userID string) error
		RemoveBookmark(ctx context.Context, recipeID, userID string) error
		GetBookmarkedRecipes(ctx context.Context, userID string, page, limit int) (domain.RecipeListResponse, error)
		MarkAsCooked(ctx context.Context, recipeID, userID string) error
		GetRecipeHistory(ctx context.Context, userID string, page, limit int) (domain.RecipeListResponse, error)
	}

	// RecipeIndex receives recipe changes for the search index.
	RecipeIndex interface {
		UpsertRecipe(ctx context.Context, doc domain.RecipeDocument) error
		DeleteRecipe(ctx context.Context, id string) error
	}

	recipeService struct {
		recipeRepository     RecipeRepository
		ingredientRepository ingredient.IngredientRepository
		s3                   storage.AwsS3
		index                RecipeIndex
		logger               *zap.Logger
	}
)

func NewRecipeService(
	recipeRepository RecipeRepository,
	ingredientRepository ingredient.IngredientRepository,
	s3 storage.AwsS3,
	index RecipeIndex,
	logger *zap.Logger,
) RecipeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &recipeService{
		recipeRepository:     recipeRepository,
		ingredientRepository: ingredientRepository,
		s3:                   s3,
		index:                index,
		logger:               logger,
	}
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID string) (domain.RecipeDetail, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipeDetail{}, domain.ErrParseUUID
	}

	slug, err := s.availableSlug(ctx, req.Name, "")
	if err != nil {
		return domain.RecipeDetail{}, err
	}

	lines, err := s.buildLines(ctx, req.Ingredients)
	if err != nil {
		return domain.RecipeDetail{}, err
	}

	recipe := &entities.Recipe{
		ID:     uuid.New(),
		UserID: userUUID,
		Slug:   slug,
	}
	applyRequest(recipe, req)
	recipe.Ingredients = lines

	if err := s.recipeRepository.CreateRecipe(ctx, recipe); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.RecipeDetail{}, domain.ErrRecipeNameTaken
		}
		return domain.RecipeDetail{}, err
	}

	created, err := s.recipeRepository.GetRecipeByID(ctx, recipe.ID.String())
	if err != nil {
		return domain.RecipeDetail{}, err
	}
	s.syncIndex(ctx, created)
	return toRecipeDetail(created), nil
}

func (s *recipeService) GetRecipeDetail(ctx context.Context, recipeID, viewerID string) (domain.RecipeDetail, error) {
	recipe, err := s.getRecipe(ctx, recipeID)
	if err != nil {
		return domain.RecipeDetail{}, err
	}
	return s.detailFor(ctx, recipe, viewerID), nil
}

// GetRecipeByName resolves a recipe through the slug of name, so "Pad Thai"
// and "pad-thai" address the same recipe.
func (s *recipeService) GetRecipeByName(ctx context.Context, name, viewerID string) (domain.RecipeDetail, error) {
	slug := utils.Slugify(name)
	if slug == "" {
		return domain.RecipeDetail{}, domain.ErrRecipeNotFound
	}

	recipe, err := s.recipeRepository.GetRecipeBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeDetail{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeDetail{}, err
	}
	return s.detailFor(ctx, recipe, viewerID), nil
}

func (s *recipeService) detailFor(ctx context.Context, recipe *entities.Recipe, viewerID string) domain.RecipeDetail {
	detail := toRecipeDetail(recipe)
	if viewerID == "" {
		return detail
	}

	isBookmarked, err := s.recipeRepository.IsRecipeBookmarked(ctx, viewerID, recipe.ID.String())
	if err != nil {
		s.logger.Warn("failed to read bookmark state", zap.String("recipe_id", recipe.ID.String()), zap.Error(err))
		return detail
	}
	detail.IsBookmarked = isBookmarked
	return detail
}

func (s *recipeService) GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int) (domain.RecipeListResponse, error) {
	page, limit = domain.NormalizePage(page, limit)
	recipes, count, err := s.recipeRepository.GetRecipes(ctx, filter, page, limit)
	if err != nil {
		return domain.RecipeListResponse{}, err
	}
	return toListResponse(recipes, page, limit, count), nil
}

func (s *recipeService) GetRecipesByUsername(ctx context.Context, username string, page, limit int) (domain.RecipeListResponse, error) {
	page, limit = domain.NormalizePage(page, limit)
	recipes, count, err := s.recipeRepository.GetRecipesByUsername(ctx, username, page, limit)
	if err != nil {
		return domain.RecipeListResponse{}, err
	}
	return toListResponse(recipes, page, limit, count), nil
}

func (s *recipeService) UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string) (domain.RecipeDetail, error) {
	recipe, err := s.getOwnedRecipe(ctx, recipeID, userID)
	if err != nil {
		return domain.RecipeDetail{}, err
	}

	slug, err := s.availableSlug(ctx, req.Name, recipe.ID.String())
	if err != nil {
		return domain.RecipeDetail{}, err
	}

	lines, err := s.buildLines(ctx, req.Ingredients)
	if err != nil {
		return domain.RecipeDetail{}, err
	}

	recipe.Slug = slug
	applyRequest(recipe, req)
	recipe.Ingredients = lines

	if err := s.recipeRepository.UpdateRecipe(ctx, recipe); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.RecipeDetail{}, domain.ErrRecipeNameTaken
		}
		return domain.RecipeDetail{}, err
	}

	updated, err := s.recipeRepository.GetRecipeByID(ctx, recipe.ID.String())
	if err != nil {
		return domain.RecipeDetail{}, err
	}
	s.syncIndex(ctx, updated)
	return toRecipeDetail(updated), nil
}

func (s *recipeService) DeleteRecipe(ctx context.Context, recipeID, userID string) error {
	recipe, err := s.getOwnedRecipe(ctx, recipeID, userID)
	if err != nil {
		return err
	}

	if err := s.recipeRepository.DeleteRecipe(ctx, recipe.ID.String()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	if key := s.s3.GetObjectKeyFromLink(recipe.ImageURL); key != "" {
		if err := s.s3.DeleteFile(ctx, key); err != nil {
			s.logger.Warn("failed to delete recipe image", zap.String("key", key), zap.Error(err))
		}
	}
	if s.index != nil {
		if err := s.index.DeleteRecipe(ctx, recipe.ID.String()); err != nil {
			s.logger.Error("failed to remove recipe from search index", zap.String("recipe_id", recipe.ID.String()), zap.Error(err))
		}
	}
	return nil
}

func (s *recipeService) UploadImage(ctx context.Context, req domain.UploadRecipeImageRequest, userID string) (domain.RecipeDetail, error) {
	recipe, err := s.getOwnedRecipe(ctx, req.RecipeID, userID)
	if err != nil {
		return domain.RecipeDetail{}, err
	}

	if _, err := storage.CheckImage(req.Image, domain.MaxImageSize, storage.AllowImage...); err != nil {
		return domain.RecipeDetail{}, err
	}

	var objectKey string
	if existingKey := s.s3.GetObjectKeyFromLink(recipe.ImageURL); existingKey != "" {
		objectKey, err = s.s3.UpdateFile(ctx, existingKey, req.Image, storage.AllowImage...)
	} else {
		objectKey, err = s.s3.UploadFile(ctx, fmt.Sprintf("recipe-%s", recipe.ID), req.Image, "recipes", storage.AllowImage...)
	}
	if err != nil {
		return domain.RecipeDetail{}, err
	}

	recipe.ImageURL = s.s3.GetPublicLinkKey(objectKey)
	if err := s.recipeRepository.UpdateImage(ctx, recipe.ID.String(), recipe.ImageURL); err != nil {
		return domain.RecipeDetail{}, err
	}
	s.syncIndex(ctx, recipe)
	return toRecipeDetail(recipe), nil
}

func (s *recipeService) BookmarkRecipe(ctx context.Context, recipeID, userID string) error {
	if _, err := s.getRecipe(ctx, recipeID); err != nil {
		return err
	}
	return s.recipeRepository.BookmarkRecipe(ctx, userID, recipeID)
}

func (s *recipeService) RemoveBookmark(ctx context.Context, recipeID, userID string) error {
	if _, err := s.getRecipe(ctx, recipeID); err != nil {
		return err
	}
	return s.recipeRepository.RemoveBookmark(ctx, userID, recipeID)
}

func (s *recipeService) GetBookmarkedRecipes(ctx context.Context, userID string, page, limit int) (domain.RecipeListResponse, error) {
	page, limit = domain.NormalizePage(page, limit)
	bookmarks, count, err := s.recipeRepository.GetRecipeBookmarks(ctx, userID, page, limit)
	if err != nil {
		return domain.RecipeListResponse{}, err
	}

	recipes := make([]domain.Recipe, 0, len(bookmarks))
	for _, bookmark := range bookmarks {
		if bookmark.Recipe == nil {
			continue
		}
		recipe := toRecipe(bookmark.Recipe)
		recipe.IsBookmarked = true
		recipes = append(recipes, recipe)
	}
	return domain.RecipeListResponse{
		Recipes:    recipes,
		Pagination: domain.NewPagination(page, limit, count),
	}, nil
}

func (s *recipeService) MarkAsCooked(ctx context.Context, recipeID, userID string) error {
	if _, err := s.getRecipe(ctx, recipeID); err != nil {
		return err
	}
	return s.recipeRepository.AddRecipeHistory(ctx, userID, recipeID)
}

func (s *recipeService) GetRecipeHistory(ctx context.Context, userID string, page, limit int) (domain.RecipeListResponse, error) {
	page, limit = domain.NormalizePage(page, limit)
	history, count, err := s.recipeRepository.GetRecipeHistory(ctx, userID, page, limit)
	if err != nil {
		return domain.RecipeListResponse{}, err
	}

	recipes := make([]domain.Recipe, 0, len(history))
	for _, entry := range history {
		if entry.Recipe == nil {
			continue
		}
		recipe := toRecipe(entry.Recipe)
		recipe.IsCooked = true
		recipe.CookedAt = entry.CookedAt
		recipes = append(recipes, recipe)
	}
	return domain.RecipeListResponse{
		Recipes:    recipes,
		Pagination: domain.NewPagination(page, limit, count),
	}, nil
}

func (s *recipeService) getRecipe(ctx context.Context, recipeID string) (*entities.Recipe, error) {
	if _, err := uuid.Parse(recipeID); err != nil {
		return nil, domain.ErrRecipeNotFound
	}
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecipeNotFound
		}
		return nil, err
	}
	return recipe, nil
}

func (s *recipeService) getOwnedRecipe(ctx context.Context, recipeID, userID string) (*entities.Recipe, error) {
	recipe, err := s.getRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if recipe.UserID.String() != userID {
		return nil, domain.ErrUnauthorizedRecipeAccess
	}
	return recipe, nil
}

func (s *recipeService) availableSlug(ctx context.Context, name, excludeID string) (string, error) {
	slug := utils.Slugify(name)
	if slug == "" {
		return "", domain.ErrRecipeNameInvalid
	}

	exists, err := s.recipeRepository.SlugExists(ctx, slug, excludeID)
	if err != nil {
		return "", err
	}
	if exists {
		return "", domain.ErrRecipeNameTaken
	}
	return slug, nil
}

func (s *recipeService) buildLines(ctx context.Context, reqs []domain.RecipeIngredientRequest) ([]*entities.RecipeIngredient, error) {
	ids := make([]string, 0, len(reqs))
	seen := make(map[string]struct{}, len(reqs))
	for _, req := range reqs {
		id := strings.ToLower(req.IngredientID)
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateIngredient, id)
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	found, err := s.ingredientRepository.GetIngredientsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entities.Ingredient, len(found))
	for _, ing := range found {
		byID[ing.ID.String()] = ing
	}

	lines := make([]*entities.RecipeIngredient, 0, len(reqs))
	for i, req := range reqs {
		ing, ok := byID[ids[i]]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownIngredient, ids[i])
		}
		lines = append(lines, &entities.RecipeIngredient{
			IngredientID: ing.ID,
			Quantity:     req.Quantity,
			Unit:         req.Unit,
			Position:     i,
		})
	}
	return lines, nil
}

func (s *recipeService) syncIndex(ctx context.Context, recipe *entities.Recipe) {
	if s.index == nil {
		return
	}
	if err := s.index.UpsertRecipe(ctx, ToDocument(recipe)); err != nil {
		s.logger.Error("failed to index recipe", zap.String("recipe_id", recipe.ID.String()), zap.Error(err))
	}
}

func applyRequest(recipe *entities.Recipe, req domain.CreateRecipeRequest) {
	recipe.Name = strings.TrimSpace(req.Name)
	recipe.Description = req.Description
	recipe.PrepTimeMinutes = req.PrepTimeMinutes
	recipe.CookTimeMinutes = req.CookTimeMinutes
	recipe.Servings = req.Servings
	recipe.Difficulty = req.Difficulty
	recipe.Cuisine = req.Cuisine
	recipe.MealType = req.MealType
	recipe.Steps = entities.StringSlice(req.Steps)
}

func toRecipe(recipe *entities.Recipe) domain.Recipe {
	res := domain.Recipe{
		ID:              recipe.ID.String(),
		Name:            recipe.Name,
		Slug:            recipe.Slug,
		Description:     recipe.Description,
		ImageURL:        recipe.ImageURL,
		PrepTimeMinutes: recipe.PrepTimeMinutes,
		CookTimeMinutes: recipe.CookTimeMinutes,
		Servings:        recipe.Servings,
		Difficulty:      recipe.Difficulty,
		Cuisine:         recipe.Cuisine,
		MealType:        recipe.MealType,
		CreatedAt:       recipe.CreatedAt,
		UpdatedAt:       recipe.UpdatedAt,
	}
	if recipe.User != nil {
		res.Owner = recipe.User.Username
	}
	return res
}

func toRecipeDetail(recipe *entities.Recipe) domain.RecipeDetail {
	ingredients := make([]domain.Ingredient, 0, len(recipe.Ingredients))
	for _, line := range recipe.Ingredients {
		item := domain.Ingredient{
			IngredientID: line.IngredientID.String(),
			Quantity:     line.Quantity,
			Unit:         line.Unit,
			Calories:     round1(lineCalories(line)),
		}
		if line.Ingredient != nil {
			item.Name = line.Ingredient.Name
		}
		ingredients = append(ingredients, item)
	}

	steps := []string(recipe.Steps)
	if steps == nil {
		steps = []string{}
	}

	return domain.RecipeDetail{
		Recipe:         toRecipe(recipe),
		Ingredients:    ingredients,
		Steps:          steps,
		NutritionFacts: ComputeNutrition(recipe.Ingredients, recipe.Servings),
	}
}

func toListResponse(recipes []*entities.Recipe, page, limit int, count int64) domain.RecipeListResponse {
	res := make([]domain.Recipe, 0, len(recipes))
	for _, recipe := range recipes {
		res = append(res, toRecipe(recipe))
	}
	return domain.RecipeListResponse{
		Recipes:    res,
		Pagination: domain.NewPagination(page, limit, count),
	}
}

// ToDocument converts a recipe into its search-index document.
func ToDocument(recipe *entities.Recipe) domain.RecipeDocument {
	doc := domain.RecipeDocument{
		ID:          recipe.ID.String(),
		Slug:        recipe.Slug,
		Name:        recipe.Name,
		Description: recipe.Description,
		Cuisine:     recipe.Cuisine,
		MealType:    recipe.MealType,
		Difficulty:  recipe.Difficulty,
		TotalTime:   recipe.PrepTimeMinutes + recipe.CookTimeMinutes,
		ImageURL:    recipe.ImageURL,
	}
	if recipe.User != nil {
		doc.Username = recipe.User.Username
	}
	return doc
}
