package search

import (
	"context"
	"fmt"
	"strings"

	"recipe-share/domain"

	"go.uber.org/zap"
)

type (
	SearchService interface {
		SearchIngredients(ctx context.Context, query string, limit int) (domain.SearchResponse[domain.IngredientDocument], error)
		SearchRecipes(ctx context.Context, query string, filter domain.RecipeSearchFilter, limit int) (domain.SearchResponse[domain.RecipeDocument], error)
	}

	searchService struct {
		client Client
		logger *zap.Logger
	}
)

func NewSearchService(client Client, logger *zap.Logger) SearchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &searchService{client: client, logger: logger}
}

func normalizeQuery(query string, limit int) (string, int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", 0, domain.ErrSearchQueryRequired
	}
	if limit < 1 {
		limit = domain.DefaultSearchLimit
	}
	if limit > domain.MaxSearchLimit {
		limit = domain.MaxSearchLimit
	}
	return query, limit, nil
}

func (s *searchService) SearchIngredients(ctx context.Context, query string, limit int) (domain.SearchResponse[domain.IngredientDocument], error) {
	query, limit, err := normalizeQuery(query, limit)
	if err != nil {
		return domain.SearchResponse[domain.IngredientDocument]{}, err
	}
	if s.client == nil {
		return domain.SearchResponse[domain.IngredientDocument]{}, domain.ErrSearchUnavailable
	}

	hits, total, err := s.client.SearchIngredients(ctx, query, limit)
	if err != nil {
		s.logger.Error("ingredient search failed", zap.String("query", query), zap.Error(err))
		return domain.SearchResponse[domain.IngredientDocument]{}, fmt.Errorf("%w: %v", domain.ErrSearchUnavailable, err)
	}
	if hits == nil {
		hits = []domain.IngredientDocument{}
	}
	return domain.SearchResponse[domain.IngredientDocument]{Query: query, Hits: hits, Total: total}, nil
}

func (s *searchService) SearchRecipes(ctx context.Context, query string, filter domain.RecipeSearchFilter, limit int) (domain.SearchResponse[domain.RecipeDocument], error) {
	query, limit, err := normalizeQuery(query, limit)
	if err != nil {
		return domain.SearchResponse[domain.RecipeDocument]{}, err
	}
	if s.client == nil {
		return domain.SearchResponse[domain.RecipeDocument]{}, domain.ErrSearchUnavailable
	}

	hits, total, err := s.client.SearchRecipes(ctx, query, filter, limit)
	if err != nil {
		s.logger.Error("recipe search failed", zap.String("query", query), zap.Error(err))
		return domain.SearchResponse[domain.RecipeDocument]{}, fmt.Errorf("%w: %v", domain.ErrSearchUnavailable, err)
	}
	if hits == nil {
		hits = []domain.RecipeDocument{}
	}
	return domain.SearchResponse[domain.RecipeDocument]{Query: query, Hits: hits, Total: total}, nil
}
