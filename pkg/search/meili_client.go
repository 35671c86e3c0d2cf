package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"recipe-share/domain"

	"github.com/meilisearch/meilisearch-go"
)

type (
	// Client is the subset of the search service the application uses.
	Client interface {
		ConfigureIndexes(ctx context.Context) error
		IndexIngredients(ctx context.Context, docs []domain.IngredientDocument) error
		UpsertRecipe(ctx context.Context, doc domain.RecipeDocument) error
		DeleteRecipe(ctx context.Context, id string) error
		SearchIngredients(ctx context.Context, query string, limit int) ([]domain.IngredientDocument, int64, error)
		SearchRecipes(ctx context.Context, query string, filter domain.RecipeSearchFilter, limit int) ([]domain.RecipeDocument, int64, error)
		Healthy(ctx context.Context) bool
	}

	meiliClient struct {
		client *meilisearch.Client
	}
)

func NewMeiliClient(url, masterKey string) Client {
	return &meiliClient{
		client: meilisearch.NewClient(meilisearch.ClientConfig{
			Host:   url,
			APIKey: masterKey,
		}),
	}
}

func (m *meiliClient) ConfigureIndexes(_ context.Context) error {
	filterable := []string{"cuisine", "meal_type", "difficulty"}
	if _, err := m.client.Index(domain.RecipesIndex).UpdateFilterableAttributes(&filterable); err != nil {
		return fmt.Errorf("configure %s index: %w", domain.RecipesIndex, err)
	}
	categories := []string{"category"}
	if _, err := m.client.Index(domain.IngredientsIndex).UpdateFilterableAttributes(&categories); err != nil {
		return fmt.Errorf("configure %s index: %w", domain.IngredientsIndex, err)
	}
	return nil
}

func (m *meiliClient) IndexIngredients(_ context.Context, docs []domain.IngredientDocument) error {
	if len(docs) == 0 {
		return nil
	}
	if _, err := m.client.Index(domain.IngredientsIndex).AddDocuments(docs, "id"); err != nil {
		return fmt.Errorf("add ingredient documents: %w", err)
	}
	return nil
}

func (m *meiliClient) UpsertRecipe(_ context.Context, doc domain.RecipeDocument) error {
	if _, err := m.client.Index(domain.RecipesIndex).AddDocuments([]domain.RecipeDocument{doc}, "id"); err != nil {
		return fmt.Errorf("add recipe document: %w", err)
	}
	return nil
}

func (m *meiliClient) DeleteRecipe(_ context.Context, id string) error {
	if _, err := m.client.Index(domain.RecipesIndex).DeleteDocument(id); err != nil {
		return fmt.Errorf("delete recipe document: %w", err)
	}
	return nil
}

func (m *meiliClient) SearchIngredients(_ context.Context, query string, limit int) ([]domain.IngredientDocument, int64, error) {
	res, err := m.client.Index(domain.IngredientsIndex).Search(query, &meilisearch.SearchRequest{
		Limit: int64(limit),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("search ingredients: %w", err)
	}

	var hits []domain.IngredientDocument
	if err := decodeHits(res.Hits, &hits); err != nil {
		return nil, 0, err
	}
	return hits, res.EstimatedTotalHits, nil
}

func (m *meiliClient) SearchRecipes(_ context.Context, query string, filter domain.RecipeSearchFilter, limit int) ([]domain.RecipeDocument, int64, error) {
	req := &meilisearch.SearchRequest{Limit: int64(limit)}
	if expr := FilterExpression(filter); expr != "" {
		req.Filter = expr
	}

	res, err := m.client.Index(domain.RecipesIndex).Search(query, req)
	if err != nil {
		return nil, 0, fmt.Errorf("search recipes: %w", err)
	}

	var hits []domain.RecipeDocument
	if err := decodeHits(res.Hits, &hits); err != nil {
		return nil, 0, err
	}
	return hits, res.EstimatedTotalHits, nil
}

func (m *meiliClient) Healthy(_ context.Context) bool {
	return m.client.IsHealthy()
}

// FilterExpression renders a Meilisearch filter for the recipe index.
func FilterExpression(filter domain.RecipeSearchFilter) string {
	var clauses []string
	if filter.Cuisine != "" {
		clauses = append(clauses, fmt.Sprintf("cuisine = %s", quote(filter.Cuisine)))
	}
	if filter.MealType != "" {
		clauses = append(clauses, fmt.Sprintf("meal_type = %s", quote(filter.MealType)))
	}
	return strings.Join(clauses, " AND ")
}

func quote(value string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(value) + `"`
}

func decodeHits(hits []interface{}, out any) error {
	raw, err := json.Marshal(hits)
	if err != nil {
		return fmt.Errorf("encode search hits: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode search hits: %w", err)
	}
	return nil
}
