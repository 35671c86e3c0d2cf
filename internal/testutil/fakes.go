package testutil

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path"
	"strings"
	"sync"

	"recipe-share/domain"
)

type SentMail struct {
	To      string
	Subject string
	Body    string
}

// FakeMailer records outgoing mail instead of sending it.
type FakeMailer struct {
	mu   sync.Mutex
	Sent []SentMail
	Err  error
}

func (m *FakeMailer) SendMail(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, SentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *FakeMailer) Last() (SentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return SentMail{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}

const FakeBucketURL = "https://bucket.test/"

// FakeS3 keeps object keys in memory.
type FakeS3 struct {
	mu      sync.Mutex
	Objects map[string]int64
}

func NewFakeS3() *FakeS3 {
	return &FakeS3{Objects: map[string]int64{}}
}

func (s *FakeS3) UploadFile(_ context.Context, fileName string, file *multipart.FileHeader, folder string, _ ...string) (string, error) {
	if file == nil {
		return "", domain.ErrInvalidImageFormat
	}
	key := path.Join(folder, fileName+path.Ext(file.Filename))
	s.mu.Lock()
	s.Objects[key] = file.Size
	s.mu.Unlock()
	return key, nil
}

func (s *FakeS3) UpdateFile(_ context.Context, objectKey string, file *multipart.FileHeader, _ ...string) (string, error) {
	if file == nil {
		return "", domain.ErrInvalidImageFormat
	}
	s.mu.Lock()
	s.Objects[objectKey] = file.Size
	s.mu.Unlock()
	return objectKey, nil
}

func (s *FakeS3) DeleteFile(_ context.Context, objectKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.Objects[objectKey]; !ok {
		return fmt.Errorf("no such key %s", objectKey)
	}
	delete(s.Objects, objectKey)
	return nil
}

func (s *FakeS3) GetPublicLinkKey(objectKey string) string {
	return FakeBucketURL + objectKey
}

func (s *FakeS3) GetObjectKeyFromLink(link string) string {
	if !strings.HasPrefix(link, FakeBucketURL) {
		return ""
	}
	return strings.TrimPrefix(link, FakeBucketURL)
}

func (s *FakeS3) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.Objects[key]
	return ok
}

var ErrFakeSearchDown = errors.New("search backend down")

// FakeSearch is an in-memory search backend that matches on name substrings.
type FakeSearch struct {
	mu          sync.Mutex
	Ingredients map[string]domain.IngredientDocument
	Recipes     map[string]domain.RecipeDocument
	IndexCalls  int
	Down        bool
}

func NewFakeSearch() *FakeSearch {
	return &FakeSearch{
		Ingredients: map[string]domain.IngredientDocument{},
		Recipes:     map[string]domain.RecipeDocument{},
	}
}

func (f *FakeSearch) ConfigureIndexes(context.Context) error {
	return nil
}

func (f *FakeSearch) IndexIngredients(_ context.Context, docs []domain.IngredientDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.IndexCalls++
	if f.Down {
		return ErrFakeSearchDown
	}
	for _, doc := range docs {
		f.Ingredients[doc.ID] = doc
	}
	return nil
}

func (f *FakeSearch) UpsertRecipe(_ context.Context, doc domain.RecipeDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Down {
		return ErrFakeSearchDown
	}
	f.Recipes[doc.ID] = doc
	return nil
}

func (f *FakeSearch) DeleteRecipe(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Down {
		return ErrFakeSearchDown
	}
	delete(f.Recipes, id)
	return nil
}

func (f *FakeSearch) SearchIngredients(_ context.Context, query string, limit int) ([]domain.IngredientDocument, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Down {
		return nil, 0, ErrFakeSearchDown
	}
	var hits []domain.IngredientDocument
	for _, doc := range f.Ingredients {
		if strings.Contains(doc.Name, strings.ToLower(query)) {
			hits = append(hits, doc)
		}
	}
	total := int64(len(hits))
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, total, nil
}

func (f *FakeSearch) SearchRecipes(_ context.Context, query string, filter domain.RecipeSearchFilter, limit int) ([]domain.RecipeDocument, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Down {
		return nil, 0, ErrFakeSearchDown
	}
	var hits []domain.RecipeDocument
	for _, doc := range f.Recipes {
		if !strings.Contains(strings.ToLower(doc.Name), strings.ToLower(query)) {
			continue
		}
		if filter.Cuisine != "" && doc.Cuisine != filter.Cuisine {
			continue
		}
		if filter.MealType != "" && doc.MealType != filter.MealType {
			continue
		}
		hits = append(hits, doc)
	}
	total := int64(len(hits))
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, total, nil
}

// Calls reports how many times IndexIngredients ran.
func (f *FakeSearch) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.IndexCalls
}

func (f *FakeSearch) Healthy(context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.Down
}

// FakeOAuthProvider answers every exchange with Profile.
type FakeOAuthProvider struct {
	Profile domain.OAuthProfile
	Err     error
}

func (p *FakeOAuthProvider) Name() string {
	return p.Profile.Provider
}

func (p *FakeOAuthProvider) AuthCodeURL(state string) string {
	return "https://idp.test/authorize?state=" + state
}

func (p *FakeOAuthProvider) Exchange(_ context.Context, code string) (domain.OAuthProfile, error) {
	if p.Err != nil {
		return domain.OAuthProfile{}, p.Err
	}
	if code == "" {
		return domain.OAuthProfile{}, domain.ErrOAuthExchange
	}
	return p.Profile, nil
}
