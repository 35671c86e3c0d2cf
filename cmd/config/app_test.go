package config

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"recipe-share/domain"
	"recipe-share/entities"
	"recipe-share/internal/api/handlers"
	"recipe-share/internal/session"
	"recipe-share/internal/testutil"
	"recipe-share/pkg/oauth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

const testAppURL = "https://app.test/"

type AppSuite struct {
	suite.Suite
	db       *gorm.DB
	store    *session.MemoryStore
	search   *testutil.FakeSearch
	s3       *testutil.FakeS3
	mailer   *testutil.FakeMailer
	provider *testutil.FakeOAuthProvider
	app      *fiber.App

	egg  *entities.Ingredient
	rice *entities.Ingredient
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   any             `json:"error"`
}

func TestAppSuite(t *testing.T) {
	suite.Run(t, new(AppSuite))
}

func (s *AppSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.store = session.NewMemoryStore()
	s.search = testutil.NewFakeSearch()
	s.s3 = testutil.NewFakeS3()
	s.mailer = &testutil.FakeMailer{}
	s.provider = &testutil.FakeOAuthProvider{Profile: domain.OAuthProfile{
		Provider:      oauth.ProviderGoogle,
		Subject:       "google-123",
		Email:         "chef@example.com",
		EmailVerified: true,
		Name:          "Chef Example",
	}}

	app, err := NewApp(Dependencies{
		DB:             s.db,
		SessionStore:   s.store,
		Search:         s.search,
		S3:             s.s3,
		Mailer:         s.mailer,
		OAuthProviders: []oauth.Provider{s.provider},
		HealthChecks: map[string]handlers.HealthCheck{
			"database": PingDB(s.db),
			"search":   PingSearch(s.search),
		},
	}, Options{
		AppURL:        testAppURL,
		JWTSecret:     "jwt-test-secret",
		SessionSecret: strings.Repeat("s", 64),
		Session:       session.DefaultConfig(),
		AccessLog:     io.Discard,
	})
	s.Require().NoError(err)
	s.app = app

	s.egg = testutil.CreateIngredient(s.T(), s.db, "egg", 155, testutil.Float32(50))
	s.rice = testutil.CreateIngredient(s.T(), s.db, "rice", 130, nil, "grain")
}

func (s *AppSuite) send(req *http.Request, cookie *http.Cookie) (*http.Response, envelope) {
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	_ = resp.Body.Close()
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		s.Require().NoError(json.Unmarshal(raw, &env))
	}
	return resp, env
}

func (s *AppSuite) do(method, target string, body any, cookie *http.Cookie) (*http.Response, envelope) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	return s.send(req, cookie)
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "sid" {
			return c
		}
	}
	return nil
}

func (s *AppSuite) register(username string) {
	resp, _ := s.do(http.MethodPost, "/api/v1/auth/register", fiber.Map{
		"email":    username + "@example.com",
		"username": username,
		"password": "correct-horse-battery",
	}, nil)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
}

func (s *AppSuite) login(username string) *http.Cookie {
	resp, env := s.do(http.MethodPost, "/api/v1/auth/login", fiber.Map{
		"email":    username + "@example.com",
		"password": "correct-horse-battery",
	}, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode, env.Message)
	cookie := sessionCookie(resp)
	s.Require().NotNil(cookie)
	return cookie
}

func (s *AppSuite) recipeBody(name string) fiber.Map {
	return fiber.Map{
		"name":              name,
		"description":       "weeknight dinner",
		"prep_time_minutes": 5,
		"cook_time_minutes": 10,
		"servings":          2,
		"difficulty":        "easy",
		"cuisine":           "thai",
		"meal_type":         "dinner",
		"steps":             []string{"Soak noodles.", "Fry everything."},
		"ingredients": []fiber.Map{
			{"ingredient_id": s.rice.ID.String(), "quantity": 200, "unit": "g"},
			{"ingredient_id": s.egg.ID.String(), "quantity": 2, "unit": "piece"},
		},
	}
}

func (s *AppSuite) TestPing() {
	resp, env := s.do(http.MethodGet, "/api/ping", nil, nil)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.True(env.Status)
	s.JSONEq(`"pong"`, string(env.Data))
}

func (s *AppSuite) TestHealth() {
	resp, _ := s.do(http.MethodGet, "/api/health", nil, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	s.search.Down = true
	resp, env := s.do(http.MethodGet, "/api/health", nil, nil)
	s.Equal(http.StatusServiceUnavailable, resp.StatusCode)
	s.JSONEq(`{"database":"ok","search":"search service unhealthy"}`, string(env.Data))
}

func (s *AppSuite) TestRegister_DuplicateEmail() {
	s.register("alice")
	s.Require().Len(s.mailer.Sent, 1)

	resp, env := s.do(http.MethodPost, "/api/v1/auth/register", fiber.Map{
		"email":    "ALICE@example.com",
		"username": "alice_two",
		"password": "correct-horse-battery",
	}, nil)
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.False(env.Status)
	s.Equal(domain.ErrEmailAlreadyExists.Error(), env.Error)
}

func (s *AppSuite) TestRegister_Validation() {
	resp, env := s.do(http.MethodPost, "/api/v1/auth/register", fiber.Map{
		"email":    "not-an-email",
		"username": "Bad Name",
		"password": "short",
	}, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Contains(env.Error, "Email")
}

func (s *AppSuite) TestRecipeByName_Unknown() {
	resp, env := s.do(http.MethodGet, "/r/unknown", nil, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.Equal(domain.ErrRecipeNotFound.Error(), env.Error)
}

func (s *AppSuite) TestUnknownRoute() {
	resp, _ := s.do(http.MethodGet, "/api/v1/nope", nil, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
}

func (s *AppSuite) TestSessionLifecycle() {
	resp, _ := s.do(http.MethodGet, "/api/v1/users/me", nil, nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	s.register("alice")

	resp, _ = s.do(http.MethodPost, "/api/v1/auth/login", fiber.Map{
		"email":    "alice@example.com",
		"password": "wrong-password",
	}, nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	cookie := s.login("alice")
	s.True(cookie.HttpOnly)

	resp, env := s.do(http.MethodGet, "/api/v1/users/me", nil, cookie)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var me domain.UserResponse
	s.Require().NoError(json.Unmarshal(env.Data, &me))
	s.Equal("alice", me.Username)
	s.False(me.IsVerified)

	forged := &http.Cookie{Name: "sid", Value: strings.Repeat("A", 44) + "forged"}
	resp, _ = s.do(http.MethodGet, "/api/v1/users/me", nil, forged)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp, _ = s.do(http.MethodPost, "/api/v1/auth/logout", nil, cookie)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	removal := sessionCookie(resp)
	s.Require().NotNil(removal)
	s.Empty(removal.Value)

	resp, _ = s.do(http.MethodGet, "/api/v1/users/me", nil, cookie)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *AppSuite) TestRecipeLifecycle() {
	s.register("alice")
	s.register("bob")
	alice := s.login("alice")
	bob := s.login("bob")

	resp, _ := s.do(http.MethodPost, "/api/v1/recipes", s.recipeBody("Pad Thai"), nil)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	resp, env := s.do(http.MethodPost, "/api/v1/recipes", s.recipeBody("Pad Thai"), alice)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, env.Error)
	var created domain.RecipeDetail
	s.Require().NoError(json.Unmarshal(env.Data, &created))
	s.Equal("pad-thai", created.Slug)
	s.Equal("alice", created.Owner)
	s.InDelta(415.0, created.NutritionFacts.TotalCalories, 1e-6)

	resp, _ = s.do(http.MethodPost, "/api/v1/recipes", s.recipeBody("pad thai"), bob)
	s.Equal(http.StatusConflict, resp.StatusCode)

	resp, env = s.do(http.MethodGet, "/r/Pad%20Thai", nil, bob)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var byName domain.RecipeDetail
	s.Require().NoError(json.Unmarshal(env.Data, &byName))
	s.Equal(created.ID, byName.ID)

	resp, _ = s.do(http.MethodPut, "/api/v1/recipes/"+created.ID, s.recipeBody("Bob's Pad Thai"), bob)
	s.Equal(http.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(http.MethodDelete, "/api/v1/recipes/"+created.ID, nil, bob)
	s.Equal(http.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(http.MethodPost, "/api/v1/recipes/"+created.ID+"/bookmark", nil, bob)
	s.Equal(http.StatusOK, resp.StatusCode)

	resp, env = s.do(http.MethodGet, "/api/v1/users/me/bookmarks", nil, bob)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var bookmarks domain.RecipeListResponse
	s.Require().NoError(json.Unmarshal(env.Data, &bookmarks))
	s.Require().Len(bookmarks.Recipes, 1)
	s.Equal(created.ID, bookmarks.Recipes[0].ID)

	body, contentType := testutil.MultipartBody(s.T(), "image", "pad-thai.png", testutil.PNGBytes)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes/"+created.ID+"/image", body)
	req.Header.Set(fiber.HeaderContentType, contentType)
	resp, env = s.send(req, alice)
	s.Require().Equal(http.StatusOK, resp.StatusCode, env.Error)
	s.True(s.s3.Has("recipes/recipe-" + created.ID + ".png"))

	resp, _ = s.do(http.MethodGet, "/api/v1/recipes?cuisine=thai&max_time=30", nil, nil)
	s.Equal(http.StatusOK, resp.StatusCode)

	resp, _ = s.do(http.MethodDelete, "/api/v1/recipes/"+created.ID, nil, alice)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/api/v1/recipes/"+created.ID, nil, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	_, indexed := s.search.Recipes[created.ID]
	s.False(indexed)
}

func (s *AppSuite) uploadImage(recipeID string, data []byte, cookie *http.Cookie) (*http.Response, envelope) {
	body, contentType := testutil.MultipartBody(s.T(), "image", "photo.png", data)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/recipes/"+recipeID+"/image", body)
	req.Header.Set(fiber.HeaderContentType, contentType)
	return s.send(req, cookie)
}

func pngOfSize(n int) []byte {
	data := make([]byte, n)
	copy(data, testutil.PNGBytes)
	return data
}

func (s *AppSuite) TestUploadImage_SizeLimits() {
	s.register("alice")
	alice := s.login("alice")

	resp, env := s.do(http.MethodPost, "/api/v1/recipes", s.recipeBody("Pad Thai"), alice)
	s.Require().Equal(http.StatusCreated, resp.StatusCode, env.Error)
	var created domain.RecipeDetail
	s.Require().NoError(json.Unmarshal(env.Data, &created))

	resp, env = s.uploadImage(created.ID, pngOfSize(domain.MaxImageSize*9/10), alice)
	s.Equal(http.StatusOK, resp.StatusCode, env.Error)
	s.True(s.s3.Has("recipes/recipe-" + created.ID + ".png"))

	resp, env = s.uploadImage(created.ID, pngOfSize(domain.MaxImageSize+1), alice)
	s.Equal(http.StatusRequestEntityTooLarge, resp.StatusCode)
	s.False(env.Status)
	s.Equal(domain.ErrImageTooLarge.Error(), env.Error)

	resp, env = s.uploadImage(created.ID, pngOfSize(bodyLimit+1), alice)
	s.Equal(http.StatusRequestEntityTooLarge, resp.StatusCode)
	s.Equal(fiber.MIMEApplicationJSON, resp.Header.Get(fiber.HeaderContentType))
	s.False(env.Status)
}

func (s *AppSuite) TestOperationalRoutes_CreateNoSession() {
	for _, target := range []string{"/api/ping", "/api/health", "/metrics"} {
		resp, _ := s.do(http.MethodGet, target, nil, nil)
		s.Equal(http.StatusOK, resp.StatusCode, target)
		s.Nil(sessionCookie(resp), target)
	}
	s.Zero(s.store.Len())

	resp, _ := s.do(http.MethodGet, "/r/unknown", nil, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.NotNil(sessionCookie(resp))
	s.Equal(1, s.store.Len())
}

func (s *AppSuite) TestSearch() {
	resp, _ := s.do(http.MethodGet, "/api/v1/search/ingredients", nil, nil)
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	s.Require().NoError(s.search.IndexIngredients(context.Background(), []domain.IngredientDocument{
		{ID: s.egg.ID.String(), Name: "egg"},
	}))
	resp, env := s.do(http.MethodGet, "/api/v1/search/ingredients?q=egg", nil, nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var res domain.SearchResponse[domain.IngredientDocument]
	s.Require().NoError(json.Unmarshal(env.Data, &res))
	s.Len(res.Hits, 1)

	s.search.Down = true
	resp, _ = s.do(http.MethodGet, "/api/v1/search/recipes?q=thai", nil, nil)
	s.Equal(http.StatusServiceUnavailable, resp.StatusCode)
}

func (s *AppSuite) TestOAuth() {
	resp, _ := s.do(http.MethodGet, "/api/v1/auth/oauth/github", nil, nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/api/v1/auth/oauth/google", nil, nil)
	s.Require().Equal(http.StatusFound, resp.StatusCode)
	cookie := sessionCookie(resp)
	s.Require().NotNil(cookie)

	location, err := url.Parse(resp.Header.Get(fiber.HeaderLocation))
	s.Require().NoError(err)
	state := location.Query().Get("state")
	s.Require().NotEmpty(state)

	resp, _ = s.do(http.MethodGet, "/api/v1/auth/oauth/google/callback?code=abc&state=wrong", nil, cookie)
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	// the failed attempt consumed the state
	resp, _ = s.do(http.MethodGet, "/api/v1/auth/oauth/google/callback?code=abc&state="+state, nil, cookie)
	s.Equal(http.StatusBadRequest, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/api/v1/auth/oauth/google", nil, cookie)
	s.Require().Equal(http.StatusFound, resp.StatusCode)
	location, err = url.Parse(resp.Header.Get(fiber.HeaderLocation))
	s.Require().NoError(err)
	state = location.Query().Get("state")

	resp, _ = s.do(http.MethodGet, "/api/v1/auth/oauth/google/callback?code=abc&state="+state, nil, cookie)
	s.Require().Equal(http.StatusFound, resp.StatusCode)
	s.Equal(testAppURL, resp.Header.Get(fiber.HeaderLocation))
	loggedIn := sessionCookie(resp)
	s.Require().NotNil(loggedIn)
	s.NotEqual(cookie.Value, loggedIn.Value)

	resp, env := s.do(http.MethodGet, "/api/v1/users/me", nil, loggedIn)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var me domain.UserResponse
	s.Require().NoError(json.Unmarshal(env.Data, &me))
	s.Equal("chef@example.com", me.Email)
	s.True(me.IsVerified)
}
