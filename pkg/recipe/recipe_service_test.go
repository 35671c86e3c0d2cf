package recipe

import (
	"context"
	"sync"
	"testing"
	"time"

	"recipe-share/domain"
	"recipe-share/entities"
	"recipe-share/internal/testutil"
	"recipe-share/pkg/ingredient"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type RecipeServiceSuite struct {
	suite.Suite
	ctx     context.Context
	db      *gorm.DB
	repo    RecipeRepository
	s3      *testutil.FakeS3
	index   *testutil.FakeSearch
	service RecipeService

	owner  *entities.User
	other  *entities.User
	rice   *entities.Ingredient
	egg    *entities.Ingredient
	butter *entities.Ingredient
}

func TestRecipeServiceSuite(t *testing.T) {
	suite.Run(t, new(RecipeServiceSuite))
}

func (s *RecipeServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = testutil.NewTestDB(s.T())
	s.repo = NewRecipeRepository(s.db)
	s.s3 = testutil.NewFakeS3()
	s.index = testutil.NewFakeSearch()
	s.service = NewRecipeService(s.repo, ingredient.NewIngredientRepository(s.db), s.s3, s.index, nil)

	s.owner = testutil.CreateUser(s.T(), s.db, "owner")
	s.other = testutil.CreateUser(s.T(), s.db, "other")
	s.rice = testutil.CreateIngredient(s.T(), s.db, "rice", 130, nil, "grain")
	s.egg = testutil.CreateIngredient(s.T(), s.db, "egg", 155, testutil.Float32(50))
	s.butter = testutil.CreateIngredient(s.T(), s.db, "butter", 720, nil, "dairy")
}

func (s *RecipeServiceSuite) request(name string) domain.CreateRecipeRequest {
	return domain.CreateRecipeRequest{
		Name:            name,
		Description:     testutil.Sentence(8),
		PrepTimeMinutes: 5,
		CookTimeMinutes: 15,
		Servings:        2,
		Difficulty:      domain.DifficultyEasy,
		Cuisine:         "Chinese",
		MealType:        "dinner",
		Steps:           []string{"Cook the rice.", "Scramble the eggs.", "Fry together."},
		Ingredients: []domain.RecipeIngredientRequest{
			{IngredientID: s.rice.ID.String(), Quantity: 200, Unit: "g"},
			{IngredientID: s.egg.ID.String(), Quantity: 2, Unit: "piece"},
			{IngredientID: s.butter.ID.String(), Quantity: 1, Unit: "tbsp"},
		},
	}
}

func (s *RecipeServiceSuite) create(name string) domain.RecipeDetail {
	res, err := s.service.CreateRecipe(s.ctx, s.request(name), s.owner.ID.String())
	s.Require().NoError(err)
	return res
}

func (s *RecipeServiceSuite) TestCreateRecipe() {
	res := s.create("Egg Fried Rice")

	s.Equal("egg-fried-rice", res.Slug)
	s.Equal("owner", res.Owner)
	s.Require().Len(res.Ingredients, 3)
	s.Equal("rice", res.Ingredients[0].Name)
	s.Equal("egg", res.Ingredients[1].Name)
	s.Equal("butter", res.Ingredients[2].Name)
	s.Len(res.Steps, 3)

	// 200 g rice 260 + 100 g egg 155 + 15 g butter 108
	s.InDelta(523.0, res.NutritionFacts.TotalCalories, 1e-6)
	s.InDelta(261.5, res.NutritionFacts.CaloriesPerServing, 1e-6)

	doc, ok := s.index.Recipes[res.ID]
	s.Require().True(ok)
	s.Equal("egg-fried-rice", doc.Slug)
	s.Equal("owner", doc.Username)
	s.Equal(20, doc.TotalTime)
}

func (s *RecipeServiceSuite) TestCreateRecipe_Rejections() {
	s.create("Egg Fried Rice")

	_, err := s.service.CreateRecipe(s.ctx, s.request("egg fried rice!"), s.other.ID.String())
	s.ErrorIs(err, domain.ErrRecipeNameTaken)

	_, err = s.service.CreateRecipe(s.ctx, s.request("???"), s.owner.ID.String())
	s.ErrorIs(err, domain.ErrRecipeNameInvalid)

	req := s.request("Mystery Rice")
	req.Ingredients = append(req.Ingredients, domain.RecipeIngredientRequest{IngredientID: uuid.NewString(), Quantity: 1, Unit: "g"})
	_, err = s.service.CreateRecipe(s.ctx, req, s.owner.ID.String())
	s.ErrorIs(err, domain.ErrUnknownIngredient)

	req = s.request("Double Rice")
	req.Ingredients = append(req.Ingredients, req.Ingredients[0])
	_, err = s.service.CreateRecipe(s.ctx, req, s.owner.ID.String())
	s.ErrorIs(err, domain.ErrDuplicateIngredient)
}

func (s *RecipeServiceSuite) TestCreateRecipe_NonASCIIName() {
	res := s.create("Борщ")
	s.Equal("borshch", res.Slug)

	found, err := s.service.GetRecipeByName(s.ctx, "Борщ", "")
	s.Require().NoError(err)
	s.Equal(res.ID, found.ID)

	cafe := s.create("Café")
	s.Equal("cafe", cafe.Slug)
	caf := s.create("Caf")
	s.Equal("caf", caf.Slug)
	s.NotEqual(cafe.ID, caf.ID)

	_, err = s.service.CreateRecipe(s.ctx, s.request("cafe"), s.other.ID.String())
	s.ErrorIs(err, domain.ErrRecipeNameTaken)
}

func (s *RecipeServiceSuite) TestCreateRecipe_IndexFailureIsNotFatal() {
	s.index.Down = true
	res, err := s.service.CreateRecipe(s.ctx, s.request("Egg Fried Rice"), s.owner.ID.String())
	s.Require().NoError(err)
	s.NotEmpty(res.ID)
}

func (s *RecipeServiceSuite) TestGetRecipeByName() {
	created := s.create("Egg Fried Rice")

	res, err := s.service.GetRecipeByName(s.ctx, "egg-fried-rice", "")
	s.Require().NoError(err)
	s.Equal(created.ID, res.ID)
	s.False(res.IsBookmarked)

	res, err = s.service.GetRecipeByName(s.ctx, "Egg Fried Rice", s.other.ID.String())
	s.Require().NoError(err)
	s.Equal(created.ID, res.ID)

	_, err = s.service.GetRecipeByName(s.ctx, "unknown", "")
	s.ErrorIs(err, domain.ErrRecipeNotFound)
}

func (s *RecipeServiceSuite) TestGetRecipeDetail_NotFound() {
	_, err := s.service.GetRecipeDetail(s.ctx, uuid.NewString(), "")
	s.ErrorIs(err, domain.ErrRecipeNotFound)

	_, err = s.service.GetRecipeDetail(s.ctx, "nope", "")
	s.ErrorIs(err, domain.ErrRecipeNotFound)
}

func (s *RecipeServiceSuite) TestUpdateRecipe() {
	created := s.create("Egg Fried Rice")

	req := s.request("Butter Rice")
	req.Ingredients = []domain.RecipeIngredientRequest{
		{IngredientID: s.butter.ID.String(), Quantity: 2, Unit: "tbsp"},
		{IngredientID: s.rice.ID.String(), Quantity: 1, Unit: "cup"},
	}
	req.Servings = 1

	updated, err := s.service.UpdateRecipe(s.ctx, created.ID, req, s.owner.ID.String())
	s.Require().NoError(err)
	s.Equal("butter-rice", updated.Slug)
	s.Require().Len(updated.Ingredients, 2)
	s.Equal("butter", updated.Ingredients[0].Name)
	s.Equal("rice", updated.Ingredients[1].Name)

	var lines int64
	s.Require().NoError(s.db.Model(&entities.RecipeIngredient{}).Where("recipe_id = ?", created.ID).Count(&lines).Error)
	s.EqualValues(2, lines)

	_, err = s.service.GetRecipeByName(s.ctx, "egg-fried-rice", "")
	s.ErrorIs(err, domain.ErrRecipeNotFound)

	s.Equal("butter-rice", s.index.Recipes[created.ID].Slug)
}

func (s *RecipeServiceSuite) TestUpdateRecipe_KeepsOwnName() {
	created := s.create("Egg Fried Rice")

	req := s.request("Egg Fried Rice")
	req.Description = "better"
	updated, err := s.service.UpdateRecipe(s.ctx, created.ID, req, s.owner.ID.String())
	s.Require().NoError(err)
	s.Equal("better", updated.Description)
}

func (s *RecipeServiceSuite) TestUpdateAndDelete_RequireOwner() {
	created := s.create("Egg Fried Rice")

	_, err := s.service.UpdateRecipe(s.ctx, created.ID, s.request("Stolen Rice"), s.other.ID.String())
	s.ErrorIs(err, domain.ErrUnauthorizedRecipeAccess)

	err = s.service.DeleteRecipe(s.ctx, created.ID, s.other.ID.String())
	s.ErrorIs(err, domain.ErrUnauthorizedRecipeAccess)
}

func (s *RecipeServiceSuite) TestDeleteRecipe() {
	created := s.create("Egg Fried Rice")
	s.Require().NoError(s.service.BookmarkRecipe(s.ctx, created.ID, s.other.ID.String()))
	s.Require().NoError(s.service.MarkAsCooked(s.ctx, created.ID, s.other.ID.String()))
	_, err := s.service.UploadImage(s.ctx, domain.UploadRecipeImageRequest{
		RecipeID: created.ID,
		Image:    testutil.FileHeader(s.T(), "rice.png", testutil.PNGBytes),
	}, s.owner.ID.String())
	s.Require().NoError(err)

	s.Require().NoError(s.service.DeleteRecipe(s.ctx, created.ID, s.owner.ID.String()))

	_, err = s.service.GetRecipeDetail(s.ctx, created.ID, "")
	s.ErrorIs(err, domain.ErrRecipeNotFound)

	for _, model := range []interface{}{&entities.RecipeIngredient{}, &entities.RecipeBookmark{}, &entities.RecipeHistory{}} {
		var n int64
		s.Require().NoError(s.db.Model(model).Where("recipe_id = ?", created.ID).Count(&n).Error)
		s.Zero(n)
	}

	s.False(s.s3.Has("recipes/recipe-" + created.ID + ".png"))
	_, indexed := s.index.Recipes[created.ID]
	s.False(indexed)

	err = s.service.DeleteRecipe(s.ctx, created.ID, s.owner.ID.String())
	s.ErrorIs(err, domain.ErrRecipeNotFound)
}

func (s *RecipeServiceSuite) TestUploadImage() {
	created := s.create("Egg Fried Rice")

	res, err := s.service.UploadImage(s.ctx, domain.UploadRecipeImageRequest{
		RecipeID: created.ID,
		Image:    testutil.FileHeader(s.T(), "rice.png", testutil.PNGBytes),
	}, s.owner.ID.String())
	s.Require().NoError(err)
	s.Equal(testutil.FakeBucketURL+"recipes/recipe-"+created.ID+".png", res.ImageURL)

	fetched, err := s.service.GetRecipeDetail(s.ctx, created.ID, "")
	s.Require().NoError(err)
	s.Equal(res.ImageURL, fetched.ImageURL)

	_, err = s.service.UploadImage(s.ctx, domain.UploadRecipeImageRequest{
		RecipeID: created.ID,
		Image:    testutil.FileHeader(s.T(), "rice.png", []byte("GIF89a not allowed")),
	}, s.owner.ID.String())
	s.ErrorIs(err, domain.ErrInvalidImageFormat)

	big := make([]byte, domain.MaxImageSize+1)
	copy(big, testutil.PNGBytes)
	_, err = s.service.UploadImage(s.ctx, domain.UploadRecipeImageRequest{
		RecipeID: created.ID,
		Image:    testutil.FileHeader(s.T(), "rice.png", big),
	}, s.owner.ID.String())
	s.ErrorIs(err, domain.ErrImageTooLarge)

	_, err = s.service.UploadImage(s.ctx, domain.UploadRecipeImageRequest{
		RecipeID: created.ID,
		Image:    testutil.FileHeader(s.T(), "rice.png", testutil.PNGBytes),
	}, s.other.ID.String())
	s.ErrorIs(err, domain.ErrUnauthorizedRecipeAccess)
}

func (s *RecipeServiceSuite) TestGetRecipes_Filters() {
	s.create("Egg Fried Rice")

	req := s.request("Quick Omelette")
	req.Cuisine = "French"
	req.MealType = "breakfast"
	req.CookTimeMinutes = 3
	req.PrepTimeMinutes = 2
	_, err := s.service.CreateRecipe(s.ctx, req, s.other.ID.String())
	s.Require().NoError(err)

	all, err := s.service.GetRecipes(s.ctx, domain.RecipeFilter{}, 1, 10)
	s.Require().NoError(err)
	s.EqualValues(2, all.Pagination.Total)
	s.EqualValues(1, all.Pagination.TotalPages)

	french, err := s.service.GetRecipes(s.ctx, domain.RecipeFilter{Cuisine: "french"}, 1, 10)
	s.Require().NoError(err)
	s.Require().Len(french.Recipes, 1)
	s.Equal("quick-omelette", french.Recipes[0].Slug)
	s.Equal("other", french.Recipes[0].Owner)

	quick, err := s.service.GetRecipes(s.ctx, domain.RecipeFilter{MaxTime: 10}, 1, 10)
	s.Require().NoError(err)
	s.Len(quick.Recipes, 1)

	paged, err := s.service.GetRecipes(s.ctx, domain.RecipeFilter{}, 2, 1)
	s.Require().NoError(err)
	s.Len(paged.Recipes, 1)
	s.EqualValues(2, paged.Pagination.TotalPages)

	byUser, err := s.service.GetRecipesByUsername(s.ctx, "owner", 1, 10)
	s.Require().NoError(err)
	s.Require().Len(byUser.Recipes, 1)
	s.Equal("egg-fried-rice", byUser.Recipes[0].Slug)
}

func (s *RecipeServiceSuite) TestBookmarksAndHistory() {
	created := s.create("Egg Fried Rice")
	viewer := s.other.ID.String()

	s.Require().NoError(s.service.BookmarkRecipe(s.ctx, created.ID, viewer))
	s.Require().NoError(s.service.BookmarkRecipe(s.ctx, created.ID, viewer))

	detail, err := s.service.GetRecipeDetail(s.ctx, created.ID, viewer)
	s.Require().NoError(err)
	s.True(detail.IsBookmarked)

	bookmarks, err := s.service.GetBookmarkedRecipes(s.ctx, viewer, 1, 10)
	s.Require().NoError(err)
	s.Require().Len(bookmarks.Recipes, 1)
	s.True(bookmarks.Recipes[0].IsBookmarked)
	s.Equal("owner", bookmarks.Recipes[0].Owner)

	s.Require().NoError(s.service.RemoveBookmark(s.ctx, created.ID, viewer))
	bookmarks, err = s.service.GetBookmarkedRecipes(s.ctx, viewer, 1, 10)
	s.Require().NoError(err)
	s.Empty(bookmarks.Recipes)

	s.Require().NoError(s.service.MarkAsCooked(s.ctx, created.ID, viewer))
	first, err := s.service.GetRecipeHistory(s.ctx, viewer, 1, 10)
	s.Require().NoError(err)
	s.Require().Len(first.Recipes, 1)
	s.True(first.Recipes[0].IsCooked)

	s.Require().NoError(s.service.MarkAsCooked(s.ctx, created.ID, viewer))
	second, err := s.service.GetRecipeHistory(s.ctx, viewer, 1, 10)
	s.Require().NoError(err)
	s.Require().Len(second.Recipes, 1)
	s.False(second.Recipes[0].CookedAt.Before(first.Recipes[0].CookedAt))

	s.ErrorIs(s.service.BookmarkRecipe(s.ctx, uuid.NewString(), viewer), domain.ErrRecipeNotFound)
	s.ErrorIs(s.service.MarkAsCooked(s.ctx, uuid.NewString(), viewer), domain.ErrRecipeNotFound)
}

func (s *RecipeServiceSuite) TestBookmarkRecipe_ConcurrentRequestsKeepOneRow() {
	created := s.create("Egg Fried Rice")
	viewer := s.other.ID.String()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.repo.BookmarkRecipe(s.ctx, viewer, created.ID)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		s.NoError(err)
	}

	var count int64
	s.Require().NoError(s.db.Model(&entities.RecipeBookmark{}).
		Where("user_id = ? AND recipe_id = ?", viewer, created.ID).
		Count(&count).Error)
	s.EqualValues(1, count)
}

func (s *RecipeServiceSuite) TestAddRecipeHistory_UpsertMovesCookedAt() {
	created := s.create("Egg Fried Rice")
	viewer := s.other.ID.String()

	s.Require().NoError(s.repo.AddRecipeHistory(s.ctx, viewer, created.ID))

	var first entities.RecipeHistory
	s.Require().NoError(s.db.Where("user_id = ? AND recipe_id = ?", viewer, created.ID).First(&first).Error)

	past := time.Now().Add(-48 * time.Hour)
	s.Require().NoError(s.db.Model(&entities.RecipeHistory{}).
		Where("id = ?", first.ID).
		Update("cooked_at", past).Error)

	s.Require().NoError(s.repo.AddRecipeHistory(s.ctx, viewer, created.ID))

	var rows []entities.RecipeHistory
	s.Require().NoError(s.db.Where("user_id = ? AND recipe_id = ?", viewer, created.ID).Find(&rows).Error)
	s.Require().Len(rows, 1)
	s.Equal(first.ID, rows[0].ID)
	s.True(rows[0].CookedAt.After(past.Add(time.Hour)))
}
