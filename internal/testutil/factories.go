package testutil

import (
	"testing"

	"recipe-share/entities"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const DefaultPassword = "correct-horse-battery"

var faker = gofakeit.New(42)

// CreateUser stores a verified user whose password is DefaultPassword.
func CreateUser(t testing.TB, db *gorm.DB, username string) *entities.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := &entities.User{
		ID:           uuid.New(),
		Email:        username + "@" + faker.DomainName(),
		Username:     username,
		PasswordHash: string(hash),
		DisplayName:  faker.Name(),
		IsVerified:   true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func CreateIngredient(t testing.TB, db *gorm.DB, name string, caloriesPer100g float32, gPerPiece *float32, category ...string) *entities.Ingredient {
	t.Helper()

	if len(category) == 0 {
		category = []string{"other"}
	}
	ingredient := &entities.Ingredient{
		ID:              uuid.New(),
		Name:            name,
		CaloriesPer100g: caloriesPer100g,
		Category:        entities.StringSlice(category),
		GPerPiece:       gPerPiece,
	}
	require.NoError(t, db.Create(ingredient).Error)
	return ingredient
}

func Float32(v float32) *float32 {
	return &v
}

// Sentence returns filler text for descriptions and steps.
func Sentence(words int) string {
	return faker.Sentence(words)
}
