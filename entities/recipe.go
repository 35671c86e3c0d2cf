package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Recipe struct {
	ID              uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	UserID          uuid.UUID   `gorm:"type:uuid;index;not null" json:"user_id"`
	Name            string      `gorm:"type:varchar(100);not null" json:"name"`
	Slug            string      `gorm:"type:varchar(120);uniqueIndex;not null" json:"slug"`
	Description     string      `gorm:"type:text" json:"description"`
	ImageURL        string      `gorm:"type:text" json:"image_url,omitempty"`
	PrepTimeMinutes int         `gorm:"not null;default:0" json:"prep_time_minutes"`
	CookTimeMinutes int         `gorm:"not null;default:0" json:"cook_time_minutes"`
	Servings        int         `gorm:"not null;default:1" json:"servings"`
	Difficulty      string      `gorm:"type:varchar(10);index" json:"difficulty"`
	Cuisine         string      `gorm:"type:varchar(50);index" json:"cuisine"`
	MealType        string      `gorm:"type:varchar(20);index" json:"meal_type"`
	Steps           StringSlice `gorm:"type:jsonb" json:"steps"`

	User        *User               `gorm:"foreignKey:UserID" json:"-"`
	Ingredients []*RecipeIngredient `gorm:"foreignKey:RecipeID" json:"-"`
	Timestamp
}

func (r *Recipe) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type RecipeIngredient struct {
	RecipeID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"recipe_id"`
	IngredientID uuid.UUID `gorm:"type:uuid;primaryKey" json:"ingredient_id"`
	Quantity     float64   `gorm:"not null" json:"quantity"`
	Unit         string    `gorm:"type:varchar(10);not null" json:"unit"`
	Position     int       `gorm:"not null;default:0" json:"position"`

	Ingredient *Ingredient `gorm:"foreignKey:IngredientID" json:"-"`
}

type RecipeBookmark struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_bookmark_user_recipe" json:"user_id"`
	RecipeID  uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_bookmark_user_recipe" json:"recipe_id"`
	CreatedAt time.Time `json:"created_at"`

	User   *User   `gorm:"foreignKey:UserID"`
	Recipe *Recipe `gorm:"foreignKey:RecipeID"`
}

type RecipeHistory struct {
	ID       uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_history_user_recipe" json:"user_id"`
	RecipeID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_history_user_recipe" json:"recipe_id"`
	CookedAt time.Time `json:"cooked_at"`

	User   *User   `gorm:"foreignKey:UserID"`
	Recipe *Recipe `gorm:"foreignKey:RecipeID"`
}

// All lists every model managed by the schema.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Ingredient{},
		&Recipe{},
		&RecipeIngredient{},
		&RecipeBookmark{},
		&RecipeHistory{},
	}
}
