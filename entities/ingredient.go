package entities

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Ingredient struct {
	ID              uuid.UUID   `gorm:"type:uuid;primary_key" json:"id"`
	Name            string      `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	CaloriesPer100g float32     `gorm:"column:calories_per_100g;not null;default:0" json:"calories_per_100g"`
	Category        StringSlice `gorm:"type:jsonb" json:"category"`
	GPerPiece       *float32    `gorm:"column:g_per_piece" json:"g_per_piece,omitempty"`

	Timestamp
}

func (i *Ingredient) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
