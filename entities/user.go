package entities

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Email         string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Username      string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"username"`
	PasswordHash  string    `gorm:"type:varchar(255)" json:"-"`
	DisplayName   string    `gorm:"type:varchar(100)" json:"display_name"`
	Bio           string    `gorm:"type:text" json:"bio"`
	AvatarURL     string    `gorm:"type:text" json:"avatar_url,omitempty"`
	IsVerified    bool      `gorm:"default:false" json:"is_verified"`
	OAuthProvider *string   `gorm:"column:oauth_provider;type:varchar(30);uniqueIndex:idx_users_oauth" json:"-"`
	OAuthSubject  *string   `gorm:"column:oauth_subject;type:varchar(255);uniqueIndex:idx_users_oauth" json:"-"`

	Recipes []*Recipe `gorm:"foreignKey:UserID" json:"-"`
	Timestamp
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
