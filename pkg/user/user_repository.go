package user

import (
	"context"
	"errors"

	"recipe-share/entities"

	"gorm.io/gorm"
)

type (
	UserRepository interface {
		CreateUser(ctx context.Context, user *entities.User) error
		GetUserByID(ctx context.Context, id string) (*entities.User, error)
		GetUserByEmail(ctx context.Context, email string) (*entities.User, error)
		GetUserByUsername(ctx context.Context, username string) (*entities.User, error)
		GetUserByOAuth(ctx context.Context, provider, subject string) (*entities.User, error)
		UpdateUser(ctx context.Context, user *entities.User) error
		EmailExists(ctx context.Context, email string) (bool, error)
		UsernameExists(ctx context.Context, username string) (bool, error)
		CountRecipes(ctx context.Context, userID string) (int64, error)
	}

	userRepository struct {
		db *gorm.DB
	}
)

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user *entities.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetUserByID(ctx context.Context, id string) (*entities.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *userRepository) GetUserByOAuth(ctx context.Context, provider, subject string) (*entities.User, error) {
	return r.first(ctx, "oauth_provider = ? AND oauth_subject = ?", provider, subject)
}

func (r *userRepository) first(ctx context.Context, query string, args ...any) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) UpdateUser(ctx context.Context, user *entities.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "email = ?", email)
}

func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "username = ?", username)
}

func (r *userRepository) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.User{}).
		Where(query, args...).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *userRepository) CountRecipes(ctx context.Context, userID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Recipe{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
