package domain

import (
	"errors"
	"mime/multipart"
	"time"
)

var (
	MessageSuccessRegister         = "user registered successfully"
	MessageSuccessLogin            = "login successful"
	MessageSuccessLogout           = "logout successful"
	MessageSuccessGetUser          = "success get user"
	MessageSuccessUpdateUser       = "user updated successfully"
	MessageSuccessUploadAvatar     = "avatar uploaded successfully"
	MessageSuccessSendVerification = "if the account exists, a verification email has been sent"
	MessageSuccessVerifyEmail      = "email verified successfully"
	MessageSuccessForgotPassword   = "if the account exists, a reset link has been sent"
	MessageSuccessResetPassword    = "password reset successfully"
	MessageFailedRegister          = "failed to register user"
	MessageFailedLogin             = "failed to login"
	MessageFailedLogout            = "failed to logout"
	MessageFailedGetUser           = "failed to get user"
	MessageFailedUpdateUser        = "failed to update user"
	MessageFailedUploadAvatar      = "failed to upload avatar"
	MessageFailedSendVerification  = "failed to send verification email"
	MessageFailedVerifyEmail       = "failed to verify email"
	MessageFailedForgotPassword    = "failed to process forgot password"
	MessageFailedResetPassword     = "failed to reset password"
	MessageFailedOAuth             = "failed to sign in with provider"

	ErrUserNotFound          = errors.New("user not found")
	ErrEmailAlreadyExists    = errors.New("email already registered")
	ErrUsernameAlreadyExists = errors.New("username already taken")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrOAuthStateMismatch    = errors.New("oauth state mismatch")
	ErrOAuthExchange         = errors.New("oauth code exchange failed")
	ErrOAuthEmailUnverified  = errors.New("provider email is not verified")
	ErrAlreadyVerified       = errors.New("email already verified")
)

const (
	TokenPurposeVerifyEmail   = "verify_email"
	TokenPurposeResetPassword = "reset_password"

	VerifyEmailTokenTTL   = 24 * time.Hour
	ResetPasswordTokenTTL = 30 * time.Minute
)

type (
	RegisterRequest struct {
		Email       string `json:"email" validate:"required,email,max=255"`
		Username    string `json:"username" validate:"required,username"`
		Password    string `json:"password" validate:"required,min=8,max=72"`
		DisplayName string `json:"display_name" validate:"omitempty,max=100"`
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	UpdateUserRequest struct {
		Username    *string `json:"username" validate:"omitempty,username"`
		DisplayName *string `json:"display_name" validate:"omitempty,max=100"`
		Bio         *string `json:"bio" validate:"omitempty,max=1000"`
	}

	UploadAvatarRequest struct {
		Image *multipart.FileHeader `form:"image" validate:"required"`
	}

	SendVerificationRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	ForgotPasswordRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	ResetPasswordRequest struct {
		Token    string `json:"token" validate:"required"`
		Password string `json:"password" validate:"required,min=8,max=72"`
	}

	UserResponse struct {
		ID          string    `json:"id"`
		Email       string    `json:"email"`
		Username    string    `json:"username"`
		DisplayName string    `json:"display_name"`
		Bio         string    `json:"bio"`
		AvatarURL   string    `json:"avatar_url,omitempty"`
		IsVerified  bool      `json:"is_verified"`
		CreatedAt   time.Time `json:"created_at"`
	}

	PublicProfileResponse struct {
		Username    string    `json:"username"`
		DisplayName string    `json:"display_name"`
		Bio         string    `json:"bio"`
		AvatarURL   string    `json:"avatar_url,omitempty"`
		RecipeCount int64     `json:"recipe_count"`
		JoinedAt    time.Time `json:"joined_at"`
	}

	// OAuthProfile is the identity returned by an external provider.
	OAuthProfile struct {
		Provider      string
		Subject       string
		Email         string
		EmailVerified bool
		Name          string
		AvatarURL     string
	}
)
