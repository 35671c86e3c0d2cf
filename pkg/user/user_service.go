package user

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"recipe-share/domain"
	"recipe-share/entities"
	"recipe-share/internal/utils/mailing"
	"recipe-share/internal/utils/storage"
	"recipe-share/pkg/jwt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type (
	UserService interface {
		Register(ctx context.Context, req domain.RegisterRequest) (domain.UserResponse, error)
		Login(ctx context.Context, req domain.LoginRequest) (domain.UserResponse, error)
		LoginWithOAuth(ctx context.Context, profile domain.OAuthProfile) (domain.UserResponse, error)
		Me(ctx context.Context, userID string) (domain.UserResponse, error)
		UpdateUser(ctx context.Context, req domain.UpdateUserRequest, userID string) (domain.UserResponse, error)
		UploadAvatar(ctx context.Context, req domain.UploadAvatarRequest, userID string) (domain.UserResponse, error)
		GetPublicProfile(ctx context.Context, username string) (domain.PublicProfileResponse, error)
		SendVerificationEmail(ctx context.Context, req domain.SendVerificationRequest) error
		VerifyEmail(ctx context.Context, token string) error
		ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error
		ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error
	}

	userService struct {
		userRepository UserRepository
		jwtService     jwt.JWTService
		mailer         mailing.Mailer
		s3             storage.AwsS3
		appURL         string
		logger         *zap.Logger
	}
)

var nonUsernameChars = regexp.MustCompile(`[^a-z0-9_]+`)

func NewUserService(
	userRepository UserRepository,
	jwtService jwt.JWTService,
	mailer mailing.Mailer,
	s3 storage.AwsS3,
	appURL string,
	logger *zap.Logger,
) UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &userService{
		userRepository: userRepository,
		jwtService:     jwtService,
		mailer:         mailer,
		s3:             s3,
		appURL:         strings.TrimRight(appURL, "/"),
		logger:         logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *userService) Register(ctx context.Context, req domain.RegisterRequest) (domain.UserResponse, error) {
	email := normalizeEmail(req.Email)

	exists, err := s.userRepository.EmailExists(ctx, email)
	if err != nil {
		return domain.UserResponse{}, err
	}
	if exists {
		return domain.UserResponse{}, domain.ErrEmailAlreadyExists
	}

	exists, err = s.userRepository.UsernameExists(ctx, req.Username)
	if err != nil {
		return domain.UserResponse{}, err
	}
	if exists {
		return domain.UserResponse{}, domain.ErrUsernameAlreadyExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.UserResponse{}, fmt.Errorf("hash password: %w", err)
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = req.Username
	}

	user := &entities.User{
		ID:           uuid.New(),
		Email:        email,
		Username:     req.Username,
		PasswordHash: string(hashed),
		DisplayName:  displayName,
	}
	if err := s.userRepository.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.UserResponse{}, domain.ErrEmailAlreadyExists
		}
		return domain.UserResponse{}, err
	}

	s.sendVerification(user)
	return toUserResponse(user), nil
}

func (s *userService) Login(ctx context.Context, req domain.LoginRequest) (domain.UserResponse, error) {
	user, err := s.userRepository.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if isNotFound(err) {
			return domain.UserResponse{}, domain.ErrInvalidCredentials
		}
		return domain.UserResponse{}, err
	}

	// accounts created through OAuth have no password until one is reset
	if user.PasswordHash == "" {
		return domain.UserResponse{}, domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return domain.UserResponse{}, domain.ErrInvalidCredentials
	}

	return toUserResponse(user), nil
}

func (s *userService) LoginWithOAuth(ctx context.Context, profile domain.OAuthProfile) (domain.UserResponse, error) {
	user, err := s.userRepository.GetUserByOAuth(ctx, profile.Provider, profile.Subject)
	if err == nil {
		return toUserResponse(user), nil
	}
	if !isNotFound(err) {
		return domain.UserResponse{}, err
	}

	email := normalizeEmail(profile.Email)
	user, err = s.userRepository.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		// link only when the provider vouches for the address
		if !profile.EmailVerified {
			return domain.UserResponse{}, domain.ErrOAuthEmailUnverified
		}
		user.OAuthProvider = &profile.Provider
		user.OAuthSubject = &profile.Subject
		user.IsVerified = true
		if user.AvatarURL == "" {
			user.AvatarURL = profile.AvatarURL
		}
		if err := s.userRepository.UpdateUser(ctx, user); err != nil {
			return domain.UserResponse{}, err
		}
		return toUserResponse(user), nil

	case !isNotFound(err):
		return domain.UserResponse{}, err
	}

	username, err := s.availableUsername(ctx, email, profile.Name)
	if err != nil {
		return domain.UserResponse{}, err
	}

	displayName := strings.TrimSpace(profile.Name)
	if displayName == "" {
		displayName = username
	}

	user = &entities.User{
		ID:            uuid.New(),
		Email:         email,
		Username:      username,
		DisplayName:   displayName,
		AvatarURL:     profile.AvatarURL,
		IsVerified:    profile.EmailVerified,
		OAuthProvider: &profile.Provider,
		OAuthSubject:  &profile.Subject,
	}
	if err := s.userRepository.CreateUser(ctx, user); err != nil {
		return domain.UserResponse{}, err
	}
	return toUserResponse(user), nil
}

// availableUsername derives a free username from the provider profile.
func (s *userService) availableUsername(ctx context.Context, email, name string) (string, error) {
	base := strings.SplitN(email, "@", 2)[0]
	if base == "" {
		base = name
	}
	base = nonUsernameChars.ReplaceAllString(strings.ToLower(base), "_")
	base = strings.Trim(base, "_")
	if len(base) < 3 {
		base = "cook_" + base
	}
	if len(base) > 22 {
		base = base[:22]
	}

	candidate := base
	for attempt := 0; attempt < 5; attempt++ {
		exists, err := s.userRepository.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = base + "_" + uuid.NewString()[:6]
	}
	return "", domain.ErrUsernameAlreadyExists
}

func (s *userService) Me(ctx context.Context, userID string) (domain.UserResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return domain.UserResponse{}, err
	}
	return toUserResponse(user), nil
}

func (s *userService) UpdateUser(ctx context.Context, req domain.UpdateUserRequest, userID string) (domain.UserResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return domain.UserResponse{}, err
	}

	if req.Username != nil && *req.Username != user.Username {
		exists, err := s.userRepository.UsernameExists(ctx, *req.Username)
		if err != nil {
			return domain.UserResponse{}, err
		}
		if exists {
			return domain.UserResponse{}, domain.ErrUsernameAlreadyExists
		}
		user.Username = *req.Username
	}
	if req.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.Bio != nil {
		user.Bio = strings.TrimSpace(*req.Bio)
	}

	if err := s.userRepository.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.UserResponse{}, domain.ErrUsernameAlreadyExists
		}
		return domain.UserResponse{}, err
	}
	return toUserResponse(user), nil
}

func (s *userService) UploadAvatar(ctx context.Context, req domain.UploadAvatarRequest, userID string) (domain.UserResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return domain.UserResponse{}, err
	}

	if _, err := storage.CheckImage(req.Image, domain.MaxImageSize, storage.AllowImage...); err != nil {
		return domain.UserResponse{}, err
	}

	var objectKey string
	if existingKey := s.s3.GetObjectKeyFromLink(user.AvatarURL); existingKey != "" {
		objectKey, err = s.s3.UpdateFile(ctx, existingKey, req.Image, storage.AllowImage...)
	} else {
		objectKey, err = s.s3.UploadFile(ctx, fmt.Sprintf("user-%s", user.ID), req.Image, "avatars", storage.AllowImage...)
	}
	if err != nil {
		return domain.UserResponse{}, err
	}

	user.AvatarURL = s.s3.GetPublicLinkKey(objectKey)
	if err := s.userRepository.UpdateUser(ctx, user); err != nil {
		return domain.UserResponse{}, err
	}
	return toUserResponse(user), nil
}

func (s *userService) GetPublicProfile(ctx context.Context, username string) (domain.PublicProfileResponse, error) {
	user, err := s.userRepository.GetUserByUsername(ctx, username)
	if err != nil {
		if isNotFound(err) {
			return domain.PublicProfileResponse{}, domain.ErrUserNotFound
		}
		return domain.PublicProfileResponse{}, err
	}

	count, err := s.userRepository.CountRecipes(ctx, user.ID.String())
	if err != nil {
		return domain.PublicProfileResponse{}, err
	}

	return domain.PublicProfileResponse{
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Bio:         user.Bio,
		AvatarURL:   user.AvatarURL,
		RecipeCount: count,
		JoinedAt:    user.CreatedAt,
	}, nil
}

func (s *userService) SendVerificationEmail(ctx context.Context, req domain.SendVerificationRequest) error {
	user, err := s.userRepository.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}
	if user.IsVerified {
		return nil
	}
	s.sendVerification(user)
	return nil
}

func (s *userService) VerifyEmail(ctx context.Context, token string) error {
	claims, err := s.jwtService.ValidateEmailToken(token, domain.TokenPurposeVerifyEmail)
	if err != nil {
		return err
	}

	user, err := s.getUser(ctx, claims.UserID)
	if err != nil {
		return err
	}
	// the address changed since the link was sent
	if user.Email != claims.Email {
		return domain.ErrTokenInvalid
	}
	if user.IsVerified {
		return domain.ErrAlreadyVerified
	}

	user.IsVerified = true
	return s.userRepository.UpdateUser(ctx, user)
}

func (s *userService) ForgotPassword(ctx context.Context, req domain.ForgotPasswordRequest) error {
	user, err := s.userRepository.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return err
	}

	token, err := s.jwtService.GenerateEmailToken(user.ID.String(), user.Email, domain.TokenPurposeResetPassword, domain.ResetPasswordTokenTTL)
	if err != nil {
		return err
	}

	// the answer never depends on whether the account exists
	subject, body := mailing.ResetPasswordEmail(user.DisplayName, s.link("/reset-password", token))
	if err := s.mailer.SendMail(user.Email, subject, body); err != nil {
		s.logger.Error("failed to send reset email", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
	return nil
}

func (s *userService) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	claims, err := s.jwtService.ValidateEmailToken(req.Token, domain.TokenPurposeResetPassword)
	if err != nil {
		return err
	}

	user, err := s.getUser(ctx, claims.UserID)
	if err != nil {
		return err
	}
	if user.Email != claims.Email {
		return domain.ErrTokenInvalid
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(hashed)
	return s.userRepository.UpdateUser(ctx, user)
}

func (s *userService) getUser(ctx context.Context, userID string) (*entities.User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, domain.ErrUserNotFound
	}
	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// sendVerification mails a verification link. Failures are logged only:
// the user can ask for another link.
func (s *userService) sendVerification(user *entities.User) {
	token, err := s.jwtService.GenerateEmailToken(user.ID.String(), user.Email, domain.TokenPurposeVerifyEmail, domain.VerifyEmailTokenTTL)
	if err != nil {
		s.logger.Error("failed to generate verification token", zap.String("user_id", user.ID.String()), zap.Error(err))
		return
	}

	subject, body := mailing.VerificationEmail(user.DisplayName, s.link("/verify-email", token))
	if err := s.mailer.SendMail(user.Email, subject, body); err != nil {
		s.logger.Warn("failed to send verification email", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
}

func (s *userService) link(path, token string) string {
	return s.appURL + path + "?token=" + url.QueryEscape(token)
}

func toUserResponse(user *entities.User) domain.UserResponse {
	return domain.UserResponse{
		ID:          user.ID.String(),
		Email:       user.Email,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Bio:         user.Bio,
		AvatarURL:   user.AvatarURL,
		IsVerified:  user.IsVerified,
		CreatedAt:   user.CreatedAt,
	}
}
