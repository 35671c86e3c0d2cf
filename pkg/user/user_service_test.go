package user

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"recipe-share/domain"
	"recipe-share/internal/testutil"
	"recipe-share/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type UserServiceSuite struct {
	suite.Suite
	ctx     context.Context
	repo    UserRepository
	jwt     jwt.JWTService
	mailer  *testutil.FakeMailer
	s3      *testutil.FakeS3
	service UserService
}

func (s *UserServiceSuite) SetupTest() {
	db := testutil.NewTestDB(s.T())
	s.ctx = context.Background()
	s.repo = NewUserRepository(db)
	s.jwt = jwt.NewJWTService("test-secret")
	s.mailer = &testutil.FakeMailer{}
	s.s3 = testutil.NewFakeS3()
	s.service = NewUserService(s.repo, s.jwt, s.mailer, s.s3, "http://app.test/", nil)
}

func TestUserServiceSuite(t *testing.T) {
	suite.Run(t, new(UserServiceSuite))
}

func (s *UserServiceSuite) register(email, username string) domain.UserResponse {
	res, err := s.service.Register(s.ctx, domain.RegisterRequest{
		Email:    email,
		Username: username,
		Password: "hunter2hunter2",
	})
	s.Require().NoError(err)
	return res
}

func tokenFromLink(t *testing.T, body string) string {
	t.Helper()
	start := strings.Index(body, "http://app.test/")
	require.GreaterOrEqual(t, start, 0, "mail body carries no link")
	end := strings.IndexAny(body[start:], "\"' <\n")
	if end < 0 {
		end = len(body) - start
	}
	u, err := url.Parse(body[start : start+end])
	require.NoError(t, err)
	return u.Query().Get("token")
}

func (s *UserServiceSuite) TestRegister() {
	res := s.register("Cook@Example.com", "cook")

	s.Equal("cook@example.com", res.Email)
	s.Equal("cook", res.DisplayName)
	s.False(res.IsVerified)

	mail, ok := s.mailer.Last()
	s.Require().True(ok)
	s.Equal("cook@example.com", mail.To)
}

func (s *UserServiceSuite) TestRegister_Duplicates() {
	s.register("cook@example.com", "cook")

	_, err := s.service.Register(s.ctx, domain.RegisterRequest{Email: "COOK@example.com", Username: "other", Password: "hunter2hunter2"})
	s.ErrorIs(err, domain.ErrEmailAlreadyExists)

	_, err = s.service.Register(s.ctx, domain.RegisterRequest{Email: "other@example.com", Username: "cook", Password: "hunter2hunter2"})
	s.ErrorIs(err, domain.ErrUsernameAlreadyExists)
}

func (s *UserServiceSuite) TestRegister_MailFailureIsNotFatal() {
	s.mailer.Err = assert.AnError
	_, err := s.service.Register(s.ctx, domain.RegisterRequest{Email: "cook@example.com", Username: "cook", Password: "hunter2hunter2"})
	s.NoError(err)
}

func (s *UserServiceSuite) TestLogin() {
	registered := s.register("cook@example.com", "cook")

	res, err := s.service.Login(s.ctx, domain.LoginRequest{Email: "cook@example.com", Password: "hunter2hunter2"})
	s.Require().NoError(err)
	s.Equal(registered.ID, res.ID)

	_, err = s.service.Login(s.ctx, domain.LoginRequest{Email: "cook@example.com", Password: "wrong-password"})
	s.ErrorIs(err, domain.ErrInvalidCredentials)

	_, err = s.service.Login(s.ctx, domain.LoginRequest{Email: "nobody@example.com", Password: "hunter2hunter2"})
	s.ErrorIs(err, domain.ErrInvalidCredentials)
}

func (s *UserServiceSuite) TestVerifyEmail() {
	s.register("cook@example.com", "cook")
	mail, ok := s.mailer.Last()
	s.Require().True(ok)

	token := tokenFromLink(s.T(), mail.Body)
	s.Require().NotEmpty(token)

	s.Require().NoError(s.service.VerifyEmail(s.ctx, token))
	user, err := s.repo.GetUserByEmail(s.ctx, "cook@example.com")
	s.Require().NoError(err)
	s.True(user.IsVerified)

	s.ErrorIs(s.service.VerifyEmail(s.ctx, token), domain.ErrAlreadyVerified)
}

func (s *UserServiceSuite) TestSendVerificationEmail_UnknownAddressIsSilent() {
	s.NoError(s.service.SendVerificationEmail(s.ctx, domain.SendVerificationRequest{Email: "ghost@example.com"}))
	s.Empty(s.mailer.Sent)
}

func (s *UserServiceSuite) TestResetPassword() {
	s.register("cook@example.com", "cook")

	s.Require().NoError(s.service.ForgotPassword(s.ctx, domain.ForgotPasswordRequest{Email: "cook@example.com"}))
	mail, ok := s.mailer.Last()
	s.Require().True(ok)
	token := tokenFromLink(s.T(), mail.Body)

	s.Require().NoError(s.service.ResetPassword(s.ctx, domain.ResetPasswordRequest{Token: token, Password: "new-password-1"}))

	_, err := s.service.Login(s.ctx, domain.LoginRequest{Email: "cook@example.com", Password: "new-password-1"})
	s.NoError(err)
	_, err = s.service.Login(s.ctx, domain.LoginRequest{Email: "cook@example.com", Password: "hunter2hunter2"})
	s.ErrorIs(err, domain.ErrInvalidCredentials)
}

func (s *UserServiceSuite) TestResetPassword_RejectsVerificationToken() {
	res := s.register("cook@example.com", "cook")
	token, err := s.jwt.GenerateEmailToken(res.ID, res.Email, domain.TokenPurposeVerifyEmail, time.Hour)
	s.Require().NoError(err)

	err = s.service.ResetPassword(s.ctx, domain.ResetPasswordRequest{Token: token, Password: "new-password-1"})
	s.ErrorIs(err, domain.ErrTokenInvalid)
}

func (s *UserServiceSuite) TestForgotPassword_UnknownAddressIsSilent() {
	s.NoError(s.service.ForgotPassword(s.ctx, domain.ForgotPasswordRequest{Email: "ghost@example.com"}))
	s.Empty(s.mailer.Sent)
}

func (s *UserServiceSuite) TestUpdateUser() {
	res := s.register("cook@example.com", "cook")
	s.register("baker@example.com", "baker")

	bio := "  I like soup  "
	updated, err := s.service.UpdateUser(s.ctx, domain.UpdateUserRequest{Bio: &bio}, res.ID)
	s.Require().NoError(err)
	s.Equal("I like soup", updated.Bio)

	taken := "baker"
	_, err = s.service.UpdateUser(s.ctx, domain.UpdateUserRequest{Username: &taken}, res.ID)
	s.ErrorIs(err, domain.ErrUsernameAlreadyExists)
}

func (s *UserServiceSuite) TestUploadAvatar() {
	res := s.register("cook@example.com", "cook")

	updated, err := s.service.UploadAvatar(s.ctx, domain.UploadAvatarRequest{
		Image: testutil.FileHeader(s.T(), "me.png", testutil.PNGBytes),
	}, res.ID)
	s.Require().NoError(err)
	s.Equal(testutil.FakeBucketURL+"avatars/user-"+res.ID+".png", updated.AvatarURL)

	_, err = s.service.UploadAvatar(s.ctx, domain.UploadAvatarRequest{
		Image: testutil.FileHeader(s.T(), "me.txt", []byte("plain text, not an image")),
	}, res.ID)
	s.ErrorIs(err, domain.ErrInvalidImageFormat)
}

func (s *UserServiceSuite) TestGetPublicProfile() {
	s.register("cook@example.com", "cook")

	profile, err := s.service.GetPublicProfile(s.ctx, "cook")
	s.Require().NoError(err)
	s.Equal("cook", profile.Username)
	s.Zero(profile.RecipeCount)

	_, err = s.service.GetPublicProfile(s.ctx, "nobody")
	s.ErrorIs(err, domain.ErrUserNotFound)
}

func (s *UserServiceSuite) TestLoginWithOAuth() {
	profile := domain.OAuthProfile{
		Provider:      "google",
		Subject:       "g-1",
		Email:         "new.cook@example.com",
		EmailVerified: true,
		Name:          "New Cook",
	}

	created, err := s.service.LoginWithOAuth(s.ctx, profile)
	s.Require().NoError(err)
	s.Equal("new_cook", created.Username)
	s.True(created.IsVerified)

	again, err := s.service.LoginWithOAuth(s.ctx, profile)
	s.Require().NoError(err)
	s.Equal(created.ID, again.ID)

	// OAuth-only accounts have no password
	_, err = s.service.Login(s.ctx, domain.LoginRequest{Email: "new.cook@example.com", Password: "anything-at-all"})
	s.ErrorIs(err, domain.ErrInvalidCredentials)
}

func (s *UserServiceSuite) TestLoginWithOAuth_LinksVerifiedEmail() {
	existing := s.register("cook@example.com", "cook")

	_, err := s.service.LoginWithOAuth(s.ctx, domain.OAuthProfile{
		Provider: "google", Subject: "g-2", Email: "cook@example.com", EmailVerified: false,
	})
	s.ErrorIs(err, domain.ErrOAuthEmailUnverified)

	linked, err := s.service.LoginWithOAuth(s.ctx, domain.OAuthProfile{
		Provider: "google", Subject: "g-2", Email: "cook@example.com", EmailVerified: true,
	})
	s.Require().NoError(err)
	s.Equal(existing.ID, linked.ID)
	s.True(linked.IsVerified)
}
