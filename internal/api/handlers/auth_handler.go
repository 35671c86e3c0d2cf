package handlers

import (
	"recipe-share/domain"
	"recipe-share/internal/api/presenters"
	"recipe-share/internal/session"
	"recipe-share/pkg/oauth"
	"recipe-share/pkg/user"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const oauthStateKey = "oauth_state"

type (
	AuthHandler interface {
		Register(c *fiber.Ctx) error
		Login(c *fiber.Ctx) error
		Logout(c *fiber.Ctx) error
		OAuthRedirect(c *fiber.Ctx) error
		OAuthCallback(c *fiber.Ctx) error
		SendVerificationEmail(c *fiber.Ctx) error
		VerifyEmail(c *fiber.Ctx) error
		ForgotPassword(c *fiber.Ctx) error
		ResetPassword(c *fiber.Ctx) error
	}

	authHandler struct {
		userService user.UserService
		providers   map[string]oauth.Provider
		validator   *validator.Validate
		appURL      string
		logger      *zap.Logger
	}
)

func NewAuthHandler(
	userService user.UserService,
	providers []oauth.Provider,
	validator *validator.Validate,
	appURL string,
	logger *zap.Logger,
) AuthHandler {
	byName := make(map[string]oauth.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &authHandler{
		userService: userService,
		providers:   byName,
		validator:   validator,
		appURL:      appURL,
		logger:      logger,
	}
}

func (h *authHandler) Register(c *fiber.Ctx) error {
	req := new(domain.RegisterRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedRegister, err)
	}

	res, err := h.userService.Register(c.UserContext(), *req)
	if err != nil {
		return presenters.Failure(c, domain.MessageFailedRegister, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessRegister)
}

func (h *authHandler) Login(c *fiber.Ctx) error {
	req := new(domain.LoginRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedLogin, err)
	}

	res, err := h.userService.Login(c.UserContext(), *req)
	if err != nil {
		return presenters.Failure(c, domain.MessageFailedLogin, err)
	}

	sess := session.FromCtx(c)
	if sess == nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedLogin, domain.ErrSessionStore)
	}
	sess.Login(res.ID)

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessLogin)
}

func (h *authHandler) Logout(c *fiber.Ctx) error {
	if sess := session.FromCtx(c); sess != nil {
		sess.Destroy()
	}
	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessLogout)
}

func (h *authHandler) provider(c *fiber.Ctx) (oauth.Provider, bool) {
	p, ok := h.providers[c.Params("provider")]
	return p, ok
}

func (h *authHandler) OAuthRedirect(c *fiber.Ctx) error {
	p, ok := h.provider(c)
	if !ok {
		return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedOAuth, fiber.ErrNotFound)
	}

	sess := session.FromCtx(c)
	if sess == nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedOAuth, domain.ErrSessionStore)
	}

	state := uuid.NewString()
	sess.Set(oauthStateKey, state)
	return c.Redirect(p.AuthCodeURL(state), fiber.StatusFound)
}

func (h *authHandler) OAuthCallback(c *fiber.Ctx) error {
	p, ok := h.provider(c)
	if !ok {
		return presenters.ErrorResponse(c, fiber.StatusNotFound, domain.MessageFailedOAuth, fiber.ErrNotFound)
	}

	sess := session.FromCtx(c)
	if sess == nil {
		return presenters.ErrorResponse(c, fiber.StatusInternalServerError, domain.MessageFailedOAuth, domain.ErrSessionStore)
	}

	expected, _ := sess.Get(oauthStateKey)
	sess.Remove(oauthStateKey)
	if expected == "" || c.Query("state") != expected {
		return presenters.Failure(c, domain.MessageFailedOAuth, domain.ErrOAuthStateMismatch)
	}

	code := c.Query("code")
	if code == "" {
		return presenters.Failure(c, domain.MessageFailedOAuth, domain.ErrOAuthStateMismatch)
	}

	profile, err := p.Exchange(c.UserContext(), code)
	if err != nil {
		h.logger.Warn("oauth exchange failed", zap.String("provider", p.Name()), zap.Error(err))
		return presenters.Failure(c, domain.MessageFailedOAuth, err)
	}

	res, err := h.userService.LoginWithOAuth(c.UserContext(), profile)
	if err != nil {
		return presenters.Failure(c, domain.MessageFailedOAuth, err)
	}

	sess.Login(res.ID)
	return c.Redirect(h.appURL, fiber.StatusFound)
}

func (h *authHandler) SendVerificationEmail(c *fiber.Ctx) error {
	req := new(domain.SendVerificationRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedSendVerification, err)
	}

	if err := h.userService.SendVerificationEmail(c.UserContext(), *req); err != nil {
		return presenters.Failure(c, domain.MessageFailedSendVerification, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessSendVerification)
}

func (h *authHandler) VerifyEmail(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedVerifyEmail, domain.ErrTokenInvalid)
	}

	if err := h.userService.VerifyEmail(c.UserContext(), token); err != nil {
		return presenters.Failure(c, domain.MessageFailedVerifyEmail, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessVerifyEmail)
}

func (h *authHandler) ForgotPassword(c *fiber.Ctx) error {
	req := new(domain.ForgotPasswordRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedForgotPassword, err)
	}

	if err := h.userService.ForgotPassword(c.UserContext(), *req); err != nil {
		return presenters.Failure(c, domain.MessageFailedForgotPassword, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessForgotPassword)
}

func (h *authHandler) ResetPassword(c *fiber.Ctx) error {
	req := new(domain.ResetPasswordRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedResetPassword, err)
	}

	if err := h.userService.ResetPassword(c.UserContext(), *req); err != nil {
		return presenters.Failure(c, domain.MessageFailedResetPassword, err)
	}

	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessResetPassword)
}
