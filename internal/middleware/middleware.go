package middleware

import (
	"strings"

	"recipe-share/domain"
	"recipe-share/internal/api/presenters"
	"recipe-share/internal/session"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"
)

type (
	Middleware interface {
		CORSMiddleware() fiber.Handler
		AuthMiddleware() fiber.Handler
		ErrorReporting() fiber.Handler
		Metrics() fiber.Handler
	}

	middleware struct {
		allowOrigins string
		logger       *zap.Logger
	}
)

func NewMiddleware(allowOrigins string, logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &middleware{allowOrigins: allowOrigins, logger: logger}
}

func (m *middleware) CORSMiddleware() fiber.Handler {
	origins := strings.TrimSpace(m.allowOrigins)
	credentials := origins != "" && origins != "*"
	if origins == "" {
		origins = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowCredentials: credentials,
	})
}

// AuthMiddleware rejects requests whose session is not bound to a user.
// It must run after the session middleware.
func (m *middleware) AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := session.FromCtx(c)
		if sess == nil || sess.UserID == "" {
			return presenters.ErrorResponse(c, fiber.StatusUnauthorized, domain.MessageNotAuthenticated, domain.ErrNotAuthenticated)
		}
		c.Locals(session.LocalsUserID, sess.UserID)
		return c.Next()
	}
}

// ErrorReporting logs every 5xx answer and forwards it to Sentry when a
// client is configured.
func (m *middleware) ErrorReporting() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if err != nil {
			return err
		}

		status := c.Response().StatusCode()
		if status < fiber.StatusInternalServerError {
			return nil
		}

		cause, _ := c.Locals(presenters.LocalsError).(error)
		m.logger.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Error(cause),
		)
		if cause != nil {
			sentry.CaptureException(cause)
		}
		return nil
	}
}
