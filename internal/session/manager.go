package session

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	// LocalsKey is where the middleware stores the *Session on the fiber context.
	LocalsKey = "session"
	// LocalsUserID mirrors Session.UserID for handlers and guards.
	LocalsUserID = "user_id"

	digestLen    = 44
	minSecretLen = 64
)

var (
	ErrSecretTooShort   = fmt.Errorf("session secret must be at least %d bytes", minSecretLen)
	errCookieTooShort   = errors.New("cookie value shorter than digest")
	errBadDigest        = errors.New("bad base64 digest")
	errSignatureInvalid = errors.New("cookie signature did not verify")
)

type Config struct {
	CookieName    string
	CookiePath    string
	CookieDomain  string
	TTL           time.Duration
	SameSite      string
	Secure        *bool
	SaveUnchanged bool
}

func DefaultConfig() Config {
	return Config{
		CookieName:    "sid",
		CookiePath:    "/",
		TTL:           24 * time.Hour,
		SameSite:      fiber.CookieSameSiteStrictMode,
		SaveUnchanged: true,
	}
}

type Manager struct {
	store  Store
	key    []byte
	cfg    Config
	logger *zap.Logger
}

func NewManager(store Store, secret []byte, cfg Config, logger *zap.Logger) (*Manager, error) {
	if len(secret) < minSecretLen {
		return nil, ErrSecretTooShort
	}
	def := DefaultConfig()
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = def.CookiePath
	}
	if cfg.SameSite == "" {
		cfg.SameSite = def.SameSite
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	key := make([]byte, len(secret))
	copy(key, secret)
	return &Manager{store: store, key: key, cfg: cfg, logger: logger}, nil
}

func (m *Manager) CookieName() string {
	return m.cfg.CookieName
}

// Sign returns digest || value, where digest is the base64 HMAC-SHA256 of value.
func (m *Manager) Sign(value string) string {
	mac := hmac.New(sha256.New, m.key)
	mac.Write([]byte(value))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)) + value
}

// Verify checks a signed cookie value and returns the embedded value.
func (m *Manager) Verify(signed string) (string, error) {
	if len(signed) < digestLen {
		return "", errCookieTooShort
	}

	digestStr, value := signed[:digestLen], signed[digestLen:]
	digest, err := base64.StdEncoding.DecodeString(digestStr)
	if err != nil {
		return "", errBadDigest
	}

	mac := hmac.New(sha256.New, m.key)
	mac.Write([]byte(value))
	if !hmac.Equal(digest, mac.Sum(nil)) {
		return "", errSignatureInvalid
	}
	return value, nil
}

// Middleware loads (or creates) the session for every request and persists it
// once the downstream handlers return.
func (m *Manager) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		var cookieID string
		if raw := c.Cookies(m.cfg.CookieName); raw != "" {
			if id, err := m.Verify(raw); err == nil {
				cookieID = id
			}
		}

		sess := m.loadOrCreate(c, cookieID)
		if m.cfg.TTL > 0 {
			sess.expireIn(m.cfg.TTL)
		}

		c.Locals(LocalsKey, sess)
		if sess.UserID != "" {
			c.Locals(LocalsUserID, sess.UserID)
		}

		handlerErr := c.Next()

		secure := c.Protocol() == "https"
		if m.cfg.Secure != nil {
			secure = *m.cfg.Secure
		}

		switch {
		case sess.IsDestroyed():
			if err := m.store.Delete(ctx, sess.ID); err != nil {
				m.logger.Error("failed to destroy session", zap.Error(err))
				c.Status(fiber.StatusInternalServerError)
			}
			c.Cookie(m.removalCookie(secure))

		case m.cfg.SaveUnchanged || sess.Changed() || cookieID == "":
			if sess.ShouldRegenerate() {
				if err := m.store.Delete(ctx, sess.ID); err != nil {
					m.logger.Error("failed to destroy old session on regenerate", zap.Error(err))
				}
				sess.regenerateID()
			}
			if err := m.store.Save(ctx, sess, m.cfg.TTL); err != nil {
				m.logger.Error("failed to reach session storage", zap.Error(err))
				c.Status(fiber.StatusInternalServerError)
				break
			}
			c.Cookie(m.cookie(secure, m.Sign(sess.ID)))
		}

		return handlerErr
	}
}

func (m *Manager) loadOrCreate(c *fiber.Ctx, id string) *Session {
	if id == "" {
		return New()
	}

	sess, err := m.store.Load(c.UserContext(), id)
	if err != nil {
		m.logger.Warn("failed to load session", zap.Error(err))
		return New()
	}
	if sess == nil || sess.IsExpired(time.Now()) {
		return New()
	}
	if sess.Values == nil {
		sess.Values = map[string]string{}
	}
	return sess
}

func (m *Manager) cookie(secure bool, value string) *fiber.Cookie {
	cookie := &fiber.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     m.cfg.CookiePath,
		Domain:   m.cfg.CookieDomain,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: m.cfg.SameSite,
	}
	if m.cfg.TTL > 0 {
		cookie.Expires = time.Now().Add(m.cfg.TTL)
	}
	return cookie
}

func (m *Manager) removalCookie(secure bool) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     m.cfg.CookiePath,
		Domain:   m.cfg.CookieDomain,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: m.cfg.SameSite,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	}
}

// FromCtx returns the request's session. It is nil only when the middleware
// is not installed.
func FromCtx(c *fiber.Ctx) *Session {
	sess, _ := c.Locals(LocalsKey).(*Session)
	return sess
}
