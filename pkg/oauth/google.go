package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"recipe-share/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	ProviderGoogle  = "google"
	googleUserInfo  = "https://openidconnect.googleapis.com/v1/userinfo"
	maxUserInfoSize = 1 << 20
)

type (
	// Provider delegates sign-in to an external identity provider.
	Provider interface {
		Name() string
		AuthCodeURL(state string) string
		Exchange(ctx context.Context, code string) (domain.OAuthProfile, error)
	}

	googleProvider struct {
		config      *oauth2.Config
		userInfoURL string
	}

	googleUser struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
)

func NewGoogleProvider(clientID, clientSecret, redirectURL string) Provider {
	return &googleProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     google.Endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: googleUserInfo,
	}
}

func (g *googleProvider) Name() string {
	return ProviderGoogle
}

func (g *googleProvider) AuthCodeURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (g *googleProvider) Exchange(ctx context.Context, code string) (domain.OAuthProfile, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return domain.OAuthProfile{}, fmt.Errorf("%w: %v", domain.ErrOAuthExchange, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return domain.OAuthProfile{}, err
	}
	resp, err := g.config.Client(ctx, token).Do(req)
	if err != nil {
		return domain.OAuthProfile{}, fmt.Errorf("%w: %v", domain.ErrOAuthExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.OAuthProfile{}, fmt.Errorf("%w: userinfo %s - %s", domain.ErrOAuthExchange, resp.Status, string(body))
	}

	var user googleUser
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUserInfoSize)).Decode(&user); err != nil {
		return domain.OAuthProfile{}, fmt.Errorf("%w: decode userinfo: %v", domain.ErrOAuthExchange, err)
	}
	if user.Sub == "" {
		return domain.OAuthProfile{}, fmt.Errorf("%w: userinfo without subject", domain.ErrOAuthExchange)
	}

	return domain.OAuthProfile{
		Provider:      ProviderGoogle,
		Subject:       user.Sub,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		Name:          user.Name,
		AvatarURL:     user.Picture,
	}, nil
}
