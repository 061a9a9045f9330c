package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mrlokans/bookinfo/internal/config"
)

const (
	defaultOAuthAuthURL     = "https://accounts.google.com/o/oauth2/auth"
	defaultOAuthTokenURL    = "https://oauth2.googleapis.com/token"
	defaultOAuthUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

var ErrOAuthExchange = errors.New("oauth exchange failed")

// Identity is the signed-in user as reported by the identity provider.
type Identity struct {
	Subject  string
	Name     string
	Email    string
	Image    string
	Provider string
}

// OAuthProvider runs the authorization code flow against an identity provider.
type OAuthProvider interface {
	LoginURL(state string) string
	Exchange(ctx context.Context, code string) (*Identity, error)
}

// OIDCProvider talks to an OpenID Connect compatible provider. The endpoint
// URLs default to Google.
type OIDCProvider struct {
	clientID     string
	clientSecret string
	redirectURL  string
	authURL      string
	tokenURL     string
	userInfoURL  string
	name         string
	httpClient   *http.Client
}

// NewOIDCProvider builds a provider from the oauth settings.
func NewOIDCProvider(cfg config.Auth) *OIDCProvider {
	p := &OIDCProvider{
		clientID:     cfg.OAuthClientID,
		clientSecret: cfg.OAuthClientSecret,
		redirectURL:  cfg.OAuthRedirectURL,
		authURL:      cfg.OAuthAuthURL,
		tokenURL:     cfg.OAuthTokenURL,
		userInfoURL:  cfg.OAuthUserInfoURL,
		name:         "oauth",
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
	if p.authURL == "" && p.tokenURL == "" && p.userInfoURL == "" {
		p.name = "google"
	}
	if p.authURL == "" {
		p.authURL = defaultOAuthAuthURL
	}
	if p.tokenURL == "" {
		p.tokenURL = defaultOAuthTokenURL
	}
	if p.userInfoURL == "" {
		p.userInfoURL = defaultOAuthUserInfoURL
	}
	return p
}

// LoginURL returns the provider's consent page URL.
func (p *OIDCProvider) LoginURL(state string) string {
	params := url.Values{
		"client_id":     {p.clientID},
		"redirect_uri":  {p.redirectURL},
		"response_type": {"code"},
		"scope":         {"openid email profile"},
		"state":         {state},
	}
	return p.authURL + "?" + params.Encode()
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type userInfoResponse struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// Exchange trades an authorization code for the user's identity.
func (p *OIDCProvider) Exchange(ctx context.Context, code string) (*Identity, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: empty code", ErrOAuthExchange)
	}

	token, err := p.exchangeToken(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOAuthExchange, err)
	}

	info, err := p.fetchUserInfo(ctx, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOAuthExchange, err)
	}

	return &Identity{
		Subject:  info.Sub,
		Name:     info.Name,
		Email:    info.Email,
		Image:    info.Picture,
		Provider: p.name,
	}, nil
}

func (p *OIDCProvider) exchangeToken(ctx context.Context, code string) (*tokenResponse, error) {
	data := url.Values{
		"code":          {code},
		"client_id":     {p.clientID},
		"client_secret": {p.clientSecret},
		"redirect_uri":  {p.redirectURL},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("parse token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, errors.New("empty access token in response")
	}
	return &token, nil
}

func (p *OIDCProvider) fetchUserInfo(ctx context.Context, accessToken string) (*userInfoResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create user info request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user info request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user info endpoint returned status %d", resp.StatusCode)
	}

	var info userInfoResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return nil, fmt.Errorf("parse user info response: %w", err)
	}
	if info.Sub == "" {
		return nil, errors.New("empty sub in user info response")
	}
	return &info, nil
}

var _ OAuthProvider = (*OIDCProvider)(nil)
