package calendar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	DefaultAuthURL   = "https://accounts.google.com/o/oauth2/v2/auth"
	DefaultTokenURL  = "https://oauth2.googleapis.com/token"
	DefaultRevokeURL = "https://oauth2.googleapis.com/revoke"
)

var Scopes = []string{
	"https://www.googleapis.com/auth/calendar.events",
	"https://www.googleapis.com/auth/calendar.readonly",
}

var ErrRefreshTokenEmpty = errors.New("refresh token is empty")

type OAuthSettings struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	RevokeURL    string
}

// OAuth drives the authorization-code flow against Google.
type OAuth struct {
	settings   OAuthSettings
	httpClient *http.Client
}

func NewOAuth(settings OAuthSettings, httpClient *http.Client) *OAuth {
	if settings.AuthURL == "" {
		settings.AuthURL = DefaultAuthURL
	}
	if settings.TokenURL == "" {
		settings.TokenURL = DefaultTokenURL
	}
	if settings.RevokeURL == "" {
		settings.RevokeURL = DefaultRevokeURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &OAuth{settings: settings, httpClient: httpClient}
}

func (auth *OAuth) Configured() bool {
	return strings.TrimSpace(auth.settings.ClientID) != "" && strings.TrimSpace(auth.settings.ClientSecret) != ""
}

// AuthCodeURL asks for offline access and forces the consent screen so
// Google always returns a refresh token.
func (auth *OAuth) AuthCodeURL(state string, redirectURL string) string {
	return auth.config(redirectURL).AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
}

func (auth *OAuth) Exchange(ctx context.Context, code string, redirectURL string) (*oauth2.Token, error) {
	token, err := auth.config(redirectURL).Exchange(auth.clientContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return token, nil
}

func (auth *OAuth) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrRefreshTokenEmpty
	}

	expired := &oauth2.Token{RefreshToken: refreshToken, Expiry: time.Unix(1, 0)}
	token, err := auth.config("").TokenSource(auth.clientContext(ctx), expired).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh access token: %w", err)
	}
	return token, nil
}

// Revoke invalidates a token at Google. Revoking a refresh token ends the
// whole grant.
func (auth *OAuth) Revoke(ctx context.Context, token string) error {
	form := url.Values{}
	form.Set("token", token)

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, auth.settings.RevokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build revoke request: %w", err)
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := auth.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	defer response.Body.Close()
	_, _ = io.Copy(io.Discard, response.Body)

	if response.StatusCode != http.StatusOK {
		return &APIError{Operation: "revoke", StatusCode: response.StatusCode}
	}
	return nil
}

func (auth *OAuth) config(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     auth.settings.ClientID,
		ClientSecret: auth.settings.ClientSecret,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   auth.settings.AuthURL,
			TokenURL:  auth.settings.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (auth *OAuth) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, auth.httpClient)
}
