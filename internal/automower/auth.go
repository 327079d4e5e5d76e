package automower

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/wheelibin/mowd/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

// tokens are considered stale slightly before their actual expiry
const expirySlack = 30 * time.Second

type Credential struct {
	AccessToken string
	Expiry      time.Time
}

func (c Credential) valid() bool {
	return c.AccessToken != "" && (c.Expiry.IsZero() || time.Until(c.Expiry) > expirySlack)
}

// CredentialManager owns the OAuth access token shared by every other
// component. Refresh is lazy: nothing happens until a caller asks for a
// token and the cached one is missing or stale. Concurrent callers share
// a single in-flight token request.
type CredentialManager struct {
	logger      *log.Logger
	cfg         config.Config
	authBaseURL string
	httpClient  *http.Client

	group   singleflight.Group
	mu      sync.RWMutex
	current Credential
}

func NewCredentialManager(logger *log.Logger, cfg config.Config, authBaseURL string) *CredentialManager {
	return &CredentialManager{
		logger:      logger,
		cfg:         cfg,
		authBaseURL: authBaseURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Authenticate returns the cached credential if it is still usable,
// otherwise it performs a token request. At most one request is in
// flight at a time; concurrent callers receive its result.
func (m *CredentialManager) Authenticate(ctx context.Context) (Credential, error) {
	m.mu.RLock()
	current := m.current
	m.mu.RUnlock()
	if current.valid() {
		return current, nil
	}

	v, err, _ := m.group.Do("token", func() (any, error) {
		// another caller may have refreshed while we waited
		m.mu.RLock()
		current := m.current
		m.mu.RUnlock()
		if current.valid() {
			return current, nil
		}

		cred, err := m.requestToken(ctx)
		if err != nil {
			return Credential{}, err
		}

		m.mu.Lock()
		m.current = cred
		m.mu.Unlock()

		m.logger.Debug("Access token received", "expiry", cred.Expiry)
		return cred, nil
	})
	if err != nil {
		return Credential{}, err
	}
	return v.(Credential), nil
}

// Invalidate clears the cached credential so the next Authenticate call
// performs a fresh token request. Called when any component observes a
// 401/403 from the vendor.
func (m *CredentialManager) Invalidate() {
	m.mu.Lock()
	m.current = Credential{}
	m.mu.Unlock()
	m.logger.Debug("Credential invalidated")
}

// Revoke tells the auth service to drop the current token. Best effort,
// used on shutdown; the caller bounds the context.
func (m *CredentialManager) Revoke(ctx context.Context) error {
	m.mu.RLock()
	token := m.current.AccessToken
	m.mu.RUnlock()
	if token == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/token/%s", m.authBaseURL, token), nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-Api-Key", token)
	req.Header.Set("Authorization-Provider", "husqvarna")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	m.logger.Debug("Token revoked", "status", resp.Status)
	return nil
}

func (m *CredentialManager) requestToken(ctx context.Context) (Credential, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
	tokenURL := m.authBaseURL + "/oauth2/token"

	var token *oauth2.Token
	var err error

	switch m.cfg.AuthMode {
	case config.AuthModePassword:
		oc := oauth2.Config{
			ClientID: m.cfg.ApplicationKey,
			Endpoint: oauth2.Endpoint{TokenURL: tokenURL},
		}
		token, err = oc.PasswordCredentialsToken(ctx, m.cfg.Username, m.cfg.Password)
	default:
		cc := clientcredentials.Config{
			ClientID:     m.cfg.ApplicationKey,
			ClientSecret: m.cfg.ApplicationSecret,
			TokenURL:     tokenURL,
		}
		token, err = cc.Token(ctx)
	}

	if err != nil {
		return Credential{}, classifyAuthError(err)
	}
	return Credential{AccessToken: token.AccessToken, Expiry: token.Expiry}, nil
}

func classifyAuthError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		switch retrieveErr.Response.StatusCode {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return &AuthError{Kind: AuthInvalidCredentials, cause: err}
		}
	}
	return &AuthError{Kind: AuthUnreachable, cause: err}
}
