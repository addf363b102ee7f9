package smarthq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/oauth2"
)

const (
	DefaultAPIURL = "https://api.brillion.geappliances.com"
	apiHost       = "api.brillion.geappliances.com"
)

var LoginURLs = map[string]string{
	"US": "https://accounts.brillion.geappliances.com",
	"EU": "https://accounts-eu.brillion.geappliances.com",
}

type Credentials struct {
	Username     string
	Password     string
	ClientID     string
	ClientSecret string
	Region       string
	// TokenFile optionally persists the refresh token between runs.
	TokenFile string
}

func (c Credentials) loginURL() string {
	if url, ok := LoginURLs[strings.ToUpper(c.Region)]; ok {
		return url
	}
	return LoginURLs["US"]
}

// Authenticator obtains and refreshes access tokens with the password grant.
type Authenticator struct {
	creds      Credentials
	config     *oauth2.Config
	httpClient *http.Client

	mu           sync.Mutex
	source       oauth2.TokenSource
	refreshToken string
}

func NewAuthenticator(creds Credentials, httpClient *http.Client) *Authenticator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	base := creds.loginURL()
	return &Authenticator{
		creds:      creds,
		httpClient: httpClient,
		config: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   base + "/oauth2/auth",
				TokenURL:  base + "/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
	}
}

// Token returns a valid access token, logging in when there is no usable session.
// A rejected refresh falls back to the password grant once, so only rejected
// account credentials surface as ErrAuthFailed.
func (a *Authenticator) Token(ctx context.Context) (*oauth2.Token, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	canFallback := true
	if a.source == nil {
		fromStore, err := a.login(ctx, true)
		if err != nil {
			return nil, err
		}
		canFallback = fromStore
	}

	token, err := a.source.Token()
	if err != nil && canFallback {
		a.discardStored()
		if _, err := a.login(ctx, false); err != nil {
			return nil, err
		}
		token, err = a.source.Token()
	}
	if err != nil {
		a.source = nil
		return nil, classifyTokenError(err)
	}
	if token.RefreshToken != "" && token.RefreshToken != a.refreshToken {
		a.refreshToken = token.RefreshToken
		// a token file that cannot be written only costs a login on next start
		_ = a.persist(token)
	}
	return token, nil
}

// Invalidate forgets the current session so the next Token call logs in again.
func (a *Authenticator) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.source = nil
}

// login seeds the token source, from the token file when allowed and present,
// otherwise with the password grant. fromStore reports which one was used.
func (a *Authenticator) login(ctx context.Context, useStore bool) (bool, error) {
	initial, fromStore, err := a.initialToken(ctx, useStore)
	if err != nil {
		return false, err
	}
	// the source outlives ctx, refreshes must not be bound to the caller
	bg := context.WithValue(context.Background(), oauth2.HTTPClient, a.httpClient)
	a.source = a.config.TokenSource(bg, initial)
	a.refreshToken = initial.RefreshToken
	return fromStore, nil
}

func (a *Authenticator) initialToken(ctx context.Context, useStore bool) (*oauth2.Token, bool, error) {
	if useStore {
		if stored, err := LoadToken(a.creds.TokenFile); err == nil && stored.RefreshToken != "" {
			return stored, true, nil
		}
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)
	token, err := a.config.PasswordCredentialsToken(ctx, a.creds.Username, a.creds.Password)
	if err != nil {
		return nil, false, classifyTokenError(err)
	}
	_ = a.persist(token)
	return token, false, nil
}

// discardStored drops the session and the token file after a rejected refresh.
func (a *Authenticator) discardStored() {
	a.source = nil
	a.refreshToken = ""
	if a.creds.TokenFile != "" {
		_ = os.Remove(a.creds.TokenFile)
	}
}

func (a *Authenticator) persist(token *oauth2.Token) error {
	if a.creds.TokenFile == "" {
		return nil
	}
	return WriteToken(a.creds.TokenFile, token)
}

func classifyTokenError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
		status := retrieveErr.Response.StatusCode
		body := strings.TrimSpace(string(retrieveErr.Body))
		switch {
		case status == http.StatusBadRequest || status == http.StatusUnauthorized || status == http.StatusForbidden:
			return fmt.Errorf("%w: %d %s", ErrAuthFailed, status, body)
		case status >= 500:
			return fmt.Errorf("%w: %d %s", ErrServer, status, body)
		}
		return fmt.Errorf("token request failed %d: %s", status, body)
	}
	return err
}

func LoadToken(path string) (*oauth2.Token, error) {
	if path == "" {
		return nil, os.ErrNotExist
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("parse token file: %w", err)
	}
	return &token, nil
}

func WriteToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir token dir: %w", err)
	}
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
