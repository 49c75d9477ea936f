// Package httpapi implements authview.IdentityProvider against a remote
// HTTP identity API (a GoTrue-style service). Login uses the OAuth2
// resource-owner password grant; the identity is decoded from the access
// token's claims, which the provider signs and TLS protects.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/panyam/authview"
)

// Provider is an HTTP identity-provider client
type Provider struct {
	cfg    Config
	client *http.Client
	oauth  *oauth2.Config

	mu           sync.Mutex
	current      *authview.Session
	listeners    map[int]func(authview.SessionEvent)
	nextListener int
}

// New creates a client for the identity API at cfg.BaseURL
func New(cfg Config) *Provider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Provider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		oauth: &oauth2.Config{
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.BaseURL + "/token?grant_type=password",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		listeners: make(map[int]func(authview.SessionEvent)),
	}
}

// apiError is the provider's error envelope. Different endpoints populate
// different fields; the first non-empty one carries the message.
type apiError struct {
	Msg       string `json:"msg"`
	ErrorText string `json:"error"`
	ErrorDesc string `json:"error_description"`
	Message   string `json:"message"`
}

func (e *apiError) message() string {
	for _, m := range []string{e.Msg, e.ErrorDesc, e.Message, e.ErrorText} {
		if m != "" {
			return m
		}
	}
	return ""
}

// SignUp registers a new account. The provider sends the confirmation
// email; the response carries the identity but no usable tokens until the
// address is confirmed.
func (p *Provider) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*authview.Session, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     metadata,
	}
	var resp struct {
		ID               string `json:"id"`
		Email            string `json:"email"`
		EmailConfirmedAt string `json:"email_confirmed_at"`
	}
	if err := p.do(ctx, http.MethodPost, "/signup", body, "", &resp); err != nil {
		return nil, err
	}
	return &authview.Session{
		Identity: &authview.Identity{
			ID:             resp.ID,
			Email:          resp.Email,
			EmailConfirmed: resp.EmailConfirmedAt != "",
		},
	}, nil
}

// SignInWithPassword exchanges credentials for tokens via the password
// grant and decodes the identity from the access token claims.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*authview.Session, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)
	token, err := p.oauth.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			var apiErr apiError
			if jsonErr := json.Unmarshal(retrieveErr.Body, &apiErr); jsonErr == nil {
				if msg := apiErr.message(); msg != "" {
					return nil, errors.New(msg)
				}
			}
		}
		return nil, err
	}

	identity, err := identityFromToken(token)
	if err != nil {
		return nil, err
	}
	sess := &authview.Session{
		Identity:     identity,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}
	p.mu.Lock()
	p.current = sess
	p.mu.Unlock()
	p.emit(authview.SessionEvent{Kind: authview.SessionSignedIn, Session: sess})
	return sess, nil
}

// SignOut revokes the current session server-side and clears it locally
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	sess := p.current
	p.current = nil
	p.mu.Unlock()
	if sess == nil {
		return nil
	}
	// Best effort: the local session is gone either way
	err := p.do(ctx, http.MethodPost, "/logout", nil, sess.AccessToken, nil)
	p.emit(authview.SessionEvent{Kind: authview.SessionSignedOut})
	return err
}

// CurrentIdentity returns the identity of the active session, or nil
func (p *Provider) CurrentIdentity(ctx context.Context) (*authview.Identity, error) {
	p.mu.Lock()
	sess := p.current
	p.mu.Unlock()
	if sess == nil {
		return nil, nil
	}
	var resp struct {
		ID               string `json:"id"`
		Email            string `json:"email"`
		EmailConfirmedAt string `json:"email_confirmed_at"`
	}
	if err := p.do(ctx, http.MethodGet, "/user", nil, sess.AccessToken, &resp); err != nil {
		return nil, err
	}
	return &authview.Identity{
		ID:             resp.ID,
		Email:          resp.Email,
		EmailConfirmed: resp.EmailConfirmedAt != "",
	}, nil
}

// UpdatePassword changes the password of the active session's account
func (p *Provider) UpdatePassword(ctx context.Context, newPassword string) error {
	p.mu.Lock()
	sess := p.current
	p.mu.Unlock()
	if sess == nil {
		return errors.New("not authenticated")
	}
	return p.do(ctx, http.MethodPut, "/user", map[string]any{"password": newPassword}, sess.AccessToken, nil)
}

// RequestPasswordReset asks the provider to dispatch a reset email whose
// link redirects to redirectTarget with the recovery marker appended
func (p *Provider) RequestPasswordReset(ctx context.Context, email, redirectTarget string) error {
	path := "/recover"
	if redirectTarget != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTarget)
	}
	return p.do(ctx, http.MethodPost, path, map[string]any{"email": email}, "", nil)
}

// ResumeSession installs tokens obtained out of band (e.g. from a recovery
// deep link's URL fragment) as the current session and pushes the matching
// event. Kind should be SessionSignedIn or SessionPasswordRecovery.
func (p *Provider) ResumeSession(accessToken, refreshToken string, kind authview.SessionEventKind) error {
	identity, err := identityFromToken(&oauth2.Token{AccessToken: accessToken})
	if err != nil {
		return err
	}
	sess := &authview.Session{
		Identity:     identity,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
	p.mu.Lock()
	p.current = sess
	p.mu.Unlock()
	p.emit(authview.SessionEvent{Kind: kind, Session: sess})
	return nil
}

// OnSessionChange registers a session-event listener
func (p *Provider) OnSessionChange(fn func(authview.SessionEvent)) authview.Unsubscribe {
	p.mu.Lock()
	id := p.nextListener
	p.nextListener++
	p.listeners[id] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

func (p *Provider) emit(ev authview.SessionEvent) {
	p.mu.Lock()
	listeners := make([]func(authview.SessionEvent), 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()
	for _, fn := range listeners {
		fn(ev)
	}
}

// do issues a JSON request and decodes either the response or the
// provider's error envelope
func (p *Provider) do(ctx context.Context, method, path string, body any, accessToken string, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, p.cfg.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if p.cfg.APIKey != "" {
		req.Header.Set("apikey", p.cfg.APIKey)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil {
			if msg := apiErr.message(); msg != "" {
				return errors.New(msg)
			}
		}
		return fmt.Errorf("identity api: %s %s returned %d", method, path, resp.StatusCode)
	}
	if out != nil && len(data) > 0 {
		return json.Unmarshal(data, out)
	}
	return nil
}

// identityFromToken decodes identity claims from the access token without
// verifying the signature: the client never holds the signing key, and the
// token was just received over TLS from the provider itself.
func identityFromToken(token *oauth2.Token) (*authview.Identity, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token.AccessToken, claims); err != nil {
		return nil, fmt.Errorf("failed to decode access token: %w", err)
	}
	identity := &authview.Identity{}
	if sub, ok := claims["sub"].(string); ok {
		identity.ID = sub
	}
	if email, ok := claims["email"].(string); ok {
		identity.Email = email
	}
	if confirmed, ok := claims["email_confirmed"].(bool); ok {
		identity.EmailConfirmed = confirmed
	}
	return identity, nil
}
