// Package local implements authview.IdentityProvider entirely in process,
// for development and tests. It mirrors the observable behavior of a remote
// identity provider: bcrypt-hashed credentials, confirmation and recovery
// emails with one-time tokens, JWT access tokens and pushed session events.
package local

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/panyam/authview"
)

// DefaultResetCooldown matches the remote provider's reset-email throttle
const DefaultResetCooldown = 60 * time.Second

type account struct {
	id           string
	email        string
	username     string
	passwordHash []byte
	confirmed    bool
	createdAt    time.Time
}

// Provider is an in-process identity provider. Configure the exported
// fields before first use; zero values get sensible development defaults.
type Provider struct {
	// Emails receives confirmation and reset emails. Defaults to
	// ConsoleEmailSender.
	Emails SendEmail

	// BaseURL is used for confirmation links and as the reset redirect
	// fallback
	BaseURL string

	// JWTSecret signs access tokens. Defaults to AUTHVIEW_JWT_SECRET_KEY
	// from the environment, then to a fixed development key.
	JWTSecret string

	// AccessTokenTTL defaults to one hour
	AccessTokenTTL time.Duration

	// ResetCooldown throttles repeat reset requests per email address
	ResetCooldown time.Duration

	mu           sync.Mutex
	accounts     map[string]*account // keyed by lowercased email
	tokens       map[string]*authToken
	lastReset    map[string]time.Time
	current      *authview.Session
	listeners    map[int]func(authview.SessionEvent)
	nextListener int
}

// New creates an empty in-process provider with development defaults
func New() *Provider {
	p := &Provider{
		accounts:  make(map[string]*account),
		tokens:    make(map[string]*authToken),
		lastReset: make(map[string]time.Time),
		listeners: make(map[int]func(authview.SessionEvent)),
	}
	p.ensureDefaults()
	return p
}

func (p *Provider) ensureDefaults() {
	if p.Emails == nil {
		p.Emails = &ConsoleEmailSender{}
	}
	if p.BaseURL == "" {
		p.BaseURL = "http://localhost:8080"
	}
	if p.JWTSecret == "" {
		p.JWTSecret = strings.TrimSpace(os.Getenv("AUTHVIEW_JWT_SECRET_KEY"))
		if p.JWTSecret == "" {
			p.JWTSecret = "AuthviewDevSecretKey123456"
		}
	}
	if p.AccessTokenTTL <= 0 {
		p.AccessTokenTTL = time.Hour
	}
	if p.ResetCooldown <= 0 {
		p.ResetCooldown = DefaultResetCooldown
	}
}

// SignUp registers an account and dispatches a confirmation email. The
// returned session carries the new identity but no tokens: the account is
// unusable until ConfirmEmail consumes the emailed token.
func (p *Provider) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*authview.Session, error) {
	key := strings.ToLower(email)
	username, _ := metadata["username"].(string)

	p.mu.Lock()
	if _, exists := p.accounts[key]; exists {
		p.mu.Unlock()
		return nil, fmt.Errorf("email already registered")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		p.mu.Unlock()
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	acct := &account{
		id:           uuid.NewString(),
		email:        email,
		username:     username,
		passwordHash: hash,
		createdAt:    time.Now(),
	}
	p.accounts[key] = acct
	token, err := p.createTokenLocked(acct, tokenTypeConfirmation, tokenExpiryConfirmation)
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}

	link := fmt.Sprintf("%s/auth/confirm?token=%s", p.BaseURL, token.Token)
	if err := p.Emails.SendConfirmationEmail(email, link); err != nil {
		return nil, fmt.Errorf("failed to send confirmation email: %w", err)
	}

	return &authview.Session{Identity: identityOf(acct)}, nil
}

// ConfirmEmail consumes a confirmation token from the emailed link
func (p *Provider) ConfirmEmail(token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, err := p.takeTokenLocked(token, tokenTypeConfirmation)
	if err != nil {
		return err
	}
	acct := p.accounts[strings.ToLower(t.Email)]
	if acct == nil {
		return errors.New("account not found")
	}
	acct.confirmed = true
	return nil
}

// SignInWithPassword verifies credentials and establishes the session. An
// unconfirmed address is rejected with a distinct error so callers can tell
// it apart from bad credentials.
func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*authview.Session, error) {
	p.mu.Lock()
	acct := p.accounts[strings.ToLower(email)]
	if acct == nil || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(password)) != nil {
		p.mu.Unlock()
		return nil, errors.New("invalid login credentials")
	}
	if !acct.confirmed {
		p.mu.Unlock()
		return nil, errors.New("email not confirmed")
	}
	sess, err := p.startSessionLocked(acct)
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}
	p.emit(authview.SessionEvent{Kind: authview.SessionSignedIn, Session: sess})
	return sess, nil
}

// SignOut terminates the current session, if any
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	had := p.current != nil
	p.current = nil
	p.mu.Unlock()
	if had {
		p.emit(authview.SessionEvent{Kind: authview.SessionSignedOut})
	}
	return nil
}

// CurrentIdentity returns the identity of the active session, or nil
func (p *Provider) CurrentIdentity(ctx context.Context) (*authview.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil, nil
	}
	return p.current.Identity, nil
}

// UpdatePassword changes the active account's password. Reusing the old
// password is rejected the way the remote provider rejects it.
func (p *Provider) UpdatePassword(ctx context.Context, newPassword string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil || p.current.Identity == nil {
		return errors.New("not authenticated")
	}
	acct := p.accounts[strings.ToLower(p.current.Identity.Email)]
	if acct == nil {
		return errors.New("account not found")
	}
	if bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(newPassword)) == nil {
		return errors.New("new password cannot be the same as the old password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	acct.passwordHash = hash
	return nil
}

// RequestPasswordReset dispatches a reset email. The recovery marker and
// token are appended to the redirect target as a URL fragment, the way the
// remote provider builds its deep links.
func (p *Provider) RequestPasswordReset(ctx context.Context, email, redirectTarget string) error {
	key := strings.ToLower(email)

	p.mu.Lock()
	if last, ok := p.lastReset[key]; ok && time.Since(last) < p.ResetCooldown {
		p.mu.Unlock()
		return fmt.Errorf("for security purposes, you can only request this after %d seconds", int(p.ResetCooldown.Seconds()))
	}
	acct := p.accounts[key]
	if acct == nil {
		p.mu.Unlock()
		return errors.New("user not found")
	}
	p.lastReset[key] = time.Now()
	token, err := p.createTokenLocked(acct, tokenTypeRecovery, tokenExpiryRecovery)
	p.mu.Unlock()
	if err != nil {
		return err
	}

	target := redirectTarget
	if target == "" {
		target = p.BaseURL
	}
	sep := "#"
	if strings.Contains(target, "#") {
		sep = "&"
	}
	link := fmt.Sprintf("%s%stype=recovery&token=%s", target, sep, token.Token)
	return p.Emails.SendPasswordResetEmail(email, link)
}

// ConsumeRecoveryToken models the user following the emailed reset link: it
// consumes the one-time token, establishes a recovery session for the
// account and pushes a PASSWORD_RECOVERY event.
func (p *Provider) ConsumeRecoveryToken(token string) error {
	p.mu.Lock()
	t, err := p.takeTokenLocked(token, tokenTypeRecovery)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	acct := p.accounts[strings.ToLower(t.Email)]
	if acct == nil {
		p.mu.Unlock()
		return errors.New("account not found")
	}
	// Following the emailed link proves control of the address
	acct.confirmed = true
	sess, err := p.startSessionLocked(acct)
	p.mu.Unlock()
	if err != nil {
		return err
	}
	p.emit(authview.SessionEvent{Kind: authview.SessionPasswordRecovery, Session: sess})
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

func (p *Provider) startSessionLocked(acct *account) (*authview.Session, error) {
	expiresAt := time.Now().Add(p.AccessTokenTTL)
	access, err := p.issueAccessToken(acct, expiresAt)
	if err != nil {
		return nil, err
	}
	sess := &authview.Session{
		Identity:    identityOf(acct),
		AccessToken: access,
		ExpiresAt:   expiresAt,
	}
	p.current = sess
	return sess, nil
}

func (p *Provider) issueAccessToken(acct *account, expiresAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":             acct.id,
		"email":           acct.email,
		"email_confirmed": acct.confirmed,
		"iat":             time.Now().Unix(),
		"exp":             expiresAt.Unix(),
	})
	return token.SignedString([]byte(p.JWTSecret))
}

func (p *Provider) createTokenLocked(acct *account, typ tokenType, expiry time.Duration) (*authToken, error) {
	value, err := generateSecureToken()
	if err != nil {
		return nil, err
	}
	t := &authToken{
		Token:     value,
		Type:      typ,
		AccountID: acct.id,
		Email:     acct.email,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(expiry),
	}
	p.tokens[value] = t
	return t, nil
}

func (p *Provider) takeTokenLocked(token string, typ tokenType) (*authToken, error) {
	t := p.tokens[token]
	if t == nil || t.Type != typ {
		return nil, errors.New("token not found")
	}
	delete(p.tokens, token)
	if t.expired() {
		return nil, errors.New("token expired")
	}
	return t, nil
}

func identityOf(acct *account) *authview.Identity {
	return &authview.Identity{
		ID:             acct.id,
		Email:          acct.email,
		EmailConfirmed: acct.confirmed,
	}
}
