package authview

import (
	"context"
	"time"
)

// Identity is the authenticated-user handle issued by the identity provider.
// The session store holds a cached, possibly stale copy; the provider owns
// the real thing.
type Identity struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	EmailConfirmed bool   `json:"email_confirmed"`
}

// Session is a provider-issued session. Identity may be present without
// tokens (e.g. a signup that still awaits email confirmation).
type Session struct {
	Identity     *Identity `json:"identity"`
	AccessToken  string    `json:"access_token,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// SessionEventKind identifies a provider-pushed session lifecycle event
type SessionEventKind string

const (
	SessionSignedIn         SessionEventKind = "SIGNED_IN"
	SessionSignedOut        SessionEventKind = "SIGNED_OUT"
	SessionPasswordRecovery SessionEventKind = "PASSWORD_RECOVERY"
)

// SessionEvent is delivered to OnSessionChange listeners. Session is nil for
// SIGNED_OUT events.
type SessionEvent struct {
	Kind    SessionEventKind
	Session *Session
}

// Unsubscribe stops delivery to a previously registered listener. It must be
// invoked exactly once; invoking it twice is not guaranteed to be safe.
type Unsubscribe func()

// IdentityProvider is the capability interface for the remote identity and
// credential provider. Implementations own signup, password hashing, session
// issuance and email delivery; this module only orchestrates client-visible
// state around calls to it.
type IdentityProvider interface {
	// SignUp registers a new account. The provider sends a confirmation
	// email; no usable session exists until the address is confirmed.
	// Metadata carries auxiliary fields such as the requested username.
	SignUp(ctx context.Context, email, password string, metadata map[string]any) (*Session, error)

	// SignInWithPassword exchanges credentials for a session
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)

	// SignOut terminates the current session
	SignOut(ctx context.Context) error

	// CurrentIdentity returns the identity of the active session, or nil
	// when nobody is signed in
	CurrentIdentity(ctx context.Context) (*Identity, error)

	// UpdatePassword changes the password of the active session's account
	UpdatePassword(ctx context.Context, newPassword string) error

	// RequestPasswordReset triggers provider-side dispatch of a reset email.
	// The provider appends a recovery marker (type=recovery) to the redirect
	// target so the returning deep link can be recognized.
	RequestPasswordReset(ctx context.Context, email, redirectTarget string) error

	// OnSessionChange registers a listener for session lifecycle events.
	// Listeners are invoked in event arrival order.
	OnSessionChange(fn func(SessionEvent)) Unsubscribe
}
