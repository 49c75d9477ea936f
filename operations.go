package authview

import (
	"context"
	"log"
	"time"
)

// MinPasswordLength is the minimum accepted password length for
// registration and password reset
const MinPasswordLength = 6

// DefaultSignOutDelay is how long PerformPasswordReset waits before the
// deferred sign-out that forces re-authentication with the new password
const DefaultSignOutDelay = time.Second

// Result is the uniform outcome shape of every auth operation. Provider
// failures never escape as raw errors; they arrive normalized in Err.
type Result struct {
	Success  bool
	Identity *Identity
	Profile  *Profile
	Err      *AuthError
}

func failure(err *AuthError) Result {
	return Result{Err: err}
}

// Operations is a stateless facade over identity-provider and profile-store
// calls. It owns error normalization and local pre-flight validation; it
// never mutates session state itself (that flows through SessionStore).
type Operations struct {
	Provider IdentityProvider
	Profiles ProfileStore

	// ResetRedirect is the target the provider appends the recovery marker
	// to when dispatching a password-reset email
	ResetRedirect string

	// SignOutDelay overrides DefaultSignOutDelay (tests use a short one)
	SignOutDelay time.Duration
}

// Register creates a new account with username as auxiliary metadata. The
// provider sends a confirmation email; no local session is established
// until the address is confirmed.
func (o *Operations) Register(ctx context.Context, email, password, username string) Result {
	sess, err := o.Provider.SignUp(ctx, email, password, map[string]any{"username": username})
	if err != nil {
		return failure(Normalize(OpRegister, err.Error()))
	}
	res := Result{Success: true}
	if sess != nil {
		res.Identity = sess.Identity
	}
	return res
}

// Login exchanges credentials for a session. An unconfirmed email address is
// reported as its own error code, distinct from bad credentials. On success
// the caller is responsible for triggering SessionStore.Refresh.
func (o *Operations) Login(ctx context.Context, email, password string) Result {
	sess, err := o.Provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return failure(Normalize(OpLogin, err.Error()))
	}
	res := Result{Success: true}
	if sess != nil {
		res.Identity = sess.Identity
	}
	return res
}

// Logout delegates to provider sign-out. The session store updates
// asynchronously via the provider's push-event path, so callers must not
// assume it already reflects the sign-out when this returns.
func (o *Operations) Logout(ctx context.Context) Result {
	if err := o.Provider.SignOut(ctx); err != nil {
		return failure(Normalize(OpLogin, err.Error()))
	}
	return Result{Success: true}
}

// RequestPasswordReset triggers provider-side dispatch of a reset email with
// the configured redirect target.
func (o *Operations) RequestPasswordReset(ctx context.Context, email string) Result {
	if err := o.Provider.RequestPasswordReset(ctx, email, o.ResetRedirect); err != nil {
		return failure(Normalize(OpResetRequest, err.Error()))
	}
	return Result{Success: true}
}

// PerformPasswordReset validates the new password locally before any
// network call, then updates it with the provider. On success a deferred
// sign-out is scheduled so the freshly-changed-password session does not
// silently persist without re-authentication. The deferred call is
// fire-and-forget: it cannot be cancelled and its failure is not surfaced.
func (o *Operations) PerformPasswordReset(ctx context.Context, newPassword, confirmPassword string) Result {
	if len(newPassword) < MinPasswordLength {
		return failure(NewAuthError(ErrCodeWeakPassword, "Password must be at least 6 characters", "password"))
	}
	if newPassword != confirmPassword {
		return failure(NewAuthError(ErrCodePasswordMismatch, "Passwords do not match", "confirm_password"))
	}
	if err := o.Provider.UpdatePassword(ctx, newPassword); err != nil {
		return failure(Normalize(OpResetPerform, err.Error()))
	}

	delay := o.SignOutDelay
	if delay <= 0 {
		delay = DefaultSignOutDelay
	}
	time.AfterFunc(delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := o.Provider.SignOut(ctx); err != nil {
			log.Printf("authview: deferred sign-out after password reset failed: %v", err)
		}
	})
	return Result{Success: true}
}

// FetchProfile reads the profile record for an identity id
func (o *Operations) FetchProfile(ctx context.Context, identityID string) Result {
	profile, err := o.Profiles.Get(ctx, identityID)
	if err != nil {
		return failure(NewAuthError(ErrCodeUnknown, err.Error(), ""))
	}
	return Result{Success: true, Profile: profile}
}

// UpdateProfile applies a partial merge of fields onto the stored profile.
// Fields not present in the map are left untouched.
func (o *Operations) UpdateProfile(ctx context.Context, identityID string, fields map[string]any) Result {
	profile, err := o.Profiles.Update(ctx, identityID, fields)
	if err != nil {
		return failure(NewAuthError(ErrCodeUnknown, err.Error(), ""))
	}
	return Result{Success: true, Profile: profile}
}
