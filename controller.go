package authview

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// View identifies which of the four mutually exclusive auth surfaces is
// active. Exactly one is active at any time.
type View int

const (
	ViewLogin View = iota
	ViewRegister
	ViewForgotPassword
	ViewResetPassword
)

func (v View) String() string {
	switch v {
	case ViewLogin:
		return "login"
	case ViewRegister:
		return "register"
	case ViewForgotPassword:
		return "forgot_password"
	case ViewResetPassword:
		return "reset_password"
	}
	return fmt.Sprintf("view(%d)", int(v))
}

// Per-form input buffers. Drafts are transient: never persisted, cleared on
// success or view exit.
type LoginDraft struct {
	Email    string
	Password string
}

type RegisterDraft struct {
	Email    string
	Username string
	Password string
}

type ForgotDraft struct {
	Email string
}

type ResetDraft struct {
	NewPassword     string
	ConfirmPassword string
}

// ViewController is the state machine selecting the active auth surface and
// arbitrating transitions triggered by user actions, operation results and
// provider-pushed events. It runs for the lifetime of the page; there is no
// terminal state.
//
// The recovery signal can arrive via two independent channels (the URL
// fragment and the provider's PASSWORD_RECOVERY event). Both feed the single
// enterRecovery arbitration point, so the transition is idempotent and
// cannot race itself.
type ViewController struct {
	ops     *Operations
	store   *SessionStore
	locator Locator

	mu     sync.Mutex
	view   View
	banner string

	login    LoginDraft
	register RegisterDraft
	forgot   ForgotDraft
	reset    ResetDraft

	loginErr    *AuthError
	registerErr *AuthError
	forgotErr   *AuthError
	resetErr    *AuthError

	loginGuard    SubmissionGuard
	registerGuard SubmissionGuard
	forgotGuard   SubmissionGuard
	resetGuard    SubmissionGuard

	unsub Unsubscribe
}

// NewViewController creates the controller in the Login view, consults the
// locator for a recovery deep link and subscribes to the provider's session
// events for pushed recovery signals. Call Close to detach the subscription.
func NewViewController(ops *Operations, store *SessionStore, locator Locator) *ViewController {
	c := &ViewController{
		ops:     ops,
		store:   store,
		locator: locator,
		view:    ViewLogin,
	}
	if locator != nil && HasRecoveryMarker(locator.Fragment()) {
		c.enterRecovery()
	}
	c.unsub = ops.Provider.OnSessionChange(func(ev SessionEvent) {
		if ev.Kind == SessionPasswordRecovery {
			c.enterRecovery()
		}
	})
	return c
}

// Close detaches the controller from the provider's event stream
func (c *ViewController) Close() {
	if c.unsub != nil {
		c.unsub()
		c.unsub = nil
	}
}

// CurrentView returns the active auth surface
func (c *ViewController) CurrentView() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Banner returns the current success banner, or "" when none is shown.
// Banners travel on this channel, distinct from form errors.
func (c *ViewController) Banner() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.banner
}

// FormError returns the error currently surfaced on the given form, or nil
func (c *ViewController) FormError(v View) *AuthError {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v {
	case ViewLogin:
		return c.loginErr
	case ViewRegister:
		return c.registerErr
	case ViewForgotPassword:
		return c.forgotErr
	case ViewResetPassword:
		return c.resetErr
	}
	return nil
}

// Pending reports whether the given form has an operation in flight
func (c *ViewController) Pending(v View) bool {
	switch v {
	case ViewLogin:
		return c.loginGuard.Pending()
	case ViewRegister:
		return c.registerGuard.Pending()
	case ViewForgotPassword:
		return c.forgotGuard.Pending()
	case ViewResetPassword:
		return c.resetGuard.Pending()
	}
	return false
}

func (c *ViewController) LoginDraft() LoginDraft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.login
}

func (c *ViewController) RegisterDraft() RegisterDraft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.register
}

func (c *ViewController) ForgotDraft() ForgotDraft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.forgot
}

func (c *ViewController) ResetDraft() ResetDraft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reset
}

// Draft setters replace the form's input buffer. Like typing into the form,
// a change clears the error currently surfaced there.

func (c *ViewController) SetLoginDraft(d LoginDraft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.login = d
	c.loginErr = nil
}

func (c *ViewController) SetRegisterDraft(d RegisterDraft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.register = d
	c.registerErr = nil
}

func (c *ViewController) SetForgotDraft(d ForgotDraft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.forgot = d
	c.forgotErr = nil
}

func (c *ViewController) SetResetDraft(d ResetDraft) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset = d
	c.resetErr = nil
}

// ShowRegister navigates Login -> Register, clearing the login error
func (c *ViewController) ShowRegister() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view != ViewLogin {
		return
	}
	c.view = ViewRegister
	c.loginErr = nil
	c.banner = ""
}

// ShowForgotPassword navigates Login -> ForgotPassword, clearing the login
// error
func (c *ViewController) ShowForgotPassword() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view != ViewLogin {
		return
	}
	c.view = ViewForgotPassword
	c.loginErr = nil
	c.banner = ""
}

// BackToLogin returns from Register or ForgotPassword to Login, discarding
// that form's draft. It does not exit ResetPassword; use CancelReset.
func (c *ViewController) BackToLogin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.view {
	case ViewRegister:
		c.register = RegisterDraft{}
		c.registerErr = nil
	case ViewForgotPassword:
		c.forgot = ForgotDraft{}
		c.forgotErr = nil
	default:
		return
	}
	c.view = ViewLogin
}

// CancelReset exits ResetPassword without changing the password
func (c *ViewController) CancelReset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view != ViewResetPassword {
		return
	}
	c.view = ViewLogin
	c.reset = ResetDraft{}
	c.resetErr = nil
}

// SubmitLogin submits the login draft. On success the session store is
// refreshed so consumers observe the new identity.
func (c *ViewController) SubmitLogin(ctx context.Context) Result {
	c.mu.Lock()
	draft := c.login
	c.loginErr = nil
	c.banner = ""
	c.mu.Unlock()

	res := c.loginGuard.Execute(func() Result {
		return c.ops.Login(ctx, draft.Email, draft.Password)
	})

	c.mu.Lock()
	if res.Err != nil {
		c.loginErr = res.Err
		c.mu.Unlock()
		return res
	}
	c.login = LoginDraft{}
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Refresh(ctx); err != nil {
			// The login itself succeeded; the push-event path will converge.
			return res
		}
	}
	return res
}

// SubmitRegister validates the registration draft locally, then submits it.
// On success the controller returns to Login with the email prefilled and a
// confirmation banner shown.
func (c *ViewController) SubmitRegister(ctx context.Context) Result {
	c.mu.Lock()
	draft := c.register
	c.registerErr = nil
	c.mu.Unlock()

	res := c.registerGuard.Execute(func() Result {
		if len(draft.Password) < MinPasswordLength {
			return failure(NewAuthError(ErrCodeWeakPassword, "Password must be at least 6 characters", "password"))
		}
		if strings.TrimSpace(draft.Username) == "" {
			return failure(NewAuthError(ErrCodeUsernameRequired, "Enter a username", "username"))
		}
		return c.ops.Register(ctx, draft.Email, draft.Password, draft.Username)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if res.Err != nil {
		c.registerErr = res.Err
		return res
	}
	// A recovery event may have preempted the Register view while the call
	// was in flight; in that case the result must not navigate.
	if c.view == ViewRegister {
		c.view = ViewLogin
		c.login = LoginDraft{Email: draft.Email}
		c.banner = "Registration successful! Check your email to confirm your account."
	}
	c.register = RegisterDraft{}
	return res
}

// SubmitResetRequest submits the forgot-password draft. On success the
// controller returns to Login with a banner naming the destination email.
func (c *ViewController) SubmitResetRequest(ctx context.Context) Result {
	c.mu.Lock()
	draft := c.forgot
	c.forgotErr = nil
	c.mu.Unlock()

	res := c.forgotGuard.Execute(func() Result {
		return c.ops.RequestPasswordReset(ctx, draft.Email)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if res.Err != nil {
		c.forgotErr = res.Err
		return res
	}
	if c.view == ViewForgotPassword {
		c.view = ViewLogin
		c.banner = fmt.Sprintf("A password reset email has been sent to %s", draft.Email)
	}
	c.forgot = ForgotDraft{}
	return res
}

// SubmitPasswordReset submits the reset draft. On success the controller
// returns to Login with a banner; the deferred sign-out scheduled by the
// operation will clear the session shortly after.
func (c *ViewController) SubmitPasswordReset(ctx context.Context) Result {
	c.mu.Lock()
	draft := c.reset
	c.resetErr = nil
	c.mu.Unlock()

	res := c.resetGuard.Execute(func() Result {
		return c.ops.PerformPasswordReset(ctx, draft.NewPassword, draft.ConfirmPassword)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if res.Err != nil {
		c.resetErr = res.Err
		return res
	}
	if c.view == ViewResetPassword {
		c.view = ViewLogin
		c.banner = "Password changed. Sign in with your new password."
	}
	c.reset = ResetDraft{}
	return res
}

// enterRecovery is the single arbitration point for both recovery channels.
// It preempts whatever view is active (identity-recovery correctness
// outranks unsaved form state), discards the preempted drafts and clears
// the URL recovery marker so a reload cannot re-trigger the flow.
// Re-entering from ResetPassword is a no-op.
func (c *ViewController) enterRecovery() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locator != nil {
		c.locator.ClearRecoveryMarker()
	}
	if c.view == ViewResetPassword {
		return
	}
	c.view = ViewResetPassword
	c.register = RegisterDraft{}
	c.registerErr = nil
	c.forgot = ForgotDraft{}
	c.forgotErr = nil
	c.banner = ""
}
