package authview

import "strings"

// Error codes surfaced to views. Codes are stable; messages may be
// localized by the presentation layer.
const (
	ErrCodeInvalidCreds      = "invalid_credentials"
	ErrCodeEmailNotConfirmed = "email_not_confirmed"
	ErrCodeWeakPassword      = "weak_password"
	ErrCodePasswordMismatch  = "password_mismatch"
	ErrCodeUsernameRequired  = "username_required"
	ErrCodeRateLimited       = "rate_limited"
	ErrCodeUserNotFound      = "user_not_found"
	ErrCodeInvalidEmail      = "invalid_email"
	ErrCodeSamePassword      = "same_password"
	ErrCodeBusy              = "busy"
	ErrCodeUnknown           = "unknown"
)

// AuthError represents an authentication error with a stable code, a
// user-facing message and the form field it relates to (if any).
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func (e *AuthError) Error() string {
	return e.Message
}

// NewAuthError creates a new AuthError
func NewAuthError(code, message, field string) *AuthError {
	return &AuthError{Code: code, Message: message, Field: field}
}

// Op identifies which operation produced a raw provider error. The same
// provider message can normalize differently depending on the operation
// (e.g. "email not confirmed" is only meaningful during login).
type Op string

const (
	OpLogin        Op = "login"
	OpRegister     Op = "register"
	OpResetRequest Op = "reset_request"
	OpResetPerform Op = "reset_perform"
)

// normalizeRule maps a provider message substring to an error code within
// one operation context. Rules are checked in order; first match wins.
type normalizeRule struct {
	op      Op
	substr  string
	code    string
	message string
	field   string
}

var normalizeRules = []normalizeRule{
	{OpLogin, "email not confirmed", ErrCodeEmailNotConfirmed, "Confirm your email address before signing in", "email"},
	{OpLogin, "email confirmation", ErrCodeEmailNotConfirmed, "Confirm your email address before signing in", "email"},
	{OpLogin, "invalid login credentials", ErrCodeInvalidCreds, "Incorrect email or password", "password"},
	{OpLogin, "invalid credentials", ErrCodeInvalidCreds, "Incorrect email or password", "password"},
	{OpResetRequest, "security purposes", ErrCodeRateLimited, "For security reasons you can request this again in 60 seconds", "email"},
	{OpResetRequest, "only request this after", ErrCodeRateLimited, "For security reasons you can request this again in 60 seconds", "email"},
	{OpResetRequest, "seconds", ErrCodeRateLimited, "For security reasons you can request this again in 60 seconds", "email"},
	{OpResetRequest, "email rate limit", ErrCodeRateLimited, "Too many requests. Try again later", "email"},
	{OpResetRequest, "user not found", ErrCodeUserNotFound, "No account found for that email address", "email"},
	{OpResetRequest, "invalid email", ErrCodeInvalidEmail, "Invalid email format", "email"},
	{OpResetPerform, "same as the old password", ErrCodeSamePassword, "New password cannot be the same as the old one", "password"},
}

// Normalize maps a raw provider error message to an AuthError for the given
// operation. Matching is case-insensitive substring matching against a fixed
// ordered table; the first matching rule wins. Messages that match no rule
// come back as ErrCodeUnknown with the original text preserved for display.
func Normalize(op Op, rawMessage string) *AuthError {
	lower := strings.ToLower(rawMessage)
	for _, rule := range normalizeRules {
		if rule.op != op {
			continue
		}
		if strings.Contains(lower, rule.substr) {
			return NewAuthError(rule.code, rule.message, rule.field)
		}
	}
	return NewAuthError(ErrCodeUnknown, rawMessage, "")
}
