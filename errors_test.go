package authview_test

import (
	"testing"

	av "github.com/panyam/authview"
)

// TestNormalize checks the provider-message-to-code mapping, including the
// operation scoping: the same raw message can map to different codes (or to
// no code at all) depending on which call produced it.
func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		op       av.Op
		raw      string
		wantCode string
	}{
		{
			name:     "unconfirmed email during login",
			op:       av.OpLogin,
			raw:      "Email not confirmed",
			wantCode: av.ErrCodeEmailNotConfirmed,
		},
		{
			name:     "email confirmation wording variant",
			op:       av.OpLogin,
			raw:      "please complete email confirmation first",
			wantCode: av.ErrCodeEmailNotConfirmed,
		},
		{
			name:     "bad credentials",
			op:       av.OpLogin,
			raw:      "Invalid login credentials",
			wantCode: av.ErrCodeInvalidCreds,
		},
		{
			name:     "bad credentials short wording",
			op:       av.OpLogin,
			raw:      "invalid credentials",
			wantCode: av.ErrCodeInvalidCreds,
		},
		{
			name:     "unconfirmed wording outside login is not special",
			op:       av.OpRegister,
			raw:      "Email not confirmed",
			wantCode: av.ErrCodeUnknown,
		},
		{
			name:     "reset request throttled",
			op:       av.OpResetRequest,
			raw:      "For security purposes, you can only request this after 53 seconds.",
			wantCode: av.ErrCodeRateLimited,
		},
		{
			name:     "reset request throttled bare seconds wording",
			op:       av.OpResetRequest,
			raw:      "try again in 30 seconds",
			wantCode: av.ErrCodeRateLimited,
		},
		{
			name:     "reset request rate limit",
			op:       av.OpResetRequest,
			raw:      "email rate limit exceeded",
			wantCode: av.ErrCodeRateLimited,
		},
		{
			name:     "reset request unknown user",
			op:       av.OpResetRequest,
			raw:      "User not found",
			wantCode: av.ErrCodeUserNotFound,
		},
		{
			name:     "reset request bad email",
			op:       av.OpResetRequest,
			raw:      "invalid email address",
			wantCode: av.ErrCodeInvalidEmail,
		},
		{
			name:     "reuse of old password",
			op:       av.OpResetPerform,
			raw:      "New password should be different from the old password. It cannot be the same as the old password.",
			wantCode: av.ErrCodeSamePassword,
		},
		{
			name:     "unmatched message",
			op:       av.OpLogin,
			raw:      "upstream exploded",
			wantCode: av.ErrCodeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := av.Normalize(tt.op, tt.raw)
			if got == nil {
				t.Fatal("Normalize returned nil")
			}
			if got.Code != tt.wantCode {
				t.Errorf("Normalize(%s, %q) code = %q, want %q", tt.op, tt.raw, got.Code, tt.wantCode)
			}
			if got.Message == "" {
				t.Errorf("Normalize(%s, %q) produced an empty message", tt.op, tt.raw)
			}
		})
	}
}

// TestNormalizeUnknownPreservesRawMessage verifies the fallback keeps the
// provider's text so it can still be shown to the user.
func TestNormalizeUnknownPreservesRawMessage(t *testing.T) {
	raw := "something deeply unexpected happened"
	got := av.Normalize(av.OpResetRequest, raw)
	if got.Code != av.ErrCodeUnknown {
		t.Fatalf("expected unknown code, got %q", got.Code)
	}
	if got.Message != raw {
		t.Errorf("expected raw message %q to be preserved, got %q", raw, got.Message)
	}
}

// TestNormalizeFirstMatchWins pins the ordering guarantee: a message
// matching several rules gets the earliest one.
func TestNormalizeFirstMatchWins(t *testing.T) {
	// Matches both "security purposes" and "seconds"; both map to
	// rate_limited but the earlier rule's message must win.
	got := av.Normalize(av.OpResetRequest, "for security purposes, wait 60 seconds")
	if got.Code != av.ErrCodeRateLimited {
		t.Fatalf("expected rate_limited, got %q", got.Code)
	}

	// "email not confirmed" appears before the credentials rules
	got = av.Normalize(av.OpLogin, "email not confirmed: invalid login credentials")
	if got.Code != av.ErrCodeEmailNotConfirmed {
		t.Errorf("expected email_not_confirmed to win over invalid_credentials, got %q", got.Code)
	}
}
