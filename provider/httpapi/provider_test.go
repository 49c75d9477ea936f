package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	av "github.com/panyam/authview"
	"github.com/panyam/authview/provider/httpapi"
)

func signTestToken(t *testing.T, sub, email string, confirmed bool) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":             sub,
		"email":           email,
		"email_confirmed": confirmed,
		"exp":             time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

// fakeAPI is a minimal GoTrue-style identity API for the client to talk to
type fakeAPI struct {
	t *testing.T

	mu          sync.Mutex
	accessToken string
	badLogin    bool
	recoverReqs []string // redirect_to values seen by /recover
	lastUpdate  map[string]any
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		bad := f.badLogin
		token := f.accessToken
		f.mu.Unlock()
		if bad {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{
				"error":             "invalid_grant",
				"error_description": "Invalid login credentials",
			})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  token,
			"token_type":    "bearer",
			"refresh_token": "refresh-1",
			"expires_in":    3600,
		})
	})
	mux.HandleFunc("/signup", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":    "u-new",
			"email": body["email"],
		})
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"msg": "missing authorization"})
			return
		}
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"id":                 "u1",
				"email":              "a@x.com",
				"email_confirmed_at": "2026-01-01T00:00:00Z",
			})
		case http.MethodPut:
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			f.mu.Lock()
			f.lastUpdate = body
			f.mu.Unlock()
			json.NewEncoder(w).Encode(map[string]any{"id": "u1"})
		}
	})
	mux.HandleFunc("/recover", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.recoverReqs = append(f.recoverReqs, r.URL.Query().Get("redirect_to"))
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{})
	})
	mux.HandleFunc("/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return mux
}

func newTestProvider(t *testing.T) (*httpapi.Provider, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{t: t}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	api.accessToken = signTestToken(t, "u1", "a@x.com", true)
	return httpapi.New(httpapi.Config{BaseURL: srv.URL, APIKey: "test-key"}), api
}

func TestSignInDecodesIdentityFromToken(t *testing.T) {
	p, _ := newTestProvider(t)

	var events []av.SessionEventKind
	var mu sync.Mutex
	unsub := p.OnSessionChange(func(ev av.SessionEvent) {
		mu.Lock()
		events = append(events, ev.Kind)
		mu.Unlock()
	})
	defer unsub()

	sess, err := p.SignInWithPassword(context.Background(), "a@x.com", "hunter22")
	if err != nil {
		t.Fatalf("sign in failed: %v", err)
	}
	if sess.Identity == nil || sess.Identity.ID != "u1" || sess.Identity.Email != "a@x.com" {
		t.Errorf("identity = %+v", sess.Identity)
	}
	if !sess.Identity.EmailConfirmed {
		t.Error("email_confirmed claim should be decoded")
	}
	if sess.RefreshToken != "refresh-1" {
		t.Errorf("refresh token = %q", sess.RefreshToken)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 || events[0] != av.SessionSignedIn {
		t.Errorf("events = %v", events)
	}
}

// TestSignInSurfacesProviderErrorText verifies the error envelope's message
// comes back verbatim so the normalizer can match on it.
func TestSignInSurfacesProviderErrorText(t *testing.T) {
	p, api := newTestProvider(t)
	api.badLogin = true

	_, err := p.SignInWithPassword(context.Background(), "a@x.com", "wrong")
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Error() != "Invalid login credentials" {
		t.Errorf("error text = %q", err.Error())
	}
	if got := av.Normalize(av.OpLogin, err.Error()); got.Code != av.ErrCodeInvalidCreds {
		t.Errorf("normalized code = %q", got.Code)
	}
}

func TestSignUpReturnsUnconfirmedIdentity(t *testing.T) {
	p, _ := newTestProvider(t)

	sess, err := p.SignUp(context.Background(), "new@x.com", "hunter22", map[string]any{"username": "newbie"})
	if err != nil {
		t.Fatalf("signup failed: %v", err)
	}
	if sess.Identity == nil || sess.Identity.ID != "u-new" || sess.Identity.Email != "new@x.com" {
		t.Errorf("identity = %+v", sess.Identity)
	}
	if sess.Identity.EmailConfirmed {
		t.Error("a fresh signup must not be confirmed")
	}
	if sess.AccessToken != "" {
		t.Error("signup must not return usable tokens")
	}
}

func TestRequestPasswordResetCarriesRedirect(t *testing.T) {
	p, api := newTestProvider(t)

	err := p.RequestPasswordReset(context.Background(), "a@x.com", "https://app.test/#reset-password")
	if err != nil {
		t.Fatalf("recover failed: %v", err)
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	if len(api.recoverReqs) != 1 || api.recoverReqs[0] != "https://app.test/#reset-password" {
		t.Errorf("redirect_to = %v", api.recoverReqs)
	}
}

func TestUpdatePasswordRequiresSession(t *testing.T) {
	p, api := newTestProvider(t)
	ctx := context.Background()

	if err := p.UpdatePassword(ctx, "newpass1"); err == nil {
		t.Error("update without a session should fail")
	}

	if _, err := p.SignInWithPassword(ctx, "a@x.com", "hunter22"); err != nil {
		t.Fatalf("sign in failed: %v", err)
	}
	if err := p.UpdatePassword(ctx, "newpass1"); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	api.mu.Lock()
	defer api.mu.Unlock()
	if api.lastUpdate["password"] != "newpass1" {
		t.Errorf("server saw update %v", api.lastUpdate)
	}
}

func TestSignOutClearsSession(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	if _, err := p.SignInWithPassword(ctx, "a@x.com", "hunter22"); err != nil {
		t.Fatalf("sign in failed: %v", err)
	}
	if err := p.SignOut(ctx); err != nil {
		t.Fatalf("sign out failed: %v", err)
	}
	identity, err := p.CurrentIdentity(ctx)
	if err != nil {
		t.Fatalf("current identity: %v", err)
	}
	if identity != nil {
		t.Errorf("identity = %+v after sign-out", identity)
	}
}

func TestResumeSessionPushesRecoveryEvent(t *testing.T) {
	p, _ := newTestProvider(t)

	events := make(chan av.SessionEvent, 1)
	unsub := p.OnSessionChange(func(ev av.SessionEvent) { events <- ev })
	defer unsub()

	token := signTestToken(t, "u7", "r@x.com", true)
	if err := p.ResumeSession(token, "refresh-7", av.SessionPasswordRecovery); err != nil {
		t.Fatalf("resume failed: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Kind != av.SessionPasswordRecovery {
			t.Errorf("kind = %v", ev.Kind)
		}
		if ev.Session == nil || ev.Session.Identity.ID != "u7" {
			t.Errorf("session = %+v", ev.Session)
		}
	default:
		t.Fatal("no event delivered")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("AUTHVIEW_API_URL", "https://id.example.com/auth/v1")
	t.Setenv("AUTHVIEW_API_TIMEOUT", "5s")

	cfg, err := httpapi.LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.BaseURL != "https://id.example.com/auth/v1" {
		t.Errorf("base url = %q", cfg.BaseURL)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("timeout = %v", cfg.Timeout)
	}
}
