// Command demo-webapp runs a minimal server-rendered host app for the
// authview flow. Each browser session gets its own view controller; the
// in-process provider logs confirmation and reset emails to the console so
// the whole journey (register, confirm, login, forgot, reset) can be
// exercised locally with no external services.
package main

import (
	"fmt"
	"html"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"

	"github.com/panyam/authview"
	"github.com/panyam/authview/provider/local"
	"github.com/panyam/authview/stores"
)

type app struct {
	provider *local.Provider
	profiles *stores.FSProfileStore
	ops      *authview.Operations
	session  *scs.SessionManager

	mu    sync.Mutex
	ctrls map[string]*sessionState
}

type sessionState struct {
	store *authview.SessionStore
	ctrl  *authview.ViewController
}

func main() {
	addr := os.Getenv("DEMO_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	storagePath := os.Getenv("DEMO_STORAGE")
	if storagePath == "" {
		storagePath = "./demo-storage"
	}

	provider := local.New()
	provider.BaseURL = "http://localhost" + addr
	profiles := stores.NewFSProfileStore(storagePath)

	a := &app{
		provider: provider,
		profiles: profiles,
		ops: &authview.Operations{
			Provider:      provider,
			Profiles:      profiles,
			ResetRedirect: "http://localhost" + addr + "/#reset-password",
		},
		session: scs.New(),
		ctrls:   make(map[string]*sessionState),
	}
	a.session.Lifetime = 24 * time.Hour

	r := mux.NewRouter()
	r.HandleFunc("/", a.handleIndex).Methods("GET")
	r.HandleFunc("/submit/{form}", a.handleSubmit).Methods("POST")
	r.HandleFunc("/nav/{target}", a.handleNav).Methods("POST")
	r.HandleFunc("/auth/confirm", a.handleConfirm).Methods("GET")
	r.HandleFunc("/auth/recover", a.handleRecover).Methods("GET")

	log.Printf("demo-webapp listening on %s (storage: %s)", addr, storagePath)
	if err := http.ListenAndServe(addr, a.session.LoadAndSave(r)); err != nil {
		log.Fatal(err)
	}
}

// controller returns the view controller for this browser session,
// creating it on first use
func (a *app) controller(r *http.Request) *sessionState {
	sid := a.session.GetString(r.Context(), "sid")
	if sid == "" {
		sid = fmt.Sprintf("%d", time.Now().UnixNano())
		a.session.Put(r.Context(), "sid", sid)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if st, ok := a.ctrls[sid]; ok {
		return st
	}
	store := authview.NewSessionStore(a.provider, a.profiles)
	st := &sessionState{
		store: store,
		ctrl:  authview.NewViewController(a.ops, store, authview.NewMemoryLocator("")),
	}
	a.ctrls[sid] = st
	return st
}

func (a *app) handleIndex(w http.ResponseWriter, r *http.Request) {
	st := a.controller(r)
	ctrl := st.ctrl

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<h1>%s</h1>", ctrl.CurrentView())
	if banner := ctrl.Banner(); banner != "" {
		fmt.Fprintf(w, "<p style=%q>%s</p>", "color:green", html.EscapeString(banner))
	}
	if err := ctrl.FormError(ctrl.CurrentView()); err != nil {
		fmt.Fprintf(w, "<p style=%q>%s</p>", "color:red", html.EscapeString(err.Message))
	}

	switch ctrl.CurrentView() {
	case authview.ViewLogin:
		fmt.Fprintf(w, loginForm, html.EscapeString(ctrl.LoginDraft().Email))
	case authview.ViewRegister:
		fmt.Fprint(w, registerForm)
	case authview.ViewForgotPassword:
		fmt.Fprint(w, forgotForm)
	case authview.ViewResetPassword:
		fmt.Fprint(w, resetForm)
	}

	if identity, _ := st.store.Current(); identity != nil {
		fmt.Fprintf(w, "<hr><p>Signed in as %s</p>", html.EscapeString(identity.Email))
	}
}

func (a *app) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctrl := a.controller(r).ctrl
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch mux.Vars(r)["form"] {
	case "login":
		ctrl.SetLoginDraft(authview.LoginDraft{
			Email:    r.FormValue("email"),
			Password: r.FormValue("password"),
		})
		ctrl.SubmitLogin(r.Context())
	case "register":
		ctrl.SetRegisterDraft(authview.RegisterDraft{
			Email:    r.FormValue("email"),
			Username: r.FormValue("username"),
			Password: r.FormValue("password"),
		})
		ctrl.SubmitRegister(r.Context())
	case "forgot":
		ctrl.SetForgotDraft(authview.ForgotDraft{Email: r.FormValue("email")})
		ctrl.SubmitResetRequest(r.Context())
	case "reset":
		ctrl.SetResetDraft(authview.ResetDraft{
			NewPassword:     r.FormValue("password"),
			ConfirmPassword: r.FormValue("confirm"),
		})
		ctrl.SubmitPasswordReset(r.Context())
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *app) handleNav(w http.ResponseWriter, r *http.Request) {
	ctrl := a.controller(r).ctrl
	switch mux.Vars(r)["target"] {
	case "register":
		ctrl.ShowRegister()
	case "forgot":
		ctrl.ShowForgotPassword()
	case "login":
		ctrl.BackToLogin()
	case "cancel-reset":
		ctrl.CancelReset()
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleConfirm consumes the emailed confirmation token
func (a *app) handleConfirm(w http.ResponseWriter, r *http.Request) {
	if err := a.provider.ConfirmEmail(r.URL.Query().Get("token")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fmt.Fprint(w, "Email confirmed. <a href=\"/\">Sign in</a>")
}

// handleRecover consumes the emailed recovery token; the resulting
// PASSWORD_RECOVERY event switches this session's controller to the reset
// view
func (a *app) handleRecover(w http.ResponseWriter, r *http.Request) {
	// Touch the controller first so it is subscribed before the event fires
	a.controller(r)
	if err := a.provider.ConsumeRecoveryToken(r.URL.Query().Get("token")); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

const loginForm = `<form method="POST" action="/submit/login">
  <input name="email" placeholder="Email" value="%s">
  <input name="password" type="password" placeholder="Password">
  <button>Sign In</button>
</form>
<form method="POST" action="/nav/register"><button>Create account</button></form>
<form method="POST" action="/nav/forgot"><button>Forgot password?</button></form>`

const registerForm = `<form method="POST" action="/submit/register">
  <input name="email" placeholder="Email">
  <input name="username" placeholder="Username">
  <input name="password" type="password" placeholder="Password">
  <button>Register</button>
</form>
<form method="POST" action="/nav/login"><button>Back to sign in</button></form>`

const forgotForm = `<form method="POST" action="/submit/forgot">
  <input name="email" placeholder="Email">
  <button>Send reset email</button>
</form>
<form method="POST" action="/nav/login"><button>Back to sign in</button></form>`

const resetForm = `<form method="POST" action="/submit/reset">
  <input name="password" type="password" placeholder="New password">
  <input name="confirm" type="password" placeholder="Confirm password">
  <button>Change password</button>
</form>
<form method="POST" action="/nav/cancel-reset"><button>Cancel</button></form>`
