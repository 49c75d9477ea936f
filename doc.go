// Package authview provides the view and session layer for a four-surface
// authentication flow (login, registration, forgot password, reset password)
// backed by a remote identity provider.
//
// AuthView separates the flow into four layers: providers, operations,
// sessions, and the view controller. This keeps provider quirks out of the
// presentation layer while the controller stays a plain state machine.
//
// # Architecture
//
// IdentityProvider: the remote service holding accounts and credentials.
// Providers push session events (signed in, signed out, password recovery)
// to subscribers. The provider/local package implements one fully in
// process; provider/httpapi talks to a GoTrue-style HTTP API.
//
// Operations: wraps the provider's calls behind a uniform Result. Raw
// provider errors never escape; each failure is normalized to a stable
// error code with a user-presentable message.
//
// SessionStore: the subscribable holder of the current identity and its
// profile record. Concurrent updates resolve by arrival order, so a stale
// slow response can never overwrite a newer state.
//
// ViewController: the state machine over the four views. It arbitrates
// between user navigation and recovery-mode preemption, and guards each
// form against double submission.
//
// # Basic Usage
//
// Wire a provider, a profile store and the view layers together:
//
//	import (
//	    "github.com/panyam/authview"
//	    "github.com/panyam/authview/provider/local"
//	    "github.com/panyam/authview/stores"
//	)
//
//	provider := local.New()
//	profiles := stores.NewFSProfileStore("/path/to/storage")
//
//	ops := &authview.Operations{
//	    Provider:      provider,
//	    Profiles:      profiles,
//	    ResetRedirect: "https://yourapp.com/#reset-password",
//	}
//	store := authview.NewSessionStore(provider, profiles)
//	defer store.Close()
//
//	locator := authview.NewMemoryLocator(currentURLFragment)
//	ctrl := authview.NewViewController(ops, store, locator)
//	defer ctrl.Close()
//
// Drive it from your UI:
//
//	ctrl.SetLoginDraft(authview.LoginDraft{Email: "user@example.com", Password: "hunter22"})
//	result := ctrl.SubmitLogin(ctx)
//	if result.Err != nil {
//	    show(result.Err.Message)
//	}
//
// # Store Implementations
//
// AuthView provides a file-based profile store in the stores package,
// suitable for development and small applications. The stores/gorm and
// stores/gae packages back profiles with a relational database and Google
// Cloud Datastore respectively.
//
// # Error Normalization
//
// Provider error messages are matched against an ordered substring table
// scoped to the operation that produced them. The first match wins; an
// unmatched message maps to an unknown-error code that still carries the
// provider's text. The same raw message can normalize differently in
// different operations, which is deliberate.
//
// # Testing
//
// The controller and session store can be tested without any network by
// substituting an in-memory IdentityProvider and ProfileStore. The
// provider/local package is complete enough to drive full journeys
// (register, confirm, login, recover, reset) in tests.
package authview
