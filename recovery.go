package authview

import (
	"strings"
	"sync"
)

// Locator exposes the host environment's navigation locator so the recovery
// deep link can be recognized and its marker cleared without a full reload.
type Locator interface {
	// Fragment returns the current URL fragment, with or without the
	// leading "#"
	Fragment() string

	// ClearRecoveryMarker removes any recovery marker from the locator so a
	// reload does not re-trigger the recovery flow
	ClearRecoveryMarker()
}

// HasRecoveryMarker reports whether a URL fragment indicates arrival via a
// password-reset link. Both the app's own "#reset-password" marker and the
// provider-appended "type=recovery" indicator count.
func HasRecoveryMarker(fragment string) bool {
	fragment = strings.TrimPrefix(fragment, "#")
	return fragment == "reset-password" || strings.Contains(fragment, "type=recovery")
}

// MemoryLocator is a simple in-memory Locator for hosts that track
// navigation state themselves (and for tests).
type MemoryLocator struct {
	mu       sync.Mutex
	fragment string
}

func NewMemoryLocator(fragment string) *MemoryLocator {
	return &MemoryLocator{fragment: fragment}
}

func (l *MemoryLocator) Fragment() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fragment
}

// SetFragment replaces the tracked fragment (e.g. when the host navigates)
func (l *MemoryLocator) SetFragment(fragment string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fragment = fragment
}

func (l *MemoryLocator) ClearRecoveryMarker() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if HasRecoveryMarker(l.fragment) {
		l.fragment = ""
	}
}
