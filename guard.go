package authview

import "sync"

// SubmissionGuard serializes submissions for a single form: at most one
// operation may be in flight at a time. A second call while one is pending
// fails fast with ErrCodeBusy instead of queueing.
type SubmissionGuard struct {
	mu      sync.Mutex
	pending bool
}

// Pending reports whether an operation is currently in flight. Views use
// this to render the form's action control as inert.
func (g *SubmissionGuard) Pending() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending
}

// Execute runs action under the single-flight lock. The pending flag is
// cleared before the result is returned, so by the time a caller observes
// the outcome the form is ready for the next submission.
func (g *SubmissionGuard) Execute(action func() Result) Result {
	g.mu.Lock()
	if g.pending {
		g.mu.Unlock()
		return Result{Err: NewAuthError(ErrCodeBusy, "Another request is already in progress", "")}
	}
	g.pending = true
	g.mu.Unlock()

	res := action()

	g.mu.Lock()
	g.pending = false
	g.mu.Unlock()
	return res
}
