package authview_test

import (
	"testing"

	av "github.com/panyam/authview"
)

// TestGuardRejectsConcurrentSubmission verifies the single-flight behavior:
// while one submission is in flight a second one fails fast with Busy, and
// once the first completes the form accepts submissions again.
func TestGuardRejectsConcurrentSubmission(t *testing.T) {
	var guard av.SubmissionGuard

	started := make(chan struct{})
	release := make(chan struct{})
	firstDone := make(chan av.Result, 1)

	go func() {
		firstDone <- guard.Execute(func() av.Result {
			close(started)
			<-release
			return av.Result{Success: true}
		})
	}()

	<-started
	if !guard.Pending() {
		t.Error("expected Pending() while first submission in flight")
	}

	second := guard.Execute(func() av.Result {
		t.Error("second action must not run while first is pending")
		return av.Result{}
	})
	if second.Err == nil || second.Err.Code != av.ErrCodeBusy {
		t.Fatalf("expected busy error, got %+v", second.Err)
	}

	close(release)
	first := <-firstDone
	if !first.Success {
		t.Fatalf("first submission should have succeeded: %+v", first)
	}
	if guard.Pending() {
		t.Error("Pending() should be false after completion")
	}

	third := guard.Execute(func() av.Result { return av.Result{Success: true} })
	if third.Err != nil {
		t.Errorf("third submission should proceed after first cleared, got %+v", third.Err)
	}
}

// TestGuardClearsPendingOnFailure verifies an error result still releases
// the guard.
func TestGuardClearsPendingOnFailure(t *testing.T) {
	var guard av.SubmissionGuard

	res := guard.Execute(func() av.Result {
		return av.Result{Err: av.NewAuthError(av.ErrCodeUnknown, "boom", "")}
	})
	if res.Err == nil {
		t.Fatal("expected the action's error to surface")
	}
	if guard.Pending() {
		t.Error("guard must not stay pending after a failed submission")
	}
}
