package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestReconciler_TimedOutAfterMaxAttempts(t *testing.T) {
	r := NewReconciler(2*time.Millisecond, 10, testLogger())

	var checks atomic.Int32
	ch := r.Start(context.Background(), func(context.Context) (bool, error) {
		checks.Add(1)
		return false, nil
	})

	state, ok := <-ch
	if !ok {
		t.Fatal("expected a terminal state")
	}
	if state != ReconcileTimedOut {
		t.Fatalf("expected TimedOut, got %s", state)
	}
	if got := checks.Load(); got != 10 {
		t.Errorf("expected exactly 10 checks, got %d", got)
	}
	if r.State() != ReconcileTimedOut {
		t.Errorf("expected stored state TimedOut, got %s", r.State())
	}
}

func TestReconciler_ConfirmedStopsEarly(t *testing.T) {
	r := NewReconciler(2*time.Millisecond, 10, testLogger())

	var checks atomic.Int32
	ch := r.Start(context.Background(), func(context.Context) (bool, error) {
		return checks.Add(1) >= 3, nil
	})

	state, ok := <-ch
	if !ok || state != ReconcileConfirmed {
		t.Fatalf("expected Confirmed, got %s (ok=%t)", state, ok)
	}
	if got := checks.Load(); got != 3 {
		t.Errorf("expected 3 checks, got %d", got)
	}
}

func TestReconciler_CheckErrorsCountTowardBound(t *testing.T) {
	r := NewReconciler(2*time.Millisecond, 4, testLogger())

	var checks atomic.Int32
	ch := r.Start(context.Background(), func(context.Context) (bool, error) {
		checks.Add(1)
		return false, errors.New("premium status unavailable")
	})

	state, ok := <-ch
	if !ok || state != ReconcileTimedOut {
		t.Fatalf("expected TimedOut, got %s (ok=%t)", state, ok)
	}
	if got := checks.Load(); got != 4 {
		t.Errorf("expected 4 checks, got %d", got)
	}
}

func TestReconciler_RestartStopsPreviousLoop(t *testing.T) {
	r := NewReconciler(2*time.Millisecond, 1000, testLogger())

	var firstChecks, secondChecks atomic.Int32
	first := r.Start(context.Background(), func(context.Context) (bool, error) {
		firstChecks.Add(1)
		return false, nil
	})

	// Let the first loop tick at least once, then re-enter.
	for firstChecks.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	second := r.Start(context.Background(), func(context.Context) (bool, error) {
		return secondChecks.Add(1) >= 3, nil
	})

	// The superseded loop's channel closes without delivering a state.
	if state, ok := <-first; ok {
		t.Fatalf("expected superseded loop to close silently, got %s", state)
	}
	settled := firstChecks.Load()

	state, ok := <-second
	if !ok || state != ReconcileConfirmed {
		t.Fatalf("expected Confirmed from second loop, got %s (ok=%t)", state, ok)
	}
	if firstChecks.Load() != settled {
		t.Error("first loop kept ticking after restart")
	}
}

func TestReconciler_StopIsIdempotent(t *testing.T) {
	r := NewReconciler(2*time.Millisecond, 1000, testLogger())

	// Stopping when idle is a no-op.
	r.Stop()
	if r.State() != ReconcileIdle {
		t.Fatalf("expected Idle, got %s", r.State())
	}

	ch := r.Start(context.Background(), func(context.Context) (bool, error) {
		return false, nil
	})
	r.Stop()
	r.Stop()

	if _, ok := <-ch; ok {
		t.Fatal("expected stopped loop to close without a state")
	}
	if r.State() != ReconcileIdle {
		t.Errorf("expected Idle after stop, got %s", r.State())
	}
}

func TestReconciler_ParentContextCancellation(t *testing.T) {
	r := NewReconciler(2*time.Millisecond, 1000, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	ch := r.Start(ctx, func(context.Context) (bool, error) {
		return false, nil
	})
	cancel()

	if _, ok := <-ch; ok {
		t.Fatal("expected cancelled loop to close without a state")
	}
}
