/**
 * @description
 * Status Reconciliation Poller: the slow fallback path taken when supervised
 * verification cannot confirm success within its retry budget. Polls the
 * user's premium entitlement on a fixed interval for a bounded number of
 * attempts, because backend webhook processing is decoupled from the verify
 * endpoint and may simply need more time.
 *
 * The interval loop is an explicitly owned resource: Start always tears down
 * any previous loop first, and Stop is idempotent, so at most one loop is
 * ever alive regardless of re-entry.
 */
package app

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ReconcileState is the reconciliation poller's lifecycle state.
type ReconcileState string

const (
	ReconcileIdle      ReconcileState = "idle"
	ReconcilePolling   ReconcileState = "polling"
	ReconcileConfirmed ReconcileState = "confirmed"
	// ReconcileTimedOut is not a failure: the payment may still be
	// completing server-side. The caller shows a pending state with the
	// order id and support instructions.
	ReconcileTimedOut ReconcileState = "timed_out"
)

// EntitlementFunc reports whether the premium entitlement is active.
type EntitlementFunc func(ctx context.Context) (bool, error)

// Reconciler owns the fallback polling loop.
type Reconciler struct {
	interval    time.Duration
	maxAttempts int
	logger      *slog.Logger

	mu     sync.Mutex
	state  ReconcileState
	cancel context.CancelFunc
	gen    uint64
}

// NewReconciler creates an idle reconciliation poller.
func NewReconciler(interval time.Duration, maxAttempts int, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		interval:    interval,
		maxAttempts: maxAttempts,
		logger:      logger,
		state:       ReconcileIdle,
	}
}

// Start begins polling and returns a channel that delivers the terminal
// state (Confirmed or TimedOut) and is then closed. If a loop is already
// running it is stopped first; its channel closes without a value. A channel
// that closes without a value means the loop was stopped or cancelled.
func (r *Reconciler) Start(ctx context.Context, check EntitlementFunc) <-chan ReconcileState {
	r.mu.Lock()
	r.stopLocked()
	loopCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.state = ReconcilePolling
	r.gen++
	gen := r.gen
	r.mu.Unlock()

	result := make(chan ReconcileState, 1)
	go r.loop(loopCtx, gen, check, result)
	return result
}

// Stop tears down any running loop. Stopping twice, or when idle, is a no-op.
func (r *Reconciler) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *Reconciler) stopLocked() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	if r.state == ReconcilePolling {
		r.state = ReconcileIdle
	}
}

// State returns the current lifecycle state.
func (r *Reconciler) State() ReconcileState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Reconciler) loop(ctx context.Context, gen uint64, check EntitlementFunc, result chan<- ReconcileState) {
	defer close(result)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	attempts := 0
	for {
		select {
		case <-ctx.Done():
			r.abandon(gen)
			return
		case <-ticker.C:
			attempts++
			active, err := check(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				r.logger.Warn("premium status check failed", "attempt", attempts, "error", err)
			} else if active {
				if err := ctx.Err(); err != nil {
					r.abandon(gen)
					return
				}
				r.finish(gen, ReconcileConfirmed)
				result <- ReconcileConfirmed
				return
			}
			if attempts >= r.maxAttempts {
				r.finish(gen, ReconcileTimedOut)
				result <- ReconcileTimedOut
				return
			}
		}
	}
}

// abandon returns the poller to Idle when a loop exits without a verdict
// (stopped or cancelled), unless a newer loop has taken over.
func (r *Reconciler) abandon(gen uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		return
	}
	if r.state == ReconcilePolling {
		r.state = ReconcileIdle
	}
	r.cancel = nil
}

// finish records the terminal state unless a newer loop has taken over.
func (r *Reconciler) finish(gen uint64, state ReconcileState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		return
	}
	r.state = state
	r.cancel = nil
	r.logger.Info("reconciliation finished", "state", string(state))
}
