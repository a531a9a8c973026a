/**
 * @description
 * Verification Retry Supervisor: wraps one full verification round trip
 * (submit + poll) in a bounded retry loop with a fixed, enumerated delay
 * schedule. Each attempt is already bounded by the poller's own budget, so
 * the supervisor's delays model expected webhook propagation latency rather
 * than needing jitter.
 *
 * Exhaustion is not an error: the caller switches to premium-status
 * reconciliation instead of surfacing a failure, because the payment may
 * still complete server-side. Only an explicit decline is terminal.
 */
package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/KIRUBAKARAN9840/fittbot-payflow/internal/domain"
)

// VerifyFunc performs one verification round trip (submit + poll) and
// classifies the resolved payload. A transport or backend error means the
// attempt is retried the same as a Pending outcome.
type VerifyFunc func(ctx context.Context) (domain.VerificationOutcome, json.RawMessage, error)

// VerifyResult is the supervisor's terminal verdict. Neither Confirmed nor
// Declined set means the retry budget ran out without a definitive answer.
type VerifyResult struct {
	Confirmed bool
	Declined  bool
	Data      json.RawMessage
}

// Supervisor retries verification on a fixed schedule.
type Supervisor struct {
	maxAttempts int
	delays      []time.Duration
	logger      *slog.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

// NewSupervisor creates a verification retry supervisor. delays is the fixed
// schedule indexed by completed attempt; when attempts outnumber delays the
// last delay repeats.
func NewSupervisor(maxAttempts int, delays []time.Duration, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		maxAttempts: maxAttempts,
		delays:      delays,
		logger:      logger,
		sleep:       sleepCtx,
	}
}

// Run executes verify up to maxAttempts times. It returns immediately on a
// Confirmed or Declined outcome; only context cancellation is returned as an
// error.
func (s *Supervisor) Run(ctx context.Context, label string, verify VerifyFunc) (VerifyResult, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		outcome, data, err := verify(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return VerifyResult{}, ctx.Err()
			}
			s.logger.Warn("verification attempt failed",
				"label", label,
				"attempt", attempt,
				"error", err,
			)
		} else {
			switch outcome {
			case domain.OutcomeConfirmed:
				return VerifyResult{Confirmed: true, Data: data}, nil
			case domain.OutcomeDeclined:
				// The gateway actively rejected the payment; waiting longer
				// will not change the answer.
				return VerifyResult{Declined: true, Data: data}, nil
			}
			s.logger.Info("verification not yet confirmed",
				"label", label,
				"attempt", attempt,
			)
		}

		if attempt == s.maxAttempts {
			break
		}
		if err := s.sleep(ctx, s.delayFor(attempt)); err != nil {
			return VerifyResult{}, err
		}
	}

	s.logger.Warn("verification retries exhausted", "label", label, "attempts", s.maxAttempts)
	return VerifyResult{}, nil
}

func (s *Supervisor) delayFor(attempt int) time.Duration {
	if len(s.delays) == 0 {
		return 0
	}
	idx := attempt - 1
	if idx >= len(s.delays) {
		idx = len(s.delays) - 1
	}
	return s.delays[idx]
}
