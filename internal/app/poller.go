/**
 * @description
 * Command Poller: turns a request_id into a resolved payload by polling the
 * command status endpoint until it reaches a terminal state, with bounded
 * attempts and capped exponential backoff plus jitter. The backend performs
 * the actual gateway work asynchronously (webhook-driven), so the client
 * cannot know completion time in advance.
 *
 * Three distinct outcomes with different user messaging: the payload on
 * completion, an immediate CommandFailedError on a failed command, and
 * ErrPollTimeout when the attempt budget runs out.
 */
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/KIRUBAKARAN9840/fittbot-payflow/internal/domain"
)

// CommandGetter fetches command status; satisfied by fittbotclient.Client.
type CommandGetter interface {
	GetCommand(ctx context.Context, path string) (*domain.Command, error)
}

// Poller polls one command to a terminal state.
type Poller struct {
	client       CommandGetter
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
	factor       float64
	logger       *slog.Logger

	// jitter and sleep are swapped in tests.
	jitter func() time.Duration
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewPoller creates a command poller with the given schedule.
func NewPoller(client CommandGetter, maxAttempts int, initialDelay, maxDelay, jitterBound time.Duration, factor float64, logger *slog.Logger) *Poller {
	return &Poller{
		client:       client,
		maxAttempts:  maxAttempts,
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
		factor:       factor,
		logger:       logger,
		jitter: func() time.Duration {
			if jitterBound <= 0 {
				return 0
			}
			return time.Duration(rand.Int63n(int64(jitterBound)))
		},
		sleep: sleepCtx,
	}
}

// Await polls the command identified by requestID until it completes, fails,
// or the attempt budget is exhausted. pathTemplate is the flow's command
// status path with a %s placeholder for the request id; label is used only
// in error messages.
func (p *Poller) Await(ctx context.Context, pathTemplate, requestID, label string) (json.RawMessage, error) {
	if strings.TrimSpace(requestID) == "" {
		return nil, fmt.Errorf("%s: %w", label, domain.ErrNoRequestID)
	}

	path := fmt.Sprintf(pathTemplate, requestID)
	delay := p.initialDelay

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		cmd, err := p.client.GetCommand(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Transport hiccups are treated as "not yet ready"; the attempt
			// budget still bounds total time.
			p.logger.Warn("command status fetch failed",
				"label", label,
				"request_id", requestID,
				"attempt", attempt,
				"error", err,
			)
		} else {
			switch cmd.Status {
			case domain.CommandCompleted:
				if len(cmd.Data) == 0 {
					return json.RawMessage(`{}`), nil
				}
				return cmd.Data, nil
			case domain.CommandFailed:
				return nil, &domain.CommandFailedError{Label: label, Message: cmd.Error}
			}
		}

		if attempt == p.maxAttempts {
			break
		}

		wait := delay + p.jitter()
		if wait > p.maxDelay {
			wait = p.maxDelay
		}
		if err := p.sleep(ctx, wait); err != nil {
			return nil, err
		}

		delay = time.Duration(float64(delay) * p.factor)
		if delay > p.maxDelay {
			delay = p.maxDelay
		}
	}

	p.logger.Warn("command polling exhausted",
		"label", label,
		"request_id", requestID,
		"attempts", p.maxAttempts,
	)
	return nil, fmt.Errorf("%s: %w", label, domain.ErrPollTimeout)
}

// sleepCtx sleeps for d or returns early with the context error.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
