package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRequestID means a caller tried to poll without a request id; a
	// programming/integration error, never retried.
	ErrNoRequestID = errors.New("unable to resolve status URL: missing request id")

	// ErrPollTimeout means the command never reached a terminal state within
	// the polling budget. The operation may still complete server-side.
	ErrPollTimeout = errors.New("this is taking longer than expected, retry in a moment")

	// ErrGatewayCancelled means the user dismissed the payment sheet.
	// Suppressed from error surfaces; the flow just stops.
	ErrGatewayCancelled = errors.New("payment cancelled by user")

	// ErrCheckoutInFlight means a checkout is already running on this
	// service; duplicate taps are debounced, not queued.
	ErrCheckoutInFlight = errors.New("a checkout is already in progress")
)

// CommandFailedError is a command that reached the failed terminal state.
// During verification this is still retryable by the supervisor: "failed" at
// the command layer can mean "not yet confirmed", and only the payload's
// explicit verdict distinguishes a real decline.
type CommandFailedError struct {
	Label   string
	Message string
}

func (e *CommandFailedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s failed. Please try again.", e.Label)
}

// PaymentDeclinedError is a definitive gateway rejection. Not retried, no
// reconciliation fallback.
type PaymentDeclinedError struct {
	OrderID string
}

func (e *PaymentDeclinedError) Error() string {
	if e.OrderID != "" {
		return fmt.Sprintf("payment was declined (order %s)", e.OrderID)
	}
	return "payment was declined"
}
