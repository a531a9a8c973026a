package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/KIRUBAKARAN9840/fittbot-payflow/internal/domain"
)

func verifySchedule() []time.Duration {
	return []time.Duration{
		3000 * time.Millisecond,
		5000 * time.Millisecond,
		7000 * time.Millisecond,
		9000 * time.Millisecond,
		10000 * time.Millisecond,
	}
}

func newTestSupervisor(maxAttempts int) (*Supervisor, *[]time.Duration) {
	s := NewSupervisor(maxAttempts, verifySchedule(), testLogger())
	var slept []time.Duration
	s.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return s, &slept
}

func TestSupervisor_ExhaustionReturnsEmptyResult(t *testing.T) {
	s, slept := newTestSupervisor(5)

	attempts := 0
	result, err := s.Run(context.Background(), "Day pass", func(context.Context) (domain.VerificationOutcome, json.RawMessage, error) {
		attempts++
		// The gateway never confirms: captured stays false, no verdict.
		return domain.OutcomePending, json.RawMessage(`{"captured": false}`), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Confirmed || result.Declined || result.Data != nil {
		t.Errorf("expected empty result on exhaustion, got %+v", result)
	}
	if attempts != 5 {
		t.Errorf("expected 5 attempts, got %d", attempts)
	}
	// Waits between attempts 1-5; no wait after the final attempt.
	want := []time.Duration{3 * time.Second, 5 * time.Second, 7 * time.Second, 9 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("expected %d sleeps, got %d (%v)", len(want), len(*slept), *slept)
	}
	for i, d := range want {
		if (*slept)[i] != d {
			t.Errorf("sleep %d: expected %v, got %v", i, d, (*slept)[i])
		}
	}
}

func TestSupervisor_ConfirmedStopsRetrying(t *testing.T) {
	s, slept := newTestSupervisor(5)

	attempts := 0
	result, err := s.Run(context.Background(), "Day pass", func(context.Context) (domain.VerificationOutcome, json.RawMessage, error) {
		attempts++
		if attempts < 2 {
			return domain.OutcomePending, nil, nil
		}
		return domain.OutcomeConfirmed, json.RawMessage(`{"captured": true}`), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Confirmed {
		t.Fatal("expected confirmed result")
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
	if len(*slept) != 1 || (*slept)[0] != 3*time.Second {
		t.Errorf("expected one 3s wait, got %v", *slept)
	}
}

func TestSupervisor_DeclinedIsImmediatelyTerminal(t *testing.T) {
	s, slept := newTestSupervisor(5)

	attempts := 0
	result, err := s.Run(context.Background(), "Day pass", func(context.Context) (domain.VerificationOutcome, json.RawMessage, error) {
		attempts++
		return domain.OutcomeDeclined, json.RawMessage(`{"verified": false}`), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Declined {
		t.Fatal("expected declined result")
	}
	if attempts != 1 {
		t.Errorf("declined must not be retried; got %d attempts", attempts)
	}
	if len(*slept) != 0 {
		t.Errorf("expected no waits, got %v", *slept)
	}
}

func TestSupervisor_ErrorsAreRetriedLikePending(t *testing.T) {
	s, _ := newTestSupervisor(5)

	attempts := 0
	result, err := s.Run(context.Background(), "Day pass", func(context.Context) (domain.VerificationOutcome, json.RawMessage, error) {
		attempts++
		if attempts < 3 {
			return domain.OutcomePending, nil, errors.New("backend not ready")
		}
		return domain.OutcomeConfirmed, json.RawMessage(`{"verified": true}`), nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Confirmed {
		t.Fatal("expected confirmed after transient errors")
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestSupervisor_ContextCancellationSurfaces(t *testing.T) {
	s := NewSupervisor(5, verifySchedule(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	_, err := s.Run(ctx, "Day pass", func(context.Context) (domain.VerificationOutcome, json.RawMessage, error) {
		cancel()
		return domain.OutcomePending, nil, ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSupervisor_ScheduleRepeatsLastDelay(t *testing.T) {
	s := NewSupervisor(7, verifySchedule(), testLogger())
	var slept []time.Duration
	s.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	_, err := s.Run(context.Background(), "Day pass", func(context.Context) (domain.VerificationOutcome, json.RawMessage, error) {
		return domain.OutcomePending, nil, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slept) != 6 {
		t.Fatalf("expected 6 sleeps, got %d", len(slept))
	}
	if slept[4] != 10*time.Second || slept[5] != 10*time.Second {
		t.Errorf("expected the last delay to repeat, got %v", slept)
	}
}
