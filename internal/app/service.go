/**
 * @description
 * This file contains the core orchestration logic for the payflow client.
 * The Service struct runs each purchase flow through the shared protocol
 * engine: submit checkout → poll the command → hand the session to the
 * payment gateway → supervised verification → premium-status reconciliation
 * fallback. The per-flow methods in flows.go are thin instantiations of this
 * engine against different endpoint families.
 *
 * @dependencies
 * - internal/domain: flow definitions, commands, receipts, error taxonomy.
 * - pkg/fittbotclient (via CommandAPI): the wire protocol.
 */
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/KIRUBAKARAN9840/fittbot-payflow/internal/config"
	"github.com/KIRUBAKARAN9840/fittbot-payflow/internal/domain"
)

// CommandAPI is the slice of the Fittbot API client the engine needs.
type CommandAPI interface {
	CommandGetter
	NewIdempotencyKey(purpose string) string
	Submit(ctx context.Context, path string, body any, idempotencyKey string) (string, error)
	GetPremiumStatus(ctx context.Context) (bool, error)
}

// Gateway is the external payment SDK boundary. Collect presents the payment
// UI for a checkout session and returns the signed callback fields, or
// domain.ErrGatewayCancelled when the user dismisses it.
type Gateway interface {
	Collect(ctx context.Context, session *domain.CheckoutSession) (*domain.GatewayCallback, error)
}

// Service orchestrates purchase flows against the payment API.
type Service struct {
	api        CommandAPI
	gateway    Gateway
	poller     *Poller
	supervisor *Supervisor
	reconciler *Reconciler
	logger     *slog.Logger

	// inFlight debounces duplicate invocations: one checkout at a time.
	inFlight atomic.Bool
}

// NewService wires the protocol engine from configuration.
func NewService(api CommandAPI, gateway Gateway, cfg config.Config, logger *slog.Logger) (*Service, error) {
	delays, err := cfg.VerifyDelays()
	if err != nil {
		return nil, fmt.Errorf("invalid verify schedule: %w", err)
	}
	return &Service{
		api:     api,
		gateway: gateway,
		poller: NewPoller(api, cfg.PollMaxAttempts, cfg.PollInitialDelay(),
			cfg.PollMaxDelay(), cfg.PollJitter(), cfg.PollBackoffFactor, logger),
		supervisor: NewSupervisor(cfg.VerifyMaxAttempts, delays, logger),
		reconciler: NewReconciler(cfg.ReconcileInterval(), cfg.ReconcileMaxAttempts, logger),
		logger:     logger,
	}, nil
}

// run executes a full checkout flow: create the order, collect payment
// through the gateway, then confirm.
func (s *Service) run(ctx context.Context, flow domain.Flow, checkoutBody any) (*domain.Receipt, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, domain.ErrCheckoutInFlight
	}
	defer s.inFlight.Store(false)
	// Teardown obligation: never leave a reconciliation loop behind.
	defer s.reconciler.Stop()

	// One key for the whole checkout-creation lifecycle.
	key := s.api.NewIdempotencyKey(flow.CheckoutKeyPrefix)
	requestID, err := s.api.Submit(ctx, flow.CheckoutPath, checkoutBody, key)
	if err != nil {
		return nil, fmt.Errorf("%s checkout: %w", flow.Label, err)
	}

	data, err := s.poller.Await(ctx, flow.CheckoutCommandPath, requestID, flow.Label+" checkout")
	if err != nil {
		return nil, err
	}

	session, err := domain.ParseCheckoutSession(data)
	if err != nil {
		return nil, fmt.Errorf("%s checkout: %w", flow.Label, err)
	}
	s.logger.Info("checkout order created",
		"flow", flow.Name,
		"order_id", session.OrderID,
		"amount", session.Amount,
		"currency", session.Currency,
	)

	callback, err := s.gateway.Collect(ctx, session)
	if err != nil {
		if errors.Is(err, domain.ErrGatewayCancelled) {
			return nil, err
		}
		return nil, fmt.Errorf("%s payment (order %s): %w", flow.Label, session.OrderID, err)
	}

	verifyBody := domain.VerifyRequest{OrderID: session.OrderID, GatewayCallback: *callback}
	return s.confirm(ctx, flow, session.OrderID, verifyBody, session)
}

// confirm runs supervised verification and, on exhaustion, the
// premium-status reconciliation fallback.
func (s *Service) confirm(ctx context.Context, flow domain.Flow, orderID string, verifyBody any, session *domain.CheckoutSession) (*domain.Receipt, error) {
	result, err := s.supervisor.Run(ctx, flow.Label, func(ctx context.Context) (domain.VerificationOutcome, json.RawMessage, error) {
		// A fresh key per verification attempt: the backend dedups
		// verification by the gateway payment id, and a new key lets a
		// retry escape a poisoned earlier command.
		key := s.api.NewIdempotencyKey(flow.VerifyKeyPrefix)
		requestID, err := s.api.Submit(ctx, flow.VerifyPath, verifyBody, key)
		if err != nil {
			return domain.OutcomePending, nil, err
		}
		data, err := s.poller.Await(ctx, flow.VerifyCommandPath, requestID, flow.Label+" verification")
		if err != nil {
			return domain.OutcomePending, nil, err
		}
		return domain.ParseVerification(data), data, nil
	})
	if err != nil {
		return nil, err
	}

	if result.Declined {
		return nil, &domain.PaymentDeclinedError{OrderID: orderID}
	}
	if result.Confirmed {
		return s.receipt(flow, orderID, domain.ReceiptConfirmed, session), nil
	}

	// Verification could not confirm in time; fall back to the slower,
	// independent entitlement signal.
	s.logger.Info("falling back to premium-status reconciliation",
		"flow", flow.Name,
		"order_id", orderID,
	)
	state, ok := <-s.reconciler.Start(ctx, s.api.GetPremiumStatus)
	if !ok {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Loop was torn down externally; report pending so the order id
		// still reaches the user.
		state = ReconcileTimedOut
	}

	if state == ReconcileConfirmed {
		return s.receipt(flow, orderID, domain.ReceiptConfirmed, session), nil
	}
	receipt := s.receipt(flow, orderID, domain.ReceiptPending, session)
	receipt.SupportNote = fmt.Sprintf(
		"Your payment is still being processed. If your purchase does not appear shortly, contact support and quote order %s.",
		orderID,
	)
	return receipt, nil
}

func (s *Service) receipt(flow domain.Flow, orderID string, status domain.ReceiptStatus, session *domain.CheckoutSession) *domain.Receipt {
	receipt := &domain.Receipt{
		Flow:    flow.Name,
		OrderID: orderID,
		Status:  status,
	}
	if session != nil {
		receipt.Amount = session.Amount
		receipt.Currency = session.Currency
	}
	return receipt
}
