package app

import (
	"context"

	"github.com/KIRUBAKARAN9840/fittbot-payflow/internal/domain"
)

// PurchaseDayPass buys a day pass for a gym: checkout, gateway payment,
// supervised verification, reconciliation fallback.
func (s *Service) PurchaseDayPass(ctx context.Context, req domain.DayPassRequest) (*domain.Receipt, error) {
	return s.run(ctx, domain.DayPassFlow, req)
}

// PurchaseSubscription buys a premium subscription plan.
func (s *Service) PurchaseSubscription(ctx context.Context, req domain.SubscriptionRequest) (*domain.Receipt, error) {
	return s.run(ctx, domain.SubscriptionFlow, req)
}

// UpgradeSubscription moves an active subscription to a higher plan.
func (s *Service) UpgradeSubscription(ctx context.Context, req domain.UpgradeRequest) (*domain.Receipt, error) {
	return s.run(ctx, domain.SubscriptionUpgradeFlow, req)
}

// ReconcilePlayPurchase confirms server-side recognition of a completed
// native Play Store purchase. The billing SDK has already collected payment
// and granted the entitlement locally, but local confirmation and backend
// webhook processing are not synchronized, so the purchase goes through the
// same supervised verification and reconciliation fallback as the gateway
// flows. The purchase token serves as the support reference.
func (s *Service) ReconcilePlayPurchase(ctx context.Context, req domain.PlayPurchaseRequest) (*domain.Receipt, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, domain.ErrCheckoutInFlight
	}
	defer s.inFlight.Store(false)
	defer s.reconciler.Stop()

	return s.confirm(ctx, domain.PlayStoreFlow, req.PurchaseToken, req, nil)
}
