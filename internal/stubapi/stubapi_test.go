package stubapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/KIRUBAKARAN9840/fittbot-payflow/internal/app"
	"github.com/KIRUBAKARAN9840/fittbot-payflow/internal/config"
	"github.com/KIRUBAKARAN9840/fittbot-payflow/internal/domain"
	"github.com/KIRUBAKARAN9840/fittbot-payflow/pkg/fittbotclient"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStubServer(t *testing.T, pollsToComplete int) (*httptest.Server, *Store) {
	t.Helper()
	store := NewStore(pollsToComplete)
	server := httptest.NewServer(Router(NewHandlers(store, testLogger())))
	t.Cleanup(server.Close)
	return server, store
}

func fastConfig() config.Config {
	return config.Config{
		PollMaxAttempts:      10,
		PollInitialDelayMs:   1,
		PollMaxDelayMs:       2,
		PollBackoffFactor:    1.5,
		PollJitterMs:         0,
		VerifyMaxAttempts:    3,
		VerifyDelaysMs:       "1,1,1",
		ReconcileIntervalMs:  1,
		ReconcileMaxAttempts: 5,
	}
}

func newStubService(t *testing.T, server *httptest.Server, gateway app.Gateway) *app.Service {
	t.Helper()
	client := fittbotclient.NewClient(server.URL, "test_client")
	service, err := app.NewService(client, gateway, fastConfig(), testLogger())
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return service
}

func TestEndToEnd_DayPassConfirmed(t *testing.T) {
	server, store := newStubServer(t, 2)
	service := newStubService(t, server, app.HeadlessGateway{})

	receipt, err := service.PurchaseDayPass(context.Background(), domain.DayPassRequest{
		GymID: "gym_1", Date: "2026-09-01", Passes: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.Status != domain.ReceiptConfirmed {
		t.Fatalf("expected confirmed receipt, got %s", receipt.Status)
	}
	if receipt.Amount != dayPassPricePaise || receipt.Currency != "INR" {
		t.Errorf("expected stub pricing on receipt, got %d %s", receipt.Amount, receipt.Currency)
	}
	if !store.HasPremium() {
		t.Error("verify completion should have granted premium")
	}
}

func TestEndToEnd_SubscriptionConfirmed(t *testing.T) {
	server, _ := newStubServer(t, 1)
	service := newStubService(t, server, app.HeadlessGateway{})

	receipt, err := service.PurchaseSubscription(context.Background(), domain.SubscriptionRequest{PlanID: "plan_gold"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.Status != domain.ReceiptConfirmed {
		t.Fatalf("expected confirmed receipt, got %s", receipt.Status)
	}
	if receipt.OrderID == "" {
		t.Error("expected an order id on the receipt")
	}
}

// decliningGateway forces the stub's explicit-rejection path.
type decliningGateway struct{}

func (decliningGateway) Collect(_ context.Context, session *domain.CheckoutSession) (*domain.GatewayCallback, error) {
	return &domain.GatewayCallback{
		GatewayOrderID:   session.GatewayOrderID,
		GatewayPaymentID: "pay_fail",
		GatewaySignature: "sig_x",
	}, nil
}

func TestEndToEnd_DeclinedPayment(t *testing.T) {
	server, store := newStubServer(t, 0)
	service := newStubService(t, server, decliningGateway{})

	_, err := service.PurchaseDayPass(context.Background(), domain.DayPassRequest{GymID: "gym_1"})
	var declined *domain.PaymentDeclinedError
	if !errors.As(err, &declined) {
		t.Fatalf("expected PaymentDeclinedError, got %v", err)
	}
	if store.HasPremium() {
		t.Error("declined payment must not grant premium")
	}
}

func TestEndToEnd_PlayPurchase(t *testing.T) {
	server, store := newStubServer(t, 1)
	service := newStubService(t, server, app.HeadlessGateway{})

	receipt, err := service.ReconcilePlayPurchase(context.Background(), domain.PlayPurchaseRequest{
		ProductID: "premium_annual", PurchaseToken: "tok_123", AppUserID: "user_1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.Status != domain.ReceiptConfirmed {
		t.Fatalf("expected confirmed receipt, got %s", receipt.Status)
	}
	if !store.HasPremium() {
		t.Error("play purchase should have granted premium")
	}
}

func TestStore_IdempotencyReplay(t *testing.T) {
	store := NewStore(1)

	first := store.CreateCommand("key_1", json.RawMessage(`{"a":1}`), "", false)
	replay := store.CreateCommand("key_1", json.RawMessage(`{"a":2}`), "", false)
	other := store.CreateCommand("key_2", json.RawMessage(`{"a":3}`), "", false)

	if first != replay {
		t.Errorf("replaying a key must return the original request id: %s vs %s", first, replay)
	}
	if first == other {
		t.Error("distinct keys must mint distinct request ids")
	}
}

func TestStore_CommandCompletesAfterConfiguredPolls(t *testing.T) {
	store := NewStore(2)
	requestID := store.CreateCommand("key", json.RawMessage(`{"ok":true}`), "", true)

	for i := 0; i < 2; i++ {
		cmd, ok := store.Poll(requestID)
		if !ok {
			t.Fatal("command not found")
		}
		if cmd.Status.Terminal() {
			t.Fatalf("poll %d: expected pending, got %s", i+1, cmd.Status)
		}
	}
	cmd, _ := store.Poll(requestID)
	if cmd.Status != domain.CommandCompleted {
		t.Fatalf("expected completed, got %s", cmd.Status)
	}
	if !store.HasPremium() {
		t.Error("completion should have granted premium")
	}
	// Terminal commands stay terminal.
	cmd, _ = store.Poll(requestID)
	if cmd.Status != domain.CommandCompleted {
		t.Errorf("expected completed to stick, got %s", cmd.Status)
	}
}

func TestStore_FailedCommand(t *testing.T) {
	store := NewStore(0)
	requestID := store.CreateCommand("key", nil, "verification rejected by gateway", false)

	cmd, _ := store.Poll(requestID)
	if cmd.Status != domain.CommandFailed {
		t.Fatalf("expected failed, got %s", cmd.Status)
	}
	if cmd.Error != "verification rejected by gateway" {
		t.Errorf("unexpected error message %q", cmd.Error)
	}
}
