/**
 * @description
 * HTTP handlers for the stub backend. They implement the payment API's wire
 * contract faithfully enough to run the client end to end: checkout creates
 * an order command with server-authoritative pricing, verify creates a
 * command whose payload carries the verification verdict, and the command
 * status endpoint walks commands to their terminal state poll by poll.
 */
package stubapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/KIRUBAKARAN9840/fittbot-payflow/internal/domain"
)

// Pricing is fixed stub pricing in paise; the client must never compute
// amounts, so the stub is the authority the way the real backend is.
const (
	dayPassPricePaise      = 19900
	subscriptionPricePaise = 99900
	upgradePricePaise      = 49900
	currency               = "INR"
)

// Handlers serves the stub payment API.
type Handlers struct {
	store  *Store
	logger *slog.Logger
}

// NewHandlers creates the stub handler set.
func NewHandlers(store *Store, logger *slog.Logger) *Handlers {
	return &Handlers{store: store, logger: logger}
}

// Checkout handles POST /{family}/checkout: it creates a pending command
// whose payload is the checkout session.
func (h *Handlers) Checkout(amount int64, withSubscription bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idemKey := r.Header.Get("Idempotency-Key")
		if idemKey == "" {
			respondError(w, http.StatusBadRequest, "Idempotency-Key header is required")
			return
		}

		session := domain.CheckoutSession{
			OrderID:        "ord_" + uuid.NewString()[:13],
			GatewayOrderID: "order_" + uuid.NewString()[:14],
			GatewayKeyID:   "rzp_test_stub",
			Amount:         amount,
			Currency:       currency,
		}
		if withSubscription {
			session.GatewaySubscriptionID = "sub_" + uuid.NewString()[:14]
		}

		payload, err := json.Marshal(session)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to build checkout payload")
			return
		}

		requestID := h.store.CreateCommand(idemKey, payload, "", false)
		h.logger.Info("checkout command created", "request_id", requestID, "order_id", session.OrderID)
		respondJSON(w, http.StatusAccepted, map[string]string{"request_id": requestID})
	}
}

// Verify handles POST verify endpoints. Payment ids ending in "fail" produce
// an explicit verified=false payload so the declined path can be exercised;
// ids ending in "reject" produce a failed command.
func (h *Handlers) Verify(w http.ResponseWriter, r *http.Request) {
	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey == "" {
		respondError(w, http.StatusBadRequest, "Idempotency-Key header is required")
		return
	}

	var req domain.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid verify request body")
		return
	}

	var (
		payload  json.RawMessage
		failWith string
		grants   bool
	)
	switch {
	case strings.HasSuffix(req.GatewayPaymentID, "reject"):
		failWith = "verification rejected by gateway"
	case strings.HasSuffix(req.GatewayPaymentID, "fail"):
		payload = json.RawMessage(`{"verified": false}`)
	default:
		payload = json.RawMessage(`{"verified": true, "captured": true, "subscription_active": true}`)
		grants = true
	}

	requestID := h.store.CreateCommand(idemKey, payload, failWith, grants)
	h.logger.Info("verify command created", "request_id", requestID, "order_id", req.OrderID)
	respondJSON(w, http.StatusAccepted, map[string]string{"request_id": requestID})
}

// VerifyPlay handles POST /revenuecat_v2/subscriptions/create: the Play
// purchase reconciliation submission. Purchase tokens ending in "fail"
// produce an explicit rejection, mirroring Verify.
func (h *Handlers) VerifyPlay(w http.ResponseWriter, r *http.Request) {
	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey == "" {
		respondError(w, http.StatusBadRequest, "Idempotency-Key header is required")
		return
	}

	var req domain.PlayPurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid purchase request body")
		return
	}

	payload := json.RawMessage(`{"verified": true, "subscription_active": true}`)
	grants := true
	if strings.HasSuffix(req.PurchaseToken, "fail") {
		payload = json.RawMessage(`{"verified": false}`)
		grants = false
	}

	requestID := h.store.CreateCommand(idemKey, payload, "", grants)
	h.logger.Info("revenuecat command created", "request_id", requestID, "product_id", req.ProductID)
	respondJSON(w, http.StatusAccepted, map[string]string{"request_id": requestID})
}

// CommandStatus handles GET /{family}/commands/{requestID}.
func (h *Handlers) CommandStatus(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "requestID")
	command, ok := h.store.Poll(requestID)
	if !ok {
		respondError(w, http.StatusNotFound, "unknown request id")
		return
	}
	respondJSON(w, http.StatusOK, command)
}

// PremiumStatus handles GET /user_premium/premium-status.
func (h *Handlers) PremiumStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]bool{"has_premium": h.store.HasPremium()})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
