/**
 * @description
 * This file sets up the HTTP router for the stub backend. It mirrors the
 * real backend's parallel endpoint families: each flow has its own checkout
 * and commands namespace, the Razorpay/RevenueCat verify families share the
 * command status handler, and premium status lives under /user_premium.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: routing and standard middleware.
 * - github.com/go-chi/cors: the app is a mobile/web client behind a dev tunnel.
 */
package stubapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Router creates the stub backend's router.
func Router(h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key", "X-Client-ID", "ngrok-skip-browser-warning"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Route("/pay/dailypass_v2", func(r chi.Router) {
		r.Post("/checkout", h.Checkout(dayPassPricePaise, false))
		r.Get("/commands/{requestID}", h.CommandStatus)
	})
	r.Route("/pay/subscription_v2", func(r chi.Router) {
		r.Post("/checkout", h.Checkout(subscriptionPricePaise, true))
		r.Get("/commands/{requestID}", h.CommandStatus)
	})
	r.Route("/pay/subscription_upgrade_v2", func(r chi.Router) {
		r.Post("/checkout", h.Checkout(upgradePricePaise, true))
		r.Get("/commands/{requestID}", h.CommandStatus)
	})

	r.Route("/razorpay_payments_v2", func(r chi.Router) {
		r.Post("/verify", h.Verify)
		r.Get("/commands/{requestID}", h.CommandStatus)
	})
	r.Route("/razorpay_subscriptions_v2", func(r chi.Router) {
		r.Post("/verify", h.Verify)
		r.Get("/commands/{requestID}", h.CommandStatus)
	})
	r.Route("/revenuecat_v2", func(r chi.Router) {
		r.Post("/subscriptions/create", h.VerifyPlay)
		r.Get("/commands/{requestID}", h.CommandStatus)
	})

	r.Get("/user_premium/premium-status", h.PremiumStatus)

	return r
}
