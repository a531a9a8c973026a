/**
 * @description
 * Entry point for the payflow CLI. It drives one purchase flow end to end
 * against a configured backend (typically cmd/stubgym during development),
 * using the headless gateway in place of the native payment sheet, and
 * prints the resulting receipt.
 *
 * Usage:
 *   payflow-cli -flow dailypass -gym gym_123 -date 2026-09-01
 *   payflow-cli -flow subscription -plan plan_gold
 *   payflow-cli -flow upgrade -plan plan_platinum -subscription sub_abc
 *   payflow-cli -flow playstore -product premium_annual -token tok_xyz
 */
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/KIRUBAKARAN9840/fittbot-payflow/internal/app"
	"github.com/KIRUBAKARAN9840/fittbot-payflow/internal/config"
	"github.com/KIRUBAKARAN9840/fittbot-payflow/internal/domain"
	"github.com/KIRUBAKARAN9840/fittbot-payflow/pkg/fittbotclient"
)

func main() {
	flow := flag.String("flow", "dailypass", "flow to run: dailypass, subscription, upgrade, playstore")
	gymID := flag.String("gym", "gym_demo", "gym id (dailypass)")
	date := flag.String("date", "", "pass date YYYY-MM-DD (dailypass)")
	passes := flag.Int("passes", 1, "number of passes (dailypass)")
	planID := flag.String("plan", "plan_demo", "plan id (subscription, upgrade)")
	subscriptionID := flag.String("subscription", "", "current subscription id (upgrade)")
	productID := flag.String("product", "", "product id (playstore)")
	token := flag.String("token", "", "purchase token (playstore)")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		slog.Error("cannot load config", "error", err)
		os.Exit(1)
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "cli_" + uuid.NewString()[:8]
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	client := fittbotclient.NewClient(cfg.APIBaseURL, cfg.ClientID,
		fittbotclient.WithPremiumStatusPath(cfg.PremiumStatusPath))
	service, err := app.NewService(client, app.HeadlessGateway{}, cfg, logger)
	if err != nil {
		logger.Error("cannot build service", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var receipt *domain.Receipt
	switch *flow {
	case "dailypass":
		receipt, err = service.PurchaseDayPass(ctx, domain.DayPassRequest{
			GymID: *gymID, Date: *date, Passes: *passes,
		})
	case "subscription":
		receipt, err = service.PurchaseSubscription(ctx, domain.SubscriptionRequest{
			PlanID: *planID, GymID: *gymID,
		})
	case "upgrade":
		receipt, err = service.UpgradeSubscription(ctx, domain.UpgradeRequest{
			PlanID: *planID, CurrentSubscriptionID: *subscriptionID,
		})
	case "playstore":
		receipt, err = service.ReconcilePlayPurchase(ctx, domain.PlayPurchaseRequest{
			ProductID: *productID, PurchaseToken: *token, AppUserID: cfg.ClientID,
		})
	default:
		logger.Error("unknown flow", "flow", *flow)
		os.Exit(2)
	}

	if err != nil {
		var declined *domain.PaymentDeclinedError
		switch {
		case errors.Is(err, domain.ErrGatewayCancelled):
			logger.Info("payment cancelled")
			return
		case errors.As(err, &declined):
			logger.Error("payment declined", "order_id", declined.OrderID)
			os.Exit(1)
		default:
			logger.Error("flow failed", "error", err)
			os.Exit(1)
		}
	}

	out, _ := json.MarshalIndent(receipt, "", "  ")
	fmt.Println(string(out))
}
