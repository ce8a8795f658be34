package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/omnishop/checkout-service/config"
	"github.com/omnishop/checkout-service/internal/checkout"
	checkoutH "github.com/omnishop/checkout-service/internal/checkout/handler"
	"github.com/omnishop/checkout-service/internal/commerce"
	"github.com/omnishop/checkout-service/internal/payment"
	validationUC "github.com/omnishop/checkout-service/internal/validation/usecase"
	"github.com/omnishop/checkout-service/pkg/logger"
	"github.com/omnishop/checkout-service/pkg/metrics"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logCfg := cfg.Logger
	if cfg.Server.AppEnv != "development" && cfg.Server.AppEnv != "dev" {
		logCfg.Encoding = "json"
		logCfg.Level = "info"
	}
	appLogger, err := logger.New(logCfg)
	if err != nil {
		log.Fatalf("could not build logger: %v", err)
	}
	defer appLogger.Sync()

	// 3. Metrics
	m := metrics.New()

	// 4. Commerce API client (inventory, orders, addresses all live behind it)
	client := commerce.NewClient(cfg.Commerce, appLogger)
	appLogger.Info("commerce api client ready", zap.String("base_url", cfg.Commerce.BaseURL))

	// 5. Checkout core
	engine := validationUC.NewCartValidationUseCase(client, cfg.Checkout.LowStockThreshold, appLogger)
	dispatcher := payment.NewDispatcher(client, m, appLogger)
	store := checkout.NewStore(cfg.Checkout.SessionTTL)
	orchestrator := checkout.NewOrchestrator(store, engine, client, dispatcher, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go store.RunJanitor(ctx)

	// 6. HTTP server
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())

	h := checkoutH.NewCheckoutHandler(orchestrator, client, m, appLogger)
	h.Register(e)

	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	go func() {
		appLogger.Info("http server listening", zap.String("addr", cfg.Server.HTTPPort))
		if err := e.Start(cfg.Server.HTTPPort); err != nil {
			appLogger.Info("http server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	appLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
