package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vimart-be/internal/config"
	"vimart-be/internal/db"
	"vimart-be/internal/gateway"
	"vimart-be/internal/httpapi"
	"vimart-be/internal/kafka"
	"vimart-be/internal/logger"
	"vimart-be/internal/middleware"
	"vimart-be/internal/notify"
	"vimart-be/internal/order"
	"vimart-be/internal/payment"
	"vimart-be/internal/payment/callback"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database, err := db.NewDatabase(cfg)
	if err != nil {
		logger.L().Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	env, err := config.ResolveGatewayEnvironment(cfg)
	if err != nil {
		logger.L().Fatal("failed to resolve gateway environment", zap.Error(err))
	}

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.NotificationTopic)
	defer producer.Close()

	orderRepo := order.NewRepository(database)
	callbackRepo := payment.NewRepository(database)
	gatewayClient := gateway.NewVTMoneyClient(env)
	notifier := notify.NewQueueNotifier(producer)
	paymentSvc := payment.NewService(orderRepo, gatewayClient, notifier, env, cfg.FailedOrderPolicy)

	apiHandler := httpapi.NewHandler(paymentSvc)
	cbHandler := callback.NewHandler(paymentSvc, orderRepo, callbackRepo, env.GatewayPublicKey)

	requireAuth := middleware.RequireAuth([]byte(cfg.JWTSecret))

	mux := http.NewServeMux()

	// Merchant API, JWT-gated.
	mux.Handle("POST /api/payments/{orderID}/initiate", requireAuth(http.HandlerFunc(apiHandler.InitiateHandler)))
	mux.Handle("POST /api/payments/{orderID}/refund", requireAuth(http.HandlerFunc(apiHandler.RefundHandler)))
	mux.Handle("GET /api/payments/{orderID}/status", requireAuth(apiHandler.StatusHandler(orderRepo)))

	// Partner callbacks, authenticated by message signature instead.
	mux.HandleFunc("POST /partner/order-confirmation", cbHandler.OrderConfirmationHandler)
	mux.HandleFunc("POST /partner/ipn", cbHandler.IPNHandler)
	mux.HandleFunc("GET /partner/redirect", cbHandler.RedirectHandler)

	handler := logger.RequestIDMiddleware(
		logger.LoggingMiddleware(
			middleware.RateLimitMiddleware(mux),
		),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.L().Info("payment server listening",
			zap.String("port", cfg.AppPort),
			zap.String("gateway_env", env.Name),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.L().Fatal("server stopped unexpectedly", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.L().Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.L().Error("graceful shutdown failed", zap.Error(err))
	}
}
