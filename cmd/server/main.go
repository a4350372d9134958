package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/segyhp/session-payment-engine/internal/config"
	"github.com/segyhp/session-payment-engine/internal/handler"
	"github.com/segyhp/session-payment-engine/internal/inflight"
	"github.com/segyhp/session-payment-engine/internal/logging"
	"github.com/segyhp/session-payment-engine/internal/mutation"
	"github.com/segyhp/session-payment-engine/internal/reconciler"
	"github.com/segyhp/session-payment-engine/internal/repository"
	"github.com/segyhp/session-payment-engine/internal/resolver"
	"github.com/segyhp/session-payment-engine/pkg/response"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(cfg.Logging)
	slog.SetDefault(logger)
	response.HideInternalErrors(cfg.IsProduction())

	// Initialize database
	if cfg.Database.MigrateOnStart {
		if err := repository.Migrate(cfg.Database.DSN()); err != nil {
			logger.Error("failed to apply migrations", "err", err)
			os.Exit(1)
		}
	}

	db, err := initDB(cfg)
	if err != nil {
		logger.Error("failed to initialize database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize Redis
	redisClient := initRedis(cfg)
	defer redisClient.Close()

	// Initialize repositories
	correctionRepo := repository.NewCorrectionRepository(db)

	// Initialize engine
	rec := reconciler.New(cfg.Business.PreferLedgerSum, reconciler.NewLogObserver(logger))
	res := resolver.New(resolver.Options{
		PreferLedgerSum:   cfg.Business.PreferLedgerSum,
		PaidAtStartWindow: cfg.GetPaidAtStartWindow(),
	})
	checker := mutation.NewChecker(mutation.NewValidator(), cfg.Business.EnforceRemainingBalance)
	guard := inflight.NewRedisGuard(redisClient, cfg.GetMutationLockTTL(), logger)

	paymentHandler := handler.NewPaymentHandler(rec, res, checker, guard, correctionRepo, logger)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.GetHealthTimeout())

	// Setup routes
	router := setupRoutes(paymentHandler, healthHandler, logger)

	// Start server
	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting", "addr", server.Addr, "env", cfg.Server.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed to start", "err", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "err", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(paymentHandler *handler.PaymentHandler, healthHandler *handler.HealthHandler, logger *slog.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(logger))
	router.Use(response.CORSMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/sessions/payment-status", paymentHandler.ResolvePaymentStatus).Methods("POST", "OPTIONS")
	api.HandleFunc("/transactions/normalize", paymentHandler.NormalizeTransaction).Methods("POST", "OPTIONS")
	api.HandleFunc("/mutations/check", paymentHandler.CheckMutation).Methods("POST", "OPTIONS")

	return router
}
