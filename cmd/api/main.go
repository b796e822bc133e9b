// cmd/api/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/juju/clock"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-checkout/internal/config"
	"github.com/your-org/storefront-checkout/internal/domain/checkout"
	"github.com/your-org/storefront-checkout/internal/domain/payment"
	"github.com/your-org/storefront-checkout/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-checkout/internal/infrastructure/database/redis"
	"github.com/your-org/storefront-checkout/internal/infrastructure/storefront"
	"github.com/your-org/storefront-checkout/internal/interfaces/http"
	"github.com/your-org/storefront-checkout/internal/pkg/auth"
	"github.com/your-org/storefront-checkout/internal/pkg/logger"
	"github.com/your-org/storefront-checkout/internal/pkg/pdf"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg)
	log.WithFields(logrus.Fields{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Infof("Starting %s", cfg.App.Name)

	redisClient, err := redis.NewConnection(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redisClient.Close()

	checks := map[string]http.HealthChecker{"redis": redisClient}

	var journal payment.Journal = payment.NopJournal{}
	if cfg.Database.Enabled {
		db, err := postgres.NewConnection(cfg, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()

		migration := postgres.NewMigration(db.GetDB(), log)
		if err := migration.RunAutoMigrations(); err != nil {
			log.WithError(err).Fatal("Database migration failed")
		}
		if err := migration.CreateIndexes(); err != nil {
			log.WithError(err).Warn("Index creation failed")
		}

		journal = postgres.NewAttemptJournal(db.GetDB())
		checks["database"] = db
	} else {
		log.Warn("Database disabled, payment attempts will not be journaled")
	}

	settings, err := checkout.SettingsFromConfig(cfg.Checkout)
	if err != nil {
		log.WithError(err).Fatal("Invalid checkout configuration")
	}

	storeAPI := storefront.NewClient(cfg.Storefront, log)
	sessions := redis.NewSessionStore(redisClient, cfg.Checkout.SessionTTL, log)
	manager := checkout.NewManager(storeAPI, sessions, journal, clock.WallClock, checkout.ManagerConfig{
		Settings:           settings,
		RecentTransactions: cfg.Checkout.RecentTransactions,
		IdleTTL:            cfg.Checkout.IdleFlowTTL,
		SweepInterval:      cfg.Checkout.IdleSweepInterval,
	}, log)

	server := http.NewServer(cfg, http.Options{
		Manager:    manager,
		Receipts:   pdf.NewService(cfg),
		JWT:        auth.NewJWTManager(cfg.JWT.Secret, cfg.App.Name),
		Redis:      redisClient.GetClient(),
		Storefront: storeAPI,
		Checks:     checks,
	}, log)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}
	// stop polling and timers once no request can reach a flow any more
	if err := manager.Close(ctx); err != nil {
		log.WithError(err).Error("Failed to close checkout flows")
	}

	log.Info("Server shutdown completed")
}
