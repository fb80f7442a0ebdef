package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baltmart/storefront/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "storefront",
	Short:   "BaltMart Storefront - payment and fulfillment provider integration service",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Initialize telemetry
	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(ctx)
	}

	// Persistence
	sessions, shipments, err := initStores(cfg, logger)
	if err != nil {
		return err
	}

	// Payment and fulfillment adapters
	payments := initPaymentAdapter(cfg, sessions, logger)
	registry := initCarrierRegistry(cfg, logger)
	fulfillment := initFulfillment(cfg, registry, shipments, logger)

	// Periodic sweep of sessions that never received their callback.
	sessionTTL := time.Duration(cfg.PaymentSessionTTLMinutes) * time.Minute
	go func() {
		ticker := time.NewTicker(sessionTTL / 4)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := payments.SweepExpired(ctx, sessionTTL); err != nil {
					logger.Warn("Session sweep failed", zap.Error(err))
				}
			}
		}
	}()

	logger.Info("Starting BaltMart Storefront",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.Strings("carriers", registry.Names()),
	)

	// Start HTTP server
	srv := server.New(server.Config{Port: cfg.Port}, payments, fulfillment, registry, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
