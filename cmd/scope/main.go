package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BigTvz/Scope/internal/amqp"
	"github.com/BigTvz/Scope/internal/cli"
	apphttp "github.com/BigTvz/Scope/internal/http"
	applog "github.com/BigTvz/Scope/internal/log"
	"github.com/BigTvz/Scope/internal/rates"
	"github.com/BigTvz/Scope/internal/services"
	"github.com/BigTvz/Scope/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	logger.Info("Starting scope")

	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.InitStore(logger, cfg.SQLiteDBPath)
	defer store.Close()
	kv := storage.NewKV(store)

	// Event publishing is optional: without an AMQP URL the ledger just
	// skips it.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to connect to AMQP", applog.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP publishing disabled")
	}

	identity := services.NewIdentity(kv)
	ledger := services.NewLedger(kv, publisher)
	lifecycle := services.NewLifecycle(kv)
	refresher := services.NewRatesRefresher(kv, rates.NewClient(cfg.RatesURL), cfg.RatesTTL)

	srv := apphttp.NewServer(":"+cfg.Port, identity, ledger, lifecycle, refresher, logger, apphttp.Options{
		StatsCacheSize: cfg.StatsCacheSize,
		StatsCacheTTL:  cfg.StatsCacheTTL,
		SeedDemo:       cfg.SeedDemo,
	})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
	}()

	logger.Info("Listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}
