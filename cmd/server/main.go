package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpRouter "currency-rates-service/internal/adapter/http"
	"currency-rates-service/internal/adapter/source"
	"currency-rates-service/internal/adapter/store"
	"currency-rates-service/internal/config"
	"currency-rates-service/internal/domain/model"
	"currency-rates-service/internal/domain/ports"
	"currency-rates-service/internal/metrics"
	"currency-rates-service/internal/service"
	"currency-rates-service/pkg/logger"
)

func main() {
	log := logger.NewLogger(os.Getenv("LOG_LEVEL"))
	log.Info("Starting currency rates service")

	cfg, err := config.LoadConfig(log)
	if err != nil {
		log.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	appMetrics := metrics.NewMetrics()

	ratesStore, err := store.NewFileStore(cfg.Rates.JournalPath, cfg.Rates.SnapshotPath, log)
	if err != nil {
		log.Error("Failed to initialize rates store", "error", err)
		os.Exit(1)
	}

	sources := buildSources(cfg, log)
	if len(sources) == 0 {
		log.Error("No rate sources enabled", "configured", cfg.Sources.Enabled)
		os.Exit(1)
	}

	updater := service.NewUpdateService(sources, ratesStore, log, appMetrics)
	rates := service.NewRateService(ratesStore, updater, cfg.Rates.CacheTTL, cfg.Rates.BridgeCurrency, log)
	scheduler := service.NewRatesScheduler(updater, cfg.Rates.RefreshInterval, log)

	status := func() *model.Status {
		s := rates.Status()
		s.SchedulerRunning = scheduler.Running()
		return s
	}

	handler := httpRouter.NewHandler(rates, updater, scheduler, ratesStore, status, log, appMetrics)
	router := httpRouter.NewRouter(handler, log, appMetrics)
	routes := router.SetupRoutes()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      routes,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	scheduler.Start()

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}

// buildSources constructs the provider clients named in SOURCES_ENABLED,
// preserving the configured order.
func buildSources(cfg *config.Config, log *logger.Logger) []ports.RateSource {
	sources := make([]ports.RateSource, 0, len(cfg.Sources.Enabled))
	for _, name := range cfg.Sources.Enabled {
		switch name {
		case source.FiatSourceName:
			sources = append(sources, source.NewFiatRateSource(
				cfg.Sources.ExchangeRateURL,
				cfg.Sources.ExchangeRateKey,
				cfg.Rates.BridgeCurrency,
				cfg.Sources.FiatCurrencies,
				cfg.Sources.RequestTimeout,
				cfg.Sources.MaxRetries,
				log,
			))
		case source.CryptoSourceName:
			sources = append(sources, source.NewCryptoRateSource(
				cfg.Sources.CoinGeckoURL,
				cfg.Rates.BridgeCurrency,
				cfg.Sources.CryptoAssets,
				cfg.Sources.RequestTimeout,
				cfg.Sources.MaxRetries,
				log,
			))
		default:
			log.Warn("Unknown source in configuration, skipping", "source", name)
		}
	}
	return sources
}
