// cmd/trustscan/app.go
package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trustscan/internal/adapters/store"
	"trustscan/internal/core/entities"
	"trustscan/internal/core/ports"
	"trustscan/internal/core/usecases"
	"trustscan/internal/platform/config"
	"trustscan/internal/platform/logx"
	"trustscan/internal/platform/registry"
	"trustscan/internal/platform/resilience"
	"trustscan/internal/platform/ui"
	"trustscan/internal/platform/workerpool"
)

const (
	// threatCacheCapacity entradas máximas del caché de veredictos
	threatCacheCapacity = 5000

	threatCacheCleanupInterval = 10 * time.Minute
)

// app agrupa las dependencias construidas a partir de la configuración.
type app struct {
	service *usecases.ScanService
	store   ports.ReportStore
	logger  logx.Logger

	stopCleanup func()
}

// newApp construye store, caché de amenazas, colectores y servicio de escaneo.
func newApp(ctx context.Context, cfg config.Config, logger logx.Logger, presenter ui.Presenter) (*app, error) {
	reportStore, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	threats := store.NewThreatCache(threatCacheCapacity)
	stopCleanup := threats.StartCleanup(threatCacheCleanupInterval)

	fail := func(err error) (*app, error) {
		stopCleanup()
		_ = reportStore.Close()
		return nil, err
	}

	configs := cfg.CollectorConfigs(registry.Global().DefaultConfigs())
	if cc, ok := configs["urlhaus"]; ok {
		cc.Custom["threat_cache"] = ports.ThreatCache(threats)
		configs["urlhaus"] = cc
	}

	collectors, err := buildCollectorsWithResilience(logger, cfg, configs)
	if err != nil {
		return fail(err)
	}

	verified, err := loadVerifiedSites(cfg.VerifiedSitesFile)
	if err != nil {
		closeCollectors(collectors, logger)
		return fail(err)
	}

	timeout := cfg.Timeout()
	if timeout == 0 {
		timeout = -1 // sin deadline global
	}

	service, err := usecases.NewScanService(usecases.ScanServiceOptions{
		Collectors:       collectors,
		Metadata:         registry.Global().GetAllMetadata(),
		Store:            reportStore,
		Verified:         verified,
		Workers:          cfg.Core.Workers,
		Scheduler:        workerpool.SchedulerByName(cfg.Core.Scheduler),
		Timeout:          timeout,
		CollectorTimeout: cfg.CollectorTimeout(),
		ReportTTL:        cfg.StoreTTL(),
		Presenter:        presenter,
		Logger:           logger,
	})
	if err != nil {
		closeCollectors(collectors, logger)
		return fail(err)
	}

	logger.Info("scanner ready",
		"collectors", len(collectors),
		"store", cfg.Store.Driver,
		"verified_sites", verified.Len(),
	)

	return &app{
		service:     service,
		store:       reportStore,
		logger:      logger,
		stopCleanup: stopCleanup,
	}, nil
}

// Close libera servicio, colectores y store.
func (a *app) Close() error {
	a.stopCleanup()
	return errors.Join(a.service.Close(), a.store.Close())
}

// buildCollectorsWithResilience construye los colectores del registry y
// los envuelve con reintentos y circuit breaker si está habilitado.
func buildCollectorsWithResilience(logger logx.Logger, cfg config.Config, configs map[string]ports.CollectorConfig) ([]ports.Collector, error) {
	collectors, err := registry.Global().Build(configs, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build collectors: %w", err)
	}

	if !cfg.Resilience.CircuitBreakerEnabled {
		logger.Debug("resilience disabled, using collectors directly")
		return collectors, nil
	}

	wrapped := make([]ports.Collector, 0, len(collectors))
	for _, c := range collectors {
		cb := resilience.NewCircuitBreaker(
			cfg.Resilience.CircuitBreakerThreshold,
			cfg.Resilience.CircuitBreakerTimeout,
			cfg.Resilience.CircuitBreakerHalfOpenMax,
		)

		retries := cfg.Resilience.MaxRetries
		if cc, ok := configs[c.Name()]; ok {
			retries = cc.Retries
		}

		wrapped = append(wrapped, resilience.NewRetryableCollector(
			c,
			retries,
			cfg.Resilience.BackoffBase,
			cfg.Resilience.BackoffMultiplier,
			cb,
			logger,
		))

		logger.Debug("wrapped collector with resilience",
			"collector", c.Name(),
			"max_retries", retries,
		)
	}
	return wrapped, nil
}

func closeCollectors(collectors []ports.Collector, logger logx.Logger) {
	for _, c := range collectors {
		if err := c.Close(); err != nil {
			logger.Warn("failed to close collector", "collector", c.Name(), "error", err.Error())
		}
	}
}

// loadVerifiedSites carga la lista de sitios verificados; sin archivo
// se usa un registro vacío.
func loadVerifiedSites(path string) (*entities.VerifiedRegistry, error) {
	if path == "" {
		return entities.NewVerifiedRegistry()
	}
	reg, err := entities.LoadVerifiedSites(path)
	if err != nil {
		return nil, newUsageError("verified sites %s: %w", path, err)
	}
	return reg, nil
}

// newLogger crea el logger según el nivel configurado. Con la UI pterm
// solo se emiten errores.
func newLogger(cfg config.Config, prettyUI bool) logx.Logger {
	if prettyUI {
		return logx.NewSilent()
	}
	return logx.NewWithLevel(logx.ParseLevel(cfg.Core.LogLevel))
}
