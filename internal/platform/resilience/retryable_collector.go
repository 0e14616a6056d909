// internal/platform/resilience/retryable_collector.go
package resilience

import (
	"context"
	"fmt"
	"math"
	"time"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
	perrors "trustscan/internal/platform/errors"
	"trustscan/internal/platform/logx"
)

// maxBackoff tope del backoff exponencial.
const maxBackoff = 60 * time.Second

// RetryableCollector envuelve un Collector con reintentos y circuit breaker.
// Solo se reintentan errores transitorios (timeouts, 429, 5xx, conexión).
type RetryableCollector struct {
	collector         ports.Collector
	maxRetries        int
	backoffBase       time.Duration
	backoffMultiplier float64
	circuitBreaker    *CircuitBreaker
	logger            logx.Logger
}

// NewRetryableCollector crea un nuevo RetryableCollector. cb puede ser nil.
func NewRetryableCollector(
	collector ports.Collector,
	maxRetries int,
	backoffBase time.Duration,
	backoffMultiplier float64,
	cb *CircuitBreaker,
	logger logx.Logger,
) *RetryableCollector {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if backoffBase <= 0 {
		backoffBase = 1 * time.Second
	}
	if backoffMultiplier < 1.0 {
		backoffMultiplier = 2.0
	}

	return &RetryableCollector{
		collector:         collector,
		maxRetries:        maxRetries,
		backoffBase:       backoffBase,
		backoffMultiplier: backoffMultiplier,
		circuitBreaker:    cb,
		logger:            logger.With("component", "retryable-collector", "source", collector.Name()),
	}
}

// Name retorna el nombre del colector subyacente.
func (r *RetryableCollector) Name() string {
	return r.collector.Name()
}

// Stage retorna la etapa del colector subyacente.
func (r *RetryableCollector) Stage() int {
	return r.collector.Stage()
}

// Collect ejecuta el colector con reintentos y circuit breaker.
func (r *RetryableCollector) Collect(ctx context.Context, target domain.Target, prior *domain.CheckResults) (domain.Evidence, error) {
	if r.circuitBreaker != nil && !r.circuitBreaker.Allow() {
		r.logger.Warn("circuit breaker open, skipping collector")
		return nil, fmt.Errorf("circuit breaker open for %s: %w", r.collector.Name(), ErrCircuitOpen)
	}

	var lastErr error
	attempt := 0

	for {
		if attempt > 0 {
			r.logger.Debug("retrying collector", "attempt", attempt, "max_retries", r.maxRetries)
		}

		ev, err := r.collector.Collect(ctx, target, prior)
		if err == nil {
			if r.circuitBreaker != nil {
				r.circuitBreaker.RecordSuccess()
			}
			return ev, nil
		}
		lastErr = err

		if !perrors.IsRetryable(err) || attempt >= r.maxRetries {
			break
		}

		backoff := r.calculateBackoff(attempt)
		r.logger.Debug("backing off before retry", "delay_ms", backoff.Milliseconds(), "error", err.Error())

		timer := time.NewTimer(backoff)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			r.recordFailure()
			return nil, fmt.Errorf("context done during backoff: %w", ctx.Err())
		}

		attempt++
	}

	r.recordFailure()
	if attempt > 0 {
		return nil, fmt.Errorf("%s failed after %d attempts: %w", r.collector.Name(), attempt+1, lastErr)
	}
	return nil, lastErr
}

func (r *RetryableCollector) recordFailure() {
	if r.circuitBreaker != nil {
		r.circuitBreaker.RecordFailure()
	}
}

// Close cierra el colector subyacente.
func (r *RetryableCollector) Close() error {
	return r.collector.Close()
}

// calculateBackoff calcula el delay de backoff exponencial.
func (r *RetryableCollector) calculateBackoff(attempt int) time.Duration {
	multiplier := math.Pow(r.backoffMultiplier, float64(attempt))
	backoff := time.Duration(float64(r.backoffBase) * multiplier)
	if backoff > maxBackoff {
		backoff = maxBackoff
	}
	return backoff
}

// CircuitBreaker retorna el circuit breaker (nil si no tiene).
func (r *RetryableCollector) CircuitBreaker() *CircuitBreaker {
	return r.circuitBreaker
}

// Unwrap retorna el colector envuelto.
func (r *RetryableCollector) Unwrap() ports.Collector {
	return r.collector
}
