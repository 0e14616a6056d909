// internal/platform/resilience/circuit_breaker.go
package resilience

import (
	"sync"
	"time"

	perrors "trustscan/internal/platform/errors"
)

// ErrCircuitOpen se devuelve cuando el breaker rechaza la llamada.
var ErrCircuitOpen = perrors.ErrCircuitOpen

// State representa el estado del circuit breaker.
type State int

const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Failing, rejecting requests
	StateHalfOpen              // Testing if service recovered
)

// String retorna el nombre del estado.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker implementa el patrón Circuit Breaker para dejar de
// consultar colectores cuyo servicio externo está caído.
type CircuitBreaker struct {
	mu              sync.Mutex
	state           State
	failureCount    int
	successCount    int
	inFlight        int
	lastFailureTime time.Time
	lastSuccessTime time.Time
	now             func() time.Time

	// Config
	failureThreshold int           // Failures to open circuit
	timeout          time.Duration // Time to wait before half-open
	halfOpenMax      int           // Probes allowed (and successes required) in half-open
}

// NewCircuitBreaker crea un nuevo circuit breaker.
func NewCircuitBreaker(failureThreshold int, timeout time.Duration, halfOpenMax int) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if halfOpenMax <= 0 {
		halfOpenMax = 1
	}

	return &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: failureThreshold,
		timeout:          timeout,
		halfOpenMax:      halfOpenMax,
		now:              time.Now,
	}
}

// SetClock reemplaza el reloj (tests).
func (cb *CircuitBreaker) SetClock(now func() time.Time) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.now = now
}

// Allow verifica si una request puede pasar. En half-open solo se admiten
// halfOpenMax pruebas simultáneas.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true

	case StateOpen:
		if cb.now().Sub(cb.lastFailureTime) < cb.timeout {
			return false
		}
		cb.state = StateHalfOpen
		cb.successCount = 0
		cb.failureCount = 0
		cb.inFlight = 1
		return true

	case StateHalfOpen:
		if cb.inFlight+cb.successCount < cb.halfOpenMax {
			cb.inFlight++
			return true
		}
		return false

	default:
		return false
	}
}

// RecordSuccess registra una operación exitosa.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastSuccessTime = cb.now()

	switch cb.state {
	case StateClosed:
		cb.failureCount = 0

	case StateHalfOpen:
		cb.release()
		cb.successCount++
		if cb.successCount >= cb.halfOpenMax {
			cb.state = StateClosed
			cb.failureCount = 0
			cb.successCount = 0
			cb.inFlight = 0
		}
	}
}

// RecordFailure registra una operación fallida.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailureTime = cb.now()

	switch cb.state {
	case StateClosed:
		cb.failureCount++
		if cb.failureCount >= cb.failureThreshold {
			cb.state = StateOpen
		}

	case StateHalfOpen:
		// Una sola falla en half-open reabre el circuito
		cb.state = StateOpen
		cb.successCount = 0
		cb.failureCount = 0
		cb.inFlight = 0
	}
}

func (cb *CircuitBreaker) release() {
	if cb.inFlight > 0 {
		cb.inFlight--
	}
}

// State retorna el estado actual del circuit breaker.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset vuelve el breaker a closed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.state = StateClosed
	cb.failureCount = 0
	cb.successCount = 0
	cb.inFlight = 0
}

// Stats snapshot del breaker para logging.
type Stats struct {
	State           State
	FailureCount    int
	SuccessCount    int
	LastFailureTime time.Time
	LastSuccessTime time.Time
}

// Stats retorna estadísticas del circuit breaker.
func (cb *CircuitBreaker) Stats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return Stats{
		State:           cb.state,
		FailureCount:    cb.failureCount,
		SuccessCount:    cb.successCount,
		LastFailureTime: cb.lastFailureTime,
		LastSuccessTime: cb.lastSuccessTime,
	}
}
