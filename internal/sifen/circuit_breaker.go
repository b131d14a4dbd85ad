package sifen

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen se retorna sin contactar al gateway mientras el circuito está abierto
var ErrCircuitOpen = errors.New("sifen circuit breaker is open")

// BreakerState representa el estado del circuit breaker
type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

// String implementa fmt.Stringer
func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// CircuitBreaker abre el circuito tras maxFailures fallos consecutivos y prueba
// nuevamente pasado el cooldown. En half-open, un fallo lo reabre y successThreshold
// éxitos lo cierran.
type CircuitBreaker struct {
	maxFailures      int
	cooldown         time.Duration
	successThreshold int
	now              func() time.Time

	mu              sync.Mutex
	state           BreakerState
	failures        int
	successes       int
	lastStateChange time.Time
}

// NewCircuitBreaker crea un circuit breaker cerrado
func NewCircuitBreaker(maxFailures int, cooldown time.Duration) *CircuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &CircuitBreaker{
		maxFailures:      maxFailures,
		cooldown:         cooldown,
		successThreshold: 3,
		now:              time.Now,
		state:            BreakerClosed,
	}
}

// Execute ejecuta fn si el circuito lo permite y registra el resultado.
// Los errores para los que countable retorna false no cuentan como fallo del gateway.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error, countable func(error) bool) error {
	if err := cb.allow(); err != nil {
		return err
	}

	err := fn(ctx)
	if err != nil && countable != nil && !countable(err) {
		cb.record(nil)
		return err
	}
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != BreakerOpen {
		return nil
	}
	if cb.now().Sub(cb.lastStateChange) < cb.cooldown {
		return ErrCircuitOpen
	}
	cb.transition(BreakerHalfOpen)
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err != nil {
		cb.failures++
		switch cb.state {
		case BreakerHalfOpen:
			cb.transition(BreakerOpen)
		case BreakerClosed:
			if cb.failures >= cb.maxFailures {
				cb.transition(BreakerOpen)
			}
		}
		return
	}

	cb.failures = 0
	if cb.state == BreakerHalfOpen {
		cb.successes++
		if cb.successes >= cb.successThreshold {
			cb.transition(BreakerClosed)
		}
	}
}

func (cb *CircuitBreaker) transition(to BreakerState) {
	cb.state = to
	cb.successes = 0
	if to == BreakerClosed {
		cb.failures = 0
	}
	cb.lastStateChange = cb.now()
}

// State retorna el estado actual
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
