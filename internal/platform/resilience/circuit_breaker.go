package resilience

import (
	"errors"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/sony/gobreaker"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

const (
	defaultFailureThreshold = 5
	defaultOpenTimeout      = 15 * time.Second
	defaultHalfOpenMaxReq   = 2
)

// CircuitBreakerConfig mirrors the QSTASH_CIRCUIT_* settings. Zero values fall back to defaults.
type CircuitBreakerConfig struct {
	Enabled          bool
	FailureThreshold int
	OpenTimeout      time.Duration
	HalfOpenMaxReq   int
}

func (c CircuitBreakerConfig) withDefaults() CircuitBreakerConfig {
	if c.FailureThreshold < 1 {
		c.FailureThreshold = defaultFailureThreshold
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = defaultOpenTimeout
	}
	if c.HalfOpenMaxReq < 1 {
		c.HalfOpenMaxReq = defaultHalfOpenMaxReq
	}
	return c
}

// CircuitBreaker guards calls to one outbound dependency.
type CircuitBreaker struct {
	cb      *gobreaker.CircuitBreaker
	enabled bool
}

// StateChangeFunc is notified on every breaker transition.
type StateChangeFunc func(name string, from, to CircuitState)

// NewCircuitBreaker builds a breaker that opens after FailureThreshold consecutive failures.
// isFailure decides which errors count against the dependency; nil counts every error.
func NewCircuitBreaker(name string, cfg CircuitBreakerConfig, isFailure func(error) bool, onChange StateChangeFunc) *CircuitBreaker {
	cfg = cfg.withDefaults()
	threshold := uint32(cfg.FailureThreshold)

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: uint32(cfg.HalfOpenMaxReq),
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
	}
	if isFailure != nil {
		settings.IsSuccessful = func(err error) bool {
			return err == nil || !isFailure(err)
		}
	}
	if onChange != nil {
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			onChange(name, toCircuitState(from), toCircuitState(to))
		}
	}

	return &CircuitBreaker{
		cb:      gobreaker.NewCircuitBreaker(settings),
		enabled: cfg.Enabled,
	}
}

// Execute runs fn through the breaker. Rejections are reported as ErrCircuitOpen.
func (b *CircuitBreaker) Execute(fn func() error) error {
	if b == nil || !b.enabled {
		return fn()
	}

	_, err := b.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return crerr.Mark(crerr.Wrapf(err, "breaker %s", b.cb.Name()), ErrCircuitOpen)
	}
	return err
}

func (b *CircuitBreaker) State() CircuitState {
	if b == nil || !b.enabled {
		return CircuitStateClosed
	}
	return toCircuitState(b.cb.State())
}

func toCircuitState(state gobreaker.State) CircuitState {
	switch state {
	case gobreaker.StateOpen:
		return CircuitStateOpen
	case gobreaker.StateHalfOpen:
		return CircuitStateHalfOpen
	default:
		return CircuitStateClosed
	}
}
