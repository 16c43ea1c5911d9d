package reverso

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// BreakerConfig holds the circuit breaker thresholds
type BreakerConfig struct {
	Failures uint32        // Consecutive failures that open the circuit
	Cooldown time.Duration // How long the circuit stays open before probing again
}

// DefaultBreakerConfig returns the default breaker thresholds
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Failures: 5,
		Cooldown: 30 * time.Second,
	}
}

// Breaker stops calling a failing collaborator for a while. It never retries.
type Breaker struct {
	next Collaborator
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps next with a circuit breaker
func NewBreaker(name string, next Collaborator, config BreakerConfig) *Breaker {
	if config.Failures == 0 {
		config.Failures = DefaultBreakerConfig().Failures
	}

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     config.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.Failures
		},
		// A caller walking away says nothing about the helper's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker changed state")
		},
	}

	return &Breaker{
		next: next,
		cb:   gobreaker.NewCircuitBreaker(settings),
	}
}

// Invoke forwards req unless the circuit is open. Only invocation errors
// count against the circuit; payloads, including ok=false ones, are answers
// about a single word and pass through untouched.
func (b *Breaker) Invoke(ctx context.Context, req Request) (Payload, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		payload, err := b.next.Invoke(ctx, req)
		return payload, err
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	case err != nil:
		return nil, err
	default:
		payload, _ := out.(Payload)
		return payload, nil
	}
}

// State returns the current breaker state
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
