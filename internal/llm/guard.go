package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// GuardConfig holds the per-call timeout and circuit breaker settings.
type GuardConfig struct {
	// Timeout bounds every call. Default: 30 seconds
	Timeout time.Duration

	// MaxFailures is the number of consecutive failures that trips the breaker.
	// Default: 5
	MaxFailures uint32

	// BreakerTimeout is how long the breaker stays open before a trial call.
	// Default: 30 seconds
	BreakerTimeout time.Duration
}

// Guard wraps a Generator so that every failure mode surfaces as
// ErrCallFailure: timeouts, transport errors, an open breaker, and blank output.
type Guard struct {
	next    Generator
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
}

// NewGuard wraps next with a timeout and a circuit breaker.
func NewGuard(next Generator, cfg GuardConfig) *Guard {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
	}

	return &Guard{
		next:    next,
		timeout: cfg.Timeout,
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

func (g *Guard) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	out, err := g.breaker.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		text, err := g.next.Generate(callCtx, prompt, opts)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			return nil, errors.New("empty response")
		}
		return text, nil
	})
	if err != nil {
		if errors.Is(err, ErrCallFailure) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrCallFailure, err)
	}
	return out.(string), nil
}

// State reports the breaker state: closed, open or half-open.
func (g *Guard) State() string {
	return g.breaker.State().String()
}
