// Package llm defines the text-generation capability the engine consumes and
// the adapters that provide it.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrCallFailure covers transport errors, timeouts, open breakers and empty
// responses. Callers treat it as "no usable answer".
var ErrCallFailure = errors.New("llm call failure")

// Options tune a single generation call. Zero values mean provider defaults.
type Options struct {
	Temperature float64
	MaxTokens   int
}

// Generator is the single-string completion contract. The returned text is
// opaque; callers parse it themselves.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string, opts Options) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	return f(ctx, prompt, opts)
}

// Config selects and tunes a provider.
type Config struct {
	Provider       string
	BaseURL        string
	Model          string
	Timeout        time.Duration
	MaxFailures    uint32
	BreakerTimeout time.Duration
}

// KnownProviders lists the provider names New accepts.
func KnownProviders() []string {
	return []string{"mock", "ollama"}
}

// New builds the configured provider wrapped in a Guard.
func New(cfg Config) (Generator, error) {
	var gen Generator
	switch cfg.Provider {
	case "", "mock":
		gen = NewDemoMock()
	case "ollama":
		gen = NewOllama(OllamaConfig{BaseURL: cfg.BaseURL, Model: cfg.Model, Timeout: cfg.Timeout})
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
	return NewGuard(gen, GuardConfig{
		Timeout:        cfg.Timeout,
		MaxFailures:    cfg.MaxFailures,
		BreakerTimeout: cfg.BreakerTimeout,
	}), nil
}
