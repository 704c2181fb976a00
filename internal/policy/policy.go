// Package policy holds the deterministic forgetting strategies.
package policy

import (
	"sort"
	"time"

	"github.com/rcliao/dynamic-memory/internal/model"
)

// Strategy names.
const (
	LowImportanceName = "low_importance"
	OldUnusedName     = "old_unused"
)

// Defaults for the built-in strategies.
const (
	DefaultImportanceThreshold = 0.3
	DefaultRetention           = 30 * 24 * time.Hour
	DefaultMinAccessCount      = 2
)

// Strategy selects which memories to forget. It must be a pure function of
// its inputs.
type Strategy interface {
	Name() string
	Select(memories []model.Memory, now time.Time) []int64
}

// LowImportance selects every memory with importance strictly below
// Threshold.
type LowImportance struct {
	Threshold float64
}

func (LowImportance) Name() string { return LowImportanceName }

func (p LowImportance) Select(memories []model.Memory, now time.Time) []int64 {
	var ids []int64
	for _, m := range memories {
		if m.Importance < p.Threshold {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// OldUnused selects memories not accessed within Retention that also have
// fewer than MinAccessCount hits. Both conditions must hold.
type OldUnused struct {
	Retention      time.Duration
	MinAccessCount int
}

func (OldUnused) Name() string { return OldUnusedName }

func (p OldUnused) Select(memories []model.Memory, now time.Time) []int64 {
	cutoff := now.Add(-p.Retention)
	var ids []int64
	for _, m := range memories {
		if m.LastAccessedAt.Before(cutoff) && m.AccessCount < p.MinAccessCount {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// Registry maps strategy names to strategies.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates a registry holding strategies.
func NewRegistry(strategies ...Strategy) *Registry {
	r := &Registry{strategies: make(map[string]Strategy, len(strategies))}
	for _, s := range strategies {
		r.Register(s)
	}
	return r
}

// DefaultRegistry holds both built-in strategies with the default constants.
func DefaultRegistry() *Registry {
	return NewRegistry(
		LowImportance{Threshold: DefaultImportanceThreshold},
		OldUnused{Retention: DefaultRetention, MinAccessCount: DefaultMinAccessCount},
	)
}

// Register adds or replaces a strategy under its name.
func (r *Registry) Register(s Strategy) {
	r.strategies[s.Name()] = s
}

// Lookup returns the named strategy or an InvalidStrategy error.
func (r *Registry) Lookup(name string) (Strategy, error) {
	s, ok := r.strategies[name]
	if !ok {
		return nil, model.InvalidStrategy("forget", name)
	}
	return s, nil
}

// Names lists registered strategy names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.strategies))
	for n := range r.strategies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
