// Package engine composes the prompt learner, the LLM capability, the store
// and the forgetting policies into the store / retrieve / update / forget
// lifecycle.
//
// LLM calls are made outside the store lock. Every parse path has a
// deterministic fallback, so a misbehaving model degrades output quality but
// never fails an operation; only structural errors reach the caller.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/dynamic-memory/internal/llm"
	"github.com/rcliao/dynamic-memory/internal/logging"
	"github.com/rcliao/dynamic-memory/internal/model"
	"github.com/rcliao/dynamic-memory/internal/policy"
	"github.com/rcliao/dynamic-memory/internal/prompt"
	"github.com/rcliao/dynamic-memory/internal/store"
)

// DefaultImportance is used when the importance answer cannot be parsed.
const DefaultImportance = 0.5

// Engine is the dynamic memory engine. It is safe for concurrent use.
type Engine struct {
	store       *store.Store
	gen         llm.Generator
	learner     *prompt.Learner
	policies    *policy.Registry
	genOpts     llm.Options
	batch       bool
	concurrency int
	now         func() time.Time
	writes      idLocks
}

// Option configures an Engine.
type Option func(*Engine)

// WithLearner replaces the default prompt learner.
func WithLearner(l *prompt.Learner) Option {
	return func(e *Engine) { e.learner = l }
}

// WithPolicies replaces the default forgetting strategies.
func WithPolicies(r *policy.Registry) Option {
	return func(e *Engine) { e.policies = r }
}

// WithGenerateOptions sets the options passed on every LLM call.
func WithGenerateOptions(o llm.Options) Option {
	return func(e *Engine) { e.genOpts = o }
}

// WithBatchRelevance scores all retrieval candidates in a single call.
func WithBatchRelevance(on bool) Option {
	return func(e *Engine) { e.batch = on }
}

// WithConcurrency bounds parallel per-candidate relevance calls.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine over st using gen for every LLM call.
func New(st *store.Store, gen llm.Generator, opts ...Option) *Engine {
	e := &Engine{
		store:       st,
		gen:         gen,
		policies:    policy.DefaultRegistry(),
		concurrency: 4,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(e)
	}
	if e.learner == nil {
		e.learner = prompt.NewLearner(gen)
	}
	return e
}

// Learner exposes the engine's prompt learner.
func (e *Engine) Learner() *prompt.Learner { return e.learner }

// Policies exposes the forgetting strategy registry.
func (e *Engine) Policies() *policy.Registry { return e.policies }

// Memories returns every record ordered by id.
func (e *Engine) Memories() []model.Memory { return e.store.List("") }

// Get returns one record without touching its access bookkeeping.
func (e *Engine) Get(id int64) (model.Memory, error) {
	m, err := e.store.Get(id)
	if errors.Is(err, model.ErrNotFound) {
		return m, model.NotFound("get", id)
	}
	return m, err
}

// Statistics summarizes the store. No LLM calls, no side effects.
func (e *Engine) Statistics() store.Stats { return e.store.Stats() }

// Close releases the store.
func (e *Engine) Close() error { return e.store.Close() }

// ask renders task and calls the model. Any non-structural failure is
// reported as llm.ErrCallFailure.
func (e *Engine) ask(ctx context.Context, task prompt.Task, vars prompt.Vars) (string, error) {
	p, err := e.learner.Render(task, vars)
	if err != nil {
		return "", err
	}
	out, err := e.gen.Generate(ctx, p, e.genOpts)
	if err != nil {
		if errors.Is(err, llm.ErrCallFailure) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", llm.ErrCallFailure, err)
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%w: empty response", llm.ErrCallFailure)
	}
	return out, nil
}

// structural reports errors that must reach the caller instead of being
// absorbed by a fallback.
func structural(err error) bool {
	return errors.Is(err, model.ErrUnknownTask)
}

func (e *Engine) warn(ctx context.Context, step string, id int64, err error, msg string) {
	ev := logging.FromCtx(ctx).Warn().Str("step", step)
	if id > 0 {
		ev = ev.Int64("id", id)
	}
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg(msg)
}

// idLocks serializes read-modify-write cycles on the same memory id. Entries
// are dropped once no caller holds or waits on them.
type idLocks struct {
	mu    sync.Mutex
	locks map[int64]*idLock
}

type idLock struct {
	mu   sync.Mutex
	refs int
}

func (l *idLocks) lock(id int64) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[int64]*idLock)
	}
	k, ok := l.locks[id]
	if !ok {
		k = &idLock{}
		l.locks[id] = k
	}
	k.refs++
	l.mu.Unlock()

	k.mu.Lock()
	return func() {
		k.mu.Unlock()
		l.mu.Lock()
		k.refs--
		if k.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (e *Engine) newEntryID(at time.Time) string {
	return ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String()
}

// formatContext renders caller context as sorted "key: value" lines.
func formatContext(c map[string]string) string {
	if len(c) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + ": " + c[k]
	}
	return strings.Join(lines, "\n")
}

func contextGoal(c map[string]string) string {
	if g := strings.TrimSpace(c["goal"]); g != "" {
		return g
	}
	if len(c) == 0 {
		return "no specific goal"
	}
	return formatContext(c)
}
