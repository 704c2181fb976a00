// Package prompt owns the per-task prompt templates and their optimization
// from example feedback. Templates are plain text with {name} placeholders;
// rendering is string substitution only.
package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rcliao/dynamic-memory/internal/llm"
	"github.com/rcliao/dynamic-memory/internal/model"
)

var placeholderRe = regexp.MustCompile(`\{([a-z_]+)\}`)

// Vars fill a template's placeholders.
type Vars map[string]string

// Example is one input and the output the task should have produced.
type Example struct {
	Input    string `json:"input" yaml:"input"`
	Expected string `json:"expected_output" yaml:"expected_output"`
}

// Revision records one accepted optimization.
type Revision struct {
	Task Task      `json:"task"`
	At   time.Time `json:"at"`
	Old  string    `json:"old"`
	New  string    `json:"new"`
}

// Learner holds one template per task. Each engine owns its own Learner.
type Learner struct {
	mu        sync.RWMutex
	gen       llm.Generator
	templates map[Task]string
	revisions []Revision
	attempts  int
	opts      llm.Options
	now       func() time.Time
}

// Option configures a Learner.
type Option func(*Learner)

// WithAttempts sets how many proposals Optimize requests before giving up.
func WithAttempts(n int) Option {
	return func(l *Learner) {
		if n > 0 {
			l.attempts = n
		}
	}
}

// WithOptions sets the generation options used for optimization calls.
func WithOptions(o llm.Options) Option {
	return func(l *Learner) { l.opts = o }
}

// WithClock overrides the revision timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Learner) { l.now = now }
}

// NewLearner creates a Learner seeded with the default templates.
func NewLearner(gen llm.Generator, opts ...Option) *Learner {
	l := &Learner{
		gen:       gen,
		templates: Defaults(),
		attempts:  1,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Render fills the task's template with vars. Placeholders without a value
// are left as written.
func (l *Learner) Render(task Task, vars Vars) (string, error) {
	l.mu.RLock()
	tmpl, ok := l.templates[task]
	l.mu.RUnlock()
	if !ok {
		return "", model.UnknownTask("render", string(task))
	}

	return placeholderRe.ReplaceAllStringFunc(tmpl, func(ph string) string {
		if v, ok := vars[ph[1:len(ph)-1]]; ok {
			return v
		}
		return ph
	}), nil
}

// Template returns the current template for task.
func (l *Learner) Template(task Task) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	tmpl, ok := l.templates[task]
	if !ok {
		return "", model.UnknownTask("template", string(task))
	}
	return tmpl, nil
}

// Templates returns a copy of every current template, for export.
func (l *Learner) Templates() map[Task]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[Task]string, len(l.templates))
	for k, v := range l.templates {
		out[k] = v
	}
	return out
}

// Tasks lists the registered task names in sorted order.
func (l *Learner) Tasks() []Task {
	l.mu.RLock()
	defer l.mu.RUnlock()
	tasks := make([]Task, 0, len(l.templates))
	for t := range l.templates {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i] < tasks[j] })
	return tasks
}

// Revisions returns the accepted optimizations, oldest first.
func (l *Learner) Revisions() []Revision {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Revision, len(l.revisions))
	copy(out, l.revisions)
	return out
}

// Apply installs template overrides. Every override is validated first; on
// any failure nothing is changed.
func (l *Learner) Apply(overrides map[Task]string) error {
	for task, text := range overrides {
		if _, ok := taskPlaceholders[task]; !ok {
			return model.UnknownTask("apply", string(task))
		}
		if err := Validate(task, text); err != nil {
			return model.OptimizationRejected("apply", string(task), err)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for task, text := range overrides {
		l.templates[task] = strings.TrimSpace(text)
	}
	return nil
}

// Optimize asks the model for a template that better fits examples. The
// stored template is replaced only by a proposal that passes Validate and
// only if the template was not changed while the model was working;
// otherwise it is left as is and ErrOptimizationRejected is returned.
func (l *Learner) Optimize(ctx context.Context, task Task, examples []Example, feedback string) (string, error) {
	current, err := l.Template(task)
	if err != nil {
		return "", err
	}

	meta, err := optimizerPrompt(task, current, examples, feedback)
	if err != nil {
		return "", err
	}

	var lastErr error
	for i := 0; i < l.attempts; i++ {
		out, err := l.gen.Generate(ctx, meta, l.opts)
		if err != nil {
			lastErr = err
			continue
		}
		proposal := cleanProposal(out)
		if err := Validate(task, proposal); err != nil {
			lastErr = err
			continue
		}

		l.mu.Lock()
		if l.templates[task] != current {
			l.mu.Unlock()
			return "", model.OptimizationRejected("optimize", string(task), errors.New("template changed while optimizing"))
		}
		l.templates[task] = proposal
		l.revisions = append(l.revisions, Revision{Task: task, At: l.now(), Old: current, New: proposal})
		l.mu.Unlock()
		return proposal, nil
	}
	if lastErr == nil {
		lastErr = errors.New("no proposal")
	}
	return "", model.OptimizationRejected("optimize", string(task), lastErr)
}

// Validate checks a template for task: it must be non-empty, contain every
// required placeholder, and use no placeholder the task cannot fill.
func Validate(task Task, text string) error {
	sp, ok := taskPlaceholders[task]
	if !ok {
		return model.UnknownTask("validate", string(task))
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("empty template")
	}

	found := Placeholders(text)
	have := make(map[string]bool, len(found))
	for _, p := range found {
		have[p] = true
	}

	var missing []string
	for _, r := range sp.required {
		if !have[r] {
			missing = append(missing, "{"+r+"}")
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing placeholders %s", strings.Join(missing, ", "))
	}

	allowed := make(map[string]bool)
	for _, p := range sp.required {
		allowed[p] = true
	}
	for _, p := range sp.optional {
		allowed[p] = true
	}
	for _, p := range found {
		if !allowed[p] {
			return fmt.Errorf("unsupported placeholder {%s}", p)
		}
	}
	return nil
}

// Placeholders lists the distinct placeholder names in text, in order of
// first appearance.
func Placeholders(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

func optimizerPrompt(task Task, current string, examples []Example, feedback string) (string, error) {
	sp := taskPlaceholders[task]
	ex, err := json.MarshalIndent(examples, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode examples: %w", err)
	}
	fb := ""
	if strings.TrimSpace(feedback) != "" {
		fb = "\nFeedback:\n" + feedback + "\n"
	}
	opt := "(none)"
	if len(sp.optional) > 0 {
		opt = braced(sp.optional)
	}
	return fmt.Sprintf(optimizerTemplate, braced(sp.required), opt, current, string(ex), fb), nil
}

func braced(names []string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = "{" + n + "}"
	}
	return strings.Join(parts, ", ")
}

// cleanProposal strips code fences and surrounding whitespace.
func cleanProposal(out string) string {
	s := strings.TrimSpace(out)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl >= 0 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
