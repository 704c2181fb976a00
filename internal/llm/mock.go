package llm

import (
	"context"
	"strings"
	"sync"
)

// Rule answers any prompt containing Contains. Err, if set, is returned
// instead of Reply; Func, if set, computes the reply from the prompt.
type Rule struct {
	Contains string
	Reply    string
	Err      error
	Func     func(prompt string) string
}

// Mock is a canned-output Generator. Rules are checked in order and the first
// match wins; unmatched prompts get Fallback. Safe for concurrent use.
type Mock struct {
	mu       sync.Mutex
	rules    []Rule
	fallback string
	calls    []string
}

// NewMock creates a Mock with the given rules.
func NewMock(rules ...Rule) *Mock {
	return &Mock{rules: rules}
}

// On appends a rule and returns the mock for chaining.
func (m *Mock) On(contains, reply string) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, Rule{Contains: contains, Reply: reply})
	return m
}

// Fail appends a rule that returns err.
func (m *Mock) Fail(contains string, err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, Rule{Contains: contains, Err: err})
	return m
}

// Fallback sets the reply for prompts no rule matches.
func (m *Mock) Fallback(reply string) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = reply
	return m
}

func (m *Mock) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, prompt)

	for _, r := range m.rules {
		if strings.Contains(prompt, r.Contains) {
			if r.Err != nil {
				return "", r.Err
			}
			if r.Func != nil {
				return r.Func(prompt), nil
			}
			return r.Reply, nil
		}
	}
	return m.fallback, nil
}

// Calls returns the prompts received so far.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallsContaining counts received prompts containing s.
func (m *Mock) CallsContaining(s string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if strings.Contains(c, s) {
			n++
		}
	}
	return n
}

// NewDemoMock returns a keyword-driven mock so the CLI works without a model.
// The markers match the default prompt templates.
func NewDemoMock() *Mock {
	return NewMock(
		Rule{Contains: "Classify the text", Reply: `{"type": "semantic", "confidence": 0.6, "reasoning": "offline mock"}`},
		Rule{Contains: "Restate the information", Func: func(p string) string { return section(p, "Text:") }},
		Rule{Contains: "Rate the importance", Reply: "0.5"},
		Rule{Contains: "Judge how relevant", Reply: "0.5"},
		Rule{Contains: "Score each candidate", Reply: "{}"},
		Rule{Contains: "New information:", Func: func(p string) string {
			return section(p, "Existing memory:") + " " + section(p, "New information:")
		}},
	)
}

// section returns the lines following marker up to the next blank line.
func section(prompt, marker string) string {
	i := strings.Index(prompt, marker)
	if i < 0 {
		return ""
	}
	rest := strings.TrimLeft(prompt[i+len(marker):], " \t")
	rest = strings.TrimPrefix(rest, "\n")
	if j := strings.Index(rest, "\n\n"); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest)
}
