package prompt

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/dynamic-memory/internal/llm"
	"github.com/rcliao/dynamic-memory/internal/model"
)

func TestDefaultsAreValid(t *testing.T) {
	for task, text := range Defaults() {
		assert.NoError(t, Validate(task, text), "default template for %s", task)
	}
}

func TestRender(t *testing.T) {
	l := NewLearner(llm.NewMock())

	out, err := l.Render(TaskUpdate, Vars{"old_memory": "Go is fast", "new_info": "Go has {text} braces"})
	require.NoError(t, err)
	assert.Contains(t, out, "Go is fast")
	assert.Contains(t, out, "Go has {text} braces", "substituted values are not re-expanded")
	assert.NotContains(t, out, "{old_memory}")

	out, err = l.Render(TaskRelevance, Vars{"query": "q", "memory": "m"})
	require.NoError(t, err)
	assert.Contains(t, out, "{memory_type}", "missing vars stay literal")
}

func TestRenderUnknownTask(t *testing.T) {
	l := NewLearner(llm.NewMock())
	_, err := l.Render("summarize", nil)
	assert.ErrorIs(t, err, model.ErrUnknownTask)
	assert.Contains(t, err.Error(), `"summarize"`)
}

func TestValidate(t *testing.T) {
	assert.Error(t, Validate(TaskUpdate, "   "))
	assert.ErrorContains(t, Validate(TaskUpdate, "merge {old_memory}"), "{new_info}")
	assert.ErrorContains(t, Validate(TaskUpdate, "{old_memory} {new_info} {secret}"), "{secret}")
	assert.NoError(t, Validate(TaskUpdate, `{old_memory} + {new_info} as {"json": true}`))
	assert.ErrorIs(t, Validate("nope", "x"), model.ErrUnknownTask)
}

func TestPlaceholders(t *testing.T) {
	got := Placeholders(`{a} {b_c} {a} {"x": 1} {Upper}`)
	assert.Equal(t, []string{"a", "b_c"}, got)
}

func TestOptimizeAccepts(t *testing.T) {
	proposal := "```\nBetter merge.\nOld: {old_memory}\nNew: {new_info}\n```"
	m := llm.NewMock().On("You improve prompt templates", proposal)
	l := NewLearner(m)

	got, err := l.Optimize(context.Background(), TaskUpdate, []Example{{Input: "a + b", Expected: "ab"}}, "too verbose")
	require.NoError(t, err)
	assert.Equal(t, "Better merge.\nOld: {old_memory}\nNew: {new_info}", got)

	tmpl, _ := l.Template(TaskUpdate)
	assert.Equal(t, got, tmpl)

	revs := l.Revisions()
	require.Len(t, revs, 1)
	assert.Equal(t, TaskUpdate, revs[0].Task)
	assert.Equal(t, defaultUpdate, revs[0].Old)

	calls := m.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], "a + b")
	assert.Contains(t, calls[0], "too verbose")
	assert.Contains(t, calls[0], "{old_memory}, {new_info}")
}

func TestOptimizeRejects(t *testing.T) {
	cases := map[string]*llm.Mock{
		"missing placeholder": llm.NewMock().Fallback("merge {old_memory} only"),
		"empty":               llm.NewMock().Fallback("  "),
		"call failure":        llm.NewMock().Fail("", errors.New("timeout")),
	}
	for name, m := range cases {
		t.Run(name, func(t *testing.T) {
			l := NewLearner(m)
			_, err := l.Optimize(context.Background(), TaskUpdate, nil, "")
			assert.ErrorIs(t, err, model.ErrOptimizationRejected)

			tmpl, _ := l.Template(TaskUpdate)
			assert.Equal(t, defaultUpdate, tmpl, "template must be left intact")
			assert.Empty(t, l.Revisions())
		})
	}
}

// applyingGenerator installs override on l while the optimization call is
// in flight, then proposes a valid template.
type applyingGenerator struct {
	l        *Learner
	override string
	err      error
}

func (g *applyingGenerator) Generate(ctx context.Context, p string, _ llm.Options) (string, error) {
	g.err = g.l.Apply(map[Task]string{TaskUpdate: g.override})
	return "Proposed.\nOld: {old_memory}\nNew: {new_info}", nil
}

func TestOptimizeKeepsConcurrentApply(t *testing.T) {
	g := &applyingGenerator{override: "Edited.\n{old_memory}\n{new_info}"}
	l := NewLearner(g)
	g.l = l

	_, err := l.Optimize(context.Background(), TaskUpdate, nil, "")
	require.NoError(t, g.err)
	assert.ErrorIs(t, err, model.ErrOptimizationRejected)

	tmpl, _ := l.Template(TaskUpdate)
	assert.Equal(t, g.override, tmpl)
	assert.Empty(t, l.Revisions())
}

func TestOptimizeRetriesUpToAttempts(t *testing.T) {
	n := 0
	gen := llm.GeneratorFunc(func(ctx context.Context, p string, o llm.Options) (string, error) {
		n++
		if n < 3 {
			return "bad", nil
		}
		return "Rate: {memory}", nil
	})
	l := NewLearner(gen, WithAttempts(3))
	got, err := l.Optimize(context.Background(), TaskImportance, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "Rate: {memory}", got)
	assert.Equal(t, 3, n)
}

func TestOptimizeUnknownTask(t *testing.T) {
	l := NewLearner(llm.NewMock())
	_, err := l.Optimize(context.Background(), "dream", nil, "")
	assert.ErrorIs(t, err, model.ErrUnknownTask)
}

func TestIndependentLearners(t *testing.T) {
	a := NewLearner(llm.NewMock())
	b := NewLearner(llm.NewMock())
	require.NoError(t, a.Apply(map[Task]string{TaskRelevance: "{query} vs {memory}"}))

	ta, _ := a.Template(TaskRelevance)
	tb, _ := b.Template(TaskRelevance)
	assert.Equal(t, "{query} vs {memory}", ta)
	assert.Equal(t, defaultRelevance, tb)
}

func TestApplyIsAllOrNothing(t *testing.T) {
	l := NewLearner(llm.NewMock())
	err := l.Apply(map[Task]string{
		TaskRelevance: "{query} vs {memory}",
		TaskUpdate:    "broken",
	})
	assert.ErrorIs(t, err, model.ErrOptimizationRejected)

	tmpl, _ := l.Template(TaskRelevance)
	assert.Equal(t, defaultRelevance, tmpl)
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts", "prompts.yaml")

	empty, err := LoadFile(path)
	require.NoError(t, err)
	assert.Empty(t, empty)

	l := NewLearner(llm.NewMock())
	require.NoError(t, l.Apply(map[Task]string{TaskRelevance: "multi\nline {query} / {memory}"}))
	require.NoError(t, SaveFile(path, l))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "multi\nline {query} / {memory}", loaded[TaskRelevance])
	assert.Len(t, loaded, len(Defaults()))

	fresh := NewLearner(llm.NewMock())
	require.NoError(t, fresh.Apply(loaded))
	assert.Equal(t, l.Templates(), fresh.Templates())
}

func TestTasksSorted(t *testing.T) {
	tasks := NewLearner(llm.NewMock()).Tasks()
	require.Len(t, tasks, len(Defaults()))
	for i := 1; i < len(tasks); i++ {
		assert.True(t, strings.Compare(string(tasks[i-1]), string(tasks[i])) < 0)
	}
}

func TestLoadRestoresRevisions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	proposal := "Judge {query} against {memory}"
	l := NewLearner(llm.NewMock().On("You improve prompt templates", proposal))
	_, err := l.Optimize(context.Background(), TaskRelevance, nil, "")
	require.NoError(t, err)
	require.NoError(t, SaveFile(path, l))

	fresh := NewLearner(llm.NewMock())
	require.NoError(t, Load(path, fresh))

	tmpl, err := fresh.Template(TaskRelevance)
	require.NoError(t, err)
	assert.Equal(t, proposal, tmpl)
	require.Len(t, fresh.Revisions(), 1)
	assert.Equal(t, defaultRelevance, fresh.Revisions()[0].Old)

	missing := NewLearner(llm.NewMock())
	require.NoError(t, Load(filepath.Join(t.TempDir(), "none.yaml"), missing))
	assert.Equal(t, Defaults(), missing.Templates())
}
