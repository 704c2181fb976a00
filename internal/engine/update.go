package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/rcliao/dynamic-memory/internal/logging"
	"github.com/rcliao/dynamic-memory/internal/model"
	"github.com/rcliao/dynamic-memory/internal/prompt"
)

// UpdateMode selects how new information changes a memory's content.
type UpdateMode string

const (
	ModeMerge   UpdateMode = "merge"
	ModeReplace UpdateMode = "replace"
	ModeRefine  UpdateMode = "refine"

	modeReclassify = "reclassify"
)

// ParseMode validates a mode name. The empty string means merge.
func ParseMode(s string) (UpdateMode, bool) {
	switch UpdateMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeMerge:
		return ModeMerge, true
	case ModeReplace:
		return ModeReplace, true
	case ModeRefine:
		return ModeRefine, true
	}
	return "", false
}

// Update changes memory id according to mode, re-assesses its importance and
// appends one history entry. Type, confidence and access bookkeeping are kept.
// Concurrent updates of the same id are applied one after another.
func (e *Engine) Update(ctx context.Context, id int64, newText string, mode UpdateMode) (model.Memory, error) {
	if _, ok := ParseMode(string(mode)); !ok {
		return model.Memory{}, model.InvalidInput("update", "unknown mode "+string(mode))
	}
	if mode == "" {
		mode = ModeMerge
	}
	if strings.TrimSpace(newText) == "" {
		return model.Memory{}, model.InvalidInput("update", "new information is empty")
	}

	unlock := e.writes.lock(id)
	defer unlock()

	cur, err := e.store.Get(id)
	if err != nil {
		return model.Memory{}, model.NotFound("update", id)
	}

	var content string
	switch mode {
	case ModeReplace:
		content = newText
	case ModeMerge:
		content, err = e.combine(ctx, prompt.TaskUpdate, "merge", cur, newText)
	case ModeRefine:
		content, err = e.combine(ctx, prompt.TaskRefine, "refine", cur, newText)
	}
	if err != nil {
		return model.Memory{}, err
	}

	importance, err := e.assessImportance(ctx, id, content, cur.Type, cur.AccessCount, cur.Context)
	if err != nil {
		return model.Memory{}, err
	}

	now := e.now()
	updated, err := e.store.Mutate(ctx, id, func(m *model.Memory) error {
		m.History = append(m.History, model.HistoryEntry{
			ID:              e.newEntryID(now),
			Mode:            string(mode),
			PreviousContent: m.Content,
			NewInfo:         newText,
			At:              now,
		})
		m.Content = content
		m.Importance = importance
		return nil
	})
	if errors.Is(err, model.ErrNotFound) {
		return model.Memory{}, model.NotFound("update", id)
	}
	if err != nil {
		return model.Memory{}, err
	}

	logging.FromCtx(ctx).Debug().Str("op", "update").Int64("id", id).
		Str("mode", string(mode)).Int("history", len(updated.History)).Msg("memory updated")
	return updated, nil
}

// combine asks the model to fold newText into cur. Failures fall back to
// plain concatenation.
func (e *Engine) combine(ctx context.Context, task prompt.Task, step string, cur model.Memory, newText string) (string, error) {
	out, err := e.ask(ctx, task, prompt.Vars{
		"old_memory": cur.Content,
		"new_info":   newText,
	})
	if err != nil {
		if structural(err) {
			return "", err
		}
		e.warn(ctx, step, cur.ID, err, "combine failed, concatenating")
		return cur.Content + " " + newText, nil
	}
	return strings.TrimSpace(out), nil
}

// Reclassify re-runs classification on a memory's current content. When the
// answer is unusable the existing type and confidence are kept and no
// history entry is written.
func (e *Engine) Reclassify(ctx context.Context, id int64) (model.Memory, error) {
	unlock := e.writes.lock(id)
	defer unlock()

	cur, err := e.store.Get(id)
	if err != nil {
		return model.Memory{}, model.NotFound("reclassify", id)
	}

	typ, confidence, ok, err := e.classify(ctx, id, cur.Content, cur.Context)
	if err != nil {
		return model.Memory{}, err
	}
	if !ok {
		return cur, nil
	}

	now := e.now()
	updated, err := e.store.Mutate(ctx, id, func(m *model.Memory) error {
		m.History = append(m.History, model.HistoryEntry{
			ID:              e.newEntryID(now),
			Mode:            modeReclassify,
			PreviousContent: m.Content,
			PreviousType:    m.Type,
			At:              now,
		})
		m.Type = typ
		m.Confidence = confidence
		return nil
	})
	if errors.Is(err, model.ErrNotFound) {
		return model.Memory{}, model.NotFound("reclassify", id)
	}
	return updated, err
}
