package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rcliao/dynamic-memory/internal/chunker"
	"github.com/rcliao/dynamic-memory/internal/logging"
	"github.com/rcliao/dynamic-memory/internal/model"
	"github.com/rcliao/dynamic-memory/internal/prompt"
)

// Store classifies, restates and scores text, then inserts it as a new
// memory. Model failures fall back to defaults; the record is always fully
// populated.
func (e *Engine) Store(ctx context.Context, text string, memCtx map[string]string) (model.Memory, error) {
	if strings.TrimSpace(text) == "" {
		return model.Memory{}, model.InvalidInput("store", "text is empty")
	}
	if len(memCtx) == 0 {
		memCtx = nil
	}

	typ, confidence, _, err := e.classify(ctx, 0, text, memCtx)
	if err != nil {
		return model.Memory{}, err
	}

	content, err := e.extract(ctx, text, typ, memCtx)
	if err != nil {
		return model.Memory{}, err
	}

	importance, err := e.assessImportance(ctx, 0, content, typ, 0, memCtx)
	if err != nil {
		return model.Memory{}, err
	}

	now := e.now()
	m, err := e.store.Insert(ctx, model.Memory{
		Type:           typ,
		Content:        content,
		Confidence:     confidence,
		Importance:     importance,
		CreatedAt:      now,
		LastAccessedAt: now,
		AccessCount:    0,
		Context:        memCtx,
		History:        []model.HistoryEntry{},
	})
	if err != nil {
		return model.Memory{}, err
	}

	logging.FromCtx(ctx).Debug().Str("op", "store").Int64("id", m.ID).
		Str("type", string(m.Type)).Float64("importance", m.Importance).Msg("memory stored")
	return m, nil
}

// Ingest splits text into sentences and stores each one with memCtx. It
// stops at the first structural error and returns what was stored so far.
func (e *Engine) Ingest(ctx context.Context, text string, memCtx map[string]string) ([]model.Memory, error) {
	sentences := chunker.Sentences(text, chunker.DefaultOptions())
	if len(sentences) == 0 {
		return nil, model.InvalidInput("ingest", "no sentences in text")
	}

	out := make([]model.Memory, 0, len(sentences))
	for _, s := range sentences {
		m, err := e.Store(ctx, s.Text, memCtx)
		if err != nil {
			return out, fmt.Errorf("ingest line %d: %w", s.Line, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// Import inserts records from an export under fresh ids. Scores are clamped
// and labels outside the taxonomy become unknown; no LLM calls are made.
func (e *Engine) Import(ctx context.Context, memories []model.Memory) ([]model.Memory, error) {
	out := make([]model.Memory, 0, len(memories))
	for _, m := range memories {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		if !model.ValidTypes[m.Type] {
			m.Type = model.TypeUnknown
		}
		m.Confidence = model.Clamp01(m.Confidence)
		m.Importance = model.Clamp01(m.Importance)
		if m.AccessCount < 0 {
			m.AccessCount = 0
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = e.now()
		}
		if m.LastAccessedAt.Before(m.CreatedAt) {
			m.LastAccessedAt = m.CreatedAt
		}
		if m.History == nil {
			m.History = []model.HistoryEntry{}
		}

		stored, err := e.store.Insert(ctx, m)
		if err != nil {
			return out, err
		}
		out = append(out, stored)
	}
	logging.FromCtx(ctx).Debug().Str("op", "import").Int("imported", len(out)).Msg("memories imported")
	return out, nil
}

// classify returns the memory type and confidence, or unknown/0 when the
// answer is unusable. ok reports whether the model's answer was used.
func (e *Engine) classify(ctx context.Context, id int64, text string, memCtx map[string]string) (model.Type, float64, bool, error) {
	out, err := e.ask(ctx, prompt.TaskClassification, prompt.Vars{
		"text":    text,
		"context": formatContext(memCtx),
	})
	if err != nil {
		if structural(err) {
			return "", 0, false, err
		}
		e.warn(ctx, "classification", id, err, "classification call failed, using unknown")
		return model.TypeUnknown, 0, false, nil
	}

	typ, confidence, ok := parseClassification(out)
	if !ok {
		e.warn(ctx, "classification", id, nil, "unparsable classification, using unknown")
	}
	return typ, confidence, ok, nil
}

// extract returns the model's restatement verbatim, or the raw text when the
// model gives nothing usable.
func (e *Engine) extract(ctx context.Context, text string, typ model.Type, memCtx map[string]string) (string, error) {
	out, err := e.ask(ctx, prompt.TaskExtraction, prompt.Vars{
		"text":        text,
		"memory_type": string(typ),
		"context":     formatContext(memCtx),
	})
	if err != nil {
		if structural(err) {
			return "", err
		}
		e.warn(ctx, "extraction", 0, err, "extraction failed, keeping raw text")
		return text, nil
	}
	return strings.TrimSpace(out), nil
}

// assessImportance scores content in [0,1], defaulting to DefaultImportance.
func (e *Engine) assessImportance(ctx context.Context, id int64, content string, typ model.Type, accessCount int, memCtx map[string]string) (float64, error) {
	out, err := e.ask(ctx, prompt.TaskImportance, prompt.Vars{
		"memory":       content,
		"memory_type":  string(typ),
		"access_count": strconv.Itoa(accessCount),
		"context_goal": contextGoal(memCtx),
	})
	if err != nil {
		if structural(err) {
			return 0, err
		}
		e.warn(ctx, "importance", id, err, "importance call failed, using default")
		return DefaultImportance, nil
	}

	score, ok := parseScore(out)
	if !ok {
		e.warn(ctx, "importance", id, nil, "unparsable importance, using default")
		return DefaultImportance, nil
	}
	return score, nil
}
