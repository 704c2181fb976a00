// Package export derives read-only views of the memory store for external
// consumers. Nothing here mutates records.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rcliao/dynamic-memory/internal/model"
	"github.com/rcliao/dynamic-memory/internal/store"
)

// View names an export shape.
type View string

const (
	ViewStructured View = "structured"
	ViewByType     View = "by_type"
	ViewMinimal    View = "minimal"
	ViewText       View = "text"
	ViewPatterns   View = "patterns"
)

// Views lists every supported view.
func Views() []View {
	return []View{ViewStructured, ViewByType, ViewMinimal, ViewText, ViewPatterns}
}

// Format is the encoding used for non-text views.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Structured is every record plus the statistics that describe them.
type Structured struct {
	Statistics store.Stats    `json:"statistics" yaml:"statistics"`
	Memories   []model.Memory `json:"memories" yaml:"memories"`
}

// Minimal is the reduced form of a record.
type Minimal struct {
	ID         int64      `json:"id" yaml:"id"`
	Type       model.Type `json:"type" yaml:"type"`
	Content    string     `json:"content" yaml:"content"`
	Importance float64    `json:"importance" yaml:"importance"`
}

// Build returns the value for view. The text view is returned as a string.
func Build(view View, memories []model.Memory) (any, error) {
	mems := sorted(memories)
	switch view {
	case ViewStructured:
		return Structured{Statistics: store.Summarize(mems), Memories: mems}, nil
	case ViewByType:
		return ByType(mems), nil
	case ViewMinimal:
		return MinimalOf(mems), nil
	case ViewText:
		return Text(mems), nil
	case ViewPatterns:
		return Analyze(mems), nil
	}
	return nil, model.InvalidInput("export", fmt.Sprintf("unknown view %q", view))
}

// Write builds view and encodes it to w.
func Write(w io.Writer, view View, format Format, memories []model.Memory) error {
	v, err := Build(view, memories)
	if err != nil {
		return err
	}
	if s, ok := v.(string); ok {
		_, err := io.WriteString(w, s)
		return err
	}

	switch format {
	case "", FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return model.InvalidInput("export", fmt.Sprintf("unknown format %q", format))
}

// ByType buckets records by type. Every type, including unknown, has a
// bucket even when empty.
func ByType(memories []model.Memory) map[model.Type][]model.Memory {
	out := make(map[model.Type][]model.Memory, len(model.AllTypes))
	for _, t := range model.AllTypes {
		out[t] = []model.Memory{}
	}
	for _, m := range sorted(memories) {
		out[m.Type] = append(out[m.Type], m)
	}
	return out
}

// MinimalOf reduces records to id, type, content and importance.
func MinimalOf(memories []model.Memory) []Minimal {
	out := make([]Minimal, 0, len(memories))
	for _, m := range sorted(memories) {
		out = append(out, minimal(m))
	}
	return out
}

// Text flattens records to one line each.
func Text(memories []model.Memory) string {
	var b strings.Builder
	for _, m := range sorted(memories) {
		fmt.Fprintf(&b, "[%d] %s importance=%.2f accessed=%d: %s\n",
			m.ID, m.Type, m.Importance, m.AccessCount, strings.Join(strings.Fields(m.Content), " "))
	}
	return b.String()
}

func minimal(m model.Memory) Minimal {
	return Minimal{ID: m.ID, Type: m.Type, Content: m.Content, Importance: m.Importance}
}

func sorted(memories []model.Memory) []model.Memory {
	out := make([]model.Memory, len(memories))
	copy(out, memories)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
