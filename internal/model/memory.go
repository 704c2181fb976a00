// Package model defines the core memory data types.
package model

import (
	"strings"
	"time"
)

// Type is the memory taxonomy label assigned by classification.
type Type string

const (
	TypeEpisodic   Type = "episodic"
	TypeSemantic   Type = "semantic"
	TypeProcedural Type = "procedural"
	TypeUnknown    Type = "unknown"
)

// ValidTypes are the labels a classifier may assign.
var ValidTypes = map[Type]bool{
	TypeEpisodic:   true,
	TypeSemantic:   true,
	TypeProcedural: true,
}

// AllTypes lists every type including the unknown fallback, in report order.
var AllTypes = []Type{TypeEpisodic, TypeSemantic, TypeProcedural, TypeUnknown}

// ParseType normalizes s and reports whether it names a classifier type.
func ParseType(s string) (Type, bool) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	return t, ValidTypes[t]
}

// Memory represents a stored memory entry.
type Memory struct {
	ID             int64             `json:"id"`
	Type           Type              `json:"type"`
	Content        string            `json:"content"`
	Confidence     float64           `json:"confidence"`
	Importance     float64           `json:"importance"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	AccessCount    int               `json:"access_count"`
	Context        map[string]string `json:"context,omitempty"`
	History        []HistoryEntry    `json:"history"`
}

// HistoryEntry records one content transformation. History is append-only.
type HistoryEntry struct {
	ID              string    `json:"id"`
	Mode            string    `json:"mode"`
	PreviousContent string    `json:"previous_content"`
	NewInfo         string    `json:"new_info,omitempty"`
	PreviousType    Type      `json:"previous_type,omitempty"`
	At              time.Time `json:"at"`
}

// Clone returns a deep copy so callers never alias store-owned state.
func (m Memory) Clone() Memory {
	c := m
	if m.Context != nil {
		c.Context = make(map[string]string, len(m.Context))
		for k, v := range m.Context {
			c.Context[k] = v
		}
	}
	c.History = make([]HistoryEntry, len(m.History))
	copy(c.History, m.History)
	return c
}

// Clamp01 bounds v to [0,1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
