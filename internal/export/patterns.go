package export

import (
	"sort"

	"github.com/rcliao/dynamic-memory/internal/model"
)

// Importance bands used by the distribution.
const (
	HighImportance = 0.7
	LowImportance  = 0.3
	TopAccessed    = 5
)

// Patterns summarizes when memories were formed and how they are used.
type Patterns struct {
	Total       int                 `json:"total" yaml:"total"`
	ByHour      [24]int             `json:"by_hour" yaml:"by_hour"`
	Importance  ImportanceBreakdown `json:"importance" yaml:"importance"`
	Access      AccessBreakdown     `json:"access" yaml:"access"`
	TopAccessed []AccessedMemory    `json:"top_accessed" yaml:"top_accessed"`
}

// ImportanceBreakdown counts records above HighImportance and below
// LowImportance.
type ImportanceBreakdown struct {
	Mean float64 `json:"mean" yaml:"mean"`
	High int     `json:"high" yaml:"high"`
	Mid  int     `json:"mid" yaml:"mid"`
	Low  int     `json:"low" yaml:"low"`
}

type AccessBreakdown struct {
	Total int     `json:"total" yaml:"total"`
	Mean  float64 `json:"mean" yaml:"mean"`
	Never int     `json:"never" yaml:"never"`
}

type AccessedMemory struct {
	Minimal     `yaml:",inline"`
	AccessCount int `json:"access_count" yaml:"access_count"`
}

// Analyze computes Patterns. Hours are taken from CreatedAt in its own
// location.
func Analyze(memories []model.Memory) Patterns {
	p := Patterns{Total: len(memories), TopAccessed: []AccessedMemory{}}
	if len(memories) == 0 {
		return p
	}

	var importance float64
	for _, m := range memories {
		p.ByHour[m.CreatedAt.Hour()]++

		importance += m.Importance
		switch {
		case m.Importance > HighImportance:
			p.Importance.High++
		case m.Importance < LowImportance:
			p.Importance.Low++
		default:
			p.Importance.Mid++
		}

		p.Access.Total += m.AccessCount
		if m.AccessCount == 0 {
			p.Access.Never++
		}
	}
	p.Importance.Mean = importance / float64(len(memories))
	p.Access.Mean = float64(p.Access.Total) / float64(len(memories))

	ranked := sorted(memories)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].AccessCount > ranked[j].AccessCount })
	for _, m := range ranked {
		if len(p.TopAccessed) == TopAccessed || m.AccessCount == 0 {
			break
		}
		p.TopAccessed = append(p.TopAccessed, AccessedMemory{Minimal: minimal(m), AccessCount: m.AccessCount})
	}
	return p
}
