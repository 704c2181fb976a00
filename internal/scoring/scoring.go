// Package scoring ranks retrieval candidates by a composite of relevance,
// importance and access frequency.
package scoring

import (
	"sort"

	"github.com/rcliao/dynamic-memory/internal/model"
)

// Composite weights.
const (
	RelevanceWeight  = 0.5
	ImportanceWeight = 0.3
	FrequencyWeight  = 0.2
)

// Scored is a candidate with its score breakdown.
type Scored struct {
	Memory    model.Memory `json:"memory"`
	Relevance float64      `json:"relevance"`
	Frequency float64      `json:"frequency"`
	Score     float64      `json:"score"`
}

// Composite combines the three sub-scores. Inputs are clamped to [0,1].
func Composite(relevance, importance, frequency float64) float64 {
	return RelevanceWeight*model.Clamp01(relevance) +
		ImportanceWeight*model.Clamp01(importance) +
		FrequencyWeight*model.Clamp01(frequency)
}

// Frequencies scales each access count linearly against the largest count
// among candidates. All zeros when that maximum is 0.
func Frequencies(candidates []model.Memory) []float64 {
	out := make([]float64, len(candidates))
	maxCount := 0
	for _, m := range candidates {
		if m.AccessCount > maxCount {
			maxCount = m.AccessCount
		}
	}
	if maxCount == 0 {
		return out
	}
	for i, m := range candidates {
		out[i] = float64(m.AccessCount) / float64(maxCount)
	}
	return out
}

// Rank scores candidates with the given relevance values (index-aligned;
// missing entries count as 0) and sorts them best first.
func Rank(candidates []model.Memory, relevance []float64) []Scored {
	freq := Frequencies(candidates)
	out := make([]Scored, len(candidates))
	for i, m := range candidates {
		rel := 0.0
		if i < len(relevance) {
			rel = model.Clamp01(relevance[i])
		}
		out[i] = Scored{
			Memory:    m,
			Relevance: rel,
			Frequency: freq[i],
			Score:     Composite(rel, m.Importance, freq[i]),
		}
	}
	Sort(out)
	return out
}

// Sort orders by score descending, then more recent last_accessed_at, then
// lower id.
func Sort(s []Scored) {
	sort.SliceStable(s, func(i, j int) bool {
		a, b := s[i], s[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Memory.LastAccessedAt.Equal(b.Memory.LastAccessedAt) {
			return a.Memory.LastAccessedAt.After(b.Memory.LastAccessedAt)
		}
		return a.Memory.ID < b.Memory.ID
	})
}

// Top returns the first k entries. k <= 0 yields an empty slice.
func Top(s []Scored, k int) []Scored {
	if k <= 0 {
		return []Scored{}
	}
	if k > len(s) {
		k = len(s)
	}
	return s[:k]
}
