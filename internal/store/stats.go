package store

import (
	"time"

	"github.com/rcliao/dynamic-memory/internal/model"
)

// Stats summarizes the store. Computing it has no side effects.
type Stats struct {
	Total            int                `json:"total"`
	ByType           map[model.Type]int `json:"by_type"`
	MeanImportance   float64            `json:"mean_importance"`
	MeanAccessCount  float64            `json:"mean_access_count"`
	TotalAccessCount int                `json:"total_access_count"`
	OldestCreatedAt  *time.Time         `json:"oldest_created_at,omitempty"`
	NewestCreatedAt  *time.Time         `json:"newest_created_at,omitempty"`
}

// Stats returns statistics over the current records.
func (s *Store) Stats() Stats {
	return Summarize(s.List(""))
}

// Summarize computes Stats for memories.
func Summarize(memories []model.Memory) Stats {
	st := Stats{ByType: make(map[model.Type]int, len(model.AllTypes))}
	for _, t := range model.AllTypes {
		st.ByType[t] = 0
	}
	if len(memories) == 0 {
		return st
	}

	var importance float64
	oldest, newest := memories[0].CreatedAt, memories[0].CreatedAt
	for _, m := range memories {
		st.ByType[m.Type]++
		importance += m.Importance
		st.TotalAccessCount += m.AccessCount
		if m.CreatedAt.Before(oldest) {
			oldest = m.CreatedAt
		}
		if m.CreatedAt.After(newest) {
			newest = m.CreatedAt
		}
	}

	st.Total = len(memories)
	st.MeanImportance = importance / float64(st.Total)
	st.MeanAccessCount = float64(st.TotalAccessCount) / float64(st.Total)
	st.OldestCreatedAt = &oldest
	st.NewestCreatedAt = &newest
	return st
}
