package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/dynamic-memory/internal/model"
)

var now = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func TestLowImportance(t *testing.T) {
	mems := []model.Memory{
		{ID: 1, Importance: 0.1},
		{ID: 2, Importance: 0.8},
		{ID: 3, Importance: 0.3},
		{ID: 4, Importance: 0.2999},
	}
	got := LowImportance{Threshold: 0.3}.Select(mems, now)
	assert.Equal(t, []int64{1, 4}, got, "strictly below the threshold only")
}

func TestOldUnusedRequiresBoth(t *testing.T) {
	old := now.Add(-40 * 24 * time.Hour)
	recent := now.Add(-time.Hour)
	mems := []model.Memory{
		{ID: 1, LastAccessedAt: old, AccessCount: 0},
		{ID: 2, LastAccessedAt: old, AccessCount: 5},
		{ID: 3, LastAccessedAt: recent, AccessCount: 0},
		{ID: 4, LastAccessedAt: old, AccessCount: 1},
	}
	got := OldUnused{Retention: 30 * 24 * time.Hour, MinAccessCount: 2}.Select(mems, now)
	assert.Equal(t, []int64{1, 4}, got)
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"low_importance", "old_unused"}, r.Names())

	s, err := r.Lookup("low_importance")
	require.NoError(t, err)
	assert.Equal(t, DefaultImportanceThreshold, s.(LowImportance).Threshold)

	_, err = r.Lookup("random")
	assert.ErrorIs(t, err, model.ErrInvalidStrategy)
	assert.Contains(t, err.Error(), `"random"`)

	r.Register(LowImportance{Threshold: 0.5})
	s, _ = r.Lookup("low_importance")
	assert.Equal(t, 0.5, s.(LowImportance).Threshold)
}
