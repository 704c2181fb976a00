package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/dynamic-memory/internal/model"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func mem(id int64, importance float64, access int, last time.Time) model.Memory {
	return model.Memory{ID: id, Importance: importance, AccessCount: access, LastAccessedAt: last}
}

func TestComposite(t *testing.T) {
	assert.InDelta(t, 0.5*0.8+0.3*0.6+0.2*1.0, Composite(0.8, 0.6, 1.0), 1e-12)
	assert.InDelta(t, 1.0, Composite(5, 5, 5), 1e-12, "inputs are clamped")
	assert.Equal(t, 0.0, Composite(-1, -1, -1))
}

func TestFrequencies(t *testing.T) {
	got := Frequencies([]model.Memory{mem(1, 0, 0, t0), mem(2, 0, 4, t0), mem(3, 0, 2, t0)})
	assert.Equal(t, []float64{0, 1, 0.5}, got)

	assert.Equal(t, []float64{0, 0}, Frequencies([]model.Memory{mem(1, 0, 0, t0), mem(2, 0, 0, t0)}))
}

func TestRankOrdersByScore(t *testing.T) {
	cands := []model.Memory{mem(1, 0.2, 0, t0), mem(2, 0.9, 0, t0), mem(3, 0.5, 0, t0)}
	ranked := Rank(cands, []float64{0.9, 0.9, 0.9})
	require.Len(t, ranked, 3)
	assert.Equal(t, []int64{2, 3, 1}, ids(ranked))
	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Score, ranked[i].Score)
	}
}

func TestRankTieBreaks(t *testing.T) {
	later := t0.Add(time.Hour)
	cands := []model.Memory{
		mem(4, 0.5, 0, t0),
		mem(2, 0.5, 0, t0),
		mem(3, 0.5, 0, later),
		mem(1, 0.5, 0, t0),
	}
	ranked := Rank(cands, []float64{0.3, 0.3, 0.3, 0.3})
	assert.Equal(t, []int64{3, 1, 2, 4}, ids(ranked), "recent access first, then lower id")
}

func TestRankMissingRelevanceIsZero(t *testing.T) {
	ranked := Rank([]model.Memory{mem(1, 0.5, 0, t0), mem(2, 0.5, 0, t0)}, []float64{0.4})
	assert.Equal(t, int64(1), ranked[0].Memory.ID)
	assert.Equal(t, 0.0, ranked[1].Relevance)
}

func TestTop(t *testing.T) {
	s := Rank([]model.Memory{mem(1, 0.1, 0, t0), mem(2, 0.2, 0, t0)}, nil)
	assert.Len(t, Top(s, 1), 1)
	assert.Len(t, Top(s, 10), 2)
	assert.Empty(t, Top(s, 0))
	assert.Empty(t, Top(s, -3))
}

func ids(s []Scored) []int64 {
	out := make([]int64, len(s))
	for i, x := range s {
		out[i] = x.Memory.ID
	}
	return out
}
