package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/dynamic-memory/internal/model"
)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	p, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p, path
}

func TestSQLiteEmptyLoad(t *testing.T) {
	p, _ := newTestSQLite(t)
	snap, err := p.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.NextID)
	assert.Empty(t, snap.Memories)
}

func TestSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	p, path := newTestSQLite(t)
	s, err := Open(ctx, p)
	require.NoError(t, err)

	m := sample("sqlite backed", 0.8)
	m.Context = map[string]string{"goal": "persist"}
	m.History = []model.HistoryEntry{{ID: "01H", Mode: "merge", PreviousContent: "before", NewInfo: "after", At: t0}}
	_, err = s.Insert(ctx, m)
	require.NoError(t, err)
	_, err = s.Insert(ctx, sample("second", 0.1))
	require.NoError(t, err)
	_, err = s.Touch(ctx, []int64{1}, t0.Add(time.Minute))
	require.NoError(t, err)
	_, err = s.Delete(ctx, []int64{2})
	require.NoError(t, err)

	before := s.Snapshot()
	require.NoError(t, s.Close())

	p2, err := NewSQLite(path)
	require.NoError(t, err)
	defer p2.Close()
	reopened, err := Open(ctx, p2)
	require.NoError(t, err)

	after := reopened.Snapshot()
	assertSameSnapshot(t, before, after)
	assert.Equal(t, int64(3), after.NextID)
	assert.Equal(t, 1, after.Memories[0].AccessCount)
}
