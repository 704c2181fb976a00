// Package store provides the owned memory table and its persistence backends.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rcliao/dynamic-memory/internal/model"
)

// Store is the sole owner of memory records. Every method hands out deep
// copies; mutations go through the store and are persisted before the lock
// is released. A failed persist rolls the in-memory change back.
type Store struct {
	mu        sync.RWMutex
	records   map[int64]*model.Memory
	nextID    int64
	persister Persister
}

// Open loads the persisted snapshot, if any, and returns a ready store.
func Open(ctx context.Context, p Persister) (*Store, error) {
	snap, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	s := &Store{
		records:   make(map[int64]*model.Memory, len(snap.Memories)),
		nextID:    snap.NextID,
		persister: p,
	}
	for _, m := range snap.Memories {
		c := m.Clone()
		s.records[m.ID] = &c
		if m.ID >= s.nextID {
			s.nextID = m.ID + 1
		}
	}
	if s.nextID < 1 {
		s.nextID = 1
	}
	return s, nil
}

// Insert assigns a fresh id to m, stores it and persists.
func (s *Store) Insert(ctx context.Context, m model.Memory) (model.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := m.Clone()
	rec.ID = s.nextID
	s.records[rec.ID] = &rec
	s.nextID++

	if err := s.persistLocked(ctx); err != nil {
		delete(s.records, rec.ID)
		s.nextID--
		return model.Memory{}, err
	}
	return rec.Clone(), nil
}

// Get returns a copy of the record with id.
func (s *Store) Get(id int64) (model.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return model.Memory{}, model.NotFound("get", id)
	}
	return rec.Clone(), nil
}

// List returns copies of all records of type t (all records if t is empty),
// ordered by id.
func (s *Store) List(t model.Type) []model.Memory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(t)
}

func (s *Store) listLocked(t model.Type) []model.Memory {
	out := make([]model.Memory, 0, len(s.records))
	for _, rec := range s.records {
		if t != "" && rec.Type != t {
			continue
		}
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Mutate applies fn to a working copy of record id. The copy replaces the
// original only if fn succeeds and the result persists.
func (s *Store) Mutate(ctx context.Context, id int64, fn func(*model.Memory) error) (model.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.records[id]
	if !ok {
		return model.Memory{}, model.NotFound("mutate", id)
	}

	work := prev.Clone()
	if err := fn(&work); err != nil {
		return model.Memory{}, err
	}
	work.ID = id
	s.records[id] = &work

	if err := s.persistLocked(ctx); err != nil {
		s.records[id] = prev
		return model.Memory{}, err
	}
	return work.Clone(), nil
}

// Touch records a retrieval hit on each id: access_count is incremented and
// last_accessed_at moves forward to at (never backwards). Ids no longer
// present are skipped. Results keep the order of ids.
func (s *Store) Touch(ctx context.Context, ids []int64, at time.Time) ([]model.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := make(map[int64]*model.Memory, len(ids))
	out := make([]model.Memory, 0, len(ids))
	for _, id := range ids {
		rec, ok := s.records[id]
		if !ok {
			continue
		}
		if _, seen := prev[id]; seen {
			continue
		}
		work := rec.Clone()
		work.AccessCount++
		if at.After(work.LastAccessedAt) {
			work.LastAccessedAt = at
		}
		prev[id] = rec
		s.records[id] = &work
		out = append(out, work.Clone())
	}
	if len(out) == 0 {
		return out, nil
	}

	if err := s.persistLocked(ctx); err != nil {
		for id, rec := range prev {
			s.records[id] = rec
		}
		return nil, err
	}
	return out, nil
}

// Delete removes each id that exists and persists. It returns the removed
// records in the order of ids.
func (s *Store) Delete(ctx context.Context, ids []int64) ([]model.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(ctx, ids)
}

// DeleteWhere runs selector over the current records and deletes the ids it
// returns, all under one lock so the selection cannot go stale.
func (s *Store) DeleteWhere(ctx context.Context, selector func([]model.Memory) []int64) ([]model.Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(ctx, selector(s.listLocked("")))
}

func (s *Store) deleteLocked(ctx context.Context, ids []int64) ([]model.Memory, error) {
	removed := make([]*model.Memory, 0, len(ids))
	for _, id := range ids {
		rec, ok := s.records[id]
		if !ok {
			continue
		}
		delete(s.records, id)
		removed = append(removed, rec)
	}

	out := make([]model.Memory, 0, len(removed))
	if len(removed) == 0 {
		return out, nil
	}

	if err := s.persistLocked(ctx); err != nil {
		for _, rec := range removed {
			s.records[rec.ID] = rec
		}
		return nil, err
	}
	for _, rec := range removed {
		out = append(out, rec.Clone())
	}
	return out, nil
}

// Snapshot returns a copy of the full store state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{NextID: s.nextID, Memories: s.listLocked("")}
}

// Close releases the persister.
func (s *Store) Close() error {
	return s.persister.Close()
}

func (s *Store) persistLocked(ctx context.Context) error {
	snap := Snapshot{NextID: s.nextID, Memories: s.listLocked("")}
	if err := s.persister.Save(ctx, snap); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	return nil
}
