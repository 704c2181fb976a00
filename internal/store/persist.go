package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rcliao/dynamic-memory/internal/model"
)

// Snapshot is the full persisted state: every record plus the id counter,
// so ids are never reused after a restart.
type Snapshot struct {
	NextID   int64          `json:"next_id"`
	Memories []model.Memory `json:"memories"`
}

// Persister saves and loads whole-store snapshots. Save must be atomic: a
// failure mid-write leaves the previous snapshot intact.
type Persister interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Close() error
}

const fileFormatVersion = 1

type fileDoc struct {
	Version int       `json:"version"`
	SavedAt time.Time `json:"saved_at"`
	Snapshot
}

// File persists snapshots as indented JSON using write-then-rename.
type File struct {
	path string
}

// NewFile returns a JSON file persister for path.
func NewFile(path string) *File {
	return &File{path: path}
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

func (f *File) Load(ctx context.Context) (Snapshot, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{NextID: 1}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read %s: %w", f.path, err)
	}

	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return Snapshot{}, fmt.Errorf("parse %s: %w", f.path, err)
	}
	if doc.Version > fileFormatVersion {
		return Snapshot{}, fmt.Errorf("%s: unsupported format version %d", f.path, doc.Version)
	}
	return doc.Snapshot, nil
}

func (f *File) Save(ctx context.Context, snap Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if snap.Memories == nil {
		snap.Memories = []model.Memory{}
	}

	data, err := json.MarshalIndent(fileDoc{
		Version:  fileFormatVersion,
		SavedAt:  time.Now().UTC(),
		Snapshot: snap,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func (f *File) Close() error { return nil }
