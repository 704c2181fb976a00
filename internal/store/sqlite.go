package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rcliao/dynamic-memory/internal/model"
)

// SQLite persists snapshots into a SQLite database. Each Save rewrites the
// tables inside one transaction.
type SQLite struct {
	db   *sql.DB
	path string
}

// NewSQLite opens or creates a SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *SQLite) Path() string { return s.path }

func (s *SQLite) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id               INTEGER PRIMARY KEY,
		type             TEXT NOT NULL,
		content          TEXT NOT NULL,
		confidence       REAL NOT NULL,
		importance       REAL NOT NULL,
		created_at       TEXT NOT NULL,
		last_accessed_at TEXT NOT NULL,
		access_count     INTEGER NOT NULL DEFAULT 0,
		context          TEXT,
		history          TEXT NOT NULL DEFAULT '[]'
	);
	CREATE INDEX IF NOT EXISTS idx_memories_type ON memories(type);

	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLite) Load(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{NextID: 1}

	var next string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'next_id'`).Scan(&next)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return snap, err
	default:
		n, err := strconv.ParseInt(next, 10, 64)
		if err != nil {
			return snap, fmt.Errorf("bad next_id %q: %w", next, err)
		}
		snap.NextID = n
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, content, confidence, importance, created_at, last_accessed_at,
		        access_count, context, history
		 FROM memories ORDER BY id`)
	if err != nil {
		return snap, err
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return snap, err
		}
		snap.Memories = append(snap.Memories, m)
	}
	return snap, rows.Err()
}

func (s *SQLite) Save(ctx context.Context, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM memories`); err != nil {
		return fmt.Errorf("clear memories: %w", err)
	}

	for _, m := range snap.Memories {
		var ctxJSON *string
		if len(m.Context) > 0 {
			b, _ := json.Marshal(m.Context)
			s := string(b)
			ctxJSON = &s
		}
		history := m.History
		if history == nil {
			history = []model.HistoryEntry{}
		}
		histJSON, err := json.Marshal(history)
		if err != nil {
			return fmt.Errorf("encode history: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO memories (id, type, content, confidence, importance, created_at,
			                       last_accessed_at, access_count, context, history)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, string(m.Type), m.Content, m.Confidence, m.Importance,
			m.CreatedAt.Format(time.RFC3339Nano), m.LastAccessedAt.Format(time.RFC3339Nano),
			m.AccessCount, ctxJSON, string(histJSON))
		if err != nil {
			return fmt.Errorf("insert memory %d: %w", m.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES ('next_id', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		strconv.FormatInt(snap.NextID, 10))
	if err != nil {
		return fmt.Errorf("save next_id: %w", err)
	}

	return tx.Commit()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMemory(row scanner) (model.Memory, error) {
	var m model.Memory
	var typ, createdAt, lastAccessed, history string
	var ctxJSON sql.NullString

	err := row.Scan(
		&m.ID, &typ, &m.Content, &m.Confidence, &m.Importance,
		&createdAt, &lastAccessed, &m.AccessCount, &ctxJSON, &history,
	)
	if err != nil {
		return m, err
	}

	m.Type = model.Type(typ)
	if m.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return m, fmt.Errorf("memory %d created_at: %w", m.ID, err)
	}
	if m.LastAccessedAt, err = time.Parse(time.RFC3339Nano, lastAccessed); err != nil {
		return m, fmt.Errorf("memory %d last_accessed_at: %w", m.ID, err)
	}
	if ctxJSON.Valid {
		if err := json.Unmarshal([]byte(ctxJSON.String), &m.Context); err != nil {
			return m, fmt.Errorf("memory %d context: %w", m.ID, err)
		}
	}
	if err := json.Unmarshal([]byte(history), &m.History); err != nil {
		return m, fmt.Errorf("memory %d history: %w", m.ID, err)
	}
	return m, nil
}
