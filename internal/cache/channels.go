// Package cache persists the channel-list snapshot between runs.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/m96-chan/slackline/internal/model"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS channels (
	position  INTEGER PRIMARY KEY,
	id        TEXT NOT NULL,
	name      TEXT NOT NULL,
	is_member INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS snapshot_meta (
	id       INTEGER PRIMARY KEY CHECK (id = 1),
	saved_at INTEGER NOT NULL
);
`

// Snapshot is a complete channel list from one successful fetch.
type Snapshot struct {
	Channels []model.Channel
	SavedAt  time.Time
}

// Store is the on-disk channel cache. Save replaces the whole snapshot in
// one transaction, so Load sees either the previous or the new snapshot.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the cache file at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open channel cache: %w", err)
	}
	// One connection keeps writers serialized inside this process.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init channel cache: %w", err)
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(schemaSQL); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the saved snapshot, or nil if nothing was ever saved.
func (s *Store) Load(ctx context.Context) (*Snapshot, error) {
	var savedAt int64
	err := s.db.QueryRowContext(ctx, `SELECT saved_at FROM snapshot_meta WHERE id = 1`).Scan(&savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot meta: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, is_member FROM channels ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("load channels: %w", err)
	}
	defer rows.Close()

	snap := &Snapshot{
		Channels: []model.Channel{},
		SavedAt:  time.Unix(0, savedAt),
	}
	for rows.Next() {
		var ch model.Channel
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.IsMember); err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		snap.Channels = append(snap.Channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load channels: %w", err)
	}
	return snap, nil
}

// Save replaces the stored snapshot. A zero SavedAt is stamped with now.
func (s *Store) Save(ctx context.Context, snap Snapshot) error {
	if snap.SavedAt.IsZero() {
		snap.SavedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM channels`); err != nil {
		return fmt.Errorf("clear channels: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO channels (id, name, is_member, position) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, ch := range snap.Channels {
		if _, err := stmt.ExecContext(ctx, ch.ID, ch.Name, ch.IsMember, i); err != nil {
			return fmt.Errorf("insert channel %s: %w", ch.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta (id, saved_at) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET saved_at = excluded.saved_at`,
		snap.SavedAt.UnixNano()); err != nil {
		return fmt.Errorf("stamp snapshot: %w", err)
	}

	return tx.Commit()
}
