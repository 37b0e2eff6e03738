// Package storage persists the substance snapshot between generation runs
// so added/updated timestamps and the changelog survive restarts.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gooosetavo/dod-prohibited/interfaces"
	"github.com/gooosetavo/dod-prohibited/logging"
	"github.com/gooosetavo/dod-prohibited/substances/entities"
)

// Compile-time check to ensure Store implements SnapshotStore
var _ interfaces.SnapshotStore = (*Store)(nil)

// Store is the sqlite-backed snapshot of the substance collection. Each
// substance is stored as canonical JSON keyed by slug, with added/updated
// timestamps maintained by the upsert pass.
type Store struct {
	conn *sql.DB
}

// Open opens (or creates) the snapshot database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}

	store := &Store{conn: conn}
	if err := store.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS substances (
  slug TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  doc TEXT NOT NULL,
  added TEXT NOT NULL,
  updated TEXT
);
CREATE INDEX IF NOT EXISTS idx_substances_name ON substances(name);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := s.conn.Exec(schema)
	return err
}

// LoadSnapshot returns the substances from the previous run, with their
// recorded added/updated timestamps attached.
func (s *Store) LoadSnapshot(ctx context.Context) ([]entities.Substance, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT slug, doc, added, updated FROM substances`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logging.Warn("Failed to close snapshot rows", "error", err)
		}
	}()

	var out []entities.Substance
	skippedDecodeErrors := 0
	for rows.Next() {
		var slug, doc, added string
		var updated sql.NullString
		if err := rows.Scan(&slug, &doc, &added, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}

		var substance entities.Substance
		if err := json.Unmarshal([]byte(doc), &substance); err != nil {
			skippedDecodeErrors++
			continue
		}

		if t, err := time.Parse(time.RFC3339, added); err == nil {
			substance.Added = &t
		}
		if updated.Valid {
			if t, err := time.Parse(time.RFC3339, updated.String); err == nil {
				substance.Updated = &t
			}
		}

		out = append(out, substance)
	}

	if skippedDecodeErrors > 0 {
		logging.Warn("Skipped undecodable snapshot rows", "count", skippedDecodeErrors)
	}

	return out, rows.Err()
}

// SaveSnapshot upserts the current collection and removes rows whose slug
// is no longer present. A new slug gets added set to the row's self-reported
// date when it carries one, otherwise now; an existing slug whose canonical
// document changed gets updated the same way. The timestamps decided here
// are written back onto the passed slice.
func (s *Store) SaveSnapshot(ctx context.Context, substances []entities.Substance, now time.Time) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	nowText := now.UTC().Format(time.RFC3339)
	keep := make(map[string]bool, len(substances))

	for i := range substances {
		sub := &substances[i]
		keep[sub.Slug] = true

		doc, err := canonicalDoc(sub)
		if err != nil {
			return fmt.Errorf("failed to encode substance %q: %w", sub.Slug, err)
		}

		var existingDoc, existingAdded string
		var existingUpdated sql.NullString
		err = tx.QueryRowContext(ctx,
			`SELECT doc, added, updated FROM substances WHERE slug = ?`, sub.Slug,
		).Scan(&existingDoc, &existingAdded, &existingUpdated)

		switch {
		case err == sql.ErrNoRows:
			// The row's self-reported date beats our detection time
			added := now.UTC()
			if sub.Added != nil {
				added = sub.Added.UTC()
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO substances (slug, name, doc, added, updated) VALUES (?, ?, ?, ?, NULL)`,
				sub.Slug, sub.Name, doc, added.Format(time.RFC3339),
			); err != nil {
				return fmt.Errorf("failed to insert substance %q: %w", sub.Slug, err)
			}
			sub.Added = &added
			sub.Updated = nil

		case err != nil:
			return fmt.Errorf("failed to load existing substance %q: %w", sub.Slug, err)

		default:
			if t, parseErr := time.Parse(time.RFC3339, existingAdded); parseErr == nil {
				sub.Added = &t
			}
			if existingDoc == doc {
				if existingUpdated.Valid {
					if t, parseErr := time.Parse(time.RFC3339, existingUpdated.String); parseErr == nil {
						sub.Updated = &t
					}
				}
				continue
			}
			updated := now.UTC()
			if sub.Updated != nil {
				updated = sub.Updated.UTC()
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE substances SET name = ?, doc = ?, updated = ? WHERE slug = ?`,
				sub.Name, doc, updated.Format(time.RFC3339), sub.Slug,
			); err != nil {
				return fmt.Errorf("failed to update substance %q: %w", sub.Slug, err)
			}
			sub.Updated = &updated
		}
	}

	if err := deleteMissing(ctx, tx, keep); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO metadata (key, value) VALUES ('last_snapshot', ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, nowText); err != nil {
		return fmt.Errorf("failed to record snapshot time: %w", err)
	}

	return tx.Commit()
}

// deleteMissing removes rows for slugs absent from the current collection.
func deleteMissing(ctx context.Context, tx *sql.Tx, keep map[string]bool) error {
	rows, err := tx.QueryContext(ctx, `SELECT slug FROM substances`)
	if err != nil {
		return fmt.Errorf("failed to list snapshot slugs: %w", err)
	}

	var stale []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			_ = rows.Close()
			return fmt.Errorf("failed to scan slug: %w", err)
		}
		if !keep[slug] {
			stale = append(stale, slug)
		}
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("failed to close slug rows: %w", err)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, slug := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM substances WHERE slug = ?`, slug); err != nil {
			return fmt.Errorf("failed to delete substance %q: %w", slug, err)
		}
	}

	if len(stale) > 0 {
		logging.Info("Removed substances from snapshot", "count", len(stale))
	}

	return nil
}

// LastSnapshotTime returns when the snapshot was last written, or the zero
// time when no run has completed yet.
func (s *Store) LastSnapshotTime(ctx context.Context) (time.Time, error) {
	var value string
	err := s.conn.QueryRowContext(ctx,
		`SELECT value FROM metadata WHERE key = 'last_snapshot'`,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, value)
}

// canonicalDoc encodes the comparable part of a substance. The bookkeeping
// timestamps and enrichment data stay out so they never trigger an update.
func canonicalDoc(sub *entities.Substance) (string, error) {
	clone := *sub
	clone.Added = nil
	clone.Updated = nil
	clone.UniiInfo = nil

	doc, err := json.Marshal(clone)
	if err != nil {
		return "", err
	}
	return string(doc), nil
}
