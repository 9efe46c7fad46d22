// Package tracker persists per-document fingerprints across indexing runs
// and classifies each scan against them. It is the sole reader and writer of
// fingerprint state.
package tracker

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/tabletop-tools/gm-assistant/internal/source"
)

// Fingerprint is what survives between runs for one indexed document.
// The content hash decides change detection; the mod time is informational
// (a touched-but-unedited file must not re-index, a back-dated edit must).
type Fingerprint struct {
	ContentHash string
	ModTime     time.Time
}

// ChangeSet partitions a scan against the persisted fingerprints. The
// partition is total and disjoint; Deleted holds identities that were
// committed before but are absent from the current scan.
type ChangeSet struct {
	New       []source.Document
	Changed   []source.Document
	Unchanged []source.Document
	Deleted   []string
}

// Tracker is a SQLite-backed fingerprint store.
type Tracker struct {
	db *sql.DB
}

// Open opens (or creates) the fingerprint database at path.
func Open(path string) (*Tracker, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("creating state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening state database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS fingerprints (
			collection   TEXT NOT NULL,
			source       TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			mod_time     INTEGER NOT NULL,
			indexed_at   INTEGER NOT NULL,
			PRIMARY KEY (collection, source)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating fingerprints table: %w", err)
	}

	return &Tracker{db: db}, nil
}

// Close closes the database connection.
func (t *Tracker) Close() error {
	return t.db.Close()
}

// Classify partitions the scanned documents into new, changed and unchanged
// relative to the stored fingerprints, and lists previously committed
// identities missing from the scan as deleted. Identities the scan could not
// read are not deletions: an unreadable file (or an unreadable directory,
// which shields everything beneath it) keeps its fingerprint and chunks until
// a scan actually observes it gone.
func (t *Tracker) Classify(ctx context.Context, collection string, docs []source.Document, unreadable []string) (*ChangeSet, error) {
	stored, err := t.load(ctx, collection)
	if err != nil {
		return nil, err
	}

	cs := &ChangeSet{}
	seen := make(map[string]bool, len(docs))

	for _, doc := range docs {
		seen[doc.Source] = true
		prior, ok := stored[doc.Source]
		switch {
		case !ok:
			cs.New = append(cs.New, doc)
		case prior.ContentHash != doc.ContentHash:
			cs.Changed = append(cs.Changed, doc)
		default:
			cs.Unchanged = append(cs.Unchanged, doc)
		}
	}

	for src := range stored {
		if !seen[src] && !shielded(src, unreadable) {
			cs.Deleted = append(cs.Deleted, src)
		}
	}

	return cs, nil
}

// shielded reports whether src matches an unreadable identity, or sits under
// an unreadable directory path.
func shielded(src string, unreadable []string) bool {
	for _, u := range unreadable {
		if src == u || strings.HasPrefix(src, u+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Commit records the fingerprint for a document. The pipeline calls this
// only after the document's chunks are durably in the vector store.
func (t *Tracker) Commit(ctx context.Context, collection, src string, fp Fingerprint) error {
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO fingerprints (collection, source, content_hash, mod_time, indexed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (collection, source) DO UPDATE SET
			content_hash = excluded.content_hash,
			mod_time     = excluded.mod_time,
			indexed_at   = excluded.indexed_at
	`, collection, src, fp.ContentHash, fp.ModTime.Unix(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("commit fingerprint for %s: %w", src, err)
	}
	return nil
}

// Remove drops a document's fingerprint after its chunks are gone.
func (t *Tracker) Remove(ctx context.Context, collection, src string) error {
	_, err := t.db.ExecContext(ctx,
		`DELETE FROM fingerprints WHERE collection = ? AND source = ?`, collection, src)
	if err != nil {
		return fmt.Errorf("remove fingerprint for %s: %w", src, err)
	}
	return nil
}

// Clear drops every fingerprint in a collection. Used before a full re-index.
func (t *Tracker) Clear(ctx context.Context, collection string) error {
	_, err := t.db.ExecContext(ctx,
		`DELETE FROM fingerprints WHERE collection = ?`, collection)
	if err != nil {
		return fmt.Errorf("clear fingerprints for %s: %w", collection, err)
	}
	return nil
}

func (t *Tracker) load(ctx context.Context, collection string) (map[string]Fingerprint, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT source, content_hash, mod_time FROM fingerprints WHERE collection = ?`, collection)
	if err != nil {
		return nil, fmt.Errorf("load fingerprints for %s: %w", collection, err)
	}
	defer rows.Close()

	stored := make(map[string]Fingerprint)
	for rows.Next() {
		var src, hash string
		var modUnix int64
		if err := rows.Scan(&src, &hash, &modUnix); err != nil {
			return nil, fmt.Errorf("scan fingerprint row: %w", err)
		}
		stored[src] = Fingerprint{ContentHash: hash, ModTime: time.Unix(modUnix, 0)}
	}
	return stored, rows.Err()
}
