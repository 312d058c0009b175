// Package index provides the read-only lexical index for vdlink.
//
// All catalog records live in a single SQLite database holding one FTS5
// virtual table with trigram tokenization. Trigram matching is what makes
// the index tolerant of OCR-level character corruption: a query token only
// needs to share 3-character windows with the indexed text to hit.
//
// The index is built once per dataset snapshot (see the ingest package)
// and opened read-only for query traffic.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// ErrUnavailable indicates the index database cannot be opened or queried.
// This is the only fatal error class in an evaluation run.
var ErrUnavailable = errors.New("index unavailable")

// DefaultBatchSize is the default batch size for bulk inserts.
const DefaultBatchSize = 10000

// minSearchTextLen drops records whose searchable text is shorter than a
// single trigram; they can never be matched.
const minSearchTextLen = 3

// Record is an immutable catalog entry. RecordID carries the registry
// family prefix (vd16/vd17/vd18); records without one are never indexed.
type Record struct {
	RecordID    string `json:"record_id"`
	CleanAuthor string `json:"clean_author"`
	CleanTitle  string `json:"clean_title"`
	Year        int    `json:"year,omitempty"`
	Place       string `json:"place,omitempty"`
	SearchText  string `json:"-"`
}

// Hit is one ranked search result.
type Hit struct {
	Record Record
	// Score is the lexical relevance, higher is better (negated bm25 rank).
	Score float64
}

// Query is a single boolean term query against the index.
type Query struct {
	// Match is an FTS5 boolean expression over normalized tokens,
	// e.g. `"basel" AND "historie"`.
	Match string
	// YearEq filters to records with exactly this year (0 = no filter).
	YearEq int
	// YearMin/YearMax filter to an inclusive year range (both 0 = no filter).
	YearMin int
	YearMax int
	// PreferYear orders exact and ±1 year matches ahead of the rest
	// without excluding anything (0 = pure bm25 order).
	PreferYear int
	// Limit caps the number of hits returned.
	Limit int
}

// Index is a read-only trigram FTS store over catalog records.
type Index struct {
	db   *sql.DB
	path string
}

// Open opens an existing index read-only. A missing or unreadable
// database yields ErrUnavailable.
func Open(path string) (*Index, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, path, err)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrUnavailable, path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: pinging %s: %v", ErrUnavailable, path, err)
	}
	return &Index{db: db, path: path}, nil
}

// Create opens (or creates) a writable index at path and installs a
// fresh records table, dropping any previous snapshot.
func Create(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	stmts := []string{
		"PRAGMA journal_mode=WAL",
		"DROP TABLE IF EXISTS records",
		`CREATE VIRTUAL TABLE records USING fts5(
			search_text,
			clean_author,
			clean_title,
			year UNINDEXED,
			place UNINDEXED,
			record_id UNINDEXED,
			tokenize='trigram'
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("creating records table: %w", err)
		}
	}
	return &Index{db: db, path: path}, nil
}

// Path returns the database file path backing the index.
func (ix *Index) Path() string {
	return ix.path
}

// Count returns the number of indexed records.
func (ix *Index) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := ix.db.QueryRowContext(ctx, "SELECT count(*) FROM records").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: counting records: %v", ErrUnavailable, err)
	}
	return n, nil
}

// Close closes the underlying database.
func (ix *Index) Close() error {
	return ix.db.Close()
}
