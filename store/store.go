package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tsawler/collate/align"
)

// Store is a SQLite-backed archive of alignment runs.
type Store struct {
	db *sql.DB
}

// Run summarizes one persisted alignment run.
type Run struct {
	ID        uuid.UUID
	Document  string
	Sections  int
	CreatedAt time.Time
}

// StoredSection is one persisted section row.
type StoredSection struct {
	RunID      uuid.UUID
	Ordinal    int
	Parent     int
	Label      string
	Labels     []string
	Kind       string
	Start      int
	End        int
	StartPage  int
	EndPage    int
	Matched    bool
	Confidence float64
	Stats      map[string]float64
	Text       string
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	document   TEXT NOT NULL,
	sections   INTEGER NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sections (
	run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	ordinal    INTEGER NOT NULL,
	parent     INTEGER NOT NULL,
	label      TEXT NOT NULL,
	labels     TEXT NOT NULL,
	kind       TEXT NOT NULL,
	start_ord  INTEGER NOT NULL,
	end_ord    INTEGER NOT NULL,
	start_page INTEGER NOT NULL,
	end_page   INTEGER NOT NULL,
	matched    INTEGER NOT NULL,
	confidence REAL NOT NULL,
	stats      TEXT NOT NULL,
	text       TEXT NOT NULL,
	PRIMARY KEY (run_id, ordinal)
);

CREATE INDEX IF NOT EXISTS idx_sections_label ON sections(label);
`

// Open opens or creates the archive at path and applies the schema.
// Use ":memory:" for an ephemeral archive.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun persists an alignment result under a fresh run id. Every
// section is written in one transaction; chunk text is concatenated per
// section.
func (s *Store) SaveRun(ctx context.Context, document string, res *align.Result) (uuid.UUID, error) {
	runID := uuid.New()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return uuid.Nil, fmt.Errorf("begin run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, document, sections, created_at) VALUES (?, ?, ?, ?)`,
		runID.String(), document, len(res.Sections), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert run: %w", err)
	}

	insert, err := tx.PrepareContext(ctx, `
		INSERT INTO sections
			(run_id, ordinal, parent, label, labels, kind, start_ord, end_ord,
			 start_page, end_page, matched, confidence, stats, text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return uuid.Nil, fmt.Errorf("prepare insert: %w", err)
	}
	defer insert.Close()

	for i := range res.Sections {
		sec := &res.Sections[i]
		labels, err := json.Marshal(sec.Labels)
		if err != nil {
			return uuid.Nil, fmt.Errorf("encode labels: %w", err)
		}
		stats, err := json.Marshal(sec.Stats)
		if err != nil {
			return uuid.Nil, fmt.Errorf("encode stats: %w", err)
		}
		_, err = insert.ExecContext(ctx,
			runID.String(), i, sec.Parent, sec.Label, string(labels), sec.Kind.String(),
			sec.Region.Start, sec.Region.End, sec.Region.StartPage, sec.Region.EndPage,
			sec.Matched, sec.Confidence, string(stats), sectionText(sec))
		if err != nil {
			return uuid.Nil, fmt.Errorf("insert section %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, fmt.Errorf("commit run: %w", err)
	}
	return runID, nil
}

// Runs lists persisted runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document, sections, created_at FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var id, created string
		if err := rows.Scan(&id, &r.Document, &r.Sections, &created); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse run id %q: %w", id, err)
		}
		if r.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, fmt.Errorf("parse run time %q: %w", created, err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// SectionsByLabel returns every persisted section with the given label,
// across all runs, in run and document order.
func (s *Store) SectionsByLabel(ctx context.Context, label string) ([]StoredSection, error) {
	return s.querySections(ctx,
		`SELECT run_id, ordinal, parent, label, labels, kind, start_ord, end_ord,
		        start_page, end_page, matched, confidence, stats, text
		 FROM sections WHERE label = ? ORDER BY run_id, ordinal`, label)
}

// RunSections returns every section of one run in document order.
func (s *Store) RunSections(ctx context.Context, runID uuid.UUID) ([]StoredSection, error) {
	return s.querySections(ctx,
		`SELECT run_id, ordinal, parent, label, labels, kind, start_ord, end_ord,
		        start_page, end_page, matched, confidence, stats, text
		 FROM sections WHERE run_id = ? ORDER BY ordinal`, runID.String())
}

func (s *Store) querySections(ctx context.Context, query string, args ...any) ([]StoredSection, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sections: %w", err)
	}
	defer rows.Close()

	var out []StoredSection
	for rows.Next() {
		var sec StoredSection
		var id, labels, stats string
		err := rows.Scan(&id, &sec.Ordinal, &sec.Parent, &sec.Label, &labels, &sec.Kind,
			&sec.Start, &sec.End, &sec.StartPage, &sec.EndPage,
			&sec.Matched, &sec.Confidence, &stats, &sec.Text)
		if err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		if sec.RunID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse run id %q: %w", id, err)
		}
		if err := json.Unmarshal([]byte(labels), &sec.Labels); err != nil {
			return nil, fmt.Errorf("decode labels: %w", err)
		}
		if err := json.Unmarshal([]byte(stats), &sec.Stats); err != nil {
			return nil, fmt.Errorf("decode stats: %w", err)
		}
		out = append(out, sec)
	}
	return out, rows.Err()
}

// sectionText concatenates a section's chunk texts for storage.
func sectionText(sec *align.Section) string {
	if len(sec.Chunks) == 0 {
		return ""
	}
	// Chunks overlap; taking non-overlapping token spans would need the
	// tokenizer again, so store the first chunk plus each following
	// chunk's unseen tail.
	text := sec.Chunks[0].Text
	seen := sec.Chunks[0].Offset + len(sec.Chunks[0].Tokens)
	for _, c := range sec.Chunks[1:] {
		if c.Offset+len(c.Tokens) <= seen {
			continue
		}
		fresh := c.Tokens[seen-c.Offset:]
		for _, tok := range fresh {
			text += " " + tok
		}
		seen = c.Offset + len(c.Tokens)
	}
	return text
}
