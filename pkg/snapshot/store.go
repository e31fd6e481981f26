// Package snapshot persists coverage snapshots for later comparison. The
// on-disk layout is an SQLite database private to this package.
package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jupierce/covreport/pkg/coverage"
)

// ErrNoSnapshot is returned when the store holds no snapshot yet.
var ErrNoSnapshot = errors.New("no saved coverage snapshot")

const schemaVersion = 1

// Snapshot is a saved set of file records with its aggregate statistics.
type Snapshot struct {
	RunID     string
	CreatedAt time.Time
	Summary   coverage.Summary
	Files     map[string]*coverage.FileRecord
}

// Store reads and writes snapshots.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if necessary) the snapshot database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open snapshot database: %w", err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);

		CREATE TABLE IF NOT EXISTS snapshots (
			id                 INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id             TEXT NOT NULL UNIQUE,
			created_at         TEXT NOT NULL,
			files              INTEGER NOT NULL DEFAULT 0,
			num_lines          INTEGER NOT NULL DEFAULT 0,
			num_code_lines     INTEGER NOT NULL DEFAULT 0,
			covered_lines      INTEGER NOT NULL DEFAULT 0,
			covered_code_lines INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS snapshot_files (
			snapshot_id INTEGER NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
			name        TEXT NOT NULL,
			lines_json  TEXT NOT NULL DEFAULT '[]',
			counts_json TEXT NOT NULL DEFAULT '[]',
			marks       TEXT NOT NULL DEFAULT '',
			code        TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (snapshot_id, name)
		);
	`)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		_, err = db.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion)
		return err
	}
	return nil
}

const markChars = "uci"

func encodeMarks(rec *coverage.FileRecord) (marks, code string) {
	var mb, cb strings.Builder
	for i, m := range rec.Marks {
		mb.WriteByte(markChars[m])
		if rec.IsCode(i) {
			cb.WriteByte('1')
		} else {
			cb.WriteByte('0')
		}
	}
	return mb.String(), cb.String()
}

func decodeMarks(marks, code string) ([]coverage.Mark, []bool, error) {
	if len(marks) != len(code) {
		return nil, nil, fmt.Errorf("corrupt snapshot: %d marks, %d code flags", len(marks), len(code))
	}
	outMarks := make([]coverage.Mark, len(marks))
	outCode := make([]bool, len(code))
	for i := range marks {
		idx := strings.IndexByte(markChars, marks[i])
		if idx < 0 {
			return nil, nil, fmt.Errorf("corrupt snapshot: mark %q", marks[i])
		}
		outMarks[i] = coverage.Mark(idx)
		outCode[i] = code[i] == '1'
	}
	return outMarks, outCode, nil
}

// Save stores records as a new snapshot.
func (s *Store) Save(ctx context.Context, records []*coverage.FileRecord) (*Snapshot, error) {
	snap := &Snapshot{
		RunID:     uuid.NewString(),
		CreatedAt: s.now().UTC(),
		Summary:   coverage.Summarize(records),
		Files:     make(map[string]*coverage.FileRecord, len(records)),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT INTO snapshots
		(run_id, created_at, files, num_lines, num_code_lines, covered_lines, covered_code_lines)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		snap.RunID, snap.CreatedAt.Format(time.RFC3339Nano), snap.Summary.Files, snap.Summary.NumLines,
		snap.Summary.NumCodeLines, snap.Summary.CoveredLines, snap.Summary.CoveredCodeLines)
	if err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("snapshot id: %w", err)
	}

	for _, rec := range records {
		linesJSON, err := json.Marshal(rec.Lines)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", rec.Name, err)
		}
		countsJSON, err := json.Marshal(rec.Counts)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", rec.Name, err)
		}
		marks, code := encodeMarks(rec)
		if _, err := tx.ExecContext(ctx, `INSERT INTO snapshot_files
			(snapshot_id, name, lines_json, counts_json, marks, code) VALUES (?, ?, ?, ?, ?, ?)`,
			id, rec.Name, string(linesJSON), string(countsJSON), marks, code); err != nil {
			return nil, fmt.Errorf("insert %s: %w", rec.Name, err)
		}
		snap.Files[rec.Name] = rec
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit snapshot: %w", err)
	}
	return snap, nil
}

// Latest loads the most recently saved snapshot.
func (s *Store) Latest(ctx context.Context) (*Snapshot, error) {
	var (
		id        int64
		createdAt string
		snap      Snapshot
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, run_id, created_at, files, num_lines, num_code_lines,
		covered_lines, covered_code_lines FROM snapshots ORDER BY id DESC LIMIT 1`).Scan(
		&id, &snap.RunID, &createdAt, &snap.Summary.Files, &snap.Summary.NumLines,
		&snap.Summary.NumCodeLines, &snap.Summary.CoveredLines, &snap.Summary.CoveredCodeLines)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if snap.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name, lines_json, counts_json, marks, code
		FROM snapshot_files WHERE snapshot_id = ? ORDER BY name`, id)
	if err != nil {
		return nil, fmt.Errorf("load snapshot files: %w", err)
	}
	defer rows.Close()

	snap.Files = make(map[string]*coverage.FileRecord)
	for rows.Next() {
		var name, linesJSON, countsJSON, marks, code string
		if err := rows.Scan(&name, &linesJSON, &countsJSON, &marks, &code); err != nil {
			return nil, fmt.Errorf("scan snapshot file: %w", err)
		}
		rec := &coverage.FileRecord{Name: name}
		if err := json.Unmarshal([]byte(linesJSON), &rec.Lines); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		if err := json.Unmarshal([]byte(countsJSON), &rec.Counts); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		if rec.Marks, rec.Code, err = decodeMarks(marks, code); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("corrupt snapshot: %w", err)
		}
		snap.Files[name] = rec
	}
	return &snap, rows.Err()
}
