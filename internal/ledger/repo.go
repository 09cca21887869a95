package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/notedex/internal/apperr"
)

// Status of the last submission attempt for a path.
const (
	StatusSubmitted = "submitted"
	StatusFailed    = "failed"
)

// Submission is one row of the ledger.
type Submission struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	DocID     string    `json:"doc_id,omitempty"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordSubmitted marks path as submitted with the given content checksum
// and document id.
func (db *DB) RecordSubmitted(path, checksum, docID string) error {
	_, err := db.conn.Exec(`
		INSERT INTO submissions (path, checksum, doc_id, status, error, updated_at)
		VALUES (?, ?, ?, ?, '', ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum   = excluded.checksum,
			doc_id     = excluded.doc_id,
			status     = excluded.status,
			error      = '',
			updated_at = excluded.updated_at
	`, path, checksum, docID, StatusSubmitted, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("ledger: record submitted: %w", err)
	}
	return nil
}

// RecordFailed marks path as failed. A document id from an earlier
// successful submission is kept.
func (db *DB) RecordFailed(path, checksum string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	_, err := db.conn.Exec(`
		INSERT INTO submissions (path, checksum, status, error, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			checksum   = excluded.checksum,
			status     = excluded.status,
			error      = excluded.error,
			updated_at = excluded.updated_at
	`, path, checksum, StatusFailed, msg, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("ledger: record failed: %w", err)
	}
	return nil
}

// Checksum returns the checksum of the last successful submission of path,
// or "" when there is none.
func (db *DB) Checksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(
		`SELECT checksum FROM submissions WHERE path = ? AND status = ?`, path, StatusSubmitted,
	).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("ledger: checksum: %w", err)
	}
	return cs, nil
}

// DocID returns the document id last submitted for path, or "".
func (db *DB) DocID(path string) (string, error) {
	var id string
	err := db.conn.QueryRow(`SELECT doc_id FROM submissions WHERE path = ?`, path).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("ledger: doc id: %w", err)
	}
	return id, nil
}

// Get returns the ledger row for path.
func (db *DB) Get(path string) (*Submission, error) {
	var s Submission
	err := db.conn.QueryRow(`
		SELECT path, checksum, doc_id, status, error, updated_at
		FROM submissions WHERE path = ?
	`, path).Scan(&s.Path, &s.Checksum, &s.DocID, &s.Status, &s.Error, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("ledger: %s: %w", path, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: get: %w", err)
	}
	return &s, nil
}

// Failed lists paths whose last attempt failed, oldest first.
func (db *DB) Failed() ([]Submission, error) {
	rows, err := db.conn.Query(`
		SELECT path, checksum, doc_id, status, error, updated_at
		FROM submissions WHERE status = ?
		ORDER BY updated_at, path
	`, StatusFailed)
	if err != nil {
		return nil, fmt.Errorf("ledger: failed: %w", err)
	}
	defer rows.Close()

	out := []Submission{}
	for rows.Next() {
		var s Submission
		if err := rows.Scan(&s.Path, &s.Checksum, &s.DocID, &s.Status, &s.Error, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ledger: scan: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
