// Package journal records document activity in a local SQLite database.
//
// Every open, save, failed save and settings push is appended to the events
// table; the documents table keeps one row per (backend, path) with the
// counters used by the recent-documents picker.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ferrum-editor/ferrum/internal/migrations"
	_ "github.com/mattn/go-sqlite3"
)

// timeLayout sorts lexically in time order
const timeLayout = "2006-01-02 15:04:05.000000"

// Event kinds
const (
	KindOpen       = "open"
	KindSave       = "save"
	KindSaveFailed = "save_failed"
	KindConfigPush = "config_push"
)

// Document is a row of the recent documents list
type Document struct {
	Path       string
	LastOpened time.Time
	LastSaved  time.Time // zero if never saved
	OpenCount  int
	SaveCount  int
}

// Event is one journal entry
type Event struct {
	ID        int64
	Timestamp time.Time
	Kind      string
	Path      string
	Detail    string
}

// Journal is a handle on the journal database, scoped to one backend
type Journal struct {
	db     *sql.DB
	apiURL string
	now    func() time.Time
}

// Open opens (creating if needed) the database at dbPath. Entries are
// scoped to apiURL so several backends can share one file.
func Open(dbPath, apiURL string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to journal database: %w", err)
	}
	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Journal{db: db, apiURL: apiURL, now: time.Now}, nil
}

// Close closes the database
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) stamp() string {
	return j.now().Local().Format(timeLayout)
}

func (j *Journal) insertEvent(tx *sql.Tx, ts, kind, path, detail string) error {
	_, err := tx.Exec(
		`INSERT INTO events (timestamp, api_url, kind, path, detail) VALUES (?, ?, ?, ?, ?)`,
		ts, j.apiURL, kind, path, detail,
	)
	if err != nil {
		return fmt.Errorf("failed to insert %s event: %w", kind, err)
	}
	return nil
}

func (j *Journal) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := j.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// RecordOpen notes that path was loaded
func (j *Journal) RecordOpen(path string) error {
	ts := j.stamp()
	return j.inTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO documents (api_url, path, last_opened, open_count)
			VALUES (?, ?, ?, 1)
			ON CONFLICT(api_url, path) DO UPDATE SET
				last_opened = excluded.last_opened,
				open_count = open_count + 1
		`, j.apiURL, path, ts)
		if err != nil {
			return fmt.Errorf("failed to record open: %w", err)
		}
		return j.insertEvent(tx, ts, KindOpen, path, "")
	})
}

// RecordSave notes a successful save of size bytes
func (j *Journal) RecordSave(path string, size int) error {
	ts := j.stamp()
	return j.inTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO documents (api_url, path, last_opened, last_saved, save_count)
			VALUES (?, ?, ?, ?, 1)
			ON CONFLICT(api_url, path) DO UPDATE SET
				last_saved = excluded.last_saved,
				save_count = save_count + 1
		`, j.apiURL, path, ts, ts)
		if err != nil {
			return fmt.Errorf("failed to record save: %w", err)
		}
		return j.insertEvent(tx, ts, KindSave, path, fmt.Sprintf("%d bytes", size))
	})
}

// RecordSaveFailure notes a save the backend rejected
func (j *Journal) RecordSaveFailure(path string, cause error) error {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	ts := j.stamp()
	return j.inTx(func(tx *sql.Tx) error {
		return j.insertEvent(tx, ts, KindSaveFailed, path, detail)
	})
}

// RecordConfigPush notes a settings push with a summary of the changes
func (j *Journal) RecordConfigPush(detail string) error {
	ts := j.stamp()
	return j.inTx(func(tx *sql.Tx) error {
		return j.insertEvent(tx, ts, KindConfigPush, "", detail)
	})
}

// Recent returns documents most recently opened first. A limit of 0 or less
// returns all of them.
func (j *Journal) Recent(limit int) ([]Document, error) {
	query := `
		SELECT path, last_opened, last_saved, open_count, save_count
		FROM documents
		WHERE api_url = ?
		ORDER BY last_opened DESC, id DESC
	`
	args := []interface{}{j.apiURL}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var opened, saved sql.NullString
		if err := rows.Scan(&d.Path, &opened, &saved, &d.OpenCount, &d.SaveCount); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		d.LastOpened = parseTime(opened)
		d.LastSaved = parseTime(saved)
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Events returns journal entries newest first
func (j *Journal) Events(limit int) ([]Event, error) {
	query := `
		SELECT id, timestamp, kind, path, detail
		FROM events
		WHERE api_url = ?
		ORDER BY id DESC
	`
	args := []interface{}{j.apiURL}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var ts sql.NullString
		if err := rows.Scan(&e.ID, &ts, &e.Kind, &e.Path, &e.Detail); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Timestamp = parseTime(ts)
		events = append(events, e)
	}
	return events, rows.Err()
}

// Clear removes every entry for the journal's backend
func (j *Journal) Clear() error {
	return j.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM documents WHERE api_url = ?`, j.apiURL); err != nil {
			return fmt.Errorf("failed to clear documents: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM events WHERE api_url = ?`, j.apiURL); err != nil {
			return fmt.Errorf("failed to clear events: %w", err)
		}
		return nil
	})
}

func parseTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(timeLayout, s.String, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}
