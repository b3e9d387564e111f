package capture

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/chazu/callwire/callback"

	_ "modernc.org/sqlite"
)

var log = commonlog.GetLogger("callwire.capture")

// ErrRecordNotFound indicates the requested record doesn't exist.
var ErrRecordNotFound = errors.New("record not found")

// Store keeps records in a SQLite database. Records are stored as CBOR
// with the kind and time broken out for querying.
type Store struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// Open opens or creates the store at path. ":memory:" gives a private
// in-memory store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One connection keeps ":memory:" stores on a single database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS invocations (
		seq  INTEGER PRIMARY KEY AUTOINCREMENT,
		id   TEXT NOT NULL UNIQUE,
		kind INTEGER NOT NULL,
		at   INTEGER NOT NULL,
		data BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database path the store was opened with.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record persists rec. It implements Recorder.
func (s *Store) Record(rec *Record) error {
	data, err := Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.Exec(
		"INSERT INTO invocations (id, kind, at, data) VALUES (?, ?, ?, ?)",
		rec.ID, int64(rec.Kind), rec.At, data,
	)
	if err != nil {
		return fmt.Errorf("saving record: %w", err)
	}
	log.Debugf("captured %s", rec)
	return nil
}

// Get returns the record with the given id.
func (s *Store) Get(id string) (*Record, error) {
	var data []byte
	err := s.db.QueryRow("SELECT data FROM invocations WHERE id = ?", id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("querying record: %w", err)
	}
	return Unmarshal(data)
}

// Query narrows List. Zero values match everything.
type Query struct {
	Kind   *callback.Kind
	Failed bool // only records whose dispatch failed
	Limit  int
}

// List returns matching records in capture order.
func (s *Store) List(q Query) ([]*Record, error) {
	stmt := "SELECT data FROM invocations"
	var args []any
	if q.Kind != nil {
		stmt += " WHERE kind = ?"
		args = append(args, int64(*q.Kind))
	}
	stmt += " ORDER BY seq"
	if q.Limit > 0 && !q.Failed {
		stmt += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.Query(stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		rec, err := Unmarshal(data)
		if err != nil {
			return nil, err
		}
		if q.Failed && !rec.Failed() {
			continue
		}
		out = append(out, rec)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, rows.Err()
}

// Count returns the number of stored records.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM invocations").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}
