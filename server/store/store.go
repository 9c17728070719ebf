// Package store persists match history for the dedicated server: matches,
// accepted scores and watchdog or anti-cheat incidents.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"
)

// ErrClosed is returned by every method after Close.
var ErrClosed = errors.New("store: closed")

// Incident kinds.
const (
	KindWatchdog = "watchdog"
	KindCheat    = "cheat"
)

// Store wraps the SQLite database connection.
type Store struct {
	mu     sync.RWMutex
	conn   *sql.DB
	closed bool
}

// IncidentDetail is stored msgpack-encoded in the detail column.
type IncidentDetail struct {
	State       string     `msgpack:"state,omitempty"`
	TimeInState float64    `msgpack:"time_in_state,omitempty"`
	Position    [3]float64 `msgpack:"position"`
	Action      string     `msgpack:"action,omitempty"`
	Note        string     `msgpack:"note,omitempty"`
}

// Incident is one recorded recovery or refused move.
type Incident struct {
	ID      ulid.ULID
	MatchID ulid.ULID
	Kind    string
	Subject string
	Detail  IncidentDetail
	At      time.Time
}

// Open opens (or creates) the database at path and migrates the schema.
func Open(path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// Pragmas are per connection; one connection keeps them in force.
	conn.SetMaxOpenConns(1)

	// Enable WAL mode so the loop's writes don't block readers
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	log.Printf("[store] opened %s", path)
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS matches (
		id TEXT PRIMARY KEY,
		level TEXT NOT NULL,
		started_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS scores (
		match_id TEXT NOT NULL REFERENCES matches(id),
		team INTEGER NOT NULL,
		carrier INTEGER NOT NULL,
		at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS incidents (
		id TEXT PRIMARY KEY,
		match_id TEXT NOT NULL REFERENCES matches(id),
		kind TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		detail BLOB,
		at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_scores_match ON scores(match_id);
	CREATE INDEX IF NOT EXISTS idx_incidents_match ON incidents(match_id);
	`
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close closes the database connection. Further calls return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	return s.conn.Close()
}

// db returns the connection with the read lock held. Callers must call the
// returned release func.
func (s *Store) db() (*sql.DB, func(), error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, nil, ErrClosed
	}
	return s.conn, s.mu.RUnlock, nil
}

// RecordMatch starts a new match on level and returns its id.
func (s *Store) RecordMatch(level string, startedAt time.Time) (ulid.ULID, error) {
	conn, release, err := s.db()
	if err != nil {
		return ulid.ULID{}, err
	}
	defer release()

	id := ulid.MustNew(ulid.Timestamp(startedAt), ulid.DefaultEntropy())
	if _, err := conn.Exec(
		"INSERT INTO matches (id, level, started_at) VALUES (?, ?, ?)",
		id.String(), level, startedAt.UnixMilli(),
	); err != nil {
		return ulid.ULID{}, fmt.Errorf("record match: %w", err)
	}
	return id, nil
}

// RecordScore stores one accepted score.
func (s *Store) RecordScore(matchID ulid.ULID, team int, carrier uint32, at time.Time) error {
	conn, release, err := s.db()
	if err != nil {
		return err
	}
	defer release()

	if _, err := conn.Exec(
		"INSERT INTO scores (match_id, team, carrier, at) VALUES (?, ?, ?, ?)",
		matchID.String(), team, carrier, at.UnixMilli(),
	); err != nil {
		return fmt.Errorf("record score: %w", err)
	}
	return nil
}

// RecordIncident stores an incident and returns its id.
func (s *Store) RecordIncident(matchID ulid.ULID, kind, subject string, detail IncidentDetail, at time.Time) (ulid.ULID, error) {
	conn, release, err := s.db()
	if err != nil {
		return ulid.ULID{}, err
	}
	defer release()

	blob, err := msgpack.Marshal(&detail)
	if err != nil {
		return ulid.ULID{}, fmt.Errorf("encode incident detail: %w", err)
	}
	id := ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy())
	if _, err := conn.Exec(
		"INSERT INTO incidents (id, match_id, kind, subject, detail, at) VALUES (?, ?, ?, ?, ?, ?)",
		id.String(), matchID.String(), kind, subject, blob, at.UnixMilli(),
	); err != nil {
		return ulid.ULID{}, fmt.Errorf("record incident: %w", err)
	}
	return id, nil
}

// TeamScores sums the points of a match per team.
func (s *Store) TeamScores(matchID ulid.ULID) (map[int]int, error) {
	conn, release, err := s.db()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := conn.Query(
		"SELECT team, COUNT(*) FROM scores WHERE match_id = ? GROUP BY team",
		matchID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("team scores: %w", err)
	}
	defer rows.Close()

	scores := make(map[int]int)
	for rows.Next() {
		var team, n int
		if err := rows.Scan(&team, &n); err != nil {
			return nil, fmt.Errorf("team scores: %w", err)
		}
		scores[team] = n
	}
	return scores, rows.Err()
}

// Incidents lists the incidents of a match in the order they happened.
func (s *Store) Incidents(matchID ulid.ULID) ([]Incident, error) {
	conn, release, err := s.db()
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := conn.Query(
		"SELECT id, kind, subject, detail, at FROM incidents WHERE match_id = ? ORDER BY at, id",
		matchID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("incidents: %w", err)
	}
	defer rows.Close()

	var out []Incident
	for rows.Next() {
		var (
			id   string
			blob []byte
			at   int64
		)
		inc := Incident{MatchID: matchID}
		if err := rows.Scan(&id, &inc.Kind, &inc.Subject, &blob, &at); err != nil {
			return nil, fmt.Errorf("incidents: %w", err)
		}
		if inc.ID, err = ulid.Parse(id); err != nil {
			return nil, fmt.Errorf("incident id %q: %w", id, err)
		}
		if len(blob) > 0 {
			if err := msgpack.Unmarshal(blob, &inc.Detail); err != nil {
				return nil, fmt.Errorf("decode incident %s: %w", id, err)
			}
		}
		inc.At = time.UnixMilli(at)
		out = append(out, inc)
	}
	return out, rows.Err()
}
