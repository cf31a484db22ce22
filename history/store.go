// Package history logs completed simulation steps to SQLite so the editor
// can show an activity trail. The log is observational only; the engine
// never reads it back.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/patsnet/petri/service"
)

// Step is one recorded engine call.
type Step struct {
	ID       int64          `json:"id"`
	Session  string         `json:"session"`
	Fired    []string       `json:"fired,omitempty"`
	Conflict []string       `json:"conflict,omitempty"`
	Marking  map[string]int `json:"marking"`
	At       time.Time      `json:"at"`
}

type Store struct {
	db      *sql.DB
	session string
}

// New opens (or creates) the step log at path. The session tag groups the
// steps recorded by this process.
func New(path, session string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening step log: %w", err)
	}
	s := &Store{db: db, session: session}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrating step log: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS steps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session TEXT NOT NULL,
		fired TEXT NOT NULL,
		conflict TEXT NOT NULL,
		marking TEXT NOT NULL,
		at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_steps_session ON steps(session);
	`
	_, err := s.db.Exec(schema)
	return err
}

var _ service.Observer = (*Store)(nil)

// ObserveStep records one engine call.
func (s *Store) ObserveStep(ctx context.Context, ev service.StepEvent) error {
	fired, err := json.Marshal(ev.Fired)
	if err != nil {
		return err
	}
	conflict, err := json.Marshal(ev.Conflict)
	if err != nil {
		return err
	}
	marking, err := json.Marshal(ev.Marking)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO steps (session, fired, conflict, marking, at) VALUES (?, ?, ?, ?, ?)`,
		s.session, string(fired), string(conflict), string(marking), time.Now().Unix())
	return err
}

// Steps returns the recorded steps for a session, oldest first.
func (s *Store) Steps(ctx context.Context, session string) ([]*Step, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session, fired, conflict, marking, at FROM steps WHERE session = ? ORDER BY id`,
		session)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()
	steps := make([]*Step, 0)
	for rows.Next() {
		var (
			step                     Step
			fired, conflict, marking string
			at                       int64
		)
		if err := rows.Scan(&step.ID, &step.Session, &fired, &conflict, &marking, &at); err != nil {
			return nil, err
		}
		step.At = time.Unix(at, 0).UTC()
		if err := json.Unmarshal([]byte(fired), &step.Fired); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(conflict), &step.Conflict); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(marking), &step.Marking); err != nil {
			return nil, err
		}
		steps = append(steps, &step)
	}
	return steps, rows.Err()
}

// Session returns the tag steps are recorded under.
func (s *Store) Session() string { return s.session }

func (s *Store) Close() error {
	return s.db.Close()
}
