// Package localstore adapts a local SQLite database to the
// engine.CalendarBackend capability. It serves as an on-disk calendar store
// for machines without a reachable calendar service, and doubles as the
// reference backend in tests.
package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // sqlite driver (pure Go)

	"github.com/tartampluch/go-laget/internal/config"
	"github.com/tartampluch/go-laget/internal/engine"
)

const schema = `CREATE TABLE IF NOT EXISTS events (
	uid         TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	start_unix  INTEGER NOT NULL,
	end_unix    INTEGER NOT NULL,
	location    TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	reminders   TEXT NOT NULL DEFAULT '',
	updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// Store implements engine.CalendarBackend on a SQLite file keyed by uid.
type Store struct {
	Path     string
	Location *time.Location

	db *sql.DB
}

// New creates an unopened store for the given database path.
func New(path string, loc *time.Location) *Store {
	return &Store{Path: path, Location: loc}
}

// Name identifies the backend in logs and tallies.
func (s *Store) Name() string {
	return config.BackendLocalStore
}

// Authenticate opens the database and applies the schema. The busy timeout
// keeps concurrent local readers from surfacing as spurious errors.
func (s *Store) Authenticate(ctx context.Context) error {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", s.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrStoreOpen, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("%s: %w", config.ErrStoreOpen, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return fmt.Errorf("%s: %w", config.ErrStoreSchema, err)
	}
	s.db = db
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// GetByUID looks up one stored event. Absence is (nil, nil). Instants are
// rehydrated in the civil zone so content comparison behaves like the
// original wall-clock values.
func (s *Store) GetByUID(ctx context.Context, uid string) (*engine.Event, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT uid, title, start_unix, end_unix, location, description, reminders
		 FROM events WHERE uid = ?`, uid)

	var ev engine.Event
	var startUnix, endUnix int64
	var reminders string
	err := row.Scan(&ev.UID, &ev.Title, &startUnix, &endUnix, &ev.Location, &ev.Description, &reminders)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	ev.Start = time.Unix(startUnix, 0).In(s.Location)
	ev.End = time.Unix(endUnix, 0).In(s.Location)
	ev.Reminders = decodeReminders(reminders)
	return &ev, nil
}

// Add inserts a new event row.
func (s *Store) Add(ctx context.Context, event engine.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (uid, title, start_unix, end_unix, location, description, reminders)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.UID, event.Title, event.Start.Unix(), event.End.Unix(),
		event.Location, event.Description, encodeReminders(event.Reminders))
	return err
}

// Update overwrites the content fields of the row addressed by uid.
func (s *Store) Update(ctx context.Context, uid string, event engine.Event) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE events
		 SET title = ?, start_unix = ?, end_unix = ?, location = ?, description = ?,
		     reminders = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE uid = ?`,
		event.Title, event.Start.Unix(), event.End.Unix(),
		event.Location, event.Description, encodeReminders(event.Reminders), uid)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// encodeReminders stores reminder offsets as a comma-joined column.
func encodeReminders(offsets []int) string {
	parts := make([]string, len(offsets))
	for i, o := range offsets {
		parts[i] = strconv.Itoa(o)
	}
	return strings.Join(parts, ",")
}

func decodeReminders(value string) []int {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	offsets := make([]int, 0, len(parts))
	for _, p := range parts {
		if o, err := strconv.Atoi(p); err == nil {
			offsets = append(offsets, o)
		}
	}
	return offsets
}
