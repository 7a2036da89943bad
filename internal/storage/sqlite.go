package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/pfrederiksen/event-harvest/internal/event"
	"github.com/pfrederiksen/event-harvest/internal/logger"
	"github.com/pfrederiksen/event-harvest/internal/source"
)

// SQLiteStore implements Store using modernc.org/sqlite. Records are kept as
// JSON documents; position preserves catalog order.
type SQLiteStore struct {
	db *sql.DB
	// Now decides what is past; defaults to time.Now.
	Now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, Now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS events (
	id         TEXT PRIMARY KEY,
	position   INTEGER NOT NULL,
	start_date TEXT,
	data       TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sources (
	id           TEXT PRIMARY KEY,
	position     INTEGER NOT NULL,
	data         TEXT NOT NULL,
	last_scraped DATETIME
);

CREATE INDEX IF NOT EXISTS idx_events_start_date ON events(start_date);
`

// Migrate creates the tables
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// inTx runs fn in a transaction, rolling back when it fails
func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	if err := fn(tx); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit")
}

func (s *SQLiteStore) LoadEvents(ctx context.Context) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM events ORDER BY position`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load events")
	}
	defer rows.Close() //nolint:errcheck

	events := make([]event.Event, 0)
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan event")
		}
		var e event.Event
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal event")
		}
		events = append(events, e)
	}
	return events, eris.Wrap(rows.Err(), "sqlite: load events iterate")
}

// SaveEvents replaces the catalog in one transaction
func (s *SQLiteStore) SaveEvents(ctx context.Context, events []event.Event) error {
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM events`); err != nil {
			return eris.Wrap(err, "sqlite: clear events")
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT OR REPLACE INTO events (id, position, start_date, data) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return eris.Wrap(err, "sqlite: prepare event insert")
		}
		defer stmt.Close() //nolint:errcheck

		for i, e := range events {
			data, err := json.Marshal(e)
			if err != nil {
				return eris.Wrapf(err, "sqlite: marshal event %s", e.ID)
			}
			if _, err := stmt.ExecContext(ctx, e.ID, i, e.StartDate, string(data)); err != nil {
				return eris.Wrapf(err, "sqlite: insert event %s", e.ID)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Debug("Saved events", logger.Fields{"driver": DriverSQLite, "count": len(events)})
	return nil
}

func (s *SQLiteStore) LoadSources(ctx context.Context) ([]source.Descriptor, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data, last_scraped FROM sources ORDER BY position`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load sources")
	}
	defer rows.Close() //nolint:errcheck

	sources := make([]source.Descriptor, 0)
	for rows.Next() {
		var (
			data        string
			lastScraped sql.NullTime
		)
		if err := rows.Scan(&data, &lastScraped); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan source")
		}
		var d source.Descriptor
		if err := json.Unmarshal([]byte(data), &d); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal source")
		}
		d.LastScraped = nil
		if lastScraped.Valid {
			t := lastScraped.Time.UTC()
			d.LastScraped = &t
		}
		sources = append(sources, d)
	}
	return sources, eris.Wrap(rows.Err(), "sqlite: load sources iterate")
}

// SaveSources replaces the registry in one transaction
func (s *SQLiteStore) SaveSources(ctx context.Context, sources []source.Descriptor) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM sources`); err != nil {
			return eris.Wrap(err, "sqlite: clear sources")
		}
		for i, d := range sources {
			var lastScraped interface{}
			if d.LastScraped != nil {
				lastScraped = d.LastScraped.UTC()
			}
			d.LastScraped = nil
			data, err := json.Marshal(d)
			if err != nil {
				return eris.Wrapf(err, "sqlite: marshal source %s", d.ID)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT OR REPLACE INTO sources (id, position, data, last_scraped) VALUES (?, ?, ?, ?)`,
				d.ID, i, string(data), lastScraped,
			)
			if err != nil {
				return eris.Wrapf(err, "sqlite: insert source %s", d.ID)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) UpdateSourceLastScraped(ctx context.Context, ids []string, at time.Time) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx,
				`UPDATE sources SET last_scraped = ? WHERE id = ?`, at.UTC(), id,
			); err != nil {
				return eris.Wrapf(err, "sqlite: update source %s", id)
			}
		}
		return nil
	})
}

// RemovePastEvents deletes past events in one transaction
func (s *SQLiteStore) RemovePastEvents(ctx context.Context, keepDays int) (int, error) {
	events, err := s.LoadEvents(ctx)
	if err != nil {
		return 0, err
	}
	_, past := splitPast(events, s.Now(), keepDays)
	if len(past) == 0 {
		return 0, nil
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		for _, id := range past {
			if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
				return eris.Wrapf(err, "sqlite: delete event %s", id)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	logger.Info("Removed past events", logger.Fields{"removed": len(past), "keep_days": keepDays})
	return len(past), nil
}
