package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/resilience"

	_ "modernc.org/sqlite"
)

// SQLiteSchema mirrors the PostgreSQL tables. Arrays and the topic tree are
// stored as JSON text.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS essays (
    id           TEXT PRIMARY KEY,
    position     INTEGER NOT NULL,
    title        TEXT NOT NULL DEFAULT '',
    url          TEXT NOT NULL DEFAULT '',
    year         INTEGER NOT NULL,
    month        INTEGER NOT NULL DEFAULT 0,
    date         TEXT NOT NULL DEFAULT '',
    word_count   INTEGER NOT NULL DEFAULT 0,
    reading_time INTEGER NOT NULL DEFAULT 0,
    topics       TEXT NOT NULL DEFAULT '[]',
    essay_type   TEXT NOT NULL DEFAULT '[]',
    audience     TEXT NOT NULL DEFAULT '[]'
);
CREATE TABLE IF NOT EXISTS essay_content (
    id      TEXT PRIMARY KEY REFERENCES essays(id),
    content TEXT NOT NULL
);`

// SQLiteSource reads the corpus from a single-file database, for
// deployments without a database server.
type SQLiteSource struct {
	db    *sql.DB
	retry resilience.RetryConfig
}

// OpenSQLite opens the database at path and creates the tables if needed.
func OpenSQLite(ctx context.Context, path string, maxAttempts int) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database %s: %w", path, err)
	}
	for _, pragma := range []string{`PRAGMA journal_mode=WAL`, `PRAGMA busy_timeout=5000`} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("configuring sqlite database %s: %w", path, err)
		}
	}
	if _, err := db.ExecContext(ctx, SQLiteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sqlite schema: %w", err)
	}
	return &SQLiteSource{
		db:    db,
		retry: resilience.RetryConfig{MaxAttempts: maxAttempts},
	}, nil
}

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

func (s *SQLiteSource) Essays(ctx context.Context) ([]Essay, error) {
	var essays []Essay
	err := resilience.Retry(ctx, "load essays", s.retry, func() error {
		var err error
		essays, err = s.queryEssays(ctx)
		return err
	})
	return essays, err
}

func (s *SQLiteSource) queryEssays(ctx context.Context) ([]Essay, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, url, year, month, date, word_count, reading_time,
		       topics, essay_type, audience
		FROM essays
		ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("querying essays: %w", err)
	}
	defer rows.Close()

	essays := make([]Essay, 0)
	for rows.Next() {
		var (
			e                        Essay
			id                       string
			topics, types, audiences string
		)
		if err := rows.Scan(
			&id, &e.Title, &e.URL, &e.Year, &e.Month, &e.Date, &e.WordCount, &e.ReadingTime,
			&topics, &types, &audiences,
		); err != nil {
			return nil, fmt.Errorf("scanning essay row: %w", err)
		}
		e.ID = ID(id)
		for _, col := range []struct {
			name string
			raw  string
			dst  any
		}{
			{"topics", topics, &e.Topics},
			{"essay_type", types, &e.EssayType},
			{"audience", audiences, &e.Audience},
		} {
			if col.raw == "" {
				continue
			}
			if err := json.Unmarshal([]byte(col.raw), col.dst); err != nil {
				return nil, resilience.Permanent(fmt.Errorf("decoding %s of essay %s: %w", col.name, id, err))
			}
		}
		essays = append(essays, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating essay rows: %w", err)
	}
	return essays, nil
}

func (s *SQLiteSource) Contents(ctx context.Context) ([]Content, error) {
	var contents []Content
	err := resilience.Retry(ctx, "load essay content", s.retry, func() error {
		rows, err := s.db.QueryContext(ctx, `SELECT id, content FROM essay_content`)
		if err != nil {
			return fmt.Errorf("querying essay content: %w", err)
		}
		defer rows.Close()

		contents = make([]Content, 0)
		for rows.Next() {
			var id string
			var c Content
			if err := rows.Scan(&id, &c.Content); err != nil {
				return fmt.Errorf("scanning content row: %w", err)
			}
			c.ID = ID(id)
			contents = append(contents, c)
		}
		return rows.Err()
	})
	return contents, err
}

// Import replaces the database contents with essays and contents in one
// transaction. Essays keep their slice order. Content for unknown essays is
// skipped; the first entry per ID wins.
func (s *SQLiteSource) Import(ctx context.Context, essays []Essay, contents []Content) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning import: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM essay_content`, `DELETE FROM essays`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return 0, fmt.Errorf("clearing tables: %w", err)
		}
	}

	known := make(map[ID]bool, len(essays))
	for pos, e := range essays {
		if known[e.ID] {
			continue
		}
		known[e.ID] = true
		topics, err := jsonText(e.Topics)
		if err != nil {
			return 0, err
		}
		types, err := jsonText(e.EssayType)
		if err != nil {
			return 0, err
		}
		audiences, err := jsonText(e.Audience)
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO essays (id, position, title, url, year, month, date,
			                    word_count, reading_time, topics, essay_type, audience)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(e.ID), pos, e.Title, e.URL, e.Year, e.Month, e.Date,
			e.WordCount, e.ReadingTime, topics, types, audiences,
		); err != nil {
			return 0, fmt.Errorf("inserting essay %s: %w", e.ID, err)
		}
	}

	for _, c := range contents {
		if !known[c.ID] {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO essay_content (id, content) VALUES (?, ?) ON CONFLICT (id) DO NOTHING`,
			string(c.ID), c.Content,
		); err != nil {
			return 0, fmt.Errorf("inserting content of essay %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return len(known), nil
}

func jsonText(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding column: %w", err)
	}
	if string(data) == "null" {
		return "[]", nil
	}
	return string(data), nil
}
