package corpus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/resilience"
	"github.com/lib/pq"
)

// PostgresSchema creates the two corpus tables. Corpus order is the
// position column.
const PostgresSchema = `
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
    topics       JSONB NOT NULL DEFAULT '[]',
    essay_type   TEXT[] NOT NULL DEFAULT '{}',
    audience     TEXT[] NOT NULL DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS essay_content (
    id      TEXT PRIMARY KEY REFERENCES essays(id),
    content TEXT NOT NULL
);`

// PostgresSource reads the corpus from the PostgresSchema tables.
type PostgresSource struct {
	db    *postgres.Client
	retry resilience.RetryConfig
}

func NewPostgresSource(db *postgres.Client, maxAttempts int) *PostgresSource {
	return &PostgresSource{
		db:    db,
		retry: resilience.RetryConfig{MaxAttempts: maxAttempts},
	}
}

func (s *PostgresSource) Essays(ctx context.Context) ([]Essay, error) {
	var essays []Essay
	err := resilience.Retry(ctx, "load essays", s.retry, func() error {
		var err error
		essays, err = s.queryEssays(ctx)
		return err
	})
	return essays, err
}

func (s *PostgresSource) queryEssays(ctx context.Context) ([]Essay, error) {
	rows, err := s.db.DB.QueryContext(ctx, `
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
			e         Essay
			id        string
			topicsRaw []byte
		)
		if err := rows.Scan(
			&id, &e.Title, &e.URL, &e.Year, &e.Month, &e.Date, &e.WordCount, &e.ReadingTime,
			&topicsRaw, pq.Array(&e.EssayType), pq.Array(&e.Audience),
		); err != nil {
			return nil, fmt.Errorf("scanning essay row: %w", err)
		}
		e.ID = ID(id)
		if len(topicsRaw) > 0 {
			if err := json.Unmarshal(topicsRaw, &e.Topics); err != nil {
				return nil, resilience.Permanent(fmt.Errorf("decoding topics of essay %s: %w", id, err))
			}
		}
		essays = append(essays, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating essay rows: %w", err)
	}
	return essays, nil
}

func (s *PostgresSource) Contents(ctx context.Context) ([]Content, error) {
	var contents []Content
	err := resilience.Retry(ctx, "load essay content", s.retry, func() error {
		rows, err := s.db.DB.QueryContext(ctx, `SELECT id, content FROM essay_content`)
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
