package corpus

import (
	"context"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/postgres"
)

// OpenSource returns the source cfg.Corpus names and a func releasing it.
// Database sources have their schema created if needed.
func OpenSource(ctx context.Context, cfg *config.Config) (Source, func(), error) {
	noop := func() {}
	switch cfg.Corpus.Source {
	case config.SourceFile:
		return FileSource{EssaysPath: cfg.Corpus.EssaysPath, ContentPath: cfg.Corpus.ContentPath}, noop, nil
	case config.SourceHTTP:
		return NewHTTPSource(cfg.Corpus.EssaysPath, cfg.Corpus.ContentPath, cfg.Corpus.MaxAttempts), noop, nil
	case config.SourcePostgres:
		db, err := postgres.New(cfg.Postgres)
		if err != nil {
			return nil, noop, err
		}
		if err := db.Migrate(ctx, PostgresSchema); err != nil {
			db.Close()
			return nil, noop, fmt.Errorf("migrating corpus schema: %w", err)
		}
		return NewPostgresSource(db, cfg.Corpus.MaxAttempts), func() { db.Close() }, nil
	case config.SourceSQLite:
		src, err := OpenSQLite(ctx, cfg.Corpus.SQLitePath, cfg.Corpus.MaxAttempts)
		if err != nil {
			return nil, noop, err
		}
		return src, func() { src.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown corpus source %q", cfg.Corpus.Source)
	}
}
