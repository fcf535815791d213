package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/resilience"
	"golang.org/x/sync/errgroup"
)

// Corpus is the loaded, joined essay list. It is never mutated after Load
// returns, so it may be shared freely between goroutines.
type Corpus struct {
	docs []Document
	byID map[ID]int
}

// New joins essays with their content. Essays keep their input order. The
// first content entry for an ID wins; essays with no entry get a nil Body.
func New(essays []Essay, contents []Content) *Corpus {
	bodies := make(map[ID]*string, len(contents))
	for i := range contents {
		if _, dup := bodies[contents[i].ID]; dup {
			continue
		}
		text := contents[i].Content
		bodies[contents[i].ID] = &text
	}
	c := &Corpus{
		docs: make([]Document, len(essays)),
		byID: make(map[ID]int, len(essays)),
	}
	for i, e := range essays {
		c.docs[i] = Document{Essay: e, Body: bodies[e.ID]}
		if _, dup := c.byID[e.ID]; !dup {
			c.byID[e.ID] = i
		}
	}
	return c
}

// Documents returns the documents in corpus order. The slice is shared;
// callers must not modify it.
func (c *Corpus) Documents() []Document {
	return c.docs
}

// Len returns the number of documents.
func (c *Corpus) Len() int {
	return len(c.docs)
}

// Get looks up a document by ID.
func (c *Corpus) Get(id ID) (Document, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Document{}, false
	}
	return c.docs[i], true
}

// Stats summarises what Load produced.
type Stats struct {
	Essays      int           `json:"essays"`
	WithContent int           `json:"with_content"`
	Warnings    int           `json:"warnings"`
	LoadTime    time.Duration `json:"load_time"`
}

// Load fetches both payloads from src in parallel and joins them. A
// non-positive timeout means no deadline beyond ctx. Data problems found by
// Validate are logged, never returned.
func Load(ctx context.Context, src Source, timeout time.Duration) (*Corpus, Stats, error) {
	start := time.Now()
	log := slog.Default().With("component", "corpus-loader")

	type payloads struct {
		essays   []Essay
		contents []Content
	}
	p, err := resilience.WithTimeout(ctx, timeout, "corpus load", func(ctx context.Context) (payloads, error) {
		var p payloads
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			essays, err := src.Essays(gctx)
			if err != nil {
				return fmt.Errorf("loading essays: %w", err)
			}
			p.essays = essays
			return nil
		})
		g.Go(func() error {
			contents, err := src.Contents(gctx)
			if err != nil {
				return fmt.Errorf("loading essay content: %w", err)
			}
			p.contents = contents
			return nil
		})
		return p, g.Wait()
	})
	if err != nil {
		return nil, Stats{}, fmt.Errorf("%w: %w", apperrors.ErrCorpusUnavailable, err)
	}

	c := New(p.essays, p.contents)
	warnings := Validate(c.docs)
	for _, w := range warnings {
		log.Warn("corpus data warning", "essay_id", w.ID, "problem", w.Problem)
	}

	stats := Stats{
		Essays:   c.Len(),
		Warnings: len(warnings),
		LoadTime: time.Since(start),
	}
	for _, d := range c.docs {
		if d.HasBody() {
			stats.WithContent++
		}
	}
	log.Info("corpus loaded",
		"essays", stats.Essays,
		"with_content", stats.WithContent,
		"warnings", stats.Warnings,
		"load_ms", stats.LoadTime.Milliseconds(),
	)
	return c, stats, nil
}

// Warning is a non-fatal data problem in one essay.
type Warning struct {
	ID      ID
	Problem string
}

// Validate reports duplicate IDs, blank titles and missing text. None of
// these stop the corpus from loading: a blank title or missing body is
// simply empty text to the search index.
func Validate(docs []Document) []Warning {
	var warnings []Warning
	seen := make(map[ID]struct{}, len(docs))
	for _, d := range docs {
		if d.ID == "" {
			warnings = append(warnings, Warning{ID: d.ID, Problem: "missing id"})
		} else if _, dup := seen[d.ID]; dup {
			warnings = append(warnings, Warning{ID: d.ID, Problem: "duplicate id"})
		}
		seen[d.ID] = struct{}{}
		if strings.TrimSpace(d.Title) == "" {
			warnings = append(warnings, Warning{ID: d.ID, Problem: "blank title"})
		}
		if !d.HasBody() {
			warnings = append(warnings, Warning{ID: d.ID, Problem: "no content"})
		}
	}
	return warnings
}
