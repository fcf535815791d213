package cli

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/auth/apikey"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse/filter"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/mcp"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/searcher/handler"
	apperrors "github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/errors"
	"github.com/spf13/cobra"
)

// filterFlags are the filter options shared by search and facets. They are
// turned into API query parameters so the CLI validates input exactly as
// the HTTP API does.
type filterFlags struct {
	topics    []string
	types     []string
	audiences []string
	yearMin   int
	yearMax   int
	timeMin   int
	timeMax   int
}

func (f *filterFlags) register(c *cobra.Command) {
	fs := c.Flags()
	fs.StringArrayVar(&f.topics, "topic", nil, `topic path, levels joined by "|" (repeatable)`)
	fs.StringArrayVar(&f.types, "type", nil, "essay type (repeatable)")
	fs.StringArrayVar(&f.audiences, "audience", nil, "audience (repeatable)")
	fs.IntVar(&f.yearMin, "year-min", 0, "earliest year")
	fs.IntVar(&f.yearMax, "year-max", 0, "latest year")
	fs.IntVar(&f.timeMin, "time-min", 0, "minimum reading time in minutes")
	fs.IntVar(&f.timeMax, "time-max", 0, "maximum reading time in minutes")
}

func (f *filterFlags) values(c *cobra.Command, query string) url.Values {
	q := url.Values{}
	if query != "" {
		q.Set("q", query)
	}
	q["topic"] = f.topics
	q["type"] = f.types
	q["audience"] = f.audiences
	for name, v := range map[string]int{
		"year-min": f.yearMin, "year-max": f.yearMax,
		"time-min": f.timeMin, "time-max": f.timeMax,
	} {
		if c.Flags().Changed(name) {
			q.Set(strings.ReplaceAll(name, "-", "_"), strconv.Itoa(v))
		}
	}
	return q
}

func (a *app) newSearchCmd() *cobra.Command {
	var (
		filters filterFlags
		sortKey string
		thenKey string
		limit   int
		facets  bool
	)
	c := &cobra.Command{
		Use:   "search [query...]",
		Short: "Search and filter essays",
		Long: `List essays matching the filters, ranked by relevance when a query is
given and newest first otherwise. --sort overrides relevance ranking.`,
		Example: `  essayctl search startup ideas
  essayctl search --topic "Startups|Getting Started" --sort length-asc
  essayctl search writing --type Guide --year-min 2005 --json`,
		RunE: func(c *cobra.Command, args []string) error {
			q := filters.values(c, strings.Join(args, " "))
			if sortKey != "" {
				q.Set("sort", sortKey)
			}
			if thenKey != "" {
				q.Set("then", thenKey)
			}
			if c.Flags().Changed("limit") {
				q.Set("limit", strconv.Itoa(limit))
			}
			q.Set("facets", strconv.FormatBool(facets))
			req, err := handler.ParseRequest(q, a.cfg.Search.DefaultLimit, a.cfg.Search.MaxResults)
			if err != nil {
				return err
			}

			snap, err := a.snapshot(c.Context())
			if err != nil {
				return err
			}
			res := browse.Run(snap.Engine, snap.Docs(), req)
			return a.emit(res, resultMarkdown(res))
		},
	}
	filters.register(c)
	c.Flags().StringVar(&sortKey, "sort", "", "date-desc, date-asc, length-desc or length-asc")
	c.Flags().StringVar(&thenKey, "then", "", "secondary sort key")
	c.Flags().IntVarP(&limit, "limit", "n", 0, "maximum essays to list")
	c.Flags().BoolVar(&facets, "facets", false, "include facet counts")
	return c
}

func (a *app) newFacetsCmd() *cobra.Command {
	var filters filterFlags
	c := &cobra.Command{
		Use:   "facets [query...]",
		Short: "Count essays per topic, type and audience",
		Long: `Count the essays behind every filter value under the given filters and
query. Each facet ignores its own selection.`,
		RunE: func(c *cobra.Command, args []string) error {
			req, err := handler.ParseRequest(filters.values(c, strings.Join(args, " ")), 0, 0)
			if err != nil {
				return err
			}
			snap, err := a.snapshot(c.Context())
			if err != nil {
				return err
			}
			counts := browse.Facets(snap.Engine, snap.Docs(), req)
			return a.emit(counts, countsMarkdown(counts))
		},
	}
	filters.register(c)
	return c
}

type essayOutput struct {
	corpus.Essay
	HasContent bool   `json:"has_content"`
	Content    string `json:"content,omitempty"`
}

func (a *app) newEssayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "essay <id>",
		Short: "Read one essay",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			snap, err := a.snapshot(c.Context())
			if err != nil {
				return err
			}
			doc, ok := snap.Corpus.Get(corpus.ID(args[0]))
			if !ok {
				return apperrors.Newf(apperrors.ErrNotFound, 404, "essay %s not found", args[0])
			}
			out := essayOutput{Essay: doc.Essay, HasContent: doc.HasBody(), Content: doc.BodyText()}
			return a.emit(out, essayMarkdown(doc))
		},
	}
}

type topicsOutput struct {
	Topics    []filter.Node `json:"topics"`
	Types     []filter.Node `json:"types"`
	Audiences []filter.Node `json:"audiences"`
}

func (a *app) newTopicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "Show the topic tree, essay types and audiences",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			snap, err := a.snapshot(c.Context())
			if err != nil {
				return err
			}
			docs := snap.Docs()
			order := filter.DefaultDisplayOrder()
			out := topicsOutput{
				Topics:    filter.Hierarchy(docs, order),
				Types:     filter.EssayTypes(docs),
				Audiences: filter.Audiences(docs, order),
			}
			return a.emit(out, topicsMarkdown(out))
		},
	}
}

type statsOutput struct {
	Generation uint64            `json:"generation"`
	Source     string            `json:"source"`
	BuiltAt    time.Time         `json:"built_at"`
	Bounds     filter.DataBounds `json:"bounds"`
	Corpus     corpus.Stats      `json:"corpus"`
	Index      index.Stats       `json:"index"`
}

func (a *app) newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show corpus and index statistics",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			snap, err := a.snapshot(c.Context())
			if err != nil {
				return err
			}
			out := statsOutput{
				Generation: snap.Generation,
				Source:     snap.Source,
				BuiltAt:    snap.BuiltAt,
				Bounds:     snap.Bounds,
				Corpus:     snap.CorpusStats,
				Index:      snap.IndexStats,
			}
			return a.emit(out, statsMarkdown(out))
		},
	}
}

type importOutput struct {
	Imported int    `json:"imported"`
	Path     string `json:"path"`
}

func (a *app) newImportCmd() *cobra.Command {
	var essaysPath, contentPath, dbPath string
	c := &cobra.Command{
		Use:   "import",
		Short: "Copy the JSON corpus files into a SQLite database",
		Long: `Read essays.json and essay-content.json and replace the contents of a
SQLite database with them. Point corpus.source at "sqlite" to serve from it.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			ctx := c.Context()
			if essaysPath == "" {
				essaysPath = a.cfg.Corpus.EssaysPath
			}
			if contentPath == "" {
				contentPath = a.cfg.Corpus.ContentPath
			}
			if dbPath == "" {
				dbPath = a.cfg.Corpus.SQLitePath
			}

			files := corpus.FileSource{EssaysPath: essaysPath, ContentPath: contentPath}
			essays, err := files.Essays(ctx)
			if err != nil {
				return err
			}
			contents, err := files.Contents(ctx)
			if err != nil {
				return err
			}

			db, err := corpus.OpenSQLite(ctx, dbPath, a.cfg.Corpus.MaxAttempts)
			if err != nil {
				return err
			}
			defer db.Close()
			n, err := db.Import(ctx, essays, contents)
			if err != nil {
				return err
			}
			return a.emit(importOutput{Imported: n, Path: dbPath},
				fmt.Sprintf("Imported **%d** essays into `%s`.\n", n, dbPath))
		},
	}
	c.Flags().StringVar(&essaysPath, "essays", "", "essays.json path (default corpus.essaysPath)")
	c.Flags().StringVar(&contentPath, "content", "", "essay-content.json path (default corpus.contentPath)")
	c.Flags().StringVar(&dbPath, "sqlite", "", "database file (default corpus.sqlitePath)")
	return c
}

func (a *app) newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the essay tools to an MCP client over stdio",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			if _, err := a.snapshot(c.Context()); err != nil {
				return err
			}
			return mcp.Serve(a.builder)
		},
	}
}

type keyOutput struct {
	Key  string `json:"key"`
	Hash string `json:"hash"`
}

func (a *app) newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate an admin API key",
		Long: `Generate a random admin key. Add the hash to server.adminKeyHashes and
send the key as "Authorization: Bearer <key>" to rebuild the index or
invalidate the cache. The key is not stored anywhere.`,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			key, err := apikey.Generate()
			if err != nil {
				return err
			}
			out := keyOutput{Key: key, Hash: apikey.HashKey(key)}
			return a.emit(out, fmt.Sprintf("Key: `%s`\n\nHash: `%s`\n", out.Key, out.Hash))
		},
	}
}
