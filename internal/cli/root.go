// Package cli implements essayctl, the terminal front end of the essay
// browser. Commands load the configured corpus into a local index; nothing
// talks to a running essayd.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/searcher/engine"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/logger"
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type app struct {
	in  io.Reader
	out io.Writer

	configPath string
	jsonOut    bool
	raw        bool
	verbose    bool

	cfg     *config.Config
	builder *indexer.Builder
}

// NewRootCommand returns the essayctl command tree reading interactive
// input from in and writing results to out.
func NewRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	a := &app{in: in, out: out}
	root := &cobra.Command{
		Use:   "essayctl",
		Short: "Search and browse the essay collection",
		Long: `Search, filter and read essays from the terminal.

The corpus comes from the config file (or EB_* environment variables) and is
indexed in memory on every run. Output is rendered markdown on a terminal,
plain markdown when piped, and JSON with --json.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "config file; built-in defaults and EB_* variables when empty")
	flags.BoolVar(&a.jsonOut, "json", false, "print JSON")
	flags.BoolVar(&a.raw, "raw", false, "print markdown without terminal rendering")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log at the configured level instead of warnings only")

	root.AddCommand(
		a.newSearchCmd(),
		a.newFacetsCmd(),
		a.newEssayCmd(),
		a.newTopicsCmd(),
		a.newStatsCmd(),
		a.newBrowseCmd(),
		a.newImportCmd(),
		a.newKeygenCmd(),
		a.newMCPCmd(),
	)
	return root
}

func (a *app) setup(c *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := "warn"
	if a.verbose {
		level = cfg.Logging.Level
	}
	// stdout carries results, and the JSON-RPC stream under "mcp".
	slog.SetDefault(logger.New(os.Stderr, level, cfg.Logging.Format))
	return nil
}

// snapshot loads and indexes the corpus on first use.
func (a *app) snapshot(ctx context.Context) (*indexer.Snapshot, error) {
	if a.builder != nil {
		return a.builder.Current()
	}
	src, closeSource, err := corpus.OpenSource(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	defer closeSource()

	a.builder = indexer.NewBuilder(src, a.cfg.Corpus.Source, a.cfg.Corpus.LoadTimeout,
		indexer.WithEngineOptions(engine.WithTitleWeight(a.cfg.Search.TitleWeight)))
	return a.builder.Rebuild(ctx)
}

// emit prints v as JSON under --json and markdown otherwise. Markdown is
// rendered with glamour when out is a terminal.
func (a *app) emit(v any, markdown string) error {
	if a.jsonOut {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	if !a.raw && isTerminal(a.out) {
		rendered, err := glamour.Render(markdown, "dark")
		if err == nil {
			_, err = fmt.Fprint(a.out, rendered)
			return err
		}
		slog.Debug("markdown rendering failed", "error", err)
	}
	_, err := fmt.Fprint(a.out, markdown)
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
