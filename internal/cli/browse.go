package cli

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse/filter"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse/session"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse/sorter"
	apperrors "github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/errors"
	"github.com/spf13/cobra"
)

const browseHelp = `Commands:
  :topic PATH       toggle a topic filter, levels joined by "|"
  :type NAME        toggle an essay type
  :audience NAME    toggle an audience
  :year MIN MAX     year range, 0 for an open end
  :time MIN MAX     reading time range in minutes, 0 for an open end
  :sort KEY         click a sort key (date-desc, date-asc, length-desc, length-asc)
  :reset            clear filters and sort
  :show             print the current view
  :help             print this help
  :quit             leave
Any other line replaces the search query.
`

func (a *app) newBrowseCmd() *cobra.Command {
	var limit int
	c := &cobra.Command{
		Use:   "browse",
		Short: "Interactive search-as-you-type session",
		Long: `Read queries and filter commands from stdin, one per line, and print the
updated view after each. Query lines are debounced so a fast stream of
partial queries costs one search.

` + browseHelp,
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			snap, err := a.snapshot(c.Context())
			if err != nil {
				return err
			}
			sess := session.New(snap.Engine, snap.Docs(),
				session.WithDebounce(a.cfg.Search.Debounce),
				session.WithLimit(limit),
			)
			defer sess.Close()

			var mu sync.Mutex
			show := func(res browse.Result) {
				mu.Lock()
				defer mu.Unlock()
				if err := a.emit(res, resultMarkdown(res)); err != nil {
					c.PrintErrln("error:", err)
				}
			}

			show(sess.Evaluate())
			scanner := bufio.NewScanner(a.in)
			for scanner.Scan() {
				if c.Context().Err() != nil {
					break
				}
				line := scanner.Text()
				if !strings.HasPrefix(line, ":") {
					sess.Type(line, show)
					continue
				}
				// Typed text entered before a command is applied first.
				sess.Flush()
				quit, err := runBrowseCommand(sess, line)
				if err != nil {
					c.PrintErrln("error:", err)
					continue
				}
				if quit {
					return nil
				}
				if line == ":help" {
					mu.Lock()
					fmt.Fprint(a.out, browseHelp)
					mu.Unlock()
					continue
				}
				show(sess.Evaluate())
			}
			sess.Flush()
			return scanner.Err()
		},
	}
	c.Flags().IntVarP(&limit, "limit", "n", 20, "essays per view; 0 lists all")
	return c
}

// runBrowseCommand applies one ":" command to sess. It reports whether the
// session should end.
func runBrowseCommand(sess *session.Session, line string) (bool, error) {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "quit", "q", "exit":
		return true, nil
	case "help", "show":
	case "reset":
		sess.ResetFilters()
		sess.ResetSort()
	case "topic":
		if arg == "" {
			return false, apperrors.InvalidInput(":topic needs a path")
		}
		path := strings.Split(arg, filter.TopicKeySep)
		for i := range path {
			path[i] = strings.TrimSpace(path[i])
		}
		sess.UpdateCriteria(func(c *filter.Criteria) { c.ToggleTopic(path) })
	case "type":
		if arg == "" {
			return false, apperrors.InvalidInput(":type needs a name")
		}
		sess.UpdateCriteria(func(c *filter.Criteria) { c.ToggleType(arg) })
	case "audience":
		if arg == "" {
			return false, apperrors.InvalidInput(":audience needs a name")
		}
		sess.UpdateCriteria(func(c *filter.Criteria) { c.ToggleAudience(arg) })
	case "year", "time":
		lo, hi, err := parseRange(arg)
		if err != nil {
			return false, err
		}
		sess.UpdateCriteria(func(c *filter.Criteria) {
			if name == "year" {
				c.YearMin, c.YearMax = lo, hi
			} else {
				c.TimeMin, c.TimeMax = lo, hi
			}
		})
	case "sort":
		k, err := sorter.ParseKey(arg)
		if err != nil {
			return false, err
		}
		if k == "" {
			return false, apperrors.InvalidInput(":sort needs a key")
		}
		sess.ToggleSort(k)
	default:
		return false, apperrors.InvalidInput("unknown command :%s, try :help", name)
	}
	return false, nil
}

func parseRange(arg string) (int, int, error) {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		return 0, 0, apperrors.InvalidInput("expected MIN MAX, got %q", arg)
	}
	var bounds [2]int
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return 0, 0, apperrors.InvalidInput("%q is not a non-negative integer", f)
		}
		bounds[i] = n
	}
	if bounds[0] > 0 && bounds[1] > 0 && bounds[0] > bounds[1] {
		return 0, 0, apperrors.InvalidInput("minimum %d exceeds maximum %d", bounds[0], bounds[1])
	}
	return bounds[0], bounds[1], nil
}
