package cli

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse/filter"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/corpus"
)

const untitled = "(untitled)"

func title(e corpus.Essay) string {
	if strings.TrimSpace(e.Title) == "" {
		return untitled
	}
	return e.Title
}

func published(e corpus.Essay) string {
	if e.Date != "" {
		return e.Date
	}
	return fmt.Sprint(e.Year)
}

func resultMarkdown(res browse.Result) string {
	var b strings.Builder
	noun := "essays"
	if res.Total == 1 {
		noun = "essay"
	}
	if strings.TrimSpace(res.Query) != "" {
		fmt.Fprintf(&b, "# %d %s matching %q\n\n", res.Total, noun, res.Query)
	} else {
		fmt.Fprintf(&b, "# %d %s\n\n", res.Total, noun)
	}

	order := res.Order.String()
	if strings.TrimSpace(res.Query) != "" && !res.Order.UserSelected {
		order = "relevance, then " + order
	}
	fmt.Fprintf(&b, "_Sorted by %s", order)
	if len(res.Essays) < res.Total {
		fmt.Fprintf(&b, "; showing %d of %d", len(res.Essays), res.Total)
	}
	b.WriteString("._\n\n")

	for i, h := range res.Essays {
		name := title(h.Essay)
		if h.URL != "" {
			name = fmt.Sprintf("[%s](%s)", name, h.URL)
		}
		fmt.Fprintf(&b, "%d. **%s** · %s · %d min", i+1, name, published(h.Essay), h.ReadingTime)
		if len(h.EssayType) > 0 {
			fmt.Fprintf(&b, " · %s", strings.Join(h.EssayType, ", "))
		}
		if h.Score > 0 {
			fmt.Fprintf(&b, " · score %.2f", h.Score)
		}
		fmt.Fprintf(&b, " · id `%s`\n", h.ID)
	}

	if res.Facets != nil {
		b.WriteString("\n")
		b.WriteString(countsMarkdown(*res.Facets))
	}
	return b.String()
}

func essayMarkdown(d corpus.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title(d.Essay))
	fmt.Fprintf(&b, "_%s · %d words · %d min read_\n\n", published(d.Essay), d.WordCount, d.ReadingTime)
	if d.URL != "" {
		fmt.Fprintf(&b, "<%s>\n\n", d.URL)
	}
	if paths := topicLabels(d.Essay); len(paths) > 0 {
		fmt.Fprintf(&b, "**Topics:** %s  \n", strings.Join(paths, "; "))
	}
	if len(d.EssayType) > 0 {
		fmt.Fprintf(&b, "**Type:** %s  \n", strings.Join(d.EssayType, ", "))
	}
	if len(d.Audience) > 0 {
		fmt.Fprintf(&b, "**Audience:** %s  \n", strings.Join(d.Audience, ", "))
	}
	b.WriteString("\n---\n\n")
	if d.HasBody() {
		b.WriteString(d.BodyText())
		b.WriteString("\n")
	} else {
		b.WriteString("_No text available for this essay._\n")
	}
	return b.String()
}

// topicLabels lists the most specific topic paths of e, levels joined
// by " › ".
func topicLabels(e corpus.Essay) []string {
	var out []string
	for _, t := range e.Topics {
		if len(t.Subtopics) == 0 {
			out = append(out, t.Topic)
		}
		for _, s := range t.Subtopics {
			prefix := []string{t.Topic}
			if s.Category != "" {
				prefix = append(prefix, s.Category)
			}
			if len(s.Items) == 0 {
				out = append(out, strings.Join(prefix, " › "))
			}
			for _, item := range s.Items {
				out = append(out, strings.Join(append(slices.Clone(prefix), item), " › "))
			}
		}
	}
	return out
}

func topicsMarkdown(t topicsOutput) string {
	var b strings.Builder
	b.WriteString("# Topics\n\n")
	writeNodes(&b, t.Topics, 0)
	b.WriteString("\n# Essay types\n\n")
	writeNodes(&b, t.Types, 0)
	b.WriteString("\n# Audiences\n\n")
	writeNodes(&b, t.Audiences, 0)
	return b.String()
}

func writeNodes(b *strings.Builder, nodes []filter.Node, depth int) {
	for _, n := range nodes {
		fmt.Fprintf(b, "%s- %s (%d)\n", strings.Repeat("  ", depth), n.Name, n.Count)
		writeNodes(b, n.Children, depth+1)
	}
}

func countsMarkdown(c filter.Counts) string {
	var b strings.Builder
	sections := []struct {
		name   string
		counts map[string]int
	}{
		{"Topics", c.Topics},
		{"Essay types", c.Types},
		{"Audiences", c.Audiences},
	}
	for i, s := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n\n", s.name)
		if len(s.counts) == 0 {
			b.WriteString("_none_\n")
			continue
		}
		for _, k := range byCount(s.counts) {
			fmt.Fprintf(&b, "- %s: %d\n", strings.ReplaceAll(k, filter.TopicKeySep, " › "), s.counts[k])
		}
	}
	return b.String()
}

// byCount returns the keys of m, highest count first, ties by key.
func byCount(m map[string]int) []string {
	keys := slices.Collect(maps.Keys(m))
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(m[b], m[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return keys
}

func statsMarkdown(s statsOutput) string {
	var b strings.Builder
	b.WriteString("# Index\n\n")
	b.WriteString("| | |\n|---|---|\n")
	rows := [][2]string{
		{"Generation", fmt.Sprint(s.Generation)},
		{"Source", s.Source},
		{"Built", s.BuiltAt.Format("2006-01-02 15:04:05 MST")},
		{"Essays", fmt.Sprint(s.Corpus.Essays)},
		{"With text", fmt.Sprint(s.Corpus.WithContent)},
		{"Data warnings", fmt.Sprint(s.Corpus.Warnings)},
		{"Terms", fmt.Sprint(s.Index.Terms)},
		{"Tokens", fmt.Sprint(s.Index.Tokens)},
		{"Load time", s.Corpus.LoadTime.String()},
		{"Build time", s.Index.BuildTime.String()},
		{"Years", fmt.Sprintf("%d–%d", s.Bounds.YearMin, s.Bounds.YearMax)},
		{"Reading time", fmt.Sprintf("%d–%d min", s.Bounds.TimeMin, s.Bounds.TimeMax)},
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %s |\n", r[0], r[1])
	}
	return b.String()
}
