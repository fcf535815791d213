package cli

import (
	"testing"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse/filter"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse/sorter"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/corpus"
	"github.com/charmbracelet/glamour"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultMarkdown(t *testing.T) {
	res := browse.Result{
		Query: "essay",
		Order: sorter.Order{Primary: sorter.LengthAsc, UserSelected: true},
		Total: 3,
		Essays: []browse.Hit{
			{Essay: corpus.Essay{ID: "4", Title: "The Age of the Essay", URL: "https://example.com/essay.html",
				Date: "September 2004", ReadingTime: 23, EssayType: []string{"History"}}, Score: 1.5},
			{Essay: corpus.Essay{ID: "6", Year: 2010, ReadingTime: 1}},
		},
		Facets: &filter.Counts{
			Topics: map[string]int{"Communication|Writing": 1, "Society": 2, "Communication": 1},
		},
	}
	md := resultMarkdown(res)

	assert.Contains(t, md, `# 3 essays matching "essay"`)
	assert.Contains(t, md, "_Sorted by length-asc; showing 2 of 3._")
	assert.Contains(t, md, "1. **[The Age of the Essay](https://example.com/essay.html)** · September 2004 · 23 min · History · score 1.50 · id `4`")
	assert.Contains(t, md, "2. **(untitled)** · 2010 · 1 min · id `6`")
	assert.Contains(t, md, "- Society: 2\n- Communication: 1\n- Communication › Writing: 1\n")
	assert.Contains(t, md, "## Essay types\n\n_none_")

	rendered, err := glamour.Render(md, "dark")
	require.NoError(t, err)
	assert.Contains(t, rendered, "untitled")
}

func TestResultMarkdownWithoutQuery(t *testing.T) {
	md := resultMarkdown(browse.Result{Order: sorter.DefaultOrder(), Total: 1,
		Essays: []browse.Hit{{Essay: corpus.Essay{ID: "1", Title: "One", Year: 2001}}}})
	assert.Contains(t, md, "# 1 essay\n")
	assert.Contains(t, md, "_Sorted by date-desc._")
	assert.NotContains(t, md, "## Topics")
}

func TestEssayMarkdownTopicPaths(t *testing.T) {
	body := "Text."
	doc := corpus.Document{
		Essay: corpus.Essay{
			Title: "How to Start a Startup",
			Topics: []corpus.TopicTag{
				{Topic: "Startups", Subtopics: []corpus.Subtopic{
					{Category: "Getting Started", Items: []string{"Ideas", "Starting a Company"}},
					{Category: "Funding & Finance"},
				}},
				{Topic: "Society"},
			},
		},
		Body: &body,
	}
	md := essayMarkdown(doc)
	assert.Contains(t, md, "**Topics:** Startups › Getting Started › Ideas; Startups › Getting Started › Starting a Company; Startups › Funding & Finance; Society")
	assert.Contains(t, md, "---\n\nText.\n")
}

func TestTopicsMarkdownNestsChildren(t *testing.T) {
	md := topicsMarkdown(topicsOutput{
		Topics: []filter.Node{{Name: "Startups", Count: 2, Children: []filter.Node{
			{Name: "Getting Started", Count: 1, Children: []filter.Node{{Name: "Ideas", Count: 1}}},
		}}},
		Types: []filter.Node{{Name: "Guide", Count: 3}},
	})
	assert.Contains(t, md, "- Startups (2)\n  - Getting Started (1)\n    - Ideas (1)\n")
	assert.Contains(t, md, "# Essay types\n\n- Guide (3)\n")
}
