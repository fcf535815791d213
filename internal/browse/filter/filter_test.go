package filter

import (
	"testing"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/corpus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func essays() []corpus.Document {
	return []corpus.Document{
		{Essay: corpus.Essay{
			ID: "1", Title: "How to Start a Startup", Year: 2005, Month: 3, WordCount: 9000, ReadingTime: 36,
			Topics: []corpus.TopicTag{{Topic: "Startups", Subtopics: []corpus.Subtopic{
				{Category: "Getting Started", Items: []string{"Starting a Company", "Ideas"}},
			}}},
			EssayType: []string{"Guide"}, Audience: []string{"Founders"},
		}},
		{Essay: corpus.Essay{
			ID: "2", Title: "Writing, Briefly", Year: 2005, Month: 11, WordCount: 500, ReadingTime: 2,
			Topics: []corpus.TopicTag{{Topic: "Communication", Subtopics: []corpus.Subtopic{
				{Items: []string{"Writing"}},
			}}},
			EssayType: []string{"Guide", "Advice"}, Audience: []string{"Writers", "General"},
		}},
		{Essay: corpus.Essay{
			ID: "3", Title: "How to Raise Money", Year: 2013, Month: 9, WordCount: 6000, ReadingTime: 24,
			Topics: []corpus.TopicTag{{Topic: "Startups", Subtopics: []corpus.Subtopic{
				{Category: "Funding & Finance", Items: []string{"Funding and Investing"}},
			}}},
			EssayType: []string{"Guide"}, Audience: []string{"Founders", "Investors"},
		}},
		{Essay: corpus.Essay{
			ID: "4", Title: "The Age of the Essay", Year: 2004, Month: 9, WordCount: 5800, ReadingTime: 23,
			Topics: []corpus.TopicTag{
				{Topic: "Society", Subtopics: []corpus.Subtopic{{Items: []string{"Education"}}}},
				{Topic: "Communication", Subtopics: []corpus.Subtopic{{Items: []string{"Writing"}}}},
			},
			EssayType: []string{"Essay"}, Audience: []string{"General"},
		}},
		{Essay: corpus.Essay{ID: "5", Title: "Untagged", Year: 2010, ReadingTime: 1}},
	}
}

func ids(docs []corpus.Document) []corpus.ID {
	out := make([]corpus.ID, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out
}

func TestMatchesTopicPaths(t *testing.T) {
	docs := essays()
	tests := []struct {
		name string
		path []string
		want []corpus.ID
	}{
		{"topic", []string{"Startups"}, []corpus.ID{"1", "3"}},
		{"category", []string{"Startups", "Getting Started"}, []corpus.ID{"1"}},
		{"category item", []string{"Startups", "Getting Started", "Ideas"}, []corpus.ID{"1"}},
		{"item in wrong category", []string{"Startups", "Funding & Finance", "Ideas"}, nil},
		{"direct item", []string{"Communication", "Writing"}, []corpus.ID{"2", "4"}},
		{"item under wrong topic", []string{"Society", "Writing"}, nil},
		{"item of a category is not a direct item", []string{"Startups", "Ideas"}, nil},
		{"unknown topic", []string{"Cooking"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []corpus.ID
			for _, d := range docs {
				if MatchesTopicPaths(d.Essay, [][]string{tt.path}) {
					got = append(got, d.ID)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApply(t *testing.T) {
	docs := essays()
	tests := []struct {
		name string
		c    Criteria
		want []corpus.ID
	}{
		{"no filters", Criteria{}, []corpus.ID{"1", "2", "3", "4", "5"}},
		{"any of several paths", Criteria{TopicPaths: [][]string{{"Society"}, {"Startups", "Funding & Finance"}}}, []corpus.ID{"3", "4"}},
		{"any of several types", Criteria{EssayTypes: []string{"Advice", "Essay"}}, []corpus.ID{"2", "4"}},
		{"audience", Criteria{Audiences: []string{"Investors"}}, []corpus.ID{"3"}},
		{"year range inclusive", Criteria{YearMin: 2005, YearMax: 2010}, []corpus.ID{"1", "2", "5"}},
		{"open upper bound", Criteria{YearMin: 2010}, []corpus.ID{"3", "5"}},
		{"reading time", Criteria{TimeMin: 2, TimeMax: 24}, []corpus.ID{"2", "3", "4"}},
		{"facets combine with AND", Criteria{EssayTypes: []string{"Guide"}, Audiences: []string{"General"}}, []corpus.ID{"2"}},
		{"nothing matches", Criteria{YearMin: 2030}, []corpus.ID{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Apply(docs, tt.c)))
		})
	}
}

func TestApplyExcluding(t *testing.T) {
	docs := essays()
	c := Criteria{EssayTypes: []string{"Essay"}, Audiences: []string{"Founders"}, YearMax: 2012}
	assert.Empty(t, Apply(docs, c))
	assert.Equal(t, []corpus.ID{"1"}, ids(ApplyExcluding(docs, c, FacetTypes)))
	assert.Equal(t, []corpus.ID{"4"}, ids(ApplyExcluding(docs, c, FacetAudiences)))
	assert.Empty(t, ApplyExcluding(docs, c, FacetTopics), "range filters are never excluded")
}

func TestBounds(t *testing.T) {
	assert.Equal(t, DataBounds{YearMin: 2004, YearMax: 2013, TimeMin: 1, TimeMax: 36}, Bounds(essays()))
	assert.Equal(t, DataBounds{}, Bounds(nil))
}

func TestTopicKeys(t *testing.T) {
	docs := essays()
	assert.Equal(t, []string{
		"Startups", "Startups|Getting Started",
		"Startups|Getting Started|Starting a Company", "Startups|Getting Started|Ideas",
	}, TopicKeys(docs[0].Essay))
	assert.Equal(t, []string{"Society", "Society|Education", "Communication", "Communication|Writing"}, TopicKeys(docs[3].Essay))
	assert.Empty(t, TopicKeys(docs[4].Essay))
}

func TestFacets(t *testing.T) {
	docs := essays()
	c := Criteria{EssayTypes: []string{"Guide"}, TopicPaths: [][]string{{"Startups"}}}
	counts := Facets(docs, c, nil)

	// Topic counts ignore the topic selection but keep the Guide filter.
	assert.Equal(t, 2, counts.Topics["Startups"])
	assert.Equal(t, 1, counts.Topics["Communication"])
	assert.Equal(t, 1, counts.Topics["Communication|Writing"])
	assert.Zero(t, counts.Topics["Society"])

	// Type counts ignore the type selection but keep the topic filter.
	assert.Equal(t, map[string]int{"Guide": 2}, counts.Types)

	// Audience counts apply both.
	assert.Equal(t, map[string]int{"Founders": 2, "Investors": 1}, counts.Audiences)
}

func TestFacetsApplySearch(t *testing.T) {
	docs := essays()
	onlyWriting := func(pool []corpus.Document) []corpus.Document {
		var out []corpus.Document
		for _, d := range pool {
			if d.ID == "2" || d.ID == "4" {
				out = append(out, d)
			}
		}
		return out
	}
	counts := Facets(docs, Criteria{}, onlyWriting)
	assert.Equal(t, 2, counts.Topics["Communication"])
	assert.Zero(t, counts.Topics["Startups"])
	assert.Equal(t, map[string]int{"Guide": 1, "Advice": 1, "Essay": 1}, counts.Types)
	assert.Equal(t, map[string]int{"Writers": 1, "General": 2}, counts.Audiences)
}

func TestFacetsCountEssayOncePerKey(t *testing.T) {
	docs := []corpus.Document{{Essay: corpus.Essay{
		ID: "x",
		Topics: []corpus.TopicTag{
			{Topic: "Startups", Subtopics: []corpus.Subtopic{{Category: "Running a Startup", Items: []string{"Founder Life"}}}},
			{Topic: "Startups", Subtopics: []corpus.Subtopic{{Category: "Running a Startup", Items: []string{"Founder Life", "Failure"}}}},
		},
		EssayType: []string{"Guide", "Guide"},
	}}}
	counts := Facets(docs, Criteria{}, nil)
	assert.Equal(t, 1, counts.Topics["Startups"])
	assert.Equal(t, 1, counts.Topics["Startups|Running a Startup"])
	assert.Equal(t, 1, counts.Topics["Startups|Running a Startup|Founder Life"])
	assert.Equal(t, 1, counts.Types["Guide"])
}

func TestToggleTopic(t *testing.T) {
	var c Criteria
	c.ToggleTopic([]string{"Startups"})
	assert.Equal(t, [][]string{{"Startups"}}, c.TopicPaths)

	// Selecting a child replaces the selected parent.
	c.ToggleTopic([]string{"Startups", "Getting Started"})
	assert.Equal(t, [][]string{{"Startups", "Getting Started"}}, c.TopicPaths)

	c.ToggleTopic([]string{"Society"})
	require.Len(t, c.TopicPaths, 2)

	// Deselecting the last child falls back to the parent.
	c.ToggleTopic([]string{"Startups", "Getting Started"})
	assert.Equal(t, [][]string{{"Society"}, {"Startups"}}, c.TopicPaths)

	// Clicking a parent with selected descendants clears the branch.
	c.ToggleTopic([]string{"Startups", "Getting Started", "Ideas"})
	c.ToggleTopic([]string{"Startups"})
	assert.Equal(t, [][]string{{"Society"}}, c.TopicPaths)

	c.ToggleTopic([]string{"Society"})
	assert.Empty(t, c.TopicPaths)
}

func TestToggleTypeAndAudience(t *testing.T) {
	var c Criteria
	c.ToggleType("Guide")
	c.ToggleType("Essay")
	c.ToggleType("Guide")
	assert.Equal(t, []string{"Essay"}, c.EssayTypes)

	c.ToggleAudience("Founders")
	assert.Equal(t, []string{"Founders"}, c.Audiences)
	assert.False(t, c.IsZero())
	c.Reset()
	assert.True(t, c.IsZero())
}

func TestClone(t *testing.T) {
	c := Criteria{TopicPaths: [][]string{{"Startups"}}, EssayTypes: []string{"Guide"}}
	cp := c.Clone()
	cp.TopicPaths[0][0] = "Society"
	cp.EssayTypes[0] = "Essay"
	assert.Equal(t, "Startups", c.TopicPaths[0][0])
	assert.Equal(t, "Guide", c.EssayTypes[0])
}

func TestHierarchy(t *testing.T) {
	docs := essays()
	docs = append(docs, corpus.Document{Essay: corpus.Essay{
		ID: "6", Year: 2008,
		Topics: []corpus.TopicTag{{Topic: "Startups", Subtopics: []corpus.Subtopic{
			{Category: "The Startup World", Items: []string{"Y Combinator"}},
			{Category: "Getting Started", Items: []string{"Ideas"}},
		}}},
	}})
	tree := Hierarchy(docs, DefaultDisplayOrder())
	require.Len(t, tree, 3)

	assert.Equal(t, "Startups", tree[0].Name)
	assert.Equal(t, 3, tree[0].Count)
	var cats []string
	for _, n := range tree[0].Children {
		cats = append(cats, n.Name)
	}
	assert.Equal(t, []string{"The Startup World", "Getting Started", "Funding & Finance"}, cats)

	started := tree[0].Children[1]
	assert.Equal(t, "Startups|Getting Started", started.Key)
	assert.Equal(t, 2, started.Count)
	require.Len(t, started.Children, 2)
	assert.Equal(t, "Starting a Company", started.Children[0].Name, "curated item order")
	assert.Equal(t, 2, started.Children[1].Count)

	// Communication (2 essays) before Society (1).
	assert.Equal(t, "Communication", tree[1].Name)
	assert.Equal(t, []Node{{Name: "Writing", Key: "Communication|Writing", Count: 2}}, tree[1].Children)
	assert.Equal(t, "Society", tree[2].Name)
}

func TestEssayTypesAndAudiences(t *testing.T) {
	docs := essays()
	assert.Equal(t, []Node{
		{Name: "Guide", Key: "Guide", Count: 3},
		{Name: "Advice", Key: "Advice", Count: 1},
		{Name: "Essay", Key: "Essay", Count: 1},
	}, EssayTypes(docs))

	var names []string
	for _, n := range Audiences(docs, DefaultDisplayOrder()) {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"General", "Founders", "Investors", "Writers"}, names)
}

func TestSortByOrder(t *testing.T) {
	got := SortByOrder([]string{"zeta", "Media", "alpha", "Writing"}, []string{"Writing", "Media"})
	assert.Equal(t, []string{"Writing", "Media", "alpha", "zeta"}, got)
	assert.Equal(t, []string{"a", "b"}, SortByOrder([]string{"b", "a"}, nil))
}
