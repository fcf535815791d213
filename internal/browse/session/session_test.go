package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse/filter"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse/sorter"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/searcher/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	src := corpus.FileSource{
		EssaysPath:  filepath.Join("..", "..", "corpus", "testdata", "essays.json"),
		ContentPath: filepath.Join("..", "..", "corpus", "testdata", "essay-content.json"),
	}
	c, _, err := corpus.Load(context.Background(), src, time.Second)
	require.NoError(t, err)
	s := New(engine.New(index.Build(c.Documents())), c.Documents(), opts...)
	t.Cleanup(s.Close)
	return s
}

func TestSetQueryResetsChosenSort(t *testing.T) {
	s := newSession(t)
	chosen := sorter.Order{Primary: sorter.LengthAsc, UserSelected: true}

	s.SetOrder(chosen)
	s.SetQuery("writing")
	assert.Equal(t, sorter.DefaultOrder(), s.Order(), "new query hands ordering back to relevance")

	s.SetOrder(chosen)
	s.SetQuery("writing")
	assert.Equal(t, chosen, s.Order(), "unchanged query keeps the sort")

	s.SetQuery("")
	assert.Equal(t, chosen, s.Order(), "clearing the query keeps the sort")
}

func TestEvaluate(t *testing.T) {
	s := newSession(t)
	s.UpdateCriteria(func(c *filter.Criteria) { c.ToggleTopic([]string{"Startups"}) })
	res := s.Evaluate()
	assert.Equal(t, 2, res.Total)
	require.NotNil(t, res.Facets)
	assert.Equal(t, 2, res.Facets.Topics["Startups"])

	s.ToggleSort(sorter.DateAsc)
	res = s.Evaluate()
	require.Len(t, res.Essays, 2)
	assert.Equal(t, corpus.ID("1"), res.Essays[0].ID)

	s.ResetFilters()
	s.ResetSort()
	assert.True(t, s.Criteria().IsZero())
	assert.Equal(t, 6, s.Evaluate().Total)
}

func TestWithLimit(t *testing.T) {
	s := newSession(t, WithLimit(1))
	res := s.Evaluate()
	assert.Len(t, res.Essays, 1)
	assert.Equal(t, 6, res.Total)
}

func TestTypeDeliversLatestOnly(t *testing.T) {
	s := newSession(t, WithDebounce(30*time.Millisecond))
	results := make(chan browse.Result, 4)
	deliver := func(r browse.Result) { results <- r }

	for _, q := range []string{"w", "wr", "wri", "writing"} {
		s.Type(q, deliver)
	}

	select {
	case r := <-results:
		assert.Equal(t, "writing", r.Query)
		assert.Equal(t, 2, r.Total)
	case <-time.After(2 * time.Second):
		t.Fatal("no evaluation delivered")
	}
	select {
	case r := <-results:
		t.Fatalf("unexpected extra evaluation for %q", r.Query)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFlush(t *testing.T) {
	s := newSession(t, WithDebounce(time.Hour))
	var got *browse.Result
	s.Type("three", func(r browse.Result) { got = &r })
	require.True(t, s.Flush())
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Total)
	assert.False(t, s.Flush())
}

func TestSetCriteriaCopies(t *testing.T) {
	s := newSession(t)
	c := filter.Criteria{EssayTypes: []string{"Guide"}}
	s.SetCriteria(c)
	c.EssayTypes[0] = "List"
	assert.Equal(t, []string{"Guide"}, s.Criteria().EssayTypes)
	assert.Equal(t, 3, s.Evaluate().Total)
}
