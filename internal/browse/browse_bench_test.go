package browse

import (
	"fmt"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/browse/filter"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/searcher/engine"
)

var benchVocabulary = strings.Fields(`startup founders investors writing essay
	ideas growth users product school work great wealth programming language
	design taste money time hackers cities ambition default alive persuade`)

// syntheticCorpus builds n essays of roughly wordCount body words each.
func syntheticCorpus(n, wordCount int) []corpus.Document {
	topics := []string{"Startups", "Communication", "Society", "Technology"}
	docs := make([]corpus.Document, n)
	for i := range docs {
		words := make([]string, wordCount)
		for w := range words {
			words[w] = benchVocabulary[(i*7+w*13)%len(benchVocabulary)]
		}
		body := strings.Join(words, " ")
		docs[i] = corpus.Document{
			Essay: corpus.Essay{
				ID:          corpus.ID(fmt.Sprint(i)),
				Title:       fmt.Sprintf("%s and %s", benchVocabulary[i%len(benchVocabulary)], benchVocabulary[(i*3)%len(benchVocabulary)]),
				Year:        1995 + i%30,
				Month:       1 + i%12,
				WordCount:   wordCount,
				ReadingTime: wordCount / 250,
				Topics:      []corpus.TopicTag{{Topic: topics[i%len(topics)]}},
				EssayType:   []string{"Essay"},
				Audience:    []string{"General"},
			},
			Body: &body,
		}
	}
	return docs
}

// BenchmarkIndexBuild measures tokenizing a corpus and building both tables.
func BenchmarkIndexBuild(b *testing.B) {
	for _, n := range []int{100, 1000} {
		docs := syntheticCorpus(n, 2000)
		b.Run(fmt.Sprintf("essays_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = index.Build(docs)
			}
		})
	}
}

// BenchmarkRun measures evaluating one view: filters, search, sort.
func BenchmarkRun(b *testing.B) {
	docs := syntheticCorpus(250, 2000)
	eng := engine.New(index.Build(docs))
	requests := []struct {
		name string
		req  Request
	}{
		{"browse", Request{}},
		{"one_term", Request{Query: "startup"}},
		{"three_terms", Request{Query: "startup growth users"}},
		{"filtered", Request{Query: "writing", Criteria: filter.Criteria{TopicPaths: [][]string{{"Communication"}}}}},
		{"facets", Request{Query: "wealth", WithFacets: true}},
	}
	for _, r := range requests {
		b.Run(r.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = Run(eng, docs, r.req)
			}
		})
	}
}

// BenchmarkRunParallel measures concurrent reads against one snapshot.
func BenchmarkRunParallel(b *testing.B) {
	docs := syntheticCorpus(250, 2000)
	eng := engine.New(index.Build(docs))
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_ = Run(eng, docs, Request{Query: "programming language"})
		}
	})
}
