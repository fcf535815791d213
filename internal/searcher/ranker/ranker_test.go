package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fixedIDF(table map[string]float64) IDFLookup {
	return func(term string) float64 { return table[term] }
}

func TestTermFrequency(t *testing.T) {
	assert.Equal(t, map[string]int{"a": 2, "b": 1}, TermFrequency([]string{"a", "b", "a"}))
	assert.Empty(t, TermFrequency(nil))
}

func TestScore(t *testing.T) {
	idf := fixedIDF(map[string]float64{"hard": 0.5, "craft": 2})

	tests := []struct {
		name  string
		query []string
		title []string
		body  []string
		want  float64
	}{
		{"empty query", nil, []string{"hard"}, []string{"hard"}, 0},
		{"title and body", []string{"hard"}, []string{"hard", "hard"}, []string{"hard"}, 2*0.5*30 + 0.5},
		{"body only", []string{"craft"}, []string{"on", "writing"}, []string{"a", "craft"}, 2},
		{"absent body", []string{"hard"}, []string{"hard"}, nil, 0.5 * 30},
		{"unknown term contributes nothing", []string{"zebra"}, []string{"zebra"}, []string{"zebra"}, 0},
		{"repeated query term counts twice", []string{"craft", "craft"}, nil, []string{"craft"}, 4},
		{"no match", []string{"hard"}, []string{"soft"}, []string{"easy"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.query, tt.title, tt.body, idf, DefaultTitleWeight), 1e-12)
		})
	}
}

func TestScoreTitleWeighting(t *testing.T) {
	idf := fixedIDF(map[string]float64{"term": 1.25})
	for k := 1; k <= 5; k++ {
		occurrences := make([]string, k)
		for i := range occurrences {
			occurrences[i] = "term"
		}
		inTitle := Score([]string{"term"}, occurrences, []string{"other"}, idf, DefaultTitleWeight)
		inBody := Score([]string{"term"}, []string{"other"}, occurrences, idf, DefaultTitleWeight)
		perOccurrence := inBody / float64(k)
		assert.GreaterOrEqual(t, inTitle, DefaultTitleWeight*perOccurrence)
	}
}

func TestScoreCustomWeight(t *testing.T) {
	idf := fixedIDF(map[string]float64{"x": 1})
	assert.Equal(t, 1.0+1.0, Score([]string{"x"}, []string{"x"}, []string{"x"}, idf, 1))
}
