package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"only delimiters", "  --!? \t\n", []string{}},
		{"case folding", "The Hard Thing", []string{"the", "hard", "thing"}},
		{"duplicates kept", "hard HARD Hard", []string{"hard", "hard", "hard"}},
		{"punctuation splits", "writing is a craft, not hard", []string{"writing", "is", "a", "craft", "not", "hard"}},
		{"apostrophe splits", "don't", []string{"don", "t"}},
		{"digits are term characters", "web 2.0 in 2024", []string{"web", "2", "0", "in", "2024"}},
		{"leading and trailing delimiters", "...startups...", []string{"startups"}},
		{"underscore is a delimiter", "snake_case", []string{"snake", "case"}},
		{"non-ascii letters are delimiters", "café naïve", []string{"caf", "na", "ve"}},
		{"single characters kept", "a b c", []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestTokenizeIdempotentOnNormalizedInput(t *testing.T) {
	inputs := []string{
		"How to Start a Startup",
		"Why TV Lost",
		"The 18 Mistakes That Kill Startups",
		"a b c d",
	}
	for _, in := range inputs {
		first := Tokenize(in)
		again := Tokenize(strings.Join(first, " "))
		assert.Equal(t, first, again, in)
	}
}

func TestTokenizeDeterministic(t *testing.T) {
	text := "Do Things that Don't Scale; do things that don't scale."
	assert.Equal(t, Tokenize(text), Tokenize(text))
}

func TestUnique(t *testing.T) {
	assert.Equal(t, []string{"hard", "things", "the"}, Unique([]string{"hard", "things", "hard", "the", "things"}))
	assert.Equal(t, []string{}, Unique(nil))
}
