package sorter

import (
	"testing"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/searcher/engine"
	apperrors "github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func match(id string, year, month, words int, score float64) engine.Match {
	return engine.Match{
		Doc:   corpus.Document{Essay: corpus.Essay{ID: corpus.ID(id), Year: year, Month: month, WordCount: words}},
		Score: score,
	}
}

func fixture() []engine.Match {
	return []engine.Match{
		match("a", 2005, 3, 9000, 1),
		match("b", 2005, 11, 500, 5),
		match("c", 2013, 9, 6000, 1),
		match("d", 2004, 9, 500, 5),
		match("e", 2005, 0, 500, 0),
	}
}

func order(ms []engine.Match) []corpus.ID {
	out := make([]corpus.ID, len(ms))
	for i, m := range ms {
		out[i] = m.Doc.ID
	}
	return out
}

func TestParseKey(t *testing.T) {
	k, err := ParseKey(" Length-Desc ")
	require.NoError(t, err)
	assert.Equal(t, LengthDesc, k)

	k, err = ParseKey("")
	require.NoError(t, err)
	assert.Equal(t, Key(""), k)

	_, err = ParseKey("relevance")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestNewOrder(t *testing.T) {
	o, err := NewOrder("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultOrder(), o)

	o, err = NewOrder("length-asc", "date-desc")
	require.NoError(t, err)
	assert.Equal(t, Order{Primary: LengthAsc, Secondary: DateDesc, UserSelected: true}, o)
	assert.Equal(t, "length-asc,date-desc", o.String())

	o, err = NewOrder("date-asc", "date-asc")
	require.NoError(t, err)
	assert.Equal(t, Key(""), o.Secondary)

	_, err = NewOrder("", "date-asc")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = NewOrder("date-asc", "bogus")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestSortKeys(t *testing.T) {
	tests := []struct {
		name  string
		order Order
		want  []corpus.ID
	}{
		{"date desc uses month", Order{Primary: DateDesc}, []corpus.ID{"c", "b", "a", "e", "d"}},
		{"date asc", Order{Primary: DateAsc}, []corpus.ID{"d", "e", "a", "b", "c"}},
		{"length desc keeps input order on ties", Order{Primary: LengthDesc}, []corpus.ID{"a", "c", "b", "d", "e"}},
		{"length asc then date desc", Order{Primary: LengthAsc, Secondary: DateDesc}, []corpus.ID{"b", "e", "d", "c", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := fixture()
			Sort(ms, tt.order, false)
			assert.Equal(t, tt.want, order(ms))
		})
	}
}

func TestSortByRelevance(t *testing.T) {
	ms := fixture()
	Sort(ms, DefaultOrder(), true)
	// Scores 5,5 then 1,1 then 0; ties fall to date desc.
	assert.Equal(t, []corpus.ID{"b", "d", "c", "a", "e"}, order(ms))

	ms = fixture()
	Sort(ms, Order{Primary: DateAsc, UserSelected: true}, true)
	assert.Equal(t, []corpus.ID{"d", "e", "a", "b", "c"}, order(ms), "a chosen sort overrides relevance")
}

func TestToggle(t *testing.T) {
	o := DefaultOrder()

	// First pick becomes primary, even when it is the default key.
	o = o.Toggle(DateDesc)
	assert.Equal(t, Order{Primary: DateDesc, UserSelected: true}, o)

	// Other category becomes secondary.
	o = o.Toggle(LengthAsc)
	assert.Equal(t, Order{Primary: DateDesc, Secondary: LengthAsc, UserSelected: true}, o)

	// Same category replaces primary.
	o = o.Toggle(DateAsc)
	assert.Equal(t, Order{Primary: DateAsc, Secondary: LengthAsc, UserSelected: true}, o)

	// Clicking the secondary drops it.
	assert.Equal(t, Order{Primary: DateAsc, UserSelected: true}, o.Toggle(LengthAsc))

	// Clicking the primary promotes the secondary.
	o = o.Toggle(DateAsc)
	assert.Equal(t, Order{Primary: LengthAsc, UserSelected: true}, o)

	// Clicking the only key resets.
	assert.Equal(t, DefaultOrder(), o.Toggle(LengthAsc))
}
