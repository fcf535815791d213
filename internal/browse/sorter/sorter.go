// Package sorter orders browse results by date or length, with an optional
// secondary key, and by relevance while a search is active.
package sorter

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/searcher/engine"
	apperrors "github.com/Adithya-Monish-Kumar-K/essay-browser/pkg/errors"
)

type Key string

const (
	DateDesc   Key = "date-desc"
	DateAsc    Key = "date-asc"
	LengthDesc Key = "length-desc"
	LengthAsc  Key = "length-asc"
)

// Keys lists every sort key.
var Keys = []Key{DateDesc, DateAsc, LengthDesc, LengthAsc}

// ParseKey accepts a sort key by name. The empty string parses to the zero
// Key.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return "", nil
	}
	for _, k := range Keys {
		if string(k) == s {
			return k, nil
		}
	}
	return "", apperrors.InvalidInput("unknown sort %q, want one of %s", s, joinKeys())
}

func joinKeys() string {
	names := make([]string, len(Keys))
	for i, k := range Keys {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

func (k Key) category() string {
	switch k {
	case DateDesc, DateAsc:
		return "date"
	case LengthDesc, LengthAsc:
		return "length"
	}
	return ""
}

// Compare orders a before b (negative), after b (positive) or level (0)
// under k. Dates compare by year, then month; a missing month sorts as 0.
func (k Key) Compare(a, b corpus.Essay) int {
	switch k {
	case DateDesc:
		return cmp.Or(cmp.Compare(b.Year, a.Year), cmp.Compare(b.Month, a.Month))
	case DateAsc:
		return cmp.Or(cmp.Compare(a.Year, b.Year), cmp.Compare(a.Month, b.Month))
	case LengthDesc:
		return cmp.Compare(b.WordCount, a.WordCount)
	case LengthAsc:
		return cmp.Compare(a.WordCount, b.WordCount)
	}
	return 0
}

// Order is the active sort. UserSelected is false until the user picks a
// key; while it is false an active search sorts by relevance first.
type Order struct {
	Primary      Key  `json:"primary"`
	Secondary    Key  `json:"secondary,omitempty"`
	UserSelected bool `json:"user_selected"`
}

// DefaultOrder is newest first, not chosen by the user.
func DefaultOrder() Order {
	return Order{Primary: DateDesc}
}

// NewOrder builds a user-selected order from request parameters. An empty
// primary yields DefaultOrder; a secondary equal to the primary is dropped.
func NewOrder(primary, secondary string) (Order, error) {
	p, err := ParseKey(primary)
	if err != nil {
		return Order{}, err
	}
	s, err := ParseKey(secondary)
	if err != nil {
		return Order{}, err
	}
	if p == "" {
		if s != "" {
			return Order{}, apperrors.InvalidInput("secondary sort %q needs a primary sort", s)
		}
		return DefaultOrder(), nil
	}
	if s == p {
		s = ""
	}
	return Order{Primary: p, Secondary: s, UserSelected: true}, nil
}

// Toggle applies a click on key k:
//   - on the selected primary: promote the secondary, or reset to default
//   - on the secondary: drop it
//   - otherwise the first pick, or a pick in the primary's category (date or
//     length), becomes primary; a pick in the other category becomes
//     secondary.
func (o Order) Toggle(k Key) Order {
	switch {
	case o.UserSelected && k == o.Primary:
		if o.Secondary != "" {
			return Order{Primary: o.Secondary, UserSelected: true}
		}
		return DefaultOrder()
	case k == o.Secondary:
		o.Secondary = ""
		return o
	case !o.UserSelected || k.category() == o.Primary.category():
		o.Primary = k
		o.UserSelected = true
		if o.Secondary == k {
			o.Secondary = ""
		}
		return o
	default:
		o.Secondary = k
		return o
	}
}

// String renders the order as "primary[,secondary]".
func (o Order) String() string {
	if o.Secondary == "" {
		return string(o.Primary)
	}
	return fmt.Sprintf("%s,%s", o.Primary, o.Secondary)
}

// Sort orders matches in place. With byRelevance set and no user-selected
// order, higher scores come first and ties fall through to the keys. The
// sort is stable, so fully tied matches keep their incoming order.
func Sort(matches []engine.Match, o Order, byRelevance bool) {
	relevance := byRelevance && !o.UserSelected
	slices.SortStableFunc(matches, func(a, b engine.Match) int {
		if relevance {
			if c := cmp.Compare(b.Score, a.Score); c != 0 {
				return c
			}
		}
		if c := o.Primary.Compare(a.Doc.Essay, b.Doc.Essay); c != 0 {
			return c
		}
		return o.Secondary.Compare(a.Doc.Essay, b.Doc.Essay)
	})
}
