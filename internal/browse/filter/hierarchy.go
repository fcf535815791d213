package filter

import (
	"cmp"
	"maps"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/corpus"
)

// TopicOrder fixes the display order of one topic's children. Names not
// listed follow the listed ones alphabetically.
type TopicOrder struct {
	DirectItems []string            `json:"direct_items,omitempty" yaml:"directItems"`
	Categories  []string            `json:"categories,omitempty" yaml:"categories"`
	Items       map[string][]string `json:"items,omitempty" yaml:"items"`
}

// DisplayOrder holds the hand-curated orderings for the filter trees.
type DisplayOrder struct {
	Topics    map[string]TopicOrder `json:"topics,omitempty" yaml:"topics"`
	Audiences []string              `json:"audiences,omitempty" yaml:"audiences"`
}

// DefaultDisplayOrder is the ordering used for the published essay corpus.
func DefaultDisplayOrder() DisplayOrder {
	return DisplayOrder{
		Topics: map[string]TopicOrder{
			"Society": {
				DirectItems: []string{"Social Commentary", "Philosophy", "Economics and Policy", "Education"},
			},
			"Communication": {
				DirectItems: []string{"Writing", "Media"},
			},
			"Startups": {
				Categories: []string{"The Startup World", "Getting Started", "Running a Startup", "Funding & Finance"},
				Items: map[string][]string{
					"The Startup World": {"Y Combinator", "Founder Life", "Startup Landscape", "Startup Hubs"},
					"Getting Started":   {"Starting a Company", "Ideas"},
					"Running a Startup": {"Founder Life", "Strategy and Growth", "Failure"},
					"Funding & Finance": {"Funding and Investing", "Runway", "Exits"},
				},
			},
		},
		Audiences: []string{"General", "Founders", "Hackers and Makers", "Investors", "Writers"},
	}
}

// Node is one value in a filter tree.
type Node struct {
	Name     string `json:"name"`
	Key      string `json:"key"`
	Count    int    `json:"count"`
	Children []Node `json:"children,omitempty"`
}

// Hierarchy builds the topic tree of docs. Topics are ordered by essay
// count, most first. Under a topic, category-less items come before
// categories; both follow order. Counts are essays, each counted once per
// node.
func Hierarchy(docs []corpus.Document, order DisplayOrder) []Node {
	type category struct {
		count int
		items map[string]int
	}
	type topic struct {
		count      int
		direct     map[string]int
		categories map[string]*category
	}
	topics := make(map[string]*topic)
	for _, d := range docs {
		seen := make(map[string]struct{})
		once := func(key string) bool {
			if _, ok := seen[key]; ok {
				return false
			}
			seen[key] = struct{}{}
			return true
		}
		for _, t := range d.Topics {
			tp, ok := topics[t.Topic]
			if !ok {
				tp = &topic{direct: make(map[string]int), categories: make(map[string]*category)}
				topics[t.Topic] = tp
			}
			if once(t.Topic) {
				tp.count++
			}
			for _, s := range t.Subtopics {
				if s.Category == "" {
					for _, item := range s.Items {
						if once(t.Topic + TopicKeySep + item) {
							tp.direct[item]++
						}
					}
					continue
				}
				cat, ok := tp.categories[s.Category]
				if !ok {
					cat = &category{items: make(map[string]int)}
					tp.categories[s.Category] = cat
				}
				catKey := t.Topic + TopicKeySep + s.Category
				if once(catKey) {
					cat.count++
				}
				for _, item := range s.Items {
					if once(catKey + TopicKeySep + item) {
						cat.items[item]++
					}
				}
			}
		}
	}

	out := make([]Node, 0, len(topics))
	for name, tp := range topics {
		to := order.Topics[name]
		node := Node{Name: name, Key: name, Count: tp.count}
		for _, item := range SortByOrder(slices.Collect(maps.Keys(tp.direct)), to.DirectItems) {
			node.Children = append(node.Children, Node{
				Name: item, Key: name + TopicKeySep + item, Count: tp.direct[item],
			})
		}
		for _, catName := range SortByOrder(slices.Collect(maps.Keys(tp.categories)), to.Categories) {
			cat := tp.categories[catName]
			catKey := name + TopicKeySep + catName
			catNode := Node{Name: catName, Key: catKey, Count: cat.count}
			for _, item := range SortByOrder(slices.Collect(maps.Keys(cat.items)), to.Items[catName]) {
				catNode.Children = append(catNode.Children, Node{
					Name: item, Key: catKey + TopicKeySep + item, Count: cat.items[item],
				})
			}
			node.Children = append(node.Children, catNode)
		}
		out = append(out, node)
	}
	slices.SortFunc(out, func(a, b Node) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// EssayTypes lists the essay types of docs, most common first.
func EssayTypes(docs []corpus.Document) []Node {
	counts := make(map[string]int)
	for _, d := range docs {
		for _, t := range dedupe(d.EssayType) {
			counts[t]++
		}
	}
	out := make([]Node, 0, len(counts))
	for name, n := range counts {
		out = append(out, Node{Name: name, Key: name, Count: n})
	}
	slices.SortFunc(out, func(a, b Node) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}

// Audiences lists the audiences of docs in the curated order.
func Audiences(docs []corpus.Document, order DisplayOrder) []Node {
	counts := make(map[string]int)
	for _, d := range docs {
		for _, a := range dedupe(d.Audience) {
			counts[a]++
		}
	}
	out := make([]Node, 0, len(counts))
	for _, name := range SortByOrder(slices.Collect(maps.Keys(counts)), order.Audiences) {
		out = append(out, Node{Name: name, Key: name, Count: counts[name]})
	}
	return out
}

// SortByOrder sorts names in place: names listed in order come first, in
// that order, then the rest alphabetically. It returns names.
func SortByOrder(names []string, order []string) []string {
	rank := func(s string) int {
		if i := slices.Index(order, s); i >= 0 {
			return i
		}
		return len(order)
	}
	slices.SortFunc(names, func(a, b string) int {
		if c := cmp.Compare(rank(a), rank(b)); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return names
}
