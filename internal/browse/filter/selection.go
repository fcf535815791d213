package filter

import "slices"

// ToggleTopic selects or deselects a topic path the way a tree widget
// does. Selecting a path replaces its selected ancestors and descendants.
// Deselecting removes the path and its descendants, and falls back to the
// parent when no sibling under it stays selected.
func (c *Criteria) ToggleTopic(path []string) {
	if len(path) == 0 {
		return
	}
	path = slices.Clone(path)
	selected := slices.ContainsFunc(c.TopicPaths, func(p []string) bool { return slices.Equal(p, path) })
	hasDescendants := slices.ContainsFunc(c.TopicPaths, func(p []string) bool { return isAncestor(path, p) })

	if selected || hasDescendants {
		kept := make([][]string, 0, len(c.TopicPaths))
		for _, p := range c.TopicPaths {
			if !slices.Equal(p, path) && !isAncestor(path, p) {
				kept = append(kept, p)
			}
		}
		if len(path) > 1 {
			parent := path[:len(path)-1]
			if !slices.ContainsFunc(kept, func(p []string) bool { return isAncestor(parent, p) }) {
				kept = append(kept, parent)
			}
		}
		c.TopicPaths = kept
		return
	}

	kept := make([][]string, 0, len(c.TopicPaths)+1)
	for _, p := range c.TopicPaths {
		if !isAncestor(p, path) && !isAncestor(path, p) {
			kept = append(kept, p)
		}
	}
	c.TopicPaths = append(kept, path)
}

// ToggleType adds or removes an essay type from the selection.
func (c *Criteria) ToggleType(t string) {
	c.EssayTypes = toggle(c.EssayTypes, t)
}

// ToggleAudience adds or removes an audience from the selection.
func (c *Criteria) ToggleAudience(a string) {
	c.Audiences = toggle(c.Audiences, a)
}

// Reset clears every filter.
func (c *Criteria) Reset() {
	*c = Criteria{}
}

// Clone returns a deep copy of c.
func (c Criteria) Clone() Criteria {
	out := c
	out.TopicPaths = make([][]string, len(c.TopicPaths))
	for i, p := range c.TopicPaths {
		out.TopicPaths[i] = slices.Clone(p)
	}
	if c.TopicPaths == nil {
		out.TopicPaths = nil
	}
	out.EssayTypes = slices.Clone(c.EssayTypes)
	out.Audiences = slices.Clone(c.Audiences)
	return out
}

func toggle(list []string, v string) []string {
	if i := slices.Index(list, v); i >= 0 {
		return slices.Delete(slices.Clone(list), i, i+1)
	}
	return append(slices.Clone(list), v)
}

// isAncestor reports whether a is a strict prefix of b.
func isAncestor(a, b []string) bool {
	return len(b) > len(a) && slices.Equal(a, b[:len(a)])
}
