// Package tokenizer provides text tokenisation for the essay search index.
// It lower-cases input and splits it on every run of characters that are not
// ASCII letters or digits. There is no stemming and no stop-word removal:
// a term is exactly an ASCII alphanumeric run.
package tokenizer

import "strings"

// Tokenize breaks text into lower-cased terms in order of appearance.
// Duplicates are kept; callers that need a set use Unique.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	terms := strings.FieldsFunc(text, isDelimiter)
	if terms == nil {
		return []string{}
	}
	return terms
}

// Unique returns terms with duplicates removed, keeping first occurrences.
func Unique(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, term := range terms {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		out = append(out, term)
	}
	return out
}

// isDelimiter reports whether r separates terms. strings.ToLower has already
// folded ASCII upper case, but upper case is accepted too so the split rule
// stands on its own.
func isDelimiter(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return false
	case r >= 'A' && r <= 'Z':
		return false
	case r >= '0' && r <= '9':
		return false
	}
	return true
}
