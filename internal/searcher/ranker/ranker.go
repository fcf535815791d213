// Package ranker computes TF-IDF relevance for one document against one
// query. It works on already-tokenized terms so the caller decides where the
// tokens come from.
package ranker

// DefaultTitleWeight makes a title occurrence worth thirty body occurrences
// of the same term.
const DefaultTitleWeight = 30.0

// IDFLookup returns the IDF weight of a term, 0 when unknown.
type IDFLookup func(term string) float64

// TermFrequency counts occurrences of each term.
func TermFrequency(terms []string) map[string]int {
	tf := make(map[string]int, len(terms))
	for _, t := range terms {
		tf[t]++
	}
	return tf
}

// Score returns titleSubscore*titleWeight + bodySubscore, where each subscore
// sums tf(term)*idf(term) over the query terms. Query terms are not
// deduplicated: a term typed twice counts twice.
func Score(queryTerms, titleTerms, bodyTerms []string, idf IDFLookup, titleWeight float64) float64 {
	if len(queryTerms) == 0 {
		return 0
	}
	title := subscore(queryTerms, titleTerms, idf)
	body := subscore(queryTerms, bodyTerms, idf)
	return title*titleWeight + body
}

func subscore(queryTerms, fieldTerms []string, idf IDFLookup) float64 {
	if len(fieldTerms) == 0 {
		return 0
	}
	tf := TermFrequency(fieldTerms)
	var sum float64
	for _, q := range queryTerms {
		n := tf[q]
		if n == 0 {
			continue
		}
		sum += float64(n) * idf(q)
	}
	return sum
}
