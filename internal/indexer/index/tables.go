package index

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/indexer/tokenizer"
)

// DocFreqTable maps a term to the number of documents containing it at least
// once, in the title or the body.
type DocFreqTable map[string]int

// IDFTable maps a term to its rarity weight.
type IDFTable map[string]float64

// InvertedIndex maps a term to the IDs of the documents containing it, in
// corpus order, each ID at most once.
type InvertedIndex map[string][]corpus.ID

// DocumentTerms returns the distinct terms of a document's title and body,
// title terms first.
func DocumentTerms(doc corpus.Document) []string {
	terms := tokenizer.Tokenize(doc.Title)
	if doc.HasBody() {
		terms = append(terms, tokenizer.Tokenize(doc.BodyText())...)
	}
	return tokenizer.Unique(terms)
}

// IDF is ln(n / (df+1)). A term in every document gets a negative weight, so
// matching it lowers a document's score.
func IDF(n, df int) float64 {
	if n <= 0 {
		return 0
	}
	return math.Log(float64(n) / float64(df+1))
}

// ComputeDocFreq counts, per term, how many documents contain it.
func ComputeDocFreq(docs []corpus.Document) DocFreqTable {
	df := make(DocFreqTable)
	for _, doc := range docs {
		for _, term := range DocumentTerms(doc) {
			df[term]++
		}
	}
	return df
}

// IDFFromDocFreq turns document frequencies over n documents into IDF
// weights.
func IDFFromDocFreq(df DocFreqTable, n int) IDFTable {
	idf := make(IDFTable, len(df))
	if n == 0 {
		return idf
	}
	for term, count := range df {
		idf[term] = IDF(n, count)
	}
	return idf
}

// ComputeIDF builds the IDF table for docs. An empty corpus yields an empty
// table.
func ComputeIDF(docs []corpus.Document) IDFTable {
	return IDFFromDocFreq(ComputeDocFreq(docs), len(docs))
}

// BuildInvertedIndex maps every term to the documents that contain it.
func BuildInvertedIndex(docs []corpus.Document) InvertedIndex {
	inv := make(InvertedIndex)
	p := newPostingAppender(docs)
	for _, doc := range docs {
		for _, term := range DocumentTerms(doc) {
			p.add(inv, term, doc.ID)
		}
	}
	return inv
}

// postingAppender appends IDs to posting lists. A well-formed corpus has
// unique IDs, so the append is unconditional; IDs that occur on more than
// one document are checked against the list first.
type postingAppender struct {
	repeated map[corpus.ID]struct{}
}

func newPostingAppender(docs []corpus.Document) postingAppender {
	seen := make(map[corpus.ID]struct{}, len(docs))
	var repeated map[corpus.ID]struct{}
	for _, doc := range docs {
		if _, ok := seen[doc.ID]; ok {
			if repeated == nil {
				repeated = make(map[corpus.ID]struct{})
			}
			repeated[doc.ID] = struct{}{}
		}
		seen[doc.ID] = struct{}{}
	}
	return postingAppender{repeated: repeated}
}

func (p postingAppender) add(inv InvertedIndex, term string, id corpus.ID) {
	if _, ok := p.repeated[id]; ok {
		for _, existing := range inv[term] {
			if existing == id {
				return
			}
		}
	}
	inv[term] = append(inv[term], id)
}
