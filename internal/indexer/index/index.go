// Package index builds the read-only search artifacts for an essay corpus:
// the IDF table and the inverted index. Both are built in one pass over the
// corpus and never change afterwards; a new corpus means a new Index.
package index

import (
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/essay-browser/internal/indexer/tokenizer"
)

// Index holds the IDF table and inverted index for one corpus. It is safe
// for concurrent readers; nothing mutates it after Build returns.
type Index struct {
	idf        IDFTable
	postings   InvertedIndex
	docFreq    DocFreqTable
	docCount   int
	tokenCount int64
	buildTime  time.Duration
}

// Stats describes a built index.
type Stats struct {
	Documents int           `json:"documents"`
	Terms     int           `json:"terms"`
	Tokens    int64         `json:"tokens"`
	BuildTime time.Duration `json:"build_time"`
}

// Build tokenizes every document once and produces both tables. The result
// is identical to ComputeIDF and BuildInvertedIndex run separately.
func Build(docs []corpus.Document) *Index {
	start := time.Now()
	idx := &Index{
		postings: make(InvertedIndex),
		docFreq:  make(DocFreqTable),
		docCount: len(docs),
	}
	p := newPostingAppender(docs)
	for _, doc := range docs {
		titleTerms := tokenizer.Tokenize(doc.Title)
		idx.tokenCount += int64(len(titleTerms))
		all := titleTerms
		if doc.HasBody() {
			bodyTerms := tokenizer.Tokenize(doc.BodyText())
			idx.tokenCount += int64(len(bodyTerms))
			all = append(all, bodyTerms...)
		}
		for _, term := range tokenizer.Unique(all) {
			idx.docFreq[term]++
			p.add(idx.postings, term, doc.ID)
		}
	}
	idx.idf = IDFFromDocFreq(idx.docFreq, idx.docCount)
	idx.buildTime = time.Since(start)

	slog.Default().With("component", "index-builder").Info("search index built",
		"documents", idx.docCount,
		"terms", len(idx.idf),
		"tokens", idx.tokenCount,
		"build_ms", idx.buildTime.Milliseconds(),
	)
	return idx
}

// IDF returns the weight of term, or 0 for a term not in the corpus.
func (i *Index) IDF(term string) float64 {
	return i.idf[term]
}

// Postings returns the IDs of documents containing term in corpus order.
// The slice is shared with the index and must not be modified.
func (i *Index) Postings(term string) []corpus.ID {
	return i.postings[term]
}

// DocFreq returns the number of documents containing term.
func (i *Index) DocFreq(term string) int {
	return i.docFreq[term]
}

// DocCount returns the number of documents the index was built from.
func (i *Index) DocCount() int {
	return i.docCount
}

// IDFTable returns the IDF table. It is shared with the index and must not
// be modified.
func (i *Index) IDFTable() IDFTable {
	return i.idf
}

// Stats reports the size of the index and how long it took to build.
func (i *Index) Stats() Stats {
	return Stats{
		Documents: i.docCount,
		Terms:     len(i.idf),
		Tokens:    i.tokenCount,
		BuildTime: i.buildTime,
	}
}
