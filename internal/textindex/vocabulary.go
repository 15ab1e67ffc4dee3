// Package textindex builds TF-IDF vocabularies and sparse, L2-normalised
// document vectors for cosine similarity search.
package textindex

import (
	"cmp"
	"math"
	"slices"
)

// Options tunes vocabulary construction.
type Options struct {
	// MinDocFreq drops terms found in fewer documents (default 1).
	MinDocFreq int `json:"min_doc_freq"`
	// MaxFeatures keeps only the N most frequent terms (0 = all).
	MaxFeatures int `json:"max_features"`
	// Bigrams adds adjacent-token pairs as terms.
	Bigrams bool `json:"bigrams"`
}

// DefaultOptions returns unigram TF-IDF over every term.
func DefaultOptions() Options {
	return Options{MinDocFreq: 1}
}

func (o Options) withDefaults() Options {
	if o.MinDocFreq <= 0 {
		o.MinDocFreq = 1
	}
	if o.MaxFeatures < 0 {
		o.MaxFeatures = 0
	}
	return o
}

type entry struct {
	index   int
	docFreq int
}

// Vocabulary maps terms to dimensions and document frequencies.
// It is immutable after BuildVocabulary and safe for concurrent use.
type Vocabulary struct {
	tokenizer *Tokenizer
	opts      Options
	docs      int
	terms     map[string]entry
	ordered   []string
	idf       []float64
}

// BuildVocabulary tokenizes every document and assigns dimensions to the
// surviving terms in sorted order, so equal corpora always give equal vectors.
func BuildVocabulary(docs []string, opts Options) *Vocabulary {
	opts = opts.withDefaults()
	tok := NewTokenizer(opts.Bigrams)

	docFreq := make(map[string]int)
	corpusFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, term := range tok.Tokenize(doc) {
			corpusFreq[term]++
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			docFreq[term]++
		}
	}

	kept := make([]string, 0, len(docFreq))
	for term, df := range docFreq {
		if df >= opts.MinDocFreq {
			kept = append(kept, term)
		}
	}

	if opts.MaxFeatures > 0 && len(kept) > opts.MaxFeatures {
		slices.SortFunc(kept, func(a, b string) int {
			if c := cmp.Compare(corpusFreq[b], corpusFreq[a]); c != 0 {
				return c
			}
			return cmp.Compare(a, b)
		})
		kept = kept[:opts.MaxFeatures]
	}
	slices.Sort(kept)

	v := &Vocabulary{
		tokenizer: tok,
		opts:      opts,
		docs:      len(docs),
		terms:     make(map[string]entry, len(kept)),
		ordered:   kept,
		idf:       make([]float64, len(kept)),
	}
	n := float64(len(docs))
	for i, term := range kept {
		df := docFreq[term]
		v.terms[term] = entry{index: i, docFreq: df}
		v.idf[i] = math.Log(n / float64(df))
	}
	return v
}

// Vectorize returns the L2-normalised TF-IDF vector of text.
// Terms outside the vocabulary are dropped; the result may be the zero vector.
func (v *Vocabulary) Vectorize(text string) Vector {
	if len(v.terms) == 0 {
		return Vector{}
	}

	counts := make(map[int]int)
	for _, term := range v.tokenizer.Tokenize(text) {
		if e, ok := v.terms[term]; ok {
			counts[e.index]++
		}
	}

	weights := make(map[int]float64, len(counts))
	for dim, tf := range counts {
		// idf is 0 for terms present in every document; newVector drops them.
		weights[dim] = float64(tf) * v.idf[dim]
	}
	return newVector(weights).normalize()
}

// Size returns the number of dimensions.
func (v *Vocabulary) Size() int { return len(v.ordered) }

// Docs returns the number of documents the vocabulary was built from.
func (v *Vocabulary) Docs() int { return v.docs }

// Options returns the effective build options.
func (v *Vocabulary) Options() Options { return v.opts }

// Lookup returns the dimension and document frequency of term.
func (v *Vocabulary) Lookup(term string) (index, docFreq int, ok bool) {
	e, ok := v.terms[term]
	return e.index, e.docFreq, ok
}

// Term returns the term stored at dimension index.
func (v *Vocabulary) Term(index int) (string, bool) {
	if index < 0 || index >= len(v.ordered) {
		return "", false
	}
	return v.ordered[index], true
}

// IDF returns the inverse document frequency of dimension index.
func (v *Vocabulary) IDF(index int) float64 {
	if index < 0 || index >= len(v.idf) {
		return 0
	}
	return v.idf[index]
}
