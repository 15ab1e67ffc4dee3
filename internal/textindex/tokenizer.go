package textindex

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// minTokenLen drops single-rune tokens ("a", "x", stray digits).
const minTokenLen = 2

// Tokenizer lowercases text, splits on every rune that is not a letter or digit,
// and drops short tokens and English stopwords.
type Tokenizer struct {
	stopwords map[string]struct{}
	bigrams   bool
}

// NewTokenizer creates a Tokenizer. With bigrams enabled every pair of adjacent
// surviving tokens is also emitted as "left right".
func NewTokenizer(bigrams bool) *Tokenizer {
	return &Tokenizer{stopwords: defaultStopwords(), bigrams: bigrams}
}

// Tokenize returns the terms of text in order of appearance.
func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		word = strings.ToLower(word)
		if utf8.RuneCountInString(word) < minTokenLen {
			continue
		}
		if _, isStop := t.stopwords[word]; isStop {
			continue
		}
		tokens = append(tokens, word)
	}

	if !t.bigrams || len(tokens) < 2 {
		return tokens
	}
	terms := make([]string, 0, 2*len(tokens)-1)
	terms = append(terms, tokens...)
	for i := 1; i < len(tokens); i++ {
		terms = append(terms, tokens[i-1]+" "+tokens[i])
	}
	return terms
}

// splitWords splits text on any rune that is neither a letter nor a digit.
func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "about", "after", "again", "against", "all", "also", "am", "an", "and",
		"any", "are", "as", "at", "be", "because", "been", "before", "being", "between",
		"both", "but", "by", "can", "could", "did", "do", "does", "doing", "down",
		"during", "each", "every", "few", "for", "from", "further", "had", "has", "have",
		"having", "he", "her", "here", "hers", "herself", "him", "himself", "his", "how",
		"if", "in", "into", "is", "it", "its", "itself", "just", "may", "me",
		"might", "more", "most", "must", "my", "myself", "no", "nor", "not", "now",
		"of", "off", "on", "once", "only", "or", "other", "our", "ours", "ourselves",
		"out", "over", "own", "same", "shall", "she", "should", "so", "some", "such",
		"than", "that", "the", "their", "theirs", "them", "themselves", "then", "there", "these",
		"they", "this", "those", "through", "to", "too", "under", "until", "up", "very",
		"was", "we", "were", "what", "when", "where", "which", "while", "who", "whom",
		"why", "will", "with", "would", "you", "your", "yours", "yourself", "yourselves",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
