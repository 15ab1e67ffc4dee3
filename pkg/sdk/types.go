package animedex

import "time"

// SortBy selects the result ordering.
type SortBy string

// Sort constants.
const (
	// SortRelevance orders by similarity; without a query or seed it orders by members.
	SortRelevance  SortBy = "relevance"
	SortScore      SortBy = "score"
	SortRank       SortBy = "rank"
	SortPopularity SortBy = "popularity"
	SortMembers    SortBy = "members"
)

// Anime is one catalog title. Zero Score, Rank and Popularity mean unknown.
type Anime struct {
	ID         int
	Title      string
	Type       string
	Episodes   int
	Score      float64
	Rank       int
	Popularity int
	Members    int
	StartDate  string
	EndDate    string
	ImageURL   string
	Synopsis   string
}

// Hit is one discovery result.
type Hit struct {
	Anime Anime
	// Relevance is the cosine similarity in [0, 1], rounded to 4 decimals.
	Relevance float64
	// Scored is false in browse mode (no query and no seed).
	Scored bool
}

// Stats describes the loaded corpus.
type Stats struct {
	Source     string
	Items      int
	Terms      int
	Generation uint64
	BuiltAt    time.Time
}

// VectorizerOptions tunes the TF-IDF vocabulary.
type VectorizerOptions struct {
	// MinDocFreq drops terms found in fewer titles (default 1).
	MinDocFreq int
	// MaxFeatures keeps the N most frequent terms (0 = all).
	MaxFeatures int
	// Bigrams adds adjacent word pairs as terms.
	Bigrams bool
}
