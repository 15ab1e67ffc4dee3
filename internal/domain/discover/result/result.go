package result

import "github.com/kailas-cloud/animedex/internal/domain/anime"

// Result is a single discovery hit.
type Result struct {
	item         anime.Item
	relevance    float64
	hasRelevance bool
}

// New creates a result without relevance (browse mode).
func New(item anime.Item) Result {
	return Result{item: item}
}

// NewScored creates a result carrying a similarity score in [0, 1].
func NewScored(item anime.Item, relevance float64) Result {
	return Result{item: item, relevance: relevance, hasRelevance: true}
}

// Item returns the catalog entry.
func (r *Result) Item() anime.Item { return r.item }

// ID returns the anime id.
func (r *Result) ID() int { return r.item.ID }

// Relevance returns the similarity score and whether one was computed.
func (r *Result) Relevance() (float64, bool) { return r.relevance, r.hasRelevance }
