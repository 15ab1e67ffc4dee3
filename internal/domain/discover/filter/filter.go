package filter

import (
	"cmp"
	"fmt"

	"github.com/kailas-cloud/animedex/internal/domain"
	"github.com/kailas-cloud/animedex/internal/domain/anime"
)

// Range is an inclusive numeric interval. A nil bound is unbounded.
type Range[T cmp.Ordered] struct {
	min *T
	max *T
}

// NewRange validates and creates a Range. min > max is rejected.
func NewRange[T cmp.Ordered](field string, minV, maxV *T) (Range[T], error) {
	if minV != nil && maxV != nil && *minV > *maxV {
		return Range[T]{}, domain.NewValidation(field,
			fmt.Sprintf("min (%v) must not exceed max (%v)", *minV, *maxV))
	}
	return Range[T]{min: minV, max: maxV}, nil
}

// Contains reports whether v lies within the range.
func (r Range[T]) Contains(v T) bool {
	if r.min != nil && v < *r.min {
		return false
	}
	if r.max != nil && v > *r.max {
		return false
	}
	return true
}

// Min returns the lower bound.
func (r Range[T]) Min() *T { return r.min }

// Max returns the upper bound.
func (r Range[T]) Max() *T { return r.max }

// IsUnbounded reports whether neither bound is set.
func (r Range[T]) IsUnbounded() bool { return r.min == nil && r.max == nil }

// Filter is the set of structured predicates applied to every candidate.
//
// An unknown score is stored as 0, so it fails any positive min_score and passes
// any max_score.
type Filter struct {
	animeType string
	score     Range[float64]
	episodes  Range[int]
	members   Range[int]
}

// Bounds carries the raw optional bounds of a request.
type Bounds struct {
	MinScore    *float64
	MaxScore    *float64
	MinEpisodes *int
	MaxEpisodes *int
	MinMembers  *int
	MaxMembers  *int
}

// New validates and creates a Filter. An empty animeType disables the type predicate.
func New(animeType string, b Bounds) (Filter, error) {
	score, err := NewRange("score", b.MinScore, b.MaxScore)
	if err != nil {
		return Filter{}, err
	}
	episodes, err := NewRange("episodes", b.MinEpisodes, b.MaxEpisodes)
	if err != nil {
		return Filter{}, err
	}
	members, err := NewRange("members", b.MinMembers, b.MaxMembers)
	if err != nil {
		return Filter{}, err
	}
	return Filter{animeType: animeType, score: score, episodes: episodes, members: members}, nil
}

// Type returns the exact type to match (empty = any).
func (f Filter) Type() string { return f.animeType }

// Score returns the score range.
func (f Filter) Score() Range[float64] { return f.score }

// Episodes returns the episode count range.
func (f Filter) Episodes() Range[int] { return f.episodes }

// Members returns the member count range.
func (f Filter) Members() Range[int] { return f.members }

// IsEmpty reports whether the filter accepts every item.
func (f Filter) IsEmpty() bool {
	return f.animeType == "" &&
		f.score.IsUnbounded() && f.episodes.IsUnbounded() && f.members.IsUnbounded()
}

// Match reports whether the item passes every predicate. Type match is case-sensitive.
func (f Filter) Match(it *anime.Item) bool {
	if f.animeType != "" && it.Type != f.animeType {
		return false
	}
	return f.score.Contains(it.Score) &&
		f.episodes.Contains(it.Episodes) &&
		f.members.Contains(it.Members)
}
