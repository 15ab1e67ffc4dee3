package request

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/animedex/internal/domain"
	"github.com/kailas-cloud/animedex/internal/domain/discover/filter"
	"github.com/kailas-cloud/animedex/internal/domain/discover/sortkey"
)

// Discovery parameter limits.
const (
	// MaxQueryLength is the maximum allowed query length in bytes.
	MaxQueryLength = 4096
	DefaultLimit   = 18
	MinLimit       = 1
	MaxLimit       = 50
)

// Mode is the source of the ranking signal.
type Mode string

// Discovery modes.
const (
	// Browse has no query and no seed: pure filter and sort.
	Browse Mode = "browse"
	// Query ranks by similarity to free text.
	Query Mode = "query"
	// Seed ranks by similarity to a catalog title.
	Seed Mode = "seed"
	// Blank is an explicit but empty query; it yields no results.
	Blank Mode = "blank"
)

// Request is a validated discovery query.
type Request struct {
	query   string
	seedID  int
	mode    Mode
	limit   int
	sortKey sortkey.Key
	filter  filter.Filter
}

// New validates and normalizes discovery parameters.
// The seed wins over the query when both are set. limit is clamped to [MinLimit, MaxLimit].
func New(query *string, seedID *int, limit *int, sortKey sortkey.Key, f filter.Filter) (Request, error) {
	if !sortKey.IsValid() {
		return Request{}, domain.NewValidation("sort_by", fmt.Sprintf("unsupported sort key %v", sortKey))
	}

	r := Request{sortKey: sortKey, filter: f, limit: clampLimit(limit)}

	switch {
	case seedID != nil:
		if *seedID <= 0 {
			return Request{}, domain.NewValidation("seed_anime_id", "must be a positive id")
		}
		r.seedID = *seedID
		r.mode = Seed
	case query != nil:
		q := strings.TrimSpace(*query)
		if len(q) > MaxQueryLength {
			return Request{}, domain.NewValidation("query",
				fmt.Sprintf("too long (max %d bytes)", MaxQueryLength))
		}
		r.query = q
		if q == "" {
			r.mode = Blank
		} else {
			r.mode = Query
		}
	default:
		r.mode = Browse
	}

	return r, nil
}

func clampLimit(limit *int) int {
	if limit == nil {
		return DefaultLimit
	}
	switch {
	case *limit < MinLimit:
		return MinLimit
	case *limit > MaxLimit:
		return MaxLimit
	default:
		return *limit
	}
}

// Query returns the trimmed query text (empty unless Mode is Query).
func (r *Request) Query() string { return r.query }

// SeedID returns the seed anime id (zero unless Mode is Seed).
func (r *Request) SeedID() int { return r.seedID }

// Mode returns the ranking source.
func (r *Request) Mode() Mode { return r.mode }

// Limit returns the maximum number of results.
func (r *Request) Limit() int { return r.limit }

// SortKey returns the requested ordering.
func (r *Request) SortKey() sortkey.Key { return r.sortKey }

// Filter returns the structured predicates.
func (r *Request) Filter() filter.Filter { return r.filter }
