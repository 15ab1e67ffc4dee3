package animedex

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DiscoverBuilder is a fluent builder for discovery queries.
//
// With a Seed the results are titles similar to that title (the seed itself is
// excluded). With a Query they are ranked by similarity to the text. With
// neither the catalog is only filtered and sorted.
type DiscoverBuilder struct {
	client *Client

	query  *string
	seed   *int
	limit  *int
	sortBy SortBy

	animeType   string
	minScore    *float64
	maxScore    *float64
	minEpisodes *int
	maxEpisodes *int
	minMembers  *int
	maxMembers  *int
}

// Query ranks by similarity to free text. A blank query yields no results.
func (b *DiscoverBuilder) Query(q string) *DiscoverBuilder {
	b.query = &q
	return b
}

// Seed ranks by similarity to a catalog title. It wins over Query.
func (b *DiscoverBuilder) Seed(animeID int) *DiscoverBuilder {
	b.seed = &animeID
	return b
}

// Limit caps the result count. Values are clamped to [1, 50]; default 18.
func (b *DiscoverBuilder) Limit(n int) *DiscoverBuilder {
	b.limit = &n
	return b
}

// SortBy sets the ordering (default SortRelevance).
func (b *DiscoverBuilder) SortBy(s SortBy) *DiscoverBuilder {
	b.sortBy = s
	return b
}

// Type keeps titles of exactly this type ("TV", "Movie", ...).
func (b *DiscoverBuilder) Type(t string) *DiscoverBuilder {
	b.animeType = t
	return b
}

// MinScore keeps titles scored at least v. Unscored titles fail any positive bound.
func (b *DiscoverBuilder) MinScore(v float64) *DiscoverBuilder {
	b.minScore = &v
	return b
}

// MaxScore keeps titles scored at most v.
func (b *DiscoverBuilder) MaxScore(v float64) *DiscoverBuilder {
	b.maxScore = &v
	return b
}

// Episodes keeps titles whose episode count lies in [minV, maxV].
func (b *DiscoverBuilder) Episodes(minV, maxV int) *DiscoverBuilder {
	b.minEpisodes, b.maxEpisodes = &minV, &maxV
	return b
}

// MinEpisodes keeps titles with at least n episodes.
func (b *DiscoverBuilder) MinEpisodes(n int) *DiscoverBuilder {
	b.minEpisodes = &n
	return b
}

// Members keeps titles whose member count lies in [minV, maxV].
func (b *DiscoverBuilder) Members(minV, maxV int) *DiscoverBuilder {
	b.minMembers, b.maxMembers = &minV, &maxV
	return b
}

// MinMembers keeps titles with at least n members.
func (b *DiscoverBuilder) MinMembers(n int) *DiscoverBuilder {
	b.minMembers = &n
	return b
}

// Do runs the query. No matches is an empty slice, not an error.
// A missing seed fails with ErrNotFound; invalid bounds with ErrValidation.
func (b *DiscoverBuilder) Do(ctx context.Context) (hits []Hit, err error) {
	start := time.Now()
	mode := "browse"
	defer func() {
		b.client.obs.observe("discover", start, err,
			slog.String("mode", mode),
			slog.Int("hits", len(hits)),
		)
		if err == nil {
			b.client.obs.observeHits(len(hits))
		}
	}()

	req, err := toRequest(b)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	mode = string(req.Mode())

	results, err := b.client.discoverSvc.Discover(ctx, &req)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	return fromResults(results), nil
}
