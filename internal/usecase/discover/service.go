package discover

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/kailas-cloud/animedex/internal/corpus"
	"github.com/kailas-cloud/animedex/internal/domain"
	"github.com/kailas-cloud/animedex/internal/domain/anime"
	"github.com/kailas-cloud/animedex/internal/domain/discover/request"
	"github.com/kailas-cloud/animedex/internal/domain/discover/result"
	"github.com/kailas-cloud/animedex/internal/domain/discover/sortkey"
	"github.com/kailas-cloud/animedex/internal/metrics"
	"github.com/kailas-cloud/animedex/internal/textindex"
)

// DefaultQueryCacheSize is the number of query vectors kept per service.
const DefaultQueryCacheSize = 1024

// relevancePrecision is the number of decimals reported for relevance.
const relevancePrecision = 1e4

// Service answers discovery requests against the published snapshot.
type Service struct {
	corpus SnapshotProvider
	cache  *queryCache
}

// Option configures a Service.
type Option func(*Service) error

// WithQueryCache memoises up to size query vectors. size <= 0 disables the cache.
func WithQueryCache(size int) Option {
	return func(s *Service) error {
		if size <= 0 {
			s.cache = nil
			return nil
		}
		c, err := newQueryCache(size)
		if err != nil {
			return err
		}
		s.cache = c
		return nil
	}
}

// New creates a discovery service.
func New(provider SnapshotProvider, opts ...Option) (*Service, error) {
	s := &Service{corpus: provider}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Discover ranks, filters and sorts the corpus for one request.
// A blank query yields an empty list; a missing seed yields ErrNotFound.
func (s *Service) Discover(ctx context.Context, req *request.Request) ([]result.Result, error) {
	start := time.Now()
	results, err := s.discover(ctx, req)

	status := "ok"
	if err != nil {
		status = "error"
	}
	mode := string(req.Mode())
	metrics.DiscoverRequestsTotal.WithLabelValues(mode, req.SortKey().String(), status).Inc()
	metrics.DiscoverDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if err == nil {
		metrics.DiscoverResults.Observe(float64(len(results)))
	}
	return results, err
}

func (s *Service) discover(ctx context.Context, req *request.Request) ([]result.Result, error) {
	snap, err := s.corpus.Load()
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	var query textindex.Vector
	switch req.Mode() {
	case request.Blank:
		return []result.Result{}, nil
	case request.Seed:
		query, err = snap.SeedVector(req.SeedID())
		if err != nil {
			return nil, err
		}
	case request.Query:
		query = s.vectorize(snap, req.Query())
	case request.Browse:
	default:
		return nil, fmt.Errorf("unsupported discovery mode %q", req.Mode())
	}

	var scores corpus.Scores
	if req.Mode() != request.Browse {
		scores, err = snap.ScoreAll(ctx, query)
		if err != nil {
			return nil, err
		}
	}

	var candidates []anime.Item
	if scores != nil && req.SortKey() == sortkey.Relevance {
		candidates = topMatches(snap, req, scores)
	} else {
		candidates = matching(snap, req)
		sortItems(candidates, req.SortKey())
		if len(candidates) > req.Limit() {
			candidates = candidates[:req.Limit()]
		}
	}

	out := make([]result.Result, 0, len(candidates))
	for _, it := range candidates {
		if scores == nil {
			out = append(out, result.New(it))
			continue
		}
		out = append(out, result.NewScored(it, reportRelevance(scores[it.ID])))
	}
	return out, nil
}

// topMatches walks the corpus in similarity order and keeps the first
// req.Limit() items that pass the filter.
func topMatches(snap *corpus.Snapshot, req *request.Request, scores corpus.Scores) []anime.Item {
	f := req.Filter()
	out := make([]anime.Item, 0, req.Limit())
	for _, hit := range corpus.TopK(scores, 0) {
		if req.Mode() == request.Seed && hit.ID == req.SeedID() {
			continue
		}
		it, ok := snap.Item(hit.ID)
		if !ok || !f.Match(&it) {
			continue
		}
		out = append(out, it)
		if len(out) == req.Limit() {
			break
		}
	}
	return out
}

// matching returns every item that passes the filter, seed excluded.
func matching(snap *corpus.Snapshot, req *request.Request) []anime.Item {
	f := req.Filter()
	out := make([]anime.Item, 0, snap.Len())
	for _, it := range snap.Items() {
		if req.Mode() == request.Seed && it.ID == req.SeedID() {
			continue
		}
		if f.Match(&it) {
			out = append(out, it)
		}
	}
	return out
}

// Get returns one catalog item by id.
func (s *Service) Get(_ context.Context, id int) (anime.Item, error) {
	snap, err := s.corpus.Load()
	if err != nil {
		return anime.Item{}, fmt.Errorf("load corpus: %w", err)
	}
	it, ok := snap.Item(id)
	if !ok {
		return anime.Item{}, domain.NewNotFound("anime", id)
	}
	return it, nil
}

func (s *Service) vectorize(snap *corpus.Snapshot, query string) textindex.Vector {
	if s.cache == nil {
		return snap.Vectorize(query)
	}
	return s.cache.vectorize(snap, query)
}

// reportRelevance clamps float noise into [0, 1] and rounds to four decimals.
func reportRelevance(v float64) float64 {
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= 1:
		return 1
	}
	return math.Round(v*relevancePrecision) / relevancePrecision
}
