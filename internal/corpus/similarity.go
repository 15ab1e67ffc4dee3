package corpus

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/kailas-cloud/animedex/internal/domain"
	"github.com/kailas-cloud/animedex/internal/textindex"
)

// Scores maps anime id to cosine similarity.
type Scores map[int]float64

// Scored is one similarity hit.
type Scored struct {
	ID    int
	Score float64
}

// SeedVector returns the stored vector of the item with the given id.
func (s *Snapshot) SeedVector(id int) (textindex.Vector, error) {
	i, ok := s.byID[id]
	if !ok {
		return textindex.Vector{}, domain.NewNotFound("seed anime", id)
	}
	return s.vectors[i], nil
}

// ScoreAll computes the similarity of query to every stored vector.
// query must already be L2-normalised; a zero query scores 0 everywhere.
func (s *Snapshot) ScoreAll(ctx context.Context, query textindex.Vector) (Scores, error) {
	sims := make([]float64, len(s.items))
	if !query.IsZero() {
		err := forEachChunk(ctx, len(s.items), s.opts, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				sims[i] = s.vectors[i].Dot(query)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("score corpus: %w", err)
		}
	}

	scores := make(Scores, len(s.items))
	for i := range s.items {
		scores[s.items[i].ID] = sims[i]
	}
	return scores, nil
}

// TopK returns the k best hits by descending score, ties by ascending id.
// k <= 0 returns every hit.
func TopK(scores Scores, k int) []Scored {
	out := make([]Scored, 0, len(scores))
	for id, sc := range scores {
		out = append(out, Scored{ID: id, Score: sc})
	}
	slices.SortFunc(out, func(a, b Scored) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}
