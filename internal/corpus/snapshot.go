// Package corpus holds the immutable catalog snapshot that discovery requests read.
package corpus

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/animedex/internal/domain"
	"github.com/kailas-cloud/animedex/internal/domain/anime"
	"github.com/kailas-cloud/animedex/internal/textindex"
)

// Vectorisation and scoring are split into chunks of this many items per goroutine.
const defaultChunkSize = 2048

var generations atomic.Uint64

// BuildOptions controls snapshot construction.
type BuildOptions struct {
	Vectorizer textindex.Options
	// Workers bounds goroutines for vectorisation and scoring (default GOMAXPROCS).
	Workers int
	// ChunkSize is the number of items per parallel unit (default 2048).
	ChunkSize int
	// Source names where the items came from (logging only).
	Source string
	// Progress is called after each vectorised chunk with the running total.
	// It may be called from several goroutines at once.
	Progress func(done, total int)
}

func (o BuildOptions) withDefaults() BuildOptions {
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = defaultChunkSize
	}
	return o
}

// Snapshot is an immutable catalog plus its vocabulary and stored vectors.
// All methods are safe for concurrent use.
type Snapshot struct {
	items      []anime.Item
	vectors    []textindex.Vector
	byID       map[int]int
	vocab      *textindex.Vocabulary
	opts       BuildOptions
	builtAt    time.Time
	generation uint64
}

// Build validates items, builds the vocabulary and vectorises every item.
// Items are stored in ascending id order. Duplicate ids fail with ErrDuplicateID.
func Build(ctx context.Context, items []anime.Item, opts BuildOptions) (*Snapshot, error) {
	opts = opts.withDefaults()

	sorted := slices.Clone(items)
	slices.SortFunc(sorted, func(a, b anime.Item) int { return a.ID - b.ID })

	byID := make(map[int]int, len(sorted))
	for i := range sorted {
		if err := sorted[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
		if _, dup := byID[sorted[i].ID]; dup {
			return nil, fmt.Errorf("%w: %d", domain.ErrDuplicateID, sorted[i].ID)
		}
		byID[sorted[i].ID] = i
	}

	docs := make([]string, len(sorted))
	for i := range sorted {
		docs[i] = sorted[i].Document()
	}
	vocab := textindex.BuildVocabulary(docs, opts.Vectorizer)

	vectors := make([]textindex.Vector, len(sorted))
	var done atomic.Int64
	err := forEachChunk(ctx, len(sorted), opts, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			vectors[i] = vocab.Vectorize(docs[i])
		}
		n := done.Add(int64(hi - lo))
		if opts.Progress != nil {
			opts.Progress(int(n), len(sorted))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("vectorize corpus: %w", err)
	}

	return &Snapshot{
		items:      sorted,
		vectors:    vectors,
		byID:       byID,
		vocab:      vocab,
		opts:       opts,
		builtAt:    time.Now().UTC(),
		generation: generations.Add(1),
	}, nil
}

// forEachChunk runs fn over [0,n) split into ChunkSize pieces on at most Workers goroutines.
func forEachChunk(ctx context.Context, n int, opts BuildOptions, fn func(lo, hi int)) error {
	if n <= opts.ChunkSize || opts.Workers == 1 {
		if err := ctx.Err(); err != nil {
			return err
		}
		fn(0, n)
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for lo := 0; lo < n; lo += opts.ChunkSize {
		hi := min(lo+opts.ChunkSize, n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(lo, hi)
			return nil
		})
	}
	return g.Wait()
}

// Len returns the number of items.
func (s *Snapshot) Len() int { return len(s.items) }

// Items returns the items in ascending id order. Callers must not modify the slice.
func (s *Snapshot) Items() []anime.Item { return s.items }

// Item returns the item with the given id.
func (s *Snapshot) Item(id int) (anime.Item, bool) {
	i, ok := s.byID[id]
	if !ok {
		return anime.Item{}, false
	}
	return s.items[i], true
}

// Vocabulary returns the vocabulary the stored vectors were computed against.
func (s *Snapshot) Vocabulary() *textindex.Vocabulary { return s.vocab }

// Vectorize embeds free text against this snapshot's vocabulary.
func (s *Snapshot) Vectorize(text string) textindex.Vector { return s.vocab.Vectorize(text) }

// Source returns the name of the source the snapshot was built from.
func (s *Snapshot) Source() string { return s.opts.Source }

// Options returns the effective build options.
func (s *Snapshot) Options() BuildOptions { return s.opts }

// BuiltAt returns the build completion time.
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }

// Generation returns a process-unique, increasing build number.
func (s *Snapshot) Generation() uint64 { return s.generation }
