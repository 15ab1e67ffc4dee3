package ingest

import (
	"context"

	"github.com/kailas-cloud/animedex/internal/corpus"
	"github.com/kailas-cloud/animedex/internal/domain/anime"
)

// Source loads the raw catalog.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]anime.Item, error)
}

// Publisher makes a built snapshot visible to readers.
type Publisher interface {
	Swap(next *corpus.Snapshot) *corpus.Snapshot
}

// SnapshotWriter persists a built snapshot.
type SnapshotWriter interface {
	Save(ctx context.Context, snap *corpus.Snapshot) error
}
