package health

import (
	"context"

	"github.com/kailas-cloud/animedex/internal/corpus"
)

// DBPinger checks catalog database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// CorpusLoader exposes the published snapshot.
type CorpusLoader interface {
	Load() (*corpus.Snapshot, error)
}
