package discover

import "github.com/kailas-cloud/animedex/internal/corpus"

// SnapshotProvider hands out the currently published corpus snapshot.
type SnapshotProvider interface {
	Load() (*corpus.Snapshot, error)
}
