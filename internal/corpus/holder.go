package corpus

import (
	"sync/atomic"

	"github.com/kailas-cloud/animedex/internal/domain"
)

// Holder publishes the current snapshot. Readers never block; writers replace
// the whole snapshot with a single pointer swap.
type Holder struct {
	current atomic.Pointer[Snapshot]
}

// NewHolder creates an empty Holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Load returns the current snapshot or ErrCorpusNotReady.
func (h *Holder) Load() (*Snapshot, error) {
	s := h.current.Load()
	if s == nil {
		return nil, domain.ErrCorpusNotReady
	}
	return s, nil
}

// Swap publishes next and returns the previous snapshot (nil on first publish).
func (h *Holder) Swap(next *Snapshot) *Snapshot {
	return h.current.Swap(next)
}
