package animedex

import "github.com/kailas-cloud/animedex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound         = domain.ErrNotFound
	ErrValidation       = domain.ErrValidation
	ErrDuplicateID      = domain.ErrDuplicateID
	ErrCorpusNotReady   = domain.ErrCorpusNotReady
	ErrIngestInProgress = domain.ErrIngestInProgress
)
