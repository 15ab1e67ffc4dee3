package ingest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/animedex/internal/corpus"
	"github.com/kailas-cloud/animedex/internal/domain"
	"github.com/kailas-cloud/animedex/internal/metrics"
)

// Report describes one completed ingestion.
type Report struct {
	Source     string
	Items      int
	Terms      int
	Generation uint64
	Duration   time.Duration
}

// Service rebuilds and publishes the corpus. Only one ingestion runs at a time.
type Service struct {
	mu     sync.Mutex
	source Source
	pub    Publisher
	writer SnapshotWriter
	opts   corpus.BuildOptions
	logger *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithSnapshotWriter persists every published snapshot.
func WithSnapshotWriter(w SnapshotWriter) Option {
	return func(s *Service) { s.writer = w }
}

// New creates an ingest service.
func New(source Source, pub Publisher, opts corpus.BuildOptions, logger *zap.Logger, extra ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{source: source, pub: pub, opts: opts, logger: logger}
	for _, o := range extra {
		o(s)
	}
	return s
}

// Reload loads the source, builds a snapshot and swaps it in.
// A concurrent call fails fast with ErrIngestInProgress; the published snapshot is
// left untouched on any error.
func (s *Service) Reload(ctx context.Context) (Report, error) {
	if !s.mu.TryLock() {
		return Report{}, domain.ErrIngestInProgress
	}
	defer s.mu.Unlock()

	name := s.source.Name()
	start := time.Now()

	report, err := s.reload(ctx, name)
	metrics.IngestDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.IngestTotal.WithLabelValues(name, "error").Inc()
		s.logger.Error("Corpus ingestion failed",
			zap.String("source", name),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return Report{}, err
	}
	report.Duration = time.Since(start)

	metrics.IngestTotal.WithLabelValues(name, "ok").Inc()
	metrics.CorpusItems.Set(float64(report.Items))
	metrics.VocabularyTerms.Set(float64(report.Terms))

	s.logger.Info("Corpus published",
		zap.String("source", name),
		zap.Int("items", report.Items),
		zap.Int("terms", report.Terms),
		zap.Uint64("generation", report.Generation),
		zap.Duration("duration", report.Duration),
	)
	return report, nil
}

func (s *Service) reload(ctx context.Context, name string) (Report, error) {
	items, err := s.source.Load(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load %s: %w", name, err)
	}

	opts := s.opts
	opts.Source = name
	snap, err := corpus.Build(ctx, items, opts)
	if err != nil {
		return Report{}, fmt.Errorf("build snapshot: %w", err)
	}

	if s.writer != nil {
		if err := s.writer.Save(ctx, snap); err != nil {
			return Report{}, fmt.Errorf("save snapshot: %w", err)
		}
	}

	s.pub.Swap(snap)
	return Report{
		Source:     name,
		Items:      snap.Len(),
		Terms:      snap.Vocabulary().Size(),
		Generation: snap.Generation(),
	}, nil
}
