// Package bootstrap assembles catalog sources and build options from configuration.
// It is shared by the API server, the CLI and the embeddable client.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/animedex/internal/config"
	"github.com/kailas-cloud/animedex/internal/corpus"
	dbRedis "github.com/kailas-cloud/animedex/internal/db/redis"
	"github.com/kailas-cloud/animedex/internal/repository/catalog"
	"github.com/kailas-cloud/animedex/internal/repository/snapshot"
	"github.com/kailas-cloud/animedex/internal/textindex"
	"github.com/kailas-cloud/animedex/internal/usecase/health"
	"github.com/kailas-cloud/animedex/internal/usecase/ingest"
)

// Catalog is an opened catalog source plus the resources behind it.
type Catalog struct {
	Source ingest.Source
	// Pinger checks the backing database; nil for file sources.
	Pinger health.DBPinger
	// Vectorizer overrides configured options when the source pins them (trained snapshots).
	Vectorizer *textindex.Options

	closers []func() error
}

// OpenCatalog opens the source selected by cfg.Source.
// Redis sources block until the server answers or the readiness timeout expires.
func OpenCatalog(ctx context.Context, cfg config.CatalogConfig, logger *zap.Logger) (*Catalog, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Source {
	case config.SourceCSV:
		return &Catalog{Source: catalog.NewCSVSource(cfg.CSV.Path, logger)}, nil

	case config.SourceRedis:
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Redis.Addrs,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("create redis store: %w", err)
		}
		timeout := time.Duration(cfg.Redis.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return nil, fmt.Errorf("redis not ready: %w", err)
		}
		logger.Info("Connected to catalog database", zap.Strings("addrs", cfg.Redis.Addrs))
		return &Catalog{
			Source:  catalog.NewRedisSource(store, cfg.Redis.KeyPrefix, logger),
			Pinger:  store,
			closers: []func() error{func() error { store.Close(); return nil }},
		}, nil

	case config.SourceSQLite:
		conn, err := catalog.OpenSQLite(cfg.SQLite.DSN)
		if err != nil {
			return nil, err
		}
		src, err := catalog.NewSQLiteSource(conn, cfg.SQLite.Table, logger)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		return &Catalog{Source: src, Pinger: src, closers: []func() error{conn.Close}}, nil

	case config.SourceSnapshot:
		store, err := snapshot.Open(cfg.Snapshot.Path)
		if err != nil {
			return nil, err
		}
		c := &Catalog{Source: store, closers: []func() error{store.Close}}
		opts, err := store.BuildOptions()
		switch {
		case err == nil:
			c.Vectorizer = &opts.Vectorizer
		case errors.Is(err, snapshot.ErrEmpty):
			logger.Warn("Model file holds no snapshot yet", zap.String("path", cfg.Snapshot.Path))
		default:
			_ = store.Close()
			return nil, err
		}
		return c, nil

	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Source)
	}
}

// Close releases every resource opened for the catalog.
func (c *Catalog) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// BuildOptions maps configuration onto corpus build options, honouring a
// vectorizer pinned by the catalog.
func BuildOptions(cfg *config.Config, c *Catalog) corpus.BuildOptions {
	opts := corpus.BuildOptions{
		Vectorizer: textindex.Options{
			MinDocFreq:  cfg.Vectorizer.MinDocFreq,
			MaxFeatures: cfg.Vectorizer.MaxFeatures,
			Bigrams:     cfg.Vectorizer.Bigrams,
		},
		Workers:   cfg.Discover.Workers,
		ChunkSize: cfg.Discover.ChunkSize,
	}
	if c != nil && c.Vectorizer != nil {
		opts.Vectorizer = *c.Vectorizer
	}
	return opts
}
