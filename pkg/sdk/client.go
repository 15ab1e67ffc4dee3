package animedex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/animedex/internal/bootstrap"
	"github.com/kailas-cloud/animedex/internal/config"
	"github.com/kailas-cloud/animedex/internal/corpus"
	"github.com/kailas-cloud/animedex/internal/domain/anime"
	"github.com/kailas-cloud/animedex/internal/domain/discover/request"
	"github.com/kailas-cloud/animedex/internal/domain/discover/result"
	"github.com/kailas-cloud/animedex/internal/repository/snapshot"
	discoveruc "github.com/kailas-cloud/animedex/internal/usecase/discover"
	healthuc "github.com/kailas-cloud/animedex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/animedex/internal/usecase/ingest"
)

// Internal interfaces so tests can swap the engine out.
type discoverUseCase interface {
	Discover(ctx context.Context, req *request.Request) ([]result.Result, error)
	Get(ctx context.Context, id int) (anime.Item, error)
}

type ingestUseCase interface {
	Reload(ctx context.Context) (ingestuc.Report, error)
}

type corpusLoader interface {
	Load() (*corpus.Snapshot, error)
}

// Client is the animedex SDK entry point. It is safe for concurrent use.
type Client struct {
	corpus      corpusLoader
	discoverSvc discoverUseCase
	ingestSvc   ingestUseCase
	healthSvc   healthUseCase
	obs         *observer
	closers     []func() error
}

// New opens the configured catalog, builds the index and returns a ready client.
// The provided context bounds the initial load.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{queryCacheSize: discoveruc.DefaultQueryCacheSize}
	for _, o := range opts {
		o.apply(cfg)
	}
	if cfg.source == "" {
		return nil, errors.New(
			"animedex: catalog source required (use WithCSV, WithModel, WithRedis, WithSQLite or WithItems)",
		)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	c := &Client{obs: obs}
	if err := c.wire(ctx, cfg); err != nil {
		_ = c.Close()
		return nil, err
	}

	start := time.Now()
	report, err := c.ingestSvc.Reload(ctx)
	c.obs.observe("load", start, err, slog.String("source", cfg.source), slog.Int("items", report.Items))
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("animedex: initial load: %w", err)
	}
	return c, nil
}

func (c *Client) wire(ctx context.Context, cfg *clientConfig) error {
	appCfg := toAppConfig(cfg)

	var cat *bootstrap.Catalog
	if cfg.source == sourceInMemory {
		cat = &bootstrap.Catalog{Source: &itemSource{items: cfg.items}}
	} else {
		var err error
		cat, err = bootstrap.OpenCatalog(ctx, appCfg.Catalog, zap.NewNop())
		if err != nil {
			return fmt.Errorf("animedex: open catalog: %w", err)
		}
		c.closers = append(c.closers, cat.Close)
	}

	var ingestOpts []ingestuc.Option
	if cfg.saveModel && cfg.source != sourceModel {
		model, err := snapshot.Open(cfg.modelPath)
		if err != nil {
			return fmt.Errorf("animedex: open model output: %w", err)
		}
		c.closers = append(c.closers, model.Close)
		ingestOpts = append(ingestOpts, ingestuc.WithSnapshotWriter(model))
	}

	holder := corpus.NewHolder()
	discoverSvc, err := discoveruc.New(holder, discoveruc.WithQueryCache(cfg.queryCacheSize))
	if err != nil {
		return fmt.Errorf("animedex: %w", err)
	}

	c.corpus = holder
	c.discoverSvc = discoverSvc
	c.ingestSvc = ingestuc.New(cat.Source, holder, bootstrap.BuildOptions(&appCfg, cat), zap.NewNop(), ingestOpts...)
	c.healthSvc = healthuc.New(holder, cat.Pinger)
	return nil
}

// toAppConfig maps client options onto the server configuration so both load catalogs the same way.
func toAppConfig(cfg *clientConfig) config.Config {
	appCfg := config.Config{
		Catalog: config.CatalogConfig{
			Source: cfg.source,
			CSV:    config.CSVConfig{Path: cfg.csvPath},
			Redis: config.RedisConfig{
				Addrs:     cfg.redisAddrs,
				Password:  cfg.redisPassword,
				KeyPrefix: cfg.redisKeyPrefix,
			},
			SQLite:   config.SQLiteConfig{DSN: cfg.sqliteDSN, Table: cfg.sqliteTable},
			Snapshot: config.SnapshotConfig{Path: cfg.modelPath},
		},
		Vectorizer: config.VectorizerConfig{
			MinDocFreq:  cfg.vectorizer.MinDocFreq,
			MaxFeatures: cfg.vectorizer.MaxFeatures,
			Bigrams:     cfg.vectorizer.Bigrams,
		},
		Discover: config.DiscoverConfig{Workers: cfg.workers},
	}
	appCfg.ApplyDefaults()
	return appCfg
}

// Close releases the catalog connection and model files.
func (c *Client) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// Reload rebuilds the index from the catalog source. Readers keep the previous
// corpus until the new one is published. A concurrent Reload fails with ErrIngestInProgress.
func (c *Client) Reload(ctx context.Context) (stats Stats, err error) {
	start := time.Now()
	defer func() { c.obs.observe("reload", start, err, slog.Int("items", stats.Items)) }()

	if _, err = c.ingestSvc.Reload(ctx); err != nil {
		return Stats{}, fmt.Errorf("reload: %w", err)
	}
	return c.Stats()
}

// Stats describes the currently loaded corpus.
func (c *Client) Stats() (Stats, error) {
	snap, err := c.corpus.Load()
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return fromSnapshot(snap), nil
}

// Get returns one title by id.
func (c *Client) Get(ctx context.Context, id int) (a Anime, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get", start, err, slog.Int("anime_id", id)) }()

	it, err := c.discoverSvc.Get(ctx, id)
	if err != nil {
		return Anime{}, fmt.Errorf("get anime: %w", err)
	}
	return fromInternalItem(&it), nil
}

// Discover starts a discovery query.
func (c *Client) Discover() *DiscoverBuilder {
	return &DiscoverBuilder{client: c}
}

// itemSource serves an in-memory catalog.
type itemSource struct {
	items []Anime
}

func (s *itemSource) Name() string { return sourceInMemory }

func (s *itemSource) Load(_ context.Context) ([]anime.Item, error) {
	return toInternalItems(s.items), nil
}
