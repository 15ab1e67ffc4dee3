package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/animedex/internal/bootstrap"
	"github.com/kailas-cloud/animedex/internal/config"
)

// sourceFlags selects a raw catalog: exactly one of --csv, --sqlite or --redis.
type sourceFlags struct {
	csv       string
	sqlite    string
	table     string
	redis     []string
	password  string
	keyPrefix string
}

func (f *sourceFlags) register(cmd *cobra.Command, withRedis bool) {
	cmd.Flags().StringVar(&f.csv, "csv", "", "catalog CSV file or glob (e.g. 'data/**/*.csv')")
	cmd.Flags().StringVar(&f.sqlite, "sqlite", "", "SQLite catalog DSN")
	cmd.Flags().StringVar(&f.table, "table", "anime", "SQLite catalog table")
	if withRedis {
		cmd.Flags().StringSliceVar(&f.redis, "redis", nil, "Redis address(es) holding a published catalog")
		cmd.Flags().StringVar(&f.password, "password", "", "Redis password")
		cmd.Flags().StringVar(&f.keyPrefix, "prefix", "anime:", "Redis key prefix")
	}
}

func (f *sourceFlags) catalogConfig() (config.CatalogConfig, error) {
	set := 0
	for _, on := range []bool{f.csv != "", f.sqlite != "", len(f.redis) > 0} {
		if on {
			set++
		}
	}
	if set != 1 {
		return config.CatalogConfig{}, errors.New("exactly one catalog source is required (--csv, --sqlite or --redis)")
	}

	cfg := config.Config{}
	switch {
	case f.csv != "":
		cfg.Catalog.Source = config.SourceCSV
		cfg.Catalog.CSV.Path = f.csv
	case f.sqlite != "":
		cfg.Catalog.Source = config.SourceSQLite
		cfg.Catalog.SQLite = config.SQLiteConfig{DSN: f.sqlite, Table: f.table}
	default:
		cfg.Catalog.Source = config.SourceRedis
		cfg.Catalog.Redis = config.RedisConfig{Addrs: f.redis, Password: f.password, KeyPrefix: f.keyPrefix}
	}
	cfg.ApplyDefaults()
	return cfg.Catalog, nil
}

func (f *sourceFlags) open(ctx context.Context, logger *zap.Logger) (*bootstrap.Catalog, error) {
	cfg, err := f.catalogConfig()
	if err != nil {
		return nil, err
	}
	cat, err := bootstrap.OpenCatalog(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s catalog: %w", cfg.Source, err)
	}
	return cat, nil
}

// openModel opens a trained model file as a catalog.
func openModel(ctx context.Context, path string, logger *zap.Logger) (*bootstrap.Catalog, error) {
	if path == "" {
		return nil, errors.New("--model is required")
	}
	cfg := config.CatalogConfig{Source: config.SourceSnapshot, Snapshot: config.SnapshotConfig{Path: path}}
	cat, err := bootstrap.OpenCatalog(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	return cat, nil
}
