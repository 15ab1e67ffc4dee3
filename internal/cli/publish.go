package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/animedex/internal/db/redis"
	"github.com/kailas-cloud/animedex/internal/domain"
	"github.com/kailas-cloud/animedex/internal/domain/anime"
	"github.com/kailas-cloud/animedex/internal/repository/catalog"
)

type publishOptions struct {
	source    sourceFlags
	redis     []string
	username  string
	password  string
	db        int
	prefix    string
	readiness time.Duration
}

func newPublishCmd(ro *rootOptions) *cobra.Command {
	o := &publishOptions{}
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a catalog to Redis as hashes",
		Long: `Write every catalog entry to Redis as one hash per title and delete hashes
whose id is no longer in the catalog. API servers with catalog.source=redis
pick the new catalog up on their next reload.`,
		Example: `  animedexctl publish --csv 'data/*.csv' --redis localhost:6379
  animedexctl publish --sqlite anime.db --redis valkey:6379 --prefix catalog:`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPublish(cmd, o, ro.log())
		},
	}
	o.source.register(cmd, false)
	cmd.Flags().StringSliceVar(&o.redis, "redis", nil, "Redis address(es) to publish to (required)")
	cmd.Flags().StringVar(&o.username, "username", "", "Redis ACL username")
	cmd.Flags().StringVar(&o.password, "password", "", "Redis password")
	cmd.Flags().IntVar(&o.db, "db", 0, "Redis database number")
	cmd.Flags().StringVar(&o.prefix, "prefix", catalog.DefaultKeyPrefix, "Redis key prefix")
	cmd.Flags().DurationVar(&o.readiness, "wait", 10*time.Second, "how long to wait for Redis to answer")
	_ = cmd.MarkFlagRequired("redis")
	return cmd
}

func runPublish(cmd *cobra.Command, o *publishOptions, logger *zap.Logger) error {
	ctx := cmd.Context()

	cat, err := o.source.open(ctx, logger)
	if err != nil {
		return err
	}
	defer func() { _ = cat.Close() }()

	items, err := cat.Source.Load(ctx)
	if err != nil {
		return fmt.Errorf("load %s: %w", cat.Source.Name(), err)
	}
	if err := checkItems(items); err != nil {
		return err
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    o.redis,
		Username: o.username,
		Password: o.password,
		DB:       o.db,
	})
	if err != nil {
		return fmt.Errorf("create redis store: %w", err)
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, o.readiness); err != nil {
		return fmt.Errorf("redis not ready: %w", err)
	}

	removed, err := catalog.NewRedisPublisher(store, o.prefix).Publish(ctx, items)
	if err != nil {
		return err
	}
	logger.Debug("Catalog published", zap.Int("items", len(items)), zap.Int("removed", removed))

	fmt.Fprintf(cmd.OutOrStdout(), "Published %d titles to %s (%d stale removed)\n", len(items), o.prefix+"*", removed)
	return nil
}

// checkItems rejects catalogs the API would refuse to ingest.
func checkItems(items []anime.Item) error {
	seen := make(map[int]struct{}, len(items))
	for i := range items {
		if err := items[i].Validate(); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
		if _, dup := seen[items[i].ID]; dup {
			return fmt.Errorf("%w: %d", domain.ErrDuplicateID, items[i].ID)
		}
		seen[items[i].ID] = struct{}{}
	}
	return nil
}
