package catalog

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/animedex/internal/db"
	"github.com/kailas-cloud/animedex/internal/domain/anime"
)

// DefaultKeyPrefix namespaces catalog hashes: anime:<id>.
const DefaultKeyPrefix = "anime:"

// hashReader is the subset of db.HashStore the source needs.
type hashReader interface {
	Scan(ctx context.Context, pattern string) ([]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// hashWriter is the subset of db.HashStore the publisher needs.
type hashWriter interface {
	hashReader
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, keys ...string) error
}

// RedisSource reads catalog hashes stored under a key prefix.
type RedisSource struct {
	store  hashReader
	prefix string
	logger *zap.Logger
}

// NewRedisSource creates a Redis catalog source. An empty prefix means DefaultKeyPrefix.
func NewRedisSource(store hashReader, prefix string, logger *zap.Logger) *RedisSource {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisSource{store: store, prefix: prefix, logger: logger}
}

// Name identifies the source in logs and metrics.
func (s *RedisSource) Name() string { return "redis" }

// Load scans <prefix>* and fetches every hash in pipelined round-trips.
// A hash without an anime_id field takes the id from its key.
// Hashes with no usable id in either place are skipped.
func (s *RedisSource) Load(ctx context.Context) ([]anime.Item, error) {
	keys, err := s.store.Scan(ctx, s.prefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scan catalog: %w", err)
	}
	slices.Sort(keys)

	hashes, err := s.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}

	items := make([]anime.Item, 0, len(hashes))
	skipped := 0
	for i, fields := range hashes {
		if len(fields) == 0 {
			continue
		}
		if fields[FieldID] == "" {
			fields[FieldID] = strings.TrimPrefix(keys[i], s.prefix)
		}
		it, err := FromFields(fields)
		if err != nil {
			skipped++
			continue
		}
		items = append(items, it)
	}
	s.logger.Debug("Catalog hashes loaded",
		zap.String("prefix", s.prefix),
		zap.Int("rows", len(items)),
		zap.Int("skipped", skipped),
	)
	return items, nil
}

// RedisPublisher writes a catalog as hashes so servers can load it with RedisSource.
type RedisPublisher struct {
	store  hashWriter
	prefix string
}

// NewRedisPublisher creates a publisher. An empty prefix means DefaultKeyPrefix.
func NewRedisPublisher(store hashWriter, prefix string) *RedisPublisher {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisPublisher{store: store, prefix: prefix}
}

// Publish upserts every item and removes hashes whose id is no longer in the catalog.
// It returns the number of stale keys removed.
func (p *RedisPublisher) Publish(ctx context.Context, items []anime.Item) (int, error) {
	existing, err := p.store.Scan(ctx, p.prefix+"*")
	if err != nil {
		return 0, fmt.Errorf("scan catalog: %w", err)
	}

	batch := make([]db.HashSetItem, len(items))
	keep := make(map[string]struct{}, len(items))
	for i := range items {
		key := p.key(items[i].ID)
		batch[i] = db.HashSetItem{Key: key, Fields: ToFields(&items[i])}
		keep[key] = struct{}{}
	}
	if err := p.store.HSetMulti(ctx, batch); err != nil {
		return 0, fmt.Errorf("write catalog: %w", err)
	}

	var stale []string
	for _, key := range existing {
		if _, ok := keep[key]; !ok {
			stale = append(stale, key)
		}
	}
	if err := p.store.Del(ctx, stale...); err != nil {
		return 0, fmt.Errorf("remove stale entries: %w", err)
	}
	return len(stale), nil
}

func (p *RedisPublisher) key(id int) string {
	return p.prefix + strconv.Itoa(id)
}
