package animedex

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

// Catalog source kinds; the last source option wins.
const (
	sourceCSV      = "csv"
	sourceModel    = "snapshot"
	sourceRedis    = "redis"
	sourceSQLite   = "sqlite"
	sourceInMemory = "items"
)

type clientConfig struct {
	source string

	csvPath string

	modelPath string
	saveModel bool

	redisAddrs     []string
	redisPassword  string
	redisKeyPrefix string

	sqliteDSN   string
	sqliteTable string

	items []Anime

	vectorizer     VectorizerOptions
	queryCacheSize int
	workers        int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithCSV loads the catalog from CSV files. pattern may be a doublestar glob
// such as "data/**/*.csv".
func WithCSV(pattern string) Option {
	return optionFunc(func(c *clientConfig) {
		c.source = sourceCSV
		c.csvPath = pattern
	})
}

// WithModel loads the catalog from a model file written by `animedexctl train`.
// The vectorizer settings stored in the file take precedence over WithVectorizer.
func WithModel(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.source = sourceModel
		c.modelPath = path
	})
}

// WithModelOutput saves every loaded corpus to a model file.
// Has no effect when the catalog itself comes from WithModel.
func WithModelOutput(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.modelPath = path
		c.saveModel = true
	})
}

// WithRedis loads the catalog from Redis or Valkey hashes under the "anime:" prefix.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.source = sourceRedis
		c.redisAddrs = []string{addr}
		c.redisPassword = password
	})
}

// WithKeyPrefix overrides the Redis key prefix (default "anime:").
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisKeyPrefix = prefix
	})
}

// WithSQLite loads the catalog from a SQLite table (default table "anime").
func WithSQLite(dsn, table string) Option {
	return optionFunc(func(c *clientConfig) {
		c.source = sourceSQLite
		c.sqliteDSN = dsn
		c.sqliteTable = table
	})
}

// WithItems uses an in-memory catalog. The slice is copied.
func WithItems(items []Anime) Option {
	return optionFunc(func(c *clientConfig) {
		c.source = sourceInMemory
		c.items = append([]Anime(nil), items...)
	})
}

// WithVectorizer tunes the TF-IDF vocabulary.
func WithVectorizer(opts VectorizerOptions) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorizer = opts
	})
}

// WithQueryCache sets how many free-text query vectors are cached per corpus.
// Zero or less disables the cache. Default: 1024.
func WithQueryCache(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.queryCacheSize = size
	})
}

// WithWorkers bounds the goroutines used to build and score the index.
// Default: GOMAXPROCS.
func WithWorkers(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.workers = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
