package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // register pure-Go SQLite driver

	"github.com/kailas-cloud/animedex/internal/domain/anime"
)

// DefaultTable is the catalog table read by SQLiteSource.
const DefaultTable = "anime"

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// OpenSQLite opens a SQLite database with the modernc.org/sqlite driver.
// Pass a file path or "file::memory:?cache=shared".
func OpenSQLite(dsn string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return conn, nil
}

// SQLiteSource reads the catalog from a table whose columns use the CSV header aliases.
type SQLiteSource struct {
	conn   *sql.DB
	table  string
	logger *zap.Logger
}

// NewSQLiteSource creates a SQLite source. An empty table means DefaultTable.
func NewSQLiteSource(conn *sql.DB, table string, logger *zap.Logger) (*SQLiteSource, error) {
	if table == "" {
		table = DefaultTable
	}
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQLiteSource{conn: conn, table: table, logger: logger}, nil
}

// Name identifies the source in logs and metrics.
func (s *SQLiteSource) Name() string { return "sqlite" }

// Ping checks the database connection.
func (s *SQLiteSource) Ping(ctx context.Context) error {
	if err := s.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	return nil
}

// Load reads every row. Rows without a valid anime_id are skipped.
func (s *SQLiteSource) Load(ctx context.Context) ([]anime.Item, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT * FROM "+s.table) //nolint:gosec // table name validated by identRe
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer func() { _ = rows.Close() }()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	cols, err := ResolveHeader(names)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", s.table, err)
	}

	values := make([]sql.NullString, len(names))
	dest := make([]any, len(names))
	for i := range values {
		dest[i] = &values[i]
	}
	row := make([]string, len(names))

	var items []anime.Item
	skipped := 0
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			row[i] = v.String
		}
		it, err := FromFields(cols.Record(row))
		if err != nil {
			skipped++
			continue
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	s.logger.Debug("Catalog table loaded",
		zap.String("table", s.table),
		zap.Int("rows", len(items)),
		zap.Int("skipped", skipped),
	)
	return items, nil
}
