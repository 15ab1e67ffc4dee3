package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/kailas-cloud/animedex/internal/domain/anime"
)

// CSVSource reads one or more catalog CSV files matched by a doublestar glob.
// A later file overrides earlier rows with the same anime_id.
type CSVSource struct {
	pattern string
	logger  *zap.Logger
}

// NewCSVSource creates a CSV source. pattern may be a plain path or a glob such as "data/**/*.csv".
func NewCSVSource(pattern string, logger *zap.Logger) *CSVSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVSource{pattern: pattern, logger: logger}
}

// Name identifies the source in logs and metrics.
func (s *CSVSource) Name() string { return "csv" }

// Load parses every matched file. Rows without a valid anime_id are skipped.
func (s *CSVSource) Load(ctx context.Context) ([]anime.Item, error) {
	paths, err := doublestar.FilepathGlob(s.pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", s.pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files match %q", s.pattern)
	}
	slices.Sort(paths)

	byID := make(map[int]int)
	var items []anime.Item
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("load csv: %w", err)
		}
		read, skipped, err := readCSVFile(path)
		if err != nil {
			return nil, err
		}
		for _, it := range read {
			if i, dup := byID[it.ID]; dup {
				items[i] = it
				continue
			}
			byID[it.ID] = len(items)
			items = append(items, it)
		}
		s.logger.Debug("Catalog file parsed",
			zap.String("path", path),
			zap.Int("rows", len(read)),
			zap.Int("skipped", skipped),
		)
	}
	return items, nil
}

func readCSVFile(path string) ([]anime.Item, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	items, skipped, err := ReadCSV(f)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	return items, skipped, nil
}

// ReadCSV parses a catalog CSV stream and reports how many rows were skipped.
func ReadCSV(r io.Reader) ([]anime.Item, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, fmt.Errorf("empty catalog file")
		}
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	cols, err := ResolveHeader(header)
	if err != nil {
		return nil, 0, err
	}

	var items []anime.Item
	skipped := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read row: %w", err)
		}
		it, err := FromFields(cols.Record(row))
		if err != nil {
			skipped++
			continue
		}
		items = append(items, it)
	}
	return items, skipped, nil
}
