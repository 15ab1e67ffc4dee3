package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/animedex/internal/bootstrap"
	"github.com/kailas-cloud/animedex/internal/corpus"
	"github.com/kailas-cloud/animedex/internal/domain/discover/filter"
	"github.com/kailas-cloud/animedex/internal/domain/discover/request"
	"github.com/kailas-cloud/animedex/internal/domain/discover/result"
	"github.com/kailas-cloud/animedex/internal/domain/discover/sortkey"
	"github.com/kailas-cloud/animedex/internal/textindex"
	discoveruc "github.com/kailas-cloud/animedex/internal/usecase/discover"
	"github.com/kailas-cloud/animedex/internal/usecase/ingest"
)

type discoverOptions struct {
	source   sourceFlags
	model    string
	query    string
	seed     int
	limit    int
	sortBy   string
	animType string
	minScore float64
	maxScore float64
	minEps   int
	maxEps   int
	jsonOut  bool
}

func newDiscoverCmd(ro *rootOptions) *cobra.Command {
	o := &discoverOptions{}
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Run a discovery request against a model or catalog",
		Long: `Load a trained model (or vectorise a raw catalog on the fly) and print the
titles a discovery request returns. Without --query or --seed the catalog is
browsed by popularity.`,
		Example: `  animedexctl discover --model model.db --query "space pirates" --limit 5
  animedexctl discover --model model.db --seed 1 --type TV
  animedexctl discover --csv data/anime.csv --sort score --min-score 8 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDiscover(cmd, o, ro.log())
		},
	}
	o.source.register(cmd, true)
	cmd.Flags().StringVarP(&o.model, "model", "m", "", "trained model file")
	cmd.Flags().StringVarP(&o.query, "query", "q", "", "free-text query")
	cmd.Flags().IntVarP(&o.seed, "seed", "s", 0, "find titles similar to this anime id")
	cmd.Flags().IntVarP(&o.limit, "limit", "n", request.DefaultLimit, "number of results (1-50)")
	cmd.Flags().StringVar(&o.sortBy, "sort", "", "relevance, score, rank, popularity or members")
	cmd.Flags().StringVar(&o.animType, "type", "", "exact media type, e.g. TV or Movie")
	cmd.Flags().Float64Var(&o.minScore, "min-score", 0, "minimum score")
	cmd.Flags().Float64Var(&o.maxScore, "max-score", 0, "maximum score")
	cmd.Flags().IntVar(&o.minEps, "min-episodes", 0, "minimum episode count")
	cmd.Flags().IntVar(&o.maxEps, "max-episodes", 0, "maximum episode count")
	cmd.Flags().BoolVar(&o.jsonOut, "json", false, "print results as JSON")
	cmd.MarkFlagsMutuallyExclusive("model", "csv")
	cmd.MarkFlagsMutuallyExclusive("model", "sqlite")
	cmd.MarkFlagsMutuallyExclusive("model", "redis")
	return cmd
}

func runDiscover(cmd *cobra.Command, o *discoverOptions, logger *zap.Logger) error {
	req, err := o.request(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	holder, closeFn, err := o.load(ctx, logger)
	if err != nil {
		return err
	}
	defer closeFn()

	svc, err := discoveruc.New(holder)
	if err != nil {
		return err
	}
	results, err := svc.Discover(ctx, &req)
	if err != nil {
		return err
	}

	if o.jsonOut {
		return writeResultsJSON(cmd.OutOrStdout(), results)
	}
	return writeResultsTable(cmd.OutOrStdout(), results)
}

// request maps the flags that were set onto a discovery request.
func (o *discoverOptions) request(cmd *cobra.Command) (request.Request, error) {
	flags := cmd.Flags()
	var (
		query *string
		seed  *int
		b     filter.Bounds
	)
	if flags.Changed("query") {
		query = &o.query
	}
	if flags.Changed("seed") {
		seed = &o.seed
	}
	if flags.Changed("min-score") {
		b.MinScore = &o.minScore
	}
	if flags.Changed("max-score") {
		b.MaxScore = &o.maxScore
	}
	if flags.Changed("min-episodes") {
		b.MinEpisodes = &o.minEps
	}
	if flags.Changed("max-episodes") {
		b.MaxEpisodes = &o.maxEps
	}

	key, err := sortkey.Parse(o.sortBy)
	if err != nil {
		return request.Request{}, err
	}
	f, err := filter.New(o.animType, b)
	if err != nil {
		return request.Request{}, err
	}
	return request.New(query, seed, &o.limit, key, f)
}

// load publishes a corpus built from the model file or raw catalog into a fresh holder.
func (o *discoverOptions) load(ctx context.Context, logger *zap.Logger) (*corpus.Holder, func(), error) {
	var (
		cat *bootstrap.Catalog
		err error
	)
	if o.model != "" {
		cat, err = openModel(ctx, o.model, logger)
	} else {
		cat, err = o.source.open(ctx, logger)
	}
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() { _ = cat.Close() }

	opts := corpus.BuildOptions{Vectorizer: textindex.Options{MinDocFreq: 1}}
	if cat.Vectorizer != nil {
		opts.Vectorizer = *cat.Vectorizer
	}

	holder := corpus.NewHolder()
	if _, err := ingest.New(cat.Source, holder, opts, logger).Reload(ctx); err != nil {
		closeFn()
		return nil, nil, err
	}
	return holder, closeFn, nil
}

type resultRow struct {
	ID        int      `json:"anime_id"`
	Title     string   `json:"title"`
	Type      string   `json:"type"`
	Episodes  int      `json:"episodes"`
	Score     float64  `json:"score"`
	Members   int      `json:"members"`
	Relevance *float64 `json:"relevance"`
}

func toRows(results []result.Result) []resultRow {
	rows := make([]resultRow, len(results))
	for i := range results {
		it := results[i].Item()
		rows[i] = resultRow{
			ID: it.ID, Title: it.Title, Type: it.Type,
			Episodes: it.Episodes, Score: it.Score, Members: it.Members,
		}
		if rel, ok := results[i].Relevance(); ok {
			rows[i].Relevance = &rel
		}
	}
	return rows
}

func writeResultsJSON(w io.Writer, results []result.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toRows(results))
}

func writeResultsTable(w io.Writer, results []result.Result) error {
	if len(results) == 0 {
		_, err := fmt.Fprintln(w, "No matches.")
		return err
	}

	table := newTable(w)
	table.Header([]string{"#", "id", "title", "type", "episodes", "score", "members", "relevance"})

	data := make([][]string, 0, len(results))
	for i := range results {
		it := results[i].Item()
		score, rel := "-", "-"
		if it.HasScore() {
			score = strconv.FormatFloat(it.Score, 'f', 2, 64)
		}
		if r, ok := results[i].Relevance(); ok {
			rel = strconv.FormatFloat(r, 'f', 4, 64)
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(it.ID),
			it.Title,
			it.Type,
			strconv.Itoa(it.Episodes),
			score,
			strconv.Itoa(it.Members),
			rel,
		})
	}
	if err := table.Bulk(data); err != nil {
		return fmt.Errorf("render results: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("render results: %w", err)
	}
	return nil
}

// newTable returns a borderless, left-aligned table writing to w.
func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
}
