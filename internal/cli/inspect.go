package cli

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/animedex/internal/corpus"
	"github.com/kailas-cloud/animedex/internal/repository/snapshot"
	"github.com/kailas-cloud/animedex/internal/textindex"
)

// termStat is one vocabulary entry reported by inspect --top.
type termStat struct {
	Term    string  `json:"term"`
	DocFreq int     `json:"doc_freq"`
	IDF     float64 `json:"idf"`
}

type modelReport struct {
	snapshot.Meta
	Documents int        `json:"documents,omitempty"`
	TopTerms  []termStat `json:"top_terms,omitempty"`
}

func newInspectCmd(_ *rootOptions) *cobra.Command {
	var (
		jsonOut bool
		top     int
	)
	cmd := &cobra.Command{
		Use:   "inspect <model>",
		Short: "Describe a trained model file",
		Example: `  animedexctl inspect model.db
  animedexctl inspect model.db --top 20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if top < 0 {
				return fmt.Errorf("--top must not be negative, got %d", top)
			}
			store, err := snapshot.Open(args[0])
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			meta, err := store.Meta()
			if errors.Is(err, snapshot.ErrEmpty) {
				return fmt.Errorf("%s holds no trained model", args[0])
			}
			if err != nil {
				return err
			}

			report := modelReport{Meta: meta}
			if top > 0 {
				vocab, err := rebuildVocabulary(cmd.Context(), store)
				if err != nil {
					return err
				}
				report.Documents = vocab.Docs()
				report.TopTerms = topTerms(vocab, top)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}

			bold := color.New(color.Bold)
			bold.Fprintf(out, "%s\n", args[0])
			fmt.Fprintf(out, "  schema:        %d\n", meta.SchemaVersion)
			fmt.Fprintf(out, "  source:        %s\n", meta.Source)
			fmt.Fprintf(out, "  items:         %d\n", meta.Items)
			fmt.Fprintf(out, "  terms:         %d\n", meta.Terms)
			fmt.Fprintf(out, "  min_doc_freq:  %d\n", meta.Vectorizer.MinDocFreq)
			fmt.Fprintf(out, "  max_features:  %d\n", meta.Vectorizer.MaxFeatures)
			fmt.Fprintf(out, "  bigrams:       %t\n", meta.Vectorizer.Bigrams)
			fmt.Fprintf(out, "  built_at:      %s\n", meta.BuiltAt.Format(time.RFC3339))
			if top == 0 {
				return nil
			}

			fmt.Fprintf(out, "\nMost common terms across %d documents:\n", report.Documents)
			table := newTable(out)
			table.Header([]string{"term", "docs", "idf"})
			rows := make([][]string, len(report.TopTerms))
			for i, ts := range report.TopTerms {
				rows[i] = []string{ts.Term, strconv.Itoa(ts.DocFreq), strconv.FormatFloat(ts.IDF, 'f', 4, 64)}
			}
			if err := table.Bulk(rows); err != nil {
				return fmt.Errorf("render terms: %w", err)
			}
			return table.Render()
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the model description as JSON")
	cmd.Flags().IntVar(&top, "top", 0, "also list the N terms found in the most documents")
	return cmd
}

// rebuildVocabulary vectorises the saved items with the saved options.
func rebuildVocabulary(ctx context.Context, store *snapshot.Store) (*textindex.Vocabulary, error) {
	items, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := store.BuildOptions()
	if err != nil {
		return nil, err
	}
	snap, err := corpus.Build(ctx, items, opts)
	if err != nil {
		return nil, fmt.Errorf("rebuild model: %w", err)
	}
	return snap.Vocabulary(), nil
}

// topTerms returns the n terms with the highest document frequency, ties by term.
func topTerms(v *textindex.Vocabulary, n int) []termStat {
	stats := make([]termStat, 0, v.Size())
	for i := 0; i < v.Size(); i++ {
		term, ok := v.Term(i)
		if !ok {
			continue
		}
		_, df, _ := v.Lookup(term)
		stats = append(stats, termStat{Term: term, DocFreq: df, IDF: v.IDF(i)})
	}
	slices.SortFunc(stats, func(a, b termStat) int {
		if c := cmp.Compare(b.DocFreq, a.DocFreq); c != 0 {
			return c
		}
		return cmp.Compare(a.Term, b.Term)
	})
	if len(stats) > n {
		stats = stats[:n]
	}
	return stats
}
