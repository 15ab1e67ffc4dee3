package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/animedex/internal/corpus"
	"github.com/kailas-cloud/animedex/internal/repository/snapshot"
	"github.com/kailas-cloud/animedex/internal/textindex"
	"github.com/kailas-cloud/animedex/internal/usecase/ingest"
)

type trainOptions struct {
	source      sourceFlags
	out         string
	minDocFreq  int
	maxFeatures int
	bigrams     bool
	workers     int
	noProgress  bool
}

func newTrainCmd(ro *rootOptions) *cobra.Command {
	o := &trainOptions{}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Vectorise a catalog into a model file",
		Long: `Load a raw catalog, build the TF-IDF vocabulary and vectors, and save the
result to a model file. Start the API with catalog.source=snapshot to serve it.`,
		Example: `  animedexctl train --csv 'data/*.csv' --out model.db
  animedexctl train --sqlite anime.db --table titles --out model.db --bigrams`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTrain(cmd, o, ro.log())
		},
	}
	o.source.register(cmd, true)
	cmd.Flags().StringVarP(&o.out, "out", "o", "", "model file to write (required)")
	cmd.Flags().IntVar(&o.minDocFreq, "min-doc-freq", 1, "drop terms found in fewer documents")
	cmd.Flags().IntVar(&o.maxFeatures, "max-features", 0, "keep only the most frequent terms (0 = unlimited)")
	cmd.Flags().BoolVar(&o.bigrams, "bigrams", false, "index word pairs as well as single words")
	cmd.Flags().IntVar(&o.workers, "workers", 0, "vectorisation goroutines (0 = GOMAXPROCS)")
	cmd.Flags().BoolVar(&o.noProgress, "no-progress", false, "hide the progress bar")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runTrain(cmd *cobra.Command, o *trainOptions, logger *zap.Logger) error {
	if o.minDocFreq < 1 {
		return fmt.Errorf("--min-doc-freq must be at least 1, got %d", o.minDocFreq)
	}
	if o.maxFeatures < 0 {
		return fmt.Errorf("--max-features must not be negative, got %d", o.maxFeatures)
	}
	ctx := cmd.Context()

	cat, err := o.source.open(ctx, logger)
	if err != nil {
		return err
	}
	defer func() { _ = cat.Close() }()

	store, err := snapshot.Open(o.out)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	opts := corpus.BuildOptions{
		Vectorizer: textindex.Options{
			MinDocFreq:  o.minDocFreq,
			MaxFeatures: o.maxFeatures,
			Bigrams:     o.bigrams,
		},
		Workers: o.workers,
	}
	if !o.noProgress {
		opts.Progress = newProgress(cmd.ErrOrStderr(), "Vectorising")
	}

	svc := ingest.New(cat.Source, corpus.NewHolder(), opts, logger, ingest.WithSnapshotWriter(store))
	report, err := svc.Reload(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	color.New(color.FgGreen, color.Bold).Fprintf(out, "Trained %s\n", o.out)
	fmt.Fprintf(out, "  source:  %s\n", report.Source)
	fmt.Fprintf(out, "  items:   %d\n", report.Items)
	fmt.Fprintf(out, "  terms:   %d\n", report.Terms)
	fmt.Fprintf(out, "  elapsed: %s\n", report.Duration.Round(time.Millisecond))
	return nil
}

// newProgress returns a corpus progress callback that draws a bar on w.
// The bar is created on the first call, once the total is known.
func newProgress(w io.Writer, desc string) func(done, total int) {
	var (
		mu   sync.Mutex
		bar  *progressbar.ProgressBar
		last int
	)
	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]"+desc+"[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					_, _ = fmt.Fprintln(w)
				}),
			)
		}
		// Chunks finish out of order.
		if done <= last {
			return
		}
		last = done
		_ = bar.Set(done)
	}
}
