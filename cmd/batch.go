package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/filing-cli/internal/pipeline"
)

var (
	batchDir   string
	batchLimit int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze every filing text file in a directory",
	Long:  "Runs the analysis pipeline over each .txt file in a directory, deriving the company name from the file name. Files are processed concurrently up to the configured limit.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		files, err := filepath.Glob(filepath.Join(batchDir, "*.txt"))
		if err != nil {
			return eris.Wrapf(err, "list %s", batchDir)
		}

		return processBatch(ctx, files, batchLimit, cfg.Batch.MaxConcurrentFilings, func(ctx context.Context, company, text string) (*pipeline.Result, error) {
			return env.Pipeline.Run(ctx, company, text)
		})
	},
}

// analyzeFunc is the callback signature for running analysis on one filing.
type analyzeFunc func(ctx context.Context, company, text string) (*pipeline.Result, error)

// processBatch applies limit, then analyzes files concurrently. Individual
// failures are logged and counted, not fatal; the batch only aborts on
// context cancellation.
func processBatch(ctx context.Context, files []string, limit, concurrency int, analyze analyzeFunc) error {
	if len(files) == 0 {
		zap.L().Info("no filing files found")
		return nil
	}
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	if concurrency < 1 {
		concurrency = 1
	}

	var succeeded, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, path := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			company := companyFromPath(path)
			data, err := os.ReadFile(path)
			if err != nil {
				zap.L().Error("batch: read failed", zap.String("path", path), zap.Error(err))
				failed.Add(1)
				return nil
			}

			if _, err := analyze(gctx, company, string(data)); err != nil {
				zap.L().Error("batch: analysis failed", zap.String("company", company), zap.Error(err))
				failed.Add(1)
				return nil
			}
			succeeded.Add(1)
			return nil
		})
	}

	err := g.Wait()
	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
		zap.Int("total", len(files)),
	)
	return err
}

// companyFromPath derives a display name from a filing file name, e.g.
// "acme_corp.txt" becomes "acme corp".
func companyFromPath(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.ReplaceAll(strings.ReplaceAll(name, "_", " "), "-", " ")
}

func init() {
	batchCmd.Flags().StringVar(&batchDir, "dir", ".", "directory of filing .txt files")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of files to process (0 = all)")
	rootCmd.AddCommand(batchCmd)
}
