package main

import (
	"context"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nichelab/niche-cli/internal/model"
	"github.com/nichelab/niche-cli/internal/pipeline"
)

var (
	batchDir         string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze a directory of founder profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		paths, err := filepath.Glob(filepath.Join(batchDir, "*.json"))
		if err != nil {
			return eris.Wrapf(err, "list profiles in %s", batchDir)
		}

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrentProfiles
		}

		return processProfiles(ctx, paths, concurrency, func(ctx context.Context, profile *model.FounderProfile) (*pipeline.Result, error) {
			if err := env.Store.SaveProfile(ctx, profile); err != nil {
				return nil, err
			}
			result, err := env.Pipeline.Run(ctx, *profile, profile.UserID, profile.ID)
			if err != nil {
				return nil, err
			}
			if err := env.Store.SaveReport(ctx, result.Report); err != nil {
				return nil, err
			}
			return result, nil
		})
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchDir, "dir", "", "directory of founder profile JSON files (required)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max profiles analyzed in parallel (default from config)")
	_ = batchCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(batchCmd)
}

// analyzeFunc is the callback signature for analyzing one loaded profile.
type analyzeFunc func(ctx context.Context, profile *model.FounderProfile) (*pipeline.Result, error)

// processProfiles loads each profile file and analyzes them concurrently.
// Profiles without a user id default to the file's base name so separate
// files stay separate rows under the per-user upsert.
func processProfiles(ctx context.Context, paths []string, concurrency int, analyze analyzeFunc) error {
	if len(paths) == 0 {
		zap.L().Info("no profile files found")
		return nil
	}

	zap.L().Info("processing batch",
		zap.Int("profiles", len(paths)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, path := range paths {
		g.Go(func() error {
			log := zap.L().With(zap.String("profile", path))

			profile, err := loadProfile(path)
			if err != nil {
				failed.Add(1)
				log.Error("profile load failed", zap.Error(err))
				return nil
			}
			if profile.UserID == "" {
				profile.UserID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			}

			result, err := analyze(gctx, profile)
			if err != nil {
				failed.Add(1)
				log.Error("analysis failed", zap.Error(err))
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			summary := result.Report.Summarize()
			log.Info("analysis complete",
				zap.String("report_id", result.Report.ID),
				zap.String("top_niche", summary.TopNiche),
				zap.Int("fit_score", summary.FitScore),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}
