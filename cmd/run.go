package main

import (
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nichelab/niche-cli/internal/model"
	"github.com/nichelab/niche-cli/internal/server"
)

var (
	runProfilePath string
	runUser        string
	runOut         string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run niche discovery for a single founder profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		profile, err := loadProfile(runProfilePath)
		if err != nil {
			return err
		}
		if runUser != "" {
			profile.UserID = runUser
		}
		if profile.UserID == "" {
			profile.UserID = server.DefaultUserID
		}

		if err := env.Store.SaveProfile(ctx, profile); err != nil {
			return eris.Wrap(err, "save profile")
		}

		result, err := env.Pipeline.Run(ctx, *profile, profile.UserID, profile.ID)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		if err := env.Store.SaveReport(ctx, result.Report); err != nil {
			return eris.Wrap(err, "save report")
		}

		summary := result.Report.Summarize()
		zap.L().Info("analysis complete",
			zap.String("report_id", result.Report.ID),
			zap.String("top_niche", summary.TopNiche),
			zap.Int("fit_score", summary.FitScore),
			zap.Int("stages", len(result.Trace)),
		)

		out := io.Writer(os.Stdout)
		if runOut != "" {
			f, err := os.Create(runOut)
			if err != nil {
				return eris.Wrapf(err, "create output file %s", runOut)
			}
			defer f.Close() //nolint:errcheck
			out = f
		}
		return writeReport(out, result.Report)
	},
}

func init() {
	runCmd.Flags().StringVar(&runProfilePath, "profile", "", "path to a founder profile JSON file (required)")
	runCmd.Flags().StringVar(&runUser, "user", "", "user id owning the profile and report")
	runCmd.Flags().StringVar(&runOut, "out", "", "write the report JSON to this file instead of stdout")
	_ = runCmd.MarkFlagRequired("profile")
	rootCmd.AddCommand(runCmd)
}

// loadProfile reads and decodes a founder profile JSON file.
func loadProfile(path string) (*model.FounderProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read profile %s", path)
	}
	var p model.FounderProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrapf(err, "parse profile %s", path)
	}
	return &p, nil
}

// writeReport encodes the report as indented JSON to out.
func writeReport(out io.Writer, report *model.NicheReport) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
