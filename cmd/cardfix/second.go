package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/cardfix/internal/config"
	"github.com/jackzampolin/cardfix/internal/fixture"
	"github.com/jackzampolin/cardfix/internal/imgenc"
	"github.com/jackzampolin/cardfix/internal/output"
)

var (
	secondTaskID  string
	secondRaw     bool
	secondQuality int
	secondMaxSide int
	secondWorkers int
	secondWatch   bool
)

var secondCmd = &cobra.Command{
	Use:   "second <exam-id>",
	Short: "Build scan_second.json from scan.json and local images",
	Long: `Merge the pages of cards/<exam-id>/scan.json with every image in
cards/<exam-id>/images/ (sorted by name, embedded as data URIs) and write
cards/<exam-id>/scan_second.json.

Images are re-encoded as JPEG unless --raw is set. With --watch the file is
rebuilt whenever images/, scan.json or the config file change.

Examples:
  cardfix second 194751
  cardfix second 194751 --quality 85 --max-side 2000
  cardfix second 194751 --watch`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		examID := args[0]
		buildReq := func() fixture.SecondRequest {
			return secondRequest(cmd, examID, cfgMgr.Get())
		}

		if !secondWatch {
			res, err := fixture.GenerateSecond(cmd.Context(), fixtures, buildReq())
			if err != nil {
				return err
			}
			return printer.Print(res)
		}

		trigger := make(chan struct{}, 1)
		if cfgMgr.ConfigFile() != "" {
			cfgMgr.OnChange(func(*config.Config) {
				logger.Info("config changed, regenerating")
				select {
				case trigger <- struct{}{}:
				default:
				}
			})
			cfgMgr.WatchConfig(logger)
		}

		return fixture.WatchSecond(cmd.Context(), fixtures, buildReq, fixture.WatchOptions{
			Trigger:    trigger,
			OnGenerate: printGenerated(printer, logger, examID),
		})
	},
}

// printGenerated prints each successful watch run. Failed runs are already
// logged by the watcher.
func printGenerated(p *output.Printer, log *slog.Logger, examID string) func(*fixture.SecondResult, error) {
	return func(res *fixture.SecondResult, err error) {
		if err != nil {
			return
		}
		if err := p.Print(res); err != nil {
			log.Warn("failed to print result", "exam_id", examID, "error", err)
		}
	}
}

// secondRequest merges config with any flags set on the command line.
func secondRequest(cmd *cobra.Command, examID string, cfg *config.Config) fixture.SecondRequest {
	opts := imgenc.Options{
		Quality: cfg.Encode.Quality,
		MaxSide: cfg.Encode.MaxSide,
		Raw:     cfg.Encode.Raw,
		Workers: cfg.Encode.Workers,
	}
	flags := cmd.Flags()
	if flags.Changed("quality") {
		opts.Quality = secondQuality
	}
	if flags.Changed("max-side") {
		opts.MaxSide = secondMaxSide
	}
	if flags.Changed("raw") {
		opts.Raw = secondRaw
	}
	if flags.Changed("workers") {
		opts.Workers = secondWorkers
	}
	return fixture.SecondRequest{
		ExamID: examID,
		TaskID: secondTaskID,
		Encode: opts,
		Logger: logger,
	}
}

func init() {
	secondCmd.Flags().StringVar(&secondTaskID, "task-id", "", "value for task_id")
	secondCmd.Flags().BoolVar(&secondRaw, "raw", false, "embed image bytes as-is instead of re-encoding to JPEG")
	secondCmd.Flags().IntVar(&secondQuality, "quality", imgenc.DefaultQuality, "JPEG quality (1-100)")
	secondCmd.Flags().IntVar(&secondMaxSide, "max-side", 0, "downscale images longer than this many pixels (0 = keep)")
	secondCmd.Flags().IntVar(&secondWorkers, "workers", 0, "concurrent image encoders (0 = one per CPU)")
	secondCmd.Flags().BoolVar(&secondWatch, "watch", false, "rebuild on changes until interrupted")

	rootCmd.AddCommand(secondCmd)
}
