package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/cardfix/internal/fixture"
	"github.com/jackzampolin/cardfix/internal/scan"
)

var (
	postRecResult string
	postFillRate  float64
	postDryRun    bool
)

var postCmd = &cobra.Command{
	Use:   "post <exam-id>",
	Short: "Send a recognition result to generate_scan_datas",
	Long: `Build the generate_scan_datas payload from <root>/<exam-id>.json (the
recognition result) and cards/<exam-id>/scan.json, save it as
cards/<exam-id>/<exam-id>_post.json, post it and save the service response
as cards/<exam-id>/<exam-id>_res.json.

The exam id must be numeric; it is sent as uid.

Examples:
  cardfix post 197864
  cardfix post 197864 --fill-rate 0.6
  cardfix post 197864 --rec-result ./out/197864.json --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// post.fill_rate always resolves (viper default 0.5), so an
		// explicit 0 from config or flag is sent unchanged.
		fillRate := cfgMgr.Get().Post.FillRate
		if cmd.Flags().Changed("fill-rate") {
			fillRate = postFillRate
		}
		req := fixture.PostRequest{
			ExamID:        args[0],
			RecResultPath: postRecResult,
			FillRate:      &fillRate,
			DryRun:        postDryRun,
			Logger:        logger,
		}

		res, err := fixture.Post(cmd.Context(), newClient(), fixtures, req)
		if err != nil {
			return err
		}
		return printer.Print(res)
	},
}

func init() {
	postCmd.Flags().StringVar(&postRecResult, "rec-result", "", "recognition result file (default: <root>/<exam-id>.json)")
	postCmd.Flags().Float64Var(&postFillRate, "fill-rate", scan.DefaultFillRate, "fill rate sent with the result")
	postCmd.Flags().BoolVar(&postDryRun, "dry-run", false, "write the payload without sending it")

	rootCmd.AddCommand(postCmd)
}
