package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/cardfix/internal/fixture"
)

var fetchImageName string

var fetchCmd = &cobra.Command{
	Use:   "fetch <exam-id> [image-url]",
	Short: "Download an exam's card layout and scan image",
	Long: `Fetch the card layout for an exam from rec_info and save it to
cards/<exam-id>/scan.json. When an image URL is given, the scan is saved to
cards/<exam-id>/images/. A PDF of scans is kept next to scan.json and its
embedded images are extracted into images/.

Examples:
  cardfix fetch 194751
  cardfix fetch 194751 https://cdn.example.com/scans/194751.jpg
  cardfix fetch 194751 https://cdn.example.com/scans/194751.pdf --image-name page.jpg`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := fixture.FetchRequest{
			ExamID:    args[0],
			ImageName: cfgMgr.Get().Fetch.ImageName,
			Logger:    logger,
		}
		if len(args) > 1 {
			req.ImageURL = args[1]
		}
		if cmd.Flags().Changed("image-name") {
			req.ImageName = fetchImageName
		}

		res, err := fixture.Fetch(cmd.Context(), newClient(), fixtures, req)
		if err != nil {
			return err
		}
		return printer.Print(res)
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchImageName, "image-name", fixture.DefaultImageName, "file name for the downloaded image")

	rootCmd.AddCommand(fetchCmd)
}
