package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"alumnihub/jobingest/internal/crawler"
)

var (
	diverseParams   = crawler.SearchParams{}
	diverseCategory string
)

var crawlDiverseCmd = &cobra.Command{
	Use:   "crawl-diverse [source]",
	Short: "Crawl one search per career category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mgr, _, cleanup, err := buildManager(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		var categories []string
		if diverseCategory != "" {
			categories = []string{diverseCategory}
		}

		summary, err := mgr.SearchDiverse(ctx, args[0], diverseParams, categories)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	crawlDiverseCmd.Flags().StringVarP(&diverseParams.Location, "location", "l", "", "search location")
	crawlDiverseCmd.Flags().StringVar(&diverseCategory, "category", "",
		"single category to crawl (default: the whole taxonomy)")
	crawlDiverseCmd.Flags().IntVar(&diverseParams.MaxJobs, "max-jobs-per-category", 10,
		"maximum jobs to ingest per category")
	crawlDiverseCmd.Flags().StringVar(&diverseParams.JobType, "job-type", "", "employment type filter")
	crawlDiverseCmd.Flags().IntVar(&diverseParams.MaxPages, "max-pages", 5, "maximum pages per search pattern")

	rootCmd.AddCommand(crawlDiverseCmd)
}
