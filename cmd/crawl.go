package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"alumnihub/jobingest/internal/crawler"
)

var (
	crawlParams  = crawler.SearchParams{}
	crawlRefresh bool
	crawlDaysOld int
)

var crawlCmd = &cobra.Command{
	Use:   "crawl [source] [query]",
	Short: "Run one search against a source and store the results",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mgr, _, cleanup, err := buildManager(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if crawlRefresh {
			summary, err := mgr.Refresh(ctx, args[0], crawlDaysOld, 0)
			if err != nil {
				return err
			}
			return enc.Encode(summary)
		}

		crawlParams.Query = args[1]
		summary, jobs, err := mgr.SearchAndSave(ctx, args[0], crawlParams)
		if err != nil {
			return err
		}

		out := struct {
			Summary any `json:"summary"`
			Jobs    any `json:"jobs,omitempty"`
		}{Summary: summary}
		if flagDryRun {
			out.Jobs = jobs
		}
		return enc.Encode(out)
	},
}

func init() {
	crawlCmd.Flags().StringVarP(&crawlParams.Location, "location", "l", "", "search location")
	crawlCmd.Flags().IntVarP(&crawlParams.MaxJobs, "max-jobs", "n", 100, "maximum jobs to ingest")
	crawlCmd.Flags().IntVar(&crawlParams.MaxPages, "max-pages", 10, "maximum pages per search pattern")
	crawlCmd.Flags().StringVar(&crawlParams.JobType, "job-type", "", "employment type filter")
	crawlCmd.Flags().StringVar(&crawlParams.Category, "category", "", "career category for diversification")
	crawlCmd.Flags().IntVar(&crawlParams.Radius, "radius", 0, "search radius in km (sources that support it)")
	crawlCmd.Flags().IntVar(&crawlParams.Days, "days", 0, "only jobs posted within this many days")
	crawlCmd.Flags().BoolVar(&crawlRefresh, "refresh", false,
		"re-fetch stale postings instead of searching; the query is ignored")
	crawlCmd.Flags().IntVar(&crawlDaysOld, "days-old", 7,
		"with --refresh, re-fetch postings last seen more than this many days ago")

	rootCmd.AddCommand(crawlCmd)
}
