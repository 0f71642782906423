package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"alumnihub/jobingest/internal/crawler"
	"alumnihub/jobingest/internal/ingest"
)

var (
	refreshSource  string
	refreshDaysOld int
	refreshLimit   int
)

var refreshCmd = &cobra.Command{
	Use:   "refresh-jobs",
	Short: "Re-fetch stale postings and update changed ones",
	Long: `refresh-jobs re-checks active postings last seen more than the given
number of days ago. Without --source every registered source is
refreshed. Postings whose detail fetch fails are left untouched so a
transient outage cannot wipe the catalog.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mgr, _, cleanup, err := buildManager(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		sources := []string{refreshSource}
		if refreshSource == "" {
			sources = crawler.Sources()
		}

		var summaries []*ingest.RefreshSummary
		for _, source := range sources {
			summary, err := mgr.Refresh(ctx, source, refreshDaysOld, refreshLimit)
			if err != nil {
				return err
			}
			summaries = append(summaries, summary)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	},
}

func init() {
	refreshCmd.Flags().StringVar(&refreshSource, "source", "",
		"refresh only this source (default: all registered)")
	refreshCmd.Flags().IntVar(&refreshDaysOld, "days-old", 7,
		"refresh postings last seen more than this many days ago")
	refreshCmd.Flags().IntVar(&refreshLimit, "limit", 0,
		"maximum postings per source (0 = store default)")

	rootCmd.AddCommand(refreshCmd)
}
