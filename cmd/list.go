package cmd

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"alumnihub/jobingest/services/store"
)

var (
	listFilter = store.ListFilter{}
	listAll    bool
)

// listRow is the compact projection printed without --all.
type listRow struct {
	Source     string    `json:"source"`
	Title      string    `json:"title"`
	Company    string    `json:"company"`
	Location   string    `json:"location"`
	URL        string    `json:"url"`
	PostedDate time.Time `json:"posted_date"`
}

var listCmd = &cobra.Command{
	Use:   "list-jobs [source]",
	Short: "List stored postings as JSON",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mgr, _, cleanup, err := buildManager(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if len(args) == 1 {
			listFilter.Source = args[0]
		}

		jobs, err := mgr.List(ctx, listFilter)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if listAll {
			return enc.Encode(jobs)
		}

		rows := make([]listRow, 0, len(jobs))
		for _, j := range jobs {
			rows = append(rows, listRow{
				Source:     j.Source,
				Title:      j.Title,
				Company:    j.Company,
				Location:   j.Location,
				URL:        j.URL,
				PostedDate: j.PostedDate,
			})
		}
		return enc.Encode(rows)
	},
}

func init() {
	listCmd.Flags().IntVar(&listFilter.Limit, "limit", 5, "maximum postings to return")
	listCmd.Flags().StringVar(&listFilter.Query, "query", "", "filter by originating search query substring")
	listCmd.Flags().StringVar(&listFilter.Location, "location", "", "filter by originating search location substring")
	listCmd.Flags().StringVar(&listFilter.Title, "title", "", "filter by title substring")
	listCmd.Flags().StringVar(&listFilter.Company, "company", "", "filter by company substring")
	listCmd.Flags().StringVar(&listFilter.Category, "category", "", "filter by career category")
	listCmd.Flags().StringVar(&listFilter.JobType, "job-type", "", "filter by canonical job type")
	listCmd.Flags().BoolVar(&listFilter.ActiveOnly, "active-only", false, "only active postings")
	listCmd.Flags().BoolVar(&listAll, "all", false, "print every stored field per posting")
	listCmd.Flags().IntVar(&listFilter.Offset, "offset", 0, "postings to skip")

	rootCmd.AddCommand(listCmd)
}
