package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"alumnihub/jobingest/internal/crawler"
	"alumnihub/jobingest/logger"
	"alumnihub/jobingest/services/worker"
)

var (
	workerSources []string
	workerLimit   int
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the periodic refresh worker until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mgr, cfg, cleanup, err := buildManager(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		sources := workerSources
		if len(sources) == 0 {
			sources = crawler.Sources()
		}

		w := worker.NewRefreshWorker(mgr, sources, cfg.RefreshDaysOld, workerLimit, cfg.RefreshInterval)
		if err := w.Start(ctx); err != nil {
			return err
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			logger.Info("Received %s, shutting down", sig)
		case <-ctx.Done():
		}
		w.Stop()
		return nil
	},
}

func init() {
	workerCmd.Flags().StringSliceVar(&workerSources, "sources", nil,
		"sources to refresh (default: all registered)")
	workerCmd.Flags().IntVar(&workerLimit, "limit", 100, "maximum postings per pass")

	rootCmd.AddCommand(workerCmd)
}
