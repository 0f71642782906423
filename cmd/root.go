// Package cmd holds the jobingest CLI.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"alumnihub/jobingest/config"
	"alumnihub/jobingest/internal/ingest"
	"alumnihub/jobingest/logger"
	"alumnihub/jobingest/services/cache"
	"alumnihub/jobingest/services/publisher"
	"alumnihub/jobingest/services/store"
)

var (
	flagDryRun    bool
	flagNoPublish bool
)

var rootCmd = &cobra.Command{
	Use:   "jobingest",
	Short: "Crawl, standardize and store job postings",
	Long: `jobingest crawls job boards, standardizes the postings into a
canonical shape and stores them in PostgreSQL, publishing new postings
to Redis streams for downstream consumers.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExecuteContext runs the CLI with the given base context.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDryRun, "dry-run", false,
		"crawl and standardize without writing to the database or streams")
	rootCmd.PersistentFlags().BoolVar(&flagNoPublish, "no-publish", false,
		"skip publishing new postings to Redis streams")
}

// buildManager assembles a manager from the environment. The returned
// cleanup func closes every opened connection and is safe to call once.
func buildManager(ctx context.Context) (*ingest.Manager, *config.Config, func(), error) {
	loaded := config.LoadConfig()
	cfg := &loaded
	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	var cacheSvc cache.CacheService
	if cfg.MemcacheAddr != "" {
		cacheSvc = cache.NewMemcacheService(cfg.MemcacheAddr)
	}

	if flagDryRun {
		logger.Info("Dry run: nothing will be written")
		mgr := ingest.NewManager(cfg, nil, nil, cacheSvc)
		return mgr, cfg, func() {}, nil
	}

	st, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := st.EnsureSchema(ctx); err != nil {
		st.Close()
		return nil, nil, nil, err
	}

	var pub publisher.Publisher
	if !flagNoPublish && cfg.RedisAddr != "" {
		pub = publisher.NewRedisPublisher(ctx, cfg.RedisAddr, cfg.RedisDB,
			cfg.RedisStream, cfg.RedisStreamCount, cfg.RedisStreamMaxLength)
	}

	cleanup := func() {
		if pub != nil {
			if err := pub.TrimStreams(); err != nil {
				logger.Warn("Failed to trim streams: %v", err)
			}
			_ = pub.Close()
		}
		st.Close()
	}
	return ingest.NewManager(cfg, st, pub, cacheSvc), cfg, cleanup, nil
}
