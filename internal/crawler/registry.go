package crawler

import (
	"fmt"
	"sort"

	"alumnihub/jobingest/config"
	"alumnihub/jobingest/internal/fetcher"
	apperr "alumnihub/jobingest/pkg/errors"
)

// driverFactories maps source names to constructors. Each call builds a
// fresh driver so the per-search seen set starts empty.
var driverFactories = map[string]func(*fetcher.Fetcher, *config.Config) Driver{
	SourceBossJobs: func(f *fetcher.Fetcher, cfg *config.Config) Driver {
		return NewBossJobsDriver(f, cfg.BossJobsDomains)
	},
	SourceIndeed: func(f *fetcher.Fetcher, cfg *config.Config) Driver {
		return NewIndeedDriver(f, cfg.IndeedURL)
	},
}

// New returns a fresh driver for the named source.
func New(source string, f *fetcher.Fetcher, cfg *config.Config) (Driver, error) {
	factory, ok := driverFactories[source]
	if !ok {
		return nil, apperr.NewConfiguration(
			fmt.Sprintf("unknown source %q, available: %v", source, Sources()), nil)
	}
	return factory(f, cfg), nil
}

// Sources lists the registered source names in stable order.
func Sources() []string {
	names := make([]string, 0, len(driverFactories))
	for name := range driverFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
