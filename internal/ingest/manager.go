// Package ingest orchestrates a crawl from driver to store and stream.
package ingest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"alumnihub/jobingest/config"
	"alumnihub/jobingest/internal/crawler"
	"alumnihub/jobingest/internal/fetcher"
	"alumnihub/jobingest/internal/standardize"
	"alumnihub/jobingest/logger"
	apperr "alumnihub/jobingest/pkg/errors"
	"alumnihub/jobingest/services/cache"
	"alumnihub/jobingest/services/publisher"
	"alumnihub/jobingest/services/store"
)

// Summary reports what one search ingested.
type Summary struct {
	Source    string `json:"source"`
	Found     int    `json:"found"`
	Created   int    `json:"created"`
	Updated   int    `json:"updated"`
	Unchanged int    `json:"unchanged"`
	Skipped   int    `json:"skipped"`
	Errors    int    `json:"errors"`
}

// RefreshSummary reports what one refresh pass did.
type RefreshSummary struct {
	Source    string `json:"source"`
	Checked   int    `json:"checked"`
	Refreshed int    `json:"refreshed"`
	Unchanged int    `json:"unchanged"`
	Failed    int    `json:"failed"`
}

// Manager runs searches end to end: fresh driver per call, standardization,
// upsert, stream publish. A nil store makes every run a dry run; a nil
// publisher skips streaming.
type Manager struct {
	cfg   *config.Config
	store store.Store
	pub   publisher.Publisher
	cache cache.CacheService
	log   *logger.Logger
}

// NewManager wires a manager. store, pub and cacheSvc may each be nil.
func NewManager(cfg *config.Config, st store.Store, pub publisher.Publisher, cacheSvc cache.CacheService) *Manager {
	return &Manager{
		cfg:   cfg,
		store: st,
		pub:   pub,
		cache: cacheSvc,
		log:   logger.ForManager(),
	}
}

// newDriver builds a fresh fetcher and driver so each search starts with an
// empty seen set and its own rate limiter.
func (m *Manager) newDriver(source string) (crawler.Driver, error) {
	f := fetcher.New(m.cfg.FetchDelay, m.cfg.FetchTimeout, m.cache)
	return crawler.New(source, f, m.cfg)
}

// SearchAndSave runs one search against the named source and persists the
// results. The returned jobs are the standardized records, including ones
// skipped by a nil store.
func (m *Manager) SearchAndSave(ctx context.Context, source string, params crawler.SearchParams) (*Summary, []standardize.Job, error) {
	driver, err := m.newDriver(source)
	if err != nil {
		return nil, nil, err
	}

	summary := &Summary{Source: source}
	start := time.Now()

	raws, err := driver.SearchJobs(ctx, params)
	if err != nil {
		return summary, nil, err
	}
	summary.Found = len(raws)

	sc := standardize.Context{
		Query:    params.Query,
		Location: params.Location,
		Category: params.Category,
	}

	var jobs []standardize.Job
	for _, raw := range raws {
		job, err := standardize.Standardize(raw, source, sc)
		if err != nil {
			summary.Skipped++
			m.log.Debug().
				Str("event", "job_skipped").
				Str("url", raw.URL).
				Err(err).
				Msg("Raw job failed validation")
			continue
		}
		jobs = append(jobs, *job)

		if m.store == nil {
			continue
		}
		outcome, err := m.store.Upsert(ctx, job)
		if err != nil {
			summary.Errors++
			m.log.Error().
				Str("event", "upsert_failed").
				Str("url", job.URL).
				Err(err).
				Msg("Failed to persist posting")
			continue
		}
		switch outcome {
		case store.Created:
			summary.Created++
			m.publish(job)
		case store.Updated:
			summary.Updated++
		case store.Unchanged:
			summary.Unchanged++
		}
	}

	m.log.Info().
		Str("event", "ingest_complete").
		Str("source", source).
		Str("query", params.Query).
		Int("found", summary.Found).
		Int("created", summary.Created).
		Int("updated", summary.Updated).
		Int("unchanged", summary.Unchanged).
		Int("skipped", summary.Skipped).
		Int("errors", summary.Errors).
		Int64("elapsed_ms", time.Since(start).Milliseconds()).
		Msg("Search ingested")

	return summary, jobs, nil
}

// SearchDiverse runs one search per category of the fixed taxonomy,
// applying params.MaxJobs as a per-category ceiling, and merges the
// summaries.
func (m *Manager) SearchDiverse(ctx context.Context, source string, params crawler.SearchParams, categories []string) (*Summary, error) {
	taxonomy := crawler.CareerCategories()
	if len(categories) == 0 {
		for name := range taxonomy {
			categories = append(categories, name)
		}
		sort.Strings(categories)
	} else {
		for _, category := range categories {
			if _, ok := taxonomy[category]; !ok {
				return nil, apperr.NewValidation(source, fmt.Sprintf("unknown category %q", category))
			}
		}
	}

	total := &Summary{Source: source}
	for _, category := range categories {
		p := params
		p.Category = category
		if p.Query == "" {
			// Lead with the category's first synonym so the pattern
			// matrix has a real query to search.
			p.Query = taxonomy[category][0]
		}

		sub, _, err := m.SearchAndSave(ctx, source, p)
		if err != nil {
			if ie, ok := err.(*apperr.IngestError); ok && ie.IsFatal() {
				return total, err
			}
			m.log.Warn().
				Str("event", "category_failed").
				Str("category", category).
				Err(err).
				Msg("Category search failed, continuing")
			total.Errors++
			continue
		}
		total.Found += sub.Found
		total.Created += sub.Created
		total.Updated += sub.Updated
		total.Unchanged += sub.Unchanged
		total.Skipped += sub.Skipped
		total.Errors += sub.Errors
	}
	return total, nil
}

// Refresh re-fetches active postings last seen more than daysOld days ago.
// Postings whose detail fetch fails are left untouched for the next pass.
func (m *Manager) Refresh(ctx context.Context, source string, daysOld, limit int) (*RefreshSummary, error) {
	if m.store == nil {
		return nil, apperr.NewConfiguration("refresh requires a store", nil)
	}
	driver, err := m.newDriver(source)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().AddDate(0, 0, -daysOld)
	stale, err := m.store.ListStale(ctx, source, cutoff, limit)
	if err != nil {
		return nil, err
	}

	summary := &RefreshSummary{Source: source, Checked: len(stale)}
	for i := range stale {
		existing := &stale[i]

		detail, err := driver.JobDetails(ctx, existing.URL)
		if err != nil || detail == nil {
			summary.Failed++
			m.log.Warn().
				Str("event", "refresh_failed").
				Str("url", existing.URL).
				Err(err).
				Msg("Detail fetch failed, leaving posting untouched")
			continue
		}

		detail.SourceID = existing.ExternalID
		if detail.Category == "" {
			detail.Category = existing.Category
		}
		fresh, err := standardize.Standardize(*detail, source, standardize.Context{
			Query:    existing.SearchQuery,
			Location: existing.SearchLocation,
		})
		if err != nil {
			summary.Failed++
			continue
		}
		fresh.Slug = existing.Slug

		if fresh.HashSignature == existing.HashSignature {
			// A successful re-fetch counts as a sighting even when
			// nothing changed, or the posting stays stale forever.
			if err := m.store.TouchLastSeen(ctx, existing.Source, existing.ExternalID); err != nil {
				summary.Failed++
				m.log.Error().
					Str("event", "refresh_touch_failed").
					Str("url", existing.URL).
					Err(err).
					Msg("Failed to mark posting as seen")
				continue
			}
			summary.Unchanged++
			continue
		}
		if err := m.store.UpdateFromRefresh(ctx, fresh); err != nil {
			summary.Failed++
			m.log.Error().
				Str("event", "refresh_update_failed").
				Str("url", existing.URL).
				Err(err).
				Msg("Failed to persist refreshed posting")
			continue
		}
		summary.Refreshed++
	}

	m.log.Info().
		Str("event", "refresh_complete").
		Str("source", source).
		Int("checked", summary.Checked).
		Int("refreshed", summary.Refreshed).
		Int("unchanged", summary.Unchanged).
		Int("failed", summary.Failed).
		Msg("Refresh pass complete")

	return summary, nil
}

// List proxies the store's List for the CLI.
func (m *Manager) List(ctx context.Context, filter store.ListFilter) ([]standardize.Job, error) {
	if m.store == nil {
		return nil, apperr.NewConfiguration("list requires a store", nil)
	}
	return m.store.List(ctx, filter)
}

func (m *Manager) publish(job *standardize.Job) {
	if m.pub == nil {
		return
	}
	if err := m.pub.PublishJob(job); err != nil {
		m.log.Warn().
			Str("event", "publish_failed").
			Str("url", job.URL).
			Err(err).
			Msg("Failed to publish posting")
	}
}
