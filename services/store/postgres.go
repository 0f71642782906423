package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"alumnihub/jobingest/internal/standardize"
	"alumnihub/jobingest/logger"
	apperr "alumnihub/jobingest/pkg/errors"
)

const uniqueViolation = "23505"

// slugRetries bounds regeneration attempts when a random slug suffix
// collides with an existing row.
const slugRetries = 3

const schemaSQL = `
CREATE TABLE IF NOT EXISTS job_postings (
	id               BIGSERIAL PRIMARY KEY,
	source           TEXT        NOT NULL,
	external_id      TEXT        NOT NULL,
	title            TEXT        NOT NULL,
	company          TEXT        NOT NULL,
	location         TEXT        NOT NULL DEFAULT '',
	url              TEXT        NOT NULL,
	slug             TEXT        NOT NULL UNIQUE,
	description      TEXT        NOT NULL DEFAULT '',
	job_type         TEXT        NOT NULL DEFAULT 'FULLTIME',
	salary_range     TEXT        NOT NULL DEFAULT '',
	category         TEXT        NOT NULL DEFAULT '',
	requirements     TEXT        NOT NULL DEFAULT '',
	responsibilities TEXT        NOT NULL DEFAULT '',
	skills           TEXT        NOT NULL DEFAULT '',
	search_query     TEXT        NOT NULL DEFAULT '',
	search_location  TEXT        NOT NULL DEFAULT '',
	hash_signature   TEXT        NOT NULL,
	posted_date      TIMESTAMPTZ NOT NULL,
	is_active        BOOLEAN     NOT NULL DEFAULT TRUE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_seen_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (source, external_id)
);
CREATE INDEX IF NOT EXISTS idx_job_postings_hash ON job_postings (hash_signature);
CREATE INDEX IF NOT EXISTS idx_job_postings_source_seen ON job_postings (source, last_seen_at);
`

const jobColumns = `source, external_id, title, company, location, url, slug,
	description, job_type, salary_range, category, requirements,
	responsibilities, skills, search_query, search_location,
	hash_signature, posted_date, is_active`

// PostgresStore persists postings in PostgreSQL via a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

// NewPostgresStore connects to the database and pings it.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, apperr.NewConfiguration("failed to create database pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperr.NewConfiguration("database unreachable", err)
	}
	return &PostgresStore{pool: pool, log: logger.ForStore()}, nil
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Upsert inserts a new posting or updates the existing (source, external_id)
// row. The stored slug is never overwritten. A slug collision on insert
// regenerates the suffix up to slugRetries times.
func (s *PostgresStore) Upsert(ctx context.Context, job *standardize.Job) (UpsertOutcome, error) {
	existing, err := s.GetBySourceExternalID(ctx, job.Source, job.ExternalID)
	if err != nil {
		return Unchanged, err
	}

	if existing == nil {
		if err := s.insert(ctx, job); err != nil {
			return Unchanged, err
		}
		return Created, nil
	}

	if existing.HashSignature == job.HashSignature {
		if err := s.TouchLastSeen(ctx, job.Source, job.ExternalID); err != nil {
			return Unchanged, err
		}
		return Unchanged, nil
	}

	if err := s.UpdateFromRefresh(ctx, job); err != nil {
		return Unchanged, err
	}
	return Updated, nil
}

func (s *PostgresStore) insert(ctx context.Context, job *standardize.Job) error {
	slug := job.Slug
	for attempt := 0; ; attempt++ {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO job_postings (`+jobColumns+`)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
			job.Source, job.ExternalID, job.Title, job.Company, job.Location,
			job.URL, slug, job.Description, job.JobType, job.SalaryRange,
			job.Category, job.Requirements, job.Responsibilities, job.Skills,
			job.SearchQuery, job.SearchLocation, job.HashSignature,
			job.PostedDate, job.IsActive)
		if err == nil {
			job.Slug = slug
			return nil
		}

		var pgErr *pgconn.PgError
		if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
			return fmt.Errorf("insert posting: %w", err)
		}
		if pgErr.ConstraintName != "" && pgErr.ConstraintName != "job_postings_slug_key" {
			// (source, external_id) raced with a concurrent insert.
			return apperr.NewStoreConflict(job.Source,
				fmt.Sprintf("posting %s/%s already exists", job.Source, job.ExternalID), err)
		}
		if attempt >= slugRetries {
			return apperr.NewStoreConflict(job.Source,
				fmt.Sprintf("slug collision persisted after %d retries", slugRetries), err)
		}

		slug = standardize.NewSlug(job.Title, job.Company)
		s.log.Warn().
			Str("event", "slug_retry").
			Str("slug", slug).
			Int("attempt", attempt+1).
			Msg("Slug collision, regenerating suffix")
	}
}

func (s *PostgresStore) GetBySourceExternalID(ctx context.Context, source, externalID string) (*standardize.Job, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM job_postings WHERE source = $1 AND external_id = $2`,
		source, externalID)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get posting: %w", err)
	}
	return job, nil
}

func (s *PostgresStore) ListStale(ctx context.Context, source string, olderThan time.Time, limit int) ([]standardize.Job, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM job_postings
		 WHERE source = $1 AND is_active AND last_seen_at < $2
		 ORDER BY last_seen_at ASC LIMIT $3`,
		source, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale postings: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]standardize.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM job_postings WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Source != "" {
		query += ` AND source = ` + arg(filter.Source)
	}
	if filter.Category != "" {
		query += ` AND category = ` + arg(filter.Category)
	}
	if filter.JobType != "" {
		query += ` AND job_type = ` + arg(filter.JobType)
	}
	if filter.Query != "" {
		query += ` AND search_query ILIKE ` + arg("%"+filter.Query+"%")
	}
	if filter.Location != "" {
		query += ` AND search_location ILIKE ` + arg("%"+filter.Location+"%")
	}
	if filter.Title != "" {
		query += ` AND title ILIKE ` + arg("%"+filter.Title+"%")
	}
	if filter.Company != "" {
		query += ` AND company ILIKE ` + arg("%"+filter.Company+"%")
	}
	if filter.ActiveOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY posted_date DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ` + arg(filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list postings: %w", err)
	}
	defer rows.Close()
	return collectJobs(rows)
}

// UpdateFromRefresh rewrites the content fields of an existing posting.
// Slug and creation metadata stay put.
func (s *PostgresStore) UpdateFromRefresh(ctx context.Context, job *standardize.Job) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE job_postings SET
			title = $3, company = $4, location = $5, url = $6,
			description = $7, job_type = $8, salary_range = $9,
			category = $10, requirements = $11, responsibilities = $12,
			skills = $13, hash_signature = $14, posted_date = $15,
			is_active = TRUE, updated_at = now(), last_seen_at = now()
		 WHERE source = $1 AND external_id = $2`,
		job.Source, job.ExternalID, job.Title, job.Company, job.Location,
		job.URL, job.Description, job.JobType, job.SalaryRange, job.Category,
		job.Requirements, job.Responsibilities, job.Skills,
		job.HashSignature, job.PostedDate)
	if err != nil {
		return fmt.Errorf("update posting: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update posting: no row for %s/%s", job.Source, job.ExternalID)
	}
	return nil
}

// TouchLastSeen marks a posting as seen right now and re-activates it.
func (s *PostgresStore) TouchLastSeen(ctx context.Context, source, externalID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE job_postings SET last_seen_at = now(), is_active = TRUE
		 WHERE source = $1 AND external_id = $2`,
		source, externalID)
	if err != nil {
		return fmt.Errorf("touch posting: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("touch posting: no row for %s/%s", source, externalID)
	}
	return nil
}

func (s *PostgresStore) SetActive(ctx context.Context, source, externalID string, active bool) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE job_postings SET is_active = $3, updated_at = now()
		 WHERE source = $1 AND external_id = $2`,
		source, externalID, active)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func scanJob(row pgx.Row) (*standardize.Job, error) {
	var j standardize.Job
	err := row.Scan(
		&j.Source, &j.ExternalID, &j.Title, &j.Company, &j.Location,
		&j.URL, &j.Slug, &j.Description, &j.JobType, &j.SalaryRange,
		&j.Category, &j.Requirements, &j.Responsibilities, &j.Skills,
		&j.SearchQuery, &j.SearchLocation, &j.HashSignature,
		&j.PostedDate, &j.IsActive)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func collectJobs(rows pgx.Rows) ([]standardize.Job, error) {
	var jobs []standardize.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan posting: %w", err)
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}
