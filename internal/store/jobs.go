// Package store implements typed PostgreSQL access for the aggregator
// service. It contains no business logic: callers own merge semantics,
// filtering and orchestration.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/enkou97/ses-job-crawler/internal/model"
)

// ErrNotFound is returned by id-based lookups when no row matches.
var ErrNotFound = errors.New("not found")

// jobColumns is the canonical column list; keep in sync with scanJob.
const jobColumns = `id, source, source_url, source_id, title,
	min_price, max_price, price_type, settlement_hours,
	required_skills, preferred_skills, experience_years,
	location, remote_type, work_days, start_date, contract_period,
	company_name, industry, description,
	status, is_favorite, posted_at, crawled_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	var j model.Job
	err := row.Scan(
		&j.ID, &j.Source, &j.SourceURL, &j.SourceID, &j.Title,
		&j.MinPrice, &j.MaxPrice, &j.PriceType, &j.SettlementHours,
		&j.RequiredSkills, &j.PreferredSkills, &j.ExperienceYears,
		&j.Location, &j.RemoteType, &j.WorkDays, &j.StartDate, &j.ContractPeriod,
		&j.CompanyName, &j.Industry, &j.Description,
		&j.Status, &j.IsFavorite, &j.PostedAt, &j.CrawledAt, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// JobStore provides typed access to the jobs table.
type JobStore struct {
	pool *pgxpool.Pool
}

// NewJobStore returns a JobStore backed by pool.
func NewJobStore(pool *pgxpool.Pool) *JobStore {
	return &JobStore{pool: pool}
}

// FindByKey looks a job up by its (source, sourceURL) identity. A missing
// row is the normal insert path for ingestion, so it returns (nil, nil)
// rather than an error.
func (s *JobStore) FindByKey(ctx context.Context, source, sourceURL string) (*model.Job, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE source = $1 AND source_url = $2`,
		source, sourceURL)

	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("findByKey: %w", err)
	}
	return j, nil
}

// FindByID returns one job or ErrNotFound.
func (s *JobStore) FindByID(ctx context.Context, id int64) (*model.Job, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)

	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("findByID: %w", err)
	}
	return j, nil
}

// Insert persists a first-sight job. The ON CONFLICT clause serializes two
// concurrent producers of the same (source, source_url): the loser merges
// its mutable fields into the winner's row instead of erroring, and status
// and is_favorite are never touched by the conflict path.
func (s *JobStore) Insert(ctx context.Context, j *model.Job) (*model.Job, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO jobs (source, source_url, source_id, title,
		                   min_price, max_price, price_type, settlement_hours,
		                   required_skills, preferred_skills, experience_years,
		                   location, remote_type, work_days, start_date, contract_period,
		                   company_name, industry, description,
		                   status, is_favorite, posted_at, crawled_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		         $15, $16, $17, $18, $19, $20, $21, $22, $23)
		 ON CONFLICT (source, source_url) DO UPDATE SET
		   title = EXCLUDED.title,
		   min_price = EXCLUDED.min_price,
		   max_price = EXCLUDED.max_price,
		   price_type = EXCLUDED.price_type,
		   settlement_hours = EXCLUDED.settlement_hours,
		   required_skills = EXCLUDED.required_skills,
		   preferred_skills = EXCLUDED.preferred_skills,
		   experience_years = EXCLUDED.experience_years,
		   location = EXCLUDED.location,
		   remote_type = EXCLUDED.remote_type,
		   work_days = EXCLUDED.work_days,
		   start_date = EXCLUDED.start_date,
		   contract_period = EXCLUDED.contract_period,
		   company_name = EXCLUDED.company_name,
		   industry = EXCLUDED.industry,
		   description = EXCLUDED.description,
		   posted_at = EXCLUDED.posted_at,
		   crawled_at = EXCLUDED.crawled_at,
		   updated_at = NOW()
		 RETURNING `+jobColumns,
		j.Source, j.SourceURL, j.SourceID, j.Title,
		j.MinPrice, j.MaxPrice, j.PriceType, j.SettlementHours,
		j.RequiredSkills, j.PreferredSkills, j.ExperienceYears,
		j.Location, j.RemoteType, j.WorkDays, j.StartDate, j.ContractPeriod,
		j.CompanyName, j.Industry, j.Description,
		j.Status, j.IsFavorite, j.PostedAt, j.CrawledAt,
	)

	saved, err := scanJob(row)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return saved, nil
}

// Update writes a job's full mutable state back by id.
func (s *JobStore) Update(ctx context.Context, j *model.Job) (*model.Job, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE jobs SET
		   source_id = $2, title = $3,
		   min_price = $4, max_price = $5, price_type = $6, settlement_hours = $7,
		   required_skills = $8, preferred_skills = $9, experience_years = $10,
		   location = $11, remote_type = $12, work_days = $13, start_date = $14,
		   contract_period = $15, company_name = $16, industry = $17, description = $18,
		   status = $19, is_favorite = $20, posted_at = $21, crawled_at = $22,
		   updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+jobColumns,
		j.ID, j.SourceID, j.Title,
		j.MinPrice, j.MaxPrice, j.PriceType, j.SettlementHours,
		j.RequiredSkills, j.PreferredSkills, j.ExperienceYears,
		j.Location, j.RemoteType, j.WorkDays, j.StartDate,
		j.ContractPeriod, j.CompanyName, j.Industry, j.Description,
		j.Status, j.IsFavorite, j.PostedAt, j.CrawledAt,
	)

	saved, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}
	return saved, nil
}

// UpdateStatus sets a job's lifecycle status, or returns ErrNotFound.
func (s *JobStore) UpdateStatus(ctx context.Context, id int64, status model.Status) (*model.Job, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE jobs SET status = $2, updated_at = NOW() WHERE id = $1
		 RETURNING `+jobColumns,
		id, status)

	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updateStatus: %w", err)
	}
	return j, nil
}

// ToggleFavorite flips a job's favorite flag, or returns ErrNotFound.
func (s *JobStore) ToggleFavorite(ctx context.Context, id int64) (*model.Job, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE jobs SET is_favorite = NOT is_favorite, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+jobColumns,
		id)

	j, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("toggleFavorite: %w", err)
	}
	return j, nil
}

// Search runs the conjunction built from req and returns one page, newest
// crawl first unless the request says otherwise.
func (s *JobStore) Search(ctx context.Context, req model.SearchRequest) (*model.Page, error) {
	where, args := BuildJobSearch(req)
	page, size := normalizePaging(req.Page, req.Size)

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("search count: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM jobs%s ORDER BY %s LIMIT %d OFFSET %d`,
		jobColumns, where, SortClause(req.SortBy, req.SortOrder), size, page*size)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	return collectPage(rows, page, size, total)
}

// List returns one page of all jobs.
func (s *JobStore) List(ctx context.Context, page, size int, sortBy, sortOrder string) (*model.Page, error) {
	return s.Search(ctx, model.SearchRequest{
		SortBy: sortBy, SortOrder: sortOrder, Page: page, Size: size,
	})
}

// Favorites returns one page of favorite jobs, newest crawl first.
func (s *JobStore) Favorites(ctx context.Context, page, size int) (*model.Page, error) {
	page, size = normalizePaging(page, size)

	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM jobs WHERE is_favorite`).Scan(&total); err != nil {
		return nil, fmt.Errorf("favorites count: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM jobs WHERE is_favorite
		 ORDER BY crawled_at DESC LIMIT %d OFFSET %d`, jobColumns, size, page*size))
	if err != nil {
		return nil, fmt.Errorf("favorites query: %w", err)
	}
	defer rows.Close()

	return collectPage(rows, page, size, total)
}

// FindSince returns all jobs crawled at or after the watermark, newest first.
func (s *JobStore) FindSince(ctx context.Context, since time.Time) ([]model.Job, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE crawled_at >= $1 ORDER BY crawled_at DESC`,
		since)
	if err != nil {
		return nil, fmt.Errorf("findSince: %w", err)
	}
	defer rows.Close()

	var jobs []model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("findSince scan: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

// Stats aggregates the overview numbers in one round of queries.
func (s *JobStore) Stats(ctx context.Context) (*model.Stats, error) {
	st := &model.Stats{JobsBySource: map[string]int64{}}

	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE status = 'NEW'),
		        COUNT(*) FILTER (WHERE is_favorite),
		        AVG(max_price)
		 FROM jobs`).Scan(&st.TotalJobs, &st.NewJobs, &st.FavoriteJobs, &st.AveragePrice)
	if err != nil {
		return nil, fmt.Errorf("stats totals: %w", err)
	}

	rows, err := s.pool.Query(ctx, `SELECT source, COUNT(*) FROM jobs GROUP BY source`)
	if err != nil {
		return nil, fmt.Errorf("stats by source: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var source string
		var count int64
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("stats scan: %w", err)
		}
		st.JobsBySource[source] = count
	}
	return st, rows.Err()
}

func collectPage(rows pgx.Rows, page, size int, total int64) (*model.Page, error) {
	content := make([]model.Summary, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("page scan: %w", err)
		}
		content = append(content, j.Summary())
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	return &model.Page{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    totalPages,
	}, nil
}
