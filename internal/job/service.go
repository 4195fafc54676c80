// Package job contains the ingestion and query business logic for postings.
// It is transport-agnostic: used by the HTTP API layer (api package).
package job

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/enkou97/ses-job-crawler/internal/metrics"
	"github.com/enkou97/ses-job-crawler/internal/model"
)

// EventJobDiscovered is published to Redis when a posting is seen for the
// first time. Downstream consumers (SSE gateway, analytics) subscribe to it.
const EventJobDiscovered = "EVENT_JOB_DISCOVERED"

// Store is the persistence capability the service needs. Implemented by
// store.JobStore; substituted with an in-memory fake in tests.
type Store interface {
	FindByKey(ctx context.Context, source, sourceURL string) (*model.Job, error)
	FindByID(ctx context.Context, id int64) (*model.Job, error)
	Insert(ctx context.Context, j *model.Job) (*model.Job, error)
	Update(ctx context.Context, j *model.Job) (*model.Job, error)
	UpdateStatus(ctx context.Context, id int64, status model.Status) (*model.Job, error)
	ToggleFavorite(ctx context.Context, id int64) (*model.Job, error)
	Search(ctx context.Context, req model.SearchRequest) (*model.Page, error)
	List(ctx context.Context, page, size int, sortBy, sortOrder string) (*model.Page, error)
	Favorites(ctx context.Context, page, size int) (*model.Page, error)
	FindSince(ctx context.Context, since time.Time) ([]model.Job, error)
	Stats(ctx context.Context) (*model.Stats, error)
}

// Service encapsulates posting ingestion, search and stats.
type Service struct {
	store Store
	rdb   *redis.Client // nil disables event publishing
	log   *slog.Logger
	now   func() time.Time
}

// NewService returns a configured Service.
func NewService(store Store, rdb *redis.Client, log *slog.Logger) *Service {
	return &Service{
		store: store,
		rdb:   rdb,
		log:   log.With("component", "job-service"),
		now:   time.Now,
	}
}

// UpsertResult is the per-item outcome of a batch ingestion.
type UpsertResult struct {
	Job     *model.Job `json:"job,omitempty"`
	Created bool       `json:"created"`
	Error   string     `json:"error,omitempty"`
}

// Upsert resolves the input against the store by (source, sourceUrl).
// An existing posting has its mutable fields overwritten and crawledAt
// refreshed; status and favorite survive re-ingestion. A new posting starts
// at status NEW. "Already exists" is the normal merge path, never an error.
func (s *Service) Upsert(ctx context.Context, in model.JobInput) (*model.Job, bool, error) {
	existing, err := s.store.FindByKey(ctx, in.Source, in.SourceURL)
	if err != nil {
		metrics.JobUpserts.WithLabelValues("error").Inc()
		return nil, false, err
	}

	if existing != nil {
		model.ApplyInput(existing, in, s.now())
		saved, err := s.store.Update(ctx, existing)
		if err != nil {
			metrics.JobUpserts.WithLabelValues("error").Inc()
			return nil, false, err
		}
		metrics.JobUpserts.WithLabelValues("updated").Inc()
		s.log.Info("updated existing job", "id", saved.ID, "source", saved.Source, "title", saved.Title)
		return saved, false, nil
	}

	// First sight. The store's insert is conflict-as-merge, so a racing
	// producer of the same key cannot create a second row.
	saved, err := s.store.Insert(ctx, model.NewJob(in, s.now()))
	if err != nil {
		metrics.JobUpserts.WithLabelValues("error").Inc()
		return nil, false, err
	}
	metrics.JobUpserts.WithLabelValues("created").Inc()
	s.log.Info("created new job", "id", saved.ID, "source", saved.Source, "title", saved.Title)

	s.publishDiscovered(ctx, saved)
	return saved, true, nil
}

// UpsertBatch applies Upsert per item. Items are independent: one failure is
// reported in its slot and the rest proceed.
func (s *Service) UpsertBatch(ctx context.Context, inputs []model.JobInput) []UpsertResult {
	results := make([]UpsertResult, 0, len(inputs))
	for _, in := range inputs {
		saved, created, err := s.Upsert(ctx, in)
		if err != nil {
			s.log.Warn("batch item failed", "source", in.Source, "sourceUrl", in.SourceURL, "err", err)
			results = append(results, UpsertResult{Error: err.Error()})
			continue
		}
		results = append(results, UpsertResult{Job: saved, Created: created})
	}
	return results
}

// publishDiscovered emits the first-sight event. Failures are non-fatal.
func (s *Service) publishDiscovered(ctx context.Context, j *model.Job) {
	if s.rdb == nil {
		return
	}
	event, _ := json.Marshal(map[string]any{
		"type":      EventJobDiscovered,
		"jobId":     j.ID,
		"source":    j.Source,
		"sourceUrl": j.SourceURL,
		"title":     j.Title,
	})
	if err := s.rdb.Publish(ctx, EventJobDiscovered, event).Err(); err != nil {
		s.log.Warn("publish EVENT_JOB_DISCOVERED failed", "err", err)
	}
}

// Get returns one posting by id, or store.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*model.Job, error) {
	return s.store.FindByID(ctx, id)
}

// List returns one page of postings.
func (s *Service) List(ctx context.Context, page, size int, sortBy, sortOrder string) (*model.Page, error) {
	return s.store.List(ctx, page, size, sortBy, sortOrder)
}

// Search runs a criteria query.
func (s *Service) Search(ctx context.Context, req model.SearchRequest) (*model.Page, error) {
	return s.store.Search(ctx, req)
}

// Favorites returns one page of favorite postings.
func (s *Service) Favorites(ctx context.Context, page, size int) (*model.Page, error) {
	return s.store.Favorites(ctx, page, size)
}

// UpdateStatus sets a posting's lifecycle status, or store.ErrNotFound.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status model.Status) (*model.Job, error) {
	return s.store.UpdateStatus(ctx, id, status)
}

// ToggleFavorite flips a posting's favorite flag, or store.ErrNotFound.
func (s *Service) ToggleFavorite(ctx context.Context, id int64) (*model.Job, error) {
	return s.store.ToggleFavorite(ctx, id)
}

// Stats returns the overview numbers.
func (s *Service) Stats(ctx context.Context) (*model.Stats, error) {
	return s.store.Stats(ctx)
}
