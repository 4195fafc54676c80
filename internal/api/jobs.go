// Package api implements the HTTP surface of the crawler service.
//
// Routes:
//
//	POST  /api/jobs                  → ingest one crawled posting (upsert)
//	POST  /api/jobs/batch            → ingest a crawl batch
//	GET   /api/jobs                  → paged listing
//	GET   /api/jobs/{id}             → single posting
//	POST  /api/jobs/search           → filtered search
//	PATCH /api/jobs/{id}/status      → update tracking status
//	POST  /api/jobs/{id}/favorite    → toggle favorite flag
//	GET   /api/jobs/favorites        → paged favorites
//	GET   /api/jobs/stats            → aggregate overview
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/enkou97/ses-job-crawler/internal/job"
	"github.com/enkou97/ses-job-crawler/internal/model"
	"github.com/enkou97/ses-job-crawler/internal/store"
)

// maxBatchSize caps a single crawl batch submission.
const maxBatchSize = 500

// JobHandler holds shared dependencies for the posting routes.
type JobHandler struct {
	svc      *job.Service
	validate *validator.Validate
	log      *slog.Logger
}

// NewJobHandler returns a configured JobHandler.
func NewJobHandler(svc *job.Service, log *slog.Logger) *JobHandler {
	return &JobHandler{
		svc:      svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// RegisterRoutes mounts all posting routes on mux.
func (h *JobHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/jobs", h.ingest)
	mux.HandleFunc("POST /api/jobs/batch", h.ingestBatch)
	mux.HandleFunc("GET /api/jobs", h.list)
	mux.HandleFunc("GET /api/jobs/{id}", h.get)
	mux.HandleFunc("POST /api/jobs/search", h.search)
	mux.HandleFunc("PATCH /api/jobs/{id}/status", h.updateStatus)
	mux.HandleFunc("POST /api/jobs/{id}/favorite", h.toggleFavorite)
	mux.HandleFunc("GET /api/jobs/favorites", h.favorites)
	mux.HandleFunc("GET /api/jobs/stats", h.stats)
}

// ─── Ingestion ───────────────────────────────────────────────────────────────

func (h *JobHandler) ingest(w http.ResponseWriter, r *http.Request) {
	var in model.JobInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(in); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	j, created, err := h.svc.Upsert(r.Context(), in)
	if err != nil {
		h.log.Error("upsert failed", "source", in.Source, "url", in.SourceURL, "err", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}

	if created {
		jsonCreated(w, j)
		return
	}
	jsonOK(w, j)
}

func (h *JobHandler) ingestBatch(w http.ResponseWriter, r *http.Request) {
	var inputs []model.JobInput
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if len(inputs) == 0 {
		jsonError(w, "batch must contain at least one posting", http.StatusBadRequest)
		return
	}
	if len(inputs) > maxBatchSize {
		jsonError(w, "batch exceeds maximum size", http.StatusBadRequest)
		return
	}

	// Validation errors are per item, like every other batch failure.
	results := make([]job.UpsertResult, 0, len(inputs))
	valid := make([]model.JobInput, 0, len(inputs))
	invalid := map[int]string{}
	for i, in := range inputs {
		if err := h.validate.Struct(in); err != nil {
			invalid[i] = err.Error()
			continue
		}
		valid = append(valid, in)
	}

	processed := h.svc.UpsertBatch(r.Context(), valid)

	var created, updated, failed int
	vi := 0
	for i := range inputs {
		if msg, bad := invalid[i]; bad {
			results = append(results, job.UpsertResult{Error: msg})
			failed++
			continue
		}
		res := processed[vi]
		vi++
		results = append(results, res)
		switch {
		case res.Error != "":
			failed++
		case res.Created:
			created++
		default:
			updated++
		}
	}

	jsonOK(w, map[string]any{
		"created": created,
		"updated": updated,
		"failed":  failed,
		"results": results,
	})
}

// ─── Queries ─────────────────────────────────────────────────────────────────

func (h *JobHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := intParam(q.Get("page"), 0)
	size := intParam(q.Get("size"), 20)

	p, err := h.svc.List(r.Context(), page, size, q.Get("sortBy"), q.Get("sortOrder"))
	if err != nil {
		h.log.Error("list query failed", "err", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, p)
}

func (h *JobHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	j, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "job not found", http.StatusNotFound)
			return
		}
		h.log.Error("get query failed", "id", id, "err", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, j)
}

func (h *JobHandler) search(w http.ResponseWriter, r *http.Request) {
	var req model.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.RemoteType != "" {
		if _, err := model.ParseRemoteType(string(req.RemoteType)); err != nil {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	p, err := h.svc.Search(r.Context(), req)
	if err != nil {
		h.log.Error("search query failed", "err", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, p)
}

func (h *JobHandler) favorites(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := h.svc.Favorites(r.Context(), intParam(q.Get("page"), 0), intParam(q.Get("size"), 20))
	if err != nil {
		h.log.Error("favorites query failed", "err", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, p)
}

func (h *JobHandler) stats(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Stats(r.Context())
	if err != nil {
		h.log.Error("stats query failed", "err", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, s)
}

// ─── Mutations ───────────────────────────────────────────────────────────────

func (h *JobHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		jsonError(w, "body must contain status", http.StatusBadRequest)
		return
	}

	status, err := model.ParseStatus(body.Status)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	j, err := h.svc.UpdateStatus(r.Context(), id, status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "job not found", http.StatusNotFound)
			return
		}
		h.log.Error("status update failed", "id", id, "err", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, j)
}

func (h *JobHandler) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	j, err := h.svc.ToggleFavorite(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			jsonError(w, "job not found", http.StatusNotFound)
			return
		}
		h.log.Error("favorite toggle failed", "id", id, "err", err)
		jsonError(w, "database error", http.StatusInternalServerError)
		return
	}
	jsonOK(w, j)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		jsonError(w, "invalid job id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func intParam(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
