package api_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/enkou97/ses-job-crawler/internal/api"
	"github.com/enkou97/ses-job-crawler/internal/job"
	"github.com/enkou97/ses-job-crawler/internal/model"
	"github.com/enkou97/ses-job-crawler/internal/store"
)

// memStore is a minimal in-memory job.Store for routing-level tests.
type memStore struct {
	byID  map[int64]*model.Job
	byKey map[string]*model.Job
	next  int64
}

func newMemStore() *memStore {
	return &memStore{byID: map[int64]*model.Job{}, byKey: map[string]*model.Job{}}
}

func storeKey(source, sourceURL string) string { return source + "\x00" + sourceURL }

func (m *memStore) FindByKey(_ context.Context, source, sourceURL string) (*model.Job, error) {
	if j, ok := m.byKey[storeKey(source, sourceURL)]; ok {
		cp := *j
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) FindByID(_ context.Context, id int64) (*model.Job, error) {
	j, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *j
	return &cp, nil
}

func (m *memStore) Insert(_ context.Context, j *model.Job) (*model.Job, error) {
	m.next++
	cp := *j
	cp.ID = m.next
	m.byID[cp.ID] = &cp
	m.byKey[storeKey(cp.Source, cp.SourceURL)] = &cp
	out := cp
	return &out, nil
}

func (m *memStore) Update(_ context.Context, j *model.Job) (*model.Job, error) {
	if _, ok := m.byID[j.ID]; !ok {
		return nil, store.ErrNotFound
	}
	cp := *j
	m.byID[cp.ID] = &cp
	m.byKey[storeKey(cp.Source, cp.SourceURL)] = &cp
	out := cp
	return &out, nil
}

func (m *memStore) UpdateStatus(_ context.Context, id int64, status model.Status) (*model.Job, error) {
	j, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	j.Status = status
	cp := *j
	return &cp, nil
}

func (m *memStore) ToggleFavorite(_ context.Context, id int64) (*model.Job, error) {
	j, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	j.IsFavorite = !j.IsFavorite
	cp := *j
	return &cp, nil
}

func (m *memStore) Search(context.Context, model.SearchRequest) (*model.Page, error) {
	return &model.Page{Content: []model.Summary{}}, nil
}

func (m *memStore) List(context.Context, int, int, string, string) (*model.Page, error) {
	return &model.Page{Content: []model.Summary{}}, nil
}

func (m *memStore) Favorites(context.Context, int, int) (*model.Page, error) {
	return &model.Page{Content: []model.Summary{}}, nil
}

func (m *memStore) FindSince(context.Context, time.Time) ([]model.Job, error) { return nil, nil }

func (m *memStore) Stats(context.Context) (*model.Stats, error) { return &model.Stats{}, nil }

func newTestServer(t *testing.T) (*httptest.Server, *memStore) {
	t.Helper()
	ms := newMemStore()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := job.NewService(ms, nil, log)

	mux := http.NewServeMux()
	api.NewJobHandler(svc, log).RegisterRoutes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, ms
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

const validPosting = `{
	"source": "example-agent",
	"sourceUrl": "https://agent.example.com/jobs/1001",
	"title": "Backend engineer",
	"minPrice": 60,
	"maxPrice": 80
}`

func TestIngest_CreateThenUpdate(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/jobs", validPosting)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first ingest status = %d, want 201", resp.StatusCode)
	}

	resp2 := postJSON(t, srv.URL+"/api/jobs", validPosting)
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Fatalf("re-ingest status = %d, want 200", resp2.StatusCode)
	}
}

func TestIngest_ValidationErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing title", `{"source":"a","sourceUrl":"https://a.example.com/1"}`},
		{"bad url", `{"source":"a","sourceUrl":"not a url","title":"x"}`},
		{"negative price", `{"source":"a","sourceUrl":"https://a.example.com/1","title":"x","minPrice":-5}`},
		{"malformed json", `{"source":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/jobs", tc.body)
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", resp.StatusCode)
			}
		})
	}
}

func TestIngestBatch_PerItemOutcome(t *testing.T) {
	srv, _ := newTestServer(t)

	batch := `[
		{"source":"a","sourceUrl":"https://a.example.com/1","title":"first"},
		{"source":"a","sourceUrl":"https://a.example.com/2"},
		{"source":"a","sourceUrl":"https://a.example.com/3","title":"third"}
	]`
	resp := postJSON(t, srv.URL+"/api/jobs/batch", batch)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("batch status = %d, want 200", resp.StatusCode)
	}

	var out struct {
		Created int                `json:"created"`
		Updated int                `json:"updated"`
		Failed  int                `json:"failed"`
		Results []job.UpsertResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode batch response: %v", err)
	}

	if out.Created != 2 || out.Failed != 1 || out.Updated != 0 {
		t.Errorf("created/updated/failed = %d/%d/%d, want 2/0/1", out.Created, out.Updated, out.Failed)
	}
	if len(out.Results) != 3 || out.Results[1].Error == "" {
		t.Errorf("results must keep batch order with the failure in position 2: %+v", out.Results)
	}
}

func TestGet_UnknownID(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/jobs/9999")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestUpdateStatus(t *testing.T) {
	srv, ms := newTestServer(t)
	ms.Insert(context.Background(), &model.Job{Source: "a", SourceURL: "u", Status: model.StatusNew})

	req, _ := http.NewRequest(http.MethodPatch, srv.URL+"/api/jobs/1/status", strings.NewReader(`{"status":"APPLIED"}`))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var j model.Job
	if err := json.NewDecoder(resp.Body).Decode(&j); err != nil {
		t.Fatal(err)
	}
	if j.Status != model.StatusApplied {
		t.Errorf("status = %s, want APPLIED", j.Status)
	}

	bad, _ := http.NewRequest(http.MethodPatch, srv.URL+"/api/jobs/1/status", strings.NewReader(`{"status":"WISHLIST"}`))
	resp2, err := http.DefaultClient.Do(bad)
	if err != nil {
		t.Fatal(err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown status value = %d, want 400", resp2.StatusCode)
	}
}

func TestToggleFavorite(t *testing.T) {
	srv, ms := newTestServer(t)
	ms.Insert(context.Background(), &model.Job{Source: "a", SourceURL: "u"})

	for i, want := range []bool{true, false} {
		resp := postJSON(t, srv.URL+"/api/jobs/1/favorite", "")
		var j model.Job
		if err := json.NewDecoder(resp.Body).Decode(&j); err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if j.IsFavorite != want {
			t.Errorf("toggle %d: isFavorite = %v, want %v", i+1, j.IsFavorite, want)
		}
	}
}

func TestPathID_Invalid(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/jobs/abc")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
