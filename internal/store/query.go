package store

import (
	"fmt"
	"strings"

	"github.com/enkou97/ses-job-crawler/internal/model"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// BuildJobSearch translates a SearchRequest into a SQL WHERE fragment and its
// positional arguments. Each clause is included only when its field is set;
// an empty request yields an empty fragment that matches every row.
//
// The price clauses are intentionally asymmetric: the request's floor is
// compared against the posting's ceiling and vice versa, so a posting matches
// when its price *range* overlaps the requested range.
func BuildJobSearch(req model.SearchRequest) (string, []any) {
	var clauses []string
	var args []any

	arg := func(v any) int {
		args = append(args, v)
		return len(args)
	}

	if strings.TrimSpace(req.Keyword) != "" {
		n := arg("%" + strings.ToLower(req.Keyword) + "%")
		clauses = append(clauses,
			fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(description) LIKE $%d)", n, n))
	}
	if req.MinPrice != nil {
		clauses = append(clauses, fmt.Sprintf("max_price >= $%d", arg(*req.MinPrice)))
	}
	if req.MaxPrice != nil {
		clauses = append(clauses, fmt.Sprintf("min_price <= $%d", arg(*req.MaxPrice)))
	}
	if strings.TrimSpace(req.Location) != "" {
		clauses = append(clauses, fmt.Sprintf("location LIKE $%d", arg("%"+req.Location+"%")))
	}
	if req.RemoteType != "" {
		clauses = append(clauses, fmt.Sprintf("remote_type = $%d", arg(string(req.RemoteType))))
	}
	if len(req.Sources) > 0 {
		clauses = append(clauses, fmt.Sprintf("source = ANY($%d)", arg(req.Sources)))
	}
	if len(req.Skills) > 0 {
		// Any requested skill appearing in required_skills qualifies.
		n := arg(req.Skills)
		clauses = append(clauses, fmt.Sprintf("required_skills ?| $%d", n))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// sortColumns whitelists the sortable fields; anything else falls back to
// crawled_at so request input can never reach the ORDER BY clause raw.
var sortColumns = map[string]string{
	"crawledAt": "crawled_at",
	"postedAt":  "posted_at",
	"createdAt": "created_at",
	"minPrice":  "min_price",
	"maxPrice":  "max_price",
	"title":     "title",
}

// SortClause returns a safe ORDER BY body for the requested field and
// direction. Defaults: crawled_at DESC.
func SortClause(sortBy, sortOrder string) string {
	col, ok := sortColumns[sortBy]
	if !ok {
		col = "crawled_at"
	}
	dir := "DESC"
	if strings.EqualFold(sortOrder, "asc") {
		dir = "ASC"
	}
	return col + " " + dir
}

func normalizePaging(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}
