package shared

import (
	"net/http"
	"strconv"
)

type Pagination struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit plus either offset or a 1-based page parameter.
// An explicit offset wins over page. Malformed values fall back to defaults.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) Pagination {
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			limit = v
		}
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}

	offset := 0
	switch {
	case r.URL.Query().Get("offset") != "":
		if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
			offset = v
		}
	case r.URL.Query().Get("page") != "":
		if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 1 {
			offset = (v - 1) * limit
		}
	}
	return Pagination{Limit: limit, Offset: offset}
}
