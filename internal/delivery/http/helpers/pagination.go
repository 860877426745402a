package helpers

import (
	"net/http"
	"strconv"

	"github.com/hardikSrivastav/imp-mail-sub002/internal/domain"
	"github.com/hardikSrivastav/imp-mail-sub002/pkg/pagination"
)

// DefaultPage applies when the page query parameter is missing or invalid.
const DefaultPage = 1

// ParsePagination reads page and page_size from the request query string.
// Page falls back to 1; page_size is kept only when it is one of the allowed
// sizes, otherwise it is left at 0 so the caller can apply the user's
// preference. sizeGiven reports whether a valid page_size was supplied.
func ParsePagination(r *http.Request) (p domain.PaginationParams, sizeGiven bool) {
	p.Page = DefaultPage
	if s := r.URL.Query().Get("page"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 1 {
			p.Page = v
		}
	}
	if s := r.URL.Query().Get("page_size"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && pagination.IsAllowedPageSize(v) {
			p.PageSize = v
			sizeGiven = true
		}
	}
	return p, sizeGiven
}

// PaginationMeta is the pagination metadata included in paginated list
// responses. Window carries the visible page numbers and item range for
// rendering pagination controls.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Total    int               `json:"total"`
	Window   pagination.Window `json:"window"`
}

// NewPaginationMeta builds PaginationMeta from the current page, page size,
// and total count.
func NewPaginationMeta(page, pageSize, total int) PaginationMeta {
	return PaginationMeta{
		Page:     page,
		PageSize: pageSize,
		Total:    total,
		Window:   pagination.Compute(total, pageSize, page),
	}
}
