// Package pagination computes windowed page navigation for listing views.
package pagination

// maxVisiblePages caps the number of page links shown regardless of total page count.
const maxVisiblePages = 5

// AllowedPageSizes is the enumerated set of page sizes a caller may select.
var AllowedPageSizes = []int{10, 25, 50, 100}

// IsAllowedPageSize reports whether size is one of AllowedPageSizes.
func IsAllowedPageSize(size int) bool {
	for _, s := range AllowedPageSizes {
		if s == size {
			return true
		}
	}
	return false
}

// Window is the navigation state derived from a listing's total item count,
// page size, and current page. It is a pure computation: the caller owns the
// three inputs and is responsible for clamping CurrentPage after mutating
// TotalItems or ItemsPerPage.
type Window struct {
	TotalPages    int   `json:"total_pages"`
	StartItem     int   `json:"start_item"`
	EndItem       int   `json:"end_item"`
	CanGoPrevious bool  `json:"can_go_previous"`
	CanGoNext     bool  `json:"can_go_next"`
	Pages         []int `json:"pages"`
}

// Compute derives the page window for the given state.
//
// totalItems must be >= 0 and itemsPerPage > 0; currentPage is 1-indexed.
// TotalPages is always >= 1. StartItem and EndItem are 1-indexed inclusive
// display bounds, both zero when totalItems is zero (callers suppress the
// control entirely in that case). Pages holds at most five page numbers:
// the full range when there are five or fewer pages, otherwise a window
// anchored to the head, tail, or centered on currentPage.
func Compute(totalItems, itemsPerPage, currentPage int) Window {
	totalPages := 1
	if itemsPerPage > 0 {
		totalPages = (totalItems + itemsPerPage - 1) / itemsPerPage
	}
	if totalPages < 1 {
		totalPages = 1
	}

	w := Window{
		TotalPages:    totalPages,
		CanGoPrevious: currentPage > 1,
		CanGoNext:     currentPage < totalPages && totalItems > 0,
	}

	if totalItems > 0 {
		w.StartItem = (currentPage-1)*itemsPerPage + 1
		w.EndItem = currentPage * itemsPerPage
		if w.EndItem > totalItems {
			w.EndItem = totalItems
		}
		w.Pages = visiblePages(totalPages, currentPage)
	}
	return w
}

// visiblePages returns the ordered page numbers to display, capped at
// maxVisiblePages.
func visiblePages(totalPages, currentPage int) []int {
	var first, last int
	switch {
	case totalPages <= maxVisiblePages:
		first, last = 1, totalPages
	case currentPage <= 3:
		first, last = 1, maxVisiblePages
	case currentPage >= totalPages-2:
		first, last = totalPages-maxVisiblePages+1, totalPages
	default:
		first, last = currentPage-2, currentPage+2
	}
	pages := make([]int, 0, last-first+1)
	for p := first; p <= last; p++ {
		pages = append(pages, p)
	}
	return pages
}
