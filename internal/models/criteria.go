package models

import "fmt"

// Filter keys accepted by the collection store.
const (
	FilterSearch = "search"
	FilterStatus = "status"
)

// Filter holds the active search and status criteria.
// Search is matched case-insensitively against name and email.
type Filter struct {
	Search string `json:"search"`
	Status string `json:"status"`
}

// DefaultFilter returns the filter a new store starts with.
func DefaultFilter() Filter {
	return Filter{Search: "", Status: StatusAll}
}

// SortKey names a sortable user attribute. SortNone leaves the view unsorted.
type SortKey string

const (
	SortNone      SortKey = ""
	SortID        SortKey = "id"
	SortName      SortKey = "name"
	SortEmail     SortKey = "email"
	SortStatus    SortKey = "status"
	SortAvatar    SortKey = "avatar"
	SortCreatedAt SortKey = "createdAt"
)

// ParseSortKey maps a wire value to a SortKey. "none" and "" both mean unsorted.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case SortID, SortName, SortEmail, SortStatus, SortAvatar, SortCreatedAt:
		return SortKey(s), nil
	case SortNone, "none":
		return SortNone, nil
	}
	return SortNone, fmt.Errorf("%w: %q", ErrInvalidSortKey, s)
}

// Direction is the sort order.
type Direction string

const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// Sort holds the active sort criteria.
type Sort struct {
	Key       SortKey   `json:"key"`
	Direction Direction `json:"direction"`
}

// Pagination describes the current page of the derived view.
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"pageSize"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasPrev    bool `json:"hasPrev"`
	HasNext    bool `json:"hasNext"`
	Start      int  `json:"start"` // 1-based index of the first row shown, 0 when empty
	End        int  `json:"end"`   // 1-based index of the last row shown, 0 when empty
}

// NewPagination derives the full pagination state for page over total rows.
// page is clamped into [1, max(1, ceil(total/pageSize))].
func NewPagination(page, pageSize, total int) Pagination {
	if pageSize < 1 {
		pageSize = 1
	}
	totalPages := (total + pageSize - 1) / pageSize
	last := max(1, totalPages)
	page = min(max(page, 1), last)

	p := Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
	if total > 0 {
		p.Start = (page-1)*pageSize + 1
		p.End = min(page*pageSize, total)
	}
	return p
}

// Bounds returns the half-open slice range [lo, hi) of the current page.
func (p Pagination) Bounds() (lo, hi int) {
	lo = min((p.Page-1)*p.PageSize, p.Total)
	hi = min(p.Page*p.PageSize, p.Total)
	return lo, hi
}
