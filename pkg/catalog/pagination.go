package catalog

// Page size bounds shared by every list endpoint
const (
	DefaultPerPage = 50
	MaxPerPage     = 100
)

// PageMeta describes one page of a paginated listing
type PageMeta struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
}

// Page is a paginated listing
type Page[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

// ClampPerPage bounds a requested page size to [1, MaxPerPage]
func ClampPerPage(perPage int) int {
	if perPage < 1 {
		return 1
	}
	if perPage > MaxPerPage {
		return MaxPerPage
	}
	return perPage
}

// NewPageMeta builds page metadata. page is forced to at least 1, perPage is
// clamped and the last page is never below 1.
func NewPageMeta(page, perPage int, total int64) PageMeta {
	if page < 1 {
		page = 1
	}
	perPage = ClampPerPage(perPage)

	last := int((total + int64(perPage) - 1) / int64(perPage))
	if last < 1 {
		last = 1
	}
	return PageMeta{
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
		LastPage:    last,
	}
}

// Offset is the number of rows skipped before this page
func (m PageMeta) Offset() int {
	return (m.CurrentPage - 1) * m.PerPage
}

// NewPage wraps items with their metadata. A nil slice is returned as empty.
func NewPage[T any](items []T, meta PageMeta) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Data: items, Meta: meta}
}
