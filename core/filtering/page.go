package filtering

// PageMeta describes one page of a paginated result, in the shape list
// clients consume.
type PageMeta struct {
	TotalItems  int `json:"totalItems"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
}

func NewPageMeta(p Pagination, totalItems int) PageMeta {
	p.Clean()
	totalPages := (totalItems + p.Limit - 1) / p.Limit
	return PageMeta{
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		CurrentPage: p.Page,
		PageSize:    p.Limit,
	}
}

// Paginate slices one page out of an already filtered and sorted list.
func Paginate[T any](items []T, p Pagination) ([]T, PageMeta) {
	meta := NewPageMeta(p, len(items))
	p.Clean()

	start := p.Offset()
	if start >= len(items) {
		return []T{}, meta
	}
	end := start + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], meta
}
