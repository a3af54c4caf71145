package models

// PageRequest is a 1-based page number and a page size.
type PageRequest struct {
	Page    int
	PerPage int
}

func (p PageRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// PageCount returns how many pages of size perPage are needed for total items.
func PageCount(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
