package webutil

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/coreybb/denima/models"
)

const (
	DefaultPerPage = 12
	MaxPerPage     = 100
)

// Pagination is embedded in list responses.
type Pagination struct {
	Total       int `json:"total"`
	Pages       int `json:"pages"`
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
}

func NewPagination(total int, page models.PageRequest) Pagination {
	return Pagination{
		Total:       total,
		Pages:       models.PageCount(total, page.PerPage),
		CurrentPage: page.Page,
		PerPage:     page.PerPage,
	}
}

// ParsePageRequest reads page and per_page from the query string. Missing
// values take defaults; per_page is capped at MaxPerPage.
func ParsePageRequest(r *http.Request, defaultPerPage int) (models.PageRequest, error) {
	page := models.PageRequest{Page: 1, PerPage: defaultPerPage}

	if v := strings.TrimSpace(r.URL.Query().Get("page")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return page, ErrValidation("page", "page must be a positive integer")
		}
		page.Page = n
	}
	if v := strings.TrimSpace(r.URL.Query().Get("per_page")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return page, ErrValidation("per_page", "per_page must be a positive integer")
		}
		page.PerPage = min(n, MaxPerPage)
	}
	return page, nil
}

// ParseOptionalBool reads a boolean query parameter. An absent parameter yields nil.
func ParseOptionalBool(r *http.Request, name string) (*bool, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, ErrValidation(name, name+" must be true or false")
	}
	return &b, nil
}
