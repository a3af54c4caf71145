package routehandlers

import (
	"net/http"
	"strings"

	"github.com/coreybb/denima/auth"
	"github.com/coreybb/denima/models"
	"github.com/coreybb/denima/webutil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const paramID = "id"

// pathUUID reads a UUID path parameter. label names the entity in the error message.
func pathUUID(r *http.Request, param, label string) (string, error) {
	id := chi.URLParam(r, param)
	if _, err := uuid.Parse(id); err != nil {
		return "", webutil.ErrBadRequest("Invalid " + label + " ID format")
	}
	return id, nil
}

// currentUser returns the user resolved by the access-control pipeline.
func currentUser(r *http.Request) (*models.User, error) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok {
		return nil, auth.ErrMissingToken
	}
	return u, nil
}

// trimPtr trims *s and maps an empty result to nil.
func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

// paged builds the list envelope {<key>: items, total, pages, current_page, per_page}.
func paged(key string, items any, p webutil.Pagination) map[string]any {
	return map[string]any{
		key:            items,
		"total":        p.Total,
		"pages":        p.Pages,
		"current_page": p.CurrentPage,
		"per_page":     p.PerPage,
	}
}
