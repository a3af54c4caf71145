package routehandlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreybb/denima/models"
	"github.com/coreybb/denima/sanitize"
	"github.com/coreybb/denima/webutil"
)

type AdminUserStore interface {
	ListUsersWithStats(ctx context.Context, search string, page models.PageRequest) ([]models.UserWithStats, int, error)
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	SetBanned(ctx context.Context, userID string, banned bool, reason *string) error
	SetAdmin(ctx context.Context, userID string, isAdmin bool) error
}

type StatsStore interface {
	GetAdminStats(ctx context.Context) (*models.AdminStats, error)
}

// Holds dependencies for the admin panel's user and statistics endpoints.
type AdminHandler struct {
	Users     AdminUserStore
	Stats     StatsStore
	Sanitizer *sanitize.Sanitizer
}

func NewAdminHandler(users AdminUserStore, stats StatsStore, s *sanitize.Sanitizer) *AdminHandler {
	return &AdminHandler{Users: users, Stats: stats, Sanitizer: s}
}

func (h *AdminHandler) HandleGetUsers(w http.ResponseWriter, r *http.Request) error {
	page, err := webutil.ParsePageRequest(r, webutil.DefaultPerPage)
	if err != nil {
		return err
	}
	users, total, err := h.Users.ListUsersWithStats(r.Context(), r.URL.Query().Get("q"), page)
	if err != nil {
		return fmt.Errorf("failed to retrieve users: %w", err)
	}
	if users == nil {
		users = []models.UserWithStats{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, paged("users", users, webutil.NewPagination(total, page)))
	return nil
}

// loadTarget resolves the user named in the path alongside the calling admin.
func (h *AdminHandler) loadTarget(r *http.Request) (caller, target *models.User, err error) {
	caller, err = currentUser(r)
	if err != nil {
		return nil, nil, err
	}
	id, err := pathUUID(r, paramID, "user")
	if err != nil {
		return nil, nil, err
	}
	target, err = h.Users.GetUserByID(r.Context(), id)
	if err != nil {
		return nil, nil, err
	}
	return caller, target, nil
}

// HandleBanUser refuses to ban admins and the caller.
func (h *AdminHandler) HandleBanUser(w http.ResponseWriter, r *http.Request) error {
	caller, target, err := h.loadTarget(r)
	if err != nil {
		return err
	}
	if target.ID == caller.ID {
		return webutil.ErrForbidden("You cannot ban yourself")
	}
	if target.IsAdmin {
		return webutil.ErrForbidden("Admins cannot be banned")
	}

	var req struct {
		Reason *string `json:"reason"`
	}
	if r.ContentLength != 0 {
		if err := webutil.DecodeJSON(w, r, &req); err != nil {
			return err
		}
	}

	if err := h.Users.SetBanned(r.Context(), target.ID, true, h.Sanitizer.TextPtr(req.Reason)); err != nil {
		return err
	}
	return h.respondWithUser(w, r, target.ID, "User banned")
}

func (h *AdminHandler) HandleUnbanUser(w http.ResponseWriter, r *http.Request) error {
	_, target, err := h.loadTarget(r)
	if err != nil {
		return err
	}
	if err := h.Users.SetBanned(r.Context(), target.ID, false, nil); err != nil {
		return err
	}
	return h.respondWithUser(w, r, target.ID, "User unbanned")
}

// HandleSetUserRole grants or revokes admin rights. Admins cannot demote themselves.
func (h *AdminHandler) HandleSetUserRole(w http.ResponseWriter, r *http.Request) error {
	caller, target, err := h.loadTarget(r)
	if err != nil {
		return err
	}
	var req struct {
		IsAdmin *bool `json:"is_admin"`
	}
	if err := webutil.DecodeJSON(w, r, &req); err != nil {
		return err
	}
	if req.IsAdmin == nil {
		return webutil.ErrValidation("is_admin", "is_admin is required")
	}
	if target.ID == caller.ID && !*req.IsAdmin {
		return webutil.ErrForbidden("You cannot remove your own admin rights")
	}

	if err := h.Users.SetAdmin(r.Context(), target.ID, *req.IsAdmin); err != nil {
		return err
	}
	return h.respondWithUser(w, r, target.ID, "User role updated")
}

func (h *AdminHandler) respondWithUser(w http.ResponseWriter, r *http.Request, userID, message string) error {
	user, err := h.Users.GetUserByID(r.Context(), userID)
	if err != nil {
		return fmt.Errorf("failed to reload user %s: %w", userID, err)
	}
	webutil.RespondWithJSON(w, http.StatusOK, map[string]any{"message": message, "user": user})
	return nil
}

func (h *AdminHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) error {
	stats, err := h.Stats.GetAdminStats(r.Context())
	if err != nil {
		return fmt.Errorf("failed to compute admin stats: %w", err)
	}
	webutil.RespondWithJSON(w, http.StatusOK, stats)
	return nil
}
