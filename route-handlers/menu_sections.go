package routehandlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreybb/denima/models"
	"github.com/coreybb/denima/webutil"
	"github.com/google/uuid"
)

type MenuSectionStore interface {
	ListMenuSections(ctx context.Context, activeOnly bool) ([]models.MenuSection, error)
	GetMenuSection(ctx context.Context, id string) (*models.MenuSection, error)
	CreateMenuSection(ctx context.Context, m *models.MenuSection) error
	UpdateMenuSection(ctx context.Context, m *models.MenuSection) error
	DeactivateMenuSection(ctx context.Context, id string) error
}

type MenuSectionHandler struct {
	Repo MenuSectionStore
}

func NewMenuSectionHandler(repo MenuSectionStore) *MenuSectionHandler {
	return &MenuSectionHandler{Repo: repo}
}

type menuSectionInput struct {
	Name       *string `json:"name"`
	LabelAR    *string `json:"label_ar"`
	LabelEN    *string `json:"label_en"`
	Icon       *string `json:"icon"`
	Path       *string `json:"path"`
	Action     *string `json:"action"`
	OrderIndex *int    `json:"order_index"`
	IsActive   *bool   `json:"is_active"`
}

func (in menuSectionInput) apply(m *models.MenuSection) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&m.Name, in.Name)
	set(&m.LabelAR, in.LabelAR)
	set(&m.LabelEN, in.LabelEN)
	set(&m.Icon, in.Icon)
	if in.Path != nil {
		m.Path = trimPtr(in.Path)
	}
	if in.Action != nil {
		m.Action = trimPtr(in.Action)
	}
	if in.OrderIndex != nil {
		m.OrderIndex = *in.OrderIndex
	}
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}
}

func (h *MenuSectionHandler) HandleGetMenuSections(w http.ResponseWriter, r *http.Request) error {
	sections, err := h.Repo.ListMenuSections(r.Context(), true)
	if err != nil {
		return fmt.Errorf("failed to retrieve menu sections: %w", err)
	}
	if sections == nil {
		sections = []models.MenuSection{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, sections)
	return nil
}

func (h *MenuSectionHandler) HandleCreateMenuSection(w http.ResponseWriter, r *http.Request) error {
	var req menuSectionInput
	if err := webutil.DecodeJSON(w, r, &req); err != nil {
		return err
	}

	now := time.Now().UTC()
	section := models.MenuSection{
		ID:        uuid.NewString(),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	req.apply(&section)

	for _, f := range []struct{ field, value string }{
		{"name", section.Name},
		{"label_ar", section.LabelAR},
		{"label_en", section.LabelEN},
		{"icon", section.Icon},
	} {
		if f.value == "" {
			return webutil.ErrMissingField(f.field)
		}
	}

	if err := h.Repo.CreateMenuSection(r.Context(), &section); err != nil {
		return fmt.Errorf("failed to create menu section %s: %w", section.Name, err)
	}
	webutil.RespondWithJSON(w, http.StatusCreated, section)
	return nil
}

func (h *MenuSectionHandler) HandleUpdateMenuSection(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, paramID, "menu section")
	if err != nil {
		return err
	}
	var req menuSectionInput
	if err := webutil.DecodeJSON(w, r, &req); err != nil {
		return err
	}

	section, err := h.Repo.GetMenuSection(r.Context(), id)
	if err != nil {
		return err
	}
	req.apply(section)
	if section.Name == "" {
		return webutil.ErrValidation("name", "name must not be empty")
	}

	if err := h.Repo.UpdateMenuSection(r.Context(), section); err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, section)
	return nil
}

func (h *MenuSectionHandler) HandleDeleteMenuSection(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, paramID, "menu section")
	if err != nil {
		return err
	}
	if err := h.Repo.DeactivateMenuSection(r.Context(), id); err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Menu section deleted"})
	return nil
}
