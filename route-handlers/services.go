package routehandlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreybb/denima/models"
	"github.com/coreybb/denima/sanitize"
	"github.com/coreybb/denima/webutil"
	"github.com/google/uuid"
)

type ServiceStore interface {
	ListServices(ctx context.Context, activeOnly bool) ([]models.Service, error)
	GetService(ctx context.Context, id string) (*models.Service, error)
	CreateService(ctx context.Context, s *models.Service) error
	UpdateService(ctx context.Context, s *models.Service) error
	DeactivateService(ctx context.Context, id string) error
}

// Holds dependencies for subscription service route handlers.
type ServiceHandler struct {
	Repo      ServiceStore
	Sanitizer *sanitize.Sanitizer
}

func NewServiceHandler(repo ServiceStore, s *sanitize.Sanitizer) *ServiceHandler {
	return &ServiceHandler{Repo: repo, Sanitizer: s}
}

// serviceInput is shared by create and update. Absent fields stay nil.
type serviceInput struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	Price         *string  `json:"price"`
	OriginalPrice *string  `json:"original_price"`
	Features      []string `json:"features"`
	Color         *string  `json:"color"`
	LogoURL       *string  `json:"logo_url"`
	IsActive      *bool    `json:"is_active"`
}

func (in serviceInput) apply(s *models.Service, clean *sanitize.Sanitizer) {
	if in.Name != nil {
		s.Name = clean.Text(*in.Name)
	}
	if in.Description != nil {
		s.Description = clean.Text(*in.Description)
	}
	if in.Price != nil {
		s.Price = strings.TrimSpace(*in.Price)
	}
	if in.OriginalPrice != nil {
		s.OriginalPrice = trimPtr(in.OriginalPrice)
	}
	if in.Features != nil {
		s.Features = clean.Lines(in.Features)
	}
	if in.Color != nil {
		s.Color = strings.TrimSpace(*in.Color)
	}
	if in.LogoURL != nil {
		s.LogoURL = trimPtr(in.LogoURL)
	}
	if in.IsActive != nil {
		s.IsActive = *in.IsActive
	}
}

func (h *ServiceHandler) HandleGetServices(w http.ResponseWriter, r *http.Request) error {
	services, err := h.Repo.ListServices(r.Context(), true)
	if err != nil {
		return fmt.Errorf("failed to retrieve services: %w", err)
	}
	if services == nil {
		services = []models.Service{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, services)
	return nil
}

func (h *ServiceHandler) HandleGetService(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, paramID, "service")
	if err != nil {
		return err
	}
	service, err := h.Repo.GetService(r.Context(), id)
	if err != nil {
		return err
	}
	if !service.IsActive {
		return webutil.ErrNotFound("Service not found")
	}
	webutil.RespondWithJSON(w, http.StatusOK, service)
	return nil
}

func (h *ServiceHandler) HandleCreateService(w http.ResponseWriter, r *http.Request) error {
	var req serviceInput
	if err := webutil.DecodeJSON(w, r, &req); err != nil {
		return err
	}

	now := time.Now().UTC()
	service := models.Service{
		ID:        uuid.NewString(),
		Features:  []string{},
		Color:     "#3B82F6",
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	req.apply(&service, h.Sanitizer)
	if service.Name == "" {
		return webutil.ErrMissingField("name")
	}
	if service.Price == "" {
		return webutil.ErrMissingField("price")
	}

	if err := h.Repo.CreateService(r.Context(), &service); err != nil {
		return fmt.Errorf("failed to create service %s: %w", service.Name, err)
	}
	webutil.RespondWithJSON(w, http.StatusCreated, service)
	return nil
}

func (h *ServiceHandler) HandleUpdateService(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, paramID, "service")
	if err != nil {
		return err
	}
	var req serviceInput
	if err := webutil.DecodeJSON(w, r, &req); err != nil {
		return err
	}

	service, err := h.Repo.GetService(r.Context(), id)
	if err != nil {
		return err
	}
	req.apply(service, h.Sanitizer)
	if service.Name == "" {
		return webutil.ErrValidation("name", "name must not be empty")
	}
	if service.Price == "" {
		return webutil.ErrValidation("price", "price must not be empty")
	}

	if err := h.Repo.UpdateService(r.Context(), service); err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, service)
	return nil
}

func (h *ServiceHandler) HandleDeleteService(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, paramID, "service")
	if err != nil {
		return err
	}
	if err := h.Repo.DeactivateService(r.Context(), id); err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Service deleted"})
	return nil
}
