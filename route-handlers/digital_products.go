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

type DigitalProductStore interface {
	ListDigitalProducts(ctx context.Context, f models.DigitalProductFilter, page models.PageRequest) ([]models.DigitalProduct, int, error)
	GetDigitalProduct(ctx context.Context, id string) (*models.DigitalProduct, error)
	CreateDigitalProduct(ctx context.Context, p *models.DigitalProduct) error
	UpdateDigitalProduct(ctx context.Context, p *models.DigitalProduct) error
	DeactivateDigitalProduct(ctx context.Context, id string) error
}

type DigitalProductHandler struct {
	Repo      DigitalProductStore
	Sanitizer *sanitize.Sanitizer
}

func NewDigitalProductHandler(repo DigitalProductStore, s *sanitize.Sanitizer) *DigitalProductHandler {
	return &DigitalProductHandler{Repo: repo, Sanitizer: s}
}

type digitalProductInput struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	Price         *string  `json:"price"`
	OriginalPrice *string  `json:"original_price"`
	Category      *string  `json:"category"`
	Icon          *string  `json:"icon"`
	Features      []string `json:"features"`
	Rating        *float64 `json:"rating"`
	IsActive      *bool    `json:"is_active"`
}

func (in digitalProductInput) apply(p *models.DigitalProduct, clean *sanitize.Sanitizer) {
	if in.Name != nil {
		p.Name = clean.Text(*in.Name)
	}
	if in.Description != nil {
		p.Description = clean.Text(*in.Description)
	}
	if in.Price != nil {
		p.Price = strings.TrimSpace(*in.Price)
	}
	if in.OriginalPrice != nil {
		p.OriginalPrice = trimPtr(in.OriginalPrice)
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.Icon != nil {
		p.Icon = strings.TrimSpace(*in.Icon)
	}
	if in.Features != nil {
		p.Features = clean.Lines(in.Features)
	}
	if in.Rating != nil {
		p.Rating = models.ClampRating(*in.Rating)
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
}

func (h *DigitalProductHandler) list(w http.ResponseWriter, r *http.Request, f models.DigitalProductFilter) error {
	page, err := webutil.ParsePageRequest(r, webutil.DefaultPerPage)
	if err != nil {
		return err
	}
	f.Category = strings.TrimSpace(r.URL.Query().Get("category"))

	products, total, err := h.Repo.ListDigitalProducts(r.Context(), f, page)
	if err != nil {
		return fmt.Errorf("failed to retrieve digital products: %w", err)
	}
	if products == nil {
		products = []models.DigitalProduct{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, paged("digital_products", products, webutil.NewPagination(total, page)))
	return nil
}

// HandleGetDigitalProducts lists active products only.
func (h *DigitalProductHandler) HandleGetDigitalProducts(w http.ResponseWriter, r *http.Request) error {
	active := true
	return h.list(w, r, models.DigitalProductFilter{Active: &active})
}

// HandleAdminGetDigitalProducts lists every product, optionally filtered by ?active=.
func (h *DigitalProductHandler) HandleAdminGetDigitalProducts(w http.ResponseWriter, r *http.Request) error {
	active, err := webutil.ParseOptionalBool(r, "active")
	if err != nil {
		return err
	}
	return h.list(w, r, models.DigitalProductFilter{Active: active})
}

func (h *DigitalProductHandler) HandleGetDigitalProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, paramID, "digital product")
	if err != nil {
		return err
	}
	product, err := h.Repo.GetDigitalProduct(r.Context(), id)
	if err != nil {
		return err
	}
	if !product.IsActive {
		return webutil.ErrNotFound("Digital product not found")
	}
	webutil.RespondWithJSON(w, http.StatusOK, product)
	return nil
}

func (h *DigitalProductHandler) HandleCreateDigitalProduct(w http.ResponseWriter, r *http.Request) error {
	var req digitalProductInput
	if err := webutil.DecodeJSON(w, r, &req); err != nil {
		return err
	}

	now := time.Now().UTC()
	product := models.DigitalProduct{
		ID:        uuid.NewString(),
		Icon:      "package",
		Features:  []string{},
		Rating:    models.DefaultDigitalProductRating,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	req.apply(&product, h.Sanitizer)

	required := []struct{ field, value string }{
		{"name", product.Name},
		{"description", product.Description},
		{"price", product.Price},
		{"category", product.Category},
	}
	for _, f := range required {
		if f.value == "" {
			return webutil.ErrMissingField(f.field)
		}
	}

	if err := h.Repo.CreateDigitalProduct(r.Context(), &product); err != nil {
		return fmt.Errorf("failed to create digital product %s: %w", product.Name, err)
	}
	webutil.RespondWithJSON(w, http.StatusCreated, product)
	return nil
}

func (h *DigitalProductHandler) HandleUpdateDigitalProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, paramID, "digital product")
	if err != nil {
		return err
	}
	var req digitalProductInput
	if err := webutil.DecodeJSON(w, r, &req); err != nil {
		return err
	}

	product, err := h.Repo.GetDigitalProduct(r.Context(), id)
	if err != nil {
		return err
	}
	req.apply(product, h.Sanitizer)
	if product.Name == "" || product.Price == "" {
		return webutil.ErrValidation("name", "name and price must not be empty")
	}

	if err := h.Repo.UpdateDigitalProduct(r.Context(), product); err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, product)
	return nil
}

// HandleDeleteDigitalProduct soft-deletes. Deleting an inactive product again succeeds.
func (h *DigitalProductHandler) HandleDeleteDigitalProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, paramID, "digital product")
	if err != nil {
		return err
	}
	if err := h.Repo.DeactivateDigitalProduct(r.Context(), id); err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Digital product deleted"})
	return nil
}
