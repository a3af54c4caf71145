package routehandlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coreybb/denima/auth"
	"github.com/coreybb/denima/models"
	"github.com/coreybb/denima/sanitize"
	"github.com/coreybb/denima/webutil"
	"github.com/google/uuid"
)

const defaultProductCategory = "general"

type ProductStore interface {
	ListProducts(ctx context.Context, f models.ProductFilter, page models.PageRequest) ([]models.Product, int, error)
	ListSellerProducts(ctx context.Context, sellerID string) ([]models.Product, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	SetProductActive(ctx context.Context, id string, active bool) error
}

// Holds dependencies for marketplace product route handlers.
type ProductHandler struct {
	Repo      ProductStore
	Sanitizer *sanitize.Sanitizer
}

func NewProductHandler(repo ProductStore, s *sanitize.Sanitizer) *ProductHandler {
	return &ProductHandler{Repo: repo, Sanitizer: s}
}

type productInput struct {
	Name              *string  `json:"name"`
	Description       *string  `json:"description"`
	Price             *float64 `json:"price"`
	Category          *string  `json:"category"`
	AdditionalDetails *string  `json:"additional_details"`
	SellerPhone       *string  `json:"seller_phone"`
	IsActive          *bool    `json:"is_active"`
}

func (in productInput) apply(p *models.Product, clean *sanitize.Sanitizer) {
	if in.Name != nil {
		p.Name = clean.Text(*in.Name)
	}
	if in.Description != nil {
		p.Description = clean.Text(*in.Description)
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Category != nil {
		p.Category = strings.TrimSpace(*in.Category)
	}
	if in.AdditionalDetails != nil {
		p.AdditionalDetails = clean.TextPtr(in.AdditionalDetails)
	}
	if in.SellerPhone != nil {
		p.SellerPhone = strings.TrimSpace(*in.SellerPhone)
	}
}

func validateProduct(p *models.Product) error {
	switch {
	case p.Name == "":
		return webutil.ErrValidation("name", "name is required")
	case p.Description == "":
		return webutil.ErrValidation("description", "description is required")
	case p.Price < 0:
		return webutil.ErrValidation("price", "price must not be negative")
	case p.SellerPhone == "":
		return webutil.ErrValidation("seller_phone", "seller_phone is required")
	}
	return nil
}

// loadModifiable fetches the product named in the path and checks that the
// caller owns it or is an admin.
func (h *ProductHandler) loadModifiable(r *http.Request) (*models.Product, *models.User, error) {
	user, err := currentUser(r)
	if err != nil {
		return nil, nil, err
	}
	id, err := pathUUID(r, paramID, "product")
	if err != nil {
		return nil, nil, err
	}
	product, err := h.Repo.GetProduct(r.Context(), id)
	if err != nil {
		return nil, nil, err
	}
	if !product.CanBeModifiedBy(user) {
		return nil, nil, webutil.ErrForbidden("You can only modify your own products")
	}
	return product, user, nil
}

func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request, active *bool) error {
	page, err := webutil.ParsePageRequest(r, webutil.DefaultPerPage)
	if err != nil {
		return err
	}
	q := r.URL.Query()
	f := models.ProductFilter{
		Category: strings.TrimSpace(q.Get("category")),
		SellerID: strings.TrimSpace(q.Get("seller_id")),
		Active:   active,
	}
	if f.SellerID != "" {
		if _, err := uuid.Parse(f.SellerID); err != nil {
			return webutil.ErrValidation("seller_id", "Invalid seller ID format")
		}
	}

	products, total, err := h.Repo.ListProducts(r.Context(), f, page)
	if err != nil {
		return fmt.Errorf("failed to retrieve products: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, paged("products", products, webutil.NewPagination(total, page)))
	return nil
}

// HandleGetProducts lists active products with pagination and optional filters.
func (h *ProductHandler) HandleGetProducts(w http.ResponseWriter, r *http.Request) error {
	active := true
	return h.list(w, r, &active)
}

// HandleAdminGetProducts lists every product; ?active= narrows it.
func (h *ProductHandler) HandleAdminGetProducts(w http.ResponseWriter, r *http.Request) error {
	active, err := webutil.ParseOptionalBool(r, "active")
	if err != nil {
		return err
	}
	return h.list(w, r, active)
}

func (h *ProductHandler) HandleGetMyProducts(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	products, err := h.Repo.ListSellerProducts(r.Context(), user.ID)
	if err != nil {
		return fmt.Errorf("failed to retrieve products for seller %s: %w", user.ID, err)
	}
	if products == nil {
		products = []models.Product{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, products)
	return nil
}

// HandleGetProduct hides inactive products from everyone but the owner and admins.
func (h *ProductHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, paramID, "product")
	if err != nil {
		return err
	}
	product, err := h.Repo.GetProduct(r.Context(), id)
	if err != nil {
		return err
	}
	if !product.IsActive {
		viewer, _ := auth.UserFromContext(r.Context())
		if !product.CanBeModifiedBy(viewer) {
			return webutil.ErrNotFound("Product not found")
		}
	}
	webutil.RespondWithJSON(w, http.StatusOK, product)
	return nil
}

func (h *ProductHandler) HandleCreateProduct(w http.ResponseWriter, r *http.Request) error {
	user, err := currentUser(r)
	if err != nil {
		return err
	}
	var req productInput
	if err := webutil.DecodeJSON(w, r, &req); err != nil {
		return err
	}
	if req.Price == nil {
		return webutil.ErrValidation("price", "price is required")
	}

	now := time.Now().UTC()
	product := models.Product{
		ID:             uuid.NewString(),
		SellerID:       user.ID,
		SellerUsername: user.Username,
		Category:       defaultProductCategory,
		IsActive:       true,
		Images:         []models.ProductImage{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	req.apply(&product, h.Sanitizer)
	if product.Category == "" {
		product.Category = defaultProductCategory
	}
	if err := validateProduct(&product); err != nil {
		return err
	}

	if err := h.Repo.CreateProduct(r.Context(), &product); err != nil {
		return fmt.Errorf("failed to create product %s: %w", product.Name, err)
	}
	webutil.RespondWithJSON(w, http.StatusCreated, product)
	return nil
}

// HandleUpdateProduct lets the owner edit a listing. Only admins may change is_active.
func (h *ProductHandler) HandleUpdateProduct(w http.ResponseWriter, r *http.Request) error {
	product, user, err := h.loadModifiable(r)
	if err != nil {
		return err
	}
	var req productInput
	if err := webutil.DecodeJSON(w, r, &req); err != nil {
		return err
	}

	if req.IsActive != nil && *req.IsActive != product.IsActive {
		if !user.IsAdmin {
			return webutil.ErrForbidden("Only admins can change product status")
		}
		product.IsActive = *req.IsActive
	}
	req.apply(product, h.Sanitizer)
	if product.Category == "" {
		product.Category = defaultProductCategory
	}
	if err := validateProduct(product); err != nil {
		return err
	}

	if err := h.Repo.UpdateProduct(r.Context(), product); err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, product)
	return nil
}

// HandleDeleteProduct soft-deletes for the owner or an admin.
func (h *ProductHandler) HandleDeleteProduct(w http.ResponseWriter, r *http.Request) error {
	product, _, err := h.loadModifiable(r)
	if err != nil {
		return err
	}
	if err := h.Repo.SetProductActive(r.Context(), product.ID, false); err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
	return nil
}

// HandleSetProductStatus is the admin moderation switch.
func (h *ProductHandler) HandleSetProductStatus(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, paramID, "product")
	if err != nil {
		return err
	}
	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if err := webutil.DecodeJSON(w, r, &req); err != nil {
		return err
	}
	if req.IsActive == nil {
		return webutil.ErrValidation("is_active", "is_active is required")
	}

	if err := h.Repo.SetProductActive(r.Context(), id, *req.IsActive); err != nil {
		return err
	}
	product, err := h.Repo.GetProduct(r.Context(), id)
	if err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, product)
	return nil
}
