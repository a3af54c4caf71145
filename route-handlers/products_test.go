package routehandlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/coreybb/denima/models"
	"github.com/coreybb/denima/sanitize"
	"github.com/coreybb/denima/webutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProducts(seller *models.User, n int) *memProducts {
	repo := &memProducts{}
	for i := 0; i < n; i++ {
		repo.products = append(repo.products, &models.Product{
			ID:          uuid.NewString(),
			SellerID:    seller.ID,
			Name:        fmt.Sprintf("Product %d", i),
			Description: "desc",
			Price:       10,
			Category:    "general",
			SellerPhone: "0555",
			IsActive:    true,
			CreatedAt:   time.Now(),
		})
	}
	return repo
}

func TestGetProductsPaginates(t *testing.T) {
	seller := newUser("seller", false)
	repo := seedProducts(seller, 5)
	h := NewProductHandler(repo, sanitize.New())

	rec := serve(h.HandleGetProducts, jsonRequest(t, http.MethodGet, "/api/v1/products?page=1&per_page=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Products    []models.Product `json:"products"`
		Total       int              `json:"total"`
		Pages       int              `json:"pages"`
		CurrentPage int              `json:"current_page"`
		PerPage     int              `json:"per_page"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Products, 2)
	assert.Equal(t, 5, body.Total)
	assert.Equal(t, 3, body.Pages)
	assert.Equal(t, 1, body.CurrentPage)
	assert.Equal(t, 2, body.PerPage)
}

func TestGetProductsRejectsBadPage(t *testing.T) {
	h := NewProductHandler(&memProducts{}, sanitize.New())
	rec := serve(h.HandleGetProducts, jsonRequest(t, http.MethodGet, "/api/v1/products?page=0", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "page", decodeError(t, rec).Field)
}

func TestDeleteProductOwnership(t *testing.T) {
	seller := newUser("seller", false)
	admin := newUser("admin", true)
	stranger := newUser("stranger", false)

	cases := []struct {
		name   string
		caller *models.User
		want   int
	}{
		{"owner", seller, http.StatusOK},
		{"admin", admin, http.StatusOK},
		{"other user", stranger, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := seedProducts(seller, 1)
			id := repo.products[0].ID
			h := NewProductHandler(repo, sanitize.New())

			req := withParams(asUser(jsonRequest(t, http.MethodDelete, "/api/v1/products/"+id, nil), tc.caller), paramID, id)
			rec := serve(h.HandleDeleteProduct, req)
			assert.Equal(t, tc.want, rec.Code)
			assert.Equal(t, tc.want != http.StatusOK, repo.products[0].IsActive)
		})
	}
}

func TestCreateProduct(t *testing.T) {
	seller := newUser("seller", false)
	repo := &memProducts{}
	h := NewProductHandler(repo, sanitize.New())

	rec := serve(h.HandleCreateProduct, asUser(jsonRequest(t, http.MethodPost, "/", map[string]any{
		"name": "<b>Lamp</b>", "description": "Desk lamp", "price": 25.5, "seller_phone": "0555",
	}), seller))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Lamp", created.Name)
	assert.Equal(t, seller.ID, created.SellerID)
	assert.Equal(t, defaultProductCategory, created.Category)
	assert.True(t, created.IsActive)
	require.Len(t, repo.products, 1)

	rec = serve(h.HandleCreateProduct, asUser(jsonRequest(t, http.MethodPost, "/", map[string]any{
		"name": "Lamp", "description": "Desk lamp", "price": -1, "seller_phone": "0555",
	}), seller))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "price", decodeError(t, rec).Field)
}

func TestUpdateProductStatusIsAdminOnly(t *testing.T) {
	seller := newUser("seller", false)
	admin := newUser("admin", true)
	repo := seedProducts(seller, 1)
	id := repo.products[0].ID
	h := NewProductHandler(repo, sanitize.New())

	req := withParams(asUser(jsonRequest(t, http.MethodPut, "/", map[string]any{"is_active": false}), seller), paramID, id)
	rec := serve(h.HandleUpdateProduct, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.True(t, repo.products[0].IsActive)

	req = withParams(asUser(jsonRequest(t, http.MethodPut, "/", map[string]any{"name": "Renamed", "is_active": true}), seller), paramID, id)
	rec = serve(h.HandleUpdateProduct, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Renamed", repo.products[0].Name)

	req = withParams(asUser(jsonRequest(t, http.MethodPut, "/", map[string]any{"is_active": false}), admin), paramID, id)
	rec = serve(h.HandleUpdateProduct, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, repo.products[0].IsActive)
}

func TestGetInactiveProductVisibility(t *testing.T) {
	seller := newUser("seller", false)
	repo := seedProducts(seller, 1)
	repo.products[0].IsActive = false
	id := repo.products[0].ID
	h := NewProductHandler(repo, sanitize.New())

	rec := serve(h.HandleGetProduct, withParams(jsonRequest(t, http.MethodGet, "/", nil), paramID, id))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, webutil.KindNotFound, decodeError(t, rec).Error)

	rec = serve(h.HandleGetProduct, withParams(asUser(jsonRequest(t, http.MethodGet, "/", nil), seller), paramID, id))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetProductBadID(t *testing.T) {
	h := NewProductHandler(&memProducts{}, sanitize.New())
	rec := serve(h.HandleGetProduct, withParams(jsonRequest(t, http.MethodGet, "/", nil), paramID, "not-a-uuid"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h.HandleGetProduct, withParams(jsonRequest(t, http.MethodGet, "/", nil), paramID, uuid.NewString()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
