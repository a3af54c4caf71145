package routehandlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/coreybb/denima/datastore"
	"github.com/coreybb/denima/models"
	"github.com/coreybb/denima/sanitize"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memOrders struct {
	prices map[string]float64
	orders map[string]*models.Order
}

func newMemOrders() *memOrders {
	return &memOrders{prices: map[string]float64{}, orders: map[string]*models.Order{}}
}

func (m *memOrders) CreateOrder(_ context.Context, o *models.Order) error {
	price, ok := m.prices[o.ProductID]
	if !ok {
		return datastore.ErrProductUnavailable
	}
	o.ProductName = "product"
	o.TotalPrice = price * float64(o.Quantity)
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *memOrders) ListOrders(_ context.Context, status models.OrderStatus, _ models.PageRequest) ([]models.Order, int, error) {
	out := []models.Order{}
	for _, o := range m.orders {
		if status == "" || o.Status == status {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

func (m *memOrders) GetOrder(_ context.Context, id string) (*models.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order not found: %w", sql.ErrNoRows)
	}
	cp := *o
	return &cp, nil
}

func (m *memOrders) UpdateOrderStatus(_ context.Context, id string, status models.OrderStatus) error {
	o, ok := m.orders[id]
	if !ok {
		return fmt.Errorf("order not found: %w", sql.ErrNoRows)
	}
	o.Status = status
	return nil
}

type recordingNotifier struct {
	sent []string
	err  error
}

func (n *recordingNotifier) OrderPlaced(_ context.Context, o *models.Order) error {
	n.sent = append(n.sent, o.ID)
	return n.err
}

func TestCreateOrder(t *testing.T) {
	productID := uuid.NewString()
	repo := newMemOrders()
	repo.prices[productID] = 7.5
	notifier := &recordingNotifier{}
	h := NewOrderHandler(repo, notifier, sanitize.New())

	rec := serve(h.HandleCreateOrder, jsonRequest(t, http.MethodPost, "/", map[string]any{
		"customer_name": "<b>Sara</b>", "customer_email": " Sara@Example.com ", "product_id": productID, "quantity": 2,
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, "Sara", order.CustomerName)
	assert.Equal(t, "sara@example.com", order.CustomerEmail)
	assert.Equal(t, 15.0, order.TotalPrice)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, []string{order.ID}, notifier.sent)
}

func TestCreateOrderNotificationFailure(t *testing.T) {
	productID := uuid.NewString()
	repo := newMemOrders()
	repo.prices[productID] = 3
	h := NewOrderHandler(repo, &recordingNotifier{err: errors.New("smtp down")}, sanitize.New())

	rec := serve(h.HandleCreateOrder, jsonRequest(t, http.MethodPost, "/", map[string]any{
		"customer_name": "Sara", "customer_email": "sara@example.com", "product_id": productID,
	}))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, repo.orders, 1)
}

func TestCreateOrderValidation(t *testing.T) {
	productID := uuid.NewString()
	repo := newMemOrders()
	repo.prices[productID] = 1
	h := NewOrderHandler(repo, nil, sanitize.New())

	tests := []struct {
		name      string
		body      map[string]any
		wantField string
	}{
		{"missing name", map[string]any{"customer_email": "a@b.c", "product_id": productID}, "customer_name"},
		{"bad email", map[string]any{"customer_name": "A", "customer_email": "nope", "product_id": productID}, "customer_email"},
		{"zero quantity", map[string]any{"customer_name": "A", "customer_email": "a@b.c", "product_id": productID, "quantity": 0}, "quantity"},
		{"huge quantity", map[string]any{"customer_name": "A", "customer_email": "a@b.c", "product_id": productID, "quantity": 1001}, "quantity"},
		{"bad product id", map[string]any{"customer_name": "A", "customer_email": "a@b.c", "product_id": "x"}, "product_id"},
		{"unavailable product", map[string]any{"customer_name": "A", "customer_email": "a@b.c", "product_id": uuid.NewString()}, "product_id"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := serve(h.HandleCreateOrder, jsonRequest(t, http.MethodPost, "/", tc.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.wantField, decodeError(t, rec).Field)
		})
	}
	assert.Empty(t, repo.orders)
}

func TestUpdateOrderStatus(t *testing.T) {
	repo := newMemOrders()
	id := uuid.NewString()
	repo.orders[id] = &models.Order{ID: id, Status: models.OrderStatusPending}
	h := NewOrderHandler(repo, nil, sanitize.New())

	rec := serve(h.HandleUpdateOrderStatus, withParams(jsonRequest(t, http.MethodPut, "/", map[string]any{"status": "shipped"}), paramID, id))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "status", decodeError(t, rec).Field)

	rec = serve(h.HandleUpdateOrderStatus, withParams(jsonRequest(t, http.MethodPut, "/", map[string]any{"status": "Confirmed"}), paramID, id))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.OrderStatusConfirmed, repo.orders[id].Status)

	rec = serve(h.HandleGetOrders, jsonRequest(t, http.MethodGet, "/?status=confirmed", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Orders []models.Order `json:"orders"`
		Total  int            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Total)

	rec = serve(h.HandleGetOrders, jsonRequest(t, http.MethodGet, "/?status=bogus", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(h.HandleGetOrder, withParams(jsonRequest(t, http.MethodGet, "/", nil), paramID, uuid.NewString()))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
