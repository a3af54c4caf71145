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
	"go.uber.org/zap"
)

const maxOrderQuantity = 1000

type OrderStore interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	ListOrders(ctx context.Context, status models.OrderStatus, page models.PageRequest) ([]models.Order, int, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error
}

// OrderNotifier tells the customer their order was received.
type OrderNotifier interface {
	OrderPlaced(ctx context.Context, o *models.Order) error
}

type OrderHandler struct {
	Repo      OrderStore
	Notifier  OrderNotifier
	Sanitizer *sanitize.Sanitizer
}

func NewOrderHandler(repo OrderStore, notifier OrderNotifier, s *sanitize.Sanitizer) *OrderHandler {
	return &OrderHandler{Repo: repo, Notifier: notifier, Sanitizer: s}
}

// HandleCreateOrder is public. The total is computed from the stored product
// price; a failed notification mail does not fail the order.
func (h *OrderHandler) HandleCreateOrder(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		CustomerName  string  `json:"customer_name"`
		CustomerEmail string  `json:"customer_email"`
		CustomerPhone *string `json:"customer_phone"`
		ProductID     string  `json:"product_id"`
		Quantity      *int    `json:"quantity"`
		Notes         *string `json:"notes"`
	}
	if err := webutil.DecodeJSON(w, r, &req); err != nil {
		return err
	}

	now := time.Now().UTC()
	order := models.Order{
		ID:            uuid.NewString(),
		ProductID:     strings.TrimSpace(req.ProductID),
		CustomerName:  h.Sanitizer.Text(req.CustomerName),
		CustomerEmail: strings.ToLower(strings.TrimSpace(req.CustomerEmail)),
		CustomerPhone: trimPtr(req.CustomerPhone),
		Quantity:      1,
		Notes:         h.Sanitizer.TextPtr(req.Notes),
		Status:        models.OrderStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.Quantity != nil {
		order.Quantity = *req.Quantity
	}

	switch {
	case order.CustomerName == "":
		return webutil.ErrValidation("customer_name", "customer_name is required")
	case !strings.Contains(order.CustomerEmail, "@"):
		return webutil.ErrValidation("customer_email", "customer_email must be a valid email address")
	case order.Quantity < 1 || order.Quantity > maxOrderQuantity:
		return webutil.ErrValidation("quantity", fmt.Sprintf("quantity must be between 1 and %d", maxOrderQuantity))
	}
	if _, err := uuid.Parse(order.ProductID); err != nil {
		return webutil.ErrValidation("product_id", "Invalid product ID format")
	}

	if err := h.Repo.CreateOrder(r.Context(), &order); err != nil {
		return err
	}

	if h.Notifier != nil {
		if err := h.Notifier.OrderPlaced(r.Context(), &order); err != nil {
			zap.L().Warn("order notification failed", zap.String("order_id", order.ID), zap.Error(err))
		}
	}

	webutil.RespondWithJSON(w, http.StatusCreated, order)
	return nil
}

func (h *OrderHandler) HandleGetOrders(w http.ResponseWriter, r *http.Request) error {
	page, err := webutil.ParsePageRequest(r, webutil.DefaultPerPage)
	if err != nil {
		return err
	}

	var status models.OrderStatus
	if raw := r.URL.Query().Get("status"); strings.TrimSpace(raw) != "" {
		s, ok := models.IsValidOrderStatus(raw)
		if !ok {
			return webutil.ErrValidation("status", "Invalid order status")
		}
		status = s
	}

	orders, total, err := h.Repo.ListOrders(r.Context(), status, page)
	if err != nil {
		return fmt.Errorf("failed to retrieve orders: %w", err)
	}
	if orders == nil {
		orders = []models.Order{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, paged("orders", orders, webutil.NewPagination(total, page)))
	return nil
}

func (h *OrderHandler) HandleGetOrder(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, paramID, "order")
	if err != nil {
		return err
	}
	order, err := h.Repo.GetOrder(r.Context(), id)
	if err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, order)
	return nil
}

func (h *OrderHandler) HandleUpdateOrderStatus(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, paramID, "order")
	if err != nil {
		return err
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := webutil.DecodeJSON(w, r, &req); err != nil {
		return err
	}
	status, ok := models.IsValidOrderStatus(req.Status)
	if !ok {
		return webutil.ErrValidation("status", fmt.Sprintf("status must be one of %s, %s, %s, %s",
			models.OrderStatusPending, models.OrderStatusConfirmed, models.OrderStatusCompleted, models.OrderStatusCancelled))
	}

	if err := h.Repo.UpdateOrderStatus(r.Context(), id, status); err != nil {
		return err
	}
	order, err := h.Repo.GetOrder(r.Context(), id)
	if err != nil {
		return err
	}
	webutil.RespondWithJSON(w, http.StatusOK, order)
	return nil
}
