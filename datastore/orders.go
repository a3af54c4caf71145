package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/coreybb/denima/models"
)

const orderSelect = `
	SELECT o.id, o.product_id, p.name, o.customer_name, o.customer_email, o.customer_phone,
	       o.quantity, o.total_price, o.notes, o.status, o.created_at, o.updated_at
	FROM orders o
	JOIN products p ON p.id = o.product_id`

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var (
		o      models.Order
		phone  sql.NullString
		notes  sql.NullString
		status string
	)
	if err := row.Scan(&o.ID, &o.ProductID, &o.ProductName, &o.CustomerName, &o.CustomerEmail, &phone,
		&o.Quantity, &o.TotalPrice, &notes, &status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.CustomerPhone = stringPtr(phone)
	o.Notes = stringPtr(notes)
	o.Status = models.OrderStatus(status)
	return &o, nil
}

// CreateOrder prices and inserts an order in one transaction. The product
// must exist and be active; its current price times the quantity becomes
// the order total, rounded to cents. ProductName and TotalPrice are filled
// in on o.
func (r *OrderRepository) CreateOrder(ctx context.Context, o *models.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		price  float64
		name   string
		active bool
	)
	err = tx.QueryRowContext(ctx, `SELECT price, name, is_active FROM products WHERE id = $1 FOR SHARE`, o.ProductID).
		Scan(&price, &name, &active)
	if err == sql.ErrNoRows || (err == nil && !active) {
		return ErrProductUnavailable
	}
	if err != nil {
		return fmt.Errorf("failed to read product %s for order: %w", o.ProductID, err)
	}

	o.ProductName = name
	o.TotalPrice = math.Round(price*float64(o.Quantity)*100) / 100

	query := `
		INSERT INTO orders (id, product_id, customer_name, customer_email, customer_phone, quantity, total_price, notes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if _, err := tx.ExecContext(ctx, query, o.ID, o.ProductID, o.CustomerName, o.CustomerEmail,
		nullStringFromPtr(o.CustomerPhone), o.Quantity, o.TotalPrice, nullStringFromPtr(o.Notes),
		string(o.Status), o.CreatedAt, o.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListOrders pages through orders newest first. An empty status lists all.
func (r *OrderRepository) ListOrders(ctx context.Context, status models.OrderStatus, page models.PageRequest) ([]models.Order, int, error) {
	var q filter
	if status != "" {
		q.add(`o.status = $%d`, string(status))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders o`+q.where(), q.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	limit, args := q.limitOffset(page.PerPage, page.Offset())
	rows, err := r.db.QueryContext(ctx, orderSelect+q.where()+` ORDER BY o.created_at DESC, o.id ASC`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order row: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating order rows: %w", err)
	}
	return orders, total, nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, orderSelect+` WHERE o.id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("order not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	return o, nil
}

func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	query := `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`
	return execOne(ctx, r.db, "order", "update status", query, string(status), id)
}
