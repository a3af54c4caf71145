package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coreybb/denima/models"
	"github.com/lib/pq"
)

const digitalProductColumns = `id, name, description, price, original_price, category, icon, features, rating, is_active, created_at, updated_at`

type DigitalProductRepository struct {
	db *sql.DB
}

func NewDigitalProductRepository(db *sql.DB) *DigitalProductRepository {
	return &DigitalProductRepository{db: db}
}

func scanDigitalProduct(row rowScanner) (*models.DigitalProduct, error) {
	var (
		p             models.DigitalProduct
		originalPrice sql.NullString
		features      pq.StringArray
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &originalPrice, &p.Category, &p.Icon,
		&features, &p.Rating, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.OriginalPrice = stringPtr(originalPrice)
	p.Features = []string(features)
	if p.Features == nil {
		p.Features = []string{}
	}
	return &p, nil
}

// ListDigitalProducts returns one page of products matching f, newest first, and the total match count.
func (r *DigitalProductRepository) ListDigitalProducts(ctx context.Context, f models.DigitalProductFilter, page models.PageRequest) ([]models.DigitalProduct, int, error) {
	var q filter
	if f.Category != "" {
		q.add(`category = $%d`, f.Category)
	}
	if f.Active != nil {
		q.add(`is_active = $%d`, *f.Active)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM digital_products`+q.where(), q.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count digital products: %w", err)
	}

	limit, args := q.limitOffset(page.PerPage, page.Offset())
	query := `SELECT ` + digitalProductColumns + ` FROM digital_products` + q.where() + ` ORDER BY created_at DESC, id ASC` + limit
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query digital products: %w", err)
	}
	defer rows.Close()

	products := []models.DigitalProduct{}
	for rows.Next() {
		p, err := scanDigitalProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan digital product row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating digital product rows: %w", err)
	}
	return products, total, nil
}

func (r *DigitalProductRepository) GetDigitalProduct(ctx context.Context, id string) (*models.DigitalProduct, error) {
	query := `SELECT ` + digitalProductColumns + ` FROM digital_products WHERE id = $1`
	p, err := scanDigitalProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("digital product not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get digital product %s: %w", id, err)
	}
	return p, nil
}

func (r *DigitalProductRepository) CreateDigitalProduct(ctx context.Context, p *models.DigitalProduct) error {
	p.Features = normalizeFeatures(p.Features)
	p.Rating = models.ClampRating(p.Rating)
	query := `
		INSERT INTO digital_products (id, name, description, price, original_price, category, icon, features, rating, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.Name, p.Description, p.Price, nullStringFromPtr(p.OriginalPrice),
		p.Category, p.Icon, pq.Array(p.Features), p.Rating, p.IsActive, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert digital product: %w", err)
	}
	return nil
}

func (r *DigitalProductRepository) UpdateDigitalProduct(ctx context.Context, p *models.DigitalProduct) error {
	p.Features = normalizeFeatures(p.Features)
	p.Rating = models.ClampRating(p.Rating)
	query := `
		UPDATE digital_products
		SET name = $1, description = $2, price = $3, original_price = $4, category = $5, icon = $6,
		    features = $7, rating = $8, is_active = $9, updated_at = NOW()
		WHERE id = $10
	`
	return execOne(ctx, r.db, "digital product", "update", query, p.Name, p.Description, p.Price,
		nullStringFromPtr(p.OriginalPrice), p.Category, p.Icon, pq.Array(p.Features), p.Rating, p.IsActive, p.ID)
}

// DeactivateDigitalProduct soft-deletes a product. Repeating it on an
// inactive product succeeds and leaves it inactive.
func (r *DigitalProductRepository) DeactivateDigitalProduct(ctx context.Context, id string) error {
	query := `UPDATE digital_products SET is_active = FALSE, updated_at = NOW() WHERE id = $1`
	return execOne(ctx, r.db, "digital product", "deactivate", query, id)
}
