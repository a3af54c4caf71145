package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coreybb/denima/models"
	"github.com/lib/pq"
)

const productSelect = `
	SELECT p.id, p.seller_id, u.username, p.name, p.description, p.price, p.category,
	       p.additional_details, p.seller_phone, p.is_active, p.created_at, p.updated_at
	FROM products p
	JOIN users u ON u.id = p.seller_id`

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var (
		p       models.Product
		details sql.NullString
	)
	if err := row.Scan(&p.ID, &p.SellerID, &p.SellerUsername, &p.Name, &p.Description, &p.Price, &p.Category,
		&details, &p.SellerPhone, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.AdditionalDetails = stringPtr(details)
	p.Images = []models.ProductImage{}
	return &p, nil
}

// ListProducts returns one page of products matching f, newest first, with
// their images attached, and the total match count.
func (r *ProductRepository) ListProducts(ctx context.Context, f models.ProductFilter, page models.PageRequest) ([]models.Product, int, error) {
	var q filter
	if f.Category != "" {
		q.add(`p.category = $%d`, f.Category)
	}
	if f.SellerID != "" {
		q.add(`p.seller_id = $%d`, f.SellerID)
	}
	if f.Active != nil {
		q.add(`p.is_active = $%d`, *f.Active)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products p`+q.where(), q.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	limit, args := q.limitOffset(page.PerPage, page.Offset())
	rows, err := r.db.QueryContext(ctx, productSelect+q.where()+` ORDER BY p.created_at DESC, p.id ASC`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating product rows: %w", err)
	}
	rows.Close()

	if err := r.attachImages(ctx, products); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListSellerProducts returns every product of a seller, inactive ones included.
func (r *ProductRepository) ListSellerProducts(ctx context.Context, sellerID string) ([]models.Product, error) {
	rows, err := r.db.QueryContext(ctx, productSelect+` WHERE p.seller_id = $1 ORDER BY p.created_at DESC`, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query products for seller %s: %w", sellerID, err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}
	rows.Close()

	if err := r.attachImages(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, productSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("product not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	one := []models.Product{*p}
	if err := r.attachImages(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (r *ProductRepository) attachImages(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	ids := make([]string, len(products))
	index := make(map[string]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		index[p.ID] = i
	}

	query := `
		SELECT id, product_id, storage_key, url, is_primary, created_at
		FROM product_images
		WHERE product_id = ANY($1::uuid[])
		ORDER BY is_primary DESC, created_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query product images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var img models.ProductImage
		if err := rows.Scan(&img.ID, &img.ProductID, &img.StorageKey, &img.URL, &img.IsPrimary, &img.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan product image row: %w", err)
		}
		if i, ok := index[img.ProductID]; ok {
			products[i].Images = append(products[i].Images, img)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating product image rows: %w", err)
	}
	return nil
}

func (r *ProductRepository) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (id, seller_id, name, description, price, category, additional_details, seller_phone, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query, p.ID, p.SellerID, p.Name, p.Description, p.Price, p.Category,
		nullStringFromPtr(p.AdditionalDetails), p.SellerPhone, p.IsActive, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// UpdateProduct overwrites every mutable column of p. The seller never changes.
func (r *ProductRepository) UpdateProduct(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, category = $4, additional_details = $5,
		    seller_phone = $6, is_active = $7, updated_at = NOW()
		WHERE id = $8
	`
	return execOne(ctx, r.db, "product", "update", query, p.Name, p.Description, p.Price, p.Category,
		nullStringFromPtr(p.AdditionalDetails), p.SellerPhone, p.IsActive, p.ID)
}

// SetProductActive is used by moderation and by soft delete.
func (r *ProductRepository) SetProductActive(ctx context.Context, id string, active bool) error {
	query := `UPDATE products SET is_active = $1, updated_at = NOW() WHERE id = $2`
	return execOne(ctx, r.db, "product", "set active", query, active, id)
}
