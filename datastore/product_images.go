package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/coreybb/denima/models"
	"github.com/google/uuid"
)

type ProductImageRepository struct {
	db *sql.DB
}

func NewProductImageRepository(db *sql.DB) *ProductImageRepository {
	return &ProductImageRepository{db: db}
}

// AddImage records a stored image for a product. The product row is locked
// so that concurrent uploads agree on which image is the first, and primary, one.
func (r *ProductImageRepository) AddImage(ctx context.Context, productID, storageKey, url string) (*models.ProductImage, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var locked string
	if err := tx.QueryRowContext(ctx, `SELECT id FROM products WHERE id = $1 FOR UPDATE`, productID).Scan(&locked); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("product not found: %w", err)
		}
		return nil, fmt.Errorf("failed to lock product %s: %w", productID, err)
	}

	var existing int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM product_images WHERE product_id = $1`, productID).Scan(&existing); err != nil {
		return nil, fmt.Errorf("failed to count images for product %s: %w", productID, err)
	}

	img := &models.ProductImage{
		ID:         uuid.NewString(),
		ProductID:  productID,
		StorageKey: storageKey,
		URL:        url,
		IsPrimary:  existing == 0,
		CreatedAt:  time.Now().UTC(),
	}
	query := `
		INSERT INTO product_images (id, product_id, storage_key, url, is_primary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := tx.ExecContext(ctx, query, img.ID, img.ProductID, img.StorageKey, img.URL, img.IsPrimary, img.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert product image: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return img, nil
}

// DeleteImage removes an image record and returns it so the caller can
// remove the stored object. If the image was primary, the oldest remaining
// image is promoted.
func (r *ProductImageRepository) DeleteImage(ctx context.Context, productID, imageID string) (*models.ProductImage, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var img models.ProductImage
	query := `
		DELETE FROM product_images
		WHERE id = $1 AND product_id = $2
		RETURNING id, product_id, storage_key, url, is_primary, created_at
	`
	err = tx.QueryRowContext(ctx, query, imageID, productID).
		Scan(&img.ID, &img.ProductID, &img.StorageKey, &img.URL, &img.IsPrimary, &img.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("product image not found: %w", err)
		}
		return nil, fmt.Errorf("failed to delete product image %s: %w", imageID, err)
	}

	if img.IsPrimary {
		promote := `
			UPDATE product_images SET is_primary = TRUE
			WHERE id = (
				SELECT id FROM product_images
				WHERE product_id = $1
				ORDER BY created_at ASC, id ASC
				LIMIT 1
			)
		`
		if _, err := tx.ExecContext(ctx, promote, productID); err != nil {
			return nil, fmt.Errorf("failed to promote primary image for product %s: %w", productID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &img, nil
}
