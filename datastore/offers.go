package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coreybb/denima/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// defaultOfferID is the offer row seeded by the initial migration.
const defaultOfferID = "00000000-0000-4000-8000-000000000001"

type OfferRepository struct {
	db *sql.DB
}

func NewOfferRepository(db *sql.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

// GetCurrentOffer returns the oldest offer with its active services,
// recreating the default row if it has gone missing.
func (r *OfferRepository) GetCurrentOffer(ctx context.Context) (*models.Offer, error) {
	offer, err := r.loadCurrent(ctx)
	if err == sql.ErrNoRows {
		if err := r.createDefault(ctx); err != nil {
			return nil, err
		}
		offer, err = r.loadCurrent(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load current offer: %w", err)
	}

	services, err := r.offerServices(ctx, offer.ID)
	if err != nil {
		return nil, err
	}
	offer.Services = services
	return offer, nil
}

func (r *OfferRepository) loadCurrent(ctx context.Context) (*models.Offer, error) {
	query := `
		SELECT id, is_active, price, whatsapp_message, created_at, updated_at
		FROM offers
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`
	var o models.Offer
	err := r.db.QueryRowContext(ctx, query).Scan(&o.ID, &o.IsActive, &o.Price, &o.WhatsAppMessage, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OfferRepository) createDefault(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO offers (id, is_active, price, whatsapp_message)
		VALUES ($1, FALSE, '', $2)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, query, defaultOfferID, models.DefaultWhatsAppMessage); err != nil {
		return fmt.Errorf("failed to create default offer: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *OfferRepository) offerServices(ctx context.Context, offerID string) ([]models.Service, error) {
	query := `
		SELECT s.id, s.name, s.description, s.price, s.original_price, s.features, s.color, s.logo_url,
		       s.is_active, s.created_at, s.updated_at
		FROM offer_services os
		JOIN services s ON s.id = os.service_id
		WHERE os.offer_id = $1 AND s.is_active
		ORDER BY os.created_at ASC, s.name ASC
	`
	rows, err := r.db.QueryContext(ctx, query, offerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query offer services: %w", err)
	}
	defer rows.Close()
	return collectServices(rows)
}

// UpdateOffer applies upd to the offer in one transaction. When ServiceIDs is
// non-nil the selection is replaced; every id must name an active service.
func (r *OfferRepository) UpdateOffer(ctx context.Context, offerID string, upd models.OfferUpdate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback is safe even if Commit succeeds

	query := `
		UPDATE offers
		SET is_active = COALESCE($1, is_active),
		    price = COALESCE($2, price),
		    whatsapp_message = COALESCE($3, whatsapp_message),
		    updated_at = NOW()
		WHERE id = $4
	`
	var isActive sql.NullBool
	if upd.IsActive != nil {
		isActive = sql.NullBool{Bool: *upd.IsActive, Valid: true}
	}
	if err := execOne(ctx, tx, "offer", "update", query, isActive,
		optionalString(upd.Price), optionalString(upd.WhatsAppMessage), offerID); err != nil {
		return err
	}

	if upd.ServiceIDs != nil {
		ids, err := uniqueIDs(upd.ServiceIDs)
		if err != nil {
			return err
		}

		if len(ids) > 0 {
			var found int
			countQuery := `SELECT COUNT(*) FROM services WHERE id = ANY($1::uuid[]) AND is_active`
			if err := tx.QueryRowContext(ctx, countQuery, pq.Array(ids)).Scan(&found); err != nil {
				return fmt.Errorf("failed to validate offer services: %w", err)
			}
			if found != len(ids) {
				return ErrInvalidSelection
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM offer_services WHERE offer_id = $1`, offerID); err != nil {
			return fmt.Errorf("failed to clear offer services: %w", err)
		}
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, `INSERT INTO offer_services (offer_id, service_id) VALUES ($1, $2)`, offerID, id); err != nil {
				return fmt.Errorf("failed to attach service %s to offer: %w", id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// uniqueIDs validates and de-duplicates ids, preserving their order.
func uniqueIDs(ids []string) ([]string, error) {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		parsed, err := uuid.Parse(id)
		if err != nil {
			return nil, ErrInvalidSelection
		}
		key := parsed.String()
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	return out, nil
}
