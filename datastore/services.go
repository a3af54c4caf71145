package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coreybb/denima/models"
	"github.com/lib/pq"
)

const serviceColumns = `id, name, description, price, original_price, features, color, logo_url, is_active, created_at, updated_at`

type ServiceRepository struct {
	db *sql.DB
}

func NewServiceRepository(db *sql.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

func scanService(row rowScanner) (*models.Service, error) {
	var (
		s             models.Service
		originalPrice sql.NullString
		logoURL       sql.NullString
		features      pq.StringArray
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &s.Price, &originalPrice, &features,
		&s.Color, &logoURL, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.OriginalPrice = stringPtr(originalPrice)
	s.LogoURL = stringPtr(logoURL)
	s.Features = []string(features)
	if s.Features == nil {
		s.Features = []string{}
	}
	return &s, nil
}

func (r *ServiceRepository) ListServices(ctx context.Context, activeOnly bool) ([]models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query services: %w", err)
	}
	defer rows.Close()
	return collectServices(rows)
}

func collectServices(rows *sql.Rows) ([]models.Service, error) {
	services := []models.Service{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service row: %w", err)
		}
		services = append(services, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating service rows: %w", err)
	}
	return services, nil
}

func (r *ServiceRepository) GetService(ctx context.Context, id string) (*models.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id = $1`
	s, err := scanService(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("service not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get service %s: %w", id, err)
	}
	return s, nil
}

func (r *ServiceRepository) CreateService(ctx context.Context, s *models.Service) error {
	s.Features = normalizeFeatures(s.Features)
	query := `
		INSERT INTO services (id, name, description, price, original_price, features, color, logo_url, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query, s.ID, s.Name, s.Description, s.Price, nullStringFromPtr(s.OriginalPrice),
		pq.Array(s.Features), s.Color, nullStringFromPtr(s.LogoURL), s.IsActive, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert service: %w", err)
	}
	return nil
}

// UpdateService overwrites every mutable column of s.
func (r *ServiceRepository) UpdateService(ctx context.Context, s *models.Service) error {
	s.Features = normalizeFeatures(s.Features)
	query := `
		UPDATE services
		SET name = $1, description = $2, price = $3, original_price = $4, features = $5,
		    color = $6, logo_url = $7, is_active = $8, updated_at = NOW()
		WHERE id = $9
	`
	return execOne(ctx, r.db, "service", "update", query, s.Name, s.Description, s.Price,
		nullStringFromPtr(s.OriginalPrice), pq.Array(s.Features), s.Color, nullStringFromPtr(s.LogoURL), s.IsActive, s.ID)
}

// DeactivateService soft-deletes a service. Deactivating an inactive service succeeds.
func (r *ServiceRepository) DeactivateService(ctx context.Context, id string) error {
	query := `UPDATE services SET is_active = FALSE, updated_at = NOW() WHERE id = $1`
	return execOne(ctx, r.db, "service", "deactivate", query, id)
}
