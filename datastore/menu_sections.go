package datastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coreybb/denima/models"
)

const menuSectionColumns = `id, name, label_ar, label_en, icon, path, action, order_index, is_active, created_at, updated_at`

type MenuSectionRepository struct {
	db *sql.DB
}

func NewMenuSectionRepository(db *sql.DB) *MenuSectionRepository {
	return &MenuSectionRepository{db: db}
}

func scanMenuSection(row rowScanner) (*models.MenuSection, error) {
	var (
		m      models.MenuSection
		path   sql.NullString
		action sql.NullString
	)
	if err := row.Scan(&m.ID, &m.Name, &m.LabelAR, &m.LabelEN, &m.Icon, &path, &action,
		&m.OrderIndex, &m.IsActive, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Path = stringPtr(path)
	m.Action = stringPtr(action)
	return &m, nil
}

func (r *MenuSectionRepository) ListMenuSections(ctx context.Context, activeOnly bool) ([]models.MenuSection, error) {
	query := `SELECT ` + menuSectionColumns + ` FROM menu_sections`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY order_index ASC, name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu sections: %w", err)
	}
	defer rows.Close()

	sections := []models.MenuSection{}
	for rows.Next() {
		m, err := scanMenuSection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan menu section row: %w", err)
		}
		sections = append(sections, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating menu section rows: %w", err)
	}
	return sections, nil
}

func (r *MenuSectionRepository) GetMenuSection(ctx context.Context, id string) (*models.MenuSection, error) {
	query := `SELECT ` + menuSectionColumns + ` FROM menu_sections WHERE id = $1`
	m, err := scanMenuSection(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("menu section not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get menu section %s: %w", id, err)
	}
	return m, nil
}

func (r *MenuSectionRepository) CreateMenuSection(ctx context.Context, m *models.MenuSection) error {
	query := `
		INSERT INTO menu_sections (id, name, label_ar, label_en, icon, path, action, order_index, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query, m.ID, m.Name, m.LabelAR, m.LabelEN, m.Icon,
		nullStringFromPtr(m.Path), nullStringFromPtr(m.Action), m.OrderIndex, m.IsActive, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert menu section: %w", err)
	}
	return nil
}

func (r *MenuSectionRepository) UpdateMenuSection(ctx context.Context, m *models.MenuSection) error {
	query := `
		UPDATE menu_sections
		SET name = $1, label_ar = $2, label_en = $3, icon = $4, path = $5, action = $6,
		    order_index = $7, is_active = $8, updated_at = NOW()
		WHERE id = $9
	`
	return execOne(ctx, r.db, "menu section", "update", query, m.Name, m.LabelAR, m.LabelEN, m.Icon,
		nullStringFromPtr(m.Path), nullStringFromPtr(m.Action), m.OrderIndex, m.IsActive, m.ID)
}

func (r *MenuSectionRepository) DeactivateMenuSection(ctx context.Context, id string) error {
	query := `UPDATE menu_sections SET is_active = FALSE, updated_at = NOW() WHERE id = $1`
	return execOne(ctx, r.db, "menu section", "deactivate", query, id)
}
