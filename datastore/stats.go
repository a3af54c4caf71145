package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/coreybb/denima/models"
)

// RecentWindow is the look-back period for the "recent" dashboard counters.
const RecentWindow = 7 * 24 * time.Hour

type StatsRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db, now: time.Now}
}

// GetAdminStats aggregates user, product and order counters.
func (r *StatsRepository) GetAdminStats(ctx context.Context) (*models.AdminStats, error) {
	since := r.now().UTC().Add(-RecentWindow)
	stats := &models.AdminStats{
		Orders: models.OrderStats{ByStatus: map[models.OrderStatus]int{}},
	}

	userQuery := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_banned),
		       COUNT(*) FILTER (WHERE is_admin),
		       COUNT(*) FILTER (WHERE created_at >= $1)
		FROM users
	`
	if err := r.db.QueryRowContext(ctx, userQuery, since).
		Scan(&stats.Users.Total, &stats.Users.Banned, &stats.Users.Admins, &stats.Users.Recent); err != nil {
		return nil, fmt.Errorf("failed to aggregate user stats: %w", err)
	}

	productQuery := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE is_active),
		       COUNT(*) FILTER (WHERE created_at >= $1)
		FROM products
	`
	if err := r.db.QueryRowContext(ctx, productQuery, since).
		Scan(&stats.Products.Total, &stats.Products.Active, &stats.Products.Recent); err != nil {
		return nil, fmt.Errorf("failed to aggregate product stats: %w", err)
	}

	for _, s := range models.AllOrderStatuses {
		stats.Orders.ByStatus[s] = 0
	}
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate order stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan order stats row: %w", err)
		}
		stats.Orders.ByStatus[models.OrderStatus(status)] = count
		stats.Orders.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order stats rows: %w", err)
	}
	return stats, nil
}
