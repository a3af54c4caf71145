package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/coreybb/denima/models"
)

const userColumns = `id, username, email, password_hash, phone, is_admin, is_banned, ban_reason, banned_at, created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u         models.User
		phone     sql.NullString
		banReason sql.NullString
		bannedAt  sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &phone,
		&u.IsAdmin, &u.IsBanned, &banReason, &bannedAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Phone = stringPtr(phone)
	u.BanReason = stringPtr(banReason)
	u.BannedAt = timePtr(bannedAt)
	return &u, nil
}

// CreateUser inserts a new user. Unique violations come back as
// ErrDuplicateUsername or ErrDuplicateEmail.
func (r *UserRepository) CreateUser(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, phone, is_admin, is_banned, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query, u.ID, u.Username, strings.ToLower(u.Email), u.PasswordHash,
		nullStringFromPtr(u.Phone), u.IsAdmin, u.IsBanned, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if dup := duplicateUserError(err); dup != err {
			return dup
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetUserByID retrieves a user by their ID.
func (r *UserRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	return r.getOne(ctx, `id = $1`, userID)
}

func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `username = $1`, username)
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `email = $1`, strings.ToLower(email))
}

// GetUserByLogin matches identifier against the username or the email. A
// username match wins over an email match.
func (r *UserRepository) GetUserByLogin(ctx context.Context, identifier string) (*models.User, error) {
	return r.getOne(ctx, `(username = $1 OR email = lower($1)) ORDER BY (username = $1) DESC, created_at ASC LIMIT 1`, identifier)
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`
	return r.execOne(ctx, "update password", query, passwordHash, userID)
}

// UpdateProfile sets phone and email. A nil argument keeps the stored value.
func (r *UserRepository) UpdateProfile(ctx context.Context, userID string, phone, email *string) error {
	var lowered *string
	if email != nil {
		e := strings.ToLower(*email)
		lowered = &e
	}
	query := `
		UPDATE users
		SET phone = CASE WHEN $1 THEN $2 ELSE phone END,
		    email = COALESCE($3, email),
		    updated_at = NOW()
		WHERE id = $4
	`
	err := r.execOne(ctx, "update profile", query, phone != nil, nullStringFromPtr(phone), optionalString(lowered), userID)
	return duplicateUserError(err)
}

// SetBanned bans or unbans a user. The reason is cleared on unban.
func (r *UserRepository) SetBanned(ctx context.Context, userID string, banned bool, reason *string) error {
	var bannedAt sql.NullTime
	if banned {
		bannedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	} else {
		reason = nil
	}
	query := `UPDATE users SET is_banned = $1, ban_reason = $2, banned_at = $3, updated_at = NOW() WHERE id = $4`
	return r.execOne(ctx, "set banned", query, banned, nullStringFromPtr(reason), bannedAt, userID)
}

func (r *UserRepository) SetAdmin(ctx context.Context, userID string, isAdmin bool) error {
	query := `UPDATE users SET is_admin = $1, updated_at = NOW() WHERE id = $2`
	return r.execOne(ctx, "set admin", query, isAdmin, userID)
}

// EnsureAdmin creates the user as an admin, or promotes the existing user
// with the same username. It is a single statement so concurrent starts are safe.
func (r *UserRepository) EnsureAdmin(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, $5)
		ON CONFLICT (username) DO UPDATE SET is_admin = TRUE, updated_at = NOW()
	`
	if _, err := r.db.ExecContext(ctx, query, u.ID, u.Username, strings.ToLower(u.Email), u.PasswordHash, u.CreatedAt); err != nil {
		if dup := duplicateUserError(err); dup != err {
			return dup
		}
		return fmt.Errorf("failed to ensure admin user %s: %w", u.Username, err)
	}
	return nil
}

// ListUsersWithStats pages through users newest first. search, when set,
// matches a substring of the username or email.
func (r *UserRepository) ListUsersWithStats(ctx context.Context, search string, page models.PageRequest) ([]models.UserWithStats, int, error) {
	var f filter
	if s := strings.TrimSpace(search); s != "" {
		f.add(`(u.username ILIKE $%[1]d OR u.email ILIKE $%[1]d)`, "%"+s+"%")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users u`+f.where(), f.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	limit, args := f.limitOffset(page.PerPage, page.Offset())
	query := `
		SELECT u.id, u.username, u.email, u.password_hash, u.phone, u.is_admin, u.is_banned,
		       u.ban_reason, u.banned_at, u.created_at, u.updated_at,
		       (SELECT COUNT(*) FROM products p WHERE p.seller_id = u.id) AS products_count
		FROM users u` + f.where() + `
		ORDER BY u.created_at DESC` + limit

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []models.UserWithStats{}
	for rows.Next() {
		var (
			us        models.UserWithStats
			phone     sql.NullString
			banReason sql.NullString
			bannedAt  sql.NullTime
		)
		if err := rows.Scan(&us.ID, &us.Username, &us.Email, &us.PasswordHash, &phone, &us.IsAdmin, &us.IsBanned,
			&banReason, &bannedAt, &us.CreatedAt, &us.UpdatedAt, &us.ProductsCount); err != nil {
			return nil, 0, fmt.Errorf("failed to scan user row: %w", err)
		}
		us.Phone = stringPtr(phone)
		us.BanReason = stringPtr(banReason)
		us.BannedAt = timePtr(bannedAt)
		users = append(users, us)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, total, nil
}

// execOne runs a statement expected to touch exactly one row. Zero rows
// affected is reported as sql.ErrNoRows.
func (r *UserRepository) execOne(ctx context.Context, op, query string, args ...any) error {
	return execOne(ctx, r.db, "user", op, query, args...)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func execOne(ctx context.Context, db execer, entity, op, query string, args ...any) error {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s for %s: %w", op, entity, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for %s %s: %w", entity, op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s not found: %w", entity, sql.ErrNoRows)
	}
	return nil
}
