package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/domain"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/database"
	apperrors "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/errors"
)

const adminColumns = `id, email, name, password_hash, role, created_at, updated_at`

// AdminRepository implements repository.AdminRepository using PostgreSQL.
type AdminRepository struct {
	pool database.DBTX
}

// NewAdminRepository creates a new PostgreSQL-backed admin repository.
func NewAdminRepository(pool database.DBTX) *AdminRepository {
	return &AdminRepository{pool: pool}
}

// GetByEmail looks up an admin by email, case-insensitively.
func (r *AdminRepository) GetByEmail(ctx context.Context, email string) (*domain.AdminUser, error) {
	return r.getOne(ctx, `SELECT `+adminColumns+` FROM admin_users WHERE lower(email) = lower($1)`, email)
}

// GetByID looks up an admin by ID.
func (r *AdminRepository) GetByID(ctx context.Context, id string) (*domain.AdminUser, error) {
	return r.getOne(ctx, `SELECT `+adminColumns+` FROM admin_users WHERE id = $1`, id)
}

// Upsert inserts the admin or updates name, password hash and role of the
// account with the same email. u.ID is set to the stored ID.
func (r *AdminRepository) Upsert(ctx context.Context, u *domain.AdminUser) error {
	query := `
		INSERT INTO admin_users (` + adminColumns + `)
		VALUES ($1, lower($2), $3, $4, $5, $6, $7)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name, password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role, updated_at = EXCLUDED.updated_at
		RETURNING id`

	err := r.pool.QueryRow(ctx, query, u.ID, u.Email, u.Name, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("upsert admin user: %w", err)
	}
	return nil
}

func (r *AdminRepository) getOne(ctx context.Context, query, key string) (*domain.AdminUser, error) {
	var u domain.AdminUser
	err := r.pool.QueryRow(ctx, query, key).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("admin user", key)
		}
		return nil, fmt.Errorf("get admin user: %w", err)
	}
	return &u, nil
}
