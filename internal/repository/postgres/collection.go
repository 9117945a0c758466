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

const collectionColumns = `id, name, slug, description, image_url, created_at, updated_at`

// CollectionRepository implements repository.CollectionRepository using PostgreSQL.
type CollectionRepository struct {
	pool database.DBTX
}

// NewCollectionRepository creates a new PostgreSQL-backed collection repository.
func NewCollectionRepository(pool database.DBTX) *CollectionRepository {
	return &CollectionRepository{pool: pool}
}

// Create inserts a new collection.
func (r *CollectionRepository) Create(ctx context.Context, c *domain.Collection) error {
	query := `
		INSERT INTO collections (` + collectionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query, c.ID, c.Name, c.Slug, c.Description, c.ImageURL, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("collection", "slug", c.Slug)
		}
		return fmt.Errorf("insert collection: %w", err)
	}
	return nil
}

// GetByID retrieves a collection by its ID.
func (r *CollectionRepository) GetByID(ctx context.Context, id string) (*domain.Collection, error) {
	return r.getOne(ctx, `SELECT `+collectionColumns+` FROM collections WHERE id = $1`, id)
}

// GetBySlug retrieves a collection by its slug.
func (r *CollectionRepository) GetBySlug(ctx context.Context, slug string) (*domain.Collection, error) {
	return r.getOne(ctx, `SELECT `+collectionColumns+` FROM collections WHERE slug = $1`, slug)
}

// List returns all collections ordered by name.
func (r *CollectionRepository) List(ctx context.Context) ([]domain.Collection, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+collectionColumns+` FROM collections ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	collections := make([]domain.Collection, 0)
	for rows.Next() {
		var c domain.Collection
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ImageURL, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan collection row: %w", err)
		}
		collections = append(collections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collection rows: %w", err)
	}
	return collections, nil
}

// Update replaces the mutable fields of a collection.
func (r *CollectionRepository) Update(ctx context.Context, c *domain.Collection) error {
	query := `
		UPDATE collections
		SET name = $1, slug = $2, description = $3, image_url = $4, updated_at = $5
		WHERE id = $6`

	ct, err := r.pool.Exec(ctx, query, c.Name, c.Slug, c.Description, c.ImageURL, c.UpdatedAt, c.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperrors.AlreadyExists("collection", "slug", c.Slug)
		}
		return fmt.Errorf("update collection: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("collection", c.ID)
	}
	return nil
}

// Delete removes a collection; its products become uncategorised.
func (r *CollectionRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM collections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("collection", id)
	}
	return nil
}

func (r *CollectionRepository) getOne(ctx context.Context, query, key string) (*domain.Collection, error) {
	var c domain.Collection
	err := r.pool.QueryRow(ctx, query, key).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ImageURL, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("collection", key)
		}
		return nil, fmt.Errorf("get collection: %w", err)
	}
	return &c, nil
}
