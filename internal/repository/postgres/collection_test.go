package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/domain"
	apperrors "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/errors"
)

var collectionRowColumns = []string{"id", "name", "slug", "description", "image_url", "created_at", "updated_at"}

func sampleCollection() *domain.Collection {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Collection{ID: "coll-001", Name: "Oud Classics", Slug: "oud-classics", CreatedAt: now, UpdatedAt: now}
}

func TestCollectionRepository_Create(t *testing.T) {
	mock := newMock(t)
	repo := NewCollectionRepository(mock)
	c := sampleCollection()

	mock.ExpectExec("INSERT INTO collections").
		WithArgs(c.ID, c.Name, c.Slug, c.Description, c.ImageURL, c.CreatedAt, c.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO collections").
		WithArgs(anyArgs(7)...).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	require.NoError(t, repo.Create(context.Background(), c))
	assert.ErrorIs(t, repo.Create(context.Background(), c), apperrors.ErrAlreadyExists)
}

func TestCollectionRepository_GetBySlug(t *testing.T) {
	mock := newMock(t)
	repo := NewCollectionRepository(mock)
	c := sampleCollection()

	mock.ExpectQuery(`WHERE slug = \$1`).
		WithArgs("oud-classics").
		WillReturnRows(pgxmock.NewRows(collectionRowColumns).
			AddRow(c.ID, c.Name, c.Slug, c.Description, c.ImageURL, c.CreatedAt, c.UpdatedAt))
	mock.ExpectQuery(`WHERE slug = \$1`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetBySlug(context.Background(), "oud-classics")
	require.NoError(t, err)
	assert.Equal(t, c, got)

	_, err = repo.GetBySlug(context.Background(), "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCollectionRepository_List(t *testing.T) {
	mock := newMock(t)
	repo := NewCollectionRepository(mock)
	c := sampleCollection()

	mock.ExpectQuery("ORDER BY name").
		WillReturnRows(pgxmock.NewRows(collectionRowColumns).
			AddRow(c.ID, c.Name, c.Slug, c.Description, c.ImageURL, c.CreatedAt, c.UpdatedAt).
			AddRow("coll-002", "Citrus", "citrus", "", "", c.CreatedAt, c.UpdatedAt))

	got, err := repo.List(context.Background())

	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCollectionRepository_UpdateAndDelete_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewCollectionRepository(mock)

	mock.ExpectExec("UPDATE collections").
		WithArgs(anyArgs(6)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectExec("DELETE FROM collections").
		WithArgs("coll-001").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, repo.Update(context.Background(), sampleCollection()), apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(context.Background(), "coll-001"), apperrors.ErrNotFound)
}

func TestAdminRepository_GetByEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewAdminRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(`lower\(email\) = lower\(\$1\)`).
		WithArgs("Admin@Example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "name", "password_hash", "role", "created_at", "updated_at"}).
			AddRow("adm-1", "admin@example.com", "Admin", "$2a$hash", "admin", now, now))

	u, err := repo.GetByEmail(context.Background(), "Admin@Example.com")

	require.NoError(t, err)
	assert.Equal(t, "adm-1", u.ID)
	assert.Equal(t, "$2a$hash", u.PasswordHash)
}

func TestAdminRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	repo := NewAdminRepository(mock)

	mock.ExpectQuery("FROM admin_users WHERE id").
		WithArgs("adm-x").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "adm-x")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestAdminRepository_Upsert(t *testing.T) {
	mock := newMock(t)
	repo := NewAdminRepository(mock)
	now := time.Now().UTC()
	u := &domain.AdminUser{ID: "new-id", Email: "admin@example.com", Name: "Admin", PasswordHash: "h", Role: "admin", CreatedAt: now, UpdatedAt: now}

	mock.ExpectQuery("ON CONFLICT \\(email\\) DO UPDATE").
		WithArgs(u.ID, u.Email, u.Name, u.PasswordHash, u.Role, u.CreatedAt, u.UpdatedAt).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("existing-id"))

	require.NoError(t, repo.Upsert(context.Background(), u))
	assert.Equal(t, "existing-id", u.ID)
}
