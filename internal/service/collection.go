package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/domain"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/repository"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/search"
	apperrors "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/errors"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/pagination"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/slug"
)

// Reindexer rebuilds the search index from the database.
type Reindexer interface {
	ReindexAll(ctx context.Context) error
}

// CollectionService implements collection browsing and management.
type CollectionService struct {
	repo      repository.CollectionRepository
	search    search.Engine
	reindexer Reindexer
	logger    *slog.Logger
}

// NewCollectionService creates a new collection service.
func NewCollectionService(repo repository.CollectionRepository, engine search.Engine, reindexer Reindexer, logger *slog.Logger) *CollectionService {
	return &CollectionService{
		repo:      repo,
		search:    engine,
		reindexer: reindexer,
		logger:    logger,
	}
}

// CollectionInput holds the parameters for creating or replacing a collection.
type CollectionInput struct {
	Name        string
	Description string
	ImageURL    string
}

// CollectionDetail is a collection with its published products.
type CollectionDetail struct {
	domain.Collection
	Products []domain.Product `json:"products"`
}

// ListCollections returns every collection ordered by name.
func (s *CollectionService) ListCollections(ctx context.Context) ([]domain.Collection, error) {
	collections, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return collections, nil
}

// GetCollection retrieves a collection by ID.
func (s *CollectionService) GetCollection(ctx context.Context, id string) (*domain.Collection, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get collection by id: %w", err)
	}
	return c, nil
}

// GetCollectionDetail returns the collection with the given slug and up to
// one page of its published products, newest first.
func (s *CollectionService) GetCollectionDetail(ctx context.Context, collectionSlug string) (*CollectionDetail, error) {
	c, err := s.repo.GetBySlug(ctx, collectionSlug)
	if err != nil {
		return nil, fmt.Errorf("get collection by slug: %w", err)
	}

	res, err := s.search.Search(ctx, &search.Query{
		CollectionID: c.ID,
		Sort:         search.SortNewest,
		Page:         1,
		PerPage:      pagination.MaxPerPage,
	})
	if err != nil {
		return nil, apperrors.Unavailable("product search is unavailable", err)
	}
	return &CollectionDetail{Collection: *c, Products: res.Products}, nil
}

// CreateCollection stores a new collection.
func (s *CollectionService) CreateCollection(ctx context.Context, input *CollectionInput) (*domain.Collection, error) {
	collectionSlug, err := collectionSlugFor(input.Name)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c := &domain.Collection{
		ID:          uuid.New().String(),
		Name:        input.Name,
		Slug:        collectionSlug,
		Description: input.Description,
		ImageURL:    input.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	s.logger.InfoContext(ctx, "collection created",
		slog.String("collection_id", c.ID),
		slog.String("slug", c.Slug),
	)
	return c, nil
}

// UpdateCollection replaces the collection's editable fields.
func (s *CollectionService) UpdateCollection(ctx context.Context, id string, input *CollectionInput) (*domain.Collection, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get collection for update: %w", err)
	}

	if input.Name != c.Name {
		collectionSlug, err := collectionSlugFor(input.Name)
		if err != nil {
			return nil, err
		}
		c.Name = input.Name
		c.Slug = collectionSlug
	}
	c.Description = input.Description
	c.ImageURL = input.ImageURL
	c.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update collection: %w", err)
	}

	s.logger.InfoContext(ctx, "collection updated", slog.String("collection_id", c.ID))
	return c, nil
}

// DeleteCollection removes a collection. Its products stay in the catalog
// without a collection, so the index is rebuilt.
func (s *CollectionService) DeleteCollection(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if err := s.reindexer.ReindexAll(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to rebuild search index after collection delete",
			slog.String("collection_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "collection deleted", slog.String("collection_id", id))
	return nil
}

func collectionSlugFor(name string) (string, error) {
	s := slug.Generate(name)
	if s == "" {
		return "", apperrors.InvalidInput("collection name must contain letters or digits")
	}
	return s, nil
}
