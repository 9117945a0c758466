package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/domain"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/repository"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/search"
	apperrors "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/errors"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/slug"
)

// ProductService implements catalog browsing and product management.
// Every write keeps the search index in step with the database.
type ProductService struct {
	repo        repository.ProductRepository
	collections repository.CollectionRepository
	search      search.Engine
	logger      *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	repo repository.ProductRepository,
	collections repository.CollectionRepository,
	engine search.Engine,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		repo:        repo,
		collections: collections,
		search:      engine,
		logger:      logger,
	}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name          string
	Description   string
	Brand         string
	CollectionID  *string
	Gender        domain.Gender
	VolumeML      int
	Notes         []string
	Price         int64
	DiscountPrice *int64
	Stock         int
	Images        []string
	Status        domain.ProductStatus
	Featured      bool
}

// UpdateProductInput holds the parameters for updating a product. Nil
// fields are left unchanged. ClearDiscount and ClearCollection remove the
// optional values.
type UpdateProductInput struct {
	Name            *string
	Description     *string
	Brand           *string
	CollectionID    *string
	ClearCollection bool
	Gender          *domain.Gender
	VolumeML        *int
	Notes           []string
	Price           *int64
	DiscountPrice   *int64
	ClearDiscount   bool
	Stock           *int
	Images          []string
	Status          *domain.ProductStatus
	Featured        *bool
}

// --- Storefront ---

// Search returns published products matching q. A collection given by slug
// is resolved to its id; an unknown collection yields an empty page.
func (s *ProductService) Search(ctx context.Context, q *search.Query) (*search.Result, error) {
	if q.Sort != "" && !search.IsValidSort(q.Sort) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("sort must be one of %v", search.SortOptions()))
	}
	if q.Gender != "" && !q.Gender.Valid() {
		return nil, apperrors.InvalidInput("gender must be one of women, men, unisex")
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return nil, apperrors.InvalidInput("min_price must not exceed max_price")
	}

	if q.CollectionID != "" && uuid.Validate(q.CollectionID) != nil {
		c, err := s.collections.GetBySlug(ctx, q.CollectionID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return &search.Result{Products: []domain.Product{}, Page: q.Page, PerPage: q.PerPage}, nil
			}
			return nil, fmt.Errorf("resolve collection: %w", err)
		}
		q.CollectionID = c.ID
	}

	res, err := s.search.Search(ctx, q)
	if err != nil {
		return nil, apperrors.Unavailable("product search is unavailable", err)
	}
	return res, nil
}

// GetPublishedBySlug returns a product visible on the storefront.
func (s *ProductService) GetPublishedBySlug(ctx context.Context, productSlug string) (*domain.Product, error) {
	p, err := s.repo.GetBySlug(ctx, productSlug)
	if err != nil {
		return nil, fmt.Errorf("get product by slug: %w", err)
	}
	if !p.Published() {
		return nil, apperrors.NotFound("product", productSlug)
	}
	return p, nil
}

// --- Admin ---

// ListProducts lists products of every status from the database.
func (s *ProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, 0, apperrors.InvalidInput("status must be one of draft, published, archived")
	}
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

// GetProduct retrieves a product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return p, nil
}

// CreateProduct validates and stores a new product. New products are drafts
// unless a status is given.
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*domain.Product, error) {
	productSlug := slug.Generate(input.Name)
	if productSlug == "" {
		return nil, apperrors.InvalidInput("product name must contain letters or digits")
	}

	now := time.Now().UTC()
	p := &domain.Product{
		ID:            uuid.New().String(),
		Name:          input.Name,
		Slug:          productSlug,
		Description:   input.Description,
		Brand:         input.Brand,
		CollectionID:  input.CollectionID,
		Gender:        input.Gender,
		VolumeML:      input.VolumeML,
		Notes:         nonNil(input.Notes),
		Price:         input.Price,
		DiscountPrice: input.DiscountPrice,
		Stock:         input.Stock,
		Images:        nonNil(input.Images),
		Status:        input.Status,
		Featured:      input.Featured,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if p.Status == "" {
		p.Status = domain.ProductDraft
	}
	if p.Gender == "" {
		p.Gender = domain.GenderUnisex
	}
	if err := p.Validate(); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	s.reindex(ctx, p)

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", p.ID),
		slog.String("slug", p.Slug),
	)
	return p, nil
}

// UpdateProduct applies input to the product. Renaming regenerates the slug.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input *UpdateProductInput) (*domain.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	if input.Name != nil && *input.Name != p.Name {
		productSlug := slug.Generate(*input.Name)
		if productSlug == "" {
			return nil, apperrors.InvalidInput("product name must contain letters or digits")
		}
		p.Name = *input.Name
		p.Slug = productSlug
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.Brand != nil {
		p.Brand = *input.Brand
	}
	switch {
	case input.ClearCollection:
		p.CollectionID = nil
	case input.CollectionID != nil:
		p.CollectionID = input.CollectionID
	}
	if input.Gender != nil {
		p.Gender = *input.Gender
	}
	if input.VolumeML != nil {
		p.VolumeML = *input.VolumeML
	}
	if input.Notes != nil {
		p.Notes = input.Notes
	}
	if input.Price != nil {
		p.Price = *input.Price
	}
	switch {
	case input.ClearDiscount:
		p.DiscountPrice = nil
	case input.DiscountPrice != nil:
		p.DiscountPrice = input.DiscountPrice
	}
	if input.Stock != nil {
		p.Stock = *input.Stock
	}
	if input.Images != nil {
		p.Images = input.Images
	}
	if input.Status != nil {
		p.Status = *input.Status
	}
	if input.Featured != nil {
		p.Featured = *input.Featured
	}
	p.UpdatedAt = time.Now().UTC()

	if err := p.Validate(); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	s.reindex(ctx, p)

	s.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", p.ID),
		slog.String("status", string(p.Status)),
	)
	return p, nil
}

// UpdateStock sets the product's stock level.
func (s *ProductService) UpdateStock(ctx context.Context, id string, stock int) (*domain.Product, error) {
	if stock < 0 {
		return nil, apperrors.InvalidInput("stock must not be negative")
	}
	if err := s.repo.UpdateStock(ctx, id, stock); err != nil {
		return nil, fmt.Errorf("update stock: %w", err)
	}

	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product after stock update: %w", err)
	}
	s.reindex(ctx, p)

	s.logger.InfoContext(ctx, "product stock updated",
		slog.String("product_id", id),
		slog.Int("stock", stock),
	)
	return p, nil
}

// DeleteProduct removes a product and its search document.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if err := s.search.Delete(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to remove product from search index",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	return nil
}

// --- Indexing ---

// RefreshIndex re-reads the products and rewrites their search documents.
// Failures are logged; the database stays authoritative.
func (s *ProductService) RefreshIndex(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}
	products, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load products for reindex",
			slog.Int("count", len(ids)),
			slog.String("error", err.Error()),
		)
		return
	}
	for i := range products {
		s.reindex(ctx, &products[i])
	}
}

// ReindexAll loads every published product into the search engine.
func (s *ProductService) ReindexAll(ctx context.Context) error {
	products, err := s.repo.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("list published products: %w", err)
	}
	if err := s.search.BulkIndex(ctx, products); err != nil {
		return fmt.Errorf("bulk index products: %w", err)
	}
	s.logger.InfoContext(ctx, "search index rebuilt", slog.Int("products", len(products)))
	return nil
}

// reindex writes a published product to the index and removes any other.
func (s *ProductService) reindex(ctx context.Context, p *domain.Product) {
	var err error
	if p.Published() {
		err = s.search.Index(ctx, p)
	} else {
		err = s.search.Delete(ctx, p.ID)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update search index",
			slog.String("product_id", p.ID),
			slog.String("error", err.Error()),
		)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
