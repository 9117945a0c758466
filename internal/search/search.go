// Package search defines the storefront product search port and the
// document shape shared by its backends.
package search

import (
	"context"
	"slices"
	"time"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/domain"
)

// Sort options for search results.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNameAsc   = "name_asc"
	SortRelevance = "relevance"
)

// SortOptions lists the accepted sort values.
func SortOptions() []string {
	return []string{SortNewest, SortPriceAsc, SortPriceDesc, SortNameAsc, SortRelevance}
}

// IsValidSort reports whether sort is an accepted option.
func IsValidSort(sort string) bool {
	return slices.Contains(SortOptions(), sort)
}

// Query holds the storefront listing parameters. Price bounds apply to the
// effective price. Nil pointers mean "any".
type Query struct {
	Text         string
	CollectionID string
	Brand        string
	Gender       domain.Gender
	MinPrice     *int64
	MaxPrice     *int64
	InStock      *bool
	Featured     *bool
	Sort         string
	Page         int
	PerPage      int
}

// Result is one page of matching products.
type Result struct {
	Products []domain.Product
	Total    int
	Page     int
	PerPage  int
}

// Engine indexes published products and answers storefront queries.
type Engine interface {
	// Index adds or replaces one product.
	Index(ctx context.Context, p *domain.Product) error
	// Delete removes a product; deleting an absent one is not an error.
	Delete(ctx context.Context, id string) error
	// BulkIndex adds or replaces many products.
	BulkIndex(ctx context.Context, products []domain.Product) error
	Search(ctx context.Context, q *Query) (*Result, error)
	Ping(ctx context.Context) error
}

// Document is the indexed form of a product. EffectivePrice and InStock are
// denormalised so backends can filter and sort on them directly.
type Document struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Description    string    `json:"description"`
	Brand          string    `json:"brand"`
	CollectionID   string    `json:"collection_id,omitempty"`
	Gender         string    `json:"gender"`
	VolumeML       int       `json:"volume_ml"`
	Notes          []string  `json:"notes"`
	Price          int64     `json:"price"`
	DiscountPrice  *int64    `json:"discount_price,omitempty"`
	EffectivePrice int64     `json:"effective_price"`
	Stock          int       `json:"stock"`
	InStock        bool      `json:"in_stock"`
	Images         []string  `json:"images"`
	Status         string    `json:"status"`
	Featured       bool      `json:"featured"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewDocument builds the index document for p.
func NewDocument(p *domain.Product) Document {
	d := Document{
		ID:             p.ID,
		Name:           p.Name,
		Slug:           p.Slug,
		Description:    p.Description,
		Brand:          p.Brand,
		Gender:         string(p.Gender),
		VolumeML:       p.VolumeML,
		Notes:          p.Notes,
		Price:          p.Price,
		DiscountPrice:  p.DiscountPrice,
		EffectivePrice: p.EffectivePrice(),
		Stock:          p.Stock,
		InStock:        p.InStock(),
		Images:         p.Images,
		Status:         string(p.Status),
		Featured:       p.Featured,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	if p.CollectionID != nil {
		d.CollectionID = *p.CollectionID
	}
	return d
}

// Product converts the document back into a product.
func (d Document) Product() domain.Product {
	p := domain.Product{
		ID:            d.ID,
		Name:          d.Name,
		Slug:          d.Slug,
		Description:   d.Description,
		Brand:         d.Brand,
		Gender:        domain.Gender(d.Gender),
		VolumeML:      d.VolumeML,
		Notes:         d.Notes,
		Price:         d.Price,
		DiscountPrice: d.DiscountPrice,
		Stock:         d.Stock,
		Images:        d.Images,
		Status:        domain.ProductStatus(d.Status),
		Featured:      d.Featured,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	if d.CollectionID != "" {
		id := d.CollectionID
		p.CollectionID = &id
	}
	if p.Notes == nil {
		p.Notes = []string{}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return p
}
