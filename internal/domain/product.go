package domain

import (
	"errors"
	"time"
)

// Gender is the audience a fragrance is marketed to.
type Gender string

const (
	GenderWomen  Gender = "women"
	GenderMen    Gender = "men"
	GenderUnisex Gender = "unisex"
)

// ProductStatus controls storefront visibility.
type ProductStatus string

const (
	ProductDraft     ProductStatus = "draft"
	ProductPublished ProductStatus = "published"
	ProductArchived  ProductStatus = "archived"
)

// Valid reports whether g is a known gender.
func (g Gender) Valid() bool {
	return g == GenderWomen || g == GenderMen || g == GenderUnisex
}

// Valid reports whether s is a known product status.
func (s ProductStatus) Valid() bool {
	return s == ProductDraft || s == ProductPublished || s == ProductArchived
}

// Product is a perfume in the catalog. Prices are in minor currency units.
type Product struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Slug          string        `json:"slug"`
	Description   string        `json:"description"`
	Brand         string        `json:"brand"`
	CollectionID  *string       `json:"collection_id,omitempty"`
	Gender        Gender        `json:"gender"`
	VolumeML      int           `json:"volume_ml"`
	Notes         []string      `json:"notes"`
	Price         int64         `json:"price"`
	DiscountPrice *int64        `json:"discount_price,omitempty"`
	Stock         int           `json:"stock"`
	Images        []string      `json:"images"`
	Status        ProductStatus `json:"status"`
	Featured      bool          `json:"featured"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// EffectivePrice is the discount price when one is set above zero and below
// the list price, else the list price.
func (p *Product) EffectivePrice() int64 {
	if p.DiscountPrice != nil && *p.DiscountPrice > 0 && *p.DiscountPrice < p.Price {
		return *p.DiscountPrice
	}
	return p.Price
}

// OnSale reports whether a discount applies.
func (p *Product) OnSale() bool {
	return p.EffectivePrice() < p.Price
}

// FirstImage returns the first image URL or "".
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// InStock reports whether at least one unit is available.
func (p *Product) InStock() bool {
	return p.Stock > 0
}

// Published reports whether the product is visible on the storefront.
func (p *Product) Published() bool {
	return p.Status == ProductPublished
}

// Validate checks the invariants a stored product must hold.
func (p *Product) Validate() error {
	var errs []error
	if p.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if p.Price <= 0 {
		errs = append(errs, errors.New("price must be positive"))
	}
	if p.DiscountPrice != nil && (*p.DiscountPrice <= 0 || *p.DiscountPrice >= p.Price) {
		errs = append(errs, errors.New("discount price must be positive and below price"))
	}
	if p.Stock < 0 {
		errs = append(errs, errors.New("stock must not be negative"))
	}
	if !p.Gender.Valid() {
		errs = append(errs, &ValueError{Field: "gender", Value: string(p.Gender), Allowed: []string{"women", "men", "unisex"}})
	}
	if !p.Status.Valid() {
		errs = append(errs, &ValueError{Field: "product status", Value: string(p.Status), Allowed: []string{"draft", "published", "archived"}})
	}
	return errors.Join(errs...)
}
