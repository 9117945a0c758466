// Package repository declares the persistence ports used by the services.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/domain"
)

var (
	// ErrDuplicateOrderNumber is returned by OrderRepository.Create when the
	// generated order number is already taken.
	ErrDuplicateOrderNumber = errors.New("duplicate order number")
	// ErrInsufficientStock is returned when a checkout line exceeds live stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStaleWrite is returned when a conditional update matched no row
	// because the record changed since it was read.
	ErrStaleWrite = errors.New("stale write")
	// ErrOrderLocked is returned when deleting an order past the early stage.
	ErrOrderLocked = errors.New("order locked")
	// ErrCartContention is returned when a cart update kept losing races.
	ErrCartContention = errors.New("cart contention")
	// ErrCartUnchanged may be returned by a CartRepository.Update callback
	// to skip the write. Update then returns the loaded cart and no error.
	ErrCartUnchanged = errors.New("cart unchanged")
)

// InsufficientStockError names the product whose stock ran short.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d", e.Name, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ProductFilter defines filter criteria for the admin product listing.
type ProductFilter struct {
	Query        string
	Status       *domain.ProductStatus
	CollectionID *string
	Page         int
	PerPage      int
}

// ProductRepository defines persistence operations for products.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	// GetByIDs returns the products that exist among ids, in no particular order.
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)
	// ListPublished returns every published product, for search indexing.
	ListPublished(ctx context.Context) ([]domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	UpdateStock(ctx context.Context, id string, stock int) error
	Delete(ctx context.Context, id string) error
}

// CollectionRepository defines persistence operations for collections.
type CollectionRepository interface {
	Create(ctx context.Context, c *domain.Collection) error
	GetByID(ctx context.Context, id string) (*domain.Collection, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Collection, error)
	List(ctx context.Context) ([]domain.Collection, error)
	Update(ctx context.Context, c *domain.Collection) error
	Delete(ctx context.Context, id string) error
}

// OrderFilter defines filter criteria for listing orders.
type OrderFilter struct {
	Status        *domain.OrderStatus
	PaymentStatus *domain.PaymentStatus
	// Query matches the order number exactly or the customer email
	// case-insensitively.
	Query   string
	Page    int
	PerPage int
}

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	// Create decrements live stock for every item and inserts the order
	// atomically. It fails with InsufficientStockError or
	// ErrDuplicateOrderNumber, leaving nothing written.
	Create(ctx context.Context, o *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByNumber(ctx context.Context, number string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)
	// UpdateStatus persists o.Status only if the stored status is still
	// prev, otherwise ErrStaleWrite. Moving to Cancelled returns the items
	// to stock in the same transaction.
	UpdateStatus(ctx context.Context, o *domain.Order, prev domain.OrderStatus) error
	// UpdatePayment persists the payment fields and status of o only if the
	// stored status and payment status still equal the previous values.
	UpdatePayment(ctx context.Context, o *domain.Order, prevStatus domain.OrderStatus, prevPayment domain.PaymentStatus) error
	// Delete removes a deletable order, otherwise ErrOrderLocked. A
	// Processing order's items are returned to stock.
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*domain.OrderStats, error)
}

// AdminRepository defines persistence operations for admin accounts.
type AdminRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.AdminUser, error)
	GetByID(ctx context.Context, id string) (*domain.AdminUser, error)
	// Upsert creates the account or replaces name, hash and role by email.
	Upsert(ctx context.Context, u *domain.AdminUser) error
}

// CartRepository defines persistence for session carts.
type CartRepository interface {
	// Get returns the session's cart, or an empty cart when none is stored.
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	// Update loads the cart, applies fn and stores the result atomically.
	// A cart left empty is removed instead of stored. Concurrent updates to
	// the same session are retried; persistent contention yields
	// ErrCartContention. ErrCartUnchanged from fn skips the write; any other
	// error from fn aborts the update and is returned unchanged.
	Update(ctx context.Context, sessionID string, fn func(*domain.Cart) error) (*domain.Cart, error)
}
