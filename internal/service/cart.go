package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/domain"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/repository"
	apperrors "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/errors"
)

// CartService implements the session cart. Cart rules live in domain.Cart;
// this service loads live products and maps rule outcomes onto errors.
type CartService struct {
	carts    repository.CartRepository
	products repository.ProductRepository
	logger   *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(carts repository.CartRepository, products repository.ProductRepository, logger *slog.Logger) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		logger:   logger,
	}
}

// GetCart returns the session's cart.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return cart, nil
}

// AddItem adds quantity units of a published, in-stock product.
func (s *CartService) AddItem(ctx context.Context, sessionID, productID string, quantity int) (*domain.Cart, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product for cart: %w", err)
	}
	if !p.Published() {
		return nil, apperrors.NotFound("product", productID)
	}
	if !p.InStock() {
		return nil, apperrors.Conflict("OUT_OF_STOCK", fmt.Sprintf("%s is out of stock", p.Name))
	}

	cart, err := s.carts.Update(ctx, sessionID, func(c *domain.Cart) error {
		c.Add(p, quantity)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("add cart item: %w", storeError(err))
	}

	s.logger.DebugContext(ctx, "cart item added",
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)
	return cart, nil
}

// UpdateItem sets a line's quantity; zero or less removes it. A quantity
// above the stock captured on the line is rejected and the cart is left
// unchanged.
func (s *CartService) UpdateItem(ctx context.Context, sessionID, productID string, quantity int) (*domain.Cart, error) {
	cart, err := s.carts.Update(ctx, sessionID, func(c *domain.Cart) error {
		line, ok := c.Line(productID)
		if !ok {
			if quantity <= 0 {
				return repository.ErrCartUnchanged
			}
			return apperrors.NotFound("cart item", productID)
		}
		if !c.UpdateQuantity(productID, quantity) {
			stockLimitRejections.Inc()
			return apperrors.StockLimitReached(line.Stock)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update cart item: %w", storeError(err))
	}
	return cart, nil
}

// RemoveItem drops a line. Removing an absent product succeeds.
func (s *CartService) RemoveItem(ctx context.Context, sessionID, productID string) (*domain.Cart, error) {
	cart, err := s.carts.Update(ctx, sessionID, func(c *domain.Cart) error {
		if _, ok := c.Line(productID); !ok {
			return repository.ErrCartUnchanged
		}
		c.Remove(productID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("remove cart item: %w", storeError(err))
	}
	return cart, nil
}

// ClearCart empties the cart.
func (s *CartService) ClearCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.carts.Update(ctx, sessionID, func(c *domain.Cart) error {
		c.Clear()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("clear cart: %w", storeError(err))
	}
	return cart, nil
}

// RefreshCart re-reads live stock for every line. Lines whose product was
// deleted, unpublished or sold out are removed; the others take the live
// stock as their ceiling, clamping quantities above it.
func (s *CartService) RefreshCart(ctx context.Context, sessionID string) (*domain.Cart, domain.RefreshResult, error) {
	current, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, domain.RefreshResult{}, fmt.Errorf("get cart: %w", err)
	}
	if current.IsEmpty() {
		return current, domain.RefreshResult{}, nil
	}

	products, err := s.products.GetByIDs(ctx, current.ProductIDs())
	if err != nil {
		return nil, domain.RefreshResult{}, fmt.Errorf("load cart products: %w", err)
	}
	stock := make(map[string]int, len(products))
	for _, p := range products {
		if p.Published() {
			stock[p.ID] = p.Stock
		}
	}

	var result domain.RefreshResult
	cart, err := s.carts.Update(ctx, sessionID, func(c *domain.Cart) error {
		result = c.RefreshStock(stock)
		return nil
	})
	if err != nil {
		return nil, domain.RefreshResult{}, fmt.Errorf("refresh cart: %w", storeError(err))
	}

	if result.Changed() {
		s.logger.InfoContext(ctx, "cart refreshed against live stock",
			slog.Int("removed", len(result.Removed)),
			slog.Int("clamped", len(result.Clamped)),
		)
	}
	return cart, result, nil
}
