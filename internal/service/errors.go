package service

import (
	"errors"
	"fmt"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/domain"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/repository"
	apperrors "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/errors"
)

// domainError maps rule violations reported by the domain onto AppErrors.
// Other errors are returned unchanged.
func domainError(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidValue):
		return apperrors.InvalidInput(err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		return apperrors.InvalidTransition(err.Error())
	default:
		return err
	}
}

// storeError maps repository sentinels onto AppErrors.
func storeError(err error) error {
	var stockErr *repository.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return apperrors.Conflict("INSUFFICIENT_STOCK",
			fmt.Sprintf("not enough stock left for %s", stockErr.Name))
	case errors.Is(err, repository.ErrStaleWrite):
		return apperrors.Conflict("CONFLICT", "the order was changed by someone else; reload and try again")
	case errors.Is(err, repository.ErrOrderLocked):
		return apperrors.Conflict("ORDER_LOCKED", "only unpaid orders that have not been confirmed or shipped can be deleted")
	case errors.Is(err, repository.ErrCartContention):
		return apperrors.Conflict("CART_BUSY", "the cart is being updated elsewhere; try again")
	default:
		return err
	}
}
