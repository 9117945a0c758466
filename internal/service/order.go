package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/domain"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/event"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/repository"
	apperrors "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/errors"
)

// maxOrderNumberAttempts bounds retries on order number collisions.
const maxOrderNumberAttempts = 5

// IndexRefresher rewrites the search documents of the given products.
type IndexRefresher interface {
	RefreshIndex(ctx context.Context, ids []string)
}

// OrderService implements checkout and order management.
type OrderService struct {
	orders   repository.OrderRepository
	carts    repository.CartRepository
	index    IndexRefresher
	producer *event.Producer
	pricing  domain.Pricing
	currency string
	logger   *slog.Logger
	now      func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(
	orders repository.OrderRepository,
	carts repository.CartRepository,
	index IndexRefresher,
	producer *event.Producer,
	pricing domain.Pricing,
	currency string,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		orders:   orders,
		carts:    carts,
		index:    index,
		producer: producer,
		pricing:  pricing,
		currency: currency,
		logger:   logger,
		now:      time.Now,
	}
}

// CheckoutInput holds the customer details submitted at checkout.
type CheckoutInput struct {
	Customer        domain.Customer
	ShippingAddress domain.Address
	Notes           string
}

// PaymentInput holds a payment status change and its optional details.
type PaymentInput struct {
	Status        domain.PaymentStatus
	TransactionID string
	Provider      string
	Timestamp     time.Time
}

// --- Checkout ---

// Checkout turns the session cart into an order. Stock is checked and
// decremented against live values in the same transaction that stores the
// order. On success the ordered quantities are taken out of the cart, so
// anything added while checkout ran stays there.
func (s *OrderService) Checkout(ctx context.Context, sessionID string, input *CheckoutInput) (*domain.Order, error) {
	cart, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get cart for checkout: %w", err)
	}
	if cart.IsEmpty() {
		checkoutFailures.WithLabelValues("empty_cart").Inc()
		return nil, apperrors.InvalidInput("cart is empty")
	}

	o := s.newOrder(cart, input)

	if err := s.createWithUniqueNumber(ctx, o); err != nil {
		var stockErr *repository.InsufficientStockError
		if errors.As(err, &stockErr) {
			checkoutFailures.WithLabelValues("insufficient_stock").Inc()
			return nil, apperrors.Conflict("INSUFFICIENT_STOCK",
				fmt.Sprintf("not enough stock left for %s; refresh your cart", stockErr.Name))
		}
		checkoutFailures.WithLabelValues("error").Inc()
		return nil, err
	}
	ordersCreated.Inc()
	orderRevenue.Add(float64(o.Total))

	ordered := make(map[string]int, len(o.Items))
	for _, it := range o.Items {
		ordered[it.ProductID] += it.Quantity
	}
	_, err = s.carts.Update(ctx, sessionID, func(c *domain.Cart) error {
		c.Deduct(ordered)
		return nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to remove ordered items from cart",
			slog.String("order_id", o.ID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.producer.PublishOrderCreated(ctx, o); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", o.ID),
			slog.String("error", err.Error()),
		)
	}
	s.index.RefreshIndex(ctx, cart.ProductIDs())

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", o.ID),
		slog.String("order_number", o.OrderNumber),
		slog.Int("items", o.ItemCount()),
		slog.Int64("total", o.Total),
	)
	return o, nil
}

func (s *OrderService) newOrder(cart *domain.Cart, input *CheckoutInput) *domain.Order {
	now := s.now().UTC()
	o := &domain.Order{
		ID:              uuid.New().String(),
		Status:          domain.StatusProcessing,
		PaymentStatus:   domain.PaymentPending,
		Customer:        input.Customer,
		ShippingAddress: input.ShippingAddress,
		Notes:           input.Notes,
		Items:           make([]domain.OrderItem, 0, len(cart.Lines)),
		Currency:        s.currency,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	o.Customer.Email = strings.TrimSpace(o.Customer.Email)

	for _, l := range cart.Lines {
		o.Items = append(o.Items, domain.OrderItem{
			ID:        uuid.New().String(),
			OrderID:   o.ID,
			ProductID: l.ProductID,
			Name:      l.Name,
			ImageURL:  l.ImageURL,
			Price:     l.Price,
			Quantity:  l.Quantity,
		})
	}

	totals := s.pricing.Compute(cart.Subtotal())
	o.Subtotal = totals.Subtotal
	o.ShippingCost = totals.ShippingCost
	o.Tax = totals.Tax
	o.Total = totals.Total
	return o
}

func (s *OrderService) createWithUniqueNumber(ctx context.Context, o *domain.Order) error {
	for attempt := 1; attempt <= maxOrderNumberAttempts; attempt++ {
		o.OrderNumber = domain.NewOrderNumber(o.CreatedAt)

		err := s.orders.Create(ctx, o)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateOrderNumber) {
			return fmt.Errorf("create order: %w", err)
		}
		s.logger.WarnContext(ctx, "order number collision, retrying",
			slog.String("order_number", o.OrderNumber),
			slog.Int("attempt", attempt),
		)
	}
	return apperrors.Internal(fmt.Errorf("no free order number after %d attempts", maxOrderNumberAttempts))
}

// LookupOrder returns an order to its customer. The email must match the
// order's customer email, ignoring case; a mismatch looks like a missing
// order.
func (s *OrderService) LookupOrder(ctx context.Context, orderNumber, email string) (*domain.Order, error) {
	if !domain.ValidOrderNumber(orderNumber) || strings.TrimSpace(email) == "" {
		return nil, apperrors.NotFound("order", orderNumber)
	}

	o, err := s.orders.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, fmt.Errorf("get order by number: %w", err)
	}
	if !strings.EqualFold(o.Customer.Email, strings.TrimSpace(email)) {
		return nil, apperrors.NotFound("order", orderNumber)
	}
	return o, nil
}

// --- Admin ---

// ListOrders lists orders newest first.
func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, 0, domainError(&domain.ValueError{Field: "status", Value: string(*filter.Status), Allowed: orderStatusStrings()})
	}
	if filter.PaymentStatus != nil && !filter.PaymentStatus.Valid() {
		return nil, 0, domainError(&domain.ValueError{Field: "payment status", Value: string(*filter.PaymentStatus), Allowed: paymentStatusStrings()})
	}
	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	return orders, total, nil
}

// GetOrder retrieves an order by ID.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// UpdateStatus applies the lifecycle rules and persists the new status only
// if no one else changed it since it was read.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order for status update: %w", err)
	}

	prev := o.Status
	if err := o.SetStatus(status); err != nil {
		return nil, domainError(err)
	}
	o.UpdatedAt = s.now().UTC()

	if err := s.orders.UpdateStatus(ctx, o, prev); err != nil {
		return nil, fmt.Errorf("persist order status: %w", storeError(err))
	}
	if prev == o.Status {
		return o, nil
	}
	statusTransitions.WithLabelValues(string(prev), string(o.Status)).Inc()

	if o.Status == domain.StatusCancelled || prev == domain.StatusCancelled {
		s.index.RefreshIndex(ctx, orderProductIDs(o))
	}
	if err := s.producer.PublishStatusChanged(ctx, o, prev); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", o.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order status changed",
		slog.String("order_id", o.ID),
		slog.String("from", string(prev)),
		slog.String("to", string(o.Status)),
	)
	return o, nil
}

// UpdatePayment records a payment status change. Marking a Processing
// order as paid confirms it.
func (s *OrderService) UpdatePayment(ctx context.Context, id string, input *PaymentInput) (*domain.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get order for payment update: %w", err)
	}

	prevStatus, prevPayment := o.Status, o.PaymentStatus
	var details *domain.PaymentDetails
	if input.TransactionID != "" || input.Provider != "" || !input.Timestamp.IsZero() {
		details = &domain.PaymentDetails{
			TransactionID: input.TransactionID,
			Provider:      input.Provider,
			Timestamp:     input.Timestamp,
		}
	}
	if err := o.SetPaymentStatus(input.Status, details); err != nil {
		return nil, domainError(err)
	}
	o.UpdatedAt = s.now().UTC()

	if err := s.orders.UpdatePayment(ctx, o, prevStatus, prevPayment); err != nil {
		return nil, fmt.Errorf("persist payment status: %w", storeError(err))
	}
	if prevStatus != o.Status {
		statusTransitions.WithLabelValues(string(prevStatus), string(o.Status)).Inc()
	}

	if err := s.producer.PublishPaymentUpdated(ctx, o, prevPayment); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.payment_updated event",
			slog.String("order_id", o.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order payment updated",
		slog.String("order_id", o.ID),
		slog.String("from", string(prevPayment)),
		slog.String("to", string(o.PaymentStatus)),
		slog.String("status", string(o.Status)),
	)
	return o, nil
}

// DeleteOrder removes an order that is still early and unpaid.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get order for delete: %w", err)
	}
	if !o.Deletable() {
		return storeError(repository.ErrOrderLocked)
	}

	if err := s.orders.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete order: %w", storeError(err))
	}
	if o.Status == domain.StatusProcessing {
		s.index.RefreshIndex(ctx, orderProductIDs(o))
	}

	if err := s.producer.PublishOrderDeleted(ctx, o); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.deleted event",
			slog.String("order_id", o.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order deleted",
		slog.String("order_id", o.ID),
		slog.String("order_number", o.OrderNumber),
	)
	return nil
}

// Stats summarises orders for the dashboard.
func (s *OrderService) Stats(ctx context.Context) (*domain.OrderStats, error) {
	stats, err := s.orders.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	stats.Currency = s.currency
	return stats, nil
}

func orderProductIDs(o *domain.Order) []string {
	ids := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		ids = append(ids, it.ProductID)
	}
	return ids
}

func orderStatusStrings() []string {
	out := make([]string, 0, 5)
	for _, s := range domain.OrderStatuses() {
		out = append(out, string(s))
	}
	return out
}

func paymentStatusStrings() []string {
	out := make([]string, 0, 4)
	for _, s := range domain.PaymentStatuses() {
		out = append(out, string(s))
	}
	return out
}
