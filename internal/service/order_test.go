package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/domain"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/event"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/repository"
	redisrepo "github.com/SherMuhammadgithub/perfume-site-sub000/internal/repository/redis"
	apperrors "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/errors"
)

var testPricing = domain.Pricing{FreeShippingThreshold: 20000, ShippingFlatRate: 800, TaxRateBPS: 500}

type orderFixture struct {
	svc       *OrderService
	orders    *mockOrderRepository
	carts     *redisrepo.CartRepository
	index     *recordingIndex
	publisher *recordingPublisher
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	f := &orderFixture{
		orders:    new(mockOrderRepository),
		carts:     newTestCartRepo(t),
		index:     &recordingIndex{},
		publisher: &recordingPublisher{},
	}
	logger := newTestLogger()
	f.svc = NewOrderService(f.orders, f.carts, f.index, event.NewProducer(f.publisher, logger), testPricing, "USD", logger)
	f.svc.now = func() time.Time { return time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC) }
	return f
}

func (f *orderFixture) fillCart(t *testing.T, lines ...*domain.Product) {
	t.Helper()
	_, err := f.carts.Update(context.Background(), testSession, func(c *domain.Cart) error {
		for _, p := range lines {
			c.Add(p, 2)
		}
		return nil
	})
	require.NoError(t, err)
}

func checkoutInput() *CheckoutInput {
	return &CheckoutInput{
		Customer:        domain.Customer{Name: "Ana Silva", Email: " Ana@Example.com "},
		ShippingAddress: domain.Address{Line1: "1 Rue de la Paix", City: "Paris", PostalCode: "75002", Country: "FR"},
	}
}

func processingOrder() *domain.Order {
	return &domain.Order{
		ID:            "order-1",
		OrderNumber:   "ORD-261015-0042",
		Status:        domain.StatusProcessing,
		PaymentStatus: domain.PaymentPending,
		Customer:      domain.Customer{Name: "Ana", Email: "ana@example.com"},
		Items:         []domain.OrderItem{{ProductID: "p1", Name: "Perfume p1", Price: 10000, Quantity: 2}},
	}
}

// --- Checkout ---

func TestCheckout_CreatesOrderAndClearsCart(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, samplePerfume("p1", 5))
	f.orders.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).Return(nil)

	o, err := f.svc.Checkout(context.Background(), testSession, checkoutInput())

	require.NoError(t, err)
	assert.Regexp(t, `^ORD-261015-\d{4}$`, o.OrderNumber)
	assert.Equal(t, domain.StatusProcessing, o.Status)
	assert.Equal(t, domain.PaymentPending, o.PaymentStatus)
	assert.Equal(t, "Ana@Example.com", o.Customer.Email)
	assert.Equal(t, int64(20000), o.Subtotal)
	assert.Equal(t, int64(0), o.ShippingCost)
	assert.Equal(t, int64(1000), o.Tax)
	assert.Equal(t, int64(21000), o.Total)
	require.Len(t, o.Items, 1)
	assert.Equal(t, o.ID, o.Items[0].OrderID)

	cart, err := f.carts.Get(context.Background(), testSession)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, []string{event.TopicOrderCreated}, f.publisher.Topics())
	assert.Equal(t, [][]string{{"p1"}}, f.index.refreshed)
}

func TestCheckout_KeepsItemsAddedDuringCheckout(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, samplePerfume("p1", 5))
	f.orders.On("Create", mock.Anything, mock.AnythingOfType("*domain.Order")).
		Run(func(mock.Arguments) {
			_, err := f.carts.Update(context.Background(), testSession, func(c *domain.Cart) error {
				c.Add(samplePerfume("p1", 5), 1)
				c.Add(samplePerfume("p2", 5), 1)
				return nil
			})
			require.NoError(t, err)
		}).
		Return(nil)

	o, err := f.svc.Checkout(context.Background(), testSession, checkoutInput())

	require.NoError(t, err)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].Quantity)

	cart, err := f.carts.Get(context.Background(), testSession)
	require.NoError(t, err)
	require.Len(t, cart.Lines, 2)
	p1, _ := cart.Line("p1")
	p2, _ := cart.Line("p2")
	assert.Equal(t, 1, p1.Quantity)
	assert.Equal(t, 1, p2.Quantity)
}

func TestCheckout_ChargesShippingBelowThreshold(t *testing.T) {
	f := newOrderFixture(t)
	cheap := samplePerfume("p1", 5)
	cheap.Price = 3000
	f.fillCart(t, cheap)
	f.orders.On("Create", mock.Anything, mock.Anything).Return(nil)

	o, err := f.svc.Checkout(context.Background(), testSession, checkoutInput())

	require.NoError(t, err)
	assert.Equal(t, int64(6000), o.Subtotal)
	assert.Equal(t, int64(800), o.ShippingCost)
	assert.Equal(t, int64(300), o.Tax)
	assert.Equal(t, int64(7100), o.Total)
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.svc.Checkout(context.Background(), testSession, checkoutInput())

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCheckout_InsufficientStockKeepsCart(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, samplePerfume("p1", 5))
	f.orders.On("Create", mock.Anything, mock.Anything).
		Return(&repository.InsufficientStockError{ProductID: "p1", Name: "Perfume p1", Requested: 2})

	_, err := f.svc.Checkout(context.Background(), testSession, checkoutInput())

	requireAppCode(t, err, "INSUFFICIENT_STOCK")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	cart, _ := f.carts.Get(context.Background(), testSession)
	assert.False(t, cart.IsEmpty())
	assert.Empty(t, f.publisher.Topics())
}

func TestCheckout_RetriesOrderNumberCollision(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, samplePerfume("p1", 5))
	f.orders.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicateOrderNumber).Twice()
	f.orders.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := f.svc.Checkout(context.Background(), testSession, checkoutInput())

	require.NoError(t, err)
	f.orders.AssertNumberOfCalls(t, "Create", 3)
}

func TestCheckout_GivesUpAfterMaxCollisions(t *testing.T) {
	f := newOrderFixture(t)
	f.fillCart(t, samplePerfume("p1", 5))
	f.orders.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicateOrderNumber)

	_, err := f.svc.Checkout(context.Background(), testSession, checkoutInput())

	requireAppCode(t, err, "INTERNAL_ERROR")
	f.orders.AssertNumberOfCalls(t, "Create", maxOrderNumberAttempts)
}

func TestCheckout_EventFailureDoesNotFail(t *testing.T) {
	f := newOrderFixture(t)
	f.publisher.err = errors.New("broker down")
	f.fillCart(t, samplePerfume("p1", 5))
	f.orders.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.Checkout(context.Background(), testSession, checkoutInput())

	assert.NoError(t, err)
}

// --- LookupOrder ---

func TestLookupOrder(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("GetByNumber", mock.Anything, "ORD-261015-0042").Return(processingOrder(), nil)

	o, err := f.svc.LookupOrder(context.Background(), "ORD-261015-0042", "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "order-1", o.ID)

	_, err = f.svc.LookupOrder(context.Background(), "ORD-261015-0042", "someone@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.svc.LookupOrder(context.Background(), "not-a-number", "ana@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

// --- UpdateStatus ---

func TestUpdateStatus_Forward(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("GetByID", mock.Anything, "order-1").Return(processingOrder(), nil)
	f.orders.On("UpdateStatus", mock.Anything, mock.Anything, domain.StatusProcessing).Return(nil)

	o, err := f.svc.UpdateStatus(context.Background(), "order-1", domain.StatusShipped)

	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, o.Status)
	assert.Equal(t, []string{event.TopicOrderStatusChanged}, f.publisher.Topics())
	assert.Empty(t, f.index.refreshed)
}

func TestUpdateStatus_CancelRefreshesIndex(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("GetByID", mock.Anything, "order-1").Return(processingOrder(), nil)
	f.orders.On("UpdateStatus", mock.Anything, mock.Anything, domain.StatusProcessing).Return(nil)

	_, err := f.svc.UpdateStatus(context.Background(), "order-1", domain.StatusCancelled)

	require.NoError(t, err)
	assert.Equal(t, [][]string{{"p1"}}, f.index.refreshed)
}

func TestUpdateStatus_LeavingCancelledRefreshesIndex(t *testing.T) {
	f := newOrderFixture(t)
	o := processingOrder()
	o.Status = domain.StatusCancelled
	f.orders.On("GetByID", mock.Anything, "order-1").Return(o, nil)
	f.orders.On("UpdateStatus", mock.Anything, mock.Anything, domain.StatusCancelled).Return(nil)

	_, err := f.svc.UpdateStatus(context.Background(), "order-1", domain.StatusProcessing)

	require.NoError(t, err)
	assert.Equal(t, [][]string{{"p1"}}, f.index.refreshed)
}

func TestUpdateStatus_LeavingCancelledWithoutStock(t *testing.T) {
	f := newOrderFixture(t)
	o := processingOrder()
	o.Status = domain.StatusCancelled
	f.orders.On("GetByID", mock.Anything, "order-1").Return(o, nil)
	f.orders.On("UpdateStatus", mock.Anything, mock.Anything, domain.StatusCancelled).
		Return(&repository.InsufficientStockError{ProductID: "p1", Name: "Perfume p1", Requested: 2})

	_, err := f.svc.UpdateStatus(context.Background(), "order-1", domain.StatusProcessing)

	requireAppCode(t, err, "INSUFFICIENT_STOCK")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Empty(t, f.publisher.Topics())
	assert.Empty(t, f.index.refreshed)
}

func TestUpdateStatus_RuleViolations(t *testing.T) {
	tests := []struct {
		name    string
		current domain.OrderStatus
		target  domain.OrderStatus
		want    error
	}{
		{name: "backwards", current: domain.StatusShipped, target: domain.StatusConfirmed, want: apperrors.ErrInvalidTransition},
		{name: "cancel after shipping", current: domain.StatusShipped, target: domain.StatusCancelled, want: apperrors.ErrInvalidTransition},
		{name: "unknown status", current: domain.StatusProcessing, target: "Lost", want: apperrors.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newOrderFixture(t)
			o := processingOrder()
			o.Status = tt.current
			f.orders.On("GetByID", mock.Anything, "order-1").Return(o, nil)

			_, err := f.svc.UpdateStatus(context.Background(), "order-1", tt.target)

			assert.ErrorIs(t, err, tt.want)
			f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestUpdateStatus_LostRace(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("GetByID", mock.Anything, "order-1").Return(processingOrder(), nil)
	f.orders.On("UpdateStatus", mock.Anything, mock.Anything, domain.StatusProcessing).Return(repository.ErrStaleWrite)

	_, err := f.svc.UpdateStatus(context.Background(), "order-1", domain.StatusConfirmed)

	requireAppCode(t, err, "CONFLICT")
	assert.Empty(t, f.publisher.Topics())
}

// --- UpdatePayment ---

func TestUpdatePayment_PaidConfirms(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("GetByID", mock.Anything, "order-1").Return(processingOrder(), nil)
	f.orders.On("UpdatePayment", mock.Anything, mock.Anything, domain.StatusProcessing, domain.PaymentPending).Return(nil)

	o, err := f.svc.UpdatePayment(context.Background(), "order-1", &PaymentInput{
		Status:        domain.PaymentPaid,
		TransactionID: "pi_123",
		Provider:      "stripe",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, o.PaymentStatus)
	assert.Equal(t, domain.StatusConfirmed, o.Status)
	require.NotNil(t, o.PaymentDetails)
	assert.Equal(t, "pi_123", o.PaymentDetails.TransactionID)
	assert.False(t, o.PaymentDetails.Timestamp.IsZero())
	assert.Equal(t, []string{event.TopicOrderPaymentUpdated}, f.publisher.Topics())
}

func TestUpdatePayment_UnknownStatus(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("GetByID", mock.Anything, "order-1").Return(processingOrder(), nil)

	_, err := f.svc.UpdatePayment(context.Background(), "order-1", &PaymentInput{Status: "Chargeback"})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- DeleteOrder ---

func TestDeleteOrder(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("GetByID", mock.Anything, "order-1").Return(processingOrder(), nil)
	f.orders.On("Delete", mock.Anything, "order-1").Return(nil)

	require.NoError(t, f.svc.DeleteOrder(context.Background(), "order-1"))
	assert.Equal(t, [][]string{{"p1"}}, f.index.refreshed)
	assert.Equal(t, []string{event.TopicOrderDeleted}, f.publisher.Topics())
}

func TestDeleteOrder_Locked(t *testing.T) {
	f := newOrderFixture(t)
	paid := processingOrder()
	paid.Status = domain.StatusConfirmed
	paid.PaymentStatus = domain.PaymentPaid
	f.orders.On("GetByID", mock.Anything, "order-1").Return(paid, nil)

	err := f.svc.DeleteOrder(context.Background(), "order-1")

	requireAppCode(t, err, "ORDER_LOCKED")
	f.orders.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteOrder_LockedByConcurrentChange(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("GetByID", mock.Anything, "order-1").Return(processingOrder(), nil)
	f.orders.On("Delete", mock.Anything, "order-1").Return(repository.ErrOrderLocked)

	err := f.svc.DeleteOrder(context.Background(), "order-1")

	requireAppCode(t, err, "ORDER_LOCKED")
}

// --- Stats / List ---

func TestStats(t *testing.T) {
	f := newOrderFixture(t)
	f.orders.On("Stats", mock.Anything).Return(&domain.OrderStats{
		TotalOrders:    3,
		CountsByStatus: map[domain.OrderStatus]int{domain.StatusProcessing: 3},
		PaidRevenue:    0,
	}, nil)

	stats, err := f.svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "USD", stats.Currency)
	assert.Equal(t, 3, stats.TotalOrders)
}

func TestListOrders_InvalidFilter(t *testing.T) {
	f := newOrderFixture(t)
	bad := domain.PaymentStatus("Maybe")

	_, _, err := f.svc.ListOrders(context.Background(), repository.OrderFilter{PaymentStatus: &bad})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
