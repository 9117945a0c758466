// Package event publishes order domain events.
package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/domain"
	pkgkafka "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/kafka"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/logger"
)

// Kafka topics for order events.
const (
	TopicOrderCreated        = "perfume.order.created"
	TopicOrderStatusChanged  = "perfume.order.status_changed"
	TopicOrderPaymentUpdated = "perfume.order.payment_updated"
	TopicOrderDeleted        = "perfume.order.deleted"
)

const (
	AggregateTypeOrder = "order"
	Source             = "perfume-store"
)

// Publisher writes an event to a topic. *pkgkafka.Producer implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// OrderItemData is one line of an order.created payload.
type OrderItemData struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
}

// OrderCreatedData is the payload of order.created.
type OrderCreatedData struct {
	OrderID       string          `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	CustomerEmail string          `json:"customer_email"`
	Items         []OrderItemData `json:"items"`
	Subtotal      int64           `json:"subtotal"`
	ShippingCost  int64           `json:"shipping_cost"`
	Tax           int64           `json:"tax"`
	Total         int64           `json:"total"`
	Currency      string          `json:"currency"`
	CreatedAt     time.Time       `json:"created_at"`
}

// OrderStatusChangedData is the payload of order.status_changed.
type OrderStatusChangedData struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	OldStatus   string `json:"old_status"`
	NewStatus   string `json:"new_status"`
}

// OrderPaymentUpdatedData is the payload of order.payment_updated.
type OrderPaymentUpdatedData struct {
	OrderID          string `json:"order_id"`
	OrderNumber      string `json:"order_number"`
	OldPaymentStatus string `json:"old_payment_status"`
	NewPaymentStatus string `json:"new_payment_status"`
	Status           string `json:"status"`
	TransactionID    string `json:"transaction_id,omitempty"`
	Provider         string `json:"provider,omitempty"`
}

// OrderDeletedData is the payload of order.deleted.
type OrderDeletedData struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
}

// Producer publishes order events.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates an order event producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

// PublishOrderCreated publishes order.created.
func (p *Producer) PublishOrderCreated(ctx context.Context, o *domain.Order) error {
	items := make([]OrderItemData, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemData{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	return p.publish(ctx, TopicOrderCreated, o.ID, OrderCreatedData{
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		CustomerEmail: o.Customer.Email,
		Items:         items,
		Subtotal:      o.Subtotal,
		ShippingCost:  o.ShippingCost,
		Tax:           o.Tax,
		Total:         o.Total,
		Currency:      o.Currency,
		CreatedAt:     o.CreatedAt,
	})
}

// PublishStatusChanged publishes order.status_changed.
func (p *Producer) PublishStatusChanged(ctx context.Context, o *domain.Order, old domain.OrderStatus) error {
	return p.publish(ctx, TopicOrderStatusChanged, o.ID, OrderStatusChangedData{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		OldStatus:   string(old),
		NewStatus:   string(o.Status),
	})
}

// PublishPaymentUpdated publishes order.payment_updated.
func (p *Producer) PublishPaymentUpdated(ctx context.Context, o *domain.Order, old domain.PaymentStatus) error {
	data := OrderPaymentUpdatedData{
		OrderID:          o.ID,
		OrderNumber:      o.OrderNumber,
		OldPaymentStatus: string(old),
		NewPaymentStatus: string(o.PaymentStatus),
		Status:           string(o.Status),
	}
	if o.PaymentDetails != nil {
		data.TransactionID = o.PaymentDetails.TransactionID
		data.Provider = o.PaymentDetails.Provider
	}
	return p.publish(ctx, TopicOrderPaymentUpdated, o.ID, data)
}

// PublishOrderDeleted publishes order.deleted.
func (p *Producer) PublishOrderDeleted(ctx context.Context, o *domain.Order) error {
	return p.publish(ctx, TopicOrderDeleted, o.ID, OrderDeletedData{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
	})
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, aggregateID, AggregateTypeOrder, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published order event",
		slog.String("topic", topic),
		slog.String("order_id", aggregateID),
	)
	return nil
}

// Discard is a Publisher that drops events, used when Kafka is disabled.
type Discard struct{}

// Publish implements Publisher.
func (Discard) Publish(context.Context, string, *pkgkafka.Event) error { return nil }
