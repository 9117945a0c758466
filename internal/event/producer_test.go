package event

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/domain"
	pkgkafka "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/kafka"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/logger"
)

func decodeEvent(t *testing.T, raw []byte, data any) *pkgkafka.Event {
	t.Helper()
	var evt pkgkafka.Event
	require.NoError(t, json.Unmarshal(raw, &evt))
	require.NoError(t, json.Unmarshal(evt.Data, data))
	return &evt
}

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func newTestProducer(w *recordingWriter) *Producer {
	l := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewProducer(pkgkafka.NewProducerWithWriter(w, nil, l), l)
}

func sampleOrder() *domain.Order {
	return &domain.Order{
		ID:            "order-1",
		OrderNumber:   "ORD-261015-0042",
		Status:        domain.StatusConfirmed,
		PaymentStatus: domain.PaymentPaid,
		Customer:      domain.Customer{Name: "Ana", Email: "ana@example.com"},
		Items: []domain.OrderItem{
			{ProductID: "p1", Name: "Oud Noir", Price: 12000, Quantity: 2},
		},
		Subtotal: 24000,
		Total:    24000,
		Currency: "USD",
		PaymentDetails: &domain.PaymentDetails{
			TransactionID: "tx-9",
			Provider:      "stripe",
		},
	}
}

func TestPublishOrderCreated(t *testing.T) {
	w := &recordingWriter{}
	p := newTestProducer(w)
	ctx := logger.WithCorrelationID(context.Background(), "corr-1")

	require.NoError(t, p.PublishOrderCreated(ctx, sampleOrder()))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, TopicOrderCreated, msg.Topic)
	assert.Equal(t, "order-1", string(msg.Key))

	var data OrderCreatedData
	evt := decodeEvent(t, msg.Value, &data)
	assert.Equal(t, AggregateTypeOrder, evt.AggregateType)
	assert.Equal(t, "corr-1", evt.CorrelationID)
	assert.Equal(t, "ORD-261015-0042", data.OrderNumber)
	assert.Equal(t, "ana@example.com", data.CustomerEmail)
	require.Len(t, data.Items, 1)
	assert.Equal(t, 2, data.Items[0].Quantity)
}

func TestPublishPaymentUpdated(t *testing.T) {
	w := &recordingWriter{}
	p := newTestProducer(w)

	require.NoError(t, p.PublishPaymentUpdated(context.Background(), sampleOrder(), domain.PaymentPending))

	var data OrderPaymentUpdatedData
	decodeEvent(t, w.msgs[0].Value, &data)
	assert.Equal(t, "Pending", data.OldPaymentStatus)
	assert.Equal(t, "Paid", data.NewPaymentStatus)
	assert.Equal(t, "tx-9", data.TransactionID)
}

func TestPublish_WriterError(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	p := newTestProducer(w)

	err := p.PublishStatusChanged(context.Background(), sampleOrder(), domain.StatusProcessing)

	assert.ErrorContains(t, err, "broker down")
	assert.ErrorContains(t, err, TopicOrderStatusChanged)
}

func TestDiscard(t *testing.T) {
	p := NewProducer(Discard{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.NoError(t, p.PublishOrderDeleted(context.Background(), sampleOrder()))
}
