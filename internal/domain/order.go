// Package domain holds the storefront entities and the rules that govern
// them: the order lifecycle guard and the cart stock reconciler. Nothing in
// this package performs I/O.
package domain

import (
	"time"
)

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	StatusProcessing OrderStatus = "Processing"
	StatusConfirmed  OrderStatus = "Confirmed"
	StatusShipped    OrderStatus = "Shipped"
	StatusDelivered  OrderStatus = "Delivered"
	StatusCancelled  OrderStatus = "Cancelled"
)

// PaymentStatus is the payment state of an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentFailed   PaymentStatus = "Failed"
	PaymentRefunded PaymentStatus = "Refunded"
)

// statusOrdinal ranks the forward path. Cancelled is deliberately absent.
var statusOrdinal = map[OrderStatus]int{
	StatusProcessing: 0,
	StatusConfirmed:  1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

// OrderStatuses lists every fulfillment status.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{StatusProcessing, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled}
}

// PaymentStatuses lists every payment status.
func PaymentStatuses() []PaymentStatus {
	return []PaymentStatus{PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded}
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusProcessing, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Valid reports whether p is a known payment status.
func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// Customer identifies who placed an order.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Address is a postal shipping address.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// PaymentDetails is recorded verbatim alongside a payment status change.
type PaymentDetails struct {
	TransactionID string    `json:"transaction_id,omitempty"`
	Provider      string    `json:"provider,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Order is a placed order. Items and totals are a snapshot taken at
// checkout and never follow later catalog changes.
type Order struct {
	ID              string          `json:"id"`
	OrderNumber     string          `json:"order_number"`
	Status          OrderStatus     `json:"status"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	PaymentDetails  *PaymentDetails `json:"payment_details,omitempty"`
	Customer        Customer        `json:"customer"`
	ShippingAddress Address         `json:"shipping_address"`
	Notes           string          `json:"notes,omitempty"`
	Items           []OrderItem     `json:"items"`
	Subtotal        int64           `json:"subtotal"`
	ShippingCost    int64           `json:"shipping_cost"`
	Tax             int64           `json:"tax"`
	Total           int64           `json:"total"`
	Currency        string          `json:"currency"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

var now = time.Now

// SetStatus moves the order to status, enforcing two rules:
//
//  1. Cancelled is only reachable from Processing or Confirmed.
//  2. Outside cancellation, the status never moves backwards along
//     Processing → Confirmed → Shipped → Delivered.
//
// Rule 2 is only evaluated while the current status is not Cancelled, so a
// cancelled order can be moved to any status. On error the order is left
// untouched.
func (o *Order) SetStatus(status OrderStatus) error {
	if !status.Valid() {
		return &ValueError{Field: "status", Value: string(status), Allowed: statusStrings()}
	}

	if status == StatusCancelled {
		if o.Status != StatusProcessing && o.Status != StatusConfirmed {
			return &TransitionError{From: o.Status, To: status}
		}
	} else if o.Status != StatusCancelled {
		if statusOrdinal[status] < statusOrdinal[o.Status] {
			return &TransitionError{From: o.Status, To: status}
		}
	}

	o.Status = status
	return nil
}

// SetPaymentStatus records a payment status. Any known value is accepted.
// Paid on a Processing order also confirms it, without running SetStatus.
// Non-nil details replace the stored ones; a zero timestamp becomes now.
func (o *Order) SetPaymentStatus(status PaymentStatus, details *PaymentDetails) error {
	if !status.Valid() {
		return &ValueError{Field: "payment status", Value: string(status), Allowed: paymentStrings()}
	}

	o.PaymentStatus = status
	if details != nil {
		d := *details
		if d.Timestamp.IsZero() {
			d.Timestamp = now().UTC()
		}
		o.PaymentDetails = &d
	}

	if status == PaymentPaid && o.Status == StatusProcessing {
		o.Status = StatusConfirmed
	}
	return nil
}

// Deletable reports whether the order is still early enough to be removed:
// not yet shipped or confirmed, and no money captured.
func (o *Order) Deletable() bool {
	statusOK := o.Status == StatusProcessing || o.Status == StatusCancelled
	paymentOK := o.PaymentStatus == PaymentPending || o.PaymentStatus == PaymentFailed
	return statusOK && paymentOK
}

// ItemCount is the total quantity across all items.
func (o *Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}

func statusStrings() []string {
	out := make([]string, 0, 5)
	for _, s := range OrderStatuses() {
		out = append(out, string(s))
	}
	return out
}

func paymentStrings() []string {
	out := make([]string, 0, 4)
	for _, p := range PaymentStatuses() {
		out = append(out, string(p))
	}
	return out
}
