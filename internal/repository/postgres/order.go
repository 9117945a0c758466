package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/domain"
	"github.com/SherMuhammadgithub/perfume-site-sub000/internal/repository"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/database"
	apperrors "github.com/SherMuhammadgithub/perfume-site-sub000/pkg/errors"
	"github.com/SherMuhammadgithub/perfume-site-sub000/pkg/pagination"
)

const orderColumns = `o.id, o.order_number, o.status, o.payment_status, o.payment_details, o.customer,
	o.shipping_address, o.notes, o.subtotal, o.shipping_cost, o.tax, o.total, o.currency,
	o.created_at, o.updated_at`

const restockQuery = `
	UPDATE products p
	SET stock = p.stock + oi.quantity, updated_at = now()
	FROM order_items oi
	WHERE oi.order_id = $1 AND p.id = oi.product_id`

// reserveQuery takes $1 units of product $2 unless fewer are left.
const reserveQuery = `
	UPDATE products SET stock = stock - $1, updated_at = now()
	WHERE id = $2 AND stock >= $1`

// heldItemsQuery lists the items of order $1 whose product still exists,
// locking those products.
const heldItemsQuery = `
	SELECT oi.product_id, oi.name, oi.quantity
	FROM order_items oi
	JOIN products p ON p.id = oi.product_id
	WHERE oi.order_id = $1
	ORDER BY oi.product_id
	FOR UPDATE OF p`

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts the order, its items and the matching stock decrements in
// one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	ctx, end := database.TraceQuery(ctx, "CreateOrder", "INSERT INTO orders")
	defer func() { end(err) }()

	customerJSON, err := json.Marshal(o.Customer)
	if err != nil {
		return fmt.Errorf("marshal customer: %w", err)
	}
	addressJSON, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshal shipping address: %w", err)
	}
	paymentJSON, err := marshalPaymentDetails(o.PaymentDetails)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	orderQuery := `
		INSERT INTO orders (id, order_number, status, payment_status, payment_details, customer, shipping_address,
			notes, subtotal, shipping_cost, tax, total, currency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err = tx.Exec(ctx, orderQuery,
		o.ID,
		o.OrderNumber,
		string(o.Status),
		string(o.PaymentStatus),
		paymentJSON,
		customerJSON,
		addressJSON,
		o.Notes,
		o.Subtotal,
		o.ShippingCost,
		o.Tax,
		o.Total,
		o.Currency,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return repository.ErrDuplicateOrderNumber
		}
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, name, image_url, price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for _, item := range o.Items {
		ct, err := tx.Exec(ctx, reserveQuery, item.Quantity, item.ProductID)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return &repository.InsufficientStockError{ProductID: item.ProductID, Name: item.Name, Requested: item.Quantity}
		}

		_, err = tx.Exec(ctx, itemQuery,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Name,
			item.ImageURL,
			item.Price,
			item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByID retrieves an order with its items.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.getOne(ctx, "o.id = $1", id)
}

// GetByNumber retrieves an order by its public order number.
func (r *OrderRepository) GetByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return r.getOne(ctx, "o.order_number = $1", number)
}

func (r *OrderRepository) getOne(ctx context.Context, where, key string) (o *domain.Order, err error) {
	// Items are folded into one row so a lookup is a single round trip.
	query := fmt.Sprintf(`
		SELECT %s,
			COALESCE(
				JSONB_AGG(
					JSONB_BUILD_OBJECT(
						'id', oi.id,
						'order_id', oi.order_id,
						'product_id', oi.product_id,
						'name', oi.name,
						'image_url', oi.image_url,
						'price', oi.price,
						'quantity', oi.quantity
					) ORDER BY oi.created_at, oi.id
				) FILTER (WHERE oi.id IS NOT NULL),
				'[]'::jsonb
			) AS items
		FROM orders o
		LEFT JOIN order_items oi ON o.id = oi.order_id
		WHERE %s
		GROUP BY o.id`, orderColumns, where)

	ctx, end := database.TraceQuery(ctx, "GetOrder", query)
	defer func() { end(err) }()

	var itemsJSON []byte
	o, err = scanOrder(r.pool.QueryRow(ctx, query, key), &itemsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", key)
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	o.Items = []domain.OrderItem{}
	if len(itemsJSON) > 0 && string(itemsJSON) != "null" {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
	}
	return o, nil
}

// List returns orders matching the filter, newest first, with the total count.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argIndex))
		args = append(args, string(*filter.Status))
		argIndex++
	}

	if filter.PaymentStatus != nil {
		conditions = append(conditions, fmt.Sprintf("o.payment_status = $%d", argIndex))
		args = append(args, string(*filter.PaymentStatus))
		argIndex++
	}

	if q := strings.TrimSpace(filter.Query); q != "" {
		conditions = append(conditions, fmt.Sprintf("(o.order_number = $%d OR lower(o.customer->>'email') = lower($%d))", argIndex, argIndex))
		args = append(args, q)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM orders o
		%s
		ORDER BY o.created_at DESC
		LIMIT $%d OFFSET $%d`,
		orderColumns, whereClause, argIndex, argIndex+1,
	)

	page := pagination.Params{Page: filter.Page, PerPage: filter.PerPage}.Normalize()
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var totalCount int
	orders := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows, &totalCount)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, totalCount, nil
}

// attachItems batch-loads the items of every order in one query.
func (r *OrderRepository) attachItems(ctx context.Context, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, product_id, name, image_url, price, quantity
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY created_at, id`, ids)
	if err != nil {
		return fmt.Errorf("batch load order items: %w", err)
	}
	defer rows.Close()

	byOrder := make(map[string][]domain.OrderItem, len(orders))
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Name, &it.ImageURL, &it.Price, &it.Quantity); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order item rows: %w", err)
	}

	for i := range orders {
		if items, ok := byOrder[orders[i].ID]; ok {
			orders[i].Items = items
		} else {
			orders[i].Items = []domain.OrderItem{}
		}
	}
	return nil
}

// UpdateStatus writes o.Status if the stored status is still prev. Moving
// to Cancelled returns the items to stock; moving out of Cancelled takes
// them again and fails with InsufficientStockError if any is short.
func (r *OrderRepository) UpdateStatus(ctx context.Context, o *domain.Order, prev domain.OrderStatus) (err error) {
	ctx, end := database.TraceQuery(ctx, "UpdateOrderStatus", "UPDATE orders SET status")
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		string(o.Status), o.UpdatedAt, o.ID, string(prev),
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrStaleWrite
	}

	switch {
	case o.Status == domain.StatusCancelled && prev != domain.StatusCancelled:
		if _, err := tx.Exec(ctx, restockQuery, o.ID); err != nil {
			return fmt.Errorf("restock cancelled order: %w", err)
		}
	case prev == domain.StatusCancelled && o.Status != domain.StatusCancelled:
		if err := reserveHeldItems(ctx, tx, o.ID); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// reserveHeldItems takes stock again for a cancelled order being revived.
// Items whose product was deleted are skipped, as restockQuery skips them.
func reserveHeldItems(ctx context.Context, tx pgx.Tx, orderID string) error {
	rows, err := tx.Query(ctx, heldItemsQuery, orderID)
	if err != nil {
		return fmt.Errorf("lock order products: %w", err)
	}
	var items []domain.OrderItem
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Quantity); err != nil {
			rows.Close()
			return fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order items: %w", err)
	}

	for _, item := range items {
		ct, err := tx.Exec(ctx, reserveQuery, item.Quantity, item.ProductID)
		if err != nil {
			return fmt.Errorf("reserve stock: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return &repository.InsufficientStockError{ProductID: item.ProductID, Name: item.Name, Requested: item.Quantity}
		}
	}
	return nil
}

// UpdatePayment writes the payment fields and status of o if neither the
// status nor the payment status changed since they were read.
func (r *OrderRepository) UpdatePayment(ctx context.Context, o *domain.Order, prevStatus domain.OrderStatus, prevPayment domain.PaymentStatus) error {
	paymentJSON, err := marshalPaymentDetails(o.PaymentDetails)
	if err != nil {
		return err
	}

	query := `
		UPDATE orders
		SET status = $1, payment_status = $2, payment_details = $3, updated_at = $4
		WHERE id = $5 AND status = $6 AND payment_status = $7`

	ct, err := r.pool.Exec(ctx, query,
		string(o.Status),
		string(o.PaymentStatus),
		paymentJSON,
		o.UpdatedAt,
		o.ID,
		string(prevStatus),
		string(prevPayment),
	)
	if err != nil {
		return fmt.Errorf("update order payment: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrStaleWrite
	}
	return nil
}

// Delete removes a deletable order. Stock held by a Processing order is
// returned first; a Cancelled order already gave it back.
func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status, payment string
	err = tx.QueryRow(ctx, `SELECT status, payment_status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&status, &payment)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("order", id)
		}
		return fmt.Errorf("lock order: %w", err)
	}

	o := domain.Order{Status: domain.OrderStatus(status), PaymentStatus: domain.PaymentStatus(payment)}
	if !o.Deletable() {
		return repository.ErrOrderLocked
	}

	if o.Status == domain.StatusProcessing {
		if _, err := tx.Exec(ctx, restockQuery, id); err != nil {
			return fmt.Errorf("restock deleted order: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Stats aggregates order counts per status and revenue from paid orders.
func (r *OrderRepository) Stats(ctx context.Context) (*domain.OrderStats, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, count(*), COALESCE(sum(total) FILTER (WHERE payment_status = $1), 0)
		FROM orders
		GROUP BY status`, string(domain.PaymentPaid))
	if err != nil {
		return nil, fmt.Errorf("order stats: %w", err)
	}
	defer rows.Close()

	stats := &domain.OrderStats{CountsByStatus: make(map[domain.OrderStatus]int)}
	for _, s := range domain.OrderStatuses() {
		stats.CountsByStatus[s] = 0
	}
	for rows.Next() {
		var (
			status  string
			count   int
			revenue int64
		)
		if err := rows.Scan(&status, &count, &revenue); err != nil {
			return nil, fmt.Errorf("scan order stats: %w", err)
		}
		stats.CountsByStatus[domain.OrderStatus(status)] = count
		stats.TotalOrders += count
		stats.PaidRevenue += revenue
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order stats: %w", err)
	}
	return stats, nil
}

func scanOrder(row pgx.Row, extra ...any) (*domain.Order, error) {
	var (
		o                     domain.Order
		status, payment       string
		paymentJSON           []byte
		customerJSON, address []byte
	)
	dest := []any{
		&o.ID,
		&o.OrderNumber,
		&status,
		&payment,
		&paymentJSON,
		&customerJSON,
		&address,
		&o.Notes,
		&o.Subtotal,
		&o.ShippingCost,
		&o.Tax,
		&o.Total,
		&o.Currency,
		&o.CreatedAt,
		&o.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	o.PaymentStatus = domain.PaymentStatus(payment)

	if err := json.Unmarshal(customerJSON, &o.Customer); err != nil {
		return nil, fmt.Errorf("unmarshal customer: %w", err)
	}
	if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("unmarshal shipping address: %w", err)
	}
	if len(paymentJSON) > 0 && string(paymentJSON) != "null" {
		var d domain.PaymentDetails
		if err := json.Unmarshal(paymentJSON, &d); err != nil {
			return nil, fmt.Errorf("unmarshal payment details: %w", err)
		}
		o.PaymentDetails = &d
	}
	return &o, nil
}

func marshalPaymentDetails(d *domain.PaymentDetails) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal payment details: %w", err)
	}
	return b, nil
}
