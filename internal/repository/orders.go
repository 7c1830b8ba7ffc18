package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderColumns = `id, code, order_type, status, currency, subtotal, tax_total, total, submitted_at, client_id, seller_id, created_at, updated_at`

func scanOrder(row interface{ Scan(dest ...any) error }) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.Code,
		&o.OrderType,
		&o.Status,
		&o.Currency,
		&o.Subtotal,
		&o.TaxTotal,
		&o.Total,
		&o.SubmittedAt,
		&o.ClientID,
		&o.SellerID,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	return o, err
}

const insertDraftOrder = `
INSERT INTO orders (id, order_type, status, currency, client_id)
VALUES ($1, $2, 'DRAFT', $3, $4)
RETURNING ` + orderColumns

type InsertDraftOrderParams struct {
	ID        uuid.UUID
	OrderType string
	Currency  string
	ClientID  uuid.UUID
}

func (q *Queries) InsertDraftOrder(c context.Context, arg InsertDraftOrderParams) (Order, error) {
	row := q.db.QueryRow(c, insertDraftOrder, arg.ID, arg.OrderType, arg.Currency, arg.ClientID)
	return scanOrder(row)
}

const findDraftOrderByClient = `
SELECT ` + orderColumns + `
FROM orders
WHERE client_id = $1 AND status = 'DRAFT'
ORDER BY created_at DESC
LIMIT 1`

func (q *Queries) FindDraftOrderByClient(c context.Context, clientID uuid.UUID) (Order, error) {
	row := q.db.QueryRow(c, findDraftOrderByClient, clientID)
	return scanOrder(row)
}

const findOrderById = `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1`

func (q *Queries) FindOrderById(c context.Context, id uuid.UUID) (Order, error) {
	row := q.db.QueryRow(c, findOrderById, id)
	return scanOrder(row)
}

const findOrdersByClient = `
SELECT ` + orderColumns + `
FROM orders
WHERE client_id = $1
ORDER BY created_at DESC`

func (q *Queries) FindOrdersByClient(c context.Context, clientID uuid.UUID) ([]Order, error) {
	rows, err := q.db.Query(c, findOrdersByClient, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const findOrdersBySeller = `
SELECT ` + orderColumns + `
FROM orders
WHERE seller_id = $1
ORDER BY created_at DESC`

func (q *Queries) FindOrdersBySeller(c context.Context, sellerID uuid.UUID) ([]Order, error) {
	rows, err := q.db.Query(c, findOrdersBySeller, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

const findAllOrders = `
SELECT ` + orderColumns + `
FROM orders
ORDER BY created_at DESC`

func (q *Queries) FindAllOrders(c context.Context) ([]Order, error) {
	rows, err := q.db.Query(c, findAllOrders)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// SubmitOrder freezes the computed totals onto the order and moves it to
// SUBMITTED, guarded on the row still being DRAFT. Zero rows affected
// means the status changed concurrently.
const submitOrder = `
UPDATE orders
SET status = 'SUBMITTED',
    code = $2,
    subtotal = $3,
    tax_total = $4,
    total = $5,
    currency = $6,
    submitted_at = now(),
    updated_at = now()
WHERE id = $1 AND status = 'DRAFT'`

type SubmitOrderParams struct {
	ID       uuid.UUID
	Code     string
	Subtotal pgtype.Numeric
	TaxTotal pgtype.Numeric
	Total    pgtype.Numeric
	Currency string
}

func (q *Queries) SubmitOrder(c context.Context, arg SubmitOrderParams) (int64, error) {
	tag, err := q.db.Exec(
		c,
		submitOrder,
		arg.ID,
		arg.Code,
		arg.Subtotal,
		arg.TaxTotal,
		arg.Total,
		arg.Currency,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// UpdateOrderStatus is the compare-and-swap every non-submit transition
// goes through: the write only lands when the row still carries the
// status the transition was computed from.
const updateOrderStatus = `
UPDATE orders
SET status = $3, updated_at = now()
WHERE id = $1 AND status = $2`

type UpdateOrderStatusParams struct {
	ID         uuid.UUID
	FromStatus string
	ToStatus   string
}

func (q *Queries) UpdateOrderStatus(c context.Context, arg UpdateOrderStatusParams) (int64, error) {
	tag, err := q.db.Exec(c, updateOrderStatus, arg.ID, arg.FromStatus, arg.ToStatus)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const assignOrderSeller = `
UPDATE orders
SET status = 'ASSIGNED', seller_id = $2, updated_at = now()
WHERE id = $1 AND status = 'APPROVED'`

type AssignOrderSellerParams struct {
	ID       uuid.UUID
	SellerID uuid.UUID
}

func (q *Queries) AssignOrderSeller(c context.Context, arg AssignOrderSellerParams) (int64, error) {
	tag, err := q.db.Exec(c, assignOrderSeller, arg.ID, arg.SellerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const nextOrderCode = `SELECT nextval('order_code_seq')`

func (q *Queries) NextOrderCode(c context.Context) (int64, error) {
	var seq int64
	err := q.db.QueryRow(c, nextOrderCode).Scan(&seq)
	return seq, err
}
