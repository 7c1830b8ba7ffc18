package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const orderItemColumns = `id, order_id, product_id, name, sku, quantity, unit_price, tax_rate, subtotal, currency, created_at`

func scanOrderItem(row interface{ Scan(dest ...any) error }) (OrderItem, error) {
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderID,
		&i.ProductID,
		&i.Name,
		&i.Sku,
		&i.Quantity,
		&i.UnitPrice,
		&i.TaxRate,
		&i.Subtotal,
		&i.Currency,
		&i.CreatedAt,
	)
	return i, err
}

const findOrderItems = `
SELECT ` + orderItemColumns + `
FROM order_items
WHERE order_id = $1
ORDER BY created_at`

func (q *Queries) FindOrderItems(c context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(c, findOrderItems, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []OrderItem{}
	for rows.Next() {
		i, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const findOrderItemById = `
SELECT ` + orderItemColumns + `
FROM order_items
WHERE id = $1 AND order_id = $2`

type FindOrderItemByIdParams struct {
	ID      uuid.UUID
	OrderID uuid.UUID
}

func (q *Queries) FindOrderItemById(c context.Context, arg FindOrderItemByIdParams) (OrderItem, error) {
	row := q.db.QueryRow(c, findOrderItemById, arg.ID, arg.OrderID)
	return scanOrderItem(row)
}

// UpsertOrderItem merges an added product into the draft order: the same
// product gains quantity instead of producing a second line.
const upsertOrderItem = `
INSERT INTO order_items (id, order_id, product_id, name, sku, quantity, unit_price, tax_rate, currency)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (order_id, product_id)
DO UPDATE SET quantity = order_items.quantity + EXCLUDED.quantity
RETURNING ` + orderItemColumns

type UpsertOrderItemParams struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Name      string
	Sku       string
	Quantity  int32
	UnitPrice pgtype.Numeric
	TaxRate   pgtype.Numeric
	Currency  string
}

func (q *Queries) UpsertOrderItem(c context.Context, arg UpsertOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(
		c,
		upsertOrderItem,
		arg.ID,
		arg.OrderID,
		arg.ProductID,
		arg.Name,
		arg.Sku,
		arg.Quantity,
		arg.UnitPrice,
		arg.TaxRate,
		arg.Currency,
	)
	return scanOrderItem(row)
}

const updateOrderItemQuantity = `
UPDATE order_items
SET quantity = $3
WHERE id = $1 AND order_id = $2`

type UpdateOrderItemQuantityParams struct {
	ID       uuid.UUID
	OrderID  uuid.UUID
	Quantity int32
}

func (q *Queries) UpdateOrderItemQuantity(
	c context.Context,
	arg UpdateOrderItemQuantityParams,
) (int64, error) {
	tag, err := q.db.Exec(c, updateOrderItemQuantity, arg.ID, arg.OrderID, arg.Quantity)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const deleteOrderItem = `
DELETE FROM order_items
WHERE id = $1 AND order_id = $2`

type DeleteOrderItemParams struct {
	ID      uuid.UUID
	OrderID uuid.UUID
}

func (q *Queries) DeleteOrderItem(c context.Context, arg DeleteOrderItemParams) (int64, error) {
	tag, err := q.db.Exec(c, deleteOrderItem, arg.ID, arg.OrderID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const deleteOrderItems = `
DELETE FROM order_items
WHERE order_id = $1`

func (q *Queries) DeleteOrderItems(c context.Context, orderID uuid.UUID) error {
	_, err := q.db.Exec(c, deleteOrderItems, orderID)
	return err
}

// ReplaceOrderItems rewrites the draft order's lines with the aggregated
// snapshot at submission time: items are replaced, never patched.
const insertOrderItem = `
INSERT INTO order_items (id, order_id, product_id, name, sku, quantity, unit_price, tax_rate, subtotal, currency)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

type InsertOrderItemParams struct {
	ID        uuid.UUID
	OrderID   uuid.UUID
	ProductID uuid.UUID
	Name      string
	Sku       string
	Quantity  int32
	UnitPrice pgtype.Numeric
	TaxRate   pgtype.Numeric
	Subtotal  pgtype.Numeric
	Currency  string
}

func (q *Queries) InsertOrderItems(c context.Context, args []InsertOrderItemParams) (int64, error) {
	var inserted int64
	for _, arg := range args {
		tag, err := q.db.Exec(
			c,
			insertOrderItem,
			arg.ID,
			arg.OrderID,
			arg.ProductID,
			arg.Name,
			arg.Sku,
			arg.Quantity,
			arg.UnitPrice,
			arg.TaxRate,
			arg.Subtotal,
			arg.Currency,
		)
		if err != nil {
			return inserted, err
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}
