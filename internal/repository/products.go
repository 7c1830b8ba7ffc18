package repository

import (
	"context"

	"github.com/google/uuid"
)

const productColumns = `id, name, sku, price_base, currency, tax_rate, stock, created_at, updated_at`

const findProductById = `
SELECT ` + productColumns + `
FROM products
WHERE id = $1`

func (q *Queries) FindProductById(c context.Context, id uuid.UUID) (Product, error) {
	var p Product
	err := q.db.QueryRow(c, findProductById, id).Scan(
		&p.ID,
		&p.Name,
		&p.Sku,
		&p.PriceBase,
		&p.Currency,
		&p.TaxRate,
		&p.Stock,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

// DecreaseProductStock only lands when enough stock remains; zero rows
// affected means the product ran out.
const decreaseProductStock = `
UPDATE products
SET stock = stock - $2, updated_at = now()
WHERE id = $1 AND stock >= $2`

type ProductStockParams struct {
	ID       uuid.UUID
	Quantity int32
}

func (q *Queries) DecreaseProductStock(c context.Context, arg ProductStockParams) (int64, error) {
	tag, err := q.db.Exec(c, decreaseProductStock, arg.ID, arg.Quantity)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const increaseProductStock = `
UPDATE products
SET stock = stock + $2, updated_at = now()
WHERE id = $1`

func (q *Queries) IncreaseProductStock(c context.Context, arg ProductStockParams) error {
	_, err := q.db.Exec(c, increaseProductStock, arg.ID, arg.Quantity)
	return err
}
