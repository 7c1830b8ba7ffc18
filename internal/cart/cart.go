// Package cart holds the session cart behind one contract with two
// backing implementations: a redis-backed store for anonymous sessions
// and a server store mutating the authenticated user's draft order.
package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/electrosur/storefront/internal/money"
)

// Product is the catalog view a line is built from.
type Product struct {
	ID       uuid.UUID           `json:"id"`
	Name     string              `json:"name"`
	SKU      string              `json:"sku"`
	Price    decimal.Decimal     `json:"price"`
	Currency money.Currency      `json:"currency"`
	TaxRate  decimal.NullDecimal `json:"taxRate"`
}

// Line is one product+quantity+price entry. Key identifies the line within
// its store: the product id for the anonymous store, the server-issued item
// id for the draft-order store. Quantity is always >= 1 while the line
// exists; removal is an explicit operation, never quantity zero.
type Line struct {
	Key       string              `json:"key"`
	ProductID uuid.UUID           `json:"productId"`
	Name      string              `json:"name"`
	SKU       string              `json:"sku"`
	Quantity  int32               `json:"qty"`
	UnitPrice decimal.Decimal     `json:"price"`
	TaxRate   decimal.NullDecimal `json:"taxRate"`
	Currency  money.Currency      `json:"currency"`
}

type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
}

// Store is the shared cart contract. Quantity arguments go through the
// money normalizer, so a quantity below one is clamped to one; callers
// wanting removal call RemoveLine.
type Store interface {
	AddLine(c context.Context, product Product, quantity interface{}) error
	SetQuantity(c context.Context, lineKey string, quantity interface{}) error
	RemoveLine(c context.Context, lineKey string) error
	Clear(c context.Context) error
	Lines(c context.Context) ([]Line, error)
	Totals(c context.Context) (Totals, error)
}

// SumTotals computes the cart-level subtotal. No tax applies at cart
// level; tax is computed only when an order is aggregated.
func SumTotals(lines []Line) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity)))
	}
	return Totals{Subtotal: subtotal}
}

// MergeLine merges product+quantity into lines: an existing line for the
// same product gains quantity, otherwise a new line is appended.
func MergeLine(lines []Line, product Product, quantity int32) []Line {
	for i, l := range lines {
		if l.ProductID == product.ID {
			lines[i].Quantity = l.Quantity + quantity
			return lines
		}
	}
	return append(lines, Line{
		Key:       product.ID.String(),
		ProductID: product.ID,
		Name:      product.Name,
		SKU:       product.SKU,
		Quantity:  quantity,
		UnitPrice: product.Price,
		TaxRate:   product.TaxRate,
		Currency:  product.Currency,
	})
}
