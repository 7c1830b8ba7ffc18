package order

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/electrosur/storefront/internal/cart"
	"github.com/electrosur/storefront/internal/errors"
	"github.com/electrosur/storefront/internal/money"
)

// DefaultTaxRate applies when a product carries no explicit rate.
// Inferred business default, kept in one place so it is one line to change.
var DefaultTaxRate = decimal.NewFromFloat(0.21)

// Totals are the amounts frozen onto the order at submission.
type Totals struct {
	Subtotal decimal.Decimal
	TaxTotal decimal.Decimal
	Total    decimal.Decimal
}

// Aggregate snapshots cart lines into order items and computes the totals
// that will be frozen onto the order. Lines priced in a currency other
// than the settlement currency are converted with sellRate (USD -> ARS);
// a missing rate with USD lines present is an error, never a fabricated
// conversion. Amounts round to 2 decimals at this point and not before.
func Aggregate(
	orderID uuid.UUID,
	lines []cart.Line,
	settlement money.Currency,
	sellRate decimal.Decimal,
) ([]Item, Totals, error) {
	if len(lines) == 0 {
		return nil, Totals{}, errors.ErrEmptyCart
	}

	items := make([]Item, 0, len(lines))
	subtotal := decimal.Zero
	taxTotal := decimal.Zero
	for _, l := range lines {
		if l.Quantity < 1 {
			return nil, Totals{}, fmt.Errorf(
				"line for product=%s has quantity=%d with error=%w",
				l.ProductID,
				l.Quantity,
				errors.ErrEmptyCart,
			)
		}

		unitPrice := l.UnitPrice
		if l.Currency != settlement {
			if l.Currency != money.USD || settlement != money.ARS {
				return nil, Totals{}, fmt.Errorf(
					"cannot settle %s line in %s with error=%w",
					l.Currency,
					settlement,
					errors.ErrRateUnavailable,
				)
			}
			if !sellRate.IsPositive() {
				return nil, Totals{}, errors.ErrRateUnavailable
			}
			unitPrice = l.UnitPrice.Mul(sellRate).Round(2)
		}

		taxRate := DefaultTaxRate
		if l.TaxRate.Valid {
			taxRate = l.TaxRate.Decimal
		}

		itemSubtotal := unitPrice.Mul(decimal.NewFromInt32(l.Quantity)).Round(2)
		items = append(items, Item{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: l.ProductID,
			Name:      l.Name,
			SKU:       l.SKU,
			Quantity:  l.Quantity,
			UnitPrice: unitPrice,
			TaxRate:   taxRate,
			Subtotal:  itemSubtotal,
			Currency:  settlement,
		})
		subtotal = subtotal.Add(itemSubtotal)
		taxTotal = taxTotal.Add(itemSubtotal.Mul(taxRate).Round(2))
	}

	return items, Totals{
		Subtotal: subtotal,
		TaxTotal: taxTotal,
		Total:    subtotal.Add(taxTotal),
	}, nil
}

// Recompute re-runs the totals computation over already-snapshotted items.
// For a submitted order it must reproduce the stored amounts exactly; it
// exists for verification, the stored totals stay authoritative.
func Recompute(items []Item) Totals {
	subtotal := decimal.Zero
	taxTotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Subtotal)
		taxTotal = taxTotal.Add(it.Subtotal.Mul(it.TaxRate).Round(2))
	}
	return Totals{Subtotal: subtotal, TaxTotal: taxTotal, Total: subtotal.Add(taxTotal)}
}
