package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/electrosur/storefront/internal/cart"
	inErrors "github.com/electrosur/storefront/internal/errors"
	"github.com/electrosur/storefront/internal/money"
)

func arsLine(price string, qty int32) cart.Line {
	return cart.Line{
		Key:       uuid.NewString(),
		ProductID: uuid.New(),
		Name:      "cable unipolar 2.5mm",
		SKU:       "CAB-25",
		Quantity:  qty,
		UnitPrice: decimal.RequireFromString(price),
		Currency:  money.ARS,
	}
}

func TestAggregate(t *testing.T) {
	orderId := uuid.New()

	t.Run("given one line with default tax should total subtotal plus tax", func(t *testing.T) {
		line := arsLine("100", 2)
		items, totals, err := Aggregate(orderId, []cart.Line{line}, money.ARS, decimal.Zero)

		assert.NoError(t, err)
		assert.Len(t, items, 1)
		assert.True(t, totals.Subtotal.Equal(decimal.NewFromInt(200)), "subtotal=%s", totals.Subtotal)
		assert.True(t, totals.TaxTotal.Equal(decimal.NewFromInt(42)), "taxTotal=%s", totals.TaxTotal)
		assert.True(t, totals.Total.Equal(decimal.NewFromInt(242)), "total=%s", totals.Total)
	})

	t.Run("given explicit tax rate should use it over the default", func(t *testing.T) {
		line := arsLine("100", 1)
		line.TaxRate = decimal.NewNullDecimal(decimal.RequireFromString("0.105"))
		_, totals, err := Aggregate(orderId, []cart.Line{line}, money.ARS, decimal.Zero)

		assert.NoError(t, err)
		assert.True(t, totals.TaxTotal.Equal(decimal.RequireFromString("10.5")), "taxTotal=%s", totals.TaxTotal)
	})

	t.Run("given usd line and sell rate should convert before totaling", func(t *testing.T) {
		line := arsLine("10", 1)
		line.Currency = money.USD
		items, totals, err := Aggregate(orderId, []cart.Line{line}, money.ARS, decimal.NewFromInt(1000))

		assert.NoError(t, err)
		assert.True(t, items[0].UnitPrice.Equal(decimal.NewFromInt(10000)), "unitPrice=%s", items[0].UnitPrice)
		assert.Equal(t, money.ARS, items[0].Currency)
		assert.True(t, totals.Subtotal.Equal(decimal.NewFromInt(10000)), "subtotal=%s", totals.Subtotal)
	})

	t.Run("given usd line and no sell rate should fail instead of fabricating", func(t *testing.T) {
		line := arsLine("10", 1)
		line.Currency = money.USD
		_, _, err := Aggregate(orderId, []cart.Line{line}, money.ARS, decimal.Zero)

		assert.ErrorIs(t, err, inErrors.ErrRateUnavailable)
	})

	t.Run("given empty cart should fail", func(t *testing.T) {
		_, _, err := Aggregate(orderId, nil, money.ARS, decimal.Zero)
		assert.ErrorIs(t, err, inErrors.ErrEmptyCart)
	})

	t.Run("given mixed lines should round per item", func(t *testing.T) {
		first := arsLine("99.99", 3)
		second := arsLine("0.01", 1)
		items, totals, err := Aggregate(orderId, []cart.Line{first, second}, money.ARS, decimal.Zero)

		assert.NoError(t, err)
		assert.True(t, items[0].Subtotal.Equal(decimal.RequireFromString("299.97")))
		assert.True(t, items[1].Subtotal.Equal(decimal.RequireFromString("0.01")))
		assert.True(t, totals.Subtotal.Equal(decimal.RequireFromString("299.98")), "subtotal=%s", totals.Subtotal)
	})
}

func TestRecomputeReproducesFrozenTotals(t *testing.T) {
	orderId := uuid.New()
	lines := []cart.Line{arsLine("123.45", 2), arsLine("0.99", 7)}
	lines[1].TaxRate = decimal.NewNullDecimal(decimal.RequireFromString("0.105"))

	items, totals, err := Aggregate(orderId, lines, money.ARS, decimal.Zero)
	assert.NoError(t, err)

	recomputed := Recompute(items)
	assert.True(t, recomputed.Subtotal.Equal(totals.Subtotal), "subtotal %s != %s", recomputed.Subtotal, totals.Subtotal)
	assert.True(t, recomputed.TaxTotal.Equal(totals.TaxTotal), "taxTotal %s != %s", recomputed.TaxTotal, totals.TaxTotal)
	assert.True(t, recomputed.Total.Equal(totals.Total), "total %s != %s", recomputed.Total, totals.Total)
}
