package repository

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/electrosur/storefront/internal/cart"
	"github.com/electrosur/storefront/internal/money"
	"github.com/electrosur/storefront/internal/order"
)

func NumericFromDecimal(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{
		Exp:              d.Exponent(),
		InfinityModifier: pgtype.Finite,
		Int:              d.Coefficient(),
		NaN:              false,
		Valid:            true,
	}
}

func DecimalFromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func NullDecimalFromNumeric(n pgtype.Numeric) decimal.NullDecimal {
	if !n.Valid || n.Int == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: DecimalFromNumeric(n), Valid: true}
}

func (o Order) Domain(items []OrderItem) order.Order {
	domain := order.Order{
		ID:       o.ID,
		Code:     o.Code.String,
		Type:     order.Type(o.OrderType),
		Status:   order.Status(o.Status),
		Currency: money.Currency(o.Currency),
		Subtotal: DecimalFromNumeric(o.Subtotal),
		TaxTotal: DecimalFromNumeric(o.TaxTotal),
		Total:    DecimalFromNumeric(o.Total),
		ClientID: o.ClientID,
	}
	if o.SubmittedAt.Valid {
		submittedAt := o.SubmittedAt.Time
		domain.SubmittedAt = &submittedAt
	}
	if o.SellerID.Valid {
		sellerId := o.SellerID.UUID
		domain.SellerID = &sellerId
	}
	for _, item := range items {
		domain.Items = append(domain.Items, item.Domain())
	}
	return domain
}

func (i OrderItem) Domain() order.Item {
	return order.Item{
		ID:        i.ID,
		OrderID:   i.OrderID,
		ProductID: i.ProductID,
		Name:      i.Name,
		SKU:       i.Sku,
		Quantity:  i.Quantity,
		UnitPrice: DecimalFromNumeric(i.UnitPrice),
		TaxRate:   DecimalFromNumeric(i.TaxRate),
		Subtotal:  DecimalFromNumeric(i.Subtotal),
		Currency:  money.Currency(i.Currency),
	}
}

// CartLine presents a draft-order item through the cart contract.
func (i OrderItem) CartLine() cart.Line {
	return cart.Line{
		Key:       i.ID.String(),
		ProductID: i.ProductID,
		Name:      i.Name,
		SKU:       i.Sku,
		Quantity:  i.Quantity,
		UnitPrice: DecimalFromNumeric(i.UnitPrice),
		TaxRate:   NullDecimalFromNumeric(i.TaxRate),
		Currency:  money.Currency(i.Currency),
	}
}

func (p Product) CartProduct() cart.Product {
	return cart.Product{
		ID:       p.ID,
		Name:     p.Name,
		SKU:      p.Sku,
		Price:    DecimalFromNumeric(p.PriceBase),
		Currency: money.Currency(p.Currency),
		TaxRate:  NullDecimalFromNumeric(p.TaxRate),
	}
}
