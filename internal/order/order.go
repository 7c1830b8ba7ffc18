package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/electrosur/storefront/internal/money"
)

type Type string

const (
	TypeQuote Type = "QUOTE"
	TypeOrder Type = "ORDER"
)

// Order is the lifecycle aggregate. Subtotal, TaxTotal and Total are
// computed once at submission and never change afterwards, whatever the
// catalog does to its prices later.
type Order struct {
	ID          uuid.UUID       `json:"id"`
	Code        string          `json:"code"`
	Type        Type            `json:"type"`
	Status      Status          `json:"status"`
	Currency    money.Currency  `json:"currency"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxTotal    decimal.Decimal `json:"taxTotal"`
	Total       decimal.Decimal `json:"total"`
	SubmittedAt *time.Time      `json:"submittedAt,omitempty"`
	ClientID    uuid.UUID       `json:"clientId"`
	SellerID    *uuid.UUID      `json:"sellerId,omitempty"`
	Items       []Item          `json:"items,omitempty"`
}

// Item is an immutable snapshot of a cart line taken at submission time.
// Draft-order edits replace items; nothing patches one in place.
type Item struct {
	ID        uuid.UUID           `json:"id"`
	OrderID   uuid.UUID           `json:"orderId"`
	ProductID uuid.UUID           `json:"productId"`
	Name      string              `json:"name"`
	SKU       string              `json:"sku"`
	Quantity  int32               `json:"quantity"`
	UnitPrice decimal.Decimal     `json:"unitPrice"`
	TaxRate   decimal.Decimal     `json:"taxRate"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Currency  money.Currency  `json:"currency"`
}
