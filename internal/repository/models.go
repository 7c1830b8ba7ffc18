package repository

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Order struct {
	ID          uuid.UUID
	Code        pgtype.Text
	OrderType   string
	Status      string
	Currency    string
	Subtotal    pgtype.Numeric
	TaxTotal    pgtype.Numeric
	Total       pgtype.Numeric
	SubmittedAt pgtype.Timestamptz
	ClientID    uuid.UUID
	SellerID    uuid.NullUUID
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

type OrderItem struct {
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
	CreatedAt pgtype.Timestamptz
}

type Product struct {
	ID        uuid.UUID
	Name      string
	Sku       string
	PriceBase pgtype.Numeric
	Currency  string
	TaxRate   pgtype.Numeric
	Stock     int32
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Role      string
	CreatedAt pgtype.Timestamptz
}
