// Package request holds the inbound payload shapes. Quantity fields are
// deliberately untyped: clients send numbers, numeric strings or worse,
// and the money normalizer decides what they meant.
package request

import "github.com/google/uuid"

// UpdateOrder mutates the current draft order through a single endpoint
// discriminated by Action.
type UpdateOrder struct {
	Action   string      `json:"action" validate:"required,oneof=updateQty removeItem submit"`
	ItemID   string      `json:"itemId" validate:"required_unless=Action submit"`
	Quantity interface{} `json:"quantity"`
}

type AddItem struct {
	ProductID uuid.UUID   `json:"productId" validate:"required"`
	Quantity  interface{} `json:"quantity"`
}

type SetQuantity struct {
	Quantity interface{} `json:"qty" validate:"required"`
}

type AssignOrder struct {
	SellerID uuid.UUID `json:"sellerId" validate:"required"`
}
