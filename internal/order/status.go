package order

import (
	"fmt"

	"github.com/electrosur/storefront/internal/errors"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusAssigned  Status = "ASSIGNED"
	StatusFulfilled Status = "FULFILLED"
	StatusShipped   Status = "SHIPPED"
	StatusDelivered Status = "DELIVERED"
	StatusCanceled  Status = "CANCELED"
	StatusRejected  Status = "REJECTED"
)

// Terminal statuses have no outgoing transitions.
func (s Status) Terminal() bool {
	return s == StatusCanceled || s == StatusDelivered || s == StatusRejected
}

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusAssigned,
		StatusFulfilled, StatusShipped, StatusDelivered, StatusCanceled, StatusRejected:
		return true
	}
	return false
}

type Action string

const (
	ActionSubmit  Action = "submit"
	ActionConfirm Action = "confirm"
	ActionCancel  Action = "cancel"
	ActionAssign  Action = "assign"
	ActionFulfill Action = "fulfill"
	ActionShip    Action = "ship"
	ActionDeliver Action = "deliver"
)

// transitions is the single authoritative state table. Handlers never
// re-derive "is this status cancelable" on their own; they ask Next.
var transitions = map[Action]struct {
	from map[Status]bool
	to   Status
}{
	ActionSubmit:  {from: set(StatusDraft), to: StatusSubmitted},
	ActionConfirm: {from: set(StatusSubmitted), to: StatusApproved},
	ActionCancel:  {from: set(StatusDraft, StatusSubmitted, StatusApproved, StatusAssigned), to: StatusCanceled},
	ActionAssign:  {from: set(StatusApproved), to: StatusAssigned},
	ActionFulfill: {from: set(StatusAssigned), to: StatusFulfilled},
	ActionShip:    {from: set(StatusFulfilled), to: StatusShipped},
	ActionDeliver: {from: set(StatusShipped), to: StatusDelivered},
}

func set(statuses ...Status) map[Status]bool {
	m := make(map[Status]bool, len(statuses))
	for _, s := range statuses {
		m[s] = true
	}
	return m
}

// Next resolves the target status for action from the given source status.
// Invalid moves, including any move out of a terminal status, are conflicts:
// the caller should refetch the order before retrying.
func Next(from Status, action Action) (Status, error) {
	t, ok := transitions[action]
	if !ok {
		return "", fmt.Errorf("unknown action=%s with error=%w", action, errors.ErrInvalidTransition)
	}
	if !t.from[from] {
		return "", fmt.Errorf(
			"action=%s is not valid from status=%s with error=%w",
			action,
			from,
			errors.ErrInvalidTransition,
		)
	}
	return t.to, nil
}

// Authorize applies the role gate for a transition, evaluated the same way
// for every action: ADMIN acts on any order; a SELLER only on orders
// assigned to them; a CLIENT only on their own order, and cancel only
// while it is still DRAFT or SUBMITTED.
func Authorize(actor Actor, action Action, o Order) error {
	switch actor.Role {
	case RoleAdmin:
		return nil
	case RoleSeller:
		if o.SellerID != nil && *o.SellerID == actor.ID {
			return nil
		}
		return errors.ErrNotPermitted
	case RoleClient:
		if o.ClientID != actor.ID {
			return errors.ErrNotPermitted
		}
		switch action {
		case ActionSubmit:
			return nil
		case ActionCancel:
			if o.Status == StatusDraft || o.Status == StatusSubmitted {
				return nil
			}
			return errors.ErrNotPermitted
		default:
			return errors.ErrNotPermitted
		}
	default:
		return errors.ErrNotPermitted
	}
}

// Transition authorizes actor for action and resolves the target status.
// It is pure; the caller persists the move with a compare-and-swap on the
// source status so concurrent transitions cannot both succeed.
func Transition(o Order, actor Actor, action Action) (Status, error) {
	if err := Authorize(actor, action, o); err != nil {
		return "", err
	}
	return Next(o.Status, action)
}
