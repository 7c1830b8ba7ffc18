package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	inErrors "github.com/electrosur/storefront/internal/errors"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name     string
		from     Status
		action   Action
		expected Status
		wantErr  error
	}{
		{
			name:     "given draft and submit should move to submitted",
			from:     StatusDraft,
			action:   ActionSubmit,
			expected: StatusSubmitted,
		},
		{
			name:     "given submitted and confirm should move to approved",
			from:     StatusSubmitted,
			action:   ActionConfirm,
			expected: StatusApproved,
		},
		{
			name:     "given approved and assign should move to assigned",
			from:     StatusApproved,
			action:   ActionAssign,
			expected: StatusAssigned,
		},
		{
			name:     "given assigned and fulfill should move to fulfilled",
			from:     StatusAssigned,
			action:   ActionFulfill,
			expected: StatusFulfilled,
		},
		{
			name:     "given fulfilled and ship should move to shipped",
			from:     StatusFulfilled,
			action:   ActionShip,
			expected: StatusShipped,
		},
		{
			name:     "given shipped and deliver should move to delivered",
			from:     StatusShipped,
			action:   ActionDeliver,
			expected: StatusDelivered,
		},
		{
			name:    "given approved and confirm should conflict",
			from:    StatusApproved,
			action:  ActionConfirm,
			wantErr: inErrors.ErrInvalidTransition,
		},
		{
			name:    "given draft and ship should conflict",
			from:    StatusDraft,
			action:  ActionShip,
			wantErr: inErrors.ErrInvalidTransition,
		},
		{
			name:    "given fulfilled and cancel should conflict",
			from:    StatusFulfilled,
			action:  ActionCancel,
			wantErr: inErrors.ErrInvalidTransition,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, err := Next(tt.from, tt.action)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, next)
		})
	}
}

func TestNextTerminalStatusHasNoExit(t *testing.T) {
	terminals := []Status{StatusCanceled, StatusDelivered, StatusRejected}
	actions := []Action{
		ActionSubmit, ActionConfirm, ActionCancel,
		ActionAssign, ActionFulfill, ActionShip, ActionDeliver,
	}
	for _, from := range terminals {
		for _, action := range actions {
			_, err := Next(from, action)
			assert.ErrorIs(t, err, inErrors.ErrInvalidTransition,
				"status=%s action=%s", from, action)
		}
	}
}

func TestAuthorize(t *testing.T) {
	clientId := uuid.New()
	sellerId := uuid.New()
	otherSeller := uuid.New()

	admin := Actor{ID: uuid.New(), Role: RoleAdmin}
	client := Actor{ID: clientId, Role: RoleClient}
	seller := Actor{ID: sellerId, Role: RoleSeller}

	assigned := Order{
		ID:       uuid.New(),
		Status:   StatusAssigned,
		ClientID: clientId,
		SellerID: &sellerId,
	}

	tests := []struct {
		name    string
		actor   Actor
		action  Action
		order   Order
		wantErr error
	}{
		{
			name:   "given admin should act on any order",
			actor:  admin,
			action: ActionConfirm,
			order:  Order{ID: uuid.New(), Status: StatusSubmitted, ClientID: uuid.New()},
		},
		{
			name:   "given assigned seller should act on their order",
			actor:  seller,
			action: ActionFulfill,
			order:  assigned,
		},
		{
			name:    "given unassigned seller should be rejected",
			actor:   Actor{ID: otherSeller, Role: RoleSeller},
			action:  ActionFulfill,
			order:   assigned,
			wantErr: inErrors.ErrNotPermitted,
		},
		{
			name:    "given seller and order without seller should be rejected",
			actor:   seller,
			action:  ActionConfirm,
			order:   Order{ID: uuid.New(), Status: StatusSubmitted, ClientID: clientId},
			wantErr: inErrors.ErrNotPermitted,
		},
		{
			name:   "given client submitting their own draft should pass",
			actor:  client,
			action: ActionSubmit,
			order:  Order{ID: uuid.New(), Status: StatusDraft, ClientID: clientId},
		},
		{
			name:   "given client canceling their submitted order should pass",
			actor:  client,
			action: ActionCancel,
			order:  Order{ID: uuid.New(), Status: StatusSubmitted, ClientID: clientId},
		},
		{
			name:    "given client canceling an approved order should be rejected",
			actor:   client,
			action:  ActionCancel,
			order:   Order{ID: uuid.New(), Status: StatusApproved, ClientID: clientId},
			wantErr: inErrors.ErrNotPermitted,
		},
		{
			name:    "given client confirming their own order should be rejected",
			actor:   client,
			action:  ActionConfirm,
			order:   Order{ID: uuid.New(), Status: StatusSubmitted, ClientID: clientId},
			wantErr: inErrors.ErrNotPermitted,
		},
		{
			name:    "given client acting on someone else's order should be rejected",
			actor:   client,
			action:  ActionCancel,
			order:   Order{ID: uuid.New(), Status: StatusSubmitted, ClientID: uuid.New()},
			wantErr: inErrors.ErrNotPermitted,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.actor, tt.action, tt.order)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTransitionAuthorizationBeforeValidity(t *testing.T) {
	clientId := uuid.New()
	client := Actor{ID: clientId, Role: RoleClient}

	// a client asking to confirm a submitted order is denied, not told the
	// transition would have been valid
	o := Order{ID: uuid.New(), Status: StatusSubmitted, ClientID: clientId}
	_, err := Transition(o, client, ActionConfirm)
	assert.ErrorIs(t, err, inErrors.ErrNotPermitted)

	admin := Actor{ID: uuid.New(), Role: RoleAdmin}
	next, err := Transition(o, admin, ActionConfirm)
	assert.NoError(t, err)
	assert.Equal(t, StatusApproved, next)

	// confirming twice: the second evaluation starts from APPROVED and conflicts
	o.Status = next
	_, err = Transition(o, admin, ActionConfirm)
	assert.ErrorIs(t, err, inErrors.ErrInvalidTransition)
}
