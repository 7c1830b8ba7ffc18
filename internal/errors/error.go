package errors

import (
	"errors"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Kind buckets an error so the http layer can answer with a distinct
// status code and machine-readable reason instead of a bare message.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindUnavailable  Kind = "unavailable"
	KindInternal     Kind = "internal"
)

type Error struct {
	Kind   Kind
	Reason string
	msg    string
}

func (e *Error) Error() string { return e.msg }

func New(kind Kind, reason, msg string) *Error {
	return &Error{Kind: kind, Reason: reason, msg: msg}
}

var (
	ErrEmptyAuth    = New(KindUnauthorized, "missing_authorization", "missing authorization")
	ErrEmptySubject = New(KindUnauthorized, "missing_subject", "missing subject")
	ErrTokenInvalid = New(KindUnauthorized, "invalid_token", "invalid token")

	ErrNotPermitted = New(KindForbidden, "not_permitted", "actor is not permitted to perform this transition")

	ErrInvalidTransition = New(KindConflict, "invalid_transition", "transition is not valid from the current status")
	ErrStatusChanged     = New(KindConflict, "status_changed", "order status changed concurrently")
	ErrOutOfStock        = New(KindConflict, "out_of_stock", "product is out of stock")

	ErrOrderNotFound = New(KindNotFound, "order_not_found", "order not found")
	ErrItemNotFound  = New(KindNotFound, "order_item_not_found", "order item not found")
	ErrNoDraftOrder  = New(KindNotFound, "no_draft_order", "no draft order for this session")

	ErrEmptyCart     = New(KindValidation, "empty_cart", "cart has no lines")
	ErrMissingClient = New(KindValidation, "missing_client", "order has no client")
	ErrInvalidBody   = New(KindValidation, "invalid_body", "request body is invalid")

	ErrCartUnavailable = New(KindUnavailable, "cart_unavailable", "cart storage is unreachable")
	ErrRateUnavailable = New(KindUnavailable, "rate_unavailable", "exchange rate is unavailable")
)

// KindOf walks the chain looking for a taxonomy error; plain errors are
// reported as internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return "internal"
}

func HandleError(err error, span trace.Span) {
	if err == nil {
		return
	}
	span.AddEvent(err.Error())
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}
