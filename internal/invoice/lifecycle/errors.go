package lifecycle

import "errors"

var (
	// ErrInvalidTransition is returned when the displayed status does not
	// allow the requested action. No request is sent.
	ErrInvalidTransition = errors.New("invoice: action not allowed in current status")
	// ErrReasonRequired is returned by Reject with an empty reason.
	ErrReasonRequired = errors.New("invoice: rejection reason is required")
	// ErrInFlight is returned while the same action on the same invoice is
	// still pending.
	ErrInFlight = errors.New("invoice: action already in progress")
	// ErrInvalidPaidDate is returned when a paid date is not YYYY-MM-DD.
	ErrInvalidPaidDate = errors.New("invoice: paid date must be YYYY-MM-DD")
	// ErrUnknownAction is returned for an action outside the lifecycle.
	ErrUnknownAction = errors.New("invoice: unknown action")
	// ErrNoInvoice is returned when no invoice snapshot is given, or a list
	// row is missing.
	ErrNoInvoice = errors.New("invoice: snapshot is required")
)
