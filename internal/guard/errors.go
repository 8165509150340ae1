// Package guard holds the error kinds and result shapes shared by every
// lifecycle guard. Predicates return a Result; Assert functions return an
// *Error whose message is already localized.
package guard

import "errors"

var (
	ErrInvalidTransition = errors.New("invalid transition")
	ErrRoleNotPermitted  = errors.New("role not permitted")
	ErrPriceIntegrity    = errors.New("price integrity violation")
	ErrPaymentSequence   = errors.New("payment sequence violation")
	ErrConsistency       = errors.New("consistency violation")
)

// Code is the machine-readable reason attached to every rejection.
type Code string

const (
	CodeOK                   Code = ""
	CodeBackward             Code = "TRANSITION_BACKWARD"
	CodeSkip                 Code = "TRANSITION_SKIP"
	CodeTerminal             Code = "TRANSITION_FROM_TERMINAL"
	CodeUnknownStatus        Code = "UNKNOWN_STATUS"
	CodeWrongState           Code = "WRONG_STATE"
	CodeDeliveryNotReported  Code = "DELIVERY_NOT_REPORTED"
	CodeRoleNotPermitted     Code = "ROLE_NOT_PERMITTED"
	CodeNotParty             Code = "NOT_PARTY"
	CodeUnknownAction        Code = "UNKNOWN_ACTION"
	CodeUnitPriceIsTotal     Code = "UNIT_PRICE_IS_TOTAL"
	CodeNonPositiveUnitPrice Code = "NON_POSITIVE_UNIT_PRICE"
	CodeUnitExceedsTotal     Code = "UNIT_PRICE_EXCEEDS_TOTAL"
	CodeMissingPrice         Code = "MISSING_PRICE_CONTEXT"
	CodePaymentOutOfOrder    Code = "PAYMENT_OUT_OF_ORDER"
	CodePaymentMissing       Code = "PAYMENT_MISSING"
	CodePaymentNotSettled    Code = "PAYMENT_NOT_SETTLED"
	CodeFleetNotSettled      Code = "FLEET_NOT_SETTLED"
	CodeAlreadyRated         Code = "ALREADY_RATED"
	CodeNotCompleted         Code = "NOT_COMPLETED"
	CodeSafeMode             Code = "SAFE_MODE"
)

// Error is a guard rejection. Message is ready to be shown to an end user.
type Error struct {
	Kind         error
	Code         Code
	Message      string
	ExpectedNext string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func NewError(kind error, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Result is the non-throwing answer of a "can this happen" predicate.
type Result struct {
	Allowed bool
	Kind    error
	Code    Code
	Reason  string
}

func Allow() Result {
	return Result{Allowed: true}
}

func Deny(kind error, code Code, reason string) Result {
	return Result{Kind: kind, Code: code, Reason: reason}
}

// Err converts a denied result into an *Error, or nil when allowed.
func (r Result) Err() error {
	if r.Allowed {
		return nil
	}
	return &Error{Kind: r.Kind, Code: r.Code, Message: r.Reason}
}
