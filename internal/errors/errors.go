package errors

import "errors"

var ErrUnauthorized = errors.New("user is not authorized")
var ErrForbidden = errors.New("operation is forbidden for user")

// Domain errors returned by the reservation and settlement services.
// Handlers map these onto HTTP status codes; anything else is treated as a
// storage failure and surfaces as a 500.
var (
	ErrNotFound              = errors.New("resource not found")
	ErrInvalidQuantity       = errors.New("invalid ticket quantity")
	ErrNotOnSaleYet          = errors.New("tickets are not on sale yet")
	ErrInsufficientInventory = errors.New("not enough tickets available")
	ErrOrderExpired          = errors.New("order hold has expired")
	ErrOrderNotPayable       = errors.New("order is not awaiting payment")
)
