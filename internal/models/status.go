package models

// Ticket unit lifecycle. A unit moves AVAILABLE -> RESERVED -> SOLD ->
// CHECKED_IN; a released hold drops it back to AVAILABLE, and a refund or
// cancellation takes a SOLD unit out of circulation for good.
const (
	UnitAvailable = "AVAILABLE"
	UnitReserved  = "RESERVED"
	UnitSold      = "SOLD"
	UnitCheckedIn = "CHECKED_IN"
	UnitCancelled = "CANCELLED"
	UnitRefunded  = "REFUNDED"
)

// Order lifecycle.
const (
	OrderPending         = "PENDING"
	OrderAwaitingPayment = "AWAITING_PAYMENT"
	OrderPaid            = "PAID"
	OrderCancelled       = "CANCELLED"
	OrderRefunded        = "REFUNDED"
)

// Scan outcomes returned to door staff. These are classifications of a
// scan, not errors: the gate needs an answer either way.
const (
	ScanValid     = "Valid"
	ScanDuplicate = "Duplicate"
	ScanInvalid   = "Invalid"
	ScanRefunded  = "Refunded"
)
