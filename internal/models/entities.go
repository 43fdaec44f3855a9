package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents an account used for HTTP Basic authentication. Buyer and
// scanner identities are user ids; the core treats them as opaque.
type User struct {
	UserID       int64     `json:"user_id" db:"user_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"first_name" db:"first_name"`
	Surname      string    `json:"surname" db:"surname"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
	IsActive     bool      `json:"is_active" db:"is_active"`
}

// Event is a catalog entry. The core only reads its sale window and end
// time; everything else is plain CRUD.
type Event struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Description  *string   `json:"description" db:"description"`
	StartsAt     time.Time `json:"starts_at" db:"starts_at"`
	EndsAt       time.Time `json:"ends_at" db:"ends_at"`
	SaleStartsAt time.Time `json:"sale_starts_at" db:"sale_starts_at"`
	Published    bool      `json:"published" db:"published"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// TicketClass is a priced category of tickets for one event. Capacity is
// fixed at creation by pre-allocating one TicketUnit row per sellable seat;
// quantity_sold is only ever mutated in the same transaction that flips
// unit rows, so it cannot drift from the unit states.
type TicketClass struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	EventID       uuid.UUID       `json:"event_id" db:"event_id"`
	Name          string          `json:"name" db:"name"`
	Price         decimal.Decimal `json:"price" db:"price"`
	TotalQuantity int             `json:"total_quantity" db:"total_quantity"`
	QuantitySold  int             `json:"quantity_sold" db:"quantity_sold"`
	MaxPerOrder   int             `json:"max_per_order" db:"max_per_order"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`

	Event *Event `json:"event,omitempty"` // filled by joins, not a column
}

// TicketUnit is the atomic sellable item.
type TicketUnit struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	TicketClassID  uuid.UUID  `json:"ticket_class_id" db:"ticket_class_id"`
	OrderID        *uuid.UUID `json:"order_id" db:"order_id"`
	Status         string     `json:"status" db:"status"`
	Token          *string    `json:"token,omitempty" db:"token"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty" db:"token_expires_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// Order groups the units one buyer reserved together. The unit set is
// fixed at reservation time; total_amount is price * quantity before fees.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	TicketClassID   uuid.UUID       `json:"ticket_class_id" db:"ticket_class_id"`
	BuyerID         int64           `json:"buyer_id" db:"buyer_id"`
	Status          string          `json:"status" db:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount" db:"total_amount"`
	PlatformFee     decimal.Decimal `json:"platform_fee" db:"platform_fee"`
	PaymentIntentID *string         `json:"payment_intent_id" db:"payment_intent_id"`
	ExpiresAt       time.Time       `json:"expires_at" db:"expires_at"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`

	Units []TicketUnit `json:"units,omitempty"` // filled separately
}

// Payment is an append-only settlement record, written once per successful
// finalization and never updated.
type Payment struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	OrderID         uuid.UUID       `json:"order_id" db:"order_id"`
	PaymentIntentID string          `json:"payment_intent_id" db:"payment_intent_id"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	Currency        string          `json:"currency" db:"currency"`
	Status          string          `json:"status" db:"status"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// CheckIn records a single redemption. The UNIQUE constraint on
// ticket_unit_id makes "at most one check-in per unit" structural.
type CheckIn struct {
	ID           uuid.UUID `json:"id" db:"id"`
	TicketUnitID uuid.UUID `json:"ticket_unit_id" db:"ticket_unit_id"`
	ScannedBy    int64     `json:"scanned_by" db:"scanned_by"`
	ScannedAt    time.Time `json:"scanned_at" db:"scanned_at"`
}

// UnitToken pairs a unit with its freshly minted redemption token during
// finalization.
type UnitToken struct {
	UnitID    uuid.UUID
	Token     string
	ExpiresAt time.Time
}
