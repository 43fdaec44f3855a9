package database

import (
	"fmt"
	"log/slog"
)

func (db *DB) RunMigrations() error {
	slog.Info("Running database migrations...")

	migrations := []string{
		createUsersTable,
		createEventsTable,
		createTicketClassesTable,
		createTicketUnitsTable,
		createOrdersTable,
		createPaymentsTable,
		createCheckInsTable,
		createIndexes,
	}

	for i, migration := range migrations {
		slog.Info("Running migration", "step", i+1)
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	slog.Info("All migrations completed successfully")
	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    user_id SERIAL PRIMARY KEY,
    email VARCHAR(255) UNIQUE NOT NULL,
    password_hash VARCHAR(64) NOT NULL,
    first_name VARCHAR(100) NOT NULL,
    surname VARCHAR(100) NOT NULL,
    registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    is_active BOOLEAN NOT NULL DEFAULT TRUE
);`

const createEventsTable = `
CREATE EXTENSION IF NOT EXISTS "uuid-ossp";
CREATE TABLE IF NOT EXISTS events (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    name VARCHAR(500) NOT NULL,
    description TEXT,
    starts_at TIMESTAMPTZ NOT NULL,
    ends_at TIMESTAMPTZ NOT NULL,
    sale_starts_at TIMESTAMPTZ NOT NULL,
    published BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

const createTicketClassesTable = `
CREATE TABLE IF NOT EXISTS ticket_classes (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    name VARCHAR(200) NOT NULL,
    price DECIMAL(10,2) NOT NULL,
    total_quantity INTEGER NOT NULL,
    quantity_sold INTEGER NOT NULL DEFAULT 0,
    max_per_order INTEGER NOT NULL DEFAULT 4,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (total_quantity >= 0),
    CHECK (quantity_sold >= 0 AND quantity_sold <= total_quantity)
);`

const createTicketUnitsTable = `
CREATE TABLE IF NOT EXISTS ticket_units (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    ticket_class_id UUID NOT NULL REFERENCES ticket_classes(id) ON DELETE CASCADE,
    order_id UUID,
    status VARCHAR(20) NOT NULL DEFAULT 'AVAILABLE',
    token TEXT,
    token_expires_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (status IN ('AVAILABLE', 'RESERVED', 'SOLD', 'CHECKED_IN', 'CANCELLED', 'REFUNDED')),
    CHECK (status = 'AVAILABLE' OR order_id IS NOT NULL)
);`

const createOrdersTable = `
CREATE TABLE IF NOT EXISTS orders (
    id UUID PRIMARY KEY,
    ticket_class_id UUID NOT NULL REFERENCES ticket_classes(id),
    buyer_id INTEGER NOT NULL REFERENCES users(user_id),
    status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
    total_amount DECIMAL(10,2) NOT NULL DEFAULT 0,
    platform_fee DECIMAL(10,2) NOT NULL DEFAULT 0,
    payment_intent_id VARCHAR(255),
    expires_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    CHECK (status IN ('PENDING', 'AWAITING_PAYMENT', 'PAID', 'CANCELLED', 'REFUNDED'))
);`

const createPaymentsTable = `
CREATE TABLE IF NOT EXISTS payments (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    order_id UUID NOT NULL REFERENCES orders(id),
    payment_intent_id VARCHAR(255) NOT NULL,
    amount DECIMAL(10,2) NOT NULL,
    currency VARCHAR(10) NOT NULL DEFAULT 'usd',
    status VARCHAR(20) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    UNIQUE (order_id)
);`

const createCheckInsTable = `
CREATE TABLE IF NOT EXISTS check_ins (
    id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
    ticket_unit_id UUID NOT NULL REFERENCES ticket_units(id),
    scanned_by INTEGER NOT NULL REFERENCES users(user_id),
    scanned_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),

    UNIQUE (ticket_unit_id)
);`

const createIndexes = `
CREATE INDEX IF NOT EXISTS ticket_units_available_idx
    ON ticket_units (ticket_class_id) WHERE status = 'AVAILABLE';
CREATE INDEX IF NOT EXISTS ticket_units_order_idx ON ticket_units (order_id);
CREATE INDEX IF NOT EXISTS orders_payment_intent_idx ON orders (payment_intent_id);
CREATE INDEX IF NOT EXISTS orders_expiry_idx ON orders (expires_at) WHERE status = 'AWAITING_PAYMENT';
CREATE INDEX IF NOT EXISTS orders_buyer_idx ON orders (buyer_id);`
