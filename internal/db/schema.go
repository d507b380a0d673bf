package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'manager', 'user')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS customers (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    phone      TEXT,
    email      TEXT,
    address    TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
);

CREATE TABLE IF NOT EXISTS suppliers (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    phone      TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at DATETIME
);

CREATE TABLE IF NOT EXISTS product_categories (
    id                     INTEGER PRIMARY KEY,
    name                   TEXT NOT NULL,
    requires_serial_number INTEGER NOT NULL DEFAULT 0,
    requires_mac_address   INTEGER NOT NULL DEFAULT 0,
    created_at             DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at             DATETIME
);

CREATE TABLE IF NOT EXISTS product_models (
    id            INTEGER PRIMARY KEY,
    category_id   INTEGER NOT NULL REFERENCES product_categories(id),
    name          TEXT NOT NULL,
    selling_price INTEGER NOT NULL DEFAULT 0,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE TABLE IF NOT EXISTS items (
    id               INTEGER PRIMARY KEY,
    item_type        TEXT NOT NULL DEFAULT 'sale' CHECK (item_type IN ('sale', 'asset')),
    owner_type       TEXT NOT NULL DEFAULT 'company' CHECK (owner_type IN ('company', 'customer')),
    serial_number    TEXT,
    mac_address      TEXT,
    status           TEXT NOT NULL DEFAULT 'in_stock' CHECK (status IN (
                         'in_stock', 'reserved', 'defective', 'borrowed', 'sold',
                         'in_warehouse', 'assigned', 'in_repair', 'decommissioned')),
    notes            TEXT,
    purchase_price   INTEGER NOT NULL DEFAULT 0,
    product_model_id INTEGER NOT NULL REFERENCES product_models(id),
    supplier_id      INTEGER REFERENCES suppliers(id),
    added_by_id      INTEGER REFERENCES users(id),
    sale_id          INTEGER REFERENCES sales(id),
    image            BLOB,
    image_mime       TEXT,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_status ON items(status);
CREATE INDEX IF NOT EXISTS idx_items_sale ON items(sale_id) WHERE sale_id IS NOT NULL;

CREATE TABLE IF NOT EXISTS sales (
    id           INTEGER PRIMARY KEY,
    customer_id  INTEGER NOT NULL REFERENCES customers(id),
    sold_by_id   INTEGER REFERENCES users(id),
    subtotal     INTEGER NOT NULL DEFAULT 0,
    vat_amount   INTEGER NOT NULL DEFAULT 0,
    total        INTEGER NOT NULL DEFAULT 0,
    total_cost   INTEGER NOT NULL DEFAULT 0,
    notes        TEXT,
    status       TEXT NOT NULL DEFAULT 'completed' CHECK (status IN ('completed', 'voided')),
    sale_date    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    voided_at    DATETIME,
    voided_by_id INTEGER REFERENCES users(id),
    created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS borrowings (
    id             INTEGER PRIMARY KEY,
    customer_id    INTEGER NOT NULL REFERENCES customers(id),
    approved_by_id INTEGER REFERENCES users(id),
    due_date       DATETIME,
    notes          TEXT,
    status         TEXT NOT NULL DEFAULT 'borrowed' CHECK (status IN ('borrowed', 'returned')),
    borrow_date    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    return_date    DATETIME,
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS borrowing_items (
    borrowing_id INTEGER NOT NULL REFERENCES borrowings(id),
    item_id      INTEGER NOT NULL REFERENCES items(id),
    returned_at  DATETIME,
    PRIMARY KEY (borrowing_id, item_id)
);

CREATE TABLE IF NOT EXISTS event_logs (
    id         INTEGER PRIMARY KEY,
    item_id    INTEGER NOT NULL REFERENCES items(id),
    user_id    INTEGER REFERENCES users(id),
    event_type TEXT NOT NULL,
    details    TEXT NOT NULL DEFAULT '{}',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_event_logs_item ON event_logs(item_id);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// migrations is a list of SQL statements applied in order after schema
// creation. Each migration must be idempotent. Append new migrations at the
// end.
var migrations = []string{
	// Migration 1: partial unique index on active serial numbers so a
	// deleted item's serial can be reused by a replacement unit.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_items_serial_active
	     ON items(serial_number)
	     WHERE serial_number IS NOT NULL AND serial_number != '' AND status != 'decommissioned'`,
}

// Migrate runs the database schema migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
