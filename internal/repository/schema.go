package repository

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS reservations (
		id BIGSERIAL PRIMARY KEY,
		camp_id BIGINT NOT NULL,
		property_id BIGINT NOT NULL,
		total_price NUMERIC(12,2) NOT NULL,
		diet_name VARCHAR(255),
		diet_price NUMERIC(12,2),
		payment_plan SMALLINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS reservation_protections (
		reservation_id BIGINT NOT NULL REFERENCES reservations(id),
		protection_id BIGINT NOT NULL,
		PRIMARY KEY (reservation_id, protection_id)
	)`,
	`CREATE TABLE IF NOT EXISTS reservation_addons (
		reservation_id BIGINT NOT NULL REFERENCES reservations(id),
		addon_id BIGINT NOT NULL,
		PRIMARY KEY (reservation_id, addon_id)
	)`,
	`CREATE TABLE IF NOT EXISTS reservation_charges (
		reservation_id BIGINT NOT NULL REFERENCES reservations(id),
		charge_key VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		price NUMERIC(12,2) NOT NULL,
		PRIMARY KEY (reservation_id, charge_key)
	)`,
	`CREATE TABLE IF NOT EXISTS gateway_transactions (
		id VARCHAR(255) PRIMARY KEY,
		order_id VARCHAR(255) NOT NULL,
		amount NUMERIC(12,2),
		paid_amount NUMERIC(12,2),
		status VARCHAR(50) NOT NULL,
		channel VARCHAR(100),
		description TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_gateway_transactions_order_id ON gateway_transactions(order_id varchar_pattern_ops)`,
	`CREATE TABLE IF NOT EXISTS manual_payments (
		id BIGSERIAL PRIMARY KEY,
		reservation_id BIGINT NOT NULL REFERENCES reservations(id),
		amount NUMERIC(12,2),
		method VARCHAR(100),
		description TEXT,
		paid_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_manual_payments_reservation ON manual_payments(reservation_id)`,
	`CREATE TABLE IF NOT EXISTS component_states (
		reservation_id BIGINT NOT NULL,
		component_id VARCHAR(128) NOT NULL,
		state VARCHAR(50) NOT NULL,
		previous_state VARCHAR(50) NOT NULL DEFAULT '',
		refund_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (reservation_id, component_id)
	)`,
	`CREATE TABLE IF NOT EXISTS protections (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		price NUMERIC(12,2) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS addons (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		price NUMERIC(12,2) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS turnus_protections (
		camp_id BIGINT NOT NULL,
		property_id BIGINT NOT NULL,
		protection_id BIGINT NOT NULL,
		name VARCHAR(255),
		price NUMERIC(12,2) NOT NULL,
		PRIMARY KEY (camp_id, property_id, protection_id)
	)`,
	`CREATE TABLE IF NOT EXISTS turnus_addons (
		camp_id BIGINT NOT NULL,
		property_id BIGINT NOT NULL,
		addon_id BIGINT NOT NULL,
		name VARCHAR(255),
		price NUMERIC(12,2) NOT NULL,
		PRIMARY KEY (camp_id, property_id, addon_id)
	)`,
}

// InitDB creates the tables the service reads and writes.
func InitDB(ctx context.Context, db *sql.DB) error {
	for _, query := range schema {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
