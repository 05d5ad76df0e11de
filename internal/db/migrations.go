package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'instance_status') THEN
			CREATE TYPE instance_status AS ENUM ('open', 'complete');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY,
		username TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE TABLE IF NOT EXISTS admins (
		user_id BIGINT PRIMARY KEY,
		username TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE TABLE IF NOT EXISTS breakdowns (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name TEXT NOT NULL UNIQUE,
		hidden BOOLEAN NOT NULL DEFAULT FALSE
	);`,
	`CREATE TABLE IF NOT EXISTS items (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		breakdown_name TEXT NOT NULL REFERENCES breakdowns(name) ON DELETE CASCADE,
		item_name TEXT NOT NULL,
		price NUMERIC(18,2) NOT NULL,
		UNIQUE (breakdown_name, item_name)
	);`,
	`CREATE TABLE IF NOT EXISTS breakdown_instances (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		breakdown_name TEXT NOT NULL REFERENCES breakdowns(name) ON DELETE CASCADE,
		status instance_status NOT NULL DEFAULT 'open',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	// At most one open round per breakdown, enforced at the storage layer
	// in addition to the engine's creation lock.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_open_instance_per_breakdown
		ON breakdown_instances (breakdown_name) WHERE status = 'open';`,
	`CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id BIGINT NOT NULL REFERENCES users(id),
		instance_id UUID NOT NULL REFERENCES breakdown_instances(id) ON DELETE CASCADE,
		total NUMERIC(18,2) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	// Item lines carry the instance id so disjointness within a round is a
	// unique index, not a serialized-JSON scan.
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		instance_id UUID NOT NULL REFERENCES breakdown_instances(id) ON DELETE CASCADE,
		item_name TEXT NOT NULL,
		price NUMERIC(18,2) NOT NULL,
		PRIMARY KEY (order_id, item_name)
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_order_items_instance_item
		ON order_items (instance_id, item_name);`,
	`CREATE TABLE IF NOT EXISTS messages (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id BIGINT NOT NULL,
		message TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_items_breakdown_name ON items (breakdown_name);`,
	`CREATE INDEX IF NOT EXISTS idx_instances_breakdown_name ON breakdown_instances (breakdown_name);`,
	`CREATE INDEX IF NOT EXISTS idx_orders_instance_id ON orders (instance_id);`,
	`CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders (user_id);`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items (order_id);`,
	`CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages (created_at DESC);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
