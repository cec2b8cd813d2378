package loaders

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vipogroup/vipo-api/internal/utils"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL DEFAULT '',
		email TEXT UNIQUE,
		phone TEXT UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'customer',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		referred_by TEXT REFERENCES users(id) ON DELETE SET NULL,
		referrals_count INTEGER NOT NULL DEFAULT 0,
		coupon_code TEXT UNIQUE,
		coupon_status TEXT NOT NULL DEFAULT 'inactive',
		discount_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
		commission_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
		commission_balance DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (commission_balance >= 0),
		commission_on_hold DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (commission_on_hold >= 0),
		total_sales DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_coupon_lower_idx ON users (lower(coupon_code))`,
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		slug TEXT UNIQUE NOT NULL,
		legacy_id TEXT,
		sku TEXT,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price DOUBLE PRECISION NOT NULL CHECK (price >= 0),
		images JSONB NOT NULL DEFAULT '[]',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		created_by TEXT NOT NULL REFERENCES users(id),
		customer JSONB NOT NULL DEFAULT '{}',
		items JSONB NOT NULL,
		subtotal DOUBLE PRECISION NOT NULL,
		discount_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
		discount_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
		total_amount DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		payment_status TEXT NOT NULL DEFAULT 'pending',
		ref_source TEXT NOT NULL DEFAULT '',
		ref_agent_id TEXT REFERENCES users(id),
		agent_id TEXT REFERENCES users(id),
		applied_coupon_code TEXT NOT NULL DEFAULT '',
		commission_percent DOUBLE PRECISION NOT NULL DEFAULT 0,
		commission_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
		commission_status TEXT NOT NULL DEFAULT 'none',
		commission_available_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS orders_created_idx ON orders (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS orders_commission_idx ON orders (commission_status, commission_available_at)`,
	`CREATE TABLE IF NOT EXISTS withdrawal_requests (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		amount DOUBLE PRECISION NOT NULL CHECK (amount > 0),
		notes TEXT NOT NULL DEFAULT '',
		payment_details JSONB NOT NULL DEFAULT '{}',
		status TEXT NOT NULL DEFAULT 'pending',
		admin_notes TEXT NOT NULL DEFAULT '',
		snapshot_balance DOUBLE PRECISION NOT NULL DEFAULT 0,
		snapshot_on_hold DOUBLE PRECISION NOT NULL DEFAULT 0,
		processed_by TEXT,
		processed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS withdrawal_one_open_idx ON withdrawal_requests (user_id)
		WHERE status IN ('pending', 'approved')`,
	`CREATE TABLE IF NOT EXISTS bot_configs (
		id TEXT PRIMARY KEY,
		owner_type TEXT NOT NULL,
		business_id TEXT NOT NULL DEFAULT '',
		document JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (owner_type, business_id)
	)`,
	`CREATE TABLE IF NOT EXISTS social_reports (
		id TEXT PRIMARY KEY,
		report_id TEXT UNIQUE NOT NULL,
		scan_id TEXT NOT NULL,
		report_type TEXT NOT NULL,
		status TEXT NOT NULL,
		score INTEGER NOT NULL,
		document JSONB NOT NULL,
		generated_by TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS integration_sync_maps (
		order_id TEXT PRIMARY KEY REFERENCES orders(id) ON DELETE CASCADE,
		sync_status TEXT NOT NULL DEFAULT 'pending',
		priority_invoice_id TEXT NOT NULL DEFAULT '',
		invoice_number TEXT NOT NULL DEFAULT '',
		priority_receipt_id TEXT NOT NULL DEFAULT '',
		priority_credit_note_id TEXT NOT NULL DEFAULT '',
		priority_customer_id TEXT NOT NULL DEFAULT '',
		payplus_amount DOUBLE PRECISION,
		amount_mismatch BOOLEAN NOT NULL DEFAULT FALSE,
		last_error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`ALTER TABLE users ADD COLUMN IF NOT EXISTS tenant_id TEXT`,
	`ALTER TABLE products ADD COLUMN IF NOT EXISTS tenant_id TEXT`,
	`ALTER TABLE orders ADD COLUMN IF NOT EXISTS tenant_id TEXT`,
	`CREATE INDEX IF NOT EXISTS products_tenant_idx ON products (tenant_id)`,
	`CREATE INDEX IF NOT EXISTS orders_tenant_idx ON orders (tenant_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		category TEXT NOT NULL,
		actor_id TEXT,
		details JSONB NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// BackupTables lists tables in foreign-key order. Restores insert in this
// order and truncate in reverse.
var BackupTables = []string{
	"users",
	"products",
	"orders",
	"withdrawal_requests",
	"bot_configs",
	"social_reports",
	"integration_sync_maps",
	"audit_logs",
}

func (c *PostgresClient) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := c.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	utils.Zlog.Info("Database schema up to date", zap.Int("statements", len(schema)))
	return nil
}
