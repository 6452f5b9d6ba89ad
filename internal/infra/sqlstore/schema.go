package sqlstore

import (
	"context"
	"fmt"
	"strings"
)

// schema is shared by both drivers; {{ts}} is the timestamp column type.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS companies (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		logo_url TEXT NOT NULL DEFAULT '',
		banner_url TEXT NOT NULL DEFAULT '',
		created_by TEXT NOT NULL,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS company_members (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at {{ts}} NOT NULL,
		UNIQUE (company_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_company_members_user ON company_members (user_id, is_active)`,
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		sku TEXT NOT NULL DEFAULT '',
		price NUMERIC(14,2) NOT NULL,
		min_price NUMERIC(14,2) NOT NULL DEFAULT 0,
		max_price NUMERIC(14,2) NOT NULL DEFAULT 0,
		stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		email TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		discount_percent NUMERIC(5,2) NOT NULL DEFAULT 0,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS promotions (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		discount_value NUMERIC(14,2) NOT NULL,
		discount_type TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		usage_limit INTEGER,
		usage_count INTEGER NOT NULL DEFAULT 0,
		start_date TEXT NOT NULL DEFAULT '',
		end_date TEXT NOT NULL DEFAULT '',
		created_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		sale_number TEXT NOT NULL UNIQUE,
		client_id TEXT REFERENCES clients(id),
		seller_id TEXT NOT NULL,
		promotion_id TEXT REFERENCES promotions(id),
		subtotal NUMERIC(14,2) NOT NULL,
		discount_amount NUMERIC(14,2) NOT NULL,
		tax_amount NUMERIC(14,2) NOT NULL,
		total_amount NUMERIC(14,2) NOT NULL,
		payment_status TEXT NOT NULL,
		created_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_company_created ON sales (company_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS invoices (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
		sale_id TEXT NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
		invoice_number TEXT NOT NULL UNIQUE,
		client_id TEXT REFERENCES clients(id),
		issue_date TEXT NOT NULL,
		due_date TEXT NOT NULL,
		subtotal NUMERIC(14,2) NOT NULL,
		tax_amount NUMERIC(14,2) NOT NULL,
		total_amount NUMERIC(14,2) NOT NULL,
		paid_amount NUMERIC(14,2) NOT NULL,
		status TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sale_items (
		id TEXT PRIMARY KEY,
		sale_id TEXT NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
		invoice_id TEXT NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
		product_id TEXT NOT NULL REFERENCES products(id),
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price NUMERIC(14,2) NOT NULL,
		total_price NUMERIC(14,2) NOT NULL
	)`,
}

func (s *Store) migrate(ctx context.Context) error {
	ts := "TIMESTAMPTZ"
	if s.driver == DriverSQLite {
		ts = "DATETIME"
	}
	r := strings.NewReplacer("{{ts}}", ts)

	for i, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, r.Replace(stmt)); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}
