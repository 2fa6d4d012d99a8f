package postgres

import (
	"context"
	"fmt"
)

// ddl mirrors the subset of the production schema the statement reads.
// Column names, including the quoted "Contract" columns, match production.
const ddl = `
CREATE TABLE IF NOT EXISTS customers (
    id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
    name TEXT NOT NULL,
    linked_friend_company_id TEXT,
    created_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS "Contract" (
    "Contract_Number" BIGINT PRIMARY KEY,
    customer_id TEXT REFERENCES customers(id) ON DELETE SET NULL,
    "Customer Name" TEXT,
    "Ad Type" TEXT,
    "Contract Date" DATE,
    "End Date" DATE,
    "Total" NUMERIC(18,2) DEFAULT 0,
    friend_rental_data JSONB
);

CREATE TABLE IF NOT EXISTS customer_payments (
    id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
    customer_id TEXT REFERENCES customers(id) ON DELETE SET NULL,
    customer_name TEXT,
    contract_number BIGINT,
    sales_invoice_id TEXT,
    printed_invoice_id TEXT,
    composite_task_id TEXT,
    purchase_invoice_id TEXT,
    distributed_payment_id TEXT,
    entry_type TEXT NOT NULL DEFAULT 'payment',
    amount NUMERIC(18,2) DEFAULT 0,
    paid_at TIMESTAMPTZ,
    notes TEXT,
    method TEXT,
    reference TEXT
);

CREATE TABLE IF NOT EXISTS printed_invoices (
    id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
    customer_id TEXT REFERENCES customers(id) ON DELETE SET NULL,
    customer_name TEXT,
    invoice_number TEXT,
    total_amount NUMERIC(18,2) DEFAULT 0,
    paid_amount NUMERIC(18,2) DEFAULT 0,
    invoice_date DATE,
    notes TEXT
);

CREATE TABLE IF NOT EXISTS customer_general_discounts (
    id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
    customer_id TEXT REFERENCES customers(id) ON DELETE CASCADE,
    discount_type TEXT NOT NULL,
    discount_value NUMERIC(18,2) DEFAULT 0,
    reason TEXT,
    status TEXT NOT NULL DEFAULT 'active',
    applied_date DATE
);

CREATE TABLE IF NOT EXISTS purchase_invoices (
    id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
    customer_id TEXT REFERENCES customers(id) ON DELETE SET NULL,
    customer_name TEXT,
    invoice_number TEXT,
    invoice_name TEXT,
    total_amount NUMERIC(18,2) DEFAULT 0,
    used_as_payment NUMERIC(18,2) DEFAULT 0,
    invoice_date DATE,
    notes TEXT,
    status TEXT,
    deleted_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS sales_invoices (
    id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
    customer_id TEXT REFERENCES customers(id) ON DELETE SET NULL,
    customer_name TEXT,
    invoice_number TEXT,
    invoice_name TEXT,
    total_amount NUMERIC(18,2) DEFAULT 0,
    paid_amount NUMERIC(18,2) DEFAULT 0,
    invoice_date DATE,
    notes TEXT
);

CREATE TABLE IF NOT EXISTS installation_tasks (
    id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
    contract_id BIGINT,
    contract_ids BIGINT[]
);

CREATE TABLE IF NOT EXISTS composite_tasks (
    id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
    customer_id TEXT REFERENCES customers(id) ON DELETE SET NULL,
    customer_name TEXT,
    task_type TEXT,
    customer_total NUMERIC(18,2) DEFAULT 0,
    paid_amount NUMERIC(18,2) DEFAULT 0,
    combined_invoice_id TEXT,
    installation_task_id TEXT REFERENCES installation_tasks(id) ON DELETE SET NULL,
    created_at TIMESTAMPTZ DEFAULT NOW(),
    notes TEXT
);

CREATE TABLE IF NOT EXISTS friend_billboard_rentals (
    id TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
    billboard_id TEXT,
    contract_number BIGINT,
    friend_company_id TEXT,
    friend_rental_cost NUMERIC(18,2) DEFAULT 0,
    customer_rental_price NUMERIC(18,2) DEFAULT 0,
    used_as_payment NUMERIC(18,2) DEFAULT 0,
    start_date DATE,
    end_date DATE,
    created_at TIMESTAMPTZ DEFAULT NOW(),
    notes TEXT
);

-- Indexes for the per-customer lookups
CREATE INDEX IF NOT EXISTS idx_contract_customer_id ON "Contract"(customer_id);
CREATE INDEX IF NOT EXISTS idx_customer_payments_customer_id ON customer_payments(customer_id);
CREATE INDEX IF NOT EXISTS idx_customer_payments_paid_at ON customer_payments(paid_at);
CREATE INDEX IF NOT EXISTS idx_printed_invoices_customer_id ON printed_invoices(customer_id);
CREATE INDEX IF NOT EXISTS idx_general_discounts_customer_id ON customer_general_discounts(customer_id);
CREATE INDEX IF NOT EXISTS idx_purchase_invoices_customer_id ON purchase_invoices(customer_id);
CREATE INDEX IF NOT EXISTS idx_sales_invoices_customer_id ON sales_invoices(customer_id);
CREATE INDEX IF NOT EXISTS idx_composite_tasks_customer_id ON composite_tasks(customer_id);
CREATE INDEX IF NOT EXISTS idx_friend_rentals_company_id ON friend_billboard_rentals(friend_company_id);
`

// migrateDDL adds columns that older deployments lack
const migrateDDL = `
DO $$ BEGIN
    IF NOT EXISTS (SELECT 1 FROM information_schema.columns
                   WHERE table_name = 'purchase_invoices' AND column_name = 'deleted_at') THEN
        ALTER TABLE purchase_invoices ADD COLUMN deleted_at TIMESTAMPTZ;
    END IF;
END $$;

DO $$ BEGIN
    IF NOT EXISTS (SELECT 1 FROM information_schema.columns
                   WHERE table_name = 'Contract' AND column_name = 'friend_rental_data') THEN
        ALTER TABLE "Contract" ADD COLUMN friend_rental_data JSONB;
    END IF;
END $$;

DO $$ BEGIN
    IF NOT EXISTS (SELECT 1 FROM information_schema.columns
                   WHERE table_name = 'customer_payments' AND column_name = 'distributed_payment_id') THEN
        ALTER TABLE customer_payments ADD COLUMN distributed_payment_id TEXT;
    END IF;
END $$;
`

// EnsureSchema creates tables if they don't exist and runs migrations
func (db *DB) EnsureSchema(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// Run migrations for existing tables
	_, err = db.Pool.Exec(ctx, migrateDDL)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
