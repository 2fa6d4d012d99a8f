package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/h2316307-design/adhub-pro-sub009/ledger/common"
	"github.com/h2316307-design/adhub-pro-sub009/statement"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const nameLike = " ILIKE '%%' || $%d || '%%'"

var (
	contractsQuery = collection{
		name: "contracts",
		query: `SELECT "Contract_Number", COALESCE(customer_id, ''), COALESCE("Customer Name", ''),
			COALESCE("Ad Type", ''), "Contract Date", "End Date", "Total", friend_rental_data
		FROM "Contract"`,
		byID:    "customer_id = $%d",
		byName:  `"Customer Name"` + nameLike,
		orderBy: `"Contract Date", "Contract_Number"`,
	}

	paymentsQuery = collection{
		name: "payments",
		query: `SELECT id, COALESCE(customer_id, ''), COALESCE(customer_name, ''), contract_number,
			COALESCE(sales_invoice_id, ''), COALESCE(printed_invoice_id, ''), COALESCE(composite_task_id, ''),
			COALESCE(purchase_invoice_id, ''), COALESCE(distributed_payment_id, ''), COALESCE(entry_type, ''),
			amount, paid_at, COALESCE(notes, ''), COALESCE(method, ''), COALESCE(reference, '')
		FROM customer_payments`,
		byID:    "customer_id = $%d",
		byName:  "customer_name" + nameLike,
		dateCol: "paid_at",
		orderBy: "paid_at, id",
	}

	printedInvoicesQuery = collection{
		name: "printed_invoices",
		query: `SELECT id, COALESCE(customer_id, ''), COALESCE(customer_name, ''), COALESCE(invoice_number, ''),
			total_amount, paid_amount, invoice_date, COALESCE(notes, '')
		FROM printed_invoices`,
		byID:    "customer_id = $%d",
		byName:  "customer_name" + nameLike,
		orderBy: "invoice_date, id",
	}

	generalDiscountsQuery = collection{
		name: "general_discounts",
		query: `SELECT id, COALESCE(customer_id, ''), discount_type, discount_value,
			COALESCE(reason, ''), status, applied_date
		FROM customer_general_discounts`,
		byID:    "customer_id = $%d",
		byName:  "customer_id IN (SELECT id FROM customers WHERE name" + nameLike + ")",
		static:  []string{"status = 'active'"},
		orderBy: "applied_date, id",
	}

	purchaseInvoicesQuery = collection{
		name: "purchase_invoices",
		query: `SELECT id, COALESCE(customer_id, ''), COALESCE(customer_name, ''), COALESCE(invoice_number, ''),
			COALESCE(invoice_name, ''), total_amount, used_as_payment, invoice_date, COALESCE(notes, '')
		FROM purchase_invoices`,
		byID:    "customer_id = $%d",
		byName:  "customer_name" + nameLike,
		static:  []string{"deleted_at IS NULL", "COALESCE(status, '') <> 'cancelled'"},
		orderBy: "invoice_date, id",
	}

	salesInvoicesQuery = collection{
		name: "sales_invoices",
		query: `SELECT id, COALESCE(customer_id, ''), COALESCE(customer_name, ''), COALESCE(invoice_number, ''),
			COALESCE(invoice_name, ''), total_amount, paid_amount, invoice_date, COALESCE(notes, '')
		FROM sales_invoices`,
		byID:    "customer_id = $%d",
		byName:  "customer_name" + nameLike,
		orderBy: "invoice_date, id",
	}

	compositeTasksQuery = collection{
		name: "composite_tasks",
		query: `SELECT ct.id, COALESCE(ct.customer_id, ''), COALESCE(ct.customer_name, ''), COALESCE(ct.task_type, ''),
			ct.customer_total, ct.paid_amount, COALESCE(ct.combined_invoice_id, ''), COALESCE(ct.installation_task_id, ''),
			it.contract_id, COALESCE(it.contract_ids, '{}'), ct.created_at, COALESCE(ct.notes, '')
		FROM composite_tasks ct
		LEFT JOIN installation_tasks it ON it.id = ct.installation_task_id`,
		byID:    "ct.customer_id = $%d",
		byName:  "ct.customer_name" + nameLike,
		orderBy: "ct.created_at, ct.id",
	}
)

func scanContract(row pgx.CollectableRow) (common.Contract, error) {
	var c common.Contract
	var rentals []byte
	err := row.Scan(&c.ContractNumber, &c.CustomerID, &c.CustomerName, &c.AdType,
		&c.ContractDate, &c.EndDate, &c.Total, &rentals)
	if err != nil {
		return c, err
	}
	c.FriendRentalData = decodeFriendRentals(rentals)
	return c, nil
}

// decodeFriendRentals drops malformed friend_rental_data instead of failing the
// whole contract.
func decodeFriendRentals(raw []byte) map[string]common.FriendRentalEntry {
	if len(raw) == 0 {
		return nil
	}
	var data map[string]common.FriendRentalEntry
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil
	}
	return data
}

func scanPayment(row pgx.CollectableRow) (common.Payment, error) {
	var p common.Payment
	err := row.Scan(&p.ID, &p.CustomerID, &p.CustomerName, &p.ContractNumber,
		&p.SalesInvoiceID, &p.PrintedInvoiceID, &p.CompositeTaskID,
		&p.PurchaseInvoiceID, &p.DistributedPaymentID, &p.EntryType,
		&p.Amount, &p.PaidAt, &p.Notes, &p.Method, &p.Reference)
	return p, err
}

func scanPrintedInvoice(row pgx.CollectableRow) (common.PrintedInvoice, error) {
	var inv common.PrintedInvoice
	err := row.Scan(&inv.ID, &inv.CustomerID, &inv.CustomerName, &inv.InvoiceNumber,
		&inv.TotalAmount, &inv.PaidAmount, &inv.InvoiceDate, &inv.Notes)
	return inv, err
}

func scanGeneralDiscount(row pgx.CollectableRow) (common.GeneralDiscount, error) {
	var d common.GeneralDiscount
	err := row.Scan(&d.ID, &d.CustomerID, &d.DiscountType, &d.DiscountValue,
		&d.Reason, &d.Status, &d.AppliedDate)
	return d, err
}

func scanPurchaseInvoice(row pgx.CollectableRow) (common.PurchaseInvoice, error) {
	var inv common.PurchaseInvoice
	err := row.Scan(&inv.ID, &inv.CustomerID, &inv.CustomerName, &inv.InvoiceNumber,
		&inv.InvoiceName, &inv.TotalAmount, &inv.UsedAsPayment, &inv.InvoiceDate, &inv.Notes)
	return inv, err
}

func scanSalesInvoice(row pgx.CollectableRow) (common.SalesInvoice, error) {
	var inv common.SalesInvoice
	err := row.Scan(&inv.ID, &inv.CustomerID, &inv.CustomerName, &inv.InvoiceNumber,
		&inv.InvoiceName, &inv.TotalAmount, &inv.PaidAmount, &inv.InvoiceDate, &inv.Notes)
	return inv, err
}

func scanCompositeTask(row pgx.CollectableRow) (common.CompositeTask, error) {
	var t common.CompositeTask
	err := row.Scan(&t.ID, &t.CustomerID, &t.CustomerName, &t.TaskType,
		&t.CustomerTotal, &t.PaidAmount, &t.CombinedInvoiceID, &t.InstallationTaskID,
		&t.ContractID, &t.ContractIDs, &t.CreatedAt, &t.Notes)
	return t, err
}

func scanFriendRental(row pgx.CollectableRow) (common.FriendBillboardRental, error) {
	var r common.FriendBillboardRental
	err := row.Scan(&r.ID, &r.BillboardID, &r.ContractNumber, &r.FriendCompanyID,
		&r.FriendRentalCost, &r.CustomerRentalPrice, &r.UsedAsPayment,
		&r.StartDate, &r.EndDate, &r.CreatedAt, &r.Notes)
	return r, err
}

// FindCustomer looks the customer up by id, then by name.
func (db *DB) FindCustomer(ctx context.Context, q statement.Query) (*common.Customer, error) {
	const selectCustomer = `SELECT id, name, COALESCE(linked_friend_company_id, '') FROM customers`

	var c common.Customer
	if q.CustomerID != "" {
		err := db.Pool.QueryRow(ctx, selectCustomer+` WHERE id = $1`, q.CustomerID).
			Scan(&c.ID, &c.Name, &c.LinkedFriendCompanyID)
		if err == nil {
			return &c, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to find customer: %w", err)
		}
	}
	if q.CustomerName == "" {
		return nil, nil
	}

	err := db.Pool.QueryRow(ctx, selectCustomer+` WHERE name ILIKE '%' || $1 || '%' ORDER BY (name = $1) DESC, name LIMIT 1`, q.CustomerName).
		Scan(&c.ID, &c.Name, &c.LinkedFriendCompanyID)
	if errors.Is(err, pgx.ErrNoRows) {
		db.logger.Debug("customer not found", zap.String("customer_name", q.CustomerName))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find customer: %w", err)
	}
	return &c, nil
}

func (db *DB) FetchContracts(ctx context.Context, q statement.Query) ([]common.Contract, error) {
	return fetch(ctx, db, contractsQuery, q, scanContract)
}

func (db *DB) FetchPayments(ctx context.Context, q statement.Query) ([]common.Payment, error) {
	return fetch(ctx, db, paymentsQuery, q, scanPayment)
}

func (db *DB) FetchPrintedInvoices(ctx context.Context, q statement.Query) ([]common.PrintedInvoice, error) {
	return fetch(ctx, db, printedInvoicesQuery, q, scanPrintedInvoice)
}

func (db *DB) FetchGeneralDiscounts(ctx context.Context, q statement.Query) ([]common.GeneralDiscount, error) {
	return fetch(ctx, db, generalDiscountsQuery, q, scanGeneralDiscount)
}

func (db *DB) FetchPurchaseInvoices(ctx context.Context, q statement.Query) ([]common.PurchaseInvoice, error) {
	return fetch(ctx, db, purchaseInvoicesQuery, q, scanPurchaseInvoice)
}

func (db *DB) FetchSalesInvoices(ctx context.Context, q statement.Query) ([]common.SalesInvoice, error) {
	return fetch(ctx, db, salesInvoicesQuery, q, scanSalesInvoice)
}

func (db *DB) FetchCompositeTasks(ctx context.Context, q statement.Query) ([]common.CompositeTask, error) {
	return fetch(ctx, db, compositeTasksQuery, q, scanCompositeTask)
}

// FetchFriendBillboardRentals returns rentals booked through the given
// partner company. An empty id yields no rentals.
func (db *DB) FetchFriendBillboardRentals(ctx context.Context, friendCompanyID string) ([]common.FriendBillboardRental, error) {
	if friendCompanyID == "" {
		return nil, nil
	}

	rows, err := db.Pool.Query(ctx, `
		SELECT id, COALESCE(billboard_id, ''), contract_number, COALESCE(friend_company_id, ''),
			friend_rental_cost, customer_rental_price, used_as_payment,
			start_date, end_date, created_at, COALESCE(notes, '')
		FROM friend_billboard_rentals
		WHERE friend_company_id = $1
		ORDER BY start_date, id
	`, friendCompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query friend rentals: %w", err)
	}
	rentals, err := pgx.CollectRows(rows, scanFriendRental)
	if err != nil {
		return nil, fmt.Errorf("failed to scan friend rentals: %w", err)
	}
	return rentals, nil
}

var _ statement.Source = (*DB)(nil)
