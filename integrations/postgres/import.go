package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/h2316307-design/adhub-pro-sub009/ledger/common"
	"github.com/h2316307-design/adhub-pro-sub009/statement"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// ImportResult tracks the outcome of an import operation
type ImportResult struct {
	Processed int
	Skipped   int
	Failed    int
	Errors    []string
}

func (r *ImportResult) add(o *ImportResult) {
	r.Processed += o.Processed
	r.Skipped += o.Skipped
	r.Failed += o.Failed
	r.Errors = append(r.Errors, o.Errors...)
}

// ImportOptions configures the import behavior
type ImportOptions struct {
	Force   bool // Overwrite records that already exist
	Verbose bool // Log every file
}

// upsertRow is one record ready to be written.
type upsertRow struct {
	table    string
	conflict string
	columns  []string
	values   []interface{}
	label    string
}

// upsertSQL builds an INSERT that skips existing keys, or overwrites them
// when force is set.
func upsertSQL(table, conflict string, columns []string, force bool) string {
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pgx.Identifier{c}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) ",
		pgx.Identifier{table}.Sanitize(),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
		pgx.Identifier{conflict}.Sanitize())

	if !force {
		return sql + "DO NOTHING"
	}

	var sets []string
	for _, q := range quoted {
		if q == (pgx.Identifier{conflict}).Sanitize() {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", q, q))
	}
	return sql + "DO UPDATE SET " + strings.Join(sets, ", ")
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func idOrNew(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

// bundleRows flattens a bundle into rows ordered so that referenced records
// come first. Records that cannot be stored are reported as errors.
func bundleRows(b common.Bundle) ([]upsertRow, []string) {
	var rows []upsertRow
	var invalid []string

	customerID := b.Customer.ID
	if b.Customer.Name != "" {
		customerID = idOrNew(customerID)
		rows = append(rows, upsertRow{
			table:    "customers",
			conflict: "id",
			columns:  []string{"id", "name", "linked_friend_company_id"},
			values:   []interface{}{customerID, b.Customer.Name, nullString(b.Customer.LinkedFriendCompanyID)},
			label:    "customer " + b.Customer.Name,
		})
	} else if customerID != "" {
		invalid = append(invalid, fmt.Sprintf("customer %s: missing name", customerID))
		customerID = ""
	}

	owner := func(id string) interface{} {
		if id != "" {
			return id
		}
		return nullString(customerID)
	}

	for _, t := range b.CompositeTasks {
		if t.InstallationTaskID == "" || (!t.ContractID.Valid && len(t.ContractIDs) == 0) {
			continue
		}
		ids := t.ContractIDs
		if ids == nil {
			ids = []int64{}
		}
		rows = append(rows, upsertRow{
			table:    "installation_tasks",
			conflict: "id",
			columns:  []string{"id", "contract_id", "contract_ids"},
			values:   []interface{}{t.InstallationTaskID, t.ContractID.Ptr(), ids},
			label:    "installation task " + t.InstallationTaskID,
		})
	}

	for _, c := range b.Contracts {
		if c.ContractNumber <= 0 {
			invalid = append(invalid, fmt.Sprintf("contract: invalid number %d", c.ContractNumber))
			continue
		}
		var rentals interface{}
		if len(c.FriendRentalData) > 0 {
			data, err := json.Marshal(c.FriendRentalData)
			if err != nil {
				invalid = append(invalid, fmt.Sprintf("contract %d: %v", c.ContractNumber, err))
				continue
			}
			rentals = data
		}
		rows = append(rows, upsertRow{
			table:    "Contract",
			conflict: "Contract_Number",
			columns:  []string{"Contract_Number", "customer_id", "Customer Name", "Ad Type", "Contract Date", "End Date", "Total", "friend_rental_data"},
			values: []interface{}{c.ContractNumber, owner(c.CustomerID), nullString(c.CustomerName), nullString(c.AdType),
				c.ContractDate.Ptr(), c.EndDate.Ptr(), c.Total.Decimal, rentals},
			label: fmt.Sprintf("contract %d", c.ContractNumber),
		})
	}

	for _, d := range b.GeneralDiscounts {
		if d.DiscountType != common.DiscountFixed && d.DiscountType != common.DiscountPercentage {
			invalid = append(invalid, fmt.Sprintf("discount %s: unknown type %q", d.ID, d.DiscountType))
			continue
		}
		status := d.Status
		if status == "" {
			status = common.StatusActive
		}
		id := idOrNew(d.ID)
		rows = append(rows, upsertRow{
			table:    "customer_general_discounts",
			conflict: "id",
			columns:  []string{"id", "customer_id", "discount_type", "discount_value", "reason", "status", "applied_date"},
			values:   []interface{}{id, owner(d.CustomerID), d.DiscountType, d.DiscountValue.Decimal, nullString(d.Reason), status, d.AppliedDate.Ptr()},
			label:    "discount " + id,
		})
	}

	for _, inv := range b.PrintedInvoices {
		id := idOrNew(inv.ID)
		rows = append(rows, upsertRow{
			table:    "printed_invoices",
			conflict: "id",
			columns:  []string{"id", "customer_id", "customer_name", "invoice_number", "total_amount", "paid_amount", "invoice_date", "notes"},
			values: []interface{}{id, owner(inv.CustomerID), nullString(inv.CustomerName), nullString(inv.InvoiceNumber),
				inv.TotalAmount.Decimal, inv.PaidAmount.Decimal, inv.InvoiceDate.Ptr(), nullString(inv.Notes)},
			label: "printed invoice " + id,
		})
	}

	for _, inv := range b.PurchaseInvoices {
		id := idOrNew(inv.ID)
		rows = append(rows, upsertRow{
			table:    "purchase_invoices",
			conflict: "id",
			columns:  []string{"id", "customer_id", "customer_name", "invoice_number", "invoice_name", "total_amount", "used_as_payment", "invoice_date", "notes"},
			values: []interface{}{id, owner(inv.CustomerID), nullString(inv.CustomerName), nullString(inv.InvoiceNumber), nullString(inv.InvoiceName),
				inv.TotalAmount.Decimal, inv.UsedAsPayment.Decimal, inv.InvoiceDate.Ptr(), nullString(inv.Notes)},
			label: "purchase invoice " + id,
		})
	}

	for _, inv := range b.SalesInvoices {
		id := idOrNew(inv.ID)
		rows = append(rows, upsertRow{
			table:    "sales_invoices",
			conflict: "id",
			columns:  []string{"id", "customer_id", "customer_name", "invoice_number", "invoice_name", "total_amount", "paid_amount", "invoice_date", "notes"},
			values: []interface{}{id, owner(inv.CustomerID), nullString(inv.CustomerName), nullString(inv.InvoiceNumber), nullString(inv.InvoiceName),
				inv.TotalAmount.Decimal, inv.PaidAmount.Decimal, inv.InvoiceDate.Ptr(), nullString(inv.Notes)},
			label: "sales invoice " + id,
		})
	}

	for _, t := range b.CompositeTasks {
		id := idOrNew(t.ID)
		var installation interface{}
		if t.InstallationTaskID != "" && (t.ContractID.Valid || len(t.ContractIDs) > 0) {
			installation = t.InstallationTaskID
		}
		rows = append(rows, upsertRow{
			table:    "composite_tasks",
			conflict: "id",
			columns:  []string{"id", "customer_id", "customer_name", "task_type", "customer_total", "paid_amount", "combined_invoice_id", "installation_task_id", "created_at", "notes"},
			values: []interface{}{id, owner(t.CustomerID), nullString(t.CustomerName), nullString(t.TaskType), t.CustomerTotal.Decimal, t.PaidAmount.Decimal,
				nullString(t.CombinedInvoiceID), installation, t.CreatedAt.Ptr(), nullString(t.Notes)},
			label: "composite task " + id,
		})
	}

	for _, r := range b.FriendBillboardRentals {
		id := idOrNew(r.ID)
		companyID := r.FriendCompanyID
		if companyID == "" {
			companyID = b.Customer.LinkedFriendCompanyID
		}
		rows = append(rows, upsertRow{
			table:    "friend_billboard_rentals",
			conflict: "id",
			columns:  []string{"id", "billboard_id", "contract_number", "friend_company_id", "friend_rental_cost", "customer_rental_price", "used_as_payment", "start_date", "end_date", "created_at", "notes"},
			values: []interface{}{id, nullString(r.BillboardID), r.ContractNumber.Ptr(), nullString(companyID), r.FriendRentalCost.Decimal,
				r.CustomerRentalPrice.Decimal, r.UsedAsPayment.Decimal, r.StartDate.Ptr(), r.EndDate.Ptr(), r.CreatedAt.Ptr(), nullString(r.Notes)},
			label: "friend rental " + id,
		})
	}

	for _, p := range b.Payments {
		id := idOrNew(p.ID)
		entryType := p.EntryType
		if entryType == "" {
			entryType = common.EntryPayment
		}
		rows = append(rows, upsertRow{
			table:    "customer_payments",
			conflict: "id",
			columns: []string{"id", "customer_id", "customer_name", "contract_number", "sales_invoice_id", "printed_invoice_id", "composite_task_id",
				"purchase_invoice_id", "distributed_payment_id", "entry_type", "amount", "paid_at", "notes", "method", "reference"},
			values: []interface{}{id, owner(p.CustomerID), nullString(p.CustomerName), p.ContractNumber.Ptr(), nullString(p.SalesInvoiceID),
				nullString(p.PrintedInvoiceID), nullString(p.CompositeTaskID), nullString(p.PurchaseInvoiceID), nullString(p.DistributedPaymentID),
				entryType, p.Amount.Decimal, p.PaidAt.Ptr(), nullString(p.Notes), nullString(p.Method), nullString(p.Reference)},
			label: "payment " + id,
		})
	}

	return rows, invalid
}

// ImportBundle writes one bundle in a single transaction. Records whose key
// already exists are skipped unless opts.Force is set.
func (db *DB) ImportBundle(ctx context.Context, bundle common.Bundle, opts ImportOptions) (*ImportResult, error) {
	rows, invalid := bundleRows(bundle)
	result := &ImportResult{Failed: len(invalid), Errors: invalid}
	if len(rows) == 0 {
		return result, nil
	}

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(upsertSQL(r.table, r.conflict, r.columns, opts.Force), r.values...)
	}

	br := tx.SendBatch(ctx, batch)
	for _, r := range rows {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return nil, fmt.Errorf("failed to import %s: %w", r.label, err)
		}
		if tag.RowsAffected() == 0 {
			result.Skipped++
			continue
		}
		result.Processed++
	}
	if err := br.Close(); err != nil {
		return nil, fmt.Errorf("failed to import bundle: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}
	return result, nil
}

// ImportFile imports a single bundle file. Failures are reported in the
// result rather than returned.
func (db *DB) ImportFile(ctx context.Context, filePath string, opts ImportOptions) *ImportResult {
	fileName := filepath.Base(filePath)

	bundle, err := statement.LoadBundle(filePath)
	if err != nil {
		return &ImportResult{Failed: 1, Errors: []string{fmt.Sprintf("%s: %v", fileName, err)}}
	}

	result, err := db.ImportBundle(ctx, bundle, opts)
	if err != nil {
		return &ImportResult{Failed: 1, Errors: []string{fmt.Sprintf("%s: %v", fileName, err)}}
	}
	for i, msg := range result.Errors {
		result.Errors[i] = fmt.Sprintf("%s: %s", fileName, msg)
	}

	if opts.Verbose {
		db.logger.Info("imported bundle",
			zap.String("file", fileName),
			zap.String("customer", bundle.Customer.Name),
			zap.Int("processed", result.Processed),
			zap.Int("skipped", result.Skipped),
			zap.Int("failed", result.Failed))
	}
	return result
}

// ImportDirectory processes all JSON bundles in a directory
func (db *DB) ImportDirectory(ctx context.Context, dirPath string, opts ImportOptions) (*ImportResult, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".json") {
			continue
		}
		files = append(files, filepath.Join(dirPath, e.Name()))
	}

	db.logger.Info("scanning directory", zap.String("path", dirPath), zap.Int("files", len(files)))

	result := &ImportResult{}
	for _, f := range files {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		result.add(db.ImportFile(ctx, f, opts))
	}
	return result, nil
}

// Import handles both file and directory imports
func (db *DB) Import(ctx context.Context, path string, opts ImportOptions) (*ImportResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	if info.IsDir() {
		return db.ImportDirectory(ctx, path, opts)
	}
	return db.ImportFile(ctx, path, opts), nil
}
