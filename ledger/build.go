// Package ledger reconciles a customer's contracts, invoices, discounts,
// rentals and payments into a chronological account statement.
//
// Building happens in two stages: ConstructLines projects every source record
// into unordered ledger lines, then ApplyChronology sorts them and derives the
// running balance and per-document remaining amounts. Both stages are pure.
package ledger

import (
	"fmt"
	"time"

	"github.com/h2316307-design/adhub-pro-sub009/ledger/common"
	"github.com/shopspring/decimal"
)

// Options controls a single ledger build.
type Options struct {
	// Range filters payment records only.
	Range                common.DateRange
	ExcludeFriendRentals bool
	// Now decides which contracts are active. Zero means time.Now().
	Now      time.Time
	Patterns Patterns
}

func (o Options) withDefaults() Options {
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.Patterns.isZero() {
		o.Patterns = DefaultPatterns()
	}
	return o
}

// BuildCustomerLedger returns the chronologically ordered ledger lines and
// their summary. Identical inputs always produce identical output.
func BuildCustomerLedger(opts Options, src common.SourceRecords) ([]common.LedgerLine, common.Summary) {
	opts = opts.withDefaults()
	lines := ApplyChronology(ConstructLines(opts, src))
	return lines, Summarize(lines, src.Contracts, opts.Now)
}

// BuildStatement wraps BuildCustomerLedger with the customer and filters used.
func BuildStatement(customer common.Customer, opts Options, src common.SourceRecords) common.Statement {
	opts = opts.withDefaults()
	lines, summary := BuildCustomerLedger(opts, src)
	return common.Statement{
		Customer:             customer,
		Range:                opts.Range,
		ExcludeFriendRentals: opts.ExcludeFriendRentals,
		GeneratedAt:          opts.Now,
		Lines:                lines,
		Summary:              summary,
	}
}

// ConstructLines projects every source record into ledger lines. The result
// is unordered and carries no running balance yet.
func ConstructLines(opts Options, src common.SourceRecords) []common.LedgerLine {
	opts = opts.withDefaults()

	payments := make([]common.Payment, 0, len(src.Payments))
	for _, p := range src.Payments {
		if opts.Range.Contains(p.PaidAt) {
			payments = append(payments, p)
		}
	}

	idx := newIndex(src, payments, opts.Patterns)
	lines := []common.LedgerLine{}

	lines = append(lines, contractLines(idx, src.Contracts)...)
	lines = append(lines, discountLines(src.GeneralDiscounts)...)
	lines = append(lines, printedInvoiceLines(idx, src.PrintedInvoices)...)
	lines = append(lines, compositeTaskLines(src.CompositeTasks)...)
	lines = append(lines, purchaseInvoiceLines(src.PurchaseInvoices)...)
	lines = append(lines, salesInvoiceLines(src.SalesInvoices)...)
	if !opts.ExcludeFriendRentals {
		lines = append(lines, friendRentalLines(src.FriendBillboardRentals)...)
		lines = append(lines, contractFriendRentalLines(src.Contracts)...)
	}
	for _, p := range payments {
		lines = append(lines, idx.paymentLine(p))
	}

	return uniqueIDs(lines)
}

// uniqueIDs suffixes repeated line ids, which appear when source records lack
// an id or share a contract number.
func uniqueIDs(lines []common.LedgerLine) []common.LedgerLine {
	seen := make(map[string]int, len(lines))
	for i := range lines {
		id := lines[i].ID
		seen[id]++
		if seen[id] == 1 {
			continue
		}
		for n := seen[id]; ; n++ {
			candidate := fmt.Sprintf("%s#%d", id, n)
			if seen[candidate] == 0 {
				seen[candidate] = 1
				seen[id] = n
				lines[i].ID = candidate
				break
			}
		}
	}
	return lines
}

// index holds the lookups shared by the per-kind projections.
type index struct {
	patterns          Patterns
	contracts         map[int64]*common.Contract
	contractPaid      map[int64]decimal.Decimal
	sales             map[string]*common.SalesInvoice
	salesByNumber     map[string]*common.SalesInvoice
	printed           map[string]*common.PrintedInvoice
	combinedInvoices  map[string]bool
	composite         map[string]*common.CompositeTask
	purchases         map[string]*common.PurchaseInvoice
	purchasesByNumber map[string]*common.PurchaseInvoice
}

var contractPaymentTypes = map[string]bool{
	common.EntryReceipt:        true,
	common.EntryAccountPayment: true,
	common.EntryPayment:        true,
}

func newIndex(src common.SourceRecords, payments []common.Payment, patterns Patterns) *index {
	idx := &index{
		patterns:          patterns,
		contracts:         make(map[int64]*common.Contract, len(src.Contracts)),
		contractPaid:      make(map[int64]decimal.Decimal),
		sales:             make(map[string]*common.SalesInvoice, len(src.SalesInvoices)),
		salesByNumber:     make(map[string]*common.SalesInvoice, len(src.SalesInvoices)),
		printed:           make(map[string]*common.PrintedInvoice, len(src.PrintedInvoices)),
		combinedInvoices:  make(map[string]bool),
		composite:         make(map[string]*common.CompositeTask, len(src.CompositeTasks)),
		purchases:         make(map[string]*common.PurchaseInvoice, len(src.PurchaseInvoices)),
		purchasesByNumber: make(map[string]*common.PurchaseInvoice, len(src.PurchaseInvoices)),
	}

	for i := range src.Contracts {
		c := &src.Contracts[i]
		if _, seen := idx.contracts[c.ContractNumber]; !seen {
			idx.contracts[c.ContractNumber] = c
		}
	}
	for _, p := range payments {
		if !p.ContractNumber.Valid || !contractPaymentTypes[p.EntryType] {
			continue
		}
		n := p.ContractNumber.Int64
		idx.contractPaid[n] = idx.contractPaid[n].Add(p.Amount.Decimal)
	}
	for i := range src.SalesInvoices {
		inv := &src.SalesInvoices[i]
		idx.sales[inv.ID] = inv
		if inv.InvoiceNumber != "" {
			idx.salesByNumber[inv.InvoiceNumber] = inv
		}
	}
	for i := range src.PrintedInvoices {
		inv := &src.PrintedInvoices[i]
		idx.printed[inv.ID] = inv
	}
	for i := range src.CompositeTasks {
		task := &src.CompositeTasks[i]
		idx.composite[task.ID] = task
		if task.CombinedInvoiceID != "" {
			idx.combinedInvoices[task.CombinedInvoiceID] = true
		}
	}
	for i := range src.PurchaseInvoices {
		inv := &src.PurchaseInvoices[i]
		idx.purchases[inv.ID] = inv
		if inv.InvoiceNumber != "" {
			idx.purchasesByNumber[inv.InvoiceNumber] = inv
		}
	}

	return idx
}

func nonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func nullOf(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(d)
}
