// Package export renders a built statement as CSV or PDF.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/h2316307-design/adhub-pro-sub009/ledger/common"
	"github.com/shopspring/decimal"
)

var csvHeader = []string{
	"#", "Date", "Kind", "Description", "Reference",
	"Debit", "Credit", "Item Total", "Item Remaining", "Running Balance", "Notes",
}

// WriteCSV writes one row per ledger line followed by the summary figures.
func WriteCSV(w io.Writer, stmt common.Statement) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for i, l := range stmt.Lines {
		row := []string{
			fmt.Sprintf("%d", i+1),
			formatDate(l.Date),
			string(l.Kind),
			l.Description,
			l.Reference,
			formatMoney(l.Debit),
			formatMoney(l.Credit),
			formatNullMoney(l.ItemTotal),
			formatNullMoney(l.ItemRemaining),
			formatMoney(l.RunningBalance),
			l.Notes,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", i+1, err)
		}
	}

	cw.Write([]string{})
	for _, row := range summaryRows(stmt.Summary) {
		cw.Write([]string{row[0], row[1]})
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

func summaryRows(s common.Summary) [][2]string {
	return [][2]string{
		{"Total Debits", formatMoney(s.TotalDebits)},
		{"Total Credits", formatMoney(s.TotalCredits)},
		{"Balance", formatMoney(s.Balance)},
		{"Friend Rentals", formatMoney(s.TotalFriendRentals)},
		{"Balance Without Friend Rentals", formatMoney(s.BalanceWithoutFriendRentals)},
		{"Total Payments", formatMoney(s.TotalPayments)},
		{"Total Discounts", formatMoney(s.TotalDiscounts)},
		{"Total Purchase Invoices", formatMoney(s.TotalPurchaseInvoices)},
		{"Total Sales Invoices", formatMoney(s.TotalSalesInvoices)},
		{"Contracts", fmt.Sprintf("%d (%d active)", s.ContractCount, s.ActiveContractCount)},
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatNullMoney(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return formatMoney(d.Decimal)
}
