package ledger

import (
	"fmt"
	"sort"
	"strings"

	"github.com/h2316307-design/adhub-pro-sub009/ledger/common"
	"github.com/shopspring/decimal"
)

func contractKey(n int64) string {
	return fmt.Sprintf("contract:%d", n)
}

func salesTracking(inv *common.SalesInvoice) *common.Tracking {
	return &common.Tracking{Key: "sales:" + inv.ID, Total: inv.TotalAmount.Decimal, Fixed: true}
}

func printedTracking(inv *common.PrintedInvoice) *common.Tracking {
	return &common.Tracking{Key: "printed:" + inv.ID, Total: inv.TotalAmount.Decimal, Fixed: true}
}

func contractLines(idx *index, contracts []common.Contract) []common.LedgerLine {
	lines := make([]common.LedgerLine, 0, len(contracts))
	for _, c := range contracts {
		total := c.Total.Decimal
		n := c.ContractNumber
		lines = append(lines, common.LedgerLine{
			ID:             fmt.Sprintf("%s-%d", common.KindContract, n),
			Date:           c.ContractDate.Ptr(),
			Kind:           common.KindContract,
			Description:    contractDescription(c),
			Debit:          total,
			ItemTotal:      nullOf(total),
			ItemRemaining:  nullOf(total),
			Outstanding:    nullOf(nonNegative(total.Sub(idx.contractPaid[n]))),
			Reference:      contractReference(n),
			AdType:         strings.TrimSpace(c.AdType),
			ContractNumber: &n,
			Tracking:       &common.Tracking{Key: contractKey(n), Total: total},
		})
	}
	return lines
}

// discountLines lists active general discounts. Percentage discounts are shown
// for information only and carry no credit.
func discountLines(discounts []common.GeneralDiscount) []common.LedgerLine {
	var lines []common.LedgerLine
	for _, d := range discounts {
		if d.Status != common.StatusActive {
			continue
		}

		line := common.LedgerLine{
			ID:        fmt.Sprintf("%s-%s", common.KindDiscount, d.ID),
			Date:      d.AppliedDate.Ptr(),
			Kind:      common.KindDiscount,
			Reference: noReference,
			Notes:     strings.TrimSpace(d.Reason),
		}
		if d.DiscountType == common.DiscountFixed {
			line.Description = "خصم عام: " + money(d.DiscountValue.Decimal)
			line.Credit = nonNegative(d.DiscountValue.Decimal)
		} else {
			line.Description = fmt.Sprintf("خصم عام: %s%% (للعلم فقط)", d.DiscountValue.String())
		}
		lines = append(lines, line)
	}
	return lines
}

func printedInvoiceLines(idx *index, invoices []common.PrintedInvoice) []common.LedgerLine {
	var lines []common.LedgerLine
	for i := range invoices {
		inv := &invoices[i]
		// Rolled up into a composite task; that task's line carries the debt.
		if idx.combinedInvoices[inv.ID] {
			continue
		}
		total := inv.TotalAmount.Decimal
		lines = append(lines, common.LedgerLine{
			ID:            fmt.Sprintf("%s-%s", common.KindPrintInvoice, inv.ID),
			Date:          inv.InvoiceDate.Ptr(),
			Kind:          common.KindPrintInvoice,
			Description:   printedTitle(inv),
			Debit:         total,
			ItemTotal:     nullOf(total),
			ItemRemaining: nullOf(nonNegative(total.Sub(inv.PaidAmount.Decimal))),
			Reference:     inv.InvoiceNumber,
			Notes:         strings.TrimSpace(inv.Notes),
			Tracking:      printedTracking(inv),
		})
	}
	return lines
}

// compositeTaskLines never copies task notes: they hold the internal cost
// breakdown.
func compositeTaskLines(tasks []common.CompositeTask) []common.LedgerLine {
	var lines []common.LedgerLine
	for i := range tasks {
		task := &tasks[i]
		total := task.CustomerTotal.Decimal
		desc := "مهمة مجمعة"
		if t := strings.TrimSpace(task.TaskType); t != "" {
			desc += " (" + t + ")"
		}
		lines = append(lines, common.LedgerLine{
			ID:            fmt.Sprintf("%s-%s", common.KindCompositeTask, task.ID),
			Date:          task.CreatedAt.Ptr(),
			Kind:          common.KindCompositeTask,
			Description:   desc,
			Debit:         total,
			ItemTotal:     nullOf(total),
			ItemRemaining: nullOf(nonNegative(total.Sub(task.PaidAmount.Decimal))),
			Reference:     compositeReference(task),
		})
	}
	return lines
}

// purchaseInvoiceLines credits the unused part of each purchase invoice.
// Invoices already consumed as payments elsewhere produce no line.
func purchaseInvoiceLines(invoices []common.PurchaseInvoice) []common.LedgerLine {
	var lines []common.LedgerLine
	for i := range invoices {
		inv := &invoices[i]
		total := inv.TotalAmount.Decimal
		used := inv.UsedAsPayment.Decimal
		remaining := total.Sub(used)
		if !remaining.IsPositive() {
			continue
		}

		title := purchaseTitle(inv)
		desc := "فاتورة مشتريات: " + title
		if used.IsPositive() {
			desc += fmt.Sprintf(" (مستخدم جزئياً %s من %s)", money(used), money(total))
		}
		lines = append(lines, common.LedgerLine{
			ID:            fmt.Sprintf("%s-%s", common.KindPurchaseInvoice, inv.ID),
			Date:          inv.InvoiceDate.Ptr(),
			Kind:          common.KindPurchaseInvoice,
			Description:   desc,
			Credit:        remaining,
			ItemTotal:     nullOf(total),
			ItemRemaining: nullOf(remaining),
			Reference:     title,
			Notes:         strings.TrimSpace(inv.Notes),
		})
	}
	return lines
}

func salesInvoiceLines(invoices []common.SalesInvoice) []common.LedgerLine {
	var lines []common.LedgerLine
	for i := range invoices {
		inv := &invoices[i]
		total := inv.TotalAmount.Decimal
		title := salesTitle(inv)
		lines = append(lines, common.LedgerLine{
			ID:            fmt.Sprintf("%s-%s", common.KindSalesInvoice, inv.ID),
			Date:          inv.InvoiceDate.Ptr(),
			Kind:          common.KindSalesInvoice,
			Description:   "فاتورة مبيعات: " + title,
			Debit:         total,
			ItemTotal:     nullOf(total),
			ItemRemaining: nullOf(nonNegative(total.Sub(inv.PaidAmount.Decimal))),
			Reference:     title,
			Notes:         strings.TrimSpace(inv.Notes),
			Tracking:      salesTracking(inv),
		})
	}
	return lines
}

func rentalCost(r common.FriendBillboardRental) decimal.Decimal {
	if r.FriendRentalCost.IsPositive() {
		return r.FriendRentalCost.Decimal
	}
	return r.CustomerRentalPrice.Decimal
}

// friendRentalLines credits rentals of this customer's billboards to a partner
// company, less what was already used as payment.
func friendRentalLines(rentals []common.FriendBillboardRental) []common.LedgerLine {
	var lines []common.LedgerLine
	for _, r := range rentals {
		cost := rentalCost(r)
		remaining := cost.Sub(r.UsedAsPayment.Decimal)
		if !remaining.IsPositive() {
			continue
		}

		date := r.StartDate
		if date.IsZero() {
			date = r.CreatedAt
		}
		reference := noReference
		if r.ContractNumber.Valid {
			reference = contractReference(r.ContractNumber.Int64)
		}
		desc := "إيجار لوحة صديقة"
		if r.BillboardID != "" {
			desc += " " + r.BillboardID
		}
		lines = append(lines, common.LedgerLine{
			ID:             fmt.Sprintf("%s-%s", common.KindFriendBillboardRental, r.ID),
			Date:           date.Ptr(),
			Kind:           common.KindFriendBillboardRental,
			Description:    desc,
			Credit:         remaining,
			ItemTotal:      nullOf(cost),
			ItemRemaining:  nullOf(remaining),
			Reference:      reference,
			Notes:          strings.TrimSpace(r.Notes),
			ContractNumber: r.ContractNumber.Ptr(),
		})
	}
	return lines
}

// contractFriendRentalLines credits rentals recorded inside a contract's
// friend_rental_data, one line per billboard.
func contractFriendRentalLines(contracts []common.Contract) []common.LedgerLine {
	var lines []common.LedgerLine
	for _, c := range contracts {
		billboards := make([]string, 0, len(c.FriendRentalData))
		for id := range c.FriendRentalData {
			billboards = append(billboards, id)
		}
		sort.Strings(billboards)

		n := c.ContractNumber
		for _, billboard := range billboards {
			entry := c.FriendRentalData[billboard]
			cost := entry.RentalCost.Decimal
			if !cost.IsPositive() {
				continue
			}
			desc := fmt.Sprintf("إيجار لوحة صديقة %s ضمن العقد %d", billboard, n)
			if company := strings.TrimSpace(entry.FriendCompanyName); company != "" {
				desc += " - " + company
			}
			contractNumber := n
			lines = append(lines, common.LedgerLine{
				ID:             fmt.Sprintf("%s-%d-%s", common.KindFriendRentalContract, n, billboard),
				Date:           c.ContractDate.Ptr(),
				Kind:           common.KindFriendRentalContract,
				Description:    desc,
				Credit:         cost,
				ItemTotal:      nullOf(cost),
				Reference:      contractReference(n),
				ContractNumber: &contractNumber,
			})
		}
	}
	return lines
}
