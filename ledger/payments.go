package ledger

import (
	"fmt"
	"strings"

	"github.com/h2316307-design/adhub-pro-sub009/ledger/common"
)

// paymentLine projects one payment. ItemRemaining stays null for lines that
// reduce a contract; ApplyChronology fills it in. Invoice payments show the
// invoice's stored paid and remaining figures.
func (idx *index) paymentLine(p common.Payment) common.LedgerLine {
	line := common.LedgerLine{
		ID:                   fmt.Sprintf("%s-%s", common.KindPayment, p.ID),
		Date:                 p.PaidAt.Ptr(),
		Kind:                 common.KindPayment,
		EntryType:            p.EntryType,
		Description:          paymentDescription(p),
		Notes:                strings.TrimSpace(p.Notes),
		ContractNumber:       p.ContractNumber.Ptr(),
		DistributedPaymentID: p.DistributedPaymentID,
	}
	if ref := strings.TrimSpace(p.Reference); ref != "" {
		line.Description += " - " + ref
	}

	amount := p.Amount.Decimal
	if amount.IsNegative() {
		line.Debit = amount.Neg()
	} else {
		line.Credit = amount
	}

	line.Reference = idx.paymentReference(p)

	purchase := idx.purchaseSource(p)
	if purchase != nil {
		title := purchaseTitle(purchase)
		if purchase.InvoiceNumber != "" {
			line.Notes = strings.ReplaceAll(line.Notes, purchase.InvoiceNumber, title)
		}
		if line.Reference == noReference {
			line.Reference = title
		}
	}

	idx.paymentDetails(&line, p, purchase)

	target := p.ContractNumber
	if !target.Valid {
		if n, ok := firstNumber(idx.patterns.DistributedContract, line.Notes); ok {
			target = common.IntOf(n)
			line.TargetContractNumber = &n
		}
	}
	idx.enrichAdType(&line, target)

	return line
}

// paymentReference resolves the display reference by priority. Links that do
// not match a known record fall through to the next candidate.
func (idx *index) paymentReference(p common.Payment) string {
	if p.ContractNumber.Valid {
		if _, ok := idx.contracts[p.ContractNumber.Int64]; ok {
			return contractReference(p.ContractNumber.Int64)
		}
	}
	if inv, ok := idx.sales[p.SalesInvoiceID]; ok && p.SalesInvoiceID != "" {
		return salesTitle(inv)
	}
	if inv, ok := idx.printed[p.PrintedInvoiceID]; ok && p.PrintedInvoiceID != "" {
		return printedTitle(inv)
	}
	if task, ok := idx.composite[p.CompositeTaskID]; ok && p.CompositeTaskID != "" {
		if ref := compositeReference(task); ref != noReference {
			return ref
		}
		return "مهمة مجمعة"
	}
	return noReference
}

func (idx *index) purchaseSource(p common.Payment) *common.PurchaseInvoice {
	if p.PurchaseInvoiceID != "" {
		if inv, ok := idx.purchases[p.PurchaseInvoiceID]; ok {
			return inv
		}
	}
	if code := idx.patterns.PurchaseCode.FindString(p.Notes); code != "" {
		return idx.purchasesByNumber[code]
	}
	return nil
}

// paymentDetails fills ItemTotal, ItemRemaining and Tracking from the first
// document the payment can be tied to. Purchase invoice figures only apply to
// distributed payments.
func (idx *index) paymentDetails(line *common.LedgerLine, p common.Payment, purchase *common.PurchaseInvoice) {
	switch {
	case purchase != nil && p.DistributedPaymentID != "":
		total := purchase.TotalAmount.Decimal
		line.ItemTotal = nullOf(total)
		line.ItemRemaining = nullOf(nonNegative(total.Sub(purchase.UsedAsPayment.Decimal)))
		if purchase.UsedAsPayment.IsPositive() {
			line.Description += fmt.Sprintf(" (مستخدم %s من %s)", money(purchase.UsedAsPayment.Decimal), money(total))
		}

	case p.ContractNumber.Valid && idx.contracts[p.ContractNumber.Int64] != nil:
		n := p.ContractNumber.Int64
		total := idx.contracts[n].Total.Decimal
		line.ItemTotal = nullOf(total)
		line.Tracking = &common.Tracking{Key: contractKey(n), Total: total}

	case p.SalesInvoiceID != "" && idx.sales[p.SalesInvoiceID] != nil:
		inv := idx.sales[p.SalesInvoiceID]
		total := inv.TotalAmount.Decimal
		line.ItemTotal = nullOf(total)
		line.ItemRemaining = nullOf(nonNegative(total.Sub(inv.PaidAmount.Decimal)))
		line.Tracking = salesTracking(inv)
	}

	idx.salesNoteDetails(line)
	if line.ItemTotal.Valid {
		return
	}

	switch {
	case p.PrintedInvoiceID != "" && idx.printed[p.PrintedInvoiceID] != nil:
		inv := idx.printed[p.PrintedInvoiceID]
		total := inv.TotalAmount.Decimal
		line.ItemTotal = nullOf(total)
		line.ItemRemaining = nullOf(nonNegative(total.Sub(inv.PaidAmount.Decimal)))
		line.Tracking = printedTracking(inv)

	case p.EntryType == common.EntryDebt && !p.ContractNumber.Valid:
		n, ok := firstNumber(idx.patterns.ContractMention, line.Notes)
		if !ok {
			return
		}
		if c := idx.contracts[n]; c != nil {
			line.ItemTotal = nullOf(c.Total.Decimal)
			line.ItemRemaining = nullOf(c.Total.Decimal)
		}
	}
}

// salesNoteDetails swaps a SALE-<n> code in a "sales invoice" note for the
// invoice title. Totals are only back-filled when nothing earlier set them.
func (idx *index) salesNoteDetails(line *common.LedgerLine) {
	if !idx.patterns.SalesInvoiceNote.MatchString(line.Notes) {
		return
	}
	code := idx.patterns.SalesCode.FindString(line.Notes)
	inv := idx.salesByNumber[code]
	if code == "" || inv == nil {
		return
	}

	title := salesTitle(inv)
	if title != code {
		line.Notes = strings.ReplaceAll(line.Notes, code, title)
	}
	if line.ItemTotal.Valid {
		return
	}
	total := inv.TotalAmount.Decimal
	line.ItemTotal = nullOf(total)
	line.ItemRemaining = nullOf(nonNegative(total.Sub(inv.PaidAmount.Decimal)))
	line.Tracking = salesTracking(inv)
	if line.Reference == noReference {
		line.Reference = title
	}
}

// enrichAdType appends the linked contract's ad type to the reference and
// notes unless they already mention it.
func (idx *index) enrichAdType(line *common.LedgerLine, target common.NullInt) {
	if !target.Valid {
		return
	}
	n := target.Int64
	if line.Reference == noReference {
		line.Reference = contractReference(n)
	}

	c := idx.contracts[n]
	if c == nil {
		return
	}
	adType := strings.TrimSpace(c.AdType)
	if adType == "" {
		return
	}
	line.AdType = adType

	if !strings.Contains(line.Reference, adType) {
		line.Reference += " - " + adType
	}
	switch {
	case line.Notes == "":
		line.Notes = adType
	case !strings.Contains(line.Notes, adType):
		line.Notes += " (" + adType + ")"
	}
}
