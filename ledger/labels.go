package ledger

import (
	"fmt"
	"strings"

	"github.com/h2316307-design/adhub-pro-sub009/ledger/common"
	"github.com/shopspring/decimal"
)

const noReference = "—"

var entryTypeLabels = map[string]string{
	common.EntryReceipt:        "إيصال قبض",
	common.EntryInvoice:        "دفعة فاتورة",
	common.EntryDebt:           "دين سابق",
	common.EntryAccountPayment: "دفعة على الحساب",
	common.EntryCompositeTask:  "دفعة مهمة مجمعة",
	common.EntryPayment:        "دفعة",
}

func contractReference(n int64) string {
	return fmt.Sprintf("عقد-%d", n)
}

func contractDescription(c common.Contract) string {
	desc := fmt.Sprintf("عقد رقم %d", c.ContractNumber)
	if adType := strings.TrimSpace(c.AdType); adType != "" {
		desc += " - " + adType
	}
	return desc
}

func purchaseTitle(inv *common.PurchaseInvoice) string {
	if name := strings.TrimSpace(inv.InvoiceName); name != "" {
		return name
	}
	return "فاتورة مشتريات " + inv.InvoiceNumber
}

func salesTitle(inv *common.SalesInvoice) string {
	if name := strings.TrimSpace(inv.InvoiceName); name != "" {
		return name
	}
	return "فاتورة مبيعات " + inv.InvoiceNumber
}

func printedTitle(inv *common.PrintedInvoice) string {
	return "فاتورة طباعة " + inv.InvoiceNumber
}

func compositeReference(task *common.CompositeTask) string {
	ids := task.ContractIDs
	if len(ids) == 0 && task.ContractID.Valid {
		ids = []int64{task.ContractID.Int64}
	}
	if len(ids) == 0 {
		return noReference
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return "عقود: " + strings.Join(parts, "، ")
}

func paymentDescription(p common.Payment) string {
	label, ok := entryTypeLabels[p.EntryType]
	if !ok {
		label = entryTypeLabels[common.EntryPayment]
	}
	if method := strings.TrimSpace(p.Method); method != "" {
		label += " (" + method + ")"
	}
	return label
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
