package ledger

import (
	"time"

	"github.com/h2316307-design/adhub-pro-sub009/ledger/common"
	"github.com/shopspring/decimal"
)

// Summarize totals the ledger. Friend rental credits are reported separately
// because they pass through to a partner company.
func Summarize(lines []common.LedgerLine, contracts []common.Contract, now time.Time) common.Summary {
	s := common.Summary{
		TotalDebits:           decimal.Zero,
		TotalCredits:          decimal.Zero,
		TotalFriendRentals:    decimal.Zero,
		TotalPurchaseInvoices: decimal.Zero,
		TotalSalesInvoices:    decimal.Zero,
		TotalDiscounts:        decimal.Zero,
		TotalPayments:         decimal.Zero,
		ContractCount:         len(contracts),
		LineCount:             len(lines),
	}

	for _, l := range lines {
		s.TotalDebits = s.TotalDebits.Add(l.Debit)
		s.TotalCredits = s.TotalCredits.Add(l.Credit)

		switch l.Kind {
		case common.KindFriendBillboardRental, common.KindFriendRentalContract:
			s.TotalFriendRentals = s.TotalFriendRentals.Add(l.Credit)
		case common.KindPurchaseInvoice:
			s.TotalPurchaseInvoices = s.TotalPurchaseInvoices.Add(l.Credit)
		case common.KindSalesInvoice:
			s.TotalSalesInvoices = s.TotalSalesInvoices.Add(l.Debit)
		case common.KindDiscount:
			s.TotalDiscounts = s.TotalDiscounts.Add(l.Credit)
		case common.KindPayment:
			s.TotalPayments = s.TotalPayments.Add(l.Credit).Sub(l.Debit)
			s.PaymentCount++
		}
	}

	s.Balance = s.TotalDebits.Sub(s.TotalCredits)
	s.BalanceWithoutFriendRentals = s.TotalDebits.Sub(s.TotalCredits.Sub(s.TotalFriendRentals))

	for _, c := range contracts {
		if !c.EndDate.IsZero() && !c.EndDate.Before(now) {
			s.ActiveContractCount++
		}
	}

	return s
}
