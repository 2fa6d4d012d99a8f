package ledger

import (
	"sort"
	"time"

	"github.com/h2316307-design/adhub-pro-sub009/ledger/common"
	"github.com/shopspring/decimal"
)

var undated = time.Unix(0, 0)

func sortKey(l common.LedgerLine) time.Time {
	if l.Date == nil {
		return undated
	}
	return *l.Date
}

// ApplyChronology orders lines by date (undated first, ties keep their input
// order) and derives running balances, per-document remaining amounts and
// distributed payment totals. The input slice is not modified.
func ApplyChronology(lines []common.LedgerLine) []common.LedgerLine {
	ordered := make([]common.LedgerLine, len(lines))
	copy(ordered, lines)
	sort.SliceStable(ordered, func(i, j int) bool {
		return sortKey(ordered[i]).Before(sortKey(ordered[j]))
	})

	balance := decimal.Zero
	paid := make(map[string]decimal.Decimal)
	for i := range ordered {
		line := &ordered[i]
		balance = balance.Add(line.Debit).Sub(line.Credit)
		line.RunningBalance = balance

		if line.Tracking == nil || line.Tracking.Fixed {
			continue
		}
		key := line.Tracking.Key
		if line.Kind == common.KindContract {
			paid[key] = decimal.Zero
			line.ItemRemaining = line.ItemTotal
			continue
		}
		if line.Credit.IsPositive() && line.ItemTotal.Valid {
			paid[key] = paid[key].Add(line.Credit)
			line.ItemRemaining = nullOf(nonNegative(line.Tracking.Total.Sub(paid[key])))
		}
	}

	distributed := make(map[string]decimal.Decimal)
	for _, line := range ordered {
		if line.DistributedPaymentID != "" {
			distributed[line.DistributedPaymentID] = distributed[line.DistributedPaymentID].Add(line.Credit)
		}
	}
	for i := range ordered {
		if id := ordered[i].DistributedPaymentID; id != "" {
			ordered[i].DistributedPaymentTotal = nullOf(distributed[id])
		}
	}

	return ordered
}
