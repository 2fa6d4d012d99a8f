package ledger

import (
	"github.com/h2316307-design/adhub-pro-sub009/ledger/common"
)

// CreateFinalOutput shapes a statement for printing. linesOnly returns just the
// ledger lines; summaryOnly drops them. Empty optional sections are omitted.
func CreateFinalOutput(stmt common.Statement, linesOnly bool, summaryOnly bool) interface{} {
	if linesOnly {
		return stmt.Lines
	}

	output := map[string]interface{}{
		"customer":     stmt.Customer,
		"generated_at": stmt.GeneratedAt,
		"summary":      stmt.Summary,
	}
	if stmt.Range.IsSet() {
		output["range"] = stmt.Range
	}
	if stmt.ExcludeFriendRentals {
		output["exclude_friend_rentals"] = true
	}
	if len(stmt.FetchFailures) > 0 {
		output["fetch_failures"] = stmt.FetchFailures
	}
	if !summaryOnly {
		lines := stmt.Lines
		if lines == nil {
			lines = []common.LedgerLine{}
		}
		output["lines"] = lines
	}

	return output
}
