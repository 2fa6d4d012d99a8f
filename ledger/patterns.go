package ledger

import (
	"fmt"
	"regexp"

	"github.com/spf13/viper"
)

// Patterns recognise document codes and contract mentions inside free-text
// payment notes.
type Patterns struct {
	PurchaseCode        *regexp.Regexp
	SalesCode           *regexp.Regexp
	SalesInvoiceNote    *regexp.Regexp
	ContractMention     *regexp.Regexp
	DistributedContract *regexp.Regexp
}

const (
	defaultPurchaseCode        = `PUR-\d+`
	defaultSalesCode           = `SALE-\d+`
	defaultSalesInvoiceNote    = `(?i)(?:فاتورة\s+مبيعات|sales\s+invoice)`
	defaultContractMention     = `عقد\s*#?(\d+)`
	defaultDistributedContract = `(?:توزيع|موزع[ةه]?)\s+على\s+(?:ال)?عقد\s*#?\s*(\d+)`
)

func DefaultPatterns() Patterns {
	return Patterns{
		PurchaseCode:        regexp.MustCompile(defaultPurchaseCode),
		SalesCode:           regexp.MustCompile(defaultSalesCode),
		SalesInvoiceNote:    regexp.MustCompile(defaultSalesInvoiceNote),
		ContractMention:     regexp.MustCompile(defaultContractMention),
		DistributedContract: regexp.MustCompile(defaultDistributedContract),
	}
}

// LoadPatterns reads ledger.patterns.* from viper. Keys that are not set keep
// their default expression.
func LoadPatterns() (Patterns, error) {
	p := DefaultPatterns()
	fields := []struct {
		key    string
		target **regexp.Regexp
	}{
		{"ledger.patterns.purchase_code", &p.PurchaseCode},
		{"ledger.patterns.sales_code", &p.SalesCode},
		{"ledger.patterns.sales_invoice_note", &p.SalesInvoiceNote},
		{"ledger.patterns.contract_mention", &p.ContractMention},
		{"ledger.patterns.distributed_contract", &p.DistributedContract},
	}

	for _, f := range fields {
		expr := viper.GetString(f.key)
		if expr == "" {
			continue
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return DefaultPatterns(), fmt.Errorf("invalid pattern %s: %w", f.key, err)
		}
		*f.target = re
	}

	return p, nil
}

func (p Patterns) isZero() bool {
	return p.PurchaseCode == nil || p.SalesCode == nil || p.SalesInvoiceNote == nil ||
		p.ContractMention == nil || p.DistributedContract == nil
}

// firstNumber returns the first capture group of re in text as a contract number.
func firstNumber(re *regexp.Regexp, text string) (int64, bool) {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return 0, false
	}
	var n int64
	if _, err := fmt.Sscan(m[1], &n); err != nil {
		return 0, false
	}
	return n, true
}
