package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/dslipak/pdf"
	"github.com/h2316307-design/adhub-pro-sub009/ledger"
	"github.com/h2316307-design/adhub-pro-sub009/ledger/common"
	"github.com/jung-kurt/gofpdf/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testStatement() common.Statement {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	src := common.SourceRecords{
		Contracts: []common.Contract{{
			ContractNumber: 1,
			AdType:         "Roadside",
			ContractDate:   common.DateOf(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			EndDate:        common.DateOf(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
			Total:          common.AmountFromInt(5000),
		}},
		Payments: []common.Payment{{
			ID:             "p-1",
			ContractNumber: common.IntOf(1),
			EntryType:      common.EntryReceipt,
			Amount:         common.AmountFromInt(2000),
			PaidAt:         common.DateOf(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
			Notes:          "first instalment",
		}},
	}
	customer := common.Customer{ID: "c-1", Name: "Al Noor Trading Co."}
	return ledger.BuildStatement(customer, ledger.Options{Now: now}, src)
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testStatement()))

	r := csv.NewReader(&buf)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(records), 3)
	assert.Equal(t, csvHeader, records[0])

	contract := records[1]
	assert.Equal(t, "1", contract[0])
	assert.Equal(t, "2024-01-01", contract[1])
	assert.Equal(t, "contract", contract[2])
	assert.Equal(t, "5000.00", contract[5])
	assert.Equal(t, "5000.00", contract[8])

	payment := records[2]
	assert.Equal(t, "payment", payment[2])
	assert.Equal(t, "2000.00", payment[6])
	assert.Equal(t, "3000.00", payment[8])
	assert.Equal(t, "3000.00", payment[9])

	var balance string
	for _, rec := range records[3:] {
		if len(rec) == 2 && rec[0] == "Balance" {
			balance = rec[1]
		}
	}
	assert.Equal(t, "3000.00", balance)
}

func TestWriteCSV_SummaryInvoiceTotals(t *testing.T) {
	stmt := testStatement()
	stmt.Summary.TotalPurchaseInvoices = decimal.NewFromInt(150)
	stmt.Summary.TotalSalesInvoices = decimal.NewFromInt(900)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, stmt))
	assert.Contains(t, buf.String(), "Total Purchase Invoices,150.00")
	assert.Contains(t, buf.String(), "Total Sales Invoices,900.00")
}

func TestWriteCSV_EmptyStatement(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, common.Statement{}))

	assert.True(t, strings.HasPrefix(buf.String(), "#,Date,Kind"))
	assert.Contains(t, buf.String(), "Balance,0.00")
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, testStatement(), PDFOptions{}))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	r, err := pdf.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.GreaterOrEqual(t, r.NumPage(), 1)

	rows, err := r.Page(1).GetTextByRow()
	require.NoError(t, err)

	var text strings.Builder
	for _, row := range rows {
		for _, word := range row.Content {
			text.WriteString(word.S)
		}
	}
	assert.Contains(t, text.String(), "Statement")
	assert.Contains(t, text.String(), "3000.00")
}

func TestWritePDF_WarnsWithoutUnicodeFont(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	stmt := testStatement()
	stmt.Customer.Name = "شركة النور"

	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, stmt, PDFOptions{Logger: zap.New(core)}))

	entries := logs.FilterMessage("statement text needs a unicode font, set export.font_file").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "customer", entries[0].ContextMap()["field"])
}

func TestBeyondCoreFont(t *testing.T) {
	stmt := common.Statement{
		Customer: common.Customer{Name: "Café Noir"},
		Lines:    []common.LedgerLine{{Description: "Roadside", Notes: "دفعة"}},
	}
	field, ok := beyondCoreFont(stmt)
	assert.True(t, ok)
	assert.Equal(t, "notes", field)

	stmt.Lines[0].Notes = "first"
	_, ok = beyondCoreFont(stmt)
	assert.False(t, ok)
}

func TestWritePDF_MissingFont(t *testing.T) {
	var buf bytes.Buffer
	err := WritePDF(&buf, testStatement(), PDFOptions{FontFile: "/nonexistent/font.ttf"})
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}

func TestFileName(t *testing.T) {
	stmt := testStatement()
	assert.Equal(t, "statement-al-noor-trading-co-20240601.pdf", FileName(stmt, "pdf"))
	assert.Equal(t, "statement-al-noor-trading-co-20240601.csv", FileName(stmt, ".csv"))

	stmt.Customer = common.Customer{}
	assert.Equal(t, "statement-customer-20240601.csv", FileName(stmt, "csv"))
}

func TestFit(t *testing.T) {
	doc := gofpdf.New("L", "mm", "A4", "")
	doc.SetFont("Arial", "", 8)

	assert.Equal(t, "short", fit(doc, "short", 40))

	long := strings.Repeat("very long description ", 20)
	got := fit(doc, long, 40)
	assert.True(t, strings.HasSuffix(got, ".."))
	assert.LessOrEqual(t, doc.GetStringWidth(got), 40.0)
}
