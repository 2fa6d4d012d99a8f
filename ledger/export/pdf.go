package export

import (
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/h2316307-design/adhub-pro-sub009/ledger/common"
	"github.com/jung-kurt/gofpdf/v2"
	"go.uber.org/zap"
)

type PDFOptions struct {
	// FontFile is a UTF-8 TrueType font. Without one the core Arial font is
	// used and text outside cp1252 will not render.
	FontFile string
	Logger   *zap.Logger
}

type column struct {
	title string
	width float64
	align string
}

// A4 landscape leaves 277mm between the margins.
var columns = []column{
	{"#", 8, "C"},
	{"Date", 20, "C"},
	{"Kind", 24, "L"},
	{"Description", 60, "L"},
	{"Reference", 35, "L"},
	{"Debit", 22, "R"},
	{"Credit", 22, "R"},
	{"Item Total", 22, "R"},
	{"Remaining", 22, "R"},
	{"Balance", 22, "R"},
	{"Notes", 20, "L"},
}

const pageWidth = 277

// WritePDF renders the statement as a landscape table with a summary block.
func WritePDF(w io.Writer, stmt common.Statement, opts PDFOptions) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)

	family := "Arial"
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if opts.FontFile != "" {
		if _, err := os.Stat(opts.FontFile); err != nil {
			return fmt.Errorf("failed to load font: %w", err)
		}
		family = "statement"
		pdf.AddUTF8Font(family, "", opts.FontFile)
		pdf.AddUTF8Font(family, "B", opts.FontFile)
		tr = func(s string) string { return s }
	} else if field, ok := beyondCoreFont(stmt); ok && opts.Logger != nil {
		opts.Logger.Warn("statement text needs a unicode font, set export.font_file",
			zap.String("customer", stmt.Customer.Name), zap.String("field", field))
	}

	pdf.AddPage()

	// Header
	pdf.SetFont(family, "B", 16)
	pdf.CellFormat(pageWidth, 10, tr("Customer Account Statement"), "", 1, "C", false, 0, "")
	pdf.SetFont(family, "", 10)
	pdf.CellFormat(pageWidth, 6, tr(fmt.Sprintf("Customer: %s", stmt.Customer.Name)), "", 1, "C", false, 0, "")
	pdf.CellFormat(pageWidth, 6, tr(periodText(stmt)), "", 1, "C", false, 0, "")
	pdf.CellFormat(pageWidth, 6, fmt.Sprintf("Generated: %s", stmt.GeneratedAt.Format("02-Jan-2006 03:04 PM")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// Table header
	pdf.SetFont(family, "B", 8)
	pdf.SetFillColor(200, 200, 200)
	for i, c := range columns {
		ln := 0
		if i == len(columns)-1 {
			ln = 1
		}
		pdf.CellFormat(c.width, 7, c.title, "1", ln, "C", true, 0, "")
	}

	// Rows
	pdf.SetFont(family, "", 8)
	for i, l := range stmt.Lines {
		if i%2 == 0 {
			pdf.SetFillColor(255, 255, 255)
		} else {
			pdf.SetFillColor(245, 245, 245)
		}
		values := []string{
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
		for j, c := range columns {
			ln := 0
			if j == len(columns)-1 {
				ln = 1
			}
			text := fit(pdf, tr(values[j]), c.width-2)
			pdf.CellFormat(c.width, 6, text, "1", ln, c.align, true, 0, "")
		}
	}
	pdf.Ln(5)

	// Summary
	pdf.SetFont(family, "B", 11)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(pageWidth, 8, "Summary", "1", 1, "L", true, 0, "")
	pdf.SetFont(family, "", 10)
	for _, row := range summaryRows(stmt.Summary) {
		pdf.CellFormat(90, 7, row[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, row[1], "1", 1, "R", false, 0, "")
	}

	if stmt.Summary.Balance.IsPositive() {
		pdf.SetFillColor(255, 200, 200)
	} else {
		pdf.SetFillColor(200, 255, 200)
	}
	pdf.SetFont(family, "B", 12)
	pdf.CellFormat(140, 9, fmt.Sprintf("Amount Due: %s", formatMoney(stmt.Summary.BalanceWithoutFriendRentals)), "1", 1, "C", true, 0, "")

	if len(stmt.FetchFailures) > 0 {
		pdf.Ln(3)
		pdf.SetFont(family, "", 8)
		pdf.CellFormat(pageWidth, 5, fmt.Sprintf("Incomplete: could not load %v", stmt.FetchFailures), "", 1, "L", false, 0, "")
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf: %w", err)
	}
	return nil
}

// beyondCoreFont reports the first statement field holding characters the
// core cp1252 font cannot draw.
func beyondCoreFont(stmt common.Statement) (string, bool) {
	wide := func(s string) bool {
		for _, r := range s {
			if r > 0xFF && r != utf8.RuneError {
				return true
			}
		}
		return false
	}
	if wide(stmt.Customer.Name) {
		return "customer", true
	}
	for _, l := range stmt.Lines {
		switch {
		case wide(l.Description):
			return "description", true
		case wide(l.Reference):
			return "reference", true
		case wide(l.Notes):
			return "notes", true
		}
	}
	return "", false
}

func periodText(stmt common.Statement) string {
	if !stmt.Range.IsSet() {
		return "Period: all payments"
	}
	from, to := "...", "..."
	if stmt.Range.From != nil {
		from = stmt.Range.From.Format("2006-01-02")
	}
	if stmt.Range.To != nil {
		to = stmt.Range.To.Format("2006-01-02")
	}
	return fmt.Sprintf("Period: %s to %s", from, to)
}

// fit trims text until it fits in width, marking the cut with "..".
func fit(pdf *gofpdf.Fpdf, text string, width float64) string {
	if pdf.GetStringWidth(text) <= width {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"..") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + ".."
}
