package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/h2316307-design/adhub-pro-sub009/integrations/postgres"
	"github.com/h2316307-design/adhub-pro-sub009/ledger"
	"github.com/h2316307-design/adhub-pro-sub009/ledger/common"
	"github.com/h2316307-design/adhub-pro-sub009/ledger/export"
	"github.com/h2316307-design/adhub-pro-sub009/statement"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type statementOptions struct {
	customerID   string
	customerName string
	from         string
	to           string
	input        string
	dbURL        string
	format       string
	output       string
	linesOnly    bool
	summaryOnly  bool
	timeout      int
}

var stmtFlags statementOptions

var statementCmd = &cobra.Command{
	Use:   "statement",
	Short: "Builds a customer account statement",
	Long: `Builds the account statement of one customer.

Records come from an offline JSON bundle (--input) or from PostgreSQL
(--db-url or DATABASE_URL). JSON is written to stdout unless --output is
given; CSV and PDF are written to a file named after the customer.

Examples:
  adhub statement --input bundle.json
  adhub statement --customer-id 42 --from 2024-01-01 --to 2024-06-30 --format pdf
  adhub statement --customer-name "النور" --summary-only`,
	RunE: runStatement,
}

func runStatement(cmd *cobra.Command, args []string) error {
	opts := stmtFlags
	switch opts.format {
	case "json", "csv", "pdf":
	default:
		return fmt.Errorf("unsupported format %q", opts.format)
	}
	if opts.linesOnly && opts.summaryOnly {
		return fmt.Errorf("--lines-only and --summary-only are mutually exclusive")
	}

	rng, err := common.ParseRange(opts.from, opts.to)
	if err != nil {
		return err
	}

	patterns, err := ledger.LoadPatterns()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(opts.timeout)*time.Second)
	defer cancel()

	source, closeSource, err := openSource(ctx, &opts)
	if err != nil {
		return err
	}
	defer closeSource()

	svc := statement.NewService(source, logger, patterns)
	stmt, err := svc.Generate(ctx, statement.Request{
		CustomerID:           opts.customerID,
		CustomerName:         opts.customerName,
		Range:                rng,
		ExcludeFriendRentals: viper.GetBool("statement.exclude_friend_rentals"),
	})
	if err != nil {
		return err
	}
	for _, name := range stmt.FetchFailures {
		fmt.Fprintf(os.Stderr, "warning: %s could not be loaded and was left out\n", name)
	}

	var buf bytes.Buffer
	pdfOpts := export.PDFOptions{FontFile: viper.GetString("export.font_file"), Logger: logger}
	if err := renderStatement(&buf, *stmt, opts, pdfOpts); err != nil {
		return err
	}

	target := opts.output
	if target == "" && opts.format != "json" {
		target = export.FileName(*stmt, opts.format)
	}
	if target == "" {
		_, err := os.Stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(target, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d lines, balance %s)\n", target, len(stmt.Lines), stmt.Summary.Balance.StringFixed(2))
	return nil
}

// openSource picks the bundle or the database. A bundle fills in the
// customer when none was given on the command line.
func openSource(ctx context.Context, opts *statementOptions) (statement.Source, func(), error) {
	if opts.input != "" {
		bundle, err := statement.LoadBundle(opts.input)
		if err != nil {
			return nil, nil, err
		}
		if opts.customerID == "" && opts.customerName == "" {
			opts.customerID = bundle.Customer.ID
			opts.customerName = bundle.Customer.Name
		}
		logger.Debug("loaded bundle", zap.String("path", opts.input), zap.String("customer", bundle.Customer.Name))
		return statement.BundleSource{Bundle: bundle}, func() {}, nil
	}

	url := opts.dbURL
	if url == "" {
		url = viper.GetString("database.url")
	}
	if url == "" {
		return nil, nil, fmt.Errorf("--input, --db-url or DATABASE_URL is required")
	}

	db, err := postgres.Connect(ctx, url, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	return db, db.Close, nil
}

// renderStatement writes stmt in the requested format.
func renderStatement(w io.Writer, stmt common.Statement, opts statementOptions, pdfOpts export.PDFOptions) error {
	switch opts.format {
	case "csv":
		return export.WriteCSV(w, stmt)
	case "pdf":
		return export.WritePDF(w, stmt, pdfOpts)
	}

	output := ledger.CreateFinalOutput(stmt, opts.linesOnly, opts.summaryOnly)
	jsonOutput, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode statement: %w", err)
	}
	_, err = w.Write(append(jsonOutput, '\n'))
	return err
}

func init() {
	rootCmd.AddCommand(statementCmd)

	f := statementCmd.Flags()
	f.StringVar(&stmtFlags.customerID, "customer-id", "", "Customer id")
	f.StringVar(&stmtFlags.customerName, "customer-name", "", "Customer name, matched partially when the id finds nothing")
	f.StringVar(&stmtFlags.from, "from", "", "Only include payments on or after this date")
	f.StringVar(&stmtFlags.to, "to", "", "Only include payments on or before this date")
	f.Bool("exclude-friend-rentals", false, "Leave partner billboard rentals out of the statement")
	f.StringVarP(&stmtFlags.input, "input", "i", "", "Offline JSON bundle instead of the database")
	f.StringVar(&stmtFlags.dbURL, "db-url", "", "PostgreSQL connection URL (or set DATABASE_URL env)")
	f.StringVar(&stmtFlags.format, "format", "json", "Output format: json, csv or pdf")
	f.StringVarP(&stmtFlags.output, "output", "o", "", "Output file")
	f.BoolVar(&stmtFlags.linesOnly, "lines-only", false, "Output only the ledger lines (json)")
	f.BoolVar(&stmtFlags.summaryOnly, "summary-only", false, "Output only the summary (json)")
	f.IntVar(&stmtFlags.timeout, "timeout", 60, "Operation timeout in seconds")

	viper.BindPFlag("statement.exclude_friend_rentals", f.Lookup("exclude-friend-rentals"))
}
