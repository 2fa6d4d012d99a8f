// Package statement fetches a customer's records from a Source and builds
// their account statement.
package statement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/h2316307-design/adhub-pro-sub009/ledger"
	"github.com/h2316307-design/adhub-pro-sub009/ledger/common"
	"go.uber.org/zap"
)

// ErrNoCustomer is returned when a request names neither a customer id nor a
// customer name.
var ErrNoCustomer = errors.New("customer id or name is required")

// Query selects one customer's records. Sources look records up by
// CustomerID first and only fall back to a fuzzy CustomerName match when the
// id lookup returns nothing.
type Query struct {
	CustomerID   string
	CustomerName string
	Range        common.DateRange
}

// Source is the data-access contract the service consumes.
type Source interface {
	// FindCustomer returns nil without error when no customer matches.
	FindCustomer(ctx context.Context, q Query) (*common.Customer, error)
	FetchContracts(ctx context.Context, q Query) ([]common.Contract, error)
	FetchPayments(ctx context.Context, q Query) ([]common.Payment, error)
	FetchPrintedInvoices(ctx context.Context, q Query) ([]common.PrintedInvoice, error)
	FetchGeneralDiscounts(ctx context.Context, q Query) ([]common.GeneralDiscount, error)
	FetchPurchaseInvoices(ctx context.Context, q Query) ([]common.PurchaseInvoice, error)
	FetchSalesInvoices(ctx context.Context, q Query) ([]common.SalesInvoice, error)
	FetchCompositeTasks(ctx context.Context, q Query) ([]common.CompositeTask, error)
	FetchFriendBillboardRentals(ctx context.Context, friendCompanyID string) ([]common.FriendBillboardRental, error)
}

type Request struct {
	CustomerID           string
	CustomerName         string
	Range                common.DateRange
	ExcludeFriendRentals bool
}

type Service struct {
	source   Source
	logger   *zap.Logger
	patterns ledger.Patterns
	now      func() time.Time
}

func NewService(source Source, logger *zap.Logger, patterns ledger.Patterns) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		source:   source,
		logger:   logger,
		patterns: patterns,
		now:      time.Now,
	}
}

// Generate builds the statement for one customer. A collection that fails to
// load is logged, treated as empty and listed in FetchFailures.
func (s *Service) Generate(ctx context.Context, req Request) (*common.Statement, error) {
	if req.CustomerID == "" && req.CustomerName == "" {
		return nil, ErrNoCustomer
	}

	q := Query{CustomerID: req.CustomerID, CustomerName: req.CustomerName, Range: req.Range}
	customer := common.Customer{ID: req.CustomerID, Name: req.CustomerName}
	var failures []string

	found, err := s.source.FindCustomer(ctx, q)
	switch {
	case err != nil:
		if ctx.Err() != nil {
			return nil, fmt.Errorf("failed to resolve customer: %w", ctx.Err())
		}
		s.logger.Warn("customer lookup failed",
			zap.String("customer_id", req.CustomerID),
			zap.String("customer_name", req.CustomerName),
			zap.Error(err))
		failures = append(failures, "customer")
	case found != nil:
		customer = *found
		if q.CustomerID == "" {
			q.CustomerID = found.ID
		}
		if q.CustomerName == "" {
			q.CustomerName = found.Name
		}
	}

	var (
		src          common.SourceRecords
		wg           sync.WaitGroup
		contractsErr error
		paymentsErr  error
		printedErr   error
		discountsErr error
		purchasesErr error
		salesErr     error
		compositeErr error
		rentalsErr   error
	)

	wg.Add(8)

	go func() {
		defer wg.Done()
		src.Contracts, contractsErr = s.source.FetchContracts(ctx, q)
	}()

	go func() {
		defer wg.Done()
		src.Payments, paymentsErr = s.source.FetchPayments(ctx, q)
	}()

	go func() {
		defer wg.Done()
		src.PrintedInvoices, printedErr = s.source.FetchPrintedInvoices(ctx, q)
	}()

	go func() {
		defer wg.Done()
		src.GeneralDiscounts, discountsErr = s.source.FetchGeneralDiscounts(ctx, q)
	}()

	go func() {
		defer wg.Done()
		src.PurchaseInvoices, purchasesErr = s.source.FetchPurchaseInvoices(ctx, q)
	}()

	go func() {
		defer wg.Done()
		src.SalesInvoices, salesErr = s.source.FetchSalesInvoices(ctx, q)
	}()

	go func() {
		defer wg.Done()
		src.CompositeTasks, compositeErr = s.source.FetchCompositeTasks(ctx, q)
	}()

	// Friend rentals are keyed by the partner company linked to the customer.
	go func() {
		defer wg.Done()
		if req.ExcludeFriendRentals {
			return
		}
		src.FriendBillboardRentals, rentalsErr = s.source.FetchFriendBillboardRentals(ctx, customer.LinkedFriendCompanyID)
	}()

	wg.Wait()

	if ctx.Err() != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", ctx.Err())
	}

	// Failed collections are non-fatal
	checks := []struct {
		name  string
		err   error
		reset func()
	}{
		{"contracts", contractsErr, func() { src.Contracts = nil }},
		{"payments", paymentsErr, func() { src.Payments = nil }},
		{"printed_invoices", printedErr, func() { src.PrintedInvoices = nil }},
		{"general_discounts", discountsErr, func() { src.GeneralDiscounts = nil }},
		{"purchase_invoices", purchasesErr, func() { src.PurchaseInvoices = nil }},
		{"sales_invoices", salesErr, func() { src.SalesInvoices = nil }},
		{"composite_tasks", compositeErr, func() { src.CompositeTasks = nil }},
		{"friend_billboard_rentals", rentalsErr, func() { src.FriendBillboardRentals = nil }},
	}
	for _, c := range checks {
		if c.err == nil {
			continue
		}
		s.logger.Warn("failed to load collection, treating as empty",
			zap.String("collection", c.name),
			zap.String("customer_id", customer.ID),
			zap.Error(c.err))
		c.reset()
		failures = append(failures, c.name)
	}

	stmt := ledger.BuildStatement(customer, ledger.Options{
		Range:                req.Range,
		ExcludeFriendRentals: req.ExcludeFriendRentals,
		Now:                  s.now(),
		Patterns:             s.patterns,
	}, src)
	stmt.FetchFailures = failures

	s.logger.Debug("statement built",
		zap.String("customer_id", customer.ID),
		zap.String("customer_name", customer.Name),
		zap.Int("lines", len(stmt.Lines)),
		zap.Int("fetch_failures", len(failures)),
		zap.String("balance", stmt.Summary.Balance.StringFixed(2)))

	return &stmt, nil
}
