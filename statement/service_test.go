package statement

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/h2316307-design/adhub-pro-sub009/ledger"
	"github.com/h2316307-design/adhub-pro-sub009/ledger/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSource struct {
	BundleSource

	mu        sync.Mutex
	queries   []Query
	failures  map[string]error
	companyID string
	found     *common.Customer
}

func (f *fakeSource) record(q Query) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
}

func (f *fakeSource) FindCustomer(ctx context.Context, q Query) (*common.Customer, error) {
	if err := f.failures["customer"]; err != nil {
		return nil, err
	}
	return f.found, nil
}

func (f *fakeSource) FetchContracts(ctx context.Context, q Query) ([]common.Contract, error) {
	f.record(q)
	if err := f.failures["contracts"]; err != nil {
		return []common.Contract{{ContractNumber: 99, Total: common.AmountFromInt(1)}}, err
	}
	return f.BundleSource.FetchContracts(ctx, q)
}

func (f *fakeSource) FetchPayments(ctx context.Context, q Query) ([]common.Payment, error) {
	if err := f.failures["payments"]; err != nil {
		return nil, err
	}
	return f.BundleSource.FetchPayments(ctx, q)
}

func (f *fakeSource) FetchFriendBillboardRentals(ctx context.Context, friendCompanyID string) ([]common.FriendBillboardRental, error) {
	f.mu.Lock()
	f.companyID = friendCompanyID
	f.mu.Unlock()
	return f.BundleSource.FetchFriendBillboardRentals(ctx, friendCompanyID)
}

func newFake() *fakeSource {
	day := func(m time.Month, d int) common.Date {
		return common.DateOf(time.Date(2024, m, d, 0, 0, 0, 0, time.UTC))
	}
	return &fakeSource{
		BundleSource: BundleSource{Bundle: common.Bundle{
			SourceRecords: common.SourceRecords{
				Contracts: []common.Contract{{ContractNumber: 1, ContractDate: day(1, 1), Total: common.AmountFromInt(5000)}},
				Payments: []common.Payment{{
					ID: "p-1", ContractNumber: common.IntOf(1), EntryType: common.EntryReceipt,
					Amount: common.AmountFromInt(2000), PaidAt: day(2, 1),
				}},
				FriendBillboardRentals: []common.FriendBillboardRental{{
					ID: "r-1", FriendRentalCost: common.AmountFromInt(800), StartDate: day(3, 1),
				}},
			},
		}},
		failures: map[string]error{},
		found:    &common.Customer{ID: "c-1", Name: "شركة النور", LinkedFriendCompanyID: "fc-9"},
	}
}

func TestGenerate_RequiresCustomer(t *testing.T) {
	svc := NewService(newFake(), nil, ledger.DefaultPatterns())

	_, err := svc.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrNoCustomer)
}

func TestGenerate_BuildsStatement(t *testing.T) {
	src := newFake()
	svc := NewService(src, zap.NewNop(), ledger.DefaultPatterns())

	stmt, err := svc.Generate(context.Background(), Request{CustomerName: "النور"})
	require.NoError(t, err)

	assert.Equal(t, "c-1", stmt.Customer.ID)
	assert.Len(t, stmt.Lines, 3)
	assert.Empty(t, stmt.FetchFailures)
	assert.Equal(t, "2200", stmt.Summary.Balance.String())
	assert.Equal(t, "fc-9", src.companyID)

	// id resolved from the name lookup is used for the collection queries
	require.NotEmpty(t, src.queries)
	assert.Equal(t, "c-1", src.queries[0].CustomerID)
	assert.Equal(t, "النور", src.queries[0].CustomerName)
}

func TestGenerate_ExcludeFriendRentalsSkipsFetch(t *testing.T) {
	src := newFake()
	svc := NewService(src, nil, ledger.DefaultPatterns())

	stmt, err := svc.Generate(context.Background(), Request{CustomerID: "c-1", ExcludeFriendRentals: true})
	require.NoError(t, err)

	assert.Len(t, stmt.Lines, 2)
	assert.Empty(t, src.companyID)
	assert.True(t, stmt.Summary.TotalFriendRentals.IsZero())
}

func TestGenerate_FailedCollectionsAreEmpty(t *testing.T) {
	src := newFake()
	src.failures["contracts"] = errors.New("connection reset")
	src.failures["payments"] = errors.New("timeout")

	core, logs := observer.New(zap.WarnLevel)
	svc := NewService(src, zap.New(core), ledger.DefaultPatterns())

	stmt, err := svc.Generate(context.Background(), Request{CustomerID: "c-1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"contracts", "payments"}, stmt.FetchFailures)
	require.Len(t, stmt.Lines, 1)
	assert.Equal(t, common.KindFriendBillboardRental, stmt.Lines[0].Kind)

	entries := logs.FilterMessage("failed to load collection, treating as empty").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "contracts", entries[0].ContextMap()["collection"])
}

func TestGenerate_CustomerLookupFailureFallsBack(t *testing.T) {
	src := newFake()
	src.failures["customer"] = errors.New("permission denied")
	svc := NewService(src, nil, ledger.DefaultPatterns())

	stmt, err := svc.Generate(context.Background(), Request{CustomerID: "c-7", CustomerName: "Acme"})
	require.NoError(t, err)

	assert.Equal(t, common.Customer{ID: "c-7", Name: "Acme"}, stmt.Customer)
	assert.Equal(t, []string{"customer"}, stmt.FetchFailures)
	assert.Equal(t, "", src.companyID)
}

func TestGenerate_NoRecords(t *testing.T) {
	src := &fakeSource{failures: map[string]error{}}
	svc := NewService(src, nil, ledger.DefaultPatterns())

	stmt, err := svc.Generate(context.Background(), Request{CustomerID: "missing"})
	require.NoError(t, err)

	assert.Empty(t, stmt.Lines)
	assert.True(t, stmt.Summary.Balance.IsZero())
	assert.Equal(t, "missing", stmt.Customer.ID)
}

func TestGenerate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewService(newFake(), nil, ledger.DefaultPatterns())
	_, err := svc.Generate(ctx, Request{CustomerID: "c-1"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadBundle(t *testing.T) {
	input := `{
		"customer": {"id": "c-1", "name": "Acme"},
		"contracts": [{"Contract_Number": 12, "Ad Type": "Digital", "Contract Date": "2024-01-01", "Total": "1,500"}],
		"payments": [{"id": "p-1", "contract_number": "12", "entry_type": "receipt", "amount": 500, "paid_at": "2024-01-10 09:00:00+00"}]
	}`

	bundle, err := ReadBundle(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, "Acme", bundle.Customer.Name)
	require.Len(t, bundle.Contracts, 1)
	assert.Equal(t, int64(12), bundle.Contracts[0].ContractNumber)
	assert.Equal(t, "1500", bundle.Contracts[0].Total.String())
	require.Len(t, bundle.Payments, 1)
	assert.Equal(t, common.IntOf(12), bundle.Payments[0].ContractNumber)

	_, err = ReadBundle(strings.NewReader("{"))
	assert.Error(t, err)
}

func TestLoadBundle_MissingFile(t *testing.T) {
	_, err := LoadBundle("/nonexistent/bundle.json")
	assert.Error(t, err)
}
