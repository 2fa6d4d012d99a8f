package statement

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/h2316307-design/adhub-pro-sub009/ledger/common"
)

// ReadBundle decodes a JSON bundle of one customer's records.
func ReadBundle(r io.Reader) (common.Bundle, error) {
	var bundle common.Bundle
	if err := json.NewDecoder(r).Decode(&bundle); err != nil {
		return common.Bundle{}, fmt.Errorf("failed to decode bundle: %w", err)
	}
	return bundle, nil
}

func LoadBundle(path string) (common.Bundle, error) {
	file, err := os.Open(path)
	if err != nil {
		return common.Bundle{}, fmt.Errorf("failed to open bundle: %w", err)
	}
	defer file.Close()
	return ReadBundle(file)
}

// BundleSource serves an offline bundle through the Source interface. Every
// query returns the bundle's records unchanged.
type BundleSource struct {
	Bundle common.Bundle
}

func (b BundleSource) FindCustomer(ctx context.Context, q Query) (*common.Customer, error) {
	if b.Bundle.Customer.ID == "" && b.Bundle.Customer.Name == "" {
		return nil, nil
	}
	c := b.Bundle.Customer
	return &c, nil
}

func (b BundleSource) FetchContracts(ctx context.Context, q Query) ([]common.Contract, error) {
	return b.Bundle.Contracts, nil
}

func (b BundleSource) FetchPayments(ctx context.Context, q Query) ([]common.Payment, error) {
	return b.Bundle.Payments, nil
}

func (b BundleSource) FetchPrintedInvoices(ctx context.Context, q Query) ([]common.PrintedInvoice, error) {
	return b.Bundle.PrintedInvoices, nil
}

func (b BundleSource) FetchGeneralDiscounts(ctx context.Context, q Query) ([]common.GeneralDiscount, error) {
	return b.Bundle.GeneralDiscounts, nil
}

func (b BundleSource) FetchPurchaseInvoices(ctx context.Context, q Query) ([]common.PurchaseInvoice, error) {
	return b.Bundle.PurchaseInvoices, nil
}

func (b BundleSource) FetchSalesInvoices(ctx context.Context, q Query) ([]common.SalesInvoice, error) {
	return b.Bundle.SalesInvoices, nil
}

func (b BundleSource) FetchCompositeTasks(ctx context.Context, q Query) ([]common.CompositeTask, error) {
	return b.Bundle.CompositeTasks, nil
}

// FetchFriendBillboardRentals ignores the company id: a bundle only carries
// the rentals that belong to its customer.
func (b BundleSource) FetchFriendBillboardRentals(ctx context.Context, friendCompanyID string) ([]common.FriendBillboardRental, error) {
	return b.Bundle.FriendBillboardRentals, nil
}
