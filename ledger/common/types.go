package common

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies the financial event a ledger line was projected from.
type Kind string

const (
	KindContract              Kind = "contract"
	KindDiscount              Kind = "discount"
	KindPrintInvoice          Kind = "print_invoice"
	KindCompositeTask         Kind = "composite_task"
	KindPurchaseInvoice       Kind = "purchase_invoice"
	KindSalesInvoice          Kind = "sales_invoice"
	KindFriendBillboardRental Kind = "friend_billboard_rental"
	KindFriendRentalContract  Kind = "friend_rental_contract"
	KindPayment               Kind = "payment"
)

// Payment entry types as stored in customer_payments.entry_type.
const (
	EntryReceipt        = "receipt"
	EntryInvoice        = "invoice"
	EntryDebt           = "debt"
	EntryAccountPayment = "account_payment"
	EntryCompositeTask  = "composite_task"
	EntryPayment        = "payment"
)

const (
	DiscountFixed      = "fixed"
	DiscountPercentage = "percentage"
	StatusActive       = "active"
)

type Customer struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	LinkedFriendCompanyID string `json:"linked_friend_company_id,omitempty"`
}

type FriendRentalEntry struct {
	FriendCompanyID   string `json:"friend_company_id,omitempty"`
	FriendCompanyName string `json:"friend_company_name,omitempty"`
	RentalCost        Amount `json:"rental_cost"`
}

type Contract struct {
	ContractNumber   int64                        `json:"Contract_Number"`
	CustomerID       string                       `json:"customer_id,omitempty"`
	CustomerName     string                       `json:"Customer Name"`
	AdType           string                       `json:"Ad Type"`
	ContractDate     Date                         `json:"Contract Date"`
	EndDate          Date                         `json:"End Date"`
	Total            Amount                       `json:"Total"`
	FriendRentalData map[string]FriendRentalEntry `json:"friend_rental_data,omitempty"`
}

type GeneralDiscount struct {
	ID            string `json:"id"`
	CustomerID    string `json:"customer_id,omitempty"`
	DiscountType  string `json:"discount_type"`
	DiscountValue Amount `json:"discount_value"`
	Reason        string `json:"reason,omitempty"`
	Status        string `json:"status"`
	AppliedDate   Date   `json:"applied_date"`
}

type PrintedInvoice struct {
	ID            string `json:"id"`
	CustomerID    string `json:"customer_id,omitempty"`
	CustomerName  string `json:"customer_name,omitempty"`
	InvoiceNumber string `json:"invoice_number"`
	TotalAmount   Amount `json:"total_amount"`
	PaidAmount    Amount `json:"paid_amount"`
	InvoiceDate   Date   `json:"invoice_date"`
	Notes         string `json:"notes,omitempty"`
}

type CompositeTask struct {
	ID                 string  `json:"id"`
	CustomerID         string  `json:"customer_id,omitempty"`
	CustomerName       string  `json:"customer_name,omitempty"`
	TaskType           string  `json:"task_type,omitempty"`
	CustomerTotal      Amount  `json:"customer_total"`
	PaidAmount         Amount  `json:"paid_amount"`
	CombinedInvoiceID  string  `json:"combined_invoice_id,omitempty"`
	InstallationTaskID string  `json:"installation_task_id,omitempty"`
	ContractID         NullInt `json:"contract_id"`
	ContractIDs        []int64 `json:"contract_ids,omitempty"`
	CreatedAt          Date    `json:"created_at"`
	Notes              string  `json:"notes,omitempty"`
}

type PurchaseInvoice struct {
	ID            string `json:"id"`
	CustomerID    string `json:"customer_id,omitempty"`
	CustomerName  string `json:"customer_name,omitempty"`
	InvoiceNumber string `json:"invoice_number"`
	InvoiceName   string `json:"invoice_name,omitempty"`
	TotalAmount   Amount `json:"total_amount"`
	UsedAsPayment Amount `json:"used_as_payment"`
	InvoiceDate   Date   `json:"invoice_date"`
	Notes         string `json:"notes,omitempty"`
}

type SalesInvoice struct {
	ID            string `json:"id"`
	CustomerID    string `json:"customer_id,omitempty"`
	CustomerName  string `json:"customer_name,omitempty"`
	InvoiceNumber string `json:"invoice_number"`
	InvoiceName   string `json:"invoice_name,omitempty"`
	TotalAmount   Amount `json:"total_amount"`
	PaidAmount    Amount `json:"paid_amount"`
	InvoiceDate   Date   `json:"invoice_date"`
	Notes         string `json:"notes,omitempty"`
}

type FriendBillboardRental struct {
	ID                  string  `json:"id"`
	BillboardID         string  `json:"billboard_id,omitempty"`
	ContractNumber      NullInt `json:"contract_number"`
	FriendCompanyID     string  `json:"friend_company_id,omitempty"`
	FriendRentalCost    Amount  `json:"friend_rental_cost"`
	CustomerRentalPrice Amount  `json:"customer_rental_price"`
	UsedAsPayment       Amount  `json:"used_as_payment"`
	StartDate           Date    `json:"start_date"`
	EndDate             Date    `json:"end_date"`
	CreatedAt           Date    `json:"created_at"`
	Notes               string  `json:"notes,omitempty"`
}

type Payment struct {
	ID                   string  `json:"id"`
	CustomerID           string  `json:"customer_id,omitempty"`
	CustomerName         string  `json:"customer_name,omitempty"`
	ContractNumber       NullInt `json:"contract_number"`
	SalesInvoiceID       string  `json:"sales_invoice_id,omitempty"`
	PrintedInvoiceID     string  `json:"printed_invoice_id,omitempty"`
	CompositeTaskID      string  `json:"composite_task_id,omitempty"`
	PurchaseInvoiceID    string  `json:"purchase_invoice_id,omitempty"`
	DistributedPaymentID string  `json:"distributed_payment_id,omitempty"`
	EntryType            string  `json:"entry_type"`
	Amount               Amount  `json:"amount"`
	PaidAt               Date    `json:"paid_at"`
	Notes                string  `json:"notes,omitempty"`
	Method               string  `json:"method,omitempty"`
	Reference            string  `json:"reference,omitempty"`
}

// SourceRecords holds every collection fetched for one customer.
type SourceRecords struct {
	Contracts              []Contract              `json:"contracts"`
	GeneralDiscounts       []GeneralDiscount       `json:"general_discounts"`
	PrintedInvoices        []PrintedInvoice        `json:"printed_invoices"`
	CompositeTasks         []CompositeTask         `json:"composite_tasks"`
	PurchaseInvoices       []PurchaseInvoice       `json:"purchase_invoices"`
	SalesInvoices          []SalesInvoice          `json:"sales_invoices"`
	FriendBillboardRentals []FriendBillboardRental `json:"friend_billboard_rentals"`
	Payments               []Payment               `json:"payments"`
}

// Bundle is the on-disk form of one customer's records, used for offline
// statements and database imports.
type Bundle struct {
	Customer Customer `json:"customer"`
	SourceRecords
}

// Tracking links a ledger line to the document whose remaining balance it
// reduces during the chronological pass. Fixed documents already carry a
// stored paid amount, so their lines keep the remaining figure they were
// built with.
type Tracking struct {
	Key   string
	Total decimal.Decimal
	Fixed bool
}

type LedgerLine struct {
	ID                      string              `json:"id"`
	Date                    *time.Time          `json:"date"`
	Kind                    Kind                `json:"kind"`
	EntryType               string              `json:"entry_type,omitempty"`
	Description             string              `json:"description"`
	Debit                   decimal.Decimal     `json:"debit"`
	Credit                  decimal.Decimal     `json:"credit"`
	RunningBalance          decimal.Decimal     `json:"running_balance"`
	ItemTotal               decimal.NullDecimal `json:"item_total"`
	ItemRemaining           decimal.NullDecimal `json:"item_remaining"`
	Outstanding             decimal.NullDecimal `json:"outstanding"`
	Reference               string              `json:"reference"`
	Notes                   string              `json:"notes"`
	AdType                  string              `json:"ad_type,omitempty"`
	ContractNumber          *int64              `json:"contract_number,omitempty"`
	TargetContractNumber    *int64              `json:"target_contract_number,omitempty"`
	DistributedPaymentID    string              `json:"distributed_payment_id,omitempty"`
	DistributedPaymentTotal decimal.NullDecimal `json:"distributed_payment_total"`
	Tracking                *Tracking           `json:"-"`
}

type Summary struct {
	TotalDebits                 decimal.Decimal `json:"total_debits"`
	TotalCredits                decimal.Decimal `json:"total_credits"`
	Balance                     decimal.Decimal `json:"balance"`
	TotalFriendRentals          decimal.Decimal `json:"total_friend_rentals"`
	BalanceWithoutFriendRentals decimal.Decimal `json:"balance_without_friend_rentals"`
	TotalPurchaseInvoices       decimal.Decimal `json:"total_purchase_invoices"`
	TotalSalesInvoices          decimal.Decimal `json:"total_sales_invoices"`
	TotalDiscounts              decimal.Decimal `json:"total_discounts"`
	TotalPayments               decimal.Decimal `json:"total_payments"`
	ContractCount               int             `json:"contract_count"`
	ActiveContractCount         int             `json:"active_contract_count"`
	PaymentCount                int             `json:"payment_count"`
	LineCount                   int             `json:"line_count"`
}

type Statement struct {
	Customer             Customer     `json:"customer"`
	Range                DateRange    `json:"range"`
	ExcludeFriendRentals bool         `json:"exclude_friend_rentals"`
	GeneratedAt          time.Time    `json:"generated_at"`
	Lines                []LedgerLine `json:"lines"`
	Summary              Summary      `json:"summary"`
	FetchFailures        []string     `json:"fetch_failures,omitempty"`
}
