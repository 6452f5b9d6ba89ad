package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date format used for invoice and promotion dates.
const DateLayout = "2006-01-02"

// PartialPaymentTerm is how long a partially paid invoice stays open.
const PartialPaymentTerm = 30 * 24 * time.Hour

// PaymentMode selects how a checkout is paid.
type PaymentMode string

const (
	PaymentFull    PaymentMode = "full"
	PaymentPartial PaymentMode = "partial"
)

// SaleStatus is the payment status of a sale.
type SaleStatus string

const (
	SalePending   SaleStatus = "pending"
	SaleCompleted SaleStatus = "completed"
)

// InvoiceStatus is the status of an invoice.
type InvoiceStatus string

const (
	InvoiceSent InvoiceStatus = "sent"
	InvoicePaid InvoiceStatus = "paid"
)

// Sale is the persisted result of a checkout.
type Sale struct {
	ID             string          `json:"id" db:"id"`
	CompanyID      string          `json:"company_id" db:"company_id"`
	SaleNumber     string          `json:"sale_number" db:"sale_number"`
	ClientID       *string         `json:"client_id,omitempty" db:"client_id"`
	SellerID       string          `json:"seller_id" db:"seller_id"`
	PromotionID    *string         `json:"promotion_id,omitempty" db:"promotion_id"`
	Subtotal       decimal.Decimal `json:"subtotal" db:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount" db:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount" db:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount" db:"total_amount"`
	PaymentStatus  SaleStatus      `json:"payment_status" db:"payment_status"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// Invoice is the billing document companion of a sale.
type Invoice struct {
	ID            string          `json:"id" db:"id"`
	CompanyID     string          `json:"company_id" db:"company_id"`
	SaleID        string          `json:"sale_id" db:"sale_id"`
	InvoiceNumber string          `json:"invoice_number" db:"invoice_number"`
	ClientID      *string         `json:"client_id,omitempty" db:"client_id"`
	IssueDate     string          `json:"issue_date" db:"issue_date"`
	DueDate       string          `json:"due_date" db:"due_date"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"subtotal"`
	TaxAmount     decimal.Decimal `json:"tax_amount" db:"tax_amount"`
	TotalAmount   decimal.Decimal `json:"total_amount" db:"total_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount" db:"paid_amount"`
	Status        InvoiceStatus   `json:"status" db:"status"`
	Notes         string          `json:"notes" db:"notes"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// BalanceDue is what remains to be paid on the invoice.
func (i *Invoice) BalanceDue() decimal.Decimal {
	return i.TotalAmount.Sub(i.PaidAmount)
}

// SaleLineItem is one persisted product line of a sale.
type SaleLineItem struct {
	ID         string          `json:"id" db:"id"`
	SaleID     string          `json:"sale_id" db:"sale_id"`
	InvoiceID  string          `json:"invoice_id" db:"invoice_id"`
	ProductID  string          `json:"product_id" db:"product_id"`
	Quantity   int             `json:"quantity" db:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price" db:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price" db:"total_price"`
}

// CheckoutRequest is the payment choice submitted at checkout.
type CheckoutRequest struct {
	PaymentMode   PaymentMode      `json:"payment_mode"`
	PartialAmount *decimal.Decimal `json:"partial_amount,omitempty"`
	Notes         string           `json:"notes,omitempty"`
}

// CheckoutRecord is everything a checkout writes, committed as one unit.
type CheckoutRecord struct {
	Sale    Sale           `json:"sale"`
	Invoice Invoice        `json:"invoice"`
	Items   []SaleLineItem `json:"items"`
}

// ReceiptLine is a printable line of a receipt.
type ReceiptLine struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Total     decimal.Decimal `json:"total"`
}

// Receipt is the data a client renders into a PDF after checkout.
type Receipt struct {
	Company       *Company        `json:"company,omitempty"`
	SellerID      string          `json:"seller_id"`
	Customer      *Customer       `json:"customer,omitempty"`
	Promotion     *Promotion      `json:"promotion,omitempty"`
	SaleID        string          `json:"sale_id"`
	SaleNumber    string          `json:"sale_number"`
	InvoiceID     string          `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	IssueDate     string          `json:"issue_date"`
	DueDate       string          `json:"due_date"`
	Lines         []ReceiptLine   `json:"lines"`
	Totals        Totals          `json:"totals"`
	PaymentMode   PaymentMode     `json:"payment_mode"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
	InvoiceStatus InvoiceStatus   `json:"invoice_status"`
	SaleStatus    SaleStatus      `json:"sale_status"`
	IssuedAt      time.Time       `json:"issued_at"`
}

// SaleDetail is a sale with its invoice and items.
type SaleDetail struct {
	Sale    Sale           `json:"sale"`
	Invoice *Invoice       `json:"invoice,omitempty"`
	Items   []SaleLineItem `json:"items"`
}

// SaleCompletedEvent is published after a checkout commits.
type SaleCompletedEvent struct {
	EventID     string          `json:"event_id"`
	EventType   string          `json:"event_type"`
	CompanyID   string          `json:"company_id"`
	SaleID      string          `json:"sale_id"`
	SaleNumber  string          `json:"sale_number"`
	InvoiceID   string          `json:"invoice_id"`
	SellerID    string          `json:"seller_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PaidAmount  decimal.Decimal `json:"paid_amount"`
	Status      SaleStatus      `json:"status"`
	Items       []SaleLineItem  `json:"items"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// EventTypeSaleCompleted is the event type of SaleCompletedEvent.
const EventTypeSaleCompleted = "sale.completed"

// SalesQuery filters sale listings.
type SalesQuery struct {
	Since    *time.Time
	Page     int
	PageSize int
}

// DashboardSummary is the tenant overview shown on the dashboard.
type DashboardSummary struct {
	CompanyID       string          `json:"company_id"`
	Date            string          `json:"date"`
	SalesCount      int             `json:"sales_count"`
	Revenue         decimal.Decimal `json:"revenue"`
	PendingInvoices int             `json:"pending_invoices"`
	AmountDue       decimal.Decimal `json:"amount_due"`
	ProductCount    int             `json:"product_count"`
	LowStock        []Product       `json:"low_stock"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

// CheckoutResult is the outcome of a checkout; Replayed marks a receipt
// served from an earlier request with the same idempotency key.
type CheckoutResult struct {
	Receipt  *Receipt
	Replayed bool
}
