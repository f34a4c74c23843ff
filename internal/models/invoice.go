package models

import "time"

// Payment types of an invoice.
const (
	PaymentTypeSetup   = "setup"
	PaymentTypeMonthly = "monthly"
	PaymentTypeOther   = "other"
)

// Invoice is a billable document tied to a business and a seller.
type Invoice struct {
	ID               string     `json:"id"`
	InvoiceNumber    string     `json:"invoice_number"`
	BusinessID       string     `json:"business_id"`
	SellerID         string     `json:"seller_id"`
	AmountTotal      float64    `json:"amount_total"`
	AmountWithoutVAT float64    `json:"amount_without_vat"`
	VATRate          float64    `json:"vat_rate"`
	VATAmount        float64    `json:"vat_amount"`
	Currency         string     `json:"currency"`
	IssueDate        string     `json:"issue_date"`
	DueDate          string     `json:"due_date"`
	PaidDate         *string    `json:"paid_date"`
	Status           string     `json:"status"`
	PaymentType      string     `json:"payment_type"`
	RejectedReason   *string    `json:"rejected_reason"`
	PDFURL           *string    `json:"pdf_url,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`

	// Embedded for list pages.
	BusinessName string `json:"business_name,omitempty"`
	SellerName   string `json:"seller_name,omitempty"`
}

// InvoiceFilter narrows the invoice list.
type InvoiceFilter struct {
	Status   string
	Page     int
	PageSize int
}

// InvoicePage is one page of the invoice list.
type InvoicePage struct {
	Items    []Invoice `json:"items"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

// InvoiceStatusUpdate is the body of the generic status update endpoint.
type InvoiceStatusUpdate struct {
	Status   string  `json:"status"`
	PaidDate *string `json:"paid_date,omitempty"`
}

// InvoiceRejectRequest carries the reason an invoice was returned to draft.
type InvoiceRejectRequest struct {
	Reason string `json:"reason"`
}

// InvoicePDF is returned by PDF generation.
type InvoicePDF struct {
	PDFURL string `json:"pdf_url"`
}
