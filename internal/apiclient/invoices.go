package apiclient

import (
	"context"
	"strconv"

	"webomat/internal/models"
)

func (c *Client) Invoices(ctx context.Context, f models.InvoiceFilter) (*models.InvoicePage, error) {
	q := map[string]string{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.Page > 0 {
		q["page"] = strconv.Itoa(f.Page)
	}
	if f.PageSize > 0 {
		q["page_size"] = strconv.Itoa(f.PageSize)
	}
	var out models.InvoicePage
	if err := c.get(ctx, "/invoices", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Invoice(ctx context.Context, id string) (*models.Invoice, error) {
	var out models.Invoice
	if err := c.get(ctx, "/invoices/"+seg(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateInvoiceStatus drives the admin transitions that have no dedicated
// endpoint: issue, mark paid and cancel.
func (c *Client) UpdateInvoiceStatus(ctx context.Context, id string, upd models.InvoiceStatusUpdate) (*models.Invoice, error) {
	var out models.Invoice
	if err := c.put(ctx, "/invoices/"+seg(id)+"/status", upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitInvoiceForApproval(ctx context.Context, id string) (*models.Invoice, error) {
	var out models.Invoice
	if err := c.post(ctx, "/invoices/"+seg(id)+"/submit-for-approval", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ApproveInvoice(ctx context.Context, id string) (*models.Invoice, error) {
	var out models.Invoice
	if err := c.post(ctx, "/invoices/"+seg(id)+"/approve", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RejectInvoice(ctx context.Context, id, reason string) (*models.Invoice, error) {
	var out models.Invoice
	if err := c.post(ctx, "/invoices/"+seg(id)+"/reject", models.InvoiceRejectRequest{Reason: reason}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GenerateInvoicePDF(ctx context.Context, id string) (*models.InvoicePDF, error) {
	var out models.InvoicePDF
	if err := c.post(ctx, "/invoices/"+seg(id)+"/generate-pdf", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// InvoicePDFURL is the redirect endpoint a browser can open directly.
func (c *Client) InvoicePDFURL(id string) string {
	return c.BaseURL() + "/invoices/" + seg(id) + "/pdf"
}
