package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	gojson "github.com/goccy/go-json"

	"webomat/internal/invoice/fsm"
	"webomat/internal/invoice/lifecycle"
	"webomat/internal/models"
	"webomat/internal/views"
)

// InvoiceAPI is the part of the API client used by the invoice endpoints.
type InvoiceAPI interface {
	views.InvoiceAPI
	GenerateInvoicePDF(ctx context.Context, id string) (*models.InvoicePDF, error)
}

type InvoiceHandler struct {
	Base
	API       InvoiceAPI
	Lifecycle views.Transitioner
}

type invoiceResponse struct {
	Invoice *models.Invoice `json:"invoice"`
	Actions []fsm.Action    `json:"actions"`
}

type invoiceRow struct {
	models.Invoice
	Actions []fsm.Action `json:"actions"`
}

type invoiceListResponse struct {
	Items    []invoiceRow `json:"items"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

type transitionRequest struct {
	Reason   string `json:"reason"`
	PaidDate string `json:"paid_date"`
}

func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	f := models.InvoiceFilter{
		Status:   getParam(r, "status"),
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "page_size", 20),
	}
	if f.Status != "" && !fsm.IsKnown(f.Status) {
		writeJSON(w, http.StatusBadRequest, errorBody{Detail: fmt.Sprintf("Unknown status %q", f.Status)})
		return
	}

	list := views.NewInvoiceList(h.API, h.Lifecycle, identity(r).Role, h.Logger, h.notifier(r))
	if err := list.Load(r.Context(), f); err != nil {
		h.fail(w, r, "list invoices", err)
		return
	}

	page := list.Page()
	resp := invoiceListResponse{
		Items:    make([]invoiceRow, 0, len(page.Items)),
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}
	for _, inv := range page.Items {
		resp.Items = append(resp.Items, invoiceRow{Invoice: inv, Actions: list.Actions(inv.ID)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *InvoiceHandler) detail(r *http.Request) *views.InvoiceDetail {
	return views.NewInvoiceDetail(h.API, h.Lifecycle, getParam(r, "id"), identity(r).Role, h.Logger, h.notifier(r))
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	v := h.detail(r)
	if err := v.Load(r.Context()); err != nil {
		h.fail(w, r, "get invoice", err)
		return
	}
	writeJSON(w, http.StatusOK, invoiceResponse{Invoice: v.Invoice(), Actions: v.Actions()})
}

// Transition runs one lifecycle action on the invoice. The body is optional
// and carries the reject reason or the paid date.
func (h *InvoiceHandler) Transition(w http.ResponseWriter, r *http.Request) {
	action, ok := fsm.ParseAction(getParam(r, "action"))
	if !ok {
		h.fail(w, r, "invoice transition", fmt.Errorf("%w: %q", lifecycle.ErrUnknownAction, getParam(r, "action")))
		return
	}

	var body transitionRequest
	if r.Body != nil {
		raw, err := io.ReadAll(io.LimitReader(r.Body, 64<<10))
		if err == nil && len(bytes.TrimSpace(raw)) > 0 {
			err = gojson.Unmarshal(raw, &body)
		}
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Detail: "Invalid request body"})
			return
		}
	}

	v := h.detail(r)
	if err := v.Load(r.Context()); err != nil {
		h.fail(w, r, "invoice transition", err)
		return
	}
	err := v.Apply(r.Context(), lifecycle.Request{Action: action, Reason: body.Reason, PaidDate: body.PaidDate})
	if err != nil {
		h.fail(w, r, "invoice "+string(action), err)
		return
	}
	writeJSON(w, http.StatusOK, invoiceResponse{Invoice: v.Invoice(), Actions: v.Actions()})
}

func (h *InvoiceHandler) GeneratePDF(w http.ResponseWriter, r *http.Request) {
	pdf, err := h.API.GenerateInvoicePDF(r.Context(), getParam(r, "id"))
	if err != nil {
		h.fail(w, r, "generate invoice pdf", err)
		return
	}
	writeJSON(w, http.StatusOK, pdf)
}
