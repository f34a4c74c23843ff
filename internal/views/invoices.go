package views

import (
	"context"
	"fmt"
	"sync"

	"webomat/internal/invoice/fsm"
	"webomat/internal/invoice/lifecycle"
	"webomat/internal/models"
)

// InvoiceAPI is the read side of the invoice endpoints.
type InvoiceAPI interface {
	Invoice(ctx context.Context, id string) (*models.Invoice, error)
	Invoices(ctx context.Context, f models.InvoiceFilter) (*models.InvoicePage, error)
}

// Transitioner executes invoice transitions; *lifecycle.Controller
// satisfies it.
type Transitioner interface {
	Execute(ctx context.Context, inv *models.Invoice, req lifecycle.Request) (*models.Invoice, error)
}

var successMessages = map[fsm.Action]string{
	fsm.ActionSubmitForApproval: "Invoice submitted for approval",
	fsm.ActionIssue:             "Invoice issued",
	fsm.ActionApprove:           "Invoice approved",
	fsm.ActionReject:            "Invoice returned to draft",
	fsm.ActionMarkPaid:          "Invoice marked as paid",
	fsm.ActionCancel:            "Invoice cancelled",
}

func copyInvoice(inv *models.Invoice) *models.Invoice {
	if inv == nil {
		return nil
	}
	cp := *inv
	return &cp
}

// InvoiceDetail is the invoice detail screen of a user with role.
type InvoiceDetail struct {
	api  InvoiceAPI
	tr   Transitioner
	role string
	id   string
	mut  mutator

	mu      sync.RWMutex
	inv     *models.Invoice
	loadErr string
	err     string
}

// NewInvoiceDetail constructs the screen.
func NewInvoiceDetail(api InvoiceAPI, tr Transitioner, id, role string, logger Logger, notifier Notifier) *InvoiceDetail {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &InvoiceDetail{
		api:  api,
		tr:   tr,
		role: role,
		id:   id,
		mut:  mutator{logger: logger, notifier: notifier},
	}
}

// Load fetches the invoice.
func (v *InvoiceDetail) Load(ctx context.Context) error {
	inv, err := v.api.Invoice(ctx, v.id)
	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.loadErr = Message(err)
		return fmt.Errorf("load invoice %s: %w", v.id, err)
	}
	v.inv = inv
	v.loadErr = ""
	return nil
}

// Invoice returns a copy of the displayed invoice.
func (v *InvoiceDetail) Invoice() *models.Invoice {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return copyInvoice(v.inv)
}

// Actions lists the controls to render for the displayed invoice.
func (v *InvoiceDetail) Actions() []fsm.Action {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.inv == nil {
		return nil
	}
	return fsm.AllowedActions(v.inv.Status, v.role)
}

func (v *InvoiceDetail) Error() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.err
}

func (v *InvoiceDetail) LoadError() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loadErr
}

// Apply runs a transition on the displayed invoice. The displayed invoice
// is replaced only when the transition succeeded.
func (v *InvoiceDetail) Apply(ctx context.Context, req lifecycle.Request) error {
	snap := v.Invoice()
	if snap == nil {
		return lifecycle.ErrNoInvoice
	}
	var result *models.Invoice
	return v.mut.run(ctx, "invoice "+string(req.Action), successMessages[req.Action],
		func(ctx context.Context) error {
			inv, err := v.tr.Execute(ctx, snap, req)
			result = inv
			return err
		},
		func(msg string) {
			v.mu.Lock()
			v.err = msg
			v.mu.Unlock()
		},
		func() {
			v.mu.Lock()
			if result != nil {
				v.inv = result
			}
			v.err = ""
			v.mu.Unlock()
		},
	)
}

// InvoiceList is the paged invoice list.
type InvoiceList struct {
	api    InvoiceAPI
	tr     Transitioner
	role   string
	logger Logger
	mut    mutator

	mu      sync.RWMutex
	filter  models.InvoiceFilter
	page    *models.InvoicePage
	loadErr string
	err     string
}

// NewInvoiceList constructs the list screen.
func NewInvoiceList(api InvoiceAPI, tr Transitioner, role string, logger Logger, notifier Notifier) *InvoiceList {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &InvoiceList{
		api:    api,
		tr:     tr,
		role:   role,
		logger: logger,
		mut:    mutator{logger: logger, notifier: notifier},
		filter: models.InvoiceFilter{Page: 1, PageSize: 20},
	}
}

// Load fetches the page described by f.
func (v *InvoiceList) Load(ctx context.Context, f models.InvoiceFilter) error {
	page, err := v.api.Invoices(ctx, f)
	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.loadErr = Message(err)
		return fmt.Errorf("load invoices: %w", err)
	}
	v.filter = f
	v.page = page
	v.loadErr = ""
	return nil
}

// Page returns a copy of the loaded page.
func (v *InvoiceList) Page() models.InvoicePage {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.page == nil {
		return models.InvoicePage{}
	}
	p := *v.page
	p.Items = append([]models.Invoice(nil), v.page.Items...)
	return p
}

// Actions lists the controls for the row with id.
func (v *InvoiceList) Actions(id string) []fsm.Action {
	inv := v.find(id)
	if inv == nil {
		return nil
	}
	return fsm.AllowedActions(inv.Status, v.role)
}

func (v *InvoiceList) Error() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.err
}

func (v *InvoiceList) LoadError() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.loadErr
}

func (v *InvoiceList) find(id string) *models.Invoice {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.page == nil {
		return nil
	}
	for i := range v.page.Items {
		if v.page.Items[i].ID == id {
			return copyInvoice(&v.page.Items[i])
		}
	}
	return nil
}

// Apply runs a transition on a listed invoice, then reloads the page. Only
// the row being changed is busy meanwhile.
func (v *InvoiceList) Apply(ctx context.Context, id string, req lifecycle.Request) error {
	snap := v.find(id)
	if snap == nil {
		return lifecycle.ErrNoInvoice
	}
	var result *models.Invoice
	return v.mut.runFor(ctx, id, "invoice "+string(req.Action), successMessages[req.Action],
		func(ctx context.Context) error {
			inv, err := v.tr.Execute(ctx, snap, req)
			result = inv
			return err
		},
		func(msg string) {
			v.mu.Lock()
			v.err = msg
			v.mu.Unlock()
		},
		func() {
			v.mu.Lock()
			v.err = ""
			if result != nil && v.page != nil {
				for i := range v.page.Items {
					if v.page.Items[i].ID == result.ID {
						v.page.Items[i] = *result
					}
				}
			}
			v.mu.Unlock()
		},
		refresher{name: "invoices", fn: func(ctx context.Context) error {
			v.mu.RLock()
			f := v.filter
			v.mu.RUnlock()
			page, err := v.api.Invoices(ctx, f)
			if err != nil {
				return err
			}
			v.mu.Lock()
			v.page = page
			v.mu.Unlock()
			return nil
		}},
	)
}
