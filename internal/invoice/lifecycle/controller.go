// Package lifecycle drives invoice status transitions against the backend.
package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"webomat/internal/invoice/fsm"
	"webomat/internal/models"
)

const dateLayout = "2006-01-02"

// InvoiceAPI is the part of the API client the controller needs.
type InvoiceAPI interface {
	Invoice(ctx context.Context, id string) (*models.Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, id string, upd models.InvoiceStatusUpdate) (*models.Invoice, error)
	SubmitInvoiceForApproval(ctx context.Context, id string) (*models.Invoice, error)
	ApproveInvoice(ctx context.Context, id string) (*models.Invoice, error)
	RejectInvoice(ctx context.Context, id, reason string) (*models.Invoice, error)
}

// Logger is the logging surface used by the controller.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Observer is called after a transition succeeded, with the freshest
// invoice the controller could obtain.
type Observer func(ctx context.Context, action fsm.Action, inv *models.Invoice)

// Request describes one transition attempt.
type Request struct {
	Action fsm.Action
	// Reason is required for reject.
	Reason string
	// PaidDate is used by mark_paid; empty means today.
	PaidDate string
}

// Controller executes transitions. It is safe for concurrent use.
type Controller struct {
	api       InvoiceAPI
	logger    Logger
	now       func() time.Time
	observers []Observer

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// Option customises a Controller.
type Option func(*Controller)

// WithClock overrides the clock used for default paid dates.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithObserver registers a callback for successful transitions.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observers = append(c.observers, o) }
}

// New constructs a Controller.
func New(api InvoiceAPI, logger Logger, opts ...Option) *Controller {
	c := &Controller{
		api:      api,
		logger:   logger,
		now:      time.Now,
		inFlight: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitForApproval moves a draft to pending_approval.
func (c *Controller) SubmitForApproval(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	return c.Execute(ctx, inv, Request{Action: fsm.ActionSubmitForApproval})
}

// Approve issues a pending invoice.
func (c *Controller) Approve(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	return c.Execute(ctx, inv, Request{Action: fsm.ActionApprove})
}

// Reject returns a pending invoice to draft with a reason.
func (c *Controller) Reject(ctx context.Context, inv *models.Invoice, reason string) (*models.Invoice, error) {
	return c.Execute(ctx, inv, Request{Action: fsm.ActionReject, Reason: reason})
}

// Issue issues a draft directly.
func (c *Controller) Issue(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	return c.Execute(ctx, inv, Request{Action: fsm.ActionIssue})
}

// MarkPaid records payment; an empty paidDate means today.
func (c *Controller) MarkPaid(ctx context.Context, inv *models.Invoice, paidDate string) (*models.Invoice, error) {
	return c.Execute(ctx, inv, Request{Action: fsm.ActionMarkPaid, PaidDate: paidDate})
}

// Cancel cancels any non-terminal invoice.
func (c *Controller) Cancel(ctx context.Context, inv *models.Invoice) (*models.Invoice, error) {
	return c.Execute(ctx, inv, Request{Action: fsm.ActionCancel})
}

// Execute checks the local preconditions for req against the displayed
// snapshot, sends the request and reloads the invoice. The role is not
// checked here; the backend rejects callers without permission.
func (c *Controller) Execute(ctx context.Context, inv *models.Invoice, req Request) (*models.Invoice, error) {
	if inv == nil {
		return nil, ErrNoInvoice
	}
	if _, ok := fsm.ParseAction(string(req.Action)); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}
	if fsm.IsTerminal(inv.Status) {
		return nil, fmt.Errorf("%w: invoice is %s", ErrInvalidTransition, inv.Status)
	}
	target, ok := fsm.Target(inv.Status, req.Action)
	if !ok {
		return nil, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, req.Action, inv.Status)
	}

	reason := strings.TrimSpace(req.Reason)
	if req.Action == fsm.ActionReject && reason == "" {
		return nil, ErrReasonRequired
	}
	paidDate := strings.TrimSpace(req.PaidDate)
	if req.Action == fsm.ActionMarkPaid {
		if paidDate == "" {
			paidDate = c.now().Format(dateLayout)
		} else if _, err := time.Parse(dateLayout, paidDate); err != nil {
			return nil, ErrInvalidPaidDate
		}
	}

	key := inv.ID + "|" + string(req.Action)
	if !c.acquire(key) {
		return nil, ErrInFlight
	}
	defer c.release(key)

	updated, err := c.send(ctx, inv.ID, req.Action, target, reason, paidDate)
	if err != nil {
		return nil, err
	}
	c.logger.Infof("invoice %s: %s -> %s", inv.ID, inv.Status, target)

	result := c.reload(ctx, inv, updated, target, paidDate)
	for _, o := range c.observers {
		o(ctx, req.Action, result)
	}
	return result, nil
}

// InFlight reports whether action on invoice id is pending.
func (c *Controller) InFlight(id string, action fsm.Action) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inFlight[id+"|"+string(action)]
	return ok
}

func (c *Controller) acquire(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inFlight[key]; busy {
		return false
	}
	c.inFlight[key] = struct{}{}
	return true
}

func (c *Controller) release(key string) {
	c.mu.Lock()
	delete(c.inFlight, key)
	c.mu.Unlock()
}

func (c *Controller) send(ctx context.Context, id string, action fsm.Action, target, reason, paidDate string) (*models.Invoice, error) {
	switch action {
	case fsm.ActionSubmitForApproval:
		return c.api.SubmitInvoiceForApproval(ctx, id)
	case fsm.ActionApprove:
		return c.api.ApproveInvoice(ctx, id)
	case fsm.ActionReject:
		return c.api.RejectInvoice(ctx, id, reason)
	case fsm.ActionMarkPaid:
		return c.api.UpdateInvoiceStatus(ctx, id, models.InvoiceStatusUpdate{Status: target, PaidDate: &paidDate})
	default:
		return c.api.UpdateInvoiceStatus(ctx, id, models.InvoiceStatusUpdate{Status: target})
	}
}

// reload fetches the invoice after a successful mutation. A failed reload,
// an empty body or a status the invoice cannot have reached from target is
// logged and the best local knowledge is returned instead.
func (c *Controller) reload(ctx context.Context, before, updated *models.Invoice, target, paidDate string) *models.Invoice {
	fresh, err := c.api.Invoice(ctx, before.ID)
	switch {
	case err != nil:
		c.logger.Errorf("invoice %s: reload after transition: %v", before.ID, err)
	case fresh == nil || fresh.ID == "":
		c.logger.Errorf("invoice %s: reload after transition returned no invoice", before.ID)
	case !fsm.CanTransition(target, fresh.Status):
		c.logger.Errorf("invoice %s: reload returned stale status %s, expected %s", before.ID, fresh.Status, target)
	default:
		return fresh
	}
	if updated != nil && updated.ID != "" {
		return updated
	}
	cp := *before
	cp.Status = target
	if target == fsm.StatusPaid {
		cp.PaidDate = &paidDate
	}
	return &cp
}
