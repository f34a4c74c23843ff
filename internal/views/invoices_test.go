package views

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webomat/internal/apiclient"
	"webomat/internal/invoice/fsm"
	"webomat/internal/invoice/lifecycle"
	"webomat/internal/models"
)

type fakeInvoices struct {
	inv     models.Invoice
	page    models.InvoicePage
	listErr error
}

func (f *fakeInvoices) Invoice(context.Context, string) (*models.Invoice, error) {
	inv := f.inv
	return &inv, nil
}

func (f *fakeInvoices) Invoices(context.Context, models.InvoiceFilter) (*models.InvoicePage, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	p := f.page
	return &p, nil
}

type fakeTransitioner struct {
	result *models.Invoice
	err    error
	calls  int
}

func (f *fakeTransitioner) Execute(_ context.Context, inv *models.Invoice, req lifecycle.Request) (*models.Invoice, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestInvoiceDetailActionsByRole(t *testing.T) {
	api := &fakeInvoices{inv: models.Invoice{ID: "i1", Status: fsm.StatusPendingApproval}}

	sales := NewInvoiceDetail(api, &fakeTransitioner{}, "i1", models.RoleSales, testLogger{}, nil)
	require.NoError(t, sales.Load(context.Background()))
	assert.Empty(t, sales.Actions())

	admin := NewInvoiceDetail(api, &fakeTransitioner{}, "i1", models.RoleAdmin, testLogger{}, nil)
	require.NoError(t, admin.Load(context.Background()))
	if diff := cmp.Diff([]fsm.Action{fsm.ActionApprove, fsm.ActionReject, fsm.ActionCancel}, admin.Actions()); diff != "" {
		t.Fatalf("admin actions mismatch (-want +got):\n%s", diff)
	}
}

func TestInvoiceDetailFailureKeepsInvoice(t *testing.T) {
	api := &fakeInvoices{inv: models.Invoice{ID: "i1", Status: fsm.StatusPendingApproval}}
	tr := &fakeTransitioner{err: &apiclient.APIError{StatusCode: 403, Detail: "Not enough permissions"}}
	n := &recordingNotifier{}
	v := NewInvoiceDetail(api, tr, "i1", models.RoleSales, testLogger{}, n)
	require.NoError(t, v.Load(context.Background()))

	err := v.Apply(context.Background(), lifecycle.Request{Action: fsm.ActionApprove})
	assert.True(t, apiclient.IsForbidden(err))
	assert.Equal(t, fsm.StatusPendingApproval, v.Invoice().Status)
	assert.Equal(t, "Error 403: Not enough permissions", v.Error())
	assert.Equal(t, []string{"Error 403: Not enough permissions"}, n.errors)
}

func TestInvoiceDetailSuccessReplacesInvoice(t *testing.T) {
	api := &fakeInvoices{inv: models.Invoice{ID: "i1", Status: fsm.StatusIssued}}
	tr := &fakeTransitioner{result: &models.Invoice{ID: "i1", Status: fsm.StatusPaid}}
	n := &recordingNotifier{}
	v := NewInvoiceDetail(api, tr, "i1", models.RoleAdmin, testLogger{}, n)
	require.NoError(t, v.Load(context.Background()))

	require.NoError(t, v.Apply(context.Background(), lifecycle.Request{Action: fsm.ActionMarkPaid}))
	assert.Equal(t, fsm.StatusPaid, v.Invoice().Status)
	assert.Empty(t, v.Error())
	assert.Empty(t, v.Actions())
	assert.Equal(t, []string{"Invoice marked as paid"}, n.successes)
}

func TestInvoiceListRefreshFailureKeepsUpdatedRow(t *testing.T) {
	api := &fakeInvoices{page: models.InvoicePage{
		Items: []models.Invoice{
			{ID: "i1", Status: fsm.StatusDraft},
			{ID: "i2", Status: fsm.StatusIssued},
		},
		Total: 2, Page: 1, PageSize: 20,
	}}
	tr := &fakeTransitioner{result: &models.Invoice{ID: "i1", Status: fsm.StatusPendingApproval}}
	v := NewInvoiceList(api, tr, models.RoleSales, testLogger{}, nil)
	require.NoError(t, v.Load(context.Background(), models.InvoiceFilter{Page: 1, PageSize: 20}))

	assert.Equal(t, []fsm.Action{fsm.ActionSubmitForApproval}, v.Actions("i1"))
	assert.Empty(t, v.Actions("i2"))

	api.listErr = &apiclient.TransportError{Method: "GET", Path: "/invoices", Err: errors.New("connection refused")}
	require.NoError(t, v.Apply(context.Background(), "i1", lifecycle.Request{Action: fsm.ActionSubmitForApproval}))

	page := v.Page()
	assert.Equal(t, fsm.StatusPendingApproval, page.Items[0].Status)
	assert.Equal(t, fsm.StatusIssued, page.Items[1].Status)
	assert.Empty(t, v.Error())
}

type rowBlockingTransitioner struct {
	blockID string
	entered chan struct{}
	release chan struct{}
}

func (b *rowBlockingTransitioner) Execute(_ context.Context, inv *models.Invoice, req lifecycle.Request) (*models.Invoice, error) {
	if inv.ID == b.blockID {
		b.entered <- struct{}{}
		<-b.release
	}
	out := *inv
	out.Status, _ = fsm.Target(inv.Status, req.Action)
	return &out, nil
}

func TestInvoiceListBusyIsPerRow(t *testing.T) {
	api := &fakeInvoices{page: models.InvoicePage{
		Items: []models.Invoice{
			{ID: "i1", Status: fsm.StatusPendingApproval},
			{ID: "i2", Status: fsm.StatusPendingApproval},
		},
		Total: 2, Page: 1, PageSize: 20,
	}}
	tr := &rowBlockingTransitioner{blockID: "i1", entered: make(chan struct{}, 1), release: make(chan struct{})}
	v := NewInvoiceList(api, tr, models.RoleAdmin, testLogger{}, nil)
	require.NoError(t, v.Load(context.Background(), models.InvoiceFilter{Page: 1, PageSize: 20}))

	done := make(chan error, 1)
	go func() { done <- v.Apply(context.Background(), "i1", lifecycle.Request{Action: fsm.ActionApprove}) }()
	<-tr.entered

	assert.NoError(t, v.Apply(context.Background(), "i2", lifecycle.Request{Action: fsm.ActionApprove}))
	assert.ErrorIs(t, v.Apply(context.Background(), "i1", lifecycle.Request{Action: fsm.ActionCancel}), ErrBusy)

	close(tr.release)
	require.NoError(t, <-done)
}

func TestInvoiceListUnknownRow(t *testing.T) {
	v := NewInvoiceList(&fakeInvoices{}, &fakeTransitioner{}, models.RoleAdmin, testLogger{}, nil)
	assert.ErrorIs(t, v.Apply(context.Background(), "missing", lifecycle.Request{Action: fsm.ActionCancel}), lifecycle.ErrNoInvoice)
}

func TestMessage(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&apiclient.APIError{StatusCode: 400, Detail: "Validation error"}, "Error 400: Validation error"},
		{&apiclient.APIError{StatusCode: 502}, "Error 502"},
		{&apiclient.TransportError{Method: "GET", Path: "/x", Err: errors.New("dial tcp")}, TransportMessage},
		{lifecycle.ErrReasonRequired, "Please enter a reason for the rejection."},
		{errors.New("plain"), "plain"},
		{nil, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Message(tc.err))
	}
}
