package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webomat/internal/apiclient"
	"webomat/internal/credentials"
	"webomat/internal/feedback"
	"webomat/internal/invoice/fsm"
	"webomat/internal/invoice/lifecycle"
	"webomat/internal/models"
	"webomat/internal/preview"
	"webomat/internal/services"
	"webomat/internal/session"
)

type testLogger struct{}

func (testLogger) Infof(string, ...interface{})  {}
func (testLogger) Errorf(string, ...interface{}) {}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// backend is a fake Webomat API. Tokens "admin" and "sales" select the role.
type backend struct {
	mu        sync.Mutex
	invoice   models.Invoice
	mutations int
	feedback  []models.Feedback
	comments  int
	projects  []models.Project
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/token":
		_ = r.ParseForm()
		if r.PostForm.Get("password") != "secret" {
			respondJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect username or password"})
			return
		}
		respondJSON(w, http.StatusOK, models.TokenResponse{AccessToken: "admin", TokenType: "bearer"})
	case r.Method == http.MethodGet && r.URL.Path == "/users/me":
		if token == "" {
			respondJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
			return
		}
		respondJSON(w, http.StatusOK, models.User{ID: "u-" + token, Email: token + "@webomat.cz", Role: token})
	case r.Method == http.MethodGet && r.URL.Path == "/invoices":
		respondJSON(w, http.StatusOK, models.InvoicePage{Items: []models.Invoice{b.invoice}, Total: 1, Page: 1, PageSize: 20})
	case r.Method == http.MethodGet && r.URL.Path == "/invoices/inv1":
		respondJSON(w, http.StatusOK, b.invoice)
	case r.Method == http.MethodPost && r.URL.Path == "/invoices/inv1/approve":
		b.mutations++
		if token != models.RoleAdmin {
			respondJSON(w, http.StatusForbidden, map[string]string{"detail": "Admin role required"})
			return
		}
		b.invoice.Status = fsm.StatusIssued
		respondJSON(w, http.StatusOK, b.invoice)
	case r.Method == http.MethodPost && r.URL.Path == "/invoices/inv1/reject":
		b.mutations++
		b.invoice.Status = fsm.StatusDraft
		respondJSON(w, http.StatusOK, b.invoice)
	case r.Method == http.MethodGet && r.URL.Path == "/crm/businesses/b1":
		respondJSON(w, http.StatusOK, models.Business{ID: "b1", Name: "Pekárna U Mostu"})
	case r.Method == http.MethodGet && r.URL.Path == "/crm/businesses/b1/activities":
		respondJSON(w, http.StatusOK, []models.Activity{})
	case r.Method == http.MethodGet && r.URL.Path == "/crm/businesses/b1/projects":
		respondJSON(w, http.StatusOK, b.projects)
	case r.Method == http.MethodPost && r.URL.Path == "/crm/businesses/b1/projects":
		b.mutations++
		var in models.ProjectInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		if in.PackageName == "" {
			respondJSON(w, http.StatusBadRequest, map[string]string{"detail": "Validation error"})
			return
		}
		p := models.Project{ID: "p2", BusinessID: "b1", PackageName: in.PackageName}
		b.projects = append(b.projects, p)
		respondJSON(w, http.StatusCreated, p)
	case r.Method == http.MethodGet && r.URL.Path == "/admin/feedback":
		respondJSON(w, http.StatusOK, b.feedback)
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/admin/feedback/"):
		b.mutations++
		var upd models.FeedbackUpdate
		_ = json.NewDecoder(r.Body).Decode(&upd)
		for i := range b.feedback {
			if "/admin/feedback/"+b.feedback[i].ID == r.URL.Path {
				b.feedback[i].Status = upd.Status
				b.feedback[i].AdminNote = upd.AdminNote
				respondJSON(w, http.StatusOK, b.feedback[i])
				return
			}
		}
		respondJSON(w, http.StatusNotFound, map[string]string{"detail": "Feedback not found"})
	case r.Method == http.MethodPost && r.URL.Path == "/public/preview/tok/comments":
		b.comments++
		respondJSON(w, http.StatusCreated, models.PreviewComment{ID: "c1", AuthorName: "Jana", Content: "Looks great"})
	default:
		http.NotFound(w, r)
	}
}

func newBackend(t *testing.T, b *backend) *apiclient.Client {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	client, err := apiclient.New(apiclient.Options{BaseURL: srv.URL}, credentials.FromContext{})
	require.NoError(t, err)
	return client
}

// asUser attaches what the auth middleware would put in the context.
func asUser(r *http.Request, role string) *http.Request {
	ctx := credentials.WithToken(r.Context(), role)
	ctx = session.WithIdentity(ctx, session.Identity{UserID: "u-" + role, Role: role, ExpiresAt: time.Now().Add(time.Hour)})
	return r.WithContext(ctx)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestLoginReturnsTokenAndProfile(t *testing.T) {
	h := &AuthHandler{Base: Base{Logger: testLogger{}}, API: newBackend(t, &backend{})}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"jana","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp loginResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "admin", resp.AccessToken)
	require.NotNil(t, resp.User)
	assert.Equal(t, "u-admin", resp.User.ID)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	h := &AuthHandler{Base: Base{Logger: testLogger{}}, API: newBackend(t, &backend{})}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader("username=jana&password=nope"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Incorrect username or password")
}

func TestLoginRequiresCredentials(t *testing.T) {
	h := &AuthHandler{Base: Base{Logger: testLogger{}}, API: newBackend(t, &backend{})}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"username":"  "}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func newInvoiceHandler(t *testing.T, b *backend) *InvoiceHandler {
	client := newBackend(t, b)
	return &InvoiceHandler{
		Base:      Base{Logger: testLogger{}},
		API:       client,
		Lifecycle: lifecycle.New(client, testLogger{}),
	}
}

func pendingInvoice() *backend {
	return &backend{invoice: models.Invoice{ID: "inv1", InvoiceNumber: "2024-0007", Status: fsm.StatusPendingApproval}}
}

func transition(h *InvoiceHandler, role, action, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/invoices/inv1/actions/"+action+"?:id=inv1&:action="+action, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Transition(rec, asUser(req, role))
	return rec
}

func TestInvoiceApproveAsAdmin(t *testing.T) {
	b := pendingInvoice()
	h := newInvoiceHandler(t, b)

	rec := transition(h, models.RoleAdmin, "approve", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp invoiceResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, fsm.StatusIssued, resp.Invoice.Status)
	assert.Equal(t, []fsm.Action{fsm.ActionMarkPaid, fsm.ActionCancel}, resp.Actions)
}

func TestInvoiceApproveForbiddenPassesThrough(t *testing.T) {
	b := pendingInvoice()
	h := newInvoiceHandler(t, b)

	rec := transition(h, models.RoleSales, "approve", "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Admin role required")
	assert.Equal(t, fsm.StatusPendingApproval, b.invoice.Status)
	assert.Equal(t, 1, b.mutations)
}

func TestInvoiceRejectRequiresReason(t *testing.T) {
	b := pendingInvoice()
	h := newInvoiceHandler(t, b)

	rec := transition(h, models.RoleAdmin, "reject", `{"reason":"   "}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Zero(t, b.mutations, "no request may reach the backend")

	rec = transition(h, models.RoleAdmin, "reject", `{"reason":"Wrong VAT rate"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, b.mutations)
}

func TestInvoiceUnknownAndInvalidActions(t *testing.T) {
	b := pendingInvoice()
	h := newInvoiceHandler(t, b)

	assert.Equal(t, http.StatusUnprocessableEntity, transition(h, models.RoleAdmin, "archive", "").Code)
	assert.Equal(t, http.StatusConflict, transition(h, models.RoleAdmin, "mark_paid", "").Code)
	assert.Zero(t, b.mutations)
}

func TestInvoiceListCarriesActionsForRole(t *testing.T) {
	h := newInvoiceHandler(t, pendingInvoice())

	list := func(role string) invoiceListResponse {
		rec := httptest.NewRecorder()
		h.List(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/invoices", nil), role))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp invoiceListResponse
		decodeBody(t, rec, &resp)
		require.Len(t, resp.Items, 1)
		return resp
	}

	assert.Equal(t, []fsm.Action{fsm.ActionApprove, fsm.ActionReject, fsm.ActionCancel}, list(models.RoleAdmin).Items[0].Actions)
	assert.Empty(t, list(models.RoleSales).Items[0].Actions)
}

func TestInvoiceListRejectsUnknownStatus(t *testing.T) {
	h := newInvoiceHandler(t, pendingInvoice())
	rec := httptest.NewRecorder()
	h.List(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/invoices?status=lost", nil), models.RoleAdmin))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeUploader struct {
	keys []string
}

func (u *fakeUploader) Upload(_ context.Context, key string, body io.ReadSeeker, _ string) (string, error) {
	u.keys = append(u.keys, key)
	return "https://cdn.example/" + key, nil
}

type fakeSubmitAPI struct {
	got []models.FeedbackCreate
}

func (a *fakeSubmitAPI) SubmitFeedback(_ context.Context, in models.FeedbackCreate) (*models.Feedback, error) {
	a.got = append(a.got, in)
	return &models.Feedback{ID: "f1", Content: in.Content, Category: in.Category, Priority: in.Priority, ScreenshotURL: in.ScreenshotURL}, nil
}

func TestFeedbackSubmitValidation(t *testing.T) {
	api := &fakeSubmitAPI{}
	h := &FeedbackHandler{Base: Base{Logger: testLogger{}}, Service: feedback.NewService(api, nil)}

	req := httptest.NewRequest(http.MethodPost, "/api/feedback", strings.NewReader(`{"content":"too short"}`))
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, api.got)
}

func TestFeedbackSubmitMultipartScreenshot(t *testing.T) {
	api := &fakeSubmitAPI{}
	up := &fakeUploader{}
	h := &FeedbackHandler{Base: Base{Logger: testLogger{}}, Service: feedback.NewService(api, up)}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("content", "The invoice list does not refresh"))
	require.NoError(t, mw.WriteField("category", "bug"))
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="screenshot"; filename="shot.png"`},
		"Content-Type":        {"image/png"},
	})
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\nfake"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/feedback", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.Submit(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, up.keys, 1)
	assert.True(t, strings.HasSuffix(up.keys[0], ".png"))
	require.Len(t, api.got, 1)
	require.NotNil(t, api.got[0].ScreenshotURL)
	assert.Equal(t, "medium", api.got[0].Priority)
}

func TestFeedbackAdminUpdateReturnsRefreshedInbox(t *testing.T) {
	b := &backend{feedback: []models.Feedback{{ID: "f1", Status: models.FeedbackStatusOpen}}}
	h := &FeedbackHandler{Base: Base{Logger: testLogger{}}, Admin: newBackend(t, b)}

	req := httptest.NewRequest(http.MethodPut, "/api/admin/feedback/f1?:id=f1", strings.NewReader(`{"status":"done","admin_note":"  fixed in 1.4 "}`))
	rec := httptest.NewRecorder()
	h.Update(rec, asUser(req, models.RoleAdmin))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var items []models.Feedback
	decodeBody(t, rec, &items)
	require.Len(t, items, 1)
	assert.Equal(t, models.FeedbackStatusDone, items[0].Status)
	require.NotNil(t, items[0].AdminNote)
	assert.Equal(t, "fixed in 1.4", *items[0].AdminNote)

	rec = httptest.NewRecorder()
	h.Update(rec, asUser(httptest.NewRequest(http.MethodPut, "/api/admin/feedback/f1?:id=f1", strings.NewReader(`{"status":"archived"}`)), models.RoleAdmin))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 1, b.mutations)
}

func TestPreviewHoneypotIsDiscarded(t *testing.T) {
	b := &backend{}
	h := &PreviewHandler{Base: Base{Logger: testLogger{}}, Service: preview.NewService(newBackend(t, b), testLogger{})}

	form := "author_name=Bot&content=Buy+now&website=http%3A%2F%2Fspam.example"
	req := httptest.NewRequest(http.MethodPost, "/preview/tok/comments?:token=tok", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.AddComment(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Zero(t, b.comments)

	req = httptest.NewRequest(http.MethodPost, "/preview/tok/comments?:token=tok", strings.NewReader(`{"author_name":"Jana","content":"Looks great"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.AddComment(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, b.comments)
}

type fakeWebsiteProjects struct {
	filter models.WebsiteProjectFilter
	err    error
}

func (f *fakeWebsiteProjects) ListWebsiteProjects(_ context.Context, filter models.WebsiteProjectFilter) ([]models.WebsiteProject, error) {
	f.filter = filter
	return nil, f.err
}

func (f *fakeWebsiteProjects) GetWebsiteProject(context.Context, string) (models.WebsiteProject, error) {
	return models.WebsiteProject{}, models.ErrNoRecord
}

func (f *fakeWebsiteProjects) GenerateWebsite(context.Context, models.WebsiteGenerateRequest) (*models.WebsiteGenerateResponse, error) {
	return &models.WebsiteGenerateResponse{ProjectID: "wp1"}, nil
}

func TestWebsiteProjectsScopedToSeller(t *testing.T) {
	svc := &fakeWebsiteProjects{}
	h := &WebsiteHandler{Base: Base{Logger: testLogger{}}, Service: svc}

	req := httptest.NewRequest(http.MethodGet, "/api/website/projects?seller_id=other", nil)
	ctx := session.WithIdentity(req.Context(), session.Identity{UserID: "u1", Role: models.RoleSales, SellerID: "s1"})
	rec := httptest.NewRecorder()
	h.List(rec, req.WithContext(ctx))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "s1", svc.filter.SellerID)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestWebsiteProjectErrors(t *testing.T) {
	svc := &fakeWebsiteProjects{err: services.ErrDirectReadsDisabled}
	h := &WebsiteHandler{Base: Base{Logger: testLogger{}}, Service: svc}

	rec := httptest.NewRecorder()
	h.List(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/website/projects", nil), models.RoleAdmin))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/website/projects/x?:id=x", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.Generate(rec, httptest.NewRequest(http.MethodPost, "/api/website/generate", strings.NewReader(`{"business_id":" "}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBusinessCreateProject(t *testing.T) {
	b := &backend{projects: []models.Project{{ID: "p1", BusinessID: "b1", PackageName: "start"}}}
	h := &BusinessHandler{Base: Base{Logger: testLogger{}}, API: newBackend(t, b)}

	create := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/businesses/b1/projects?:id=b1", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.CreateProject(rec, asUser(req, models.RoleSales))
		return rec
	}

	rec := create(`{"package":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Validation error")

	rec = create(`{"package":"premium"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp businessResponse
	decodeBody(t, rec, &resp)
	require.NotNil(t, resp.Business)
	assert.Equal(t, "b1", resp.Business.ID)
	require.Len(t, resp.Projects, 2)
	assert.Equal(t, "premium", resp.Projects[1].PackageName)
	assert.Equal(t, 2, b.mutations)
}
