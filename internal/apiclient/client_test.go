package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webomat/internal/credentials"
	"webomat/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc, store credentials.Store) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c, err := New(Options{BaseURL: ts.URL}, store)
	require.NoError(t, err)
	return c, ts
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Options{}, nil)
	require.Error(t, err)

	_, err = New(Options{BaseURL: "not a url"}, nil)
	require.Error(t, err)
}

func TestLoginStoresTokenAndProfile(t *testing.T) {
	store := credentials.NewMemory()
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			require.Equal(t, http.MethodPost, r.Method)
			require.Contains(t, r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "seller@webomat.cz", r.PostForm.Get("username"))
			assert.Equal(t, "pw", r.PostForm.Get("password"))
			assert.Empty(t, r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-1", "token_type": "bearer"})
		case "/users/me":
			assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
			_ = json.NewEncoder(w).Encode(models.User{ID: "u1", Email: "seller@webomat.cz", Role: models.RoleSales})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}, store)

	user, err := c.Login(context.Background(), "seller@webomat.cz", "pw")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	token, _ := store.Token(context.Background())
	assert.Equal(t, "tok-1", token)
	stored, _ := store.User(context.Background())
	require.NotNil(t, stored)
	assert.Equal(t, models.RoleSales, stored.Role)

	require.NoError(t, c.Logout(context.Background()))
	token, _ = store.Token(context.Background())
	assert.Empty(t, token)
}

func TestLoginFailureLeavesStoreUntouched(t *testing.T) {
	store := credentials.NewMemory()
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Incorrect username or password"}`))
	}, store)

	_, err := c.Login(context.Background(), "x", "y")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Incorrect username or password", apiErr.Detail)

	token, _ := store.Token(context.Background())
	assert.Empty(t, token)
}

func TestCallsWithoutTokenOmitHeader(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, has := r.Header["Authorization"]
		assert.False(t, has)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Not authenticated"}`))
	}, nil)

	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
}

func TestSetStoreOverridesCredentials(t *testing.T) {
	var seen string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(models.User{ID: "u1"})
	}, credentials.Noop{})

	mobile := credentials.NewMemory()
	_ = mobile.SetToken(context.Background(), "secure-tok")
	c.SetStore(mobile)

	_, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer secure-tok", seen)
}

func TestContextStoreCarriesRequestToken(t *testing.T) {
	var seen string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(models.Invoice{ID: "i1", Status: "draft"})
	}, credentials.FromContext{})

	ctx := credentials.WithToken(context.Background(), "per-request")
	inv, err := c.Invoice(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, "draft", inv.Status)
	assert.Equal(t, "Bearer per-request", seen)
}

func TestValidationDetailList(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"loc":["body","package"],"msg":"field required"},{"msg":"bad price"}]}`))
	}, nil)

	_, err := c.CreateProject(context.Background(), "b1", models.ProjectInput{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "field required; bad price", apiErr.Detail)
	assert.Contains(t, apiErr.Error(), "422")
}

func TestErrorWithoutDetailKeepsBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}, nil)

	_, err := c.DashboardStats(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Empty(t, apiErr.Detail)
	assert.Equal(t, "upstream down", string(apiErr.Body))
}

func TestDecodeError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":`))
	}, nil)

	_, err := c.Invoice(context.Background(), "i1")
	var decErr *DecodeError
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, http.StatusOK, decErr.StatusCode)
}

func TestTransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	c, err := New(Options{BaseURL: url}, nil)
	require.NoError(t, err)
	_, err = c.Sellers(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.Equal(t, 0, StatusCode(err))
}

func TestInvoiceEndpoints(t *testing.T) {
	type hit struct {
		method, path, query string
		body               map[string]interface{}
	}
	var hits []hit
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		h := hit{method: r.Method, path: r.URL.Path, query: r.URL.RawQuery}
		if r.ContentLength > 0 {
			_ = json.NewDecoder(r.Body).Decode(&h.body)
		}
		hits = append(hits, h)
		if r.URL.Path == "/invoices" {
			_ = json.NewEncoder(w).Encode(models.InvoicePage{Items: []models.Invoice{{ID: "i1"}}, Total: 1})
			return
		}
		_ = json.NewEncoder(w).Encode(models.Invoice{ID: "i1"})
	}, nil)
	ctx := context.Background()

	page, err := c.Invoices(ctx, models.InvoiceFilter{Status: "pending_approval", Page: 2, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	_, err = c.SubmitInvoiceForApproval(ctx, "i1")
	require.NoError(t, err)
	_, err = c.ApproveInvoice(ctx, "i1")
	require.NoError(t, err)
	_, err = c.RejectInvoice(ctx, "i1", "wrong amount")
	require.NoError(t, err)
	paid := "2026-10-19"
	_, err = c.UpdateInvoiceStatus(ctx, "i1", models.InvoiceStatusUpdate{Status: "paid", PaidDate: &paid})
	require.NoError(t, err)

	require.Len(t, hits, 5)
	assert.Equal(t, "page=2&page_size=20&status=pending_approval", hits[0].query)
	assert.Equal(t, "/invoices/i1/submit-for-approval", hits[1].path)
	assert.Equal(t, "/invoices/i1/approve", hits[2].path)
	assert.Equal(t, "/invoices/i1/reject", hits[3].path)
	assert.Equal(t, "wrong amount", hits[3].body["reason"])
	assert.Equal(t, http.MethodPut, hits[4].method)
	assert.Equal(t, "/invoices/i1/status", hits[4].path)
	assert.Equal(t, "paid", hits[4].body["status"])
	assert.Equal(t, paid, hits[4].body["paid_date"])

	assert.Equal(t, c.BaseURL()+"/invoices/i1/pdf", c.InvoicePDFURL("i1"))
}

func TestPreviewHTMLReturnsRawBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/public/preview/tok%20x/html", r.URL.EscapedPath())
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<h1>Hi</h1>"))
	}, nil)

	html, err := c.PreviewHTML(context.Background(), "tok x")
	require.NoError(t, err)
	assert.Equal(t, "<h1>Hi</h1>", html)
}
