package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mkelleher/invoicehub/internal/application/service"
	"github.com/mkelleher/invoicehub/internal/auth"
	"github.com/mkelleher/invoicehub/internal/domain/entity"
)

type mockUserService struct {
	resolveFunc func(ctx context.Context, identity service.GoogleIdentity) (*entity.User, error)
}

func (m *mockUserService) ResolveGoogleUser(ctx context.Context, identity service.GoogleIdentity) (*entity.User, error) {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, identity)
	}
	return &entity.User{ID: 1, Email: identity.Email, FirstName: "Jane", LastName: "Doe"}, nil
}

type mockInvoiceService struct {
	approveFunc     func(ctx context.Context, userID int64, payload service.ApprovalPayload) (*entity.Invoice, error)
	approveByIDFunc func(ctx context.Context, userID, invoiceID int64, notes string) (*entity.Invoice, error)
	listFunc        func(ctx context.Context, userID int64, page, pageSize int) (*service.InvoicePage, error)
	getFunc         func(ctx context.Context, userID, invoiceID int64) (*entity.Invoice, error)
	exportFunc      func(ctx context.Context, userID int64) ([]byte, error)
}

func (m *mockInvoiceService) Approve(ctx context.Context, userID int64, payload service.ApprovalPayload) (*entity.Invoice, error) {
	if m.approveFunc != nil {
		return m.approveFunc(ctx, userID, payload)
	}
	return &entity.Invoice{ID: 1, InvoiceNumber: payload.InvoiceNumber, Status: entity.StatusApproved}, nil
}

func (m *mockInvoiceService) ApproveByID(ctx context.Context, userID, invoiceID int64, notes string) (*entity.Invoice, error) {
	if m.approveByIDFunc != nil {
		return m.approveByIDFunc(ctx, userID, invoiceID, notes)
	}
	return &entity.Invoice{ID: invoiceID, InvoiceNumber: "INV-1", Status: entity.StatusApproved}, nil
}

func (m *mockInvoiceService) List(ctx context.Context, userID int64, page, pageSize int) (*service.InvoicePage, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID, page, pageSize)
	}
	return &service.InvoicePage{Count: 0, Page: 1, PageSize: 10, Results: []*entity.Invoice{}}, nil
}

func (m *mockInvoiceService) Get(ctx context.Context, userID, invoiceID int64) (*entity.Invoice, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, userID, invoiceID)
	}
	return &entity.Invoice{ID: invoiceID}, nil
}

func (m *mockInvoiceService) ExportWorkbook(ctx context.Context, userID int64) ([]byte, error) {
	if m.exportFunc != nil {
		return m.exportFunc(ctx, userID)
	}
	return []byte("workbook"), nil
}

type mockUploadService struct {
	uploadFunc func(ctx context.Context, filename string, body io.Reader, size int64) (string, error)
}

func (m *mockUploadService) Upload(ctx context.Context, filename string, body io.Reader, size int64) (string, error) {
	if m.uploadFunc != nil {
		return m.uploadFunc(ctx, filename, body, size)
	}
	return "https://bucket.s3.us-east-1.amazonaws.com/invoices/doc.pdf", nil
}

type mockExtractionService struct {
	processFunc func(ctx context.Context, documentURL string) (*entity.ExtractedInvoice, error)
}

func (m *mockExtractionService) ProcessDocument(ctx context.Context, documentURL string) (*entity.ExtractedInvoice, error) {
	if m.processFunc != nil {
		return m.processFunc(ctx, documentURL)
	}
	return &entity.ExtractedInvoice{InvoiceNumber: "INV-1"}, nil
}

type noopLogger struct{}

func (noopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (noopLogger) Error(msg string, keysAndValues ...interface{}) {}

type testServer struct {
	server *Server
	tokens *auth.TokenManager
}

func newTestServer(invoiceService service.InvoiceService) *testServer {
	return newTestServerWith(&mockUserService{}, invoiceService, &mockUploadService{}, &mockExtractionService{})
}

func newTestServerWith(
	userService service.UserService,
	invoiceService service.InvoiceService,
	uploadService service.UploadService,
	extractionService service.ExtractionService,
) *testServer {
	tokens := auth.NewTokenManager("test-secret", "invoicehub", time.Hour, 7*24*time.Hour)
	config := DefaultServerConfig()
	server := NewServer(config, userService, invoiceService, uploadService, extractionService, tokens, noopLogger{})
	return &testServer{server: server, tokens: tokens}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(w, req)
	return w
}

func (ts *testServer) accessToken(t *testing.T, userID int64) string {
	t.Helper()
	pair, err := ts.tokens.IssuePair(userID)
	if err != nil {
		t.Fatalf("IssuePair() error = %v", err)
	}
	return pair.AccessToken
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(&mockInvoiceService{})

	w := ts.do(t, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestGoogleAuth(t *testing.T) {
	ts := newTestServer(&mockInvoiceService{})

	body := strings.NewReader(`{"google_id":"g-1","email":"jane@example.com","name":"Jane Doe","token":"ya29.google"}`)
	w := ts.do(t, http.MethodPost, "/auth/google/", "", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}

	var resp GoogleAuthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("login must return both tokens")
	}
	if resp.User.Email != "jane@example.com" {
		t.Errorf("user.email = %q, want jane@example.com", resp.User.Email)
	}

	// The minted access token must pass the auth middleware.
	if _, err := ts.tokens.VerifyAccess(resp.AccessToken); err != nil {
		t.Errorf("issued access token does not verify: %v", err)
	}
}

func TestGoogleAuth_InvalidIdentity(t *testing.T) {
	ts := newTestServerWith(&mockUserService{
		resolveFunc: func(ctx context.Context, identity service.GoogleIdentity) (*entity.User, error) {
			return nil, entity.ErrInvalidInput
		},
	}, &mockInvoiceService{}, &mockUploadService{}, &mockExtractionService{})

	w := ts.do(t, http.MethodPost, "/auth/google/", "", strings.NewReader(`{"email":"jane@example.com","token":"ya29.google"}`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestGoogleAuth_MissingToken(t *testing.T) {
	ts := newTestServerWith(&mockUserService{
		resolveFunc: func(ctx context.Context, identity service.GoogleIdentity) (*entity.User, error) {
			t.Error("user service must not be called without a Google token")
			return nil, entity.ErrInvalidInput
		},
	}, &mockInvoiceService{}, &mockUploadService{}, &mockExtractionService{})

	for _, body := range []string{
		`{"google_id":"g-1","email":"jane@example.com","name":"Jane Doe"}`,
		`{"google_id":"g-1","email":"jane@example.com","name":"Jane Doe","token":"   "}`,
	} {
		w := ts.do(t, http.MethodPost, "/auth/google/", "", strings.NewReader(body))
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestGoogleAuth_RateLimited(t *testing.T) {
	ts := newTestServer(&mockInvoiceService{})

	body := `{"google_id":"g-1","email":"jane@example.com","name":"Jane Doe","token":"ya29.google"}`
	var last int
	for i := 0; i < 6; i++ {
		w := ts.do(t, http.MethodPost, "/auth/google/", "", strings.NewReader(body))
		last = w.Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("sixth request status = %d, want 429", last)
	}
}

func TestRefreshToken(t *testing.T) {
	ts := newTestServer(&mockInvoiceService{})

	pair, err := ts.tokens.IssuePair(1)
	if err != nil {
		t.Fatal(err)
	}

	w := ts.do(t, http.MethodPost, "/auth/token/refresh/", "", strings.NewReader(`{"refresh":"`+pair.RefreshToken+`"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Access string `json:"access"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if _, err := ts.tokens.VerifyAccess(resp.Access); err != nil {
		t.Errorf("refreshed access token does not verify: %v", err)
	}
}

func TestRefreshToken_RejectsAccessToken(t *testing.T) {
	ts := newTestServer(&mockInvoiceService{})
	token := ts.accessToken(t, 1)

	w := ts.do(t, http.MethodPost, "/auth/token/refresh/", "", strings.NewReader(`{"refresh":"`+token+`"}`))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	ts := newTestServer(&mockInvoiceService{})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "no header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer " + ts.accessToken(t, 1), want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/invoices/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			ts.server.Router().ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestListInvoices(t *testing.T) {
	var gotUserID int64
	invoiceService := &mockInvoiceService{
		listFunc: func(ctx context.Context, userID int64, page, pageSize int) (*service.InvoicePage, error) {
			gotUserID = userID
			return &service.InvoicePage{
				Count:    25,
				Page:     2,
				PageSize: 10,
				Results:  []*entity.Invoice{{ID: 11}, {ID: 12}},
			}, nil
		},
	}
	ts := newTestServer(invoiceService)

	w := ts.do(t, http.MethodGet, "/invoices/?page=2&page_size=10", ts.accessToken(t, 7), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if gotUserID != 7 {
		t.Errorf("user id = %d, want the token subject", gotUserID)
	}

	var resp InvoiceListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 25 || len(resp.Results) != 2 {
		t.Errorf("count/results = %d/%d, want 25/2", resp.Count, len(resp.Results))
	}
	if resp.Next == nil || !strings.Contains(*resp.Next, "page=3") {
		t.Errorf("next = %v, want link to page 3", resp.Next)
	}
	if resp.Previous == nil || !strings.Contains(*resp.Previous, "page=1") {
		t.Errorf("previous = %v, want link to page 1", resp.Previous)
	}
}

func TestListInvoices_BoundaryLinks(t *testing.T) {
	invoiceService := &mockInvoiceService{
		listFunc: func(ctx context.Context, userID int64, page, pageSize int) (*service.InvoicePage, error) {
			return &service.InvoicePage{Count: 5, Page: 1, PageSize: 10, Results: []*entity.Invoice{}}, nil
		},
	}
	ts := newTestServer(invoiceService)

	w := ts.do(t, http.MethodGet, "/invoices/", ts.accessToken(t, 1), nil)

	var resp InvoiceListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Next != nil || resp.Previous != nil {
		t.Errorf("single page must have nil links, got next=%v previous=%v", resp.Next, resp.Previous)
	}
}

func TestGetInvoice_NotFound(t *testing.T) {
	invoiceService := &mockInvoiceService{
		getFunc: func(ctx context.Context, userID, invoiceID int64) (*entity.Invoice, error) {
			return nil, entity.ErrNotFound
		},
	}
	ts := newTestServer(invoiceService)

	w := ts.do(t, http.MethodGet, "/invoices/99/", ts.accessToken(t, 1), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestApproveInvoice(t *testing.T) {
	ts := newTestServer(&mockInvoiceService{})

	body := strings.NewReader(`{"invoice_number":"INV-2024-001","total":150.5}`)
	w := ts.do(t, http.MethodPost, "/approve-invoice/", ts.accessToken(t, 1), body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}

	var resp ApproveResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Message != "Invoice approved successfully" {
		t.Errorf("message = %q", resp.Message)
	}
	if resp.InvoiceNumber != "INV-2024-001" {
		t.Errorf("invoice_number = %q, want INV-2024-001", resp.InvoiceNumber)
	}
}

func TestApproveInvoice_MissingNumber(t *testing.T) {
	invoiceService := &mockInvoiceService{
		approveFunc: func(ctx context.Context, userID int64, payload service.ApprovalPayload) (*entity.Invoice, error) {
			return nil, entity.ErrInvalidInput
		},
	}
	ts := newTestServer(invoiceService)

	w := ts.do(t, http.MethodPost, "/approve-invoice/", ts.accessToken(t, 1), strings.NewReader(`{}`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestApproveInvoice_NonNumericAmount(t *testing.T) {
	ts := newTestServer(&mockInvoiceService{})

	body := strings.NewReader(`{"invoice_number":"INV-2024-001","amount":"abc"}`)
	w := ts.do(t, http.MethodPost, "/approve-invoice/", ts.accessToken(t, 1), body)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestApproveInvoiceByID_AlreadyApproved(t *testing.T) {
	invoiceService := &mockInvoiceService{
		approveByIDFunc: func(ctx context.Context, userID, invoiceID int64, notes string) (*entity.Invoice, error) {
			return nil, entity.ErrAlreadyApproved
		},
	}
	ts := newTestServer(invoiceService)

	w := ts.do(t, http.MethodPost, "/invoices/approve/7/", ts.accessToken(t, 1), nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestUploadInvoice(t *testing.T) {
	var gotFilename string
	uploadService := &mockUploadService{
		uploadFunc: func(ctx context.Context, filename string, body io.Reader, size int64) (string, error) {
			gotFilename = filename
			return "https://bucket.s3.us-east-1.amazonaws.com/invoices/doc.pdf", nil
		},
	}
	ts := newTestServerWith(&mockUserService{}, &mockInvoiceService{}, uploadService, &mockExtractionService{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "invoice.pdf")
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("%PDF-1.4"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/upload-invoice/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+ts.accessToken(t, 1))
	w := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}
	if gotFilename != "invoice.pdf" {
		t.Errorf("filename = %q, want invoice.pdf", gotFilename)
	}

	var resp UploadResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.URL == "" {
		t.Error("upload must return the document URL")
	}
}

func TestUploadInvoice_MissingFile(t *testing.T) {
	ts := newTestServer(&mockInvoiceService{})

	w := ts.do(t, http.MethodPost, "/upload-invoice/", ts.accessToken(t, 1), nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestProcessInvoice(t *testing.T) {
	ts := newTestServer(&mockInvoiceService{})

	w := ts.do(t, http.MethodPost, "/process-invoice/", ts.accessToken(t, 1),
		strings.NewReader(`{"pdf_url":"https://bucket.s3.us-east-1.amazonaws.com/invoices/doc.pdf"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp entity.ExtractedInvoice
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.InvoiceNumber != "INV-1" {
		t.Errorf("invoice_number = %q, want INV-1", resp.InvoiceNumber)
	}
}

func TestProcessInvoice_MissingURL(t *testing.T) {
	ts := newTestServer(&mockInvoiceService{})

	w := ts.do(t, http.MethodPost, "/process-invoice/", ts.accessToken(t, 1), strings.NewReader(`{}`))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestExportInvoices(t *testing.T) {
	ts := newTestServer(&mockInvoiceService{})

	w := ts.do(t, http.MethodGet, "/invoices/export/", ts.accessToken(t, 1), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("Content-Disposition = %q, want attachment", cd)
	}
	if w.Body.String() != "workbook" {
		t.Error("response body must carry the workbook bytes")
	}
}
