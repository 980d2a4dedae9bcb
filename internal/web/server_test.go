package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/JonMunkholm/inventory/internal/config"
	"github.com/JonMunkholm/inventory/internal/core"
	_ "github.com/JonMunkholm/inventory/internal/core/tables"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8000, RequestTimeout: 5 * time.Second},
		Import: config.ImportConfig{MaxFileSize: 1 << 20, MaxConcurrent: 1},
		Rate:   config.RateLimitConfig{Enabled: false},
		Security: config.SecurityConfig{
			EnableCSP:      true,
			AllowedOrigins: []string{"http://localhost:5173"},
		},
	}
}

// newTestServer builds a server without a database. Only routes that fail or
// answer before reaching PostgreSQL can be exercised.
func newTestServer(t *testing.T, mutate ...func(*config.Config)) *Server {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}
	s := NewServer(core.NewService(nil, core.Options{}), cfg)
	t.Cleanup(s.Close)
	return s
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return resp
}

func multipartUpload(t *testing.T, path, field, fileName, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if fileName != "" {
		fw, err := mw.CreateFormFile(field, fileName)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(content))
	} else {
		mw.WriteField("note", content)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// =============================================================================
// Validation endpoints
// =============================================================================

func TestValidateFieldEndpoint(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name      string
		body      string
		wantValid bool
		wantValue string
	}{
		{"valid ip", `{"field":"ip_address","value":" 10.0.0.1 "}`, true, "10.0.0.1"},
		{"invalid mac", `{"field":"mac_address","value":"nope"}`, false, ""},
		{"free text", `{"field":"notes","value":"hello"}`, true, "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, jsonRequest(http.MethodPost, "/api/v1/computers/validate/field", tt.body))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
			}
			var got core.FieldCheck
			if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
				t.Fatal(err)
			}
			if got.Valid != tt.wantValid {
				t.Errorf("valid = %v, want %v", got.Valid, tt.wantValid)
			}
			if tt.wantValid && (got.NormalizedValue == nil || *got.NormalizedValue != tt.wantValue) {
				t.Errorf("normalized_value = %v, want %q", got.NormalizedValue, tt.wantValue)
			}
		})
	}
}

func TestValidateFieldEndpoint_BadRequests(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{`not json`, `{"value":"x"}`} {
		rec := do(s, jsonRequest(http.MethodPost, "/api/v1/computers/validate/field", body))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("body %q: content type = %q", body, ct)
		}
	}
}

func TestValidateRowEndpoint_RequiresData(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, jsonRequest(http.MethodPost, "/api/v1/computers/validate/row", `{"row_number":2}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if resp := decodeError(t, rec); !strings.Contains(resp.Detail, "data is required") {
		t.Errorf("detail = %q", resp.Detail)
	}
}

// =============================================================================
// Resource metadata
// =============================================================================

func TestViewsEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/v1/software/views", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var got core.Views
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Resource != "software" {
		t.Errorf("resource = %q", got.Resource)
	}
	if diff := cmp.Diff([]string{"software_id", "category", "name", "status"}, got.Always); diff != "" {
		t.Errorf("always (-want +got):\n%s", diff)
	}
}

func TestTemplateEndpoint(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"computers", "software", "subscriptions"} {
		t.Run(path, func(t *testing.T) {
			rec := do(s, httptest.NewRequest(http.MethodGet, "/api/v1/"+path+"/template", nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
				t.Errorf("content type = %q", ct)
			}
			cd := rec.Header().Get("Content-Disposition")
			if !strings.Contains(cd, "_template.csv") {
				t.Errorf("content disposition = %q", cd)
			}
			if lines := strings.Count(rec.Body.String(), "\n"); lines != 1 {
				t.Errorf("template has %d lines, want header only", lines)
			}
		})
	}
}

func TestExportEndpoint_BadFlag(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/v1/software/export?include_deleted=maybe", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if rec.Header().Get("Content-Disposition") != "" {
		t.Error("failed export should not be an attachment")
	}
}

func TestCategoryEndpoints_BadID(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/v1/categories/abc", "/api/v1/categories/0/usage", "/api/v1/subcategories/-1/usage"} {
		rec := do(s, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", path, rec.Code)
		}
	}
}

// =============================================================================
// Uploads
// =============================================================================

func TestUpload_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		fileName string
		content  string
		maxSize  int64
		want     int
		wantCode string
	}{
		{"not csv", "/api/v1/computers/import/preview", "inventory.xlsx", "a,b\n", 1 << 20, http.StatusBadRequest, "FILE002"},
		{"no file", "/api/v1/software/import", "", "x", 1 << 20, http.StatusBadRequest, "FILE004"},
		{"too large", "/api/v1/subscriptions/import", "big.csv", strings.Repeat("x", 4096), 512, http.StatusRequestEntityTooLarge, "FILE001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, func(c *config.Config) { c.Import.MaxFileSize = tt.maxSize })
			rec := do(s, multipartUpload(t, tt.path, "file", tt.fileName, tt.content))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
			if resp := decodeError(t, rec); resp.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tt.wantCode)
			}
		})
	}
}

func TestConfirmImport_BadBody(t *testing.T) {
	s := newTestServer(t)
	rec := do(s, jsonRequest(http.MethodPost, "/api/v1/computers/import/confirm", `{"rows":"nope"}`))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// =============================================================================
// Errors
// =============================================================================

func TestStatusFor(t *testing.T) {
	var verrs core.ValidationErrors
	verrs.Add("ip_address", "1.2", "bad")

	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("equipment PC-1 %w", core.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("serial in use: %w", core.ErrConflict), http.StatusConflict},
		{fmt.Errorf("category 3 %w", core.ErrInUse), http.StatusConflict},
		{core.ErrNotDeleted, http.StatusBadRequest},
		{fmt.Errorf("create: %w", verrs), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: bad flag", core.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("import: %w", core.ErrTooManyImports), http.StatusTooManyRequests},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRespondError_JSON(t *testing.T) {
	var verrs core.ValidationErrors
	verrs.Add("cost", "-1", "must be zero or greater")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/software", nil)
	respondError(rec, req, verrs, http.StatusUnprocessableEntity)

	resp := decodeError(t, rec)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", rec.Code)
	}
	if diff := cmp.Diff([]core.ValidationError(verrs), resp.Fields); diff != "" {
		t.Errorf("fields (-want +got):\n%s", diff)
	}
	if resp.Detail == "" || resp.Code == "" {
		t.Errorf("response = %+v", resp)
	}
}

func TestRespondError_HidesServerDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/stats", nil)
	respondError(rec, req, errors.New("pq: password authentication failed for user app"), http.StatusInternalServerError)

	resp := decodeError(t, rec)
	if resp.Detail != "" {
		t.Errorf("detail leaked: %q", resp.Detail)
	}
	if resp.Code != "ERR000" {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestRespondError_HTML(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "text/html")
	respondError(rec, req, fmt.Errorf("equipment %w", core.ErrNotFound), http.StatusNotFound)

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content type = %q", ct)
	}
	body := rec.Body.String()
	for _, want := range []string{"404 Not Found", "Record not found", "INV001"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestWantsJSON(t *testing.T) {
	tests := []struct {
		path   string
		accept string
		want   bool
	}{
		{"/api/v1/computers", "", true},
		{"/api/v1/computers", "text/html,application/xhtml+xml", false},
		{"/", "application/json", true},
		{"/", "", false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		if tt.accept != "" {
			req.Header.Set("Accept", tt.accept)
		}
		if got := wantsJSON(req); got != tt.want {
			t.Errorf("wantsJSON(%s, %q) = %v, want %v", tt.path, tt.accept, got, tt.want)
		}
	}
}

// =============================================================================
// Middleware chain
// =============================================================================

func TestSecurityAndCORSHeaders(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/software/views", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := do(s, req)

	for header, want := range map[string]string{
		"X-Content-Type-Options":      "nosniff",
		"X-Frame-Options":             "DENY",
		"Access-Control-Allow-Origin": "http://localhost:5173",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("CSP header missing")
	}
}

func TestAPIKeyRequired(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Security.RequireAPIKey = true
		c.Security.APIKeys = []string{"k-one", "k-two"}
	})

	tests := []struct {
		key  string
		want int
	}{
		{"", http.StatusUnauthorized},
		{"wrong", http.StatusForbidden},
		{"k-two", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/computers/views", nil)
		if tt.key != "" {
			req.Header.Set("X-API-Key", tt.key)
		}
		if rec := do(s, req); rec.Code != tt.want {
			t.Errorf("key %q: status = %d, want %d", tt.key, rec.Code, tt.want)
		}
	}
}

func TestRateLimitedServer(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, ImportLimit: 1}
	})

	if rec := do(s, httptest.NewRequest(http.MethodGet, "/api/v1/software/views", nil)); rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}
	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/v1/software/views", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
	if resp := decodeError(t, rec); resp.Code != "RATE001" {
		t.Errorf("code = %q", resp.Code)
	}
}

func TestClientContext(t *testing.T) {
	var got core.Client
	h := clientContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = core.ClientFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:51234"
	req.Header.Set("User-Agent", "inventory-test")
	h.ServeHTTP(httptest.NewRecorder(), req)

	want := core.Client{IPAddress: "203.0.113.9", UserAgent: "inventory-test"}
	if got != want {
		t.Errorf("client = %+v, want %+v", got, want)
	}
}

// =============================================================================
// Rate limiter
// =============================================================================

func TestRateLimiter_Allow(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i, want := range []bool{true, true, false} {
		if got := rl.allow("10.0.0.1"); got != want {
			t.Errorf("request %d: allow = %v, want %v", i+1, got, want)
		}
	}
	if !rl.allow("10.0.0.2") {
		t.Error("other IP should have its own bucket")
	}

	now = now.Add(61 * time.Second)
	if !rl.allow("10.0.0.1") {
		t.Error("bucket should refill after the window")
	}
}

func TestRateLimiter_Sweep(t *testing.T) {
	rl := newRateLimiter(5, time.Minute)
	defer rl.stop()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.allow("10.0.0.1")

	now = now.Add(3 * time.Minute)
	rl.allow("10.0.0.2")
	rl.sweep()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.visitors["10.0.0.1"]; ok {
		t.Error("stale visitor not removed")
	}
	if _, ok := rl.visitors["10.0.0.2"]; !ok {
		t.Error("fresh visitor removed")
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := newRateLimiter(1, time.Minute)
	rl.stop()
	rl.stop()
}

// =============================================================================
// Request helpers
// =============================================================================

func TestDecodePayload(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"cost": 12.50, "name": "Figma", "notes": null}`))
	payload, err := decodePayload(req)
	if err != nil {
		t.Fatal(err)
	}
	if payload["cost"] != json.Number("12.50") {
		t.Errorf("cost = %#v, want json.Number", payload["cost"])
	}
	if v, ok := payload["notes"]; !ok || v != nil {
		t.Errorf("explicit null lost: %#v", payload)
	}

	for _, body := range []string{`[1,2]`, `null`, `{`} {
		_, err := decodePayload(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body)))
		if !errors.Is(err, core.ErrInvalidInput) {
			t.Errorf("decodePayload(%s) = %v, want ErrInvalidInput", body, err)
		}
	}
}

func TestBoolParam(t *testing.T) {
	tests := []struct {
		query   string
		want    bool
		wantErr bool
	}{
		{"", false, false},
		{"?include_deleted=true", true, false},
		{"?include_deleted=0", false, false},
		{"?include_deleted=yes", false, true},
	}
	for _, tt := range tests {
		got, err := boolParam(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil), "include_deleted")
		if got != tt.want || (err != nil) != tt.wantErr {
			t.Errorf("boolParam(%q) = %v, %v", tt.query, got, err)
		}
	}
}
