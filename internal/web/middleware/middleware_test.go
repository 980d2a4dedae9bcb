package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/JonMunkholm/inventory/internal/config"
	"github.com/JonMunkholm/inventory/internal/core"
)

// =============================================================================
// TrustedRealIP
// =============================================================================

func TestTrustedRealIP(t *testing.T) {
	trusted := []string{"10.0.0.0/8", "192.168.1.5", "not-an-ip", " "}

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"untrusted keeps remote", "203.0.113.7:4000", map[string]string{"X-Real-IP": "1.2.3.4"}, "203.0.113.7:4000"},
		{"trusted uses real ip", "10.1.2.3:4000", map[string]string{"X-Real-IP": "198.51.100.1"}, "198.51.100.1"},
		{"single address entry", "192.168.1.5:80", map[string]string{"X-Real-IP": "198.51.100.2"}, "198.51.100.2"},
		{"forwarded for first hop", "10.1.2.3:4000", map[string]string{"X-Forwarded-For": "198.51.100.3, 10.9.9.9"}, "198.51.100.3"},
		{"real ip wins over forwarded", "10.1.2.3:4000", map[string]string{"X-Real-IP": "198.51.100.4", "X-Forwarded-For": "198.51.100.5"}, "198.51.100.4"},
		{"garbage header ignored", "10.1.2.3:4000", map[string]string{"X-Real-IP": "<script>"}, "10.1.2.3:4000"},
		{"no headers", "10.1.2.3:4000", nil, "10.1.2.3:4000"},
		{"mapped ipv4 remote", "[::ffff:10.0.0.1]:4000", map[string]string{"X-Real-IP": "198.51.100.6"}, "198.51.100.6"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParsePrefixes(t *testing.T) {
	got := parsePrefixes([]string{"10.0.0.0/8", "::1", "bad", "172.16.5.4/12"})
	want := []string{"10.0.0.0/8", "::1/128", "172.16.0.0/12"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i].String() != want[i] {
			t.Errorf("prefix %d = %s, want %s", i, got[i], want[i])
		}
	}
}

// =============================================================================
// APIKeyAuth
// =============================================================================

func TestAPIKeyAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name     string
		cfg      config.SecurityConfig
		key      string
		want     int
		wantCode string
	}{
		{"disabled", config.SecurityConfig{}, "", http.StatusOK, ""},
		{"missing", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"a"}}, "", http.StatusUnauthorized, "AUTH_MISSING_KEY"},
		{"invalid", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"a"}}, "b", http.StatusForbidden, "AUTH_INVALID_KEY"},
		{"valid second key", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"a", "b"}}, "b", http.StatusOK, ""},
		{"no keys configured", config.SecurityConfig{RequireAPIKey: true}, "a", http.StatusForbidden, "AUTH_INVALID_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/computers", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := httptest.NewRecorder()
			APIKeyAuth(&tt.cfg)(ok).ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.wantCode != "" && !strings.Contains(rec.Body.String(), tt.wantCode) {
				t.Errorf("body = %s, want code %s", rec.Body, tt.wantCode)
			}
		})
	}
}

func TestAPIKeyAuth_TagsClient(t *testing.T) {
	cfg := config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"inventory-sync", "helpdesk"}}

	var got core.Client
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = core.ClientFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodPut, "/api/v1/computers/PC-0001", nil)
	req.Header.Set("X-API-Key", "helpdesk")
	req = req.WithContext(core.WithClient(req.Context(), core.Client{IPAddress: "10.0.0.5", UserAgent: "sync/1.0"}))
	APIKeyAuth(&cfg)(next).ServeHTTP(httptest.NewRecorder(), req)

	want := core.Client{IPAddress: "10.0.0.5", UserAgent: "sync/1.0", APIKey: KeyFingerprint("helpdesk")}
	if got != want {
		t.Errorf("client = %+v, want %+v", got, want)
	}
	if got.APIKey == KeyFingerprint("inventory-sync") {
		t.Error("fingerprint names the wrong key")
	}
}

func TestAPIKeyAuth_DisabledLeavesClient(t *testing.T) {
	var got core.Client
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = core.ClientFromContext(r.Context())
	})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/software", nil)
	req.Header.Set("X-API-Key", "anything")
	APIKeyAuth(&config.SecurityConfig{})(next).ServeHTTP(httptest.NewRecorder(), req)
	if got.APIKey != "" {
		t.Errorf("APIKey = %q without auth enabled", got.APIKey)
	}
}

func TestAPIKeyAuth_RejectedKeyNotLogged(t *testing.T) {
	buf := captureLogs(t)
	cfg := config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"a"}}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/computers", nil)
	req.Header.Set("X-API-Key", "leaked-secret")
	APIKeyAuth(&cfg)(http.NotFoundHandler()).ServeHTTP(httptest.NewRecorder(), req)

	logs := buf.String()
	if strings.Contains(logs, "leaked-secret") {
		t.Errorf("log contains the raw key: %s", logs)
	}
	if !strings.Contains(logs, KeyFingerprint("leaked-secret")) {
		t.Errorf("log lacks the key fingerprint: %s", logs)
	}
}

func TestKeyFingerprint(t *testing.T) {
	a := KeyFingerprint("helpdesk")
	if len(a) != 8 {
		t.Errorf("len = %d, want 8", len(a))
	}
	if a != KeyFingerprint("helpdesk") {
		t.Error("fingerprint not stable")
	}
	if a == KeyFingerprint("helpdesk2") {
		t.Error("distinct keys share a fingerprint")
	}
}

func TestIsValidAPIKey(t *testing.T) {
	if isValidAPIKey("", nil) {
		t.Error("empty key with no keys should be invalid")
	}
	if isValidAPIKey("abc", []string{"abcd"}) {
		t.Error("prefix should not match")
	}
	if !isValidAPIKey("abcd", []string{"x", "abcd"}) {
		t.Error("exact key should match")
	}
}

// =============================================================================
// Logger
// =============================================================================

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLogger(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantLevel string
	}{
		{"ok", http.StatusOK, "hello", "level=INFO"},
		{"client error", http.StatusNotFound, "", "level=WARN"},
		{"server error", http.StatusInternalServerError, "boom", "level=ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)
			h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/software", nil))

			line := buf.String()
			for _, want := range []string{tt.wantLevel, "method=POST", "path=/api/v1/software"} {
				if !strings.Contains(line, want) {
					t.Errorf("log line %q missing %q", line, want)
				}
			}
			if !strings.Contains(line, "bytes="+strconv.Itoa(len(tt.body))) {
				t.Errorf("log line %q has wrong byte count", line)
			}
		})
	}
}

func TestResponseWriter_DefaultsToOK(t *testing.T) {
	rec := httptest.NewRecorder()
	ww := &responseWriter{ResponseWriter: rec, status: http.StatusOK}
	ww.Write([]byte("abc"))
	ww.WriteHeader(http.StatusTeapot)

	if ww.status != http.StatusOK || rec.Code != http.StatusOK {
		t.Errorf("status = %d/%d, want 200 after an implicit header", ww.status, rec.Code)
	}
	if ww.bytes != 3 {
		t.Errorf("bytes = %d", ww.bytes)
	}
	if ww.Unwrap() != rec {
		t.Error("Unwrap should return the wrapped writer")
	}
}
