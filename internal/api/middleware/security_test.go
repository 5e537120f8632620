package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestValidateRequestContentTypes(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := ValidateRequest(ok)

	tests := []struct {
		name        string
		contentType string
		want        int
	}{
		{"form", "application/x-www-form-urlencoded", http.StatusOK},
		{"multipart", "multipart/form-data; boundary=xyz", http.StatusOK},
		{"json", "application/json", http.StatusUnsupportedMediaType},
		{"missing", "", http.StatusUnsupportedMediaType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/create-agent", strings.NewReader("a=b"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestValidateRequestSuspiciousQuery(t *testing.T) {
	h := ValidateRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/agent/a1?ticket=%3Cscript%3E", nil)
	req.URL.RawQuery = "ticket=<script>"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSecurityHeadersCSP(t *testing.T) {
	h := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if got := rec.Header().Get("Content-Security-Policy"); got != "default-src 'none'" {
		t.Fatalf("health CSP = %q", got)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if got := rec.Header().Get("Content-Security-Policy"); !strings.Contains(got, "form-action 'self'") {
		t.Fatalf("page CSP = %q", got)
	}
}

func TestSameOriginPosts(t *testing.T) {
	h := SameOriginPosts(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		name   string
		method string
		origin string
		want   int
	}{
		{"same origin", http.MethodPost, "http://dashboard.test", http.StatusOK},
		{"no origin", http.MethodPost, "", http.StatusOK},
		{"cross origin", http.MethodPost, "https://evil.example.com", http.StatusForbidden},
		{"cross origin get", http.MethodGet, "https://evil.example.com", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "http://dashboard.test/sign-out", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestMaxBodySizeUploadAllowance(t *testing.T) {
	h := MaxBodySize(1<<20, map[string]int64{"/create-agent": 3 << 20})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		name string
		path string
		size int
		want int
	}{
		{"small form", "/sign-in", 100, http.StatusOK},
		{"large form", "/sign-in", 3 << 19, http.StatusRequestEntityTooLarge},
		{"upload within allowance", "/create-agent", 5 << 19, http.StatusOK},
		{"upload over allowance", "/create-agent", 4 << 20, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(strings.Repeat("x", tt.size)))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
