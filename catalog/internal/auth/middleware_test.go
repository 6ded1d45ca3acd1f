package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// passHandler answers 200 "ok".
var passHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
})

func callWithKey(t *testing.T, mw func(http.Handler) http.Handler, header, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cars.json", nil)
	if key != "" {
		req.Header.Set(header, key)
	}
	rr := httptest.NewRecorder()
	mw(passHandler).ServeHTTP(rr, req)
	return rr
}

func TestAPIKey_ModeNone_PassesThrough(t *testing.T) {
	rr := callWithKey(t, APIKey("none", "X-Api-Key", "secret"), "X-Api-Key", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
}

func TestAPIKey_EmptyKey_PassesThrough(t *testing.T) {
	rr := callWithKey(t, APIKey("apikey", "X-Api-Key", ""), "X-Api-Key", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
}

func TestAPIKey_CorrectKey_Passes(t *testing.T) {
	rr := callWithKey(t, APIKey("apikey", "X-Api-Key", "supersecret"), "X-Api-Key", "supersecret")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Errorf("body: got %q, want ok", rr.Body.String())
	}
}

func TestAPIKey_HeaderIsCaseInsensitive(t *testing.T) {
	rr := callWithKey(t, APIKey("apikey", "x-api-key", "supersecret"), "X-API-KEY", "supersecret")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
}

func TestAPIKey_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
		key    string
	}{
		{"missing key", "X-Api-Key", ""},
		{"wrong key", "X-Api-Key", "wrong"},
		{"wrong header", "X-Other", "supersecret"},
	}
	mw := APIKey("apikey", "X-Api-Key", "supersecret")
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := callWithKey(t, mw, tc.header, tc.key)
			if rr.Code != http.StatusUnauthorized {
				t.Errorf("status: got %d, want 401", rr.Code)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type: got %q", ct)
			}
		})
	}
}
