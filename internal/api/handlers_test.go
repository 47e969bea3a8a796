package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"license-backoffice/internal/events"
)

// newTestServer builds a server without database, auth or scheduler.
// Only routes that never touch the repository are exercised here.
func newTestServer() *Server {
	return NewServer(ServerConfig{
		Port: 8090,
		Host: "127.0.0.1",
	}, nil, events.NewEventBus(), nil, nil, nil)
}

func TestAuthStatusReportsDisabledAuth(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/auth/status", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if response["auth_enabled"] != false {
		t.Errorf("Expected auth_enabled false, got %v", response["auth_enabled"])
	}
}

func TestListLicenseTypes(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/licenses/types", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		Success bool `json:"success"`
		Data    []struct {
			Type         string `json:"type"`
			Legacy       bool   `json:"legacy"`
			Subscription bool   `json:"subscription"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if len(response.Data) != 6 {
		t.Fatalf("Expected 6 license types, got %d", len(response.Data))
	}

	flags := make(map[string]struct{ legacy, subscription bool })
	for _, entry := range response.Data {
		flags[entry.Type] = struct{ legacy, subscription bool }{entry.Legacy, entry.Subscription}
	}

	if f := flags["permanente"]; f.legacy || f.subscription {
		t.Errorf("permanente flagged wrong: %+v", f)
	}
	if f := flags["abbonamento_mensile"]; f.legacy || !f.subscription {
		t.Errorf("abbonamento_mensile flagged wrong: %+v", f)
	}
	if f := flags["mensile"]; !f.legacy || !f.subscription {
		t.Errorf("mensile flagged wrong: %+v", f)
	}
}

func TestPreviewExpiry(t *testing.T) {
	server := newTestServer()

	get := func(t *testing.T, url string) (int, map[string]interface{}) {
		t.Helper()
		req := httptest.NewRequest(http.MethodGet, url, nil)
		w := httptest.NewRecorder()
		server.router.ServeHTTP(w, req)

		var response struct {
			Data map[string]interface{} `json:"data"`
		}
		json.Unmarshal(w.Body.Bytes(), &response)
		return w.Code, response.Data
	}

	t.Run("monthly clamps to month end", func(t *testing.T) {
		code, data := get(t, "/api/renewals/preview?license_type=abbonamento_mensile&anchor=2025-01-31")
		if code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", code)
		}
		if data["expiry_date"] != "2025-02-27" {
			t.Errorf("Expected expiry 2025-02-27, got %v", data["expiry_date"])
		}
	})

	t.Run("yearly from leap day", func(t *testing.T) {
		code, data := get(t, "/api/renewals/preview?license_type=abbonamento_annuale&anchor=2024-02-29")
		if code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", code)
		}
		if data["expiry_date"] != "2025-02-27" {
			t.Errorf("Expected expiry 2025-02-27, got %v", data["expiry_date"])
		}
	})

	t.Run("permanent has no expiry", func(t *testing.T) {
		code, data := get(t, "/api/renewals/preview?license_type=permanente&anchor=2025-01-31")
		if code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", code)
		}
		if data["expiry_date"] != nil {
			t.Errorf("Expected nil expiry, got %v", data["expiry_date"])
		}
	})

	t.Run("trial uses trial days", func(t *testing.T) {
		code, data := get(t, "/api/renewals/preview?license_type=trial&trial_days=15&anchor=2025-08-18")
		if code != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", code)
		}
		if data["expiry_date"] != "2025-09-02" {
			t.Errorf("Expected expiry 2025-09-02, got %v", data["expiry_date"])
		}
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		code, _ := get(t, "/api/renewals/preview?license_type=lifetime")
		if code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", code)
		}
	})

	t.Run("bad anchor rejected", func(t *testing.T) {
		code, _ := get(t, "/api/renewals/preview?license_type=trial&anchor=31-01-2025")
		if code != http.StatusBadRequest {
			t.Errorf("Expected status 400, got %d", code)
		}
	})
}

func TestRenewalEndpointsWithoutScheduler(t *testing.T) {
	server := newTestServer()

	for _, tc := range []struct {
		method string
		url    string
	}{
		{http.MethodPost, "/api/renewals/run"},
		{http.MethodGet, "/api/renewals/status"},
	} {
		req := httptest.NewRequest(tc.method, tc.url, nil)
		w := httptest.NewRecorder()
		server.router.ServeHTTP(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s %s: expected status 503, got %d", tc.method, tc.url, w.Code)
		}
	}
}

func TestValidateLicenseRejectsMalformedKey(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/public/licenses/validate",
		strings.NewReader(`{"license_key":"not-a-key"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestUnknownAPIRouteReturns404(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	w := httptest.NewRecorder()
	server.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}
