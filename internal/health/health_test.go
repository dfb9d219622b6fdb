package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/T-sashi-pavan/Automatic-poll-generation-sub000/internal/health"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(context.Context) error { return f.err }

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestHealthz(t *testing.T) {
	h := health.New("1.2.3")

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "ok" || body["version"] != "1.2.3" {
		t.Errorf("body = %v", body)
	}
}

func TestReadyz_AllPassing(t *testing.T) {
	h := health.New("dev",
		health.PingChecker("postgres", &fakePinger{}),
		health.Checker{Name: "providers", Check: func(context.Context) error { return nil }},
	)

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	checks, _ := body["checks"].(map[string]any)
	if len(checks) != 2 {
		t.Fatalf("checks = %v", checks)
	}
	pg, _ := checks["postgres"].(map[string]any)
	if pg["status"] != "ok" || pg["latency"] == "" {
		t.Errorf("postgres check = %v", pg)
	}
}

func TestReadyz_FailingCheck(t *testing.T) {
	h := health.New("dev",
		health.PingChecker("postgres", &fakePinger{err: errors.New("connection refused")}),
	)

	rec := httptest.NewRecorder()
	h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["status"] != "fail" {
		t.Errorf("status field = %v", body["status"])
	}
	checks, _ := body["checks"].(map[string]any)
	pg, _ := checks["postgres"].(map[string]any)
	status, _ := pg["status"].(string)
	if !strings.HasPrefix(status, "fail:") || !strings.Contains(status, "connection refused") {
		t.Errorf("postgres check status = %q", status)
	}
}

func TestRegister(t *testing.T) {
	mux := http.NewServeMux()
	health.New("dev").Register(mux)

	srv := httptest.NewServer(mux)
	defer srv.Close()

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, resp.StatusCode)
		}
	}
}
