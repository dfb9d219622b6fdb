// Package health provides the HTTP health and readiness probes of the poll
// server.
//
//   - /healthz — liveness probe; a process that can serve HTTP is alive.
//   - /readyz  — readiness probe; 200 only when every registered [Checker]
//     passes, 503 otherwise.
//
// Responses are JSON with a top-level "status" ("ok" or "fail"), the server
// version, and a "checks" map carrying each checker's outcome and latency.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// checkTimeout bounds a single readiness check.
const checkTimeout = 5 * time.Second

// Checker is a named dependency probe. Check returns nil when the dependency
// is healthy; it must respect context cancellation.
type Checker struct {
	// Name labels the check in the JSON response (e.g. "postgres").
	Name string

	Check func(ctx context.Context) error
}

// Pinger is anything with a context-aware Ping, such as the postgres store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingChecker adapts a [Pinger] into a named [Checker].
func PingChecker(name string, p Pinger) Checker {
	return Checker{Name: name, Check: p.Ping}
}

type checkResult struct {
	Status  string `json:"status"`
	Latency string `json:"latency"`
}

type response struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version,omitempty"`
	Checks  map[string]checkResult `json:"checks,omitempty"`
}

// Handler serves the health endpoints. Safe for concurrent use; the checker
// list is fixed at construction.
type Handler struct {
	version  string
	checkers []Checker
}

// New creates a Handler reporting version that evaluates the given checkers,
// in order, on each /readyz request.
func New(version string, checkers ...Checker) *Handler {
	c := make([]Checker, len(checkers))
	copy(c, checkers)
	return &Handler{version: version, checkers: c}
}

// Healthz is the liveness probe. Always 200.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, response{Status: "ok", Version: h.version})
}

// Readyz is the readiness probe. Each checker runs with a [checkTimeout]
// deadline derived from the request context.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]checkResult, len(h.checkers))
	allOK := true

	for _, c := range h.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		start := time.Now()
		err := c.Check(ctx)
		latency := time.Since(start)
		cancel()

		res := checkResult{Status: "ok", Latency: latency.String()}
		if err != nil {
			res.Status = "fail: " + err.Error()
			allOK = false
		}
		checks[c.Name] = res
	}

	resp := response{Status: "ok", Version: h.version, Checks: checks}
	status := http.StatusOK
	if !allOK {
		resp.Status = "fail"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// Register adds the /healthz and /readyz routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
