package observe

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestMiddleware_RecordsRequestDuration(t *testing.T) {
	m, reader := newTestMetrics(t)

	mux := http.NewServeMux()
	mux.Handle("GET /rooms/{room}/questions", Middleware(m)(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})))

	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/rooms/room-1/questions")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()

	rm := collect(t, reader)
	met := findMetric(rm, "pollgen.http.request.duration")
	if met == nil {
		t.Fatal("request duration metric not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok || len(hist.DataPoints) == 0 {
		t.Fatalf("unexpected data: %+v", met.Data)
	}

	// Labelled with the route pattern, not the concrete path.
	dp := hist.DataPoints[0]
	if v, ok := dp.Attributes.Value(attribute.Key("route")); !ok || v.AsString() != "GET /rooms/{room}/questions" {
		t.Errorf("route attribute = %v", v.AsString())
	}
	if dp.Count != 1 {
		t.Errorf("sample count = %d, want 1", dp.Count)
	}
}

func TestMiddleware_CapturesStatusCode(t *testing.T) {
	m, _ := newTestMetrics(t)

	handler := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
