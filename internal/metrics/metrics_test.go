package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CookAdded("administered")
		m.ChiefClaimed("granted")
		m.DishCreated()
		m.MailFailed("confirmation")
	})
}

func TestMetrics_DomainCounters(t *testing.T) {
	m := New()
	m.CookAdded("self_claim")
	m.CookAdded("self_claim")
	m.CookAdded("administered")
	m.DishCreated()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cooksAdded.WithLabelValues("self_claim")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cooksAdded.WithLabelValues("administered")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dishesCreated))
}

func TestMetrics_MiddlewareUsesRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/stoves/{stoveID}/cooks", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	r.Handle("/metrics", m.Handler())

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stoves/"+id+"/cooks", nil))
		require.Equal(t, http.StatusForbidden, rec.Code)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("/stoves/{stoveID}/cooks", http.MethodGet, "403")))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sstove_http_requests_total")
}
