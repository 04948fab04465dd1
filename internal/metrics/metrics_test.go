package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHandlerUsesRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := InstrumentHandler(mux)

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "GET /api/items/{id}", "404"))
	for _, id := range []string{"a", "b", "c"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/items/"+id, nil))
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "GET /api/items/{id}", "404"))
	assert.Equal(t, 3.0, after-before)
}

func TestDomainCounters(t *testing.T) {
	added := testutil.ToFloat64(favoriteToggles.WithLabelValues("added"))
	RecordFavorite(true)
	assert.Equal(t, added+1, testutil.ToFloat64(favoriteToggles.WithLabelValues("added")))

	points := testutil.ToFloat64(pointsTransferred)
	RecordExchange("completed", 30)
	RecordExchange("insufficient_points", 30)
	assert.Equal(t, points+30, testutil.ToFloat64(pointsTransferred))
}

func TestHandlerExposesRegistry(t *testing.T) {
	RecordInterest("created")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "garderoba_items_interests_total"))
}
