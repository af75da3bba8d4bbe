package questrade

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordsRequestsExchangesAndRetries(t *testing.T) {
	dataCalls := 0
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dataCalls++
		if dataCalls == 1 {
			unauthorized(w)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer api.Close()

	login := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, tokenBody("AT2", "RT2", api.URL))
	}))
	defer login.Close()

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	client, err := NewClient(WithTokenSet(testToken(api.URL)), WithLoginURL(login.URL), WithMetrics(metrics))
	require.NoError(t, err)

	_, err = client.Get(context.Background(), "/v1/time", nil)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "401")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.refreshes.WithLabelValues(grantRefresh, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.retries))

	count, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestMetrics_RecordsExchangeFailureKind(t *testing.T) {
	login := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer login.Close()

	metrics := NewMetrics(nil)
	client, err := NewClient(WithAccessCode("CODE1"), WithLoginURL(login.URL), WithMetrics(metrics))
	require.NoError(t, err)

	_, err = client.GetAccessToken(context.Background())
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.refreshes.WithLabelValues(grantAccessCode, string(ErrAuthentication))))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.observeRequest("GET", 200)
		m.observeExchange(grantRefresh, nil)
		m.observeRetry()
	})
}
