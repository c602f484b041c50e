package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFinnhubTestServer(t *testing.T) *Finnhub {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/stock/metric", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		assert.Equal(t, "test-token", r.URL.Query().Get("token"))
		_, _ = w.Write([]byte(`{
			"symbol": "AAPL",
			"metric": {"peBasicExclExtraTTM": 28.3, "roaTTM": 0.27},
			"series": {
				"quarterly": {
					"eps": [
						{"period": "2022-12-31", "v": 1.88},
						{"period": "2023-04-01", "v": 1.53}
					],
					"netMargin": [
						{"period": "2023-04-01", "v": 0.2547}
					],
					"unmappedSeries": [
						{"period": "2023-04-01", "v": 42}
					]
				}
			}
		}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewFinnhubWithURL("test-token", srv.URL)
}

func TestFinnhub_Fetch(t *testing.T) {
	p := newFinnhubTestServer(t)

	fin, err := p.Fetch(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", fin.Symbol)
	assert.InDelta(t, 28.3, fin.Metric["peBasicExclExtraTTM"], 1e-9)
	require.Len(t, fin.Series.Quarterly["eps"], 2)
}

func TestFinnhub_FetchFacts(t *testing.T) {
	p := newFinnhubTestServer(t)

	periods, err := p.FetchFacts(context.Background(), "AAPL", 0)
	require.NoError(t, err)
	require.Len(t, periods, 2)

	assert.Equal(t, "2022-12-31", periods[0].Period)
	assert.Equal(t, "2023-04-01", periods[1].Period)

	latest := periods[1]
	require.Len(t, latest.Facts, 2, "series without a concept mapping are dropped")
	assert.Equal(t, "finnhub:EarningsPerShareBasic", latest.Facts[0].Concept)
	assert.Equal(t, 1.53, latest.Facts[0].Value)
	assert.Equal(t, "3M 2023-04-01", latest.Facts[0].Period)
	assert.Equal(t, "finnhub:NetProfitMargin", latest.Facts[1].Concept)
}

func TestFinnhub_FetchFacts_QuarterCap(t *testing.T) {
	p := newFinnhubTestServer(t)

	periods, err := p.FetchFacts(context.Background(), "AAPL", 1)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, "2023-04-01", periods[0].Period)
}

func TestFinnhub_Fetch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewFinnhubWithURL("t", srv.URL)
	_, err := p.Fetch(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
