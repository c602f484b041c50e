package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocker-app/stocker-cli/internal/model"
)

func newFMPTestServer(t *testing.T) *FMP {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/income-statement/AAPL", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "quarter", r.URL.Query().Get("period"))
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		_, _ = w.Write([]byte(`[
			{"date": "2023-04-01", "period": "Q2", "calendarYear": "2023",
			 "revenue": 94836000000, "grossProfit": 41976000000,
			 "operatingIncome": 28318000000, "netIncome": 24160000000,
			 "eps": 1.53, "weightedAverageShsOut": 15787154000},
			{"date": "2022-12-31", "period": "Q1", "calendarYear": "2023",
			 "revenue": 117154000000, "netIncome": 29998000000}
		]`))
	})
	mux.HandleFunc("/balance-sheet-statement/AAPL", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"date": "2023-04-01", "period": "Q2", "calendarYear": "2023",
			 "cashAndCashEquivalents": 24687000000, "totalAssets": 332160000000,
			 "totalLiabilities": 270002000000, "totalStockholdersEquity": 62158000000}
		]`))
	})
	mux.HandleFunc("/cash-flow-statement/AAPL", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"date": "2023-04-01", "period": "Q2", "calendarYear": "2023",
			 "operatingCashFlow": 28560000000}
		]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewFMPWithURL("test-key", srv.URL)
}

func TestFMP_FetchFacts(t *testing.T) {
	p := newFMPTestServer(t)

	periods, err := p.FetchFacts(context.Background(), "aapl", 4)
	require.NoError(t, err)
	require.Len(t, periods, 2)

	assert.Equal(t, "2023-Q1", periods[0].Period)
	assert.Equal(t, "2023-Q2", periods[1].Period)

	q2 := periods[1]
	assert.Equal(t, "AAPL", q2.Ticker)
	assert.Equal(t, 2023, q2.FiscalYear)

	byConcept := make(map[string]model.Fact)
	for _, f := range q2.Facts {
		byConcept[f.Concept] = f
	}

	rev := byConcept["fmp:Revenues"]
	assert.Equal(t, float64(94836000000), rev.Value)
	assert.Equal(t, "3M 2023-04-01", rev.Period)

	assets := byConcept["fmp:Assets"]
	assert.Equal(t, float64(332160000000), assets.Value)
	assert.Equal(t, "instant 2023-04-01", assets.Period)

	ocf := byConcept["fmp:NetCashProvidedByUsedInOperatingActivities"]
	assert.Equal(t, float64(28560000000), ocf.Value)
	assert.Equal(t, "3M 2023-04-01", ocf.Period)
}

func TestFMP_FetchFacts_NullFieldsAbsent(t *testing.T) {
	p := newFMPTestServer(t)

	periods, err := p.FetchFacts(context.Background(), "AAPL", 4)
	require.NoError(t, err)

	q1 := periods[0]
	for _, f := range q1.Facts {
		assert.NotEqual(t, "fmp:GrossProfit", f.Concept, "null statement fields produce no fact")
	}
	require.Len(t, q1.Facts, 2)
}

func TestFMP_FetchFacts_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	p := NewFMPWithURL("bad-key", srv.URL)
	_, err := p.FetchFacts(context.Background(), "AAPL", 4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
}
