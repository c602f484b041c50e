package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocker-app/stocker-cli/internal/fetcher"
)

const tickersJSON = `{
	"0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."},
	"1": {"cik_str": 789019, "ticker": "MSFT", "title": "MICROSOFT CORP"},
	"2": {"cik_str": 0, "ticker": "", "title": "junk row"}
}`

const companyFactsJSON = `{
	"cik": 320193,
	"entityName": "Apple Inc.",
	"facts": {
		"us-gaap": {
			"Revenues": {
				"label": "Revenues",
				"description": "Total revenue",
				"units": {
					"USD": [
						{"start": "2023-01-01", "end": "2023-04-01", "val": 94836000000, "fy": 2023, "fp": "Q2", "form": "10-Q", "filed": "2023-05-05"},
						{"start": "2022-10-01", "end": "2023-09-30", "val": 383285000000, "fy": 2023, "fp": "FY", "form": "10-K", "filed": "2023-11-03"}
					]
				}
			}
		}
	}
}`

func newEdgarTestServer(t *testing.T) *Edgar {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/files/company_tickers.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(tickersJSON))
	})
	mux.HandleFunc("/api/xbrl/companyfacts/CIK0000320193.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(companyFactsJSON))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 5 * time.Second})
	return NewEdgarWithURLs(f, srv.URL+"/api/xbrl", srv.URL+"/files/company_tickers.json")
}

func TestEdgar_CompanyTickers(t *testing.T) {
	e := newEdgarTestServer(t)

	entries, err := e.CompanyTickers(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2, "rows without ticker or CIK are skipped")

	assert.Equal(t, "AAPL", entries[0].Ticker)
	assert.Equal(t, 320193, entries[0].CIK)
	assert.Equal(t, "Apple Inc.", entries[0].Name)
	assert.Equal(t, "MSFT", entries[1].Ticker)
}

func TestEdgar_ResolveCIK(t *testing.T) {
	e := newEdgarTestServer(t)

	entry, err := e.ResolveCIK(context.Background(), "aapl")
	require.NoError(t, err)
	assert.Equal(t, 320193, entry.CIK)

	_, err = e.ResolveCIK(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown ticker")
}

func TestEdgar_FetchFacts(t *testing.T) {
	e := newEdgarTestServer(t)

	periods, err := e.FetchFacts(context.Background(), "AAPL", 0)
	require.NoError(t, err)
	require.Len(t, periods, 2)

	assert.Equal(t, "AAPL", periods[0].Ticker)
	assert.Equal(t, 320193, periods[0].CIK)
	assert.Equal(t, "2023-FY", periods[0].Period)
	assert.Equal(t, "2023-Q2", periods[1].Period)
	require.Len(t, periods[1].Facts, 1)
	assert.Equal(t, "us-gaap:Revenues", periods[1].Facts[0].Concept)
}

func TestEdgar_FetchFacts_QuarterCap(t *testing.T) {
	e := newEdgarTestServer(t)

	periods, err := e.FetchFacts(context.Background(), "AAPL", 1)
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, "2023-Q2", periods[0].Period, "cap keeps the most recent periods")
}
