package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rotisserie/eris"

	"github.com/stocker-app/stocker-cli/internal/model"
)

// DefaultFinnhubBaseURL is the Finnhub v1 API root.
const DefaultFinnhubBaseURL = "https://finnhub.io/api/v1"

// Finnhub fetches basic financials from the Finnhub metric endpoint.
// It is a supplementary source: only the quarterly series that map to
// standardized concepts become facts; the company-level metric map is
// exposed as-is for reporting.
type Finnhub struct {
	client  *http.Client
	baseURL string
	token   string
}

// NewFinnhub creates a Finnhub provider with a retrying HTTP client.
func NewFinnhub(token string) *Finnhub {
	c := retryablehttp.NewClient()
	c.Logger = nil
	return &Finnhub{
		client:  c.StandardClient(),
		baseURL: DefaultFinnhubBaseURL,
		token:   token,
	}
}

// NewFinnhubWithURL creates a Finnhub provider against a custom
// endpoint.
func NewFinnhubWithURL(token, baseURL string) *Finnhub {
	p := NewFinnhub(token)
	p.baseURL = strings.TrimRight(baseURL, "/")
	return p
}

// BasicFinancials is the /stock/metric response.
type BasicFinancials struct {
	Symbol string             `json:"symbol"`
	Metric map[string]float64 `json:"metric"`
	Series struct {
		Quarterly map[string][]SeriesPoint `json:"quarterly"`
	} `json:"series"`
}

// SeriesPoint is one quarterly observation in a Finnhub series.
type SeriesPoint struct {
	Period string  `json:"period"`
	V      float64 `json:"v"`
}

// Fetch downloads basic financials for a symbol.
func (p *Finnhub) Fetch(ctx context.Context, symbol string) (*BasicFinancials, error) {
	u := fmt.Sprintf("%s/stock/metric?symbol=%s&metric=all&token=%s",
		p.baseURL, url.QueryEscape(strings.ToUpper(symbol)), url.QueryEscape(p.token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, eris.Wrap(err, "finnhub: create request")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "finnhub: get basic financials")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("finnhub: basic financials returned status %d", resp.StatusCode)
	}

	var out BasicFinancials
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, eris.Wrap(err, "finnhub: decode basic financials")
	}
	return &out, nil
}

// finnhubConcepts maps Finnhub quarterly series names to standardized
// concept names.
var finnhubConcepts = map[string]string{
	"eps":                   "finnhub:EarningsPerShareBasic",
	"grossMargin":           "finnhub:GrossProfitMargin",
	"netMargin":             "finnhub:NetProfitMargin",
	"totalDebtToTotalAsset": "finnhub:DebtToAssets",
}

// FetchFacts converts the quarterly series into per-period fact
// tables. quarters caps the most recent periods returned (0 means
// all).
func (p *Finnhub) FetchFacts(ctx context.Context, ticker string, quarters int) ([]model.PeriodFacts, error) {
	fin, err := p.Fetch(ctx, ticker)
	if err != nil {
		return nil, err
	}

	byPeriod := make(map[string][]model.Fact)
	names := make([]string, 0, len(fin.Series.Quarterly))
	for name := range fin.Series.Quarterly {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		concept, ok := finnhubConcepts[name]
		if !ok {
			continue
		}
		for _, pt := range fin.Series.Quarterly[name] {
			if pt.Period == "" {
				continue
			}
			byPeriod[pt.Period] = append(byPeriod[pt.Period], model.Fact{
				Concept: concept,
				Value:   pt.V,
				Period:  "3M " + pt.Period,
			})
		}
	}

	keys := make([]string, 0, len(byPeriod))
	for k := range byPeriod {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if quarters > 0 && len(keys) > quarters {
		keys = keys[len(keys)-quarters:]
	}

	out := make([]model.PeriodFacts, 0, len(keys))
	for _, k := range keys {
		out = append(out, model.PeriodFacts{
			Ticker: strings.ToUpper(ticker),
			Period: k,
			Facts:  byPeriod[k],
		})
	}
	return out, nil
}
