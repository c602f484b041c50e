package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rotisserie/eris"

	"github.com/stocker-app/stocker-cli/internal/model"
)

// DefaultFMPBaseURL is the FinancialModelingPrep v3 API root.
const DefaultFMPBaseURL = "https://financialmodelingprep.com/api/v3"

// FMP fetches quarterly statements from FinancialModelingPrep. FMP
// field names are translated to the standardized concept vocabulary so
// the normalizer resolves them at full confidence.
type FMP struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewFMP creates an FMP provider with a retrying HTTP client.
func NewFMP(apiKey string) *FMP {
	c := retryablehttp.NewClient()
	c.Logger = nil
	return &FMP{
		client:  c.StandardClient(),
		baseURL: DefaultFMPBaseURL,
		apiKey:  apiKey,
	}
}

// NewFMPWithURL creates an FMP provider against a custom endpoint.
func NewFMPWithURL(apiKey, baseURL string) *FMP {
	p := NewFMP(apiKey)
	p.baseURL = strings.TrimRight(baseURL, "/")
	return p
}

type fmpIncomeStatement struct {
	Date              string   `json:"date"`
	Period            string   `json:"period"`
	CalendarYear      string   `json:"calendarYear"`
	Revenue           *float64 `json:"revenue"`
	GrossProfit       *float64 `json:"grossProfit"`
	OperatingIncome   *float64 `json:"operatingIncome"`
	NetIncome         *float64 `json:"netIncome"`
	EPS               *float64 `json:"eps"`
	WeightedAvgShsOut *float64 `json:"weightedAverageShsOut"`
}

type fmpBalanceSheet struct {
	Date                    string   `json:"date"`
	Period                  string   `json:"period"`
	CalendarYear            string   `json:"calendarYear"`
	CashAndCashEquivalents  *float64 `json:"cashAndCashEquivalents"`
	TotalAssets             *float64 `json:"totalAssets"`
	TotalLiabilities        *float64 `json:"totalLiabilities"`
	TotalStockholdersEquity *float64 `json:"totalStockholdersEquity"`
}

type fmpCashFlow struct {
	Date              string   `json:"date"`
	Period            string   `json:"period"`
	CalendarYear      string   `json:"calendarYear"`
	OperatingCashFlow *float64 `json:"operatingCashFlow"`
}

func (p *FMP) get(ctx context.Context, endpoint, ticker string, quarters int, v any) error {
	u := fmt.Sprintf("%s/%s/%s?period=quarter&limit=%d&apikey=%s",
		p.baseURL, endpoint, url.PathEscape(ticker), quarters, url.QueryEscape(p.apiKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return eris.Wrap(err, "fmp: create request")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return eris.Wrapf(err, "fmp: get %s", endpoint)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("fmp: %s returned status %d", endpoint, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return eris.Wrapf(err, "fmp: decode %s", endpoint)
	}
	return nil
}

// FetchFacts downloads the three quarterly statements and merges them
// into one fact table per fiscal period. A statement endpoint failing
// entirely fails the fetch; individual null fields are just absent
// facts.
func (p *FMP) FetchFacts(ctx context.Context, ticker string, quarters int) ([]model.PeriodFacts, error) {
	if quarters <= 0 {
		quarters = 12
	}

	var income []fmpIncomeStatement
	if err := p.get(ctx, "income-statement", ticker, quarters, &income); err != nil {
		return nil, err
	}
	var balance []fmpBalanceSheet
	if err := p.get(ctx, "balance-sheet-statement", ticker, quarters, &balance); err != nil {
		return nil, err
	}
	var cash []fmpCashFlow
	if err := p.get(ctx, "cash-flow-statement", ticker, quarters, &cash); err != nil {
		return nil, err
	}

	byPeriod := make(map[string]*model.PeriodFacts)
	get := func(year, period, date string) *model.PeriodFacts {
		key := year + "-" + period
		pf, ok := byPeriod[key]
		if !ok {
			pf = &model.PeriodFacts{
				Ticker: strings.ToUpper(ticker),
				Period: key,
				Filed:  date,
			}
			if fy, err := strconv.Atoi(year); err == nil {
				pf.FiscalYear = fy
			}
			byPeriod[key] = pf
		}
		return pf
	}
	add := func(pf *model.PeriodFacts, concept string, v *float64, period, unit string) {
		if v == nil {
			return
		}
		pf.Facts = append(pf.Facts, model.Fact{
			Concept: concept,
			Value:   *v,
			Period:  period,
			Unit:    unit,
		})
	}

	for _, s := range income {
		pf := get(s.CalendarYear, s.Period, s.Date)
		dur := durationLabel(s.Period, s.Date)
		add(pf, "fmp:Revenues", s.Revenue, dur, "USD")
		add(pf, "fmp:GrossProfit", s.GrossProfit, dur, "USD")
		add(pf, "fmp:OperatingIncomeLoss", s.OperatingIncome, dur, "USD")
		add(pf, "fmp:NetIncomeLoss", s.NetIncome, dur, "USD")
		add(pf, "fmp:EarningsPerShareBasic", s.EPS, dur, "USD/shares")
		add(pf, "fmp:WeightedAverageNumberOfSharesOutstandingBasic", s.WeightedAvgShsOut, dur, "shares")
	}
	for _, s := range balance {
		pf := get(s.CalendarYear, s.Period, s.Date)
		inst := "instant " + s.Date
		add(pf, "fmp:CashAndCashEquivalentsAtCarryingValue", s.CashAndCashEquivalents, inst, "USD")
		add(pf, "fmp:Assets", s.TotalAssets, inst, "USD")
		add(pf, "fmp:Liabilities", s.TotalLiabilities, inst, "USD")
		add(pf, "fmp:StockholdersEquity", s.TotalStockholdersEquity, inst, "USD")
	}
	for _, s := range cash {
		pf := get(s.CalendarYear, s.Period, s.Date)
		add(pf, "fmp:NetCashProvidedByUsedInOperatingActivities", s.OperatingCashFlow, durationLabel(s.Period, s.Date), "USD")
	}

	keys := make([]string, 0, len(byPeriod))
	for k := range byPeriod {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]model.PeriodFacts, 0, len(keys))
	for _, k := range keys {
		out = append(out, *byPeriod[k])
	}
	return out, nil
}

// durationLabel renders the period descriptor the normalizer
// tie-breaks on: quarterly statements are 3M, annual are 12M.
func durationLabel(period, date string) string {
	if period == "FY" {
		return "12M " + date
	}
	return "3M " + date
}
