package provider

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/stocker-app/stocker-cli/internal/fetcher"
	"github.com/stocker-app/stocker-cli/internal/model"
	"github.com/stocker-app/stocker-cli/internal/xbrl"
)

const (
	// DefaultEdgarBaseURL is the SEC XBRL frames API root.
	DefaultEdgarBaseURL = "https://data.sec.gov/api/xbrl"
	// DefaultTickersURL maps every registered ticker to its CIK.
	DefaultTickersURL = "https://www.sec.gov/files/company_tickers.json"
)

// Edgar fetches company facts from SEC EDGAR. EDGAR is keyed by CIK,
// so ticker resolution goes through the company_tickers file first.
type Edgar struct {
	fetcher    fetcher.Fetcher
	baseURL    string
	tickersURL string

	// resolve is filled lazily from CompanyTickers on first use.
	resolve map[string]model.CIKEntry
}

// NewEdgar creates an EDGAR provider using the given fetcher.
func NewEdgar(f fetcher.Fetcher) *Edgar {
	return &Edgar{
		fetcher:    f,
		baseURL:    DefaultEdgarBaseURL,
		tickersURL: DefaultTickersURL,
	}
}

// NewEdgarWithURLs creates an EDGAR provider against custom endpoints.
func NewEdgarWithURLs(f fetcher.Fetcher, baseURL, tickersURL string) *Edgar {
	return &Edgar{
		fetcher:    f,
		baseURL:    strings.TrimRight(baseURL, "/"),
		tickersURL: tickersURL,
	}
}

// CompanyTickers downloads the ticker-to-CIK table. The file is a JSON
// object keyed by row index, so entries come back sorted by ticker for
// determinism.
func (e *Edgar) CompanyTickers(ctx context.Context) ([]model.CIKEntry, error) {
	var raw map[string]struct {
		CIK    int    `json:"cik_str"`
		Ticker string `json:"ticker"`
		Title  string `json:"title"`
	}
	if err := e.fetcher.DownloadJSON(ctx, e.tickersURL, &raw); err != nil {
		return nil, eris.Wrap(err, "edgar: company tickers")
	}

	entries := make([]model.CIKEntry, 0, len(raw))
	for _, r := range raw {
		if r.Ticker == "" || r.CIK == 0 {
			continue
		}
		entries = append(entries, model.CIKEntry{
			Ticker: strings.ToUpper(r.Ticker),
			CIK:    r.CIK,
			Name:   r.Title,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Ticker < entries[j].Ticker })
	return entries, nil
}

// ResolveCIK maps a ticker to its CIK, loading the ticker table on
// first call.
func (e *Edgar) ResolveCIK(ctx context.Context, ticker string) (model.CIKEntry, error) {
	if e.resolve == nil {
		entries, err := e.CompanyTickers(ctx)
		if err != nil {
			return model.CIKEntry{}, err
		}
		e.resolve = make(map[string]model.CIKEntry, len(entries))
		for _, entry := range entries {
			e.resolve[entry.Ticker] = entry
		}
	}
	entry, ok := e.resolve[strings.ToUpper(ticker)]
	if !ok {
		return model.CIKEntry{}, eris.Errorf("edgar: unknown ticker %q", ticker)
	}
	return entry, nil
}

// CompanyFacts downloads the full XBRL company facts document for a
// CIK.
func (e *Edgar) CompanyFacts(ctx context.Context, cik int) (*xbrl.CompanyFacts, error) {
	url := fmt.Sprintf("%s/companyfacts/CIK%010d.json", e.baseURL, cik)
	body, err := e.fetcher.Download(ctx, url)
	if err != nil {
		return nil, eris.Wrapf(err, "edgar: company facts cik=%d", cik)
	}
	defer body.Close() //nolint:errcheck

	return xbrl.ParseCompanyFacts(body)
}

// FetchFacts resolves the ticker, downloads its company facts, and
// flattens them to per-period fact tables. quarters caps how many of
// the most recent periods are returned (0 means all).
func (e *Edgar) FetchFacts(ctx context.Context, ticker string, quarters int) ([]model.PeriodFacts, error) {
	entry, err := e.ResolveCIK(ctx, ticker)
	if err != nil {
		return nil, err
	}

	facts, err := e.CompanyFacts(ctx, entry.CIK)
	if err != nil {
		return nil, err
	}

	periods := xbrl.Flatten(facts, entry.Ticker)
	zap.L().Debug("edgar facts flattened",
		zap.String("ticker", entry.Ticker),
		zap.Int("cik", entry.CIK),
		zap.Int("periods", len(periods)),
	)

	if quarters > 0 && len(periods) > quarters {
		periods = periods[len(periods)-quarters:]
	}
	return periods, nil
}
