// Package analyzer compares raw XBRL concept usage across companies:
// which concepts every loaded company reports, what statement bucket
// each falls into, and which concrete concept best serves each target
// metric. Useful for tuning the metric catalog against real filings.
package analyzer

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/stocker-app/stocker-cli/internal/fetcher"
	"github.com/stocker-app/stocker-cli/internal/model"
)

// Analyzer accumulates per-company concept sets.
type Analyzer struct {
	order     []string
	concepts  map[string]map[string]struct{}
	factCount map[string]int
}

// New creates an empty Analyzer.
func New() *Analyzer {
	return &Analyzer{
		concepts:  make(map[string]map[string]struct{}),
		factCount: make(map[string]int),
	}
}

// AddFacts records the concepts used in a company's fact tables.
func (a *Analyzer) AddFacts(ticker string, periods []model.PeriodFacts) {
	set := a.conceptSet(ticker)
	for _, pf := range periods {
		for _, f := range pf.Facts {
			if f.Concept == "" {
				continue
			}
			set[f.Concept] = struct{}{}
			a.factCount[ticker]++
		}
	}
}

// LoadCSV reads a raw fact export and records its concepts. The file
// must carry a header with a "concept" column.
func (a *Analyzer) LoadCSV(ctx context.Context, ticker string, r io.Reader) error {
	headerCh := make(chan []string, 1)
	rowCh, errCh := fetcher.StreamCSV(ctx, r, fetcher.CSVOptions{
		HasHeader: true,
		HeaderCh:  headerCh,
		TrimSpace: true,
	})

	conceptCol := -1
	set := a.conceptSet(ticker)
	for row := range rowCh {
		if conceptCol < 0 {
			select {
			case header := <-headerCh:
				for i, col := range header {
					if strings.EqualFold(col, "concept") {
						conceptCol = i
					}
				}
			default:
			}
			if conceptCol < 0 {
				return eris.Errorf("analyzer: no concept column in %s export", ticker)
			}
		}
		if conceptCol >= len(row) || row[conceptCol] == "" {
			continue
		}
		set[row[conceptCol]] = struct{}{}
		a.factCount[ticker]++
	}
	if err := <-errCh; err != nil {
		return eris.Wrapf(err, "analyzer: load %s", ticker)
	}
	if conceptCol < 0 && a.factCount[ticker] == 0 {
		return eris.Errorf("analyzer: empty export for %s", ticker)
	}
	return nil
}

// Tickers returns the companies loaded, in load order.
func (a *Analyzer) Tickers() []string {
	return a.order
}

// CommonConcepts returns the concepts reported by every loaded
// company, sorted.
func (a *Analyzer) CommonConcepts() []string {
	if len(a.order) == 0 {
		return nil
	}

	var common []string
	for c := range a.concepts[a.order[0]] {
		inAll := true
		for _, t := range a.order[1:] {
			if _, ok := a.concepts[t][c]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			common = append(common, c)
		}
	}
	sort.Strings(common)
	return common
}

// categoryOrder is the display order; categoryMatchOrder is the match
// order. Cash Flow and Share Information are matched first so the
// generic "cash" and "earnings" patterns in other buckets cannot
// shadow them.
var categoryOrder = []string{
	"Revenue & Income",
	"Balance Sheet - Assets",
	"Balance Sheet - Liabilities",
	"Balance Sheet - Equity",
	"Cash Flow",
	"Share Information",
	"Other",
}

var categoryMatchOrder = []string{
	"Cash Flow",
	"Share Information",
	"Revenue & Income",
	"Balance Sheet - Assets",
	"Balance Sheet - Liabilities",
	"Balance Sheet - Equity",
}

var categoryPatterns = map[string][]*regexp.Regexp{
	"Revenue & Income": compilePatterns(
		`revenue`, `income`, `earning`, `profit`, `loss`, `expense`, `cost`,
	),
	"Balance Sheet - Assets": compilePatterns(
		`assets?$`, `cash`, `receivable`, `inventory`, `property`, `equipment`, `investment`,
	),
	"Balance Sheet - Liabilities": compilePatterns(
		`liabilities?$`, `debt`, `payable`, `accrued`, `deferred.*liab`,
	),
	"Balance Sheet - Equity": compilePatterns(
		`equity`, `stockholder`, `shareholder`, `retained.*earning`, `capital`,
	),
	"Cash Flow": compilePatterns(
		`cash.*flow`, `cash.*provided`, `cash.*used`, `cash.*operating`, `cash.*investing`, `cash.*financing`,
	),
	"Share Information": compilePatterns(
		`shares?.*outstanding`, `shares?.*issued`, `weighted.*average.*shares?`, `earnings.*per.*share`,
	),
}

func compilePatterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// Categorize sorts concepts into statement buckets. First pattern hit
// in match order wins; unmatched concepts land in Other.
func Categorize(concepts []string) map[string][]string {
	out := make(map[string][]string, len(categoryOrder))

	for _, c := range concepts {
		lower := strings.ToLower(c)
		bucket := "Other"
	outer:
		for _, cat := range categoryMatchOrder {
			for _, p := range categoryPatterns[cat] {
				if p.MatchString(lower) {
					bucket = cat
					break outer
				}
			}
		}
		out[bucket] = append(out[bucket], c)
	}
	for _, cat := range categoryOrder {
		sort.Strings(out[cat])
	}
	return out
}

// keyConceptTargets maps each target metric to search terms matched
// against the concept name with non-letters stripped.
var keyConceptTargets = []struct {
	metric string
	terms  []*regexp.Regexp
}{
	{"revenue", compilePatterns(`revenue`, `sales`)},
	{"net_income", compilePatterns(`netincomeloss`, `netincome`)},
	{"total_assets", compilePatterns(`assets$`)},
	{"total_liabilities", compilePatterns(`liabilities$`)},
	{"stockholders_equity", compilePatterns(`stockholdersequity`, `shareholdersequity`)},
	{"cash_and_equivalents", compilePatterns(`cashandcashequivalents`)},
	{"operating_cash_flow", compilePatterns(`netcashprovidedbyusedinfromoperatingactivities`, `operatingcashflow`)},
	{"earnings_per_share", compilePatterns(`earningspershare`)},
	{"shares_outstanding", compilePatterns(`commonstocksharesoutstanding`, `sharesoutstanding`)},
}

var nonLetter = regexp.MustCompile(`[^a-zA-Z]`)

// KeyConcepts picks, per target metric, the shortest common concept
// that matches one of its search terms. Shorter names are the plainer,
// less qualified variants.
func KeyConcepts(common []string) map[string]string {
	out := make(map[string]string)

	for _, target := range keyConceptTargets {
		best := ""
		for _, concept := range common {
			clean := strings.ToLower(nonLetter.ReplaceAllString(concept, ""))
			for _, term := range target.terms {
				if term.MatchString(clean) {
					if best == "" || len(concept) < len(best) {
						best = concept
					}
					break
				}
			}
		}
		if best != "" {
			out[target.metric] = best
		}
	}
	return out
}

// Report renders the full cross-company analysis as text.
func (a *Analyzer) Report() string {
	if len(a.order) == 0 {
		return "no company data loaded\n"
	}

	var b strings.Builder
	b.WriteString("XBRL CONCEPT ANALYSIS\n")
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	b.WriteString("Companies analyzed:\n")
	for _, t := range a.order {
		fmt.Fprintf(&b, "  %-8s %d unique concepts, %d facts\n", t, len(a.concepts[t]), a.factCount[t])
	}

	common := a.CommonConcepts()
	fmt.Fprintf(&b, "\nCommon concepts across all companies: %d\n", len(common))

	if len(common) == 0 {
		b.WriteString("\nUnique concepts per company:\n")
		for _, t := range a.order {
			fmt.Fprintf(&b, "  %-8s %d concepts only it reports\n", t, len(a.uniqueTo(t)))
		}
		return b.String()
	}

	categories := Categorize(common)
	for _, cat := range categoryOrder {
		concepts := categories[cat]
		if len(concepts) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s (%d):\n", strings.ToUpper(cat), len(concepts))
		for _, c := range concepts {
			fmt.Fprintf(&b, "  - %s\n", c)
		}
	}

	key := KeyConcepts(common)
	if len(key) > 0 {
		b.WriteString("\nKey concepts for extraction:\n")
		metrics := make([]string, 0, len(key))
		for m := range key {
			metrics = append(metrics, m)
		}
		sort.Strings(metrics)
		for _, m := range metrics {
			fmt.Fprintf(&b, "  %-22s %s\n", m, key[m])
		}
	}
	return b.String()
}

// uniqueTo returns concepts only the given ticker reports.
func (a *Analyzer) uniqueTo(ticker string) []string {
	var out []string
	for c := range a.concepts[ticker] {
		shared := false
		for _, other := range a.order {
			if other == ticker {
				continue
			}
			if _, ok := a.concepts[other][c]; ok {
				shared = true
				break
			}
		}
		if !shared {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

func (a *Analyzer) conceptSet(ticker string) map[string]struct{} {
	set, ok := a.concepts[ticker]
	if !ok {
		set = make(map[string]struct{})
		a.concepts[ticker] = set
		a.order = append(a.order, ticker)
	}
	return set
}
