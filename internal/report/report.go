// Package report renders normalized metric sets as period reports,
// data-quality summaries, and CSV/XLSX/JSON exports.
package report

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/stocker-app/stocker-cli/internal/catalog"
	"github.com/stocker-app/stocker-cli/internal/model"
	"github.com/stocker-app/stocker-cli/internal/normalize"
)

// derivedOrder lists the computed metrics after the catalog ones.
var derivedOrder = []string{
	normalize.MetricFreeCashFlow,
	normalize.MetricReturnOnAssets,
	normalize.MetricDebtToAssets,
	normalize.MetricEquityRatio,
}

// MetricOrder returns the display order for metric names: catalog
// order, then derived metrics, then anything else sorted.
func MetricOrder(cat *catalog.Catalog, sets []model.MetricSet) []string {
	seen := make(map[string]bool)
	var order []string

	for _, e := range cat.Entries() {
		order = append(order, e.Name)
		seen[e.Name] = true
	}
	for _, name := range derivedOrder {
		if !seen[name] {
			order = append(order, name)
			seen[name] = true
		}
	}

	var extra []string
	for _, ms := range sets {
		for name := range ms.Metrics {
			if !seen[name] {
				extra = append(extra, name)
				seen[name] = true
			}
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}

// Render writes the per-period metric report. Unresolved metrics show
// a dash so gaps stay visible.
func Render(sets []model.MetricSet, cat *catalog.Catalog) string {
	if len(sets) == 0 {
		return "no metric sets to report\n"
	}

	p := message.NewPrinter(language.English)
	order := MetricOrder(cat, sets)

	var b strings.Builder
	for i, ms := range sets {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s %s\n", ms.Ticker, ms.Period)
		b.WriteString(strings.Repeat("-", 72) + "\n")

		for _, name := range order {
			r, ok := ms.Metrics[name]
			if !ok {
				continue
			}
			if !r.Resolved() {
				fmt.Fprintf(&b, "  %-22s %20s\n", name, "-")
				continue
			}
			fmt.Fprintf(&b, "  %-22s %20s  conf %2d  %s\n",
				name, formatValue(p, name, *r.Value), r.Confidence, r.SourceConcept)
		}
	}

	b.WriteByte('\n')
	b.WriteString(CoverageSummary(sets, order))
	return b.String()
}

// ratio metrics render as plain decimals, not dollar amounts.
var ratioMetrics = map[string]bool{
	normalize.MetricReturnOnAssets: true,
	normalize.MetricDebtToAssets:   true,
	normalize.MetricEquityRatio:    true,
	"earnings_per_share":           true,
}

func formatValue(p *message.Printer, name string, v float64) string {
	switch {
	case ratioMetrics[name]:
		return p.Sprintf("%.4f", v)
	case name == "shares_outstanding":
		return p.Sprintf("%.0f", v)
	default:
		return p.Sprintf("$%.0f", v)
	}
}

// Coverage computes, per metric, the share of periods in which it
// resolved.
func Coverage(sets []model.MetricSet) map[string]float64 {
	if len(sets) == 0 {
		return nil
	}

	resolved := make(map[string]int)
	seen := make(map[string]bool)
	for _, ms := range sets {
		for name, r := range ms.Metrics {
			seen[name] = true
			if r.Resolved() {
				resolved[name]++
			}
		}
	}

	out := make(map[string]float64, len(seen))
	for name := range seen {
		out[name] = float64(resolved[name]) / float64(len(sets))
	}
	return out
}

// CoverageSummary renders the data-quality section: how consistently
// each metric resolved across the reported periods.
func CoverageSummary(sets []model.MetricSet, order []string) string {
	cov := Coverage(sets)
	if len(cov) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Data quality (%d periods)\n", len(sets))
	b.WriteString(strings.Repeat("-", 72) + "\n")
	for _, name := range order {
		pct, ok := cov[name]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "  %-22s %5.1f%%\n", name, pct*100)
	}
	return b.String()
}
