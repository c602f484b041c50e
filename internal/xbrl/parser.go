// Package xbrl parses XBRL JSON-LD fact data from EDGAR company facts
// and flattens it into per-period fact tables for normalization.
package xbrl

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/stocker-app/stocker-cli/internal/model"
)

// CompanyFacts represents the EDGAR company facts JSON-LD structure.
type CompanyFacts struct {
	CIK        int               `json:"cik"`
	EntityName string            `json:"entityName"`
	Facts      map[string]FactNS `json:"facts"`
}

// FactNS groups facts by namespace (e.g., "us-gaap", "dei").
type FactNS map[string]Fact

// Fact is a single XBRL fact with its units and values.
type Fact struct {
	Label       string                 `json:"label"`
	Description string                 `json:"description"`
	Units       map[string][]FactValue `json:"units"`
}

// FactValue is a single data point for a fact. Start is empty for
// instant (point-in-time) facts.
type FactValue struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end"`
	Val   any    `json:"val"`
	Accn  string `json:"accn"`
	FY    int    `json:"fy"`
	FP    string `json:"fp"`
	Form  string `json:"form"`
	Filed string `json:"filed"`
	Frame string `json:"frame,omitempty"`
}

// ParseCompanyFacts parses EDGAR company facts JSON-LD from a reader.
func ParseCompanyFacts(r io.Reader) (*CompanyFacts, error) {
	var facts CompanyFacts
	if err := json.NewDecoder(r).Decode(&facts); err != nil {
		return nil, eris.Wrap(err, "xbrl: parse company facts")
	}
	return &facts, nil
}

// Flatten converts company facts into one fact table per fiscal period,
// sorted chronologically. Values without a fiscal period or end date
// are skipped; within a period, facts are ordered by end date so later
// rows are the most recent. The us-gaap namespace is kept
// namespace-qualified, matching how filers publish concept names.
func Flatten(facts *CompanyFacts, ticker string) []model.PeriodFacts {
	if facts == nil || len(facts.Facts) == 0 {
		return nil
	}

	type row struct {
		fact  model.Fact
		end   string
		filed string
		form  string
		fy    int
	}
	byPeriod := make(map[string][]row)

	for _, ns := range []string{"us-gaap", "dei"} {
		nsMap, ok := facts.Facts[ns]
		if !ok {
			continue
		}
		names := make([]string, 0, len(nsMap))
		for name := range nsMap {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			for _, uv := range sortedUnits(nsMap[name].Units) {
				for _, v := range uv.values {
					if v.End == "" || v.FY == 0 || v.FP == "" {
						continue
					}
					key := fmt.Sprintf("%d-%s", v.FY, v.FP)
					byPeriod[key] = append(byPeriod[key], row{
						fact: model.Fact{
							Concept: ns + ":" + name,
							Value:   v.Val,
							Period:  periodLabel(v),
							Unit:    uv.unit,
						},
						end:   v.End,
						filed: v.Filed,
						form:  v.Form,
						fy:    v.FY,
					})
				}
			}
		}
	}

	keys := make([]string, 0, len(byPeriod))
	for k := range byPeriod {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]model.PeriodFacts, 0, len(keys))
	for _, key := range keys {
		rows := byPeriod[key]
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].end != rows[j].end {
				return rows[i].end < rows[j].end
			}
			return rows[i].fact.Concept < rows[j].fact.Concept
		})

		pf := model.PeriodFacts{
			Ticker: ticker,
			CIK:    facts.CIK,
			Period: key,
			Facts:  make([]model.Fact, 0, len(rows)),
		}
		for _, r := range rows {
			pf.Facts = append(pf.Facts, r.fact)
			pf.FiscalYear = r.fy
			if r.filed > pf.Filed {
				pf.Filed = r.filed
				pf.Form = r.form
			}
		}
		out = append(out, pf)
	}
	return out
}

// periodLabel derives the free-text period descriptor the normalizer
// tie-breaks on: "instant <end>" for point-in-time facts, "<n>M <end>"
// for durations (3M for a quarter, 12M for a year).
func periodLabel(v FactValue) string {
	if v.Start == "" {
		return "instant " + v.End
	}
	start, err1 := time.Parse("2006-01-02", v.Start)
	end, err2 := time.Parse("2006-01-02", v.End)
	if err1 != nil || err2 != nil {
		return "duration " + v.End
	}
	months := int(end.Sub(start).Hours()/24/30.4 + 0.5)
	if months < 1 {
		months = 1
	}
	return fmt.Sprintf("%dM %s", months, v.End)
}

type unitValues struct {
	unit   string
	values []FactValue
}

// sortedUnits returns a fact's unit buckets in deterministic order.
func sortedUnits(units map[string][]FactValue) []unitValues {
	keys := make([]string, 0, len(units))
	for k := range units {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]unitValues, 0, len(keys))
	for _, k := range keys {
		out = append(out, unitValues{unit: k, values: units[k]})
	}
	return out
}
