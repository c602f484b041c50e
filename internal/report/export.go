package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/stocker-app/stocker-cli/internal/catalog"
	"github.com/stocker-app/stocker-cli/internal/model"
)

var exportHeader = []string{
	"ticker", "period", "metric", "value", "unit", "tier", "confidence", "source_concept",
}

// exportRows flattens metric sets into one row per metric, in display
// order. Unresolved metrics export with an empty value so every period
// carries the full metric list.
func exportRows(sets []model.MetricSet, cat *catalog.Catalog) [][]string {
	order := MetricOrder(cat, sets)

	var rows [][]string
	for _, ms := range sets {
		for _, name := range order {
			r, ok := ms.Metrics[name]
			if !ok {
				continue
			}
			value := ""
			if r.Resolved() {
				value = fmt.Sprintf("%g", *r.Value)
			}
			rows = append(rows, []string{
				ms.Ticker, ms.Period, name, value, r.Unit,
				string(r.Tier), fmt.Sprintf("%d", r.Confidence), r.SourceConcept,
			})
		}
	}
	return rows
}

// WriteCSV exports metric sets as CSV.
func WriteCSV(w io.Writer, sets []model.MetricSet, cat *catalog.Catalog) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, row := range exportRows(sets, cat) {
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush csv")
}

// WriteXLSX exports metric sets as an XLSX workbook, one Metrics sheet.
func WriteXLSX(path string, sets []model.MetricSet, cat *catalog.Catalog) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Metrics")
	if err != nil {
		return eris.Wrap(err, "report: add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, col := range exportHeader {
		header.AddCell().SetString(col)
	}

	for _, ms := range sets {
		for _, name := range MetricOrder(cat, []model.MetricSet{ms}) {
			r, ok := ms.Metrics[name]
			if !ok {
				continue
			}
			row := sheet.AddRow()
			row.AddCell().SetString(ms.Ticker)
			row.AddCell().SetString(ms.Period)
			row.AddCell().SetString(name)
			if r.Resolved() {
				row.AddCell().SetFloat(*r.Value)
			} else {
				row.AddCell().SetString("")
			}
			row.AddCell().SetString(r.Unit)
			row.AddCell().SetString(string(r.Tier))
			row.AddCell().SetInt(r.Confidence)
			row.AddCell().SetString(r.SourceConcept)
		}
	}

	return eris.Wrapf(f.Save(path), "report: save xlsx %s", path)
}

// Dataset is the unified JSON export: all periods of one ticker keyed
// by period label.
type Dataset struct {
	Ticker      string                                   `json:"ticker"`
	GeneratedAt time.Time                                `json:"generated_at"`
	Periods     map[string]map[string]model.MetricResult `json:"periods"`
	Coverage    map[string]float64                       `json:"coverage"`
}

// BuildDataset assembles the unified dataset from metric sets. All
// sets must belong to the same ticker; the first one names it.
func BuildDataset(sets []model.MetricSet) Dataset {
	ds := Dataset{
		GeneratedAt: time.Now().UTC(),
		Periods:     make(map[string]map[string]model.MetricResult, len(sets)),
		Coverage:    Coverage(sets),
	}
	for _, ms := range sets {
		if ds.Ticker == "" {
			ds.Ticker = ms.Ticker
		}
		ds.Periods[ms.Period] = ms.Metrics
	}
	return ds
}

// WriteJSON exports the unified dataset as indented JSON.
func WriteJSON(w io.Writer, sets []model.MetricSet) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(BuildDataset(sets)), "report: write json")
}
