// Package model defines the record types shared across the fetch,
// normalize, store, and report layers.
package model

// Fact is one reported value from a filing: a filer-chosen concept
// label, a raw value that may still need numeric parsing, and free-text
// period and unit descriptors. Facts are immutable once produced.
type Fact struct {
	Concept string `json:"concept"`
	Value   any    `json:"value"`
	Period  string `json:"period,omitempty"`
	Unit    string `json:"unit,omitempty"`
}

// PeriodFacts is the fact table for one reporting period of one
// company. Facts keep the upstream chronological order; the normalizer
// treats the last fact in a concept group as the most recent and never
// re-sorts.
type PeriodFacts struct {
	Ticker     string `json:"ticker"`
	CIK        int    `json:"cik,omitempty"`
	Period     string `json:"period"`
	FiscalYear int    `json:"fiscal_year,omitempty"`
	Form       string `json:"form,omitempty"`
	Filed      string `json:"filed,omitempty"`
	Facts      []Fact `json:"facts"`
}

// CIKEntry maps a ticker symbol to its SEC Central Index Key.
type CIKEntry struct {
	Ticker string `json:"ticker"`
	CIK    int    `json:"cik"`
	Name   string `json:"name"`
}
