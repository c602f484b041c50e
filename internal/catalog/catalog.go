// Package catalog holds the static mapping from canonical financial
// metrics to the XBRL concept names and textual variations that filers
// use for them. The catalog is fixed reference data; rank is encoded by
// list position once at load time.
package catalog

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Kind classifies a metric for fact tie-breaking.
type Kind string

const (
	// KindFlow marks metrics reported over a duration (cash flows);
	// quarterly facts are preferred over annual ones.
	KindFlow Kind = "flow"
	// KindInstant marks point-in-time balance-sheet metrics; instant
	// facts are preferred over duration facts.
	KindInstant Kind = "instant"
	// KindOther applies no period preference beyond non-null.
	KindOther Kind = "other"
)

// Entry maps one canonical metric to its concept candidates.
// Standardized and Variations are ordered: earlier entries outrank
// later ones. FuzzyKeywords are the fragments counted in tier-3
// matching.
type Entry struct {
	Name          string   `yaml:"name"`
	Kind          Kind     `yaml:"kind"`
	Standardized  []string `yaml:"standardized"`
	Variations    []string `yaml:"variations"`
	FuzzyKeywords []string `yaml:"fuzzy_keywords"`
}

// Catalog is an ordered set of metric entries with indexed lookup.
type Catalog struct {
	entries []Entry
	byName  map[string]*Entry
}

// New builds a Catalog from entries, preserving order.
func New(entries []Entry) *Catalog {
	c := &Catalog{
		entries: entries,
		byName:  make(map[string]*Entry, len(entries)),
	}
	for i := range c.entries {
		e := &c.entries[i]
		if e.Kind == "" {
			e.Kind = KindOther
		}
		c.byName[e.Name] = e
	}
	return c
}

// Entries returns the catalog entries in priority order.
func (c *Catalog) Entries() []Entry {
	return c.entries
}

// ByName returns the entry for the canonical metric name, or nil.
func (c *Catalog) ByName(name string) *Entry {
	return c.byName[name]
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// LoadFile reads a catalog from a YAML file. The file replaces the
// built-in catalog entirely; there is no merging.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "catalog: read file")
	}
	var doc struct {
		Metrics []Entry `yaml:"metrics"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrap(err, "catalog: parse yaml")
	}
	if len(doc.Metrics) == 0 {
		return nil, eris.Errorf("catalog: no metrics in %s", path)
	}
	return New(doc.Metrics), nil
}

// Default returns the built-in catalog. Concept order within each entry
// is the selection priority.
func Default() *Catalog {
	return New([]Entry{
		{
			Name: "revenue",
			Kind: KindOther,
			Standardized: []string{
				"Revenues",
				"Revenue",
				"SalesRevenueNet",
				"RevenueFromContractWithCustomerExcludingAssessedTax",
			},
			Variations: []string{
				"Revenues", "Revenue", "SalesRevenueNet", "TotalRevenues",
				"PropertyIncome", "RentalIncome", "RentalRevenue",
			},
			FuzzyKeywords: []string{"income", "sales", "rental", "property", "service"},
		},
		{
			Name: "net_income",
			Kind: KindOther,
			Standardized: []string{
				"NetIncomeLoss",
				"ProfitLoss",
			},
			Variations: []string{
				"NetIncomeLoss", "NetIncome", "ProfitLoss",
				"IncomeLossFromContinuingOperations",
			},
			FuzzyKeywords: []string{"income", "profit", "earnings", "loss"},
		},
		{
			Name: "gross_profit",
			Kind: KindOther,
			Standardized: []string{
				"GrossProfit",
			},
			Variations: []string{
				"GrossProfit", "GrossProfitLoss",
			},
			FuzzyKeywords: []string{"gross", "profit"},
		},
		{
			Name: "operating_income",
			Kind: KindOther,
			Standardized: []string{
				"OperatingIncomeLoss",
			},
			Variations: []string{
				"OperatingIncomeLoss", "IncomeLossFromOperations",
			},
			FuzzyKeywords: []string{"operating", "income"},
		},
		{
			Name: "operating_cash_flow",
			Kind: KindFlow,
			Standardized: []string{
				"NetCashProvidedByUsedInOperatingActivities",
				"NetCashProvidedByOperatingActivities",
			},
			Variations: []string{
				"NetCashProvidedByUsedInOperatingActivities",
				"NetCashProvidedByOperatingActivities",
				"CashFlowFromOperatingActivities",
			},
			FuzzyKeywords: []string{"cash", "operating", "activities"},
		},
		{
			Name: "cash_and_equivalents",
			Kind: KindInstant,
			Standardized: []string{
				"CashAndCashEquivalentsAtCarryingValue",
			},
			Variations: []string{
				"CashAndCashEquivalents",
			},
			FuzzyKeywords: []string{"cash", "equivalents"},
		},
		{
			Name: "total_assets",
			Kind: KindInstant,
			Standardized: []string{
				"Assets",
			},
			Variations: []string{
				"Assets", "TotalAssets",
			},
			FuzzyKeywords: []string{"assets", "total"},
		},
		{
			Name: "total_liabilities",
			Kind: KindInstant,
			Standardized: []string{
				"Liabilities",
			},
			Variations: []string{
				"Liabilities", "TotalLiabilities",
			},
			FuzzyKeywords: []string{"liabilities", "total"},
		},
		{
			Name: "stockholders_equity",
			Kind: KindInstant,
			Standardized: []string{
				"StockholdersEquity",
			},
			Variations: []string{
				"StockholdersEquity", "ShareholdersEquity", "TotalEquity",
			},
			FuzzyKeywords: []string{"equity", "stockholder", "shareholder"},
		},
		{
			Name: "shares_outstanding",
			Kind: KindOther,
			Standardized: []string{
				"CommonStockSharesOutstanding",
				"WeightedAverageNumberOfSharesOutstandingBasic",
			},
			Variations: []string{
				"CommonStockSharesOutstanding",
				"WeightedAverageNumberOfSharesOutstandingBasic",
				"SharesOutstanding",
			},
			FuzzyKeywords: []string{"shares", "outstanding"},
		},
		{
			Name: "earnings_per_share",
			Kind: KindOther,
			Standardized: []string{
				"EarningsPerShareBasic",
				"EarningsPerShareDiluted",
			},
			Variations: []string{
				"EarningsPerShare",
			},
			FuzzyKeywords: []string{"earnings", "share"},
		},
	})
}
