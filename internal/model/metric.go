package model

// MatchTier identifies how a metric value was resolved from raw facts.
type MatchTier string

const (
	// TierStandard means the concept matched a standardized (us-gaap)
	// concept name from the catalog exactly.
	TierStandard MatchTier = "standard"
	// TierVariation means a catalog variation matched as a substring of
	// the concept name.
	TierVariation MatchTier = "variation"
	// TierFuzzy means the concept was accepted on keyword-fragment
	// overlap alone.
	TierFuzzy MatchTier = "fuzzy"
	// TierDerived means the value was computed from other resolved
	// metrics, not matched against facts.
	TierDerived MatchTier = "derived"
	// TierUnresolved means no tier produced a usable value.
	TierUnresolved MatchTier = "unresolved"
)

// Confidence ranks per tier. Ordinal match quality, not probabilities;
// callers treat 0 as "no data", never as an error.
const (
	ConfidenceStandard   = 10
	ConfidenceVariation  = 8
	ConfidenceDerived    = 8
	ConfidenceApprox     = 7
	ConfidenceFuzzy      = 6
	ConfidenceUnresolved = 0
)

// Candidate is a (value, concept) pair that matched but was not
// selected, kept for audit.
type Candidate struct {
	Value      float64 `json:"value"`
	Concept    string  `json:"concept"`
	Period     string  `json:"period,omitempty"`
	Confidence int     `json:"confidence"`
}

// MetricResult is the normalizer output for one canonical metric in one
// period. Value nil means unresolved. When Value is set, SourceConcept
// names the raw concept that supplied it.
type MetricResult struct {
	Value         *float64    `json:"value"`
	SourceConcept string      `json:"source_concept,omitempty"`
	Period        string      `json:"period,omitempty"`
	Unit          string      `json:"unit,omitempty"`
	Tier          MatchTier   `json:"tier"`
	Confidence    int         `json:"confidence"`
	Alternatives  []Candidate `json:"alternatives,omitempty"`
}

// Resolved reports whether the metric carries a usable value.
func (r MetricResult) Resolved() bool {
	return r.Value != nil
}

// Unresolved returns the canonical empty result emitted when no tier
// matched.
func Unresolved() MetricResult {
	return MetricResult{Tier: TierUnresolved, Confidence: ConfidenceUnresolved}
}

// MetricSet is the full normalizer output for one period of one ticker.
type MetricSet struct {
	Ticker  string                  `json:"ticker"`
	Period  string                  `json:"period"`
	Metrics map[string]MetricResult `json:"metrics"`
}
