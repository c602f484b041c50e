package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stocker-app/stocker-cli/internal/catalog"
	"github.com/stocker-app/stocker-cli/internal/model"
	"github.com/stocker-app/stocker-cli/internal/normalize"
)

func f64(v float64) *float64 { return &v }

func sampleSets() []model.MetricSet {
	return []model.MetricSet{
		{
			Ticker: "AAPL",
			Period: "2023-Q1",
			Metrics: map[string]model.MetricResult{
				"revenue": {
					Value:         f64(117154000000),
					SourceConcept: "us-gaap:Revenues",
					Tier:          model.TierStandard,
					Confidence:    model.ConfidenceStandard,
				},
				"net_income":                    model.Unresolved(),
				normalize.MetricReturnOnAssets: {
					Value:         f64(0.0853),
					SourceConcept: "calculated:net_income/total_assets",
					Tier:          model.TierDerived,
					Confidence:    model.ConfidenceDerived,
				},
			},
		},
		{
			Ticker: "AAPL",
			Period: "2023-Q2",
			Metrics: map[string]model.MetricResult{
				"revenue": {
					Value:         f64(94836000000),
					SourceConcept: "us-gaap:Revenues",
					Tier:          model.TierStandard,
					Confidence:    model.ConfidenceStandard,
				},
				"net_income": {
					Value:         f64(24160000000),
					SourceConcept: "us-gaap:NetIncomeLoss",
					Tier:          model.TierStandard,
					Confidence:    model.ConfidenceStandard,
				},
			},
		},
	}
}

func TestRender(t *testing.T) {
	out := Render(sampleSets(), catalog.Default())

	assert.Contains(t, out, "AAPL 2023-Q1")
	assert.Contains(t, out, "AAPL 2023-Q2")
	assert.Contains(t, out, "$117,154,000,000", "dollar values use thousands grouping")
	assert.Contains(t, out, "conf 10")
	assert.Contains(t, out, "us-gaap:Revenues")
	assert.Contains(t, out, "0.0853", "ratios render as decimals")
	assert.Contains(t, out, "Data quality (2 periods)")
}

func TestRender_UnresolvedShowsDash(t *testing.T) {
	out := Render(sampleSets()[:1], catalog.Default())
	assert.Contains(t, out, "net_income")
	assert.Regexp(t, `net_income\s+-`, out)
}

func TestRender_Empty(t *testing.T) {
	assert.Contains(t, Render(nil, catalog.Default()), "no metric sets")
}

func TestMetricOrder(t *testing.T) {
	cat := catalog.Default()
	order := MetricOrder(cat, sampleSets())

	assert.Equal(t, "revenue", order[0], "catalog order leads")
	idxRev := indexOf(order, "revenue")
	idxFCF := indexOf(order, normalize.MetricFreeCashFlow)
	idxROA := indexOf(order, normalize.MetricReturnOnAssets)
	require.True(t, idxRev >= 0 && idxFCF >= 0 && idxROA >= 0)
	assert.Less(t, idxRev, idxFCF, "derived metrics follow catalog metrics")
	assert.Less(t, idxFCF, idxROA, "derived metrics keep a fixed order")
}

func indexOf(xs []string, x string) int {
	for i, v := range xs {
		if v == x {
			return i
		}
	}
	return -1
}

func TestCoverage(t *testing.T) {
	cov := Coverage(sampleSets())

	assert.InDelta(t, 1.0, cov["revenue"], 1e-9)
	assert.InDelta(t, 0.5, cov["net_income"], 1e-9, "unresolved periods count against coverage")
	assert.InDelta(t, 0.5, cov[normalize.MetricReturnOnAssets], 1e-9, "metrics absent from a period count against coverage")

	assert.Nil(t, Coverage(nil))
}
