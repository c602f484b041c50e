package normalize

import "github.com/stocker-app/stocker-cli/internal/model"

// Derived metric names emitted alongside the catalog metrics.
const (
	MetricFreeCashFlow   = "free_cash_flow"
	MetricReturnOnAssets = "return_on_assets"
	MetricDebtToAssets   = "debt_to_assets"
	MetricEquityRatio    = "equity_ratio"
)

// addDerived computes ratio metrics from resolved base metrics. A
// derived metric is omitted from the result set entirely, not emitted
// as unresolved, when its inputs are missing or the denominator is 0.
func addDerived(results map[string]model.MetricResult) {
	// Free cash flow approximated by operating cash flow; capital
	// expenditure is not modeled, hence the reduced confidence.
	if ocf := results["operating_cash_flow"]; ocf.Resolved() {
		v := *ocf.Value
		results[MetricFreeCashFlow] = model.MetricResult{
			Value:         &v,
			SourceConcept: ocf.SourceConcept,
			Period:        ocf.Period,
			Tier:          model.TierDerived,
			Confidence:    model.ConfidenceApprox,
		}
	}

	assets := results["total_assets"]
	if !assets.Resolved() || *assets.Value == 0 {
		return
	}
	denom := *assets.Value

	if ni := results["net_income"]; ni.Resolved() {
		addRatio(results, MetricReturnOnAssets, *ni.Value/denom, "net_income/total_assets")
	}
	if liab := results["total_liabilities"]; liab.Resolved() {
		addRatio(results, MetricDebtToAssets, *liab.Value/denom, "total_liabilities/total_assets")
	}
	if eq := results["stockholders_equity"]; eq.Resolved() {
		addRatio(results, MetricEquityRatio, *eq.Value/denom, "stockholders_equity/total_assets")
	}
}

func addRatio(results map[string]model.MetricResult, name string, value float64, formula string) {
	results[name] = model.MetricResult{
		Value:         &value,
		SourceConcept: "calculated:" + formula,
		Tier:          model.TierDerived,
		Confidence:    model.ConfidenceDerived,
	}
}
