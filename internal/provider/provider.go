// Package provider pulls financial data from external vendors (SEC
// EDGAR, FinancialModelingPrep, Finnhub) and converts each vendor's
// payload into provider-agnostic fact tables, so everything downstream
// of the fetch only sees model.PeriodFacts.
package provider

import (
	"context"

	"github.com/stocker-app/stocker-cli/internal/model"
)

// FactSource produces per-period fact tables for a ticker. quarters
// bounds how far back the source reaches; sources that cannot page
// ignore it.
type FactSource interface {
	FetchFacts(ctx context.Context, ticker string, quarters int) ([]model.PeriodFacts, error)
}
