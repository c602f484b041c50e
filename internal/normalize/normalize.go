// Package normalize resolves noisy, filer-specific concept names into
// canonical financial metrics. Resolution is a pure function of the
// fact table and the catalog: no I/O, no shared state, safe to call
// concurrently for different periods.
package normalize

import (
	"regexp"
	"strings"

	"github.com/stocker-app/stocker-cli/internal/catalog"
	"github.com/stocker-app/stocker-cli/internal/model"
)

var (
	quarterlyPattern = regexp.MustCompile(`(?i)3M|Q[1-4]`)
	instantPattern   = regexp.MustCompile(`(?i)instant|as of`)
)

// conceptGroups partitions a fact table by exact concept string while
// remembering first-appearance order, so that every scan over concepts
// is deterministic.
type conceptGroups struct {
	order  []string
	groups map[string][]model.Fact
}

func groupByConcept(facts []model.Fact) *conceptGroups {
	g := &conceptGroups{groups: make(map[string][]model.Fact)}
	for _, f := range facts {
		if f.Concept == "" {
			continue
		}
		if _, seen := g.groups[f.Concept]; !seen {
			g.order = append(g.order, f.Concept)
		}
		g.groups[f.Concept] = append(g.groups[f.Concept], f)
	}
	return g
}

// canonicalConcept lowercases a concept name and strips a namespace
// qualifier, so "us-gaap:Revenues" and "revenues" compare equal.
func canonicalConcept(name string) string {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(name)
}

// Normalize resolves every catalog metric from one period's fact table.
// The result covers every catalog entry; metrics with no usable facts
// map to an unresolved result rather than being dropped, and no input,
// however malformed, produces an error.
func Normalize(facts []model.Fact, cat *catalog.Catalog) map[string]model.MetricResult {
	groups := groupByConcept(facts)

	results := make(map[string]model.MetricResult, cat.Len())
	for _, entry := range cat.Entries() {
		results[entry.Name] = resolveMetric(groups, entry)
	}

	addDerived(results)
	return results
}

// resolveMetric walks the three match tiers in strict order. A
// standardized match wins outright; variation matches collect
// alternatives; fuzzy matching is the last resort.
func resolveMetric(groups *conceptGroups, entry catalog.Entry) model.MetricResult {
	// Tier 1: standardized concepts, catalog order, first hit wins.
	for _, std := range entry.Standardized {
		want := canonicalConcept(std)
		for _, concept := range groups.order {
			if canonicalConcept(concept) != want {
				continue
			}
			if fact, value, ok := selectBestFact(groups.groups[concept], entry.Kind); ok {
				return model.MetricResult{
					Value:         &value,
					SourceConcept: fact.Concept,
					Period:        fact.Period,
					Unit:          fact.Unit,
					Tier:          model.TierStandard,
					Confidence:    model.ConfidenceStandard,
				}
			}
		}
	}

	// Tier 2: variation substring match. The first variation in list
	// order supplies the value; later hits are kept as alternatives,
	// one entry per concept even when it matches several variations.
	var result model.MetricResult
	matched := make(map[string]struct{})
	for _, variation := range entry.Variations {
		needle := strings.ToLower(variation)
		for _, concept := range groups.order {
			if !strings.Contains(strings.ToLower(concept), needle) {
				continue
			}
			if _, seen := matched[concept]; seen {
				continue
			}
			fact, value, ok := selectBestFact(groups.groups[concept], entry.Kind)
			if !ok {
				continue
			}
			matched[concept] = struct{}{}
			if result.Value == nil {
				result = model.MetricResult{
					Value:         &value,
					SourceConcept: fact.Concept,
					Period:        fact.Period,
					Unit:          fact.Unit,
					Tier:          model.TierVariation,
					Confidence:    model.ConfidenceVariation,
				}
			} else {
				result.Alternatives = append(result.Alternatives, model.Candidate{
					Value:      value,
					Concept:    fact.Concept,
					Period:     fact.Period,
					Confidence: model.ConfidenceVariation,
				})
			}
		}
	}
	if result.Value != nil {
		return result
	}

	// Tier 3: fuzzy keyword overlap. Accept the first concept, in
	// appearance order, sharing at least two keyword fragments.
	for _, concept := range groups.order {
		lower := strings.ToLower(concept)
		hits := 0
		for _, kw := range entry.FuzzyKeywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits < 2 {
			continue
		}
		if fact, value, ok := selectBestFact(groups.groups[concept], entry.Kind); ok {
			return model.MetricResult{
				Value:         &value,
				SourceConcept: fact.Concept,
				Period:        fact.Period,
				Unit:          fact.Unit,
				Tier:          model.TierFuzzy,
				Confidence:    model.ConfidenceFuzzy,
			}
		}
	}

	return model.Unresolved()
}

// selectBestFact applies the tie-break shared by all tiers: prefer
// facts with a period; flow metrics prefer quarterly periods, instant
// metrics prefer point-in-time ones; then take the last fact in
// original order. Facts whose value fails coercion are skipped and the
// search continues backward through the group.
func selectBestFact(group []model.Fact, kind catalog.Kind) (model.Fact, float64, bool) {
	candidates := group
	if withPeriod := filterFacts(candidates, func(f model.Fact) bool {
		return f.Period != ""
	}); len(withPeriod) > 0 {
		candidates = withPeriod
	}

	switch kind {
	case catalog.KindFlow:
		if quarterly := filterFacts(candidates, func(f model.Fact) bool {
			return quarterlyPattern.MatchString(f.Period)
		}); len(quarterly) > 0 {
			candidates = quarterly
		}
	case catalog.KindInstant:
		if instant := filterFacts(candidates, func(f model.Fact) bool {
			return instantPattern.MatchString(f.Period)
		}); len(instant) > 0 {
			candidates = instant
		}
	}

	for i := len(candidates) - 1; i >= 0; i-- {
		if value, ok := Coerce(candidates[i].Value); ok {
			return candidates[i], value, true
		}
	}
	return model.Fact{}, 0, false
}

func filterFacts(facts []model.Fact, keep func(model.Fact) bool) []model.Fact {
	var out []model.Fact
	for _, f := range facts {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}
