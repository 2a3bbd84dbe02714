package optimizer

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"costpilot/internal/domain/profile"
	"costpilot/internal/domain/report"
)

// Aggregate savings above this share of the monthly total are considered
// over-optimistic and scaled down.
const maxSavingsShare = 0.35

var bannedTitles = []string{"transfer acceleration"}

// postProcessRecommendations cleans stage output into the final report list:
// drops empty, banned, duplicate and unknown-service items, clamps savings to
// the service's cost share, caps aggregate savings, and fills up to the floor
// from the deterministic fallback catalog. The result always references only
// services present in the billing ledger.
func postProcessRecommendations(
	raw []report.Recommendation,
	p profile.ProjectProfile,
	summary report.FinancialSummary,
	fb FallbackGenerator,
) []report.Recommendation {
	isSQLite := p.UsesSQLite()

	var cleaned []report.Recommendation
	seen := make(map[string]bool)

	for _, r := range raw {
		title := strings.TrimSpace(r.Title)
		if title == "" {
			continue
		}
		key := dedupeKey(title)
		if seen[key] {
			continue
		}
		if banned(title) {
			continue
		}
		if isSQLite && r.Service == "Database" {
			continue
		}

		// No recommendation may reference a service absent from the ledger.
		svcCost, billed := summary.ServiceCosts[r.Service]
		if !billed {
			continue
		}

		if r.PotentialSavings < 0 {
			r.PotentialSavings = 0
		}
		if r.PotentialSavings > svcCost {
			r.PotentialSavings = svcCost
		}
		if r.Description == "" {
			r.Description = "Optimization for " + r.Service + "."
		}

		isGovernance := strings.Contains(strings.ToLower(r.RecommendationType), "governance")
		if r.PotentialSavings > 0 || isGovernance {
			r.Title = title
			cleaned = append(cleaned, r)
			seen[key] = true
		}
	}

	sort.SliceStable(cleaned, func(i, j int) bool {
		return cleaned[i].PotentialSavings > cleaned[j].PotentialSavings
	})

	cleaned = capAggregateSavings(cleaned, summary.TotalMonthlyCost)

	// Fill gaps from the fallback catalog to reach the report floor.
	if len(cleaned) < minRecommendations {
		for _, d := range fb.Recommendations(p, summary) {
			if len(cleaned) >= minRecommendations {
				break
			}
			key := dedupeKey(d.Title)
			if seen[key] {
				continue
			}
			seen[key] = true
			cleaned = append(cleaned, d)
		}
	}

	if len(cleaned) > maxRecommendations {
		cleaned = cleaned[:maxRecommendations]
	}
	return cleaned
}

// capAggregateSavings scales every item down when the combined claim exceeds
// the cap share of the monthly total.
func capAggregateSavings(recs []report.Recommendation, monthlyTotal float64) []report.Recommendation {
	if monthlyTotal <= 0 {
		return recs
	}

	total := decimal.Zero
	for _, r := range recs {
		total = total.Add(decimal.NewFromFloat(r.PotentialSavings))
	}
	cap := decimal.NewFromFloat(monthlyTotal * maxSavingsShare)
	if total.LessThanOrEqual(cap) || total.IsZero() {
		return recs
	}

	scale := cap.Div(total)
	for i := range recs {
		recs[i].PotentialSavings = decimal.NewFromFloat(recs[i].PotentialSavings).
			Mul(scale).Round(2).InexactFloat64()
	}
	return recs
}

func dedupeKey(title string) string {
	key := strings.ToLower(title)
	if len(key) > 15 {
		key = key[:15]
	}
	return key
}

func banned(title string) bool {
	lower := strings.ToLower(title)
	for _, b := range bannedTitles {
		if strings.Contains(lower, b) {
			return true
		}
	}
	return false
}
