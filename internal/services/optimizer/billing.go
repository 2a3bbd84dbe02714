package optimizer

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"costpilot/internal/domain/billing"
	"costpilot/internal/domain/profile"
)

var minLineItemCost = decimal.NewFromInt(10)

// NormalizeToBudget scales the ledger so the month's total lands within a
// small band around the stated budget. The model is told accuracy is not
// critical; the math is fixed here. The jitter factor comes from the project
// seed so normalization is reproducible.
func NormalizeToBudget(records []billing.Record, p profile.ProjectProfile) []billing.Record {
	if p.Budget <= 0 || len(records) == 0 {
		return records
	}

	current := decimal.Zero
	for _, r := range records {
		current = current.Add(decimal.NewFromFloat(r.CostINR))
	}
	if current.IsZero() {
		return records
	}

	rng := rand.New(rand.NewSource(seed(p, "normalize")))
	target := decimal.NewFromFloat(p.Budget * (0.97 + rng.Float64()*0.06))
	scale := target.Div(current)

	out := make([]billing.Record, len(records))
	for i, r := range records {
		cost := decimal.NewFromFloat(r.CostINR).Mul(scale).Round(2)
		if cost.LessThan(minLineItemCost) {
			cost = minLineItemCost
		}
		r.CostINR = cost.InexactFloat64()
		out[i] = r
	}
	return out
}

// FoldSQLite merges Database line items into the Compute records for SQLite
// projects: the database runs on the compute instances, so its cost belongs
// there. The ledger total is preserved exactly. When there are no Compute
// records to absorb the cost, the ledger is returned unchanged.
func FoldSQLite(records []billing.Record) []billing.Record {
	dbTotal := decimal.Zero
	var kept []billing.Record
	computeCount := 0
	for _, r := range records {
		if r.Service == "Database" {
			dbTotal = dbTotal.Add(decimal.NewFromFloat(r.CostINR))
			continue
		}
		if r.Service == "Compute" {
			computeCount++
		}
		kept = append(kept, r)
	}

	if dbTotal.IsZero() || computeCount == 0 {
		return records
	}

	share := dbTotal.Div(decimal.NewFromInt(int64(computeCount))).Round(2)
	remaining := dbTotal
	seen := 0
	for i := range kept {
		if kept[i].Service != "Compute" {
			continue
		}
		seen++
		add := share
		if seen == computeCount {
			add = remaining // last record takes the rounding remainder
		}
		remaining = remaining.Sub(add)
		kept[i].CostINR = decimal.NewFromFloat(kept[i].CostINR).Add(add).Round(2).InexactFloat64()
	}
	return kept
}
