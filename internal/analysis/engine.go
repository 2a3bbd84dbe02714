// Package analysis implements the deterministic cost-analysis engine.
// It is pure aggregation over the billing ledger: same input, same summary.
package analysis

import (
	"sort"

	"github.com/shopspring/decimal"

	"costpilot/internal/domain/billing"
	"costpilot/internal/domain/report"
)

// Engine aggregates a billing ledger into a financial summary.
type Engine struct {
	// highCostShare is the relative threshold above which a service is
	// flagged as high-cost (share of total).
	highCostShare decimal.Decimal

	// highCostFloor is the absolute monthly cost (INR) above which a
	// service is flagged regardless of share.
	highCostFloor decimal.Decimal
}

// NewEngine creates an engine with the default thresholds: 5% of total
// or 10000 INR absolute.
func NewEngine() *Engine {
	return &Engine{
		highCostShare: decimal.NewFromFloat(0.05),
		highCostFloor: decimal.NewFromInt(10000),
	}
}

// Analyze groups the ledger by service and derives the financial summary.
//
// Invariants held here, not downstream:
//   - TotalMonthlyCost equals the sum of cost_inr over all records,
//     rounded to the two-decimal currency unit.
//   - IsOverBudget iff TotalMonthlyCost > Budget.
//   - BudgetVariance = total - budget (negative when under budget).
func (e *Engine) Analyze(records []billing.Record, budget float64) report.FinancialSummary {
	total := decimal.Zero
	perService := make(map[string]decimal.Decimal)
	for _, r := range records {
		cost := decimal.NewFromFloat(r.CostINR)
		total = total.Add(cost)
		perService[r.Service] = perService[r.Service].Add(cost)
	}

	total = total.Round(2)
	budgetDec := decimal.NewFromFloat(budget)
	variance := total.Sub(budgetDec).Round(2)

	serviceCosts := make(map[string]float64, len(perService))
	for svc, cost := range perService {
		serviceCosts[svc] = cost.Round(2).InexactFloat64()
	}

	return report.FinancialSummary{
		TotalMonthlyCost: total.InexactFloat64(),
		Budget:           budgetDec.InexactFloat64(),
		BudgetVariance:   variance.InexactFloat64(),
		ServiceCosts:     serviceCosts,
		HighCostServices: e.highCost(perService, total),
		IsOverBudget:     total.GreaterThan(budgetDec),
	}
}

// highCost returns the services whose aggregated cost exceeds the relative
// threshold or the absolute floor, ranked by cost descending. Ties break by
// service name so the ranking is stable.
func (e *Engine) highCost(perService map[string]decimal.Decimal, total decimal.Decimal) []report.ServiceCost {
	threshold := total.Mul(e.highCostShare)

	var ranked []report.ServiceCost
	for svc, cost := range perService {
		if cost.GreaterThan(threshold) || cost.GreaterThanOrEqual(e.highCostFloor) {
			ranked = append(ranked, report.ServiceCost{
				Service:     svc,
				MonthlyCost: cost.Round(2).InexactFloat64(),
			})
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].MonthlyCost != ranked[j].MonthlyCost {
			return ranked[i].MonthlyCost > ranked[j].MonthlyCost
		}
		return ranked[i].Service < ranked[j].Service
	})
	return ranked
}
