package report

// ServiceCost is one entry in the ranked high-cost service list.
type ServiceCost struct {
	Service     string  `json:"service"`
	MonthlyCost float64 `json:"monthly_cost"`
}

// FinancialSummary is the deterministic output of the cost analysis engine.
// It is derived from the billing ledger and recomputed fresh on every run,
// never persisted independently of the report.
//
// BudgetVariance follows the total-minus-budget convention: negative when
// the project is under budget.
type FinancialSummary struct {
	TotalMonthlyCost float64            `json:"total_monthly_cost"`
	Budget           float64            `json:"budget"`
	BudgetVariance   float64            `json:"budget_variance"`
	ServiceCosts     map[string]float64 `json:"service_costs"`
	HighCostServices []ServiceCost      `json:"high_cost_services"`
	IsOverBudget     bool               `json:"is_over_budget"`
}

// Recommendation is one cost-optimization item in the final report.
type Recommendation struct {
	Title                string   `json:"title"`
	Service              string   `json:"service"`
	PotentialSavings     float64  `json:"potential_savings"`
	RecommendationType   string   `json:"recommendation_type"`
	Description          string   `json:"description"`
	ImplementationEffort string   `json:"implementation_effort,omitempty"`
	RiskLevel            string   `json:"risk_level,omitempty"`
	Steps                []string `json:"steps,omitempty"`
	CloudProviders       []string `json:"cloud_providers,omitempty"`
}

// Report is the Stage 3 artifact: the cost-optimization report.
type Report struct {
	ProjectName     string           `json:"project_name"`
	Analysis        FinancialSummary `json:"analysis"`
	Recommendations []Recommendation `json:"recommendations"`
}
