package optimizer

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"costpilot/internal/generation"
)

// PrintSummary renders the run result for the console: financial summary,
// recommendations sorted by savings, and the origin of every stage.
func PrintSummary(w io.Writer, out *Outcome) {
	a := out.Report.Analysis

	fmt.Fprintln(w, strings.Repeat("=", 64))
	fmt.Fprintf(w, "  COST OPTIMIZATION REPORT: %s\n", out.Report.ProjectName)
	fmt.Fprintln(w, strings.Repeat("=", 64))

	fmt.Fprintf(w, "  Monthly spend:   INR %s\n", money(a.TotalMonthlyCost))
	fmt.Fprintf(w, "  Monthly budget:  INR %s\n", money(a.Budget))
	if a.IsOverBudget {
		fmt.Fprintf(w, "  Status:          OVER BUDGET by INR %s\n", money(a.BudgetVariance))
	} else {
		fmt.Fprintf(w, "  Status:          under budget by INR %s\n", money(-a.BudgetVariance))
	}

	if len(a.HighCostServices) > 0 {
		fmt.Fprintln(w, "\n  High-cost services:")
		for _, svc := range a.HighCostServices {
			fmt.Fprintf(w, "    %-28s INR %s\n", svc.Service, money(svc.MonthlyCost))
		}
	}

	fmt.Fprintln(w, "\n  Service breakdown:")
	for _, name := range sortedServices(a.ServiceCosts) {
		fmt.Fprintf(w, "    %-28s INR %s\n", name, money(a.ServiceCosts[name]))
	}

	fmt.Fprintf(w, "\n  Recommendations (%d):\n", len(out.Report.Recommendations))
	for i, rec := range out.Report.Recommendations {
		fmt.Fprintf(w, "  %2d. %s [%s]\n", i+1, rec.Title, rec.Service)
		if rec.PotentialSavings > 0 {
			fmt.Fprintf(w, "      potential savings: INR %s/month\n", money(rec.PotentialSavings))
		}
		if rec.Description != "" {
			fmt.Fprintf(w, "      %s\n", rec.Description)
		}
	}

	fmt.Fprintln(w, "\n  Stage origins:")
	for _, stage := range []generation.StageKind{
		generation.StageProfile, generation.StageBilling, generation.StageAnalysis,
	} {
		origin := out.Origins[stage]
		attempts := len(out.AttemptsByStage[stage])
		fmt.Fprintf(w, "    %-10s %s (attempts: %d)\n", stage, origin, attempts)
	}
	fmt.Fprintln(w, strings.Repeat("=", 64))
}

func money(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}

func sortedServices(costs map[string]float64) []string {
	names := make([]string, 0, len(costs))
	for name := range costs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
