package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"costpilot/internal/domain/report"
)

func testSummary() report.FinancialSummary {
	return report.FinancialSummary{
		TotalMonthlyCost: 50000,
		Budget:           50000,
		ServiceCosts: map[string]float64{
			"Compute":    20000,
			"Database":   15000,
			"Storage":    8000,
			"Networking": 5000,
			"Monitoring": 2000,
		},
	}
}

func TestPostProcess_DropsUnbilledServices(t *testing.T) {
	p := testProfile(50000, map[string]string{"backend": "Node.js", "database": "PostgreSQL"})
	raw := []report.Recommendation{
		{Title: "Use Spot For Batch Jobs", Service: "Lambda", PotentialSavings: 500, RecommendationType: "rightsizing"},
		{Title: "Rightsize Compute Instances", Service: "Compute", PotentialSavings: 4000, RecommendationType: "rightsizing"},
	}

	out := postProcessRecommendations(raw, p, testSummary(), FallbackGenerator{})

	for _, r := range out {
		assert.NotEqual(t, "Lambda", r.Service, "unbilled service must be dropped")
	}
}

func TestPostProcess_ClampsSavingsToServiceCost(t *testing.T) {
	p := testProfile(50000, map[string]string{"backend": "Node.js", "database": "PostgreSQL"})
	raw := []report.Recommendation{
		{Title: "Trim Monitoring Costs Aggressively", Service: "Monitoring", PotentialSavings: 99999, RecommendationType: "lifecycle"},
	}

	out := postProcessRecommendations(raw, p, testSummary(), FallbackGenerator{})

	for _, r := range out {
		if r.Title == "Trim Monitoring Costs Aggressively" {
			assert.LessOrEqual(t, r.PotentialSavings, 2000.0)
		}
	}
}

func TestPostProcess_RemovesBannedAndDuplicates(t *testing.T) {
	p := testProfile(50000, map[string]string{"backend": "Node.js", "database": "PostgreSQL"})
	raw := []report.Recommendation{
		{Title: "Enable Transfer Acceleration", Service: "Networking", PotentialSavings: 100, RecommendationType: "networking"},
		{Title: "Rightsize Compute Instances", Service: "Compute", PotentialSavings: 4000, RecommendationType: "rightsizing"},
		{Title: "Rightsize compute instances now", Service: "Compute", PotentialSavings: 3000, RecommendationType: "rightsizing"},
	}

	out := postProcessRecommendations(raw, p, testSummary(), FallbackGenerator{})

	var rightsize, banned int
	for _, r := range out {
		if dedupeKey(r.Title) == dedupeKey("Rightsize Compute Instances") {
			rightsize++
		}
		if banned == 0 && r.Title == "Enable Transfer Acceleration" {
			banned++
		}
	}
	assert.Equal(t, 1, rightsize, "near-duplicate titles collapse to one")
	assert.Zero(t, banned)
}

func TestPostProcess_SQLiteDropsDatabaseItems(t *testing.T) {
	p := testProfile(20000, map[string]string{"backend": "Flask", "database": "SQLite"})
	summary := report.FinancialSummary{
		TotalMonthlyCost: 20000,
		Budget:           20000,
		ServiceCosts: map[string]float64{
			"Compute":  14000,
			"Storage":  4000,
			"Database": 2000,
		},
	}
	raw := []report.Recommendation{
		{Title: "Purchase Reserved Database Capacity", Service: "Database", PotentialSavings: 500, RecommendationType: "reserved_capacity"},
	}

	out := postProcessRecommendations(raw, p, summary, FallbackGenerator{})

	for _, r := range out {
		assert.NotEqual(t, "Database", r.Service)
	}
}

func TestPostProcess_FillsToFloorAndCapsCount(t *testing.T) {
	p := testProfile(50000, map[string]string{"backend": "Node.js", "database": "PostgreSQL"})

	out := postProcessRecommendations(nil, p, testSummary(), FallbackGenerator{})
	assert.GreaterOrEqual(t, len(out), minRecommendations, "fallback catalog fills the floor")
	assert.LessOrEqual(t, len(out), maxRecommendations)
}

func TestPostProcess_AggregateSavingsCap(t *testing.T) {
	p := testProfile(50000, map[string]string{"backend": "Node.js", "database": "PostgreSQL"})
	raw := []report.Recommendation{
		{Title: "Rightsize Compute Instances", Service: "Compute", PotentialSavings: 18000, RecommendationType: "rightsizing"},
		{Title: "Evaluate Open-Source Database", Service: "Database", PotentialSavings: 14000, RecommendationType: "open_source"},
		{Title: "Apply Storage Lifecycle Policies", Service: "Storage", PotentialSavings: 7000, RecommendationType: "lifecycle"},
		{Title: "Release Unused IPs", Service: "Networking", PotentialSavings: 4000, RecommendationType: "cleanup"},
		{Title: "Trim Metric Retention", Service: "Monitoring", PotentialSavings: 1900, RecommendationType: "lifecycle"},
		{Title: "Schedule Off-Hours Shutdown", Service: "Compute", PotentialSavings: 1500, RecommendationType: "scheduling"},
	}

	out := postProcessRecommendations(raw, p, testSummary(), FallbackGenerator{})

	var total float64
	for _, r := range out {
		total += r.PotentialSavings
	}
	assert.LessOrEqual(t, total, 50000*maxSavingsShare+1,
		"aggregate savings stay within the plausibility cap")
}

func TestPostProcess_SortedBySavings(t *testing.T) {
	p := testProfile(50000, map[string]string{"backend": "Node.js", "database": "PostgreSQL"})
	raw := []report.Recommendation{
		{Title: "Release Unused IPs", Service: "Networking", PotentialSavings: 300, RecommendationType: "cleanup"},
		{Title: "Rightsize Compute Instances", Service: "Compute", PotentialSavings: 4000, RecommendationType: "rightsizing"},
		{Title: "Apply Storage Lifecycle Policies", Service: "Storage", PotentialSavings: 1200, RecommendationType: "lifecycle"},
		{Title: "Evaluate Open-Source Database", Service: "Database", PotentialSavings: 3500, RecommendationType: "open_source"},
		{Title: "Trim Metric Retention", Service: "Monitoring", PotentialSavings: 200, RecommendationType: "lifecycle"},
		{Title: "Schedule Off-Hours Shutdown", Service: "Compute", PotentialSavings: 1500, RecommendationType: "scheduling"},
	}

	out := postProcessRecommendations(raw, p, testSummary(), FallbackGenerator{})

	require.GreaterOrEqual(t, len(out), 6)
	for i := 1; i < 6; i++ {
		assert.GreaterOrEqual(t, out[i-1].PotentialSavings, out[i].PotentialSavings)
	}
}

func TestPostProcess_DefaultsDescription(t *testing.T) {
	p := testProfile(50000, map[string]string{"backend": "Node.js", "database": "PostgreSQL"})
	raw := []report.Recommendation{
		{Title: "Rightsize Compute Instances", Service: "Compute", PotentialSavings: 4000, RecommendationType: "rightsizing"},
	}

	out := postProcessRecommendations(raw, p, testSummary(), FallbackGenerator{})

	for _, r := range out {
		assert.NotEmpty(t, r.Description)
	}
}
