package optimizer

import (
	"encoding/json"
	"fmt"
	"strings"

	"costpilot/internal/domain/profile"
	"costpilot/internal/domain/report"
)

// buildProfilePrompt asks the model to extract a strict JSON profile from the
// free-text description.
func buildProfilePrompt(description string) string {
	return fmt.Sprintf(`You are an expert cloud architect.

Extract a STRICT JSON object from the project description below.

RULES:
- Output ONLY valid JSON (no markdown, no comments, no extra text)
- Do NOT invent technologies
- Extract ONLY technologies explicitly mentioned in the description
- budget MUST be a number (monthly INR)

REQUIRED JSON STRUCTURE:
{
  "name": "Concise project name (2-4 words)",
  "budget": 0,
  "description": "One-line summary of the project",
  "tech_stack": {},
  "non_functional_requirements": []
}

TECH STACK RULES:
- Populate tech_stack as dynamic key-value pairs
- Example: if React is mentioned -> "frontend": "React"
- Do NOT include unused or missing technologies
- Do NOT add empty values

NON-FUNCTIONAL REQUIREMENTS RULES:
- Extract explicitly mentioned REQUIREMENTS and METRICS
- Look for: Data volume (TB/PB), Traffic patterns, Compliance, or Usage
- ONLY include requirements explicitly stated in the text
- If nothing is mentioned, return an empty list []
- Use Title Case strings

BUDGET RULE:
- If explicitly mentioned, extract exactly
- Otherwise estimate: Small = 10000, Medium = 50000

Project Description:
%s

Return ONLY the JSON object.`, description)
}

// buildBillingPrompt asks the model for a single-month simulated invoice.
// The cloud provider is resolved from the profile and stated explicitly so
// the model never falls back to an assumed default.
func buildBillingPrompt(p profile.ProjectProfile, month string) string {
	stack, _ := json.Marshal(p.TechStack)
	cloud := p.PrimaryCloud()

	dbNote := ""
	if p.UsesSQLite() {
		dbNote = "Yes (No Database costs)"
	} else {
		dbNote = "No (include Database records)"
	}

	return fmt.Sprintf(`You are a Cloud Billing Simulation Engine.
Generate a realistic JSON billing invoice for a cloud project.

PROJECT CONTEXT:
- Name: "%s"
- Tech Stack: %s
- Budget Goal: ~%.0f INR for the month
- Billing Month: %s
- Uses SQLite? %s
- PRIMARY CLOUD PROVIDER: %s

INSTRUCTIONS:
1. Generate between %d and %d billing records, all for month %s.
2. STRICTLY use services valid for %s (e.g., if AWS use EC2/S3/RDS; if Azure use VMs/Blob/SQL).
3. Use REALISTIC resource names and descriptions (e.g., "db-prod-replica-01", "High-IOPS SSD").
4. Services to include: Compute, Storage, Networking, Monitoring.
5. COSTING: aim for the monthly budget; accuracy is not critical (math is fixed later).

REQUIRED JSON STRUCTURE:
[
  {
    "month": "%s",
    "service": "EC2",
    "resource_id": "i-web-prod-01",
    "region": "ap-south-1",
    "usage_type": "Linux/UNIX (on-demand)",
    "usage_quantity": 720,
    "unit": "hours",
    "cost_inr": 900,
    "desc": "Web server"
  }
]

Return ONLY the JSON array.`,
		p.Name, stack, p.Budget, month, dbNote, cloud,
		minBillingRecords, maxBillingRecords, month, cloud, month)
}

// buildAnalysisPrompt embeds the engine's financial summary so
// recommendations reference real, internally-consistent figures.
func buildAnalysisPrompt(p profile.ProjectProfile, summary report.FinancialSummary) string {
	stack, _ := json.Marshal(p.TechStack)
	breakdown, _ := json.Marshal(summary.ServiceCosts)
	cloud := p.PrimaryCloud()

	status := "UNDER"
	if summary.IsOverBudget {
		status = "OVER"
	}

	services := make([]string, 0, len(summary.ServiceCosts))
	for svc := range summary.ServiceCosts {
		services = append(services, svc)
	}

	return fmt.Sprintf(`You are a cloud cost optimization expert. Analyze the billing data and generate %d-%d optimization recommendations.

Project: %s
Stack: %s
Reqs: %s
Primary Cloud: %s

Cost Context:
- Monthly total: %.2f INR
- Budget: %.2f INR (%s budget, variance %.2f)

Service Breakdown: %s

INSTRUCTIONS:
1. Generate %d-%d items. Mix Technical, Governance, and Cleanup types.
2. Every "service" value MUST be one of the billed services: %s.
3. potential_savings must be a non-negative number, never more than that service's cost.
4. For "Rightsizing" and "Cleanup", use services native to %s.
5. Anti-Patterns: no "Transfer Acceleration", no "SQLite DB Optimization".

Output JSON list ONLY. Format:
[{
  "title": "Rightsize Compute Instances",
  "service": "Compute",
  "potential_savings": 450,
  "recommendation_type": "rightsizing",
  "description": "Move underutilized instances to smaller types.",
  "implementation_effort": "medium",
  "risk_level": "low",
  "steps": ["Review utilization metrics", "Resize instances"],
  "cloud_providers": ["AWS"]
}]`,
		minRecommendations, maxRecommendations,
		p.Name, stack, strings.Join(p.NonFunctionalRequirements, ", "), cloud,
		summary.TotalMonthlyCost, summary.Budget, status, summary.BudgetVariance,
		breakdown,
		minRecommendations, maxRecommendations,
		strings.Join(services, ", "), cloud)
}
