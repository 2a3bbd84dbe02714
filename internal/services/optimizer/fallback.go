package optimizer

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"costpilot/internal/domain/billing"
	"costpilot/internal/domain/profile"
	"costpilot/internal/domain/report"
)

// FallbackGenerator produces schema-valid documents deterministically,
// without external calls. Every method is a pure function of its inputs:
// the random source is seeded from the project parameters, so identical
// inputs always yield byte-identical output.
type FallbackGenerator struct{}

// resourceNamespace seeds the SHA1-namespaced UUIDs used for resource ids.
var resourceNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

const defaultRegion = "ap-south-1"

var (
	budgetCurrencyRe = regexp.MustCompile(`(?i)(?:rs\.?|inr|₹)\s*([\d,]+)`)
	budgetSuffixRe   = regexp.MustCompile(`(?i)([\d,]+)\s*(?:rupees|rs)`)
)

// seed derives a deterministic random seed from the project parameters and
// a stage label.
func seed(p profile.ProjectProfile, labels ...string) int64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%.2f|", p.Budget)

	keys := make([]string, 0, len(p.TechStack))
	for k := range p.TechStack {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%s|", k, p.TechStack[k])
	}
	for _, l := range labels {
		fmt.Fprintf(h, "%s|", l)
	}
	return int64(h.Sum64())
}

// --- Stage 1: profile ---

type stackRule struct {
	keyword  string
	category string
	tech     string
}

// Ordered: for each category the first matching keyword wins.
var stackRules = []stackRule{
	{"react", "frontend", "React"},
	{"vue", "frontend", "Vue.js"},
	{"angular", "frontend", "Angular"},
	{"next.js", "frontend", "Next.js"},
	{"node", "backend", "Node.js"},
	{"django", "backend", "Django"},
	{"flask", "backend", "Flask"},
	{"spring", "backend", "Spring Boot"},
	{"rails", "backend", "Rails"},
	{"laravel", "backend", "Laravel"},
	{"postgres", "database", "PostgreSQL"},
	{"mysql", "database", "MySQL"},
	{"mongodb", "database", "MongoDB"},
	{"sqlite", "database", "SQLite"},
	{"redis", "cache", "Redis"},
	{"memcached", "cache", "Memcached"},
	{"kafka", "messaging", "Kafka"},
	{"rabbitmq", "messaging", "RabbitMQ"},
	{"object storage", "storage", "Object Storage"},
	{"s3", "storage", "Object Storage"},
	{"kubernetes", "infrastructure", "Kubernetes"},
	{"docker", "infrastructure", "Docker"},
}

// Maps high-level requirement concepts to synonyms found in text.
var nfrConcepts = map[string][]string{
	"Scalability":       {"scalab", "scale"},
	"Cost Efficiency":   {"cost", "cost-effective", "cost efficient"},
	"High Availability": {"availability", "high-availability", "uptime"},
	"Security":          {"security", "secure", "authentication", "authorization", "compliance", "hipaa"},
	"Disaster Recovery": {"disaster", "recovery", "backup", "failover"},
	"Monitoring":        {"monitor", "monitoring", "observability"},
}

// Profile derives a structured profile from the raw description alone:
// keyword tech-stack extraction, regex budget preference, first sentence as
// the summary.
func (FallbackGenerator) Profile(description string) profile.ProjectProfile {
	stack := make(map[string]string)
	lower := strings.ToLower(description)
	for _, rule := range stackRules {
		if _, done := stack[rule.category]; done {
			continue
		}
		if strings.Contains(lower, rule.keyword) {
			stack[rule.category] = rule.tech
		}
	}

	var nfrs []string
	for concept, keywords := range nfrConcepts {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				nfrs = append(nfrs, concept)
				break
			}
		}
	}
	sort.Strings(nfrs)
	if nfrs == nil {
		nfrs = []string{}
	}

	return profile.ProjectProfile{
		Name:                      deriveName(description),
		Budget:                    ExtractBudget(description),
		Description:               FirstSentence(description),
		TechStack:                 stack,
		NonFunctionalRequirements: nfrs,
	}
}

// ExtractBudget prefers an explicit INR amount in the text; otherwise it
// estimates from the description size: small projects 10000, medium 50000.
func ExtractBudget(description string) float64 {
	if v, ok := explicitBudget(description); ok {
		return v
	}
	if len(strings.Fields(description)) < 50 {
		return 10000
	}
	return 50000
}

// explicitBudget reports a budget figure spelled out in the text, matching
// either a currency prefix ("Rs. 50,000", "INR 50000") or a per-month
// suffix ("50000 per month").
func explicitBudget(description string) (float64, bool) {
	m := budgetCurrencyRe.FindStringSubmatch(description)
	if m == nil {
		m = budgetSuffixRe.FindStringSubmatch(description)
	}
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// FirstSentence returns the first sentence of the text, trimmed.
func FirstSentence(text string) string {
	for _, sep := range []string{".", "\n"} {
		if i := strings.Index(text, sep); i > 0 {
			return strings.TrimSpace(text[:i])
		}
	}
	return strings.TrimSpace(text)
}

func deriveName(description string) string {
	words := strings.Fields(FirstSentence(description))
	if len(words) == 0 {
		return "Cloud Project"
	}
	if len(words) > 3 {
		words = words[:3]
	}
	for i, w := range words {
		words[i] = titleWord(strings.Trim(w, ",.;:"))
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	if w == "" {
		return w
	}
	w = strings.ToLower(w)
	return strings.ToUpper(w[:1]) + w[1:]
}

// --- Stage 2: billing ---

type serviceAlloc struct {
	service   string
	weight    float64
	prefix    string
	usageType string
	unit      string
	baseQty   float64
	desc      string
}

// Billing distributes the budget over the declared stack plus baseline
// infrastructure services for a single month. Record count always lands in
// [minBillingRecords, maxBillingRecords]; the total cost lands within a
// small band around the budget; resource ids never repeat.
func (FallbackGenerator) Billing(p profile.ProjectProfile, month string) []billing.Record {
	rng := rand.New(rand.NewSource(seed(p, "billing", month)))

	budget := p.Budget
	if budget <= 0 {
		budget = 10000
	}

	allocs := []serviceAlloc{
		{"Compute", 0.40, "i", "On-Demand Linux", "hours", 720, "App server fleet"},
		{"Database", 0.30, "db", "Managed DB Standard", "hours", 720, "Primary DB instance"},
		{"Storage", 0.15, "vol", "Standard Storage", "GB-Mo", 500, "Object storage"},
		{"Networking", 0.10, "net", "Data Transfer Out", "GB", 1000, "Data transfer"},
		{"Monitoring", 0.05, "mon", "Metrics", "Reqs", 1000000, "Metrics and alarms"},
	}

	// SQLite runs on the compute instance: no managed database line items,
	// its share folds into Compute.
	if p.UsesSQLite() || p.TechStack["database"] == "" {
		allocs = append(allocs[:1], allocs[2:]...)
		allocs[0].weight += 0.30
	}
	if _, ok := p.TechStack["cache"]; ok {
		allocs[0].weight -= 0.06
		allocs = append(allocs, serviceAlloc{"Cache", 0.06, "cache", "In-Memory Node", "hours", 720, "Managed cache node"})
	}

	target := minBillingRecords + rng.Intn(maxBillingRecords-minBillingRecords-3) // 12..16
	counts := splitCount(target, allocs)

	targetCost := decimal.NewFromFloat(budget * (0.98 + rng.Float64()*0.04))

	var records []billing.Record
	for ai, a := range allocs {
		svcCost := targetCost.Mul(decimal.NewFromFloat(a.weight)).Round(2)
		remaining := svcCost
		n := counts[ai]
		for i := 0; i < n; i++ {
			var cost decimal.Decimal
			if i == n-1 {
				cost = remaining
			} else {
				share := (1.0 / float64(n)) * (0.85 + rng.Float64()*0.3)
				cost = svcCost.Mul(decimal.NewFromFloat(share)).Round(2)
			}
			if cost.LessThan(decimal.NewFromInt(10)) {
				cost = decimal.NewFromInt(10)
			}
			remaining = remaining.Sub(cost)

			qty := a.baseQty * (0.8 + rng.Float64()*0.4)
			records = append(records, billing.Record{
				Month:         month,
				Service:       a.service,
				ResourceID:    resourceID(p.Name, a.prefix, a.service, i),
				Region:        defaultRegion,
				UsageType:     a.usageType,
				UsageQuantity: decimal.NewFromFloat(qty).Round(0).InexactFloat64(),
				Unit:          a.unit,
				CostINR:       cost.InexactFloat64(),
				Desc:          fmt.Sprintf("%s %02d", a.desc, i+1),
			})
		}
	}
	return records
}

// splitCount distributes the record count over the allocations by weight,
// at least one record per service.
func splitCount(target int, allocs []serviceAlloc) []int {
	counts := make([]int, len(allocs))
	assigned := 0
	for i, a := range allocs {
		counts[i] = 1 + int(float64(target-len(allocs))*a.weight)
		assigned += counts[i]
	}
	// Round-robin the remainder into the heaviest services first.
	for i := 0; assigned < target; i = (i + 1) % len(allocs) {
		counts[i]++
		assigned++
	}
	return counts
}

// resourceID builds a plausible, non-repeating identifier. The SHA1
// namespace keeps it deterministic; the index keeps it unique.
func resourceID(project, prefix, service string, index int) string {
	id := uuid.NewSHA1(resourceNamespace, []byte(fmt.Sprintf("%s|%s|%d", project, service, index)))
	return fmt.Sprintf("%s-%s-prod-%02d-%s", prefix, strings.ToLower(service), index+1, id.String()[:8])
}

// --- Stage 3: recommendations ---

type recTemplate struct {
	match   string // matched against the service name, lowercased
	title   string
	recType string
	desc    string
	effort  string
	risk    string
	frac    float64 // fraction of the service's cost saved; 0 = governance
	steps   []string
}

var recTemplates = []recTemplate{
	{"compute", "Rightsize Compute Instances", "rightsizing",
		"Move underutilized instances to smaller instance types.", "medium", "low", 0.20,
		[]string{"Review utilization metrics", "Resize or consolidate instances"}},
	{"compute", "Schedule Off-Hours Shutdown", "scheduling",
		"Stop non-production compute outside working hours.", "low", "low", 0.12,
		[]string{"Tag non-production instances", "Apply start/stop schedule"}},
	{"database", "Evaluate Open-Source Database", "open_source",
		"Replace the managed database with a self-managed open-source deployment.", "high", "medium", 0.25,
		[]string{"Assess workload compatibility", "Migrate with a verified backup", "Update connection strings"}},
	{"database", "Purchase Reserved Capacity", "reserved_capacity",
		"Commit to one-year reserved database capacity for the steady-state load.", "low", "low", 0.15,
		[]string{"Measure steady-state usage", "Purchase reservation"}},
	{"storage", "Apply Storage Lifecycle Policies", "lifecycle",
		"Transition cold objects to infrequent-access tiers and expire stale data.", "low", "low", 0.18,
		[]string{"Classify data by access pattern", "Configure lifecycle rules"}},
	{"storage", "Delete Unattached Volumes", "cleanup",
		"Remove orphaned volumes and old snapshots.", "low", "low", 0.10,
		[]string{"Scan for unattached volumes", "Snapshot then delete"}},
	{"networking", "Release Unused IPs", "cleanup",
		"Release unattached static IP addresses.", "low", "low", 0.10,
		[]string{"List unattached addresses", "Release them"}},
	{"cache", "Tune Cache TTLs", "rightsizing",
		"Shrink the cache node by tuning TTLs and eviction policy.", "medium", "low", 0.15,
		[]string{"Review hit rate", "Adjust TTLs", "Downsize node"}},
	{"monitoring", "Trim Metric Retention", "lifecycle",
		"Shorten retention for high-cardinality metrics and disable unused alarms.", "low", "low", 0.10,
		[]string{"Audit metric usage", "Reduce retention windows"}},
	{"", "Configure Cloud Budget Alerts", "governance",
		"Set strict budget thresholds with alerts at 80% of the monthly budget.", "low", "low", 0,
		[]string{"Create a budget", "Set alert at 80%"}},
	{"", "Enable Resource Tagging", "governance",
		"Tag every resource by project and owner for cost attribution.", "low", "low", 0,
		[]string{"Define a tag policy", "Apply tags to all resources"}},
	{"", "Set Data Retention Policy", "governance",
		"Automatically delete logs and temporary data past their useful life.", "low", "low", 0,
		[]string{"Define retention windows", "Configure lifecycle deletion"}},
	{"", "Enforce Least-Privilege IAM", "governance",
		"Audit roles and strip unused permissions from service accounts.", "medium", "medium", 0,
		[]string{"Review role usage", "Remove unused grants"}},
	{"", "Schedule Weekly Cost Review", "governance",
		"Review the cost dashboard weekly and flag anomalies early.", "low", "low", 0,
		[]string{"Create a recurring review", "Track anomalies to closure"}},
}

// Recommendations derives 6-10 items from the ranked service costs. Every
// item references a service actually present in the ledger and never claims
// savings above that service's cost share.
func (FallbackGenerator) Recommendations(p profile.ProjectProfile, summary report.FinancialSummary) []report.Recommendation {
	rng := rand.New(rand.NewSource(seed(p, "analysis")))
	cloud := string(p.PrimaryCloud())

	ranked := rankedServices(summary.ServiceCosts)
	if len(ranked) == 0 {
		return nil
	}

	target := minRecommendations + rng.Intn(3)

	var recs []report.Recommendation
	used := make(map[string]bool)

	// Service-specific items first, costliest services first.
	for _, svc := range ranked {
		for _, tpl := range recTemplates {
			if tpl.match == "" || !strings.Contains(strings.ToLower(svc.Service), tpl.match) {
				continue
			}
			if used[tpl.title] || len(recs) >= target {
				continue
			}
			used[tpl.title] = true

			cost := decimal.NewFromFloat(svc.MonthlyCost)
			savings := cost.Mul(decimal.NewFromFloat(tpl.frac)).Round(2)
			if savings.GreaterThan(cost) {
				savings = cost
			}
			recs = append(recs, newRecommendation(tpl, svc.Service, savings.InexactFloat64(), cloud))
		}
	}

	// Governance items fill the gap, attached to real billed services.
	for _, tpl := range recTemplates {
		if len(recs) >= target {
			break
		}
		if tpl.match != "" || used[tpl.title] {
			continue
		}
		used[tpl.title] = true
		recs = append(recs, newRecommendation(tpl, ranked[0].Service, 0, cloud))
	}

	// Generic per-service items guarantee the floor even when no template
	// matched the ledger's service names.
	for _, svc := range ranked {
		if len(recs) >= target {
			break
		}
		title := fmt.Sprintf("Audit %s Spend", svc.Service)
		if used[title] {
			continue
		}
		used[title] = true
		savings := decimal.NewFromFloat(svc.MonthlyCost).Mul(decimal.NewFromFloat(0.05 + rng.Float64()*0.05)).Round(2)
		recs = append(recs, report.Recommendation{
			Title:                title,
			Service:              svc.Service,
			PotentialSavings:     savings.InexactFloat64(),
			RecommendationType:   "cleanup",
			Description:          fmt.Sprintf("Review %s line items for idle or oversized resources.", svc.Service),
			ImplementationEffort: "low",
			RiskLevel:            "low",
			Steps:                []string{"List resources by cost", "Flag idle resources", "Decommission or downsize"},
			CloudProviders:       []string{cloud},
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].PotentialSavings > recs[j].PotentialSavings
	})
	return recs
}

func newRecommendation(tpl recTemplate, service string, savings float64, cloud string) report.Recommendation {
	return report.Recommendation{
		Title:                tpl.title,
		Service:              service,
		PotentialSavings:     savings,
		RecommendationType:   tpl.recType,
		Description:          tpl.desc,
		ImplementationEffort: tpl.effort,
		RiskLevel:            tpl.risk,
		Steps:                tpl.steps,
		CloudProviders:       []string{cloud},
	}
}

// rankedServices orders the per-service costs descending, names breaking
// ties, so fallback output stays deterministic.
func rankedServices(serviceCosts map[string]float64) []report.ServiceCost {
	out := make([]report.ServiceCost, 0, len(serviceCosts))
	for svc, cost := range serviceCosts {
		out = append(out, report.ServiceCost{Service: svc, MonthlyCost: cost})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MonthlyCost != out[j].MonthlyCost {
			return out[i].MonthlyCost > out[j].MonthlyCost
		}
		return out[i].Service < out[j].Service
	})
	return out
}
