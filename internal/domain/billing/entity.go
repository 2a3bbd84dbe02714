package billing

// Record is a single simulated billing line item. Field names match the
// persisted mock_billing.json document and must stay stable.
type Record struct {
	Month         string  `json:"month"`
	Service       string  `json:"service"`
	ResourceID    string  `json:"resource_id"`
	Region        string  `json:"region"`
	UsageType     string  `json:"usage_type"`
	UsageQuantity float64 `json:"usage_quantity"`
	Unit          string  `json:"unit"`
	CostINR       float64 `json:"cost_inr"`
	Desc          string  `json:"desc"`
}

// Services returns the distinct service names present in the ledger,
// in first-seen order.
func Services(records []Record) []string {
	seen := make(map[string]bool, len(records))
	var out []string
	for _, r := range records {
		if !seen[r.Service] {
			seen[r.Service] = true
			out = append(out, r.Service)
		}
	}
	return out
}

// Months returns the distinct months present in the ledger, in first-seen
// order.
func Months(records []Record) []string {
	seen := make(map[string]bool, len(records))
	var out []string
	for _, r := range records {
		if !seen[r.Month] {
			seen[r.Month] = true
			out = append(out, r.Month)
		}
	}
	return out
}
