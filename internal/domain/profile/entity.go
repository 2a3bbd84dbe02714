package profile

import "strings"

// ProjectProfile is the Stage 1 artifact: a structured technical profile
// extracted from a free-text project description.
type ProjectProfile struct {
	Name                      string            `json:"name"`
	Budget                    float64           `json:"budget"`
	Description               string            `json:"description"`
	TechStack                 map[string]string `json:"tech_stack"`
	NonFunctionalRequirements []string          `json:"non_functional_requirements"`
}

// CloudProvider identifies the primary cloud provider a project targets.
type CloudProvider string

const (
	CloudAWS          CloudProvider = "AWS"
	CloudAzure        CloudProvider = "Azure"
	CloudGCP          CloudProvider = "GCP"
	CloudDigitalOcean CloudProvider = "DigitalOcean"
	CloudOracle       CloudProvider = "Oracle Cloud"
)

// PrimaryCloud resolves the primary cloud provider from the tech stack.
// Resolved once per profile and threaded through stage context, never read
// from ambient defaults downstream.
func (p *ProjectProfile) PrimaryCloud() CloudProvider {
	stack := strings.ToLower(flatten(p.TechStack))
	switch {
	case strings.Contains(stack, "azure"):
		return CloudAzure
	case strings.Contains(stack, "gcp") || strings.Contains(stack, "google"):
		return CloudGCP
	case strings.Contains(stack, "digitalocean") || strings.Contains(stack, "ocean"):
		return CloudDigitalOcean
	case strings.Contains(stack, "oracle"):
		return CloudOracle
	default:
		return CloudAWS
	}
}

// UsesSQLite reports whether the declared database is SQLite. SQLite runs on
// the compute instance itself, so such projects carry no managed database
// costs.
func (p *ProjectProfile) UsesSQLite() bool {
	return strings.Contains(strings.ToLower(p.TechStack["database"]), "sqlite")
}

func flatten(stack map[string]string) string {
	var sb strings.Builder
	for k, v := range stack {
		sb.WriteString(k)
		sb.WriteString(" ")
		sb.WriteString(v)
		sb.WriteString(" ")
	}
	return sb.String()
}
