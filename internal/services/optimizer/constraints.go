package optimizer

import "costpilot/internal/generation"

// Item-count bounds for the persisted documents.
const (
	minBillingRecords = 12
	maxBillingRecords = 20

	minRecommendations = 6
	maxRecommendations = 10
)

// profileConstraint validates the Stage 1 profile document.
func profileConstraint() generation.Constraint {
	return generation.Constraint{
		Fields: []generation.Field{
			{Name: "name", Type: generation.FieldString},
			{Name: "budget", Type: generation.FieldNumber, NonNegative: true},
			{Name: "description", Type: generation.FieldString},
			{Name: "tech_stack", Type: generation.FieldObject},
			{Name: "non_functional_requirements", Type: generation.FieldArray, Elem: generation.FieldString},
		},
	}
}

// billingConstraint validates the Stage 2 billing ledger.
func billingConstraint() generation.Constraint {
	return generation.Constraint{
		Collection: true,
		MinItems:   minBillingRecords,
		MaxItems:   maxBillingRecords,
		Fields: []generation.Field{
			{Name: "month", Type: generation.FieldString},
			{Name: "service", Type: generation.FieldString},
			{Name: "resource_id", Type: generation.FieldString},
			{Name: "region", Type: generation.FieldString},
			{Name: "usage_type", Type: generation.FieldString},
			{Name: "usage_quantity", Type: generation.FieldNumber, NonNegative: true},
			{Name: "unit", Type: generation.FieldString},
			{Name: "cost_inr", Type: generation.FieldNumber, NonNegative: true},
			{Name: "desc", Type: generation.FieldString},
		},
	}
}

// recommendationConstraint validates the Stage 3 recommendation list.
func recommendationConstraint() generation.Constraint {
	return generation.Constraint{
		Collection: true,
		MinItems:   minRecommendations,
		MaxItems:   maxRecommendations,
		Fields: []generation.Field{
			{Name: "title", Type: generation.FieldString},
			{Name: "service", Type: generation.FieldString},
			{Name: "potential_savings", Type: generation.FieldNumber, NonNegative: true},
			{Name: "recommendation_type", Type: generation.FieldString},
			{Name: "description", Type: generation.FieldString},
		},
	}
}
