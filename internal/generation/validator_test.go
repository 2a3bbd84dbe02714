package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{
			name:     "bare object",
			input:    `{"a": 1}`,
			expected: `{"a": 1}`,
			ok:       true,
		},
		{
			name:     "fenced json block",
			input:    "Here is the result:\n```json\n{\"a\": 1}\n```\nHope this helps!",
			expected: `{"a": 1}`,
			ok:       true,
		},
		{
			name:     "fence without language tag",
			input:    "```\n[{\"a\": 1}]\n```",
			expected: `[{"a": 1}]`,
			ok:       true,
		},
		{
			name:     "leading prose and trailing commentary",
			input:    `Sure! The profile is {"name": "x"} as requested.`,
			expected: `{"name": "x"}`,
			ok:       true,
		},
		{
			name:     "array payload",
			input:    `[{"a": 1}, {"a": 2}]`,
			expected: `[{"a": 1}, {"a": 2}]`,
			ok:       true,
		},
		{
			name:  "no json at all",
			input: "I am unable to comply with this request.",
			ok:    false,
		},
		{
			name:  "truncated object",
			input: `{"a": 1, "b":`,
			ok:    false,
		},
		{
			name:  "empty string",
			input: "",
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, string(got))
			}
		})
	}
}

func testConstraint() Constraint {
	return Constraint{
		Collection: true,
		MinItems:   2,
		MaxItems:   3,
		Fields: []Field{
			{Name: "service", Type: FieldString},
			{Name: "cost_inr", Type: FieldNumber, NonNegative: true},
		},
	}
}

func TestValidate_Valid(t *testing.T) {
	raw := `[{"service": "Compute", "cost_inr": 100.5}, {"service": "Storage", "cost_inr": 0}]`

	payload, violations := Validate(raw, testConstraint())
	require.Empty(t, violations)
	assert.JSONEq(t, raw, string(payload))
}

func TestValidate_Violations(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"too few items", `[{"service": "Compute", "cost_inr": 1}]`},
		{"too many items", `[{"service": "a", "cost_inr": 1}, {"service": "b", "cost_inr": 1}, {"service": "c", "cost_inr": 1}, {"service": "d", "cost_inr": 1}]`},
		{"missing required field", `[{"service": "Compute"}, {"service": "Storage", "cost_inr": 1}]`},
		{"wrong type", `[{"service": "Compute", "cost_inr": "expensive"}, {"service": "Storage", "cost_inr": 1}]`},
		{"negative amount", `[{"service": "Compute", "cost_inr": -5}, {"service": "Storage", "cost_inr": 1}]`},
		{"object instead of array", `{"service": "Compute", "cost_inr": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, violations := Validate(tt.raw, testConstraint())
			assert.NotEmpty(t, violations, "expected at least one violation")
		})
	}
}

func TestValidate_Unparseable(t *testing.T) {
	_, violations := Validate("no json here", testConstraint())
	require.Len(t, violations, 1)
	assert.Equal(t, ViolationUnparseable, violations[0])
}

func TestValidate_ObjectConstraint(t *testing.T) {
	c := Constraint{
		Fields: []Field{
			{Name: "name", Type: FieldString},
			{Name: "budget", Type: FieldNumber, NonNegative: true},
			{Name: "tech_stack", Type: FieldObject},
			{Name: "non_functional_requirements", Type: FieldArray, Elem: FieldString},
		},
	}

	valid := `{"name": "Shop", "budget": 50000, "tech_stack": {"backend": "Node.js"}, "non_functional_requirements": ["Scalability"]}`
	payload, violations := Validate(valid, c)
	require.Empty(t, violations)
	assert.NotNil(t, payload)

	_, violations = Validate(`{"name": "Shop", "budget": 50000, "tech_stack": {}, "non_functional_requirements": [42]}`, c)
	assert.NotEmpty(t, violations, "non-string requirement entries must be rejected")
}
