package generation

// FieldType is the expected JSON type of a required field.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldInteger FieldType = "integer"
	FieldArray   FieldType = "array"
	FieldObject  FieldType = "object"
	FieldBool    FieldType = "boolean"
)

// Field describes one required field of a document item.
type Field struct {
	Name string
	Type FieldType

	// Elem is the element type for array fields. Empty means unconstrained.
	Elem FieldType

	// NonNegative marks numeric fields that must be >= 0
	// (e.g. cost_inr, usage_quantity, potential_savings).
	NonNegative bool
}

// Constraint defines what "valid" means for a stage's document. A document
// is either a single object or a top-level array of objects with an
// inclusive item-count range.
type Constraint struct {
	// Collection is true for array-of-objects documents.
	Collection bool

	// MinItems/MaxItems bound the top-level collection, inclusive.
	// Both zero means no count constraint.
	MinItems int
	MaxItems int

	// Fields are the required fields of each item (or of the object).
	Fields []Field
}

// JSONSchema renders the constraint as a draft-07 JSON Schema document.
func (c Constraint) JSONSchema() map[string]interface{} {
	properties := make(map[string]interface{}, len(c.Fields))
	required := make([]string, 0, len(c.Fields))
	for _, f := range c.Fields {
		properties[f.Name] = f.schema()
		required = append(required, f.Name)
	}

	item := map[string]interface{}{
		"type":       "object",
		"required":   required,
		"properties": properties,
	}

	if !c.Collection {
		return item
	}

	schema := map[string]interface{}{
		"type":  "array",
		"items": item,
	}
	if c.MinItems > 0 || c.MaxItems > 0 {
		schema["minItems"] = c.MinItems
		schema["maxItems"] = c.MaxItems
	}
	return schema
}

func (f Field) schema() map[string]interface{} {
	s := map[string]interface{}{"type": string(f.Type)}
	if f.NonNegative {
		s["minimum"] = 0
	}
	if f.Type == FieldArray && f.Elem != "" {
		s["items"] = map[string]interface{}{"type": string(f.Elem)}
	}
	return s
}
