// Package sample synthesizes request payloads from JSON Schemas.
//
// Generation is deterministic: the same schema always yields the same
// sample, so repeated runs produce diffable reports. The generator is a
// pure function of its input schema; when a constraint combination cannot
// be deterministically satisfied it fails with UnsatisfiableSchemaError
// instead of emitting a guess.
package sample

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Sample is a generated request: a body payload plus path-parameter
// substitutions for the endpoint template. Created fresh per invocation.
type Sample struct {
	Body       interface{}       // Generated request body, nil for schemaless operations
	PathParams map[string]string // Endpoint {param} substitutions
}

// UnsatisfiableSchemaError indicates a schema constraint combination the
// generator cannot deterministically satisfy. It fails one operation's
// test, never the whole run.
type UnsatisfiableSchemaError struct {
	Path   string // JSON pointer-ish path of the offending node
	Reason string
}

// Error implements the error interface for UnsatisfiableSchemaError.
func (e *UnsatisfiableSchemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("unsatisfiable schema: %s", e.Reason)
	}
	return fmt.Sprintf("unsatisfiable schema at %s: %s", e.Path, e.Reason)
}

// pathParamPattern matches {param} placeholders in endpoint templates.
var pathParamPattern = regexp.MustCompile(`\{([^{}]+)\}`)

// Generator synthesizes samples from contract request schemas.
type Generator struct{}

// NewGenerator creates a Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Build produces a complete Sample for an operation: a body generated from
// the request schema (nil body when the schema is empty) and substitutions
// for every {param} in the endpoint template.
func (g *Generator) Build(endpoint string, requestSchema map[string]interface{}) (*Sample, error) {
	s := &Sample{PathParams: PathParams(endpoint)}

	if len(requestSchema) == 0 {
		// Parameterless operation: empty payload is valid.
		return s, nil
	}

	body, err := g.Generate(requestSchema)
	if err != nil {
		return nil, err
	}
	s.Body = body
	return s, nil
}

// PathParams extracts {param} placeholders from an endpoint template and
// maps each to a deterministic placeholder value.
func PathParams(endpoint string) map[string]string {
	params := make(map[string]string)
	for _, match := range pathParamPattern.FindAllStringSubmatch(endpoint, -1) {
		params[match[1]] = "1"
	}
	return params
}

// Generate produces a value that validates against schema.
// Dispatch is over the closed set of schema node kinds; an unknown or
// contradictory node fails with UnsatisfiableSchemaError.
func (g *Generator) Generate(schema map[string]interface{}) (interface{}, error) {
	return g.generate(schema, "")
}

func (g *Generator) generate(schema map[string]interface{}, path string) (interface{}, error) {
	if len(schema) == 0 {
		// No constraints: empty object satisfies the empty schema.
		return map[string]interface{}{}, nil
	}

	// enum dominates type: the first enumerated value compatible with the
	// node's sibling constraints is used, keeping generation stable
	// across runs.
	if enum, ok := schema["enum"].([]interface{}); ok {
		if len(enum) == 0 {
			return nil, &UnsatisfiableSchemaError{Path: path, Reason: "enum is empty"}
		}
		for _, candidate := range enum {
			if enumFits(schema, candidate) {
				return candidate, nil
			}
		}
		return nil, &UnsatisfiableSchemaError{Path: path, Reason: "no enum value satisfies the declared constraints"}
	}

	switch kind := schemaType(schema); kind {
	case "object", "":
		return g.generateObject(schema, path)
	case "string":
		return g.generateString(schema, path)
	case "integer":
		v, err := g.generateNumber(schema, path)
		if err != nil {
			return nil, err
		}
		return int(v), nil
	case "number":
		return g.generateNumber(schema, path)
	case "boolean":
		return true, nil
	case "array":
		return g.generateArray(schema, path)
	case "null":
		return nil, nil
	default:
		return nil, &UnsatisfiableSchemaError{Path: path, Reason: fmt.Sprintf("unsupported schema type %q", kind)}
	}
}

// schemaType extracts the declared type; a type list picks the first entry.
func schemaType(schema map[string]interface{}) string {
	switch t := schema["type"].(type) {
	case string:
		return t
	case []interface{}:
		if len(t) > 0 {
			if s, ok := t[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

func (g *Generator) generateObject(schema map[string]interface{}, path string) (interface{}, error) {
	obj := make(map[string]interface{})

	properties, _ := schema["properties"].(map[string]interface{})
	required := requiredSet(schema)

	// All declared properties are included, required or not, to maximize
	// coverage of the response contract. Names are sorted for stable
	// iteration; JSON object key order is irrelevant to validity.
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sub, ok := properties[name].(map[string]interface{})
		if !ok {
			sub = map[string]interface{}{}
		}
		value, err := g.generate(sub, path+"/"+name)
		if err != nil {
			return nil, err
		}
		obj[name] = value
	}

	// A required property without a declared sub-schema still must appear.
	// When additionalProperties carries a schema it governs the value;
	// additionalProperties: false makes the requirement unsatisfiable.
	var missing []string
	for name := range required {
		if _, present := obj[name]; !present {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)

	for _, name := range missing {
		switch ap := schema["additionalProperties"].(type) {
		case bool:
			if !ap {
				return nil, &UnsatisfiableSchemaError{
					Path:   path + "/" + name,
					Reason: "required property has no schema and additionalProperties is false",
				}
			}
			obj[name] = "sample"
		case map[string]interface{}:
			value, err := g.generate(ap, path+"/"+name)
			if err != nil {
				return nil, err
			}
			obj[name] = value
		default:
			obj[name] = "sample"
		}
	}

	return obj, nil
}

func requiredSet(schema map[string]interface{}) map[string]bool {
	set := make(map[string]bool)
	if required, ok := schema["required"].([]interface{}); ok {
		for _, entry := range required {
			if name, ok := entry.(string); ok {
				set[name] = true
			}
		}
	}
	return set
}

func (g *Generator) generateString(schema map[string]interface{}, path string) (interface{}, error) {
	minLen, hasMin := intConstraint(schema, "minLength")
	maxLen, hasMax := intConstraint(schema, "maxLength")
	if hasMin && hasMax && minLen > maxLen {
		return nil, &UnsatisfiableSchemaError{Path: path, Reason: fmt.Sprintf("minLength %d exceeds maxLength %d", minLen, maxLen)}
	}

	// Pattern witnesses and format placeholders are fixed values; length
	// bounds they cannot meet make the node unsatisfiable rather than
	// producing a sample that fails its own schema.
	if pattern, ok := schema["pattern"].(string); ok {
		value, err := Synthesize(pattern)
		if err != nil {
			return nil, &UnsatisfiableSchemaError{Path: path, Reason: err.Error()}
		}
		if err := checkLengthBounds(schema, value, path); err != nil {
			return nil, err
		}
		return value, nil
	}

	if format, ok := schema["format"].(string); ok {
		if value, ok := formatValues[format]; ok {
			if err := checkLengthBounds(schema, value, path); err != nil {
				return nil, err
			}
			return value, nil
		}
	}

	value := "sample"
	if hasMin && minLen > len(value) {
		value += strings.Repeat("a", minLen-len(value))
	}
	if hasMax && maxLen < len(value) {
		value = value[:maxLen]
	}
	return value, nil
}

// checkLengthBounds verifies a fixed candidate value against the node's
// declared length keywords.
func checkLengthBounds(schema map[string]interface{}, value, path string) error {
	if minLen, ok := intConstraint(schema, "minLength"); ok && len(value) < minLen {
		return &UnsatisfiableSchemaError{Path: path, Reason: fmt.Sprintf("value %q is shorter than minLength %d", value, minLen)}
	}
	if maxLen, ok := intConstraint(schema, "maxLength"); ok && len(value) > maxLen {
		return &UnsatisfiableSchemaError{Path: path, Reason: fmt.Sprintf("value %q is longer than maxLength %d", value, maxLen)}
	}
	return nil
}

// enumFits reports whether an enumerated candidate also satisfies the
// node's sibling constraints.
func enumFits(schema map[string]interface{}, candidate interface{}) bool {
	switch v := candidate.(type) {
	case string:
		if checkLengthBounds(schema, v, "") != nil {
			return false
		}
		if pattern, ok := schema["pattern"].(string); ok {
			re, err := regexp.Compile(pattern)
			if err != nil || !re.MatchString(v) {
				return false
			}
		}
	case float64:
		return numberFits(schema, v)
	case int:
		return numberFits(schema, float64(v))
	}
	return true
}

func numberFits(schema map[string]interface{}, v float64) bool {
	if min, ok := floatConstraint(schema, "minimum"); ok && v < min {
		return false
	}
	if max, ok := floatConstraint(schema, "maximum"); ok && v > max {
		return false
	}
	return true
}

// formatValues are deterministic placeholders for common string formats.
var formatValues = map[string]string{
	"email":     "user@example.com",
	"uri":       "https://example.com",
	"date":      "2024-01-01",
	"date-time": "2024-01-01T00:00:00Z",
	"uuid":      "00000000-0000-0000-0000-000000000001",
}

func (g *Generator) generateNumber(schema map[string]interface{}, path string) (float64, error) {
	min, hasMin := floatConstraint(schema, "minimum")
	max, hasMax := floatConstraint(schema, "maximum")

	if hasMin && hasMax && min > max {
		return 0, &UnsatisfiableSchemaError{Path: path, Reason: fmt.Sprintf("minimum %v exceeds maximum %v", min, max)}
	}
	if hasMin {
		return min, nil
	}
	if hasMax && max < 0 {
		return max, nil
	}
	return 0, nil
}

func (g *Generator) generateArray(schema map[string]interface{}, path string) (interface{}, error) {
	count := 1
	if minItems, ok := intConstraint(schema, "minItems"); ok && minItems > 0 {
		count = minItems
	}
	if maxItems, ok := intConstraint(schema, "maxItems"); ok {
		if minItems, hasMin := intConstraint(schema, "minItems"); hasMin && minItems > maxItems {
			return nil, &UnsatisfiableSchemaError{Path: path, Reason: fmt.Sprintf("minItems %d exceeds maxItems %d", minItems, maxItems)}
		}
		if count > maxItems {
			count = maxItems
		}
	}

	items, _ := schema["items"].(map[string]interface{})
	if items == nil {
		items = map[string]interface{}{}
	}

	arr := make([]interface{}, 0, count)
	for i := 0; i < count; i++ {
		value, err := g.generate(items, fmt.Sprintf("%s/%d", path, i))
		if err != nil {
			return nil, err
		}
		arr = append(arr, value)
	}
	return arr, nil
}

// intConstraint reads an integer-valued schema keyword; JSON numbers
// decode as float64.
func intConstraint(schema map[string]interface{}, key string) (int, bool) {
	if v, ok := floatConstraint(schema, key); ok {
		return int(v), true
	}
	return 0, false
}

func floatConstraint(schema map[string]interface{}, key string) (float64, bool) {
	switch v := schema[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}
