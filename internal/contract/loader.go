package contract

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harrison/contractor/internal/config"
)

// LoadFile reads and parses a contracts document from disk.
// YAML and JSON documents are both accepted (JSON is a YAML subset).
func LoadFile(path string) (*Suite, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open contracts file: %w", err)
	}
	defer file.Close()

	suite, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return suite, nil
}

// Parse reads a contracts document from r and builds a Suite.
//
// The document shape is:
//
//	contracts:
//	  <category>:
//	    <operation>:
//	      endpoint: /api/things/{id}
//	      method: GET
//	      request_schema: {...}    # optional
//	      response_schema: {...}
//	      expected_status: 200
//	test_configuration:
//	  base_url: http://localhost:8080
//	  ...
//
// Category and operation declaration order is preserved. Schema content is
// not validated here beyond being parseable as a document node; schemas a
// validator cannot compile fail per-operation at run time, not at load.
func Parse(r io.Reader) (*Suite, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read contracts document: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &MalformedContractError{Field: "document", Reason: err.Error()}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, &MalformedContractError{Field: "document", Reason: "empty document"}
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, &MalformedContractError{Field: "document", Reason: "top level must be a mapping"}
	}

	suite := &Suite{Config: config.Default()}
	sawContracts := false

	for i := 0; i < len(doc.Content)-1; i += 2 {
		key := doc.Content[i]
		value := doc.Content[i+1]

		switch key.Value {
		case "contracts":
			categories, err := parseCategories(value)
			if err != nil {
				return nil, err
			}
			suite.Categories = categories
			sawContracts = true
		case "test_configuration":
			cfg, err := config.Decode(value)
			if err != nil {
				return nil, &MalformedContractError{Field: "test_configuration", Reason: err.Error()}
			}
			suite.Config = cfg
		}
	}

	if !sawContracts {
		return nil, &MalformedContractError{Field: "contracts", Reason: "section is missing"}
	}
	return suite, nil
}

// parseCategories walks the contracts mapping node, preserving order.
func parseCategories(node *yaml.Node) ([]Category, error) {
	if node.Kind != yaml.MappingNode {
		return nil, &MalformedContractError{Field: "contracts", Reason: "must be a mapping of categories"}
	}

	var categories []Category
	for i := 0; i < len(node.Content)-1; i += 2 {
		name := node.Content[i].Value
		ops := node.Content[i+1]
		if ops.Kind != yaml.MappingNode {
			return nil, &MalformedContractError{Operation: name, Field: "operations", Reason: "must be a mapping"}
		}

		cat := Category{Name: name}
		for j := 0; j < len(ops.Content)-1; j += 2 {
			opName := ops.Content[j].Value
			def, err := parseDefinition(name, opName, ops.Content[j+1])
			if err != nil {
				return nil, err
			}
			cat.Definitions = append(cat.Definitions, def)
		}
		categories = append(categories, cat)
	}
	return categories, nil
}

// operationSpec mirrors one operation body in the document.
type operationSpec struct {
	Endpoint       string                 `yaml:"endpoint"`
	Method         string                 `yaml:"method"`
	RequestSchema  map[string]interface{} `yaml:"request_schema"`
	ResponseSchema map[string]interface{} `yaml:"response_schema"`
	ExpectedStatus int                    `yaml:"expected_status"`
}

func parseDefinition(category, name string, node *yaml.Node) (Definition, error) {
	id := category + "/" + name

	var spec operationSpec
	if err := node.Decode(&spec); err != nil {
		return Definition{}, &MalformedContractError{Operation: id, Field: "operation", Reason: err.Error()}
	}

	if spec.Endpoint == "" {
		return Definition{}, &MalformedContractError{Operation: id, Field: "endpoint", Reason: "required field is missing"}
	}
	if spec.Method == "" {
		return Definition{}, &MalformedContractError{Operation: id, Field: "method", Reason: "required field is missing"}
	}
	method := strings.ToUpper(spec.Method)
	if !ValidMethod(method) {
		return Definition{}, &MalformedContractError{Operation: id, Field: "method", Reason: fmt.Sprintf("unrecognized HTTP verb %q", spec.Method)}
	}
	if spec.ResponseSchema == nil {
		return Definition{}, &MalformedContractError{Operation: id, Field: "response_schema", Reason: "required field is missing"}
	}
	if spec.ExpectedStatus == 0 {
		return Definition{}, &MalformedContractError{Operation: id, Field: "expected_status", Reason: "required field is missing"}
	}
	if spec.ExpectedStatus < 100 || spec.ExpectedStatus > 599 {
		return Definition{}, &MalformedContractError{Operation: id, Field: "expected_status", Reason: fmt.Sprintf("status %d outside 100-599", spec.ExpectedStatus)}
	}

	return Definition{
		Category:       category,
		Name:           name,
		Endpoint:       spec.Endpoint,
		Method:         method,
		RequestSchema:  spec.RequestSchema,
		ResponseSchema: spec.ResponseSchema,
		ExpectedStatus: spec.ExpectedStatus,
	}, nil
}
