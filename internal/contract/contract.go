// Package contract loads and indexes API contract definitions.
//
// A contracts document declares endpoint groups (categories), each holding
// named operations with request/response JSON Schemas and an expected HTTP
// status, plus one global test_configuration section. Definitions are
// immutable once loaded and keep their declaration order so that sequential
// runs produce diffable reports.
package contract

import (
	"fmt"

	"github.com/harrison/contractor/internal/config"
)

// Definition identifies one contracted operation.
type Definition struct {
	Category       string                 // Category the operation is grouped under
	Name           string                 // Operation name within the category
	Endpoint       string                 // URL template, may contain {param} placeholders
	Method         string                 // HTTP verb
	RequestSchema  map[string]interface{} // JSON Schema for the request body, empty for none
	ResponseSchema map[string]interface{} // JSON Schema for the response body
	ExpectedStatus int                    // Expected HTTP status code
}

// ID returns the stable operation identifier used in results and reports.
func (d Definition) ID() string {
	return d.Category + "/" + d.Name
}

// HasRequestSchema reports whether the operation declares a request body schema.
func (d Definition) HasRequestSchema() bool {
	return len(d.RequestSchema) > 0
}

// Category is a named group of operations in declaration order.
type Category struct {
	Name        string
	Definitions []Definition
}

// Suite is the loaded contracts document: ordered categories plus the
// global test configuration.
type Suite struct {
	Categories []Category
	Config     *config.Config
}

// Definitions flattens the suite into a single slice ordered by category
// then declaration order. This is the canonical run order.
func (s *Suite) Definitions() []Definition {
	var defs []Definition
	for _, cat := range s.Categories {
		defs = append(defs, cat.Definitions...)
	}
	return defs
}

// Len returns the total number of operations in the suite.
func (s *Suite) Len() int {
	n := 0
	for _, cat := range s.Categories {
		n += len(cat.Definitions)
	}
	return n
}

// MalformedContractError indicates the contracts document cannot be used:
// a required field is missing or holds an unrecognized value. Load fails
// as a whole; no test executes against a partially understood suite.
type MalformedContractError struct {
	Operation string // category/name of the offending operation, empty for document-level problems
	Field     string // field that is missing or invalid
	Reason    string
}

// Error implements the error interface for MalformedContractError.
func (e *MalformedContractError) Error() string {
	if e.Operation == "" {
		return fmt.Sprintf("malformed contract document: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed contract %s: %s: %s", e.Operation, e.Field, e.Reason)
}

// validMethods is the closed set of recognized HTTP verbs.
var validMethods = map[string]bool{
	"GET":     true,
	"HEAD":    true,
	"POST":    true,
	"PUT":     true,
	"PATCH":   true,
	"DELETE":  true,
	"OPTIONS": true,
}

// ValidMethod reports whether method is a recognized HTTP verb.
// Matching is case-insensitive at the loader; callers pass the
// canonical upper-case form.
func ValidMethod(method string) bool {
	return validMethods[method]
}
