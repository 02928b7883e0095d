// Package validator checks observed HTTP responses against contract
// definitions: status conformance and structural conformance to the
// declared response JSON Schema.
package validator

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/harrison/contractor/internal/contract"
	"github.com/harrison/contractor/internal/report"
)

// Validator produces a verdict for one observed response. Validation is a
// pure computation over its inputs; it performs no I/O.
type Validator struct {
	checkSchemas bool
}

// New creates a Validator. When checkSchemas is false only the status
// check runs; structural validation is skipped.
func New(checkSchemas bool) *Validator {
	return &Validator{checkSchemas: checkSchemas}
}

// Validate checks statusCode and body against def. Both checks run
// independently and both must pass for an overall pass: an expected 401
// answered with a 401 whose body violates the response schema is still a
// failure. Diagnostics name the failing field, not just "invalid".
func (v *Validator) Validate(def contract.Definition, statusCode int, body []byte) report.Result {
	result := report.Result{
		Category:       def.Category,
		Operation:      def.Name,
		Method:         def.Method,
		Endpoint:       def.Endpoint,
		ExpectedStatus: def.ExpectedStatus,
		StatusCode:     statusCode,
		Passed:         true,
	}

	if statusCode != def.ExpectedStatus {
		result.Passed = false
		result.Kind = report.KindStatusMismatch
		result.Errors = append(result.Errors,
			fmt.Sprintf("expected status %d, got %d", def.ExpectedStatus, statusCode))
	}

	if v.checkSchemas && len(def.ResponseSchema) > 0 {
		kind, errs := v.checkSchema(def.ResponseSchema, body)
		if len(errs) > 0 {
			result.Passed = false
			if result.Kind == "" {
				result.Kind = kind
			}
			result.Errors = append(result.Errors, errs...)
		}
	}

	return result
}

// checkSchema validates body against schema, returning the failure kind
// and field-level diagnostics. An empty error slice means conformance.
func (v *Validator) checkSchema(schema map[string]interface{}, body []byte) (report.Kind, []string) {
	if len(bytes.TrimSpace(body)) == 0 || !json.Valid(body) {
		return report.KindUnparsableResponse, []string{"response body is not parseable as JSON"}
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema))
	if err != nil {
		// A schema the validator cannot compile fails this operation,
		// not the run; the loader deliberately defers schema content
		// errors to this point.
		return report.KindSchemaViolation, []string{fmt.Sprintf("response schema is invalid: %v", err)}
	}

	checked, err := compiled.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return report.KindUnparsableResponse, []string{fmt.Sprintf("response body cannot be validated: %v", err)}
	}
	if checked.Valid() {
		return "", nil
	}

	errs := make([]string, 0, len(checked.Errors()))
	for _, violation := range checked.Errors() {
		errs = append(errs, fmt.Sprintf("%s: %s", violation.Field(), violation.Description()))
	}
	return report.KindSchemaViolation, errs
}
