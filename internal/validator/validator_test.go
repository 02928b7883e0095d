package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/contractor/internal/contract"
	"github.com/harrison/contractor/internal/report"
)

func lessonPlanDefinition() contract.Definition {
	return contract.Definition{
		Category: "lesson_plans",
		Name:     "create_lesson_plan",
		Endpoint: "/api/lesson-plans",
		Method:   "POST",
		ResponseSchema: map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"id", "assessment"},
			"properties": map[string]interface{}{
				"id":         map[string]interface{}{"type": "integer"},
				"assessment": map[string]interface{}{"type": "string"},
			},
		},
		ExpectedStatus: 201,
	}
}

func TestValidatePass(t *testing.T) {
	v := New(true)
	result := v.Validate(lessonPlanDefinition(), 201, []byte(`{"id": 7, "assessment": "quiz"}`))

	assert.True(t, result.Passed)
	assert.Empty(t, result.Kind)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 201, result.StatusCode)
	assert.Equal(t, "lesson_plans/create_lesson_plan", result.ID())
}

func TestValidateStatusMismatch(t *testing.T) {
	v := New(true)
	result := v.Validate(lessonPlanDefinition(), 500, []byte(`{"id": 7, "assessment": "quiz"}`))

	assert.True(t, result.Failed())
	assert.Equal(t, report.KindStatusMismatch, result.Kind)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "expected status 201, got 500")
}

func TestValidateSchemaViolationNamesField(t *testing.T) {
	// Correct status but the body is missing a required response field:
	// the diagnostic must point at the field, not just say "invalid".
	v := New(true)
	result := v.Validate(lessonPlanDefinition(), 201, []byte(`{"id": 7}`))

	assert.True(t, result.Failed())
	assert.Equal(t, report.KindSchemaViolation, result.Kind)
	require.NotEmpty(t, result.Errors)
	joined := strings.Join(result.Errors, "\n")
	assert.Contains(t, joined, "assessment")
}

func TestValidateExpectedErrorStatusStillChecksSchema(t *testing.T) {
	// A contract expecting 401 that observes 401 with a schema-invalid
	// body is a failure: status alone is not sufficient.
	def := contract.Definition{
		Category: "auth",
		Name:     "bad_credentials",
		Endpoint: "/api/login",
		Method:   "POST",
		ResponseSchema: map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"error"},
			"properties": map[string]interface{}{
				"error": map[string]interface{}{"type": "string"},
			},
		},
		ExpectedStatus: 401,
	}

	v := New(true)
	result := v.Validate(def, 401, []byte(`{"message": "nope"}`))

	assert.True(t, result.Failed())
	assert.Equal(t, report.KindSchemaViolation, result.Kind)
}

func TestValidateUnparsableBody(t *testing.T) {
	v := New(true)

	for name, body := range map[string][]byte{
		"html":  []byte("<html>Internal Server Error</html>"),
		"empty": []byte(""),
	} {
		t.Run(name, func(t *testing.T) {
			result := v.Validate(lessonPlanDefinition(), 201, body)
			assert.True(t, result.Failed())
			assert.Equal(t, report.KindUnparsableResponse, result.Kind)
		})
	}
}

func TestValidateSchemaCheckDisabled(t *testing.T) {
	// With response validation off only the status check runs; a body
	// that would violate the schema passes.
	v := New(false)
	result := v.Validate(lessonPlanDefinition(), 201, []byte(`{"wrong": true}`))
	assert.True(t, result.Passed)

	// The status check always runs.
	result = v.Validate(lessonPlanDefinition(), 404, []byte(`{}`))
	assert.True(t, result.Failed())
	assert.Equal(t, report.KindStatusMismatch, result.Kind)
}

func TestValidateEmptyResponseSchemaSkipsStructuralCheck(t *testing.T) {
	def := lessonPlanDefinition()
	def.ResponseSchema = map[string]interface{}{}
	def.ExpectedStatus = 204

	v := New(true)
	result := v.Validate(def, 204, nil)
	assert.True(t, result.Passed)
}

func TestValidateStatusMismatchKindWinsOverSchema(t *testing.T) {
	// Both checks fail: the status mismatch is the primary kind, with
	// schema diagnostics still attached.
	v := New(true)
	result := v.Validate(lessonPlanDefinition(), 500, []byte(`{"oops": 1}`))

	assert.Equal(t, report.KindStatusMismatch, result.Kind)
	assert.GreaterOrEqual(t, len(result.Errors), 2)
}

func TestValidateUncompilableSchemaFailsOperation(t *testing.T) {
	def := lessonPlanDefinition()
	def.ResponseSchema = map[string]interface{}{"type": 42}

	v := New(true)
	result := v.Validate(def, 201, []byte(`{}`))
	assert.True(t, result.Failed())
	assert.Equal(t, report.KindSchemaViolation, result.Kind)
}
