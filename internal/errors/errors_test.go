package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIErrorHelpers(t *testing.T) {
	tests := []struct {
		name        string
		err         *APIError
		wantStatus  int
		wantCode    string
		wantProblem string
	}{
		{"invalid request", InvalidRequestWithError(fmt.Errorf("bad json")), http.StatusBadRequest, CodeInvalidRequest, TypeValidation},
		{"field validation", ErrValidation("fraction", "must be <= 3"), http.StatusBadRequest, CodeValidationFailed, TypeValidation},
		{"not computed", ErrNotComputed, http.StatusConflict, CodeNotComputed, TypeConflict},
		{"nothing to plot", ErrNothingToPlot, http.StatusUnprocessableEntity, CodeNothingToPlot, TypeSeriesInputs},
		{"session limit", ErrSessionLimit, http.StatusServiceUnavailable, CodeSessionLimit, TypeServiceDown},
		{"unknown code", New(http.StatusTeapot, "TEAPOT", "short and stout"), http.StatusTeapot, "TEAPOT", TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantCode, tt.err.ErrorCode)
			assert.Equal(t, tt.wantProblem, tt.err.ProblemType())
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestWithDetailsCopies(t *testing.T) {
	withLimit := ErrPayloadTooLarge.WithDetails("limit is 10 bytes")

	assert.Equal(t, "limit is 10 bytes", withLimit.Details)
	assert.Nil(t, ErrPayloadTooLarge.Details)
	assert.Equal(t, ErrPayloadTooLarge.ErrorCode, withLimit.ErrorCode)

	details, ok := ErrValidation("fraction", "must be <= 3").Details.(ValidationErrors)
	require.True(t, ok)
	assert.Equal(t, []ValidationError{{Field: "fraction", Message: "must be <= 3"}}, details.Errors)
}

func TestAppError(t *testing.T) {
	cause := fmt.Errorf("unexpected EOF")
	err := NewParsingError("read upload", cause).WithContext("file", "run.xlsx")

	assert.Equal(t, "[PARSING] read upload: unexpected EOF", err.Error())
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "run.xlsx", err.Context["file"])
	assert.Equal(t, "[RENDER] plot", NewRenderError("plot", nil).Error())
}

func TestProblemDetailsJSON(t *testing.T) {
	p := NewProblemDetails(http.StatusUnprocessableEntity, TypeEmptyWindow, "Empty Burn Window", "No data", "/x").
		WithExtension("kind", "empty_window")

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "empty_window", raw["kind"])
	assert.Equal(t, float64(422), raw["status"])

	var back ProblemDetails
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, p.Type, back.Type)
	assert.Equal(t, p.Status, back.Status)
	assert.Equal(t, "empty_window", back.Extensions["kind"])
}
