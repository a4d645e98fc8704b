package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"

	apierrors "hotfire/internal/errors"
	"hotfire/internal/infrastructure"
)

// QueryParamValidator parses optional query parameters. Each method returns
// the default when the parameter is absent, and writes a validation problem
// and returns false when it is malformed.
type QueryParamValidator struct {
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

func NewQueryParamValidator(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *QueryParamValidator {
	return &QueryParamValidator{
		logger:       infrastructure.WithComponent(logger, "query_validator"),
		errorHandler: errorHandler,
	}
}

func (v *QueryParamValidator) reject(w http.ResponseWriter, r *http.Request, param, format string, args ...interface{}) {
	msg := param + " " + fmt.Sprintf(format, args...)
	v.logger.DebugContext(r.Context(), "query parameter rejected",
		slog.String("param", param),
		slog.String("value", r.URL.Query().Get(param)))
	v.errorHandler.HandleError(w, r, apierrors.ErrValidation(param, msg))
}

// ValidateInt parses an integer in [min, max].
func (v *QueryParamValidator) ValidateInt(w http.ResponseWriter, r *http.Request, param string, min, max int, defaultValue int) (int, bool) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return defaultValue, true
	}
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		v.reject(w, r, param, "must be a valid integer")
		return 0, false
	case n < min || n > max:
		v.reject(w, r, param, "must be between %d and %d", min, max)
		return 0, false
	}
	return n, true
}

// ValidateBool parses anything strconv.ParseBool accepts.
func (v *QueryParamValidator) ValidateBool(w http.ResponseWriter, r *http.Request, param string, defaultValue bool) (bool, bool) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return defaultValue, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		v.reject(w, r, param, "must be true or false")
		return false, false
	}
	return b, true
}

// ValidateEnum accepts one of allowed, compared exactly.
func (v *QueryParamValidator) ValidateEnum(w http.ResponseWriter, r *http.Request, param string, allowed []string, defaultValue string) (string, bool) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return defaultValue, true
	}
	if !slices.Contains(allowed, raw) {
		v.reject(w, r, param, "must be one of: %s", strings.Join(allowed, ", "))
		return "", false
	}
	return raw, true
}
