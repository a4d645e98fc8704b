package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apierrors "hotfire/internal/errors"
	"hotfire/internal/infrastructure"
)

// DefaultMaxJSONBody caps JSON request bodies. Dataset uploads are bounded
// separately by the upload handler.
const DefaultMaxJSONBody = 1 << 20

// tagMessages renders validator failures. %[1]s is the JSON field name and
// %[2]s the tag parameter.
var tagMessages = map[string]string{
	"required":         "%[1]s is required",
	"required_without": "%[1]s is required when %[2]s is absent",
	"excluded_with":    "%[1]s cannot be combined with %[2]s",
	"min":              "%[1]s must be at least %[2]s",
	"max":              "%[1]s must be at most %[2]s",
	"gte":              "%[1]s must be greater than or equal to %[2]s",
	"lte":              "%[1]s must be less than or equal to %[2]s",
	"gt":               "%[1]s must be greater than %[2]s",
	"gtfield":          "%[1]s must be greater than %[2]s",
	"lt":               "%[1]s must be less than %[2]s",
	"filename":         "%[1]s must be a valid filename",
	"column":           "%[1]s must be a non-blank column name",
}

// ValidationMiddleware checks JSON bodies and validates decoded requests
// against their struct tags.
type ValidationMiddleware struct {
	validate     *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	maxBodySize  int64
}

// NewValidationMiddleware registers the filename and column tags on a fresh
// validator. Errors name fields by their JSON key.
func NewValidationMiddleware(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ValidationMiddleware {
	v := validator.New()
	v.RegisterValidation("filename", isValidFilename)
	v.RegisterValidation("column", isColumnName)
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &ValidationMiddleware{
		validate:     v,
		logger:       infrastructure.WithComponent(logger, "validation_middleware"),
		errorHandler: errorHandler,
		maxBodySize:  DefaultMaxJSONBody,
	}
}

// ValidateRequest rejects oversized or malformed JSON bodies and leaves the
// body replayable for the handler. Uploads and bodiless methods pass through.
func (m *ValidationMiddleware) ValidateRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !hasJSONBody(r) {
			next.ServeHTTP(w, r)
			return
		}

		if r.ContentLength > m.maxBodySize {
			m.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge.WithDetails(map[string]int64{
				"max_size": m.maxBodySize,
				"size":     r.ContentLength,
			}))
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, m.maxBodySize))
		if err != nil {
			m.logger.WarnContext(r.Context(), "failed to read request body", slog.String("error", err.Error()))
			m.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
			return
		}
		if len(body) > 0 && !json.Valid(body) {
			m.errorHandler.HandleError(w, r, apierrors.New(http.StatusBadRequest,
				apierrors.CodeInvalidRequest, "Request body contains invalid JSON"))
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func hasJSONBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	if r.Body == nil || r.Body == http.NoBody {
		return false
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "application/json"
}

// ValidateStruct reports every failing field of v as one validation error.
func (m *ValidationMiddleware) ValidateStruct(v interface{}) error {
	err := m.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierrors.NewValidationError(err.Error())
	}

	out := make([]apierrors.ValidationError, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = apierrors.ValidationError{Field: fe.Field(), Message: fieldMessage(fe)}
	}
	return apierrors.NewValidationErrors(out)
}

// DecodeAndValidate reads a JSON body into v, refusing unknown fields, and
// validates the result.
func (m *ValidationMiddleware) DecodeAndValidate(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, m.maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apierrors.InvalidRequestWithError(err)
	}
	return m.ValidateStruct(v)
}

func fieldMessage(fe validator.FieldError) string {
	if fe.Tag() == "oneof" {
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	if format, ok := tagMessages[fe.Tag()]; ok {
		return fmt.Sprintf(format, fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}

// isValidFilename accepts a bare file name without path separators.
func isValidFilename(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	return name != "" && len(name) <= 255 &&
		!strings.Contains(name, "..") && !strings.ContainsAny(name, `/\`)
}

// isColumnName rejects blank or padded header names.
func isColumnName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	return name != "" && strings.TrimSpace(name) == name
}
