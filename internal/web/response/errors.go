// Package response renders JSON bodies and errors for the API.
package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/newslynx/recipes/internal/store"
	"github.com/newslynx/recipes/internal/validation"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// JSON writes v with the given status
func JSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// RenderError renders err with a status derived from its type: schema errors are
// 422, store sentinels map to 404 and 409, anything else is a 500
func RenderError(w http.ResponseWriter, err error) {
	var schemaErr *validation.SchemaError
	switch {
	case errors.As(err, &schemaErr):
		RenderSchemaError(w, schemaErr)
	case errors.Is(err, store.ErrNotFound):
		RenderErrorWithCode(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, store.ErrSlugConflict):
		RenderErrorWithCode(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, store.ErrForeignKeyViolation), errors.Is(err, store.ErrNotNullViolation):
		RenderErrorWithCode(w, http.StatusBadRequest, "bad_request", err.Error())
	default:
		RenderErrorWithCode(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// RenderSchemaError renders a recipe validation failure as 422
func RenderSchemaError(w http.ResponseWriter, err *validation.SchemaError) {
	JSON(w, http.StatusUnprocessableEntity, &ErrorResponse{
		Error:   "recipe_schema_error",
		Message: err.Message,
		Code:    "unprocessable_entity",
	})
}

// RenderErrorWithCode renders a plain error body
func RenderErrorWithCode(w http.ResponseWriter, statusCode int, code, message string) {
	JSON(w, statusCode, &ErrorResponse{
		Error:   "error",
		Message: message,
		Code:    code,
	})
}

// RenderBadRequest renders a 400 Bad Request error
func RenderBadRequest(w http.ResponseWriter, message string) {
	RenderErrorWithCode(w, http.StatusBadRequest, "bad_request", message)
}

// RenderUnauthorized renders a 401 Unauthorized error
func RenderUnauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RenderErrorWithCode(w, http.StatusUnauthorized, "unauthorized", message)
}

// RenderNotFound renders a 404 Not Found error
func RenderNotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RenderErrorWithCode(w, http.StatusNotFound, "not_found", message)
}
