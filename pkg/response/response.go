// Package response writes the JSON envelope used by every API handler.
//
// Mutations answer {message, data}, lists answer {message, data: {items,
// currentPage, perPage, totalPages, totalItems}}, failures answer
// {message} plus an optional field-level errors map.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/tradeyard/tradeyard/pkg/errs"
	"github.com/tradeyard/tradeyard/pkg/orm"
)

type envelope struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

type listPayload struct {
	Items interface{} `json:"items"`
	orm.Pagination
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

// Success sends a 200 JSON response with a message and data.
func Success(w http.ResponseWriter, message string, data interface{}) {
	write(w, http.StatusOK, envelope{Message: message, Data: data})
}

// Created sends a 201 JSON response with a message and data.
func Created(w http.ResponseWriter, message string, data interface{}) {
	write(w, http.StatusCreated, envelope{Message: message, Data: data})
}

// Paginated sends a 200 list response with items and page bookkeeping.
func Paginated(w http.ResponseWriter, message string, items interface{}, p orm.Pagination) {
	write(w, http.StatusOK, envelope{
		Message: message,
		Data:    listPayload{Items: items, Pagination: p},
	})
}

// Error sends a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, envelope{Message: message})
}

// ValidationError sends a 422 with a field-level error map.
func ValidationError(w http.ResponseWriter, fields map[string]string) {
	write(w, http.StatusUnprocessableEntity, envelope{
		Message: "Validation failed",
		Errors:  fields,
	})
}

// FromError classifies err via the errs taxonomy and writes the matching
// status and message. Unclassified errors become an opaque 500.
func FromError(w http.ResponseWriter, err error) {
	status := errs.HTTPStatus(err)
	body := envelope{Message: errs.MessageOf(err)}
	if fields := errs.FieldsOf(err); len(fields) > 0 {
		body.Errors = fields
	}
	write(w, status, body)
}

// Unauthorized sends a 401.
func Unauthorized(w http.ResponseWriter) {
	Error(w, http.StatusUnauthorized, "Unauthorized")
}

// Forbidden sends a 403.
func Forbidden(w http.ResponseWriter) {
	Error(w, http.StatusForbidden, "Forbidden")
}

// NotFound sends a 404.
func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, "Not found")
}
