package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/store"
)

const (
	MSG_NOT_FOUND_ROUTE = "Endpoint tidak ditemukan"
	MSG_NO_DATA         = "Belum ada data sensor di database"
	MSG_READING_FIELDS  = "co2, co, dan dust harus diisi"
	MSG_CONTROL_FIELDS  = "fan atau mode harus diisi"
)

// Error is an HTTP-mappable failure. Every error body has the shape
// {"error": ..., "message": ...}.
type Error struct {
	Status  int    `json:"-"`
	Kind    string `json:"error"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Kind + ": " + e.Message
}

func validationError(message string) *Error {
	return &Error{Status: http.StatusBadRequest, Kind: "Bad request", Message: message}
}

func noDataError(message string) *Error {
	return &Error{Status: http.StatusNotFound, Kind: "No data found", Message: message}
}

func routeNotFoundError() *Error {
	return &Error{Status: http.StatusNotFound, Kind: "Not found", Message: MSG_NOT_FOUND_ROUTE}
}

// storeError passes the driver message through; the API serves an internal
// dashboard.
func storeError(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Kind: "Internal server error", Message: err.Error()}
}

// toError maps any error returned below the handlers onto the taxonomy.
func toError(err error) *Error {
	var apiErr *Error
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, store.ErrNoReadings):
		return noDataError(MSG_NO_DATA)
	default:
		return storeError(err)
	}
}

// writeJSON encodes payload before touching the response, so a value that
// cannot be encoded still ends as a 500 error body instead of an empty 200.
func writeJSON(logger *slog.Logger, w http.ResponseWriter, status int, payload any) {
	var body bytes.Buffer
	if err := json.NewEncoder(&body).Encode(payload); err != nil {
		logger.Error("Failed to encode response", "status", status, "error", err)

		body.Reset()
		status = http.StatusInternalServerError
		_ = json.NewEncoder(&body).Encode(storeError(fmt.Errorf("failed to encode response: %w", err)))
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body.Bytes())
}

func writeError(logger *slog.Logger, w http.ResponseWriter, err error) {
	apiErr := toError(err)
	writeJSON(logger, w, apiErr.Status, apiErr)
}
