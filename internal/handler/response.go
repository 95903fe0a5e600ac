// Package handler exposes the tracker services over HTTP/JSON.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sakif/carbon-tracker/internal/apperror"
	"github.com/sakif/carbon-tracker/internal/middleware"
	"github.com/sakif/carbon-tracker/internal/repository"
	"github.com/sakif/carbon-tracker/internal/service"
)

// maxBodyBytes leaves room for a 2 MiB avatar plus JSON overhead.
const maxBodyBytes = 3 << 20

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

var statusByCode = map[string]int{
	apperror.CodeValidation: http.StatusBadRequest,
	apperror.CodeNotFound:   http.StatusNotFound,
	apperror.CodeForbidden:  http.StatusForbidden,
	apperror.CodeConflict:   http.StatusConflict,
	apperror.CodeStorage:    http.StatusServiceUnavailable,
}

// writeError maps an error kind to a status and JSON body. Storage causes
// and unknown errors are logged and never shown to the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		slog.Error("unhandled error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   apperror.CodeInternal,
			Message: "An internal error occurred",
		})
		return
	}

	code := apperror.Code(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	if code == apperror.CodeStorage {
		slog.Error("storage failure",
			slog.String("error", err.Error()),
			slog.Any("cause", appErr.Cause),
		)
	}

	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.ValidationFailed("body", "request body is required")
		}
		return apperror.ValidationFailed("body", "invalid JSON body: "+err.Error())
	}
	return nil
}

// scope returns the request's store and session set by the middleware chain.
func scope(r *http.Request) (repository.Handle, *service.SessionContext, bool) {
	st, ok := middleware.StoreFrom(r.Context())
	if !ok {
		return nil, nil, false
	}
	sess, ok := middleware.SessionFrom(r.Context())
	return st, sess, ok
}

func writeNoScope(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, ErrorResponse{
		Error:   apperror.CodeUnauthorized,
		Message: "valid session required",
	})
}
