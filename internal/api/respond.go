package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	apperrors "rentals/internal/errors"
)

const maxBodyBytes = int64(1 << 20)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as an ErrorResponse. Errors that are not AppErrors
// are logged and reported as internal.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal("Internal server error", err)
	}

	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "path", r.URL.Path, "kind", appErr.Kind, "error", err)
	}

	message := appErr.Message
	if appErr.Kind == apperrors.KindInternal {
		message = "Internal server error"
	}
	writeJSON(w, status, ErrorResponse{Error: message, Kind: string(appErr.Kind), Details: appErr.Details})
}

// decodeJSON reads a size-limited JSON body into dst. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.Validation("Request body is empty", nil)
		}
		return apperrors.Validation(fmt.Sprintf("Invalid request body: %v", err), nil)
	}
	return nil
}
