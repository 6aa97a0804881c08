package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/sagarc03/bucketgate"
)

// WriteText writes a plain text response.
func WriteText(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	if _, err := io.WriteString(w, message); err != nil {
		slog.Debug("failed to write response", "error", err)
	}
}

// HandleError maps err to a status code and a plain text body. Errors that
// do not match a known kind are logged and answered with 500.
func HandleError(w http.ResponseWriter, err error) {
	code, message := classify(err)
	if code == http.StatusInternalServerError {
		slog.Error("request error", "error", err)
	} else {
		slog.Debug("request rejected", "status", code, "error", err)
	}
	WriteText(w, code, message)
}

func classify(err error) (int, string) {
	var maxBytes *http.MaxBytesError

	switch {
	case errors.Is(err, bucketgate.ErrMissingToken):
		return http.StatusUnauthorized, "Missing token"
	case errors.Is(err, bucketgate.ErrIncorrectToken):
		return http.StatusUnauthorized, "Incorrect token"
	case errors.Is(err, bucketgate.ErrNotFound):
		return http.StatusNotFound, "Object Not Found"
	case errors.Is(err, bucketgate.ErrBadRequest):
		return http.StatusBadRequest, "Missing file"
	case errors.Is(err, bucketgate.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid key"
	case errors.Is(err, bucketgate.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed, "Method Not Allowed"
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "Payload Too Large"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}
