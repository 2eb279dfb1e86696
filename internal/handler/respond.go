package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/templui/promoproof/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// errorStatus maps a service error category to its HTTP status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrAssetMissing):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyReviewed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError logs err with its request context and writes the
// matching status. Client errors carry the validation message; server
// errors only carry msg.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, msg string, args ...any) {
	status := errorStatus(err)
	args = append(args, "error", err, "method", r.Method, "path", r.URL.Path)

	if status >= http.StatusInternalServerError {
		slog.Error(msg, args...)
		writeError(w, status, msg)
		return
	}

	slog.Warn(msg, args...)
	writeError(w, status, err.Error())
}

// serveFile streams a stored blob, sniffing the content type from its
// first bytes.
func serveFile(w http.ResponseWriter, rc io.ReadCloser, name string) {
	defer func() {
		closeErr := rc.Close()
		if closeErr != nil {
			slog.Error("failed to close file", "error", closeErr, "name", name)
		}
	}()

	head := make([]byte, 512)
	n, err := io.ReadFull(rc, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		slog.Error("failed to read file", "error", err, "name", name)
		writeError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}
	head = head[:n]

	w.Header().Set("Content-Type", http.DetectContentType(head))
	w.Header().Set("Content-Disposition", `inline; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)

	_, err = w.Write(head)
	if err == nil {
		_, err = io.Copy(w, rc)
	}
	if err != nil {
		slog.Warn("failed to stream file", "error", err, "name", name)
	}
}
