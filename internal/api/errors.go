package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/domotica-core/internal/catalog"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeDuplicateName    = "duplicate_name"
	ErrCodeDuplicateAction  = "duplicate_action"
	ErrCodeInvalidReference = "invalid_reference"
	ErrCodeHasLinkedDevices = "has_linked_devices"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllow   = "method_not_allowed"
)

// errorKinds maps catalog error kinds to their HTTP status and code, in
// match order.
var errorKinds = []struct {
	kind   error
	status int
	code   string
}{
	{catalog.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
	{catalog.ErrDuplicateName, http.StatusBadRequest, ErrCodeDuplicateName},
	{catalog.ErrDuplicateAction, http.StatusBadRequest, ErrCodeDuplicateAction},
	{catalog.ErrInvalidReference, http.StatusBadRequest, ErrCodeInvalidReference},
	{catalog.ErrHasLinkedDevices, http.StatusBadRequest, ErrCodeHasLinkedDevices},
	{catalog.ErrInvalidInput, http.StatusBadRequest, ErrCodeBadRequest},
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeCatalogError maps a registry error to its HTTP response. Unknown
// errors are logged and reported as 500 without their detail.
func (s *Server) writeCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	for _, k := range errorKinds {
		if errors.Is(err, k.kind) {
			writeError(w, k.status, k.code, err.Error())
			return
		}
	}
	s.logger.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", r.Context().Value(ctxKeyRequestID),
		"error", err,
	)
	writeInternalError(w, "internal server error")
}

// decodeJSON decodes the request body into v, writing a 400 response and
// returning false when the body is not valid JSON.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodeBadRequest,
				fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
			return false
		}
		writeBadRequest(w, "invalid JSON body")
		return false
	}
	return true
}

// pathID parses the named URL parameter as a positive integer id, writing
// a 400 response and returning false when it is not one.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeBadRequest(w, fmt.Sprintf("invalid %s %q", name, raw))
		return 0, false
	}
	return id, true
}
