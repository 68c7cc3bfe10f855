package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/HammerMeetNail/socialcore/internal/logging"
	"github.com/HammerMeetNail/socialcore/internal/services"
)

const maxBodyBytes = 1 << 16

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Error("Failed to encode response", map[string]interface{}{"error": err})
	}
}

func writeError(w http.ResponseWriter, status int, message string, code services.Code) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: string(code)})
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Authentication required", Code: "unauthorized"})
}

// writeServiceError renders a service error through the error taxonomy.
// Internal errors are logged and never leak their message.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	code := services.CodeOf(err)
	if code == services.CodeInternal {
		logging.Error("Request failed", map[string]interface{}{
			"op":    op,
			"path":  r.URL.Path,
			"error": err,
		})
		writeError(w, http.StatusInternalServerError, "Internal server error", code)
		return
	}
	message := err.Error()
	if code == services.CodeUnavailable {
		logging.Warn("Backing store unavailable", map[string]interface{}{"op": op, "error": err})
		message = services.ErrUnavailable.Error()
	}
	writeError(w, code.HTTPStatus(), message, code)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dst)
}

func writeInvalidBody(w http.ResponseWriter) {
	writeError(w, http.StatusBadRequest, "Invalid request body", services.CodeValidation)
}

// pathID parses a positive integer path wildcard.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// requireUser returns the authenticated user, writing a 401 when absent.
func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeUnauthorized(w)
		return 0, false
	}
	return user.ID, true
}
