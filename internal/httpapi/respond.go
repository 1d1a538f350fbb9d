package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// apiError is the wire shape of every error response.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]apiError{"error": {Code: code, Message: message}})
}

// writeValidationError is the only error path that carries field detail.
func writeValidationError(w http.ResponseWriter, message string, details any) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]apiError{
		"error": {Code: "invalid_request", Message: message, Details: details},
	})
}

func decodeBody(r *http.Request, target any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(target)
}
