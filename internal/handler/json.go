package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeJSON sends a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("write JSON response", "error", err)
	}
}

// writeError sends a JSON error response carrying a machine-readable code
// alongside the human-readable message. Extra fields (e.g. remaining
// attempts) may be merged in via extras.
func writeError(w http.ResponseWriter, status int, code, message string, extras ...map[string]any) {
	body := map[string]any{"error": message, "code": code}
	for _, extra := range extras {
		for k, v := range extra {
			body[k] = v
		}
	}
	writeJSON(w, status, body)
}

// readJSON decodes the request body into the given destination.
func readJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
