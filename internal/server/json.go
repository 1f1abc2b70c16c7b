package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"finwatch/internal/jellyfin"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeGatewayError maps the gateway's error taxonomy onto local HTTP
// statuses, keeping the gateway's human-readable message.
func writeGatewayError(w http.ResponseWriter, err error) {
	var gwErr *jellyfin.Error
	if !errors.As(err, &gwErr) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusBadGateway
	switch gwErr.Kind {
	case jellyfin.KindNotConfigured, jellyfin.KindSessionExpired:
		status = http.StatusUnauthorized
	case jellyfin.KindInvalidURL:
		status = http.StatusBadRequest
	case jellyfin.KindHTTP:
		if gwErr.Status == http.StatusNotFound {
			status = http.StatusNotFound
		}
	}
	writeError(w, status, gwErr.Error())
}
