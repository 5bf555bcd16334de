package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/Parthiban1805/Campus-visitor-pass/internal/gatepass/types"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, types.ErrorResponse{Error: code, Message: message})
}
