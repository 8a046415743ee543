package handler

import (
	"encoding/json"
	"net/http"

	"github.com/toolshare/marketplace-api/pkg/apierror"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a structured error response. Non-API errors are masked
// as internal errors.
func writeError(w http.ResponseWriter, err error) {
	apiErr := apierror.From(err)
	writeJSON(w, apiErr.StatusCode, map[string]interface{}{
		"error": apiErr,
	})
}
