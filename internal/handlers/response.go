package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// sessionName is the cookie session every handler shares
const sessionName = "session"

// maxBodyBytes caps JSON request bodies
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// decodeJSON reads a JSON request body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
