// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"
)

// errorResponse is the JSON body of every non-2xx API reply.
type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceUnavailable reports that the camera could not be acquired.
func writeServiceUnavailable(w http.ResponseWriter, reason string, err error) {
	writeJSON(w, http.StatusServiceUnavailable, errorResponse{
		Error:  "acquisition_failed",
		Reason: reason,
		Detail: err.Error(),
	})
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error", Detail: err.Error()})
}

func writeNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Detail: r.URL.Path})
}

func writeMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method_not_allowed", Detail: r.Method})
}
