// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"encoding/json"
	"log"
	"net/http"
)

// errorResponse is the single structured error body crossing the boundary
type errorResponse struct {
	Error           string `json:"error"`
	Message         string `json:"message,omitempty"`
	UpgradeRequired bool   `json:"upgrade_required,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, errMsg string) {
	writeJSON(w, status, errorResponse{Error: errMsg})
}

func writeErrorWithMessage(w http.ResponseWriter, status int, errMsg, message string) {
	writeJSON(w, status, errorResponse{Error: errMsg, Message: message})
}
