// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"net/http"

	"chatwindows/gateway/gateway/catalog"
)

// ModelInfo describes one catalog entry for clients
type ModelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Tier string `json:"tier"`
}

// ModelsResponse is the static model catalog listing
type ModelsResponse struct {
	Models   map[string][]ModelInfo `json:"models"`
	Defaults map[string]string      `json:"defaults"`
}

// HandleModels lists the model catalog. No authentication required.
func (s *Server) HandleModels(w http.ResponseWriter, r *http.Request) {
	resp := ModelsResponse{
		Models: map[string][]ModelInfo{
			"free": modelInfos(s.catalog.Free, "free"),
			"pro":  modelInfos(s.catalog.Pro, "pro"),
		},
		Defaults: map[string]string{
			"free": s.catalog.FreeDefault,
			"pro":  s.catalog.ProDefault,
		},
	}
	writeJSON(w, http.StatusOK, resp)
}

func modelInfos(ids []string, tier string) []ModelInfo {
	infos := make([]ModelInfo, 0, len(ids))
	for _, id := range ids {
		infos = append(infos, ModelInfo{
			ID:   id,
			Name: catalog.DisplayName(id),
			Tier: tier,
		})
	}
	return infos
}
