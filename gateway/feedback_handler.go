// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"encoding/json"
	"net/http"
	"strings"

	"chatwindows/gateway/gateway/account"
)

// FeedbackRequest is the request body of the feedback endpoint
type FeedbackRequest struct {
	Type    string `json:"type,omitempty"`
	Message string `json:"message" validate:"required,max=5000"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Rating  int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Page    string `json:"page,omitempty"`
}

// HandleFeedback stores a feedback submission. Authentication is optional:
// a valid bearer token attaches the submission to the user, anything else
// leaves it anonymous.
func (s *Server) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	var userID, userEmail string
	if token := bearerToken(r); token != "" {
		if identity, err := s.verifier.Verify(r.Context(), token); err == nil {
			userID = identity.ID
			userEmail = identity.Email
		}
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Feedback message is required")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validate.Struct(&req); err != nil {
		if len(req.Message) > 5000 {
			writeError(w, http.StatusBadRequest, "Feedback message is too long (max 5000 characters)")
			return
		}
		writeError(w, http.StatusBadRequest, "Feedback message is required")
		return
	}

	feedbackEmail := userEmail
	if feedbackEmail == "" {
		feedbackEmail = req.Email
	}
	feedbackType := req.Type
	if feedbackType == "" {
		feedbackType = "general"
	}

	id, err := s.repo.SaveFeedback(r.Context(), &account.Feedback{
		UserID:    userID,
		Email:     feedbackEmail,
		Type:      feedbackType,
		Message:   req.Message,
		Rating:    req.Rating,
		Page:      req.Page,
		UserAgent: r.Header.Get("User-Agent"),
	})
	if err != nil {
		s.log.ErrorWithErr(userID, "", "failed to save feedback", err, nil)
		writeError(w, http.StatusInternalServerError, "Failed to save feedback")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"id":      id,
		"message": "Thank you for your feedback!",
	})
}
