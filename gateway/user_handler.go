// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"errors"
	"net/http"

	"chatwindows/gateway/gateway/account"
)

// UserResponse is the profile, entitlement, and usage summary for one user
type UserResponse struct {
	User            userInfo         `json:"user"`
	Subscription    subscriptionInfo `json:"subscription"`
	Usage           usageInfo        `json:"usage"`
	AvailableModels []string         `json:"available_models"`
	DefaultModel    string           `json:"default_model"`
}

type userInfo struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

type subscriptionInfo struct {
	IsPro               bool    `json:"is_pro"`
	Credits             int     `json:"credits"`
	SubscriptionEndDate *string `json:"subscription_end_date"`
}

type usageInfo struct {
	TodayMessages  int  `json:"today_messages"`
	DailyLimit     *int `json:"daily_limit"`
	RemainingToday *int `json:"remaining_today"`
}

// HandleUser returns the caller's profile, entitlement, and today's usage
func (s *Server) HandleUser(w http.ResponseWriter, r *http.Request) {
	identity := s.authenticate(w, r)
	if identity == nil {
		return
	}

	profile, err := s.repo.GetProfile(r.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, account.ErrProfileNotFound) {
			writeError(w, http.StatusNotFound, "User profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	now := s.now()
	count, err := s.repo.GetDailyUsage(r.Context(), identity.ID, today(now))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	isPro := profile.IsActivePro(now)

	resp := UserResponse{
		User: userInfo{
			ID:          profile.ID,
			Email:       profile.Email,
			DisplayName: profile.DisplayName,
		},
		Subscription: subscriptionInfo{
			IsPro:   isPro,
			Credits: profile.Credits,
		},
		Usage: usageInfo{
			TodayMessages: count,
		},
		AvailableModels: s.catalog.AllowedFor(isPro),
		DefaultModel:    s.catalog.DefaultFor(isPro),
	}

	if profile.SubscriptionEndDate != nil {
		formatted := profile.SubscriptionEndDate.UTC().Format("2006-01-02T15:04:05Z07:00")
		resp.Subscription.SubscriptionEndDate = &formatted
	}

	if !isPro {
		limit := s.ledger.DailyLimit()
		remaining := limit - count
		if remaining < 0 {
			remaining = 0
		}
		resp.Usage.DailyLimit = &limit
		resp.Usage.RemainingToday = &remaining
	}

	writeJSON(w, http.StatusOK, resp)
}
