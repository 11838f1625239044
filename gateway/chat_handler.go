// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"chatwindows/gateway/gateway/account"
	"chatwindows/gateway/gateway/quota"
	"chatwindows/gateway/gateway/relay"
)

// ChatRequest is the request body of the chat endpoint
type ChatRequest struct {
	Messages     []relay.ChatMessage `json:"messages" validate:"required,min=1"`
	Model        string              `json:"model,omitempty"`
	WebSearch    bool                `json:"webSearch,omitempty"`
	ThinkingMode bool                `json:"thinkingMode,omitempty"`
}

// HandleChat relays one streaming chat completion.
//
// Pipeline: authenticate, load the profile, resolve the effective tier,
// select the model, meter free-tier quota, then stream the upstream response
// through unmodified while counting bytes for post-hoc usage estimation.
func (s *Server) HandleChat(w http.ResponseWriter, r *http.Request) {
	reqID := requestID()

	identity := s.authenticate(w, r)
	if identity == nil {
		promChatRequestsTotal.WithLabelValues("unauthorized").Inc()
		return
	}

	profile, err := s.repo.GetProfile(r.Context(), identity.ID)
	if err != nil {
		if errors.Is(err, account.ErrProfileNotFound) {
			promChatRequestsTotal.WithLabelValues("no_profile").Inc()
			writeError(w, http.StatusNotFound, "User profile not found")
			return
		}
		s.log.ErrorWithErr(identity.ID, reqID, "failed to load profile", err, nil)
		promChatRequestsTotal.WithLabelValues("error").Inc()
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		promChatRequestsTotal.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, "Messages array is required")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		promChatRequestsTotal.WithLabelValues("bad_request").Inc()
		writeError(w, http.StatusBadRequest, "Messages array is required")
		return
	}

	now := s.now()
	isPro := profile.IsActivePro(now)
	model := s.catalog.Select(req.Model, isPro, req.ThinkingMode)

	if !isPro {
		if _, err := s.ledger.Consume(r.Context(), identity.ID, today(now)); err != nil {
			if errors.Is(err, quota.ErrQuotaExceeded) {
				promChatRequestsTotal.WithLabelValues("quota_exceeded").Inc()
				promQuotaRejections.Inc()
				writeJSON(w, http.StatusTooManyRequests, errorResponse{
					Error: "Daily limit reached",
					Message: fmt.Sprintf(
						"You have used all %d free messages for today. Upgrade to Pro for unlimited messages.",
						s.ledger.DailyLimit()),
					UpgradeRequired: true,
				})
				return
			}
			s.log.ErrorWithErr(identity.ID, reqID, "quota check failed", err, nil)
			promChatRequestsTotal.WithLabelValues("error").Inc()
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	// Pro-only options are dropped, not rejected, for free-tier callers
	opts := relay.Options{
		WebSearch:    req.WebSearch && isPro,
		ThinkingMode: req.ThinkingMode && isPro,
	}

	stream, err := s.relay.StreamChatCompletion(r.Context(), req.Messages, model, opts)
	if err != nil {
		s.log.ErrorWithErr(identity.ID, reqID, "upstream request failed", err, map[string]interface{}{
			"model": model,
		})
		promChatRequestsTotal.WithLabelValues("upstream_error").Inc()
		writeErrorWithMessage(w, http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}
	defer func() {
		_ = stream.Close()
	}()

	s.log.Info(identity.ID, reqID, "relaying chat stream", map[string]interface{}{
		"model":      model,
		"is_pro":     isPro,
		"web_search": opts.WebSearch,
	})
	promChatRequestsTotal.WithLabelValues("ok").Inc()

	s.relayStream(w, r, stream, identity.ID, model)
}

// relayStream forwards the upstream byte stream to the client unmodified,
// accumulating the byte count. One usage entry is recorded when the stream
// reaches its natural end; a client disconnect or upstream drop records
// nothing.
func (s *Server) relayStream(w http.ResponseWriter, r *http.Request, stream io.Reader, userID, model string) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	start := time.Now()
	buf := make([]byte, 32*1024)
	total := 0

	for {
		n, readErr := stream.Read(buf)
		if n > 0 {
			total += n
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				// Client went away; drop the stream, record nothing
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr == io.EOF {
			promStreamDuration.Observe(float64(time.Since(start).Milliseconds()))
			// The request context may be torn down with the response;
			// the usage write gets its own.
			s.recorder.RecordStream(context.Background(), userID, total, model)
			return
		}
		if readErr != nil {
			// Upstream dropped mid-stream: the client sees a truncated
			// stream, no retry, no usage entry
			s.log.ErrorWithErr(userID, "", "upstream stream interrupted", readErr, map[string]interface{}{
				"bytes_relayed": total,
			})
			return
		}
	}
}
