// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

// Package usage records post-hoc token estimates for completed streams.
// Recording is fire-and-forget: the client has already received the full
// response, so write failures are logged and never surfaced.
package usage

import (
	"context"

	"chatwindows/gateway/gateway/account"
	"chatwindows/gateway/shared/logger"
)

// Recorder appends usage log entries after a relayed stream completes
type Recorder struct {
	repo account.Repository
	log  *logger.Logger
}

// NewRecorder creates a new usage recorder
func NewRecorder(repo account.Repository) *Recorder {
	return &Recorder{
		repo: repo,
		log:  logger.New("usage"),
	}
}

// EstimateTokens converts an accumulated byte length into a rough token
// count using the 4-bytes-per-token heuristic, rounding up. The estimate
// trades accuracy for not having to parse the upstream SSE framing.
func EstimateTokens(byteLength int) int {
	if byteLength <= 0 {
		return 0
	}
	return (byteLength + 3) / 4
}

// RecordStream writes one usage log entry for a completed stream.
// Called exactly once per stream that reached its natural end; streams cut
// short by a client disconnect are not recorded.
func (r *Recorder) RecordStream(ctx context.Context, userID string, byteLength int, model string) {
	tokens := EstimateTokens(byteLength)

	if err := r.repo.RecordUsage(ctx, userID, tokens, model); err != nil {
		r.log.ErrorWithErr(userID, "", "failed to record usage", err, map[string]interface{}{
			"model":  model,
			"tokens": tokens,
		})
	}
}
