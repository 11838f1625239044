// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedbackRequest(t *testing.T, token string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest("POST", "/api/v1/feedback", &buf)
	req.Header.Set("User-Agent", "test-agent/1.0")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestFeedbackAnonymous(t *testing.T) {
	ts := newTestServer()
	w := httptest.NewRecorder()

	ts.HandleFeedback(w, feedbackRequest(t, "", map[string]interface{}{
		"message": "The stream cut off mid-answer",
		"email":   "visitor@example.com",
		"rating":  4,
	}))

	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, ts.repo.feedbacks, 1)
	fb := ts.repo.feedbacks[0]
	assert.Empty(t, fb.UserID)
	assert.Equal(t, "visitor@example.com", fb.Email)
	assert.Equal(t, "general", fb.Type)
	assert.Equal(t, 4, fb.Rating)
	assert.Equal(t, "test-agent/1.0", fb.UserAgent)
}

func TestFeedbackAuthenticatedUsesIdentityEmail(t *testing.T) {
	ts := newTestServer()
	w := httptest.NewRecorder()

	ts.HandleFeedback(w, feedbackRequest(t, "tok", map[string]interface{}{
		"type":    "bug",
		"message": "Model picker resets on reload",
		"email":   "other@example.com",
	}))

	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, ts.repo.feedbacks, 1)
	fb := ts.repo.feedbacks[0]
	assert.Equal(t, "user-1", fb.UserID)
	// The verified identity wins over the body email
	assert.Equal(t, "user@example.com", fb.Email)
	assert.Equal(t, "bug", fb.Type)
}

func TestFeedbackInvalidTokenFallsBackToAnonymous(t *testing.T) {
	ts := newTestServer()
	ts.verifier = &fakeVerifier{err: errors.New("expired")}
	w := httptest.NewRecorder()

	ts.HandleFeedback(w, feedbackRequest(t, "stale", map[string]interface{}{
		"message": "still works",
	}))

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, ts.repo.feedbacks, 1)
	assert.Empty(t, ts.repo.feedbacks[0].UserID)
}

func TestFeedbackRejectsEmptyMessage(t *testing.T) {
	ts := newTestServer()
	w := httptest.NewRecorder()

	ts.HandleFeedback(w, feedbackRequest(t, "", map[string]interface{}{
		"message": "   ",
	}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, ts.repo.feedbacks)
}

func TestFeedbackRejectsOversizedMessage(t *testing.T) {
	ts := newTestServer()
	w := httptest.NewRecorder()

	ts.HandleFeedback(w, feedbackRequest(t, "", map[string]interface{}{
		"message": strings.Repeat("a", 5001),
	}))

	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "too long")
}
