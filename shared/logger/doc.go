// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

/*
Package logger provides structured JSON logging for ChatWindows gateway
components.

Each log entry is written to stdout as single-line JSON with a timestamp,
level, component name, and optional user and request correlation ids:

	log := logger.New("gateway")
	log.Info("user-123", "req-456", "chat request accepted", map[string]interface{}{
	    "model": "openai/gpt-4o-mini",
	})

Logger instances are safe for concurrent use from multiple goroutines.
*/
package logger
