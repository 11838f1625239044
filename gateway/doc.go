// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

// Package gateway wires the ChatWindows HTTP surface: authenticated
// streaming chat relay with tiered model access and daily free-message
// quotas, account and model listing endpoints, and PayPal checkout,
// portal, and webhook reconciliation.
package gateway
