// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

package catalog

// Select picks the model actually used for a request.
//
// Selection starts from the requested model, or the tier default when none
// was requested. Thinking mode overrides the explicit request for pro users.
// A selection outside the tier's allow-list is replaced with the tier default
// rather than rejected, so Select always returns a model the caller may use.
func (c *Catalog) Select(requested string, isPro, thinkingMode bool) string {
	model := requested
	if model == "" {
		model = c.DefaultFor(isPro)
	}

	if thinkingMode && isPro {
		model = c.ThinkingModel
	}

	if !c.IsAllowed(model, isPro) {
		model = c.DefaultFor(isPro)
	}
	return model
}
