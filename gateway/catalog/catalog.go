// Copyright 2026 ChatWindows
// SPDX-License-Identifier: Apache-2.0

// Package catalog holds the model catalog and the tier-aware model selection
// rules. Free and pro tiers each have an allow-list and a default model; the
// pro allow-list is the union of both lists. Requests for models outside the
// caller's allow-list are silently downgraded to the tier default rather than
// rejected.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Built-in OpenRouter model identifiers
const (
	DefaultFreeModel = "meta-llama/llama-3.1-8b-instruct:free"
	DefaultProModel  = "openai/gpt-4o-mini"

	// ThinkingModel is the single designated deep-reasoning model
	ThinkingModel = "deepseek/deepseek-r1"
)

// Catalog is the set of models offered per tier
type Catalog struct {
	Free          []string `yaml:"free"`
	Pro           []string `yaml:"pro"`
	FreeDefault   string   `yaml:"free_default"`
	ProDefault    string   `yaml:"pro_default"`
	ThinkingModel string   `yaml:"thinking_model"`
}

// Default returns the built-in catalog
func Default() *Catalog {
	return &Catalog{
		Free: []string{
			"meta-llama/llama-3.1-8b-instruct:free",
			"google/gemma-2-9b-it:free",
			"mistralai/mistral-7b-instruct:free",
		},
		Pro: []string{
			"anthropic/claude-3.5-sonnet",
			"openai/gpt-4o",
			"openai/gpt-4o-mini",
			"google/gemini-pro-1.5",
			"meta-llama/llama-3.1-70b-instruct",
			"deepseek/deepseek-r1",
		},
		FreeDefault:   DefaultFreeModel,
		ProDefault:    DefaultProModel,
		ThinkingModel: ThinkingModel,
	}
}

// Load reads a catalog override from a YAML file. Fields left empty in the
// file fall back to the built-in catalog.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}
	if c.FreeDefault == "" {
		c.FreeDefault = DefaultFreeModel
	}
	if c.ProDefault == "" {
		c.ProDefault = DefaultProModel
	}
	if c.ThinkingModel == "" {
		c.ThinkingModel = ThinkingModel
	}
	return c, nil
}

// DefaultFor returns the default model for the given tier
func (c *Catalog) DefaultFor(isPro bool) string {
	if isPro {
		return c.ProDefault
	}
	return c.FreeDefault
}

// AllowedFor returns the allow-list for the given tier. The pro list is the
// union of free and pro models.
func (c *Catalog) AllowedFor(isPro bool) []string {
	if !isPro {
		return c.Free
	}
	allowed := make([]string, 0, len(c.Free)+len(c.Pro))
	allowed = append(allowed, c.Free...)
	allowed = append(allowed, c.Pro...)
	return allowed
}

// IsAllowed reports whether the model is in the tier's allow-list
func (c *Catalog) IsAllowed(model string, isPro bool) bool {
	for _, m := range c.AllowedFor(isPro) {
		if m == model {
			return true
		}
	}
	return false
}

// DisplayName returns a human-readable name for known model ids,
// falling back to the id itself.
func DisplayName(modelID string) string {
	names := map[string]string{
		"meta-llama/llama-3.1-8b-instruct:free": "Llama 3.1 8B (Free)",
		"google/gemma-2-9b-it:free":             "Gemma 2 9B (Free)",
		"mistralai/mistral-7b-instruct:free":    "Mistral 7B (Free)",
		"anthropic/claude-3.5-sonnet":           "Claude 3.5 Sonnet",
		"openai/gpt-4o":                         "GPT-4o",
		"openai/gpt-4o-mini":                    "GPT-4o Mini",
		"google/gemini-pro-1.5":                 "Gemini Pro 1.5",
		"meta-llama/llama-3.1-70b-instruct":     "Llama 3.1 70B",
		"deepseek/deepseek-r1":                  "DeepSeek R1",
	}
	if name, ok := names[modelID]; ok {
		return name
	}
	return modelID
}
