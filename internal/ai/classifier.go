package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"text/template"
	"unicode/utf8"

	"github.com/amishk599/jobtrack/internal/model"
)

// Ensure LLMClassifier implements model.Classifier.
var _ model.Classifier = (*LLMClassifier)(nil)

const maxDescriptionChars = 2000

// LLMClassifier asks an LLM to pick one of a fixed set of categories. Any
// failure falls back to the wrapped classifier.
type LLMClassifier struct {
	provider   LLMProvider
	tmpl       *template.Template
	categories []string
	fallback   model.Classifier
	logger     *slog.Logger
}

// NewLLMClassifier creates a classifier restricted to categories. fallback
// handles every call the LLM cannot answer.
func NewLLMClassifier(provider LLMProvider, tmpl *template.Template, categories []string, fallback model.Classifier, logger *slog.Logger) *LLMClassifier {
	return &LLMClassifier{
		provider:   provider,
		tmpl:       tmpl,
		categories: categories,
		fallback:   fallback,
		logger:     logger,
	}
}

// Classify returns the LLM's category, or the fallback's on any error.
func (c *LLMClassifier) Classify(ctx context.Context, title, description string) string {
	category, err := c.classify(ctx, title, description)
	if err != nil {
		c.logger.Warn("llm classification failed, using keyword rules", "title", title, "error", err)
		return c.fallback.Classify(ctx, title, description)
	}
	return category
}

func (c *LLMClassifier) classify(ctx context.Context, title, description string) (string, error) {
	if len(c.categories) == 0 {
		return "", fmt.Errorf("no categories configured")
	}
	if utf8.RuneCountInString(description) > maxDescriptionChars {
		description = string([]rune(description)[:maxDescriptionChars]) + "..."
	}

	var prompt bytes.Buffer
	err := c.tmpl.Execute(&prompt, struct {
		Title       string
		Description string
		Categories  []string
		Fallback    string
	}{
		Title:       title,
		Description: description,
		Categories:  c.categories,
		Fallback:    c.categories[len(c.categories)-1],
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}

	raw, err := c.provider.Complete(ctx, prompt.String(), categorySchema(c.categories))
	if err != nil {
		return "", fmt.Errorf("llm complete: %w", err)
	}

	var reply struct {
		Category string `json:"category"`
	}
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		return "", fmt.Errorf("unmarshal category JSON: %w", err)
	}

	category := strings.TrimSpace(reply.Category)
	if !slices.Contains(c.categories, category) {
		return "", fmt.Errorf("llm returned unknown category %q", reply.Category)
	}
	return category, nil
}

func categorySchema(categories []string) Schema {
	return Schema{
		Name: "job_category",
		Body: map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"category": map[string]any{
					"type": "string",
					"enum": categories,
				},
			},
			"required": []string{"category"},
		},
	}
}
