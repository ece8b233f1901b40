package ai

import "context"

// Schema names a JSON schema enforced on the model's reply.
type Schema struct {
	Name string
	Body map[string]any
}

// LLMProvider sends a prompt to an LLM and returns the raw text response,
// constrained to schema.
type LLMProvider interface {
	Complete(ctx context.Context, prompt string, schema Schema) (string, error)
}
