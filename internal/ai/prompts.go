package ai

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/classify.md
var classifyPromptRaw string

// ClassifyTemplate is the parsed prompt template for job classification.
var ClassifyTemplate = template.Must(template.New("classify").Parse(classifyPromptRaw))
