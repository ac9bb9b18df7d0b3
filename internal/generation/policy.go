package generation

import (
	"strings"

	"sitegen/internal/siteconfig"

	genai "google.golang.org/genai"
)

// Tool names a server-side tool enabled for a session.
type Tool string

const ToolGoogleSearch Tool = "google_search"

// Policy is the conflict-free subset of a Config that fixes how a run talks
// to the model. It is computed once per run and never changes afterwards.
type Policy struct {
	OutputMode       siteconfig.OutputMode
	Schema           *genai.Schema
	Tools            []Tool
	PromptSchemaHint string
}

// Structured reports whether the final text must decode into artifacts.
func (p Policy) Structured() bool { return p.OutputMode == siteconfig.OutputJSON }

// UsesTool reports whether t was enabled for the session.
func (p Policy) UsesTool(t Tool) bool {
	for _, x := range p.Tools {
		if x == t {
			return true
		}
	}
	return false
}

// Resolve derives the Policy for cfg. Rules apply in order, first match wins:
// search grounding forces freeform text with no schema; json mode attaches the
// fixed artifact schema and keeps the free-text description as a prompt hint;
// everything else is plain text without tools.
func Resolve(cfg siteconfig.Config) Policy {
	switch {
	case cfg.EnableGoogleSearch:
		return Policy{
			OutputMode: siteconfig.OutputText,
			Tools:      []Tool{ToolGoogleSearch},
		}
	case cfg.OutputMode == siteconfig.OutputJSON:
		return Policy{
			OutputMode:       siteconfig.OutputJSON,
			Schema:           ArtifactSchema(),
			PromptSchemaHint: strings.TrimSpace(cfg.JSONSchemaDescription),
		}
	default:
		return Policy{OutputMode: siteconfig.OutputText}
	}
}

// ArtifactSchema is the enforced response schema for structured output:
// an array of {path, content} objects, both required strings.
func ArtifactSchema() *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeArray,
		Description: "Generated website files.",
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"path": {
					Type:        genai.TypeString,
					Description: "Relative file path, e.g. index.html or css/styles.css.",
				},
				"content": {
					Type:        genai.TypeString,
					Description: "Full file content.",
				},
			},
			Required: []string{"path", "content"},
		},
	}
}
