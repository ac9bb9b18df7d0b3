package generation

import (
	"strings"

	"sitegen/internal/siteconfig"
)

// Params are the numeric generation controls, copied verbatim from the config.
type Params struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
	ThinkingBudget  int     `json:"thinkingBudget"`
}

// Request is everything needed to open a session and send its first turn.
type Request struct {
	SystemInstruction string
	TurnPrompt        string
	Params            Params
	Policy            Policy
}

// Compose builds the outbound request for cfg under policy p.
// It is pure: equal inputs give byte-identical output. Values are not
// re-validated here.
func Compose(cfg siteconfig.Config, p Policy) Request {
	return Request{
		SystemInstruction: render(systemClauses, cfg, p, personaPreamble, "\n"),
		TurnPrompt:        render(turnClauses, cfg, p, "", " "),
		Params: Params{
			Temperature:     cfg.Temperature,
			TopP:            cfg.TopP,
			TopK:            cfg.TopK,
			MaxOutputTokens: cfg.MaxOutputTokens,
			ThinkingBudget:  cfg.ThinkingBudget,
		},
		Policy: p,
	}
}

// SystemClauses returns the names of the system-instruction clauses that
// apply to cfg, in the order they are rendered.
func SystemClauses(cfg siteconfig.Config, p Policy) []string {
	return active(systemClauses, cfg, p)
}

// TurnClauses returns the names of the first-turn clauses that apply to cfg,
// in the order they are rendered.
func TurnClauses(cfg siteconfig.Config, p Policy) []string {
	return active(turnClauses, cfg, p)
}

func active(table []clause, cfg siteconfig.Config, p Policy) []string {
	var names []string
	for _, cl := range table {
		if cl.when(cfg, p) {
			names = append(names, cl.name)
		}
	}
	return names
}

// render concatenates the applicable clauses. A part that starts with a
// newline is a block and is appended without the separator.
func render(table []clause, cfg siteconfig.Config, p Policy, head, sep string) string {
	var b strings.Builder
	b.WriteString(head)
	for _, cl := range table {
		if !cl.when(cfg, p) {
			continue
		}
		part := cl.text(cfg, p)
		if b.Len() > 0 && !strings.HasPrefix(part, "\n") {
			b.WriteString(sep)
		}
		b.WriteString(part)
	}
	return b.String()
}
