package generation

import "sitegen/internal/siteconfig"

// Role identifies who produced a Turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one entry of the conversation history.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Artifact is one generated file.
type Artifact struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Citation is a grounding source reported by the search tool.
type Citation struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
}

// ResultKind tags which branch of a Result is populated.
type ResultKind int

const (
	ResultFreeform ResultKind = iota
	ResultArtifacts
	ResultError
)

func (k ResultKind) String() string {
	switch k {
	case ResultFreeform:
		return "freeform"
	case ResultArtifacts:
		return "artifacts"
	case ResultError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is published after every state change of a turn.
// Exactly one of Freeform, Artifacts or Err is meaningful, selected by Kind.
// Partial snapshots are freeform with Streaming set.
type Result struct {
	Kind      ResultKind
	Mode      siteconfig.OutputMode
	Freeform  string
	Artifacts []Artifact
	Citations []Citation
	Streaming bool
	// Raw holds the verbatim model text when Kind is ResultError after a decode failure.
	Raw string
	Err *Error
}

// Partial is the in-progress snapshot for text accumulated so far.
func Partial(mode siteconfig.OutputMode, text string) Result {
	return Result{Kind: ResultFreeform, Mode: mode, Freeform: text, Streaming: true}
}

// Failed wraps err as an error result.
func Failed(mode siteconfig.OutputMode, err *Error) Result {
	return Result{Kind: ResultError, Mode: mode, Raw: err.Raw, Err: err}
}

// Text returns the freeform text or, for artifacts, an empty string.
func (r Result) Text() string { return r.Freeform }

// Final reports whether r ends its turn.
func (r Result) Final() bool { return !r.Streaming }

// Clone returns a copy that shares no slices with r.
func (r Result) Clone() Result {
	out := r
	if r.Artifacts != nil {
		out.Artifacts = append([]Artifact(nil), r.Artifacts...)
	}
	if r.Citations != nil {
		out.Citations = append([]Citation(nil), r.Citations...)
	}
	return out
}
