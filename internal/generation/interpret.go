package generation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrMissingField   = errors.New("artifact is missing a required field")
	ErrUnknownField   = errors.New("artifact has an unknown field")
	ErrDuplicateField = errors.New("artifact repeats a field")
	ErrFieldType      = errors.New("artifact field is not a string")
	ErrNotArray       = errors.New("structured response is not a JSON array")
	ErrTrailingData   = errors.New("unexpected data after JSON array")
	ErrEmptyResponse  = errors.New("empty structured response")
)

// Interpret turns the final text of a turn into a Result according to p.
// In structured mode the text must be a single JSON array of {path, content}
// records; any deviation yields a StructuredDecodeFailure carrying the text
// verbatim, never a partial artifact list. An empty array is a valid result
// with no artifacts.
func Interpret(finalText string, p Policy) Result {
	if !p.Structured() {
		return Result{Kind: ResultFreeform, Mode: p.OutputMode, Freeform: finalText}
	}
	arts, err := decodeArtifacts(finalText)
	if err != nil {
		e := NewError(StructuredDecodeFailure, "interpret", err)
		e.Raw = finalText
		return Failed(p.OutputMode, e)
	}
	return Result{Kind: ResultArtifacts, Mode: p.OutputMode, Artifacts: arts}
}

// decodeArtifacts walks the token stream instead of unmarshalling into a
// struct: struct decoding matches keys case-insensitively and lets a
// repeated key overwrite the first.
func decodeArtifacts(text string) ([]Artifact, error) {
	if len(bytes.TrimSpace([]byte(text))) == 0 {
		return nil, ErrEmptyResponse
	}
	dec := json.NewDecoder(strings.NewReader(text))

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode artifacts: %w", err)
	}
	switch tok {
	case json.Delim('['):
	case nil:
		return nil, fmt.Errorf("decode artifacts: %w", ErrEmptyResponse)
	default:
		return nil, ErrNotArray
	}

	out := []Artifact{}
	for i := 0; dec.More(); i++ {
		a, err := decodeArtifact(dec)
		if err != nil {
			return nil, fmt.Errorf("artifact %d: %w", i, err)
		}
		out = append(out, a)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("decode artifacts: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, ErrTrailingData
	}
	return out, nil
}

func decodeArtifact(dec *json.Decoder) (Artifact, error) {
	tok, err := dec.Token()
	if err != nil {
		return Artifact{}, err
	}
	if tok != json.Delim('{') {
		return Artifact{}, fmt.Errorf("%w: record is not an object", ErrNotArray)
	}

	fields := make(map[string]string, 2)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Artifact{}, err
		}
		key, _ := tok.(string)
		if key != "path" && key != "content" {
			return Artifact{}, fmt.Errorf("%w: %q", ErrUnknownField, key)
		}
		if _, dup := fields[key]; dup {
			return Artifact{}, fmt.Errorf("%w: %s", ErrDuplicateField, key)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return Artifact{}, err
		}
		var v string
		if len(raw) == 0 || raw[0] != '"' || json.Unmarshal(raw, &v) != nil {
			return Artifact{}, fmt.Errorf("%w: %s", ErrFieldType, key)
		}
		fields[key] = v
	}
	if _, err := dec.Token(); err != nil {
		return Artifact{}, err
	}

	path, ok := fields["path"]
	if !ok {
		return Artifact{}, fmt.Errorf("%w: path", ErrMissingField)
	}
	content, ok := fields["content"]
	if !ok {
		return Artifact{}, fmt.Errorf("%w: content", ErrMissingField)
	}
	return Artifact{Path: path, Content: content}, nil
}

// WithCitations attaches grounding citations when the search tool was used
// for the run. Otherwise r is returned unchanged.
func (r Result) WithCitations(p Policy, cites []Citation) Result {
	if !p.UsesTool(ToolGoogleSearch) || len(cites) == 0 || r.Kind == ResultError {
		return r
	}
	r.Citations = append([]Citation(nil), cites...)
	return r
}
