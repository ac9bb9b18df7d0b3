package generation

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure of the generation engine.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// SessionOpenFailure: the remote session could not be established. Fatal for the run.
	SessionOpenFailure
	// StreamTransportFailure: a turn's stream broke mid-way. Fatal for that turn only.
	StreamTransportFailure
	// StructuredDecodeFailure: the final text did not decode into artifacts.
	StructuredDecodeFailure
	// InvalidCallSequence: a call arrived in a state that cannot accept it.
	InvalidCallSequence
)

func (k ErrorKind) String() string {
	switch k {
	case SessionOpenFailure:
		return "session_open_failure"
	case StreamTransportFailure:
		return "stream_transport_failure"
	case StructuredDecodeFailure:
		return "structured_decode_failure"
	case InvalidCallSequence:
		return "invalid_call_sequence"
	default:
		return "unknown"
	}
}

var (
	ErrTurnInFlight  = errors.New("a turn is already in flight")
	ErrSessionClosed = errors.New("session closed")
	ErrNotActive     = errors.New("session is not active")
	ErrStarted       = errors.New("session already started")
)

// Error is the structured failure reported by the engine.
// Raw carries the verbatim model text for StructuredDecodeFailure.
type Error struct {
	Kind ErrorKind
	Op   string
	Raw  string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with a kind and the operation that failed.
func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) ErrorKind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindUnknown
}
