package backends

import (
	"errors"
	"fmt"
)

// ------------------------------------------------------------------
// Failure classification
// ------------------------------------------------------------------
//
// Adapters surface these kinds as typed values. The dispatcher's
// fallback-eligibility decision depends on the kind, so it is produced by
// the adapter itself, never inferred from message text.

type FailureKind int

const (
	FailureCredential FailureKind = iota + 1 // missing or invalid secret
	FailureConnection                        // could not reach the remote service
	FailureUnsupportedGate                   // adapter cannot translate a gate kind
	FailureRuntime                           // remote execution failed after a successful connection
)

func (k FailureKind) String() string {
	switch k {
	case FailureCredential:
		return "credential"
	case FailureConnection:
		return "connection"
	case FailureUnsupportedGate:
		return "unsupported_gate"
	case FailureRuntime:
		return "runtime"
	default:
		return "unknown"
	}
}

// Error is a classified adapter failure.
type Error struct {
	Kind    FailureKind
	Backend string
	Msg     string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg != "" {
			msg = fmt.Sprintf("%s: %v", msg, e.Err)
		} else {
			msg = e.Err.Error()
		}
	}
	return fmt.Sprintf("%s error on %s: %s", e.Kind, e.Backend, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a classified failure directly. Adapters in this package
// use the kind-specific constructors; external adapters and tests use this.
func NewError(kind FailureKind, backend, msg string) error {
	return &Error{Kind: kind, Backend: backend, Msg: msg}
}

func credentialError(backend, format string, args ...any) error {
	return &Error{Kind: FailureCredential, Backend: backend, Msg: fmt.Sprintf(format, args...)}
}

func connectionError(backend string, err error) error {
	return &Error{Kind: FailureConnection, Backend: backend, Msg: "could not reach service", Err: err}
}

func unsupportedGateError(backend, kind string) error {
	return &Error{Kind: FailureUnsupportedGate, Backend: backend,
		Msg: fmt.Sprintf("gate kind %q is not supported", kind)}
}

func runtimeError(backend, format string, args ...any) error {
	return &Error{Kind: FailureRuntime, Backend: backend, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the failure kind from an adapter error chain.
func KindOf(err error) (FailureKind, bool) {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind, true
	}
	return 0, false
}

// ConfigError reports a backend key that is not in the registry. Like a
// validation failure, it is never retried or subject to fallback.
type ConfigError struct {
	Key string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("unsupported provider: %s", e.Key)
}
