package vcs

import (
	"errors"
	"fmt"
)

var (
	ErrKindMismatch     = errors.New("vcs: payload tag does not match the delta kind")
	ErrMalformedPayload = errors.New("vcs: malformed payload")
	ErrNoIdentity       = errors.New("vcs: collection element has no id")
	ErrItemMismatch     = errors.New("vcs: items of different kinds")
	ErrUnknownItem      = errors.New("vcs: unknown item kind")
)

// DecodeError reports a payload that could not be applied to its slot.
type DecodeError struct {
	Kind Kind
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("vcs: cannot decode %s: %s", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Skip handles a payload that does not fit its decoder. Debug builds
// (the vcsdebug tag) fail right away; release builds log, count and
// hand the error back so the caller leaves the field as it was.
func Skip(k Kind, err error) error {
	var de *DecodeError
	if !errors.As(err, &de) {
		de = &DecodeError{Kind: k, Err: err}
	}
	if debugAsserts {
		panic(de)
	}
	ResetSkipped.WithLabelValues(k.String()).Inc()
	Log.Warn("skipping delta", "kind", k.String(), "err", de.Err)
	return de
}

// defect signals library misuse: panics in debug builds, logs otherwise.
func defect(msg string, args ...any) {
	if debugAsserts {
		panic(fmt.Sprint(append([]any{msg, " "}, args...)...))
	}
	Log.Error(msg, args...)
}

// DebugBuild tells whether malformed input panics instead of being skipped.
func DebugBuild() bool {
	return debugAsserts
}
