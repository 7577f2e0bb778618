// Package waserr defines the fatal-error shape used across the core (§7
// of the design: unsupported module shape, malformed CFG, mismatched
// call, unsupported memory op, shape mismatch at join). All of these
// abort analysis immediately with no partial results; nothing here is
// recoverable by the caller beyond reporting it.
package waserr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind names one of the fatal conditions from the error-handling table.
type Kind string

const (
	UnsupportedModuleShape Kind = "unsupported_module_shape"
	MalformedCFG           Kind = "malformed_cfg"
	MismatchedCall         Kind = "mismatched_call"
	UnsupportedMemoryOp    Kind = "unsupported_memory_op"
	ShapeMismatch          Kind = "shape_mismatch"
)

// FatalError identifies the function and block where a fatal condition
// was detected, per §7's "surface immediately with a descriptive message
// identifying the function and block".
type FatalError struct {
	Kind    Kind
	FuncIdx int
	BlockID int // -1 when not applicable
	Msg     string
}

func (e *FatalError) Error() string {
	if e.BlockID < 0 {
		return fmt.Sprintf("%s: func %d: %s", e.Kind, e.FuncIdx, e.Msg)
	}
	return fmt.Sprintf("%s: func %d block %d: %s", e.Kind, e.FuncIdx, e.BlockID, e.Msg)
}

// New builds a fatal error with a stack trace attached, so the caller
// (typically a CLI front-end) can log where in the engine it originated
// without re-deriving it from a bare error string.
func New(kind Kind, funcIdx, blockID int, msg string) error {
	return errors.WithStack(&FatalError{Kind: kind, FuncIdx: funcIdx, BlockID: blockID, Msg: msg})
}

// Newf is New with fmt.Sprintf-style formatting of msg.
func Newf(kind Kind, funcIdx, blockID int, format string, args ...interface{}) error {
	return New(kind, funcIdx, blockID, fmt.Sprintf(format, args...))
}

// As recovers the *FatalError from an error built by New, unwrapping any
// pkg/errors stack annotation in between.
func As(err error) (*FatalError, bool) {
	var fe *FatalError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
