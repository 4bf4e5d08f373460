package pipeline

import (
	"fmt"
	"strings"

	"github.com/pgavlin/chisel/ops"
)

// A DecodeError reports input that could not be decoded into a module. It is
// fatal to its ruleset: no operations run against a module that never
// existed.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// An EncodeError reports a final module that could not be serialized.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encoding module: %v", e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// An IOError reports output that could not be written.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// A ValidationError carries every violation a checker found, never just the
// first.
type ValidationError struct {
	Op         string
	Violations []ops.Violation
}

func (e *ValidationError) Error() string {
	found := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		found[i] = v.String()
	}
	return strings.Join(found, "; ")
}
