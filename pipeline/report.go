package pipeline

import (
	"errors"
	"fmt"
	"io"
)

// A Status classifies an operation's outcome or a whole ruleset.
type Status int

const (
	// StatusSkipped marks configured operations that never ran because the
	// ruleset's input could not be decoded.
	StatusSkipped Status = iota
	// StatusOk marks operations that ran and found nothing wrong.
	StatusOk
	// StatusFailed marks operations that could not apply, checks that found
	// violations, and rulesets with either.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "Skipped"
	case StatusOk:
		return "Ok"
	case StatusFailed:
		return "Failed"
	default:
		return "unknown"
	}
}

// An Outcome records a single operation's result within a ruleset.
type Outcome struct {
	Op      string
	Status  Status
	Mutated bool
	// Err holds the failure reason when Status is StatusFailed.
	Err error
}

func (o Outcome) String() string {
	switch {
	case o.Status == StatusFailed && o.Err != nil:
		return fmt.Sprintf("%s: %v (%v)", o.Op, o.Status, o.Err)
	case o.Mutated:
		return fmt.Sprintf("%s: %v (mutated)", o.Op, o.Status)
	default:
		return fmt.Sprintf("%s: %v", o.Op, o.Status)
	}
}

// A Report records one ruleset's run: every configured operation's outcome
// in order, whether output was written, and any ruleset-fatal error.
type Report struct {
	Ruleset  string
	Outcomes []Outcome
	// Err is set when the ruleset failed outside its operations: the input
	// could not be decoded, or the finalized module could not be written.
	Err           error
	OutputPath    string
	OutputWritten bool
}

// Status reports the ruleset's overall status: failed if any operation
// failed or the ruleset died outside its operations.
func (r *Report) Status() Status {
	if r.Err != nil {
		return StatusFailed
	}
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			return StatusFailed
		}
	}
	return StatusOk
}

// Mutated reports whether any operation changed the module.
func (r *Report) Mutated() bool {
	for _, o := range r.Outcomes {
		if o.Mutated {
			return true
		}
	}
	return false
}

// Write renders the report: one line per operation, then the ruleset's
// status line.
func (r *Report) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "Ruleset %s:\n", r.Ruleset); err != nil {
		return err
	}

	// A decode error precedes the (skipped) operations; a finalize error
	// follows them.
	var decodeErr *DecodeError
	fatalBefore := r.Err != nil && errors.As(r.Err, &decodeErr)
	if fatalBefore {
		if _, err := fmt.Fprintf(w, "  error: %v\n", r.Err); err != nil {
			return err
		}
	}
	for _, o := range r.Outcomes {
		if _, err := fmt.Fprintf(w, "  %v\n", o); err != nil {
			return err
		}
	}
	if r.Err != nil && !fatalBefore {
		if _, err := fmt.Fprintf(w, "  error: %v\n", r.Err); err != nil {
			return err
		}
	}
	if r.OutputWritten {
		if _, err := fmt.Fprintf(w, "  wrote %s\n", r.OutputPath); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "%s: %v\n", r.Ruleset, r.Status())
	return err
}

// Reports collects every ruleset's report in configuration order.
type Reports []*Report

// Failed reports whether any ruleset failed.
func (rs Reports) Failed() bool {
	for _, r := range rs {
		if r.Status() == StatusFailed {
			return true
		}
	}
	return false
}

// Write renders every report in order.
func (rs Reports) Write(w io.Writer) error {
	for _, r := range rs {
		if err := r.Write(w); err != nil {
			return err
		}
	}
	return nil
}
