// Package pipeline drives rulesets end to end: decode a module, apply the
// configured operations in order, and write the result back out if anything
// changed it.
//
// A ruleset runs to completion once started. Operation failures are recorded
// and execution moves on, so one run reports every problem it can find; only
// an input that cannot be decoded stops a ruleset early, and even then the
// report still lists every configured operation. Rulesets never share state,
// so one ruleset's failure never affects another's.
package pipeline

import (
	"bytes"
	"encoding/hex"
	"errors"
	"os"

	"go.uber.org/zap"

	"github.com/pgavlin/chisel/config"
	"github.com/pgavlin/chisel/ir"
	"github.com/pgavlin/chisel/ops"
)

// Run processes every ruleset in order and collects their reports.
func Run(rulesets []config.RuleSet) Reports {
	reports := make(Reports, len(rulesets))
	for i := range rulesets {
		reports[i] = RunRuleSet(rulesets[i])
	}
	return reports
}

// RunRuleSet processes a single ruleset end to end.
func RunRuleSet(rs config.RuleSet) *Report {
	output := rs.Output
	if output == "" {
		output = rs.File
	}
	report := &Report{Ruleset: rs.Name, OutputPath: output}

	Logger().Info("ruleset start",
		zap.String("ruleset", rs.Name),
		zap.String("file", rs.File))

	m, err := ir.DecodeFile(rs.File)
	if err != nil {
		report.Err = &DecodeError{Path: rs.File, Err: err}
		Logger().Error("decode failed",
			zap.String("ruleset", rs.Name),
			zap.Error(err))
		// The report lists every configured operation even when none ran.
		for _, inv := range rs.Ops {
			report.Outcomes = append(report.Outcomes, Outcome{Op: inv.Name, Status: StatusSkipped})
		}
		return report
	}
	Logger().Debug("decoded module",
		zap.String("ruleset", rs.Name),
		zap.Int("bytes", len(m.Source())))

	for _, inv := range rs.Ops {
		var outcome Outcome
		m, outcome = apply(inv, m)
		report.Outcomes = append(report.Outcomes, outcome)

		if outcome.Status == StatusFailed {
			Logger().Warn("operation failed",
				zap.String("ruleset", rs.Name),
				zap.String("op", outcome.Op),
				zap.Error(outcome.Err))
			continue
		}
		Logger().Debug("operation applied",
			zap.String("ruleset", rs.Name),
			zap.String("op", outcome.Op),
			zap.Bool("mutated", outcome.Mutated))
	}

	if !report.Mutated() {
		return report
	}
	size, err := writeOutput(output, rs.Format, m)
	if err != nil {
		report.Err = err
		Logger().Error("finalize failed",
			zap.String("ruleset", rs.Name),
			zap.Error(err))
		return report
	}
	report.OutputWritten = true
	Logger().Info("wrote output",
		zap.String("ruleset", rs.Name),
		zap.String("output", output),
		zap.Int("bytes", size))
	return report
}

// apply builds and runs one configured operation against m. It returns the
// module later operations see: translators and checkers leave it in place,
// creators replace it.
func apply(inv config.Invocation, m *ir.Module) (*ir.Module, Outcome) {
	op, err := ops.New(inv.Name, inv.Params)
	if err != nil {
		return m, Outcome{Op: inv.Name, Status: StatusFailed, Err: err}
	}

	outcome := Outcome{Op: inv.Name}
	switch op := op.(type) {
	case ops.Translator:
		mutated, err := op.Translate(m)
		if err != nil {
			outcome.Status, outcome.Err = StatusFailed, err
			break
		}
		outcome.Status, outcome.Mutated = StatusOk, mutated

	case ops.Creator:
		created, err := op.Create(m)
		if err != nil {
			outcome.Status, outcome.Err = StatusFailed, err
			break
		}
		outcome.Status, outcome.Mutated = StatusOk, true
		m = created

	case ops.Checker:
		violations, err := op.Check(m)
		switch {
		case err != nil:
			outcome.Status, outcome.Err = StatusFailed, err
		case len(violations) != 0:
			outcome.Status = StatusFailed
			outcome.Err = &ValidationError{Op: inv.Name, Violations: violations}
		default:
			outcome.Status = StatusOk
		}
	}
	return m, outcome
}

// writeOutput serializes the final module in the requested format and writes
// it to path, reporting the number of bytes written. Raw binary on stdout
// corrupts terminals, so it is refused; hex and wat are fine there.
func writeOutput(path, format string, m *ir.Module) (int, error) {
	var payload []byte
	switch format {
	case config.FormatHex:
		encoded, err := m.Encode()
		if err != nil {
			return 0, &EncodeError{Err: err}
		}
		payload = make([]byte, hex.EncodedLen(len(encoded))+1)
		hex.Encode(payload, encoded)
		payload[len(payload)-1] = '\n'

	case config.FormatWat:
		var buf bytes.Buffer
		if err := m.WriteWast(&buf); err != nil {
			return 0, &EncodeError{Err: err}
		}
		payload = buf.Bytes()

	default:
		if path == "/dev/stdout" {
			return 0, &IOError{Path: path, Err: errors.New("refusing to write raw binary to stdout")}
		}
		encoded, err := m.Encode()
		if err != nil {
			return 0, &EncodeError{Err: err}
		}
		payload = encoded
	}

	if err := os.WriteFile(path, payload, 0644); err != nil {
		return 0, &IOError{Path: path, Err: err}
	}
	return len(payload), nil
}
