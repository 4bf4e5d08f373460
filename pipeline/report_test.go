package pipeline

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgavlin/chisel/ops"
)

func TestReportStatus(t *testing.T) {
	ok := &Report{
		Ruleset: "a",
		Outcomes: []Outcome{
			{Op: "remapimports", Status: StatusOk, Mutated: true},
			{Op: "verifyimports", Status: StatusOk},
		},
	}
	assert.Equal(t, StatusOk, ok.Status())
	assert.True(t, ok.Mutated())

	failed := &Report{
		Ruleset: "b",
		Outcomes: []Outcome{
			{Op: "remapimports", Status: StatusOk},
			{Op: "verifyexports", Status: StatusFailed, Err: errors.New("missing: memory")},
		},
	}
	assert.Equal(t, StatusFailed, failed.Status())
	assert.False(t, failed.Mutated())

	fatal := &Report{Ruleset: "c", Err: &DecodeError{Path: "c.wasm", Err: errors.New("bad magic")}}
	assert.Equal(t, StatusFailed, fatal.Status())
}

func TestReportsFailed(t *testing.T) {
	reports := Reports{
		{Ruleset: "a", Outcomes: []Outcome{{Op: "repack", Status: StatusOk}}},
		{Ruleset: "b", Outcomes: []Outcome{{Op: "repack", Status: StatusFailed, Err: errors.New("boom")}}},
	}
	assert.True(t, reports.Failed())
	assert.False(t, reports[:1].Failed())
	assert.False(t, Reports{}.Failed())
}

func TestReportWrite(t *testing.T) {
	report := &Report{
		Ruleset: "contract",
		Outcomes: []Outcome{
			{Op: "remapimports", Status: StatusOk, Mutated: true},
			{Op: "verifyexports", Status: StatusFailed, Err: &ValidationError{
				Op: "verifyexports",
				Violations: []ops.Violation{
					{Kind: ops.ViolationMissing, Subject: "memory"},
				},
			}},
		},
		OutputPath:    "contract.out.wasm",
		OutputWritten: true,
	}

	var b strings.Builder
	require.NoError(t, report.Write(&b))
	assert.Equal(t, `Ruleset contract:
  remapimports: Ok (mutated)
  verifyexports: Failed (missing: memory)
  wrote contract.out.wasm
contract: Failed
`, b.String())
}

func TestReportWriteDecodeFailure(t *testing.T) {
	report := &Report{
		Ruleset: "broken",
		Err:     &DecodeError{Path: "broken.wasm", Err: errors.New("magic header not detected")},
		Outcomes: []Outcome{
			{Op: "remapstart", Status: StatusSkipped},
		},
	}

	var b strings.Builder
	require.NoError(t, report.Write(&b))
	assert.Equal(t, `Ruleset broken:
  error: decoding broken.wasm: magic header not detected
  remapstart: Skipped
broken: Failed
`, b.String())
}

func TestReportWriteFinalizeFailure(t *testing.T) {
	report := &Report{
		Ruleset: "out",
		Outcomes: []Outcome{
			{Op: "trimexports", Status: StatusOk, Mutated: true},
		},
		Err: &IOError{Path: "/dev/stdout", Err: errors.New("refusing to write raw binary to stdout")},
	}

	var b strings.Builder
	require.NoError(t, report.Write(&b))
	assert.Equal(t, `Ruleset out:
  trimexports: Ok (mutated)
  error: writing /dev/stdout: refusing to write raw binary to stdout
out: Failed
`, b.String())
}
