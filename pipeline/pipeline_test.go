package pipeline

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pgavlin/warp/wasm"
	"github.com/pgavlin/warp/wasm/code"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/pgavlin/chisel/config"
	"github.com/pgavlin/chisel/ir"
	"github.com/pgavlin/chisel/ops"
)

func expr(instructions ...code.Instruction) []byte {
	var buf bytes.Buffer
	if err := code.Encode(&buf, instructions); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// params parses a YAML fragment into the parameter node an operation
// invocation would carry.
func params(t *testing.T, source string) *yaml.Node {
	t.Helper()
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(source), &doc))
	return doc.Content[0]
}

// contractModule imports the EEI under the env namespace, as a toolchain
// that knows nothing about ewasm would emit it, and exports main only.
func contractModule() *wasm.Module {
	return &wasm.Module{
		Version: wasm.Version,
		Types: &wasm.SectionTypes{Entries: []wasm.FunctionSig{
			{Form: 0x60, ParamTypes: []wasm.ValueType{wasm.ValueTypeI64}, ReturnTypes: []wasm.ValueType{}},
			{Form: 0x60, ParamTypes: []wasm.ValueType{}, ReturnTypes: []wasm.ValueType{}},
		}},
		Import: &wasm.SectionImports{Entries: []wasm.ImportEntry{
			{ModuleName: "env", FieldName: "ethereum_useGas", Type: wasm.FuncImport{Type: 0}},
		}},
		Function: &wasm.SectionFunctions{Types: []uint32{1}},
		Export: &wasm.SectionExports{Entries: []wasm.ExportEntry{
			{FieldStr: "main", Kind: wasm.ExternalFunction, Index: 1},
		}},
		Code: &wasm.SectionCode{Bodies: []wasm.FunctionBody{
			{Code: expr(code.End())},
		}},
	}
}

func writeModule(t *testing.T, dir string, m *wasm.Module) string {
	t.Helper()
	encoded, err := ir.New(m).Encode()
	require.NoError(t, err)
	path := filepath.Join(dir, "module.wasm")
	require.NoError(t, os.WriteFile(path, encoded, 0644))
	return path
}

func TestRunRuleSetEndToEnd(t *testing.T) {
	dir := t.TempDir()
	input := writeModule(t, dir, contractModule())
	output := filepath.Join(dir, "out.wasm")

	rulesets, err := config.Parse([]byte(fmt.Sprintf(`
contract:
  file: %s
  output: %s
  remapimports:
    preset: ewasm
  verifyexports:
    preset: ewasm
`, input, output)))
	require.NoError(t, err)

	reports := Run(rulesets)
	require.Len(t, reports, 1)
	report := reports[0]

	// remapimports rewrote env.ethereum_useGas; verifyexports misses the
	// memory export. Mutation and validation are independent signals: the
	// ruleset fails but the mutated module is still written.
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, StatusOk, report.Outcomes[0].Status)
	assert.True(t, report.Outcomes[0].Mutated)
	assert.Equal(t, StatusFailed, report.Outcomes[1].Status)
	assert.Equal(t, StatusFailed, report.Status())
	assert.True(t, report.OutputWritten)

	var verr *ValidationError
	require.ErrorAs(t, report.Outcomes[1].Err, &verr)
	require.Len(t, verr.Violations, 1)
	assert.Equal(t, ops.ViolationMissing, verr.Violations[0].Kind)
	assert.Equal(t, "memory", verr.Violations[0].Subject)

	written, err := ir.DecodeFile(output)
	require.NoError(t, err)
	require.NotNil(t, written.Import)
	assert.Equal(t, "ethereum", written.Import.Entries[0].ModuleName)
	assert.Equal(t, "useGas", written.Import.Entries[0].FieldName)
}

func TestRunRuleSetNoMutationWritesNothing(t *testing.T) {
	dir := t.TempDir()
	m := contractModule()
	m.Import.Entries[0] = wasm.ImportEntry{
		ModuleName: "ethereum", FieldName: "useGas", Type: wasm.FuncImport{Type: 0},
	}
	input := writeModule(t, dir, m)
	output := filepath.Join(dir, "out.wasm")

	report := RunRuleSet(config.RuleSet{
		Name:   "clean",
		File:   input,
		Output: output,
		Ops: []config.Invocation{
			{Name: "remapimports", Params: params(t, "preset: ewasm")},
			{Name: "verifyimports", Params: params(t, "preset: ewasm")},
		},
	})

	assert.Equal(t, StatusOk, report.Status())
	assert.False(t, report.Mutated())
	assert.False(t, report.OutputWritten)
	_, err := os.Stat(output)
	assert.True(t, os.IsNotExist(err))
}

func TestRunRuleSetDecodeFailure(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "broken.wasm")
	require.NoError(t, os.WriteFile(input, []byte("\x00asm\xff\xff\xff\xff"), 0644))

	report := RunRuleSet(config.RuleSet{
		Name: "broken",
		File: input,
		Ops: []config.Invocation{
			{Name: "remapstart"},
			{Name: "verifyexports", Params: params(t, "preset: ewasm")},
		},
	})

	assert.Equal(t, StatusFailed, report.Status())
	var derr *DecodeError
	require.ErrorAs(t, report.Err, &derr)
	assert.Equal(t, input, derr.Path)

	// Every configured operation is still listed, none ran.
	require.Len(t, report.Outcomes, 2)
	for _, o := range report.Outcomes {
		assert.Equal(t, StatusSkipped, o.Status)
	}
	assert.False(t, report.OutputWritten)
}

func TestRunRuleSetMissingInput(t *testing.T) {
	report := RunRuleSet(config.RuleSet{
		Name: "missing",
		File: filepath.Join(t.TempDir(), "nope.wasm"),
		Ops:  []config.Invocation{{Name: "remapstart"}},
	})
	assert.Equal(t, StatusFailed, report.Status())
	var derr *DecodeError
	assert.ErrorAs(t, report.Err, &derr)
}

func TestRunRuleSetRecordsAndContinues(t *testing.T) {
	dir := t.TempDir()
	input := writeModule(t, dir, contractModule())
	output := filepath.Join(dir, "out.wasm")

	// frobnicate is not in the catalog and the first trimexports is missing
	// its required parameters; both are recorded and the rest still run.
	report := RunRuleSet(config.RuleSet{
		Name:   "diagnostics",
		File:   input,
		Output: output,
		Ops: []config.Invocation{
			{Name: "frobnicate"},
			{Name: "trimexports"},
			{Name: "remapstart"},
			{Name: "trimexports", Params: params(t, "keep: [memory]")},
		},
	})

	require.Len(t, report.Outcomes, 4)
	assert.Equal(t, StatusFailed, report.Outcomes[0].Status)
	var nferr ops.NotFoundError
	assert.ErrorAs(t, report.Outcomes[0].Err, &nferr)

	assert.Equal(t, StatusFailed, report.Outcomes[1].Status)
	var cerr *ops.ConfigError
	assert.ErrorAs(t, report.Outcomes[1].Err, &cerr)

	assert.Equal(t, StatusOk, report.Outcomes[2].Status)
	assert.False(t, report.Outcomes[2].Mutated)

	// The last operation still ran and dropped the main export.
	assert.Equal(t, StatusOk, report.Outcomes[3].Status)
	assert.True(t, report.Outcomes[3].Mutated)

	assert.Equal(t, StatusFailed, report.Status())
	assert.True(t, report.OutputWritten)

	written, err := ir.DecodeFile(output)
	require.NoError(t, err)
	assert.Nil(t, written.ExportNamed("main"))
}

func TestRunRuleSetCreatorReplacesModule(t *testing.T) {
	dir := t.TempDir()
	input := writeModule(t, dir, contractModule())
	output := filepath.Join(dir, "deployed.wasm")

	report := RunRuleSet(config.RuleSet{
		Name:   "deploy",
		File:   input,
		Output: output,
		Ops: []config.Invocation{
			{Name: "deployer", Params: params(t, "preset: memory")},
			{Name: "verifyexports", Params: params(t, "preset: ewasm")},
		},
	})

	// verifyexports checks the module the creator produced, which exports
	// exactly main and memory.
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, StatusOk, report.Outcomes[0].Status)
	assert.True(t, report.Outcomes[0].Mutated)
	assert.Equal(t, StatusOk, report.Outcomes[1].Status)
	assert.Equal(t, StatusOk, report.Status())
	require.True(t, report.OutputWritten)

	written, err := ir.DecodeFile(output)
	require.NoError(t, err)
	require.NotNil(t, written.Data)
	assert.NotNil(t, written.ExportNamed("main"))
	assert.NotNil(t, written.ExportNamed("memory"))
}

func TestRunRuleSetHexOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeModule(t, dir, contractModule())
	output := filepath.Join(dir, "out.hex")

	report := RunRuleSet(config.RuleSet{
		Name:   "hex",
		File:   input,
		Output: output,
		Format: config.FormatHex,
		Ops: []config.Invocation{
			{Name: "remapimports", Params: params(t, "preset: ewasm")},
		},
	})
	require.Equal(t, StatusOk, report.Status())
	require.True(t, report.OutputWritten)

	contents, err := os.ReadFile(output)
	require.NoError(t, err)
	require.True(t, bytes.HasSuffix(contents, []byte{'\n'}))

	decoded, err := hex.DecodeString(string(bytes.TrimSuffix(contents, []byte{'\n'})))
	require.NoError(t, err)
	m, err := ir.DecodeBytes(decoded)
	require.NoError(t, err)
	assert.Equal(t, "ethereum", m.Import.Entries[0].ModuleName)
}

func TestRunRuleSetWatOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeModule(t, dir, contractModule())
	output := filepath.Join(dir, "out.wat")

	report := RunRuleSet(config.RuleSet{
		Name:   "wat",
		File:   input,
		Output: output,
		Format: config.FormatWat,
		Ops: []config.Invocation{
			{Name: "remapimports", Params: params(t, "preset: ewasm")},
		},
	})
	require.Equal(t, StatusOk, report.Status())

	contents, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(contents), "(module"))
}

func TestRunRuleSetRefusesBinaryStdout(t *testing.T) {
	dir := t.TempDir()
	input := writeModule(t, dir, contractModule())

	report := RunRuleSet(config.RuleSet{
		Name:   "stdout",
		File:   input,
		Output: "/dev/stdout",
		Ops: []config.Invocation{
			{Name: "remapimports", Params: params(t, "preset: ewasm")},
		},
	})
	assert.Equal(t, StatusFailed, report.Status())
	assert.False(t, report.OutputWritten)
	var ioerr *IOError
	assert.ErrorAs(t, report.Err, &ioerr)
}

func TestRunRuleSetOutputDefaultsToInput(t *testing.T) {
	dir := t.TempDir()
	input := writeModule(t, dir, contractModule())

	report := RunRuleSet(config.RuleSet{
		Name: "inplace",
		File: input,
		Ops: []config.Invocation{
			{Name: "remapimports", Params: params(t, "preset: ewasm")},
		},
	})
	require.Equal(t, StatusOk, report.Status())
	assert.Equal(t, input, report.OutputPath)
	assert.True(t, report.OutputWritten)

	m, err := ir.DecodeFile(input)
	require.NoError(t, err)
	assert.Equal(t, "ethereum", m.Import.Entries[0].ModuleName)
}
