package graph

import (
	"bytes"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgavlin/warp/wasm"
	"github.com/pgavlin/warp/wasm/code"

	"github.com/pgavlin/chisel/ir"
)

func expr(instructions ...code.Instruction) []byte {
	var buf bytes.Buffer
	if err := code.Encode(&buf, instructions); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func namesSection(t *testing.T, names map[uint32]string) []byte {
	t.Helper()
	sub := &wasm.FunctionNamesSubsection{}
	for idx, name := range names {
		sub.Names = append(sub.Names, wasm.Naming{Index: idx, Name: name})
	}
	sort.Slice(sub.Names, func(i, j int) bool { return sub.Names[i].Index < sub.Names[j].Index })

	var buf bytes.Buffer
	section := wasm.NameSection{Entries: []wasm.NameSubsection{sub}}
	require.NoError(t, section.MarshalWASM(&buf))
	return buf.Bytes()
}

// testModule imports env.log and defines main, which calls the import once
// and an unnamed helper twice.
func testModule(t *testing.T) *ir.Module {
	m := &wasm.Module{
		Version: wasm.Version,
		Types: &wasm.SectionTypes{Entries: []wasm.FunctionSig{
			{Form: 0x60, ParamTypes: []wasm.ValueType{}, ReturnTypes: []wasm.ValueType{}},
		}},
		Import: &wasm.SectionImports{Entries: []wasm.ImportEntry{
			{ModuleName: "env", FieldName: "log", Type: wasm.FuncImport{Type: 0}},
		}},
		Function: &wasm.SectionFunctions{Types: []uint32{0, 0}},
		Export: &wasm.SectionExports{Entries: []wasm.ExportEntry{
			{FieldStr: "main", Kind: wasm.ExternalFunction, Index: 1},
		}},
		Code: &wasm.SectionCode{Bodies: []wasm.FunctionBody{
			{Code: expr(code.Call(0), code.Call(2), code.Call(2), code.End())},
			{Code: expr(code.Nop(), code.End())},
		}},
	}
	out := ir.New(m)
	out.Sync()
	out.AddCustom(wasm.CustomSectionName, namesSection(t, map[uint32]string{1: "main"}))
	return out
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, write(&buf, testModule(t)))

	assert.Equal(t, `digraph calls {
	0 [label="log" shape=ellipse];
	1 [label="main" shape=box];
	2 [label="func 2" shape=box];
	1 -> 0;
	1 -> 2;
}
`, buf.String())
}

func TestWriteNoCode(t *testing.T) {
	m := ir.New(&wasm.Module{Version: wasm.Version})
	m.Sync()

	var buf bytes.Buffer
	require.NoError(t, write(&buf, m))
	assert.Equal(t, "digraph calls {\n}\n", buf.String())
}
