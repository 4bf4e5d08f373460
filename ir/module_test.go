package ir

import (
	"bytes"
	"testing"

	"github.com/pgavlin/warp/wasm"
	"github.com/pgavlin/warp/wasm/code"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expr(instructions ...code.Instruction) []byte {
	var buf bytes.Buffer
	if err := code.Encode(&buf, instructions); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func testModule() *wasm.Module {
	return &wasm.Module{
		Version: wasm.Version,
		Types: &wasm.SectionTypes{Entries: []wasm.FunctionSig{
			{Form: 0x60, ParamTypes: []wasm.ValueType{}, ReturnTypes: []wasm.ValueType{}},
			{Form: 0x60, ParamTypes: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, ReturnTypes: []wasm.ValueType{}},
		}},
		Import: &wasm.SectionImports{Entries: []wasm.ImportEntry{
			{ModuleName: "ethereum", FieldName: "finish", Type: wasm.FuncImport{Type: 1}},
		}},
		Function: &wasm.SectionFunctions{Types: []uint32{0, 0}},
		Memory: &wasm.SectionMemories{Entries: []wasm.Memory{
			{Limits: wasm.ResizableLimits{Initial: 1}},
		}},
		Export: &wasm.SectionExports{Entries: []wasm.ExportEntry{
			{FieldStr: "memory", Kind: wasm.ExternalMemory, Index: 0},
			{FieldStr: "main", Kind: wasm.ExternalFunction, Index: 1},
		}},
		Code: &wasm.SectionCode{Bodies: []wasm.FunctionBody{
			{Code: expr(code.Return(), code.End())},
			{Code: expr(code.End())},
		}},
	}
}

func TestDecodeBinary(t *testing.T) {
	encoded, err := New(testModule()).Encode()
	require.NoError(t, err)

	m, err := DecodeBytes(encoded)
	require.NoError(t, err)
	assert.Equal(t, encoded, m.Source())
	require.NotNil(t, m.Export)
	assert.Len(t, m.Export.Entries, 2)
	assert.NoError(t, m.Check())
}

func TestDecodeText(t *testing.T) {
	m, err := DecodeBytes([]byte(`(module (memory 1) (func (export "main")))`))
	require.NoError(t, err)
	assert.Nil(t, m.Source())
	assert.NotNil(t, m.ExportNamed("main"))
}

func TestDecodeGarbage(t *testing.T) {
	_, err := DecodeBytes([]byte("\x01\x02\x03\x04garbage"))
	assert.Error(t, err)
}

func TestEncodeRoundTrip(t *testing.T) {
	encoded, err := New(testModule()).Encode()
	require.NoError(t, err)

	m, err := DecodeBytes(encoded)
	require.NoError(t, err)

	again, err := m.Encode()
	require.NoError(t, err)
	assert.Equal(t, encoded, again)
}

func TestCheck(t *testing.T) {
	assert.NoError(t, New(testModule()).Check())

	dup := New(testModule())
	dup.Export.Entries = append(dup.Export.Entries, wasm.ExportEntry{FieldStr: "main", Kind: wasm.ExternalFunction, Index: 2})
	assert.Error(t, dup.Check())

	oob := New(testModule())
	oob.Export.Entries[1].Index = 9
	assert.Error(t, oob.Check())

	badStart := New(testModule())
	badStart.SetStart(0) // the import takes two parameters
	assert.Error(t, badStart.Check())

	mismatch := New(testModule())
	mismatch.Code.Bodies = mismatch.Code.Bodies[:1]
	assert.Error(t, mismatch.Check())
}
