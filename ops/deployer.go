package ops

import (
	"bytes"
	"encoding/binary"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/pgavlin/warp/wasm"
	"github.com/pgavlin/warp/wasm/code"

	"github.com/pgavlin/chisel/ir"
)

// DeployerSection is the custom section the customsection strategy stores
// the payload in.
const DeployerSection = "deployer"

const pageSize = 65536

// The customsection loader copies the whole code image into memory, so its
// memory needs room for the loader's own bytes around the payload.
const loaderSlack = 1024

// deployer wraps a module in a deployable constructor: a fresh module that
// hands the original's encoded bytes back to the environment when run.
type deployer struct {
	strategy string
}

func newDeployer(params *yaml.Node) (Operation, error) {
	var p struct {
		Preset string `yaml:"preset"`
	}
	if err := decodeParams("deployer", params, &p, "preset"); err != nil {
		return nil, err
	}
	switch p.Preset {
	case "memory", "customsection":
		return &deployer{strategy: p.Preset}, nil
	case "":
		return nil, configErrorf("deployer", "a preset is required")
	default:
		return nil, configErrorf("deployer", "unknown preset %q", p.Preset)
	}
}

func (op *deployer) Name() string { return "deployer" }

func (op *deployer) Role() Role { return RoleCreator }

func (op *deployer) Create(m *ir.Module) (*ir.Module, error) {
	payload, err := m.Encode()
	if err != nil {
		return nil, err
	}
	if int64(len(payload)) > math.MaxInt32 {
		return nil, transformErrorf("deployer", "payload is too large to address")
	}
	if op.strategy == "memory" {
		return memoryDeployer(payload), nil
	}
	return customSectionDeployer(payload), nil
}

// expr encodes an instruction sequence. The sequences built here are static,
// so encoding cannot fail.
func expr(instructions ...code.Instruction) []byte {
	var buf bytes.Buffer
	if err := code.Encode(&buf, instructions); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// memoryDeployer embeds the payload in a data segment at offset zero and
// returns it with finish(0, len).
func memoryDeployer(payload []byte) *ir.Module {
	m := &wasm.Module{
		Version: wasm.Version,
		Types: &wasm.SectionTypes{Entries: []wasm.FunctionSig{
			{Form: 0x60, ParamTypes: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, ReturnTypes: []wasm.ValueType{}},
			{Form: 0x60, ParamTypes: []wasm.ValueType{}, ReturnTypes: []wasm.ValueType{}},
		}},
		Import: &wasm.SectionImports{Entries: []wasm.ImportEntry{
			{ModuleName: "ethereum", FieldName: "finish", Type: wasm.FuncImport{Type: 0}},
		}},
		Function: &wasm.SectionFunctions{Types: []uint32{1}},
		Memory: &wasm.SectionMemories{Entries: []wasm.Memory{
			{Limits: wasm.ResizableLimits{Initial: uint32(len(payload)/pageSize + 1)}},
		}},
		Export: &wasm.SectionExports{Entries: []wasm.ExportEntry{
			{FieldStr: "memory", Kind: wasm.ExternalMemory, Index: 0},
			{FieldStr: "main", Kind: wasm.ExternalFunction, Index: 1},
		}},
		Code: &wasm.SectionCode{Bodies: []wasm.FunctionBody{{
			Code: expr(
				code.I32Const(0),
				code.I32Const(int32(len(payload))),
				code.Call(0),
				code.End(),
			),
		}}},
		Data: &wasm.SectionData{Entries: []wasm.DataSegment{{
			Index:  0,
			Offset: expr(code.I32Const(0), code.End()),
			Data:   payload,
		}}},
	}

	out := ir.New(m)
	out.Sync()
	return out
}

// customSectionDeployer stores the payload in a trailing custom section,
// suffixed with its little-endian length, and builds a loader that slices
// it back out of the code image at run time.
func customSectionDeployer(payload []byte) *ir.Module {
	contents := make([]byte, len(payload)+4)
	copy(contents, payload)
	binary.LittleEndian.PutUint32(contents[len(payload):], uint32(len(payload)))

	// Locals: 0 = code size, 1 = payload offset, 2 = payload size.
	loader := expr(
		code.Call(0), // getCodeSize
		code.LocalSet(0),
		code.I32Const(0),
		code.I32Const(0),
		code.LocalGet(0),
		code.Call(1), // codeCopy(0, 0, size)
		code.LocalGet(0),
		code.I32Const(4),
		code.I32Sub(),
		code.I32Load(0, 2),
		code.LocalSet(2),
		code.LocalGet(0),
		code.I32Const(4),
		code.I32Sub(),
		code.LocalGet(2),
		code.I32Sub(),
		code.LocalSet(1),
		code.LocalGet(1),
		code.LocalGet(2),
		code.Call(2), // finish(offset, size)
		code.End(),
	)

	m := &wasm.Module{
		Version: wasm.Version,
		Types: &wasm.SectionTypes{Entries: []wasm.FunctionSig{
			{Form: 0x60, ParamTypes: []wasm.ValueType{}, ReturnTypes: []wasm.ValueType{wasm.ValueTypeI32}},
			{Form: 0x60, ParamTypes: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32, wasm.ValueTypeI32}, ReturnTypes: []wasm.ValueType{}},
			{Form: 0x60, ParamTypes: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32}, ReturnTypes: []wasm.ValueType{}},
			{Form: 0x60, ParamTypes: []wasm.ValueType{}, ReturnTypes: []wasm.ValueType{}},
		}},
		Import: &wasm.SectionImports{Entries: []wasm.ImportEntry{
			{ModuleName: "ethereum", FieldName: "getCodeSize", Type: wasm.FuncImport{Type: 0}},
			{ModuleName: "ethereum", FieldName: "codeCopy", Type: wasm.FuncImport{Type: 1}},
			{ModuleName: "ethereum", FieldName: "finish", Type: wasm.FuncImport{Type: 2}},
		}},
		Function: &wasm.SectionFunctions{Types: []uint32{3}},
		Memory: &wasm.SectionMemories{Entries: []wasm.Memory{
			{Limits: wasm.ResizableLimits{Initial: uint32((len(contents)+loaderSlack)/pageSize + 1)}},
		}},
		Export: &wasm.SectionExports{Entries: []wasm.ExportEntry{
			{FieldStr: "memory", Kind: wasm.ExternalMemory, Index: 0},
			{FieldStr: "main", Kind: wasm.ExternalFunction, Index: 3},
		}},
		Code: &wasm.SectionCode{Bodies: []wasm.FunctionBody{{
			Locals: []wasm.LocalEntry{{Count: 3, Type: wasm.ValueTypeI32}},
			Code:   loader,
		}}},
		Customs: []*wasm.SectionCustom{{Name: DeployerSection, Data: contents}},
	}

	out := ir.New(m)
	out.Sync()
	return out
}
