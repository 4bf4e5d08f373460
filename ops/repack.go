package ops

import (
	"bytes"

	"gopkg.in/yaml.v3"

	"github.com/pgavlin/warp/wasm"

	"github.com/pgavlin/chisel/ir"
)

// repack runs the module through an encode/decode round trip and swaps in
// the result, shedding anything the codec does not carry. It reports a
// change whenever the canonical encoding differs from the bytes the module
// was read from.
type repack struct{}

func newRepack(params *yaml.Node) (Operation, error) {
	if err := decodeParams("repack", params, &struct{}{}); err != nil {
		return nil, err
	}
	return repack{}, nil
}

func (repack) Name() string { return "repack" }

func (repack) Role() Role { return RoleTranslator }

func (repack) Translate(m *ir.Module) (bool, error) {
	encoded, err := m.Encode()
	if err != nil {
		return false, err
	}
	decoded, err := wasm.DecodeModule(bytes.NewReader(encoded))
	if err != nil {
		return false, err
	}
	source := m.Source()
	m.Reset(decoded, encoded)
	return !bytes.Equal(encoded, source), nil
}
