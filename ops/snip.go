package ops

import (
	"gopkg.in/yaml.v3"

	"github.com/pgavlin/chisel/ir"
	"github.com/pgavlin/chisel/snip"
)

// snipOp hands the module to the size reducer. The reducer's algorithm is its
// own concern; the pipeline sees an ordinary translator.
type snipOp struct {
	snipper *snip.Snipper
}

func newSnip(params *yaml.Node) (Operation, error) {
	var p struct {
		StripRuntimeFmt   *bool      `yaml:"strip_runtime_fmt"`
		StripRuntimePanic *bool      `yaml:"strip_runtime_panic"`
		Patterns          stringList `yaml:"patterns"`
	}
	err := decodeParams("snip", params, &p,
		"strip_runtime_fmt", "strip_runtime_panic", "patterns")
	if err != nil {
		return nil, err
	}

	opts := snip.Options{
		StripRuntimeFmt:   true,
		StripRuntimePanic: true,
		Patterns:          p.Patterns,
	}
	if p.StripRuntimeFmt != nil {
		opts.StripRuntimeFmt = *p.StripRuntimeFmt
	}
	if p.StripRuntimePanic != nil {
		opts.StripRuntimePanic = *p.StripRuntimePanic
	}

	snipper, err := snip.New(opts)
	if err != nil {
		return nil, configErrorf("snip", "%v", err)
	}
	return &snipOp{snipper: snipper}, nil
}

func (op *snipOp) Name() string { return "snip" }

func (op *snipOp) Role() Role { return RoleTranslator }

func (op *snipOp) Translate(m *ir.Module) (bool, error) {
	return op.snipper.Run(m)
}
