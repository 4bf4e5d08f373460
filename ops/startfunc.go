package ops

import (
	"gopkg.in/yaml.v3"

	"github.com/pgavlin/warp/wasm"

	"github.com/pgavlin/chisel/ir"
)

func decodeStartFuncParams(op string, params *yaml.Node) error {
	var p struct {
		Preset string `yaml:"preset"`
	}
	if err := decodeParams(op, params, &p, "preset"); err != nil {
		return err
	}
	if p.Preset != "" && p.Preset != "ewasm" {
		return configErrorf(op, "unknown preset %q", p.Preset)
	}
	return nil
}

// trimStartFunc removes the start section.
type trimStartFunc struct{}

func newTrimStartFunc(params *yaml.Node) (Operation, error) {
	if err := decodeStartFuncParams("trimstartfunc", params); err != nil {
		return nil, err
	}
	return trimStartFunc{}, nil
}

func (trimStartFunc) Name() string { return "trimstartfunc" }

func (trimStartFunc) Role() Role { return RoleTranslator }

func (trimStartFunc) Translate(m *ir.Module) (bool, error) {
	return m.ClearStart(), nil
}

// remapStart turns the start function into the main export. An existing
// main export is overwritten, last writer wins.
type remapStart struct{}

func newRemapStart(params *yaml.Node) (Operation, error) {
	if err := decodeStartFuncParams("remapstart", params); err != nil {
		return nil, err
	}
	return remapStart{}, nil
}

func (remapStart) Name() string { return "remapstart" }

func (remapStart) Role() Role { return RoleTranslator }

func (remapStart) Translate(m *ir.Module) (bool, error) {
	if m.Start == nil {
		return false, nil
	}
	index := m.Start.Index
	m.ClearStart()

	if e := m.ExportNamed("main"); e != nil {
		e.Kind = wasm.ExternalFunction
		e.Index = index
	} else {
		if m.Export == nil {
			m.Export = &wasm.SectionExports{}
			m.Sync()
		}
		m.Export.Entries = append(m.Export.Entries, wasm.ExportEntry{
			FieldStr: "main",
			Kind:     wasm.ExternalFunction,
			Index:    index,
		})
	}
	m.Touch(m.Export)
	return true, nil
}
