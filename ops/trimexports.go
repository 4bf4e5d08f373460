package ops

import (
	"gopkg.in/yaml.v3"

	"github.com/pgavlin/chisel/ir"
	"github.com/pgavlin/chisel/preset"
)

// trimExports removes every export whose name is not on the keep list.
type trimExports struct {
	keep map[string]bool
}

func newTrimExports(params *yaml.Node) (Operation, error) {
	var p struct {
		Preset string     `yaml:"preset"`
		Keep   stringList `yaml:"keep"`
	}
	if err := decodeParams("trimexports", params, &p, "preset", "keep"); err != nil {
		return nil, err
	}
	var names []string
	switch {
	case p.Preset != "" && len(p.Keep) != 0:
		return nil, configErrorf("trimexports", "preset and keep are mutually exclusive")
	case p.Preset != "":
		keep, ok := preset.TrimExports(p.Preset)
		if !ok {
			return nil, configErrorf("trimexports", "unknown preset %q", p.Preset)
		}
		names = keep
	case len(p.Keep) != 0:
		names = p.Keep
	default:
		return nil, configErrorf("trimexports", "a preset or a keep list is required")
	}
	keep := make(map[string]bool, len(names))
	for _, name := range names {
		keep[name] = true
	}
	return &trimExports{keep: keep}, nil
}

func (op *trimExports) Name() string { return "trimexports" }

func (op *trimExports) Role() Role { return RoleTranslator }

func (op *trimExports) Translate(m *ir.Module) (bool, error) {
	if m.Export == nil {
		return false, nil
	}
	entries := m.Export.Entries[:0]
	for _, e := range m.Export.Entries {
		if op.keep[e.FieldStr] {
			entries = append(entries, e)
		}
	}
	if len(entries) == len(m.Export.Entries) {
		return false, nil
	}
	m.Export.Entries = entries
	m.Touch(m.Export)
	return true, nil
}
