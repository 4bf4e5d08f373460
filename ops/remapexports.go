package ops

import (
	"gopkg.in/yaml.v3"

	"github.com/pgavlin/chisel/ir"
	"github.com/pgavlin/chisel/preset"
)

// remapExports renames export entries according to a name -> name table.
// Kinds and indices are never touched.
type remapExports struct {
	mapping map[string]string
}

type exportRenameParam struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

func newRemapExports(params *yaml.Node) (Operation, error) {
	var p struct {
		Preset  string              `yaml:"preset"`
		Mapping []exportRenameParam `yaml:"mapping"`
	}
	if err := decodeParams("remapexports", params, &p, "preset", "mapping"); err != nil {
		return nil, err
	}
	switch {
	case p.Preset != "" && len(p.Mapping) != 0:
		return nil, configErrorf("remapexports", "preset and mapping are mutually exclusive")
	case p.Preset != "":
		mapping, ok := preset.ExportRenames(p.Preset)
		if !ok {
			return nil, configErrorf("remapexports", "unknown preset %q", p.Preset)
		}
		return &remapExports{mapping: mapping}, nil
	case len(p.Mapping) != 0:
		mapping := make(map[string]string, len(p.Mapping))
		for _, r := range p.Mapping {
			if r.From == "" || r.To == "" {
				return nil, configErrorf("remapexports", "mapping entries need from and to names")
			}
			if _, dup := mapping[r.From]; dup {
				return nil, configErrorf("remapexports", "duplicate mapping for %q", r.From)
			}
			mapping[r.From] = r.To
		}
		return &remapExports{mapping: mapping}, nil
	default:
		return nil, configErrorf("remapexports", "a preset or a mapping is required")
	}
}

func (op *remapExports) Name() string { return "remapexports" }

func (op *remapExports) Role() Role { return RoleTranslator }

func (op *remapExports) Translate(m *ir.Module) (bool, error) {
	if m.Export == nil {
		return false, nil
	}

	// Resolve every entry's final name first: a rename that collides with
	// another export, renamed or not, must fail without touching the module.
	final := make([]string, len(m.Export.Entries))
	counts := make(map[string]int, len(m.Export.Entries))
	for i := range m.Export.Entries {
		name := m.Export.Entries[i].FieldStr
		if to, ok := op.mapping[name]; ok {
			name = to
		}
		final[i] = name
		counts[name]++
	}
	for _, name := range final {
		if counts[name] > 1 {
			return false, transformErrorf("remapexports", "renaming would duplicate export %q", name)
		}
	}

	changed := false
	for i := range m.Export.Entries {
		if m.Export.Entries[i].FieldStr != final[i] {
			m.Export.Entries[i].FieldStr = final[i]
			changed = true
		}
	}
	if changed {
		m.Touch(m.Export)
	}
	return changed, nil
}
