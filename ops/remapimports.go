package ops

import (
	"gopkg.in/yaml.v3"

	"github.com/pgavlin/chisel/ir"
	"github.com/pgavlin/chisel/preset"
)

// remapImports renames import entries according to a
// (namespace, name) -> (namespace, name) table. Entries outside the table
// pass through unchanged; kinds and indices are never touched.
type remapImports struct {
	mapping map[preset.ImportName]preset.ImportName
}

type importNameParam struct {
	Namespace string `yaml:"namespace"`
	Name      string `yaml:"name"`
}

type importRenameParam struct {
	From importNameParam `yaml:"from"`
	To   importNameParam `yaml:"to"`
}

func newRemapImports(params *yaml.Node) (Operation, error) {
	var p struct {
		Preset  string              `yaml:"preset"`
		Mapping []importRenameParam `yaml:"mapping"`
	}
	if err := decodeParams("remapimports", params, &p, "preset", "mapping"); err != nil {
		return nil, err
	}
	switch {
	case p.Preset != "" && len(p.Mapping) != 0:
		return nil, configErrorf("remapimports", "preset and mapping are mutually exclusive")
	case p.Preset != "":
		mapping, ok := preset.ImportRenames(p.Preset)
		if !ok {
			return nil, configErrorf("remapimports", "unknown preset %q", p.Preset)
		}
		return &remapImports{mapping: mapping}, nil
	case len(p.Mapping) != 0:
		mapping := make(map[preset.ImportName]preset.ImportName, len(p.Mapping))
		for _, r := range p.Mapping {
			if r.From.Name == "" || r.To.Name == "" {
				return nil, configErrorf("remapimports", "mapping entries need from and to names")
			}
			from := preset.ImportName{Namespace: r.From.Namespace, Name: r.From.Name}
			if _, dup := mapping[from]; dup {
				return nil, configErrorf("remapimports", "duplicate mapping for %s.%s", from.Namespace, from.Name)
			}
			mapping[from] = preset.ImportName{Namespace: r.To.Namespace, Name: r.To.Name}
		}
		return &remapImports{mapping: mapping}, nil
	default:
		return nil, configErrorf("remapimports", "a preset or a mapping is required")
	}
}

func (op *remapImports) Name() string { return "remapimports" }

func (op *remapImports) Role() Role { return RoleTranslator }

func (op *remapImports) Translate(m *ir.Module) (bool, error) {
	if m.Import == nil {
		return false, nil
	}
	changed := false
	for i := range m.Import.Entries {
		e := &m.Import.Entries[i]
		to, ok := op.mapping[preset.ImportName{Namespace: e.ModuleName, Name: e.FieldName}]
		if !ok || (e.ModuleName == to.Namespace && e.FieldName == to.Name) {
			continue
		}
		e.ModuleName, e.FieldName = to.Namespace, to.Name
		changed = true
	}
	if changed {
		m.Touch(m.Import)
	}
	return changed, nil
}
