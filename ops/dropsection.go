package ops

import (
	"gopkg.in/yaml.v3"

	"github.com/pgavlin/warp/wasm"

	"github.com/pgavlin/chisel/ir"
)

// dropSection removes whole sections, selected by structural kind name or by
// custom section name.
type dropSection struct {
	ids     []wasm.SectionID
	customs []string
}

var droppableKinds = map[string]wasm.SectionID{
	"table":   wasm.SectionIDTable,
	"memory":  wasm.SectionIDMemory,
	"global":  wasm.SectionIDGlobal,
	"export":  wasm.SectionIDExport,
	"start":   wasm.SectionIDStart,
	"element": wasm.SectionIDElement,
	"data":    wasm.SectionIDData,
}

// Types, functions, and code keep the module decodable; imports keep the
// function index space intact.
var protectedKinds = map[string]bool{
	"type":     true,
	"import":   true,
	"function": true,
	"code":     true,
}

func newDropSection(params *yaml.Node) (Operation, error) {
	var p struct {
		Kinds stringList `yaml:"kinds"`
	}
	if err := decodeParams("dropsection", params, &p, "kinds"); err != nil {
		return nil, err
	}
	if len(p.Kinds) == 0 {
		return nil, configErrorf("dropsection", "at least one kind is required")
	}
	op := &dropSection{}
	for _, kind := range p.Kinds {
		if protectedKinds[kind] {
			return nil, configErrorf("dropsection", "the %s section cannot be dropped", kind)
		}
		if id, ok := droppableKinds[kind]; ok {
			op.ids = append(op.ids, id)
			continue
		}
		op.customs = append(op.customs, kind)
	}
	return op, nil
}

func (op *dropSection) Name() string { return "dropsection" }

func (op *dropSection) Role() Role { return RoleTranslator }

func (op *dropSection) Translate(m *ir.Module) (bool, error) {
	changed := false
	for _, id := range op.ids {
		if m.DropSection(id) {
			changed = true
		}
	}
	for _, name := range op.customs {
		if m.RemoveCustoms(name) > 0 {
			changed = true
		}
	}
	return changed, nil
}

// dropNames removes the name section.
type dropNames struct{}

func newDropNames(params *yaml.Node) (Operation, error) {
	if err := decodeParams("dropnames", params, &struct{}{}); err != nil {
		return nil, err
	}
	return dropNames{}, nil
}

func (dropNames) Name() string { return "dropnames" }

func (dropNames) Role() Role { return RoleTranslator }

func (dropNames) Translate(m *ir.Module) (bool, error) {
	return m.RemoveCustoms(wasm.CustomSectionName) > 0, nil
}
