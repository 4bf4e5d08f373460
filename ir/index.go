package ir

import (
	"github.com/pgavlin/warp/wasm"
)

// KindName returns the name an external kind goes by in configuration and
// diagnostics.
func KindName(kind wasm.External) string {
	switch kind {
	case wasm.ExternalFunction:
		return "function"
	case wasm.ExternalTable:
		return "table"
	case wasm.ExternalMemory:
		return "memory"
	case wasm.ExternalGlobal:
		return "global"
	}
	return "unknown"
}

// KindFromName is the inverse of KindName.
func KindFromName(name string) (wasm.External, bool) {
	switch name {
	case "function":
		return wasm.ExternalFunction, true
	case "table":
		return wasm.ExternalTable, true
	case "memory":
		return wasm.ExternalMemory, true
	case "global":
		return wasm.ExternalGlobal, true
	}
	return 0, false
}

// ExportNamed returns the export with the given name, if any.
func (m *Module) ExportNamed(name string) *wasm.ExportEntry {
	if m.Export == nil {
		return nil
	}
	for i := range m.Export.Entries {
		if m.Export.Entries[i].FieldStr == name {
			return &m.Export.Entries[i]
		}
	}
	return nil
}

func (m *Module) importedCount(kind wasm.External) int {
	if m.Import == nil {
		return 0
	}
	n := 0
	for _, e := range m.Import.Entries {
		if e.Type.Kind() == kind {
			n++
		}
	}
	return n
}

// NumImportedFuncs returns the number of imported functions. Imported
// functions occupy the low end of the function index space.
func (m *Module) NumImportedFuncs() int {
	return m.importedCount(wasm.ExternalFunction)
}

// NumFunctions returns the size of the function index space.
func (m *Module) NumFunctions() int {
	n := m.NumImportedFuncs()
	if m.Function != nil {
		n += len(m.Function.Types)
	}
	return n
}

// IndexSpace returns the size of the index space for an external kind,
// imports included.
func (m *Module) IndexSpace(kind wasm.External) int {
	n := m.importedCount(kind)
	switch kind {
	case wasm.ExternalFunction:
		if m.Function != nil {
			n += len(m.Function.Types)
		}
	case wasm.ExternalTable:
		if m.Table != nil {
			n += len(m.Table.Entries)
		}
	case wasm.ExternalMemory:
		if m.Memory != nil {
			n += len(m.Memory.Entries)
		}
	case wasm.ExternalGlobal:
		if m.Global != nil {
			n += len(m.Global.Globals)
		}
	}
	return n
}

// TypeSig returns the signature at a type index.
func (m *Module) TypeSig(typeidx uint32) (wasm.FunctionSig, bool) {
	if m.Types == nil || int(typeidx) >= len(m.Types.Entries) {
		return wasm.FunctionSig{}, false
	}
	return m.Types.Entries[typeidx], true
}

// FuncSig resolves the signature of a function index, counting imported
// functions first.
func (m *Module) FuncSig(funcidx uint32) (wasm.FunctionSig, bool) {
	idx := int(funcidx)
	if m.Import != nil {
		for _, e := range m.Import.Entries {
			f, ok := e.Type.(wasm.FuncImport)
			if !ok {
				continue
			}
			if idx == 0 {
				return m.TypeSig(f.Type)
			}
			idx--
		}
	}
	if m.Function == nil || idx >= len(m.Function.Types) {
		return wasm.FunctionSig{}, false
	}
	return m.TypeSig(m.Function.Types[idx])
}

// FunctionNames returns the function name assignments from the names
// section, or nil if the module carries none.
func (m *Module) FunctionNames() map[uint32]string {
	names, err := m.Names()
	if err != nil {
		return nil
	}
	assignments := make(map[uint32]string)
	for _, sub := range names.Entries {
		fns, ok := sub.(*wasm.FunctionNamesSubsection)
		if !ok {
			continue
		}
		for _, n := range fns.Names {
			assignments[n.Index] = n.Name
		}
	}
	if len(assignments) == 0 {
		return nil
	}
	return assignments
}
