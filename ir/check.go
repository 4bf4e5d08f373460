package ir

import (
	"fmt"

	"github.com/pgavlin/warp/wasm"
)

// Check verifies the module's structural invariants: function and code
// section lengths agree, type references resolve, export names are unique,
// exported and start indices are in bounds, and the start function takes
// and returns nothing.
func (m *Module) Check() error {
	defined, bodies := 0, 0
	if m.Function != nil {
		defined = len(m.Function.Types)
	}
	if m.Code != nil {
		bodies = len(m.Code.Bodies)
	}
	if defined != bodies {
		return wasm.ValidationError(fmt.Sprintf("function and code sections disagree: %d types, %d bodies", defined, bodies))
	}

	if m.Function != nil {
		for i, t := range m.Function.Types {
			if _, ok := m.TypeSig(t); !ok {
				return wasm.ValidationError(fmt.Sprintf("function %d: unknown type %d", i, t))
			}
		}
	}

	if m.Export != nil {
		seen := make(map[string]struct{}, len(m.Export.Entries))
		for _, e := range m.Export.Entries {
			if _, ok := seen[e.FieldStr]; ok {
				return wasm.DuplicateExportError(e.FieldStr)
			}
			seen[e.FieldStr] = struct{}{}
			if int(e.Index) >= m.IndexSpace(e.Kind) {
				return wasm.ValidationError(fmt.Sprintf("export %q: %s index %d out of range", e.FieldStr, KindName(e.Kind), e.Index))
			}
		}
	}

	if m.Start != nil {
		sig, ok := m.FuncSig(m.Start.Index)
		if !ok {
			return wasm.ValidationError(fmt.Sprintf("start: unknown function index %d", m.Start.Index))
		}
		if len(sig.ParamTypes) != 0 || len(sig.ReturnTypes) != 0 {
			return wasm.ValidationError("start: function must take and return nothing")
		}
	}

	if m.Elements != nil {
		space := m.NumFunctions()
		for i, seg := range m.Elements.Entries {
			for _, fn := range seg.Elems {
				if int(fn) >= space {
					return wasm.ValidationError(fmt.Sprintf("element segment %d: unknown function index %d", i, fn))
				}
			}
		}
	}

	return nil
}
