package ops

import (
	"strings"

	"github.com/pgavlin/warp/wasm"
)

// valueTypeFromName maps a textual value type to its wasm counterpart.
func valueTypeFromName(name string) (wasm.ValueType, bool) {
	var t wasm.ValueType
	switch name {
	case "i32":
		t = wasm.ValueTypeI32
	case "i64":
		t = wasm.ValueTypeI64
	case "f32":
		t = wasm.ValueTypeF32
	case "f64":
		t = wasm.ValueTypeF64
	default:
		return t, false
	}
	return t, true
}

func valueTypesFromNames(op string, names []string) ([]wasm.ValueType, error) {
	if len(names) == 0 {
		return nil, nil
	}
	types := make([]wasm.ValueType, len(names))
	for i, name := range names {
		t, ok := valueTypeFromName(name)
		if !ok {
			return nil, configErrorf(op, "unknown value type %q", name)
		}
		types[i] = t
	}
	return types, nil
}

// sigString renders a function signature for diagnostics.
func sigString(sig wasm.FunctionSig) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, t := range sig.ParamTypes {
		if i != 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.String())
	}
	b.WriteString(") -> (")
	for i, t := range sig.ReturnTypes {
		if i != 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.String())
	}
	b.WriteByte(')')
	return b.String()
}
