package snip

import (
	"fmt"

	"github.com/pgavlin/warp/wasm"
	"github.com/pgavlin/warp/wasm/code"
	"github.com/willf/bitset"

	"github.com/pgavlin/chisel/ir"
)

// A CallGraph holds a module's direct call edges, caller to callee, over the
// function index space.
type CallGraph struct {
	// NumFuncs is the size of the function index space, imports included.
	NumFuncs uint
	// Imported is the number of imported functions. Indices below it name
	// imports.
	Imported uint
	// Edges maps a caller to its direct callees, in call order.
	Edges map[uint32][]uint32
	// Roots are the entry points: function exports, the start function, and
	// every element-segment entry. call_indirect targets are not tracked
	// precisely; anything in a table counts as a root.
	Roots []uint32
}

// BuildCallGraph decodes every function body and collects its direct call
// edges.
func BuildCallGraph(m *ir.Module) (*CallGraph, error) {
	g := &CallGraph{
		NumFuncs: uint(m.NumFunctions()),
		Imported: uint(m.NumImportedFuncs()),
		Edges:    map[uint32][]uint32{},
	}

	if m.Code != nil && m.Function != nil {
		scope := code.NewStaticScope(m.Module)
		for idx, body := range m.Code.Bodies {
			caller := uint32(g.Imported) + uint32(idx)
			sig, ok := m.FuncSig(caller)
			if !ok {
				return nil, wasm.ValidationError(fmt.Sprintf("function %d: no signature", caller))
			}
			scope.SetFunction(sig, body)

			decoded, err := code.Decode(body.Code, scope, sig.ReturnTypes)
			if err != nil {
				return nil, err
			}
			for _, ins := range decoded.Instructions {
				if ins.Opcode == code.OpCall {
					g.Edges[caller] = append(g.Edges[caller], ins.Funcidx())
				}
			}
		}
	}

	if m.Export != nil {
		for _, e := range m.Export.Entries {
			if e.Kind == wasm.ExternalFunction {
				g.Roots = append(g.Roots, e.Index)
			}
		}
	}
	if m.Start != nil {
		g.Roots = append(g.Roots, m.Start.Index)
	}
	if m.Elements != nil {
		for _, seg := range m.Elements.Entries {
			g.Roots = append(g.Roots, seg.Elems...)
		}
	}
	return g, nil
}

// Reachable flood-fills the graph from its roots and returns the set of live
// function indices.
func (g *CallGraph) Reachable() *bitset.BitSet {
	live := bitset.New(g.NumFuncs)
	stack := append([]uint32(nil), g.Roots...)
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if uint(idx) >= g.NumFuncs || live.Test(uint(idx)) {
			continue
		}
		live.Set(uint(idx))
		stack = append(stack, g.Edges[idx]...)
	}
	return live
}
