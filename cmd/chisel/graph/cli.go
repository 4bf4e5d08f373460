package graph

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pgavlin/warp/wasm"
	"github.com/spf13/cobra"

	"github.com/pgavlin/chisel/ir"
	"github.com/pgavlin/chisel/snip"
)

func Command() *cobra.Command {
	command := &cobra.Command{
		Use:   "graph [path to module]",
		Short: "Dump the function call graph in DOT format",
		Long:  "Dump the module's direct call graph as a DOT digraph, one node per function",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one argument")
			}
			m, err := ir.DecodeFile(args[0])
			if err != nil {
				return err
			}

			w := bufio.NewWriter(os.Stdout)
			defer w.Flush()

			return write(w, m)
		},
	}

	return command
}

func write(w io.Writer, m *ir.Module) error {
	g, err := snip.BuildCallGraph(m)
	if err != nil {
		return err
	}

	names := m.FunctionNames()
	if names == nil {
		names = map[uint32]string{}
	}
	if m.Import != nil {
		funcidx := uint32(0)
		for _, entry := range m.Import.Entries {
			if _, ok := entry.Type.(wasm.FuncImport); ok {
				names[funcidx] = entry.FieldName
				funcidx++
			}
		}
	}
	label := func(funcidx uint32) string {
		if name, ok := names[funcidx]; ok {
			return name
		}
		return fmt.Sprintf("func %d", funcidx)
	}

	if _, err := fmt.Fprintln(w, "digraph calls {"); err != nil {
		return err
	}
	for idx := uint32(0); uint(idx) < g.NumFuncs; idx++ {
		shape := "box"
		if uint(idx) < g.Imported {
			shape = "ellipse"
		}
		if _, err := fmt.Fprintf(w, "\t%d [label=%q shape=%s];\n", idx, label(idx), shape); err != nil {
			return err
		}
	}

	// An edge may show up once per call site; the graph keeps one.
	seen := map[[2]uint32]bool{}
	for caller := uint32(0); uint(caller) < g.NumFuncs; caller++ {
		for _, callee := range g.Edges[caller] {
			edge := [2]uint32{caller, callee}
			if seen[edge] {
				continue
			}
			seen[edge] = true
			if _, err := fmt.Fprintf(w, "\t%d -> %d;\n", caller, callee); err != nil {
				return err
			}
		}
	}
	_, err = fmt.Fprintln(w, "}")
	return err
}
