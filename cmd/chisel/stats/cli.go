package stats

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/pgavlin/warp/wasm"
	"github.com/pgavlin/warp/wasm/code"
	"github.com/spf13/cobra"

	"github.com/pgavlin/chisel/ir"
)

func Command() *cobra.Command {
	var sections bool

	command := &cobra.Command{
		Use:   "stats [path to module]",
		Short: "Dump module statistics in CSV format",
		Long:  "Dump per-function or per-section module statistics in CSV format",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("expected exactly one argument")
			}
			m, err := ir.DecodeFile(args[0])
			if err != nil {
				return err
			}

			if sections {
				return sectionStats(os.Stdout, m)
			}
			return functionStats(os.Stdout, m)
		},
	}

	command.PersistentFlags().BoolVarP(&sections, "sections", "s", false, "dump per-section statistics instead of per-function statistics")

	return command
}

func functionStats(w io.Writer, m *ir.Module) error {
	type row struct {
		Funcidx          int    `csv:"funcidx"`
		Function         string `csv:"function"`
		In               int    `csv:"in"`
		Out              int    `csv:"out"`
		LocalCount       int    `csv:"local count"`
		InstructionCount int    `csv:"instruction count"`
		CallCount        int    `csv:"call count"`
		FloatCount       int    `csv:"float count"`
		BodyBytes        int    `csv:"body bytes"`
	}

	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	encoder := csvutil.NewEncoder(csvWriter)

	if m.Code == nil {
		return nil
	}
	names := m.FunctionNames()
	scope := code.NewStaticScope(m.Module)
	for idx, body := range m.Code.Bodies {
		sig := m.Types.Entries[m.Function.Types[idx]]
		scope.SetFunction(sig, body)

		decoded, err := code.Decode(body.Code, scope, sig.ReturnTypes)
		if err != nil {
			return err
		}

		funcidx := uint32(len(scope.ImportedFunctions) + idx)
		r := row{
			Funcidx:          int(funcidx),
			Function:         names[funcidx],
			In:               len(sig.ParamTypes),
			Out:              len(sig.ReturnTypes),
			LocalCount:       len(scope.Locals),
			InstructionCount: len(decoded.Instructions),
			BodyBytes:        len(body.Code),
		}
		for _, ins := range decoded.Instructions {
			switch ins.Opcode {
			case code.OpCall, code.OpCallIndirect:
				r.CallCount++
			}
			if floatOp(ins) {
				r.FloatCount++
			}
		}

		if err := encoder.Encode(&r); err != nil {
			return err
		}
	}
	return nil
}

// floatOp reports whether an instruction touches f32 or f64 values. Every
// such instruction names the float type it operates on.
func floatOp(ins code.Instruction) bool {
	name := ins.OpString()
	return strings.Contains(name, "f32") || strings.Contains(name, "f64")
}

func sectionStats(w io.Writer, m *ir.Module) error {
	type row struct {
		ID      int    `csv:"id"`
		Section string `csv:"section"`
		Name    string `csv:"name"`
		Entries int    `csv:"entries"`
		Bytes   int    `csv:"bytes"`
	}

	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	encoder := csvutil.NewEncoder(csvWriter)

	for _, s := range m.Sections {
		r := row{
			ID:      int(s.SectionID()),
			Section: s.SectionID().String(),
			Bytes:   len(s.GetRawSection().Bytes),
		}
		switch s := s.(type) {
		case *wasm.SectionTypes:
			r.Entries = len(s.Entries)
		case *wasm.SectionImports:
			r.Entries = len(s.Entries)
		case *wasm.SectionFunctions:
			r.Entries = len(s.Types)
		case *wasm.SectionTables:
			r.Entries = len(s.Entries)
		case *wasm.SectionMemories:
			r.Entries = len(s.Entries)
		case *wasm.SectionGlobals:
			r.Entries = len(s.Globals)
		case *wasm.SectionExports:
			r.Entries = len(s.Entries)
		case *wasm.SectionStartFunction:
			r.Entries = 1
		case *wasm.SectionElements:
			r.Entries = len(s.Entries)
		case *wasm.SectionCode:
			r.Entries = len(s.Bodies)
		case *wasm.SectionData:
			r.Entries = len(s.Entries)
		case *wasm.SectionCustom:
			// The name prefix is not part of the payload.
			r.Name, r.Bytes = s.Name, len(s.Data)
		}

		if err := encoder.Encode(&r); err != nil {
			return err
		}
	}
	return nil
}
