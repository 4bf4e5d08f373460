package ops

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/pgavlin/warp/wasm/code"

	"github.com/pgavlin/chisel/ir"
)

// checkFloat reports functions that use floating-point instructions, which
// deterministic execution environments ban. It scans instructions only;
// SIMD is out of scope.
type checkFloat struct{}

func newCheckFloat(params *yaml.Node) (Operation, error) {
	if err := decodeParams("checkfloat", params, &struct{}{}); err != nil {
		return nil, err
	}
	return checkFloat{}, nil
}

func (checkFloat) Name() string { return "checkfloat" }

func (checkFloat) Role() Role { return RoleChecker }

func (checkFloat) Check(m *ir.Module) ([]Violation, error) {
	if m.Code == nil {
		return nil, nil
	}
	names := m.FunctionNames()
	imported := m.NumImportedFuncs()

	var violations []Violation
	scope := code.NewStaticScope(m.Module)
	for idx, body := range m.Code.Bodies {
		sig := m.Types.Entries[m.Function.Types[idx]]
		scope.SetFunction(sig, body)

		decoded, err := code.Decode(body.Code, scope, sig.ReturnTypes)
		if err != nil {
			return nil, err
		}
		for _, ins := range decoded.Instructions {
			if !floatInstruction(ins) {
				continue
			}
			funcidx := uint32(imported + idx)
			subject := names[funcidx]
			if subject == "" {
				subject = fmt.Sprintf("func %d", funcidx)
			}
			violations = append(violations, Violation{
				Kind:    ViolationForbidden,
				Subject: subject,
				Detail:  fmt.Sprintf("uses %s", ins.OpString()),
			})
			break
		}
	}
	return violations, nil
}

func floatInstruction(ins code.Instruction) bool {
	switch ins.Opcode {
	case code.OpF32Load, code.OpF64Load, code.OpF32Store, code.OpF64Store,
		code.OpF32Const, code.OpF64Const,
		code.OpF32Eq, code.OpF32Ne, code.OpF32Lt, code.OpF32Gt, code.OpF32Le, code.OpF32Ge,
		code.OpF64Eq, code.OpF64Ne, code.OpF64Lt, code.OpF64Gt, code.OpF64Le, code.OpF64Ge,
		code.OpF32Abs, code.OpF32Neg, code.OpF32Ceil, code.OpF32Floor, code.OpF32Trunc, code.OpF32Nearest, code.OpF32Sqrt,
		code.OpF32Add, code.OpF32Sub, code.OpF32Mul, code.OpF32Div, code.OpF32Min, code.OpF32Max, code.OpF32Copysign,
		code.OpF64Abs, code.OpF64Neg, code.OpF64Ceil, code.OpF64Floor, code.OpF64Trunc, code.OpF64Nearest, code.OpF64Sqrt,
		code.OpF64Add, code.OpF64Sub, code.OpF64Mul, code.OpF64Div, code.OpF64Min, code.OpF64Max, code.OpF64Copysign,
		code.OpI32TruncF32S, code.OpI32TruncF32U, code.OpI32TruncF64S, code.OpI32TruncF64U,
		code.OpI64TruncF32S, code.OpI64TruncF32U, code.OpI64TruncF64S, code.OpI64TruncF64U,
		code.OpF32ConvertI32S, code.OpF32ConvertI32U, code.OpF32ConvertI64S, code.OpF32ConvertI64U, code.OpF32DemoteF64,
		code.OpF64ConvertI32S, code.OpF64ConvertI32U, code.OpF64ConvertI64S, code.OpF64ConvertI64U, code.OpF64PromoteF32,
		code.OpI32ReinterpretF32, code.OpI64ReinterpretF64, code.OpF32ReinterpretI32, code.OpF64ReinterpretI64:
		return true
	case code.OpPrefix:
		switch ins.Immediate {
		case code.OpI32TruncSatF32S, code.OpI32TruncSatF32U, code.OpI32TruncSatF64S, code.OpI32TruncSatF64U,
			code.OpI64TruncSatF32S, code.OpI64TruncSatF32U, code.OpI64TruncSatF64S, code.OpI64TruncSatF64U:
			return true
		}
	}
	return false
}
