package ops

import (
	"gopkg.in/yaml.v3"

	"github.com/pgavlin/chisel/ir"
)

// checkStartFunc checks the start section against an expectation: present
// when required, absent otherwise.
type checkStartFunc struct {
	required bool
}

func newCheckStartFunc(params *yaml.Node) (Operation, error) {
	var p struct {
		RequireStart bool `yaml:"require_start"`
	}
	if err := decodeParams("checkstartfunc", params, &p, "require_start"); err != nil {
		return nil, err
	}
	return checkStartFunc{required: p.RequireStart}, nil
}

func (checkStartFunc) Name() string { return "checkstartfunc" }

func (checkStartFunc) Role() Role { return RoleChecker }

func (op checkStartFunc) Check(m *ir.Module) ([]Violation, error) {
	switch {
	case op.required && m.Start == nil:
		return []Violation{{Kind: ViolationMissing, Subject: "start"}}, nil
	case !op.required && m.Start != nil:
		return []Violation{{Kind: ViolationForbidden, Subject: "start"}}, nil
	}
	return nil, nil
}
