package ops

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/pgavlin/warp/wasm"

	"github.com/pgavlin/chisel/ir"
	"github.com/pgavlin/chisel/preset"
)

// verifyExports checks a module's exports against an export policy. Every
// rule names a required export; StrictUnlisted additionally rejects exports
// no rule covers.
type verifyExports struct {
	policy preset.ExportPolicy
}

type exportRuleParam struct {
	Name    string   `yaml:"name"`
	Kind    string   `yaml:"kind"`
	Params  []string `yaml:"params"`
	Results []string `yaml:"results"`
}

func newVerifyExports(params *yaml.Node) (Operation, error) {
	var p struct {
		Preset         string            `yaml:"preset"`
		Entries        []exportRuleParam `yaml:"entries"`
		StrictUnlisted bool              `yaml:"strict_unlisted"`
	}
	if err := decodeParams("verifyexports", params, &p, "preset", "entries", "strict_unlisted"); err != nil {
		return nil, err
	}
	switch {
	case p.Preset != "" && len(p.Entries) != 0:
		return nil, configErrorf("verifyexports", "preset and entries are mutually exclusive")
	case p.Preset != "":
		policy, ok := preset.Exports(p.Preset)
		if !ok {
			return nil, configErrorf("verifyexports", "unknown preset %q", p.Preset)
		}
		return &verifyExports{policy: policy}, nil
	case len(p.Entries) != 0:
		policy := preset.ExportPolicy{StrictUnlisted: p.StrictUnlisted}
		for _, e := range p.Entries {
			rule, err := exportRuleFromParam(e)
			if err != nil {
				return nil, err
			}
			policy.Rules = append(policy.Rules, rule)
		}
		return &verifyExports{policy: policy}, nil
	default:
		return nil, configErrorf("verifyexports", "a preset or an entries list is required")
	}
}

func exportRuleFromParam(e exportRuleParam) (preset.ExportRule, error) {
	var rule preset.ExportRule
	if e.Name == "" {
		return rule, configErrorf("verifyexports", "entries need a name")
	}
	kind := wasm.ExternalFunction
	if e.Kind != "" {
		k, ok := ir.KindFromName(e.Kind)
		if !ok {
			return rule, configErrorf("verifyexports", "unknown kind %q", e.Kind)
		}
		kind = k
	}
	if kind != wasm.ExternalFunction && (len(e.Params) != 0 || len(e.Results) != 0) {
		return rule, configErrorf("verifyexports", "%s: only function exports carry a signature", e.Name)
	}
	params, err := valueTypesFromNames("verifyexports", e.Params)
	if err != nil {
		return rule, err
	}
	results, err := valueTypesFromNames("verifyexports", e.Results)
	if err != nil {
		return rule, err
	}
	return preset.ExportRule{
		Name: e.Name,
		Kind: kind,
		Sig:  wasm.FunctionSig{ParamTypes: params, ReturnTypes: results},
	}, nil
}

func (op *verifyExports) Name() string { return "verifyexports" }

func (op *verifyExports) Role() Role { return RoleChecker }

func (op *verifyExports) Check(m *ir.Module) ([]Violation, error) {
	var violations []Violation

	listed := make(map[string]bool, len(op.policy.Rules))
	for i := range op.policy.Rules {
		rule := &op.policy.Rules[i]
		listed[rule.Name] = true

		e := m.ExportNamed(rule.Name)
		if e == nil {
			violations = append(violations, Violation{
				Kind:    ViolationMissing,
				Subject: rule.Name,
			})
			continue
		}
		if e.Kind != rule.Kind {
			violations = append(violations, Violation{
				Kind:    ViolationMismatched,
				Subject: rule.Name,
				Detail:  fmt.Sprintf("have %s, want %s", ir.KindName(e.Kind), ir.KindName(rule.Kind)),
			})
			continue
		}
		if rule.Kind != wasm.ExternalFunction {
			continue
		}
		sig, ok := m.FuncSig(e.Index)
		if !ok {
			violations = append(violations, Violation{
				Kind:    ViolationMismatched,
				Subject: rule.Name,
				Detail:  "function index is not defined",
			})
			continue
		}
		if !sig.Equals(rule.Sig) {
			violations = append(violations, Violation{
				Kind:    ViolationMismatched,
				Subject: rule.Name,
				Detail:  fmt.Sprintf("have %s, want %s", sigString(sig), sigString(rule.Sig)),
			})
		}
	}

	if op.policy.StrictUnlisted && m.Export != nil {
		for i := range m.Export.Entries {
			e := &m.Export.Entries[i]
			if !listed[e.FieldStr] {
				violations = append(violations, Violation{
					Kind:    ViolationUnlisted,
					Subject: e.FieldStr,
				})
			}
		}
	}
	return violations, nil
}
