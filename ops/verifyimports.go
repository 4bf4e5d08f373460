package ops

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/pgavlin/warp/wasm"

	"github.com/pgavlin/chisel/ir"
	"github.com/pgavlin/chisel/preset"
)

// verifyImports checks a module's imports against an import policy. Listed
// imports must match their rule's kind and signature; StrictUnlisted rejects
// imports no rule covers, and RequireAll demands every required rule be
// satisfied by some import.
type verifyImports struct {
	policy preset.ImportPolicy
}

type importRuleParam struct {
	Namespace string   `yaml:"namespace"`
	Name      string   `yaml:"name"`
	Kind      string   `yaml:"kind"`
	Params    []string `yaml:"params"`
	Results   []string `yaml:"results"`
	Required  bool     `yaml:"required"`
}

func newVerifyImports(params *yaml.Node) (Operation, error) {
	var p struct {
		Preset         string            `yaml:"preset"`
		Entries        []importRuleParam `yaml:"entries"`
		RequireAll     bool              `yaml:"require_all"`
		StrictUnlisted bool              `yaml:"strict_unlisted"`
	}
	err := decodeParams("verifyimports", params, &p,
		"preset", "entries", "require_all", "strict_unlisted")
	if err != nil {
		return nil, err
	}
	switch {
	case p.Preset != "" && len(p.Entries) != 0:
		return nil, configErrorf("verifyimports", "preset and entries are mutually exclusive")
	case p.Preset != "":
		policy, ok := preset.Imports(p.Preset)
		if !ok {
			return nil, configErrorf("verifyimports", "unknown preset %q", p.Preset)
		}
		return &verifyImports{policy: policy}, nil
	case len(p.Entries) != 0:
		policy := preset.ImportPolicy{
			RequireAll:     p.RequireAll,
			StrictUnlisted: p.StrictUnlisted,
		}
		for _, e := range p.Entries {
			rule, err := importRuleFromParam(e)
			if err != nil {
				return nil, err
			}
			policy.Rules = append(policy.Rules, rule)
		}
		return &verifyImports{policy: policy}, nil
	default:
		return nil, configErrorf("verifyimports", "a preset or an entries list is required")
	}
}

func importRuleFromParam(e importRuleParam) (preset.ImportRule, error) {
	var rule preset.ImportRule
	if e.Name == "" {
		return rule, configErrorf("verifyimports", "entries need a name")
	}
	kind := wasm.ExternalFunction
	if e.Kind != "" {
		k, ok := ir.KindFromName(e.Kind)
		if !ok {
			return rule, configErrorf("verifyimports", "unknown kind %q", e.Kind)
		}
		kind = k
	}
	if kind != wasm.ExternalFunction && (len(e.Params) != 0 || len(e.Results) != 0) {
		return rule, configErrorf("verifyimports", "%s.%s: only function imports carry a signature", e.Namespace, e.Name)
	}
	params, err := valueTypesFromNames("verifyimports", e.Params)
	if err != nil {
		return rule, err
	}
	results, err := valueTypesFromNames("verifyimports", e.Results)
	if err != nil {
		return rule, err
	}
	return preset.ImportRule{
		Namespace: e.Namespace,
		Name:      e.Name,
		Kind:      kind,
		Sig:       wasm.FunctionSig{ParamTypes: params, ReturnTypes: results},
		Required:  e.Required,
	}, nil
}

func (op *verifyImports) Name() string { return "verifyimports" }

func (op *verifyImports) Role() Role { return RoleChecker }

func (op *verifyImports) Check(m *ir.Module) ([]Violation, error) {
	var violations []Violation
	matched := make([]bool, len(op.policy.Rules))

	var entries []wasm.ImportEntry
	if m.Import != nil {
		entries = m.Import.Entries
	}
	for _, e := range entries {
		subject := e.ModuleName + "." + e.FieldName
		idx := op.findRule(e.ModuleName, e.FieldName)
		if idx < 0 {
			if op.policy.StrictUnlisted {
				violations = append(violations, Violation{
					Kind:    ViolationUnlisted,
					Subject: subject,
				})
			}
			continue
		}
		matched[idx] = true

		rule := &op.policy.Rules[idx]
		if e.Type.Kind() != rule.Kind {
			violations = append(violations, Violation{
				Kind:    ViolationMismatched,
				Subject: subject,
				Detail:  fmt.Sprintf("have %s, want %s", ir.KindName(e.Type.Kind()), ir.KindName(rule.Kind)),
			})
			continue
		}
		if rule.Kind != wasm.ExternalFunction {
			continue
		}
		sig, ok := m.TypeSig(e.Type.(wasm.FuncImport).Type)
		if !ok {
			violations = append(violations, Violation{
				Kind:    ViolationMismatched,
				Subject: subject,
				Detail:  "type index is not defined",
			})
			continue
		}
		if !sig.Equals(rule.Sig) {
			violations = append(violations, Violation{
				Kind:    ViolationMismatched,
				Subject: subject,
				Detail:  fmt.Sprintf("have %s, want %s", sigString(sig), sigString(rule.Sig)),
			})
		}
	}

	if op.policy.RequireAll {
		for i := range op.policy.Rules {
			rule := &op.policy.Rules[i]
			if rule.Required && !matched[i] {
				violations = append(violations, Violation{
					Kind:    ViolationMissing,
					Subject: rule.Namespace + "." + rule.Name,
				})
			}
		}
	}
	return violations, nil
}

func (op *verifyImports) findRule(namespace, name string) int {
	for i := range op.policy.Rules {
		rule := &op.policy.Rules[i]
		if rule.Namespace == namespace && rule.Name == name {
			return i
		}
	}
	return -1
}
