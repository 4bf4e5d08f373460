package config

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// FromArgs builds the single ruleset a unix-style invocation describes: one
// input file, the operations to run in order, and op.key=value parameter
// assignments. Repeating an assignment key turns its value into a list. An
// empty output means stdout.
func FromArgs(file, output, format string, ops, assignments []string) (RuleSet, error) {
	rs := RuleSet{Name: file, File: file, Output: output, Format: format}
	if rs.File == "" {
		return rs, errorf("", "file is required")
	}
	if rs.Output == "" {
		rs.Output = "/dev/stdout"
	}
	switch rs.Format {
	case "":
		rs.Format = FormatBin
	case FormatBin, FormatHex, FormatWat:
	default:
		return rs, errorf(rs.Name, "unknown format %q", rs.Format)
	}

	index := make(map[string]int, len(ops))
	for _, name := range ops {
		if _, ok := index[name]; ok {
			return rs, errorf(rs.Name, "operation %q was selected more than once", name)
		}
		index[name] = len(rs.Ops)
		rs.Ops = append(rs.Ops, Invocation{Name: name})
	}

	for _, assignment := range assignments {
		op, key, value, err := splitAssignment(rs.Name, assignment)
		if err != nil {
			return rs, err
		}
		i, ok := index[op]
		if !ok {
			return rs, errorf(rs.Name, "%q configures an operation that was not selected", assignment)
		}
		setParam(&rs.Ops[i], key, value)
	}
	return rs, nil
}

// splitAssignment takes "op.key=value" apart. The value may contain any
// character, dots and equals signs included.
func splitAssignment(ruleset, assignment string) (op, key, value string, err error) {
	name, value, ok := strings.Cut(assignment, "=")
	if ok {
		op, key, ok = strings.Cut(name, ".")
	}
	if !ok || op == "" || key == "" {
		return "", "", "", errorf(ruleset, "malformed assignment %q: assignments must be of the form op.key=value", assignment)
	}
	return op, key, value, nil
}

// setParam adds key=value to an invocation's parameter mapping. A repeated
// key grows a sequence, matching what the YAML form expresses with a list.
// Scalars are left untagged so the decoder can infer bools and numbers.
func setParam(inv *Invocation, key, value string) {
	if inv.Params == nil {
		inv.Params = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}
	scalar := &yaml.Node{Kind: yaml.ScalarNode, Value: value}

	content := inv.Params.Content
	for i := 0; i < len(content); i += 2 {
		if content[i].Value != key {
			continue
		}
		prior := content[i+1]
		if prior.Kind == yaml.SequenceNode {
			prior.Content = append(prior.Content, scalar)
			return
		}
		content[i+1] = &yaml.Node{
			Kind:    yaml.SequenceNode,
			Tag:     "!!seq",
			Content: []*yaml.Node{prior, scalar},
		}
		return
	}
	inv.Params.Content = append(content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		scalar)
}
