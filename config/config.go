// Package config parses chisel configuration documents. A document maps
// ruleset names to ruleset bodies:
//
//	contract:
//	  file: contract.wasm
//	  output: contract.out.wasm
//	  remapimports:
//	    preset: ewasm
//	  verifyexports:
//	    preset: ewasm
//	  trimstartfunc:
//
// Beyond the reserved file, output, and format keys, every key of a ruleset
// body is an operation invocation whose value is either null or a parameter
// mapping. Rulesets and operations keep the document's order.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatBin = "bin"
	FormatHex = "hex"
	FormatWat = "wat"
)

// An Invocation names an operation and carries its parameter node. A nil
// node means the operation was configured without parameters.
type Invocation struct {
	Name   string
	Params *yaml.Node
}

// A RuleSet is one named pipeline: an input module, an optional output
// destination, and the operations to run in order.
type RuleSet struct {
	Name   string
	File   string
	Output string
	Format string
	Ops    []Invocation
}

// An Error describes a document the run cannot proceed with.
type Error struct {
	Ruleset string
	Reason  string
}

func (e *Error) Error() string {
	if e.Ruleset == "" {
		return fmt.Sprintf("config: %s", e.Reason)
	}
	return fmt.Sprintf("config: ruleset %q: %s", e.Ruleset, e.Reason)
}

func errorf(ruleset, format string, args ...interface{}) error {
	return &Error{Ruleset: ruleset, Reason: fmt.Sprintf(format, args...)}
}

// Load reads and parses the configuration document at path.
func Load(path string) ([]RuleSet, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Reason: err.Error()}
	}
	return Parse(contents)
}

// Parse decodes a configuration document. An empty document holds no
// rulesets.
func Parse(contents []byte) ([]RuleSet, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(contents, &doc); err != nil {
		return nil, &Error{Reason: err.Error()}
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}

	root := doc.Content[0]
	if isNull(root) {
		return nil, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, errorf("", "the document must map ruleset names to rulesets")
	}

	rulesets := make([]RuleSet, 0, len(root.Content)/2)
	for i := 0; i < len(root.Content); i += 2 {
		name, body := root.Content[i].Value, root.Content[i+1]
		rs, err := parseRuleSet(name, body)
		if err != nil {
			return nil, err
		}
		rulesets = append(rulesets, rs)
	}
	return rulesets, nil
}

func parseRuleSet(name string, body *yaml.Node) (RuleSet, error) {
	rs := RuleSet{Name: name, Format: FormatBin}
	if body.Kind != yaml.MappingNode {
		return rs, errorf(name, "a ruleset must be a mapping")
	}

	for i := 0; i < len(body.Content); i += 2 {
		key, value := body.Content[i], body.Content[i+1]
		switch key.Value {
		case "file":
			if err := scalar(name, key.Value, value, &rs.File); err != nil {
				return rs, err
			}
		case "output":
			if err := scalar(name, key.Value, value, &rs.Output); err != nil {
				return rs, err
			}
		case "format":
			if err := scalar(name, key.Value, value, &rs.Format); err != nil {
				return rs, err
			}
			switch rs.Format {
			case FormatBin, FormatHex, FormatWat:
			default:
				return rs, errorf(name, "unknown format %q", rs.Format)
			}
		default:
			inv, err := parseInvocation(name, key.Value, value)
			if err != nil {
				return rs, err
			}
			rs.Ops = append(rs.Ops, inv)
		}
	}

	if rs.File == "" {
		return rs, errorf(name, "file is required")
	}
	if rs.Output == "" {
		rs.Output = rs.File
	}
	return rs, nil
}

// parseInvocation accepts null (no parameters) or a mapping. Anything else
// is malformed; sequences and scalars have no parameter meaning.
func parseInvocation(ruleset, op string, value *yaml.Node) (Invocation, error) {
	switch {
	case isNull(value):
		return Invocation{Name: op}, nil
	case value.Kind == yaml.MappingNode:
		return Invocation{Name: op, Params: value}, nil
	default:
		return Invocation{}, errorf(ruleset, "operation %q takes null or a parameter mapping", op)
	}
}

func scalar(ruleset, key string, value *yaml.Node, out *string) error {
	if value.Kind != yaml.ScalarNode || isNull(value) {
		return errorf(ruleset, "%s must be a string", key)
	}
	*out = value.Value
	return nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}
