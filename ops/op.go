// Package ops implements the operation catalog: the translators, creators,
// and checkers a ruleset applies to a module.
package ops

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/pgavlin/chisel/ir"
)

// A Role describes how the pipeline drives an operation.
type Role int

const (
	// RoleTranslator marks operations that rewrite a module in place.
	RoleTranslator Role = iota
	// RoleCreator marks operations that derive a new module from their input.
	RoleCreator
	// RoleChecker marks operations that inspect a module without changing it.
	RoleChecker
)

func (r Role) String() string {
	switch r {
	case RoleTranslator:
		return "translator"
	case RoleCreator:
		return "creator"
	case RoleChecker:
		return "checker"
	default:
		return "unknown"
	}
}

// An Operation is a single named step in a ruleset. Every Operation is also
// a Translator, a Creator, or a Checker; its Role reports which.
type Operation interface {
	// Name returns the operation's catalog name.
	Name() string
	// Role returns the operation's role.
	Role() Role
}

// A Translator rewrites a module in place. Translate reports whether the
// module changed.
type Translator interface {
	Operation

	Translate(m *ir.Module) (bool, error)
}

// A Creator derives a new module from its input, leaving the input
// untouched.
type Creator interface {
	Operation

	Create(m *ir.Module) (*ir.Module, error)
}

// A Checker inspects a module without modifying it. Check returns every
// violation it finds rather than stopping at the first; a non-nil error
// means the check itself could not run.
type Checker interface {
	Operation

	Check(m *ir.Module) ([]Violation, error)
}

// A ViolationKind classifies a checker finding.
type ViolationKind int

const (
	// ViolationMissing reports a required entity that is absent.
	ViolationMissing ViolationKind = iota
	// ViolationUnlisted reports an entity outside the policy's list.
	ViolationUnlisted
	// ViolationMismatched reports an entity whose kind or signature differs
	// from the policy's.
	ViolationMismatched
	// ViolationForbidden reports an entity the policy bans outright.
	ViolationForbidden
)

func (k ViolationKind) String() string {
	switch k {
	case ViolationMissing:
		return "missing"
	case ViolationUnlisted:
		return "unlisted"
	case ViolationMismatched:
		return "mismatched"
	case ViolationForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// A Violation is a single checker finding.
type Violation struct {
	Kind    ViolationKind
	Subject string
	Detail  string
}

func (v Violation) String() string {
	if v.Detail == "" {
		return fmt.Sprintf("%v: %s", v.Kind, v.Subject)
	}
	return fmt.Sprintf("%v: %s (%s)", v.Kind, v.Subject, v.Detail)
}

// A NotFoundError is returned by New for a name outside the catalog.
type NotFoundError string

func (e NotFoundError) Error() string {
	return fmt.Sprintf("unknown operation %q", string(e))
}

// A ConfigError reports parameters an operation could not be built from. It
// fails the operation before the module is touched.
type ConfigError struct {
	Op     string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// A TransformError is returned by a translator or creator that could not
// produce a valid result.
type TransformError struct {
	Op     string
	Reason string
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func configErrorf(op, format string, args ...interface{}) error {
	return &ConfigError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

func transformErrorf(op, format string, args ...interface{}) error {
	return &TransformError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

var catalog = map[string]func(params *yaml.Node) (Operation, error){
	"checkfloat":     newCheckFloat,
	"checkstartfunc": newCheckStartFunc,
	"deployer":       newDeployer,
	"dropnames":      newDropNames,
	"dropsection":    newDropSection,
	"remapexports":   newRemapExports,
	"remapimports":   newRemapImports,
	"remapstart":     newRemapStart,
	"repack":         newRepack,
	"snip":           newSnip,
	"trimexports":    newTrimExports,
	"trimstartfunc":  newTrimStartFunc,
	"verifyexports":  newVerifyExports,
	"verifyimports":  newVerifyImports,
}

// New builds the named operation from its YAML parameters. A nil params node
// stands for an empty parameter set.
func New(name string, params *yaml.Node) (Operation, error) {
	build, ok := catalog[name]
	if !ok {
		return nil, NotFoundError(name)
	}
	return build(params)
}

// Names returns the catalog's operation names in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// A stringList decodes from either a sequence or a single scalar, so
// "kinds: data" and "kinds: [data, element]" both work. Command-line
// parameter assignments produce the scalar form.
type stringList []string

func (l *stringList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*l = stringList{node.Value}
		return nil
	}
	var values []string
	if err := node.Decode(&values); err != nil {
		return err
	}
	*l = stringList(values)
	return nil
}

// decodeParams decodes an operation's parameter mapping into out. A nil or
// null node leaves out untouched; keys outside allowed are rejected so a
// misspelled parameter fails instead of silently defaulting.
func decodeParams(op string, params *yaml.Node, out interface{}, allowed ...string) error {
	if params == nil || params.Kind == 0 {
		return nil
	}
	if params.Kind == yaml.ScalarNode && params.Tag == "!!null" {
		return nil
	}
	if params.Kind != yaml.MappingNode {
		return configErrorf(op, "parameters must be a mapping")
	}
	for i := 0; i < len(params.Content); i += 2 {
		key := params.Content[i].Value
		known := false
		for _, name := range allowed {
			if name == key {
				known = true
				break
			}
		}
		if !known {
			return configErrorf(op, "unknown parameter %q", key)
		}
	}
	if err := params.Decode(out); err != nil {
		return configErrorf(op, "%v", err)
	}
	return nil
}
