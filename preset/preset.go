// Package preset holds the built-in rule tables operations can be configured
// with by name. Tables are constructed once and never mutated; lookups copy
// nothing and callers must not modify the returned values.
package preset

import (
	"github.com/pgavlin/warp/wasm"
)

// ImportName identifies an import by namespace and name.
type ImportName struct {
	Namespace string
	Name      string
}

// ImportRule describes one import a module may or must carry. Sig is only
// meaningful for function rules. Required only matters under a policy with
// RequireAll set.
type ImportRule struct {
	Namespace string
	Name      string
	Kind      wasm.External
	Sig       wasm.FunctionSig
	Required  bool
}

// ImportPolicy bundles import rules with the matching policy. RequireAll
// demands every required rule be matched by an import; StrictUnlisted
// rejects imports no rule covers.
type ImportPolicy struct {
	Rules          []ImportRule
	RequireAll     bool
	StrictUnlisted bool
}

// ExportRule describes one export a module must expose. Sig is only
// meaningful for function rules.
type ExportRule struct {
	Name string
	Kind wasm.External
	Sig  wasm.FunctionSig
}

// ExportPolicy bundles export rules with the matching policy. Every rule is
// required; StrictUnlisted additionally rejects exports no rule covers.
type ExportPolicy struct {
	Rules          []ExportRule
	StrictUnlisted bool
}

// Imports returns the import policy registered under name.
func Imports(name string) (ImportPolicy, bool) {
	p, ok := importPolicies[name]
	return p, ok
}

// Exports returns the export policy registered under name.
func Exports(name string) (ExportPolicy, bool) {
	p, ok := exportPolicies[name]
	return p, ok
}

// TrimExports returns the keep-list registered under name.
func TrimExports(name string) ([]string, bool) {
	keep, ok := trimExports[name]
	return keep, ok
}

// ImportRenames returns the import rename table registered under name.
func ImportRenames(name string) (map[ImportName]ImportName, bool) {
	table, ok := importRenames[name]
	return table, ok
}

// ExportRenames returns the export rename table registered under name.
func ExportRenames(name string) (map[string]string, bool) {
	table, ok := exportRenames[name]
	return table, ok
}
