// Package snip shrinks modules by stubbing out function bodies: functions
// whose names match known runtime-support patterns are replaced with a lone
// unreachable, and a liveness pass then stubs every defined function no
// export, start function, or table entry can reach. Indices never move, so
// no call sites need rewriting.
package snip

import (
	"bytes"
	"regexp"

	"github.com/pgavlin/warp/wasm/code"

	"github.com/pgavlin/chisel/ir"
)

// Options selects which function bodies to stub.
type Options struct {
	// StripRuntimeFmt stubs the string-formatting machinery language
	// runtimes embed (core::fmt / std::fmt and their mangled forms).
	StripRuntimeFmt bool
	// StripRuntimePanic stubs embedded panic and unwinding support.
	StripRuntimePanic bool
	// Patterns holds extra regular expressions matched against
	// names-section function names.
	Patterns []string
}

var fmtPatterns = []*regexp.Regexp{
	regexp.MustCompile(`.*4core3fmt.*`),
	regexp.MustCompile(`.*3std3fmt.*`),
	regexp.MustCompile(`.*core::fmt::.*`),
	regexp.MustCompile(`.*std::fmt::.*`),
}

var panicPatterns = []*regexp.Regexp{
	regexp.MustCompile(`.*4core9panicking.*`),
	regexp.MustCompile(`.*3std9panicking.*`),
	regexp.MustCompile(`.*core::panicking::.*`),
	regexp.MustCompile(`.*std::panicking::.*`),
}

var stubBody = []byte{code.OpUnreachable, code.OpEnd}

// A Snipper stubs functions whose names match its patterns, then stubs
// whatever the first pass left unreachable.
type Snipper struct {
	patterns []*regexp.Regexp
}

// New compiles the options' patterns. An invalid pattern fails here, before
// any module is touched.
func New(opts Options) (*Snipper, error) {
	var patterns []*regexp.Regexp
	if opts.StripRuntimeFmt {
		patterns = append(patterns, fmtPatterns...)
	}
	if opts.StripRuntimePanic {
		patterns = append(patterns, panicPatterns...)
	}
	for _, source := range opts.Patterns {
		p, err := regexp.Compile(source)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return &Snipper{patterns: patterns}, nil
}

// Run rewrites the module and reports whether anything changed.
func (s *Snipper) Run(m *ir.Module) (bool, error) {
	if m.Code == nil || m.Function == nil || len(m.Code.Bodies) == 0 {
		return false, nil
	}

	// Decoding every body up front means malformed code fails before any
	// rewriting happens.
	graph, err := BuildCallGraph(m)
	if err != nil {
		return false, err
	}

	imported := int(graph.Imported)
	changed := false
	stub := func(idx int) {
		body := &m.Code.Bodies[idx]
		if len(body.Locals) == 0 && bytes.Equal(body.Code, stubBody) {
			return
		}
		body.Locals = nil
		body.Code = stubBody
		delete(graph.Edges, uint32(imported+idx))
		changed = true
	}

	if len(s.patterns) > 0 {
		for funcidx, name := range m.FunctionNames() {
			if int(funcidx) >= imported && s.match(name) {
				stub(int(funcidx) - imported)
			}
		}
	}

	live := graph.Reachable()
	for idx := range m.Code.Bodies {
		if !live.Test(uint(imported + idx)) {
			stub(idx)
		}
	}

	if changed {
		m.Touch(m.Code)
	}
	return changed, nil
}

func (s *Snipper) match(name string) bool {
	for _, p := range s.patterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}
