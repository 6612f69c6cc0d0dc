// Package irwriter is a small textual LLVM IR builder (spec §4.8: emit
// LLVM IR as text rather than linking an LLVM C API binding). It knows
// nothing about ARC IR or Ori's type system -- internal/llvm is the
// layer that decides what text to hand it. The shape mirrors the
// teacher's habit of building output through small incremental
// appenders rather than a template engine (sunholo-data-ailang has no
// direct analogue here since it never emits code; this package is
// grounded in spec §4.8's "declare-all then define-all" structure and
// in ordinary textual-IR-builder practice).
package irwriter

import (
	"fmt"
	"sort"
	"strings"
)

// Module is an in-memory LLVM IR module, rendered on demand to the
// textual `.ll` format.
type Module struct {
	Name string

	structs    []string
	structSeen map[string]bool
	externs    []string
	externSeen map[string]bool
	globals    []string
	globalSeen map[string]bool
	funcs      []*Function
}

func NewModule(name string) *Module {
	return &Module{
		Name:       name,
		structSeen: make(map[string]bool),
		externSeen: make(map[string]bool),
		globalSeen: make(map[string]bool),
	}
}

// DeclareStruct registers a `%Name = type { ... }` line, keyed by name so
// that lowering multiple functions over the same struct only emits the
// decl once.
func (m *Module) DeclareStruct(name, line string) {
	if m.structSeen[name] {
		return
	}
	m.structSeen[name] = true
	m.structs = append(m.structs, line)
}

// DeclareExtern registers a `declare` line for a runtime symbol, keyed by
// symbol name (idempotent: every caller that needs ori_rc_dec can declare
// it without checking who got there first).
func (m *Module) DeclareExtern(symbol, line string) {
	if m.externSeen[symbol] {
		return
	}
	m.externSeen[symbol] = true
	m.externs = append(m.externs, line)
}

// DeclareGlobal registers a private global constant line, keyed by its
// name (e.g. string literal backing data).
func (m *Module) DeclareGlobal(name, line string) {
	if m.globalSeen[name] {
		return
	}
	m.globalSeen[name] = true
	m.globals = append(m.globals, line)
}

func (m *Module) NewFunction(name string) *Function {
	f := &Function{Name: name}
	m.funcs = append(m.funcs, f)
	return f
}

// String renders the module, struct decls and externs sorted for
// determinism (two builds of the same module text-diff cleanly).
func (m *Module) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "; ModuleID = '%s'\n\n", m.Name)

	if len(m.structs) > 0 {
		decls := append([]string(nil), m.structs...)
		sort.Strings(decls)
		for _, d := range decls {
			fmt.Fprintln(&b, d)
		}
		b.WriteByte('\n')
	}

	if len(m.globals) > 0 {
		decls := append([]string(nil), m.globals...)
		sort.Strings(decls)
		for _, d := range decls {
			fmt.Fprintln(&b, d)
		}
		b.WriteByte('\n')
	}

	if len(m.externs) > 0 {
		decls := append([]string(nil), m.externs...)
		sort.Strings(decls)
		for _, d := range decls {
			fmt.Fprintln(&b, d)
		}
		b.WriteByte('\n')
	}

	for _, f := range m.funcs {
		b.WriteString(f.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Function is one LLVM function definition under construction.
type Function struct {
	Name        string
	Signature   string // "define <ret> @name(<params>)" header, no trailing brace/personality
	Personality string // optional "personality ptr @symbol", set when the function contains an invoke

	blocks []*block
	cur    *block
}

type block struct {
	label string
	lines []string
}

func (f *Function) SetSignature(sig string) { f.Signature = sig }

// NewBlock opens a new labeled block and makes it current. Blocks need
// not correspond 1:1 with ArcBlocks -- instruction-level expansions
// (Reset/Reuse) open extra sub-blocks inline and leave f "parked" in the
// resulting join block, so that whatever the caller emits next lands in
// the right place.
func (f *Function) NewBlock(label string) {
	b := &block{label: label}
	f.blocks = append(f.blocks, b)
	f.cur = b
}

// CurrentLabel returns the label of the block currently being appended to.
func (f *Function) CurrentLabel() string { return f.cur.label }

func (f *Function) Emit(line string) {
	f.cur.lines = append(f.cur.lines, line)
}

func (f *Function) String() string {
	var b strings.Builder
	b.WriteString(f.Signature)
	if f.Personality != "" {
		fmt.Fprintf(&b, " %s", f.Personality)
	}
	b.WriteString(" {\n")
	for _, blk := range f.blocks {
		fmt.Fprintf(&b, "%s:\n", blk.label)
		for _, line := range blk.lines {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}
	b.WriteString("}\n")
	return b.String()
}
