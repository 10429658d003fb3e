// Package jit implements the declare+link contract between compiled
// methods and the native trampoline catalog: a code generator declares
// which native symbols a compiled method needs, and a linker resolves
// those declarations against the Native Trampoline Table before the
// compiled method is allowed to run.
//
// The actual native-code emission this package's CodeGenerator stands
// in front of is an external collaborator; no LLVM or assembler
// bindings are wired here — see DESIGN.md.
package jit

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/loojk2008/ferrugo/trampoline"
	"go.uber.org/zap"
)

// Declaration is one symbol a compiled method's code generator has
// committed to calling, together with the signature it was compiled
// against.
type Declaration struct {
	Name string
	Sig  trampoline.Signature
}

// CodeGenerator accumulates the native symbols one compiled method
// references. A method may declare the same symbol more than once
// (e.g. two println calls); redeclaring it with a different signature
// is a compile-time bug and rejected immediately rather than deferred
// to link time.
type CodeGenerator struct {
	method string
	decls  map[string]trampoline.Signature
	order  []string
}

// NewCodeGenerator starts a fresh declaration set for the method named
// method (a "Class.method:descriptor" string used only for logging).
func NewCodeGenerator(method string) *CodeGenerator {
	return &CodeGenerator{method: method, decls: make(map[string]trampoline.Signature)}
}

// Declare records that the compiled method calls name with sig.
func (g *CodeGenerator) Declare(name string, sig trampoline.Signature) error {
	if existing, ok := g.decls[name]; ok {
		if !sameSignature(existing, sig) {
			return fmt.Errorf("jit: %s declares %s with two different signatures", g.method, name)
		}
		return nil
	}
	g.decls[name] = sig
	g.order = append(g.order, name)
	return nil
}

// Declarations returns every symbol declared so far, in declaration order.
func (g *CodeGenerator) Declarations() []Declaration {
	out := make([]Declaration, 0, len(g.order))
	for _, name := range g.order {
		out = append(out, Declaration{Name: name, Sig: g.decls[name]})
	}
	return out
}

func sameSignature(a, b trampoline.Signature) bool {
	if a.Ret != b.Ret || len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if a.Params[i] != b.Params[i] {
			return false
		}
	}
	return true
}

// SymbolTable is the result of a successful link: every declared
// symbol, verified present in the catalog with a matching signature.
// The compiled method calls through it by name rather than by a real
// machine address, since this VM has no native code emitter behind
// the JIT/Runtime Interface (see package doc).
type SymbolTable struct {
	bindings map[string]Declaration
}

// Resolve looks up a linked symbol. It only ever returns entries this
// SymbolTable's Linker already verified, so callers do not need to
// re-check the catalog.
func (st *SymbolTable) Resolve(name string) (Declaration, bool) {
	d, ok := st.bindings[name]
	return d, ok
}

// Linker resolves a CodeGenerator's declarations against a
// trampoline.Table, failing closed on the first unresolved or
// mismatched symbol: the error names exactly which symbol was missing
// or mismatched.
type Linker struct {
	table  *trampoline.Table
	logger *zap.Logger
}

// NewLinker binds a linker to the trampoline catalog it resolves
// against, logging each link attempt through logger.
func NewLinker(table *trampoline.Table, logger *zap.Logger) *Linker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Linker{table: table, logger: logger}
}

// Link resolves every declaration gen recorded. All declarations
// either resolve together or the whole link fails; there is no
// partially-linked SymbolTable.
func (l *Linker) Link(gen *CodeGenerator) (*SymbolTable, error) {
	linkID := uuid.New()
	bindings := make(map[string]Declaration, len(gen.order))

	for _, decl := range gen.Declarations() {
		catalogSig, ok := l.table.Signature(decl.Name)
		if !ok {
			l.logger.Warn("jit link failed: unresolved symbol",
				zap.String("link_id", linkID.String()),
				zap.String("method", gen.method),
				zap.String("symbol", decl.Name),
			)
			return nil, fmt.Errorf("%w: %s (referenced by %s)", trampoline.ErrUnresolvedSymbol, decl.Name, gen.method)
		}
		if !sameSignature(catalogSig, decl.Sig) {
			l.logger.Warn("jit link failed: signature mismatch",
				zap.String("link_id", linkID.String()),
				zap.String("method", gen.method),
				zap.String("symbol", decl.Name),
			)
			return nil, fmt.Errorf("jit: %s: declared signature for %s does not match catalog", gen.method, decl.Name)
		}
		bindings[decl.Name] = Declaration{Name: decl.Name, Sig: catalogSig}
	}

	l.logger.Info("jit link ok",
		zap.String("link_id", linkID.String()),
		zap.String("method", gen.method),
		zap.Int("symbols", len(bindings)),
	)
	return &SymbolTable{bindings: bindings}, nil
}
