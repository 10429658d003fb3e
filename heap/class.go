package heap

import "github.com/loojk2008/ferrugo/classfile"

// Class holds the metadata the GC and the runtime both need: constant
// pool, method table, and the static-variable slot map. File is nil
// for synthetic bootstrap classes (java/lang/String and
// java/lang/StringBuilder, which the trampoline table needs before any
// real class file has been loaded).
type Class struct {
	Name            string
	File            *classfile.ClassFile
	StaticVariables map[string]int64
}

// NewClass wraps a parsed class file with an empty static-variable map.
func NewClass(name string, file *classfile.ClassFile) *Class {
	return &Class{Name: name, File: file, StaticVariables: make(map[string]int64)}
}

// Outgoing implements Tracer: every static variable slot, plus every
// already-materialized interned string referenced from the constant
// pool's UTF8 entries.
func (c *Class) Outgoing() []Addr {
	out := make([]Addr, 0, len(c.StaticVariables))
	for _, v := range c.StaticVariables {
		out = append(out, Addr(v))
	}
	if c.File != nil {
		for _, a := range c.File.ConstantPool.InternedAddrs() {
			out = append(out, Addr(a))
		}
	}
	return out
}

// ClassHeap maps internal class names to Class addresses. It is
// itself a heap-registered root (see Outgoing) and owns the registry
// handle needed to register classes it defines.
type ClassHeap struct {
	registry *Registry
	names    map[string]Addr
}

// NewClassHeap creates an empty class heap bound to registry.
func NewClassHeap(registry *Registry) *ClassHeap {
	return &ClassHeap{registry: registry, names: make(map[string]Addr)}
}

// Define registers class under name and returns its address. Defining
// the same name twice replaces the mapping (class redefinition is not
// otherwise guarded against — that is class-loader policy, out of
// scope here).
func (ch *ClassHeap) Define(name string, class *Class) Addr {
	addr := ch.registry.Register(classSize(class), KindClass, class)
	ch.names[name] = addr
	return addr
}

// Lookup resolves a class name to its address.
func (ch *ClassHeap) Lookup(name string) (Addr, bool) {
	addr, ok := ch.names[name]
	return addr, ok
}

// EnsureSynthetic returns the address of name, defining a bare
// (fieldless, methodless) Class for it on first use. This is how the
// trampoline table bootstraps java/lang/String and
// java/lang/StringBuilder without a real class file.
func (ch *ClassHeap) EnsureSynthetic(name string) Addr {
	if addr, ok := ch.Lookup(name); ok {
		return addr
	}
	return ch.Define(name, &Class{Name: name, StaticVariables: make(map[string]int64)})
}

// Names lists every class name currently registered.
func (ch *ClassHeap) Names() []string {
	names := make([]string, 0, len(ch.names))
	for n := range ch.names {
		names = append(names, n)
	}
	return names
}

// Outgoing implements Tracer: every class this heap knows about.
func (ch *ClassHeap) Outgoing() []Addr {
	out := make([]Addr, 0, len(ch.names))
	for _, a := range ch.names {
		out = append(out, a)
	}
	return out
}

func classSize(c *Class) int64 {
	size := int64(48)
	size += int64(len(c.StaticVariables)) * 16
	return size
}
