package trampoline

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strconv"

	"github.com/loojk2008/ferrugo/heap"
)

// ErrUnresolvedSymbol is returned when linking or calling a name
// outside the closed catalog, naming the missing symbol.
var ErrUnresolvedSymbol = errors.New("ferrugo: unresolved native symbol")

// ErrNullPointer is returned by trampolines that dereference a null
// receiver or argument, since Go has no addressable null-pointer fault
// to fall back on.
var ErrNullPointer = errors.New("NullPointerException")

// Func is the Go realization of a trampoline body. env is always the
// RuntimeEnvironment, passed separately rather than as args[0]: args
// holds exactly the declared Params with that leading env ptr dropped,
// so an instance method's receiver is args[0] like any other parameter.
type Func func(env *heap.RuntimeEnvironment, args []Value) (Value, error)

type catalogEntry struct {
	sig Signature
	fn  Func
}

// Table is the Native Trampoline Table: a closed, name-keyed catalog
// of (signature, implementation) pairs.
type Table struct {
	entries map[string]catalogEntry
}

// Deps bundles the collaborators the builtin trampolines need: the
// object heap for string/instance/array access, an output sink for
// PrintStream, and a PRNG for Math.random.
type Deps struct {
	ObjectHeap *heap.ObjectHeap
	Out        io.Writer
	Rand       *rand.Rand
}

// NewTable builds the closed native trampoline catalog, bound to deps.
func NewTable(deps Deps) *Table {
	t := &Table{entries: make(map[string]catalogEntry)}
	registerBuiltins(t, deps)
	return t
}

func (t *Table) define(name string, sig Signature, fn Func) {
	t.entries[name] = catalogEntry{sig: sig, fn: fn}
}

// Signature returns the declared (ret, params) shape for name.
func (t *Table) Signature(name string) (Signature, bool) {
	e, ok := t.entries[name]
	return e.sig, ok
}

// Names lists every symbolic name in the catalog.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.entries))
	for n := range t.entries {
		names = append(names, n)
	}
	return names
}

// Call invokes the trampoline named name. Calling a name outside the
// catalog is ErrUnresolvedSymbol; jit.Linker enforces the same check
// at link time, before a compiled method is ever allowed to call
// through.
func (t *Table) Call(name string, env *heap.RuntimeEnvironment, args []Value) (Value, error) {
	e, ok := t.entries[name]
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrUnresolvedSymbol, name)
	}
	return e.fn(env, args)
}

func registerBuiltins(t *Table, d Deps) {
	oh := d.ObjectHeap

	t.define("java/io/PrintStream.println:(I)V",
		Signature{Ret: Void, Params: []Code{Ptr, Ptr, Int}},
		func(_ *heap.RuntimeEnvironment, args []Value) (Value, error) {
			fmt.Fprintln(d.Out, args[1].Int())
			return VVoid(), nil
		})

	t.define("java/io/PrintStream.println:(Ljava/lang/String;)V",
		Signature{Ret: Void, Params: []Code{Ptr, Ptr, Ptr}},
		func(_ *heap.RuntimeEnvironment, args []Value) (Value, error) {
			s, err := stringArg(oh, args[1])
			if err != nil {
				return Value{}, err
			}
			fmt.Fprintln(d.Out, s)
			return VVoid(), nil
		})

	t.define("java/io/PrintStream.print:(Ljava/lang/String;)V",
		Signature{Ret: Void, Params: []Code{Ptr, Ptr, Ptr}},
		func(_ *heap.RuntimeEnvironment, args []Value) (Value, error) {
			s, err := stringArg(oh, args[1])
			if err != nil {
				return Value{}, err
			}
			fmt.Fprint(d.Out, s)
			return VVoid(), nil
		})

	t.define("java/lang/StringBuilder.append:(I)Ljava/lang/StringBuilder;",
		Signature{Ret: Ptr, Params: []Code{Ptr, Ptr, Int}},
		func(_ *heap.RuntimeEnvironment, args []Value) (Value, error) {
			sb := args[0].Ptr()
			if err := appendToBuilder(oh, sb, strconv.FormatInt(int64(args[1].Int()), 10)); err != nil {
				return Value{}, err
			}
			return VPtr(sb), nil
		})

	t.define("java/lang/StringBuilder.append:(Ljava/lang/String;)Ljava/lang/StringBuilder;",
		Signature{Ret: Ptr, Params: []Code{Ptr, Ptr, Ptr}},
		func(_ *heap.RuntimeEnvironment, args []Value) (Value, error) {
			sb := args[0].Ptr()
			s := "null"
			if args[1].Ptr() != 0 {
				if decoded, ok := oh.StringValue(args[1].Ptr()); ok {
					s = decoded
				}
			}
			if err := appendToBuilder(oh, sb, s); err != nil {
				return Value{}, err
			}
			return VPtr(sb), nil
		})

	t.define("java/lang/StringBuilder.toString:()Ljava/lang/String;",
		Signature{Ret: Ptr, Params: []Code{Ptr, Ptr}},
		func(_ *heap.RuntimeEnvironment, args []Value) (Value, error) {
			inst, ok := oh.Instance(args[0].Ptr())
			if !ok {
				return Value{}, fmt.Errorf("%w: toString on non-instance", ErrNullPointer)
			}
			return VPtr(heap.Addr(inst.Slots[0])), nil
		})

	t.define("java/lang/Math.random:()D",
		Signature{Ret: Double, Params: []Code{Ptr}},
		func(_ *heap.RuntimeEnvironment, _ []Value) (Value, error) {
			return VDouble(d.Rand.Float64()), nil
		})

	for name, fn := range map[string]func(float64) float64{
		"java/lang/Math.sqrt:(D)D": math.Sqrt,
		"java/lang/Math.sin:(D)D":  math.Sin,
		"java/lang/Math.cos:(D)D":  math.Cos,
		"java/lang/Math.tan:(D)D":  math.Tan,
		"java/lang/Math.abs:(D)D":  math.Abs,
	} {
		fn := fn
		t.define(name, Signature{Ret: Double, Params: []Code{Ptr, Double}},
			func(_ *heap.RuntimeEnvironment, args []Value) (Value, error) {
				return VDouble(fn(args[0].Double())), nil
			})
	}

	t.define("java/lang/Math.pow:(DD)D",
		Signature{Ret: Double, Params: []Code{Ptr, Double, Double}},
		func(_ *heap.RuntimeEnvironment, args []Value) (Value, error) {
			return VDouble(math.Pow(args[0].Double(), args[1].Double())), nil
		})

	t.define("ferrugo_internal_new",
		Signature{Ret: Ptr, Params: []Code{Ptr, Ptr}},
		func(_ *heap.RuntimeEnvironment, args []Value) (Value, error) {
			classAddr := args[0].Ptr()
			addr, _, ok := oh.NewInstanceForClass(classAddr)
			if !ok {
				return Value{}, fmt.Errorf("%w: ferrugo_internal_new on unknown class", ErrNullPointer)
			}
			return VPtr(addr), nil
		})

	t.define("ferrugo_internal_baload",
		Signature{Ret: Int, Params: []Code{Ptr, Ptr, Int}},
		func(_ *heap.RuntimeEnvironment, args []Value) (Value, error) {
			arr, ok := oh.Array(args[0].Ptr())
			if !ok {
				return Value{}, fmt.Errorf("%w: baload on null array", ErrNullPointer)
			}
			return VInt(arr.GetByte(args[1].Int())), nil
		})

	t.define("ferrugo_internal_aaload",
		Signature{Ret: Ptr, Params: []Code{Ptr, Ptr, Int}},
		func(_ *heap.RuntimeEnvironment, args []Value) (Value, error) {
			arr, ok := oh.Array(args[0].Ptr())
			if !ok {
				return Value{}, fmt.Errorf("%w: aaload on null array", ErrNullPointer)
			}
			return VPtr(heap.Addr(arr.GetRef(args[1].Int()))), nil
		})

	t.define("ferrugo_internal_bastore",
		Signature{Ret: Void, Params: []Code{Ptr, Ptr, Int, Int}},
		func(_ *heap.RuntimeEnvironment, args []Value) (Value, error) {
			arr, ok := oh.Array(args[0].Ptr())
			if !ok {
				return Value{}, fmt.Errorf("%w: bastore on null array", ErrNullPointer)
			}
			arr.SetByte(args[1].Int(), args[2].Int())
			return VVoid(), nil
		})
}

func stringArg(oh *heap.ObjectHeap, v Value) (string, error) {
	if v.Ptr() == 0 {
		return "", fmt.Errorf("%w: println/print on null String", ErrNullPointer)
	}
	s, ok := oh.StringValue(v.Ptr())
	if !ok {
		return "", fmt.Errorf("%w: argument is not a String instance", ErrNullPointer)
	}
	return s, nil
}

// appendToBuilder implements the lazy-initialization contract shared
// by both append overloads: a builder reaching the trampoline with
// slot 0 still at the null slot word (because invokespecial on
// java/lang/StringBuilder's constructor is not run by the JIT) gets an
// empty string interned into slot 0 before the real append.
func appendToBuilder(oh *heap.ObjectHeap, sb heap.Addr, suffix string) error {
	inst, ok := oh.Instance(sb)
	if !ok {
		return fmt.Errorf("%w: append on null StringBuilder", ErrNullPointer)
	}
	if inst.Slots[0] == 0 {
		inst.Slots[0] = int64(oh.InternString(""))
	}
	current, _ := oh.StringValue(heap.Addr(inst.Slots[0]))
	inst.Slots[0] = int64(oh.InternString(current + suffix))
	return nil
}
