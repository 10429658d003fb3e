// Package trampoline implements the closed Native Trampoline Table: a
// fixed catalog of host-callable functions, each identified by a
// canonical Java method descriptor or VM-internal name, with a
// signature expressed in the {void, int, double, ptr} type language.
package trampoline

import "github.com/loojk2008/ferrugo/heap"

// Code is one of the four types a trampoline's signature may use.
type Code int

const (
	Void Code = iota
	Int
	Double
	Ptr
)

func (c Code) String() string {
	switch c {
	case Void:
		return "void"
	case Int:
		return "int"
	case Double:
		return "double"
	case Ptr:
		return "ptr"
	default:
		return "?"
	}
}

// Signature is a trampoline's declared (ret, params) shape. Every
// trampoline's first parameter is a ptr to the RuntimeEnvironment;
// instance methods take the receiver as the second — that invariant
// is encoded in the catalog entries in table.go, not enforced by this
// type.
type Signature struct {
	Ret    Code
	Params []Code
}

// Value is a tagged union carrying one argument or return value across
// the trampoline boundary. A JIT would pass these in registers typed
// per the declared signature; here they cross as a small Go value.
type Value struct {
	code Code
	i    int32
	d    float64
	p    heap.Addr
}

func VInt(v int32) Value      { return Value{code: Int, i: v} }
func VDouble(v float64) Value { return Value{code: Double, d: v} }
func VPtr(a heap.Addr) Value  { return Value{code: Ptr, p: a} }
func VVoid() Value            { return Value{code: Void} }

// Code reports which field of Value is meaningful.
func (v Value) Code() Code { return v.code }

func (v Value) Int() int32     { return v.i }
func (v Value) Double() float64 { return v.d }
func (v Value) Ptr() heap.Addr { return v.p }
