package heap

// Instance is a JVM object: an owning class pointer plus an ordered
// sequence of slot words. A slot word is a pointer-sized integer; zero
// is null, non-zero may be an Addr depending on the static type the
// owning class declares for that slot — but the tracer (see Outgoing)
// does not need that static type, because it conservatively treats
// every slot as a candidate address and lets the registry lookup
// decide whether it is foreign.
type Instance struct {
	Class Addr // the Class this is an instance of
	Slots []int64
}

// Outgoing implements Tracer: trace the owning class, then every slot.
func (o *Instance) Outgoing() []Addr {
	out := make([]Addr, 0, len(o.Slots)+1)
	out = append(out, o.Class)
	for _, s := range o.Slots {
		out = append(out, Addr(s))
	}
	return out
}

// ElemKind distinguishes a primitive array's element type. Values
// match the JVM's `newarray` atype codes so a class-file front end can
// pass them through unchanged.
type ElemKind int

const (
	ElemBoolean ElemKind = 4
	ElemChar    ElemKind = 5
	ElemFloat   ElemKind = 6
	ElemDouble  ElemKind = 7
	ElemByte    ElemKind = 8
	ElemShort   ElemKind = 9
	ElemInt     ElemKind = 10
	ElemLong    ElemKind = 11
	// elemRef is the zero Elem value a reference array carries; it is
	// never handed out to callers as an ElemKind value. Array.IsRef
	// tests Refs, not Elem.
	elemRef ElemKind = 0
)

// Array is a JVM array: an element-type tag (primitive code or class
// reference), element width implied by the backing slice, a length,
// and a contiguous payload.
type Array struct {
	Elem      ElemKind // zero value (elemRef) for reference arrays
	ClassName string   // element class name, set only for reference arrays
	Length    int32

	Ints    []int32   // boolean/byte/char/short/int
	Longs   []int64   // long
	Floats  []float32 // float
	Doubles []float64 // double
	Refs    []int64   // reference arrays: each slot is an Addr word
}

// NewPrimitiveArrayValue builds the payload for a primitive array; it
// does not register anything, letting ObjectHeap own allocation.
func NewPrimitiveArrayValue(elem ElemKind, length int32) *Array {
	a := &Array{Elem: elem, Length: length}
	switch elem {
	case ElemBoolean, ElemByte, ElemChar, ElemShort, ElemInt:
		a.Ints = make([]int32, length)
	case ElemLong:
		a.Longs = make([]int64, length)
	case ElemFloat:
		a.Floats = make([]float32, length)
	case ElemDouble:
		a.Doubles = make([]float64, length)
	}
	return a
}

// NewReferenceArrayValue builds the payload for a reference array.
func NewReferenceArrayValue(className string, length int32) *Array {
	return &Array{ClassName: className, Length: length, Refs: make([]int64, length)}
}

// IsRef reports whether this is a reference array.
func (a *Array) IsRef() bool { return a.Refs != nil }

// Outgoing implements Tracer: reference arrays trace every element;
// primitive arrays have no outgoing edges.
func (a *Array) Outgoing() []Addr {
	if !a.IsRef() {
		return nil
	}
	out := make([]Addr, len(a.Refs))
	for i, r := range a.Refs {
		out[i] = Addr(r)
	}
	return out
}

// GetByte/SetByte back ferrugo_internal_baload/bastore: byte element
// access widened to int32 on load, narrowed to a byte on store.
func (a *Array) GetByte(index int32) int32   { return a.Ints[index] & 0xFF }
func (a *Array) SetByte(index int32, v int32) { a.Ints[index] = v & 0xFF }

func (a *Array) GetRef(index int32) int64     { return a.Refs[index] }
func (a *Array) SetRef(index int32, v int64)  { a.Refs[index] = v }
