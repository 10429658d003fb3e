package heap

const (
	accStatic = 0x0008
)

const (
	classString        = "java/lang/String"
	classStringBuilder = "java/lang/StringBuilder"
)

// ObjectHeap is the allocation facade for Instance and Array objects.
// It is the only legitimate allocator of those kinds: generated code
// reaches it exclusively through the ferrugo_internal_new trampoline
// (for instances) and the array-creation opcodes the interpreter
// lowers to NewPrimitiveArray/NewReferenceArray.
type ObjectHeap struct {
	registry   *Registry
	classHeap  *ClassHeap
	internPool map[string]Addr
}

// NewObjectHeap creates an object heap bound to registry and classHeap.
func NewObjectHeap(registry *Registry, classHeap *ClassHeap) *ObjectHeap {
	return &ObjectHeap{
		registry:   registry,
		classHeap:  classHeap,
		internPool: make(map[string]Addr),
	}
}

// Outgoing implements Tracer: the object heap's own contents are
// reached through other roots (the operand stack, locals, static
// variables that hold them), so it has no outgoing edges of its own.
func (o *ObjectHeap) Outgoing() []Addr { return nil }

// NewInstance allocates an uninitialized instance of classAddr with
// numSlots slot words, all zero (null/zero-valued).
func (o *ObjectHeap) NewInstance(classAddr Addr, numSlots int) (Addr, *Instance) {
	inst := &Instance{Class: classAddr, Slots: make([]int64, numSlots)}
	addr := o.registry.Register(instanceSize(inst), KindInstance, inst)
	return addr, inst
}

// NewInstanceForClass is what ferrugo_internal_new calls: it resolves
// classAddr to its *Class, counts non-static fields (synthetic classes
// with no backing file default to a single slot, matching the one
// boxed value every bootstrap class in this VM carries), and allocates
// an instance sized for them.
func (o *ObjectHeap) NewInstanceForClass(classAddr Addr) (Addr, *Instance, bool) {
	e, ok := o.registry.Get(classAddr)
	if !ok {
		return 0, nil, false
	}
	class, ok := e.Value.(*Class)
	if !ok {
		return 0, nil, false
	}
	numSlots := 1
	if class.File != nil {
		numSlots = 0
		for _, f := range class.File.Fields {
			if f.AccessFlags&accStatic == 0 {
				numSlots++
			}
		}
	}
	addr, inst := o.NewInstance(classAddr, numSlots)
	return addr, inst, true
}

// NewPrimitiveArray allocates a primitive array of length elements.
func (o *ObjectHeap) NewPrimitiveArray(elem ElemKind, length int32) (Addr, *Array) {
	arr := NewPrimitiveArrayValue(elem, length)
	addr := o.registry.Register(arraySize(arr), KindArray, arr)
	return addr, arr
}

// NewReferenceArray allocates a reference array of length elements,
// each initialized to the null slot word.
func (o *ObjectHeap) NewReferenceArray(className string, length int32) (Addr, *Array) {
	arr := NewReferenceArrayValue(className, length)
	addr := o.registry.Register(arraySize(arr), KindArray, arr)
	return addr, arr
}

// InternString returns the canonical String instance for s, allocating
// one (backed by a byte array holding its UTF-8 payload in slot 0,
// per the String layout used throughout the trampoline table) the
// first time s is seen.
func (o *ObjectHeap) InternString(s string) Addr {
	if addr, ok := o.internPool[s]; ok {
		return addr
	}

	payload := []byte(s)
	arrAddr, arr := o.NewPrimitiveArray(ElemByte, int32(len(payload)))
	for i, b := range payload {
		arr.Ints[i] = int32(b)
	}

	classAddr := o.classHeap.EnsureSynthetic(classString)
	instAddr, inst := o.NewInstance(classAddr, 1)
	inst.Slots[0] = int64(arrAddr)

	o.internPool[s] = instAddr
	return instAddr
}

// InternConstantPoolUtf8 materializes the UTF8 constant pool entry at
// index of class's backing class file as an interned String instance,
// and records the resulting address on the constant pool entry itself
// (via SetInternedAddr) so heap.Class.Outgoing can trace it on every
// later GC cycle without re-interning. Returns 0 if class has no
// backing class file (a synthetic bootstrap class).
func (o *ObjectHeap) InternConstantPoolUtf8(class *Class, index uint16) Addr {
	if class.File == nil {
		return 0
	}
	addr := o.InternString(class.File.ConstantPool.GetUtf8(index))
	class.File.ConstantPool.SetInternedAddr(index, uint64(addr))
	return addr
}

// StringValue decodes the character payload of the String instance at
// addr, returning ok=false if addr is not a well-formed String.
func (o *ObjectHeap) StringValue(addr Addr) (string, bool) {
	e, ok := o.registry.Get(addr)
	if !ok {
		return "", false
	}
	inst, ok := e.Value.(*Instance)
	if !ok || len(inst.Slots) == 0 {
		return "", false
	}
	arrEntry, ok := o.registry.Get(Addr(inst.Slots[0]))
	if !ok {
		return "", false
	}
	arr, ok := arrEntry.Value.(*Array)
	if !ok {
		return "", false
	}
	buf := make([]byte, len(arr.Ints))
	for i, v := range arr.Ints {
		buf[i] = byte(v)
	}
	return string(buf), true
}

// NewStringBuilder allocates an uninitialized StringBuilder instance:
// slot 0 (the backing String) starts at the null slot word, since
// invokespecial for library constructors is not implemented, so the
// builder arrives without a constructor run. The first append()
// lazily interns an empty string into slot 0.
func (o *ObjectHeap) NewStringBuilder() Addr {
	classAddr := o.classHeap.EnsureSynthetic(classStringBuilder)
	addr, _ := o.NewInstance(classAddr, 1)
	return addr
}

// Instance resolves addr to its *Instance, if that is what addr names.
func (o *ObjectHeap) Instance(addr Addr) (*Instance, bool) {
	e, ok := o.registry.Get(addr)
	if !ok {
		return nil, false
	}
	inst, ok := e.Value.(*Instance)
	return inst, ok
}

// Array resolves addr to its *Array, if that is what addr names.
func (o *ObjectHeap) Array(addr Addr) (*Array, bool) {
	e, ok := o.registry.Get(addr)
	if !ok {
		return nil, false
	}
	arr, ok := e.Value.(*Array)
	return arr, ok
}
