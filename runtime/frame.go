package runtime

import (
	"github.com/loojk2008/ferrugo/classfile"
	"github.com/loojk2008/ferrugo/heap"
)

// Frame represents a stack frame for method execution. Its local
// variables and operand stack are both raw slot words: a non-zero
// word may be a heap.Addr depending on static type the frame's own
// bookkeeping does not track, so gc.FrameRoot always offers every
// slot to the tracer rather than a type-filtered subset.
type Frame struct {
	Locals       LocalVars
	OperandStack *OperandStack
	Thread       *Thread
	Method       *classfile.MethodInfo
	Class        *classfile.ClassFile
	ClassAddr    heap.Addr // the owning heap.Class's registry address; a GC root
	PC           int
	Code         []byte
}

// NewFrame creates a new stack frame for method on class, owned by
// thread. classAddr is the heap address of that class's heap.Class
// record, supplied by the caller (typically via JVM.World.ClassHeap.Lookup)
// so this package does not need to depend on class loading policy.
func NewFrame(thread *Thread, method *classfile.MethodInfo, class *classfile.ClassFile, classAddr heap.Addr) *Frame {
	code := method.GetCodeAttribute(class.ConstantPool)
	if code == nil {
		return nil
	}

	return &Frame{
		Locals:       make(LocalVars, code.MaxLocals),
		OperandStack: NewOperandStack(int(code.MaxStack)),
		Thread:       thread,
		Method:       method,
		Class:        class,
		ClassAddr:    classAddr,
		PC:           0,
		Code:         code.Code,
	}
}

func (f *Frame) NextPC() int      { return f.PC }
func (f *Frame) SetNextPC(pc int) { f.PC = pc }

func (f *Frame) ReadU1() uint8 {
	code := f.Code[f.PC]
	f.PC++
	return code
}

func (f *Frame) ReadI1() int8 { return int8(f.ReadU1()) }

func (f *Frame) ReadU2() uint16 {
	high := uint16(f.ReadU1())
	low := uint16(f.ReadU1())
	return high<<8 | low
}

func (f *Frame) ReadI2() int16 { return int16(f.ReadU2()) }

func (f *Frame) ReadI4() int32 {
	b1 := int32(f.ReadU1())
	b2 := int32(f.ReadU1())
	b3 := int32(f.ReadU1())
	b4 := int32(f.ReadU1())
	return b1<<24 | b2<<16 | b3<<8 | b4
}

// LocalVars is a frame's local variable array: raw slot words.
type LocalVars []int64

func (l LocalVars) SetInt(index int, val int32)   { l[index] = int64(val) }
func (l LocalVars) GetInt(index int) int32        { return int32(l[index]) }
func (l LocalVars) SetLong(index int, val int64)  { l[index] = val }
func (l LocalVars) GetLong(index int) int64       { return l[index] }
func (l LocalVars) SetRef(index int, val heap.Addr) { l[index] = int64(val) }
func (l LocalVars) GetRef(index int) heap.Addr      { return heap.Addr(l[index]) }

// Addrs returns every local slot reinterpreted as a candidate address,
// for gc.FrameRoot.Locals. Slots that hold an int or a long are harmless
// to offer here: the registry lookup in gc.Engine's tracer rejects
// anything that isn't a live entry.
func (l LocalVars) Addrs() []heap.Addr {
	out := make([]heap.Addr, len(l))
	for i, v := range l {
		out[i] = heap.Addr(v)
	}
	return out
}

// OperandStack is a frame's JVM operand stack: raw slot words, plus a
// size cursor. There is no parallel reference array — slot words are
// used uniformly for ints, longs, and addresses.
type OperandStack struct {
	size  int
	slots []int64
}

// NewOperandStack creates an operand stack sized for maxSize slots.
func NewOperandStack(maxSize int) *OperandStack {
	if maxSize < 1 {
		maxSize = 1
	}
	return &OperandStack{slots: make([]int64, maxSize)}
}

func (s *OperandStack) PushInt(val int32) {
	s.slots[s.size] = int64(val)
	s.size++
}

func (s *OperandStack) PopInt() int32 {
	s.size--
	return int32(s.slots[s.size])
}

func (s *OperandStack) PushLong(val int64) {
	s.slots[s.size] = val
	s.size++
}

func (s *OperandStack) PopLong() int64 {
	s.size--
	return s.slots[s.size]
}

func (s *OperandStack) PushRef(addr heap.Addr) {
	s.slots[s.size] = int64(addr)
	s.size++
}

func (s *OperandStack) PopRef() heap.Addr {
	s.size--
	v := s.slots[s.size]
	s.slots[s.size] = 0
	return heap.Addr(v)
}

func (s *OperandStack) PushSlot(val int64) {
	s.slots[s.size] = val
	s.size++
}

func (s *OperandStack) PopSlot() int64 {
	s.size--
	return s.slots[s.size]
}

func (s *OperandStack) TopInt() int32 { return int32(s.slots[s.size-1]) }
func (s *OperandStack) Size() int     { return s.size }
func (s *OperandStack) IsEmpty() bool { return s.size == 0 }
func (s *OperandStack) Clear()        { s.size = 0 }

// Addrs returns every occupied slot reinterpreted as a candidate
// address, feeding gc.RootProvider.OperandStack.
func (s *OperandStack) Addrs() []heap.Addr {
	out := make([]heap.Addr, s.size)
	for i := 0; i < s.size; i++ {
		out[i] = heap.Addr(s.slots[i])
	}
	return out
}
