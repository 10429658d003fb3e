package gc

import (
	"bytes"
	"testing"

	"github.com/loojk2008/ferrugo/classfile"
	"github.com/loojk2008/ferrugo/heap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRoots struct {
	env, classHeap, objectHeap heap.Addr
	frames                     []FrameRoot
	operands                   []heap.Addr
}

func (f fakeRoots) RuntimeEnv() heap.Addr     { return f.env }
func (f fakeRoots) ClassHeapAddr() heap.Addr  { return f.classHeap }
func (f fakeRoots) ObjectHeapAddr() heap.Addr { return f.objectHeap }
func (f fakeRoots) Frames() []FrameRoot       { return f.frames }
func (f fakeRoots) OperandStack() []heap.Addr { return f.operands }

type node struct {
	out []heap.Addr
}

func (n *node) Outgoing() []heap.Addr { return n.out }

func TestCollectReclaimsUnreferenced(t *testing.T) {
	registry := heap.NewRegistry()
	registry.Register(16, heap.KindInstance, &node{})

	engine := NewEngine(registry, nil)
	engine.Collect(fakeRoots{})

	assert.EqualValues(t, 0, registry.TotalBytes())
	assert.Equal(t, 0, registry.Count())
	assert.EqualValues(t, 1, engine.Runs())
}

func TestCollectPreservesReachable(t *testing.T) {
	registry := heap.NewRegistry()
	kept := registry.Register(16, heap.KindInstance, &node{})

	engine := NewEngine(registry, nil)
	engine.Collect(fakeRoots{operands: []heap.Addr{kept}})

	_, ok := registry.Get(kept)
	assert.True(t, ok)
	assert.EqualValues(t, 16, registry.TotalBytes())
}

func TestCollectHandlesCycles(t *testing.T) {
	registry := heap.NewRegistry()
	a := &node{}
	b := &node{}
	addrA := registry.Register(16, heap.KindInstance, a)
	addrB := registry.Register(16, heap.KindInstance, b)
	a.out = []heap.Addr{addrB}
	b.out = []heap.Addr{addrA}

	engine := NewEngine(registry, nil)

	require.NotPanics(t, func() {
		engine.Collect(fakeRoots{}) // detached from roots: both must be swept, not loop forever
	})
	assert.EqualValues(t, 0, registry.TotalBytes())
}

func TestCollectTreatsNullAndForeignAsCuts(t *testing.T) {
	registry := heap.NewRegistry()
	kept := registry.Register(16, heap.KindInstance, &node{out: []heap.Addr{0, heap.Addr(99999)}})

	engine := NewEngine(registry, nil)
	require.NotPanics(t, func() {
		engine.Collect(fakeRoots{operands: []heap.Addr{kept}})
	})
	_, ok := registry.Get(kept)
	assert.True(t, ok)
}

func TestCollectPanicsOnUnknownKind(t *testing.T) {
	registry := heap.NewRegistry()
	bad := registry.Register(16, heap.KindUnknown, &node{})

	engine := NewEngine(registry, nil)
	assert.Panics(t, func() {
		engine.Collect(fakeRoots{operands: []heap.Addr{bad}})
	})
}

func TestCollectIfNeededRespectsThresholdAndDisabled(t *testing.T) {
	registry := heap.NewRegistry()
	registry.Register(16, heap.KindInstance, &node{})

	engine := NewEngine(registry, nil)
	engine.SetThreshold(1000)
	assert.False(t, engine.CollectIfNeeded(fakeRoots{}), "below threshold should not collect")

	engine.SetThreshold(1)
	assert.True(t, engine.CollectIfNeeded(fakeRoots{}))

	registry.Register(16, heap.KindInstance, &node{})
	engine.Disable()
	assert.False(t, engine.CollectIfNeeded(fakeRoots{}), "disabled engine must not collect")
}

func TestIdempotentConsecutiveCollects(t *testing.T) {
	registry := heap.NewRegistry()
	kept := registry.Register(16, heap.KindInstance, &node{})

	engine := NewEngine(registry, nil)
	engine.Collect(fakeRoots{operands: []heap.Addr{kept}})
	bytesAfterFirst := registry.TotalBytes()
	engine.Collect(fakeRoots{operands: []heap.Addr{kept}})

	assert.Equal(t, bytesAfterFirst, registry.TotalBytes())
}

func TestInternedConstantPoolStringSurvivesGC(t *testing.T) {
	cf, err := classfile.Parse(minimalClassBytes())
	require.NoError(t, err)

	world := heap.Bootstrap()

	class := heap.NewClass("Demo", cf)
	world.ClassHeap.Define("Demo", class)

	// index 8 ("hello-ferrugo") is interned and recorded on the
	// constant pool entry; index 5 ("run") never is.
	internedAddr := world.ObjectHeap.InternConstantPoolUtf8(class, 8)
	danglingAddr := world.ObjectHeap.InternString("orphan")

	engine := NewEngine(world.Registry, nil)
	engine.Collect(fakeRoots{
		classHeap:  world.ClassHeapAddr,
		objectHeap: world.ObjectHeapAddr,
		env:        world.EnvAddr,
	})

	_, stillLive := world.Registry.Get(internedAddr)
	assert.True(t, stillLive, "a string interned from the constant pool and recorded via SetInternedAddr must survive a cycle")

	s, ok := world.ObjectHeap.StringValue(internedAddr)
	require.True(t, ok)
	assert.Equal(t, "hello-ferrugo", s)

	_, danglingLive := world.Registry.Get(danglingAddr)
	assert.False(t, danglingLive, "a string with no root reaching it must still be swept")
}

// minimalClassBytes builds a tiny but well-formed class file by hand:
// one class "Demo" extending java/lang/Object with a single no-arg
// "run" method whose body is just a bare return, plus an extra UTF8
// constant pool entry ("hello-ferrugo") standing in for a string
// literal a real compiler would emit.
func minimalClassBytes() []byte {
	var buf bytes.Buffer
	u2 := func(v uint16) { buf.WriteByte(byte(v >> 8)); buf.WriteByte(byte(v)) }
	u4 := func(v uint32) {
		buf.WriteByte(byte(v >> 24))
		buf.WriteByte(byte(v >> 16))
		buf.WriteByte(byte(v >> 8))
		buf.WriteByte(byte(v))
	}
	utf8 := func(s string) {
		buf.WriteByte(classfile.CONSTANT_Utf8)
		u2(uint16(len(s)))
		buf.WriteString(s)
	}
	classRef := func(nameIndex uint16) {
		buf.WriteByte(classfile.CONSTANT_Class)
		u2(nameIndex)
	}

	u4(0xCAFEBABE)
	u2(0)  // minor_version
	u2(52) // major_version

	u2(9)                   // constant_pool_count (entries 1..8)
	utf8("Demo")            // #1
	classRef(1)             // #2 this_class
	utf8("java/lang/Object") // #3
	classRef(3)             // #4 super_class
	utf8("run")             // #5
	utf8("()V")             // #6
	utf8("Code")            // #7
	utf8("hello-ferrugo")   // #8

	u2(0x0021) // access_flags
	u2(2)      // this_class
	u2(4)      // super_class
	u2(0)      // interfaces_count
	u2(0)      // fields_count

	u2(1)      // methods_count
	u2(0x0009) // method access_flags (public static)
	u2(5)      // name_index "run"
	u2(6)      // descriptor_index "()V"
	u2(1)      // method attributes_count

	u2(7) // attribute name_index "Code"
	var code bytes.Buffer
	cu2 := func(v uint16) { code.WriteByte(byte(v >> 8)); code.WriteByte(byte(v)) }
	cu4 := func(v uint32) {
		code.WriteByte(byte(v >> 24))
		code.WriteByte(byte(v >> 16))
		code.WriteByte(byte(v >> 8))
		code.WriteByte(byte(v))
	}
	cu2(0) // max_stack
	cu2(1) // max_locals
	body := []byte{0xB1} // return
	cu4(uint32(len(body)))
	code.Write(body)
	cu2(0) // exception_table_length
	cu2(0) // code attributes_count
	u4(uint32(code.Len()))
	buf.Write(code.Bytes())

	u2(0) // class attributes_count

	return buf.Bytes()
}
