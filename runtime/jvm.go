package runtime

import (
	"io"
	"math/rand"
	"sync/atomic"

	"github.com/loojk2008/ferrugo/classfile"
	"github.com/loojk2008/ferrugo/gc"
	"github.com/loojk2008/ferrugo/heap"
	"github.com/loojk2008/ferrugo/jit"
	"github.com/loojk2008/ferrugo/trampoline"
	"go.uber.org/zap"
)

// JVM is the process-wide VM instance: the heap.World singletons, the
// GC engine that collects them, the trampoline catalog generated code
// calls into, the linker that binds declared symbols to it, and the
// one cooperative thread this VM runs.
//
// There is no Monitor (synchronized-block support) and no thread pool:
// this VM never runs more than one thread, so neither has anything to
// serialize. See DESIGN.md.
type JVM struct {
	World   *heap.World
	GC      *gc.Engine
	Natives *trampoline.Table
	Linker  *jit.Linker

	thread *Thread

	running atomic.Bool
}

// NewJVM creates a fresh VM: bootstraps the heap world, a GC engine
// bound to it, the native trampoline catalog (PrintStream output
// directed at out), and a jit.Linker bound to that catalog. logger
// drives both GC cycle logs and jit link logs.
func NewJVM(logger *zap.Logger, out io.Writer) *JVM {
	world := heap.Bootstrap()
	engine := gc.NewEngine(world.Registry, logger)
	natives := trampoline.NewTable(trampoline.Deps{
		ObjectHeap: world.ObjectHeap,
		Out:        out,
		Rand:       rand.New(rand.NewSource(1)),
	})

	jvm := &JVM{
		World:   world,
		GC:      engine,
		Natives: natives,
		Linker:  jit.NewLinker(natives, logger),
		thread:  NewThread(),
	}
	jvm.running.Store(true)
	return jvm
}

// Thread returns the VM's single thread.
func (jvm *JVM) Thread() *Thread { return jvm.thread }

// LoadClass registers a parsed class file with both the classfile-level
// cache (for bytecode lookups) and the heap.ClassHeap (so it has a GC
// root address), returning that address.
func (jvm *JVM) LoadClass(name string, cf *classfile.ClassFile) heap.Addr {
	jvm.thread.LoadClass(name, cf)
	return jvm.World.ClassHeap.Define(name, heap.NewClass(name, cf))
}

// GetClass retrieves a loaded class's classfile, if any.
func (jvm *JVM) GetClass(name string) *classfile.ClassFile {
	return jvm.thread.GetClass(name)
}

// NewFrame pushes a new call frame for method on the named class onto
// the VM's thread, resolving the class's heap address for GC rooting.
func (jvm *JVM) NewFrame(method *classfile.MethodInfo, class *classfile.ClassFile, className string) *Frame {
	classAddr, _ := jvm.World.ClassHeap.Lookup(className)
	return NewFrame(jvm.thread, method, class, classAddr)
}

// SafePoint runs the GC's threshold check, as generated code would at
// a method entry or loop back-edge.
func (jvm *JVM) SafePoint() bool {
	return jvm.GC.CollectIfNeeded(jvm)
}

// RuntimeEnv, ClassHeapAddr, ObjectHeapAddr, Frames and OperandStack
// implement gc.RootProvider directly against the live heap.World and
// thread state, so every call takes a fresh root snapshot rather than
// a cached one.
func (jvm *JVM) RuntimeEnv() heap.Addr     { return jvm.World.EnvAddr }
func (jvm *JVM) ClassHeapAddr() heap.Addr  { return jvm.World.ClassHeapAddr }
func (jvm *JVM) ObjectHeapAddr() heap.Addr { return jvm.World.ObjectHeapAddr }
func (jvm *JVM) Frames() []gc.FrameRoot    { return jvm.thread.FrameRoots() }
func (jvm *JVM) OperandStack() []heap.Addr { return jvm.thread.OperandAddrs() }

// IsRunning reports whether the VM is still accepting work.
func (jvm *JVM) IsRunning() bool { return jvm.running.Load() }

// Shutdown stops the VM.
func (jvm *JVM) Shutdown() { jvm.running.Store(false) }
