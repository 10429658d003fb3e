package runtime

import (
	"github.com/loojk2008/ferrugo/classfile"
	"github.com/loojk2008/ferrugo/gc"
	"github.com/loojk2008/ferrugo/heap"
)

// Thread is the JVM's single thread of control. Execution is
// single-threaded and strictly cooperative, so there is no thread
// pool, no scheduler, and no monitor: Thread exists only to own the
// call stack that gc.RootProvider enumerates.
type Thread struct {
	stack   []*Frame
	Classes map[string]*classfile.ClassFile // classfile-level cache, independent of heap.ClassHeap
}

// NewThread creates the VM's one thread.
func NewThread() *Thread {
	return &Thread{
		stack:   make([]*Frame, 0, 32),
		Classes: make(map[string]*classfile.ClassFile),
	}
}

func (t *Thread) PushFrame(frame *Frame) { t.stack = append(t.stack, frame) }

func (t *Thread) PopFrame() *Frame {
	if len(t.stack) == 0 {
		return nil
	}
	frame := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	return frame
}

func (t *Thread) CurrentFrame() *Frame {
	if len(t.stack) == 0 {
		return nil
	}
	return t.stack[len(t.stack)-1]
}

func (t *Thread) IsStackEmpty() bool { return len(t.stack) == 0 }
func (t *Thread) StackDepth() int    { return len(t.stack) }

func (t *Thread) LoadClass(name string, cf *classfile.ClassFile) { t.Classes[name] = cf }
func (t *Thread) GetClass(name string) *classfile.ClassFile      { return t.Classes[name] }

// FrameRoots converts the live call stack into the gc package's root
// shape: one gc.FrameRoot per frame, carrying the frame's class
// pointer and every local variable slot, since a precise collector
// that skips live locals would drop reachable objects.
func (t *Thread) FrameRoots() []gc.FrameRoot {
	roots := make([]gc.FrameRoot, len(t.stack))
	for i, f := range t.stack {
		roots[i] = gc.FrameRoot{Class: f.ClassAddr, Locals: f.Locals.Addrs()}
	}
	return roots
}

// OperandAddrs returns the current frame's operand stack as candidate
// addresses, or nil if the stack is empty.
func (t *Thread) OperandAddrs() []heap.Addr {
	f := t.CurrentFrame()
	if f == nil {
		return nil
	}
	return f.OperandStack.Addrs()
}
