// Package gc implements the stop-the-world mark-and-sweep collector
// that runs against a heap.Registry: policy (when to collect), tracing
// (graph walk from VM-supplied roots), and sweeping (reclaim, registry
// update).
package gc

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/loojk2008/ferrugo/heap"
	"go.uber.org/zap"
)

// DefaultThresholdBytes is the default trigger threshold. It is a
// tunable default, not a hard-coded constant: see Engine.SetThreshold.
const DefaultThresholdBytes = 10 * 1024 * 1024

// FrameRoot is one stack frame's contribution to the root set: its
// class pointer and its local variable slots.
type FrameRoot struct {
	Class  heap.Addr
	Locals []heap.Addr
}

// RootProvider is the interface consumed from the interpreter/JIT
// side: it yields the runtime environment, class heap and object heap
// root pointers, the active frame stack, and the operand stack.
// Engine.CollectIfNeeded asks for a fresh RootProvider on every
// safe-point check rather than caching one, so roots are always
// derived from live VM state.
type RootProvider interface {
	RuntimeEnv() heap.Addr
	ClassHeapAddr() heap.Addr
	ObjectHeapAddr() heap.Addr
	Frames() []FrameRoot
	OperandStack() []heap.Addr
}

// Engine is the GC Engine component: trigger policy plus the
// mark/sweep cycle itself.
type Engine struct {
	registry  *heap.Registry
	logger    *zap.Logger
	disabled  atomic.Bool
	threshold atomic.Int64
	runs      atomic.Uint64

	mu sync.Mutex // serializes concurrent Collect calls
}

// NewEngine creates a GC engine bound to registry, with the default
// 10 MiB threshold and GC enabled.
func NewEngine(registry *heap.Registry, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{registry: registry, logger: logger}
	e.threshold.Store(DefaultThresholdBytes)
	return e
}

// Enable/Disable toggle gc_disabled. Allocations keep registering
// while disabled; only sweeping is skipped.
func (e *Engine) Enable()  { e.disabled.Store(false) }
func (e *Engine) Disable() { e.disabled.Store(true) }

// Disabled reports the current gc_disabled flag.
func (e *Engine) Disabled() bool { return e.disabled.Load() }

// SetThreshold changes the byte threshold that triggers a cycle.
func (e *Engine) SetThreshold(bytes int64) { e.threshold.Store(bytes) }

// Threshold returns the current byte threshold.
func (e *Engine) Threshold() int64 { return e.threshold.Load() }

// Runs returns the number of completed GC cycles.
func (e *Engine) Runs() uint64 { return e.runs.Load() }

// CollectIfNeeded is the safe-point trigger check: if gc_disabled is
// false and total_bytes() exceeds the threshold, run a full cycle.
// Otherwise it returns immediately. It reports whether a cycle ran.
func (e *Engine) CollectIfNeeded(roots RootProvider) bool {
	if e.disabled.Load() {
		return false
	}
	if e.registry.TotalBytes() <= e.threshold.Load() {
		return false
	}
	e.Collect(roots)
	return true
}

// Collect forces a full mark-and-sweep cycle regardless of the
// threshold, honoring gc_disabled. Tests and the S6 scenario use this
// to force a cycle deterministically.
func (e *Engine) Collect(roots RootProvider) {
	if e.disabled.Load() {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	before := e.registry.TotalBytes()
	marked := e.mark(roots)
	freedBytes, freedCount := e.registry.RetainMarked(marked)
	e.runs.Add(1)

	e.logger.Info("gc cycle complete",
		zap.Int64("bytes_before", before),
		zap.Int64("bytes_after", e.registry.TotalBytes()),
		zap.Int64("freed_bytes", freedBytes),
		zap.Int("freed_count", freedCount),
		zap.Int("marked_count", len(marked)),
		zap.Uint64("run", e.runs.Load()),
	)
}

// mark performs the depth-first trace using an explicit worklist (a
// plain slice used as a stack) rather than Go call-stack recursion, so
// a long reachable chain cannot overflow the goroutine stack. Each
// address is only ever expanded once.
func (e *Engine) mark(roots RootProvider) map[heap.Addr]struct{} {
	marked := make(map[heap.Addr]struct{})
	var stack []heap.Addr

	push := func(a heap.Addr) {
		if a == 0 {
			return
		}
		stack = append(stack, a)
	}

	push(roots.RuntimeEnv())
	push(roots.ClassHeapAddr())
	push(roots.ObjectHeapAddr())
	for _, f := range roots.Frames() {
		push(f.Class)
		for _, l := range f.Locals {
			push(l)
		}
	}
	for _, s := range roots.OperandStack() {
		push(s)
	}

	for len(stack) > 0 {
		addr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := marked[addr]; seen {
			continue
		}

		entry, ok := e.registry.Get(addr)
		if !ok {
			// Not a heap object: a foreign address, a non-pointer slot
			// word that happens to collide with no live entry, or
			// already swept. Treated as a cut, not an error.
			continue
		}

		if entry.Kind == heap.KindUnknown {
			panic(fmt.Errorf("%w: traced entry at addr %d has kind Unknown", heap.ErrHeapIntegrity, addr))
		}

		marked[addr] = struct{}{}

		if tracer, ok := entry.Value.(heap.Tracer); ok {
			for _, out := range tracer.Outgoing() {
				push(out)
			}
		}
	}

	return marked
}
