// Package heap implements the heap registry and the Object/Class Heap
// allocation facades: the bookkeeping table behind every heap
// allocation, and the typed constructors that sit in front of it.
package heap

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Addr identifies a heap block. It stands in for the raw block address
// the original implementation used: an arena index rather than a real
// pointer, per the reimplementation strategy of keeping the object
// graph safe without changing its semantics. Zero is the null address
// and is never issued by Register.
type Addr uint64

// Kind is the closed set of object kinds the registry understands.
// A kind outside this set is recorded as KindUnknown and is fatal if
// ever traced by the GC.
type Kind int

const (
	KindUnknown Kind = iota
	KindInstance
	KindArray
	KindClass
	KindClassHeap
	KindObjectHeap
	KindRuntimeEnvironment
)

func (k Kind) String() string {
	switch k {
	case KindInstance:
		return "Instance"
	case KindArray:
		return "Array"
	case KindClass:
		return "Class"
	case KindClassHeap:
		return "ClassHeap"
	case KindObjectHeap:
		return "ObjectHeap"
	case KindRuntimeEnvironment:
		return "RuntimeEnvironment"
	default:
		return "Unknown"
	}
}

// Tracer is implemented by every registered value so the GC can walk
// its outgoing edges without the gc package needing to know the
// concrete heap types.
type Tracer interface {
	// Outgoing returns every address this value directly references.
	// A zero address or one absent from the registry is tolerated by
	// the caller and need not be filtered out here.
	Outgoing() []Addr
}

// Entry is the bookkeeping record kept per live block: its kind and
// the value it was registered with. There is no mark bit here — marks
// live in a cycle-local trace set so that surviving entries are
// implicitly unmarked at the start of the next cycle.
type Entry struct {
	Kind  Kind
	Size  int64
	Value any
}

// Registry is the heap registry: address -> {kind, value}, plus the
// live byte counter that drives the GC trigger policy.
type Registry struct {
	mu             sync.Mutex
	nextAddr       uint64
	entries        map[Addr]*Entry
	allocatedBytes int64

	allocCount atomic.Uint64
	freeCount  atomic.Uint64
}

// NewRegistry creates an empty heap registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[Addr]*Entry),
	}
}

// Register inserts a new entry and increments allocated_bytes by
// byteSize. Registration is O(1) expected.
func (r *Registry) Register(byteSize int64, kind Kind, value any) Addr {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextAddr++
	addr := Addr(r.nextAddr)
	r.entries[addr] = &Entry{Kind: kind, Size: byteSize, Value: value}
	r.allocatedBytes += byteSize
	r.allocCount.Add(1)
	return addr
}

// Get retrieves the entry for addr. A foreign or already-freed address
// yields ok=false; callers treat that as "not a heap object".
func (r *Registry) Get(addr Addr) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[addr]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// RetainMarked frees every entry whose address is absent from marked,
// and keeps the rest. It returns the bytes and count freed. This is
// O(n) in registry size, as documented.
func (r *Registry) RetainMarked(marked map[Addr]struct{}) (freedBytes int64, freedCount int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for addr, e := range r.entries {
		if _, live := marked[addr]; live {
			continue
		}
		delete(r.entries, addr)
		freedBytes += e.Size
		freedCount++
	}

	r.allocatedBytes -= freedBytes
	if r.allocatedBytes < 0 {
		// Every freed entry subtracts exactly the size it was
		// registered with, so this clamp only guards against the
		// counter ever going negative; it never reports an error.
		r.allocatedBytes = 0
	}
	r.freeCount.Add(uint64(freedCount))
	return freedBytes, freedCount
}

// TotalBytes returns the current allocated_bytes counter.
func (r *Registry) TotalBytes() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.allocatedBytes
}

// Count returns the number of live entries.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// AllocCount and FreeCount back the Prometheus collector and CLI stats
// output; they never roll back, unlike allocatedBytes.
func (r *Registry) AllocCount() uint64 { return r.allocCount.Load() }
func (r *Registry) FreeCount() uint64  { return r.freeCount.Load() }

// ErrHeapIntegrity is wrapped into the panic value raised when the GC
// encounters a registry entry of KindUnknown while tracing. It is
// exported so callers can recover() and match it with errors.Is
// against the wrapped panic, if they choose to convert the panic into
// a normal error at a process boundary.
var ErrHeapIntegrity = fmt.Errorf("ferrugo: heap integrity violation")
