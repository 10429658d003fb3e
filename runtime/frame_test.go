package runtime

import (
	"testing"

	"github.com/loojk2008/ferrugo/heap"
)

func TestOperandStackRefRoundTrip(t *testing.T) {
	s := NewOperandStack(4)
	s.PushRef(heap.Addr(7))
	s.PushInt(3)

	if got := s.PopInt(); got != 3 {
		t.Errorf("PopInt() = %d, want 3", got)
	}
	if got := s.PopRef(); got != heap.Addr(7) {
		t.Errorf("PopRef() = %d, want 7", got)
	}
	if !s.IsEmpty() {
		t.Error("expected stack to be empty")
	}
}

func TestOperandStackAddrs(t *testing.T) {
	tests := []struct {
		name   string
		pushed []int64
	}{
		{"empty", nil},
		{"mixed slots", []int64{0, 5, 42}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewOperandStack(8)
			for _, v := range tt.pushed {
				s.PushSlot(v)
			}
			addrs := s.Addrs()
			if len(addrs) != len(tt.pushed) {
				t.Fatalf("len(Addrs()) = %d, want %d", len(addrs), len(tt.pushed))
			}
			for i, v := range tt.pushed {
				if addrs[i] != heap.Addr(v) {
					t.Errorf("Addrs()[%d] = %d, want %d", i, addrs[i], v)
				}
			}
		})
	}
}

func TestThreadFrameRoots(t *testing.T) {
	thread := NewThread()
	frame := &Frame{ClassAddr: heap.Addr(9), Locals: LocalVars{0, 3}}
	thread.PushFrame(frame)

	roots := thread.FrameRoots()
	if len(roots) != 1 {
		t.Fatalf("len(FrameRoots()) = %d, want 1", len(roots))
	}
	if roots[0].Class != heap.Addr(9) {
		t.Errorf("roots[0].Class = %d, want 9", roots[0].Class)
	}
	if len(roots[0].Locals) != 2 || roots[0].Locals[1] != heap.Addr(3) {
		t.Errorf("roots[0].Locals = %v, want [0 3]", roots[0].Locals)
	}
}
