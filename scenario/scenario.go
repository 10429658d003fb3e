// Package scenario drives a handful of end-to-end scenarios (S1-S6)
// against a live runtime.JVM, using the declare+link contract of the
// jit package rather than calling the trampoline table directly — each
// scenario first builds a jit.CodeGenerator the way a compiled method
// body would, links it, and only then invokes the resolved symbols.
package scenario

import (
	"bytes"
	"fmt"
	"math"

	"github.com/loojk2008/ferrugo/heap"
	"github.com/loojk2008/ferrugo/jit"
	"github.com/loojk2008/ferrugo/runtime"
	"github.com/loojk2008/ferrugo/trampoline"
)

// Report carries one scenario's name, pass/fail, and a message for
// CLI or test output.
type Report struct {
	Name string
	OK   bool
	Note string
}

// linkOne is the shared declare -> link -> call path every scenario
// below uses for a single trampoline call.
func linkOne(jvm *runtime.JVM, method, symbol string, args []trampoline.Value) (trampoline.Value, error) {
	sig, ok := jvm.Natives.Signature(symbol)
	if !ok {
		return trampoline.Value{}, fmt.Errorf("scenario: %s not in catalog", symbol)
	}
	gen := jit.NewCodeGenerator(method)
	if err := gen.Declare(symbol, sig); err != nil {
		return trampoline.Value{}, err
	}
	symtab, err := jvm.Linker.Link(gen)
	if err != nil {
		return trampoline.Value{}, err
	}
	if _, ok := symtab.Resolve(symbol); !ok {
		return trampoline.Value{}, fmt.Errorf("scenario: %s failed to resolve after successful link", symbol)
	}
	return jvm.Natives.Call(symbol, jvm.World.Env, args)
}

// RunPrintInt is S1: PrintStream.println(I)V with 42 writes "42\n".
func RunPrintInt(jvm *runtime.JVM, out *bytes.Buffer) Report {
	const symbol = "java/io/PrintStream.println:(I)V"
	_, err := linkOne(jvm, "S1", symbol, []trampoline.Value{trampoline.VPtr(0), trampoline.VInt(42)})
	if err != nil {
		return Report{Name: "S1", OK: false, Note: err.Error()}
	}
	got := out.String()
	return Report{Name: "S1", OK: got == "42\n", Note: fmt.Sprintf("wrote %q", got)}
}

// RunStringBuilderChain is S2: append(1).append("x").append(2).toString() == "1x2".
func RunStringBuilderChain(jvm *runtime.JVM) Report {
	sb := jvm.World.ObjectHeap.NewStringBuilder()
	x := jvm.World.ObjectHeap.InternString("x")

	const appendInt = "java/lang/StringBuilder.append:(I)Ljava/lang/StringBuilder;"
	const appendStr = "java/lang/StringBuilder.append:(Ljava/lang/String;)Ljava/lang/StringBuilder;"
	const toString = "java/lang/StringBuilder.toString:()Ljava/lang/String;"

	if _, err := linkOne(jvm, "S2", appendInt, []trampoline.Value{trampoline.VPtr(sb), trampoline.VInt(1)}); err != nil {
		return Report{Name: "S2", OK: false, Note: err.Error()}
	}
	if _, err := linkOne(jvm, "S2", appendStr, []trampoline.Value{trampoline.VPtr(sb), trampoline.VPtr(x)}); err != nil {
		return Report{Name: "S2", OK: false, Note: err.Error()}
	}
	if _, err := linkOne(jvm, "S2", appendInt, []trampoline.Value{trampoline.VPtr(sb), trampoline.VInt(2)}); err != nil {
		return Report{Name: "S2", OK: false, Note: err.Error()}
	}
	result, err := linkOne(jvm, "S2", toString, []trampoline.Value{trampoline.VPtr(sb)})
	if err != nil {
		return Report{Name: "S2", OK: false, Note: err.Error()}
	}
	s, _ := jvm.World.ObjectHeap.StringValue(result.Ptr())
	return Report{Name: "S2", OK: s == "1x2", Note: fmt.Sprintf("toString() = %q", s)}
}

// RunByteArrayRoundTrip is S3: bastore/baload round-trip on a 4-byte array.
func RunByteArrayRoundTrip(jvm *runtime.JVM) Report {
	addr, _ := jvm.World.ObjectHeap.NewPrimitiveArray(heap.ElemByte, 4)

	const bastore = "ferrugo_internal_bastore"
	const baload = "ferrugo_internal_baload"

	if _, err := linkOne(jvm, "S3", bastore, []trampoline.Value{trampoline.VPtr(addr), trampoline.VInt(0), trampoline.VInt(7)}); err != nil {
		return Report{Name: "S3", OK: false, Note: err.Error()}
	}
	if _, err := linkOne(jvm, "S3", bastore, []trampoline.Value{trampoline.VPtr(addr), trampoline.VInt(1), trampoline.VInt(255)}); err != nil {
		return Report{Name: "S3", OK: false, Note: err.Error()}
	}
	v0, err := linkOne(jvm, "S3", baload, []trampoline.Value{trampoline.VPtr(addr), trampoline.VInt(0)})
	if err != nil {
		return Report{Name: "S3", OK: false, Note: err.Error()}
	}
	v1, err := linkOne(jvm, "S3", baload, []trampoline.Value{trampoline.VPtr(addr), trampoline.VInt(1)})
	if err != nil {
		return Report{Name: "S3", OK: false, Note: err.Error()}
	}
	ok := v0.Int() == 7 && v1.Int() == 255
	return Report{Name: "S3", OK: ok, Note: fmt.Sprintf("baload(0)=%d baload(1)=%d", v0.Int(), v1.Int())}
}

// RunMath is S4: Math.pow(2,10) == 1024 and Math.sqrt(2) within 1 ULP.
func RunMath(jvm *runtime.JVM) Report {
	pow, err := linkOne(jvm, "S4", "java/lang/Math.pow:(DD)D", []trampoline.Value{trampoline.VDouble(2), trampoline.VDouble(10)})
	if err != nil {
		return Report{Name: "S4", OK: false, Note: err.Error()}
	}
	sqrt, err := linkOne(jvm, "S4", "java/lang/Math.sqrt:(D)D", []trampoline.Value{trampoline.VDouble(2)})
	if err != nil {
		return Report{Name: "S4", OK: false, Note: err.Error()}
	}
	ulp := math.Nextafter(math.Sqrt2, 2) - math.Sqrt2
	ok := pow.Double() == 1024 && math.Abs(sqrt.Double()-math.Sqrt2) <= ulp
	return Report{Name: "S4", OK: ok, Note: fmt.Sprintf("pow=%v sqrt=%v", pow.Double(), sqrt.Double())}
}

// RunGCReclaims is S5: dropped Instances are allocated until the
// registry crosses the GC threshold, and the next safe point runs a
// cycle that reclaims at least the bytes they added.
func RunGCReclaims(jvm *runtime.JVM) Report {
	classAddr, ok := jvm.World.ClassHeap.Lookup("scenario/Garbage")
	if !ok {
		classAddr = jvm.World.ClassHeap.Define("scenario/Garbage", heap.NewClass("scenario/Garbage", nil))
	}

	before := jvm.World.Registry.TotalBytes()
	for {
		jvm.World.ObjectHeap.NewInstance(classAddr, 32)
		if jvm.World.Registry.TotalBytes() > jvm.GC.Threshold() {
			break
		}
	}
	grown := jvm.World.Registry.TotalBytes()

	ran := jvm.SafePoint()
	after := jvm.World.Registry.TotalBytes()

	ok = ran && grown > before && grown-after >= grown-before
	return Report{Name: "S5", OK: ok, Note: fmt.Sprintf("before=%d grown=%d after=%d", before, grown, after)}
}

// RunGCPreservesReferenced is S6: an Instance kept reachable from the
// operand stack survives a forced cycle with its payload unchanged.
func RunGCPreservesReferenced(jvm *runtime.JVM) Report {
	classAddr := jvm.World.ClassHeap.Define("scenario/Kept", heap.NewClass("scenario/Kept", nil))
	addr, inst := jvm.World.ObjectHeap.NewInstance(classAddr, 1)
	inst.Slots[0] = 1234

	frame := &runtime.Frame{OperandStack: runtime.NewOperandStack(4)}
	frame.OperandStack.PushRef(addr)
	jvm.Thread().PushFrame(frame)
	defer jvm.Thread().PopFrame()

	jvm.GC.Collect(jvm)

	survivor, ok := jvm.World.ObjectHeap.Instance(addr)
	okAll := ok && survivor.Slots[0] == 1234
	return Report{Name: "S6", OK: okAll, Note: fmt.Sprintf("survived=%v payload=%v", ok, survivor)}
}

// RunAll runs every scenario and returns their reports in order.
func RunAll(jvm *runtime.JVM, out *bytes.Buffer) []Report {
	return []Report{
		RunPrintInt(jvm, out),
		RunStringBuilderChain(jvm),
		RunByteArrayRoundTrip(jvm),
		RunMath(jvm),
		RunGCReclaims(jvm),
		RunGCPreservesReferenced(jvm),
	}
}
