package heap

// World bundles the four singletons a running VM needs: the registry
// itself plus the class heap, object heap and runtime environment, the
// last three each already present in the registry under its own
// address so the GC can trace them as roots.
type World struct {
	Registry   *Registry
	ClassHeap  *ClassHeap
	ObjectHeap *ObjectHeap
	Env        *RuntimeEnvironment

	ClassHeapAddr  Addr
	ObjectHeapAddr Addr
	EnvAddr        Addr
}

// Bootstrap wires a fresh registry, class heap, object heap and
// runtime environment together and registers each of them, mirroring
// how the original VM constructs its process-wide singletons before
// any class is loaded.
func Bootstrap() *World {
	registry := NewRegistry()
	classHeap := NewClassHeap(registry)
	objectHeap := NewObjectHeap(registry, classHeap)

	classHeapAddr := registry.Register(classHeapBaseSize, KindClassHeap, classHeap)
	objectHeapAddr := registry.Register(objectHeapBaseSize, KindObjectHeap, objectHeap)

	env := &RuntimeEnvironment{ClassHeapAddr: classHeapAddr, ObjectHeapAddr: objectHeapAddr}
	envAddr := registry.Register(runtimeEnvBaseSize, KindRuntimeEnvironment, env)

	return &World{
		Registry:       registry,
		ClassHeap:      classHeap,
		ObjectHeap:     objectHeap,
		Env:            env,
		ClassHeapAddr:  classHeapAddr,
		ObjectHeapAddr: objectHeapAddr,
		EnvAddr:        envAddr,
	}
}

const (
	classHeapBaseSize  = 32
	objectHeapBaseSize = 16
	runtimeEnvBaseSize = 16
)
