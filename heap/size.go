package heap

// Size estimation is deliberately approximate: these are accounting
// numbers that drive the GC trigger policy, not exact memory-layout
// math.

func instanceSize(inst *Instance) int64 {
	return 64 + int64(len(inst.Slots))*8
}

func arraySize(a *Array) int64 {
	size := int64(32)
	size += int64(len(a.Ints)) * 4
	size += int64(len(a.Longs)) * 8
	size += int64(len(a.Floats)) * 4
	size += int64(len(a.Doubles)) * 8
	size += int64(len(a.Refs)) * 8
	return size
}
