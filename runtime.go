package linguine

// GCConfig carries the handful of ambient knobs this runtime exposes
// around automatic collection. Nursery/tenured lifecycle rules are
// fixed exactly (§3.9); what is left to the embedder is *when* a deep
// GC should run automatically, if ever.
type GCConfig struct {
	// AutoDeepGCThreshold triggers a deep GC at the start of a
	// top-level Call (one made while no frame is active) when
	// HeapUsage() has grown by at least this many bytes since the
	// last collection. Zero disables automatic collection; the
	// host is then fully responsible for calling DeepGC/ShallowGC.
	AutoDeepGCThreshold int64
}

// DefaultGCConfig ships a sane default rather than forcing every
// embedder to hand-tune a knob that rarely needs tuning.
func DefaultGCConfig() GCConfig {
	return GCConfig{AutoDeepGCThreshold: 1 << 20} // 1 MiB
}

// Runtime is the environment described by §3.7: globals, the active
// frame stack, the three heap arenas (and their nursery/tenured/
// garbage lists), and the last-error state. A Runtime is owned by
// exactly one goroutine at a time (§5); it carries no internal
// locking.
type Runtime struct {
	globals *globalEntry
	frame   *Frame

	functions []*Function
	fnByName  map[string]uint32

	strings []stringObj
	arrays  []arrayObj
	dicts   []dictObj

	freeStrings []uint32
	freeArrays  []uint32
	freeDicts   []uint32

	tenuredStrHead, tenuredArrHead, tenuredDictHead uint32
	garbageStrHead, garbageArrHead, garbageDictHead uint32

	heapUsage      int64
	usageAtLastGC  int64
	curLine        int

	lastError RuntimeError
	hasError  bool

	gc  GCConfig
	jit JITCompiler
}

// Create allocates a fresh Runtime and registers the four built-in
// intrinsics (§6.3): len, push, unset, resize.
func Create() *Runtime {
	return CreateWithConfig(DefaultGCConfig())
}

// CreateWithConfig is Create with explicit GC tuning.
func CreateWithConfig(cfg GCConfig) *Runtime {
	rt := &Runtime{
		fnByName:       map[string]uint32{},
		tenuredStrHead: noIndex, tenuredArrHead: noIndex, tenuredDictHead: noIndex,
		garbageStrHead: noIndex, garbageArrHead: noIndex, garbageDictHead: noIndex,
		gc: cfg,
	}
	registerIntrinsics(rt)
	return rt
}

// Destroy releases the runtime. The Go garbage collector reclaims the
// backing arrays; Destroy exists for API parity with the embedding
// surface described in §6.1 and to release any JIT executable pages.
func (rt *Runtime) Destroy() {
	for _, fn := range rt.functions {
		if fn.jitCode != nil {
			fn.jitCode.Release()
		}
	}
	rt.functions = nil
	rt.fnByName = nil
	rt.globals = nil
	rt.frame = nil
	rt.strings = nil
	rt.arrays = nil
	rt.dicts = nil
}

// HeapUsage returns the runtime's approximate live-heap byte count
// (§6.1 get_heap_usage).
func (rt *Runtime) HeapUsage() int64 { return rt.heapUsage }

// EnableJIT installs a JIT compiler. It is purely additive: functions
// keep working identically through the interpreter if no compiler is
// installed, or if compilation for a given function fails or is
// unsupported on the host architecture (§9 "Design Notes", JIT).
func (rt *Runtime) EnableJIT(c JITCompiler) { rt.jit = c }

// maybeAutoGC only fires at top level: DeepGC marks from globals alone
// (§4.5), not from any frame's tmp slots, so running it while an
// ancestor frame is live could sweep a tenured object that frame still
// references and is reachable from nowhere else.
func (rt *Runtime) maybeAutoGC() {
	if rt.frame != nil {
		return
	}
	if rt.gc.AutoDeepGCThreshold <= 0 {
		return
	}
	if rt.heapUsage-rt.usageAtLastGC >= rt.gc.AutoDeepGCThreshold {
		rt.DeepGC()
	}
}
