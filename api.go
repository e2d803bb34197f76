package linguine

// This file rounds out the §6.1 embedding API with the small value
// accessors/builders not already exposed as methods alongside their
// owning heap/frame/call files (MakeString/MakeEmptyArray/MakeEmptyDict
// live in heap_string.go/heap_array.go/heap_dict.go; Call/CallByName in
// call.go; ShallowGC/DeepGC in gc.go; RegisterFunction/RegisterNative
// in globals.go; RegisterBytecode in module.go).

// GetValueType mirrors §6.1's get_value_type.
func (rt *Runtime) GetValueType(v Value) Kind { return v.Kind() }

// FuncByValue resolves a Func-kind value back to its Function, for
// hosts that want to inspect a callback before invoking it (e.g. to
// check ParamNames() arity before building an args slice).
func (rt *Runtime) FuncByValue(v Value) *Function {
	if v.Kind() != KindFunc {
		return nil
	}
	return rt.functionAt(v.idx)
}

// GetGlobal and SetGlobal back "local and global getters/setters for
// host-callable functions" (§6.1): a native function receives no
// frame of its own, so it reaches the script's globals this way.
func (rt *Runtime) GetGlobal(name string) (Value, bool) {
	g, ok := rt.findGlobal(name)
	if !ok {
		return Value{}, false
	}
	return g.val, true
}

// SetGlobal updates an existing global in place, or registers a new
// one if absent. Unlike STORESYMBOL (which never creates a global
// from bytecode), the host-facing API is permitted to create one
// directly, since the host is not bound by the bytecode interpreter's
// local-binding fallback rule.
func (rt *Runtime) SetGlobal(name string, v Value) {
	if rt.updateGlobal(name, v) {
		return
	}
	rt.registerGlobal(name, v)
	if v.isHeap() {
		rt.promote(v)
	}
}
