package linguine

// promote is §4.1's "make deep" operation generalized to dispatch by
// kind. It is a no-op for non-heap kinds (Int/Float/Func have no
// object to promote) and for objects already tenured, which is what
// makes the cascading calls in heap_array.go/heap_dict.go safe on
// cyclic graphs: a cycle revisits an already-tenured node and stops.
func (rt *Runtime) promote(v Value) {
	switch v.kind {
	case KindString:
		rt.promoteString(v.idx)
	case KindArray:
		rt.promoteArray(v.idx)
	case KindDict:
		rt.promoteDict(v.idx)
	}
}

// rescueReturn is this implementation's resolution of the interaction
// between §4.3's call() ("retrieve $return, then leave the frame")
// and the §3.8 invariant that a value must never reference a
// garbage-listed object. Without it, any function that simply
// allocates and returns a fresh string/array/dict (scenario 4, "n=3")
// would hand the caller a value whose backing object is dumped to the
// garbage list one statement later by leave_frame, and freed out from
// under the caller by the next shallow GC.
//
// The fix: before the callee's nursery lists are swept to garbage,
// walk the object graph reachable from the return value. Any node
// still owned by the callee frame is reparented onto the caller
// frame's nursery (so it keeps living exactly as long as a value
// allocated directly in the caller would) -- or, if there is no
// caller (a top-level call_by_name), tenured outright, since nothing
// remains to own a nursery for it. Nodes already owned by an older
// ancestor frame, or already tenured, are left untouched: they are
// already safe, and re-walking them would be wasted work (and, for
// cycles, would not terminate without a visited set).
func (rt *Runtime) rescueReturn(v Value, callee, caller *Frame) {
	if !v.isHeap() {
		return
	}
	switch v.kind {
	case KindString:
		rt.rescueString(v.idx, callee, caller)
	case KindArray:
		rt.rescueArray(v.idx, callee, caller)
	case KindDict:
		rt.rescueDict(v.idx, callee, caller)
	}
}

func (rt *Runtime) rescueString(idx uint32, callee, caller *Frame) {
	h := &rt.strings[idx].hdr
	if h.loc != locNursery || h.owner != callee {
		return
	}
	if caller != nil {
		rt.reparentString(idx, caller)
	} else {
		rt.promoteString(idx)
	}
}

func (rt *Runtime) rescueArray(idx uint32, callee, caller *Frame) {
	h := &rt.arrays[idx].hdr
	if h.loc != locNursery || h.owner != callee {
		return
	}
	if caller != nil {
		rt.reparentArray(idx, caller)
		a := &rt.arrays[idx]
		for i := 0; i < a.size; i++ {
			if el := a.table[i]; el.isHeap() {
				rt.rescueReturn(el, callee, caller)
			}
		}
	} else {
		rt.promoteArray(idx)
	}
}

func (rt *Runtime) rescueDict(idx uint32, callee, caller *Frame) {
	h := &rt.dicts[idx].hdr
	if h.loc != locNursery || h.owner != callee {
		return
	}
	if caller != nil {
		rt.reparentDict(idx, caller)
		d := &rt.dicts[idx]
		for i := 0; i < d.size; i++ {
			if val := d.vals[i]; val.isHeap() {
				rt.rescueReturn(val, callee, caller)
			}
		}
	} else {
		rt.promoteDict(idx)
	}
}
