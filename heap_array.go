package linguine

const initialArenaCapacity = 16

// arrayObj is the Array object of §3.3: a dense, 0-indexed vector of
// Values with an explicit logical size distinct from capacity.
type arrayObj struct {
	hdr   objHeader
	table []Value
	size  int
}

func arrayHdr(a *arrayObj) *objHeader { return &a.hdr }

func (a *arrayObj) allocSize() int { return len(a.table) }

func (rt *Runtime) arrayBytes(a *arrayObj) int64 { return int64(len(a.table)) * 16 }

// MakeEmptyArray implements §4.1's make_empty_array: capacity 16, size 0.
func (rt *Runtime) MakeEmptyArray() Value {
	idx := rt.newArraySlot()
	obj := &rt.arrays[idx]
	obj.table = make([]Value, initialArenaCapacity)
	obj.size = 0
	rt.placeNew(&obj.hdr, rt.arrayBytes(obj))
	if rt.frame != nil {
		listPushFront(rt.arrays, idx, arrayHdr, &rt.frame.nurseryArrHead)
	} else {
		listPushFront(rt.arrays, idx, arrayHdr, &rt.tenuredArrHead)
	}
	return arrayValue(idx)
}

func (rt *Runtime) newArraySlot() uint32 {
	if n := len(rt.freeArrays); n > 0 {
		idx := rt.freeArrays[n-1]
		rt.freeArrays = rt.freeArrays[:n-1]
		rt.arrays[idx] = arrayObj{}
		return idx
	}
	rt.arrays = append(rt.arrays, arrayObj{})
	return uint32(len(rt.arrays) - 1)
}

// ArrayLen returns the logical size of an Array value.
func (rt *Runtime) ArrayLen(v Value) int { return rt.arrays[v.idx].size }

func (rt *Runtime) growArray(a *arrayObj, minCap int) {
	cap0 := len(a.table)
	if cap0 >= minCap {
		return
	}
	newCap := cap0
	if newCap == 0 {
		newCap = initialArenaCapacity
	}
	for newCap < minCap {
		newCap *= 2
	}
	grown := make([]Value, newCap)
	copy(grown, a.table)
	a.table = grown
	rt.accountGrow(&a.hdr, rt.arrayBytes(a))
}

// ArrayGet implements §4.1's array_get.
func (rt *Runtime) ArrayGet(v Value, i int) (Value, error) {
	a := &rt.arrays[v.idx]
	if i < 0 || i >= a.size {
		return Value{}, rt.fail(ErrIndexOutOfRange, "array index %d out of range [0, %d)", i, a.size)
	}
	return a.table[i], nil
}

// ArraySet implements §4.1's array_set: grows capacity to at least
// i+1 (at least doubling), extends size, writes v, and promotes v if
// the array is already tenured; the array itself is never promoted
// here (see DESIGN.md for
// why promotion is gated on the container's current tenure state
// rather than unconditional).
func (rt *Runtime) ArraySet(v Value, i int, val Value) error {
	if i < 0 {
		return rt.fail(ErrIndexOutOfRange, "array index %d out of range", i)
	}
	a := &rt.arrays[v.idx]
	rt.growArray(a, i+1)
	if i+1 > a.size {
		a.size = i + 1
	}
	a.table[i] = val
	if a.hdr.isDeep() && val.isHeap() {
		rt.promote(val)
	}
	return nil
}

// ArrayResize implements §4.1's array_resize.
func (rt *Runtime) ArrayResize(v Value, n int) error {
	if n < 0 {
		return rt.fail(ErrIndexOutOfRange, "array size %d is negative", n)
	}
	a := &rt.arrays[v.idx]
	if n > a.size {
		rt.growArray(a, n)
		for i := a.size; i < n; i++ {
			a.table[i] = IntValue(0)
		}
	} else if n < a.size {
		for i := n; i < a.size; i++ {
			a.table[i] = IntValue(0)
		}
	}
	a.size = n
	return nil
}

// ArrayPush appends val at the end of the array, growing as needed.
// This backs the `push` intrinsic (§6.3).
func (rt *Runtime) ArrayPush(v Value, val Value) error {
	a := &rt.arrays[v.idx]
	return rt.ArraySet(v, a.size, val)
}

func (rt *Runtime) freeArray(idx uint32) {
	obj := &rt.arrays[idx]
	rt.accountFree(&obj.hdr)
	obj.table = nil
	obj.hdr = objHeader{}
	obj.hdr.loc = locFree
	rt.freeArrays = append(rt.freeArrays, idx)
}

func (rt *Runtime) promoteArray(idx uint32) {
	h := &rt.arrays[idx].hdr
	if h.isDeep() {
		return
	}
	owner := h.owner
	listRemove(rt.arrays, idx, arrayHdr, &owner.nurseryArrHead)
	h.owner = nil
	h.loc = locTenured
	listPushFront(rt.arrays, idx, arrayHdr, &rt.tenuredArrHead)

	// Cascade: every element reachable from a newly-tenured array
	// must become tenured too, or it would be freed out from under
	// the array the next time its original owning frame exits.
	a := &rt.arrays[idx]
	for i := 0; i < a.size; i++ {
		if el := a.table[i]; el.isHeap() {
			rt.promote(el)
		}
	}
}

func (rt *Runtime) reparentArray(idx uint32, to *Frame) {
	h := &rt.arrays[idx].hdr
	owner := h.owner
	listRemove(rt.arrays, idx, arrayHdr, &owner.nurseryArrHead)
	h.owner = to
	listPushFront(rt.arrays, idx, arrayHdr, &to.nurseryArrHead)
}
