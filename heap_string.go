package linguine

// stringObj is the String object of §3.2. Strings are immutable after
// creation; data is an owned copy of the bytes given at allocation
// time (a nul terminator is a host-embedding convenience and is not
// stored -- callers that need a C-style pointer can append one when
// crossing the API boundary).
type stringObj struct {
	hdr  objHeader
	data []byte
}

func stringHdr(s *stringObj) *objHeader { return &s.hdr }

func (rt *Runtime) allocString(s string) Value {
	idx := rt.newStringSlot()
	obj := &rt.strings[idx]
	obj.data = []byte(s)
	rt.placeNew(&obj.hdr, int64(len(obj.data)))
	if rt.frame != nil {
		listPushFront(rt.strings, idx, stringHdr, &rt.frame.nurseryStrHead)
	} else {
		listPushFront(rt.strings, idx, stringHdr, &rt.tenuredStrHead)
	}
	return stringValue(idx)
}

// MakeString implements §4.1's make_string.
func (rt *Runtime) MakeString(s string) Value { return rt.allocString(s) }

func (rt *Runtime) newStringSlot() uint32 {
	if n := len(rt.freeStrings); n > 0 {
		idx := rt.freeStrings[n-1]
		rt.freeStrings = rt.freeStrings[:n-1]
		rt.strings[idx] = stringObj{}
		return idx
	}
	rt.strings = append(rt.strings, stringObj{})
	return uint32(len(rt.strings) - 1)
}

// placeNew records an object's initial placement: nursery if a frame
// is active, tenured otherwise (§4.1 make_string/make_empty_array/
// make_empty_dict placement rule), and accounts its bytes.
func (rt *Runtime) placeNew(h *objHeader, bytes int64) {
	if rt.frame != nil {
		h.loc = locNursery
		h.owner = rt.frame
	} else {
		h.loc = locTenured
		h.owner = nil
	}
	rt.accountGrow(h, bytes)
}

// StringBytes returns the backing bytes of a String value. It does not
// check v's kind: for a non-String value it indexes the string arena
// with v's index and returns unrelated bytes or panics, so callers
// must check Kind() first, exactly like every other accessor in this
// package.
func (rt *Runtime) StringBytes(v Value) []byte {
	return rt.strings[v.idx].data
}

// StringLen returns the byte length of a String value.
func (rt *Runtime) StringLen(v Value) int { return len(rt.strings[v.idx].data) }

func (rt *Runtime) freeString(idx uint32) {
	obj := &rt.strings[idx]
	rt.accountFree(&obj.hdr)
	obj.data = nil
	obj.hdr = objHeader{}
	obj.hdr.loc = locFree
	rt.freeStrings = append(rt.freeStrings, idx)
}

func (rt *Runtime) promoteString(idx uint32) {
	h := &rt.strings[idx].hdr
	if h.isDeep() {
		return
	}
	owner := h.owner
	listRemove(rt.strings, idx, stringHdr, &owner.nurseryStrHead)
	h.owner = nil
	h.loc = locTenured
	listPushFront(rt.strings, idx, stringHdr, &rt.tenuredStrHead)
}

// reparentString moves a nursery string from its current owner frame
// to a new one, without promoting it. Used by return-value rescue.
func (rt *Runtime) reparentString(idx uint32, to *Frame) {
	h := &rt.strings[idx].hdr
	owner := h.owner
	listRemove(rt.strings, idx, stringHdr, &owner.nurseryStrHead)
	h.owner = to
	listPushFront(rt.strings, idx, stringHdr, &to.nurseryStrHead)
}
