package linguine

// dictObj is the Dict object of §3.4: parallel key/value vectors in
// first-insertion order, searched linearly. Keys are owned copies.
type dictObj struct {
	hdr  objHeader
	keys []string
	vals []Value
	size int
}

func dictHdr(d *dictObj) *objHeader { return &d.hdr }

func (rt *Runtime) dictBytes(d *dictObj) int64 {
	n := int64(0)
	for i := 0; i < d.size; i++ {
		n += int64(len(d.keys[i]))
	}
	return n + int64(len(d.vals))*16
}

// MakeEmptyDict implements §4.1's make_empty_dict: capacity 16, size 0.
func (rt *Runtime) MakeEmptyDict() Value {
	idx := rt.newDictSlot()
	obj := &rt.dicts[idx]
	obj.keys = make([]string, initialArenaCapacity)
	obj.vals = make([]Value, initialArenaCapacity)
	obj.size = 0
	rt.placeNew(&obj.hdr, rt.dictBytes(obj))
	if rt.frame != nil {
		listPushFront(rt.dicts, idx, dictHdr, &rt.frame.nurseryDictHead)
	} else {
		listPushFront(rt.dicts, idx, dictHdr, &rt.tenuredDictHead)
	}
	return dictValue(idx)
}

func (rt *Runtime) newDictSlot() uint32 {
	if n := len(rt.freeDicts); n > 0 {
		idx := rt.freeDicts[n-1]
		rt.freeDicts = rt.freeDicts[:n-1]
		rt.dicts[idx] = dictObj{}
		return idx
	}
	rt.dicts = append(rt.dicts, dictObj{})
	return uint32(len(rt.dicts) - 1)
}

// DictLen returns the size of a Dict value.
func (rt *Runtime) DictLen(v Value) int { return rt.dicts[v.idx].size }

func (rt *Runtime) growDict(d *dictObj, minCap int) {
	if len(d.keys) >= minCap {
		return
	}
	newCap := len(d.keys)
	if newCap == 0 {
		newCap = initialArenaCapacity
	}
	for newCap < minCap {
		newCap *= 2
	}
	keys := make([]string, newCap)
	vals := make([]Value, newCap)
	copy(keys, d.keys)
	copy(vals, d.vals)
	d.keys, d.vals = keys, vals
}

func (rt *Runtime) dictFind(d *dictObj, key string) int {
	for i := 0; i < d.size; i++ {
		if d.keys[i] == key {
			return i
		}
	}
	return -1
}

// DictGet implements §4.1's dict_get.
func (rt *Runtime) DictGet(v Value, key string) (Value, error) {
	d := &rt.dicts[v.idx]
	i := rt.dictFind(d, key)
	if i < 0 {
		return Value{}, rt.fail(ErrKeyNotFound, "key %q not found", key)
	}
	return d.vals[i], nil
}

// DictSet implements §4.1's dict_set: overwrite on an existing key,
// otherwise append an owned key copy and the value, preserving
// insertion order. Promotion follows the same "container already
// tenured" gate as ArraySet.
func (rt *Runtime) DictSet(v Value, key string, val Value) error {
	d := &rt.dicts[v.idx]
	if i := rt.dictFind(d, key); i >= 0 {
		d.vals[i] = val
	} else {
		rt.growDict(d, d.size+1)
		d.keys[d.size] = key
		d.vals[d.size] = val
		d.size++
	}
	rt.accountGrow(&d.hdr, rt.dictBytes(d))
	if d.hdr.isDeep() && val.isHeap() {
		rt.promote(val)
	}
	return nil
}

// DictRemove implements §4.1's dict_remove: fails KeyNotFound if
// absent, otherwise compacts both parallel vectors.
func (rt *Runtime) DictRemove(v Value, key string) error {
	d := &rt.dicts[v.idx]
	i := rt.dictFind(d, key)
	if i < 0 {
		return rt.fail(ErrKeyNotFound, "key %q not found", key)
	}
	copy(d.keys[i:], d.keys[i+1:d.size])
	copy(d.vals[i:], d.vals[i+1:d.size])
	d.size--
	d.keys[d.size] = ""
	d.vals[d.size] = Value{}
	rt.accountGrow(&d.hdr, rt.dictBytes(d))
	return nil
}

// DictKeyByIndex implements §4.1's get_dict_key_by_index: allocates a
// fresh String copy of the key at ordinal i. Per §9's resolved
// ambiguity, this returns success for 0 <= index < size.
func (rt *Runtime) DictKeyByIndex(v Value, i int) (Value, error) {
	d := &rt.dicts[v.idx]
	if i < 0 || i >= d.size {
		return Value{}, rt.fail(ErrIndexOutOfRange, "dict key index %d out of range [0, %d)", i, d.size)
	}
	return rt.allocString(d.keys[i]), nil
}

// DictValByIndex implements §4.1's get_dict_value_by_index.
func (rt *Runtime) DictValByIndex(v Value, i int) (Value, error) {
	d := &rt.dicts[v.idx]
	if i < 0 || i >= d.size {
		return Value{}, rt.fail(ErrIndexOutOfRange, "dict value index %d out of range [0, %d)", i, d.size)
	}
	return d.vals[i], nil
}

func (rt *Runtime) freeDict(idx uint32) {
	obj := &rt.dicts[idx]
	rt.accountFree(&obj.hdr)
	obj.keys = nil
	obj.vals = nil
	obj.hdr = objHeader{}
	obj.hdr.loc = locFree
	rt.freeDicts = append(rt.freeDicts, idx)
}

func (rt *Runtime) promoteDict(idx uint32) {
	h := &rt.dicts[idx].hdr
	if h.isDeep() {
		return
	}
	owner := h.owner
	listRemove(rt.dicts, idx, dictHdr, &owner.nurseryDictHead)
	h.owner = nil
	h.loc = locTenured
	listPushFront(rt.dicts, idx, dictHdr, &rt.tenuredDictHead)

	d := &rt.dicts[idx]
	for i := 0; i < d.size; i++ {
		if val := d.vals[i]; val.isHeap() {
			rt.promote(val)
		}
	}
}

func (rt *Runtime) reparentDict(idx uint32, to *Frame) {
	h := &rt.dicts[idx].hdr
	owner := h.owner
	listRemove(rt.dicts, idx, dictHdr, &owner.nurseryDictHead)
	h.owner = to
	listPushFront(rt.dicts, idx, dictHdr, &to.nurseryDictHead)
}
