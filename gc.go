package linguine

// ShallowGC implements §4.5's shallow collection: free every object on
// the three garbage lists and reset the heads to empty. It performs
// no tracing and is safe to call at any point between opcodes.
func (rt *Runtime) ShallowGC() {
	cur := rt.garbageStrHead
	for cur != noIndex {
		next := rt.strings[cur].hdr.next
		rt.freeString(cur)
		cur = next
	}
	rt.garbageStrHead = noIndex

	cur = rt.garbageArrHead
	for cur != noIndex {
		next := rt.arrays[cur].hdr.next
		rt.freeArray(cur)
		cur = next
	}
	rt.garbageArrHead = noIndex

	cur = rt.garbageDictHead
	for cur != noIndex {
		next := rt.dicts[cur].hdr.next
		rt.freeDict(cur)
		cur = next
	}
	rt.garbageDictHead = noIndex

	rt.usageAtLastGC = rt.heapUsage
}

// DeepGC implements §4.5's mark-and-sweep collection: shallow GC,
// clear tenured mark bits, mark recursively from every global, then
// sweep the tenured lists of anything left unmarked.
func (rt *Runtime) DeepGC() {
	rt.ShallowGC()

	for i := range rt.strings {
		if rt.strings[i].hdr.loc == locTenured {
			rt.strings[i].hdr.marked = false
		}
	}
	for i := range rt.arrays {
		if rt.arrays[i].hdr.loc == locTenured {
			rt.arrays[i].hdr.marked = false
		}
	}
	for i := range rt.dicts {
		if rt.dicts[i].hdr.loc == locTenured {
			rt.dicts[i].hdr.marked = false
		}
	}

	for g := rt.globals; g != nil; g = g.next {
		rt.markValue(g.val)
	}

	rt.sweepTenured()
	rt.usageAtLastGC = rt.heapUsage
}

func (rt *Runtime) markValue(v Value) {
	switch v.kind {
	case KindString:
		rt.strings[v.idx].hdr.marked = true
	case KindArray:
		rt.markArray(v.idx)
	case KindDict:
		rt.markDict(v.idx)
	}
}

func (rt *Runtime) markArray(idx uint32) {
	a := &rt.arrays[idx]
	if a.hdr.marked {
		return
	}
	a.hdr.marked = true
	for i := 0; i < a.size; i++ {
		if el := a.table[i]; el.isHeap() {
			rt.markValue(el)
		}
	}
}

func (rt *Runtime) markDict(idx uint32) {
	d := &rt.dicts[idx]
	if d.hdr.marked {
		return
	}
	d.hdr.marked = true
	for i := 0; i < d.size; i++ {
		if val := d.vals[i]; val.isHeap() {
			rt.markValue(val)
		}
	}
}

// sweepTenured walks each tenured list once, unlinking and freeing
// every object whose mark bit is still clear.
func (rt *Runtime) sweepTenured() {
	cur := rt.tenuredStrHead
	for cur != noIndex {
		next := rt.strings[cur].hdr.next
		if !rt.strings[cur].hdr.marked {
			listRemove(rt.strings, cur, stringHdr, &rt.tenuredStrHead)
			rt.freeString(cur)
		}
		cur = next
	}
	cur = rt.tenuredArrHead
	for cur != noIndex {
		next := rt.arrays[cur].hdr.next
		if !rt.arrays[cur].hdr.marked {
			listRemove(rt.arrays, cur, arrayHdr, &rt.tenuredArrHead)
			rt.freeArray(cur)
		}
		cur = next
	}
	cur = rt.tenuredDictHead
	for cur != noIndex {
		next := rt.dicts[cur].hdr.next
		if !rt.dicts[cur].hdr.marked {
			listRemove(rt.dicts, cur, dictHdr, &rt.tenuredDictHead)
			rt.freeDict(cur)
		}
		cur = next
	}
}
