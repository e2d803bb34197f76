package linguine

// noIndex is the sentinel "nil" arena index used by intrusive list
// linkage (prev/next) and by empty list heads.
const noIndex = ^uint32(0)

// objLoc records which of the three owning lists (§3.8/§3.9) a heap
// object currently belongs to. It is the list-identity encoding of
// the source's "is_deep" flag described in the DESIGN NOTES: rather
// than a bare bool, the object's location doubles as the flag (deep
// iff objLoc is locTenured) and tells promote/GC which head pointer
// to splice against.
type objLoc uint8

const (
	locFree objLoc = iota
	locNursery
	locTenured
	locGarbage
)

// objHeader is embedded in every heap object kind (string/array/dict).
// prev/next are arena indices within the object's own arena; noIndex
// marks a missing neighbour. owner is only meaningful while loc ==
// locNursery: it is the frame whose nursery list currently owns this
// object, and is exactly what lets promote() and the return-value
// rescue walk find the right list head to unlink from without a
// linear search.
type objHeader struct {
	prev, next uint32
	loc        objLoc
	owner      *Frame
	marked     bool

	// accounted is the number of bytes this object currently
	// contributes to Runtime.heapUsage. Freeing or shrinking the
	// object always subtracts exactly this much, so heap-usage
	// bookkeeping stays exact regardless of how many times the
	// object grew in between.
	accounted int64
}

func (h *objHeader) isDeep() bool { return h.loc == locTenured }

// listRemove unlinks the object at idx from whichever list head is
// passed in, patching neighbours' prev/next and, if idx was the head,
// the head variable itself.
func listRemove[T any](arena []T, idx uint32, hdr func(*T) *objHeader, head *uint32) {
	h := hdr(&arena[idx])
	if h.prev != noIndex {
		hdr(&arena[h.prev]).next = h.next
	} else {
		*head = h.next
	}
	if h.next != noIndex {
		hdr(&arena[h.next]).prev = h.prev
	}
	h.prev, h.next = noIndex, noIndex
}

// listPushFront links the object at idx onto the front of the list
// rooted at head.
func listPushFront[T any](arena []T, idx uint32, hdr func(*T) *objHeader, head *uint32) {
	h := hdr(&arena[idx])
	h.prev = noIndex
	h.next = *head
	if *head != noIndex {
		hdr(&arena[*head]).prev = idx
	}
	*head = idx
}

// moveListToGarbage splices every object currently on the list rooted
// at head onto the front of garbageHead, tagging each as locGarbage
// and clearing its owner. Used by Frame exit (§4.3 leave_frame).
func moveListToGarbage[T any](arena []T, head *uint32, hdr func(*T) *objHeader, garbageHead *uint32) {
	cur := *head
	for cur != noIndex {
		h := hdr(&arena[cur])
		next := h.next
		h.loc = locGarbage
		h.owner = nil
		h.prev = noIndex
		h.next = *garbageHead
		if *garbageHead != noIndex {
			hdr(&arena[*garbageHead]).prev = cur
		}
		*garbageHead = cur
		cur = next
	}
	*head = noIndex
}

func (rt *Runtime) accountGrow(h *objHeader, newUsage int64) {
	rt.heapUsage += newUsage - h.accounted
	h.accounted = newUsage
}

func (rt *Runtime) accountFree(h *objHeader) {
	rt.heapUsage -= h.accounted
	h.accounted = 0
}
