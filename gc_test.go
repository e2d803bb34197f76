package linguine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShallowGC_FreesNurseryObjectsAfterFrameExit(t *testing.T) {
	rt := Create()
	fn := newBytecodeFunction("noop", "", nil, 0, nil)
	rt.enterFrame(fn)
	_ = rt.MakeString("transient")
	before := rt.HeapUsage()
	assert.Greater(t, before, int64(0))

	rt.leaveFrame()
	rt.ShallowGC()
	assert.Equal(t, int64(0), rt.HeapUsage())
}

func TestDeepGC_KeepsReachableFreesUnreachable(t *testing.T) {
	rt := Create()
	reachable := rt.MakeString("kept")
	rt.SetGlobal("g", reachable)

	unreachableIdx := rt.MakeString("orphan").idx

	rt.DeepGC()

	_, ok := rt.GetGlobal("g")
	require.True(t, ok)
	assert.Equal(t, "kept", string(rt.StringBytes(reachable)))

	// The unreachable tenured string must have been swept: its slot is
	// now on the free list and its backing data cleared.
	assert.Contains(t, rt.freeStrings, unreachableIdx)
}

func TestDeepGC_MarksThroughArrays(t *testing.T) {
	rt := Create()
	arr := rt.MakeEmptyArray()
	rt.promote(arr)
	inner := rt.MakeString("nested")
	require.NoError(t, rt.ArraySet(arr, 0, inner))
	rt.SetGlobal("root", arr)

	rt.DeepGC()

	v, err := rt.ArrayGet(arr, 0)
	require.NoError(t, err)
	assert.Equal(t, "nested", string(rt.StringBytes(v)))
}

func TestHeapUsage_TracksGrowthAndFree(t *testing.T) {
	rt := Create()
	fn := newBytecodeFunction("noop", "", nil, 0, nil)
	rt.enterFrame(fn)
	rt.MakeString("abcdefgh")
	used := rt.HeapUsage()
	assert.Greater(t, used, int64(0))

	rt.leaveFrame()
	rt.ShallowGC()
	assert.Equal(t, int64(0), rt.HeapUsage())
}
