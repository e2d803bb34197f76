package linguine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPI_GetSetGlobal(t *testing.T) {
	rt := Create()
	_, ok := rt.GetGlobal("missing")
	assert.False(t, ok)

	rt.SetGlobal("answer", IntValue(42))
	v, ok := rt.GetGlobal("answer")
	require.True(t, ok)
	assert.Equal(t, int32(42), v.Int())

	rt.SetGlobal("answer", IntValue(43))
	v, ok = rt.GetGlobal("answer")
	require.True(t, ok)
	assert.Equal(t, int32(43), v.Int())
}

func TestAPI_SetGlobalPromotesHeapValue(t *testing.T) {
	rt := Create()
	fn := newBytecodeFunction("f", "", nil, 0, nil)
	rt.enterFrame(fn)
	s := rt.MakeString("owned")
	rt.SetGlobal("g", s)
	rt.leaveFrame()

	assert.True(t, rt.strings[s.idx].hdr.isDeep())
}

func TestAPI_FuncByValue(t *testing.T) {
	rt := Create()
	rt.RegisterNative("noop", nil, func(rt *Runtime, this *Value, args []Value) (Value, bool) {
		return Value{}, true
	})
	v, ok := rt.GetGlobal("noop")
	require.True(t, ok)

	fn := rt.FuncByValue(v)
	require.NotNil(t, fn)
	assert.Equal(t, "noop", fn.Name())
	assert.True(t, fn.IsNative())

	assert.Nil(t, rt.FuncByValue(IntValue(1)))
}

func TestAPI_GetValueType(t *testing.T) {
	rt := Create()
	assert.Equal(t, KindInt, rt.GetValueType(IntValue(1)))
	assert.Equal(t, KindString, rt.GetValueType(rt.MakeString("x")))
}
