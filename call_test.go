package linguine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCall_NativeFunction(t *testing.T) {
	rt := Create()
	rt.RegisterNative("double", []string{"n"}, func(rt *Runtime, this *Value, args []Value) (Value, bool) {
		return IntValue(args[0].Int() * 2), true
	})

	ret, err := rt.CallByName("double", nil, []Value{IntValue(21)})
	require.NoError(t, err)
	assert.Equal(t, int32(42), ret.Int())
}

func TestCall_NativeFailureSurfacesHostError(t *testing.T) {
	rt := Create()
	rt.RegisterNative("fail", nil, func(rt *Runtime, this *Value, args []Value) (Value, bool) {
		return Value{}, false
	})

	_, err := rt.CallByName("fail", nil, nil)
	require.Error(t, err)
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrHostError, rerr.Kind)
}

func TestCall_TooManyArgumentsIsCallError(t *testing.T) {
	rt := Create()
	rt.RegisterNative("f", []string{"a"}, func(rt *Runtime, this *Value, args []Value) (Value, bool) {
		return Value{}, true
	})

	_, err := rt.CallByName("f", nil, []Value{IntValue(1), IntValue(2)})
	require.Error(t, err)
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrCallError, rerr.Kind)
}

func TestCallByName_UnknownSymbol(t *testing.T) {
	rt := Create()
	_, err := rt.CallByName("nope", nil, nil)
	require.Error(t, err)
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrSymbolNotFound, rerr.Kind)
}

func TestCallByName_NonFuncGlobalIsSymbolNotFound(t *testing.T) {
	rt := Create()
	rt.SetGlobal("x", IntValue(5))
	_, err := rt.CallByName("x", nil, nil)
	require.Error(t, err)
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrSymbolNotFound, rerr.Kind)
}

func TestCall_ReturnedStringOutlivesCalleeFrame(t *testing.T) {
	rt := Create()
	rt.RegisterNative("makeStr", nil, func(rt *Runtime, this *Value, args []Value) (Value, bool) {
		return rt.MakeString("fresh"), true
	})

	ret, err := rt.CallByName("makeStr", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(rt.StringBytes(ret)))

	rt.ShallowGC()
	assert.Equal(t, "fresh", string(rt.StringBytes(ret)))
}
