package linguine

// registerIntrinsics wires the four built-ins of §6.3. An argument of
// the wrong kind is reported as TypeError with a short message. Too few
// arguments is a CallError, and a missing key (unset) or a negative
// size (resize) fails with the KeyNotFound or IndexOutOfRange of the
// underlying heap operation rather than TypeError.
func registerIntrinsics(rt *Runtime) {
	rt.RegisterNative("len", []string{"val"}, intrinsicLen)
	rt.RegisterNative("push", []string{"arr", "val"}, intrinsicPush)
	rt.RegisterNative("unset", []string{"dict", "key"}, intrinsicUnset)
	rt.RegisterNative("resize", []string{"arr", "size"}, intrinsicResize)
}

func intrinsicLen(rt *Runtime, this *Value, args []Value) (Value, bool) {
	if len(args) < 1 {
		rt.fail(ErrCallError, "len: expects 1 argument, got %d", len(args))
		return Value{}, false
	}
	v := args[0]
	switch v.Kind() {
	case KindInt, KindFloat, KindFunc:
		return IntValue(0), true
	case KindString:
		return IntValue(int32(rt.StringLen(v))), true
	case KindArray:
		return IntValue(int32(rt.ArrayLen(v))), true
	case KindDict:
		return IntValue(int32(rt.DictLen(v))), true
	default:
		rt.fail(ErrTypeError, "len: unsupported value kind %s", v.Kind())
		return Value{}, false
	}
}

func intrinsicPush(rt *Runtime, this *Value, args []Value) (Value, bool) {
	if len(args) < 2 {
		rt.fail(ErrCallError, "push: expects 2 arguments, got %d", len(args))
		return Value{}, false
	}
	arr, val := args[0], args[1]
	if arr.Kind() != KindArray {
		rt.fail(ErrTypeError, "push: first argument must be an array, got %s", arr.Kind())
		return Value{}, false
	}
	if err := rt.ArrayPush(arr, val); err != nil {
		return Value{}, false
	}
	return IntValue(0), true
}

func intrinsicUnset(rt *Runtime, this *Value, args []Value) (Value, bool) {
	if len(args) < 2 {
		rt.fail(ErrCallError, "unset: expects 2 arguments, got %d", len(args))
		return Value{}, false
	}
	dict, key := args[0], args[1]
	if dict.Kind() != KindDict {
		rt.fail(ErrTypeError, "unset: first argument must be a dict, got %s", dict.Kind())
		return Value{}, false
	}
	if key.Kind() != KindString {
		rt.fail(ErrTypeError, "unset: second argument must be a string, got %s", key.Kind())
		return Value{}, false
	}
	if err := rt.DictRemove(dict, string(rt.StringBytes(key))); err != nil {
		return Value{}, false
	}
	return IntValue(0), true
}

func intrinsicResize(rt *Runtime, this *Value, args []Value) (Value, bool) {
	if len(args) < 2 {
		rt.fail(ErrCallError, "resize: expects 2 arguments, got %d", len(args))
		return Value{}, false
	}
	arr, size := args[0], args[1]
	if arr.Kind() != KindArray {
		rt.fail(ErrTypeError, "resize: first argument must be an array, got %s", arr.Kind())
		return Value{}, false
	}
	if size.Kind() != KindInt {
		rt.fail(ErrTypeError, "resize: second argument must be an int, got %s", size.Kind())
		return Value{}, false
	}
	if err := rt.ArrayResize(arr, int(size.Int())); err != nil {
		return Value{}, false
	}
	return IntValue(0), true
}
