package linguine

// Call implements §4.3's call(). A native function is invoked directly
// with this and args: no frame is entered for it, no locals are bound,
// and its returned value is handed back as is. A bytecode function
// gets a fresh frame with this/arguments bound as locals, runs
// (JIT-compiled when a compiler is installed, else interpreted), has
// its return value rescued out of the exiting frame's nursery, and
// then the frame is left.
func (rt *Runtime) Call(fn *Function, this *Value, args []Value) (Value, error) {
	if len(args) > maxArity {
		return Value{}, rt.fail(ErrCallError, "call to %q passes %d arguments, max is %d", fn.name, len(args), maxArity)
	}
	if len(args) > len(fn.params) {
		return Value{}, rt.fail(ErrCallError, "call to %q passes %d arguments, wants at most %d", fn.name, len(args), len(fn.params))
	}

	rt.maybeAutoGC()

	if fn.native != nil {
		return rt.callNative(fn, this, args)
	}

	if fn.jitCode == nil && rt.jit != nil {
		if code, err := rt.jit.Compile(fn); err == nil {
			fn.jitCode = code
		}
	}

	caller := rt.frame
	fr := rt.enterFrame(fn)
	if this != nil {
		fr.bindLocal(thisLocalName, *this)
	}
	for i, a := range args {
		fr.bindLocal(fn.params[i], a)
	}

	var runErr error
	if fn.jitCode != nil {
		if !fn.jitCode.Run(rt, fr) {
			runErr = rt.lastErrorAsErr()
		}
	} else {
		runErr = rt.run(fr)
	}

	if runErr != nil {
		rt.leaveFrame()
		return Value{}, runErr
	}

	ret := Value{}
	if l, ok := fr.findLocal(returnLocalName); ok {
		ret = l.val
	}
	rt.rescueReturn(ret, fr, caller)
	rt.leaveFrame()
	return ret, nil
}

func (rt *Runtime) callNative(fn *Function, this *Value, args []Value) (Value, error) {
	ret, ok := fn.native(rt, this, args)
	if !ok {
		if rt.hasError {
			return Value{}, rt.lastErrorAsErr()
		}
		return Value{}, rt.fail(ErrHostError, "native function %q failed", fn.name)
	}
	return ret, nil
}

func (rt *Runtime) lastErrorAsErr() error {
	if rt.hasError {
		return &rt.lastError
	}
	return rt.fail(ErrHostError, "unknown failure")
}

// CallByName implements §4.3's call_by_name: a global lookup for a
// Func value followed by Call. A missing or non-Func name is a
// SymbolNotFound failure with a normalized "cannot find function"
// message.
func (rt *Runtime) CallByName(name string, this *Value, args []Value) (Value, error) {
	g, ok := rt.findGlobal(name)
	if !ok || g.val.Kind() != KindFunc {
		return Value{}, rt.fail(ErrSymbolNotFound, "cannot find function %q", name)
	}
	return rt.Call(rt.functionAt(g.val.idx), this, args)
}
