package linguine

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// asm is a minimal two-pass bytecode assembler for tests: it lets
// scenarios below read like the opcode table they exercise instead of
// a wall of raw bytes, while still emitting exactly the operand shapes
// StepOpcode/step expect.
type asm struct {
	buf    []byte
	labels map[string]int
	fixups []asmFixup
}

type asmFixup struct {
	pos   int
	label string
}

func newAsm() *asm { return &asm{labels: map[string]int{}} }

func (a *asm) here() uint32 { return uint32(len(a.buf)) }

func (a *asm) label(name string) { a.labels[name] = len(a.buf) }

func (a *asm) u8(b byte)       { a.buf = append(a.buf, b) }
func (a *asm) u16(v uint16)    { a.buf = append(a.buf, byte(v>>8), byte(v)) }
func (a *asm) u32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	a.buf = append(a.buf, b[:]...)
}
func (a *asm) cstr(s string) { a.buf = append(a.buf, s...); a.buf = append(a.buf, 0) }
func (a *asm) op(o opcode)   { a.u8(byte(o)) }

func (a *asm) jumpTo(label string) {
	a.fixups = append(a.fixups, asmFixup{pos: len(a.buf), label: label})
	a.u32(0)
}

func (a *asm) finish() []byte {
	for _, f := range a.fixups {
		target, ok := a.labels[f.label]
		if !ok {
			panic("asm: unknown label " + f.label)
		}
		binary.BigEndian.PutUint32(a.buf[f.pos:], uint32(target))
	}
	return a.buf
}

func (a *asm) iconst(dst uint16, v int32) {
	a.op(opIConst)
	a.u16(dst)
	a.u32(uint32(v))
}

func (a *asm) sconst(dst uint16, s string) {
	a.op(opSConst)
	a.u16(dst)
	a.cstr(s)
}

func (a *asm) aconst(dst uint16) {
	a.op(opAConst)
	a.u16(dst)
}

func (a *asm) dconst(dst uint16) {
	a.op(opDConst)
	a.u16(dst)
}

func (a *asm) binop(o opcode, dst, x, y uint16) {
	a.op(o)
	a.u16(dst)
	a.u16(x)
	a.u16(y)
}

func (a *asm) loadSymbol(dst uint16, name string) {
	a.op(opLoadSymbol)
	a.u16(dst)
	a.cstr(name)
}

func (a *asm) storeSymbol(name string, src uint16) {
	a.op(opStoreSymbol)
	a.cstr(name)
	a.u16(src)
}

func (a *asm) storeArray(container, sub, src uint16) {
	a.op(opStoreArray)
	a.u16(container)
	a.u16(sub)
	a.u16(src)
}

func (a *asm) loadArray(dst, container, sub uint16) {
	a.op(opLoadArray)
	a.u16(dst)
	a.u16(container)
	a.u16(sub)
}

func (a *asm) call(dst, fnSlot uint16, args ...uint16) {
	a.op(opCall)
	a.u16(dst)
	a.u16(fnSlot)
	a.u8(byte(len(args)))
	for _, arg := range args {
		a.u16(arg)
	}
}

func (a *asm) thisCall(dst, obj uint16, method string, args ...uint16) {
	a.op(opThisCall)
	a.u16(dst)
	a.u16(obj)
	a.cstr(method)
	a.u8(byte(len(args)))
	for _, arg := range args {
		a.u16(arg)
	}
}

func (a *asm) jmp(label string) {
	a.op(opJmp)
	a.jumpTo(label)
}

func (a *asm) jmpIfFalse(src uint16, label string) {
	a.op(opJmpIfFalse)
	a.u16(src)
	a.jumpTo(label)
}

func (a *asm) len_(dst, src uint16) {
	a.op(opLen)
	a.u16(dst)
	a.u16(src)
}

func registerAsmFunc(rt *Runtime, name string, params []string, tmpVarSize int, a *asm) {
	rt.RegisterFunction(newBytecodeFunction(name, "<test>", params, tmpVarSize, a.finish()))
}

func TestScenario_Hello(t *testing.T) {
	rt := Create()
	var captured string
	rt.RegisterNative("print", []string{"value"}, func(rt *Runtime, this *Value, args []Value) (Value, bool) {
		captured = string(rt.StringBytes(args[0]))
		return IntValue(0), true
	})

	a := newAsm()
	a.sconst(0, "hello")
	a.loadSymbol(1, "print")
	a.call(2, 1, 0)
	registerAsmFunc(rt, "main", nil, 3, a)

	ret, err := rt.CallByName("main", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(0), ret.Int())
	assert.Equal(t, "hello", captured)
}

func TestScenario_RangedForSum(t *testing.T) {
	rt := Create()
	a := newAsm()
	// t0=i, t1=s, t2=limit(5), t3=cond, t4=one
	a.iconst(0, 0)
	a.iconst(1, 0)
	a.iconst(2, 5)
	a.iconst(4, 1)
	a.label("loop")
	a.binop(opLt, 3, 0, 2)
	a.jmpIfFalse(3, "end")
	a.binop(opAdd, 1, 1, 0)
	a.binop(opAdd, 0, 0, 4)
	a.jmp("loop")
	a.label("end")
	a.storeSymbol(returnLocalName, 1)
	registerAsmFunc(rt, "main", nil, 5, a)

	ret, err := rt.CallByName("main", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(10), ret.Int())
}

func TestScenario_DictMethodCall(t *testing.T) {
	rt := Create()

	// hello(this, x) { return x + 1; }
	h := newAsm()
	h.loadSymbol(0, "x")
	h.iconst(1, 1)
	h.binop(opAdd, 2, 0, 1)
	h.storeSymbol(returnLocalName, 2)
	registerAsmFunc(rt, "hello", []string{"x"}, 3, h)

	m := newAsm()
	// t0 = {}; t1 = hello function; o.hello = t1; call o.hello(41)
	m.dconst(0)
	m.loadSymbol(1, "hello")
	m.sconst(2, "hello")
	m.storeArray(0, 2, 1)
	m.iconst(3, 41)
	m.thisCall(4, 0, "hello", 3)
	m.storeSymbol(returnLocalName, 4)
	registerAsmFunc(rt, "main", nil, 5, m)

	ret, err := rt.CallByName("main", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(42), ret.Int())
}

func TestScenario_StringConcat(t *testing.T) {
	rt := Create()
	a := newAsm()
	a.sconst(0, "n=")
	a.iconst(1, 3)
	a.binop(opAdd, 2, 0, 1)
	a.storeSymbol(returnLocalName, 2)
	registerAsmFunc(rt, "main", nil, 3, a)

	ret, err := rt.CallByName("main", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, KindString, ret.Kind())
	assert.Equal(t, "n=3", string(rt.StringBytes(ret)))
}

func TestScenario_ArrayGrowthReclaimedByShallowGC(t *testing.T) {
	rt := Create()
	a := newAsm()
	// t0=a, t1=i, t2=limit(1000), t3=one, t4=cond, t5=len(unused)
	a.aconst(0)
	a.iconst(1, 0)
	a.iconst(2, 1000)
	a.iconst(3, 1)
	a.label("loop")
	a.binop(opLt, 4, 1, 2)
	a.jmpIfFalse(4, "end")
	a.storeArray(0, 1, 1)
	a.binop(opAdd, 1, 1, 3)
	a.jmp("loop")
	a.label("end")
	a.len_(5, 0)
	registerAsmFunc(rt, "main", nil, 6, a)

	before := rt.HeapUsage()
	_, err := rt.CallByName("main", nil, nil)
	require.NoError(t, err)
	rt.ShallowGC()
	assert.Equal(t, before, rt.HeapUsage())
}

func TestScenario_ErrorSurfaceOnMissingFunction(t *testing.T) {
	rt := Create()
	_, err := rt.CallByName("ghost", nil, nil)
	require.Error(t, err)
	msg, hasErr := rt.LastError()
	require.True(t, hasErr)
	assert.Equal(t, ErrSymbolNotFound, msg.Kind)
	assert.Contains(t, rt.ErrorMessage(), "ghost")
}

func TestVM_UnsetReturnDefaultsToIntZero(t *testing.T) {
	rt := Create()
	a := newAsm()
	a.iconst(0, 99) // computed but never stored to $return
	registerAsmFunc(rt, "main", nil, 1, a)

	ret, err := rt.CallByName("main", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, KindInt, ret.Kind())
	assert.Equal(t, int32(0), ret.Int())
}

func TestVM_JumpToEndOfBytecodeIsLegal(t *testing.T) {
	rt := Create()
	a := newAsm()
	a.jmp("end")
	a.iconst(0, 1) // dead code, skipped by the jump
	a.label("end")
	registerAsmFunc(rt, "main", nil, 1, a)

	_, err := rt.CallByName("main", nil, nil)
	require.NoError(t, err)
}

func TestVM_BrokenBytecodeOnOutOfRangeTmpVar(t *testing.T) {
	rt := Create()
	a := newAsm()
	a.iconst(5, 1) // tmpVarSize below will only allocate 1 slot
	registerAsmFunc(rt, "main", nil, 1, a)

	_, err := rt.CallByName("main", nil, nil)
	require.Error(t, err)
	var rerr *RuntimeError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, ErrBrokenBytecode, rerr.Kind)
}

func TestVM_NegIsBitwiseComplement(t *testing.T) {
	rt := Create()
	a := newAsm()
	a.iconst(0, 0)
	a.op(opNeg)
	a.u16(1)
	a.u16(0)
	a.storeSymbol(returnLocalName, 1)
	registerAsmFunc(rt, "main", nil, 2, a)

	ret, err := rt.CallByName("main", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(-1), ret.Int())
}

func TestVM_CompareMixedIntFloatYieldsFloat(t *testing.T) {
	rt := Create()
	a := newAsm()
	a.iconst(0, 2)
	a.op(opFConst)
	a.u16(1)
	a.u32(math.Float32bits(2.0))
	a.binop(opLt, 2, 0, 1)
	a.storeSymbol(returnLocalName, 2)
	registerAsmFunc(rt, "main", nil, 3, a)

	ret, err := rt.CallByName("main", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, KindFloat, ret.Kind())
	assert.Equal(t, float32(0.0), ret.Float())
}
