package linguine

import "fmt"

// ErrorKind is the error taxonomy of §7.
type ErrorKind uint8

const (
	ErrOutOfMemory ErrorKind = iota
	ErrBrokenBytecode
	ErrTypeError
	ErrDivisionByZero
	ErrIndexOutOfRange
	ErrKeyNotFound
	ErrSymbolNotFound
	ErrCallError
	ErrHostError
)

func (k ErrorKind) String() string {
	switch k {
	case ErrOutOfMemory:
		return "OutOfMemory"
	case ErrBrokenBytecode:
		return "BrokenBytecode"
	case ErrTypeError:
		return "TypeError"
	case ErrDivisionByZero:
		return "DivisionByZero"
	case ErrIndexOutOfRange:
		return "IndexOutOfRange"
	case ErrKeyNotFound:
		return "KeyNotFound"
	case ErrSymbolNotFound:
		return "SymbolNotFound"
	case ErrCallError:
		return "CallError"
	case ErrHostError:
		return "HostError"
	default:
		return "UnknownError"
	}
}

// RuntimeError is the Go-native shape of a core failure: a kind from
// the §7 taxonomy, a message, and the file/line the runtime was
// executing when the failure happened. Propagation policy is "no
// local recovery" (§7): any helper that can fail returns a non-nil
// error and the interpreter loop unwinds immediately.
type RuntimeError struct {
	Kind    ErrorKind
	Message string
	File    string
	Line    int
}

// Error implements the error interface, formatting exactly the way
// §7 says a host is expected to surface failures: "file:line: error: message".
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s:%d: error: %s", e.File, e.Line, e.Message)
}

func (rt *Runtime) currentLocation() (file string, line int) {
	if rt.frame != nil {
		return rt.frame.fn.file, rt.curLine
	}
	return "", rt.curLine
}

// fail records the runtime's last-error state (§3.7) and returns it
// as an error. Every fallible opcode helper and API entry point
// routes through this single choke point.
func (rt *Runtime) fail(kind ErrorKind, format string, args ...any) error {
	file, line := rt.currentLocation()
	rt.lastError = RuntimeError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		File:    file,
		Line:    line,
	}
	rt.hasError = true
	return &rt.lastError
}

// LastError returns the runtime's most recently recorded failure, if
// any (§6.1 get_error_message/get_error_file/get_error_line).
func (rt *Runtime) LastError() (RuntimeError, bool) { return rt.lastError, rt.hasError }

// ErrorMessage mirrors §6.1's get_error_message.
func (rt *Runtime) ErrorMessage() string { return rt.lastError.Message }

// ErrorFile mirrors §6.1's get_error_file.
func (rt *Runtime) ErrorFile() string { return rt.lastError.File }

// ErrorLine mirrors §6.1's get_error_line.
func (rt *Runtime) ErrorLine() int { return rt.lastError.Line }
