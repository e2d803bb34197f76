// Command linguine is the host driver for the runtime: it loads a
// compiled bytecode module, registers the host-provided print
// function alongside the built-in intrinsics, calls a named entry
// point, and reports the result.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/linguine-lang/linguine"
)

func main() {
	var (
		modulePath = flag.String("module", "", "Path to a compiled .lgb bytecode module")
		entry      = flag.String("entry", "main", "Name of the global function to call")
	)
	flag.Parse()

	if *modulePath == "" {
		log.Fatal("Module not informed")
	}

	data, err := os.ReadFile(*modulePath)
	if err != nil {
		log.Fatalf("Can't read module file: %s", err.Error())
	}

	rt := linguine.Create()
	defer rt.Destroy()

	registerHostFuncs(rt)

	if err := rt.RegisterBytecode(data); err != nil {
		log.Fatalf("Can't load module: %s", err.Error())
	}

	ret, err := rt.CallByName(*entry, nil, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	fmt.Println(formatValue(rt, ret))
}

// registerHostFuncs wires the one embedding-surface function a bare
// CLI driver needs that isn't already a built-in intrinsic: print.
func registerHostFuncs(rt *linguine.Runtime) {
	rt.RegisterNative("print", []string{"value"}, func(rt *linguine.Runtime, this *linguine.Value, args []linguine.Value) (linguine.Value, bool) {
		if len(args) != 1 {
			return linguine.Value{}, false
		}
		fmt.Println(formatValue(rt, args[0]))
		return linguine.IntValue(0), true
	})
}

// formatValue renders a Value the way a host-side print would: String
// values show their actual bytes rather than Value.String()'s opaque
// "string#N" placeholder, which only makes sense without runtime
// access.
func formatValue(rt *linguine.Runtime, v linguine.Value) string {
	if v.Kind() == linguine.KindString {
		return string(rt.StringBytes(v))
	}
	return v.String()
}
