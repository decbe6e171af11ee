package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/retail-sdw/sdwload/internal/cli"
	"github.com/retail-sdw/sdwload/pkg/sdwload"
)

func main() {
	// Recover from panics to ensure graceful exits with stack traces
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "panic: %v\n%s\n", r, debug.Stack())
			os.Exit(sdwload.ExitPanic)
		}
	}()

	if os.Getenv("SDWLOAD_TEST_PANIC") == "1" {
		panic("intentional test panic")
	}

	if err := cli.Execute(); err != nil {
		os.Exit(sdwload.ExitCodeForError(err))
	}
}
