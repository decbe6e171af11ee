package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/retail-sdw/sdwload/pkg/sdwload"
)

var _ sdwload.Logger = (*ConsoleLogger)(nil)

// ConsoleLogger writes log messages to stderr.
// Safe for concurrent use by multiple goroutines.
type ConsoleLogger struct {
	verbose bool
	out     io.Writer
	infoOut io.Writer
	mu      sync.Mutex
}

// NewConsoleLogger creates a ConsoleLogger writing to os.Stderr.
// If verbose is false, Verbose() calls are no-ops.
func NewConsoleLogger(verbose bool) *ConsoleLogger {
	return NewConsoleLoggerTo(nil, verbose)
}

// NewConsoleLoggerTo creates a ConsoleLogger writing to out.
// A nil out resolves os.Stderr at write time so redirections stay visible.
func NewConsoleLoggerTo(out io.Writer, verbose bool) *ConsoleLogger {
	return &ConsoleLogger{
		verbose: verbose,
		out:     out,
	}
}

// NewSplitConsoleLogger creates a ConsoleLogger that writes Info messages
// to infoOut and verbose and error messages to out.
func NewSplitConsoleLogger(infoOut, out io.Writer, verbose bool) *ConsoleLogger {
	return &ConsoleLogger{
		verbose: verbose,
		out:     out,
		infoOut: infoOut,
	}
}

// Verbose logs detailed diagnostic information if verbose mode is enabled.
func (l *ConsoleLogger) Verbose(format string, args ...interface{}) {
	if !l.verbose {
		return
	}
	l.write("[VERBOSE] ", format, args)
}

// Info logs informational messages about normal operations.
func (l *ConsoleLogger) Info(format string, args ...interface{}) {
	if l.infoOut != nil {
		l.writeTo(l.infoOut, "", format, args)
		return
	}
	l.write("", format, args)
}

// Error logs error messages.
func (l *ConsoleLogger) Error(format string, args ...interface{}) {
	l.write("[ERROR] ", format, args)
}

func (l *ConsoleLogger) write(prefix, format string, args []interface{}) {
	out := l.out
	if out == nil {
		out = os.Stderr
	}
	l.writeTo(out, prefix, format, args)
}

func (l *ConsoleLogger) writeTo(out io.Writer, prefix, format string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(args) > 0 {
		fmt.Fprintf(out, prefix+format+"\n", args...)
	} else {
		fmt.Fprint(out, prefix+format+"\n")
	}
}
