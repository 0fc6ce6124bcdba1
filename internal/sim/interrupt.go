package sim

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
)

// The interrupt flag is process-wide: a SIGINT during any solve marks the
// run for clean shutdown. Installed on the first solver invocation,
// cleared when the solve returns.
var (
	interruptFlag atomic.Bool
	interruptOnce sync.Once
)

// InstallInterruptHandler hooks SIGINT into the shared flag. Safe to call
// from every solver; the handler is installed once per process.
func InstallInterruptHandler() {
	interruptOnce.Do(func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt)
		go func() {
			for range ch {
				interruptFlag.Store(true)
			}
		}()
	})
}

// Interrupted reports whether a shutdown was requested.
func Interrupted() bool { return interruptFlag.Load() }

// RequestInterrupt sets the flag programmatically, in place of a real
// signal.
func RequestInterrupt() { interruptFlag.Store(true) }

// ClearInterrupt resets the flag when a solve returns.
func ClearInterrupt() { interruptFlag.Store(false) }
