// Package panics adapts the teacher's util/panics goroutine-wrapper idiom:
// every long-running worker this module starts (masternode.Node's
// check-and-remove loop and snapshot loop) is spawned through
// GoroutineWrapperFunc so
// a panic is logged with a stack trace instead of taking the process down
// silently.
package panics

import (
	"runtime/debug"

	"github.com/decred/slog"
)

// HandlePanic recovers a panic, logs it with the captured goroutine stack
// trace, and re-panics is deliberately not done: this subsystem never owns
// process lifetime, so it only logs and returns.
func HandlePanic(log slog.Logger, goroutineStackTrace []byte) {
	err := recover()
	if err == nil {
		return
	}
	log.Criticalf("fatal error: %+v", err)
	if goroutineStackTrace != nil {
		log.Criticalf("goroutine stack trace: %s", goroutineStackTrace)
	}
	log.Criticalf("stack trace: %s", debug.Stack())
}

// GoroutineWrapperFunc returns a goroutine wrapper function that handles
// panics and writes them to log.
func GoroutineWrapperFunc(log slog.Logger) func(func()) {
	return func(f func()) {
		stackTrace := debug.Stack()
		go func() {
			defer HandlePanic(log, stackTrace)
			f()
		}()
	}
}
