package safe

import (
	"PPDirect/logger"
	"PPDirect/tools/errs"
)

// SafeGo starts a new goroutine that recovers from panic,
// so that panics don't crash the entire program.
func SafeGo(name string, f func()) {
	go Run(name, f)
}

// Run calls f and turns a panic into a logged error.
func Run(name string, f func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[SafeGo] %s panic recovered: %+v", name, errs.ErrPanic(r))
		}
	}()
	f()
}
