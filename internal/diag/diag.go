// Package diag provides the development-mode warning channel and the
// registered error handler used throughout the loom core.
//
// Warnings are advisory: duplicate sibling keys, invalid watch paths, and
// hydration mismatches are reported here and execution continues with a
// best-effort fallback. Errors are split into two severities: HandleError
// rethrows when no handler is registered (render-boundary failures must not
// pass silently), while ReportError falls back to logging so that one
// subscriber's failure never prevents its siblings from running.
package diag

import (
	"fmt"
	"log"
	"sync"
)

// DevMode enables development-mode warnings. It should be set at startup
// and not changed during runtime.
var DevMode bool

// Category classifies an error by the subsystem that produced it.
type Category string

const (
	CategoryRuntime   Category = "runtime"
	CategoryScheduler Category = "scheduler"
	CategoryPatch     Category = "patch"
	CategoryHydration Category = "hydration"
	CategoryConfig    Category = "config"
)

// Error is a structured error with a stable code and category.
type Error struct {
	// Code is a unique error identifier (e.g. "L102").
	Code string

	// Category is the subsystem the error belongs to.
	Category Category

	// Message is a short description of the error.
	Message string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Newf creates a structured error with a formatted message.
func Newf(code string, category Category, format string, args ...any) *Error {
	return &Error{
		Code:     code,
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

var (
	mu           sync.RWMutex
	warnHandler  func(msg string)
	errorHandler func(err error, context string)
)

// SetWarnHandler replaces the warning sink. Passing nil restores the
// default (stderr via the log package). Returns the previous handler.
func SetWarnHandler(fn func(msg string)) func(msg string) {
	mu.Lock()
	defer mu.Unlock()
	old := warnHandler
	warnHandler = fn
	return old
}

// SetErrorHandler registers the application error handler. Passing nil
// removes it. Returns the previous handler.
func SetErrorHandler(fn func(err error, context string)) func(err error, context string) {
	mu.Lock()
	defer mu.Unlock()
	old := errorHandler
	errorHandler = fn
	return old
}

// Warnf reports a development-mode warning. Warnings are suppressed when
// DevMode is false.
func Warnf(format string, args ...any) {
	if !DevMode {
		return
	}
	msg := fmt.Sprintf(format, args...)
	mu.RLock()
	h := warnHandler
	mu.RUnlock()
	if h != nil {
		h(msg)
		return
	}
	log.Printf("loom warn: %s", msg)
}

// HandleError reports err to the registered error handler. If no handler is
// registered the error is rethrown, so a failure at the render boundary is
// never swallowed.
func HandleError(err error, context string) {
	mu.RLock()
	h := errorHandler
	mu.RUnlock()
	if h != nil {
		h(err, context)
		return
	}
	panic(err)
}

// ReportError reports err to the registered error handler, falling back to
// logging when none is registered. It never panics; it is used where one
// failure must not prevent independent work from continuing.
func ReportError(err error, context string) {
	mu.RLock()
	h := errorHandler
	mu.RUnlock()
	if h != nil {
		h(err, context)
		return
	}
	log.Printf("loom error (%s): %v", context, err)
}

// Recovered converts a recovered panic value into an error.
func Recovered(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}
