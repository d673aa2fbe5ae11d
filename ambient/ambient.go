// Package ambient provides the process-wide "current backend" registry
// and the task-local "inside a task" marker the controller uses for
// nested-call detection (spec.md §4.6).
//
// Go has no goroutine-local storage, so the in-task marker is carried
// explicitly on a context.Context, set by the task wrapper before it
// invokes user code and read by Controller.Invoke on re-entry. This
// follows spec.md's design note directly: "express this as ... an
// explicit context object threaded through the task wrapper."
package ambient

import (
	"context"
	"sync/atomic"

	"github.com/bansalr/parfun/backend"
)

type ctxKey struct{}

// global is the process-wide ambient backend set by Configure, used
// when a call site does not specify one via WithBackend.
var global atomic.Pointer[backend.Backend]

// Configure sets the process-wide ambient backend.
func Configure(b backend.Backend) {
	if b == nil {
		global.Store(nil)
		return
	}
	global.Store(&b)
}

// Global returns the process-wide ambient backend, or nil if none was
// configured.
func Global() backend.Backend {
	p := global.Load()
	if p == nil {
		return nil
	}
	return *p
}

// WithBackend returns a context carrying b as the scoped ambient
// backend, shadowing the process-wide one for anything invoked with
// this context (spec.md §6 "with_backend(backend) -> scoped").
func WithBackend(ctx context.Context, b backend.Backend) context.Context {
	return context.WithValue(ctx, ctxKey{}, marker{backend: b})
}

// CurrentBackend resolves the ambient backend for ctx: the scoped
// backend installed by WithBackend if present, otherwise the
// process-wide one configured via Configure, otherwise nil.
func CurrentBackend(ctx context.Context) backend.Backend {
	if m, ok := ctx.Value(ctxKey{}).(marker); ok {
		return m.backend
	}
	return Global()
}

type taskMarkerKey struct{}

type marker struct {
	backend backend.Backend
}

type taskMarker struct {
	childBackend backend.Backend
}

// WithTaskMarker returns a context marking that execution is now inside
// a task running on the engine's backend. childBackend, if non-nil, is
// the handle a nested Invoke call should use to continue in parallel;
// it is non-nil only when the enclosing backend allows nested tasks.
func WithTaskMarker(ctx context.Context, childBackend backend.Backend) context.Context {
	return context.WithValue(ctx, taskMarkerKey{}, taskMarker{childBackend: childBackend})
}

// InTask reports whether ctx is executing inside a task, and if so,
// the child backend (possibly nil) installed for further nesting.
func InTask(ctx context.Context) (childBackend backend.Backend, inTask bool) {
	m, ok := ctx.Value(taskMarkerKey{}).(taskMarker)
	if !ok {
		return nil, false
	}
	return m.childBackend, true
}
