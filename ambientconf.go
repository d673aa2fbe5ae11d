package parfun

import (
	"context"

	"github.com/bansalr/parfun/ambient"
	"github.com/bansalr/parfun/backend"
)

// Configure sets the process-wide ambient backend every Invoke call uses
// when its context carries no scoped override (spec.md §6 "configure
// (backend, [options])"). Passing nil clears it, reverting Invoke to the
// sequential fallback.
func Configure(b backend.Backend) {
	ambient.Configure(b)
}

// CurrentBackend returns the process-wide ambient backend, or nil if none
// was configured via Configure.
func CurrentBackend() backend.Backend {
	return ambient.Global()
}

// WithBackend returns a context carrying b as the scoped ambient backend
// for anything invoked with it, shadowing the process-wide one set by
// Configure (spec.md §6 "with_backend(backend) -> scoped").
func WithBackend(ctx context.Context, b backend.Backend) context.Context {
	return ambient.WithBackend(ctx, b)
}
