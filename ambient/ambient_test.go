package ambient_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bansalr/parfun/ambient"
	"github.com/bansalr/parfun/backend"
)

func TestCurrentBackendFallsBackToGlobal(t *testing.T) {
	defer ambient.Configure(nil)

	assert.Nil(t, ambient.CurrentBackend(context.Background()))

	b := backend.NewSequential()
	ambient.Configure(b)
	assert.Equal(t, b, ambient.CurrentBackend(context.Background()))
}

func TestWithBackendShadowsGlobal(t *testing.T) {
	defer ambient.Configure(nil)

	global := backend.NewSequential()
	ambient.Configure(global)

	scoped := backend.NewLocal()
	ctx := ambient.WithBackend(context.Background(), scoped)
	assert.Equal(t, scoped, ambient.CurrentBackend(ctx))
	assert.Equal(t, global, ambient.CurrentBackend(context.Background()))
}

func TestInTaskMarker(t *testing.T) {
	ctx := context.Background()
	_, inTask := ambient.InTask(ctx)
	assert.False(t, inTask)

	child := backend.NewLocal()
	taskCtx := ambient.WithTaskMarker(ctx, child)
	got, inTask := ambient.InTask(taskCtx)
	assert.True(t, inTask)
	assert.Equal(t, child, got)

	nonNestingCtx := ambient.WithTaskMarker(ctx, nil)
	got, inTask = ambient.InTask(nonNestingCtx)
	assert.True(t, inTask)
	assert.Nil(t, got)
}
