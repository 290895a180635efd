package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRegistry_LifecycleCalledOncePerInstance(t *testing.T) {
	lc := &mockLifecycle{}
	lc.On("Start", mock.Anything).Return(nil).Once()
	lc.On("Stop", mock.Anything).Return(nil).Once()

	r := NewRegistry()
	c, err := r.Register(Definition{Name: "db", Level: 1, Tagged: true, Lifecycle: lc})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, r.Instantiate(ctx, c, nil))
	require.NoError(t, r.Instantiate(ctx, c, nil))
	state, _ := r.State("db")
	assert.Equal(t, StateRunning, state)

	require.NoError(t, r.Release(ctx, c))
	require.NoError(t, r.Release(ctx, c))

	lc.AssertExpectations(t)
	lc.AssertNumberOfCalls(t, "Start", 1)
	lc.AssertNumberOfCalls(t, "Stop", 1)
}

func TestRegistry_FailedDependencyDoesNotStartDependent(t *testing.T) {
	dbErr := errors.New("disk full")
	db := &mockLifecycle{}
	db.On("Start", mock.Anything).Return(dbErr)
	app := &mockLifecycle{}

	r := NewRegistry()
	_, err := r.Register(Definition{Name: "db", Lifecycle: db})
	require.NoError(t, err)
	c, err := r.Register(Definition{Name: "app", Level: 1, Tagged: true, DependsOn: []string{"db"}, Lifecycle: app})
	require.NoError(t, err)

	err = r.Instantiate(context.Background(), c, nil)
	assert.ErrorIs(t, err, dbErr)
	app.AssertNotCalled(t, "Start", mock.Anything)
	db.AssertExpectations(t)
}
