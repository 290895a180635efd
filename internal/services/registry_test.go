package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type startLog struct {
	started []string
	stopped []string
}

func (l *startLog) lifecycle(name string) Lifecycle {
	return LifecycleFuncs{
		StartFunc: func(context.Context) error {
			l.started = append(l.started, name)
			return nil
		},
		StopFunc: func(context.Context) error {
			l.stopped = append(l.stopped, name)
			return nil
		},
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	c, err := r.Register(Definition{Name: "db", Level: 2, Tagged: true})
	require.NoError(t, err)

	assert.Equal(t, "db", c.Name())
	assert.Equal(t, DefaultEnvironment, c.Environment())
	level, tagged := c.RunLevel()
	assert.Equal(t, 2, level)
	assert.True(t, tagged)

	got, ok := r.Get("db")
	require.True(t, ok)
	assert.Same(t, c, got)

	state, ok := r.State("db")
	require.True(t, ok)
	assert.Equal(t, StateStopped, state)

	_, err = r.Register(Definition{Name: "db"})
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	_, err = r.Register(Definition{})
	assert.Error(t, err)
}

func TestRegistry_ComponentsAtLevel(t *testing.T) {
	r := NewRegistry()
	for _, def := range []Definition{
		{Name: "a", Level: 1, Tagged: true},
		{Name: "plain", Level: 1},
		{Name: "b", Level: 1, Tagged: true},
		{Name: "other", Level: 1, Tagged: true, Environment: "staging"},
		{Name: "c", Level: 2, Tagged: true},
	} {
		_, err := r.Register(def)
		require.NoError(t, err)
	}

	names := func(cs []Component) []string {
		var result []string
		for _, c := range cs {
			result = append(result, c.Name())
		}
		return result
	}

	assert.Equal(t, []string{"a", "b"}, names(r.ComponentsAtLevel(1, DefaultEnvironment)))
	// Cached listings are copies.
	listing := r.ComponentsAtLevel(1, DefaultEnvironment)
	listing[0] = nil
	assert.Equal(t, []string{"a", "b"}, names(r.ComponentsAtLevel(1, DefaultEnvironment)))

	assert.Equal(t, []string{"other"}, names(r.ComponentsAtLevel(1, "staging")))
	assert.Empty(t, r.ComponentsAtLevel(3, DefaultEnvironment))

	_, err := r.Register(Definition{Name: "d", Level: 1, Tagged: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "d"}, names(r.ComponentsAtLevel(1, DefaultEnvironment)))
}

func TestRegistry_InstantiateStartsDependenciesFirst(t *testing.T) {
	log := &startLog{}
	r := NewRegistry()
	app, err := r.Register(Definition{Name: "app", Level: 1, Tagged: true, DependsOn: []string{"cache", "db"}, Lifecycle: log.lifecycle("app")})
	require.NoError(t, err)
	_, err = r.Register(Definition{Name: "cache", DependsOn: []string{"db"}, Lifecycle: log.lifecycle("cache")})
	require.NoError(t, err)
	_, err = r.Register(Definition{Name: "db", Lifecycle: log.lifecycle("db")})
	require.NoError(t, err)

	var observed []string
	err = r.Instantiate(context.Background(), app, func(c Component) error {
		observed = append(observed, c.Name())
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"db", "cache", "app"}, log.started)
	assert.Equal(t, []string{"db", "cache", "app"}, observed)
	assert.True(t, r.IsInstantiated(app))
	assert.Len(t, r.Instances(), 3)

	observed = nil
	require.NoError(t, r.Instantiate(context.Background(), app, func(c Component) error {
		observed = append(observed, c.Name())
		return nil
	}))
	assert.Empty(t, observed)
	assert.Len(t, log.started, 3)
}

func TestRegistry_InstantiateFailures(t *testing.T) {
	startErr := errors.New("refused")

	t.Run("missing dependency", func(t *testing.T) {
		r := NewRegistry()
		c, err := r.Register(Definition{Name: "app", DependsOn: []string{"ghost"}})
		require.NoError(t, err)

		err = r.Instantiate(context.Background(), c, nil)
		var ie *InstantiationError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, "app", ie.Component)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("start error", func(t *testing.T) {
		r := NewRegistry()
		c, err := r.Register(Definition{Name: "app", Lifecycle: LifecycleFuncs{
			StartFunc: func(context.Context) error { return startErr },
		}})
		require.NoError(t, err)

		err = r.Instantiate(context.Background(), c, nil)
		assert.ErrorIs(t, err, startErr)
		state, _ := r.State("app")
		assert.Equal(t, StateFailed, state)
		assert.ErrorIs(t, r.LastError("app"), startErr)
		assert.False(t, r.IsInstantiated(c))
	})

	t.Run("start panic", func(t *testing.T) {
		r := NewRegistry()
		c, err := r.Register(Definition{Name: "app", Lifecycle: LifecycleFuncs{
			StartFunc: func(context.Context) error { panic("nil map") },
		}})
		require.NoError(t, err)

		err = r.Instantiate(context.Background(), c, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panic: nil map")
	})

	t.Run("cycle", func(t *testing.T) {
		r := NewRegistry()
		a, err := r.Register(Definition{Name: "a", DependsOn: []string{"b"}})
		require.NoError(t, err)
		_, err = r.Register(Definition{Name: "b", DependsOn: []string{"a"}})
		require.NoError(t, err)

		assert.ErrorIs(t, r.Instantiate(context.Background(), a, nil), ErrResolving)
	})

	t.Run("rejected activation is stopped", func(t *testing.T) {
		log := &startLog{}
		r := NewRegistry()
		c, err := r.Register(Definition{Name: "app", Lifecycle: log.lifecycle("app")})
		require.NoError(t, err)

		err = r.Instantiate(context.Background(), c, func(Component) error { return startErr })
		assert.ErrorIs(t, err, startErr)
		assert.Equal(t, []string{"app"}, log.stopped)
		assert.False(t, r.IsInstantiated(c))
	})

	t.Run("foreign component", func(t *testing.T) {
		r := NewRegistry()
		other := NewRegistry()
		c, err := other.Register(Definition{Name: "app"})
		require.NoError(t, err)

		assert.ErrorIs(t, r.Instantiate(context.Background(), c, nil), ErrForeignComponent)
		assert.ErrorIs(t, r.Release(context.Background(), c), ErrForeignComponent)
		assert.False(t, r.IsInstantiated(c))
	})
}

func TestRegistry_PlainComponentNeedsRunLevelDependency(t *testing.T) {
	log := &startLog{}
	r := NewRegistry()
	db, err := r.Register(Definition{Name: "db", Level: 1, Tagged: true, Lifecycle: log.lifecycle("db")})
	require.NoError(t, err)
	_, err = r.Register(Definition{Name: "pool", DependsOn: []string{"db"}, Lifecycle: log.lifecycle("pool")})
	require.NoError(t, err)
	_, err = r.Register(Definition{Name: "config", Lifecycle: log.lifecycle("config")})
	require.NoError(t, err)
	report, err := r.Register(Definition{Name: "report", DependsOn: []string{"config", "pool"}, Lifecycle: log.lifecycle("report")})
	require.NoError(t, err)
	ctx := context.Background()

	err = r.Instantiate(ctx, report, nil)
	var ie *InstantiationError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "report", ie.Component)
	assert.ErrorIs(t, err, ErrRunLevelDependency)
	assert.Contains(t, err.Error(), "pool needs db")
	assert.Empty(t, log.started)
	assert.False(t, r.IsInstantiated(report))
	assert.False(t, r.IsInstantiated(db))

	// An orchestrated call may start the run-level dependency.
	var observed []string
	require.NoError(t, r.Instantiate(ctx, report, func(c Component) error {
		observed = append(observed, c.Name())
		return nil
	}))
	assert.Equal(t, []string{"config", "db", "pool", "report"}, observed)

	// Once the run-level component is up, plain lookups succeed.
	require.NoError(t, r.Release(ctx, report))
	require.NoError(t, r.Instantiate(ctx, report, nil))
	assert.True(t, r.IsInstantiated(report))
}

func TestRegistry_Release(t *testing.T) {
	stopErr := errors.New("busy")
	log := &startLog{}
	r := NewRegistry()
	ok, err := r.Register(Definition{Name: "ok", Lifecycle: log.lifecycle("ok")})
	require.NoError(t, err)
	stuck, err := r.Register(Definition{Name: "stuck", Lifecycle: LifecycleFuncs{
		StopFunc: func(context.Context) error { return stopErr },
	}})
	require.NoError(t, err)
	ctx := context.Background()

	// Releasing a stopped component is a no-op.
	require.NoError(t, r.Release(ctx, ok))
	assert.Empty(t, log.stopped)

	require.NoError(t, r.Instantiate(ctx, ok, nil))
	require.NoError(t, r.Instantiate(ctx, stuck, nil))

	require.NoError(t, r.Release(ctx, ok))
	assert.Equal(t, []string{"ok"}, log.stopped)
	assert.False(t, r.IsInstantiated(ok))

	err = r.Release(ctx, stuck)
	var re *ReleaseError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "stuck", re.Component)
	assert.ErrorIs(t, err, stopErr)
	assert.False(t, r.IsInstantiated(stuck))
	state, _ := r.State("stuck")
	assert.Equal(t, StateFailed, state)
}

func TestKinds(t *testing.T) {
	k := NewKinds()
	assert.Equal(t, []string{KindNoop}, k.Names())

	lc, err := k.Build("", KindSpec{Name: "marker"})
	require.NoError(t, err)
	assert.NoError(t, lc.Start(context.Background()))

	_, err = k.Build("docker", KindSpec{Name: "x"})
	assert.ErrorIs(t, err, ErrUnknownKind)

	buildErr := errors.New("namespace is required")
	require.NoError(t, k.Register("namespace", func(KindSpec) (Lifecycle, error) { return nil, buildErr }))
	assert.ErrorIs(t, k.Register("namespace", func(KindSpec) (Lifecycle, error) { return Noop, nil }), ErrAlreadyRegistered)
	assert.Equal(t, []string{"namespace", KindNoop}, k.Names())

	_, err = k.Build("namespace", KindSpec{Name: "ns"})
	assert.ErrorIs(t, err, buildErr)
	assert.Contains(t, err.Error(), "component ns (namespace)")
}
