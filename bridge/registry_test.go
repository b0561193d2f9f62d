package bridge

import (
	stdErrors "errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/reglet-dev/hostbridge/infrastructure/calltarget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoOperation() Operation {
	return OperationFunc(func(receiver any, args []any) (any, error) {
		return receiver, nil
	})
}

func TestNewRegistry_Empty(t *testing.T) {
	reg, err := NewRegistry(calltarget.NewRuntime())
	require.NoError(t, err)
	require.NotNil(t, reg)
	assert.Empty(t, reg.Names())
	assert.Equal(t, 0, reg.Len())
	assert.NotNil(t, reg.Invoker())
}

func TestNewRegistry_NilInfrastructure(t *testing.T) {
	_, err := NewRegistry(nil)
	assert.Error(t, err)
}

func TestNewRegistry_WithOperation(t *testing.T) {
	reg, err := NewRegistry(calltarget.NewRuntime(),
		WithOperation("Person", "echo", echoOperation()),
	)
	require.NoError(t, err)

	assert.True(t, reg.Has("Person.echo"))
	assert.False(t, reg.Has("Person.nonexistent"))
	assert.False(t, reg.Has("garbage"))
	assert.Equal(t, []string{"Person.echo"}, reg.Names())
	assert.Equal(t, 0, reg.Len(), "declared operations are created lazily")
}

func TestNewRegistry_DuplicateOperation(t *testing.T) {
	_, err := NewRegistry(calltarget.NewRuntime(),
		WithOperation("Person", "echo", echoOperation()),
		WithOperation("Person", "echo", echoOperation()),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate operation")
}

func TestNewRegistry_InvalidDeclarations(t *testing.T) {
	tests := []struct {
		name string
		opt  RegistryOption
		want string
	}{
		{name: "empty target", opt: WithOperation("", "op", echoOperation()), want: "target type"},
		{name: "empty operation", opt: WithOperation("T", "", echoOperation()), want: "operation name"},
		{name: "nil operation", opt: WithOperation("T", "op", nil), want: "cannot be nil"},
		{name: "nil factory", opt: WithOperationFactory("T", "op", nil), want: "cannot be nil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(calltarget.NewRuntime(), tt.opt)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRegistry_GetCachesHandle(t *testing.T) {
	reg, err := NewRegistry(calltarget.NewRuntime(),
		WithOperation("Person", "echo", echoOperation()),
	)
	require.NoError(t, err)

	h1, err := reg.Get("Person", "echo")
	require.NoError(t, err)
	h2, err := reg.Lookup("Person.echo")
	require.NoError(t, err)

	assert.Same(t, h1, h2)
	assert.Same(t, h1.Unit(), h1.Target().Root())
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_GetUnknown(t *testing.T) {
	reg, err := NewRegistry(calltarget.NewRuntime())
	require.NoError(t, err)

	_, err = reg.Get("Person", "missing")
	assert.ErrorIs(t, err, ErrOperationNotFound)

	_, err = reg.Lookup("not-a-boundary")
	assert.ErrorIs(t, err, ErrOperationNotFound)
}

func TestRegistry_FactoryCalledOnce(t *testing.T) {
	var builds atomic.Int32
	reg, err := NewRegistry(calltarget.NewRuntime(),
		WithOperationFactory("Person", "lazy", func() (Operation, error) {
			builds.Add(1)
			return echoOperation(), nil
		}),
	)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := reg.Get("Person", "lazy")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), builds.Load())
}

func TestRegistry_FactoryError(t *testing.T) {
	reg, err := NewRegistry(calltarget.NewRuntime(),
		WithOperationFactory("Person", "broken", func() (Operation, error) {
			return nil, stdErrors.New("no backend")
		}),
	)
	require.NoError(t, err)

	_, err = reg.Get("Person", "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no backend")
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_GetOrCreate(t *testing.T) {
	reg, err := NewRegistry(calltarget.NewRuntime())
	require.NoError(t, err)

	h1, err := reg.GetOrCreate("Socket", "read", func() (Operation, error) { return echoOperation(), nil })
	require.NoError(t, err)

	h2, err := reg.GetOrCreate("Socket", "read", func() (Operation, error) {
		t.Fatal("second factory must not run")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Same(t, h1, h2)
	assert.Equal(t, []string{"Socket.read"}, reg.Names())

	_, err = reg.GetOrCreate("Socket", "write", nil)
	assert.Error(t, err)
}

func TestRegistry_ConcurrentFirstUseConverges(t *testing.T) {
	var builds atomic.Int32
	infra := calltarget.NewRuntime()
	reg, err := NewRegistry(infra)
	require.NoError(t, err)

	const workers = 32
	handles := make([]*Handle, workers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			h, err := reg.GetOrCreate("Person", "echo", func() (Operation, error) {
				builds.Add(1)
				return echoOperation(), nil
			})
			if err == nil {
				handles[i] = h
			}
		}(i)
	}
	close(start)
	wg.Wait()

	for i := 1; i < workers; i++ {
		require.NotNil(t, handles[i])
		assert.Same(t, handles[0], handles[i])
	}
	assert.Equal(t, int32(1), builds.Load(), "strict deduplication builds one unit per key")
	assert.Equal(t, 1, reg.Len())
	assert.True(t, infra.IsShared(handles[0].Unit()))
}

func TestRegistry_WithBundle(t *testing.T) {
	bundle := Compose(
		NewBundle(map[string]Operation{"a": echoOperation()}),
		NewBundle(map[string]Operation{"b": echoOperation()}),
	)
	reg, err := NewRegistry(calltarget.NewRuntime(), WithBundle("Obj", bundle))
	require.NoError(t, err)

	assert.Equal(t, []string{"Obj.a", "Obj.b"}, reg.Names())
}

func TestRegistry_WithBundleDuplicate(t *testing.T) {
	bundle := NewBundle(map[string]Operation{"a": echoOperation()})
	_, err := NewRegistry(calltarget.NewRuntime(),
		WithBundle("Obj", bundle),
		WithOperation("Obj", "a", echoOperation()),
	)
	assert.Error(t, err)
}
