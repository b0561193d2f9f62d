package hostops

import (
	stdErrors "errors"
	"testing"

	"github.com/reglet-dev/hostbridge/bridge"
	"github.com/reglet-dev/hostbridge/domain/errors"
	"github.com/reglet-dev/hostbridge/infrastructure/calltarget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const objectType = "hostops.Object"

func newObjectRegistry(t *testing.T) *bridge.Registry {
	t.Helper()
	reg, err := bridge.NewRegistry(calltarget.NewRuntime(), bridge.WithBundle(objectType, Bundle()))
	require.NoError(t, err)
	return reg
}

func TestBridge_MissingMemberSignalsUnmodified(t *testing.T) {
	reg := newObjectRegistry(t)
	h, err := reg.Get(objectType, OpReadMember)
	require.NoError(t, err)

	_, err = reg.Invoker().Call(h, "ctxA", &person{Name: "Ada"}, "name")
	sig, ok := errors.AsSignal(err)
	require.True(t, ok)
	assert.Equal(t, errors.SignalUnknownIdentifier, sig.Kind)
	assert.Equal(t, "name", sig.Identifier)
	_, isHost := errors.AsHostError(err)
	assert.False(t, isHost)
}

func TestBridge_ReceiverFaultTaggedWithContext(t *testing.T) {
	reg := newObjectRegistry(t)
	h, err := reg.Lookup(objectType + "." + OpReadMember)
	require.NoError(t, err)

	ctxA := &struct{ id string }{"ctxA"}
	fault := stdErrors.New("backing store closed")
	_, err = reg.Invoker().Call(h, ctxA, &flakyRecord{fault: fault}, "id")

	hostErr, ok := errors.AsHostError(err)
	require.True(t, ok)
	assert.Same(t, ctxA, hostErr.Context)
	assert.Equal(t, objectType+"."+OpReadMember, hostErr.Boundary)
	assert.ErrorIs(t, err, fault)
}

func TestBridge_ReceiverPanicTaggedWithContext(t *testing.T) {
	reg := newObjectRegistry(t)
	h, err := reg.Get(objectType, OpExecute)
	require.NoError(t, err)

	boom := func() { panic("exploded") }
	_, err = reg.Invoker().Call(h, "ctxA", boom)

	hostErr, ok := errors.AsHostError(err)
	require.True(t, ok)
	assert.Equal(t, "ctxA", hostErr.Context)
	var pe *errors.PanicError
	assert.ErrorAs(t, err, &pe)
}

func TestBridge_SequentialContextsShareNothing(t *testing.T) {
	reg := newObjectRegistry(t)
	h, err := reg.Get(objectType, OpReadMember)
	require.NoError(t, err)
	inv := reg.Invoker()
	site := calltarget.NewNode("site", nil)

	_, err = inv.Call(h, "ctxA", &flakyRecord{fault: stdErrors.New("down")}, "id")
	hostErr, ok := errors.AsHostError(err)
	require.True(t, ok)
	assert.Equal(t, "ctxA", hostErr.Context)

	got, err := inv.CallInlined(site, h, "ctxB", &flakyRecord{}, "id")
	require.NoError(t, err)
	assert.Equal(t, 42, got)

	_, err = inv.CallInlined(site, h, "ctxB", &flakyRecord{fault: stdErrors.New("down")}, "id")
	hostErr, ok = errors.AsHostError(err)
	require.True(t, ok)
	assert.Equal(t, "ctxB", hostErr.Context)
}

func TestBridge_WrongArityIsSignal(t *testing.T) {
	reg := newObjectRegistry(t)
	h, err := reg.Get(objectType, OpArraySize)
	require.NoError(t, err)

	_, err = reg.Invoker().Call(h, "ctx", []int{1}, "unexpected")
	assert.True(t, errors.IsSignalKind(err, errors.SignalArity))
}
