package goja

import (
	stdErrors "errors"
	"testing"

	"github.com/dop251/goja"
	"github.com/reglet-dev/hostbridge/bridge"
	"github.com/reglet-dev/hostbridge/hostops"
	"github.com/reglet-dev/hostbridge/infrastructure/calltarget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const objectType = "hostops.Object"

type person struct {
	Name string
	Age  int
}

type vault struct{}

func (vault) ReadMember(string) (any, error) {
	return nil, stdErrors.New("vault sealed")
}

func newBinderFixture(t *testing.T, opts ...BinderOption) (*calltarget.Runtime, *bridge.Registry, *Binder) {
	t.Helper()
	infra := calltarget.NewRuntime()
	reg, err := bridge.NewRegistry(infra,
		bridge.WithBundle(objectType, hostops.Bundle()),
		bridge.WithOperation("ctx.Context", "current", bridge.OperationFunc(func(_ any, args []any) (any, error) {
			return args[0], nil
		})),
	)
	require.NoError(t, err)
	b, err := NewBinder(reg, opts...)
	require.NoError(t, err)
	return infra, reg, b
}

func TestNewBinder_Invalid(t *testing.T) {
	_, err := NewBinder(nil)
	assert.Error(t, err)

	_, _, b := newBinderFixture(t)
	_, err = NewBinder(b.registry, WithGlobalName(""))
	assert.Error(t, err)
	_, err = NewBinder(b.registry, WithInlineThreshold(-1))
	assert.Error(t, err)

	_, err = b.Install(nil, "ctx")
	assert.Error(t, err)
}

func TestBinding_CallSuccess(t *testing.T) {
	_, _, b := newBinderFixture(t)
	rt := goja.New()
	_, err := b.Install(rt, "ctxA")
	require.NoError(t, err)
	require.NoError(t, rt.Set("p", &person{Name: "Ada", Age: 36}))

	v, err := rt.RunString(`host.call("hostops.Object.readMember", p, "Name")`)
	require.NoError(t, err)
	assert.Equal(t, "Ada", v.Export())

	v, err = rt.RunString(`
		host.call("hostops.Object.writeMember", p, "Age", 37);
		host.call("hostops.Object.readMember", p, "Age")`)
	require.NoError(t, err)
	assert.EqualValues(t, 37, v.Export())

	v, err = rt.RunString(`[host.has("hostops.Object.readMember"), host.has("nope.nope"), host.boundaries().length]`)
	require.NoError(t, err)
	assert.Equal(t, []any{true, false, int64(10)}, v.Export())
}

func TestBinding_SignalThrownAsTypeError(t *testing.T) {
	_, _, b := newBinderFixture(t)
	rt := goja.New()
	_, err := b.Install(rt, "ctxA")
	require.NoError(t, err)
	require.NoError(t, rt.Set("p", &person{Name: "Ada"}))

	v, err := rt.RunString(`
		(function() {
			try {
				host.call("hostops.Object.readMember", p, "name");
				return null;
			} catch (e) {
				return [e instanceof TypeError, e.kind, e.boundary, e.interop, e.identifier];
			}
		})()`)
	require.NoError(t, err)
	assert.Equal(t, []any{true, "unknown_identifier", "hostops.Object.readMember", true, "name"}, v.Export())
}

func TestBinding_UncaughtSignal(t *testing.T) {
	_, _, b := newBinderFixture(t)
	rt := goja.New()
	_, err := b.Install(rt, "ctxA")
	require.NoError(t, err)

	_, err = rt.RunString(`host.call("hostops.Object.arraySize", 42)`)
	var ex *goja.Exception
	require.ErrorAs(t, err, &ex)
	obj := ex.Value().ToObject(rt)
	assert.Equal(t, "unsupported_message", obj.Get("kind").String())
}

func TestBinding_HostErrorThrownAsError(t *testing.T) {
	_, _, b := newBinderFixture(t)
	rt := goja.New()
	_, err := b.Install(rt, "ctxA")
	require.NoError(t, err)
	require.NoError(t, rt.Set("v", vault{}))

	v, err := rt.RunString(`
		(function() {
			try {
				host.call("hostops.Object.readMember", v, "secret");
				return null;
			} catch (e) {
				return [e instanceof TypeError, e.interop, e.boundary, String(e.message),
					e instanceof Error, e.value === undefined, Object.keys(e).sort().join(",")];
			}
		})()`)
	require.NoError(t, err)
	got := v.Export().([]any)
	assert.Equal(t, false, got[0])
	assert.Equal(t, false, got[1])
	assert.Equal(t, "hostops.Object.readMember", got[2])
	assert.Contains(t, got[3], "vault sealed")
	assert.Equal(t, true, got[4])
	assert.Equal(t, true, got[5], "the Go error value stays on the host")
	assert.Equal(t, "boundary,interop", got[6])
}

func TestBinding_BadCalls(t *testing.T) {
	_, _, b := newBinderFixture(t)
	rt := goja.New()
	_, err := b.Install(rt, "ctxA")
	require.NoError(t, err)

	for _, script := range []string{
		`host.call("hostops.Object.readMember")`,
		`host.call("nope.nope", 1)`,
		`host.call()`,
	} {
		_, err := rt.RunString(script)
		var ex *goja.Exception
		require.ErrorAs(t, err, &ex, script)
		assert.Contains(t, ex.Error(), "TypeError", script)
	}
}

func TestBinding_ContextPerRuntime(t *testing.T) {
	_, _, b := newBinderFixture(t)
	rtA, rtB := goja.New(), goja.New()
	bdA, err := b.Install(rtA, "ctxA")
	require.NoError(t, err)
	bdB, err := b.Install(rtB, "ctxB")
	require.NoError(t, err)
	assert.Equal(t, "ctxA", bdA.Context())
	assert.Equal(t, "ctxB", bdB.Context())

	script := `host.call("ctx.Context.current", null)`
	for i := 0; i < 3; i++ {
		v, err := rtA.RunString(script)
		require.NoError(t, err)
		assert.Equal(t, "ctxA", v.Export())

		v, err = rtB.RunString(script)
		require.NoError(t, err)
		assert.Equal(t, "ctxB", v.Export())
	}
}

func TestBinding_InlineThreshold(t *testing.T) {
	infra, reg, b := newBinderFixture(t, WithInlineThreshold(2))
	rt := goja.New()
	bd, err := b.Install(rt, "ctxA")
	require.NoError(t, err)
	require.NoError(t, rt.Set("p", &person{Name: "Ada"}))

	const boundary = "hostops.Object.readMember"
	assert.Equal(t, bridge.ModeBoundary, bd.Mode(boundary))
	assert.Nil(t, bd.Site(boundary))

	v, err := rt.RunString(`
		var names = [];
		for (var i = 0; i < 5; i++) { names.push(host.call("hostops.Object.readMember", p, "Name")); }
		names.join(",")`)
	require.NoError(t, err)
	assert.Equal(t, "Ada,Ada,Ada,Ada,Ada", v.String())

	assert.Equal(t, bridge.ModeInlined, bd.Mode(boundary))
	require.NotNil(t, bd.Site(boundary))
	assert.Equal(t, int64(3), infra.InlineCount(bd.Site(boundary)))

	h, err := reg.Lookup(boundary)
	require.NoError(t, err)
	target := h.Target().(*calltarget.Target)
	assert.Equal(t, int64(2), target.CallCount())
	assert.Equal(t, int64(3), target.InlinedCount())
}

func TestBinding_InliningDisabled(t *testing.T) {
	infra, _, b := newBinderFixture(t, WithInlineThreshold(0))
	rt := goja.New()
	bd, err := b.Install(rt, "ctxA")
	require.NoError(t, err)

	_, err = rt.RunString(`for (var i = 0; i < 20; i++) { host.call("hostops.Object.arraySize", [1, 2]); }`)
	require.NoError(t, err)

	assert.Equal(t, bridge.ModeBoundary, bd.Mode("hostops.Object.arraySize"))
	assert.Equal(t, int64(0), infra.InlineCount(bd.Site("hostops.Object.arraySize")))
}

func TestBinding_CustomGlobalName(t *testing.T) {
	_, _, b := newBinderFixture(t, WithGlobalName("bridge"))
	rt := goja.New()
	_, err := b.Install(rt, "ctx")
	require.NoError(t, err)

	v, err := rt.RunString(`typeof bridge.call === "function" && typeof host === "undefined"`)
	require.NoError(t, err)
	assert.True(t, v.ToBoolean())
}
