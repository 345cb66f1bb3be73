package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventFire(t *testing.T) {
	require.True(t, EventSystemInitialize())
	t.Cleanup(func() { _ = EventSystemShutdown() })

	var got []string
	first := &struct{ name string }{"first"}
	second := &struct{ name string }{"second"}

	require.True(t, EventRegister(EVENT_CODE_RESOURCE_LOADED, first, func(ctx EventContext) bool {
		got = append(got, "first:"+ctx.Data.(*ResourceEvent).Path)
		return false
	}))
	require.True(t, EventRegister(EVENT_CODE_RESOURCE_LOADED, second, func(ctx EventContext) bool {
		got = append(got, "second")
		return true
	}))
	assert.False(t, EventRegister(EVENT_CODE_RESOURCE_LOADED, first, func(EventContext) bool { return false }))

	handled := EventFire(EventContext{Type: EVENT_CODE_RESOURCE_LOADED, Data: &ResourceEvent{Path: "rock.geom"}})
	assert.True(t, handled)
	assert.Equal(t, []string{"first:rock.geom", "second"}, got)

	assert.False(t, EventFire(EventContext{Type: EVENT_CODE_RESOURCE_EVICTED}))

	require.True(t, EventUnregister(EVENT_CODE_RESOURCE_LOADED, second))
	assert.False(t, EventUnregister(EVENT_CODE_RESOURCE_LOADED, second))
	got = nil
	assert.False(t, EventFire(EventContext{Type: EVENT_CODE_RESOURCE_LOADED, Data: &ResourceEvent{Path: "x"}}))
	assert.Equal(t, []string{"first:x"}, got)
}

func TestEventFireUninitialized(t *testing.T) {
	require.NoError(t, EventSystemShutdown())
	assert.False(t, EventRegister(EVENT_CODE_APPLICATION_QUIT, nil, func(EventContext) bool { return true }))
	assert.False(t, EventFire(EventContext{Type: EVENT_CODE_APPLICATION_QUIT}))
}

func TestIdentifierPool(t *testing.T) {
	p := NewIdentifierPool(2)
	a := p.Acquire("a")
	b := p.Acquire("b")
	assert.Equal(t, uint32(0), a)
	assert.Equal(t, uint32(1), b)

	require.NoError(t, p.Release(a))
	assert.Nil(t, p.Owner(a))
	assert.Equal(t, a, p.Acquire("c"), "released slots are reused first")
	assert.Equal(t, "c", p.Owner(a))

	assert.Error(t, p.Release(42))
}

func TestMetrics(t *testing.T) {
	require.NoError(t, MetricsInitialize())
	MetricsRecordBatches(3)
	MetricsRecordDraws(2)
	s := MetricsSnapshot()
	assert.Equal(t, uint32(3), s.FrameBatches)
	assert.Equal(t, uint32(2), s.FrameDraws)

	MetricsUpdate(0.016)
	s = MetricsSnapshot()
	assert.Zero(t, s.FrameBatches)
	assert.Equal(t, uint64(3), s.TotalBatches)
	assert.Equal(t, uint64(2), s.TotalDraws)
	assert.Equal(t, uint64(1), s.TotalFrames)
}
