package systems

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/spaghettifunk/anima-instancing/engine/core"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-instancing/engine/resources"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	created   int
	destroyed int
}

func (b *fakeBackend) RenderBufferCreate(t metadata.RenderBufferType, size uint64) (*metadata.RenderBuffer, error) {
	b.created++
	return &metadata.RenderBuffer{RenderBufferType: t, TotalSize: size}, nil
}

func (b *fakeBackend) RenderBufferLoadRange(*metadata.RenderBuffer, uint64, []byte) error {
	return nil
}

func (b *fakeBackend) RenderBufferDestroy(*metadata.RenderBuffer) {
	b.destroyed++
}

func (b *fakeBackend) DrawInstanced(*metadata.InstancedDrawCommand) {}

type fakeAssets struct {
	mutex sync.Mutex
	loads map[string]int
	fail  map[string]error
	gate  chan struct{}
}

func newFakeAssets() *fakeAssets {
	return &fakeAssets{loads: make(map[string]int), fail: make(map[string]error)}
}

func (a *fakeAssets) FullPath(path string) string {
	return "/assets/" + path
}

func (a *fakeAssets) LoadAsset(path string, params interface{}) (*metadata.Resource, error) {
	if a.gate != nil {
		<-a.gate
	}
	a.mutex.Lock()
	a.loads[path]++
	err := a.fail[path]
	a.mutex.Unlock()
	if err != nil {
		return nil, err
	}
	var data interface{}
	switch {
	case len(path) > 5 && path[len(path)-5:] == ".geom":
		data = &resources.GeometryData{Meshes: []*resources.SubMeshData{{
			Stride:   12,
			Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
			Indices:  []uint32{0, 1, 2},
			Areas:    []resources.GeometryArea{{IndexCount: 3}},
		}}}
	default:
		data = &resources.InstanceData{Streams: []*resources.InstanceStreamData{{
			Stride: 16, Count: 1, Data: []float32{0, 0, 0, 1},
		}}}
	}
	return &metadata.Resource{Name: path, FullPath: a.FullPath(path), Data: data}, nil
}

func (a *fakeAssets) loadCount(path string) int {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.loads[path]
}

func newResourceSystem(t *testing.T, config ResourceSystemConfig) (*ResourceSystem, *fakeAssets, *fakeBackend) {
	t.Helper()
	js, err := NewJobSystem(2, 8)
	require.NoError(t, err)
	assets := newFakeAssets()
	backend := &fakeBackend{}
	rs, err := NewResourceSystem(&config, js, assets, backend)
	require.NoError(t, err)
	t.Cleanup(func() {
		rs.Shutdown()
		js.Shutdown()
	})
	return rs, assets, backend
}

// pump runs frames until cond holds, returning the last frame used.
func pump(t *testing.T, rs *ResourceSystem, frame uint64, cond func() bool) uint64 {
	t.Helper()
	for i := 0; i < 500; i++ {
		rs.Update(frame)
		if cond() {
			return frame
		}
		frame++
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met after 500 frames")
	return frame
}

func handle(res interface{}) *resources.Handle {
	return res.(resources.Loadable).Base()
}

func TestResourceSystemLifecycle(t *testing.T) {
	rs, assets, backend := newResourceSystem(t, ResourceSystemConfig{EvictionFrames: 3, MaxLoadsPerFrame: 4, QueueSize: 8})

	geom := rs.AcquireGeometry("rock.geom")
	require.NotNil(t, geom)
	assert.False(t, geom.IsReady())
	assert.Equal(t, resources.ResourceStateLoading, handle(geom).State())
	assert.Equal(t, "/assets/rock.geom", handle(geom).FullPath)

	frame := pump(t, rs, 1, geom.IsReady)
	assert.Equal(t, 2, backend.created)

	// kept alive: stays resident
	for i := 0; i < 10; i++ {
		frame++
		geom.KeepAlive()
		rs.Update(frame)
	}
	assert.True(t, geom.IsReady())

	// not kept alive: evicted
	frame += 4
	rs.Update(frame)
	assert.False(t, geom.IsReady())
	assert.Equal(t, resources.ResourceStateUnloaded, handle(geom).State())
	assert.Equal(t, 2, backend.destroyed)

	// keep alive on an evicted resource queues a reload
	geom.KeepAlive()
	assert.Equal(t, resources.ResourceStateLoading, handle(geom).State())
	pump(t, rs, frame+1, geom.IsReady)
	assert.Equal(t, 2, assets.loadCount("rock.geom"))
}

func TestResourceSystemSharesResources(t *testing.T) {
	rs, assets, backend := newResourceSystem(t, ResourceSystemConfig{MaxLoadsPerFrame: 1, QueueSize: 4})

	a := rs.AcquireInstanceData("field.inst")
	b := rs.AcquireInstanceData("./field.inst")
	assert.Same(t, a, b)
	assert.Equal(t, 2, handle(a).RefCount())

	pump(t, rs, 1, func() bool { return handle(a).IsReady() })
	assert.Equal(t, 1, assets.loadCount("field.inst"))
	assert.NotNil(t, a.InstanceBuffer(0))

	rs.Release("field.inst")
	_, ok := rs.Get("field.inst")
	assert.True(t, ok)

	rs.Release("field.inst")
	_, ok = rs.Get("field.inst")
	assert.False(t, ok)
	assert.Equal(t, 1, backend.destroyed)
	assert.Nil(t, a.InstanceBuffer(0))

	rs.Release("field.inst")
}

func TestResourceSystemTypeMismatch(t *testing.T) {
	rs, _, _ := newResourceSystem(t, ResourceSystemConfig{MaxLoadsPerFrame: 1, QueueSize: 4})

	require.NotNil(t, rs.AcquireGeometry("rock.geom"))
	assert.Nil(t, rs.AcquireInstanceData("rock.geom"))
}

func TestResourceSystemFailure(t *testing.T) {
	if !core.EventSystemInitialize() {
		t.Skip("event system already initialized")
	}
	defer core.EventSystemShutdown()

	rs, assets, _ := newResourceSystem(t, ResourceSystemConfig{MaxLoadsPerFrame: 2, QueueSize: 4})
	assets.fail["broken.geom"] = errors.New("bad file")

	var failed []string
	listener := new(int)
	core.EventRegister(core.EVENT_CODE_RESOURCE_FAILED, listener, func(ctx core.EventContext) bool {
		failed = append(failed, ctx.Data.(*core.ResourceEvent).Path)
		return true
	})

	geom := rs.AcquireGeometry("broken.geom")
	frame := pump(t, rs, 1, func() bool { return handle(geom).State() == resources.ResourceStateFailed })
	assert.Equal(t, []string{"broken.geom"}, failed)

	// failed resources are not retried by keep alive
	geom.KeepAlive()
	rs.Update(frame + 1)
	assert.Equal(t, resources.ResourceStateFailed, handle(geom).State())

	delete(assets.fail, "broken.geom")
	require.True(t, rs.Reload("broken.geom"))
	pump(t, rs, frame+2, geom.IsReady)
	assert.False(t, rs.Reload("unknown.geom"))
}

func TestResourceSystemQueueLimits(t *testing.T) {
	rs, assets, _ := newResourceSystem(t, ResourceSystemConfig{MaxLoadsPerFrame: 1, QueueSize: 2})
	assets.gate = make(chan struct{})

	a := rs.AcquireGeometry("a.geom")
	b := rs.AcquireGeometry("b.geom")
	c := rs.AcquireGeometry("c.geom")
	// the queue holds two requests, the third is retried on keep alive
	assert.Equal(t, resources.ResourceStateUnloaded, handle(c).State())

	rs.Update(1)
	assert.Equal(t, 1, rs.pending.Len())

	close(assets.gate)
	pump(t, rs, 2, func() bool { return a.IsReady() && b.IsReady() })

	c.KeepAlive()
	pump(t, rs, 100, c.IsReady)
}

func TestResourceSystemDropsStaleLoads(t *testing.T) {
	rs, assets, backend := newResourceSystem(t, ResourceSystemConfig{MaxLoadsPerFrame: 1, QueueSize: 2})
	assets.gate = make(chan struct{})

	geom := rs.AcquireGeometry("rock.geom")
	rs.Update(1)
	rs.Release("rock.geom")
	close(assets.gate)

	require.Eventually(t, func() bool { return assets.loadCount("rock.geom") == 1 }, time.Second, time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	rs.Update(2)
	assert.False(t, geom.IsReady())
	assert.Zero(t, backend.created)
}

func TestResourceSystemReloadBeforeDispatch(t *testing.T) {
	rs, assets, _ := newResourceSystem(t, ResourceSystemConfig{MaxLoadsPerFrame: 4, QueueSize: 4})

	geom := rs.AcquireGeometry("rock.geom")
	require.True(t, rs.Reload("rock.geom"))
	require.True(t, rs.Reload("rock.geom"))
	assert.Equal(t, 1, rs.pending.Len())
	assert.Equal(t, resources.ResourceStateLoading, handle(geom).State())

	frame := pump(t, rs, 1, geom.IsReady)
	for i := uint64(1); i <= 5; i++ {
		geom.KeepAlive()
		rs.Update(frame + i)
		time.Sleep(time.Millisecond)
	}
	assert.True(t, geom.IsReady())
	assert.Equal(t, 1, assets.loadCount("rock.geom"))
	assert.Empty(t, rs.queued)
}

func TestResourceSystemConfigValidation(t *testing.T) {
	js, err := NewJobSystem(1, 1)
	require.NoError(t, err)
	defer js.Shutdown()

	_, err = NewResourceSystem(&ResourceSystemConfig{QueueSize: 1}, js, newFakeAssets(), &fakeBackend{})
	assert.Error(t, err)
	_, err = NewResourceSystem(&ResourceSystemConfig{MaxLoadsPerFrame: 1}, js, newFakeAssets(), &fakeBackend{})
	assert.Error(t, err)
	_, err = NewResourceSystem(&ResourceSystemConfig{MaxLoadsPerFrame: 1, QueueSize: 1}, nil, newFakeAssets(), &fakeBackend{})
	assert.Error(t, err)
}

func TestResourceSystemShutdown(t *testing.T) {
	rs, _, backend := newResourceSystem(t, ResourceSystemConfig{MaxLoadsPerFrame: 1, QueueSize: 2})
	geom := rs.AcquireGeometry("rock.geom")
	pump(t, rs, 1, geom.IsReady)

	require.NoError(t, rs.Shutdown())
	assert.False(t, geom.IsReady())
	assert.Equal(t, 2, backend.destroyed)
	assert.Nil(t, rs.AcquireGeometry("rock.geom"))
	assert.Empty(t, rs.Paths())
}

func TestJobSystem(t *testing.T) {
	_, err := NewJobSystem(0, 1)
	assert.ErrorIs(t, err, ErrNoWorkers)
	_, err = NewJobSystem(1, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)

	js, err := NewJobSystem(2, 4)
	require.NoError(t, err)

	var mutex sync.Mutex
	var completed, failed int
	for i := 0; i < 4; i++ {
		i := i
		require.NoError(t, js.Submit(metadata.JobTask{
			Name: fmt.Sprintf("job %d", i),
			OnStart: func(params interface{}) (interface{}, error) {
				switch params.(int) % 4 {
				case 1:
					return nil, errors.New("boom")
				case 2:
					panic("worse")
				}
				return params, nil
			},
			InputParams: i,
			OnComplete: func(interface{}) {
				mutex.Lock()
				completed++
				mutex.Unlock()
			},
			OnFailure: func(error) {
				mutex.Lock()
				failed++
				mutex.Unlock()
			},
		}))
	}
	require.NoError(t, js.Shutdown())
	assert.Equal(t, 2, completed)
	assert.Equal(t, 2, failed)

	assert.ErrorIs(t, js.Submit(metadata.JobTask{}), core.ErrSystemShutdown)
	assert.ErrorIs(t, js.TrySubmit(metadata.JobTask{}), core.ErrSystemShutdown)
	assert.NoError(t, js.Shutdown())
}

func TestJobSystemTrySubmitFull(t *testing.T) {
	js, err := NewJobSystem(1, 0)
	require.NoError(t, err)
	defer js.Shutdown()

	gate := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, js.Submit(metadata.JobTask{OnStart: func(interface{}) (interface{}, error) {
		close(started)
		<-gate
		return nil, nil
	}}))
	<-started
	assert.ErrorIs(t, js.TrySubmit(metadata.JobTask{}), core.ErrJobQueueFull)
	close(gate)
}

func TestEffectSystem(t *testing.T) {
	_, err := NewEffectSystem(&EffectSystemConfig{})
	assert.Error(t, err)

	es, err := NewEffectSystem(&EffectSystemConfig{MaxEffectCount: 3})
	require.NoError(t, err)
	require.NotNil(t, es.Get(metadata.DepthEffectName))
	require.NotNil(t, es.Get(metadata.PickingEffectName))

	params := map[string][]float32{"tint": {1, 0, 0, 1}}
	lit, err := es.Acquire("lit", "instanced_lit", params)
	require.NoError(t, err)
	params["tint"] = nil
	assert.Equal(t, []float32{1, 0, 0, 1}, lit.Parameters["tint"])

	again, err := es.Acquire("lit", "other", nil)
	require.NoError(t, err)
	assert.Same(t, lit, again)
	assert.Equal(t, "instanced_lit", again.ShaderName)

	_, err = es.Acquire("full", "x", nil)
	assert.Error(t, err)
	_, err = es.Acquire("", "x", nil)
	assert.Error(t, err)

	es.Release("lit")
	assert.NotNil(t, es.Get("lit"))
	es.Release("lit")
	assert.Nil(t, es.Get("lit"))

	es.Release(metadata.DepthEffectName)
	assert.NotNil(t, es.Get(metadata.DepthEffectName))

	reused, err := es.Acquire("unlit", "instanced_unlit", nil)
	require.NoError(t, err)
	assert.Equal(t, lit.ID, reused.ID)
	assert.Equal(t, 3, es.Count())
	require.NoError(t, es.Shutdown())
	assert.Zero(t, es.Count())
}
