package systems

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spaghettifunk/anima-instancing/engine/containers"
	"github.com/spaghettifunk/anima-instancing/engine/core"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
	"github.com/spaghettifunk/anima-instancing/engine/resources"
)

/** @brief The configuration for the resource system */
type ResourceSystemConfig struct {
	/** @brief Ready resources unused for more frames than this are evicted. 0 disables eviction. */
	EvictionFrames uint64
	/** @brief Maximum number of loads dispatched to the job system per frame. */
	MaxLoadsPerFrame int
	/** @brief Capacity of the pending load queue. */
	QueueSize int
}

// AssetSource parses asset files. LoadAsset must be safe to call from job workers.
type AssetSource interface {
	FullPath(path string) string
	LoadAsset(path string, params interface{}) (*metadata.Resource, error)
}

type loadResult struct {
	res        resources.Loadable
	generation uint64
	data       *metadata.Resource
	err        error
}

/**
 * @brief Owns every geometry and instance data resource. Loads are parsed on
 * job workers and applied on the render thread inside Update.
 */
type ResourceSystem struct {
	config    ResourceSystemConfig
	jobSystem *JobSystem
	assets    AssetSource
	backend   resources.Backend

	registered map[string]resources.Loadable
	pending    *containers.RingQueue[resources.Loadable]
	// resources with an entry in pending
	queued  map[resources.Loadable]struct{}
	results chan loadResult
	done    chan struct{}

	frame    uint64
	shutdown bool
}

func NewResourceSystem(config *ResourceSystemConfig, js *JobSystem, assets AssetSource, backend resources.Backend) (*ResourceSystem, error) {
	if js == nil || assets == nil || backend == nil {
		return nil, fmt.Errorf("resource system requires a job system, an asset source and a backend")
	}
	if config.MaxLoadsPerFrame <= 0 {
		return nil, fmt.Errorf("resource system max loads per frame must be positive, got %d", config.MaxLoadsPerFrame)
	}
	if config.QueueSize <= 0 {
		return nil, fmt.Errorf("resource system queue size must be positive, got %d", config.QueueSize)
	}

	rs := &ResourceSystem{
		config:     *config,
		jobSystem:  js,
		assets:     assets,
		backend:    backend,
		registered: make(map[string]resources.Loadable),
		pending:    containers.NewRingQueue[resources.Loadable](config.QueueSize),
		queued:     make(map[resources.Loadable]struct{}),
		results:    make(chan loadResult, config.QueueSize),
		done:       make(chan struct{}),
	}

	core.LogInfo("resource system initialized (evict after %d frames, %d loads per frame)", config.EvictionFrames, config.MaxLoadsPerFrame)
	return rs, nil
}

func (rs *ResourceSystem) CurrentFrame() uint64 {
	return rs.frame
}

func (rs *ResourceSystem) AcquireGeometry(path string) metadata.GeometryResource {
	res := rs.acquire(path, metadata.ResourceTypeGeometry)
	if g, ok := res.(*resources.GeometryResource); ok {
		return g
	}
	return nil
}

func (rs *ResourceSystem) AcquireInstanceData(path string) metadata.InstanceDataResource {
	res := rs.acquire(path, metadata.ResourceTypeInstanceData)
	if d, ok := res.(*resources.InstanceDataResource); ok {
		return d
	}
	return nil
}

func (rs *ResourceSystem) acquire(path string, t metadata.ResourceType) resources.Loadable {
	if rs.shutdown {
		return nil
	}
	key := filepath.Clean(path)
	if res, ok := rs.registered[key]; ok {
		if res.Base().Type != t {
			core.LogError("resource '%s' is %s, not %s", key, res.Base().Type, t)
			return nil
		}
		res.Base().AddRef()
		return res
	}

	var res resources.Loadable
	full := rs.assets.FullPath(key)
	switch t {
	case metadata.ResourceTypeGeometry:
		res = resources.NewGeometryResource(key, full, rs, rs.backend)
	case metadata.ResourceTypeInstanceData:
		res = resources.NewInstanceDataResource(key, full, rs, rs.backend)
	default:
		core.LogError("resource type %s cannot be acquired", t)
		return nil
	}
	res.Base().AddRef()
	rs.registered[key] = res
	rs.RequestLoad(res)
	return res
}

// Get returns the registered resource for path without taking a reference.
func (rs *ResourceSystem) Get(path string) (resources.Loadable, bool) {
	res, ok := rs.registered[filepath.Clean(path)]
	return res, ok
}

// Release drops one reference; the last one unloads and forgets the resource.
func (rs *ResourceSystem) Release(path string) {
	key := filepath.Clean(path)
	res, ok := rs.registered[key]
	if !ok {
		return
	}
	h := res.Base()
	if h.DropRef() > 0 {
		return
	}
	rs.unload(res)
	h.NextGeneration()
	delete(rs.registered, key)
	core.LogDebug("resource '%s' released", key)
}

// RequestLoad queues res for loading. Requests for loading or released
// resources are ignored.
func (rs *ResourceSystem) RequestLoad(res resources.Loadable) {
	h := res.Base()
	if rs.shutdown || h.State() == resources.ResourceStateLoading || rs.registered[h.Path] != res {
		return
	}
	h.NextGeneration()
	h.SetState(resources.ResourceStateLoading)
	if _, ok := rs.queued[res]; ok {
		// the queued entry is dispatched with the new generation
		return
	}
	if err := rs.pending.Enqueue(res); err != nil {
		// retried on the next KeepAlive
		h.SetState(resources.ResourceStateUnloaded)
		core.LogWarn("cannot queue load of '%s': %s", h.Path, err)
		return
	}
	rs.queued[res] = struct{}{}
}

// Reload drops the current data of path and loads it again. Failed
// resources get a new chance.
func (rs *ResourceSystem) Reload(path string) bool {
	res, ok := rs.registered[filepath.Clean(path)]
	if !ok {
		return false
	}
	rs.unload(res)
	rs.RequestLoad(res)
	return true
}

func (rs *ResourceSystem) unload(res resources.Loadable) {
	h := res.Base()
	if h.State() == resources.ResourceStateReady {
		res.Unload()
	}
	h.SetState(resources.ResourceStateUnloaded)
}

/**
 * @brief Advances the resource system to frame. Dispatches pending loads,
 * applies finished ones and evicts resources not kept alive.
 */
func (rs *ResourceSystem) Update(frame uint64) {
	if rs.shutdown {
		return
	}
	rs.frame = frame
	rs.dispatch()
	rs.applyResults()
	rs.evict()
}

func (rs *ResourceSystem) dispatch() {
	for i := 0; i < rs.config.MaxLoadsPerFrame && !rs.pending.IsEmpty(); i++ {
		res, _ := rs.pending.Peek()
		h := res.Base()
		if rs.registered[h.Path] != res || h.State() != resources.ResourceStateLoading {
			rs.dequeue()
			i--
			continue
		}
		if err := rs.jobSystem.TrySubmit(rs.loadJob(res, h.Generation())); err != nil {
			// stays queued until a worker frees up
			return
		}
		rs.dequeue()
	}
}

func (rs *ResourceSystem) dequeue() {
	if res, err := rs.pending.Dequeue(); err == nil {
		delete(rs.queued, res)
	}
}

func (rs *ResourceSystem) loadJob(res resources.Loadable, generation uint64) metadata.JobTask {
	path := res.Base().Path
	post := func(r loadResult) {
		select {
		case rs.results <- r:
		case <-rs.done:
		}
	}
	return metadata.JobTask{
		Name:        "load " + path,
		InputParams: path,
		OnStart: func(params interface{}) (interface{}, error) {
			return rs.assets.LoadAsset(params.(string), nil)
		},
		OnComplete: func(result interface{}) {
			post(loadResult{res: res, generation: generation, data: result.(*metadata.Resource)})
		},
		OnFailure: func(err error) {
			post(loadResult{res: res, generation: generation, err: err})
		},
	}
}

func (rs *ResourceSystem) applyResults() {
	for {
		select {
		case r := <-rs.results:
			rs.apply(r)
		default:
			return
		}
	}
}

func (rs *ResourceSystem) apply(r loadResult) {
	h := r.res.Base()
	if rs.registered[h.Path] != r.res || h.Generation() != r.generation || h.State() != resources.ResourceStateLoading {
		core.LogDebug("dropping stale load of '%s'", h.Path)
		return
	}
	err := r.err
	if err == nil {
		err = r.res.Prepare(r.data)
	}
	if err != nil {
		h.SetState(resources.ResourceStateFailed)
		core.LogError("resource '%s' failed to load: %s", h.Path, err)
		core.EventFire(core.EventContext{Type: core.EVENT_CODE_RESOURCE_FAILED, Data: &core.ResourceEvent{Path: h.Path, Err: err}})
		return
	}
	h.SetState(resources.ResourceStateReady)
	h.Touch(rs.frame)
	core.LogDebug("resource '%s' ready", h.Path)
	core.EventFire(core.EventContext{Type: core.EVENT_CODE_RESOURCE_LOADED, Data: &core.ResourceEvent{Path: h.Path}})
}

func (rs *ResourceSystem) evict() {
	if rs.config.EvictionFrames == 0 {
		return
	}
	for path, res := range rs.registered {
		h := res.Base()
		if h.State() != resources.ResourceStateReady {
			continue
		}
		if rs.frame > h.LastUsedFrame() && rs.frame-h.LastUsedFrame() > rs.config.EvictionFrames {
			rs.unload(res)
			core.LogDebug("resource '%s' evicted", path)
			core.EventFire(core.EventContext{Type: core.EVENT_CODE_RESOURCE_EVICTED, Data: &core.ResourceEvent{Path: path}})
		}
	}
}

// Paths lists registered resource paths, sorted.
func (rs *ResourceSystem) Paths() []string {
	out := make([]string, 0, len(rs.registered))
	for p := range rs.registered {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Shutdown unloads every resource. In-flight loads are discarded.
func (rs *ResourceSystem) Shutdown() error {
	if rs.shutdown {
		return nil
	}
	rs.shutdown = true
	close(rs.done)
	clear(rs.queued)
	for path, res := range rs.registered {
		rs.unload(res)
		delete(rs.registered, path)
	}
	return nil
}
