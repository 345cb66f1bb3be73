package resources

import (
	"github.com/google/uuid"
	"github.com/spaghettifunk/anima-instancing/engine/renderer/metadata"
)

type ResourceState int

const (
	ResourceStateUnloaded ResourceState = iota
	ResourceStateLoading
	ResourceStateReady
	ResourceStateFailed
)

func (s ResourceState) String() string {
	switch s {
	case ResourceStateLoading:
		return "loading"
	case ResourceStateReady:
		return "ready"
	case ResourceStateFailed:
		return "failed"
	default:
		return "unloaded"
	}
}

// Owner schedules loads and provides the frame counter used for residency.
type Owner interface {
	CurrentFrame() uint64
	RequestLoad(res Loadable)
}

// Loadable is a resource the resource system can load, prepare and evict.
type Loadable interface {
	Base() *Handle
	// Prepare receives parsed data on the render thread and uploads it.
	Prepare(res *metadata.Resource) error
	// Unload drops uploaded data. Prepare may be called again afterwards.
	Unload()
}

/**
 * @brief Bookkeeping shared by every loadable resource.
 */
type Handle struct {
	ID       uuid.UUID
	Path     string
	FullPath string
	Type     metadata.ResourceType

	state         ResourceState
	lastUsedFrame uint64
	refCount      int
	generation    uint64
	owner         Owner
	self          Loadable
}

func (h *Handle) init(self Loadable, path, fullPath string, t metadata.ResourceType, owner Owner) {
	h.ID = uuid.New()
	h.Path = path
	h.FullPath = fullPath
	h.Type = t
	h.owner = owner
	h.self = self
	if owner != nil {
		h.lastUsedFrame = owner.CurrentFrame()
	}
}

// KeepAlive stamps the resource as used this frame and requests a load when
// it is not resident. Failed resources stay failed until reloaded.
func (h *Handle) KeepAlive() {
	if h.owner == nil {
		return
	}
	h.lastUsedFrame = h.owner.CurrentFrame()
	if h.state == ResourceStateUnloaded {
		h.owner.RequestLoad(h.self)
	}
}

func (h *Handle) IsReady() bool {
	return h.state == ResourceStateReady
}

func (h *Handle) State() ResourceState {
	return h.state
}

func (h *Handle) SetState(state ResourceState) {
	h.state = state
}

func (h *Handle) LastUsedFrame() uint64 {
	return h.lastUsedFrame
}

func (h *Handle) Touch(frame uint64) {
	h.lastUsedFrame = frame
}

// Generation changes every time a load is started, so results of stale loads
// can be told apart.
func (h *Handle) Generation() uint64 {
	return h.generation
}

func (h *Handle) NextGeneration() uint64 {
	h.generation++
	return h.generation
}

func (h *Handle) AddRef() int {
	h.refCount++
	return h.refCount
}

func (h *Handle) DropRef() int {
	if h.refCount > 0 {
		h.refCount--
	}
	return h.refCount
}

func (h *Handle) RefCount() int {
	return h.refCount
}
