package core

import "sync"

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// Resized/resolution changed from the OS.
	// Data: *ResizeEvent
	EVENT_CODE_RESIZED SystemEventCode = 0x08

	// A resource finished loading and is ready to draw.
	// Data: *ResourceEvent
	EVENT_CODE_RESOURCE_LOADED SystemEventCode = 0x10

	// A resource failed to load. It will never become ready unless reloaded.
	// Data: *ResourceEvent
	EVENT_CODE_RESOURCE_FAILED SystemEventCode = 0x11

	// A resource was not kept alive long enough and its GPU data was dropped.
	// Data: *ResourceEvent
	EVENT_CODE_RESOURCE_EVICTED SystemEventCode = 0x12

	// An asset file changed on disk.
	// Data: *ResourceEvent
	EVENT_CODE_ASSET_CHANGED SystemEventCode = 0x13

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

type EventContext struct {
	Type SystemEventCode
	Data interface{}
}

type ResizeEvent struct {
	WindowWidth  uint32
	WindowHeight uint32
}

type ResourceEvent struct {
	Path string
	Err  error
}

// Should return true if handled.
type FnOnEvent func(context EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

type eventSystemState struct {
	mutex      sync.RWMutex
	registered map[SystemEventCode][]*registeredEvent
}

var eventState *eventSystemState = nil
var eventMutex sync.Mutex

func EventSystemInitialize() bool {
	eventMutex.Lock()
	defer eventMutex.Unlock()
	if eventState != nil {
		return false
	}
	eventState = &eventSystemState{
		registered: make(map[SystemEventCode][]*registeredEvent),
	}
	return true
}

func EventSystemShutdown() error {
	eventMutex.Lock()
	defer eventMutex.Unlock()
	eventState = nil
	return nil
}

func currentEventState() *eventSystemState {
	eventMutex.Lock()
	defer eventMutex.Unlock()
	return eventState
}

/**
 * Register to listen for when events are sent with the provided code. Events with duplicate
 * listeners will not be registered again and will cause this to return false.
 */
func EventRegister(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	s := currentEventState()
	if s == nil || onEvent == nil {
		return false
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for _, e := range s.registered[code] {
		if e.listener == listener {
			LogWarn("listener already registered for event code %d", code)
			return false
		}
	}
	s.registered[code] = append(s.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

// EventUnregister stops listener from receiving code. Returns false if it was not registered.
func EventUnregister(code SystemEventCode, listener interface{}) bool {
	s := currentEventState()
	if s == nil {
		return false
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	events := s.registered[code]
	for i, e := range events {
		if e.listener == listener {
			s.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * true, the event is considered handled and is not passed on to any more listeners.
 */
func EventFire(context EventContext) bool {
	s := currentEventState()
	if s == nil {
		return false
	}
	s.mutex.RLock()
	events := make([]*registeredEvent, len(s.registered[context.Type]))
	copy(events, s.registered[context.Type])
	s.mutex.RUnlock()

	for _, e := range events {
		if e.callback(context) {
			return true
		}
	}
	return false
}
