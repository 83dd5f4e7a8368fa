package core

// EventCode identifies the kind of an engine event.
type EventCode int

const (
	// The GPU context was lost. The host must tear down and rebuild all GPU
	// resources before rendering continues.
	EventContextLost EventCode = iota + 1
	// The GPU context was restored and resources may be rebuilt.
	EventContextRestored
	// The scene graph changed (node or layer added/removed).
	EventSceneChanged
	// A node was added to the scene. Data carries the node id.
	EventNodeAdded
	// A node was removed from the scene. Data carries the node id.
	EventNodeRemoved
	// The output surface was resized. Width/Height carry the new size.
	EventResized
	// Playback started, paused or sought. Data carries the state name.
	EventPlaybackState
)

// EventContext carries the payload of a fired event.
type EventContext struct {
	Data   string
	Width  uint32
	Height uint32
	Time   float64
}

// FnOnEvent handles a fired event. Returning true stops propagation to any
// further listeners of the same code.
type FnOnEvent func(code EventCode, sender interface{}, data EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

// EventBus is an instance-scoped listener registry. Each player session owns
// its own bus; there are no process-wide listeners.
type EventBus struct {
	registered map[EventCode][]*registeredEvent
}

func NewEventBus() *EventBus {
	return &EventBus{
		registered: make(map[EventCode][]*registeredEvent),
	}
}

// Register adds a listener for the given code. Duplicate listener/code pairs
// are not registered again and cause this to return false.
func (eb *EventBus) Register(code EventCode, listener interface{}, onEvent FnOnEvent) bool {
	for _, e := range eb.registered[code] {
		if e.listener == listener {
			LogWarn("event listener already registered for code %d", code)
			return false
		}
	}
	eb.registered[code] = append(eb.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

// Unregister removes a listener for the given code. If no matching
// registration is found, this returns false.
func (eb *EventBus) Unregister(code EventCode, listener interface{}) bool {
	events := eb.registered[code]
	for i, e := range events {
		if e.listener == listener {
			eb.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

// Fire sends an event to listeners of the given code. If a handler returns
// true the event is considered handled and is not passed on.
func (eb *EventBus) Fire(code EventCode, sender interface{}, data EventContext) bool {
	for _, e := range eb.registered[code] {
		if e.callback(code, sender, data) {
			return true
		}
	}
	return false
}
