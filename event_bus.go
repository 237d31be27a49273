package epiabm

import "reflect"

// PropertyChangeEvent carries the before/after value of a single
// person's property. It is emitted by PropertyStore.Set only when the
// new value differs from the current one, and by derived-property
// recomputation when a dependency change alters the derived result.
type PropertyChangeEvent struct {
	Person   PersonID
	Property PropertyType
	Previous Value
	Current  Value
}

// PersonCreatedEvent is emitted once per AddPerson call.
type PersonCreatedEvent struct {
	Person PersonID
}

// eventHandler is the untyped form every subscriber is stored as. The
// bus dispatches by the event's concrete Go type, so subscribers for
// distinct event types never see each other's events.
type eventHandler func(event interface{})

// EventBus dispatches typed events to subscribers synchronously, in
// registration order. Re-entrant emission (a handler emitting another
// event, or scheduling a plan that later emits one) is allowed; nothing
// in the bus itself is safe for concurrent use, which matches the
// single-threaded cooperative scheduling model in §5.
type EventBus struct {
	handlers map[reflect.Type][]eventHandler
}

// NewEventBus returns an empty EventBus.
func NewEventBus() *EventBus {
	return &EventBus{handlers: make(map[reflect.Type][]eventHandler)}
}

// SubscribePropertyChange registers handler to run every time a
// PropertyChangeEvent is emitted. Use the Property field inside handler
// to filter to a specific PropertyType if needed.
func (b *EventBus) SubscribePropertyChange(handler func(PropertyChangeEvent)) {
	b.subscribe(PropertyChangeEvent{}, func(e interface{}) {
		handler(e.(PropertyChangeEvent))
	})
}

// SubscribePersonCreated registers handler to run every time a person is
// added to the store.
func (b *EventBus) SubscribePersonCreated(handler func(PersonCreatedEvent)) {
	b.subscribe(PersonCreatedEvent{}, func(e interface{}) {
		handler(e.(PersonCreatedEvent))
	})
}

func (b *EventBus) subscribe(sample interface{}, handler eventHandler) {
	t := reflect.TypeOf(sample)
	b.handlers[t] = append(b.handlers[t], handler)
}

// emit invokes all handlers registered for the concrete type of event,
// in registration order, before returning to the caller.
func (b *EventBus) emit(event interface{}) {
	t := reflect.TypeOf(event)
	for _, h := range b.handlers[t] {
		h(event)
	}
}

// EmitPropertyChange emits a PropertyChangeEvent to all subscribers.
func (b *EventBus) EmitPropertyChange(e PropertyChangeEvent) {
	b.emit(e)
}

// EmitPersonCreated emits a PersonCreatedEvent to all subscribers.
func (b *EventBus) EmitPersonCreated(e PersonCreatedEvent) {
	b.emit(e)
}
