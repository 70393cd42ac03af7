package meeting

import (
	"context"
	"sync"
)

type EventName string

const (
	EventMessage      EventName = "message"
	EventBeforeUnload EventName = "beforeunload"
)

type Event struct {
	Name    EventName
	Message Message
}

// Listener handles one event. A non-nil return is sent back to the frame.
type Listener func(ctx context.Context, ev Event) *Message

// EventTarget is where a session registers its listeners. Listen returns the
// function that unregisters the listener again.
type EventTarget interface {
	Listen(name EventName, fn Listener) (remove func())
}

// Dispatcher is the EventTarget behind each bridge connection.
type Dispatcher struct {
	mu        sync.Mutex
	nextID    int
	listeners map[EventName]map[int]Listener
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{listeners: make(map[EventName]map[int]Listener)}
}

func (d *Dispatcher) Listen(name EventName, fn Listener) func() {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextID
	d.nextID++
	set, ok := d.listeners[name]
	if !ok {
		set = make(map[int]Listener)
		d.listeners[name] = set
	}
	set[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			delete(d.listeners[name], id)
			if len(d.listeners[name]) == 0 {
				delete(d.listeners, name)
			}
		})
	}
}

// Dispatch runs every listener registered for ev.Name and collects replies.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) []Message {
	d.mu.Lock()
	fns := make([]Listener, 0, len(d.listeners[ev.Name]))
	for _, fn := range d.listeners[ev.Name] {
		fns = append(fns, fn)
	}
	d.mu.Unlock()

	var replies []Message
	for _, fn := range fns {
		if reply := fn(ctx, ev); reply != nil {
			replies = append(replies, *reply)
		}
	}
	return replies
}

func (d *Dispatcher) ListenerCount(name EventName) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.listeners[name])
}
