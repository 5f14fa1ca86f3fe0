// Package events allows for the registering and receiving of ledger events.
package events

import (
	"fmt"
	"strings"
	"sync"
)

// messageBuffer is the number of events a subscriber can fall behind
// before events are dropped for it.
const messageBuffer = 100

// Event is a single message sent to subscribers. Kind is the text in front
// of the first colon of the raw message, "viewer" or "state" for example.
type Event struct {
	Kind    string
	Message string
}

// Parse splits a raw event message into its kind and message.
func Parse(s string) Event {
	kind, msg, found := strings.Cut(s, ":")
	if !found {
		return Event{Message: s}
	}
	return Event{Kind: kind, Message: strings.TrimSpace(msg)}
}

// subscriber is a registered receiver with an optional kind filter.
type subscriber struct {
	ch    chan Event
	kinds map[string]struct{}
}

func (s subscriber) wants(kind string) bool {
	if len(s.kinds) == 0 {
		return true
	}
	_, exists := s.kinds[kind]
	return exists
}

// Events maintains a mapping of unique id and channels so goroutines
// can register and receive events.
type Events struct {
	m  map[string]subscriber
	mu sync.RWMutex
}

// New constructs an events for registering and receiving events.
func New() *Events {
	return &Events{
		m: make(map[string]subscriber),
	}
}

// Shutdown closes and removes all channels that were provided by
// the call to Acquire.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, sub := range evt.m {
		delete(evt.m, id)
		close(sub.ch)
	}
}

// Acquire takes a unique id and returns a channel that can be used to
// receive events. When kinds are provided only events of those kinds are
// delivered on the channel.
func (evt *Events) Acquire(id string, kinds ...string) <-chan Event {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if sub, exists := evt.m[id]; exists {
		return sub.ch
	}

	sub := subscriber{
		ch: make(chan Event, messageBuffer),
	}
	if len(kinds) > 0 {
		sub.kinds = make(map[string]struct{}, len(kinds))
		for _, kind := range kinds {
			sub.kinds[kind] = struct{}{}
		}
	}

	evt.m[id] = sub
	return sub.ch
}

// Release closes and removes the channel that was provided by
// the call to Acquire.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	sub, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(sub.ch)
	return nil
}

// Count returns the number of registered subscribers.
func (evt *Events) Count() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}

// Send signals a raw message to every registered channel interested in its
// kind. Send will not block waiting for a receiver on any given channel.
func (evt *Events) Send(s string) {
	e := Parse(s)

	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, sub := range evt.m {
		if !sub.wants(e.Kind) {
			continue
		}

		select {
		case sub.ch <- e:
		default:
		}
	}
}
