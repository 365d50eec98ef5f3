// Package events allows for the registering and receiving of ledger events.
package events

import (
	"fmt"
	"strings"
	"sync"
)

// messageBuffer is the number of messages a subscriber can fall behind
// before messages are dropped for that subscriber.
const messageBuffer = 100

// subscriber holds the channel for a registered receiver and the set of
// message prefixes it is interested in.
type subscriber struct {
	ch       chan string
	prefixes []string
}

// match reports if the subscriber wants the message.
func (s subscriber) match(msg string) bool {
	if len(s.prefixes) == 0 {
		return true
	}

	for _, prefix := range s.prefixes {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}

	return false
}

// =============================================================================

// Events maintains a mapping of unique id and subscribers so goroutines
// can register and receive events.
type Events struct {
	mu      sync.RWMutex
	m       map[string]subscriber
	dropped uint64
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
// receive events. When prefixes are provided, only messages starting with
// one of the prefixes are delivered.
func (evt *Events) Acquire(id string, prefixes ...string) chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if sub, exists := evt.m[id]; exists {
		return sub.ch
	}

	sub := subscriber{
		ch:       make(chan string, messageBuffer),
		prefixes: prefixes,
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

// Send signals a message to every registered channel that wants it. Send
// will not block waiting for a receiver on any given channel, the message
// is dropped for a subscriber that is not keeping up.
func (evt *Events) Send(s string) {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for _, sub := range evt.m {
		if !sub.match(s) {
			continue
		}

		select {
		case sub.ch <- s:
		default:
			evt.dropped++
		}
	}
}

// Count returns the number of registered subscribers.
func (evt *Events) Count() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}

// Dropped returns the number of messages that were not delivered because
// a subscriber's buffer was full.
func (evt *Events) Dropped() uint64 {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return evt.dropped
}
