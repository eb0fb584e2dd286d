package service

import (
	"sync"

	"github.com/eva-wellness/eva/internal/model"
)

const subscriberBuffer = 64

// Broker fans chat events out to in-process subscribers of a session.
// Slow subscribers drop events rather than block publishers.
type Broker struct {
	mu     sync.RWMutex
	subs   map[string]map[chan model.ChatEvent]struct{}
	closed bool
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan model.ChatEvent]struct{}),
	}
}

// Subscribe registers for events of sessionID. The returned function
// unsubscribes and closes the channel.
func (b *Broker) Subscribe(sessionID string) (<-chan model.ChatEvent, func()) {
	ch := make(chan model.ChatEvent, subscriberBuffer)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch, func() {}
	}
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[chan model.ChatEvent]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[sessionID][ch]; !ok {
				return
			}
			delete(b.subs[sessionID], ch)
			if len(b.subs[sessionID]) == 0 {
				delete(b.subs, sessionID)
			}
			close(ch)
		})
	}
}

// Publish delivers ev to every subscriber of its session. It reports how
// many subscribers missed the event because their buffer was full.
func (b *Broker) Publish(ev model.ChatEvent) (dropped int) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs[ev.SessionID] {
		select {
		case ch <- ev:
		default:
			dropped++
		}
	}
	return dropped
}

// Close closes every subscription.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sessionID, chans := range b.subs {
		for ch := range chans {
			close(ch)
		}
		delete(b.subs, sessionID)
	}
	b.closed = true
}
