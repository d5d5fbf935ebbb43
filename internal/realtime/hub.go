// Package realtime fans project mutation events out to live subscribers.
//
// The hub is a best-effort live feed: events are delivered to whoever is
// subscribed when the dispatch loop handles them, never replayed, and dropped
// rather than blocking a publisher or a healthy subscriber.
package realtime

import (
	"context"
	"errors"
	"expvar"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Event is the envelope pushed to clients: {action, project}. Project is the
// full project (create, update) or the deleted id (delete).
type Event struct {
	Action  Action `json:"action"`
	Project any    `json:"project"`
}

var ErrHubStopped = errors.New("hub stopped")

var (
	statPublished   = expvar.NewInt("hub_published")
	statDropped     = expvar.NewInt("hub_dropped")
	statSubscribers = expvar.NewInt("hub_subscribers")
)

// Hub is the process-wide broadcast channel. Create it with NewHub and start
// the dispatch loop with Run.
type Hub struct {
	events     chan Event
	register   chan *Subscription
	unregister chan *Subscription
	done       chan struct{}
	stopOnce   sync.Once

	subBuffer   int
	logger      *logrus.Logger
	subscribers atomic.Int64
	dropped     atomic.Int64
}

// NewHub creates a hub whose publish queue holds buffer events and whose
// subscribers each buffer subBuffer events.
func NewHub(buffer, subBuffer int, logger *logrus.Logger) *Hub {
	if buffer <= 0 {
		buffer = 256
	}
	if subBuffer <= 0 {
		subBuffer = 32
	}
	return &Hub{
		events:     make(chan Event, buffer),
		register:   make(chan *Subscription),
		unregister: make(chan *Subscription),
		done:       make(chan struct{}),
		subBuffer:  subBuffer,
		logger:     logger,
	}
}

// Publish queues an event for delivery and returns immediately. When the
// queue is full the event is dropped.
func (h *Hub) Publish(action Action, payload any) {
	ev := Event{Action: action, Project: payload}
	select {
	case h.events <- ev:
		statPublished.Add(1)
	default:
		h.drop("publish queue full", action)
	}
}

// Subscribe registers a new subscriber. The returned subscription receives
// every event dispatched after registration until Close is called or the
// hub stops.
func (h *Hub) Subscribe(ctx context.Context) (*Subscription, error) {
	sub := &Subscription{ch: make(chan Event, h.subBuffer), hub: h}
	select {
	case h.register <- sub:
		return sub, nil
	case <-h.done:
		return nil, ErrHubStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Subscribers returns the number of registered subscribers.
func (h *Hub) Subscribers() int { return int(h.subscribers.Load()) }

// Dropped returns how many deliveries this hub has dropped.
func (h *Hub) Dropped() int64 { return h.dropped.Load() }

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} { return h.done }

// Run dispatches events until ctx is cancelled, then closes every
// subscription.
func (h *Hub) Run(ctx context.Context) {
	subs := make(map[*Subscription]struct{})
	defer h.stopOnce.Do(func() {
		statSubscribers.Add(-int64(len(subs)))
		h.subscribers.Store(0)
		for sub := range subs {
			close(sub.ch)
		}
		close(h.done)
	})

	for {
		select {
		case <-ctx.Done():
			return
		case sub := <-h.register:
			subs[sub] = struct{}{}
			h.subscribers.Add(1)
			statSubscribers.Add(1)
		case sub := <-h.unregister:
			if _, ok := subs[sub]; ok {
				delete(subs, sub)
				h.subscribers.Add(-1)
				statSubscribers.Add(-1)
				close(sub.ch)
			}
		case ev := <-h.events:
			for sub := range subs {
				select {
				case sub.ch <- ev:
				default:
					h.drop("subscriber buffer full", ev.Action)
				}
			}
		}
	}
}

func (h *Hub) drop(reason string, action Action) {
	h.dropped.Add(1)
	statDropped.Add(1)
	if h.logger != nil {
		h.logger.WithFields(logrus.Fields{"action": action, "reason": reason}).Warn("broadcast event dropped")
	}
}

// Subscription is one live consumer of the hub.
type Subscription struct {
	ch   chan Event
	hub  *Hub
	once sync.Once
}

// Events is closed when the subscription ends.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Close unregisters the subscription. It is safe to call more than once and
// after the hub has stopped.
func (s *Subscription) Close() {
	s.once.Do(func() {
		select {
		case s.hub.unregister <- s:
		case <-s.hub.done:
		}
	})
}
