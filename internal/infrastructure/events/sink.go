// Package events forwards broadcast project events to out-of-process
// consumers such as a message queue or the search index.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/project-feed/internal/domain/entity"
	"github.com/oksasatya/project-feed/internal/realtime"
	"github.com/oksasatya/project-feed/pkg/helpers"
)

const deliverTimeout = 5 * time.Second

// Sink receives every event the hub dispatches.
type Sink interface {
	Deliver(ctx context.Context, ev realtime.Event) error
}

// Attach subscribes sink to hub and delivers events until ctx is done or
// the hub stops. Delivery failures are logged and the event is skipped.
func Attach(ctx context.Context, hub *realtime.Hub, sink Sink, name string, logger *logrus.Logger) error {
	sub, err := hub.Subscribe(ctx)
	if err != nil {
		return err
	}
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub.Events():
				if !ok {
					return
				}
				c, cancel := context.WithTimeout(ctx, deliverTimeout)
				if err := sink.Deliver(c, ev); err != nil {
					helpers.LogError(logger, "event sink delivery failed", err, logrus.Fields{
						"sink":   name,
						"action": string(ev.Action),
					})
				}
				cancel()
			}
		}
	}()
	return nil
}

// Envelope is the wire form of an event on the queue.
type Envelope struct {
	Action  realtime.Action `json:"action"`
	Project json.RawMessage `json:"project"`
	SentAt  time.Time       `json:"sentAt"`
}

// Decode restores the in-process event: a *entity.Project for create and
// update, the project id for delete.
func Decode(body []byte) (realtime.Event, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return realtime.Event{}, err
	}
	switch env.Action {
	case realtime.ActionCreate, realtime.ActionUpdate:
		var p entity.Project
		if err := json.Unmarshal(env.Project, &p); err != nil {
			return realtime.Event{}, fmt.Errorf("decode project: %w", err)
		}
		return realtime.Event{Action: env.Action, Project: &p}, nil
	case realtime.ActionDelete:
		var id string
		if err := json.Unmarshal(env.Project, &id); err != nil {
			return realtime.Event{}, fmt.Errorf("decode project id: %w", err)
		}
		return realtime.Event{Action: env.Action, Project: id}, nil
	}
	return realtime.Event{}, fmt.Errorf("unknown action %q", env.Action)
}

// JSONPublisher is satisfied by helpers.RabbitPublisher.
type JSONPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// AMQPSink publishes events to a durable queue.
type AMQPSink struct {
	Publisher JSONPublisher
}

func (s *AMQPSink) Deliver(ctx context.Context, ev realtime.Event) error {
	raw, err := json.Marshal(ev.Project)
	if err != nil {
		return err
	}
	return s.Publisher.PublishJSON(ctx, Envelope{
		Action:  ev.Action,
		Project: raw,
		SentAt:  time.Now().UTC(),
	})
}

// Indexer is satisfied by search.ProjectIndex.
type Indexer interface {
	Apply(ctx context.Context, ev realtime.Event) error
}

// IndexSink applies events straight to the search index.
type IndexSink struct {
	Index Indexer
}

func (s *IndexSink) Deliver(ctx context.Context, ev realtime.Event) error {
	return s.Index.Apply(ctx, ev)
}
