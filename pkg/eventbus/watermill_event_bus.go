package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/hartline/clientops/pkg/events"
)

// WatermillEventBus publishes every event on the shared events topic and
// dispatches inbound messages to handlers registered per event type.
type WatermillEventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     *slog.Logger

	mu       sync.RWMutex
	handlers map[events.EventType][]EventHandler
}

func NewWatermillEventBus(pub message.Publisher, sub message.Subscriber, logger *slog.Logger) *WatermillEventBus {
	return &WatermillEventBus{
		publisher:  pub,
		subscriber: sub,
		logger:     logger.With("module", "eventbus"),
		handlers:   make(map[events.EventType][]EventHandler),
	}
}

func (eb *WatermillEventBus) GenerateID() string {
	return watermill.NewULID()
}

// Publish serializes the event and sends it on the events topic. The key ends
// up in message metadata so partitioned transports can route by it.
func (eb *WatermillEventBus) Publish(ctx context.Context, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage("msg-"+eb.GenerateID(), payload)
	msg.Metadata.Set(events.EventMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	return eb.publisher.Publish(events.Topic, msg)
}

// Handle registers a handler for an event type. Registration must happen
// before Subscribe is called.
func (eb *WatermillEventBus) Handle(eventType events.EventType, handler EventHandler) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)

	return nil
}

// Subscribe starts consuming the events topic. Messages with no registered
// handler are acked and dropped.
func (eb *WatermillEventBus) Subscribe(ctx context.Context) error {
	messages, err := eb.subscriber.Subscribe(ctx, events.Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			eb.dispatch(ctx, msg)
		}
	}()

	return nil
}

func (eb *WatermillEventBus) dispatch(ctx context.Context, msg *message.Message) {
	eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

	eb.mu.RLock()
	handlers := eb.handlers[eventType]
	eb.mu.RUnlock()

	if len(handlers) == 0 {
		msg.Ack()

		return
	}

	event, err := deserializeEvent(eventType, msg.Payload)
	if err != nil {
		eb.logger.ErrorContext(ctx, "Failed to deserialize event", "event_type", eventType, "error", err)
		msg.Nack()

		return
	}

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			eb.logger.ErrorContext(ctx, "Event handler failed", "event_type", eventType, "error", err)
			msg.Nack()

			return
		}
	}

	msg.Ack()
}

func deserializeEvent(eventType events.EventType, payload []byte) (any, error) {
	var event any

	switch eventType {
	case events.TemplateCreatedEvent:
		event = &events.TemplateCreated{}
	case events.TemplateDeletedEvent:
		event = &events.TemplateDeleted{}
	case events.ProjectCreatedEvent:
		event = &events.ProjectCreated{}
	case events.ProjectUpdatedEvent:
		event = &events.ProjectUpdated{}
	case events.ProjectDeletedEvent:
		event = &events.ProjectDeleted{}
	case events.TaskCreatedEvent:
		event = &events.TaskCreated{}
	case events.TaskMovedEvent:
		event = &events.TaskMoved{}
	case events.TaskUpdatedEvent:
		event = &events.TaskUpdated{}
	case events.TaskDeletedEvent:
		event = &events.TaskDeleted{}
	case events.StagesReorderedEvent:
		event = &events.StagesReordered{}
	default:
		event = &events.BaseEvent{}
	}

	if err := json.Unmarshal(payload, event); err != nil {
		return nil, err
	}

	return event, nil
}

func (eb *WatermillEventBus) Close() error {
	if err := eb.publisher.Close(); err != nil {
		return err
	}

	return eb.subscriber.Close()
}
