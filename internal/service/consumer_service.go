package service

import (
	"context"
	"encoding/json"

	"intelliprep-notes-be/internal/notestore"
	"intelliprep-notes-be/internal/pkg/logger"
	"intelliprep-notes-be/internal/websocket"
	"intelliprep-notes-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// ChangeNotifier pushes a frame to every live connection of a user.
type ChangeNotifier interface {
	SendToUser(ctx context.Context, userId string, msgType websocket.MessageType, data interface{}) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type consumerService struct {
	subscriber     message.Subscriber
	topicName      string
	notifier       ChangeNotifier
	eventPublisher EventPublisher
	logger         logger.ILogger
}

// NewConsumerService fans store changes out to websocket clients and, for
// note mutations, to the NATS bus. eventPublisher may be nil.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	notifier ChangeNotifier,
	eventPublisher EventPublisher,
	log logger.ILogger,
) IConsumerService {
	if log == nil {
		log = logger.NewNop()
	}
	return &consumerService{
		subscriber:     subscriber,
		topicName:      topicName,
		notifier:       notifier,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var change notestore.Change
	if err := json.Unmarshal(msg.Payload, &change); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal change", map[string]interface{}{"error": err})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	// Delivery is best-effort. Acking on receipt releases a publisher blocked
	// on the ack while keeping changes in emit order.
	msg.Ack()
	if change.OwnerId == "" {
		return
	}

	if err := cs.notifier.SendToUser(ctx, change.OwnerId, websocket.TypeNoteChange, change); err != nil {
		cs.logger.Warn("ConsumerService", "Failed to push change", map[string]interface{}{
			"owner_id": change.OwnerId,
			"error":    err.Error(),
		})
	}

	if evt, ok := noteEvent(change); ok && cs.eventPublisher != nil {
		// Auxiliary: a bus outage must not stall local delivery.
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			cs.logger.Warn("ConsumerService", "Failed to publish note event", map[string]interface{}{
				"type":  evt.EventType(),
				"error": err.Error(),
			})
		}
	}
}

func noteEvent(change notestore.Change) (events.BaseEvent, bool) {
	var eventType string
	switch change.Kind {
	case notestore.ChangeCreated:
		eventType = events.NoteCreated
	case notestore.ChangeUpdated:
		eventType = events.NoteUpdated
	case notestore.ChangeDeleted:
		eventType = events.NoteDeleted
	default:
		return events.BaseEvent{}, false
	}

	data := map[string]interface{}{
		"user_id": change.OwnerId,
		"note_id": change.NoteId,
	}
	if n := change.Note; n != nil {
		data["title"] = n.Title
		data["origin"] = string(n.Origin)
		if n.SessionId != nil {
			data["session_id"] = *n.SessionId
		}
	}
	return events.New(eventType, data, change.At), true
}
