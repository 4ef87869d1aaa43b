package nats

import (
	"context"
	"fmt"
	"sync"

	"intelliprep-notes-be/internal/pkg/logger"
	"intelliprep-notes-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

type EventHandler func(ctx context.Context, event events.Event) error

type Subscriber struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger logger.ILogger

	mu       sync.Mutex
	consumes []jetstream.ConsumeContext
}

func NewSubscriber(url string, log logger.ILogger) (*Subscriber, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{nc: nc, js: js, logger: log}, nil
}

// Subscribe attaches a durable consumer to the EVENTS stream. Messages the
// handler fails on are Nak'ed and redelivered; undecodable ones are terminated.
func (s *Subscriber) Subscribe(ctx context.Context, eventType string, durableName string, handler EventHandler) error {
	subject := Subject(eventType)

	consumer, err := s.js.CreateOrUpdateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    5,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		s.handle(msg, handler)
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	s.mu.Lock()
	s.consumes = append(s.consumes, cc)
	s.mu.Unlock()

	s.logger.Info("NATS", "Subscribed", map[string]interface{}{
		"subject": subject,
		"durable": durableName,
	})
	return nil
}

func (s *Subscriber) handle(msg jetstream.Msg, handler EventHandler) {
	event, err := decode(msg.Subject(), msg.Data())
	if err != nil {
		s.logger.Error("NATS", "Dropping undecodable event", map[string]interface{}{
			"subject": msg.Subject(),
			"error":   err,
		})
		_ = msg.Term()
		return
	}

	if err := handler(context.Background(), event); err != nil {
		s.logger.Error("NATS", "Handler failed", map[string]interface{}{
			"subject": msg.Subject(),
			"error":   err,
		})
		_ = msg.Nak()
		return
	}

	_ = msg.Ack()
}

func (s *Subscriber) Close() {
	s.mu.Lock()
	for _, cc := range s.consumes {
		cc.Stop()
	}
	s.consumes = nil
	s.mu.Unlock()

	if s.nc != nil {
		s.nc.Close()
	}
}
