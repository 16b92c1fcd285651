package service

import (
	"context"
	"encoding/json"
	"fmt"

	"clash-rulesync/internal/pkg/logger"
	"clash-rulesync/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// EventMirror forwards events to another bus. *nats.Publisher satisfies it.
type EventMirror interface {
	Publish(ctx context.Context, event events.Event) error
}

type IPublisherService interface {
	Publish(ctx context.Context, event events.Event) error
}

type publisherService struct {
	publisher message.Publisher
	topic     string
	mirror    EventMirror
	logger    logger.ILogger
}

// NewPublisherService publishes on the in-process topic and, when mirror is
// non-nil, to the mirror as well. A mirror failure is logged, not returned.
func NewPublisherService(publisher message.Publisher, topic string, mirror EventMirror, log logger.ILogger) IPublisherService {
	return &publisherService{
		publisher: publisher,
		topic:     topic,
		mirror:    mirror,
		logger:    log,
	}
}

func (s *publisherService) Publish(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(events.Envelope(event))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := s.publisher.Publish(s.topic, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", s.topic, err)
	}

	if s.mirror != nil {
		if err := s.mirror.Publish(ctx, event); err != nil {
			s.logger.Warn("PublisherService", "Failed to mirror event", map[string]interface{}{
				"event_id":   event.EventID(),
				"event_type": event.EventType(),
				"error":      err.Error(),
			})
		}
	}
	return nil
}
