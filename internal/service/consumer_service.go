package service

import (
	"context"
	"encoding/json"
	"log"

	"clash-rulesync/internal/entity"
	"clash-rulesync/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	// Consume starts a background loop over the rules topic.
	Consume(ctx context.Context) error
	// Handle refreshes the providers of the documents an event names. It is
	// also the handler for events arriving over NATS.
	Handle(ctx context.Context, event events.Event) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	refresher  IRefreshService
	targets    []entity.RefreshTarget
	providers  map[string]string // document key -> provider name
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	refresher IRefreshService,
	targets []entity.RefreshTarget,
	providers map[string]string,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		refresher:  refresher,
		targets:    targets,
		providers:  providers,
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
	var event events.BaseEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		log.Printf("[ERROR] Failed to unmarshal event: %v", err)
		msg.Ack()
		return
	}

	if err := cs.Handle(ctx, event); err != nil {
		log.Printf("[ERROR] Dropping event %s: %v", event.ID, err)
	}
	// Refresh failures are logged per target.
	msg.Ack()
}

func (cs *consumerService) Handle(ctx context.Context, event events.Event) error {
	documents, err := events.ChangedDocuments(event)
	if err != nil {
		return err
	}
	if len(cs.targets) == 0 {
		return nil
	}

	providers := make([]string, 0, len(documents))
	for _, doc := range documents {
		if name, ok := cs.providers[doc]; ok {
			providers = append(providers, name)
		}
	}
	if len(providers) == 0 {
		return nil
	}

	log.Printf("[INFO] Rules changed (%v), refreshing %d target(s)", documents, len(cs.targets))
	failed := 0
	for _, r := range cs.refresher.Refresh(ctx, cs.targets, providers) {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		log.Printf("[WARN] %d provider refresh(es) failed for event %s", failed, event.EventID())
	}
	return nil
}
