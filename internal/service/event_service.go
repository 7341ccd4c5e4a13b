// FILE: internal/service/event_service.go
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"feature-store-be/internal/pkg/logger"
)

const (
	TopicRecordIngested = "record.ingested"
	TopicStatusChanged  = "feature.status_changed"
)

// RecordIngestedEvent is published after both tiers were written (or the
// online tier alone, flagged by PartialWrite).
type RecordIngestedEvent struct {
	Group        string    `json:"group"`
	EntityID     string    `json:"entity_id"`
	Timestamp    time.Time `json:"timestamp"`
	FeatureCount int       `json:"feature_count"`
	PartialWrite bool      `json:"partial_write"`
}

// StatusChangedEvent is published after a lifecycle transition committed.
type StatusChangedEvent struct {
	Entity  string `json:"entity"`
	Feature string `json:"feature"`
	From    string `json:"from"`
	To      string `json:"to"`
}

type IEventService interface {
	PublishRecordIngested(ctx context.Context, evt RecordIngestedEvent)
	PublishStatusChanged(ctx context.Context, evt StatusChangedEvent)
	// Consume starts the audit consumer; it returns once subscriptions are
	// established and logs events in the background.
	Consume(ctx context.Context) error
}

type eventService struct {
	pubSub *gochannel.GoChannel
	logger logger.ILogger
}

func NewEventService(pubSub *gochannel.GoChannel, logger logger.ILogger) IEventService {
	return &eventService{pubSub: pubSub, logger: logger}
}

func (s *eventService) publish(topic string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("events", "Failed to marshal event", map[string]interface{}{"topic": topic, "error": err.Error()})
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), body)
	if err := s.pubSub.Publish(topic, msg); err != nil {
		// Event delivery is best effort; ingestion outcome is already decided.
		s.logger.Warn("events", "Failed to publish event", map[string]interface{}{"topic": topic, "error": err.Error()})
	}
}

func (s *eventService) PublishRecordIngested(ctx context.Context, evt RecordIngestedEvent) {
	s.publish(TopicRecordIngested, evt)
}

func (s *eventService) PublishStatusChanged(ctx context.Context, evt StatusChangedEvent) {
	s.publish(TopicStatusChanged, evt)
}

func (s *eventService) Consume(ctx context.Context) error {
	for _, topic := range []string{TopicRecordIngested, TopicStatusChanged} {
		messages, err := s.pubSub.Subscribe(ctx, topic)
		if err != nil {
			return err
		}
		go s.drain(topic, messages)
	}
	return nil
}

func (s *eventService) drain(topic string, messages <-chan *message.Message) {
	for msg := range messages {
		var details map[string]interface{}
		if err := json.Unmarshal(msg.Payload, &details); err != nil {
			details = map[string]interface{}{"raw": string(msg.Payload)}
		}
		s.logger.Info("events", "Event observed: "+topic, details)
		msg.Ack()
	}
}
