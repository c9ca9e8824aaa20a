package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"style-classifier-be/internal/dto"
	"style-classifier-be/pkg/events"
	pktNats "style-classifier-be/pkg/nats"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService drains the confirmation topic: every decision refreshes the
// popularity snapshot and is fanned out to NATS for the notification system.
type consumerService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	statsService   IStatsService
	eventPublisher *pktNats.Publisher
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	statsService IStatsService,
	eventPublisher *pktNats.Publisher,
) IConsumerService {
	return &consumerService{
		pubSub:         pubSub,
		topicName:      topicName,
		statsService:   statsService,
		eventPublisher: eventPublisher,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
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
	var payload dto.StyleConfirmedMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal confirmation message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Processing confirmation for user %s, style %s", payload.UserId, payload.Style)

	if err := cs.statsService.RefreshPopularity(ctx); err != nil {
		log.Printf("[ERROR] Failed to refresh popularity snapshot: %v", err)
		msg.Nack() // Nack for retriable errors
		return
	}

	// Publish Event for Notification System
	if cs.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: "STYLE_CONFIRMED",
			Data: map[string]interface{}{
				"user_id":    payload.UserId,
				"style":      payload.Style,
				"image_hash": payload.ImageHash,
				"duplicate":  payload.Duplicate,
			},
			OccurredAt: time.Now(),
		}
		// Notification delivery is auxiliary; log and move on.
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] Failed to publish STYLE_CONFIRMED event: %v", err)
		}
	}

	msg.Ack()
}
