package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"style-classifier-be/internal/config"
	"style-classifier-be/internal/model"
	"style-classifier-be/internal/pkg/logger"
	"style-classifier-be/internal/repository"
	"style-classifier-be/pkg/events"
	pktNats "style-classifier-be/pkg/nats"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, notification model.Notification)
	Broadcast(notification model.Notification)
}

type NotificationService struct {
	repo       repository.NotificationRepository
	subscriber *pktNats.Subscriber
	delivery   NotificationDelivery
	catalog    config.StyleCatalog
	logger     logger.ILogger
}

func NewNotificationService(
	repo repository.NotificationRepository,
	sub *pktNats.Subscriber,
	delivery NotificationDelivery,
	catalog config.StyleCatalog,
	log logger.ILogger,
) *NotificationService {
	return &NotificationService{
		repo:       repo,
		subscriber: sub,
		delivery:   delivery,
		catalog:    catalog,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() {
	err := s.subscriber.Subscribe("style.>", "style-notif-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to style.>", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	// NATS subjects arrive as style.<TYPE>.
	typeCode := strings.TrimPrefix(event.EventType(), "style.")
	s.logger.Info("NotificationService", fmt.Sprintf("Processing event: %s", typeCode), map[string]interface{}{"type": typeCode})

	payload := event.Payload()

	uidStr, ok := payload["user_id"].(string)
	if !ok {
		s.logger.Warn("NotificationService", fmt.Sprintf("No user_id in payload for event %s", typeCode), nil)
		return nil
	}
	userID, err := uuid.Parse(uidStr)
	if err != nil {
		s.logger.Warn("NotificationService", "Malformed user_id in payload", map[string]interface{}{"user_id": uidStr})
		return nil
	}

	notif, ok := s.buildNotification(userID, typeCode, payload)
	if !ok {
		return nil
	}

	if err := s.repo.Create(ctx, &notif); err != nil {
		s.logger.Error("NotificationService", fmt.Sprintf("Error saving notification for user %s", userID), map[string]interface{}{"error": err})
		return err // NATS will retry
	}

	if s.delivery != nil {
		s.delivery.Send(userID, notif)
	}
	return nil
}

func (s *NotificationService) buildNotification(userID uuid.UUID, typeCode string, payload map[string]interface{}) (model.Notification, bool) {
	style, _ := payload["style"].(string)
	duplicate, _ := payload["duplicate"].(bool)

	var title, message string
	switch typeCode {
	case "STYLE_CONFIRMED":
		if duplicate {
			title = "Style saved"
			message = fmt.Sprintf("Style %q saved; this image was already in your collection.", s.catalog.DisplayName(style))
		} else {
			title = "Style saved"
			message = fmt.Sprintf("Style %q was added to your collection.", s.catalog.DisplayName(style))
		}
	default:
		s.logger.Info("NotificationService", fmt.Sprintf("No notification template for event %s", typeCode), nil)
		return model.Notification{}, false
	}

	metaJSON, _ := json.Marshal(payload)

	return model.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		TypeCode:  typeCode,
		Title:     title,
		Message:   message,
		Metadata:  datatypes.JSON(metaJSON),
		CreatedAt: time.Now(),
		IsRead:    false,
	}, true
}

// GetNotifications fetches the user's most recent notifications.
func (s *NotificationService) GetNotifications(ctx context.Context, userID uuid.UUID, limit int) ([]model.Notification, error) {
	return s.repo.ListByUser(ctx, userID, limit)
}

// MarkAsRead marks one of the user's notifications as read.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, id uuid.UUID) error {
	return s.repo.MarkRead(ctx, userID, id)
}
