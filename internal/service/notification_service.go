package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"indico/internal/domain"
	"indico/internal/metrics"
	"indico/internal/models"
)

type notificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
}

type tokenStore interface {
	FCMToken(ctx context.Context, userID string) (string, error)
}

// NotificationService persists an inbox entry, pushes it to the user's open
// connections and sends a device push. Every step is best effort.
type NotificationService struct {
	repo   notificationStore
	tokens tokenStore
	hub    Broadcaster
	push   Pusher
	log    *slog.Logger
}

func NewNotificationService(repo notificationStore, tokens tokenStore, hub Broadcaster, push Pusher) *NotificationService {
	return &NotificationService{
		repo:   repo,
		tokens: tokens,
		hub:    hub,
		push:   push,
		log:    slog.Default().With("component", "notifications"),
	}
}

// RealtimeMessage is what live connections receive.
type RealtimeMessage struct {
	Type         string               `json:"type"`
	Notification *models.Notification `json:"notification"`
	Data         map[string]string    `json:"data,omitempty"`
}

func (s *NotificationService) NotifyUser(ctx context.Context, userID, title, body string, data map[string]string) {
	notifType := data["type"]
	var dataJSON string
	if len(data) > 0 {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	n := &models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
		Data:   dataJSON,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.fail("inbox", userID, err)
	} else {
		metrics.NotificationsSent.WithLabelValues("inbox").Inc()
	}

	if s.hub != nil {
		if s.hub.BroadcastToUser(userID, RealtimeMessage{Type: "notification", Notification: n, Data: data}) > 0 {
			metrics.NotificationsSent.WithLabelValues("realtime").Inc()
		}
	}

	s.sendPush(ctx, userID, title, body, data)
}

func (s *NotificationService) sendPush(ctx context.Context, userID, title, body string, data map[string]string) {
	if s.push == nil || s.tokens == nil {
		return
	}
	token, err := s.tokens.FCMToken(ctx, userID)
	if err != nil {
		s.fail("push", userID, err)
		return
	}
	if token == "" {
		return
	}
	if err := s.push.Push(ctx, token, title, body, data); err != nil {
		s.fail("push", userID, err)
		return
	}
	metrics.NotificationsSent.WithLabelValues("push").Inc()
}

func (s *NotificationService) fail(channel, userID string, err error) {
	metrics.DispatchFailures.WithLabelValues(channel).Inc()
	s.log.Warn("notification delivery failed", "channel", channel, "user_id", userID,
		"error", fmt.Errorf("%w: %v", domain.ErrDispatchFailure, err))
}
