package service

import (
	"context"
	"errors"
	"testing"

	"indico/internal/domain"
	"indico/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryInbox struct {
	err  error
	rows []models.Notification
}

func (m *memoryInbox) Create(_ context.Context, n *models.Notification) error {
	if m.err != nil {
		return m.err
	}
	n.ID = uint(len(m.rows) + 1)
	m.rows = append(m.rows, *n)
	return nil
}

type staticTokens map[string]string

func (s staticTokens) FCMToken(_ context.Context, userID string) (string, error) {
	tok, ok := s[userID]
	if !ok {
		return "", domain.ErrNotFound
	}
	return tok, nil
}

type recordingHub struct {
	users []string
	live  int
}

func (h *recordingHub) BroadcastToUser(userID string, _ interface{}) int {
	h.users = append(h.users, userID)
	return h.live
}

type recordingPusher struct {
	err    error
	tokens []string
	data   []map[string]string
}

func (p *recordingPusher) Push(_ context.Context, token, _, _ string, data map[string]string) error {
	p.tokens = append(p.tokens, token)
	p.data = append(p.data, data)
	return p.err
}

func TestNotifyUser_AllChannels(t *testing.T) {
	inbox := &memoryInbox{}
	hub := &recordingHub{live: 1}
	push := &recordingPusher{}
	svc := NewNotificationService(inbox, staticTokens{"u1": "device-1"}, hub, push)

	svc.NotifyUser(context.Background(), "u1", "Título", "Corpo", map[string]string{"type": domain.NotifReferralLink, "id": "r1"})

	require.Len(t, inbox.rows, 1)
	row := inbox.rows[0]
	assert.Equal(t, "u1", row.UserID)
	assert.Equal(t, domain.NotifReferralLink, row.Type)
	assert.JSONEq(t, `{"type":"indication_contacted","id":"r1"}`, row.Data)
	assert.Equal(t, []string{"u1"}, hub.users)
	assert.Equal(t, []string{"device-1"}, push.tokens)
	assert.Equal(t, "r1", push.data[0]["id"])
}

func TestNotifyUser_FailuresAreSwallowed(t *testing.T) {
	inbox := &memoryInbox{err: domain.Unavailable(errors.New("db down"))}
	push := &recordingPusher{err: errors.New("fcm 500")}
	svc := NewNotificationService(inbox, staticTokens{"u1": "device-1"}, &recordingHub{}, push)

	assert.NotPanics(t, func() {
		svc.NotifyUser(context.Background(), "u1", "t", "b", nil)
	})
	assert.Len(t, push.tokens, 1, "push still attempted when the inbox write fails")
}

func TestNotifyUser_SkipsPushWithoutToken(t *testing.T) {
	push := &recordingPusher{}
	svc := NewNotificationService(&memoryInbox{}, staticTokens{"u1": ""}, nil, push)

	svc.NotifyUser(context.Background(), "u1", "t", "b", nil)
	svc.NotifyUser(context.Background(), "ghost", "t", "b", nil)
	assert.Empty(t, push.tokens)
}
