package repository

import (
	"context"
	"testing"

	"indico/internal/domain"
	"indico/internal/models"
	"indico/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserAndNotificationRepositories(t *testing.T) {
	db := testutil.OpenDB(t)
	users := NewUserRepository(db)
	notifs := NewNotificationRepository(db)
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, &models.User{ID: "u1", Name: "Ana", Email: "ana@example.com", Role: domain.RoleUser}))
	taken, err := users.EmailTaken(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.True(t, taken)

	require.NoError(t, users.UpdateFCMToken(ctx, "u1", "tok"))
	tok, err := users.FCMToken(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "tok", tok)
	assert.ErrorIs(t, users.UpdateFCMToken(ctx, "ghost", "tok"), domain.ErrNotFound)

	n := &models.Notification{UserID: "u1", Type: domain.NotifPolicyExpiring, Title: "t", Body: "b"}
	require.NoError(t, notifs.Create(ctx, n))
	unread, err := notifs.CountUnread(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	assert.ErrorIs(t, notifs.MarkRead(ctx, n.ID, "someone-else"), domain.ErrNotFound)
	require.NoError(t, notifs.MarkRead(ctx, n.ID, "u1"))
	unread, err = notifs.CountUnread(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, unread)

	list, err := notifs.ListByUserID(ctx, "u1", 20, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.NotNil(t, list[0].ReadAt)
}
