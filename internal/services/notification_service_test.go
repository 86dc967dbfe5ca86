package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"businessconnect_backend/internal/models"
	"businessconnect_backend/internal/services/dto"
	"businessconnect_backend/internal/testhelpers"
	"businessconnect_backend/pkg/apperrors"
)

func TestNotifications_DeliveryFollowsPreferences(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.NewTestDB(t)
	emailSvc, provider := newTestEmailService(t)
	pusher := &recordingPusher{}
	svc := newTestNotificationService(t, pusher, emailSvc)

	user := testhelpers.CreateUser(t, db, &models.User{})
	quiet := testhelpers.CreateUser(t, db, &models.User{
		Preferences: datatypes.NewJSONType(models.UserPreferences{Language: "fr"}),
	})

	n, err := svc.Notify(ctx, db, Notice{
		UserID:  user.ID,
		Type:    models.NotificationApplicationStatus,
		Title:   "Mise à jour de votre candidature",
		Message: "Votre candidature est acceptée.",
		Link:    "/applications",
	})
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.False(t, n.IsRead)
	assert.Equal(t, 1, pusher.pushed[user.ID])
	assert.Equal(t, []string{"Mise à jour de votre candidature"}, provider.subjects())

	// forum replies are in-app only
	_, err = svc.Notify(ctx, db, Notice{UserID: user.ID, Type: models.NotificationForumReply, Title: "Nouvelle réponse"})
	require.NoError(t, err)
	assert.Len(t, provider.subjects(), 1)

	n, err = svc.Notify(ctx, db, Notice{UserID: quiet.ID, Type: models.NotificationApplicationStatus, Title: "Silence"})
	require.NoError(t, err)
	assert.Nil(t, n, "in-app notifications disabled")
	assert.Zero(t, pusher.pushed[quiet.ID])
	assert.Len(t, provider.subjects(), 1)

	_, err = svc.Notify(ctx, db, Notice{UserID: "ghost", Type: models.NotificationForumReply})
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestNotifications_ReadAndDelete(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.NewTestDB(t)
	svc := newTestNotificationService(t, nil, nil)
	user := testhelpers.CreateUser(t, db, &models.User{})
	other := testhelpers.CreateUser(t, db, &models.User{})

	var ids []string
	for i := 0; i < 3; i++ {
		n, err := svc.Notify(ctx, db, Notice{UserID: user.ID, Type: models.NotificationForumReply, Title: "Réponse"})
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}

	count, err := svc.UnreadCount(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	assert.ErrorIs(t, svc.MarkAsRead(db, other.ID, ids[0]), apperrors.ErrNotificationNotFound)
	require.NoError(t, svc.MarkAsRead(db, user.ID, ids[0]))
	require.NoError(t, svc.MarkAsRead(db, user.ID, ids[0]), "marking twice is fine")

	unread, err := svc.List(db, user.ID, &dto.NotificationListRequest{UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, unread.Items, 2)

	updated, err := svc.MarkAllAsRead(db, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated)

	assert.ErrorIs(t, svc.Delete(db, other.ID, ids[1]), apperrors.ErrNotificationNotFound)
	require.NoError(t, svc.Delete(db, user.ID, ids[1]))

	all, err := svc.List(db, user.ID, &dto.NotificationListRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Pagination.Total)
}
