package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"businessconnect_backend/internal/events"
	"businessconnect_backend/internal/models"
	"businessconnect_backend/internal/repositories"
	"businessconnect_backend/internal/repositories/forum"
	"businessconnect_backend/internal/services/dto"
	"businessconnect_backend/internal/testhelpers"
	"businessconnect_backend/pkg/apperrors"
)

func TestForum_TopicLifecycle(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.NewTestDB(t)
	pusher := &recordingPusher{}
	publisher := &recordingPublisher{}
	svc := NewForumService(forum.NewMemoryRepository(), repositories.NewUserRepository(),
		newTestNotificationService(t, pusher, nil), publisher)

	author := testhelpers.CreateUser(t, db, &models.User{FirstName: "Ibrahima", LastName: "Fall"})
	replier := testhelpers.CreateUser(t, db, &models.User{FirstName: "Khady", LastName: "Ba"})
	admin := testhelpers.CreateUser(t, db, &models.User{Role: models.UserRoleAdmin})

	topic, err := svc.CreateTopic(ctx, db, actorOf(author), &dto.CreateTopicRequest{
		Title:    " Créer une entreprise à Dakar ",
		Content:  "Quelles sont les démarches auprès de l'APIX ?",
		Category: "entrepreneuriat",
		Tags:     []string{"APIX", " apix ", "", "Démarches"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Créer une entreprise à Dakar", topic.Title)
	assert.Equal(t, "Ibrahima Fall", topic.AuthorName)
	assert.Equal(t, []string{"apix", "démarches"}, topic.Tags)
	assert.Equal(t, []string{events.SubjectForumTopicCreated}, publisher.published())

	reply, err := svc.CreateReply(ctx, db, actorOf(replier), topic.ID, &dto.CreateReplyRequest{Content: "Le guichet unique de l'APIX."})
	require.NoError(t, err)
	assert.Equal(t, "Khady Ba", reply.AuthorName)
	assert.Equal(t, 1, pusher.pushed[author.ID], "the topic author is notified live")

	_, err = svc.CreateReply(ctx, db, actorOf(author), topic.ID, &dto.CreateReplyRequest{Content: "Merci !"})
	require.NoError(t, err)
	assert.Equal(t, 1, pusher.pushed[author.ID], "no notification for own replies")

	detail, err := svc.GetTopic(ctx, topic.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Replies, 2)
	assert.Equal(t, int64(1), detail.Topic.Views)
	assert.Equal(t, int64(2), detail.Topic.ReplyCount)

	like, err := svc.ToggleLike(ctx, actorOf(replier), topic.ID)
	require.NoError(t, err)
	assert.True(t, like.Liked)
	assert.Equal(t, int64(1), like.Likes)
	like, err = svc.ToggleLike(ctx, actorOf(replier), topic.ID)
	require.NoError(t, err)
	assert.False(t, like.Liked)

	title := "Piraté"
	_, err = svc.UpdateTopic(ctx, actorOf(replier), topic.ID, &dto.UpdateTopicRequest{Title: &title})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientPermissions)

	assert.ErrorIs(t, svc.DeleteReply(ctx, actorOf(author), reply.ID), apperrors.ErrInsufficientPermissions)
	require.NoError(t, svc.DeleteReply(ctx, actorOf(admin), reply.ID))
	assert.ErrorIs(t, svc.DeleteReply(ctx, actorOf(admin), reply.ID), apperrors.ErrReplyNotFound)

	list, err := svc.ListTopics(ctx, &dto.TopicListRequest{Category: "entrepreneuriat"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Pagination.Total)

	require.NoError(t, svc.DeleteTopic(ctx, actorOf(author), topic.ID))
	_, err = svc.GetTopic(ctx, topic.ID)
	assert.ErrorIs(t, err, apperrors.ErrTopicNotFound)
}
