package forum

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"businessconnect_backend/internal/models"
)

// runContract exercises a Repository implementation.
func runContract(t *testing.T, repo Repository) {
	ctx := context.Background()

	topic := &models.Topic{Title: "Créer une SARL à Dakar", Content: "Quelles démarches ?", Category: "entrepreneuriat", AuthorID: "u1", AuthorName: "Awa Diop"}
	require.NoError(t, repo.CreateTopic(ctx, topic))
	require.NotEmpty(t, topic.ID)

	other := &models.Topic{Title: "Stage en informatique", Content: "Qui recrute ?", Category: "emploi", AuthorID: "u2"}
	require.NoError(t, repo.CreateTopic(ctx, other))

	t.Run("list filters", func(t *testing.T) {
		list, total, err := repo.ListTopics(ctx, TopicFilter{Category: "emploi", Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, other.ID, list[0].ID)

		list, total, err = repo.ListTopics(ctx, TopicFilter{Search: "sarl", Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, topic.ID, list[0].ID)
	})

	t.Run("likes toggle", func(t *testing.T) {
		liked, likes, err := repo.ToggleLike(ctx, topic.ID, "u2")
		require.NoError(t, err)
		assert.True(t, liked)
		assert.Equal(t, 1, likes)

		liked, likes, err = repo.ToggleLike(ctx, topic.ID, "u2")
		require.NoError(t, err)
		assert.False(t, liked)
		assert.Equal(t, 0, likes)
	})

	t.Run("replies maintain count", func(t *testing.T) {
		reply := &models.Reply{TopicID: topic.ID, AuthorID: "u2", Content: "Passez par l'APIX."}
		require.NoError(t, repo.CreateReply(ctx, reply))
		require.NotEmpty(t, reply.ID)

		got, err := repo.FindTopic(ctx, topic.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), got.ReplyCount)

		replies, err := repo.ListReplies(ctx, topic.ID)
		require.NoError(t, err)
		require.Len(t, replies, 1)

		require.NoError(t, repo.DeleteReply(ctx, reply.ID))
		got, err = repo.FindTopic(ctx, topic.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), got.ReplyCount)
	})

	t.Run("delete cascades replies", func(t *testing.T) {
		reply := &models.Reply{TopicID: other.ID, AuthorID: "u1", Content: "Orange Digital Center"}
		require.NoError(t, repo.CreateReply(ctx, reply))

		require.NoError(t, repo.DeleteTopic(ctx, other.ID))
		_, err := repo.FindTopic(ctx, other.ID)
		assert.ErrorIs(t, err, ErrTopicNotFound)
		_, err = repo.FindReply(ctx, reply.ID)
		assert.ErrorIs(t, err, ErrReplyNotFound)
	})

	t.Run("unknown ids", func(t *testing.T) {
		_, err := repo.FindTopic(ctx, "does-not-exist")
		assert.ErrorIs(t, err, ErrTopicNotFound)
		assert.ErrorIs(t, repo.CreateReply(ctx, &models.Reply{TopicID: "nope"}), ErrTopicNotFound)
	})
}

func TestMemoryRepository(t *testing.T) {
	runContract(t, NewMemoryRepository())
}

func TestMongoRepository(t *testing.T) {
	if testing.Short() || os.Getenv("SKIP_DOCKER_TESTS") != "" {
		t.Skip("docker tests disabled")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	pool.MaxWait = 60 * time.Second

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mongo",
		Tag:        "7.0",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })

	uri := fmt.Sprintf("mongodb://%s", resource.GetHostPort("27017/tcp"))
	var client *mongo.Client
	require.NoError(t, pool.Retry(func() error {
		var errRetry error
		client, errRetry = mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
		if errRetry != nil {
			return errRetry
		}
		return client.Ping(context.Background(), nil)
	}))
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	repo := NewMongoRepository(client, "businessconnect_test")
	require.NoError(t, repo.EnsureIndexes(context.Background()))
	runContract(t, repo)
}
