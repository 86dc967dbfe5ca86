// Package forum stores forum topics and replies.
package forum

import (
	"context"
	"errors"

	"businessconnect_backend/internal/models"
)

var (
	ErrTopicNotFound = errors.New("topic not found")
	ErrReplyNotFound = errors.New("reply not found")
)

type TopicFilter struct {
	Category string
	Search   string
	Page     int
	PageSize int
}

type Repository interface {
	CreateTopic(ctx context.Context, topic *models.Topic) error
	FindTopic(ctx context.Context, id string) (*models.Topic, error)
	UpdateTopic(ctx context.Context, topic *models.Topic) error
	// DeleteTopic removes the topic and its replies.
	DeleteTopic(ctx context.Context, id string) error
	ListTopics(ctx context.Context, filter TopicFilter) ([]models.Topic, int64, error)
	IncrementViews(ctx context.Context, id string) error
	// ToggleLike adds or removes userID from the topic likes.
	ToggleLike(ctx context.Context, topicID, userID string) (liked bool, likes int, err error)

	// CreateReply stores the reply and increments the topic reply count.
	CreateReply(ctx context.Context, reply *models.Reply) error
	FindReply(ctx context.Context, id string) (*models.Reply, error)
	DeleteReply(ctx context.Context, id string) error
	ListReplies(ctx context.Context, topicID string) ([]models.Reply, error)

	Ping(ctx context.Context) error
}
