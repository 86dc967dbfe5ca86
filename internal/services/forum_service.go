package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"businessconnect_backend/internal/events"
	"businessconnect_backend/internal/logger"
	"businessconnect_backend/internal/models"
	"businessconnect_backend/internal/repositories"
	"businessconnect_backend/internal/repositories/forum"
	"businessconnect_backend/internal/services/dto"
	"businessconnect_backend/pkg/apperrors"
)

// ForumService keeps topics in the document store. The relational db is only
// used to resolve author names and to deliver notifications.
type ForumService interface {
	ListTopics(ctx context.Context, req *dto.TopicListRequest) (*dto.ListResponse[models.Topic], error)
	GetTopic(ctx context.Context, topicID string) (*dto.TopicDetailResponse, error)
	CreateTopic(ctx context.Context, db *gorm.DB, actor Actor, req *dto.CreateTopicRequest) (*models.Topic, error)
	UpdateTopic(ctx context.Context, actor Actor, topicID string, req *dto.UpdateTopicRequest) (*models.Topic, error)
	DeleteTopic(ctx context.Context, actor Actor, topicID string) error

	CreateReply(ctx context.Context, db *gorm.DB, actor Actor, topicID string, req *dto.CreateReplyRequest) (*models.Reply, error)
	DeleteReply(ctx context.Context, actor Actor, replyID string) error

	ToggleLike(ctx context.Context, actor Actor, topicID string) (*dto.LikeResponse, error)
}

type ForumServiceImpl struct {
	forumRepo     forum.Repository
	userRepo      repositories.UserRepository
	notifications NotificationService
	publisher     events.Publisher
}

func NewForumService(
	forumRepo forum.Repository,
	userRepo repositories.UserRepository,
	notifications NotificationService,
	publisher events.Publisher,
) ForumService {
	return &ForumServiceImpl{
		forumRepo:     forumRepo,
		userRepo:      userRepo,
		notifications: notifications,
		publisher:     publisher,
	}
}

func (s *ForumServiceImpl) ListTopics(ctx context.Context, req *dto.TopicListRequest) (*dto.ListResponse[models.Topic], error) {
	req.Normalize()
	topics, total, err := s.forumRepo.ListTopics(ctx, forum.TopicFilter{
		Category: req.Category,
		Search:   req.Search,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return dto.NewListResponse(topics, req.Page, req.PageSize, total), nil
}

func (s *ForumServiceImpl) GetTopic(ctx context.Context, topicID string) (*dto.TopicDetailResponse, error) {
	topic, err := s.forumRepo.FindTopic(ctx, topicID)
	if err != nil {
		return nil, handleForumError(err)
	}
	if err := s.forumRepo.IncrementViews(ctx, topicID); err != nil {
		logger.CtxWithError(ctx, "Failed to increment topic views", err, "topic_id", topicID)
	} else {
		topic.Views++
	}

	replies, err := s.forumRepo.ListReplies(ctx, topicID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if replies == nil {
		replies = []models.Reply{}
	}
	return &dto.TopicDetailResponse{Topic: topic, Replies: replies}, nil
}

func (s *ForumServiceImpl) CreateTopic(ctx context.Context, db *gorm.DB, actor Actor, req *dto.CreateTopicRequest) (*models.Topic, error) {
	author, err := s.userRepo.FindByID(db, actor.UserID)
	if err != nil {
		return nil, handleUserError(err)
	}

	topic := &models.Topic{
		Title:      strings.TrimSpace(req.Title),
		Content:    req.Content,
		Category:   strings.TrimSpace(req.Category),
		Tags:       cleanTags(req.Tags),
		AuthorID:   author.ID,
		AuthorName: author.FullName(),
	}
	if err := s.forumRepo.CreateTopic(ctx, topic); err != nil {
		return nil, apperrors.InternalError(err)
	}

	events.Emit(ctx, s.publisher, events.SubjectForumTopicCreated, map[string]interface{}{
		"topicId":  topic.ID,
		"authorId": topic.AuthorID,
		"category": topic.Category,
	})
	return topic, nil
}

func (s *ForumServiceImpl) UpdateTopic(ctx context.Context, actor Actor, topicID string, req *dto.UpdateTopicRequest) (*models.Topic, error) {
	topic, err := s.forumRepo.FindTopic(ctx, topicID)
	if err != nil {
		return nil, handleForumError(err)
	}
	if !actor.CanModify(topic.AuthorID) {
		return nil, apperrors.ErrInsufficientPermissions
	}

	if req.Title != nil {
		topic.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		topic.Content = *req.Content
	}
	if req.Category != nil {
		topic.Category = strings.TrimSpace(*req.Category)
	}
	if req.Tags != nil {
		topic.Tags = cleanTags(req.Tags)
	}

	if err := s.forumRepo.UpdateTopic(ctx, topic); err != nil {
		return nil, handleForumError(err)
	}
	return topic, nil
}

func (s *ForumServiceImpl) DeleteTopic(ctx context.Context, actor Actor, topicID string) error {
	topic, err := s.forumRepo.FindTopic(ctx, topicID)
	if err != nil {
		return handleForumError(err)
	}
	if !actor.CanModify(topic.AuthorID) {
		return apperrors.ErrInsufficientPermissions
	}
	if err := s.forumRepo.DeleteTopic(ctx, topicID); err != nil {
		return handleForumError(err)
	}
	logger.CtxInfo(ctx, "Forum topic deleted", "topic_id", topicID, "by", actor.UserID)
	return nil
}

func (s *ForumServiceImpl) CreateReply(ctx context.Context, db *gorm.DB, actor Actor, topicID string, req *dto.CreateReplyRequest) (*models.Reply, error) {
	topic, err := s.forumRepo.FindTopic(ctx, topicID)
	if err != nil {
		return nil, handleForumError(err)
	}
	author, err := s.userRepo.FindByID(db, actor.UserID)
	if err != nil {
		return nil, handleUserError(err)
	}

	reply := &models.Reply{
		TopicID:    topic.ID,
		AuthorID:   author.ID,
		AuthorName: author.FullName(),
		Content:    req.Content,
	}
	if err := s.forumRepo.CreateReply(ctx, reply); err != nil {
		return nil, handleForumError(err)
	}

	if topic.AuthorID != author.ID && s.notifications != nil {
		_, err := s.notifications.Notify(ctx, db, Notice{
			UserID:  topic.AuthorID,
			Type:    models.NotificationForumReply,
			Title:   "Nouvelle réponse",
			Message: fmt.Sprintf("%s a répondu à votre sujet « %s ».", author.FullName(), topic.Title),
			Data:    map[string]interface{}{"topicId": topic.ID, "replyId": reply.ID},
			Link:    "/forum/" + topic.ID,
		})
		if err != nil {
			logger.CtxWithError(ctx, "Failed to notify topic author", err, "topic_id", topic.ID)
		}
	}
	return reply, nil
}

func (s *ForumServiceImpl) DeleteReply(ctx context.Context, actor Actor, replyID string) error {
	reply, err := s.forumRepo.FindReply(ctx, replyID)
	if err != nil {
		return handleForumError(err)
	}
	if !actor.CanModify(reply.AuthorID) {
		return apperrors.ErrInsufficientPermissions
	}
	if err := s.forumRepo.DeleteReply(ctx, replyID); err != nil {
		return handleForumError(err)
	}
	return nil
}

func (s *ForumServiceImpl) ToggleLike(ctx context.Context, actor Actor, topicID string) (*dto.LikeResponse, error) {
	liked, likes, err := s.forumRepo.ToggleLike(ctx, topicID, actor.UserID)
	if err != nil {
		return nil, handleForumError(err)
	}
	return &dto.LikeResponse{Liked: liked, Likes: int64(likes)}, nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func handleForumError(err error) error {
	switch {
	case errors.Is(err, forum.ErrTopicNotFound):
		return apperrors.ErrTopicNotFound
	case errors.Is(err, forum.ErrReplyNotFound):
		return apperrors.ErrReplyNotFound
	}
	return apperrors.InternalError(err)
}
