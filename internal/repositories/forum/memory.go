package forum

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"businessconnect_backend/internal/models"
)

// MemoryRepository keeps the forum in process. It backs the forum when
// MongoDB is not configured, and tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	topics  map[string]*models.Topic
	replies map[string]*models.Reply
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		topics:  make(map[string]*models.Topic),
		replies: make(map[string]*models.Reply),
	}
}

func copyTopic(t *models.Topic) models.Topic {
	cp := *t
	cp.Likes = append([]string{}, t.Likes...)
	cp.Tags = append([]string{}, t.Tags...)
	return cp
}

func (r *MemoryRepository) CreateTopic(_ context.Context, topic *models.Topic) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	topic.ID = uuid.NewString()
	topic.CreatedAt, topic.UpdatedAt = now, now
	if topic.Likes == nil {
		topic.Likes = []string{}
	}
	if topic.Tags == nil {
		topic.Tags = []string{}
	}
	stored := copyTopic(topic)
	r.topics[topic.ID] = &stored
	return nil
}

func (r *MemoryRepository) FindTopic(_ context.Context, id string) (*models.Topic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.topics[id]
	if !ok {
		return nil, ErrTopicNotFound
	}
	cp := copyTopic(t)
	return &cp, nil
}

func (r *MemoryRepository) UpdateTopic(_ context.Context, topic *models.Topic) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.topics[topic.ID]
	if !ok {
		return ErrTopicNotFound
	}
	topic.UpdatedAt = time.Now().UTC()
	t.Title, t.Content, t.Category = topic.Title, topic.Content, topic.Category
	t.Tags = append([]string{}, topic.Tags...)
	t.UpdatedAt = topic.UpdatedAt
	return nil
}

func (r *MemoryRepository) DeleteTopic(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.topics[id]; !ok {
		return ErrTopicNotFound
	}
	delete(r.topics, id)
	for rid, reply := range r.replies {
		if reply.TopicID == id {
			delete(r.replies, rid)
		}
	}
	return nil
}

func (r *MemoryRepository) ListTopics(_ context.Context, filter TopicFilter) ([]models.Topic, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	var matched []models.Topic
	for _, t := range r.topics {
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Content), search) {
			continue
		}
		matched = append(matched, copyTopic(t))
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := models.Offset(filter.Page, filter.PageSize)
	if start >= len(matched) {
		return []models.Topic{}, total, nil
	}
	end := start + filter.PageSize
	if filter.PageSize <= 0 || end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *MemoryRepository) IncrementViews(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.topics[id]; ok {
		t.Views++
	}
	return nil
}

func (r *MemoryRepository) ToggleLike(_ context.Context, topicID, userID string) (bool, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.topics[topicID]
	if !ok {
		return false, 0, ErrTopicNotFound
	}
	for i, id := range t.Likes {
		if id == userID {
			t.Likes = append(t.Likes[:i], t.Likes[i+1:]...)
			return false, len(t.Likes), nil
		}
	}
	t.Likes = append(t.Likes, userID)
	return true, len(t.Likes), nil
}

func (r *MemoryRepository) CreateReply(_ context.Context, reply *models.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.topics[reply.TopicID]
	if !ok {
		return ErrTopicNotFound
	}
	now := time.Now().UTC()
	reply.ID = uuid.NewString()
	reply.CreatedAt, reply.UpdatedAt = now, now
	stored := *reply
	r.replies[reply.ID] = &stored
	t.ReplyCount++
	t.UpdatedAt = now
	return nil
}

func (r *MemoryRepository) FindReply(_ context.Context, id string) (*models.Reply, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reply, ok := r.replies[id]
	if !ok {
		return nil, ErrReplyNotFound
	}
	cp := *reply
	return &cp, nil
}

func (r *MemoryRepository) DeleteReply(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reply, ok := r.replies[id]
	if !ok {
		return ErrReplyNotFound
	}
	delete(r.replies, id)
	if t, ok := r.topics[reply.TopicID]; ok && t.ReplyCount > 0 {
		t.ReplyCount--
	}
	return nil
}

func (r *MemoryRepository) ListReplies(_ context.Context, topicID string) ([]models.Reply, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Reply{}
	for _, reply := range r.replies {
		if reply.TopicID == topicID {
			out = append(out, *reply)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) Ping(context.Context) error { return nil }
