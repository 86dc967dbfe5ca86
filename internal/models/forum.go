package models

import "time"

// Forum entities live in MongoDB; the repository maps them to bson documents.

type Topic struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Category   string    `json:"category"`
	Tags       []string  `json:"tags"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Views      int64     `json:"views"`
	Likes      []string  `json:"likes"`
	ReplyCount int64     `json:"replyCount"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (t *Topic) LikedBy(userID string) bool {
	for _, id := range t.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

type Reply struct {
	ID         string    `json:"id"`
	TopicID    string    `json:"topicId"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
