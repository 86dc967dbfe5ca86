package dto

import "businessconnect_backend/internal/models"

type CreateTopicRequest struct {
	Title    string   `json:"title" validate:"required,min=3,max=200"`
	Content  string   `json:"content" validate:"required,min=3,max=10000"`
	Category string   `json:"category" validate:"required,max=60"`
	Tags     []string `json:"tags" validate:"omitempty,max=10,dive,min=1,max=30"`
}

type UpdateTopicRequest struct {
	Title    *string  `json:"title" validate:"omitempty,min=3,max=200"`
	Content  *string  `json:"content" validate:"omitempty,min=3,max=10000"`
	Category *string  `json:"category" validate:"omitempty,max=60"`
	Tags     []string `json:"tags" validate:"omitempty,max=10,dive,min=1,max=30"`
}

type TopicListRequest struct {
	PageRequest
	Category string `form:"category" validate:"omitempty,max=60"`
	Search   string `form:"q" validate:"omitempty,max=100"`
}

type CreateReplyRequest struct {
	Content string `json:"content" validate:"required,min=1,max=5000"`
}

type TopicDetailResponse struct {
	Topic   *models.Topic  `json:"topic"`
	Replies []models.Reply `json:"replies"`
}

type LikeResponse struct {
	Liked bool  `json:"liked"`
	Likes int64 `json:"likes"`
}
