package dto

type NotificationListRequest struct {
	PageRequest
	UnreadOnly bool `form:"unread_only"`
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}
