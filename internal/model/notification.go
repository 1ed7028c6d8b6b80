package model

import (
	"fmt"
	"time"
)

// NotificationKind 通知类型，取值范围封闭
type NotificationKind string

const (
	NotificationLike     NotificationKind = "like"
	NotificationComment  NotificationKind = "comment"
	NotificationFollow   NotificationKind = "follow"
	NotificationUnfollow NotificationKind = "unfollow"
)

// ParseNotificationKind 将字符串解析为通知类型
func ParseNotificationKind(s string) (NotificationKind, error) {
	kind := NotificationKind(s)
	switch kind {
	case NotificationLike, NotificationComment, NotificationFollow, NotificationUnfollow:
		return kind, nil
	}
	return "", fmt.Errorf("未知的通知类型: %q", s)
}

// Unique 点赞和关注通知在同一关系上最多只保留一条
func (k NotificationKind) Unique() bool {
	switch k {
	case NotificationLike, NotificationFollow:
		return true
	case NotificationComment, NotificationUnfollow:
		return false
	}
	panic(fmt.Sprintf("未处理的通知类型: %q", string(k)))
}

type Notification struct {
	ID          int              `json:"id"`
	RecipientID int              `json:"recipient_id"`
	SenderID    int              `json:"sender_id"`
	Sender      *UserSummary     `json:"sender,omitempty"`
	Kind        NotificationKind `json:"type"`
	PostID      *int             `json:"post_id,omitempty"`
	Post        *PostSummary     `json:"post,omitempty"`
	Content     string           `json:"content"`
	IsRead      bool             `json:"is_read"`
	CreatedAt   time.Time        `json:"created_at"`
}

// NotificationQuery 用于定位一条通知所对应的关系
// Content 为 nil 时不按内容匹配
type NotificationQuery struct {
	RecipientID int
	SenderID    int
	Kind        NotificationKind
	PostID      *int
	Content     *string
}

// Matches 判断通知是否与查询条件一致
func (q NotificationQuery) Matches(n *Notification) bool {
	if n.RecipientID != q.RecipientID || n.SenderID != q.SenderID || n.Kind != q.Kind {
		return false
	}
	if (q.PostID == nil) != (n.PostID == nil) {
		return false
	}
	if q.PostID != nil && *q.PostID != *n.PostID {
		return false
	}
	if q.Content != nil && *q.Content != n.Content {
		return false
	}
	return true
}
