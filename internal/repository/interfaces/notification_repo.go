package interfaces

import (
	"context"
	"time"

	"github.com/siwachprerit/Drafted/internal/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	FindByID(ctx context.Context, id int) (*model.Notification, error)
	// FindOne 返回与查询条件匹配的最新一条通知
	FindOne(ctx context.Context, q model.NotificationQuery) (*model.Notification, error)
	// Refresh 将已有通知重新置为未读并更新时间
	Refresh(ctx context.Context, id int, at time.Time) error
	Delete(ctx context.Context, id int) error
	// ListByRecipient 按时间倒序返回通知，并附带发送者和帖子信息
	ListByRecipient(ctx context.Context, recipientID, limit int) ([]*model.Notification, error)
	CountUnread(ctx context.Context, recipientID int) (int, error)
	MarkAllRead(ctx context.Context, recipientID int) (int64, error)
	DeleteAllByRecipient(ctx context.Context, recipientID int) (int64, error)
}
