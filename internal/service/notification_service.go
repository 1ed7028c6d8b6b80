package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/siwachprerit/Drafted/internal/errors"
	"github.com/siwachprerit/Drafted/internal/model"
	"github.com/siwachprerit/Drafted/internal/repository/interfaces"
	"github.com/siwachprerit/Drafted/internal/util"
)

const (
	DefaultNotificationLimit = 20
	MaxNotificationLimit     = 100
)

// NotificationLedger 是互动引擎写入通知所需的最小接口
type NotificationLedger interface {
	Record(ctx context.Context, recipientID, senderID int, kind model.NotificationKind, postID *int, excerpt string) (*model.Notification, error)
	Revoke(ctx context.Context, q model.NotificationQuery) (*model.Notification, error)
}

// NotificationService 管理通知的持久记录
type NotificationService struct {
	repo interfaces.NotificationRepository
	now  func() time.Time
}

func NewNotificationService(repo interfaces.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo, now: time.Now}
}

var _ NotificationLedger = (*NotificationService)(nil)

// Record 写入一条通知，自己对自己的操作不产生通知
// 点赞和关注通知已存在时刷新原记录
func (s *NotificationService) Record(ctx context.Context, recipientID, senderID int, kind model.NotificationKind, postID *int, excerpt string) (*model.Notification, error) {
	if recipientID == senderID {
		return nil, nil
	}

	if kind.Unique() {
		existing, err := s.repo.FindOne(ctx, model.NotificationQuery{
			RecipientID: recipientID,
			SenderID:    senderID,
			Kind:        kind,
			PostID:      postID,
		})
		if err != nil {
			return nil, unavailable("查询通知失败", err)
		}
		if existing != nil {
			if err := s.repo.Refresh(ctx, existing.ID, s.now()); err != nil {
				return nil, unavailable("刷新通知失败", err)
			}
			return s.reload(ctx, existing.ID)
		}
	}

	n := &model.Notification{
		RecipientID: recipientID,
		SenderID:    senderID,
		Kind:        kind,
		PostID:      postID,
		Content:     excerpt,
		CreatedAt:   s.now(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, unavailable("创建通知失败", err)
	}
	util.Logger.Info("通知已创建",
		zap.Int("notification_id", n.ID),
		zap.Int("recipient_id", recipientID),
		zap.String("kind", string(kind)))
	return s.reload(ctx, n.ID)
}

// reload 重新读取通知以带上发送者和帖子信息
func (s *NotificationService) reload(ctx context.Context, id int) (*model.Notification, error) {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, unavailable("查询通知失败", err)
	}
	return n, nil
}

// Revoke 删除匹配的通知并返回被删除的记录，没有匹配时返回 nil
func (s *NotificationService) Revoke(ctx context.Context, q model.NotificationQuery) (*model.Notification, error) {
	n, err := s.repo.FindOne(ctx, q)
	if err != nil {
		return nil, unavailable("查询通知失败", err)
	}
	if n == nil {
		return nil, nil
	}
	if err := s.repo.Delete(ctx, n.ID); err != nil {
		return nil, unavailable("删除通知失败", err)
	}
	util.Logger.Info("通知已撤回",
		zap.Int("notification_id", n.ID),
		zap.Int("recipient_id", n.RecipientID),
		zap.String("kind", string(n.Kind)))
	return n, nil
}

// List 按时间倒序返回通知
func (s *NotificationService) List(ctx context.Context, recipientID, limit int) ([]*model.Notification, error) {
	if limit <= 0 {
		limit = DefaultNotificationLimit
	}
	if limit > MaxNotificationLimit {
		limit = MaxNotificationLimit
	}
	list, err := s.repo.ListByRecipient(ctx, recipientID, limit)
	if err != nil {
		return nil, unavailable("获取通知失败", err)
	}
	return list, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, recipientID int) (int, error) {
	count, err := s.repo.CountUnread(ctx, recipientID)
	if err != nil {
		return 0, unavailable("获取未读数量失败", err)
	}
	return count, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID int) error {
	updated, err := s.repo.MarkAllRead(ctx, recipientID)
	if err != nil {
		return unavailable("标记已读失败", err)
	}
	util.Logger.Info("通知已全部标记为已读", zap.Int("recipient_id", recipientID), zap.Int64("updated", updated))
	return nil
}

func (s *NotificationService) DeleteAll(ctx context.Context, recipientID int) error {
	if _, err := s.repo.DeleteAllByRecipient(ctx, recipientID); err != nil {
		return unavailable("清空通知失败", err)
	}
	return nil
}

// DeleteOne 只有接收者可以删除通知
func (s *NotificationService) DeleteOne(ctx context.Context, id, actorID int) error {
	n, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return unavailable("查询通知失败", err)
	}
	if n == nil {
		return errors.New(errors.ErrNotificationNotFound, "通知不存在")
	}
	if n.RecipientID != actorID {
		return errors.New(errors.ErrForbidden, "无权删除该通知")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return unavailable("删除通知失败", err)
	}
	return nil
}
