package service

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/siwachprerit/Drafted/internal/errors"
	"github.com/siwachprerit/Drafted/internal/model"
	"github.com/siwachprerit/Drafted/internal/presence"
	"github.com/siwachprerit/Drafted/internal/repository/interfaces"
	"github.com/siwachprerit/Drafted/internal/util"
)

// ExcerptLength 评论通知中保留的字符数
const ExcerptLength = 50

const toggleStripes = 64

// InteractionService 处理关注、点赞、评论和收藏
// 主操作成功后，通知和实时推送的失败只记录日志，不影响返回结果
type InteractionService struct {
	userRepo interfaces.UserRepository
	postRepo interfaces.PostRepository
	ledger   NotificationLedger
	presence presence.Registry

	// toggles 让同一对 (actor, target) 的切换和随后的通知按顺序执行
	toggles [toggleStripes]sync.Mutex
}

func NewInteractionService(
	userRepo interfaces.UserRepository,
	postRepo interfaces.PostRepository,
	ledger NotificationLedger,
	registry presence.Registry,
) *InteractionService {
	return &InteractionService{
		userRepo: userRepo,
		postRepo: postRepo,
		ledger:   ledger,
		presence: registry,
	}
}

// ToggleFollow 切换关注状态，返回切换后是否处于关注状态
func (s *InteractionService) ToggleFollow(ctx context.Context, actorID, targetID int) (bool, error) {
	target, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return false, unavailable("查询用户失败", err)
	}
	if target == nil {
		return false, errors.New(errors.ErrUserNotFound, "用户不存在")
	}
	if actorID == targetID {
		return false, errors.New(errors.ErrInvalidOperation, "不能关注自己")
	}

	defer s.lockToggle(actorID, targetID)()
	following, err := s.userRepo.ToggleFollow(ctx, actorID, targetID)
	if err != nil {
		return false, vanished(err, errors.ErrUserNotFound, "用户不存在", "关注操作失败")
	}

	if following {
		s.notify(ctx, targetID, actorID, model.NotificationFollow, nil, "")
	} else {
		s.revoke(ctx, model.NotificationQuery{
			RecipientID: targetID,
			SenderID:    actorID,
			Kind:        model.NotificationFollow,
		})
	}
	util.Logger.Info("关注状态已切换",
		zap.Int("actor_id", actorID),
		zap.Int("target_id", targetID),
		zap.Bool("following", following))
	return following, nil
}

// ToggleLike 切换点赞状态，返回最新的点赞用户列表
func (s *InteractionService) ToggleLike(ctx context.Context, postID, actorID int) ([]int, error) {
	post, err := s.visiblePost(ctx, postID, actorID)
	if err != nil {
		return nil, err
	}

	defer s.lockToggle(actorID, postID)()
	likes, liked, err := s.postRepo.ToggleLike(ctx, postID, actorID)
	if err != nil {
		return nil, vanished(err, errors.ErrPostNotFound, "帖子不存在", "点赞操作失败")
	}

	if liked {
		s.notify(ctx, post.AuthorID, actorID, model.NotificationLike, &post.ID, "")
	} else {
		s.revoke(ctx, model.NotificationQuery{
			RecipientID: post.AuthorID,
			SenderID:    actorID,
			Kind:        model.NotificationLike,
			PostID:      &post.ID,
		})
	}
	return likes, nil
}

// AddComment 发表评论，回复时同时通知被回复的评论作者
func (s *InteractionService) AddComment(ctx context.Context, postID, actorID int, content string, parentID *int) ([]*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New(errors.ErrValidation, "评论内容不能为空")
	}

	post, err := s.visiblePost(ctx, postID, actorID)
	if err != nil {
		return nil, err
	}

	var parent *model.Comment
	if parentID != nil {
		if parent = post.FindComment(*parentID); parent == nil {
			return nil, errors.New(errors.ErrCommentNotFound, "回复的评论不存在")
		}
	}

	comments, err := s.postRepo.AddComment(ctx, &model.Comment{
		PostID:   postID,
		UserID:   actorID,
		Content:  content,
		ParentID: parentID,
	})
	if err != nil {
		return nil, vanished(err, errors.ErrPostNotFound, "帖子不存在", "发表评论失败")
	}

	excerpt := util.Excerpt(content, ExcerptLength)
	s.notify(ctx, post.AuthorID, actorID, model.NotificationComment, &post.ID, excerpt)
	if parent != nil && parent.UserID != post.AuthorID {
		s.notify(ctx, parent.UserID, actorID, model.NotificationComment, &post.ID, excerpt)
	}
	return comments, nil
}

// DeleteComment 评论作者或帖子作者可以删除评论
func (s *InteractionService) DeleteComment(ctx context.Context, postID, commentID, actorID int) ([]*model.Comment, error) {
	post, err := s.visiblePost(ctx, postID, actorID)
	if err != nil {
		return nil, err
	}

	comment := post.FindComment(commentID)
	if comment == nil {
		return nil, errors.New(errors.ErrCommentNotFound, "评论不存在")
	}
	if actorID != comment.UserID && actorID != post.AuthorID {
		return nil, errors.New(errors.ErrForbidden, "无权删除该评论")
	}

	comments, err := s.postRepo.DeleteComment(ctx, postID, commentID)
	if err != nil {
		return nil, unavailable("删除评论失败", err)
	}

	excerpt := util.Excerpt(comment.Content, ExcerptLength)
	s.revoke(ctx, model.NotificationQuery{
		RecipientID: post.AuthorID,
		SenderID:    comment.UserID,
		Kind:        model.NotificationComment,
		PostID:      &post.ID,
		Content:     &excerpt,
	})
	if comment.ParentID != nil {
		if parent := post.FindComment(*comment.ParentID); parent != nil && parent.UserID != post.AuthorID {
			s.revoke(ctx, model.NotificationQuery{
				RecipientID: parent.UserID,
				SenderID:    comment.UserID,
				Kind:        model.NotificationComment,
				PostID:      &post.ID,
				Content:     &excerpt,
			})
		}
	}
	return comments, nil
}

// ToggleSave 切换收藏状态
func (s *InteractionService) ToggleSave(ctx context.Context, postID, actorID int) (bool, error) {
	if _, err := s.visiblePost(ctx, postID, actorID); err != nil {
		return false, err
	}
	saved, err := s.userRepo.ToggleSave(ctx, actorID, postID)
	if err != nil {
		return false, vanished(err, errors.ErrPostNotFound, "帖子不存在", "收藏操作失败")
	}
	return saved, nil
}

// lockToggle 只串行化本进程内的请求，多实例部署时仍然是最后写入生效
func (s *InteractionService) lockToggle(actorID, targetID int) func() {
	m := &s.toggles[(uint32(actorID)*2654435761^uint32(targetID))%toggleStripes]
	m.Lock()
	return m.Unlock
}

// visiblePost 草稿对作者以外的用户表现为不存在
func (s *InteractionService) visiblePost(ctx context.Context, postID, actorID int) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, unavailable("查询帖子失败", err)
	}
	if post == nil || !post.VisibleTo(actorID) {
		return nil, errors.New(errors.ErrPostNotFound, "帖子不存在")
	}
	return post, nil
}

// notify 写入通知并推送给在线的接收者
func (s *InteractionService) notify(ctx context.Context, recipientID, senderID int, kind model.NotificationKind, postID *int, excerpt string) {
	ctx = context.WithoutCancel(ctx)
	defer s.recoverSideEffect(kind, recipientID)

	n, err := s.ledger.Record(ctx, recipientID, senderID, kind, postID, excerpt)
	if err != nil {
		util.Logger.Warn("写入通知失败",
			zap.Int("recipient_id", recipientID),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return
	}
	if n == nil {
		return
	}
	s.emit(ctx, recipientID, presence.EventNewNotification, n)
}

// revoke 删除通知，找到时推送移除事件
func (s *InteractionService) revoke(ctx context.Context, q model.NotificationQuery) {
	ctx = context.WithoutCancel(ctx)
	defer s.recoverSideEffect(q.Kind, q.RecipientID)

	n, err := s.ledger.Revoke(ctx, q)
	if err != nil {
		util.Logger.Warn("撤回通知失败",
			zap.Int("recipient_id", q.RecipientID),
			zap.String("kind", string(q.Kind)),
			zap.Error(err))
		return
	}
	if n == nil {
		return
	}
	s.emit(ctx, q.RecipientID, presence.EventRemoveNotification, n.ID)
}

func (s *InteractionService) emit(ctx context.Context, userID int, event string, payload interface{}) {
	if s.presence == nil {
		return
	}
	if err := s.presence.Emit(ctx, userID, event, payload); err != nil {
		util.Logger.Warn("实时推送失败",
			zap.Int("user_id", userID),
			zap.String("event", event),
			zap.Error(err))
	}
}

func (s *InteractionService) recoverSideEffect(kind model.NotificationKind, recipientID int) {
	if r := recover(); r != nil {
		util.Logger.Error("通知处理发生panic",
			zap.Any("panic", r),
			zap.String("kind", string(kind)),
			zap.Int("recipient_id", recipientID))
	}
}
