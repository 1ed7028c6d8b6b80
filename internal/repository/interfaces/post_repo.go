package interfaces

import (
	"context"

	"github.com/siwachprerit/Drafted/internal/model"
)

// PostRepository 定义了帖子、点赞和评论的存储操作
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id int) (*model.Post, error)
	FindBySlug(ctx context.Context, slug string) (*model.Post, error)
	SlugExists(ctx context.Context, slug string, excludeID int) (bool, error)
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, filter model.PostFilter) ([]*model.Post, error)
	ListByIDs(ctx context.Context, ids []int) ([]*model.Post, error)
	IncrementViews(ctx context.Context, id int) (int, error)
	TagCounts(ctx context.Context) ([]model.TagCount, error)

	// ToggleLike 切换点赞状态，返回切换后的点赞用户列表和是否已点赞
	// 帖子不存在时返回 ErrNotFound，AddComment 同理
	ToggleLike(ctx context.Context, postID, userID int) ([]int, bool, error)
	// AddComment 追加评论并返回帖子的全部评论
	AddComment(ctx context.Context, comment *model.Comment) ([]*model.Comment, error)
	// DeleteComment 删除评论并返回剩余评论
	DeleteComment(ctx context.Context, postID, commentID int) ([]*model.Comment, error)
}
