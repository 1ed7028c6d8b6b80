package interfaces

import (
	"context"

	"github.com/siwachprerit/Drafted/internal/model"
)

// UserRepository 接口定义了用户仓库应该实现的方法
// 查找类方法在记录不存在时返回 nil, nil
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id int) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	// Delete 删除用户及其帖子、关注关系、点赞、收藏和通知
	Delete(ctx context.Context, id int) error

	// ToggleFollow 原子地切换关注关系，返回切换后是否处于关注状态
	// 任一用户不存在时返回 ErrNotFound
	ToggleFollow(ctx context.Context, followerID, followedID int) (bool, error)
	// ToggleSave 切换收藏状态，返回切换后是否已收藏
	// 用户或帖子不存在时返回 ErrNotFound
	ToggleSave(ctx context.Context, userID, postID int) (bool, error)
	ListFollowers(ctx context.Context, userID int) ([]*model.User, error)
	ListFollowing(ctx context.Context, userID int) ([]*model.User, error)
	// Suggest 返回用户尚未关注的其他用户
	Suggest(ctx context.Context, userID, limit int) ([]*model.User, error)
}
