package service

import (
	"context"

	"github.com/siwachprerit/Drafted/internal/model"
)

// UserServiceInterface 是认证处理器和中间件依赖的用户服务
type UserServiceInterface interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, identifier, password string) (*model.User, error)
	GetUserByID(ctx context.Context, id int) (*model.User, error)
	UpdateProfile(ctx context.Context, userID int, in ProfileUpdate) (*model.User, error)
	DeleteAccount(ctx context.Context, userID int) error
	Logout(token string) error
	IsTokenBlacklisted(token string) bool
	IsAdmin(ctx context.Context, userID int) (bool, error)
}

// 确保 UserService 实现了 UserServiceInterface
var _ UserServiceInterface = (*UserService)(nil)
