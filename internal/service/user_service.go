package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/siwachprerit/Drafted/internal/errors"
	"github.com/siwachprerit/Drafted/internal/model"
	"github.com/siwachprerit/Drafted/internal/repository/interfaces"
	"github.com/siwachprerit/Drafted/internal/util"
)

const suggestionLimit = 5

// RegisterInput 注册所需的信息
type RegisterInput struct {
	Name     string
	Username string
	Email    string
	Password string
}

// ProfileUpdate 中为 nil 的字段保持不变
type ProfileUpdate struct {
	Name           *string
	Username       *string
	Email          *string
	Password       *string
	Bio            *string
	ProfilePicture *string
}

// UserService 处理与用户相关的业务逻辑
type UserService struct {
	userRepo       interfaces.UserRepository
	postRepo       interfaces.PostRepository
	tokenBlacklist map[string]time.Time
	blacklistMutex sync.RWMutex
}

// NewUserService 创建一个新的 UserService 实例
func NewUserService(userRepo interfaces.UserRepository, postRepo interfaces.PostRepository) *UserService {
	return &UserService{
		userRepo:       userRepo,
		postRepo:       postRepo,
		tokenBlacklist: make(map[string]time.Time),
	}
}

// Register 注册新用户，邮箱和用户名都必须唯一
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, unavailable("注册失败", err)
	}
	if existing != nil {
		return nil, errors.New(errors.ErrUserExists, "该邮箱已注册")
	}
	existing, err = s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, unavailable("注册失败", err)
	}
	if existing != nil {
		return nil, errors.New(errors.ErrUserExists, "用户名已被使用")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternal, "注册失败", err)
	}

	user := &model.User{
		Name:         strings.TrimSpace(in.Name),
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         "user",
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, unavailable("注册失败", err)
	}
	util.Logger.Info("新用户注册", zap.Int("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login 用户登录，identifier 可以是邮箱或用户名
func (s *UserService) Login(ctx context.Context, identifier, password string) (*model.User, error) {
	identifier = strings.TrimSpace(identifier)

	var user *model.User
	var err error
	if strings.Contains(identifier, "@") {
		user, err = s.userRepo.FindByEmail(ctx, strings.ToLower(identifier))
	} else {
		user, err = s.userRepo.FindByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, unavailable("登录失败", err)
	}
	if user == nil {
		util.Logger.Warn("用户登录失败，未找到用户", zap.String("identifier", identifier))
		return nil, errors.New(errors.ErrInvalidCredentials, "账号或密码错误")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		util.Logger.Warn("用户登录失败，密码不正确", zap.Int("user_id", user.ID))
		return nil, errors.New(errors.ErrInvalidCredentials, "账号或密码错误")
	}

	util.Logger.Info("用户登录成功", zap.Int("user_id", user.ID))
	return user, nil
}

// GetUserByID 通过ID获取用户信息
func (s *UserService) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, unavailable("查询用户失败", err)
	}
	if user == nil {
		return nil, errors.New(errors.ErrUserNotFound, "用户不存在")
	}
	return user, nil
}

// UpdateProfile 更新用户资料
func (s *UserService) UpdateProfile(ctx context.Context, userID int, in ProfileUpdate) (*model.User, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if username != "" && username != user.Username {
			other, err := s.userRepo.FindByUsername(ctx, username)
			if err != nil {
				return nil, unavailable("更新资料失败", err)
			}
			if other != nil && other.ID != user.ID {
				return nil, errors.New(errors.ErrUserExists, "用户名已被使用")
			}
			user.Username = username
		}
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if email != "" && email != user.Email {
			other, err := s.userRepo.FindByEmail(ctx, email)
			if err != nil {
				return nil, unavailable("更新资料失败", err)
			}
			if other != nil && other.ID != user.ID {
				return nil, errors.New(errors.ErrUserExists, "该邮箱已注册")
			}
			user.Email = email
		}
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Bio != nil {
		user.Bio = *in.Bio
	}
	if in.ProfilePicture != nil {
		user.ProfilePicture = *in.ProfilePicture
	}
	user.PasswordHash = ""
	if in.Password != nil && *in.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, errors.Wrap(errors.ErrInternal, "更新资料失败", err)
		}
		user.PasswordHash = string(hashed)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, unavailable("更新资料失败", err)
	}
	util.Logger.Info("用户资料已更新", zap.Int("user_id", user.ID))
	return s.GetUserByID(ctx, user.ID)
}

// DeleteAccount 删除账户及其帖子
func (s *UserService) DeleteAccount(ctx context.Context, userID int) error {
	if _, err := s.GetUserByID(ctx, userID); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return unavailable("删除账户失败", err)
	}
	util.Logger.Info("账户已删除", zap.Int("user_id", userID))
	return nil
}

// Logout 把当前令牌加入黑名单，直到它本身过期
func (s *UserService) Logout(token string) error {
	expiry, err := util.TokenExpiry(token)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidToken, "无效的令牌", err)
	}
	s.blacklistMutex.Lock()
	s.tokenBlacklist[token] = expiry
	s.blacklistMutex.Unlock()
	util.Logger.Info("用户注销，令牌已加入黑名单", zap.Time("expires_at", expiry))
	return nil
}

func (s *UserService) IsTokenBlacklisted(token string) bool {
	s.blacklistMutex.RLock()
	expiry, exists := s.tokenBlacklist[token]
	s.blacklistMutex.RUnlock()
	if !exists {
		return false
	}
	if time.Now().After(expiry) {
		s.blacklistMutex.Lock()
		delete(s.tokenBlacklist, token)
		s.blacklistMutex.Unlock()
		return false
	}
	return true
}

func (s *UserService) IsAdmin(ctx context.Context, userID int) (bool, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.Role == "admin", nil
}

// GetProfile 返回用户主页，viewerID 为 0 表示未登录
func (s *UserService) GetProfile(ctx context.Context, targetID, viewerID int) (*model.Profile, error) {
	user, err := s.GetUserByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.List(ctx, model.PostFilter{AuthorID: targetID, PublishedOnly: true})
	if err != nil {
		return nil, unavailable("获取用户帖子失败", err)
	}
	return &model.Profile{
		User:        user,
		IsFollowing: viewerID != 0 && user.HasFollower(viewerID),
		Posts:       posts,
	}, nil
}

func (s *UserService) Followers(ctx context.Context, userID, viewerID int) ([]*model.UserSummary, error) {
	if _, err := s.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.userRepo.ListFollowers(ctx, userID)
	if err != nil {
		return nil, unavailable("获取粉丝列表失败", err)
	}
	return s.summaries(ctx, users, viewerID)
}

func (s *UserService) Following(ctx context.Context, userID, viewerID int) ([]*model.UserSummary, error) {
	if _, err := s.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	users, err := s.userRepo.ListFollowing(ctx, userID)
	if err != nil {
		return nil, unavailable("获取关注列表失败", err)
	}
	return s.summaries(ctx, users, viewerID)
}

// summaries 登录用户查看时附带是否已关注
func (s *UserService) summaries(ctx context.Context, users []*model.User, viewerID int) ([]*model.UserSummary, error) {
	var viewer *model.User
	if viewerID != 0 {
		v, err := s.userRepo.FindByID(ctx, viewerID)
		if err != nil {
			return nil, unavailable("查询用户失败", err)
		}
		viewer = v
	}
	out := make([]*model.UserSummary, 0, len(users))
	for _, u := range users {
		summary := u.Summary()
		if viewer != nil {
			following := viewer.HasFollowing(u.ID)
			summary.IsFollowing = &following
		}
		out = append(out, summary)
	}
	return out, nil
}

// Suggestions 推荐尚未关注的用户
func (s *UserService) Suggestions(ctx context.Context, userID int) ([]*model.UserSummary, error) {
	users, err := s.userRepo.Suggest(ctx, userID, suggestionLimit)
	if err != nil {
		return nil, unavailable("获取推荐用户失败", err)
	}
	out := make([]*model.UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, u.Summary())
	}
	return out, nil
}
