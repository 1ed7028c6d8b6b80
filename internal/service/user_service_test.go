package service

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/siwachprerit/Drafted/config"
	"github.com/siwachprerit/Drafted/internal/errors"
	"github.com/siwachprerit/Drafted/internal/model"
	"github.com/siwachprerit/Drafted/internal/util"
)

// MockUserRepository 是 UserRepository 接口的模拟实现
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id int) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockUserRepository) ToggleFollow(ctx context.Context, followerID, followedID int) (bool, error) {
	args := m.Called(followerID, followedID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ToggleSave(ctx context.Context, userID, postID int) (bool, error) {
	args := m.Called(userID, postID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ListFollowers(ctx context.Context, userID int) ([]*model.User, error) {
	args := m.Called(userID)
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *MockUserRepository) ListFollowing(ctx context.Context, userID int) ([]*model.User, error) {
	args := m.Called(userID)
	return args.Get(0).([]*model.User), args.Error(1)
}

func (m *MockUserRepository) Suggest(ctx context.Context, userID, limit int) ([]*model.User, error) {
	args := m.Called(userID, limit)
	return args.Get(0).([]*model.User), args.Error(1)
}

// TestRegister 测试用户注册功能
func TestRegister(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo, nil)

	// 测试成功注册，邮箱统一转为小写
	mockRepo.On("FindByEmail", "alice@example.com").Return(nil, nil)
	mockRepo.On("FindByUsername", "alice").Return(nil, nil)
	mockRepo.On("Create", mock.AnythingOfType("*model.User")).Return(nil)

	user, err := service.Register(ctx, RegisterInput{
		Name: "Alice", Username: "alice", Email: "Alice@Example.com", Password: "Passw0rd!",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "user", user.Role)
	assert.NotEqual(t, "Passw0rd!", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("Passw0rd!")))
	mockRepo.AssertExpectations(t)

	// 测试邮箱已存在
	mockRepo.On("FindByEmail", "taken@example.com").Return(&model.User{ID: 7}, nil)
	_, err = service.Register(ctx, RegisterInput{Username: "other", Email: "taken@example.com", Password: "x"})
	assert.True(t, errors.Is(err, errors.ErrUserExists))

	// 测试用户名已存在
	mockRepo.On("FindByEmail", "new@example.com").Return(nil, nil)
	mockRepo.On("FindByUsername", "existinguser").Return(&model.User{ID: 8}, nil)
	_, err = service.Register(ctx, RegisterInput{Username: "existinguser", Email: "new@example.com", Password: "x"})
	assert.True(t, errors.Is(err, errors.ErrUserExists))
}

func TestRegisterStorageFailure(t *testing.T) {
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo, nil)

	mockRepo.On("FindByEmail", "a@example.com").Return(nil, stderrors.New("connection refused"))
	_, err := service.Register(context.Background(), RegisterInput{Username: "a", Email: "a@example.com", Password: "x"})
	assert.True(t, errors.Is(err, errors.ErrUnavailable))
}

// TestLogin 测试邮箱和用户名两种登录方式
func TestLogin(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo, nil)

	hash, err := bcrypt.GenerateFromPassword([]byte("Passw0rd!"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &model.User{ID: 1, Username: "alice", Email: "alice@example.com", PasswordHash: string(hash)}

	mockRepo.On("FindByEmail", "alice@example.com").Return(stored, nil)
	mockRepo.On("FindByUsername", "alice").Return(stored, nil)
	mockRepo.On("FindByUsername", "ghost").Return(nil, nil)

	user, err := service.Login(ctx, "ALICE@example.com", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)

	user, err = service.Login(ctx, "alice", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, 1, user.ID)

	_, err = service.Login(ctx, "alice", "wrong")
	assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))

	_, err = service.Login(ctx, "ghost", "Passw0rd!")
	assert.True(t, errors.Is(err, errors.ErrInvalidCredentials))
}

// TestUpdateProfile 测试更新用户资料功能
func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	service := NewUserService(mockRepo, nil)

	mockRepo.On("FindByID", 1).Return(&model.User{ID: 1, Name: "Alice", Username: "alice", Email: "alice@example.com"}, nil)
	mockRepo.On("FindByUsername", "bob").Return(&model.User{ID: 2}, nil)
	mockRepo.On("Update", mock.MatchedBy(func(u *model.User) bool {
		return u.Bio == "hello" && u.PasswordHash == ""
	})).Return(nil)

	bio := "hello"
	_, err := service.UpdateProfile(ctx, 1, ProfileUpdate{Bio: &bio})
	require.NoError(t, err)

	taken := "bob"
	_, err = service.UpdateProfile(ctx, 1, ProfileUpdate{Username: &taken})
	assert.True(t, errors.Is(err, errors.ErrUserExists))

	// 测试用户不存在
	mockRepo.On("FindByID", 999).Return(nil, nil)
	_, err = service.UpdateProfile(ctx, 999, ProfileUpdate{Bio: &bio})
	assert.True(t, errors.Is(err, errors.ErrUserNotFound))
}

func TestLogoutBlacklistsToken(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	config.AppConfig.JWTExpiresIn = time.Hour

	service := NewUserService(new(MockUserRepository), nil)
	token, err := util.GenerateToken(1)
	require.NoError(t, err)

	assert.False(t, service.IsTokenBlacklisted(token))
	require.NoError(t, service.Logout(token))
	assert.True(t, service.IsTokenBlacklisted(token))

	err = service.Logout("not-a-token")
	assert.True(t, errors.Is(err, errors.ErrInvalidToken))
}

func TestProfileAndFollowLists(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.user(t, "alice")
	b := env.user(t, "bob")
	c := env.user(t, "carol")
	env.post(t, b.ID, "published", true)
	env.post(t, b.ID, "draft", false)

	_, err := env.engine.ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = env.engine.ToggleFollow(ctx, c.ID, b.ID)
	require.NoError(t, err)

	profile, err := env.users.GetProfile(ctx, b.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, profile.IsFollowing)
	assert.Len(t, profile.Posts, 1)

	profile, err = env.users.GetProfile(ctx, b.ID, 0)
	require.NoError(t, err)
	assert.False(t, profile.IsFollowing)

	followers, err := env.users.Followers(ctx, b.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, followers, 2)
	for _, f := range followers {
		require.NotNil(t, f.IsFollowing)
		assert.False(t, *f.IsFollowing)
	}

	following, err := env.users.Following(ctx, a.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, b.ID, following[0].ID)
	assert.True(t, *following[0].IsFollowing)

	suggestions, err := env.users.Suggestions(ctx, a.ID)
	require.NoError(t, err)
	for _, s := range suggestions {
		assert.NotEqual(t, a.ID, s.ID)
		assert.NotEqual(t, b.ID, s.ID)
	}
}

func TestDeleteAccountRemovesPostsAndNotifications(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	a := env.user(t, "alice")
	b := env.user(t, "bob")
	p := env.post(t, a.ID, "post", true)

	_, err := env.engine.ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)

	require.NoError(t, env.users.DeleteAccount(ctx, a.ID))

	_, err = env.posts.GetByID(ctx, p.ID, 0)
	assert.True(t, errors.Is(err, errors.ErrPostNotFound))
	assert.Empty(t, env.inbox(t, b.ID))

	ub, err := env.users.GetUserByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, ub.Followers)
}
