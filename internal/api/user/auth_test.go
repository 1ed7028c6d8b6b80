package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/siwachprerit/Drafted/config"
	"github.com/siwachprerit/Drafted/internal/errors"
	"github.com/siwachprerit/Drafted/internal/middleware"
	"github.com/siwachprerit/Drafted/internal/model"
	"github.com/siwachprerit/Drafted/internal/service"
	"github.com/siwachprerit/Drafted/internal/util"
)

// MockUserService 是 UserServiceInterface 的模拟实现
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, in service.RegisterInput) (*model.User, error) {
	args := m.Called(in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, identifier, password string) (*model.User, error) {
	args := m.Called(identifier, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, userID int, in service.ProfileUpdate) (*model.User, error) {
	args := m.Called(userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) DeleteAccount(ctx context.Context, userID int) error {
	return m.Called(userID).Error(0)
}

func (m *MockUserService) Logout(token string) error {
	return m.Called(token).Error(0)
}

func (m *MockUserService) IsTokenBlacklisted(token string) bool {
	return m.Called(token).Bool(0)
}

func (m *MockUserService) IsAdmin(ctx context.Context, userID int) (bool, error) {
	args := m.Called(userID)
	return args.Bool(0), args.Error(1)
}

// 确保 MockUserService 实现了 UserServiceInterface
var _ service.UserServiceInterface = (*MockUserService)(nil)

func init() {
	config.AppConfig.JWTSecret = "handler-secret"
	config.AppConfig.JWTExpiresIn = time.Hour
}

func postJSON(r http.Handler, path, body, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// TestRegister 测试注册处理器
func TestRegister(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockUserService)
	handler := NewAuthHandler(mockService)

	router := gin.New()
	router.POST("/register", handler.Register)

	// 模拟成功注册
	mockService.On("Register", service.RegisterInput{
		Name: "Test", Username: "testuser", Email: "test@example.com", Password: "StrongP@ssw0rd",
	}).Return(&model.User{ID: 1, Username: "testuser"}, nil).Once()

	body := `{"name": "Test", "username": "testuser", "email": "test@example.com", "password": "StrongP@ssw0rd"}`
	w := postJSON(router, "/register", body, "")

	assert.Equal(t, http.StatusCreated, w.Code)
	var response struct {
		Data struct {
			Token string      `json:"token"`
			User  *model.User `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.NotEmpty(t, response.Data.Token)
	assert.Equal(t, 1, response.Data.User.ID)

	// 模拟注册失败（用户名已存在）
	mockService.On("Register", mock.AnythingOfType("service.RegisterInput")).
		Return(nil, errors.New(errors.ErrUserExists, "用户名已被使用")).Once()

	w = postJSON(router, "/register", body, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	mockService.AssertExpectations(t)

	// 弱密码不会调用服务
	w = postJSON(router, "/register", `{"name": "T", "username": "weakling", "email": "w@example.com", "password": "password"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(router, "/register", `{"username": "x"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestLogin 测试登录处理器
func TestLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockUserService)
	handler := NewAuthHandler(mockService)

	router := gin.New()
	router.POST("/login", handler.Login)

	// 模拟成功登录
	mockUser := &model.User{ID: 1, Email: "test@example.com"}
	mockService.On("Login", "test@example.com", "password123").Return(mockUser, nil)

	w := postJSON(router, "/login", `{"identifier": "test@example.com", "password": "password123"}`, "")

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response["data"], "token")

	// 模拟登录失败
	mockService.On("Login", "test@example.com", "wrongpassword").
		Return(nil, errors.New(errors.ErrInvalidCredentials, "账号或密码错误"))

	w = postJSON(router, "/login", `{"identifier": "test@example.com", "password": "wrongpassword"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	mockService.AssertExpectations(t)
}

func TestLogoutAndRefresh(t *testing.T) {
	gin.SetMode(gin.TestMode)

	token, err := util.GenerateToken(5)
	require.NoError(t, err)

	mockService := new(MockUserService)
	mockService.On("IsTokenBlacklisted", token).Return(false)
	mockService.On("Logout", token).Return(nil)
	handler := NewAuthHandler(mockService)

	router := gin.New()
	authorized := router.Group("/", middleware.AuthMiddleware(mockService))
	authorized.POST("/logout", handler.Logout)
	authorized.POST("/refresh-token", handler.RefreshToken)

	w := postJSON(router, "/refresh-token", "", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "token")

	w = postJSON(router, "/logout", "", token)
	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertNumberOfCalls(t, "Logout", 2)
}

func TestUpdateProfilePassesOnlyPresentFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockService := new(MockUserService)
	handler := NewAuthHandler(mockService)
	router := gin.New()
	router.PUT("/profile", func(c *gin.Context) {
		c.Set(middleware.ContextUserID, 3)
		handler.UpdateProfile(c)
	})

	mockService.On("UpdateProfile", 3, mock.MatchedBy(func(in service.ProfileUpdate) bool {
		return in.Bio != nil && *in.Bio == "hi" && in.Username == nil && in.Password == nil
	})).Return(&model.User{ID: 3, Bio: "hi"}, nil)

	req, _ := http.NewRequest(http.MethodPut, "/profile", bytes.NewBufferString(`{"bio": "hi"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req, _ = http.NewRequest(http.MethodPut, "/profile", bytes.NewBufferString(`{"password": "weak"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertExpectations(t)
}

func TestIsPasswordStrong(t *testing.T) {
	assert.True(t, isPasswordStrong("StrongP@ssw0rd"))
	assert.False(t, isPasswordStrong("Sh0rt!"))
	assert.False(t, isPasswordStrong("alllowercase1!"))
	assert.False(t, isPasswordStrong("NoDigits!!"))
	assert.False(t, isPasswordStrong("NoSpecial123"))
}
