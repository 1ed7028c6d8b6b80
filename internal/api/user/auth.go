package user

import (
	"net/http"
	"unicode"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/siwachprerit/Drafted/internal/errors"
	"github.com/siwachprerit/Drafted/internal/middleware"
	"github.com/siwachprerit/Drafted/internal/service"
	"github.com/siwachprerit/Drafted/internal/util"
)

// AuthHandler 处理与认证相关的HTTP请求
type AuthHandler struct {
	userService service.UserServiceInterface
}

// NewAuthHandler 创建一个新的 AuthHandler 实例
func NewAuthHandler(userService service.UserServiceInterface) *AuthHandler {
	return &AuthHandler{userService}
}

// Register 处理用户注册请求
func (h *AuthHandler) Register(c *gin.Context) {
	var registerData struct {
		Name     string `json:"name" binding:"required,max=100"`
		Username string `json:"username" binding:"required,min=3,max=30"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&registerData); err != nil {
		util.Logger.Warn("注册失败，无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	if !isPasswordStrong(registerData.Password) {
		errors.HandleError(c, errors.New(errors.ErrWeakPassword, "密码强度不足"))
		return
	}

	user, err := h.userService.Register(c.Request.Context(), service.RegisterInput{
		Name:     registerData.Name,
		Username: registerData.Username,
		Email:    registerData.Email,
		Password: registerData.Password,
	})
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	token, err := util.GenerateToken(user.ID)
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrInternal, "生成令牌失败", err))
		return
	}

	errors.HandleSuccessWithStatus(c, http.StatusCreated, gin.H{
		"token": token,
		"user":  user,
	}, "注册成功")
}

// Login 处理用户登录请求，identifier 可以是邮箱或用户名
func (h *AuthHandler) Login(c *gin.Context) {
	var loginData struct {
		Identifier string `json:"identifier" binding:"required"`
		Password   string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&loginData); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	user, err := h.userService.Login(c.Request.Context(), loginData.Identifier, loginData.Password)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	token, err := util.GenerateToken(user.ID)
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrInternal, "生成令牌失败", err))
		return
	}

	errors.HandleSuccess(c, gin.H{
		"token": token,
		"user":  user,
	}, "登录成功")
}

// Me 返回当前登录用户
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.userService.GetUserByID(c.Request.Context(), c.GetInt(middleware.ContextUserID))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"user": user}, "")
}

// UpdateProfile 只更新请求中出现的字段
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var updateData struct {
		Name           *string `json:"name" binding:"omitempty,max=100"`
		Username       *string `json:"username" binding:"omitempty,min=3,max=30"`
		Email          *string `json:"email" binding:"omitempty,email"`
		Password       *string `json:"password"`
		Bio            *string `json:"bio" binding:"omitempty,max=500"`
		ProfilePicture *string `json:"profile_picture"`
	}

	if err := c.ShouldBindJSON(&updateData); err != nil {
		util.Logger.Warn("更新用户资料失败，无效的请求数据", zap.Error(err))
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的请求数据", err))
		return
	}

	if updateData.Password != nil && *updateData.Password != "" && !isPasswordStrong(*updateData.Password) {
		errors.HandleError(c, errors.New(errors.ErrWeakPassword, "新密码强度不足"))
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), c.GetInt(middleware.ContextUserID), service.ProfileUpdate{
		Name:           updateData.Name,
		Username:       updateData.Username,
		Email:          updateData.Email,
		Password:       updateData.Password,
		Bio:            updateData.Bio,
		ProfilePicture: updateData.ProfilePicture,
	})
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, gin.H{"user": user}, "资料更新成功")
}

// DeleteAccount 删除当前用户，同时使当前令牌失效
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	userID := c.GetInt(middleware.ContextUserID)
	if err := h.userService.DeleteAccount(c.Request.Context(), userID); err != nil {
		errors.HandleError(c, err)
		return
	}
	if err := h.userService.Logout(c.GetString(middleware.ContextToken)); err != nil {
		util.Logger.Warn("注销已删除账户的令牌失败", zap.Int("user_id", userID), zap.Error(err))
	}
	errors.HandleSuccess(c, nil, "账户已删除")
}

// Logout 处理用户登出
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.userService.Logout(c.GetString(middleware.ContextToken)); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, nil, "已成功登出")
}

// RefreshToken 处理令牌刷新，旧令牌随之失效
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	tokenString := c.GetString(middleware.ContextToken)

	newToken, err := util.RefreshToken(tokenString)
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrUnauthorized, "刷新令牌失败", err))
		return
	}
	if err := h.userService.Logout(tokenString); err != nil {
		util.Logger.Warn("旧令牌加入黑名单失败", zap.Error(err))
	}

	errors.HandleSuccess(c, gin.H{"token": newToken}, "令牌刷新成功")
}

func isPasswordStrong(password string) bool {
	var (
		hasUpper   = false
		hasLower   = false
		hasNumber  = false
		hasSpecial = false
	)
	if len(password) < 8 {
		return false
	}
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasNumber && hasSpecial
}
