package user

import (
	"github.com/gin-gonic/gin"

	"github.com/siwachprerit/Drafted/internal/errors"
	"github.com/siwachprerit/Drafted/internal/middleware"
	"github.com/siwachprerit/Drafted/internal/service"
)

// ProfileHandler 提供用户主页和关注列表，未登录也可访问
type ProfileHandler struct {
	userService *service.UserService
}

func NewProfileHandler(userService *service.UserService) *ProfileHandler {
	return &ProfileHandler{userService}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	targetID, ok := userIDParam(c)
	if !ok {
		return
	}
	profile, err := h.userService.GetProfile(c.Request.Context(), targetID, c.GetInt(middleware.ContextUserID))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, profile, "")
}

func (h *ProfileHandler) Followers(c *gin.Context) {
	targetID, ok := userIDParam(c)
	if !ok {
		return
	}
	users, err := h.userService.Followers(c.Request.Context(), targetID, c.GetInt(middleware.ContextUserID))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"users": users}, "")
}

func (h *ProfileHandler) Following(c *gin.Context) {
	targetID, ok := userIDParam(c)
	if !ok {
		return
	}
	users, err := h.userService.Following(c.Request.Context(), targetID, c.GetInt(middleware.ContextUserID))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"users": users}, "")
}

// Suggestions 推荐当前用户尚未关注的用户
func (h *ProfileHandler) Suggestions(c *gin.Context) {
	users, err := h.userService.Suggestions(c.Request.Context(), c.GetInt(middleware.ContextUserID))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"users": users}, "")
}
