package notification

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/siwachprerit/Drafted/internal/errors"
	"github.com/siwachprerit/Drafted/internal/middleware"
	"github.com/siwachprerit/Drafted/internal/service"
)

// NotificationHandler 处理当前用户的通知
type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService}
}

// List 按时间倒序返回通知，limit 默认 20
func (h *NotificationHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的数量参数"))
		return
	}
	list, err := h.notificationService.List(c.Request.Context(), c.GetInt(middleware.ContextUserID), limit)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"notifications": list}, "")
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notificationService.UnreadCount(c.Request.Context(), c.GetInt(middleware.ContextUserID))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"count": count}, "")
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.notificationService.MarkAllRead(c.Request.Context(), c.GetInt(middleware.ContextUserID)); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, nil, "已全部标记为已读")
}

func (h *NotificationHandler) DeleteAll(c *gin.Context) {
	if err := h.notificationService.DeleteAll(c.Request.Context(), c.GetInt(middleware.ContextUserID)); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, nil, "通知已清空")
}

func (h *NotificationHandler) DeleteOne(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的通知ID"))
		return
	}
	if err := h.notificationService.DeleteOne(c.Request.Context(), id, c.GetInt(middleware.ContextUserID)); err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, nil, "通知已删除")
}
