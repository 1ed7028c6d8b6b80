package blog

import (
	"github.com/gin-gonic/gin"

	"github.com/siwachprerit/Drafted/internal/errors"
	"github.com/siwachprerit/Drafted/internal/middleware"
)

// 互动接口返回操作后的完整集合，客户端据此同步状态

func (h *BlogHandler) ToggleLike(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	likes, err := h.engine.ToggleLike(c.Request.Context(), id, c.GetInt(middleware.ContextUserID))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"likes": likes}, "")
}

func (h *BlogHandler) AddComment(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Content  string `json:"content" binding:"required,max=2000"`
		ParentID *int   `json:"parent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrValidation, "无效的评论数据", err))
		return
	}

	comments, err := h.engine.AddComment(c.Request.Context(), id, c.GetInt(middleware.ContextUserID), req.Content, req.ParentID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"comments": comments}, "评论成功")
}

func (h *BlogHandler) DeleteComment(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	commentID, ok := intParam(c, "commentId", "无效的评论ID")
	if !ok {
		return
	}

	comments, err := h.engine.DeleteComment(c.Request.Context(), id, commentID, c.GetInt(middleware.ContextUserID))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"comments": comments}, "评论已删除")
}

func (h *BlogHandler) ToggleSave(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	saved, err := h.engine.ToggleSave(c.Request.Context(), id, c.GetInt(middleware.ContextUserID))
	if err != nil {
		errors.HandleError(c, err)
		return
	}
	errors.HandleSuccess(c, gin.H{"saved": saved}, "")
}
