package user

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/siwachprerit/Drafted/internal/errors"
	"github.com/siwachprerit/Drafted/internal/middleware"
	"github.com/siwachprerit/Drafted/internal/service"
)

// UserHandler 处理关注操作
type UserHandler struct {
	engine *service.InteractionService
}

func NewUserHandler(engine *service.InteractionService) *UserHandler {
	return &UserHandler{engine}
}

// ToggleFollow 关注或取消关注目标用户
func (h *UserHandler) ToggleFollow(c *gin.Context) {
	targetID, ok := userIDParam(c)
	if !ok {
		return
	}

	following, err := h.engine.ToggleFollow(c.Request.Context(), c.GetInt(middleware.ContextUserID), targetID)
	if err != nil {
		errors.HandleError(c, err)
		return
	}

	message := "已取消关注"
	if following {
		message = "关注成功"
	}
	errors.HandleSuccess(c, gin.H{"is_following": following}, message)
}

func userIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		errors.HandleError(c, errors.New(errors.ErrValidation, "无效的用户ID"))
		return 0, false
	}
	return id, true
}
