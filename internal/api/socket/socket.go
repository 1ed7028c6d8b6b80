package socket

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/siwachprerit/Drafted/internal/errors"
	"github.com/siwachprerit/Drafted/internal/presence"
	"github.com/siwachprerit/Drafted/internal/service"
	"github.com/siwachprerit/Drafted/internal/util"
)

// SocketHandler 在握手阶段验证令牌，然后把连接交给 Hub
// 浏览器的 websocket 无法设置请求头，令牌通过 token 查询参数传递
type SocketHandler struct {
	hub         *presence.Hub
	userService service.UserServiceInterface
}

func NewSocketHandler(hub *presence.Hub, userService service.UserServiceInterface) *SocketHandler {
	return &SocketHandler{hub: hub, userService: userService}
}

func (h *SocketHandler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		errors.HandleError(c, errors.New(errors.ErrUnauthorized, "需要认证"))
		return
	}
	if h.userService.IsTokenBlacklisted(token) {
		errors.HandleError(c, errors.New(errors.ErrInvalidToken, "令牌已被撤销"))
		return
	}
	userID, err := util.ValidateToken(token)
	if err != nil {
		errors.HandleError(c, errors.Wrap(errors.ErrInvalidToken, "无效或过期的令牌", err))
		return
	}
	// 账号删除后令牌在过期前仍然有效
	if _, err := h.userService.GetUserByID(c.Request.Context(), userID); err != nil {
		if errors.IsNotFound(err) {
			err = errors.New(errors.ErrUnauthorized, "用户不存在")
		}
		errors.HandleError(c, err)
		return
	}

	// 升级失败时 upgrader 已经写回了错误响应
	if err := h.hub.Serve(c.Writer, c.Request, userID); err != nil {
		util.Logger.Warn("websocket 升级失败", zap.Int("user_id", userID), zap.Error(err))
	}
}
