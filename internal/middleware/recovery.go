package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/siwachprerit/Drafted/internal/errors"
)

// RecoveryMiddleware 把处理器中的 panic 转换为 500 响应
// 响应里带上请求ID，方便用户反馈时定位日志
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			// 交给 net/http 静默中断连接
			if r == http.ErrAbortHandler {
				panic(r)
			}

			requestID := c.GetString(ContextRequestID)
			zap.L().Error("处理请求时发生panic",
				zap.Any("panic", r),
				zap.String("request_id", requestID),
				zap.String("method", c.Request.Method),
				zap.String("route", c.FullPath()),
				zap.Int("user_id", c.GetInt(ContextUserID)),
				zap.ByteString("stack", debug.Stack()))

			// websocket 已接管连接或响应已开始写出时只能中止
			if c.Writer.Written() {
				c.Abort()
				return
			}
			message := "系统内部错误"
			if requestID != "" {
				message += "，请求ID: " + requestID
			}
			errors.HandleError(c, errors.New(errors.ErrInternal, message))
			c.Abort()
		}()
		c.Next()
	}
}
