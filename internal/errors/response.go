package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse 定义错误响应结构
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SuccessResponse 定义成功响应结构
type SuccessResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// 错误码与HTTP状态码映射
var errorStatusMap = map[ErrorCode]int{
	// 系统错误 (1000-1999)
	ErrInternal:    http.StatusInternalServerError,
	ErrDatabase:    http.StatusInternalServerError,
	ErrUnavailable: http.StatusServiceUnavailable,
	ErrTimeout:     http.StatusRequestTimeout,

	// 认证错误 (2000-2999)
	ErrUnauthorized:       http.StatusUnauthorized,
	ErrForbidden:          http.StatusForbidden,
	ErrInvalidToken:       http.StatusUnauthorized,
	ErrTokenExpired:       http.StatusUnauthorized,
	ErrInvalidCredentials: http.StatusUnauthorized,

	// 请求错误 (3000-3999)
	ErrBadRequest:       http.StatusBadRequest,
	ErrValidation:       http.StatusBadRequest,
	ErrResourceNotFound: http.StatusNotFound,
	ErrResourceExists:   http.StatusConflict,
	ErrInvalidOperation: http.StatusBadRequest,

	// 业务错误 (4000-4999)
	ErrUserNotFound:         http.StatusNotFound,
	ErrUserExists:           http.StatusConflict,
	ErrWeakPassword:         http.StatusBadRequest,
	ErrPostNotFound:         http.StatusNotFound,
	ErrCommentNotFound:      http.StatusNotFound,
	ErrNotificationNotFound: http.StatusNotFound,
}

// StatusOf 返回错误对应的 HTTP 状态码
func StatusOf(err error) int {
	if status, ok := errorStatusMap[CodeOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// HandleError 统一处理错误响应
// 内部错误信息只写日志，不返回给客户端
func HandleError(c *gin.Context, err error) {
	_ = c.Error(err)

	appErr, ok := As(err)
	if !ok {
		zap.L().Error("未分类的错误",
			zap.Error(err),
			zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    ErrInternal,
			Message: "服务器内部错误",
		})
		return
	}

	status := StatusOf(appErr)
	if status >= http.StatusInternalServerError {
		zap.L().Error("请求处理失败",
			zap.Int("error_code", int(appErr.Code)),
			zap.String("error_message", appErr.Message),
			zap.Error(appErr.Err),
			zap.String("path", c.Request.URL.Path))
	}

	c.JSON(status, ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
	})
}

// HandleSuccess 统一处理成功响应
func HandleSuccess(c *gin.Context, data interface{}, message string) {
	HandleSuccessWithStatus(c, http.StatusOK, data, message)
}

// HandleSuccessWithStatus 使用指定状态码返回成功响应
func HandleSuccessWithStatus(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, SuccessResponse{
		Code:    status,
		Message: message,
		Data:    data,
	})
}
