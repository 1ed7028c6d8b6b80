package admin

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/siwachprerit/Drafted/internal/errors"
	"github.com/siwachprerit/Drafted/internal/middleware"
)

// ConnectionCounter 返回本进程持有的实时连接数
type ConnectionCounter interface {
	Count() int
}

// AdminHandler 提供运行状态查询，仅管理员可用
type AdminHandler struct {
	monitor *middleware.ErrorMonitor
	hub     ConnectionCounter
}

// NewAdminHandler 创建一个新的 AdminHandler 实例
func NewAdminHandler(monitor *middleware.ErrorMonitor, hub ConnectionCounter) *AdminHandler {
	return &AdminHandler{monitor: monitor, hub: hub}
}

// GetErrorStats 返回按错误码统计的错误次数
func (h *AdminHandler) GetErrorStats(c *gin.Context) {
	counts := h.monitor.GetErrorCounts()
	formatted := make(map[string]int, len(counts))
	total := 0
	for code, n := range counts {
		formatted[strconv.Itoa(int(code))] = n
		total += n
	}
	errors.HandleSuccess(c, gin.H{
		"errors": formatted,
		"total":  total,
	}, "")
}

// GetSystemStats 系统统计
func (h *AdminHandler) GetSystemStats(c *gin.Context) {
	online := 0
	if h.hub != nil {
		online = h.hub.Count()
	}
	errors.HandleSuccess(c, gin.H{"connections": online}, "")
}
