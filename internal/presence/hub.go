package presence

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/siwachprerit/Drafted/internal/util"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 16
)

var errSendBufferFull = errors.New("presence: send buffer full")

// Hub 持有本进程的所有 websocket 连接
type Hub struct {
	registry Registry
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	conns map[string]*connection
}

type connection struct {
	id     string
	userID int // 握手时 token 对应的用户
	ws     *websocket.Conn
	send   chan Event

	mu     sync.Mutex
	joined bool
	closed bool
}

// NewHub 创建连接中心，checkOrigin 为 nil 时接受所有来源
func NewHub(checkOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		conns: make(map[string]*connection),
	}
}

// Use 设置连接加入时写入的注册表
func (h *Hub) Use(registry Registry) {
	h.registry = registry
}

// AllowOrigins 返回只接受指定来源的 CheckOrigin 函数
func AllowOrigins(origins ...string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// Count 返回当前连接数
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Send 实现 Sender 接口
func (h *Hub) Send(channelID string, event Event) error {
	h.mu.RLock()
	c, ok := h.conns[channelID]
	h.mu.RUnlock()
	if !ok {
		return ErrChannelNotFound
	}
	return c.enqueue(event)
}

func (c *connection) enqueue(event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrChannelNotFound
	}
	select {
	case c.send <- event:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *connection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Serve 升级 HTTP 连接，userID 是已经通过认证的用户，阻塞直到连接断开
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID int) error {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := &connection{
		id:     "ws_" + uuid.New().String(),
		userID: userID,
		ws:     ws,
		send:   make(chan Event, sendBuffer),
	}

	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
	util.Logger.Info("实时连接建立", zap.String("channel_id", c.id), zap.Int("user_id", userID))

	go h.writePump(c)
	h.readPump(c)
	return nil
}

func (h *Hub) readPump(c *connection) {
	defer h.disconnect(c)

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := c.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				util.Logger.Warn("读取实时消息失败", zap.String("channel_id", c.id), zap.Error(err))
			}
			return
		}
		switch msg.Event {
		case EventJoin:
			h.join(c, msg.Data)
		default:
			_ = c.enqueue(Event{Event: EventError, Data: "未知事件: " + msg.Event})
		}
	}
}

// join 客户端发来的用户ID必须与token一致
func (h *Hub) join(c *connection, data json.RawMessage) {
	userID, err := parseUserID(data)
	if err != nil || userID != c.userID {
		_ = c.enqueue(Event{Event: EventError, Data: "无效的用户ID"})
		return
	}
	if h.registry == nil {
		return
	}
	if err := h.registry.Register(context.Background(), userID, c.id); err != nil {
		util.Logger.Error("注册在线连接失败", zap.Int("user_id", userID), zap.Error(err))
		return
	}
	c.mu.Lock()
	c.joined = true
	c.mu.Unlock()
	util.Logger.Info("用户加入实时通道", zap.Int("user_id", userID), zap.String("channel_id", c.id))
}

// parseUserID 同时接受数字和字符串形式的ID
func parseUserID(data json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteJSON(ev); err != nil {
				util.Logger.Warn("推送实时消息失败", zap.String("channel_id", c.id), zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) disconnect(c *connection) {
	h.mu.Lock()
	delete(h.conns, c.id)
	h.mu.Unlock()

	c.mu.Lock()
	joined := c.joined
	c.mu.Unlock()
	if joined && h.registry != nil {
		if err := h.registry.UnregisterChannel(context.Background(), c.userID, c.id); err != nil {
			util.Logger.Error("注销在线连接失败", zap.Int("user_id", c.userID), zap.Error(err))
		}
	}
	c.close()
	util.Logger.Info("实时连接断开", zap.String("channel_id", c.id), zap.Int("user_id", c.userID))
}

// Close 关闭所有连接，用于优雅退出
func (h *Hub) Close() {
	h.mu.RLock()
	conns := make([]*connection, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		c.ws.Close()
	}
}
