// Package presence 维护在线用户与实时连接之间的映射，并尽力推送事件
package presence

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/siwachprerit/Drafted/internal/util"
)

// 推送给客户端的事件名
const (
	EventNewNotification    = "new_notification"
	EventRemoveNotification = "remove_notification"
	EventError              = "error"

	// EventJoin 由客户端发送，把连接与用户关联
	EventJoin = "join"
)

// ErrChannelNotFound 表示连接不在本进程
var ErrChannelNotFound = errors.New("presence: channel not found")

// Event 是实时通道上传输的帧
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Sender 把事件写入本进程持有的连接
type Sender interface {
	Send(channelID string, event Event) error
}

// Registry 记录每个用户当前的连接，一个用户同时只跟踪一个连接，重连时后写入者生效
type Registry interface {
	Register(ctx context.Context, userID int, channelID string) error
	// Unregister 对未注册的用户是空操作
	Unregister(ctx context.Context, userID int) error
	// UnregisterChannel 仅当映射仍指向 channelID 时才删除
	UnregisterChannel(ctx context.Context, userID int, channelID string) error
	Lookup(ctx context.Context, userID int) (string, bool, error)
	// Emit 用户不在线时静默丢弃
	Emit(ctx context.Context, userID int, event string, payload interface{}) error
}

// LocalRegistry 是进程内的注册表
type LocalRegistry struct {
	mu       sync.RWMutex
	channels map[int]string
	sender   Sender
}

func NewLocalRegistry(sender Sender) *LocalRegistry {
	return &LocalRegistry{
		channels: make(map[int]string),
		sender:   sender,
	}
}

func (r *LocalRegistry) Register(ctx context.Context, userID int, channelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.channels[userID] = channelID
	return nil
}

func (r *LocalRegistry) Unregister(ctx context.Context, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.channels, userID)
	return nil
}

func (r *LocalRegistry) UnregisterChannel(ctx context.Context, userID int, channelID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.channels[userID] == channelID {
		delete(r.channels, userID)
	}
	return nil
}

func (r *LocalRegistry) Lookup(ctx context.Context, userID int) (string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.channels[userID]
	return id, ok, nil
}

func (r *LocalRegistry) Emit(ctx context.Context, userID int, event string, payload interface{}) error {
	channelID, ok, _ := r.Lookup(ctx, userID)
	if !ok {
		return nil
	}
	return deliver(r.sender, channelID, userID, Event{Event: event, Data: payload})
}

// deliver 连接已经断开属于正常情况，只记录调试日志
func deliver(sender Sender, channelID string, userID int, ev Event) error {
	if sender == nil {
		return nil
	}
	err := sender.Send(channelID, ev)
	if errors.Is(err, ErrChannelNotFound) {
		util.Logger.Debug("连接已失效，丢弃事件",
			zap.Int("user_id", userID),
			zap.String("event", ev.Event))
		return nil
	}
	if err != nil {
		return err
	}
	util.Logger.Debug("已推送实时事件", zap.Int("user_id", userID), zap.String("event", ev.Event))
	return nil
}
