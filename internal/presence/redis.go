package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/siwachprerit/Drafted/internal/util"
)

const (
	redisChannelsKey = "drafted:presence:channels"
	redisEventsTopic = "drafted:presence:events"
)

// 仅当哈希中的值仍等于期望的连接ID时删除
var unregisterIfMatch = redis.NewScript(`
if redis.call("HGET", KEYS[1], ARGV[1]) == ARGV[2] then
	return redis.call("HDEL", KEYS[1], ARGV[1])
end
return 0`)

// envelope 是在进程之间广播的消息
type envelope struct {
	ChannelID string `json:"channel_id"`
	UserID    int    `json:"user_id"`
	Event     Event  `json:"event"`
}

// RedisRegistry 把映射保存在 Redis 哈希中，事件通过发布订阅投递到持有连接的进程
type RedisRegistry struct {
	client *redis.Client
	sender Sender
}

// NewRedisClient 根据地址创建客户端并检查连通性
func NewRedisClient(ctx context.Context, host, port, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       0,
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func NewRedisRegistry(client *redis.Client, sender Sender) *RedisRegistry {
	return &RedisRegistry{client: client, sender: sender}
}

func field(userID int) string {
	return strconv.Itoa(userID)
}

func (r *RedisRegistry) Register(ctx context.Context, userID int, channelID string) error {
	return r.client.HSet(ctx, redisChannelsKey, field(userID), channelID).Err()
}

func (r *RedisRegistry) Unregister(ctx context.Context, userID int) error {
	return r.client.HDel(ctx, redisChannelsKey, field(userID)).Err()
}

func (r *RedisRegistry) UnregisterChannel(ctx context.Context, userID int, channelID string) error {
	return unregisterIfMatch.Run(ctx, r.client, []string{redisChannelsKey}, field(userID), channelID).Err()
}

func (r *RedisRegistry) Lookup(ctx context.Context, userID int) (string, bool, error) {
	id, err := r.client.HGet(ctx, redisChannelsKey, field(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

func (r *RedisRegistry) Emit(ctx context.Context, userID int, event string, payload interface{}) error {
	channelID, ok, err := r.Lookup(ctx, userID)
	if err != nil || !ok {
		return err
	}
	msg, err := encodeEnvelope(envelope{ChannelID: channelID, UserID: userID, Event: Event{Event: event, Data: payload}})
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, redisEventsTopic, msg).Err()
}

func encodeEnvelope(env envelope) (string, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeEnvelope(payload string) (envelope, error) {
	var env envelope
	err := json.Unmarshal([]byte(payload), &env)
	return env, err
}

// Run 订阅事件主题，把属于本进程连接的事件写出，直到 ctx 结束
func (r *RedisRegistry) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, redisEventsTopic)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	util.Logger.Info("已订阅实时事件主题", zap.String("topic", redisEventsTopic))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			r.dispatch(msg.Payload)
		}
	}
}

func (r *RedisRegistry) dispatch(payload string) {
	env, err := decodeEnvelope(payload)
	if err != nil {
		util.Logger.Warn("无法解析实时事件", zap.Error(err))
		return
	}
	if r.sender == nil {
		return
	}
	// 连接不在本进程时由其他进程投递
	if err := r.sender.Send(env.ChannelID, env.Event); err != nil && !errors.Is(err, ErrChannelNotFound) {
		util.Logger.Warn("推送实时事件失败",
			zap.Int("user_id", env.UserID),
			zap.String("event", env.Event.Event),
			zap.Error(err))
	}
}
