package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/siwachprerit/Drafted/internal/model"
	"github.com/siwachprerit/Drafted/internal/presence"
	"github.com/siwachprerit/Drafted/internal/repository/memory"
)

// recordingSender 记录推送到每个连接的事件
type recordingSender struct {
	mu     sync.Mutex
	events map[string][]presence.Event
}

func (s *recordingSender) Send(channelID string, ev presence.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[channelID] = append(s.events[channelID], ev)
	return nil
}

func (s *recordingSender) sent(channelID string) []presence.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]presence.Event(nil), s.events[channelID]...)
}

type testEnv struct {
	store         *memory.Store
	users         *UserService
	posts         *PostService
	notifications *NotificationService
	engine        *InteractionService
	registry      *presence.LocalRegistry
	sender        *recordingSender
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	sender := &recordingSender{events: make(map[string][]presence.Event)}
	registry := presence.NewLocalRegistry(sender)
	notifications := NewNotificationService(store.Notifications())
	return &testEnv{
		store:         store,
		users:         NewUserService(store.Users(), store.Posts()),
		posts:         NewPostService(store.Posts(), store.Users()),
		notifications: notifications,
		engine:        NewInteractionService(store.Users(), store.Posts(), notifications, registry),
		registry:      registry,
		sender:        sender,
	}
}

func (e *testEnv) user(t *testing.T, username string) *model.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), RegisterInput{
		Name:     username,
		Username: username,
		Email:    username + "@example.com",
		Password: "Passw0rd!",
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) post(t *testing.T, authorID int, title string, published bool, tags ...string) *model.Post {
	t.Helper()
	p, err := e.posts.Create(context.Background(), authorID, PostInput{
		Title:       title,
		Content:     "body of " + title,
		Tags:        tags,
		IsPublished: published,
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) online(t *testing.T, userID int, channelID string) {
	t.Helper()
	require.NoError(t, e.registry.Register(context.Background(), userID, channelID))
}

func (e *testEnv) inbox(t *testing.T, userID int) []*model.Notification {
	t.Helper()
	list, err := e.notifications.List(context.Background(), userID, 0)
	require.NoError(t, err)
	return list
}

func countKind(list []*model.Notification, kind model.NotificationKind) int {
	n := 0
	for _, item := range list {
		if item.Kind == kind {
			n++
		}
	}
	return n
}
