package memory

import (
	"context"
	"sort"
	"time"

	"github.com/siwachprerit/Drafted/internal/model"
)

type NotificationRepository struct {
	s *Store
}

func cloneNotification(n *model.Notification) *model.Notification {
	c := *n
	if n.PostID != nil {
		id := *n.PostID
		c.PostID = &id
	}
	return &c
}

// populate 填充发送者和帖子信息，需要在持有读锁时调用
func (s *Store) populate(n *model.Notification) *model.Notification {
	c := cloneNotification(n)
	if u, ok := s.users[n.SenderID]; ok {
		c.Sender = u.Summary()
	}
	if n.PostID != nil {
		if p, ok := s.posts[*n.PostID]; ok {
			c.Post = &model.PostSummary{ID: p.ID, Title: p.Title}
		}
	}
	return c
}

func (r *NotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextNotificationID++
	n.ID = r.s.nextNotificationID
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.s.now()
	}
	stored := cloneNotification(n)
	stored.Sender, stored.Post = nil, nil
	r.s.notifications[n.ID] = stored
	return nil
}

func (r *NotificationRepository) FindByID(ctx context.Context, id int) (*model.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if n, ok := r.s.notifications[id]; ok {
		return r.s.populate(n), nil
	}
	return nil, nil
}

func (r *NotificationRepository) FindOne(ctx context.Context, q model.NotificationQuery) (*model.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var found *model.Notification
	for _, n := range r.s.notifications {
		if !q.Matches(n) {
			continue
		}
		if found == nil || newer(n, found) {
			found = n
		}
	}
	if found == nil {
		return nil, nil
	}
	return r.s.populate(found), nil
}

func newer(a, b *model.Notification) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID > b.ID
	}
	return a.CreatedAt.After(b.CreatedAt)
}

func (r *NotificationRepository) Refresh(ctx context.Context, id int, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if n, ok := r.s.notifications[id]; ok {
		n.IsRead = false
		n.CreatedAt = at
	}
	return nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.notifications, id)
	return nil
}

func (r *NotificationRepository) ListByRecipient(ctx context.Context, recipientID, limit int) ([]*model.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.Notification, 0)
	for _, n := range r.s.notifications {
		if n.RecipientID == recipientID {
			out = append(out, r.s.populate(n))
		}
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i], out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, recipientID int) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	count := 0
	for _, n := range r.s.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipientID int) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var updated int64
	for _, n := range r.s.notifications {
		if n.RecipientID == recipientID && !n.IsRead {
			n.IsRead = true
			updated++
		}
	}
	return updated, nil
}

func (r *NotificationRepository) DeleteAllByRecipient(ctx context.Context, recipientID int) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var deleted int64
	for id, n := range r.s.notifications {
		if n.RecipientID == recipientID {
			delete(r.s.notifications, id)
			deleted++
		}
	}
	return deleted, nil
}
