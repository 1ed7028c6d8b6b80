// Package memory 提供基于内存的仓库实现，用于本地开发和测试
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/siwachprerit/Drafted/internal/model"
	"github.com/siwachprerit/Drafted/internal/repository/interfaces"
)

var (
	_ interfaces.UserRepository         = (*UserRepository)(nil)
	_ interfaces.PostRepository         = (*PostRepository)(nil)
	_ interfaces.NotificationRepository = (*NotificationRepository)(nil)
)

// Store 保存所有实体，三个仓库共享同一把锁，保证跨实体操作的原子性
type Store struct {
	mu sync.RWMutex

	users         map[int]*model.User
	posts         map[int]*model.Post
	notifications map[int]*model.Notification

	nextUserID         int
	nextPostID         int
	nextCommentID      int
	nextNotificationID int

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:         make(map[int]*model.User),
		posts:         make(map[int]*model.Post),
		notifications: make(map[int]*model.Notification),
		now:           time.Now,
	}
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{s}
}

func (s *Store) Posts() *PostRepository {
	return &PostRepository{s}
}

func (s *Store) Notifications() *NotificationRepository {
	return &NotificationRepository{s}
}

func removeID(ids []int, id int) []int {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func hasID(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func copyIDs(ids []int) []int {
	out := make([]int, len(ids))
	copy(out, ids)
	return out
}

func cloneUser(u *model.User) *model.User {
	c := *u
	c.Followers = copyIDs(u.Followers)
	c.Following = copyIDs(u.Following)
	c.SavedPosts = copyIDs(u.SavedPosts)
	return &c
}

// clonePost 需要在持有读锁时调用，作者和评论者信息从用户表实时填充
func (s *Store) clonePost(p *model.Post) *model.Post {
	c := *p
	c.Tags = append([]string{}, p.Tags...)
	c.Likes = copyIDs(p.Likes)
	c.Comments = s.cloneComments(p.Comments)
	if author, ok := s.users[p.AuthorID]; ok {
		c.Author = author.Summary()
	}
	return &c
}

func (s *Store) cloneComments(comments []*model.Comment) []*model.Comment {
	out := make([]*model.Comment, 0, len(comments))
	for _, cm := range comments {
		c := *cm
		if cm.ParentID != nil {
			parent := *cm.ParentID
			c.ParentID = &parent
		}
		if u, ok := s.users[cm.UserID]; ok {
			c.User = u.Summary()
		}
		out = append(out, &c)
	}
	return out
}

// sortNewestFirst 按创建时间倒序，时间相同时按ID倒序
func sortPostsNewestFirst(posts []*model.Post) {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}

// deletePostLocked 删除帖子以及引用它的收藏和通知
func (s *Store) deletePostLocked(postID int) {
	delete(s.posts, postID)
	for _, u := range s.users {
		u.SavedPosts = removeID(u.SavedPosts, postID)
	}
	for id, n := range s.notifications {
		if n.PostID != nil && *n.PostID == postID {
			delete(s.notifications, id)
		}
	}
}
