package memory

import (
	"context"
	"sort"

	"github.com/siwachprerit/Drafted/internal/model"
	"github.com/siwachprerit/Drafted/internal/repository/interfaces"
)

type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextUserID++
	user.ID = r.s.nextUserID
	if user.Role == "" {
		user.Role = "user"
	}
	now := r.s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.s.users[user.ID] = cloneUser(user)
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if u, ok := r.s.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findBy(func(u *model.User) bool { return u.Email == email }), nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findBy(func(u *model.User) bool { return u.Username == username }), nil
}

func (r *UserRepository) findBy(match func(*model.User) bool) *model.User {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if match(u) {
			return cloneUser(u)
		}
	}
	return nil
}

// Update 只更新资料字段，关注和收藏关系通过 Toggle 方法维护
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[user.ID]
	if !ok {
		return nil
	}
	stored.Name = user.Name
	stored.Username = user.Username
	stored.Email = user.Email
	stored.Bio = user.Bio
	stored.ProfilePicture = user.ProfilePicture
	if user.PasswordHash != "" {
		stored.PasswordHash = user.PasswordHash
	}
	stored.UpdatedAt = r.s.now()
	user.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.users, id)
	for _, u := range r.s.users {
		u.Followers = removeID(u.Followers, id)
		u.Following = removeID(u.Following, id)
	}
	for postID, p := range r.s.posts {
		if p.AuthorID == id {
			r.s.deletePostLocked(postID)
			continue
		}
		p.Likes = removeID(p.Likes, id)
		kept := p.Comments[:0]
		for _, c := range p.Comments {
			if c.UserID != id {
				kept = append(kept, c)
			}
		}
		p.Comments = kept
	}
	for nid, n := range r.s.notifications {
		if n.RecipientID == id || n.SenderID == id {
			delete(r.s.notifications, nid)
		}
	}
	return nil
}

func (r *UserRepository) ToggleFollow(ctx context.Context, followerID, followedID int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	follower, ok1 := r.s.users[followerID]
	followed, ok2 := r.s.users[followedID]
	if !ok1 || !ok2 {
		return false, interfaces.ErrNotFound
	}

	if hasID(follower.Following, followedID) {
		follower.Following = removeID(follower.Following, followedID)
		followed.Followers = removeID(followed.Followers, followerID)
		return false, nil
	}
	follower.Following = append(follower.Following, followedID)
	followed.Followers = append(followed.Followers, followerID)
	return true, nil
}

func (r *UserRepository) ToggleSave(ctx context.Context, userID, postID int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[userID]
	if !ok {
		return false, interfaces.ErrNotFound
	}
	if hasID(u.SavedPosts, postID) {
		u.SavedPosts = removeID(u.SavedPosts, postID)
		return false, nil
	}
	if _, ok := r.s.posts[postID]; !ok {
		return false, interfaces.ErrNotFound
	}
	u.SavedPosts = append(u.SavedPosts, postID)
	return true, nil
}

func (r *UserRepository) ListFollowers(ctx context.Context, userID int) ([]*model.User, error) {
	return r.listRelated(userID, func(u *model.User) []int { return u.Followers }), nil
}

func (r *UserRepository) ListFollowing(ctx context.Context, userID int) ([]*model.User, error) {
	return r.listRelated(userID, func(u *model.User) []int { return u.Following }), nil
}

func (r *UserRepository) listRelated(userID int, ids func(*model.User) []int) []*model.User {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[userID]
	if !ok {
		return nil
	}
	out := make([]*model.User, 0)
	for _, id := range ids(u) {
		if other, ok := r.s.users[id]; ok {
			out = append(out, cloneUser(other))
		}
	}
	return out
}

func (r *UserRepository) Suggest(ctx context.Context, userID, limit int) ([]*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var following []int
	if u, ok := r.s.users[userID]; ok {
		following = u.Following
	}
	out := make([]*model.User, 0)
	for id, u := range r.s.users {
		if id == userID || hasID(following, id) {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
