package memory

import (
	"context"
	"sort"

	"github.com/siwachprerit/Drafted/internal/model"
	"github.com/siwachprerit/Drafted/internal/repository/interfaces"
)

type PostRepository struct {
	s *Store
}

func (r *PostRepository) Create(ctx context.Context, post *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.nextPostID++
	post.ID = r.s.nextPostID
	now := r.s.now()
	post.CreatedAt, post.UpdatedAt = now, now
	if post.Likes == nil {
		post.Likes = []int{}
	}
	if post.Comments == nil {
		post.Comments = []*model.Comment{}
	}
	stored := *post
	stored.Tags = append([]string{}, post.Tags...)
	stored.Likes = []int{}
	stored.Comments = []*model.Comment{}
	stored.Author = nil
	r.s.posts[post.ID] = &stored
	return nil
}

func (r *PostRepository) FindByID(ctx context.Context, id int) (*model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if p, ok := r.s.posts[id]; ok {
		return r.s.clonePost(p), nil
	}
	return nil, nil
}

func (r *PostRepository) FindBySlug(ctx context.Context, slug string) (*model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.posts {
		if p.Slug == slug {
			return r.s.clonePost(p), nil
		}
	}
	return nil, nil
}

func (r *PostRepository) SlugExists(ctx context.Context, slug string, excludeID int) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for id, p := range r.s.posts {
		if id != excludeID && p.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (r *PostRepository) Update(ctx context.Context, post *model.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.posts[post.ID]
	if !ok {
		return nil
	}
	stored.Title = post.Title
	stored.Content = post.Content
	stored.Tags = append([]string{}, post.Tags...)
	stored.CoverImage = post.CoverImage
	stored.IsPublished = post.IsPublished
	stored.Slug = post.Slug
	stored.UpdatedAt = r.s.now()
	post.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *PostRepository) Delete(ctx context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.deletePostLocked(id)
	return nil
}

func (r *PostRepository) List(ctx context.Context, filter model.PostFilter) ([]*model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.Post, 0)
	for _, p := range r.s.posts {
		if matchFilter(p, filter) {
			out = append(out, r.s.clonePost(p))
		}
	}
	sortPostsNewestFirst(out)
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func matchFilter(p *model.Post, f model.PostFilter) bool {
	if f.AuthorID != 0 && p.AuthorID != f.AuthorID {
		return false
	}
	if f.PublishedOnly && !p.IsPublished {
		return false
	}
	if f.ExcludeID != 0 && p.ID == f.ExcludeID {
		return false
	}
	if f.Tag != "" && !hasTag(p.Tags, f.Tag) {
		return false
	}
	if len(f.AnyTags) > 0 {
		found := false
		for _, t := range f.AnyTags {
			if hasTag(p.Tags, t) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ListByIDs 按传入ID的顺序返回帖子，不存在的ID被忽略
func (r *PostRepository) ListByIDs(ctx context.Context, ids []int) ([]*model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*model.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.s.posts[id]; ok {
			out = append(out, r.s.clonePost(p))
		}
	}
	return out, nil
}

func (r *PostRepository) IncrementViews(ctx context.Context, id int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[id]
	if !ok {
		return 0, nil
	}
	p.Views++
	return p.Views, nil
}

// TagCounts 只统计已发布的帖子，按数量倒序
func (r *PostRepository) TagCounts(ctx context.Context) ([]model.TagCount, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[string]int)
	for _, p := range r.s.posts {
		if !p.IsPublished {
			continue
		}
		for _, t := range p.Tags {
			counts[t]++
		}
	}
	out := make([]model.TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, model.TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Tag < out[j].Tag
		}
		return out[i].Count > out[j].Count
	})
	return out, nil
}

func (r *PostRepository) ToggleLike(ctx context.Context, postID, userID int) ([]int, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[postID]
	if !ok {
		return nil, false, interfaces.ErrNotFound
	}
	liked := !hasID(p.Likes, userID)
	if liked {
		p.Likes = append(p.Likes, userID)
	} else {
		p.Likes = removeID(p.Likes, userID)
	}
	return copyIDs(p.Likes), liked, nil
}

func (r *PostRepository) AddComment(ctx context.Context, comment *model.Comment) ([]*model.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[comment.PostID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	r.s.nextCommentID++
	comment.ID = r.s.nextCommentID
	comment.CreatedAt = r.s.now()

	stored := *comment
	stored.User = nil
	if comment.ParentID != nil {
		parent := *comment.ParentID
		stored.ParentID = &parent
	}
	p.Comments = append(p.Comments, &stored)
	return r.s.cloneComments(p.Comments), nil
}

func (r *PostRepository) DeleteComment(ctx context.Context, postID, commentID int) ([]*model.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[postID]
	if !ok {
		return nil, nil
	}
	kept := make([]*model.Comment, 0, len(p.Comments))
	for _, c := range p.Comments {
		if c.ID != commentID {
			kept = append(kept, c)
		}
	}
	p.Comments = kept
	return r.s.cloneComments(p.Comments), nil
}
