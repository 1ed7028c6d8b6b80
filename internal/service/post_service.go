package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/siwachprerit/Drafted/internal/errors"
	"github.com/siwachprerit/Drafted/internal/model"
	"github.com/siwachprerit/Drafted/internal/repository/interfaces"
	"github.com/siwachprerit/Drafted/internal/util"
)

const relatedLimit = 3

// PostInput 创建帖子的参数
type PostInput struct {
	Title       string
	Content     string
	Tags        []string
	CoverImage  string
	IsPublished bool
}

// PostUpdate 中为 nil 的字段保持不变
type PostUpdate struct {
	Title       *string
	Content     *string
	Tags        *[]string
	CoverImage  *string
	IsPublished *bool
}

type PostService struct {
	postRepo interfaces.PostRepository
	userRepo interfaces.UserRepository
}

func NewPostService(postRepo interfaces.PostRepository, userRepo interfaces.UserRepository) *PostService {
	return &PostService{postRepo: postRepo, userRepo: userRepo}
}

func (s *PostService) Create(ctx context.Context, authorID int, in PostInput) (*model.Post, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, errors.New(errors.ErrValidation, "标题不能为空")
	}
	tags := util.NormalizeTags(in.Tags)
	if err := util.CheckTags(tags); err != nil {
		return nil, errors.Wrap(errors.ErrValidation, "标签不合法", err)
	}
	slug, err := s.uniqueSlug(ctx, title, 0)
	if err != nil {
		return nil, err
	}

	cover := strings.TrimSpace(in.CoverImage)
	if cover == "" {
		cover = model.DefaultCoverImage
	}
	post := &model.Post{
		AuthorID:    authorID,
		Title:       title,
		Content:     in.Content,
		Tags:        tags,
		CoverImage:  cover,
		IsPublished: in.IsPublished,
		Slug:        slug,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, unavailable("创建帖子失败", err)
	}
	util.Logger.Info("帖子已创建", zap.Int("post_id", post.ID), zap.Int("author_id", authorID))
	return post, nil
}

// uniqueSlug 根据标题生成唯一的 slug，冲突时追加序号
func (s *PostService) uniqueSlug(ctx context.Context, title string, postID int) (string, error) {
	base := util.Slugify(title)
	slug := base
	for i := 2; ; i++ {
		taken, err := s.postRepo.SlugExists(ctx, slug, postID)
		if err != nil {
			return "", unavailable("生成链接失败", err)
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// GetByID 获取帖子详情，草稿只对作者可见
func (s *PostService) GetByID(ctx context.Context, id, viewerID int) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, unavailable("查询帖子失败", err)
	}
	return s.present(ctx, post, viewerID)
}

func (s *PostService) GetBySlug(ctx context.Context, slug string, viewerID int) (*model.Post, error) {
	post, err := s.postRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, unavailable("查询帖子失败", err)
	}
	return s.present(ctx, post, viewerID)
}

func (s *PostService) present(ctx context.Context, post *model.Post, viewerID int) (*model.Post, error) {
	if post == nil || !post.VisibleTo(viewerID) {
		return nil, errors.New(errors.ErrPostNotFound, "帖子不存在")
	}
	if viewerID != 0 && viewerID != post.AuthorID {
		viewer, err := s.userRepo.FindByID(ctx, viewerID)
		if err != nil {
			util.Logger.Warn("查询关注状态失败", zap.Int("viewer_id", viewerID), zap.Error(err))
		} else if viewer != nil {
			post.IsFollowing = viewer.HasFollowing(post.AuthorID)
		}
	}
	return post, nil
}

// GetForEdit 只有作者可以获取编辑内容
func (s *PostService) GetForEdit(ctx context.Context, id, actorID int) (*model.Post, error) {
	return s.owned(ctx, id, actorID)
}

func (s *PostService) owned(ctx context.Context, id, actorID int) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return nil, unavailable("查询帖子失败", err)
	}
	if post == nil {
		return nil, errors.New(errors.ErrPostNotFound, "帖子不存在")
	}
	if post.AuthorID != actorID {
		return nil, errors.New(errors.ErrForbidden, "无权操作该帖子")
	}
	return post, nil
}

func (s *PostService) Update(ctx context.Context, id, actorID int, in PostUpdate) (*model.Post, error) {
	post, err := s.owned(ctx, id, actorID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, errors.New(errors.ErrValidation, "标题不能为空")
		}
		if title != post.Title {
			if post.Slug, err = s.uniqueSlug(ctx, title, post.ID); err != nil {
				return nil, err
			}
			post.Title = title
		}
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	if in.Tags != nil {
		tags := util.NormalizeTags(*in.Tags)
		if err := util.CheckTags(tags); err != nil {
			return nil, errors.Wrap(errors.ErrValidation, "标签不合法", err)
		}
		post.Tags = tags
	}
	if in.CoverImage != nil {
		post.CoverImage = *in.CoverImage
	}
	if in.IsPublished != nil {
		post.IsPublished = *in.IsPublished
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, unavailable("更新帖子失败", err)
	}
	util.Logger.Info("帖子已更新", zap.Int("post_id", post.ID))
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, id, actorID int) error {
	if _, err := s.owned(ctx, id, actorID); err != nil {
		return err
	}
	if err := s.postRepo.Delete(ctx, id); err != nil {
		return unavailable("删除帖子失败", err)
	}
	util.Logger.Info("帖子已删除", zap.Int("post_id", id), zap.Int("author_id", actorID))
	return nil
}

// List 返回已发布的帖子，可按作者和标签过滤
func (s *PostService) List(ctx context.Context, authorID int, tag string) ([]*model.Post, error) {
	posts, err := s.postRepo.List(ctx, model.PostFilter{
		AuthorID:      authorID,
		Tag:           strings.ToLower(strings.TrimSpace(tag)),
		PublishedOnly: true,
	})
	if err != nil {
		return nil, unavailable("获取帖子列表失败", err)
	}
	return posts, nil
}

// ListMine 返回作者自己的全部帖子，包括草稿
func (s *PostService) ListMine(ctx context.Context, userID int) ([]*model.Post, error) {
	posts, err := s.postRepo.List(ctx, model.PostFilter{AuthorID: userID})
	if err != nil {
		return nil, unavailable("获取帖子列表失败", err)
	}
	return posts, nil
}

// ListSaved 返回收藏的帖子，已变为草稿的他人帖子不返回
func (s *PostService) ListSaved(ctx context.Context, userID int) ([]*model.Post, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, unavailable("查询用户失败", err)
	}
	if user == nil {
		return nil, errors.New(errors.ErrUserNotFound, "用户不存在")
	}
	posts, err := s.postRepo.ListByIDs(ctx, user.SavedPosts)
	if err != nil {
		return nil, unavailable("获取收藏失败", err)
	}
	visible := make([]*model.Post, 0, len(posts))
	for _, p := range posts {
		if p.VisibleTo(userID) {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

func (s *PostService) Tags(ctx context.Context) ([]model.TagCount, error) {
	counts, err := s.postRepo.TagCounts(ctx)
	if err != nil {
		return nil, unavailable("获取标签失败", err)
	}
	return counts, nil
}

// Related 返回与指定帖子有相同标签的其他已发布帖子
func (s *PostService) Related(ctx context.Context, id, viewerID int) ([]*model.Post, error) {
	post, err := s.GetByID(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	if len(post.Tags) == 0 {
		return []*model.Post{}, nil
	}
	posts, err := s.postRepo.List(ctx, model.PostFilter{
		PublishedOnly: true,
		ExcludeID:     post.ID,
		AnyTags:       post.Tags,
		Limit:         relatedLimit,
	})
	if err != nil {
		return nil, unavailable("获取相关帖子失败", err)
	}
	return posts, nil
}

// IncrementViews 浏览计数只统计已发布的帖子
func (s *PostService) IncrementViews(ctx context.Context, id int) (int, error) {
	post, err := s.postRepo.FindByID(ctx, id)
	if err != nil {
		return 0, unavailable("查询帖子失败", err)
	}
	if post == nil || !post.IsPublished {
		return 0, errors.New(errors.ErrPostNotFound, "帖子不存在")
	}
	views, err := s.postRepo.IncrementViews(ctx, id)
	if err != nil {
		return 0, unavailable("更新浏览量失败", err)
	}
	return views, nil
}
