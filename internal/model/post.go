package model

import "time"

const DefaultCoverImage = "/images/default-cover.png"

type Post struct {
	ID          int          `json:"id"`
	Title       string       `json:"title"`
	Content     string       `json:"content"`
	AuthorID    int          `json:"author_id"`
	Author      *UserSummary `json:"author,omitempty"`
	Tags        []string     `json:"tags"`
	CoverImage  string       `json:"cover_image"`
	IsPublished bool         `json:"is_published"`
	Views       int          `json:"views"`
	Slug        string       `json:"slug"`
	Likes       []int        `json:"likes"`
	Comments    []*Comment   `json:"comments"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
	IsFollowing bool         `json:"is_following"`
}

// Comment 属于某个帖子，ParentID 指向同一帖子内的另一条评论
type Comment struct {
	ID        int          `json:"id"`
	PostID    int          `json:"post_id"`
	UserID    int          `json:"user_id"`
	User      *UserSummary `json:"user,omitempty"`
	Content   string       `json:"content"`
	ParentID  *int         `json:"parent_id"`
	CreatedAt time.Time    `json:"created_at"`
}

// PostSummary 是嵌入在通知中的帖子简要信息
type PostSummary struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// PostFilter 帖子列表查询条件
type PostFilter struct {
	AuthorID      int
	Tag           string
	PublishedOnly bool
	ExcludeID     int
	AnyTags       []string
	Limit         int
}

// TagCount 标签聚合结果
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// VisibleTo 未发布的帖子只有作者可见
func (p *Post) VisibleTo(userID int) bool {
	return p.IsPublished || p.AuthorID == userID
}

// FindComment 在帖子的评论中查找指定评论
func (p *Post) FindComment(commentID int) *Comment {
	for _, c := range p.Comments {
		if c.ID == commentID {
			return c
		}
	}
	return nil
}

// IsLikedBy 判断用户是否点赞
func (p *Post) IsLikedBy(userID int) bool {
	return containsID(p.Likes, userID)
}
