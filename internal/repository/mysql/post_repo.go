package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/siwachprerit/Drafted/internal/model"
	"github.com/siwachprerit/Drafted/internal/repository/interfaces"
	"github.com/siwachprerit/Drafted/internal/util"
)

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) *postRepository {
	return &postRepository{db: db}
}

const postSelect = `
	SELECT p.id, p.author_id, p.title, p.content, p.cover_image, p.is_published, p.views, p.slug,
	       p.created_at, p.updated_at, u.name, u.username, u.profile_picture
	FROM posts p
	LEFT JOIN users u ON p.author_id = u.id`

func scanPost(row interface{ Scan(...interface{}) error }) (*model.Post, error) {
	var post model.Post
	var name, username, picture sql.NullString
	err := row.Scan(
		&post.ID, &post.AuthorID, &post.Title, &post.Content, &post.CoverImage, &post.IsPublished,
		&post.Views, &post.Slug, &post.CreatedAt, &post.UpdatedAt, &name, &username, &picture,
	)
	if err != nil {
		return nil, err
	}
	if name.Valid {
		post.Author = &model.UserSummary{
			ID:             post.AuthorID,
			Name:           name.String,
			Username:       username.String,
			ProfilePicture: picture.String,
		}
	}
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	now := time.Now()
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO posts (author_id, title, content, cover_image, is_published, views, slug, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?)`,
			post.AuthorID, post.Title, post.Content, post.CoverImage, post.IsPublished, post.Slug, now, now)
		if err != nil {
			return err
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		post.ID = int(id)
		return insertTags(ctx, tx, post.ID, post.Tags)
	})
	if err != nil {
		util.Logger.Error("创建帖子失败", zap.Int("author_id", post.AuthorID), zap.Error(err))
		return err
	}
	post.CreatedAt, post.UpdatedAt = now, now
	post.Likes, post.Comments = []int{}, []*model.Comment{}
	util.Logger.Info("帖子创建成功", zap.Int("post_id", post.ID))
	return nil
}

func insertTags(ctx context.Context, tx *sql.Tx, postID int, tags []string) error {
	for i, tag := range tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO post_tags (post_id, tag, position) VALUES (?, ?, ?)`, postID, tag, i); err != nil {
			return err
		}
	}
	return nil
}

func (r *postRepository) FindByID(ctx context.Context, id int) (*model.Post, error) {
	return r.findOne(ctx, postSelect+` WHERE p.id = ?`, id)
}

func (r *postRepository) FindBySlug(ctx context.Context, slug string) (*model.Post, error) {
	return r.findOne(ctx, postSelect+` WHERE p.slug = ?`, slug)
}

func (r *postRepository) findOne(ctx context.Context, query string, arg interface{}) (*model.Post, error) {
	post, err := scanPost(r.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		util.Logger.Error("查询帖子失败", zap.Error(err))
		return nil, err
	}
	if err := r.loadRelations(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// loadRelations 加载标签、点赞和评论
func (r *postRepository) loadRelations(ctx context.Context, post *model.Post) error {
	var err error
	if post.Tags, err = r.tags(ctx, post.ID); err != nil {
		return err
	}
	if post.Likes, err = queryIDs(ctx, r.db,
		`SELECT user_id FROM post_likes WHERE post_id = ? ORDER BY created_at, user_id`, post.ID); err != nil {
		return err
	}
	post.Comments, err = listComments(ctx, r.db, post.ID)
	return err
}

func (r *postRepository) tags(ctx context.Context, postID int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT tag FROM post_tags WHERE post_id = ? ORDER BY position`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make([]string, 0)
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func listComments(ctx context.Context, q querier, postID int) ([]*model.Comment, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT c.id, c.post_id, c.user_id, c.parent_id, c.content, c.created_at,
		       u.name, u.username, u.profile_picture
		FROM comments c
		LEFT JOIN users u ON c.user_id = u.id
		WHERE c.post_id = ?
		ORDER BY c.created_at, c.id`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]*model.Comment, 0)
	for rows.Next() {
		var c model.Comment
		var parentID sql.NullInt64
		var name, username, picture sql.NullString
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &parentID, &c.Content, &c.CreatedAt,
			&name, &username, &picture); err != nil {
			return nil, err
		}
		if parentID.Valid {
			pid := int(parentID.Int64)
			c.ParentID = &pid
		}
		if name.Valid {
			c.User = &model.UserSummary{ID: c.UserID, Name: name.String, Username: username.String, ProfilePicture: picture.String}
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

func (r *postRepository) SlugExists(ctx context.Context, slug string, excludeID int) (bool, error) {
	return exists(ctx, r.db, `SELECT 1 FROM posts WHERE slug = ? AND id <> ?`, slug, excludeID)
}

func (r *postRepository) Update(ctx context.Context, post *model.Post) error {
	post.UpdatedAt = time.Now()
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE posts
			SET title = ?, content = ?, cover_image = ?, is_published = ?, slug = ?, updated_at = ?
			WHERE id = ?`,
			post.Title, post.Content, post.CoverImage, post.IsPublished, post.Slug, post.UpdatedAt, post.ID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = ?`, post.ID); err != nil {
			return err
		}
		return insertTags(ctx, tx, post.ID, post.Tags)
	})
	if err != nil {
		util.Logger.Error("更新帖子失败", zap.Int("post_id", post.ID), zap.Error(err))
	}
	return err
}

func (r *postRepository) Delete(ctx context.Context, id int) error {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		return deletePostTx(ctx, tx, id)
	})
	if err != nil {
		util.Logger.Error("删除帖子失败", zap.Int("post_id", id), zap.Error(err))
		return err
	}
	util.Logger.Info("帖子删除成功", zap.Int("post_id", id))
	return nil
}

// deletePostTx 删除帖子及其标签、点赞、评论、收藏和相关通知
func deletePostTx(ctx context.Context, tx *sql.Tx, postID int) error {
	for _, stmt := range []string{
		`DELETE FROM post_tags WHERE post_id = ?`,
		`DELETE FROM post_likes WHERE post_id = ?`,
		`DELETE FROM comments WHERE post_id = ?`,
		`DELETE FROM saved_posts WHERE post_id = ?`,
		`DELETE FROM notifications WHERE post_id = ?`,
		`DELETE FROM posts WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, postID); err != nil {
			return err
		}
	}
	return nil
}

func (r *postRepository) List(ctx context.Context, filter model.PostFilter) ([]*model.Post, error) {
	var where []string
	var args []interface{}

	if filter.AuthorID != 0 {
		where = append(where, "p.author_id = ?")
		args = append(args, filter.AuthorID)
	}
	if filter.PublishedOnly {
		where = append(where, "p.is_published = ?")
		args = append(args, true)
	}
	if filter.ExcludeID != 0 {
		where = append(where, "p.id <> ?")
		args = append(args, filter.ExcludeID)
	}
	if filter.Tag != "" {
		where = append(where, "p.id IN (SELECT post_id FROM post_tags WHERE tag = ?)")
		args = append(args, filter.Tag)
	}
	if len(filter.AnyTags) > 0 {
		where = append(where, "p.id IN (SELECT post_id FROM post_tags WHERE tag IN ("+placeholders(len(filter.AnyTags))+"))")
		for _, t := range filter.AnyTags {
			args = append(args, t)
		}
	}

	query := postSelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY p.created_at DESC, p.id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	return r.listPosts(ctx, query, args...)
}

// ListByIDs 按传入ID的顺序返回帖子，不存在的ID被忽略
func (r *postRepository) ListByIDs(ctx context.Context, ids []int) ([]*model.Post, error) {
	if len(ids) == 0 {
		return []*model.Post{}, nil
	}
	posts, err := r.listPosts(ctx, postSelect+` WHERE p.id IN (`+placeholders(len(ids))+`)`, intArgs(ids)...)
	if err != nil {
		return nil, err
	}
	byID := make(map[int]*model.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}
	ordered := make([]*model.Post, 0, len(posts))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

func (r *postRepository) listPosts(ctx context.Context, query string, args ...interface{}) ([]*model.Post, error) {
	posts, err := r.scanPosts(ctx, query, args...)
	if err != nil {
		util.Logger.Error("查询帖子列表失败", zap.Error(err))
		return nil, err
	}
	for _, p := range posts {
		if err := r.loadRelations(ctx, p); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

func (r *postRepository) scanPosts(ctx context.Context, query string, args ...interface{}) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]*model.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

func (r *postRepository) IncrementViews(ctx context.Context, id int) (int, error) {
	var views int
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE posts SET views = views + 1 WHERE id = ?`, id); err != nil {
			return err
		}
		err := tx.QueryRowContext(ctx, `SELECT views FROM posts WHERE id = ?`, id).Scan(&views)
		if err == sql.ErrNoRows {
			return nil
		}
		return err
	})
	return views, err
}

func (r *postRepository) TagCounts(ctx context.Context) ([]model.TagCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.tag, COUNT(*) AS cnt
		FROM post_tags t
		JOIN posts p ON p.id = t.post_id
		WHERE p.is_published = ?
		GROUP BY t.tag
		ORDER BY cnt DESC, t.tag`, true)
	if err != nil {
		util.Logger.Error("统计标签失败", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	counts := make([]model.TagCount, 0)
	for rows.Next() {
		var tc model.TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, tc)
	}
	return counts, rows.Err()
}

func (r *postRepository) ToggleLike(ctx context.Context, postID, userID int) ([]int, bool, error) {
	var likes []int
	var liked bool
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		found, err := exists(ctx, tx, `SELECT 1 FROM post_likes WHERE post_id = ? AND user_id = ?`, postID, userID)
		if err != nil {
			return err
		}
		if found {
			_, err = tx.ExecContext(ctx, `DELETE FROM post_likes WHERE post_id = ? AND user_id = ?`, postID, userID)
		} else {
			// 从 posts 中选出插入行，帖子已被删除时不会留下孤立的点赞
			err = insertOne(ctx, tx, `
				INSERT INTO post_likes (post_id, user_id, created_at)
				SELECT id, ?, ? FROM posts WHERE id = ?`, userID, time.Now(), postID)
		}
		if err != nil {
			return err
		}
		liked = !found
		likes, err = queryIDs(ctx, tx, `SELECT user_id FROM post_likes WHERE post_id = ? ORDER BY created_at, user_id`, postID)
		return err
	})
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, false, err
	}
	if err != nil {
		util.Logger.Error("切换点赞失败", zap.Int("post_id", postID), zap.Int("user_id", userID), zap.Error(err))
		return nil, false, err
	}
	return likes, liked, nil
}

func (r *postRepository) AddComment(ctx context.Context, comment *model.Comment) ([]*model.Comment, error) {
	comment.CreatedAt = time.Now()
	var comments []*model.Comment
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO comments (post_id, user_id, parent_id, content, created_at)
			SELECT id, ?, ?, ?, ? FROM posts WHERE id = ?`,
			comment.UserID, comment.ParentID, comment.Content, comment.CreatedAt, comment.PostID)
		if err != nil {
			return err
		}
		if n, err := result.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return interfaces.ErrNotFound
		}
		id, err := result.LastInsertId()
		if err != nil {
			return err
		}
		comment.ID = int(id)
		comments, err = listComments(ctx, tx, comment.PostID)
		return err
	})
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		util.Logger.Error("创建评论失败", zap.Int("post_id", comment.PostID), zap.Error(err))
		return nil, err
	}
	return comments, nil
}

func (r *postRepository) DeleteComment(ctx context.Context, postID, commentID int) ([]*model.Comment, error) {
	var comments []*model.Comment
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id = ? AND post_id = ?`, commentID, postID); err != nil {
			return err
		}
		var err error
		comments, err = listComments(ctx, tx, postID)
		return err
	})
	if err != nil {
		util.Logger.Error("删除评论失败", zap.Int("comment_id", commentID), zap.Error(err))
		return nil, err
	}
	return comments, nil
}
