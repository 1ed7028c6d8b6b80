package mysql

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/siwachprerit/Drafted/internal/model"
	"github.com/siwachprerit/Drafted/internal/repository/interfaces"
	"github.com/siwachprerit/Drafted/internal/util"
)

// userRepository 实现了 UserRepository 接口
type userRepository struct {
	db *sql.DB
}

// NewUserRepository 创建一个新的 userRepository 实例
func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db}
}

const userColumns = `id, name, username, email, password_hash, role, profile_picture, bio, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID, &user.Name, &user.Username, &user.Email, &user.PasswordHash,
		&user.Role, &user.ProfilePicture, &user.Bio, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create 创建一个新用户
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if user.Role == "" {
		user.Role = "user" // 设置默认角色
	}
	now := time.Now()
	query := `INSERT INTO users (name, username, email, password_hash, role, profile_picture, bio, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query, user.Name, user.Username, user.Email, user.PasswordHash,
		user.Role, user.ProfilePicture, user.Bio, now, now)
	if err != nil {
		util.Logger.Error("创建用户失败", zap.String("email", user.Email), zap.Error(err))
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		util.Logger.Error("获取新用户ID失败", zap.Error(err))
		return err
	}
	user.ID = int(id)
	user.CreatedAt, user.UpdatedAt = now, now
	user.Followers, user.Following, user.SavedPosts = []int{}, []int{}, []int{}
	util.Logger.Info("用户创建成功", zap.Int("user_id", user.ID))
	return nil
}

// FindByID 通过ID查找用户，附带关注和收藏关系
func (r *userRepository) FindByID(ctx context.Context, id int) (*model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// FindByEmail 通过邮箱查找用户
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// FindByUsername 通过用户名查找用户
func (r *userRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg interface{}) (*model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		util.Logger.Error("查找用户失败", zap.Error(err))
		return nil, err
	}
	if err := r.loadRelations(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) loadRelations(ctx context.Context, user *model.User) error {
	var err error
	if user.Followers, err = queryIDs(ctx, r.db,
		`SELECT follower_id FROM follows WHERE followed_id = ? ORDER BY created_at, follower_id`, user.ID); err != nil {
		return err
	}
	if user.Following, err = queryIDs(ctx, r.db,
		`SELECT followed_id FROM follows WHERE follower_id = ? ORDER BY created_at, followed_id`, user.ID); err != nil {
		return err
	}
	if user.SavedPosts, err = queryIDs(ctx, r.db,
		`SELECT post_id FROM saved_posts WHERE user_id = ? ORDER BY created_at, post_id`, user.ID); err != nil {
		return err
	}
	return nil
}

// Update 更新用户资料
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET name = ?, username = ?, email = ?, profile_picture = ?, bio = ?,
		    password_hash = COALESCE(NULLIF(?, ''), password_hash), updated_at = ?
		WHERE id = ?`,
		user.Name, user.Username, user.Email, user.ProfilePicture, user.Bio, user.PasswordHash, user.UpdatedAt, user.ID)
	if err != nil {
		util.Logger.Error("更新用户失败", zap.Int("user_id", user.ID), zap.Error(err))
	}
	return err
}

// Delete 删除用户以及所有关联数据
func (r *userRepository) Delete(ctx context.Context, id int) error {
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		postIDs, err := queryIDs(ctx, tx, `SELECT id FROM posts WHERE author_id = ?`, id)
		if err != nil {
			return err
		}
		for _, postID := range postIDs {
			if err := deletePostTx(ctx, tx, postID); err != nil {
				return err
			}
		}
		statements := []string{
			`DELETE FROM follows WHERE follower_id = ? OR followed_id = ?`,
			`DELETE FROM notifications WHERE recipient_id = ? OR sender_id = ?`,
		}
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt, id, id); err != nil {
				return err
			}
		}
		for _, stmt := range []string{
			`DELETE FROM post_likes WHERE user_id = ?`,
			`DELETE FROM saved_posts WHERE user_id = ?`,
			`DELETE FROM comments WHERE user_id = ?`,
			`DELETE FROM users WHERE id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		util.Logger.Error("删除用户失败", zap.Int("user_id", id), zap.Error(err))
		return err
	}
	util.Logger.Info("用户删除成功", zap.Int("user_id", id))
	return nil
}

// ToggleFollow 在同一事务中检查并切换关注关系
func (r *userRepository) ToggleFollow(ctx context.Context, followerID, followedID int) (bool, error) {
	var following bool
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		found, err := exists(ctx, tx,
			`SELECT 1 FROM follows WHERE follower_id = ? AND followed_id = ?`, followerID, followedID)
		if err != nil {
			return err
		}
		if found {
			_, err = tx.ExecContext(ctx,
				`DELETE FROM follows WHERE follower_id = ? AND followed_id = ?`, followerID, followedID)
			following = false
			return err
		}
		following = true
		return insertOne(ctx, tx, `
			INSERT INTO follows (follower_id, followed_id, created_at)
			SELECT f.id, t.id, ? FROM users f, users t WHERE f.id = ? AND t.id = ?`,
			time.Now(), followerID, followedID)
	})
	if errors.Is(err, interfaces.ErrNotFound) {
		return false, err
	}
	if err != nil {
		util.Logger.Error("切换关注关系失败",
			zap.Int("follower_id", followerID),
			zap.Int("followed_id", followedID),
			zap.Error(err))
		return false, err
	}
	return following, nil
}

// ToggleSave 切换收藏状态
func (r *userRepository) ToggleSave(ctx context.Context, userID, postID int) (bool, error) {
	var saved bool
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		found, err := exists(ctx, tx,
			`SELECT 1 FROM saved_posts WHERE user_id = ? AND post_id = ?`, userID, postID)
		if err != nil {
			return err
		}
		if found {
			_, err = tx.ExecContext(ctx, `DELETE FROM saved_posts WHERE user_id = ? AND post_id = ?`, userID, postID)
			saved = false
			return err
		}
		saved = true
		return insertOne(ctx, tx, `
			INSERT INTO saved_posts (user_id, post_id, created_at)
			SELECT u.id, p.id, ? FROM users u, posts p WHERE u.id = ? AND p.id = ?`,
			time.Now(), userID, postID)
	})
	if errors.Is(err, interfaces.ErrNotFound) {
		return false, err
	}
	if err != nil {
		util.Logger.Error("切换收藏失败", zap.Int("user_id", userID), zap.Int("post_id", postID), zap.Error(err))
		return false, err
	}
	return saved, nil
}

// ListFollowers 获取粉丝列表
func (r *userRepository) ListFollowers(ctx context.Context, userID int) ([]*model.User, error) {
	return r.listUsers(ctx, `
		SELECT u.id, u.name, u.username, u.email, u.password_hash, u.role, u.profile_picture, u.bio, u.created_at, u.updated_at
		FROM users u
		JOIN follows f ON f.follower_id = u.id
		WHERE f.followed_id = ?
		ORDER BY f.created_at, u.id`, userID)
}

// ListFollowing 获取关注列表
func (r *userRepository) ListFollowing(ctx context.Context, userID int) ([]*model.User, error) {
	return r.listUsers(ctx, `
		SELECT u.id, u.name, u.username, u.email, u.password_hash, u.role, u.profile_picture, u.bio, u.created_at, u.updated_at
		FROM users u
		JOIN follows f ON f.followed_id = u.id
		WHERE f.follower_id = ?
		ORDER BY f.created_at, u.id`, userID)
}

// Suggest 推荐尚未关注的用户，新注册的优先
func (r *userRepository) Suggest(ctx context.Context, userID, limit int) ([]*model.User, error) {
	return r.listUsers(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id <> ?
		  AND id NOT IN (SELECT followed_id FROM follows WHERE follower_id = ?)
		ORDER BY id DESC
		LIMIT ?`, userID, userID, limit)
}

func (r *userRepository) listUsers(ctx context.Context, query string, args ...interface{}) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		util.Logger.Error("查询用户列表失败", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	users := make([]*model.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
