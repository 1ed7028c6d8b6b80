package mysql

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/siwachprerit/Drafted/internal/model"
	"github.com/siwachprerit/Drafted/internal/util"
)

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *notificationRepository {
	return &notificationRepository{db: db}
}

const notificationSelect = `
	SELECT n.id, n.recipient_id, n.sender_id, n.kind, n.post_id, n.content, n.is_read, n.created_at,
	       u.name, u.username, u.profile_picture, p.title
	FROM notifications n
	LEFT JOIN users u ON n.sender_id = u.id
	LEFT JOIN posts p ON n.post_id = p.id`

func scanNotification(row interface{ Scan(...interface{}) error }) (*model.Notification, error) {
	var n model.Notification
	var kind string
	var postID sql.NullInt64
	var name, username, picture, title sql.NullString
	err := row.Scan(&n.ID, &n.RecipientID, &n.SenderID, &kind, &postID, &n.Content, &n.IsRead, &n.CreatedAt,
		&name, &username, &picture, &title)
	if err != nil {
		return nil, err
	}
	if n.Kind, err = model.ParseNotificationKind(kind); err != nil {
		return nil, err
	}
	if name.Valid {
		n.Sender = &model.UserSummary{ID: n.SenderID, Name: name.String, Username: username.String, ProfilePicture: picture.String}
	}
	if postID.Valid {
		id := int(postID.Int64)
		n.PostID = &id
		if title.Valid {
			n.Post = &model.PostSummary{ID: id, Title: title.String}
		}
	}
	return &n, nil
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (recipient_id, sender_id, kind, post_id, content, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.RecipientID, n.SenderID, string(n.Kind), n.PostID, n.Content, n.IsRead, n.CreatedAt)
	if err != nil {
		util.Logger.Error("创建通知失败",
			zap.Int("recipient_id", n.RecipientID),
			zap.String("kind", string(n.Kind)),
			zap.Error(err))
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = int(id)
	return nil
}

func (r *notificationRepository) FindByID(ctx context.Context, id int) (*model.Notification, error) {
	n, err := scanNotification(r.db.QueryRowContext(ctx, notificationSelect+` WHERE n.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return n, err
}

func (r *notificationRepository) FindOne(ctx context.Context, q model.NotificationQuery) (*model.Notification, error) {
	where := []string{"n.recipient_id = ?", "n.sender_id = ?", "n.kind = ?"}
	args := []interface{}{q.RecipientID, q.SenderID, string(q.Kind)}
	if q.PostID != nil {
		where = append(where, "n.post_id = ?")
		args = append(args, *q.PostID)
	} else {
		where = append(where, "n.post_id IS NULL")
	}
	if q.Content != nil {
		where = append(where, "n.content = ?")
		args = append(args, *q.Content)
	}
	query := notificationSelect + " WHERE " + strings.Join(where, " AND ") +
		" ORDER BY n.created_at DESC, n.id DESC LIMIT 1"

	n, err := scanNotification(r.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		util.Logger.Error("查询通知失败", zap.Error(err))
		return nil, err
	}
	return n, nil
}

func (r *notificationRepository) Refresh(ctx context.Context, id int, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = ?, created_at = ? WHERE id = ?`, false, at, id)
	return err
}

func (r *notificationRepository) Delete(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	if err != nil {
		util.Logger.Error("删除通知失败", zap.Int("notification_id", id), zap.Error(err))
	}
	return err
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID, limit int) ([]*model.Notification, error) {
	query := notificationSelect + ` WHERE n.recipient_id = ? ORDER BY n.created_at DESC, n.id DESC`
	args := []interface{}{recipientID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		util.Logger.Error("获取通知列表失败", zap.Int("recipient_id", recipientID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, n)
	}
	return list, rows.Err()
}

func (r *notificationRepository) CountUnread(ctx context.Context, recipientID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = ? AND is_read = ?`, recipientID, false).Scan(&count)
	return count, err
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID int) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = ? WHERE recipient_id = ? AND is_read = ?`, true, recipientID, false)
	if err != nil {
		util.Logger.Error("标记通知已读失败", zap.Int("recipient_id", recipientID), zap.Error(err))
		return 0, err
	}
	return result.RowsAffected()
}

func (r *notificationRepository) DeleteAllByRecipient(ctx context.Context, recipientID int) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE recipient_id = ?`, recipientID)
	if err != nil {
		util.Logger.Error("清空通知失败", zap.Int("recipient_id", recipientID), zap.Error(err))
		return 0, err
	}
	return result.RowsAffected()
}
