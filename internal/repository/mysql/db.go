// Package mysql 基于 database/sql 实现仓库接口
// 语句只使用 MySQL 与 SQLite 共有的语法，测试使用内存 SQLite 运行同一套代码
package mysql

import (
	"context"
	"database/sql"
	"strings"

	"go.uber.org/zap"

	"github.com/siwachprerit/Drafted/internal/repository/interfaces"
	"github.com/siwachprerit/Drafted/internal/util"
)

var (
	_ interfaces.UserRepository         = (*userRepository)(nil)
	_ interfaces.PostRepository         = (*postRepository)(nil)
	_ interfaces.NotificationRepository = (*notificationRepository)(nil)
)

// querier 由 *sql.DB 和 *sql.Tx 共同实现
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// withTx 在事务中执行 fn，fn 返回错误时回滚
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		util.Logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		util.Logger.Error("提交事务失败", zap.Error(err))
		return err
	}
	return nil
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func intArgs(ids []int) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// queryIDs 读取单列整数结果
func queryIDs(ctx context.Context, q querier, query string, args ...interface{}) ([]int, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func exists(ctx context.Context, q querier, query string, args ...interface{}) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, query, args...).Scan(&n)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// insertOne 执行 INSERT ... SELECT，没有插入任何行说明关联的记录已不存在
func insertOne(ctx context.Context, q querier, query string, args ...interface{}) error {
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}
