package service

import (
	stderrors "errors"

	"github.com/siwachprerit/Drafted/internal/errors"
	"github.com/siwachprerit/Drafted/internal/repository/interfaces"
)

// unavailable 包装存储层错误，原始错误只进日志
func unavailable(message string, err error) error {
	return errors.Wrap(errors.ErrUnavailable, message, err)
}

// vanished 目标在检查之后被并发删除时按不存在处理
func vanished(err error, code errors.ErrorCode, missing, message string) error {
	if stderrors.Is(err, interfaces.ErrNotFound) {
		return errors.New(code, missing)
	}
	return unavailable(message, err)
}
