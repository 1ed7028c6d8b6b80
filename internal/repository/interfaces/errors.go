package interfaces

import "errors"

// ErrNotFound 表示写操作的目标记录在执行时已经不存在
// 查找类方法仍然返回 nil, nil
var ErrNotFound = errors.New("repository: record not found")
