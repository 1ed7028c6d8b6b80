// Package storage 保存上传的图片并返回可访问的地址
package storage

import (
	"context"
	"fmt"
	"mime/multipart"
	"path"

	"github.com/siwachprerit/Drafted/config"
)

// Uploader 保存文件并返回公开访问的 URL
type Uploader interface {
	UploadFile(ctx context.Context, file *multipart.FileHeader, key string) (string, error)
}

var (
	_ Uploader = (*LocalStorage)(nil)
	_ Uploader = (*S3Client)(nil)
	_ Uploader = (*GCSClient)(nil)
)

// New 根据配置选择存储驱动
func New(ctx context.Context, cfg config.Config) (Uploader, error) {
	switch cfg.StorageDriver {
	case "local", "":
		return NewLocalStorage(cfg.LocalStoragePath, cfg.BackendURL+"/uploads")
	case "s3":
		return NewS3Client(cfg.S3Region, cfg.S3Bucket)
	case "gcs":
		return NewGCSClient(ctx, cfg.GCSProjectID, cfg.GCSBucketName, cfg.GCSCredentialsFile)
	default:
		return nil, fmt.Errorf("不支持的存储驱动: %s", cfg.StorageDriver)
	}
}

// ImageKey 返回上传图片的存储路径
func ImageKey(userID int, filename string) string {
	return path.Join("images", fmt.Sprintf("%d", userID), filename)
}
