package util

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// 允许上传的图片扩展名
var allowedImageExts = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".webp": true,
	".gif":  true,
}

// GenerateUniqueFilename 生成唯一的文件名
func GenerateUniqueFilename(originalFilename string) string {
	ext := filepath.Ext(originalFilename)
	name := filepath.Base(originalFilename)
	name = name[:len(name)-len(ext)]

	timestamp := strconv.FormatInt(time.Now().UnixNano(), 10)
	return name + "_" + timestamp + ext
}

// IsAllowedImage 根据扩展名和 Content-Type 判断是否为允许的图片
func IsAllowedImage(filename, contentType string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedImageExts[ext] {
		return false
	}
	if contentType == "" {
		return true
	}
	return strings.HasPrefix(contentType, "image/") && allowedImageExts["."+strings.TrimPrefix(contentType, "image/")]
}
