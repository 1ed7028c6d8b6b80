package util

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	MaxTags      = 10
	MaxTagLength = 30
)

// RegisterValidators 注册自定义验证器
func RegisterValidators(v *validator.Validate) error {
	return v.RegisterValidation("post_tags", ValidatePostTags)
}

// ValidatePostTags 验证标签数量与长度
func ValidatePostTags(fl validator.FieldLevel) bool {
	tags, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	return CheckTags(tags) == nil
}

// CheckTags 检查标签数量和每个标签的长度
func CheckTags(tags []string) error {
	if len(tags) > MaxTags {
		return fmt.Errorf("标签最多 %d 个", MaxTags)
	}
	for _, tag := range tags {
		n := utf8.RuneCountInString(strings.TrimSpace(tag))
		if n == 0 || n > MaxTagLength {
			return fmt.Errorf("标签长度必须在 1 到 %d 个字符之间", MaxTagLength)
		}
	}
	return nil
}

// NormalizeTags 去除空白、转小写并去重，保持原有顺序
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		result = append(result, tag)
	}
	return result
}

// Excerpt 截取前 n 个字符（按 rune 计算）
func Excerpt(text string, n int) string {
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n])
}
