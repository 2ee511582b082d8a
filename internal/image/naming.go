package image

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	reservedChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F\x7F]`)
)

// sanitizeFileName 空白替换为下划线，路径及保留字符替换为下划线
func sanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	name = whitespaceRun.ReplaceAllString(name, "_")
	return reservedChars.ReplaceAllString(name, "_")
}

// generateFileName 生成 {uuid}_{sanitized} 形式的唯一文件名，原始名为空时返回 false
func generateFileName(original string) (string, bool) {
	sanitized := sanitizeFileName(original)
	if sanitized == "" {
		return "", false
	}
	return uuid.New().String() + "_" + sanitized, true
}
