package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// BuildImageURL 生成公开访问地址 {base}/{folder}/{ownerId}/{fileName}
func BuildImageURL(baseURL, folder, ownerID, fileName string) string {
	return fmt.Sprintf("%s/%s/%s/%s",
		strings.TrimRight(baseURL, "/"),
		folder,
		ownerID,
		fileName,
	)
}

// IsClientDisconnect 判断错误是否由客户端断开连接导致
func IsClientDisconnect(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "context canceled") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "connection reset by peer")
}

// HumanReadableSize 将字节数转换为可读格式
func HumanReadableSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	value := float64(n)
	suffixes := []string{"KB", "MB", "GB", "TB"}
	i := -1
	for value >= unit && i < len(suffixes)-1 {
		value /= unit
		i++
	}
	return fmt.Sprintf("%.2f %s", value, suffixes[i])
}
