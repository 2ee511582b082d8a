package storage

import (
	"fmt"
	"strings"
	"unicode"
)

// IsValidStoragePath 校验存储路径是否合法
func IsValidStoragePath(p string) bool {
	if p == "" || strings.HasPrefix(p, "/") {
		return false
	}
	if strings.ContainsRune(p, '\\') {
		return false
	}

	for _, r := range p {
		if unicode.IsControl(r) {
			return false
		}
	}

	// 防止目录遍历
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}

	return true
}

// ScopePath 返回作用域路径 {folder}/{ownerId}
func ScopePath(folder, ownerID string) string {
	return folder + "/" + ownerID
}

// BlobPath 返回文件路径 {folder}/{ownerId}/{fileName}
func BlobPath(folder, ownerID, fileName string) string {
	return ScopePath(folder, ownerID) + "/" + fileName
}

func validatePath(p string) error {
	if !IsValidStoragePath(p) {
		return fmt.Errorf("invalid storage path: %q", p)
	}
	return nil
}
