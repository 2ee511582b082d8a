package validator

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen 读取用于识别类型的头部长度
const sniffLen = 3072

// allowedImageMimeTypes 允许上传的图片类型
var allowedImageMimeTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/bmp":     true,
	"image/avif":    true,
	"image/heic":    true,
	"image/heif":    true,
	"image/tiff":    true,
	"image/svg+xml": true,
	"image/x-icon":  true,
}

// IsAllowedImageType 判断 MIME 类型是否为允许的图片
func IsAllowedImageType(mimeType string) bool {
	return allowedImageMimeTypes[mimeType]
}

// SniffImage 识别流的 MIME 类型，返回可从头读取的完整流
func SniffImage(r io.Reader) (mimeType string, ok bool, full io.Reader, err error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", false, nil, fmt.Errorf("failed to read stream for mime sniffing: %w", err)
	}
	head = head[:n]

	mt := mimetype.Detect(head)
	full = io.MultiReader(bytes.NewReader(head), r)
	return mt.String(), isImage(mt), full, nil
}

// isImage 沿父类型链判断是否为允许的图片
func isImage(mt *mimetype.MIME) bool {
	for m := mt; m != nil; m = m.Parent() {
		if allowedImageMimeTypes[m.String()] {
			return true
		}
	}
	return false
}
