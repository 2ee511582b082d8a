package image

import (
	"errors"
	"fmt"
)

var (
	// ErrUpload 上传失败
	ErrUpload = errors.New("upload failed")
	// ErrDeletion 删除失败
	ErrDeletion = errors.New("deletion failed")
	// ErrNotFound 图片或作用域不存在
	ErrNotFound = errors.New("not found")
)

// UploadError 存储或写入记录失败，Identifier 为所有者 ID
type UploadError struct {
	Identifier string
	Msg        string
	Err        error
}

func (e *UploadError) Error() string {
	return formatError(e.Msg, e.Identifier, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

func (e *UploadError) Is(target error) bool { return target == ErrUpload }

// DeletionError 删除文件或记录失败，Identifier 为文件名或所有者 ID
type DeletionError struct {
	Identifier string
	Msg        string
	Err        error
}

func (e *DeletionError) Error() string {
	return formatError(e.Msg, e.Identifier, e.Err)
}

func (e *DeletionError) Unwrap() error { return e.Err }

func (e *DeletionError) Is(target error) bool { return target == ErrDeletion }

// NotFoundError 指定的文件或作用域不存在
type NotFoundError struct {
	Identifier string
	Msg        string
}

func (e *NotFoundError) Error() string {
	return formatError(e.Msg, e.Identifier, nil)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

func formatError(msg, identifier string, cause error) string {
	s := fmt.Sprintf("%s: %s", msg, identifier)
	if cause != nil {
		s += ": " + cause.Error()
	}
	return s
}
