package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotExist 条目不存在
var ErrNotExist = errors.New("storage entry does not exist")

// Provider 存储提供者接口
// 路径均为以 "/" 分隔的相对路径，scope 为一个 {folder}/{ownerId} 目录
type Provider interface {
	// CreateScope 创建作用域目录，已存在时不报错
	CreateScope(ctx context.Context, scope string) error

	// WriteBlob 写入文件，覆盖同名文件
	WriteBlob(ctx context.Context, path string, content io.Reader) error

	// Exists 检查文件或作用域是否存在
	Exists(ctx context.Context, path string) (bool, error)

	// ListRegularEntries 列出作用域下的普通文件名，按名称排序，不包含子目录
	ListRegularEntries(ctx context.Context, scope string) ([]string, error)

	// DeleteBlob 删除单个文件，不存在时返回 ErrNotExist
	DeleteBlob(ctx context.Context, path string) error

	// DeleteTree 自底向上删除整个作用域，不存在时返回 ErrNotExist
	DeleteTree(ctx context.Context, scope string) error

	// Open 打开文件用于读取，不存在时返回 ErrNotExist
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Location 返回路径对应的完整存储位置
	Location(path string) string

	// Health 检查存储健康状态
	Health(ctx context.Context) error

	// Name 返回存储名称
	Name() string
}
